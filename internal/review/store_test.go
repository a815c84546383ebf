package review

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/fdalabs/fda-drugs-mcp/internal/log"
)

const reviewCSV = `Brand Name,Generic Name,SPL Set ID,Application Number,Review URL
KEYTRUDA,pembrolizumab,set-keytruda,BLA125514,https://example.com/keytruda.cfm
OZEMPIC,semaglutide,set-ozempic,NDA209637,https://example.com/ozempic.cfm
WEGOVY,semaglutide,set-wegovy,NDA215256,https://example.com/wegovy.pdf
`

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "drug_reviews.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}
	return path
}

func TestStoreSearch_ByDrugName(t *testing.T) {
	store := NewStore(writeCSV(t, reviewCSV), log.NewNop())

	rows, err := store.Search(Query{DrugName: "semaglutide"})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	if rows[0]["Brand Name"] != "OZEMPIC" || rows[1]["Brand Name"] != "WEGOVY" {
		t.Errorf("unexpected rows: %v", rows)
	}
}

func TestStoreSearch_NameIsSubstringCaseInsensitive(t *testing.T) {
	store := NewStore(writeCSV(t, reviewCSV), log.NewNop())

	rows, err := store.Search(Query{DrugName: "keyt"})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(rows) != 1 || rows[0]["Generic Name"] != "pembrolizumab" {
		t.Errorf("unexpected rows: %v", rows)
	}
}

func TestStoreSearch_ExactFilters(t *testing.T) {
	store := NewStore(writeCSV(t, reviewCSV), log.NewNop())

	rows, err := store.Search(Query{SetID: "set-ozempic"})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(rows) != 1 || rows[0]["Application Number"] != "NDA209637" {
		t.Errorf("set id lookup: %v", rows)
	}

	rows, err = store.Search(Query{ApplicationNumber: "BLA125514"})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(rows) != 1 || rows[0]["Brand Name"] != "KEYTRUDA" {
		t.Errorf("application number lookup: %v", rows)
	}

	// Combined filters must all match.
	rows, err = store.Search(Query{DrugName: "semaglutide", SetID: "set-keytruda"})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("conflicting filters matched: %v", rows)
	}
}

func TestStoreSearch_MissingFile(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "absent.csv"), log.NewNop())

	rows, err := store.Search(Query{DrugName: "anything"})
	if err != nil {
		t.Fatalf("missing file should not error: %v", err)
	}
	if rows == nil || len(rows) != 0 {
		t.Errorf("rows = %v, want empty slice", rows)
	}
}

func TestStoreSearch_EmptyFile(t *testing.T) {
	store := NewStore(writeCSV(t, ""), log.NewNop())

	rows, err := store.Search(Query{})
	if err != nil {
		t.Fatalf("empty file should not error: %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("rows = %v, want empty", rows)
	}
}

func TestStoreSearch_ExtraColumnsPassThrough(t *testing.T) {
	store := NewStore(writeCSV(t, reviewCSV), log.NewNop())

	rows, err := store.Search(Query{SetID: "set-wegovy"})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(rows) != 1 || rows[0]["Review URL"] != "https://example.com/wegovy.pdf" {
		t.Errorf("extra column lost: %v", rows)
	}
}
