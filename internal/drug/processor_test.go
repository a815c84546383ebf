package drug

import (
	"reflect"
	"testing"

	"github.com/fdalabs/fda-drugs-mcp/internal/fda"
)

func labelRecord(setID, generic, brand string) fda.Record {
	return fda.Record{
		"set_id": setID,
		"openfda": map[string]any{
			"generic_name":       []any{generic},
			"brand_name":         []any{brand},
			"manufacturer_name":  []any{"Acme Pharma"},
			"application_number": []any{"NDA021436"},
			"route":              []any{"ORAL"},
			"pharm_class_epc":    []any{"Kinase Inhibitor [EPC]"},
		},
		"indications_and_usage":      []any{"For the treatment of things."},
		"dosage_forms_and_strengths": []any{"Tablets: 10 mg."},
	}
}

func TestProcessSearchResults(t *testing.T) {
	raw := []fda.Record{labelRecord("set-1", "EXAMPLITINIB HYDROCHLORIDE", "Examplar")}

	records := ProcessSearchResults(raw)
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}

	r := records[0]
	if r.GenericName != "EXAMPLITINIB" {
		t.Errorf("GenericName = %q, want salt suffix stripped", r.GenericName)
	}
	if r.BrandName != "Examplar" {
		t.Errorf("BrandName = %q", r.BrandName)
	}
	if r.ApplicationType != "NDA" {
		t.Errorf("ApplicationType = %q, want NDA", r.ApplicationType)
	}
	if r.DailyMedURL != "https://dailymed.nlm.nih.gov/dailymed/fda/fdaDrugXsl.cfm?setid=set-1&type=display" {
		t.Errorf("DailyMedURL = %q", r.DailyMedURL)
	}
	if r.PharmacologicClass.EstablishedPharmacologicClass != "Kinase Inhibitor [EPC]" {
		t.Errorf("EstablishedPharmacologicClass = %q", r.PharmacologicClass.EstablishedPharmacologicClass)
	}
}

func TestProcessSearchResults_Dedup(t *testing.T) {
	raw := []fda.Record{
		labelRecord("set-1", "Examplitinib", "Examplar"),
		labelRecord("set-2", "EXAMPLITINIB", "EXAMPLAR"), // same pair, different case
		labelRecord("set-3", "Examplitinib", "Othermark"),
	}

	records := ProcessSearchResults(raw)
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	if records[0].SetID != "set-1" || records[1].SetID != "set-3" {
		t.Errorf("dedup kept wrong records: %q, %q", records[0].SetID, records[1].SetID)
	}
}

// Processing already-deduplicated input must be a no-op on the result set.
func TestProcessSearchResults_Idempotent(t *testing.T) {
	raw := []fda.Record{
		labelRecord("set-1", "Examplitinib", "Examplar"),
		labelRecord("set-1", "Examplitinib", "Examplar"),
		labelRecord("set-2", "Otherdrug", "Othermark"),
	}

	once := ProcessSearchResults(raw)

	again := make([]fda.Record, 0, len(once))
	for _, r := range once {
		again = append(again, labelRecord(r.SetID, r.GenericName, r.BrandName))
	}

	twice := ProcessSearchResults(again)
	if !reflect.DeepEqual(once, twice) {
		t.Errorf("reprocessing changed results:\nonce:  %+v\ntwice: %+v", once, twice)
	}
}

func TestProcessSearchResults_MissingOpenFDA(t *testing.T) {
	raw := []fda.Record{{"set_id": "bare"}}

	records := ProcessSearchResults(raw)
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}
	if records[0].SetID != "bare" || records[0].GenericName != "" {
		t.Errorf("unexpected record: %+v", records[0])
	}
}

func TestProcessDetails(t *testing.T) {
	raw := labelRecord("set-1", "Examplitinib", "Examplar")
	raw["clinical_studies"] = []any{
		"Efficacy was established in NCT01234567 and NCT07654321.",
		"NCT01234567 enrolled 400 subjects.",
	}
	raw["boxed_warning"] = []any{"WARNING: SERIOUS THING"}
	raw["pregnancy"] = []any{"Use only if needed."}
	raw["effective_time"] = "20240115"

	d := ProcessDetails(raw)
	if want := []string{"NCT01234567", "NCT07654321"}; !reflect.DeepEqual(d.NCTIDs, want) {
		t.Errorf("NCTIDs = %v, want %v", d.NCTIDs, want)
	}
	if d.BoxedWarning != "WARNING: SERIOUS THING" {
		t.Errorf("BoxedWarning = %q", d.BoxedWarning)
	}
	if d.SpecialPopulations.Pregnancy != "Use only if needed." {
		t.Errorf("Pregnancy = %q", d.SpecialPopulations.Pregnancy)
	}
	if d.EffectiveTime != "20240115" {
		t.Errorf("EffectiveTime = %q", d.EffectiveTime)
	}
}

func TestProcessApplicationHistory(t *testing.T) {
	raw := fda.Record{
		"application_number": "BLA125514",
		"sponsor_name":       "Acme Bio",
		"products": []any{
			map[string]any{
				"product_number": "001",
				"brand_name":     "Examplar",
				"active_ingredients": []any{
					map[string]any{"name": "EXAMPLUMAB", "strength": "100MG/4ML"},
				},
				"dosage_form":      "SOLUTION",
				"route":            "INTRAVENOUS",
				"marketing_status": "Prescription",
			},
		},
		"submissions": []any{
			map[string]any{
				"submission_type":                   "ORIG",
				"submission_number":                 "1",
				"submission_status":                 "AP",
				"submission_status_date":            "20140904",
				"review_priority":                   "PRIORITY",
				"submission_class_code":             "N",
				"submission_class_code_description": "Type 1 - New Molecular Entity",
			},
		},
	}

	h := ProcessApplicationHistory(raw)
	if h.ApplicationType != "BLA" {
		t.Errorf("ApplicationType = %q, want BLA", h.ApplicationType)
	}
	if len(h.Products) != 1 || len(h.Submissions) != 1 {
		t.Fatalf("got %d products, %d submissions", len(h.Products), len(h.Submissions))
	}
	p := h.Products[0]
	if p.BrandName != "Examplar" || len(p.ActiveIngredients) != 1 || p.ActiveIngredients[0].Name != "EXAMPLUMAB" {
		t.Errorf("unexpected product: %+v", p)
	}
	s := h.Submissions[0]
	if s.SubmissionStatus != "AP" || s.ReviewPriority != "PRIORITY" {
		t.Errorf("unexpected submission: %+v", s)
	}
}

func TestProcessApplicationHistory_Empty(t *testing.T) {
	h := ProcessApplicationHistory(fda.Record{"application_number": "NDA000001"})
	if h.Products == nil || h.Submissions == nil {
		t.Error("products and submissions should be empty slices, not nil")
	}
	if len(h.Products) != 0 || len(h.Submissions) != 0 {
		t.Errorf("got %d products, %d submissions", len(h.Products), len(h.Submissions))
	}
}

func TestCleanGenericName(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"METFORMIN HYDROCHLORIDE", "METFORMIN"},
		{"medroxyprogesterone acetate", "medroxyprogesterone"},
		{"ALBUTEROL SULFATE", "ALBUTEROL"},
		{"insulin glargine recombinant", "insulin glargine"},
		{"pembrolizumab-abcd", "pembrolizumab"},
		{"ADALIMUMAB", "ADALIMUMAB"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := CleanGenericName(tt.in); got != tt.want {
			t.Errorf("CleanGenericName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestApplicationType(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"BLA125514", "BLA"},
		{"NDA021436", "NDA"},
		{"ANDA077775", "ANDA"},
		{"part340", "Other"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := ApplicationType(tt.in); got != tt.want {
			t.Errorf("ApplicationType(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestIsGeneric(t *testing.T) {
	if !IsGeneric("ANDA077775") {
		t.Error("ANDA should be generic")
	}
	if IsGeneric("NDA021436") || IsGeneric("") {
		t.Error("NDA and empty should not be generic")
	}
}

func TestDailyMedURL_Empty(t *testing.T) {
	if got := DailyMedURL(""); got != "" {
		t.Errorf("DailyMedURL(\"\") = %q", got)
	}
}

func TestExtractNCTIDs(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"dedup", "NCT01234567, NCT01234567 and NCT09999999", []string{"NCT01234567", "NCT09999999"}},
		{"none", "no trial identifiers here", []string{}},
		{"empty", "", []string{}},
		{"short id ignored", "NCT1234567", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractNCTIDs(tt.in); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ExtractNCTIDs(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}
