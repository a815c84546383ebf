// Package review finds FDA review documents for approved drugs, combining
// a curated CSV index with live Drugs@FDA lookups.
package review

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/fdalabs/fda-drugs-mcp/internal/log"
)

// CSV column names of the curated review index.
const (
	colBrandName         = "Brand Name"
	colGenericName       = "Generic Name"
	colSetID             = "SPL Set ID"
	colApplicationNumber = "Application Number"
)

// Store reads the curated drug_reviews.csv index. Rows are header-keyed so
// extra columns pass through untouched.
type Store struct {
	path   string
	logger log.Logger
}

// NewStore creates a Store over the CSV at path. The file is read on every
// search, so the index can be regenerated without a restart.
func NewStore(path string, logger log.Logger) *Store {
	return &Store{path: path, logger: logger}
}

// Query filters the review index. Zero-value fields are ignored.
type Query struct {
	DrugName          string // case-insensitive substring on brand or generic name
	SetID             string // exact
	ApplicationNumber string // exact
}

// Search returns the rows matching every set field of q.
// A missing index file is not an error; it means no curated data yet.
func (s *Store) Search(q Query) ([]map[string]string, error) {
	f, err := os.Open(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			s.logger.Debug("review index not found", "path", s.path)
			return []map[string]string{}, nil
		}
		return nil, fmt.Errorf("opening review index: %w", err)
	}
	defer func() { _ = f.Close() }()

	reader := csv.NewReader(f)
	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return []map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading review index header: %w", err)
	}

	drugName := strings.ToLower(q.DrugName)
	matches := []map[string]string{}

	for {
		fields, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading review index row: %w", err)
		}

		row := make(map[string]string, len(header))
		for i, col := range header {
			if i < len(fields) {
				row[col] = fields[i]
			}
		}

		if drugName != "" &&
			!strings.Contains(strings.ToLower(row[colBrandName]), drugName) &&
			!strings.Contains(strings.ToLower(row[colGenericName]), drugName) {
			continue
		}
		if q.SetID != "" && row[colSetID] != q.SetID {
			continue
		}
		if q.ApplicationNumber != "" && row[colApplicationNumber] != q.ApplicationNumber {
			continue
		}

		matches = append(matches, row)
	}

	return matches, nil
}
