package mcp

import (
	"testing"

	"github.com/fdalabs/fda-drugs-mcp/internal/scrape"
)

func TestFilterGuidance(t *testing.T) {
	docs := []scrape.GuidanceDocument{
		{Title: "Labeling for Biosimilars", Type: "Final", Center: "Center for Drug Evaluation and Research", Topics: "Labeling"},
		{Title: "Gene Therapy Manufacturing", Type: "Draft", Center: "Center for Biologics Evaluation and Research", Topics: "Manufacturing"},
		{Title: "Drug Labeling Updates", Type: "Draft", Center: "Center for Drug Evaluation and Research", Topics: "Labeling"},
	}

	tests := []struct {
		name    string
		center  string
		docType string
		topic   string
		want    int
	}{
		{"no filters", "", "", "", 3},
		{"center substring", "drug evaluation", "", "", 2},
		{"doc type case-insensitive exact", "", "final", "", 1},
		{"topic matches topics field", "", "", "labeling", 2},
		{"topic matches title", "", "", "gene therapy", 1},
		{"combined", "drug evaluation", "Draft", "labeling", 1},
		{"no matches", "CDRH", "", "", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := filterGuidance(docs, tt.center, tt.docType, tt.topic)
			if len(got) != tt.want {
				t.Errorf("got %d documents, want %d", len(got), tt.want)
			}
		})
	}
}
