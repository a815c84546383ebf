package review

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/fdalabs/fda-drugs-mcp/internal/fda"
	"github.com/fdalabs/fda-drugs-mcp/internal/log"
)

type stubClient struct {
	info fda.ReviewInfo
	err  error
}

func (s stubClient) ReviewInfoBySetID(_ context.Context, _ string) (fda.ReviewInfo, error) {
	return s.info, s.err
}

type stubExtractor struct {
	pdfs   []string
	err    error
	called string
}

func (s *stubExtractor) ExtractReviewPDFs(_ context.Context, pageURL string) ([]string, error) {
	s.called = pageURL
	return s.pdfs, s.err
}

func TestFinder_CFMPageIsScraped(t *testing.T) {
	extractor := &stubExtractor{pdfs: []string{"https://example.com/medr.pdf", "https://example.com/chemr.pdf"}}
	f, err := NewFinder(stubClient{info: fda.ReviewInfo{
		ApplicationNumber: "NDA209637",
		ReviewURL:         "https://example.com/toc.CFM",
	}}, extractor, log.NewNop())
	if err != nil {
		t.Fatalf("NewFinder: %v", err)
	}

	result, err := f.PDFsForSetID(context.Background(), "set-1")
	if err != nil {
		t.Fatalf("PDFsForSetID: %v", err)
	}
	if extractor.called != "https://example.com/toc.CFM" {
		t.Errorf("extractor called with %q", extractor.called)
	}
	if !reflect.DeepEqual(result.PDFURLs, extractor.pdfs) {
		t.Errorf("PDFURLs = %v", result.PDFURLs)
	}
	if result.ApplicationNumber != "NDA209637" {
		t.Errorf("ApplicationNumber = %q", result.ApplicationNumber)
	}
}

func TestFinder_DirectPDF(t *testing.T) {
	extractor := &stubExtractor{}
	f, _ := NewFinder(stubClient{info: fda.ReviewInfo{
		ApplicationNumber: "BLA125514",
		ReviewURL:         "https://example.com/review.pdf",
	}}, extractor, log.NewNop())

	result, err := f.PDFsForSetID(context.Background(), "set-1")
	if err != nil {
		t.Fatalf("PDFsForSetID: %v", err)
	}
	if extractor.called != "" {
		t.Error("direct PDF should not be scraped")
	}
	if !reflect.DeepEqual(result.PDFURLs, []string{"https://example.com/review.pdf"}) {
		t.Errorf("PDFURLs = %v", result.PDFURLs)
	}
}

func TestFinder_NoReviewListed(t *testing.T) {
	f, _ := NewFinder(stubClient{}, &stubExtractor{}, log.NewNop())

	result, err := f.PDFsForSetID(context.Background(), "unknown-set")
	if err != nil {
		t.Fatalf("unmatched set id should not error: %v", err)
	}
	if result.ApplicationNumber != "" || len(result.PDFURLs) != 0 {
		t.Errorf("unexpected result: %+v", result)
	}
	if result.PDFURLs == nil {
		t.Error("PDFURLs should be empty slice, not nil")
	}
}

func TestFinder_LookupErrorPropagates(t *testing.T) {
	f, _ := NewFinder(stubClient{err: errors.New("api down")}, &stubExtractor{}, log.NewNop())

	if _, err := f.PDFsForSetID(context.Background(), "set-1"); err == nil {
		t.Fatal("expected lookup error")
	}
}

func TestNewFinder_Validation(t *testing.T) {
	if _, err := NewFinder(nil, &stubExtractor{}, log.NewNop()); err == nil {
		t.Error("expected error without client")
	}
	if _, err := NewFinder(stubClient{}, nil, log.NewNop()); err == nil {
		t.Error("expected error without extractor")
	}
	if _, err := NewFinder(stubClient{}, &stubExtractor{}, nil); err == nil {
		t.Error("expected error without logger")
	}
}
