package mcp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/fdalabs/fda-drugs-mcp/internal/config"
	"github.com/fdalabs/fda-drugs-mcp/internal/log"
	"github.com/fdalabs/fda-drugs-mcp/internal/review"
	"github.com/fdalabs/fda-drugs-mcp/internal/scrape"
)

const labelSearchResponse = `{"results": [{
	"set_id": "set-keytruda",
	"openfda": {
		"brand_name": ["KEYTRUDA"],
		"generic_name": ["pembrolizumab"],
		"manufacturer_name": ["Merck"],
		"application_number": ["BLA125514"],
		"route": ["INTRAVENOUS"]
	},
	"indications_and_usage": ["Treatment of melanoma."]
}]}`

// testEnv bundles the fake FDA endpoints behind a running server.
type testEnv struct {
	server  *Server
	fdaMux  *http.ServeMux
	fdaURL  string
	lastFDA *http.Request
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{fdaMux: http.NewServeMux()}

	fdaSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		env.lastFDA = r
		env.fdaMux.ServeHTTP(w, r)
	}))
	t.Cleanup(fdaSrv.Close)
	env.fdaURL = fdaSrv.URL

	scrapeSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html></html>`))
	}))
	t.Cleanup(scrapeSrv.Close)

	csvPath := filepath.Join(t.TempDir(), "drug_reviews.csv")
	csvContent := "Brand Name,Generic Name,SPL Set ID,Application Number,Review Document URL,Review Document Title,Year\n" +
		"KEYTRUDA,pembrolizumab,set-keytruda,BLA125514,https://example.com/r.pdf,Medical Review,2014\n"
	if err := os.WriteFile(csvPath, []byte(csvContent), 0o644); err != nil {
		t.Fatalf("writing review csv: %v", err)
	}

	cfg := &config.Config{
		APIBaseURL:       fdaSrv.URL,
		APIKey:           "config-key",
		APITimeoutSec:    5,
		RateLimitMs:      1,
		DefaultLimit:     config.DefaultSearchLimit,
		MaxLimit:         config.MaxSearchLimit,
		ScrapeTimeoutSec: 5,
		Transport:        config.TransportStdio,
		LogLevel:         "info",
		ReviewCSVPath:    csvPath,
		Scraper:          config.ScraperConfig{Parallelism: 1, DelayMs: 1, TimeoutMs: 1000},
	}

	scraper, err := scrape.New(scrape.Config{
		Logger:        log.NewNop(),
		HTTPClient:    scrapeSrv.Client(),
		OrangeBookURL: scrapeSrv.URL + "/patent_info.cfm",
		CalendarURL:   scrapeSrv.URL + "/calendar.json",
		GuidanceURL:   scrapeSrv.URL + "/guidance.json",
		FDABaseURL:    scrapeSrv.URL,
	})
	if err != nil {
		t.Fatalf("scrape.New: %v", err)
	}

	server, err := NewServer(Config{
		Name:      "fda-drugs-test",
		Version:   "0.0.1",
		AppConfig: cfg,
		Scraper:   scraper,
		Store:     review.NewStore(csvPath, log.NewNop()),
		Logger:    log.NewNop(),
	})
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	env.server = server
	return env
}

// connect runs the server over an in-memory transport and returns a client
// session for calling tools.
func (env *testEnv) connect(t *testing.T) *mcp.ClientSession {
	t.Helper()

	serverTransport, clientTransport := mcp.NewInMemoryTransports()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	serverDone := make(chan error, 1)
	go func() { serverDone <- env.server.Run(ctx, serverTransport) }()

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "0.0.1"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	if err != nil {
		t.Fatalf("client connect: %v", err)
	}
	t.Cleanup(func() {
		_ = session.Close()
		cancel()
		<-serverDone
	})
	return session
}

// callTool invokes a tool and decodes its JSON envelope.
func callTool(t *testing.T, session *mcp.ClientSession, name string, args map[string]any) map[string]any {
	t.Helper()

	res, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      name,
		Arguments: args,
	})
	if err != nil {
		t.Fatalf("CallTool(%s): %v", name, err)
	}
	if len(res.Content) != 1 {
		t.Fatalf("CallTool(%s): got %d content items", name, len(res.Content))
	}
	text, ok := res.Content[0].(*mcp.TextContent)
	if !ok {
		t.Fatalf("CallTool(%s): content is %T, want text", name, res.Content[0])
	}

	var envelope map[string]any
	if err := json.Unmarshal([]byte(text.Text), &envelope); err != nil {
		t.Fatalf("CallTool(%s): invalid envelope JSON: %v\n%s", name, err, text.Text)
	}
	return envelope
}

func TestNewServer_Validation(t *testing.T) {
	scraper, _ := scrape.New(scrape.Config{Logger: log.NewNop()})
	store := review.NewStore("x.csv", log.NewNop())
	cfg := &config.Config{APIBaseURL: "https://api.fda.gov"}

	tests := []struct {
		name string
		cfg  Config
	}{
		{"missing name", Config{Version: "1", AppConfig: cfg, Scraper: scraper, Store: store, Logger: log.NewNop()}},
		{"missing version", Config{Name: "s", AppConfig: cfg, Scraper: scraper, Store: store, Logger: log.NewNop()}},
		{"missing app config", Config{Name: "s", Version: "1", Scraper: scraper, Store: store, Logger: log.NewNop()}},
		{"missing scraper", Config{Name: "s", Version: "1", AppConfig: cfg, Store: store, Logger: log.NewNop()}},
		{"missing store", Config{Name: "s", Version: "1", AppConfig: cfg, Scraper: scraper, Logger: log.NewNop()}},
		{"missing logger", Config{Name: "s", Version: "1", AppConfig: cfg, Scraper: scraper, Store: store}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewServer(tt.cfg); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestServer_ListsAllTools(t *testing.T) {
	env := newTestEnv(t)
	session := env.connect(t)

	res, err := session.ListTools(context.Background(), nil)
	if err != nil {
		t.Fatalf("ListTools: %v", err)
	}

	want := map[string]bool{
		"search_drug_by_name":                 false,
		"search_drug_by_indication":           false,
		"get_drug_details":                    false,
		"search_similar_drugs":                false,
		"get_drug_application_history":        false,
		"search_drug_patents":                 false,
		"search_drug_review_pdfs":             false,
		"get_review_pdfs_for_set_id":          false,
		"search_advisory_committee_materials": false,
		"search_archived_committee_materials": false,
		"search_guidance_documents":           false,
	}
	for _, tool := range res.Tools {
		if _, ok := want[tool.Name]; !ok {
			t.Errorf("unexpected tool %q", tool.Name)
			continue
		}
		want[tool.Name] = true
	}
	for name, seen := range want {
		if !seen {
			t.Errorf("tool %q not registered", name)
		}
	}
}

func TestSearchDrugByName(t *testing.T) {
	env := newTestEnv(t)
	env.fdaMux.HandleFunc("/drug/label.json", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(labelSearchResponse))
	})
	session := env.connect(t)

	envelope := callTool(t, session, "search_drug_by_name", map[string]any{"drug_name": "keytruda"})

	if envelope["success"] != true {
		t.Fatalf("envelope = %v", envelope)
	}
	if envelope["query"] != "keytruda" {
		t.Errorf("query = %v", envelope["query"])
	}
	if envelope["total_results"] != float64(1) {
		t.Errorf("total_results = %v", envelope["total_results"])
	}
	drugs := envelope["drugs"].([]any)
	first := drugs[0].(map[string]any)
	if first["brand_name"] != "KEYTRUDA" || first["application_type"] != "BLA" {
		t.Errorf("unexpected drug: %v", first)
	}

	// Default filter excludes generics.
	search := env.lastFDA.URL.Query().Get("search")
	if !strings.Contains(search, "NOT openfda.application_number:ANDA*") {
		t.Errorf("generics not excluded: %s", search)
	}
}

func TestSearchDrugByName_PerRequestKeyWins(t *testing.T) {
	env := newTestEnv(t)
	env.fdaMux.HandleFunc("/drug/label.json", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"results": []}`))
	})
	session := env.connect(t)

	t.Setenv("FDA_API_KEY", "env-key")
	callTool(t, session, "search_drug_by_name", map[string]any{
		"drug_name": "keytruda",
		"api_key":   "request-key",
	})

	if got := env.lastFDA.URL.Query().Get("api_key"); got != "request-key" {
		t.Errorf("api_key = %q, want per-request key", got)
	}
}

func TestSearchDrugByName_FDAErrorBecomesEnvelope(t *testing.T) {
	env := newTestEnv(t)
	env.fdaMux.HandleFunc("/drug/label.json", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	session := env.connect(t)

	envelope := callTool(t, session, "search_drug_by_name", map[string]any{"drug_name": "keytruda"})

	if envelope["success"] != false {
		t.Fatalf("envelope = %v", envelope)
	}
	if envelope["error"] == "" || envelope["error"] == nil {
		t.Error("error message missing")
	}
	if envelope["query"] != "keytruda" {
		t.Errorf("query not echoed: %v", envelope["query"])
	}
}

func TestSearchSimilarDrugs_MissingReference(t *testing.T) {
	env := newTestEnv(t)
	env.fdaMux.HandleFunc("/drug/label.json", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	session := env.connect(t)

	envelope := callTool(t, session, "search_similar_drugs", map[string]any{"reference_drug": "nosuchdrug"})

	if envelope["success"] != false {
		t.Fatalf("envelope = %v", envelope)
	}
	if envelope["reference_drug"] != "nosuchdrug" {
		t.Errorf("reference_drug not echoed: %v", envelope)
	}
}

func TestSearchDrugReviewPDFs(t *testing.T) {
	env := newTestEnv(t)
	session := env.connect(t)

	envelope := callTool(t, session, "search_drug_review_pdfs", map[string]any{"drug_name": "keytruda"})

	if envelope["success"] != true {
		t.Fatalf("envelope = %v", envelope)
	}
	if envelope["total_results"] != float64(1) {
		t.Fatalf("total_results = %v", envelope["total_results"])
	}
	results := envelope["results"].([]any)
	row := results[0].(map[string]any)
	if row["review_document_url"] != "https://example.com/r.pdf" || row["year"] != "2014" {
		t.Errorf("unexpected row: %v", row)
	}
}

func TestSearchDrugReviewPDFs_RequiresOneParameter(t *testing.T) {
	env := newTestEnv(t)
	session := env.connect(t)

	envelope := callTool(t, session, "search_drug_review_pdfs", map[string]any{})

	if envelope["success"] != false {
		t.Fatalf("envelope = %v", envelope)
	}
	if envelope["total_results"] != float64(0) {
		t.Errorf("total_results = %v", envelope["total_results"])
	}
}

func TestSearchGuidanceDocuments_Filters(t *testing.T) {
	env := newTestEnv(t)
	session := env.connect(t)

	// The scrape test server returns empty HTML, not JSON, so the fetch
	// fails; assert the failure envelope shape.
	envelope := callTool(t, session, "search_guidance_documents", map[string]any{"center": "CDER"})

	if envelope["success"] != false {
		t.Fatalf("envelope = %v", envelope)
	}
	query := envelope["query"].(map[string]any)
	if query["center"] != "CDER" {
		t.Errorf("query not echoed: %v", query)
	}
}
