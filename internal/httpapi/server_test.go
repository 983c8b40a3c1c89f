package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/cosmoscout/cosmoscout/internal/engine"
	"github.com/cosmoscout/cosmoscout/internal/knowledge"
	"github.com/cosmoscout/cosmoscout/internal/query"
	"github.com/cosmoscout/cosmoscout/internal/source"
)

type stubAdapter struct {
	articles []source.Article
}

func (s *stubAdapter) Name() string { return "Stub" }

func (s *stubAdapter) Fetch(ctx context.Context, q query.Analyzed) []source.Article {
	return s.articles
}

func testRouter(t *testing.T, articles []source.Article) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	kb, err := knowledge.Load()
	if err != nil {
		t.Fatalf("load knowledge base: %v", err)
	}
	eng := &engine.Engine{
		Schedule: []engine.Scheduled{{Adapter: &stubAdapter{articles: articles}}},
		KB:       kb,
	}
	return NewRouter(eng)
}

func doJSON(t *testing.T, r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestSearchReturnsEngineResponse(t *testing.T) {
	r := testRouter(t, []source.Article{
		{Title: "Mars Update", Link: "https://example.org/m", Description: "d", Source: "Stub", Relevance: 4},
	})
	w := doJSON(t, r, http.MethodPost, "/api/search", `{"query": "mars rover"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}

	var resp struct {
		QueryInfo struct {
			OriginalText string   `json:"original_text"`
			Keywords     []string `json:"normalized_keywords"`
			Intent       string   `json:"intent"`
		} `json:"query_info"`
		Results []struct {
			Title     string `json:"title"`
			Source    string `json:"source"`
			Relevance int    `json:"relevance"`
		} `json:"results"`
		TotalFound int `json:"total_found"`
		Sources    struct {
			Queried []string `json:"sources_queried"`
		} `json:"sources_info"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.QueryInfo.OriginalText != "mars rover" || resp.QueryInfo.Intent != "mars" {
		t.Errorf("query_info = %+v", resp.QueryInfo)
	}
	if resp.TotalFound != 1 || len(resp.Results) != 1 || resp.Results[0].Title != "Mars Update" {
		t.Errorf("results = %+v total=%d", resp.Results, resp.TotalFound)
	}
	if len(resp.Sources.Queried) == 0 {
		t.Error("sources_info.sources_queried missing")
	}
}

func TestSearchRejectsEmptyQuery(t *testing.T) {
	r := testRouter(t, nil)
	for _, body := range []string{`{"query": ""}`, `{"query": "   "}`, `{}`} {
		w := doJSON(t, r, http.MethodPost, "/api/search", body)
		if w.Code != http.StatusBadRequest {
			t.Errorf("body %s: status = %d, want 400", body, w.Code)
		}
		var resp map[string]string
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if resp["error"] != "Please provide a query" {
			t.Errorf("error = %q", resp["error"])
		}
	}
}

func TestSearchRejectsMalformedBody(t *testing.T) {
	r := testRouter(t, nil)
	w := doJSON(t, r, http.MethodPost, "/api/search", `{"query": `)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestExamples(t *testing.T) {
	r := testRouter(t, nil)
	w := doJSON(t, r, http.MethodGet, "/api/examples", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp struct {
		Examples []string `json:"examples"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Examples) != len(exampleQueries) {
		t.Errorf("examples = %d, want %d", len(resp.Examples), len(exampleQueries))
	}
}

func TestHealth(t *testing.T) {
	r := testRouter(t, nil)
	w := doJSON(t, r, http.MethodGet, "/health", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"status":"ok"`) {
		t.Errorf("body = %s", w.Body.String())
	}
}

func TestRequestIDEchoedAndGenerated(t *testing.T) {
	r := testRouter(t, nil)

	w := doJSON(t, r, http.MethodGet, "/health", "")
	if w.Header().Get("X-Request-ID") == "" {
		t.Error("expected a generated X-Request-ID")
	}

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "fixed-id")
	w2 := httptest.NewRecorder()
	r.ServeHTTP(w2, req)
	if got := w2.Header().Get("X-Request-ID"); got != "fixed-id" {
		t.Errorf("X-Request-ID = %q, want the caller's id echoed", got)
	}
}

func TestCORSPreflight(t *testing.T) {
	r := testRouter(t, nil)
	req := httptest.NewRequest(http.MethodOptions, "/api/search", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", w.Code)
	}
	if w.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("missing CORS allow-origin header")
	}
}
