//nolint:testpackage // Testing handler wiring requires same package access
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/jonesrussell/referer-classifier/internal/database"
	"github.com/jonesrussell/referer-classifier/internal/domain"
	"github.com/jonesrussell/referer-classifier/internal/logger"
	"github.com/jonesrussell/referer-classifier/internal/referer"
	"github.com/jonesrussell/referer-classifier/internal/storage"
	"github.com/jonesrussell/referer-classifier/internal/telemetry"
)

type fakeStatsRepo struct {
	total   int
	mediums []database.MediumStat
	sources []database.SourceStat
}

func (f *fakeStatsRepo) TotalEvents(context.Context) (int, error) {
	return f.total, nil
}

func (f *fakeStatsRepo) MediumStats(context.Context) ([]database.MediumStat, error) {
	return f.mediums, nil
}

func (f *fakeStatsRepo) TopSources(context.Context, int) ([]database.SourceStat, error) {
	return f.sources, nil
}

func testClassifier(t *testing.T) *referer.Classifier {
	t.Helper()

	doc := referer.Document{
		"search": {
			"Google": {
				Domains:    []string{"google.com", "www.google.com"},
				Parameters: []string{"q"},
			},
		},
		"social": {
			"Facebook": {Domains: []string{"facebook.com"}},
		},
	}
	dataset, err := referer.NewDataset(doc)
	if err != nil {
		t.Fatalf("failed to build dataset: %v", err)
	}
	return referer.NewClassifier(dataset, logger.NewNop())
}

func newTestRouter(t *testing.T, buf *storage.Buffer, stats StatsRepository) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	handler := NewHandler(HandlerConfig{
		Classifier:     testClassifier(t),
		Buffer:         buf,
		Stats:          stats,
		Metrics:        telemetry.NewProvider(prometheus.NewRegistry()),
		Logger:         logger.NewNop(),
		ServiceName:    "referer-classifier",
		ServiceVersion: "test",
		PageHost:       "example.com",
		BatchLimit:     3,
	})

	router := gin.New()
	SetupRoutes(router, handler, RouteConfig{RateLimitRPS: 1000, RateLimitBurst: 1000})
	return router
}

func postJSON(router *gin.Engine, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	return w
}

func decodeClassify(t *testing.T, w *httptest.ResponseRecorder) ClassifyResponse {
	t.Helper()
	var resp ClassifyResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return resp
}

func TestClassify_Search(t *testing.T) {
	router := newTestRouter(t, nil, nil)

	w := postJSON(router, "/api/v1/classify",
		`{"referer_url": "https://www.google.com/search?q=golang"}`)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	resp := decodeClassify(t, w)
	if !resp.Classifiable {
		t.Fatal("expected classifiable referer")
	}
	if resp.Result.Medium != domain.MediumSearch || resp.Result.Source != "Google" {
		t.Errorf("unexpected result: %+v", resp.Result)
	}
	if resp.Result.SearchTerm == nil || *resp.Result.SearchTerm != "golang" {
		t.Errorf("unexpected search term: %v", resp.Result.SearchTerm)
	}
}

func TestClassify_InternalViaPageHost(t *testing.T) {
	router := newTestRouter(t, nil, nil)

	w := postJSON(router, "/api/v1/classify",
		`{"referer_url": "https://example.com/about"}`)

	resp := decodeClassify(t, w)
	if resp.Result == nil || resp.Result.Medium != domain.MediumInternal {
		t.Errorf("expected internal, got %+v", resp.Result)
	}
}

func TestClassify_InternalDomainsOverride(t *testing.T) {
	router := newTestRouter(t, nil, nil)

	w := postJSON(router, "/api/v1/classify",
		`{"referer_url": "https://partner.example/landing", "internal_domains": ["partner.example"]}`)

	resp := decodeClassify(t, w)
	if resp.Result == nil || resp.Result.Medium != domain.MediumInternal {
		t.Errorf("expected internal via request domains, got %+v", resp.Result)
	}
}

func TestClassify_NotClassifiable(t *testing.T) {
	router := newTestRouter(t, nil, nil)

	w := postJSON(router, "/api/v1/classify",
		`{"referer_url": "mailto:someone@example.com"}`)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	resp := decodeClassify(t, w)
	if resp.Classifiable || resp.Result != nil {
		t.Errorf("expected unclassifiable with null result, got %+v", resp)
	}
}

func TestClassify_MissingRefererURL(t *testing.T) {
	router := newTestRouter(t, nil, nil)

	if w := postJSON(router, "/api/v1/classify", `{}`); w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestClassifyBatch(t *testing.T) {
	router := newTestRouter(t, nil, nil)

	w := postJSON(router, "/api/v1/classify/batch", `{"referers": [
		{"referer_url": "https://www.google.com/search?q=a"},
		{"referer_url": "https://facebook.com/"},
		{"referer_url": "ftp://files.example.net/"}
	]}`)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp BatchClassifyResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Total != 3 || len(resp.Results) != 3 {
		t.Fatalf("expected 3 results, got %+v", resp)
	}
	if resp.Results[0].Result.Medium != domain.MediumSearch {
		t.Errorf("expected search, got %+v", resp.Results[0].Result)
	}
	if resp.Results[1].Result.Medium != domain.MediumSocial {
		t.Errorf("expected social, got %+v", resp.Results[1].Result)
	}
	if resp.Results[2].Classifiable {
		t.Errorf("expected unclassifiable, got %+v", resp.Results[2])
	}
}

func TestClassifyBatch_OverLimit(t *testing.T) {
	router := newTestRouter(t, nil, nil)

	w := postJSON(router, "/api/v1/classify/batch", `{"referers": [
		{"referer_url": "https://a.example/"},
		{"referer_url": "https://b.example/"},
		{"referer_url": "https://c.example/"},
		{"referer_url": "https://d.example/"}
	]}`)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for oversized batch, got %d", w.Code)
	}
}

func TestTrack_EnqueuesEvent(t *testing.T) {
	buf := storage.NewBuffer(10)
	router := newTestRouter(t, buf, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/t", nil)
	req.Header.Set("Referer", "https://www.google.com/search?q=shoes")
	req.Header.Set("User-Agent", "Mozilla/5.0 (X11; Linux x86_64) Chrome/126.0")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", w.Code)
	}
	if buf.Len() != 1 {
		t.Errorf("expected 1 buffered event, got %d", buf.Len())
	}
}

func TestTrack_SkipsBots(t *testing.T) {
	buf := storage.NewBuffer(10)
	router := newTestRouter(t, buf, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/t", nil)
	req.Header.Set("Referer", "https://www.google.com/search?q=shoes")
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; Googlebot/2.1)")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", w.Code)
	}
	if buf.Len() != 0 {
		t.Errorf("expected bot hit to be skipped, got %d events", buf.Len())
	}
}

func TestTrack_NoRefererIsNoop(t *testing.T) {
	buf := storage.NewBuffer(10)
	router := newTestRouter(t, buf, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/t", nil)
	req.Header.Set("User-Agent", "Mozilla/5.0 (X11; Linux x86_64) Chrome/126.0")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", w.Code)
	}
	if buf.Len() != 0 {
		t.Errorf("expected no event, got %d", buf.Len())
	}
}

func TestDatasetInfo(t *testing.T) {
	router := newTestRouter(t, nil, nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/dataset", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var resp DatasetResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Stats.Entries != 3 {
		t.Errorf("expected 3 dataset entries, got %d", resp.Stats.Entries)
	}
}

func TestGetStats(t *testing.T) {
	stats := &fakeStatsRepo{
		total:   42,
		mediums: []database.MediumStat{{Medium: "search", Count: 30}},
		sources: []database.SourceStat{{Source: "Google", Count: 25}},
	}
	router := newTestRouter(t, nil, stats)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/stats", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var resp StatsResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.TotalEvents != 42 {
		t.Errorf("expected 42 events, got %d", resp.TotalEvents)
	}
}

func TestGetStats_NoStorage(t *testing.T) {
	router := newTestRouter(t, nil, nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/stats", nil))

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503 without storage, got %d", w.Code)
	}
}

func TestHealthAndReady(t *testing.T) {
	router := newTestRouter(t, nil, nil)

	for _, path := range []string{"/health", "/ready"} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		if w.Code != http.StatusOK {
			t.Errorf("%s: expected 200, got %d", path, w.Code)
		}
	}
}
