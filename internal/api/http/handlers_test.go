package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/segmetric/segmetric/internal/audience"
	"github.com/segmetric/segmetric/internal/catalog"
	"github.com/segmetric/segmetric/internal/config"
	"github.com/segmetric/segmetric/internal/dataset"
	"github.com/segmetric/segmetric/internal/pivot"
	"github.com/segmetric/segmetric/internal/storage"
)

type testEnv struct {
	datasets *dataset.Service
	catalog  catalog.Catalog
	builder  *pivot.Builder
	registry *pivot.Registry
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.NewLocalStore(filepath.Join(dir, "storage"))
	if err != nil {
		t.Fatalf("NewLocalStore: %v", err)
	}
	cat, err := catalog.NewCatalog(filepath.Join(dir, "catalog.db"))
	if err != nil {
		t.Fatalf("NewCatalog: %v", err)
	}
	t.Cleanup(func() { cat.Close() })
	registry := pivot.DefaultRegistry()
	return &testEnv{
		datasets: dataset.NewService(store, cat),
		catalog:  cat,
		builder:  pivot.NewBuilder(registry),
		registry: registry,
	}
}

func (e *testEnv) seedDataset(t *testing.T, users int) string {
	t.Helper()
	rec, err := e.datasets.GenerateAndSave(context.Background(), "fixture", users, 42)
	if err != nil {
		t.Fatalf("GenerateAndSave: %v", err)
	}
	return rec.DatasetID
}

func postJSON(t *testing.T, h http.Handler, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestPivotHandler(t *testing.T) {
	env := newTestEnv(t)
	id := env.seedDataset(t, 200)
	h := NewPivotHandler(env.datasets, env.builder, env.catalog)

	rec := postJSON(t, h, "/v1/pivot", PivotRequest{
		DatasetID: id,
		Row:       pivot.Axis{Dimension: "age", Strategy: "Young/Old"},
		Col:       pivot.Axis{Dimension: "gender"},
		Metric:    pivot.MetricCount,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var resp PivotResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Metric != "Count" {
		t.Errorf("metric = %q, want Count", resp.Metric)
	}
	if resp.Total != 200 {
		t.Errorf("total = %v, want 200 (every generated age is in range)", resp.Total)
	}
	if len(resp.Values) != len(resp.RowLabels) {
		t.Errorf("values has %d rows for %d labels", len(resp.Values), len(resp.RowLabels))
	}
}

func TestPivotHandlerWithAudience(t *testing.T) {
	env := newTestEnv(t)
	id := env.seedDataset(t, 200)
	h := NewPivotHandler(env.datasets, env.builder, env.catalog)

	full := postJSON(t, h, "/v1/pivot", PivotRequest{
		DatasetID: id,
		Row:       pivot.Axis{Dimension: "age", Strategy: "Young/Old"},
		Col:       pivot.Axis{Dimension: "gender"},
		Metric:    pivot.MetricCount,
	})
	filtered := postJSON(t, h, "/v1/pivot", PivotRequest{
		DatasetID: id,
		Audience:  "Young Adults",
		Row:       pivot.Axis{Dimension: "age", Strategy: "Young/Old"},
		Col:       pivot.Axis{Dimension: "gender"},
		Metric:    pivot.MetricCount,
	})
	if filtered.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", filtered.Code, filtered.Body.String())
	}

	var fullResp, filteredResp PivotResponse
	json.Unmarshal(full.Body.Bytes(), &fullResp)
	json.Unmarshal(filtered.Body.Bytes(), &filteredResp)
	if filteredResp.Total >= fullResp.Total {
		t.Errorf("audience filter did not shrink the segment: %v >= %v", filteredResp.Total, fullResp.Total)
	}
}

func TestPivotHandlerErrors(t *testing.T) {
	env := newTestEnv(t)
	id := env.seedDataset(t, 20)
	h := NewPivotHandler(env.datasets, env.builder, env.catalog)

	t.Run("get not allowed", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/v1/pivot", nil)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("status = %d", rec.Code)
		}
	})

	t.Run("missing dataset id", func(t *testing.T) {
		rec := postJSON(t, h, "/v1/pivot", PivotRequest{})
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d", rec.Code)
		}
	})

	t.Run("unknown dataset", func(t *testing.T) {
		rec := postJSON(t, h, "/v1/pivot", PivotRequest{
			DatasetID: "no-such",
			Row:       pivot.Axis{Dimension: "age"},
			Col:       pivot.Axis{Dimension: "gender"},
			Metric:    pivot.MetricCount,
		})
		if rec.Code != http.StatusNotFound {
			t.Errorf("status = %d, body %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("unknown dimension", func(t *testing.T) {
		rec := postJSON(t, h, "/v1/pivot", PivotRequest{
			DatasetID: id,
			Row:       pivot.Axis{Dimension: "no_such_field"},
			Col:       pivot.Axis{Dimension: "gender"},
			Metric:    pivot.MetricCount,
		})
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, body %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("unknown audience", func(t *testing.T) {
		rec := postJSON(t, h, "/v1/pivot", PivotRequest{
			DatasetID: id,
			Audience:  "No Such Audience",
			Row:       pivot.Axis{Dimension: "age"},
			Col:       pivot.Axis{Dimension: "gender"},
			Metric:    pivot.MetricCount,
		})
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, body %s", rec.Code, rec.Body.String())
		}
	})
}

func TestPivotHandlerUnknownStrategyWarns(t *testing.T) {
	env := newTestEnv(t)
	id := env.seedDataset(t, 20)
	h := NewPivotHandler(env.datasets, env.builder, env.catalog)

	rec := postJSON(t, h, "/v1/pivot", PivotRequest{
		DatasetID: id,
		Row:       pivot.Axis{Dimension: "age", Strategy: "Bogus Strategy"},
		Col:       pivot.Axis{Dimension: "gender"},
		Metric:    pivot.MetricCount,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var resp PivotResponse
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if len(resp.Warnings) != 1 {
		t.Errorf("warnings = %v, want one degradation warning", resp.Warnings)
	}
}

func TestPivotHandlerCSV(t *testing.T) {
	env := newTestEnv(t)
	id := env.seedDataset(t, 20)
	h := NewPivotHandler(env.datasets, env.builder, env.catalog)

	rec := postJSON(t, h, "/v1/pivot", PivotRequest{
		DatasetID: id,
		Row:       pivot.Axis{Dimension: "age", Strategy: "Young/Old"},
		Col:       pivot.Axis{Dimension: "gender"},
		Metric:    pivot.MetricCount,
		Format:    "csv",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/csv" {
		t.Errorf("content type = %q", ct)
	}
	if !strings.HasPrefix(rec.Body.String(), "Count,") {
		t.Errorf("csv body = %q", rec.Body.String())
	}
}

func TestCompareHandler(t *testing.T) {
	env := newTestEnv(t)
	id := env.seedDataset(t, 200)
	h := NewCompareHandler(env.datasets, env.builder, env.catalog)

	rec := postJSON(t, h, "/v1/compare", CompareRequest{
		DatasetID: id,
		AudienceA: "Young Adults",
		AudienceB: "All Users",
		Row:       pivot.Axis{Dimension: "gender"},
		Col:       pivot.Axis{Dimension: "device_type"},
		Metric:    pivot.MetricCount,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var resp CompareResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Metric != "Count" {
		t.Errorf("metric = %q", resp.Metric)
	}
	if len(resp.Absolute) != len(resp.RowLabels) {
		t.Errorf("absolute has %d rows for %d labels", len(resp.Absolute), len(resp.RowLabels))
	}
}

func TestCompareHandlerRequiresSegments(t *testing.T) {
	env := newTestEnv(t)
	id := env.seedDataset(t, 20)
	h := NewCompareHandler(env.datasets, env.builder, env.catalog)

	rec := postJSON(t, h, "/v1/compare", CompareRequest{
		DatasetID: id,
		AudienceA: "All Users",
		Row:       pivot.Axis{Dimension: "gender"},
		Col:       pivot.Axis{Dimension: "device_type"},
		Metric:    pivot.MetricCount,
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, body %s", rec.Code, rec.Body.String())
	}
}

func TestDatasetsHandlerLifecycle(t *testing.T) {
	env := newTestEnv(t)
	cfg := config.DatasetConfig{DefaultUsers: 25, MaxUsers: 100, Seed: 7}
	h := NewDatasetsHandler(env.datasets, cfg)

	rec := postJSON(t, h, "/v1/datasets/generate", GenerateRequest{Name: "via http"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("generate status = %d, body %s", rec.Code, rec.Body.String())
	}
	var created struct {
		Dataset DatasetInfo `json:"dataset"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if created.Dataset.RowCount != 25 || created.Dataset.Seed != 7 {
		t.Errorf("dataset = %+v", created.Dataset)
	}
	id := created.Dataset.DatasetID

	listReq := httptest.NewRequest(http.MethodGet, "/v1/datasets", nil)
	listRec := httptest.NewRecorder()
	h.ServeHTTP(listRec, listReq)
	if listRec.Code != http.StatusOK {
		t.Fatalf("list status = %d", listRec.Code)
	}
	var list DatasetListResponse
	json.Unmarshal(listRec.Body.Bytes(), &list)
	if len(list.Datasets) != 1 || list.Datasets[0].DatasetID != id {
		t.Errorf("list = %+v", list.Datasets)
	}

	exportReq := httptest.NewRequest(http.MethodGet, "/v1/datasets/"+id+"/export", nil)
	exportRec := httptest.NewRecorder()
	h.ServeHTTP(exportRec, exportReq)
	if exportRec.Code != http.StatusOK {
		t.Fatalf("export status = %d", exportRec.Code)
	}
	if !strings.HasPrefix(exportRec.Body.String(), "user_id,") {
		t.Errorf("export body starts with %q", exportRec.Body.String()[:40])
	}

	delReq := httptest.NewRequest(http.MethodDelete, "/v1/datasets/"+id, nil)
	delRec := httptest.NewRecorder()
	h.ServeHTTP(delRec, delReq)
	if delRec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", delRec.Code)
	}

	getReq := httptest.NewRequest(http.MethodGet, "/v1/datasets/"+id, nil)
	getRec := httptest.NewRecorder()
	h.ServeHTTP(getRec, getReq)
	if getRec.Code != http.StatusNotFound {
		t.Errorf("get after delete status = %d", getRec.Code)
	}
}

func TestDatasetsHandlerCapsUsers(t *testing.T) {
	env := newTestEnv(t)
	h := NewDatasetsHandler(env.datasets, config.DatasetConfig{DefaultUsers: 25, MaxUsers: 100, Seed: 7})

	rec := postJSON(t, h, "/v1/datasets/generate", GenerateRequest{Name: "huge", NumUsers: 1000})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, body %s", rec.Code, rec.Body.String())
	}
}

func TestAudiencesHandler(t *testing.T) {
	env := newTestEnv(t)
	h := NewAudiencesHandler(env.catalog)

	rec := postJSON(t, h, "/v1/audiences", audience.Definition{
		Name:  "Whales",
		Rules: []audience.Rule{{Field: "ltv", Op: audience.OpGT, Value: 5000.0}},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("save status = %d, body %s", rec.Code, rec.Body.String())
	}

	// Built-in names cannot be replaced.
	rec = postJSON(t, h, "/v1/audiences", audience.Definition{Name: "All Users"})
	if rec.Code != http.StatusConflict {
		t.Errorf("builtin overwrite status = %d", rec.Code)
	}

	listReq := httptest.NewRequest(http.MethodGet, "/v1/audiences", nil)
	listRec := httptest.NewRecorder()
	h.ServeHTTP(listRec, listReq)
	if listRec.Code != http.StatusOK {
		t.Fatalf("list status = %d", listRec.Code)
	}
	var list AudienceListResponse
	json.Unmarshal(listRec.Body.Bytes(), &list)
	found := false
	for _, d := range list.Audiences {
		if d.Name == "Whales" {
			found = true
		}
	}
	if !found || len(list.Audiences) != 21 {
		t.Errorf("list has %d audiences, Whales present: %v", len(list.Audiences), found)
	}
}

func TestSavedAudienceUsableInPivot(t *testing.T) {
	env := newTestEnv(t)
	id := env.seedDataset(t, 100)

	err := env.catalog.SaveAudience(context.Background(), audience.Definition{
		Name:  "Desktop Only",
		Rules: []audience.Rule{{Field: "device_type", Op: audience.OpEQ, Value: "Desktop"}},
	})
	if err != nil {
		t.Fatalf("SaveAudience: %v", err)
	}

	h := NewPivotHandler(env.datasets, env.builder, env.catalog)
	rec := postJSON(t, h, "/v1/pivot", PivotRequest{
		DatasetID: id,
		Audience:  "Desktop Only",
		Row:       pivot.Axis{Dimension: "gender"},
		Col:       pivot.Axis{Dimension: "device_type"},
		Metric:    pivot.MetricCount,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var resp PivotResponse
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if len(resp.ColLabels) != 1 || resp.ColLabels[0] != "Desktop" {
		t.Errorf("col labels = %v, want only Desktop", resp.ColLabels)
	}
}

func TestInsightsHandler(t *testing.T) {
	env := newTestEnv(t)
	id := env.seedDataset(t, 100)
	h := NewInsightsHandler(env.datasets, env.catalog)

	rec := postJSON(t, h, "/v1/insights", InsightsRequest{
		DatasetID:      id,
		GroupDimension: "loyalty_tier",
		MetricField:    "ltv",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var resp InsightsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	total := 0
	for _, g := range resp.Groups {
		total += g.Size
	}
	if total != 100 {
		t.Errorf("group sizes sum to %d, want 100", total)
	}
}

func TestInsightsHandlerSingletonGroups(t *testing.T) {
	env := newTestEnv(t)
	id := env.seedDataset(t, 20)
	h := NewInsightsHandler(env.datasets, env.catalog)

	// Grouping by a continuous field makes nearly every group a single
	// member, so stddev is undefined for them.
	rec := postJSON(t, h, "/v1/insights", InsightsRequest{
		DatasetID:      id,
		GroupDimension: "total_revenue",
		MetricField:    "ltv",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if rec.Body.Len() == 0 {
		t.Fatal("empty response body")
	}
	if !strings.Contains(rec.Body.String(), `"stddev":null`) {
		t.Errorf("undefined stddev not encoded as null: %s", rec.Body.String())
	}
	var resp InsightsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Groups) == 0 {
		t.Error("expected at least one group")
	}
}

func TestTimeWindowsHandler(t *testing.T) {
	env := newTestEnv(t)
	id := env.seedDataset(t, 100)
	h := http.HandlerFunc(NewInsightsHandler(env.datasets, env.catalog).TimeWindows)

	rec := postJSON(t, h, "/v1/timewindows", TimeWindowsRequest{
		DatasetID:   id,
		DateField:   "last_purchase_date",
		MetricField: "total_revenue",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var resp TimeWindowsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Windows) != 4 {
		t.Errorf("windows = %v, want the four default look-backs", resp.Windows)
	}
}

func TestTimeWindowsHandlerEmptyWindow(t *testing.T) {
	env := newTestEnv(t)
	id := env.seedDataset(t, 50)
	h := http.HandlerFunc(NewInsightsHandler(env.datasets, env.catalog).TimeWindows)

	// A zero-day look-back matches no generated row.
	rec := postJSON(t, h, "/v1/timewindows", TimeWindowsRequest{
		DatasetID:   id,
		DateField:   "last_purchase_date",
		MetricField: "total_revenue",
		Windows:     []pivot.TimeWindow{{Name: "Today", Days: 0}},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if rec.Body.Len() == 0 {
		t.Fatal("empty response body")
	}
	if !strings.Contains(rec.Body.String(), `"mean":null`) {
		t.Errorf("empty-window mean not encoded as null: %s", rec.Body.String())
	}
	var resp TimeWindowsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Windows) != 1 || resp.Windows[0].Count != 0 {
		t.Errorf("windows = %+v, want one empty window", resp.Windows)
	}
}

func TestMetaHandler(t *testing.T) {
	env := newTestEnv(t)
	h := NewMetaHandler(env.registry)

	req := httptest.NewRequest(http.MethodGet, "/v1/meta", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var resp MetaResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Metrics) != 6 {
		t.Errorf("metrics = %v", resp.Metrics)
	}
	ageStrategies, ok := resp.Strategies["age"]
	if !ok || ageStrategies[0] != "No Bucketing" {
		t.Errorf("age strategies = %v", ageStrategies)
	}
}
