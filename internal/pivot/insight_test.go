package pivot

import (
	"encoding/json"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/segmetric/segmetric/pkg/types"
)

func insightFixture(t *testing.T) *types.Table {
	t.Helper()
	schema := types.Schema{Fields: []types.Field{
		{Name: "plan", Type: types.FieldString},
		{Name: "ltv", Type: types.FieldNumeric},
		{Name: "last_purchase", Type: types.FieldTime},
	}}
	tbl := types.NewTable(schema)
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	rows := [][]interface{}{
		{"pro", 100.0, now.AddDate(0, 0, -3)},
		{"free", 10.0, now.AddDate(0, 0, -20)},
		{"pro", 200.0, now.AddDate(0, 0, -45)},
		{"pro", 300.0, now.AddDate(0, 0, -400)},
		{"enterprise", 1000.0, now.AddDate(0, 0, -7)},
	}
	for _, r := range rows {
		tbl.AppendRow(r)
	}
	return tbl
}

func TestSummarizeGroupStats(t *testing.T) {
	tbl := insightFixture(t)
	insights, err := Summarize(tbl, "plan", "ltv")
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}

	// Groups in first-observed row order.
	wantOrder := []string{"pro", "free", "enterprise"}
	if len(insights) != len(wantOrder) {
		t.Fatalf("got %d groups, want %d", len(insights), len(wantOrder))
	}
	for i, w := range wantOrder {
		if insights[i].Group != w {
			t.Errorf("group[%d] = %q, want %q", i, insights[i].Group, w)
		}
	}

	pro := insights[0]
	if pro.Size != 3 {
		t.Errorf("pro size = %d, want 3", pro.Size)
	}
	if pro.Mean != 200 {
		t.Errorf("pro mean = %v, want 200", pro.Mean)
	}
	if pro.Median != 200 {
		t.Errorf("pro median = %v, want 200", pro.Median)
	}
	if math.Abs(pro.StdDev-100) > 1e-9 {
		t.Errorf("pro stddev = %v, want 100", pro.StdDev)
	}
	if pro.P25 != 150 || pro.P75 != 250 {
		t.Errorf("pro quartiles = (%v, %v), want (150, 250)", pro.P25, pro.P75)
	}
}

func TestSummarizeSingletonGroupStdDevIsNaN(t *testing.T) {
	insights, err := Summarize(insightFixture(t), "plan", "ltv")
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	for _, in := range insights {
		if in.Size == 1 && !math.IsNaN(in.StdDev) {
			t.Errorf("group %q: stddev = %v, want NaN for a single member", in.Group, in.StdDev)
		}
	}
}

func TestGroupInsightMarshalsNaNAsNull(t *testing.T) {
	insights, err := Summarize(insightFixture(t), "plan", "ltv")
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}

	raw, err := json.Marshal(insights)
	if err != nil {
		t.Fatalf("marshal with singleton groups: %v", err)
	}
	body := string(raw)
	if !strings.Contains(body, `"stddev":null`) {
		t.Errorf("singleton-group stddev not encoded as null: %s", body)
	}
	if !strings.Contains(body, `"stddev":100`) {
		t.Errorf("defined stddev lost in encoding: %s", body)
	}
}

func TestTimeWindowMetricsMarshalEmptyWindow(t *testing.T) {
	tbl := insightFixture(t)
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	metrics, err := SummarizeTimeWindows(tbl, "last_purchase", "ltv",
		[]TimeWindow{{Name: "Last Day", Days: 1}}, now)
	if err != nil {
		t.Fatalf("SummarizeTimeWindows: %v", err)
	}
	if metrics[0].Count != 0 {
		t.Fatalf("count = %d, want 0", metrics[0].Count)
	}

	raw, err := json.Marshal(metrics)
	if err != nil {
		t.Fatalf("marshal empty window: %v", err)
	}
	body := string(raw)
	if !strings.Contains(body, `"mean":null`) || !strings.Contains(body, `"median":null`) {
		t.Errorf("empty-window mean/median not encoded as null: %s", body)
	}
	if !strings.Contains(body, `"sum":0`) {
		t.Errorf("empty-window sum should stay 0: %s", body)
	}
}

func TestSummarizeUnknownColumn(t *testing.T) {
	tbl := insightFixture(t)
	if _, err := Summarize(tbl, "no_such", "ltv"); err == nil {
		t.Error("expected an error for an unknown group dimension")
	}
	if _, err := Summarize(tbl, "plan", "no_such"); err == nil {
		t.Error("expected an error for an unknown metric field")
	}
}

func TestSummarizeTimeWindows(t *testing.T) {
	tbl := insightFixture(t)
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	metrics, err := SummarizeTimeWindows(tbl, "last_purchase", "ltv", DefaultWindows(), now)
	if err != nil {
		t.Fatalf("SummarizeTimeWindows: %v", err)
	}
	if len(metrics) != 4 {
		t.Fatalf("got %d windows, want 4", len(metrics))
	}

	tests := []struct {
		window string
		count  int
		sum    float64
	}{
		{"Last 7 Days", 2, 1100},
		{"Last 30 Days", 3, 1110},
		{"Last 90 Days", 4, 1310},
		{"Last Year", 4, 1310},
	}
	for i, tt := range tests {
		got := metrics[i]
		if got.Window != tt.window {
			t.Errorf("window[%d] = %q, want %q", i, got.Window, tt.window)
		}
		if got.Count != tt.count {
			t.Errorf("%s: count = %d, want %d", tt.window, got.Count, tt.count)
		}
		if got.Sum != tt.sum {
			t.Errorf("%s: sum = %v, want %v", tt.window, got.Sum, tt.sum)
		}
	}
}

func TestSummarizeTimeWindowsCutoffInclusive(t *testing.T) {
	schema := types.Schema{Fields: []types.Field{
		{Name: "ts", Type: types.FieldTime},
		{Name: "v", Type: types.FieldNumeric},
	}}
	tbl := types.NewTable(schema)
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	tbl.AppendRow([]interface{}{now.AddDate(0, 0, -7), 1.0})

	metrics, err := SummarizeTimeWindows(tbl, "ts", "v", []TimeWindow{{Name: "Last 7 Days", Days: 7}}, now)
	if err != nil {
		t.Fatalf("SummarizeTimeWindows: %v", err)
	}
	if metrics[0].Count != 1 {
		t.Errorf("count = %d, want 1 (row exactly at the cutoff included)", metrics[0].Count)
	}
}
