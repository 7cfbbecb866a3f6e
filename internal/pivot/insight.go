package pivot

import (
	"encoding/json"
	"math"
	"time"

	"github.com/segmetric/segmetric/internal/errors"
	"github.com/segmetric/segmetric/pkg/types"
)

// GroupInsight reports distributional statistics of a metric field for
// one raw value of the grouping dimension. StdDev is NaN for groups with
// a single member: one observation has no spread, and 0 would wrongly
// claim zero variance.
type GroupInsight struct {
	Group  string  `json:"group"`
	Size   int     `json:"size"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	StdDev float64 `json:"stddev"`
	P25    float64 `json:"p25"`
	P75    float64 `json:"p75"`
}

// nullableFloat maps NaN to a nil pointer so undefined statistics encode
// as JSON null. encoding/json refuses NaN outright.
func nullableFloat(f float64) *float64 {
	if math.IsNaN(f) {
		return nil
	}
	return &f
}

// MarshalJSON renders undefined statistics as null instead of NaN.
func (g GroupInsight) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Group  string   `json:"group"`
		Size   int      `json:"size"`
		Mean   *float64 `json:"mean"`
		Median *float64 `json:"median"`
		StdDev *float64 `json:"stddev"`
		P25    *float64 `json:"p25"`
		P75    *float64 `json:"p75"`
	}{
		Group:  g.Group,
		Size:   g.Size,
		Mean:   nullableFloat(g.Mean),
		Median: nullableFloat(g.Median),
		StdDev: nullableFloat(g.StdDev),
		P25:    nullableFloat(g.P25),
		P75:    nullableFloat(g.P75),
	})
}

// Summarize groups rows by the raw (unbucketed) value of groupDimension
// and computes statistics of metricField within each group. No bucketing
// applies here, deliberately: insights describe the dimension as stored.
// Groups appear in first-observed row order.
func Summarize(tbl *types.Table, groupDimension, metricField string) ([]GroupInsight, error) {
	groupCol, ok := tbl.Column(groupDimension)
	if !ok {
		return nil, errors.NewUnknownDimension(groupDimension)
	}
	metricCol, ok := tbl.Column(metricField)
	if !ok {
		return nil, errors.NewUnknownDimension(metricField)
	}

	byGroup := make(map[string][]float64)
	sizes := make(map[string]int)
	order := newLabelSet()
	for i, gv := range groupCol {
		label := types.Label(gv)
		order.add(label)
		sizes[label]++
		if f, ok := types.AsFloat(metricCol[i]); ok {
			byGroup[label] = append(byGroup[label], f)
		}
	}

	out := make([]GroupInsight, 0, len(order.order))
	for _, label := range order.order {
		values := byGroup[label]
		sorted := sortedCopy(values)
		out = append(out, GroupInsight{
			Group:  label,
			Size:   sizes[label],
			Mean:   mean(values),
			Median: median(sorted),
			StdDev: stddev(values),
			P25:    quantile(sorted, 0.25),
			P75:    quantile(sorted, 0.75),
		})
	}
	return out, nil
}

// TimeWindow names a look-back period in days.
type TimeWindow struct {
	Name string `json:"name"`
	Days int    `json:"days"`
}

// DefaultWindows returns the standard look-back periods.
func DefaultWindows() []TimeWindow {
	return []TimeWindow{
		{Name: "Last 7 Days", Days: 7},
		{Name: "Last 30 Days", Days: 30},
		{Name: "Last 90 Days", Days: 90},
		{Name: "Last Year", Days: 365},
	}
}

// TimeWindowMetrics summarizes a metric field over the rows whose
// timestamp falls inside one look-back window.
type TimeWindowMetrics struct {
	Window string  `json:"window"`
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Sum    float64 `json:"sum"`
	Median float64 `json:"median"`
}

// MarshalJSON renders the NaN mean and median of an empty window as null.
func (m TimeWindowMetrics) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Window string   `json:"window"`
		Count  int      `json:"count"`
		Mean   *float64 `json:"mean"`
		Sum    float64  `json:"sum"`
		Median *float64 `json:"median"`
	}{
		Window: m.Window,
		Count:  m.Count,
		Mean:   nullableFloat(m.Mean),
		Sum:    m.Sum,
		Median: nullableFloat(m.Median),
	})
}

// SummarizeTimeWindows computes per-window metrics of metricField over
// rows whose dateField is on or after now minus the window. Windows are
// reported in input order.
func SummarizeTimeWindows(tbl *types.Table, dateField, metricField string, windows []TimeWindow, now time.Time) ([]TimeWindowMetrics, error) {
	dateCol, ok := tbl.Column(dateField)
	if !ok {
		return nil, errors.NewUnknownDimension(dateField)
	}
	metricCol, ok := tbl.Column(metricField)
	if !ok {
		return nil, errors.NewUnknownDimension(metricField)
	}

	out := make([]TimeWindowMetrics, 0, len(windows))
	for _, w := range windows {
		cutoff := now.AddDate(0, 0, -w.Days)
		var values []float64
		count := 0
		for i, dv := range dateCol {
			t, ok := types.AsTime(dv)
			if !ok || t.Before(cutoff) {
				continue
			}
			count++
			if f, ok := types.AsFloat(metricCol[i]); ok {
				values = append(values, f)
			}
		}
		sorted := sortedCopy(values)
		var sum float64
		for _, v := range values {
			sum += v
		}
		out = append(out, TimeWindowMetrics{
			Window: w.Name,
			Count:  count,
			Mean:   mean(values),
			Sum:    sum,
			Median: median(sorted),
		})
	}
	return out, nil
}
