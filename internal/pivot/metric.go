package pivot

import (
	"encoding/json"
	"fmt"
	"math"
)

// Metric names which aggregation a pivot computes. The set is closed:
// each metric is bound to a backing field and an aggregation function,
// not user-composable.
type Metric int

const (
	MetricCount Metric = iota
	MetricSumRevenue
	MetricMeanLTV
	MetricRetentionRate
	MetricMeanAOV
	MetricSumOrders
)

// aggKind is the aggregation a metric applies to its backing field.
type aggKind int

const (
	aggCount aggKind = iota
	aggSum
	aggMean
	aggRetention // mean of a 0/1 flag, scaled to a percentage
)

// metricDef binds a metric to its display name, backing field, and
// aggregation.
type metricDef struct {
	name  string
	field string
	kind  aggKind
}

var metricDefs = map[Metric]metricDef{
	MetricCount:         {name: "Count", field: "", kind: aggCount},
	MetricSumRevenue:    {name: "Total Revenue", field: "total_revenue", kind: aggSum},
	MetricMeanLTV:       {name: "Avg LTV", field: "ltv", kind: aggMean},
	MetricRetentionRate: {name: "Retention Rate", field: "is_retained", kind: aggRetention},
	MetricMeanAOV:       {name: "Avg AOV", field: "average_order_value", kind: aggMean},
	MetricSumOrders:     {name: "Total Orders", field: "total_orders", kind: aggSum},
}

// ParseMetric converts a display name to a Metric.
func ParseMetric(name string) (Metric, error) {
	for m, def := range metricDefs {
		if def.name == name {
			return m, nil
		}
	}
	return 0, fmt.Errorf("unknown metric: %s", name)
}

// String returns the metric's display name.
func (m Metric) String() string {
	if def, ok := metricDefs[m]; ok {
		return def.name
	}
	return fmt.Sprintf("Metric(%d)", int(m))
}

// BackingField returns the table field the metric aggregates, or ""
// for Count.
func (m Metric) BackingField() string {
	return metricDefs[m].field
}

// Valid reports whether m is one of the defined metrics.
func (m Metric) Valid() bool {
	_, ok := metricDefs[m]
	return ok
}

// Metrics returns the display names of all defined metrics in a stable
// order.
func Metrics() []string {
	names := make([]string, 0, len(metricDefs))
	for m := MetricCount; m.Valid(); m++ {
		names = append(names, m.String())
	}
	return names
}

// MarshalJSON encodes the metric by its display name.
func (m Metric) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

// UnmarshalJSON decodes a metric from its display name.
func (m *Metric) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	parsed, err := ParseMetric(name)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// cellAgg accumulates the per-cell state for one (row, col) bucket pair.
type cellAgg struct {
	count int64
	sum   float64
}

func (a *cellAgg) accumulate(v float64) {
	a.count++
	a.sum += v
}

// finalize produces the cell value for the metric, applying the rounding
// policy: monetary sums and means round to 2 decimals, retention rounds
// its mean to 3 decimals before the x100 scaling, counts and order sums
// stay exact.
func (m Metric) finalize(a cellAgg) float64 {
	if a.count == 0 {
		return 0
	}
	switch metricDefs[m].kind {
	case aggCount:
		return float64(a.count)
	case aggSum:
		if m == MetricSumRevenue {
			return round2(a.sum)
		}
		return a.sum
	case aggMean:
		return round2(a.sum / float64(a.count))
	case aggRetention:
		return math.Round(a.sum/float64(a.count)*1000) / 1000 * 100
	}
	return 0
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
