package pivot

import (
	"log"
	"sort"

	"github.com/segmetric/segmetric/internal/errors"
	"github.com/segmetric/segmetric/pkg/types"
)

// Axis selects one pivot dimension and how to bucket it.
type Axis struct {
	// Dimension is the table field used for this axis.
	Dimension string `json:"dimension"`

	// Strategy is a name from Registry.Strategies for the dimension.
	// Empty means "No Bucketing".
	Strategy string `json:"strategy,omitempty"`

	// CustomRanges carries the comma-separated boundary or label list
	// when Strategy is "Custom Buckets".
	CustomRanges string `json:"custom_ranges,omitempty"`
}

// Request describes one pivot computation.
type Request struct {
	Row    Axis   `json:"row"`
	Col    Axis   `json:"col"`
	Metric Metric `json:"metric"`
}

// Builder turns a record table into a two-axis aggregated pivot table.
// It holds only the strategy registry and is safe for concurrent use.
type Builder struct {
	registry *Registry
}

// NewBuilder creates a builder over the given strategy registry.
func NewBuilder(registry *Registry) *Builder {
	return &Builder{registry: registry}
}

// Build cross-tabulates the two axis dimensions of tbl and aggregates
// the metric per bucket pair. Each axis is bucketed independently.
//
// Schema problems (unknown dimension, missing metric backing field) are
// hard errors: they indicate a caller bug. Bucketing problems degrade to
// "No Bucketing" on the affected axis and surface in Warnings; the
// system favors always showing some table over no table.
//
// Build is a pure function of its inputs and never mutates tbl.
func (b *Builder) Build(tbl *types.Table, req Request) (*PivotTable, error) {
	if !req.Metric.Valid() {
		return nil, errors.NewValidationError(errors.CodeUnknownMetric, "metric is not one of the defined aggregations")
	}

	rowCol, ok := tbl.Column(req.Row.Dimension)
	if !ok {
		return nil, errors.NewUnknownDimension(req.Row.Dimension)
	}
	colCol, ok := tbl.Column(req.Col.Dimension)
	if !ok {
		return nil, errors.NewUnknownDimension(req.Col.Dimension)
	}

	var metricCol []interface{}
	if field := req.Metric.BackingField(); field != "" {
		metricCol, ok = tbl.Column(field)
		if !ok {
			return nil, errors.NewMissingMetricField(req.Metric.String(), field)
		}
	}

	var warnings []string
	rowBucketing, warn := b.registry.Resolve(req.Row.Dimension, req.Row.Strategy, req.Row.CustomRanges)
	if warn != "" {
		log.Printf("pivot: %s", warn)
		warnings = append(warnings, warn)
	}
	colBucketing, warn := b.registry.Resolve(req.Col.Dimension, req.Col.Strategy, req.Col.CustomRanges)
	if warn != "" {
		log.Printf("pivot: %s", warn)
		warnings = append(warnings, warn)
	}

	rowLabels, rowOK := rowBucketing.Apply(rowCol)
	colLabels, colOK := colBucketing.Apply(colCol)

	// Cross-tabulate: a row contributes only when bucketed on both axes.
	cells := make(map[cellKey]*cellAgg)
	rowSeen := newLabelSet()
	colSeen := newLabelSet()
	for i := range rowLabels {
		if !rowOK[i] || !colOK[i] {
			continue
		}
		rowSeen.add(rowLabels[i])
		colSeen.add(colLabels[i])

		k := cellKey{row: rowLabels[i], col: colLabels[i]}
		agg := cells[k]
		if agg == nil {
			agg = &cellAgg{}
			cells[k] = agg
		}
		if metricCol == nil {
			agg.accumulate(0)
			continue
		}
		if f, ok := types.AsFloat(metricCol[i]); ok {
			agg.accumulate(f)
		}
	}

	out := NewPivotTable(
		req.Metric.String(),
		orderLabels(rowSeen, rowBucketing),
		orderLabels(colSeen, colBucketing),
	)
	out.Warnings = warnings
	for k, agg := range cells {
		out.Set(k.row, k.col, req.Metric.finalize(*agg))
	}
	return out, nil
}

// labelSet tracks observed labels in first-seen order.
type labelSet struct {
	seen  map[string]bool
	order []string
}

func newLabelSet() *labelSet {
	return &labelSet{seen: make(map[string]bool)}
}

func (s *labelSet) add(label string) {
	if !s.seen[label] {
		s.seen[label] = true
		s.order = append(s.order, label)
	}
}

// orderLabels produces the axis display order: the strategy's fixed
// interval order when it has one, lexicographic for calendar periods,
// first-observed order otherwise. Only observed labels appear.
func orderLabels(observed *labelSet, b Bucketing) []string {
	if b.Labels != nil {
		out := make([]string, 0, len(observed.order))
		for _, l := range b.Labels {
			if observed.seen[l] {
				out = append(out, l)
			}
		}
		return out
	}
	out := make([]string, len(observed.order))
	copy(out, observed.order)
	if b.SortLabels {
		sort.Strings(out)
	}
	return out
}
