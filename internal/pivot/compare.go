package pivot

import (
	"math"

	"github.com/segmetric/segmetric/pkg/types"
)

// Comparison holds the aligned pivots of two segments and their
// differences. AlignedA and AlignedB share the same label universe (the
// union of both tables' labels) with absent cells reading 0.
type Comparison struct {
	AlignedA   *PivotTable `json:"aligned_a"`
	AlignedB   *PivotTable `json:"aligned_b"`
	Absolute   *PivotTable `json:"absolute_difference"`
	Percentage *PivotTable `json:"percentage_difference"`
}

// Compare builds the same pivot over two audience tables and differences
// them cell by cell. Percentage difference is 0 wherever the second
// segment's cell is 0, never infinite or NaN.
func (b *Builder) Compare(tblA, tblB *types.Table, req Request) (*Comparison, error) {
	pivotA, err := b.Build(tblA, req)
	if err != nil {
		return nil, err
	}
	pivotB, err := b.Build(tblB, req)
	if err != nil {
		return nil, err
	}

	rows := unionLabels(pivotA.RowLabels, pivotB.RowLabels)
	cols := unionLabels(pivotA.ColLabels, pivotB.ColLabels)

	alignedA := pivotA.reindex(rows, cols)
	alignedB := pivotB.reindex(rows, cols)

	absolute := NewPivotTable(req.Metric.String(), rows, cols)
	percentage := NewPivotTable(req.Metric.String(), rows, cols)
	for _, r := range rows {
		for _, c := range cols {
			a := alignedA.Value(r, c)
			bv := alignedB.Value(r, c)
			absolute.Set(r, c, a-bv)
			if bv != 0 {
				pct := (a - bv) / bv * 100
				if !math.IsInf(pct, 0) && !math.IsNaN(pct) {
					percentage.Set(r, c, pct)
				}
			}
		}
	}

	return &Comparison{
		AlignedA:   alignedA,
		AlignedB:   alignedB,
		Absolute:   absolute,
		Percentage: percentage,
	}, nil
}

// unionLabels merges two ordered label slices: a's order first, then the
// labels only b has, in b's order.
func unionLabels(a, b []string) []string {
	seen := make(map[string]bool, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, l := range a {
		if !seen[l] {
			seen[l] = true
			out = append(out, l)
		}
	}
	for _, l := range b {
		if !seen[l] {
			seen[l] = true
			out = append(out, l)
		}
	}
	return out
}
