package pivot

// PivotTable is the two-axis aggregated result of a Build call. Row and
// column label sets derive from the data present after bucketing; cells
// are stored sparsely for the (row, col) pairs actually observed, and
// Value reads 0 for everything else.
type PivotTable struct {
	// Metric that produced the cell values.
	Metric string `json:"metric"`

	// RowLabels and ColLabels in display order: ascending for
	// interval-based bucketing, first-observed order otherwise.
	RowLabels []string `json:"row_labels"`
	ColLabels []string `json:"col_labels"`

	// Warnings lists non-fatal degradations (unknown strategy, custom
	// range parse failure) applied while building.
	Warnings []string `json:"warnings,omitempty"`

	cells map[cellKey]float64
}

type cellKey struct {
	row, col string
}

// NewPivotTable creates an empty table with the given axis labels. Most
// callers get their tables from Build; the constructor is for display
// code assembling derived tables.
func NewPivotTable(metric string, rowLabels, colLabels []string) *PivotTable {
	return &PivotTable{
		Metric:    metric,
		RowLabels: rowLabels,
		ColLabels: colLabels,
		cells:     make(map[cellKey]float64),
	}
}

// Value returns the cell at (row, col), or 0 when no rows fell into that
// bucket pair.
func (p *PivotTable) Value(row, col string) float64 {
	return p.cells[cellKey{row: row, col: col}]
}

// Set writes a cell value. A 0 write removes the cell so CellCount keeps
// tracking only observed pairs.
func (p *PivotTable) Set(row, col string, v float64) {
	k := cellKey{row: row, col: col}
	if v == 0 {
		delete(p.cells, k)
		return
	}
	p.cells[k] = v
}

// CellCount returns the number of non-empty cells.
func (p *PivotTable) CellCount() int {
	return len(p.cells)
}

// Matrix renders the table densely in label order, with 0 substituted
// for empty cells. This is the rectangular shape the presentation layer
// consumes.
func (p *PivotTable) Matrix() [][]float64 {
	m := make([][]float64, len(p.RowLabels))
	for i, r := range p.RowLabels {
		m[i] = make([]float64, len(p.ColLabels))
		for j, c := range p.ColLabels {
			m[i][j] = p.Value(r, c)
		}
	}
	return m
}

// Total sums every cell. For the Count metric this equals the number of
// input rows that landed in some bucket pair.
func (p *PivotTable) Total() float64 {
	var sum float64
	for _, v := range p.cells {
		sum += v
	}
	return sum
}

// RowTotals sums each row in label order.
func (p *PivotTable) RowTotals() []float64 {
	out := make([]float64, len(p.RowLabels))
	for i, r := range p.RowLabels {
		for _, c := range p.ColLabels {
			out[i] += p.Value(r, c)
		}
	}
	return out
}

// ColTotals sums each column in label order.
func (p *PivotTable) ColTotals() []float64 {
	out := make([]float64, len(p.ColLabels))
	for j, c := range p.ColLabels {
		for _, r := range p.RowLabels {
			out[j] += p.Value(r, c)
		}
	}
	return out
}

// reindex returns a copy of p stretched onto the given label universe,
// with cells absent from p reading 0. Used by Compare to align two
// tables before differencing.
func (p *PivotTable) reindex(rowLabels, colLabels []string) *PivotTable {
	out := NewPivotTable(p.Metric, rowLabels, colLabels)
	out.Warnings = p.Warnings
	for k, v := range p.cells {
		out.cells[k] = v
	}
	return out
}
