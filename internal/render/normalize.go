// Package render turns pivot results into display artifacts:
// percentage-normalized matrices and CSV exports. Everything here is
// display-only; aggregation and rounding policy live in the pivot
// package.
package render

import (
	"math"

	"github.com/segmetric/segmetric/internal/pivot"
)

// NormalizeMode selects how cell values are converted to percentages.
type NormalizeMode int

const (
	// NormalizeNone leaves values untouched.
	NormalizeNone NormalizeMode = iota
	// NormalizeRows expresses each cell as a percentage of its row total.
	NormalizeRows
	// NormalizeCols expresses each cell as a percentage of its column total.
	NormalizeCols
	// NormalizeTotal expresses each cell as a percentage of the grand total.
	NormalizeTotal
)

// ParseNormalizeMode maps a request parameter to a mode. Unknown
// values fall back to NormalizeNone.
func ParseNormalizeMode(s string) NormalizeMode {
	switch s {
	case "rows", "row":
		return NormalizeRows
	case "cols", "columns", "col":
		return NormalizeCols
	case "total", "all":
		return NormalizeTotal
	default:
		return NormalizeNone
	}
}

// Normalize returns a dense matrix of the pivot table's values under
// the given mode. Percentages are rounded to one decimal place; cells
// whose denominator is zero render as 0.
func Normalize(pt *pivot.PivotTable, mode NormalizeMode) [][]float64 {
	matrix := pt.Matrix()
	if mode == NormalizeNone {
		return matrix
	}

	rowTotals := pt.RowTotals()
	colTotals := pt.ColTotals()
	grand := pt.Total()

	for i := range matrix {
		for j := range matrix[i] {
			var denom float64
			switch mode {
			case NormalizeRows:
				denom = rowTotals[i]
			case NormalizeCols:
				denom = colTotals[j]
			case NormalizeTotal:
				denom = grand
			}
			if denom == 0 {
				matrix[i][j] = 0
				continue
			}
			matrix[i][j] = round1(matrix[i][j] / denom * 100)
		}
	}
	return matrix
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
