package pivot

import (
	"fmt"
	"strconv"

	"github.com/segmetric/segmetric/pkg/types"
)

// Bucketing maps a column of raw values to bucket labels. Apply returns
// one label per input value plus an inclusion flag; rows flagged false
// fall outside every bucket on that axis and contribute to no cell.
//
// Bucketings are pure: Apply never mutates its input and carries no state
// between calls, so a Bucketing is safe to share across goroutines.
type Bucketing struct {
	// Apply assigns a bucket label to each value in the column.
	Apply func(values []interface{}) (labels []string, included []bool)

	// Labels fixes the output order for interval-based strategies
	// (ascending by cut boundary, or token order for quantile labels).
	// Nil means the builder uses discovery order.
	Labels []string

	// SortLabels requests lexicographic ordering of observed labels.
	// Used by calendar strategies, whose period labels sort naturally.
	SortLabels bool
}

// passthrough returns values unbucketed: each value becomes its own
// label in first-observed order. This is the "No Bucketing" sentinel and
// the degradation target for every bucketing failure.
func passthrough() Bucketing {
	return Bucketing{
		Apply: func(values []interface{}) ([]string, []bool) {
			labels := make([]string, len(values))
			included := make([]bool, len(values))
			for i, v := range values {
				labels[i] = types.Label(v)
				included[i] = v != nil
			}
			return labels, included
		},
	}
}

// cut partitions numeric values into len(boundaries)-1 contiguous
// intervals (b[i], b[i+1]]. With includeLowest, the first interval also
// admits its lower edge. Values outside [b[0], b[last]] and non-numeric
// values receive no bucket.
func cut(boundaries []float64, labels []string, includeLowest bool) Bucketing {
	return Bucketing{
		Labels: labels,
		Apply: func(values []interface{}) ([]string, []bool) {
			out := make([]string, len(values))
			included := make([]bool, len(values))
			for i, v := range values {
				f, ok := types.AsFloat(v)
				if !ok {
					continue
				}
				idx := intervalIndex(boundaries, f, includeLowest)
				if idx < 0 {
					continue
				}
				out[i] = labels[idx]
				included[i] = true
			}
			return out, included
		},
	}
}

// intervalIndex finds the (a, b] interval containing f, or -1.
func intervalIndex(boundaries []float64, f float64, includeLowest bool) int {
	n := len(boundaries)
	if n < 2 {
		return -1
	}
	if includeLowest && f == boundaries[0] {
		return 0
	}
	for i := 0; i < n-1; i++ {
		if f > boundaries[i] && f <= boundaries[i+1] {
			return i
		}
	}
	return -1
}

// qcut splits numeric values into len(labels) groups of (approximately)
// equal population. Boundaries are the empirical quantiles of the input
// column, recomputed on every call: the same label denotes different
// numeric ranges across differently filtered tables. Duplicate quantile
// boundaries collapse, so fewer groups than labels may come back.
func qcut(labels []string) Bucketing {
	return Bucketing{
		Labels: labels,
		Apply: func(values []interface{}) ([]string, []bool) {
			out := make([]string, len(values))
			included := make([]bool, len(values))

			nums := make([]float64, 0, len(values))
			for _, v := range values {
				if f, ok := types.AsFloat(v); ok {
					nums = append(nums, f)
				}
			}
			if len(nums) == 0 {
				return out, included
			}

			boundaries := quantileBoundaries(nums, len(labels))
			for i, v := range values {
				f, ok := types.AsFloat(v)
				if !ok {
					continue
				}
				if len(boundaries) < 2 {
					// Degenerate column (all values equal): one group.
					out[i] = labels[0]
					included[i] = true
					continue
				}
				idx := intervalIndex(boundaries, f, true)
				if idx < 0 || idx >= len(labels) {
					continue
				}
				out[i] = labels[idx]
				included[i] = true
			}
			return out, included
		},
	}
}

// quantileBoundaries returns the k+1 quantile cut points of values with
// duplicates collapsed.
func quantileBoundaries(values []float64, k int) []float64 {
	sorted := sortedCopy(values)
	boundaries := make([]float64, 0, k+1)
	for i := 0; i <= k; i++ {
		b := quantile(sorted, float64(i)/float64(k))
		if len(boundaries) == 0 || b != boundaries[len(boundaries)-1] {
			boundaries = append(boundaries, b)
		}
	}
	return boundaries
}

// Calendar periods for timestamp bucketing.
const (
	periodYear    = "year"
	periodMonth   = "month"
	periodQuarter = "quarter"
	periodWeek    = "week"
)

// calendar buckets timestamps by calendar period. The label derives from
// the timestamp's own calendar position, not from elapsed time. Values
// that are not timestamps receive no bucket.
func calendar(period string) Bucketing {
	return Bucketing{
		SortLabels: true,
		Apply: func(values []interface{}) ([]string, []bool) {
			out := make([]string, len(values))
			included := make([]bool, len(values))
			for i, v := range values {
				t, ok := types.AsTime(v)
				if !ok {
					continue
				}
				switch period {
				case periodYear:
					out[i] = strconv.Itoa(t.Year())
				case periodMonth:
					out[i] = t.Format("2006-01")
				case periodQuarter:
					out[i] = fmt.Sprintf("%dQ%d", t.Year(), (int(t.Month())-1)/3+1)
				case periodWeek:
					y, w := t.ISOWeek()
					out[i] = fmt.Sprintf("%d-W%02d", y, w)
				default:
					continue
				}
				included[i] = true
			}
			return out, included
		},
	}
}
