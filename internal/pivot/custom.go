package pivot

import (
	"errors"
	"sort"
	"strconv"
	"strings"
)

// parseCustomBuckets interprets a user-supplied comma-separated token
// list as an ad-hoc bucketing:
//
//   - all tokens numeric, ≥2 of them: ascending cut boundaries. The
//     column is binned into len(tokens)-1 intervals labeled by their
//     numeric range; the lowest edge is inclusive and values outside
//     [min, max] fall into no bucket.
//   - otherwise: each token is a label, and the column is split into
//     len(tokens) quantile-sized groups, one label per group in order.
//     Duplicate quantile boundaries collapse, so some labels may go
//     unused.
//
// Errors are reported back so the caller can degrade to pass-through;
// a custom bucketing failure is never fatal to the pivot.
func parseCustomBuckets(ranges string) (Bucketing, error) {
	tokens := splitTokens(ranges)
	if len(tokens) < 2 {
		return Bucketing{}, errors.New("need at least two comma-separated tokens")
	}

	boundaries, numeric := parseNumericTokens(tokens)
	if numeric {
		if !sort.Float64sAreSorted(boundaries) {
			return Bucketing{}, errors.New("numeric boundaries must be ascending")
		}
		labels := make([]string, len(boundaries)-1)
		for i := range labels {
			labels[i] = formatBoundary(boundaries[i]) + "-" + formatBoundary(boundaries[i+1])
		}
		return cut(boundaries, labels, true), nil
	}

	// Non-numeric tokens are quantile group labels.
	return qcut(tokens), nil
}

func splitTokens(s string) []string {
	var tokens []string
	for _, t := range strings.Split(s, ",") {
		t = strings.TrimSpace(t)
		if t != "" {
			tokens = append(tokens, t)
		}
	}
	return tokens
}

// parseNumericTokens parses every token as a float. Returns false if any
// token is non-numeric.
func parseNumericTokens(tokens []string) ([]float64, bool) {
	out := make([]float64, len(tokens))
	for i, t := range tokens {
		f, err := strconv.ParseFloat(t, 64)
		if err != nil {
			return nil, false
		}
		out[i] = f
	}
	return out, true
}

func formatBoundary(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
