package pivot

import (
	"fmt"
	"sort"
)

// Sentinel strategy names. "No Bucketing" always leads the option list
// and "Custom Buckets" always closes it; named built-ins sit between in
// registration order.
const (
	StrategyNone   = "No Bucketing"
	StrategyCustom = "Custom Buckets"
)

// namedStrategy pairs a strategy name with its bucketing.
type namedStrategy struct {
	name      string
	bucketing Bucketing
}

// Registry is the two-level lookup from dimension name to named bucket
// strategies. It is built once at construction and read-only afterwards,
// so a single Registry serves concurrent callers.
type Registry struct {
	byDimension map[string][]namedStrategy
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{byDimension: make(map[string][]namedStrategy)}
}

// Register adds a named strategy for a dimension. Registration order is
// the order strategies appear in Strategies().
func (r *Registry) Register(dimension, name string, b Bucketing) {
	r.byDimension[dimension] = append(r.byDimension[dimension], namedStrategy{name: name, bucketing: b})
}

// Dimensions returns the dimensions with registered built-in
// strategies, sorted by name. Any table field can still be pivoted on;
// unlisted dimensions just offer only the two sentinel strategies.
func (r *Registry) Dimensions() []string {
	out := make([]string, 0, len(r.byDimension))
	for d := range r.byDimension {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}

// Strategies returns the bucketing options for a dimension:
// "No Bucketing" first, registered built-ins in registration order,
// "Custom Buckets" last. Dimensions with no built-ins still get both
// sentinels.
func (r *Registry) Strategies(dimension string) []string {
	out := []string{StrategyNone}
	for _, s := range r.byDimension[dimension] {
		out = append(out, s.name)
	}
	return append(out, StrategyCustom)
}

// Resolve returns the bucketing for (dimension, strategy). It never
// fails: unknown strategies and malformed custom ranges degrade to
// pass-through, returning a warning so the degradation stays observable.
// Availability of the pivot wins over bucketing correctness here; a
// schema-level problem is the builder's to reject, not Resolve's.
func (r *Registry) Resolve(dimension, strategy, customRanges string) (Bucketing, string) {
	switch strategy {
	case "", StrategyNone:
		return passthrough(), ""
	case StrategyCustom:
		b, err := parseCustomBuckets(customRanges)
		if err != nil {
			return passthrough(), fmt.Sprintf("custom buckets for %s: %v; axis left unbucketed", dimension, err)
		}
		return b, ""
	}
	for _, s := range r.byDimension[dimension] {
		if s.name == strategy {
			return s.bucketing, ""
		}
	}
	return passthrough(), fmt.Sprintf("unknown strategy %q for dimension %s; axis left unbucketed", strategy, dimension)
}

// DefaultRegistry builds the registry of built-in strategies for the
// ecommerce user schema. Cut boundaries are fixed; the "Quartiles"
// strategies compute their boundaries from the data at call time and are
// therefore data-dependent (the same Q1 label covers different numeric
// ranges on different inputs).
func DefaultRegistry() *Registry {
	r := NewRegistry()

	quartiles := []string{"Q1 (Bottom 25%)", "Q2", "Q3", "Q4 (Top 25%)"}

	r.Register("age", "Young/Old",
		cut([]float64{0, 35, 100}, []string{"Young (18-35)", "Mature (35+)"}, false))
	r.Register("age", "Three Groups",
		cut([]float64{0, 25, 45, 100}, []string{"18-25", "26-45", "46+"}, false))
	r.Register("age", "Fine Grained",
		cut([]float64{0, 20, 25, 35, 50, 100}, []string{"18-20", "21-25", "26-35", "36-50", "50+"}, false))

	r.Register("days_since_signup", "New/Established",
		cut([]float64{0, 90, 10000}, []string{"New (0-90 days)", "Established (90+ days)"}, false))
	r.Register("days_since_signup", "Quarterly",
		cut([]float64{0, 90, 180, 365, 10000}, []string{"0-3 months", "3-6 months", "6-12 months", "1+ years"}, false))
	r.Register("days_since_signup", "Monthly",
		cut([]float64{0, 30, 60, 90, 180, 365, 10000},
			[]string{"0-1 month", "1-2 months", "2-3 months", "3-6 months", "6-12 months", "1+ years"}, false))

	r.Register("days_since_last_purchase", "Recent/Lapsed",
		cut([]float64{0, 30, 10000}, []string{"Recent (0-30 days)", "Lapsed (30+ days)"}, false))
	r.Register("days_since_last_purchase", "Recency Groups",
		cut([]float64{0, 7, 30, 90, 10000}, []string{"0-7 days", "8-30 days", "31-90 days", "90+ days"}, false))
	r.Register("days_since_last_purchase", "Weekly",
		cut([]float64{0, 7, 14, 21, 30, 60, 90, 10000},
			[]string{"0-1 week", "1-2 weeks", "2-3 weeks", "3-4 weeks", "1-2 months", "2-3 months", "3+ months"}, false))

	r.Register("signup_date", "By Year", calendar(periodYear))
	r.Register("signup_date", "By Month", calendar(periodMonth))
	r.Register("signup_date", "By Quarter", calendar(periodQuarter))
	r.Register("signup_date", "By Week", calendar(periodWeek))

	inf := maxBoundary

	r.Register("total_revenue", "Low/Medium/High",
		cut([]float64{0, 100, 500, inf}, []string{"Low (<$100)", "Medium ($100-500)", "High ($500+)"}, false))
	r.Register("total_revenue", "Quartiles", qcut(quartiles))
	r.Register("total_revenue", "Detailed",
		cut([]float64{0, 50, 100, 250, 500, 1000, inf},
			[]string{"<$50", "$50-100", "$100-250", "$250-500", "$500-1000", "$1000+"}, false))

	r.Register("ltv", "Low/Medium/High",
		cut([]float64{0, 200, 1000, inf}, []string{"Low (<$200)", "Medium ($200-1000)", "High ($1000+)"}, false))
	r.Register("ltv", "Quartiles", qcut(quartiles))
	r.Register("ltv", "Detailed",
		cut([]float64{0, 100, 250, 500, 1000, 2000, inf},
			[]string{"<$100", "$100-250", "$250-500", "$500-1000", "$1000-2000", "$2000+"}, false))

	r.Register("total_orders", "Low/Medium/High",
		cut([]float64{0, 2, 10, inf}, []string{"Low (0-2)", "Medium (3-10)", "High (10+)"}, false))
	r.Register("total_orders", "Detailed",
		cut([]float64{0, 1, 3, 5, 10, 20, inf}, []string{"0-1", "2-3", "4-5", "6-10", "11-20", "20+"}, false))

	r.Register("churn_risk_score", "Risk Levels",
		cut([]float64{0, 0.3, 0.7, 1.0}, []string{"Low Risk", "Medium Risk", "High Risk"}, false))

	r.Register("nps_score", "NPS Categories",
		cut([]float64{0, 6, 8, 10}, []string{"Detractors (0-6)", "Passives (7-8)", "Promoters (9-10)"}, true))

	return r
}

// maxBoundary is the open upper edge for "and above" intervals.
const maxBoundary = 1e308
