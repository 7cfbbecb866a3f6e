// Package pivot implements the pivot and bucketing engine: two-axis
// cross-tabulation of a record table with pluggable per-dimension
// binning strategies, segment comparison over aligned label universes,
// and per-group distributional summaries.
//
// The engine is synchronous and stateless across calls. Every operation
// is a pure function of its inputs and never mutates the caller's
// table, so concurrent calls may freely share tables. Quantile-based
// strategies ("Quartiles", custom quantile labels) recompute their
// boundaries from the input on every call; the same bucket label denotes
// different numeric ranges on differently filtered tables.
//
// Error policy: missing dimensions and metric backing fields are hard
// errors, while unknown strategies and malformed custom ranges degrade
// the affected axis to "No Bucketing" and are reported as warnings on
// the result.
package pivot
