// Package audience provides predicate filtering of record tables into
// named audience segments. The pivot engine knows nothing of audiences;
// it receives the already-filtered table.
package audience

import (
	"fmt"

	"github.com/segmetric/segmetric/internal/errors"
	"github.com/segmetric/segmetric/pkg/types"
)

// Op is a comparison operator in an audience rule.
type Op string

const (
	OpGT      Op = ">"
	OpLT      Op = "<"
	OpGTE     Op = ">="
	OpLTE     Op = "<="
	OpEQ      Op = "=="
	OpNEQ     Op = "!="
	OpIn      Op = "in"
	OpBetween Op = "between"
)

// Rule is a single column comparison. Rules within an audience combine
// with AND.
type Rule struct {
	Field string `json:"field"`
	Op    Op     `json:"op"`

	// Value is the comparand for scalar operators.
	Value interface{} `json:"value,omitempty"`

	// Values carries the set for "in" and the [low, high] pair for
	// "between" (inclusive on both ends).
	Values []interface{} `json:"values,omitempty"`
}

// Apply filters tbl down to the rows matching every rule. The input
// table is not modified; the result shares row storage with it.
func Apply(tbl *types.Table, rules []Rule) (*types.Table, error) {
	for _, r := range rules {
		if !tbl.Schema.Has(r.Field) {
			return nil, errors.NewUnknownDimension(r.Field)
		}
		if err := validateRule(r); err != nil {
			return nil, err
		}
	}

	indices := make([]int, 0, tbl.NumRows())
	for i, row := range tbl.Rows {
		match := true
		for _, r := range rules {
			idx := tbl.Schema.Index(r.Field)
			var cell interface{}
			if idx < len(row) {
				cell = row[idx]
			}
			if !matches(cell, r) {
				match = false
				break
			}
		}
		if match {
			indices = append(indices, i)
		}
	}
	return tbl.Select(indices), nil
}

// Validate checks that every rule is structurally sound without
// reference to any table. Field existence is checked at Apply time.
func Validate(rules []Rule) error {
	for _, r := range rules {
		if r.Field == "" {
			return errors.NewValidationError(errors.CodeInvalidRule, "rule field is required")
		}
		if err := validateRule(r); err != nil {
			return err
		}
	}
	return nil
}

func validateRule(r Rule) error {
	switch r.Op {
	case OpGT, OpLT, OpGTE, OpLTE, OpEQ, OpNEQ:
		if r.Value == nil {
			return errors.NewValidationError(errors.CodeInvalidRule,
				fmt.Sprintf("operator %q needs a value", r.Op))
		}
	case OpIn:
		if len(r.Values) == 0 {
			return errors.NewValidationError(errors.CodeInvalidRule, `operator "in" needs a value set`)
		}
	case OpBetween:
		if len(r.Values) != 2 {
			return errors.NewValidationError(errors.CodeInvalidRule, `operator "between" needs exactly [low, high]`)
		}
	default:
		return errors.NewValidationError(errors.CodeInvalidRule,
			fmt.Sprintf("unknown operator %q", r.Op))
	}
	return nil
}

// matches evaluates one rule against one cell. Ordering operators
// require both sides numeric; equality falls back to label comparison
// for strings, booleans, and timestamps.
func matches(cell interface{}, r Rule) bool {
	switch r.Op {
	case OpGT, OpLT, OpGTE, OpLTE:
		cf, ok1 := types.AsFloat(cell)
		rf, ok2 := types.AsFloat(r.Value)
		if !ok1 || !ok2 {
			return false
		}
		switch r.Op {
		case OpGT:
			return cf > rf
		case OpLT:
			return cf < rf
		case OpGTE:
			return cf >= rf
		default:
			return cf <= rf
		}

	case OpEQ:
		return equalValues(cell, r.Value)
	case OpNEQ:
		return !equalValues(cell, r.Value)

	case OpIn:
		for _, v := range r.Values {
			if equalValues(cell, v) {
				return true
			}
		}
		return false

	case OpBetween:
		cf, ok := types.AsFloat(cell)
		if !ok {
			return false
		}
		lo, ok1 := types.AsFloat(r.Values[0])
		hi, ok2 := types.AsFloat(r.Values[1])
		return ok1 && ok2 && cf >= lo && cf <= hi
	}
	return false
}

func equalValues(a, b interface{}) bool {
	if af, ok := types.AsFloat(a); ok {
		if bf, ok := types.AsFloat(b); ok {
			return af == bf
		}
	}
	return types.Label(a) == types.Label(b)
}
