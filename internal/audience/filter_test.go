package audience

import (
	"testing"

	"github.com/segmetric/segmetric/pkg/types"
)

func filterFixture(t *testing.T) *types.Table {
	t.Helper()
	schema := types.Schema{Fields: []types.Field{
		{Name: "age", Type: types.FieldNumeric},
		{Name: "gender", Type: types.FieldString},
		{Name: "total_revenue", Type: types.FieldNumeric},
		{Name: "is_retained", Type: types.FieldBool},
	}}
	tbl := types.NewTable(schema)
	rows := [][]interface{}{
		{25.0, "F", 100.0, true},
		{35.0, "M", 50.0, false},
		{45.0, "F", 800.0, true},
		{55.0, "M", 0.0, false},
		{30.0, "other", 250.0, true},
	}
	for _, r := range rows {
		tbl.AppendRow(r)
	}
	return tbl
}

func TestApplyOperators(t *testing.T) {
	tests := []struct {
		name     string
		rule     Rule
		wantRows int
	}{
		{"gt", Rule{Field: "age", Op: OpGT, Value: 35.0}, 2},
		{"lt", Rule{Field: "age", Op: OpLT, Value: 35.0}, 2},
		{"gte", Rule{Field: "age", Op: OpGTE, Value: 35.0}, 3},
		{"lte", Rule{Field: "age", Op: OpLTE, Value: 35.0}, 3},
		{"eq string", Rule{Field: "gender", Op: OpEQ, Value: "F"}, 2},
		{"neq string", Rule{Field: "gender", Op: OpNEQ, Value: "F"}, 3},
		{"eq bool", Rule{Field: "is_retained", Op: OpEQ, Value: true}, 3},
		{"in", Rule{Field: "gender", Op: OpIn, Values: []interface{}{"F", "other"}}, 3},
		{"between inclusive", Rule{Field: "age", Op: OpBetween, Values: []interface{}{25.0, 45.0}}, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Apply(filterFixture(t), []Rule{tt.rule})
			if err != nil {
				t.Fatalf("Apply: %v", err)
			}
			if got.NumRows() != tt.wantRows {
				t.Errorf("got %d rows, want %d", got.NumRows(), tt.wantRows)
			}
		})
	}
}

func TestApplyRulesCombineWithAND(t *testing.T) {
	rules := []Rule{
		{Field: "gender", Op: OpEQ, Value: "F"},
		{Field: "total_revenue", Op: OpGT, Value: 500.0},
	}
	got, err := Apply(filterFixture(t), rules)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if got.NumRows() != 1 {
		t.Fatalf("got %d rows, want 1", got.NumRows())
	}
	ages, _ := got.Column("age")
	if ages[0] != 45.0 {
		t.Errorf("surviving row age = %v, want 45", ages[0])
	}
}

func TestApplyNoRulesKeepsEverything(t *testing.T) {
	tbl := filterFixture(t)
	got, err := Apply(tbl, nil)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if got.NumRows() != tbl.NumRows() {
		t.Errorf("got %d rows, want %d", got.NumRows(), tbl.NumRows())
	}
}

func TestApplyErrors(t *testing.T) {
	tests := []struct {
		name string
		rule Rule
	}{
		{"unknown field", Rule{Field: "no_such", Op: OpGT, Value: 1.0}},
		{"missing value", Rule{Field: "age", Op: OpGT}},
		{"empty in set", Rule{Field: "gender", Op: OpIn}},
		{"between needs pair", Rule{Field: "age", Op: OpBetween, Values: []interface{}{1.0}}},
		{"unknown operator", Rule{Field: "age", Op: "~", Value: 1.0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Apply(filterFixture(t), []Rule{tt.rule}); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestValidate(t *testing.T) {
	good := []Rule{{Field: "age", Op: OpBetween, Values: []interface{}{1.0, 2.0}}}
	if err := Validate(good); err != nil {
		t.Errorf("Validate: %v", err)
	}
	bad := []Rule{{Field: "", Op: OpGT, Value: 1.0}}
	if err := Validate(bad); err == nil {
		t.Error("expected an error for an empty field")
	}
}

func TestDefinitionsApplyCleanly(t *testing.T) {
	defs := Definitions()
	if len(defs) != 20 {
		t.Fatalf("got %d definitions, want 20", len(defs))
	}
	seen := make(map[string]bool)
	for _, d := range defs {
		if d.Name == "" {
			t.Error("definition with an empty name")
		}
		if seen[d.Name] {
			t.Errorf("duplicate definition %q", d.Name)
		}
		seen[d.Name] = true
		if err := Validate(d.Rules); err != nil {
			t.Errorf("%s: %v", d.Name, err)
		}
	}
}

func TestByName(t *testing.T) {
	if _, ok := ByName("High Value Customers"); !ok {
		t.Error("expected a built-in High Value Customers audience")
	}
	if _, ok := ByName("No Such Audience"); ok {
		t.Error("unexpected match for an unknown name")
	}
}
