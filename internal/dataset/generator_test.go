package dataset

import (
	"testing"
	"time"

	"github.com/segmetric/segmetric/pkg/types"
)

var genNow = time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

func TestGenerateShape(t *testing.T) {
	tbl := NewGenerator(42, genNow).Generate(100)

	if got := tbl.NumRows(); got != 100 {
		t.Fatalf("rows = %d, want 100", got)
	}
	want := len(UserSchema().Fields)
	if got := len(tbl.Schema.Fields); got != want {
		t.Fatalf("fields = %d, want %d", got, want)
	}
	for _, row := range tbl.Rows {
		if len(row) != want {
			t.Fatalf("row width = %d, want %d", len(row), want)
		}
	}
}

func TestGenerateDeterministic(t *testing.T) {
	a := NewGenerator(7, genNow).Generate(50)
	b := NewGenerator(7, genNow).Generate(50)

	for i := range a.Rows {
		for j := range a.Rows[i] {
			av, bv := a.Rows[i][j], b.Rows[i][j]
			if at, ok := av.(time.Time); ok {
				if !at.Equal(bv.(time.Time)) {
					t.Fatalf("row %d col %d: %v != %v", i, j, av, bv)
				}
				continue
			}
			if av != bv {
				t.Fatalf("row %d col %d: %v != %v", i, j, av, bv)
			}
		}
	}
}

func TestGenerateDifferentSeedsDiffer(t *testing.T) {
	a := NewGenerator(1, genNow).Generate(20)
	b := NewGenerator(2, genNow).Generate(20)

	aIDs, _ := a.Column("ltv")
	bIDs, _ := b.Column("ltv")
	same := true
	for i := range aIDs {
		if aIDs[i] != bIDs[i] {
			same = false
			break
		}
	}
	if same {
		t.Error("different seeds produced identical ltv columns")
	}
}

func TestGenerateValueRanges(t *testing.T) {
	tbl := NewGenerator(42, genNow).Generate(500)

	checks := []struct {
		field  string
		lo, hi float64
	}{
		{"age", 18, 80},
		{"nps_score", 0, 10},
		{"churn_risk_score", 0, 1},
		{"total_orders", 0, 50},
		{"total_revenue", 0, 10000},
		{"days_since_signup", 0, 1095},
	}
	for _, c := range checks {
		col, ok := tbl.Column(c.field)
		if !ok {
			t.Fatalf("missing column %s", c.field)
		}
		for i, v := range col {
			f, ok := types.AsFloat(v)
			if !ok {
				t.Fatalf("%s[%d] not numeric: %v", c.field, i, v)
			}
			if f < c.lo || f > c.hi {
				t.Errorf("%s[%d] = %v outside [%v, %v]", c.field, i, f, c.lo, c.hi)
			}
		}
	}
}

func TestGenerateChurnFlagsConsistent(t *testing.T) {
	tbl := NewGenerator(42, genNow).Generate(200)
	churned, _ := tbl.Column("is_churned")
	retained, _ := tbl.Column("is_retained")
	for i := range churned {
		if churned[i].(bool) == retained[i].(bool) {
			t.Fatalf("row %d: is_churned and is_retained agree", i)
		}
	}
}
