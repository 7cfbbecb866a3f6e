package types

import (
	"testing"
	"time"
)

func TestSchemaLookup(t *testing.T) {
	s := Schema{Fields: []Field{
		{Name: "a", Type: FieldNumeric},
		{Name: "b", Type: FieldString},
	}}

	if got := s.Index("b"); got != 1 {
		t.Errorf("Index(b) = %d, want 1", got)
	}
	if got := s.Index("c"); got != -1 {
		t.Errorf("Index(c) = %d, want -1", got)
	}
	if !s.Has("a") || s.Has("c") {
		t.Error("Has gave wrong answers")
	}
	names := s.FieldNames()
	if len(names) != 2 || names[0] != "a" || names[1] != "b" {
		t.Errorf("FieldNames = %v", names)
	}
}

func TestAppendRowPadsShortRows(t *testing.T) {
	tbl := NewTable(Schema{Fields: []Field{
		{Name: "a", Type: FieldNumeric},
		{Name: "b", Type: FieldString},
		{Name: "c", Type: FieldBool},
	}})
	tbl.AppendRow([]interface{}{1.0})

	if len(tbl.Rows[0]) != 3 {
		t.Fatalf("row width = %d, want 3", len(tbl.Rows[0]))
	}
	if tbl.Rows[0][1] != nil || tbl.Rows[0][2] != nil {
		t.Errorf("padding = %v", tbl.Rows[0])
	}
}

func TestColumnIsACopy(t *testing.T) {
	tbl := NewTable(Schema{Fields: []Field{{Name: "a", Type: FieldNumeric}}})
	tbl.AppendRow([]interface{}{1.0})
	tbl.AppendRow([]interface{}{2.0})

	col, ok := tbl.Column("a")
	if !ok {
		t.Fatal("Column(a) missing")
	}
	col[0] = 99.0
	if tbl.Rows[0][0] != 1.0 {
		t.Error("mutating the column copy changed the table")
	}

	if _, ok := tbl.Column("zzz"); ok {
		t.Error("Column(zzz) should report absence")
	}
}

func TestSelect(t *testing.T) {
	tbl := NewTable(Schema{Fields: []Field{{Name: "a", Type: FieldNumeric}}})
	for i := 0; i < 5; i++ {
		tbl.AppendRow([]interface{}{float64(i)})
	}

	sel := tbl.Select([]int{4, 0, 2, 17, -1})
	if sel.NumRows() != 3 {
		t.Fatalf("selected %d rows, want 3 (out of range indices skipped)", sel.NumRows())
	}
	col, _ := sel.Column("a")
	want := []float64{4, 0, 2}
	for i, w := range want {
		if col[i] != w {
			t.Errorf("col[%d] = %v, want %v", i, col[i], w)
		}
	}
}

func TestAsFloat(t *testing.T) {
	tests := []struct {
		in   interface{}
		want float64
		ok   bool
	}{
		{42.5, 42.5, true},
		{int(7), 7, true},
		{int64(8), 8, true},
		{true, 1, true},
		{false, 0, true},
		{"nope", 0, false},
		{nil, 0, false},
	}
	for _, tt := range tests {
		got, ok := AsFloat(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("AsFloat(%v) = (%v, %v), want (%v, %v)", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestAsTime(t *testing.T) {
	ts := time.Date(2024, 2, 1, 8, 0, 0, 0, time.UTC)

	got, ok := AsTime(ts)
	if !ok || !got.Equal(ts) {
		t.Errorf("AsTime(time.Time) = (%v, %v)", got, ok)
	}
	got, ok = AsTime("2024-02-01T08:00:00Z")
	if !ok || !got.Equal(ts) {
		t.Errorf("AsTime(rfc3339) = (%v, %v)", got, ok)
	}
	got, ok = AsTime("2024-02-01 08:00:00")
	if !ok || !got.Equal(ts) {
		t.Errorf("AsTime(fallback) = (%v, %v)", got, ok)
	}
	if _, ok := AsTime(42.0); ok {
		t.Error("AsTime(float) should fail")
	}
}

func TestLabel(t *testing.T) {
	tests := []struct {
		in   interface{}
		want string
	}{
		{"x", "x"},
		{true, "true"},
		{42.0, "42"},
		{42.5, "42.5"},
		{time.Date(2024, 2, 1, 8, 0, 0, 0, time.UTC), "2024-02-01T08:00:00Z"},
		{nil, ""},
	}
	for _, tt := range tests {
		if got := Label(tt.in); got != tt.want {
			t.Errorf("Label(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
