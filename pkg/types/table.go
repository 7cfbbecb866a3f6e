package types

// Field defines a single column in a table schema.
type Field struct {
	// Name is the column name
	Name string `json:"name"`

	// Type is the column's scalar type
	Type FieldType `json:"type"`
}

// Schema describes the columns of a record table. All rows of a table
// share the same schema.
type Schema struct {
	Fields []Field `json:"fields"`
}

// Index returns the column index for a field name, or -1 if absent.
func (s Schema) Index(name string) int {
	for i, f := range s.Fields {
		if f.Name == name {
			return i
		}
	}
	return -1
}

// Has reports whether the schema contains a field with the given name.
func (s Schema) Has(name string) bool {
	return s.Index(name) >= 0
}

// FieldNames returns the column names in schema order.
func (s Schema) FieldNames() []string {
	names := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		names[i] = f.Name
	}
	return names
}

// Table is an ordered collection of rows sharing one schema. Cell values
// are float64, string, bool, or time.Time.
//
// The analytics engine treats tables as immutable inputs: it reads columns
// into working copies and never writes back, so a single table is safe to
// share across concurrent calls.
type Table struct {
	Schema Schema          `json:"schema"`
	Rows   [][]interface{} `json:"rows"`
}

// NewTable creates an empty table with the given schema.
func NewTable(schema Schema) *Table {
	return &Table{Schema: schema}
}

// NumRows returns the number of rows in the table.
func (t *Table) NumRows() int {
	return len(t.Rows)
}

// AppendRow appends a row. The row must match the schema width; shorter
// rows are padded with nils.
func (t *Table) AppendRow(row []interface{}) {
	for len(row) < len(t.Schema.Fields) {
		row = append(row, nil)
	}
	t.Rows = append(t.Rows, row)
}

// Column returns a copy of the named column's values. Returns false if
// the field is not part of the schema.
func (t *Table) Column(name string) ([]interface{}, bool) {
	idx := t.Schema.Index(name)
	if idx < 0 {
		return nil, false
	}
	col := make([]interface{}, len(t.Rows))
	for i, row := range t.Rows {
		if idx < len(row) {
			col[i] = row[idx]
		}
	}
	return col, true
}

// Select returns a new table containing the rows at the given indices.
// The rows themselves are shared, not copied; callers must not mutate them.
func (t *Table) Select(indices []int) *Table {
	out := NewTable(t.Schema)
	out.Rows = make([][]interface{}, 0, len(indices))
	for _, i := range indices {
		if i >= 0 && i < len(t.Rows) {
			out.Rows = append(out.Rows, t.Rows[i])
		}
	}
	return out
}
