package storage

import "fmt"

// ColumnType is the scalar type carried by a Column. There is no Arrow
// or Parquet dependency anywhere in this repo (none is available in
// the reference corpus this was built from); RecordBatch is a minimal
// in-repo stand-in for Arrow-style record batches, sized to exactly
// what the forward writer and kernel lowering need.
type ColumnType int

const (
	ColUint64 ColumnType = iota
	ColBool
	ColBinary
	ColStruct // {indices: binary, values: binary}, used for sparse vector columns
)

// Field describes one column's name and type.
type Field struct {
	Name string
	Type ColumnType
}

// Schema is an ordered list of Fields. Two schemas are equal iff their
// field lists match exactly in name, type, and order (spec §4.5
// "Schema locking").
type Schema struct {
	Fields []Field
}

// Equal reports whether s and other describe the same columns in the
// same order.
func (s Schema) Equal(other Schema) bool {
	if len(s.Fields) != len(other.Fields) {
		return false
	}
	for i := range s.Fields {
		if s.Fields[i] != other.Fields[i] {
			return false
		}
	}
	return true
}

// StructColumn is the {indices, values} pair a sparse vector column
// stores, one entry per row.
type StructColumn struct {
	Indices []byte
	Values  []byte
}

// Column holds one field's values across all rows of a RecordBatch.
// Exactly one of the slices is populated, selected by Type.
type Column struct {
	Type     ColumnType
	Uint64s  []uint64
	Bools    []bool
	Binaries [][]byte // nil element means SQL NULL (spec §4.4 "null for rows whose ... buffer is empty")
	Structs  []StructColumn
}

func (c *Column) len() int {
	switch c.Type {
	case ColUint64:
		return len(c.Uint64s)
	case ColBool:
		return len(c.Bools)
	case ColBinary:
		return len(c.Binaries)
	case ColStruct:
		return len(c.Structs)
	default:
		return 0
	}
}

// RecordBatch is a schema plus one Column per field, all of equal
// length (the batch's row count).
type RecordBatch struct {
	Schema  Schema
	Columns []*Column
}

// NumRows returns the batch's row count, or 0 for a batch with no
// columns.
func (rb *RecordBatch) NumRows() int {
	if len(rb.Columns) == 0 {
		return 0
	}
	return rb.Columns[0].len()
}

// ColumnByName looks up a column by field name.
func (rb *RecordBatch) ColumnByName(name string) (*Column, bool) {
	for i, f := range rb.Schema.Fields {
		if f.Name == name {
			return rb.Columns[i], true
		}
	}
	return nil, false
}

// Validate checks that every column's length matches NumRows and that
// the schema and column count agree.
func (rb *RecordBatch) Validate() error {
	if len(rb.Schema.Fields) != len(rb.Columns) {
		return fmt.Errorf("storage: schema has %d fields but batch has %d columns", len(rb.Schema.Fields), len(rb.Columns))
	}
	n := rb.NumRows()
	for i, c := range rb.Columns {
		if c.len() != n {
			return fmt.Errorf("storage: column %q has %d rows, want %d", rb.Schema.Fields[i].Name, c.len(), n)
		}
		if c.Type != rb.Schema.Fields[i].Type {
			return fmt.Errorf("storage: column %q has type %v, schema says %v", rb.Schema.Fields[i].Name, c.Type, rb.Schema.Fields[i].Type)
		}
	}
	return nil
}

// Slice returns a new RecordBatch covering rows [start, end) of rb,
// sharing the underlying column slices (spec §4.5 "Row-group
// slicing").
func (rb *RecordBatch) Slice(start, end int) *RecordBatch {
	out := &RecordBatch{Schema: rb.Schema, Columns: make([]*Column, len(rb.Columns))}
	for i, c := range rb.Columns {
		out.Columns[i] = sliceColumn(c, start, end)
	}
	return out
}

func sliceColumn(c *Column, start, end int) *Column {
	switch c.Type {
	case ColUint64:
		return &Column{Type: c.Type, Uint64s: c.Uint64s[start:end]}
	case ColBool:
		return &Column{Type: c.Type, Bools: c.Bools[start:end]}
	case ColBinary:
		return &Column{Type: c.Type, Binaries: c.Binaries[start:end]}
	case ColStruct:
		return &Column{Type: c.Type, Structs: c.Structs[start:end]}
	default:
		return &Column{Type: c.Type}
	}
}

// Take builds a new RecordBatch containing only the rows at the given
// positions, in order: the "structured Take operation per column"
// spec §4.5 describes for row filtering.
func (rb *RecordBatch) Take(positions []int) *RecordBatch {
	out := &RecordBatch{Schema: rb.Schema, Columns: make([]*Column, len(rb.Columns))}
	for i, c := range rb.Columns {
		out.Columns[i] = takeColumn(c, positions)
	}
	return out
}

func takeColumn(c *Column, positions []int) *Column {
	switch c.Type {
	case ColUint64:
		vals := make([]uint64, len(positions))
		for i, p := range positions {
			vals[i] = c.Uint64s[p]
		}
		return &Column{Type: c.Type, Uint64s: vals}
	case ColBool:
		vals := make([]bool, len(positions))
		for i, p := range positions {
			vals[i] = c.Bools[p]
		}
		return &Column{Type: c.Type, Bools: vals}
	case ColBinary:
		vals := make([][]byte, len(positions))
		for i, p := range positions {
			vals[i] = c.Binaries[p]
		}
		return &Column{Type: c.Type, Binaries: vals}
	case ColStruct:
		vals := make([]StructColumn, len(positions))
		for i, p := range positions {
			vals[i] = c.Structs[p]
		}
		return &Column{Type: c.Type, Structs: vals}
	default:
		return &Column{Type: c.Type}
	}
}
