package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleBatch() *RecordBatch {
	return &RecordBatch{
		Schema: Schema{Fields: []Field{
			{Name: "id", Type: ColUint64},
			{Name: "vector", Type: ColBinary},
		}},
		Columns: []*Column{
			{Type: ColUint64, Uint64s: []uint64{1, 2, 3}},
			{Type: ColBinary, Binaries: [][]byte{{1}, nil, {3}}},
		},
	}
}

func TestSchemaEqual(t *testing.T) {
	a := Schema{Fields: []Field{{Name: "id", Type: ColUint64}}}
	b := Schema{Fields: []Field{{Name: "id", Type: ColUint64}}}
	c := Schema{Fields: []Field{{Name: "id", Type: ColBool}}}
	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
	assert.False(t, a.Equal(Schema{}))
}

func TestRecordBatchNumRows(t *testing.T) {
	assert.Equal(t, 3, sampleBatch().NumRows())
	assert.Equal(t, 0, (&RecordBatch{}).NumRows())
}

func TestRecordBatchColumnByName(t *testing.T) {
	rb := sampleBatch()
	col, ok := rb.ColumnByName("vector")
	require.True(t, ok)
	assert.Equal(t, ColBinary, col.Type)

	_, ok = rb.ColumnByName("missing")
	assert.False(t, ok)
}

func TestRecordBatchValidate(t *testing.T) {
	rb := sampleBatch()
	assert.NoError(t, rb.Validate())

	mismatched := sampleBatch()
	mismatched.Columns[1].Binaries = mismatched.Columns[1].Binaries[:2]
	assert.Error(t, mismatched.Validate())

	wrongType := sampleBatch()
	wrongType.Columns[0].Type = ColBool
	assert.Error(t, wrongType.Validate())
}

func TestRecordBatchValidateSchemaColumnCountMismatch(t *testing.T) {
	rb := sampleBatch()
	rb.Columns = rb.Columns[:1]
	assert.Error(t, rb.Validate())
}

func TestRecordBatchSlice(t *testing.T) {
	rb := sampleBatch()
	sliced := rb.Slice(1, 3)
	assert.Equal(t, 2, sliced.NumRows())
	assert.Equal(t, []uint64{2, 3}, sliced.Columns[0].Uint64s)
}

func TestRecordBatchTake(t *testing.T) {
	rb := sampleBatch()
	taken := rb.Take([]int{2, 0})
	assert.Equal(t, []uint64{3, 1}, taken.Columns[0].Uint64s)
	assert.Equal(t, [][]byte{{3}, {1}}, taken.Columns[1].Binaries)
}
