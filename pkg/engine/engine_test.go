package engine

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zvecdb/zvec-core/internal/simd"
	"github.com/zvecdb/zvec-core/internal/storage"
)

func float32ToBytes(vals []float32) []byte {
	buf := make([]byte, len(vals)*4)
	for i, v := range vals {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

func TestExecuteQueryFetchesDenseAndSparseColumns(t *testing.T) {
	indexer := storage.NewMapIndexer()
	indexer.PutDense(1, []byte{1, 2, 3, 4})
	indexer.PutSparse(1, []byte{0}, []byte{1, 2, 3, 4})

	ns := NewNamespace(indexer, nil, 0)
	result, err := ns.ExecuteQuery("SELECT id, vector, sparse_vector FROM docs", []uint64{1, 2})
	require.NoError(t, err)

	batch := result.Batch
	require.NoError(t, batch.Validate())
	assert.Equal(t, 2, batch.NumRows())

	idCol, ok := batch.ColumnByName("id")
	require.True(t, ok)
	assert.Equal(t, []uint64{1, 2}, idCol.Uint64s)

	vecCol, ok := batch.ColumnByName("vector")
	require.True(t, ok)
	assert.Equal(t, []byte{1, 2, 3, 4}, vecCol.Binaries[0])
	assert.Nil(t, vecCol.Binaries[1])
}

func TestExecuteQueryAppliesFilterColumn(t *testing.T) {
	indexer := storage.NewMapIndexer()
	filter := storage.NewClosureFilter(func(id uint64) bool { return id == 2 })

	ns := NewNamespace(indexer, filter, 0)
	result, err := ns.ExecuteQuery("SELECT id FROM docs", []uint64{1, 2, 3})
	require.NoError(t, err)

	keptCol, ok := result.Batch.ColumnByName("kept")
	require.True(t, ok)
	assert.Equal(t, []bool{true, false, true}, keptCol.Bools)
}

func TestExecuteQueryPropagatesParseErrors(t *testing.T) {
	ns := NewNamespace(storage.NewMapIndexer(), nil, 0)
	_, err := ns.ExecuteQuery("NOT A QUERY", []uint64{1})
	assert.Error(t, err)
}

func TestExecuteQueryReusesCacheAcrossCalls(t *testing.T) {
	ns := NewNamespace(storage.NewMapIndexer(), nil, 0)
	_, err := ns.ExecuteQuery("SELECT id FROM docs WHERE vector = [1,2,3]", []uint64{1})
	require.NoError(t, err)
	_, err = ns.ExecuteQuery("SELECT id FROM docs WHERE vector = [4,5,6]", []uint64{1})
	require.NoError(t, err)

	stats := ns.Cache.Stats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
}

func TestComputeDistanceF32(t *testing.T) {
	stored := float32ToBytes([]float32{1, 2, 3})
	query := float32ToBytes([]float32{1, 2, 3})

	out, err := ComputeDistance(DistanceRequest{Element: simd.F32, Op: simd.IP, Dim: 3, M: 1, N: 1, Stored: stored, Query: query})
	require.NoError(t, err)
	assert.Equal(t, []float32{14}, out)
}

func TestComputeDistanceRejectsMisalignedF32Buffer(t *testing.T) {
	_, err := ComputeDistance(DistanceRequest{Element: simd.F32, Op: simd.IP, Dim: 1, M: 1, N: 1, Stored: []byte{1, 2, 3}, Query: []byte{1, 2, 3, 4}})
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestComputeDistanceRejectsUnknownElementType(t *testing.T) {
	_, err := ComputeDistance(DistanceRequest{Element: simd.ElementType(99), Dim: 1, M: 1, N: 1})
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestComputeDistanceI8(t *testing.T) {
	stored := []byte{1, 2, 3, 4}
	query := []byte{4, 3, 2, 1}
	out, err := ComputeDistance(DistanceRequest{Element: simd.I8, Op: simd.IP, Dim: 4, M: 1, N: 1, Stored: stored, Query: query})
	require.NoError(t, err)
	assert.Equal(t, []float32{1*4 + 2*3 + 3*2 + 4*1}, out)
}

func TestComputeSparseDistanceF32(t *testing.T) {
	buf, err := simd.TransformF32([]uint32{0, 1}, []float32{1, 2})
	require.NoError(t, err)

	got, err := ComputeSparseDistance(SparseDistanceRequest{Element: simd.F32, Stored: buf, Query: buf})
	require.NoError(t, err)
	assert.Equal(t, float32(-(1*1 + 2*2)), got)
}

func TestComputeSparseDistanceRejectsUnsupportedElementType(t *testing.T) {
	_, err := ComputeSparseDistance(SparseDistanceRequest{Element: simd.I8})
	assert.ErrorIs(t, err, ErrInvalidArgument)
}
