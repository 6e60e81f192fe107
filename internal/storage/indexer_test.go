package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapIndexerFetchDense(t *testing.T) {
	idx := NewMapIndexer()
	idx.PutDense(1, []byte{1, 2, 3})

	buf, ok, err := idx.FetchDense(1)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte{1, 2, 3}, buf)

	_, ok, err = idx.FetchDense(2)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMapIndexerFetchDenseEmptyBufferIsAbsent(t *testing.T) {
	idx := NewMapIndexer()
	idx.PutDense(1, []byte{})

	_, ok, err := idx.FetchDense(1)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMapIndexerFetchSparse(t *testing.T) {
	idx := NewMapIndexer()
	idx.PutSparse(7, []byte{0, 1}, []byte{9, 9})

	indices, values, ok, err := idx.FetchSparse(7)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte{0, 1}, indices)
	assert.Equal(t, []byte{9, 9}, values)

	_, _, ok, err = idx.FetchSparse(8)
	require.NoError(t, err)
	assert.False(t, ok)
}
