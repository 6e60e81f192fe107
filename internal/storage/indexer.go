package storage

import "fmt"

// SegmentIndexer resolves a row id to its persisted vector bytes,
// backing the fetch_vector / fetch_sparse_vector kernels (spec §4.4).
// Implementations must be safe for concurrent use: "the execution
// engine may invoke a kernel from any of its worker threads" (spec §5).
type SegmentIndexer interface {
	// FetchDense returns the dense vector buffer for id, or (nil, false)
	// if the row has no dense vector.
	FetchDense(id uint64) ([]byte, bool, error)
	// FetchSparse returns the on-wire sparse buffer's index and value
	// streams split apart, or (nil, nil, false) if the row has no sparse
	// vector.
	FetchSparse(id uint64) (indices, values []byte, ok bool, err error)
}

// MapIndexer is an in-memory SegmentIndexer backed by plain maps; it is
// the indexer a segment builder or a test uses when the vectors are
// already resident rather than file-backed.
type MapIndexer struct {
	dense  map[uint64][]byte
	sparse map[uint64]sparseEntry
}

type sparseEntry struct {
	indices []byte
	values  []byte
}

// NewMapIndexer creates an empty MapIndexer.
func NewMapIndexer() *MapIndexer {
	return &MapIndexer{dense: make(map[uint64][]byte), sparse: make(map[uint64]sparseEntry)}
}

// PutDense registers id's dense vector bytes.
func (m *MapIndexer) PutDense(id uint64, buf []byte) {
	m.dense[id] = buf
}

// PutSparse registers id's sparse vector, split into its index and
// value byte streams (the segmented §3.3 layout, or any caller-defined
// split the kernel consumer understands).
func (m *MapIndexer) PutSparse(id uint64, indices, values []byte) {
	m.sparse[id] = sparseEntry{indices: indices, values: values}
}

// FetchDense implements SegmentIndexer.
func (m *MapIndexer) FetchDense(id uint64) ([]byte, bool, error) {
	buf, ok := m.dense[id]
	if !ok || len(buf) == 0 {
		return nil, false, nil
	}
	return buf, true, nil
}

// FetchSparse implements SegmentIndexer.
func (m *MapIndexer) FetchSparse(id uint64) ([]byte, []byte, bool, error) {
	entry, ok := m.sparse[id]
	if !ok {
		return nil, nil, false, nil
	}
	return entry.indices, entry.values, true, nil
}

// ErrIndexerAbsent is returned by kernel lowering when a fetch_vector /
// fetch_sparse_vector expression is planned without an indexer option
// supplied (spec §4.4 "Error: indexer absent -> execution error").
var ErrIndexerAbsent = fmt.Errorf("storage: fetch kernel requires an indexer option")

// ErrFilterAbsent is returned when check_not_filtered is planned
// without a filter option (spec §4.4 "Error: filter option absent ->
// execution error").
var ErrFilterAbsent = fmt.Errorf("storage: check_not_filtered kernel requires a filter option")
