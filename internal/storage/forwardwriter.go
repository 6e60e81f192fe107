package storage

import (
	"fmt"
	"sync"

	"github.com/zvecdb/zvec-core/pkg/observability"
)

// RowFilter is the writer-side retention predicate (spec §4.5 "Row
// filtering"): true means keep, the opposite polarity from IndexFilter
// (spec §9 "Filter semantic polarity"; intentionally not unified).
type RowFilter interface {
	Keep(rowPositionInBatch int) bool
}

// RowFilterFunc adapts a plain function to RowFilter.
type RowFilterFunc func(rowPositionInBatch int) bool

// Keep implements RowFilter.
func (f RowFilterFunc) Keep(rowPositionInBatch int) bool { return f(rowPositionInBatch) }

// BatchReader streams RecordBatch values, e.g. from an upstream query
// result, for ForwardWriter.Insert.
type BatchReader interface {
	// Next returns the next batch, or (nil, false, nil) at end of
	// stream.
	Next() (*RecordBatch, bool, error)
}

// ForwardWriter persists a stream of record batches to disk (spec
// §4.5). Implementations are not thread-safe; one writer per file
// (spec §5 "Forward Writer").
type ForwardWriter interface {
	// Insert consumes every batch from r, optionally retaining only
	// rows passing filter.
	Insert(r BatchReader, filter RowFilter) error
	// InsertBatch writes a single batch, optionally filtered.
	InsertBatch(batch *RecordBatch, filter RowFilter) error
	// Finalize flushes and closes the writer. A second call is a no-op
	// (spec §8.3 property 10).
	Finalize() error
}

// backend is implemented by the two concrete writers (ipcwriter,
// columnwriter) and invoked by baseWriter once schema-locking and
// row-group slicing have been applied.
type backend interface {
	writeRowGroup(batch *RecordBatch) error
	close() error
}

// baseWriter implements the schema-locking, row-group slicing, and
// row-filtering logic common to both ForwardWriter backends (spec
// §4.5), delegating the actual on-disk encoding to a backend.
type baseWriter struct {
	mu sync.Mutex

	backendName     string
	maxRowsPerBatch int
	backend         backend

	schemaSet bool
	schema    Schema
	finalized bool
}

func newBaseWriter(backendName string, maxRowsPerBatch int, b backend) *baseWriter {
	return &baseWriter{backendName: backendName, maxRowsPerBatch: maxRowsPerBatch, backend: b}
}

// Insert implements ForwardWriter.Insert in terms of InsertBatch.
func (w *baseWriter) Insert(r BatchReader, filter RowFilter) error {
	for {
		batch, ok, err := r.Next()
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		if err := w.InsertBatch(batch, filter); err != nil {
			return err
		}
	}
}

// InsertBatch implements ForwardWriter.InsertBatch: the first call
// locks the schema (spec §4.5 "Schema locking"); later calls with a
// different schema fail with InvalidArgument. Filtering is applied
// before row-group slicing.
func (w *baseWriter) InsertBatch(batch *RecordBatch, filter RowFilter) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.finalized {
		return fmt.Errorf("storage: InvalidArgument: writer already finalized")
	}
	if err := batch.Validate(); err != nil {
		return fmt.Errorf("storage: InvalidArgument: %w", err)
	}

	if !w.schemaSet {
		w.schema = batch.Schema
		w.schemaSet = true
	} else if !w.schema.Equal(batch.Schema) {
		return fmt.Errorf("storage: InvalidArgument: schema mismatch on insert")
	}

	retained := applyRowFilter(batch, filter)
	return w.writeSliced(retained)
}

// applyRowFilter retains exactly the rows for which filter.Keep(r) is
// true (spec §8.3 property 11), realized via RecordBatch.Take, the
// "structured Take operation per column" spec §4.5 names.
func applyRowFilter(batch *RecordBatch, filter RowFilter) *RecordBatch {
	if filter == nil {
		return batch
	}
	positions := make([]int, 0, batch.NumRows())
	for r := 0; r < batch.NumRows(); r++ {
		if filter.Keep(r) {
			positions = append(positions, r)
		}
	}
	return batch.Take(positions)
}

// writeSliced slices batch into consecutive windows of at most
// maxRowsPerBatch rows (spec §4.5 "Row-group slicing", §8.3 property
// 12), writing each as its own row group via the backend.
func (w *baseWriter) writeSliced(batch *RecordBatch) error {
	n := batch.NumRows()
	if w.maxRowsPerBatch <= 0 || n <= w.maxRowsPerBatch {
		if n == 0 {
			return nil
		}
		if err := w.backend.writeRowGroup(batch); err != nil {
			return err
		}
		observability.RecordWriterRows(w.backendName, n)
		observability.RecordWriterRowGroupFlush(w.backendName)
		return nil
	}
	for start := 0; start < n; start += w.maxRowsPerBatch {
		end := start + w.maxRowsPerBatch
		if end > n {
			end = n
		}
		if err := w.backend.writeRowGroup(batch.Slice(start, end)); err != nil {
			return err
		}
		observability.RecordWriterRows(w.backendName, end-start)
		observability.RecordWriterRowGroupFlush(w.backendName)
	}
	return nil
}

// Finalize implements ForwardWriter.Finalize. A second call is a
// documented no-op (spec §8.3 property 10).
func (w *baseWriter) Finalize() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.finalized {
		return nil
	}
	w.finalized = true
	if w.backend == nil {
		return nil
	}
	return w.backend.close()
}
