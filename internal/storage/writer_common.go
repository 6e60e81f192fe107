package storage

import "github.com/zvecdb/zvec-core/pkg/observability"

// logCloseErr logs a buffered-flush error met while Finalize closes a
// writer's file and records it against backend's finalize-error
// counter. The backend still closes the file and Finalize then returns
// the flush error to its caller.
func logCloseErr(backend, op string, err error) {
	if err == nil {
		return
	}
	observability.Errorf("storage: %s: %v", op, err)
	observability.RecordWriterFinalizeError(backend)
}
