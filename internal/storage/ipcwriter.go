package storage

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"os"
)

// IPCWriter is the IPC-style ForwardWriter backend: each row group is
// written as one length-prefixed framed batch, in the order schema
// then columns (spec §4.5, §6.4 "IPC file with batch-size cap").
// Schemas are preserved verbatim across the stream by writing the
// field list once, in the first frame, and relying on every later
// frame being validated against the locked schema before it reaches
// the backend.
type IPCWriter struct {
	*baseWriter
	file        *os.File
	w           *bufio.Writer
	wroteSchema bool
}

// NewIPCWriter creates an IPCWriter. The file is created exclusively;
// pass overwrite=true to truncate an existing file instead (spec §4.5
// "Resource discipline": "existing files are overwritten only if
// explicitly requested").
func NewIPCWriter(path string, maxRowsPerBatch int, overwrite bool) (*IPCWriter, error) {
	flags := os.O_WRONLY | os.O_CREATE | os.O_EXCL
	if overwrite {
		flags = os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	}
	f, err := os.OpenFile(path, flags, 0644)
	if err != nil {
		return nil, fmt.Errorf("storage: IO: opening IPC file %q: %w", path, err)
	}
	iw := &IPCWriter{file: f, w: bufio.NewWriter(f)}
	iw.baseWriter = newBaseWriter("ipc", maxRowsPerBatch, iw)
	return iw, nil
}

func (iw *IPCWriter) writeRowGroup(batch *RecordBatch) error {
	if !iw.wroteSchema {
		if err := writeSchema(iw.w, batch.Schema); err != nil {
			return err
		}
		iw.wroteSchema = true
	}
	return writeBatchFrame(iw.w, batch)
}

func (iw *IPCWriter) close() error {
	flushErr := iw.w.Flush()
	if flushErr != nil {
		logCloseErr("ipc", "ipcwriter: flush", flushErr)
	}
	if err := iw.file.Close(); err != nil {
		return err
	}
	return flushErr
}

func writeSchema(w *bufio.Writer, schema Schema) error {
	if err := binary.Write(w, binary.LittleEndian, uint32(len(schema.Fields))); err != nil {
		return err
	}
	for _, f := range schema.Fields {
		if err := writeString(w, f.Name); err != nil {
			return err
		}
		if err := binary.Write(w, binary.LittleEndian, uint32(f.Type)); err != nil {
			return err
		}
	}
	return nil
}

func writeString(w *bufio.Writer, s string) error {
	if err := binary.Write(w, binary.LittleEndian, uint32(len(s))); err != nil {
		return err
	}
	_, err := w.WriteString(s)
	return err
}

// writeBatchFrame writes one length-prefixed frame: row count, then
// one column block per schema field, in schema order.
func writeBatchFrame(w *bufio.Writer, batch *RecordBatch) error {
	if err := binary.Write(w, binary.LittleEndian, uint64(batch.NumRows())); err != nil {
		return err
	}
	for _, col := range batch.Columns {
		if err := writeColumn(w, col); err != nil {
			return err
		}
	}
	return nil
}

func writeColumn(w *bufio.Writer, col *Column) error {
	switch col.Type {
	case ColUint64:
		for _, v := range col.Uint64s {
			if err := binary.Write(w, binary.LittleEndian, v); err != nil {
				return err
			}
		}
	case ColBool:
		for _, v := range col.Bools {
			b := byte(0)
			if v {
				b = 1
			}
			if err := w.WriteByte(b); err != nil {
				return err
			}
		}
	case ColBinary:
		for _, v := range col.Binaries {
			if err := writeNullableBytes(w, v); err != nil {
				return err
			}
		}
	case ColStruct:
		for _, v := range col.Structs {
			if err := writeNullableBytes(w, v.Indices); err != nil {
				return err
			}
			if err := writeNullableBytes(w, v.Values); err != nil {
				return err
			}
		}
	}
	return nil
}

// writeNullableBytes writes a length-prefixed byte string, with a
// length of 0xFFFFFFFF reserved as the null sentinel (spec §4.4 "null
// for rows whose dense vector buffer is empty").
func writeNullableBytes(w *bufio.Writer, b []byte) error {
	if b == nil {
		return binary.Write(w, binary.LittleEndian, uint32(0xFFFFFFFF))
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(len(b))); err != nil {
		return err
	}
	_, err := w.Write(b)
	return err
}
