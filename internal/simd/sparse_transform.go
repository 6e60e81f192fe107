package simd

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/zvecdb/zvec-core/pkg/observability"
)

// TransformF32 converts an external sparse vector (parallel arrays of
// ascending 32-bit indices and F32 values) into the on-wire segmented
// layout of spec §3.3. indices must be strictly ascending; a run sharing
// the same high-16 bits forms one segment (spec §4.3).
func TransformF32(indices []uint32, values []float32) ([]byte, error) {
	return transform(indices, func(buf []byte, i int) {
		binary.LittleEndian.PutUint32(buf, math.Float32bits(values[i]))
	}, 4)
}

// TransformF16 converts an external sparse vector whose values are
// already encoded as Half into the on-wire segmented layout.
func TransformF16(indices []uint32, values []Half) ([]byte, error) {
	return transform(indices, func(buf []byte, i int) {
		binary.LittleEndian.PutUint16(buf, uint16(values[i]))
	}, 2)
}

// transform implements spec §4.3's walk-and-segment algorithm. writeValue
// encodes values[i] into buf (len == elemSize).
func transform(indices []uint32, writeValue func(buf []byte, i int), elemSize int) ([]byte, error) {
	count := len(indices)
	if count == 0 {
		out := make([]byte, sparseHeaderLen)
		return out, nil
	}

	segmentID := make([]uint32, 0, count)
	segmentVecCnt := make([]uint32, 0, count)

	curHigh := indices[0] >> 16
	segmentID = append(segmentID, curHigh)
	segmentVecCnt = append(segmentVecCnt, 0)
	for i, idx := range indices {
		high := idx >> 16
		switch {
		case high == curHigh:
			if i > 0 && idx <= indices[i-1] {
				observability.Errorf("simd: index %d at position %d is not greater than the previous index %d", idx, i, indices[i-1])
				return nil, fmt.Errorf("%w: index %d at position %d is not greater than the previous index %d", ErrMalformedSparse, idx, i, indices[i-1])
			}
		case high > curHigh:
			curHigh = high
			segmentID = append(segmentID, curHigh)
			segmentVecCnt = append(segmentVecCnt, 0)
		default:
			observability.Errorf("simd: index %d at position %d decreases segment id from %d to %d", idx, i, curHigh, high)
			return nil, fmt.Errorf("%w: index %d at position %d decreases segment id from %d to %d", ErrMalformedSparse, idx, i, curHigh, high)
		}
		segmentVecCnt[len(segmentVecCnt)-1]++
	}

	segCount := len(segmentID)
	size := 2*4 + 2*4*segCount + 2*count + elemSize*count
	out := make([]byte, size)

	binary.LittleEndian.PutUint32(out[0:4], uint32(count))
	binary.LittleEndian.PutUint32(out[4:8], uint32(segCount))

	off := sparseHeaderLen
	for _, id := range segmentID {
		binary.LittleEndian.PutUint32(out[off:], id)
		off += 4
	}
	for _, c := range segmentVecCnt {
		binary.LittleEndian.PutUint32(out[off:], c)
		off += 4
	}
	for _, idx := range indices {
		binary.LittleEndian.PutUint16(out[off:], uint16(idx&0xFFFF))
		off += 2
	}
	for i := range indices {
		writeValue(out[off:off+elemSize], i)
		off += elemSize
	}

	return out, nil
}
