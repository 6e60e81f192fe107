package simd

import (
	"encoding/binary"
	"fmt"
	"math"
	"time"

	"github.com/zvecdb/zvec-core/pkg/observability"
)

// The intersector rejects, with ErrScratchOverflow, any segment whose
// length on either side exceeds maxSparseScratch (spec §7, §9 "Sparse
// intersection scratch overflow"): 32768 u16 indices, what the original
// kernel's 64 KiB stack buffers hold per side. Matched pairs are summed
// as they are found; no scratch buffer is allocated.

// sparseView is a parsed, read-only overlay on an on-wire sparse vector
// buffer (spec §3.3). It does not copy sparseIndex/sparseValue; both
// alias the backing buffer.
type sparseView struct {
	count        int
	segmentID    []uint32
	segmentVecCt []uint32
	sparseIndex  []uint16
	valueBytes   []byte // raw T stream, elemSize bytes per value
	elemSize     int
}

const sparseHeaderLen = 8 // sparse_count, segment_count

// malformedSparseError wraps and logs an on-wire sparse buffer decode
// failure.
func malformedSparseError(format string, args ...interface{}) error {
	err := fmt.Errorf(format, args...)
	observability.Errorf("simd: %v", err)
	return err
}

// parseSparse decodes an on-wire sparse vector buffer (spec §3.3).
// elemSize is 4 for F32 values, 2 for F16 values.
func parseSparse(buf []byte, elemSize int) (sparseView, error) {
	if len(buf) < sparseHeaderLen {
		return sparseView{}, malformedSparseError("%w: sparse buffer too short for header (%d bytes)", ErrMalformedSparse, len(buf))
	}
	count := binary.LittleEndian.Uint32(buf[0:4])
	segCount := binary.LittleEndian.Uint32(buf[4:8])
	off := sparseHeaderLen

	segIDEnd := off + int(segCount)*4
	if segIDEnd > len(buf) {
		return sparseView{}, malformedSparseError("%w: segment_id array truncated", ErrMalformedSparse)
	}
	segID := make([]uint32, segCount)
	for i := range segID {
		segID[i] = binary.LittleEndian.Uint32(buf[off+i*4:])
	}
	off = segIDEnd

	segCntEnd := off + int(segCount)*4
	if segCntEnd > len(buf) {
		return sparseView{}, malformedSparseError("%w: segment_vec_cnt array truncated", ErrMalformedSparse)
	}
	segVecCnt := make([]uint32, segCount)
	var sum uint64
	for i := range segVecCnt {
		segVecCnt[i] = binary.LittleEndian.Uint32(buf[off+i*4:])
		sum += uint64(segVecCnt[i])
	}
	off = segCntEnd

	if sum != uint64(count) {
		return sparseView{}, malformedSparseError("%w: segment_vec_cnt sums to %d, header count is %d", ErrMalformedSparse, sum, count)
	}
	for i := 1; i < len(segID); i++ {
		if segID[i] <= segID[i-1] {
			return sparseView{}, malformedSparseError("%w: segment_id not strictly ascending at %d", ErrMalformedSparse, i)
		}
	}

	idxEnd := off + int(count)*2
	if idxEnd > len(buf) {
		return sparseView{}, malformedSparseError("%w: sparse_index array truncated", ErrMalformedSparse)
	}
	index := make([]uint16, count)
	for i := range index {
		index[i] = binary.LittleEndian.Uint16(buf[off+i*2:])
	}
	off = idxEnd

	valEnd := off + int(count)*elemSize
	if valEnd > len(buf) {
		return sparseView{}, malformedSparseError("%w: sparse_value array truncated", ErrMalformedSparse)
	}

	return sparseView{
		count:        int(count),
		segmentID:    segID,
		segmentVecCt: segVecCnt,
		sparseIndex:  index,
		valueBytes:   buf[off:valEnd],
		elemSize:     elemSize,
	}, nil
}

func (v sparseView) valueAtF32(i int) float32 {
	if v.elemSize == 4 {
		bits := binary.LittleEndian.Uint32(v.valueBytes[i*4:])
		return math.Float32frombits(bits)
	}
	h := Half(binary.LittleEndian.Uint16(v.valueBytes[i*2:]))
	return h.ToFloat32()
}

// MinusIPF32 computes −Σ over common indices of two on-wire sparse
// vectors whose values are stored as F32 (spec §4.2).
func MinusIPF32(mBuf, qBuf []byte) (float32, error) {
	return minusIP("f32", mBuf, qBuf, 4)
}

// MinusIPF16 computes −Σ over common indices of two on-wire sparse
// vectors whose values are stored as F16 (spec §4.2).
func MinusIPF16(mBuf, qBuf []byte) (float32, error) {
	return minusIP("f16", mBuf, qBuf, 2)
}

func minusIP(element string, mBuf, qBuf []byte, elemSize int) (float32, error) {
	start := time.Now()
	m, err := parseSparse(mBuf, elemSize)
	if err != nil {
		return 0, err
	}
	q, err := parseSparse(qBuf, elemSize)
	if err != nil {
		return 0, err
	}
	if m.count == 0 || q.count == 0 {
		observability.RecordKernelInvocation(element, "minus_ip", time.Since(start))
		return 0.0, nil
	}
	ensureProbed()

	var acc float32
	mSeg, qSeg := 0, 0
	mOff, qOff := 0, 0
	for mSeg < len(m.segmentID) && qSeg < len(q.segmentID) {
		switch {
		case m.segmentID[mSeg] < q.segmentID[qSeg]:
			mOff += int(m.segmentVecCt[mSeg])
			mSeg++
		case m.segmentID[mSeg] > q.segmentID[qSeg]:
			qOff += int(q.segmentVecCt[qSeg])
			qSeg++
		default:
			mLen := int(m.segmentVecCt[mSeg])
			qLen := int(q.segmentVecCt[qSeg])
			partial, err := intersectSegment(m, mOff, mLen, q, qOff, qLen)
			if err != nil {
				return 0, err
			}
			acc += partial
			mOff += mLen
			qOff += qLen
			mSeg++
			qSeg++
		}
	}
	observability.RecordKernelInvocation(element, "minus_ip", time.Since(start))
	return -acc, nil
}

// intersectSegment intersects the intra-segment index runs
// m.sparseIndex[mOff:mOff+mLen] and q.sparseIndex[qOff:qOff+qLen],
// applying the leading-zero peel rule (spec §4.2) before the
// merge-intersection of the remainder. Every specialization (scalar
// here; this repo has no SIMD backend) must produce the identical
// result, per spec §8.1 property 1.
func intersectSegment(m sparseView, mOff, mLen int, q sparseView, qOff, qLen int) (float32, error) {
	if mLen > maxSparseScratch || qLen > maxSparseScratch {
		return 0, malformedSparseError("%w: segment length m=%d q=%d exceeds scratch capacity %d", ErrScratchOverflow, mLen, qLen, maxSparseScratch)
	}

	mi, qi := 0, 0
	var acc float32

	if mLen > 0 && qLen > 0 && m.sparseIndex[mOff] == 0 && q.sparseIndex[qOff] == 0 {
		acc += m.valueAtF32(mOff) * q.valueAtF32(qOff)
		mi, qi = 1, 1
	} else {
		if mLen > 0 && m.sparseIndex[mOff] == 0 {
			mi = 1
		}
		if qLen > 0 && q.sparseIndex[qOff] == 0 {
			qi = 1
		}
	}

	for mi < mLen && qi < qLen {
		mIdx := m.sparseIndex[mOff+mi]
		qIdx := q.sparseIndex[qOff+qi]
		switch {
		case mIdx < qIdx:
			mi++
		case mIdx > qIdx:
			qi++
		default:
			acc += m.valueAtF32(mOff+mi) * q.valueAtF32(qOff+qi)
			mi++
			qi++
		}
	}
	return acc, nil
}
