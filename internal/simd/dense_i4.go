package simd

import (
	"time"

	"github.com/zvecdb/zvec-core/pkg/observability"
)

// DenseI4 computes the M×N inner-product matrix for packed signed
// 4-bit integer operands (two values per byte, low nibble first,
// spec §3.1). dim must be a multiple of 8.
//
// The 1×1 shape is computed with the original byte-pair scalar formula
// from spec §4.1 ("I4 FMA semantics"), two dimensions consumed per
// byte of each operand, matching the reference C++ kernel's scalar
// fallback exactly. Every other (M, N) decodes one nibble at a time via
// i4Value, since a packed byte's two nibbles generally belong to two
// different stored/query lanes once M or N exceeds 1, not two
// dimensions of the same vector.
func DenseI4(stored, query []byte, dim, m, n int, out []float32, op Op) error {
	if m <= 0 || n <= 0 {
		return preconditionError("%w: m=%d n=%d must be positive", ErrPrecondition, m, n)
	}
	if dim <= 0 || dim%8 != 0 {
		return preconditionError("%w: dim=%d must be a positive multiple of 8", ErrPrecondition, dim)
	}
	storedNibbles := dim * m
	queryNibbles := dim * n
	if len(stored)*2 < storedNibbles {
		return preconditionError("%w: stored buffer has %d bytes, need at least %d", ErrPrecondition, len(stored), (storedNibbles+1)/2)
	}
	if len(query)*2 < queryNibbles {
		return preconditionError("%w: query buffer has %d bytes, need at least %d", ErrPrecondition, len(query), (queryNibbles+1)/2)
	}
	if len(out) < m*n {
		return preconditionError("%w: out slice has %d elements, need %d", ErrPrecondition, len(out), m*n)
	}
	ensureProbed()
	start := time.Now()

	if m == 1 && n == 1 {
		var acc int32
		for b := 0; b < dim/2; b++ {
			acc += int4PairScore(stored[b], query[b])
		}
		out[0] = applyOp(op, float32(acc))
		observability.RecordKernelInvocation(I4.String(), op.String(), time.Since(start))
		return nil
	}

	for j := 0; j < n; j++ {
		for i := 0; i < m; i++ {
			var acc int32
			for k := 0; k < dim; k++ {
				acc += int32(i4Value(stored, m, k, i)) * int32(i4Value(query, n, k, j))
			}
			out[i+j*m] = applyOp(op, float32(acc))
		}
	}
	observability.RecordKernelInvocation(I4.String(), op.String(), time.Since(start))
	return nil
}
