package simd

import (
	"time"

	"github.com/zvecdb/zvec-core/pkg/observability"
)

// DenseF16 computes the M×N inner-product matrix for half-precision
// operands. Per spec §4.1 "F16 semantics", without AVX-512FP16 the
// operands are upcast to float32 and accumulated in 32-bit; that is the
// only path this repo implements (no AVX-512FP16 backend), which also
// sidesteps the signed-zero/NaN discrepancy spec §9 calls out between
// the fused-half and upcast-then-negate tiers.
func DenseF16(stored, query []Half, dim, m, n int, out []float32, op Op) error {
	if err := validateDense(len(stored), len(query), len(out), dim, m, n, 1); err != nil {
		return err
	}
	ensureProbed()
	start := time.Now()

	for j := 0; j < n; j++ {
		qCol := query[j:]
		for i := 0; i < m; i++ {
			var acc float32
			for k := 0; k < dim; k++ {
				acc += stored[k*m+i].ToFloat32() * qCol[k*n].ToFloat32()
			}
			out[i+j*m] = applyOp(op, acc)
		}
	}
	observability.RecordKernelInvocation(F16.String(), op.String(), time.Since(start))
	return nil
}
