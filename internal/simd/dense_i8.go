package simd

import (
	"time"

	"github.com/zvecdb/zvec-core/pkg/observability"
)

// DenseI8 computes the M×N inner-product matrix for signed 8-bit
// integer operands, accumulating in 32-bit so the result is exact
// (spec §8.1 property 1: integer paths are bit-identical across tiers).
// dim must be a multiple of 4 (spec §3.2).
func DenseI8(stored, query []int8, dim, m, n int, out []float32, op Op) error {
	if err := validateDense(len(stored), len(query), len(out), dim, m, n, 4); err != nil {
		return err
	}
	ensureProbed()
	start := time.Now()

	for j := 0; j < n; j++ {
		qCol := query[j:]
		for i := 0; i < m; i++ {
			var acc int32
			for k := 0; k < dim; k++ {
				acc += int32(stored[k*m+i]) * int32(qCol[k*n])
			}
			out[i+j*m] = applyOp(op, float32(acc))
		}
	}
	observability.RecordKernelInvocation(I8.String(), op.String(), time.Since(start))
	return nil
}
