package simd

import (
	"time"

	"github.com/zvecdb/zvec-core/pkg/observability"
)

// DenseF32 computes the M×N inner-product (or negated inner-product)
// matrix between an interleaved stored matrix and an interleaved query
// matrix of 32-bit floats, per spec §4.1.
//
// stored holds M vectors of dim dimensions each, interleaved so that
// element k of vector i is at stored[k*m+i]; query is interleaved
// analogously with stride n. out[i+j*m] receives IP(stored_i, query_j)
// (or its negation for op == NegIP).
//
// This repo carries no per-(M,N) hand-specialized tile code (spec's
// "Combinatorial specialization" design note): every (M, N) pair,
// whether or not it is one of the accelerated grid shapes in Grid, runs
// the same generic triple loop. Dispatch tier selection
// (CurrentTier(F32)) is tracked for observability but does not change
// the reduction order, so results are identical across tiers; see
// DESIGN.md.
func DenseF32(stored, query []float32, dim, m, n int, out []float32, op Op) error {
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
				acc += stored[k*m+i] * qCol[k*n]
			}
			out[i+j*m] = applyOp(op, acc)
		}
	}
	observability.RecordKernelInvocation(F32.String(), op.String(), time.Since(start))
	return nil
}
