package simd

import (
	"fmt"

	"github.com/zvecdb/zvec-core/pkg/observability"
)

// preconditionError wraps and logs a dense-kernel precondition violation.
func preconditionError(format string, args ...interface{}) error {
	err := fmt.Errorf(format, args...)
	observability.Errorf("simd: %v", err)
	return err
}

// validateDense checks the shared dense-kernel preconditions from spec
// §3.2: M/N/dim must be positive, dim must satisfy the element type's
// divisibility requirement, and the stored/query/out slices must be at
// least as large as the interleaved layout requires. Spec §4.1 marks
// these as debug-only checks ("release builds assume caller-validated
// inputs"); this repo checks them unconditionally since Go has no
// separate release-build mode that elides them, and a bounds violation
// here would otherwise panic deep inside the accumulation loop.
func validateDense(storedLen, queryLen, outLen, dim, m, n, divisor int) error {
	if m <= 0 || n <= 0 {
		return preconditionError("%w: m=%d n=%d must be positive", ErrPrecondition, m, n)
	}
	if dim <= 0 {
		return preconditionError("%w: dim=%d must be positive", ErrPrecondition, dim)
	}
	if divisor > 1 && dim%divisor != 0 {
		return preconditionError("%w: dim=%d must be a multiple of %d", ErrPrecondition, dim, divisor)
	}
	if storedLen < dim*m {
		return preconditionError("%w: stored slice has %d elements, need %d", ErrPrecondition, storedLen, dim*m)
	}
	if queryLen < dim*n {
		return preconditionError("%w: query slice has %d elements, need %d", ErrPrecondition, queryLen, dim*n)
	}
	if outLen < m*n {
		return preconditionError("%w: out slice has %d elements, need %d", ErrPrecondition, outLen, m*n)
	}
	return nil
}

// applyOp finalizes one raw inner product, flipping its sign for
// NegIP. Spec §4.1 notes the SIMD form XORs the sign bit with -0.0
// immediately before store to avoid an extra pass; the scalar form here
// is that same single pass.
func applyOp(op Op, v float32) float32 {
	if op == NegIP {
		return -v
	}
	return v
}
