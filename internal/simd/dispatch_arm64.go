//go:build arm64

package simd

import "golang.org/x/sys/cpu"

// probeArch selects NEON for every dense element type on arm64. The
// priority tables in spec §4.1 only name NEON as an aarch64 alternative
// (no AVX-family tier applies); FP16 arithmetic support is probed via
// x/sys/cpu's ARM64.HasFPHP/HasASIMDHP flags.
func probeArch() {
	if !cpu.ARM64.HasASIMD {
		setScalar()
		return
	}

	tierF32 = TierNEON
	tierI8 = TierNEON
	tierI4 = TierNEON
	tierSparse = TierNEON

	if cpu.ARM64.HasFPHP || cpu.ARM64.HasASIMDHP {
		tierF16 = TierNEON
	} else {
		tierF16 = TierScalar
	}
}
