package simd

import (
	"os"
	"sync"

	"golang.org/x/sys/cpu"

	"github.com/zvecdb/zvec-core/pkg/observability"
)

// Tier names the widest CPU feature set a kernel implementation targets.
// Every tier computes the identical left-to-right reduction over k in
// [0, dim) so that results are bit-identical across tiers for integer
// element types, and agree exactly (not merely within tolerance) for
// float types too; this repo has no assembly backend per tier (see
// DESIGN.md), so "tier" here records which feature set a host offers
// rather than selecting a distinct reduction tree.
type Tier int

const (
	TierScalar Tier = iota
	TierSSE41
	TierAVX
	TierAVX2
	TierAVX512F
	TierAVX512FP16
	TierNEON
)

func (t Tier) String() string {
	switch t {
	case TierScalar:
		return "scalar"
	case TierSSE41:
		return "sse4.1"
	case TierAVX:
		return "avx"
	case TierAVX2:
		return "avx2"
	case TierAVX512F:
		return "avx512f"
	case TierAVX512FP16:
		return "avx512fp16"
	case TierNEON:
		return "neon"
	default:
		return "unknown"
	}
}

var (
	dispatchOnce sync.Once

	tierF32  Tier
	tierF16  Tier
	tierI8   Tier
	tierI4   Tier
	tierSparse Tier
)

// ForceScalarEnv, when set to "1" or "true", disables feature probing and pins
// every dispatch table to the scalar tier. Mirrors the teacher corpus's
// environment-variable escape hatches (pkg/config.LoadFromEnv) and the
// go-highway NoSimdEnv() pattern used for reproducible benchmarking.
const ForceScalarEnv = "ZVEC_SIMD_FORCE_SCALAR"

// ensureProbed populates the process-wide dispatch tables exactly once,
// on first use. Per spec §5 "Global dispatch state", this never
// re-probes: a process that migrates CPUs (e.g. a VM live-migration)
// keeps the tier chosen at first access for its whole lifetime.
func ensureProbed() {
	dispatchOnce.Do(probe)
}

func probe() {
	if v := os.Getenv(ForceScalarEnv); v == "1" || v == "true" {
		setScalar()
	} else {
		probeArch()
	}
	recordDispatch()
}

func setScalar() {
	tierF32, tierF16, tierI8, tierI4, tierSparse = TierScalar, TierScalar, TierScalar, TierScalar, TierScalar
}

// recordDispatch surfaces the tiers probe() just selected: once per
// process, as a gauge per element (pkg/observability) and a single
// summary log line.
func recordDispatch() {
	observability.SetKernelTier("f32", tierF32.String())
	observability.SetKernelTier("f16", tierF16.String())
	observability.SetKernelTier("i8", tierI8.String())
	observability.SetKernelTier("i4", tierI4.String())
	observability.SetKernelTier("sparse", tierSparse.String())
	observability.Infof("simd: dispatch tiers selected f32=%s f16=%s i8=%s i4=%s sparse=%s",
		tierF32, tierF16, tierI8, tierI4, tierSparse)
}

// probeArch performs the GOARCH-specific feature-priority selection; it
// is defined once per build in dispatch_amd64.go / dispatch_arm64.go /
// dispatch_generic.go (mutually exclusive build tags).

// CurrentTier reports the dispatch tier chosen for an element type's
// dense kernel. Exposed for observability (pkg/observability) and tests.
func CurrentTier(et ElementType) Tier {
	ensureProbed()
	switch et {
	case F32:
		return tierF32
	case F16:
		return tierF16
	case I8:
		return tierI8
	case I4:
		return tierI4
	default:
		return TierScalar
	}
}

// CurrentSparseTier reports the dispatch tier chosen for the sparse
// intersection kernel.
func CurrentSparseTier() Tier {
	ensureProbed()
	return tierSparse
}

// cpuHasAVX2, cpuHasAVX512F etc. are thin wrappers over x/sys/cpu so the
// priority tables in dispatch_amd64.go read close to spec §4.1's
// priority(...) lists.
var (
	cpuHasSSE41     = func() bool { return cpu.X86.HasSSE41 }
	cpuHasAVX       = func() bool { return cpu.X86.HasAVX }
	cpuHasAVX2      = func() bool { return cpu.X86.HasAVX2 }
	cpuHasFMA       = func() bool { return cpu.X86.HasFMA }
	cpuHasAVX512F   = func() bool { return cpu.X86.HasAVX512F }
	cpuHasF16C      = func() bool { return cpu.X86.HasAVX && cpu.X86.HasFMA }
	cpuHasAVX512FP16 = func() bool { return false } // not exposed by x/sys/cpu yet
)
