package simd

import (
	"math"
	"testing"
)

func TestHalfRoundTrip(t *testing.T) {
	values := []float32{0, 1, -1, 0.5, -0.5, 2.25, 100, -100, 65504}
	for _, v := range values {
		h := HalfFromFloat32(v)
		got := h.ToFloat32()
		if got != v {
			t.Errorf("round trip %v -> %v (half bits %#04x)", v, got, uint16(h))
		}
	}
}

func TestHalfZero(t *testing.T) {
	if HalfFromFloat32(0).ToFloat32() != 0 {
		t.Error("expected +0 to round-trip as 0")
	}
	neg := HalfFromFloat32(float32(math.Copysign(0, -1)))
	if math.Signbit(float64(neg.ToFloat32())) != true {
		t.Error("expected -0 to preserve its sign bit")
	}
}

func TestHalfInfinity(t *testing.T) {
	inf := HalfFromFloat32(float32(math.Inf(1)))
	if !math.IsInf(float64(inf.ToFloat32()), 1) {
		t.Error("expected +Inf to narrow to +Inf")
	}
	negInf := HalfFromFloat32(float32(math.Inf(-1)))
	if !math.IsInf(float64(negInf.ToFloat32()), -1) {
		t.Error("expected -Inf to narrow to -Inf")
	}
}

func TestHalfNaN(t *testing.T) {
	nan := HalfFromFloat32(float32(math.NaN()))
	if !nan.IsNaN() {
		t.Error("expected NaN input to produce a half NaN")
	}
	if !math.IsNaN(float64(nan.ToFloat32())) {
		t.Error("expected half NaN to widen back to a NaN")
	}
}

func TestHalfDenormal(t *testing.T) {
	// Smallest positive half denormal is 2^-24.
	smallest := float32(1.0 / (1 << 24))
	h := HalfFromFloat32(smallest)
	if h.ToFloat32() != smallest {
		t.Errorf("expected smallest denormal to round-trip, got %v", h.ToFloat32())
	}
}
