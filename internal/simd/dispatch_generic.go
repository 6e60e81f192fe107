//go:build !amd64 && !arm64

package simd

// probeArch is the portable fallback for architectures with no
// specialized tier in this repo (spec §4.1's scalar path "is always
// present").
func probeArch() {
	setScalar()
}
