// Package pixelops implements the byte-level differential pre-transform
// kernels: stereo difference, temporal (last-frame) difference, their
// inverses, and the low-resolution proxy sampler. Every kernel operates on
// planar YUV 4:2:0 buffers using wrap-around (modular) 8-bit arithmetic.
package pixelops

// Plane identifies which plane a kernel is operating on, since BIAS differs
// between luma and chroma.
type Plane int

const (
	PlaneY Plane = iota
	PlaneU
	PlaneV
)

// BiasStereo is the constant added after the stereo-difference subtraction
// (bottom - top). It is the same for both I- and P-frame preparation,
// resolving the ambiguity noted in the design notes: different parts of
// the original source used 118/127 for luma and 126/127 for chroma; this
// implementation fixes a single value for both frame kinds and both plane
// groups so encoder and decoder agree unconditionally.
const BiasStereo = 127

// BiasLastFrameY and BiasLastFrameUV are the constants added after the
// temporal-difference subtraction (last - current), per plane group.
const (
	BiasLastFrameY  = 129
	BiasLastFrameUV = 130
)

// biasLastFrame returns the last-frame bias for the given plane.
func biasLastFrame(p Plane) byte {
	if p == PlaneY {
		return BiasLastFrameY
	}
	return BiasLastFrameUV
}
