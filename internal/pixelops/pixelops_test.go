package pixelops

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func fill(size int, v byte) []byte {
	b := make([]byte, size)
	for i := range b {
		b[i] = v
	}
	return b
}

// TestProxyDimensions covers testable property 5: for every frame, the
// proxy byte count equals (W/8)*(H/8)*3/2, halved vertically when stereo.
func TestProxyDimensions(t *testing.T) {
	g := Geometry{W: 64, H: 64, Stereo: true}
	pg := ProxyGeometry(g)
	if pg.W != 8 || pg.H != 4 {
		t.Fatalf("ProxyGeometry = %+v, want W=8 H=4", pg)
	}
	if got, want := pg.FrameSize(), 48; got != want {
		t.Fatalf("proxy frame size = %d, want %d", got, want)
	}
}

// TestS1_IdentityRoundTrip covers S1: a single I-frame, all bytes 0x80,
// round-trips byte for byte through transform+reconstruct (standing in for
// an identity still coder).
func TestS1_IdentityRoundTrip(t *testing.T) {
	g := Geometry{W: 64, H: 64, Stereo: true}
	src := fill(g.FrameSize(), 0x80)
	orig := append([]byte(nil), src...)

	proxy := make([]byte, ProxyGeometry(g).FrameSize())
	last := make([]byte, g.FrameSize())

	ITransformWithProxy(src, g, proxy, last)
	// Identity still coder: src is unchanged by "compression".
	IReconstruct(src, g, last)

	if diff := cmp.Diff(orig, src); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(orig, last); diff != "" {
		t.Fatalf("last_frame mismatch (-want +got):\n%s", diff)
	}
}

// TestS2_PFrameDelta covers S2: frame 0 all 0x40, frame 1 all 0x41;
// frame 1's residual luma top half after P_transform equals
// (0x40 - 0x41 + BiasLastFrameY) mod 256, and the identity-coder round
// trip reproduces frame 1 exactly.
func TestS2_PFrameDelta(t *testing.T) {
	g := Geometry{W: 64, H: 64, Stereo: true}

	last := fill(g.FrameSize(), 0x40)
	frame1 := fill(g.FrameSize(), 0x41)
	origFrame1 := append([]byte(nil), frame1...)

	proxy := make([]byte, ProxyGeometry(g).FrameSize())
	PTransformWithProxy(last, frame1, g, proxy)

	want := byte(0x40 - 0x41 + BiasLastFrameY)
	if got := frame1[0]; got != want {
		t.Fatalf("residual luma top-half byte = 0x%02x, want 0x%02x", got, want)
	}

	// Identity still coder: frame1 (residual) is unchanged by "compression".
	PReconstruct(frame1, last, g)

	if diff := cmp.Diff(origFrame1, frame1); diff != "" {
		t.Fatalf("P-frame round trip mismatch (-want +got):\n%s", diff)
	}
}

// TestS3_StereoDiffIsolation covers S3: top half of luma 0x60, bottom half
// 0x68; after I_transform, bottom equals (0x68-0x60+BiasStereo) mod 256
// and top is unchanged.
//
// Note: the distilled spec's literal worked example used BIAS_stereo=118
// for this computation, but Open Question 1 fixes a single BIAS_stereo=127
// for both I- and P-frames; this test checks the formula against that
// fixed constant rather than the stale literal.
func TestS3_StereoDiffIsolation(t *testing.T) {
	g := Geometry{W: 64, H: 64, Stereo: true}
	frame := make([]byte, g.FrameSize())
	lumaSize := g.W * g.H
	for i := 0; i < lumaSize/2; i++ {
		frame[i] = 0x60
	}
	for i := lumaSize / 2; i < lumaSize; i++ {
		frame[i] = 0x68
	}

	proxy := make([]byte, ProxyGeometry(g).FrameSize())
	last := make([]byte, g.FrameSize())
	ITransformWithProxy(frame, g, proxy, last)

	want := byte(0x68 - 0x60 + BiasStereo)
	if got := frame[lumaSize/2]; got != want {
		t.Fatalf("bottom luma byte = 0x%02x, want 0x%02x", got, want)
	}
	if got := frame[0]; got != 0x60 {
		t.Fatalf("top luma byte mutated: got 0x%02x, want 0x60", got)
	}
}

// TestMonoscopicSkipsStereoDiff checks that a non-stereo geometry leaves
// the transform a pure identity-proxy emission with no stereo step.
func TestMonoscopicSkipsStereoDiff(t *testing.T) {
	g := Geometry{W: 64, H: 64, Stereo: false}
	src := fill(g.FrameSize(), 0x55)
	orig := append([]byte(nil), src...)
	proxy := make([]byte, ProxyGeometry(g).FrameSize())
	last := make([]byte, g.FrameSize())

	ITransformWithProxy(src, g, proxy, last)

	if diff := cmp.Diff(orig, src); diff != "" {
		t.Fatalf("monoscopic I-transform should not touch pixel data (-want +got):\n%s", diff)
	}
}

func TestDispatchTableIsPopulated(t *testing.T) {
	if TransformI == nil || TransformP == nil || ReconstructI == nil || ReconstructP == nil {
		t.Fatal("pixelops dispatch table has nil entries after init")
	}
}
