package pixelops

// planeOrder maps a plane's position in Geometry.planes() to its Plane, so
// biasLastFrame can pick the per-plane-group (Y vs chroma) last-frame bias;
// BiasStereo is uniform across planes and frame kinds per the fixed
// resolution of the BIAS ambiguity in the design notes.
var planeOrder = [3]Plane{PlaneY, PlaneU, PlaneV}

// ITransformWithProxy implements the I-frame pre-transform: it copies frame
// into lastOut verbatim (with a lossless still coder the reference a
// decoder reconstructs for this frame equals the raw input, since I-frames
// carry no temporal residual),
// samples the proxy from the unmodified top half, then rewrites the bottom
// half of each plane in frame as (bottom - top + BiasStereo).
//
// frame, lastOut and proxyOut must be sized per g.FrameSize() and
// ProxyGeometry(g).FrameSize() respectively.
func ITransformWithProxy(frame []byte, g Geometry, proxyOut, lastOut []byte) {
	copy(lastOut, frame)
	sampleProxy(frame, g, proxyOut)

	for _, pv := range g.planes() {
		top, bottom := g.topBottomRows(pv.rows)
		if bottom == 0 {
			continue
		}
		stereoDiff(frame, pv.offset, pv.width, top, bottom)
	}
}

// stereoDiff rewrites the bottom `bottom` rows of a plane in place as
// (bottom_byte - top_byte + BiasStereo), reading the top half which is
// left untouched.
func stereoDiff(buf []byte, offset, width, top, bottom int) {
	topBase := offset
	bottomBase := offset + top*width
	n := bottom * width
	for i := 0; i < n; i++ {
		t := buf[topBase+i]
		b := buf[bottomBase+i]
		buf[bottomBase+i] = b - t + BiasStereo
	}
}

// PTransformWithProxy implements the P-frame pre-transform. last is the
// encoder/decoder's current reference frame (read-only here; it is updated
// later by PReconstruct once the residual has round-tripped through the
// still coder). The proxy is sampled from frame's original bytes before
// they are overwritten by the temporal difference.
func PTransformWithProxy(last []byte, frame []byte, g Geometry, proxyOut []byte) {
	sampleProxy(frame, g, proxyOut)

	for i, pv := range g.planes() {
		bias := biasLastFrame(planeOrder[i])
		temporalDiff(last, frame, pv.offset, pv.width*pv.rows, bias)
	}

	for _, pv := range g.planes() {
		top, bottom := g.topBottomRows(pv.rows)
		if bottom == 0 {
			continue
		}
		stereoDiff(frame, pv.offset, pv.width, top, bottom)
	}
}

// temporalDiff rewrites frame[offset:offset+n] in place as
// (last[offset+i] - frame[offset+i] + bias) for i in [0, n).
func temporalDiff(last, frame []byte, offset, n int, bias byte) {
	for i := 0; i < n; i++ {
		l := last[offset+i]
		f := frame[offset+i]
		frame[offset+i] = l - f + bias
	}
}
