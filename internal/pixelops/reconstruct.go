package pixelops

// IReconstruct inverts ITransformWithProxy on the decode side: given the
// lossy-reconstructed residual in frame (bottom half still holding
// bottom-top+BiasStereo), it rewrites the bottom half back to true pixel
// values and copies the corrected frame into lastOut.
func IReconstruct(frame []byte, g Geometry, lastOut []byte) {
	for _, pv := range g.planes() {
		top, bottom := g.topBottomRows(pv.rows)
		if bottom == 0 {
			continue
		}
		inverseStereoDiff(frame, pv.offset, pv.width, top, bottom)
	}
	copy(lastOut, frame)
}

// inverseStereoDiff is the inverse of stereoDiff: bottom := bottom -
// BiasStereo + top.
func inverseStereoDiff(buf []byte, offset, width, top, bottom int) {
	topBase := offset
	bottomBase := offset + top*width
	n := bottom * width
	for i := 0; i < n; i++ {
		t := buf[topBase+i]
		b := buf[bottomBase+i]
		buf[bottomBase+i] = b - BiasStereo + t
	}
}

// PReconstruct inverts PTransformWithProxy. frame holds the lossy
// reconstruction of the residual (temporal diff applied to both halves,
// then stereo diff applied to the bottom half only); last holds the
// reference frame from before this frame was applied. Both frame and last
// are updated in place to hold the reconstructed pixel values.
//
// Because the bottom half's stereo-diff inversion needs the top half's
// post-temporal-diff residual (not the already-reconstructed pixel value),
// the top residual is saved to scratch before it is overwritten.
func PReconstruct(frame []byte, last []byte, g Geometry) {
	var scratch []byte

	for i, pv := range g.planes() {
		bias := biasLastFrame(planeOrder[i])
		top, bottom := g.topBottomRows(pv.rows)

		topBase := pv.offset
		topN := top * pv.width

		if bottom > 0 {
			if cap(scratch) < topN {
				scratch = make([]byte, topN)
			}
			scratch = scratch[:topN]
			copy(scratch, frame[topBase:topBase+topN])
		}

		for r := 0; r < topN; r++ {
			l := last[topBase+r]
			f := frame[topBase+r]
			v := l - f + bias
			frame[topBase+r] = v
			last[topBase+r] = v
		}

		if bottom == 0 {
			continue
		}

		bottomBase := pv.offset + top*pv.width
		bottomN := bottom * pv.width
		for r := 0; r < bottomN; r++ {
			residualTop := scratch[r]
			tempBottom := frame[bottomBase+r] - BiasStereo + residualTop
			l := last[bottomBase+r]
			v := l - tempBottom + bias
			frame[bottomBase+r] = v
			last[bottomBase+r] = v
		}
	}
}
