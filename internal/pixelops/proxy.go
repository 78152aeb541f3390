package pixelops

// blockSize is the tile edge length used both for proxy sampling (in
// plane-native resolution) and, for chroma, corresponds to a 16x16 luma
// block since chroma is subsampled 2x in each dimension.
const blockSize = 8

// intraBlockCol, intraBlockRow select which byte within each 8x8 tile is
// emitted into the proxy. The spec fixes (7, 0): column 7, row 0.
const (
	intraBlockCol = 7
	intraBlockRow = 0
)

// ProxyGeometry returns the dimensions of the low-resolution proxy for a
// given source geometry: 1-in-8 sampling in both dimensions, with an
// additional vertical halving when the source is stereo (the proxy holds
// only the top/left-eye half as a monoscopic thumbnail).
func ProxyGeometry(g Geometry) Geometry {
	h := g.H / blockSize
	if g.Stereo {
		h /= 2
	}
	return Geometry{W: g.W / blockSize, H: h, Stereo: false}
}

// samplePlane tiles the top half of a plane (width and stride `stride`,
// "top" rows rowsTop) into blockSize x blockSize blocks and writes the byte
// at (intraBlockCol, intraBlockRow) of each block into dst, in raster
// order. blockSize is the tile edge length in this plane's own resolution
// for every plane (chroma tiles are 8x8 in chroma samples, i.e. 16x16 in
// luma space).
func samplePlane(src []byte, stride, rowsTop int, dst []byte) {
	blocksX := stride / blockSize
	blocksY := rowsTop / blockSize
	i := 0
	for by := 0; by < blocksY; by++ {
		rowBase := (by*blockSize + intraBlockRow) * stride
		for bx := 0; bx < blocksX; bx++ {
			col := bx*blockSize + intraBlockCol
			dst[i] = src[rowBase+col]
			i++
		}
	}
}

// sampleProxy fills proxyOut (sized per ProxyGeometry(g)) from the top
// (left-eye, or entire if monoscopic) half of each plane of frame.
func sampleProxy(frame []byte, g Geometry, proxyOut []byte) {
	planes := g.planes()
	pg := ProxyGeometry(g)
	py, pu, _ := pg.PlaneSizes()

	offsets := [3]int{0, py, py + pu}

	for i, pv := range planes {
		top, _ := g.topBottomRows(pv.rows)
		src := frame[pv.offset : pv.offset+pv.width*pv.rows]
		dst := proxyOut[offsets[i] : offsets[i]+blocksCount(pv.width, top)]
		samplePlane(src, pv.width, top, dst)
	}
}

func blocksCount(stride, rows int) int {
	return (stride / blockSize) * (rows / blockSize)
}
