package pixelops

// Kernel table. Mirrors the function-variable dispatch pattern used to
// select between portable and SIMD-accelerated kernels: call sites always
// go through these variables, so a future architecture-specific build can
// replace individual entries in an alternate Init() without touching
// Encoder/Decoder.
var (
	TransformI    func(frame []byte, g Geometry, proxyOut, lastOut []byte)
	TransformP    func(last, frame []byte, g Geometry, proxyOut []byte)
	ReconstructI  func(frame []byte, g Geometry, lastOut []byte)
	ReconstructP  func(frame, last []byte, g Geometry)
)

func init() {
	Init()
}

// Init (re-)populates the kernel dispatch table with the portable
// implementations. Exported so a build that registers accelerated kernels
// can call it first and then overwrite individual entries.
func Init() {
	TransformI = ITransformWithProxy
	TransformP = PTransformWithProxy
	ReconstructI = IReconstruct
	ReconstructP = PReconstruct
}
