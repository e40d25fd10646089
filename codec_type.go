package mp4annexb

// VideoCodec represents the type of a video codec carried by a track.
type VideoCodec uint32

// avCodecTypeMagic is a magic number used to create unique codec types.
const avCodecTypeMagic = 233333

// makeVideoCodecType creates a VideoCodec based on the provided base.
func makeVideoCodecType(base uint32) (c VideoCodec) {
	c = VideoCodec(base) << codecTypeOtherBits
	return
}

// variables representing specific codec types.
var (
	H264 = makeVideoCodecType(avCodecTypeMagic + 1) //nolint:mnd
	VP8  = makeVideoCodecType(avCodecTypeMagic + 4) //nolint:mnd
	VP9  = makeVideoCodecType(avCodecTypeMagic + 5) //nolint:mnd
	VP10 = makeVideoCodecType(avCodecTypeMagic + 8) //nolint:mnd
)

const codecTypeOtherBits = 1

// String returns the human-readable string representation of a VideoCodec.
func (ct VideoCodec) String() string {
	switch ct {
	case H264:
		return "H264"
	case VP8:
		return "VP8"
	case VP9:
		return "VP9"
	case VP10:
		return "VP10"
	}
	return "UNKNOWN"
}

// IsVPx reports whether the codec belongs to the VP8/VP9/VP10 family.
func (ct VideoCodec) IsVPx() bool {
	return ct == VP8 || ct == VP9 || ct == VP10
}
