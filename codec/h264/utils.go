package h264

// Common magic numbers used in the package
const (
	configurationVersion = 1

	// Bit masks
	maskLengthSizeMinusOne    = 0x03
	maskSPSCount              = 0x1f
	maskLengthSizeMinusOneInv = 0xfc
	maskSPSCountInv           = 0xe0

	maskForbiddenZeroBit = 0x80
	maskRefIdc           = 0x60
	maskNaluType         = 0x1f
	shiftRefIdc          = 5
	shiftForbiddenBit    = 7

	// Length field size in AVCDecoderConfRecord
	lengthFieldSize = 2

	// escape is the emulation prevention byte.
	escape = 0x03
)

var (
	startCode3 = []byte{0x00, 0x00, 0x01}
	startCode4 = []byte{0x00, 0x00, 0x00, 0x01}
)
