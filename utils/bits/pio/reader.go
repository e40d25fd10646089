// Package pio provides big-endian integer accessors over byte slices.
package pio

func U8(b []byte) (i uint8) {
	return b[0]
}

func U16BE(b []byte) (i uint16) {
	i = uint16(b[0])
	i <<= 8
	i |= uint16(b[1])
	return
}

func I16BE(b []byte) (i int16) {
	return int16(U16BE(b)) //nolint:gosec
}

func U24BE(b []byte) (i uint32) {
	i = uint32(b[0])
	i <<= 8
	i |= uint32(b[1])
	i <<= 8
	i |= uint32(b[2])
	return
}

func U32BE(b []byte) (i uint32) {
	i = uint32(b[0])
	i <<= 8
	i |= uint32(b[1])
	i <<= 8
	i |= uint32(b[2])
	i <<= 8
	i |= uint32(b[3])
	return
}

func I32BE(b []byte) (i int32) {
	return int32(U32BE(b)) //nolint:gosec
}

func U64BE(b []byte) (i uint64) {
	i = uint64(U32BE(b))
	i <<= 32
	i |= uint64(U32BE(b[4:]))
	return
}

func I64BE(b []byte) (i int64) {
	return int64(U64BE(b)) //nolint:gosec
}

// UintBE reads an n-byte (1..8) big-endian unsigned integer.
func UintBE(b []byte, n int) (i uint64) {
	for k := range n {
		i <<= 8
		i |= uint64(b[k])
	}
	return
}
