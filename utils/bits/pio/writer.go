package pio

func PutU8(b []byte, v uint8) {
	b[0] = v
}

func PutU16BE(b []byte, v uint16) {
	b[0] = byte(v >> 8)
	b[1] = byte(v)
}

func PutU24BE(b []byte, v uint32) {
	b[0] = byte(v >> 16)
	b[1] = byte(v >> 8)
	b[2] = byte(v)
}

func PutU32BE(b []byte, v uint32) {
	b[0] = byte(v >> 24)
	b[1] = byte(v >> 16)
	b[2] = byte(v >> 8)
	b[3] = byte(v)
}

func PutU64BE(b []byte, v uint64) {
	PutU32BE(b, uint32(v>>32))
	PutU32BE(b[4:], uint32(v))
}

// PutUintBE writes v as an n-byte (1..8) big-endian unsigned integer.
func PutUintBE(b []byte, v uint64, n int) {
	for k := n - 1; k >= 0; k-- {
		b[k] = byte(v)
		v >>= 8
	}
}
