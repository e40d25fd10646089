package pio

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBigEndianAccessors(t *testing.T) {
	t.Parallel()

	b := []byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08}
	require.Equal(t, uint8(0x01), U8(b))
	require.Equal(t, uint16(0x0102), U16BE(b))
	require.Equal(t, uint32(0x010203), U24BE(b))
	require.Equal(t, uint32(0x01020304), U32BE(b))
	require.Equal(t, uint64(0x0102030405060708), U64BE(b))
	require.Equal(t, uint64(0x0102), UintBE(b, 2))
	require.Equal(t, int16(-1), I16BE([]byte{0xff, 0xff}))
}

func TestPutRoundTrip(t *testing.T) {
	t.Parallel()

	b := make([]byte, 8)
	PutU64BE(b, 0x1122334455667788)
	require.Equal(t, uint64(0x1122334455667788), U64BE(b))

	PutU24BE(b, 0xabcdef)
	require.Equal(t, uint32(0xabcdef), U24BE(b))

	PutUintBE(b, 0x0304, 2)
	require.Equal(t, []byte{0x03, 0x04}, b[:2])
}
