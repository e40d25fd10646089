package vpx

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseConfigVersion1(t *testing.T) {
	t.Parallel()

	b := []byte{
		1, 0, 0, 0, // version, flags
		0x00, // profile
		0x0a, // level
		0x80 | 0x02 | 0x01,
		0x01, 0x01, 0x01,
		0x00, 0x00,
	}
	cfg, err := ParseConfig(b)
	require.NoError(t, err)
	require.Equal(t, uint8(1), cfg.Version)
	require.Equal(t, uint8(10), cfg.Level)
	require.Equal(t, uint8(8), cfg.BitDepth)
	require.Equal(t, uint8(1), cfg.ChromaSubsampling)
	require.True(t, cfg.VideoFullRange)
	require.Equal(t, uint8(1), cfg.ColourPrimaries)
	require.Nil(t, cfg.CodecInit)
	require.Equal(t, "vp09.00.10.08", cfg.CodecString("vp09"))
}

func TestParseConfigVersion0(t *testing.T) {
	t.Parallel()

	b := []byte{
		0, 0, 0, 0,
		0x02, 0x1f,
		0xa2, 0x14,
		0x00, 0x02, 0xaa, 0xbb,
	}
	cfg, err := ParseConfig(b)
	require.NoError(t, err)
	require.Equal(t, uint8(2), cfg.Profile)
	require.Equal(t, uint8(10), cfg.BitDepth)
	require.Equal(t, uint8(2), cfg.ColorSpace)
	require.Equal(t, uint8(1), cfg.ChromaSubsampling)
	require.Equal(t, uint8(2), cfg.TransferCharacteristics)
	require.False(t, cfg.VideoFullRange)
	require.Equal(t, []byte{0xaa, 0xbb}, cfg.CodecInit)
}

func TestParseConfigErrors(t *testing.T) {
	t.Parallel()

	_, err := ParseConfig([]byte{1, 0, 0, 0})
	require.ErrorIs(t, err, ErrConfigInvalid)

	_, err = ParseConfig([]byte{2, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0})
	require.ErrorIs(t, err, ErrConfigInvalid)

	_, err = ParseConfig([]byte{1, 0, 0, 0, 0, 0, 0x80, 1, 1, 1, 0x00, 0x04, 0xaa})
	require.ErrorIs(t, err, ErrConfigInvalid)
}
