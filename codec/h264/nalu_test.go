package h264

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAnnexBFourByteStartCode(t *testing.T) {
	t.Parallel()

	payload := []byte{0x65, 0x88, 0x84, 0x00, 0x21}
	out, err := AnnexB(payload, EscapeTrailing)
	require.NoError(t, err)
	require.Len(t, out, len(payload)+4)
	require.Equal(t, append([]byte{0, 0, 0, 1}, payload...), out)
}

func TestAnnexBTrailingZeros(t *testing.T) {
	t.Parallel()

	payload := []byte{0x65, 0x88, 0x00, 0x00}
	out, err := AnnexB(payload, EscapeTrailing)
	require.NoError(t, err)
	require.Len(t, out, len(payload)+4)
	require.Equal(t, []byte{0, 0, 1, 0x65, 0x88, 0x00, 0x00, 0x03}, out)
}

func TestAnnexBSingleByte(t *testing.T) {
	t.Parallel()

	out, err := AnnexB([]byte{0x09}, EscapeTrailing)
	require.NoError(t, err)
	require.Equal(t, []byte{0, 0, 0, 1, 0x09}, out)
}

func TestAnnexBDoesNotCopyInput(t *testing.T) {
	t.Parallel()

	payload := []byte{0x41, 0x9a}
	out, err := AnnexB(payload, EscapeTrailing)
	require.NoError(t, err)
	out[4] = 0xff
	require.Equal(t, byte(0x41), payload[0])
}

// Trailing mode only looks at the tail of the payload. Full mode escapes
// every start code prefix inside it, so the two disagree on inner zero runs.
func TestAnnexBModesDiffer(t *testing.T) {
	t.Parallel()

	payload := []byte{0x06, 0x00, 0x00, 0x01, 0x80}

	trailing, err := AnnexB(payload, EscapeTrailing)
	require.NoError(t, err)
	require.Equal(t, []byte{0, 0, 0, 1, 0x06, 0x00, 0x00, 0x01, 0x80}, trailing)

	full, err := AnnexB(payload, EscapeFull)
	require.NoError(t, err)
	require.Equal(t, []byte{0, 0, 0, 1, 0x06, 0x00, 0x00, 0x03, 0x01, 0x80}, full)

	tail := []byte{0x06, 0x10, 0x00, 0x00}
	trailing, err = AnnexB(tail, EscapeTrailing)
	require.NoError(t, err)
	full, err = AnnexB(tail, EscapeFull)
	require.NoError(t, err)
	require.Equal(t, []byte{0, 0, 1, 0x06, 0x10, 0x00, 0x00, 0x03}, trailing)
	require.Equal(t, []byte{0, 0, 0, 1, 0x06, 0x10, 0x00, 0x00, 0x03}, full)
}

func TestAnnexBRejectsBadInput(t *testing.T) {
	t.Parallel()

	_, err := AnnexB(nil, EscapeTrailing)
	require.ErrorIs(t, err, ErrEmptyNALU)

	_, err = AnnexB([]byte{0x85, 0x00}, EscapeTrailing)
	require.ErrorIs(t, err, ErrForbiddenZeroBit)

	_, err = NewNALU([]byte{0xe7}, EscapeFull)
	require.ErrorIs(t, err, ErrForbiddenZeroBit)
}

func TestNewNALUHeader(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		payload []byte
		ref     RefIdc
		typ     NaluType
	}{
		{name: "sps", payload: testSPS, ref: RefIdcHighest, typ: NaluSPS},
		{name: "pps", payload: testPPS, ref: RefIdcHighest, typ: NaluPPS},
		{name: "idr", payload: []byte{0x65, 0x88}, ref: RefIdcHighest, typ: NaluCodedIDR},
		{name: "slice", payload: []byte{0x41, 0x9a}, ref: RefIdcHigh, typ: NaluSlice},
		{name: "disposable", payload: []byte{0x01, 0x9e}, ref: RefIdcDisposable, typ: NaluSlice},
		{name: "sei", payload: []byte{0x06, 0x05}, ref: RefIdcDisposable, typ: NaluSEI},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			nalu, err := NewNALU(tt.payload, EscapeTrailing)
			require.NoError(t, err)
			require.Zero(t, nalu.ForbiddenZeroBit)
			require.Equal(t, tt.ref, nalu.RefIdc)
			require.Equal(t, tt.typ, nalu.Type)
			require.Equal(t, append([]byte{0, 0, 0, 1}, tt.payload...), nalu.Framed)
		})
	}
}

func TestNaluTypeStrings(t *testing.T) {
	t.Parallel()

	require.Equal(t, "IDR", NaluCodedIDR.String())
	require.Equal(t, "Reserved(20)", NaluType(20).String())
	require.Equal(t, "HIGHEST", RefIdcHighest.String())
	require.True(t, NaluCodedIDR.IsVCL())
	require.False(t, NaluSPS.IsVCL())
}

func TestParseEscapeMode(t *testing.T) {
	t.Parallel()

	m, err := ParseEscapeMode("full")
	require.NoError(t, err)
	require.Equal(t, EscapeFull, m)

	m, err = ParseEscapeMode("")
	require.NoError(t, err)
	require.Equal(t, EscapeTrailing, m)

	_, err = ParseEscapeMode("none")
	require.Error(t, err)
}
