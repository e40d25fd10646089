package mp4

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/ugparu/mp4annexb"
	"github.com/ugparu/mp4annexb/utils/nal"
)

func TestReadUnits(t *testing.T) {
	t.Parallel()

	units := [][]byte{{0x65, 0x88, 0x84}, {0x41, 0x9a}}
	sample := nal.JoinAVCC(units[:1], 4)
	sample = append(sample, 0, 0, 0, 0) // empty unit
	sample = append(sample, nal.JoinAVCC(units[1:], 4)...)

	src := append(bytes.Repeat([]byte{0xff}, 10), sample...)
	src = append(src, 0xee, 0xee)
	s := mp4annexb.Sample{Offset: 10, Size: uint32(len(sample))} //nolint:gosec

	got, err := ReadUnits(bytes.NewReader(src), s, 4)
	require.NoError(t, err)
	require.Equal(t, units, got)
}

func TestReadUnitsLengthSize(t *testing.T) {
	t.Parallel()

	units := [][]byte{{0x67, 0x42}, {0x68, 0xce}, {0x65, 0x00, 0x01}}
	for _, size := range []int{1, 2, 3, 4} {
		sample := nal.JoinAVCC(units, size)
		got, err := ReadUnits(bytes.NewReader(sample), mp4annexb.Sample{Size: uint32(len(sample))}, size) //nolint:gosec
		require.NoError(t, err, "length size %d", size)
		require.Equal(t, units, got, "length size %d", size)
	}

	_, err := ReadUnits(bytes.NewReader(nil), mp4annexb.Sample{}, 5)
	require.Error(t, err)
}

func TestUnitReaderRestartsPerSample(t *testing.T) {
	t.Parallel()

	sample := nal.JoinAVCC([][]byte{{0x65, 0x01}, {0x65, 0x02}}, 4)
	rs := bytes.NewReader(sample)
	s := mp4annexb.Sample{Size: uint32(len(sample))} //nolint:gosec

	first, err := NewUnitReader(rs, s, 0)
	require.NoError(t, err)
	require.True(t, first.Next())
	require.Equal(t, []byte{0x65, 0x01}, first.Unit())

	second, err := NewUnitReader(rs, s, 0)
	require.NoError(t, err)
	require.True(t, second.Next())
	require.Equal(t, []byte{0x65, 0x01}, second.Unit())
	require.True(t, second.Next())
	require.Equal(t, []byte{0x65, 0x02}, second.Unit())
	require.False(t, second.Next())
	require.NoError(t, second.Err())
}

func TestReadUnitsErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		src  []byte
		size uint32
		want error
	}{
		{"unit past sample", []byte{0, 0, 0, 100, 1, 2, 3, 4}, 8, ErrUnitOverrun},
		{"length field past sample", []byte{0, 0, 0, 1, 0x65, 0, 0}, 7, ErrUnitOverrun},
		{"source ends in payload", []byte{0, 0, 0, 16, 1, 2, 3, 4}, 20, ErrSourceExhausted},
		{"source ends in length", []byte{0, 0}, 8, ErrSourceExhausted},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := ReadUnits(bytes.NewReader(tt.src), mp4annexb.Sample{Size: tt.size}, 4)
			require.ErrorIs(t, err, tt.want)
		})
	}
}
