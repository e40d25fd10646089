package mp4

import (
	"errors"
	"fmt"
	"io"

	"github.com/ugparu/mp4annexb"
	"github.com/ugparu/mp4annexb/utils/bits/pio"
)

const defaultLengthSize = 4

// UnitReader yields the length-prefixed NAL units of one sample, read
// straight from the byte source.
type UnitReader struct {
	r          io.Reader
	sample     mp4annexb.Sample
	lengthSize int
	consumed   uint64
	hdr        [4]byte
	unit       []byte
	err        error
}

// NewUnitReader seeks rs to the start of s. lengthSize is the NAL length
// field width from the decoder configuration; 0 selects 4 bytes.
func NewUnitReader(rs io.ReadSeeker, s mp4annexb.Sample, lengthSize int) (*UnitReader, error) {
	if lengthSize == 0 {
		lengthSize = defaultLengthSize
	}
	if lengthSize < 1 || lengthSize > 4 {
		return nil, fmt.Errorf("mp4: invalid NAL length size %d", lengthSize)
	}
	if _, err := rs.Seek(int64(s.Offset), io.SeekStart); err != nil { //nolint:gosec
		return nil, fmt.Errorf("mp4: seek to sample %d: %w", s.Index, err)
	}
	return &UnitReader{r: rs, sample: s, lengthSize: lengthSize}, nil
}

// Next reads the next non-empty unit. It returns false once the sample is
// consumed or on error.
func (ur *UnitReader) Next() bool {
	for ur.err == nil {
		left := uint64(ur.sample.Size) - ur.consumed
		if left == 0 {
			return false
		}
		if left < uint64(ur.lengthSize) { //nolint:gosec
			ur.fail(ErrUnitOverrun, "%d bytes left, length field needs %d", left, ur.lengthSize)
			return false
		}
		if err := ur.read(ur.hdr[:ur.lengthSize]); err != nil {
			ur.err = err
			return false
		}
		ur.consumed += uint64(ur.lengthSize) //nolint:gosec
		left -= uint64(ur.lengthSize)        //nolint:gosec

		l := pio.UintBE(ur.hdr[:], ur.lengthSize)
		if l > left {
			ur.fail(ErrUnitOverrun, "unit of %d bytes, %d left", l, left)
			return false
		}
		if l == 0 {
			continue
		}
		unit := make([]byte, l)
		if err := ur.read(unit); err != nil {
			ur.err = err
			return false
		}
		ur.consumed += l
		ur.unit = unit
		return true
	}
	return false
}

func (ur *UnitReader) read(b []byte) error {
	if _, err := io.ReadFull(ur.r, b); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return fmt.Errorf("%w: sample %d at byte %d", ErrSourceExhausted, ur.sample.Index, ur.consumed)
		}
		return fmt.Errorf("mp4: read sample %d: %w", ur.sample.Index, err)
	}
	return nil
}

func (ur *UnitReader) fail(sentinel error, format string, args ...any) {
	ur.err = fmt.Errorf("%w: sample %d: %s", sentinel, ur.sample.Index, fmt.Sprintf(format, args...))
}

// Unit returns the payload read by the last successful Next, without its
// length prefix.
func (ur *UnitReader) Unit() []byte {
	return ur.unit
}

func (ur *UnitReader) Err() error {
	return ur.err
}

// ReadUnits returns every NAL unit of s.
func ReadUnits(rs io.ReadSeeker, s mp4annexb.Sample, lengthSize int) (units [][]byte, err error) {
	ur, err := NewUnitReader(rs, s, lengthSize)
	if err != nil {
		return nil, err
	}
	for ur.Next() {
		units = append(units, ur.Unit())
	}
	return units, ur.Err()
}
