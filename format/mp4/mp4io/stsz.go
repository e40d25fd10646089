package mp4io

import (
	"fmt"

	"github.com/ugparu/mp4annexb/utils/bits/pio"
)

func (s SampleSize) Tag() Tag {
	return STSZ
}

// SampleSize holds either one size shared by every sample (SampleSize != 0)
// or one entry per sample.
type SampleSize struct {
	Version     uint8
	Flags       uint32
	SampleSize  uint32
	SampleCount uint32
	Entries     []uint32
	AtomPos
}

func (s *SampleSize) Unmarshal(b []byte, offset int) (n int, err error) {
	(&s.AtomPos).setPos(offset, len(b))
	if s.Version, s.Flags, n, err = fullBox(b, bodyOffset(b), offset); err != nil {
		return
	}
	if len(b) < n+4 {
		err = parseErr("SampleSize", n+offset, nil)
		return
	}
	s.SampleSize = pio.U32BE(b[n:])
	n += 4
	if len(b) < n+4 {
		err = parseErr("SampleCount", n+offset, nil)
		return
	}
	s.SampleCount = pio.U32BE(b[n:])
	if s.SampleSize != 0 {
		n += 4
		return
	}
	var count int
	if count, n, err = entryCount(b, n, offset, 4); err != nil {
		return
	}
	s.Entries = make([]uint32, count)
	for i := range s.Entries {
		s.Entries[i] = pio.U32BE(b[n:])
		n += 4
	}
	return
}

func (s SampleSize) Children() (r []Atom) {
	return
}

func (s SampleSize) String() string {
	if s.SampleSize != 0 {
		return fmt.Sprintf("uniform=%d count=%d", s.SampleSize, s.SampleCount)
	}
	return fmt.Sprintf("entries=%d", len(s.Entries))
}
