package mp4io

import (
	"fmt"

	"github.com/ugparu/mp4annexb/utils/bits/pio"
)

func (s TimeToSample) Tag() Tag {
	return STTS
}

type TimeToSample struct {
	Version uint8
	Flags   uint32
	Entries []TimeToSampleEntry
	AtomPos
}

func (s *TimeToSample) Unmarshal(b []byte, offset int) (n int, err error) {
	(&s.AtomPos).setPos(offset, len(b))
	if s.Version, s.Flags, n, err = fullBox(b, bodyOffset(b), offset); err != nil {
		return
	}
	var count int
	if count, n, err = entryCount(b, n, offset, LenTimeToSampleEntry); err != nil {
		return
	}
	s.Entries = make([]TimeToSampleEntry, count)
	for i := range s.Entries {
		s.Entries[i] = GetTimeToSampleEntry(b[n:])
		n += LenTimeToSampleEntry
	}
	return
}

func (s TimeToSample) Children() (r []Atom) {
	return
}

func (s TimeToSample) String() string {
	return fmt.Sprintf("entries=%d", len(s.Entries))
}

// entryCount reads a 32-bit entry count at n and checks that count entries of
// entrySize bytes follow it.
func entryCount(b []byte, n, offset, entrySize int) (count int, _ int, err error) {
	if len(b) < n+4 {
		return 0, n, parseErr("EntryCount", n+offset, nil)
	}
	c := uint64(pio.U32BE(b[n:]))
	n += 4
	if c*uint64(entrySize) > uint64(len(b)-n) { //nolint:gosec
		return 0, n, parseErr("Entries", n+offset, nil)
	}
	return int(c), n, nil //nolint:gosec
}
