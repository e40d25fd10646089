package mp4io

import "fmt"

func (s SampleToChunk) Tag() Tag {
	return STSC
}

type SampleToChunk struct {
	Version uint8
	Flags   uint32
	Entries []SampleToChunkEntry
	AtomPos
}

func (s *SampleToChunk) Unmarshal(b []byte, offset int) (n int, err error) {
	(&s.AtomPos).setPos(offset, len(b))
	if s.Version, s.Flags, n, err = fullBox(b, bodyOffset(b), offset); err != nil {
		return
	}
	var count int
	if count, n, err = entryCount(b, n, offset, LenSampleToChunkEntry); err != nil {
		return
	}
	s.Entries = make([]SampleToChunkEntry, count)
	for i := range s.Entries {
		s.Entries[i] = GetSampleToChunkEntry(b[n:])
		n += LenSampleToChunkEntry
	}
	return
}

func (s SampleToChunk) Children() (r []Atom) {
	return
}

func (s SampleToChunk) String() string {
	return fmt.Sprintf("entries=%d", len(s.Entries))
}
