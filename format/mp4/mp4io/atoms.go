package mp4io

import (
	"github.com/ugparu/mp4annexb/utils/bits/pio"
)

const (
	MOOV = Tag(0x6d6f6f76)
	MDAT = Tag(0x6d646174)
	FTYP = Tag(0x66747970)
	TRAK = Tag(0x7472616b)
	TKHD = Tag(0x746b6864)
	MDIA = Tag(0x6d646961)
	MDHD = Tag(0x6d646864)
	HDLR = Tag(0x68646c72)
	MINF = Tag(0x6d696e66)
	VMHD = Tag(0x766d6864)
	STBL = Tag(0x7374626c)
	STSD = Tag(0x73747364)
	STTS = Tag(0x73747473)
	STSC = Tag(0x73747363)
	STSZ = Tag(0x7374737a)
	STCO = Tag(0x7374636f)
	CO64 = Tag(0x636f3634)
	AVC1 = Tag(0x61766331)
	AVC3 = Tag(0x61766333)
	AVCC = Tag(0x61766343)
	VP08 = Tag(0x76703038)
	VP09 = Tag(0x76703039)
	VP10 = Tag(0x76703130)
	VPCC = Tag(0x76706343)
)

type TimeToSampleEntry struct {
	Count    uint32
	Duration uint32
}

func GetTimeToSampleEntry(b []byte) (e TimeToSampleEntry) {
	e.Count = pio.U32BE(b[0:])
	e.Duration = pio.U32BE(b[4:])
	return
}

const LenTimeToSampleEntry = 8

type SampleToChunkEntry struct {
	FirstChunk      uint32
	SamplesPerChunk uint32
	SampleDescId    uint32
}

func GetSampleToChunkEntry(b []byte) (e SampleToChunkEntry) {
	e.FirstChunk = pio.U32BE(b[0:])
	e.SamplesPerChunk = pio.U32BE(b[4:])
	e.SampleDescId = pio.U32BE(b[8:])
	return
}

const LenSampleToChunkEntry = 12

func (m Movie) Tag() Tag {
	return MOOV
}

type Movie struct {
	Tracks   []*Track
	Unknowns []Atom
	AtomPos
}

func (m *Movie) Unmarshal(b []byte, offset int) (n int, err error) {
	(&m.AtomPos).setPos(offset, len(b))
	err = unmarshalChildren(b, bodyOffset(b), offset, func(tag Tag, box []byte, off int) error {
		if tag == TRAK {
			atom := &Track{}
			if _, err := atom.Unmarshal(box, off); err != nil {
				return err
			}
			m.Tracks = append(m.Tracks, atom)
			return nil
		}
		m.Unknowns = append(m.Unknowns, unknownAtom(tag, box, off))
		return nil
	})
	return len(b), err
}

func (m Movie) Children() (r []Atom) {
	for _, atom := range m.Tracks {
		r = append(r, atom)
	}
	r = append(r, m.Unknowns...)
	return
}
