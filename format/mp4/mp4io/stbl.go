package mp4io

func (s SampleTable) Tag() Tag {
	return STBL
}

type SampleTable struct {
	SampleDesc    *SampleDesc
	TimeToSample  *TimeToSample
	SampleToChunk *SampleToChunk
	SampleSize    *SampleSize
	ChunkOffset   *ChunkOffset
	Unknowns      []Atom
	AtomPos
}

func (s *SampleTable) Unmarshal(b []byte, offset int) (n int, err error) {
	(&s.AtomPos).setPos(offset, len(b))
	err = unmarshalChildren(b, bodyOffset(b), offset, func(tag Tag, box []byte, off int) error {
		switch tag {
		case STSD:
			atom := &SampleDesc{}
			if _, err := atom.Unmarshal(box, off); err != nil {
				return err
			}
			s.SampleDesc = atom
		case STTS:
			atom := &TimeToSample{}
			if _, err := atom.Unmarshal(box, off); err != nil {
				return err
			}
			s.TimeToSample = atom
		case STSC:
			atom := &SampleToChunk{}
			if _, err := atom.Unmarshal(box, off); err != nil {
				return err
			}
			s.SampleToChunk = atom
		case STSZ:
			atom := &SampleSize{}
			if _, err := atom.Unmarshal(box, off); err != nil {
				return err
			}
			s.SampleSize = atom
		case STCO, CO64:
			atom := &ChunkOffset{Large: tag == CO64}
			if _, err := atom.Unmarshal(box, off); err != nil {
				return err
			}
			s.ChunkOffset = atom
		default:
			// stss, ctts, sgpd and friends are not used for sample extraction.
			s.Unknowns = append(s.Unknowns, unknownAtom(tag, box, off))
		}
		return nil
	})
	return len(b), err
}

func (s SampleTable) Children() (r []Atom) {
	if s.SampleDesc != nil {
		r = append(r, s.SampleDesc)
	}
	if s.TimeToSample != nil {
		r = append(r, s.TimeToSample)
	}
	if s.SampleToChunk != nil {
		r = append(r, s.SampleToChunk)
	}
	if s.SampleSize != nil {
		r = append(r, s.SampleSize)
	}
	if s.ChunkOffset != nil {
		r = append(r, s.ChunkOffset)
	}
	r = append(r, s.Unknowns...)
	return
}
