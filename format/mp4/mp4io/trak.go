package mp4io

func (t Track) Tag() Tag {
	return TRAK
}

type Track struct {
	Header   *TrackHeader
	Media    *Media
	Unknowns []Atom
	AtomPos
}

func (t *Track) Unmarshal(b []byte, offset int) (n int, err error) {
	(&t.AtomPos).setPos(offset, len(b))
	err = unmarshalChildren(b, bodyOffset(b), offset, func(tag Tag, box []byte, off int) error {
		switch tag {
		case TKHD:
			atom := &TrackHeader{}
			if _, err := atom.Unmarshal(box, off); err != nil {
				return err
			}
			t.Header = atom
		case MDIA:
			atom := &Media{}
			if _, err := atom.Unmarshal(box, off); err != nil {
				return err
			}
			t.Media = atom
		default:
			t.Unknowns = append(t.Unknowns, unknownAtom(tag, box, off))
		}
		return nil
	})
	return len(b), err
}

func (t Track) Children() (r []Atom) {
	if t.Header != nil {
		r = append(r, t.Header)
	}
	if t.Media != nil {
		r = append(r, t.Media)
	}
	r = append(r, t.Unknowns...)
	return
}

// SampleTable returns the stbl box of the track or nil.
func (t *Track) SampleTable() *SampleTable {
	if t.Media == nil || t.Media.Info == nil {
		return nil
	}
	return t.Media.Info.Sample
}

// ID returns the tkhd track_ID, 0 when tkhd is absent.
func (t *Track) ID() uint32 {
	if t.Header == nil {
		return 0
	}
	return t.Header.TrackID
}

// HandlerType returns the mdia/hdlr handler subtype, e.g. "vide".
func (t *Track) HandlerType() string {
	if t.Media == nil || t.Media.Handler == nil {
		return ""
	}
	return string(t.Media.Handler.SubType[:])
}

func (t *Track) GetAVC1Desc() *AVC1Desc {
	stbl := t.SampleTable()
	if stbl == nil || stbl.SampleDesc == nil {
		return nil
	}
	return stbl.SampleDesc.AVC1Desc
}

func (t *Track) GetVPxDesc() *VPxDesc {
	stbl := t.SampleTable()
	if stbl == nil || stbl.SampleDesc == nil {
		return nil
	}
	return stbl.SampleDesc.VPxDesc
}
