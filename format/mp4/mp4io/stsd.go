package mp4io

import (
	"fmt"

	"github.com/ugparu/mp4annexb/utils/bits/pio"
)

func (s SampleDesc) Tag() Tag {
	return STSD
}

// SampleDesc keeps the first video sample entry of each supported kind.
type SampleDesc struct {
	Version  uint8
	AVC1Desc *AVC1Desc
	VPxDesc  *VPxDesc
	Unknowns []Atom
	AtomPos
}

func (s *SampleDesc) Unmarshal(b []byte, offset int) (n int, err error) {
	(&s.AtomPos).setPos(offset, len(b))
	if s.Version, _, n, err = fullBox(b, bodyOffset(b), offset); err != nil {
		return
	}
	if len(b) < n+4 {
		err = parseErr("EntryCount", n+offset, nil)
		return
	}
	n += 4
	err = unmarshalChildren(b, n, offset, func(tag Tag, box []byte, off int) error {
		switch tag {
		case AVC1, AVC3:
			atom := &AVC1Desc{Tag_: tag}
			if _, err := atom.Unmarshal(box, off); err != nil {
				return err
			}
			if s.AVC1Desc == nil {
				s.AVC1Desc = atom
			}
		case VP08, VP09, VP10:
			atom := &VPxDesc{Tag_: tag}
			if _, err := atom.Unmarshal(box, off); err != nil {
				return err
			}
			if s.VPxDesc == nil {
				s.VPxDesc = atom
			}
		default:
			s.Unknowns = append(s.Unknowns, unknownAtom(tag, box, off))
		}
		return nil
	})
	return len(b), err
}

func (s SampleDesc) Children() (r []Atom) {
	if s.AVC1Desc != nil {
		r = append(r, s.AVC1Desc)
	}
	if s.VPxDesc != nil {
		r = append(r, s.VPxDesc)
	}
	r = append(r, s.Unknowns...)
	return
}

// Format returns the four character code of the first sample entry.
func (s SampleDesc) Format() string {
	switch {
	case s.AVC1Desc != nil:
		return s.AVC1Desc.Tag_.String()
	case s.VPxDesc != nil:
		return s.VPxDesc.Tag_.String()
	case len(s.Unknowns) > 0:
		return s.Unknowns[0].Tag().String()
	}
	return ""
}

// VisualSampleEntry is the part shared by every video sample entry.
type VisualSampleEntry struct {
	DataRefIdx           int16
	Width                int16
	Height               int16
	HorizontalResolution float64
	VorizontalResolution float64
	FrameCount           int16
	CompressorName       [32]byte
	Depth                int16
	ColorTableId         int16
}

const visualSampleEntrySize = 78

func (v *VisualSampleEntry) unmarshal(b []byte, n, offset int) (int, error) {
	if len(b) < n+visualSampleEntrySize {
		return n, parseErr("VisualSampleEntry", n+offset, nil)
	}
	n += 6
	v.DataRefIdx = pio.I16BE(b[n:])
	n += 2 + 2 + 2 + 12
	v.Width = pio.I16BE(b[n:])
	n += 2
	v.Height = pio.I16BE(b[n:])
	n += 2
	v.HorizontalResolution = GetFixed32(b[n:])
	n += 4
	v.VorizontalResolution = GetFixed32(b[n:])
	n += 4 + 4
	v.FrameCount = pio.I16BE(b[n:])
	n += 2
	copy(v.CompressorName[:], b[n:n+32])
	n += 32
	v.Depth = pio.I16BE(b[n:])
	n += 2
	v.ColorTableId = pio.I16BE(b[n:])
	n += 2
	return n, nil
}

func (a AVC1Desc) Tag() Tag {
	return a.Tag_
}

// AVC1Desc is an avc1 or avc3 sample entry.
type AVC1Desc struct {
	Tag_ Tag
	VisualSampleEntry
	Conf     *AVC1Conf
	Unknowns []Atom
	AtomPos
}

func (a *AVC1Desc) Unmarshal(b []byte, offset int) (n int, err error) {
	(&a.AtomPos).setPos(offset, len(b))
	if n, err = a.VisualSampleEntry.unmarshal(b, bodyOffset(b), offset); err != nil {
		return
	}
	err = unmarshalChildren(b, n, offset, func(tag Tag, box []byte, off int) error {
		if tag == AVCC {
			atom := &AVC1Conf{}
			if _, err := atom.Unmarshal(box, off); err != nil {
				return err
			}
			a.Conf = atom
			return nil
		}
		a.Unknowns = append(a.Unknowns, unknownAtom(tag, box, off))
		return nil
	})
	return len(b), err
}

func (a AVC1Desc) Children() (r []Atom) {
	if a.Conf != nil {
		r = append(r, a.Conf)
	}
	r = append(r, a.Unknowns...)
	return
}

func (a AVC1Desc) String() string {
	return fmt.Sprintf("%dx%d", a.Width, a.Height)
}

func (c AVC1Conf) Tag() Tag {
	return AVCC
}

// AVC1Conf carries the raw AVCDecoderConfigurationRecord.
type AVC1Conf struct {
	Data []byte
	AtomPos
}

func (c *AVC1Conf) Unmarshal(b []byte, offset int) (n int, err error) {
	(&c.AtomPos).setPos(offset, len(b))
	c.Data = b[bodyOffset(b):]
	return len(b), nil
}

func (c AVC1Conf) Children() (r []Atom) {
	return
}

func (v VPxDesc) Tag() Tag {
	return v.Tag_
}

// VPxDesc is a vp08, vp09 or vp10 sample entry.
type VPxDesc struct {
	Tag_ Tag
	VisualSampleEntry
	Conf     *VPxConf
	Unknowns []Atom
	AtomPos
}

func (v *VPxDesc) Unmarshal(b []byte, offset int) (n int, err error) {
	(&v.AtomPos).setPos(offset, len(b))
	if n, err = v.VisualSampleEntry.unmarshal(b, bodyOffset(b), offset); err != nil {
		return
	}
	err = unmarshalChildren(b, n, offset, func(tag Tag, box []byte, off int) error {
		if tag == VPCC {
			atom := &VPxConf{}
			if _, err := atom.Unmarshal(box, off); err != nil {
				return err
			}
			v.Conf = atom
			return nil
		}
		v.Unknowns = append(v.Unknowns, unknownAtom(tag, box, off))
		return nil
	})
	return len(b), err
}

func (v VPxDesc) Children() (r []Atom) {
	if v.Conf != nil {
		r = append(r, v.Conf)
	}
	r = append(r, v.Unknowns...)
	return
}

func (v VPxDesc) String() string {
	return fmt.Sprintf("%dx%d", v.Width, v.Height)
}

func (c VPxConf) Tag() Tag {
	return VPCC
}

// VPxConf carries the raw vpcC payload, version and flags included.
type VPxConf struct {
	Data []byte
	AtomPos
}

func (c *VPxConf) Unmarshal(b []byte, offset int) (n int, err error) {
	(&c.AtomPos).setPos(offset, len(b))
	c.Data = b[bodyOffset(b):]
	return len(b), nil
}

func (c VPxConf) Children() (r []Atom) {
	return
}
