package mp4io

import (
	"fmt"

	"github.com/ugparu/mp4annexb/utils/bits/pio"
)

func (m Media) Tag() Tag {
	return MDIA
}

type Media struct {
	Header   *MediaHeader
	Handler  *HandlerRefer
	Info     *MediaInfo
	Unknowns []Atom
	AtomPos
}

func (m *Media) Unmarshal(b []byte, offset int) (n int, err error) {
	(&m.AtomPos).setPos(offset, len(b))
	err = unmarshalChildren(b, bodyOffset(b), offset, func(tag Tag, box []byte, off int) error {
		switch tag {
		case MDHD:
			atom := &MediaHeader{}
			if _, err := atom.Unmarshal(box, off); err != nil {
				return err
			}
			m.Header = atom
		case HDLR:
			atom := &HandlerRefer{}
			if _, err := atom.Unmarshal(box, off); err != nil {
				return err
			}
			m.Handler = atom
		case MINF:
			atom := &MediaInfo{}
			if _, err := atom.Unmarshal(box, off); err != nil {
				return err
			}
			m.Info = atom
		default:
			m.Unknowns = append(m.Unknowns, unknownAtom(tag, box, off))
		}
		return nil
	})
	return len(b), err
}

func (m Media) Children() (r []Atom) {
	if m.Header != nil {
		r = append(r, m.Header)
	}
	if m.Handler != nil {
		r = append(r, m.Handler)
	}
	if m.Info != nil {
		r = append(r, m.Info)
	}
	r = append(r, m.Unknowns...)
	return
}

func (h MediaHeader) Tag() Tag {
	return MDHD
}

type MediaHeader struct {
	Version   uint8
	Flags     uint32
	TimeScale uint32
	Duration  uint64
	AtomPos
}

func (h *MediaHeader) Unmarshal(b []byte, offset int) (n int, err error) {
	(&h.AtomPos).setPos(offset, len(b))
	if h.Version, h.Flags, n, err = fullBox(b, bodyOffset(b), offset); err != nil {
		return
	}
	timesLen, durLen := 8, 4
	if h.Version == 1 {
		timesLen, durLen = 16, 8
	}
	if len(b) < n+timesLen+4+durLen {
		err = parseErr("MediaHeader", n+offset, nil)
		return
	}
	n += timesLen
	h.TimeScale = pio.U32BE(b[n:])
	n += 4
	h.Duration = pio.UintBE(b[n:], durLen)
	n += durLen
	return
}

func (h MediaHeader) Children() (r []Atom) {
	return
}

func (h MediaHeader) String() string {
	return fmt.Sprintf("timescale=%d duration=%d", h.TimeScale, h.Duration)
}

func (h HandlerRefer) Tag() Tag {
	return HDLR
}

type HandlerRefer struct {
	Version uint8
	Flags   uint32
	SubType [4]byte
	Name    []byte
	AtomPos
}

func (h *HandlerRefer) Unmarshal(b []byte, offset int) (n int, err error) {
	(&h.AtomPos).setPos(offset, len(b))
	if h.Version, h.Flags, n, err = fullBox(b, bodyOffset(b), offset); err != nil {
		return
	}
	// pre_defined, handler_type, reserved[3]
	if len(b) < n+4+4+12 {
		err = parseErr("HandlerRefer", n+offset, nil)
		return
	}
	n += 4
	copy(h.SubType[:], b[n:n+4])
	n += 4 + 12
	h.Name = b[n:]
	n = len(b)
	return
}

func (h HandlerRefer) Children() (r []Atom) {
	return
}

func (h HandlerRefer) String() string {
	return fmt.Sprintf("type=%s", string(h.SubType[:]))
}

func (m MediaInfo) Tag() Tag {
	return MINF
}

type MediaInfo struct {
	Sample   *SampleTable
	HasVmhd  bool
	Unknowns []Atom
	AtomPos
}

func (m *MediaInfo) Unmarshal(b []byte, offset int) (n int, err error) {
	(&m.AtomPos).setPos(offset, len(b))
	err = unmarshalChildren(b, bodyOffset(b), offset, func(tag Tag, box []byte, off int) error {
		switch tag {
		case STBL:
			atom := &SampleTable{}
			if _, err := atom.Unmarshal(box, off); err != nil {
				return err
			}
			m.Sample = atom
		case VMHD:
			m.HasVmhd = true
			m.Unknowns = append(m.Unknowns, unknownAtom(tag, box, off))
		default:
			m.Unknowns = append(m.Unknowns, unknownAtom(tag, box, off))
		}
		return nil
	})
	return len(b), err
}

func (m MediaInfo) Children() (r []Atom) {
	if m.Sample != nil {
		r = append(r, m.Sample)
	}
	r = append(r, m.Unknowns...)
	return
}
