package mp4io

import (
	"fmt"

	"github.com/ugparu/mp4annexb/utils/bits/pio"
)

func (h TrackHeader) Tag() Tag {
	return TKHD
}

type TrackHeader struct {
	Version  uint8
	Flags    uint32
	TrackID  uint32
	Duration uint64
	Width    float64
	Height   float64
	AtomPos
}

func (h *TrackHeader) Unmarshal(b []byte, offset int) (n int, err error) {
	(&h.AtomPos).setPos(offset, len(b))
	if h.Version, h.Flags, n, err = fullBox(b, bodyOffset(b), offset); err != nil {
		return
	}

	// creation/modification time, track_ID, reserved, duration
	timesLen, durLen := 8, 4
	if h.Version == 1 {
		timesLen, durLen = 16, 8
	}
	// layer, alternate_group, volume, reserved, matrix
	const middleLen = 8 + 2 + 2 + 2 + 2 + 36
	if len(b) < n+timesLen+4+4+durLen+middleLen+8 {
		err = parseErr("TrackHeader", n+offset, nil)
		return
	}
	n += timesLen
	h.TrackID = pio.U32BE(b[n:])
	n += 4 + 4
	h.Duration = pio.UintBE(b[n:], durLen)
	n += durLen + middleLen
	h.Width = GetFixed32(b[n:])
	n += 4
	h.Height = GetFixed32(b[n:])
	n += 4
	return
}

func (h TrackHeader) Children() (r []Atom) {
	return
}

func (h TrackHeader) String() string {
	return fmt.Sprintf("id=%d %gx%g", h.TrackID, h.Width, h.Height)
}

func GetFixed32(b []byte) float64 {
	return float64(pio.U16BE(b[0:2])) + float64(pio.U16BE(b[2:4]))/65536.0
}
