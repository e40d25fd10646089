package h264

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyNALU is returned for a zero-length payload.
	ErrEmptyNALU = errors.New("h264: empty NAL unit")
	// ErrForbiddenZeroBit is returned when the header's forbidden_zero_bit is set.
	ErrForbiddenZeroBit = errors.New("h264: forbidden_zero_bit set in NAL unit header")
)

// NaluType is the 5-bit nal_unit_type of a NAL unit header.
type NaluType uint8

// NAL unit types, ITU-T H.264 table 7-1.
const (
	NaluUnspecified NaluType = 0
	NaluSlice       NaluType = 1  // Coded slice of a non-IDR picture
	NaluDPA         NaluType = 2  // Coded slice data partition A
	NaluDPB         NaluType = 3  // Coded slice data partition B
	NaluDPC         NaluType = 4  // Coded slice data partition C
	NaluCodedIDR    NaluType = 5  // Coded slice of an IDR picture
	NaluSEI         NaluType = 6  // Supplemental enhancement information
	NaluSPS         NaluType = 7  // Sequence parameter set
	NaluPPS         NaluType = 8  // Picture parameter set
	NaluAUD         NaluType = 9  // Access unit delimiter
	NaluEndSeq      NaluType = 10 // End of sequence
	NaluEndStream   NaluType = 11 // End of stream
	NaluFiller      NaluType = 12 // Filler data
	NaluSPSExt      NaluType = 13 // Sequence parameter set extension
)

func (t NaluType) String() string {
	switch t {
	case NaluUnspecified:
		return "Unspecified"
	case NaluSlice:
		return "SLICE"
	case NaluDPA:
		return "DPA"
	case NaluDPB:
		return "DPB"
	case NaluDPC:
		return "DPC"
	case NaluCodedIDR:
		return "IDR"
	case NaluSEI:
		return "SEI"
	case NaluSPS:
		return "SPS"
	case NaluPPS:
		return "PPS"
	case NaluAUD:
		return "AUD"
	case NaluEndSeq:
		return "EOSEQ"
	case NaluEndStream:
		return "EOSTREAM"
	case NaluFiller:
		return "FILL"
	case NaluSPSExt:
		return "SPSE"
	}
	return fmt.Sprintf("Reserved(%d)", uint8(t))
}

// IsVCL reports whether the unit carries slice data.
func (t NaluType) IsVCL() bool {
	return t >= NaluSlice && t <= NaluCodedIDR
}

// RefIdc is the 2-bit nal_ref_idc of a NAL unit header.
type RefIdc uint8

const (
	RefIdcDisposable RefIdc = iota
	RefIdcLow
	RefIdcHigh
	RefIdcHighest
)

func (r RefIdc) String() string {
	switch r {
	case RefIdcDisposable:
		return "DISPOSABLE"
	case RefIdcLow:
		return "LOW"
	case RefIdcHigh:
		return "HIGH"
	case RefIdcHighest:
		return "HIGHEST"
	}
	return "INVALID"
}

// EscapeMode selects how a payload is protected once it is framed with a start code.
type EscapeMode int

const (
	// EscapeTrailing appends a single 0x03 after payloads ending in two zero bytes and
	// uses a 3-byte start code for them. Payloads taken from MP4 samples are already
	// emulation-prevented, so only their tail can collide with the next start code.
	EscapeTrailing EscapeMode = iota
	// EscapeFull runs emulation prevention over the whole payload. Use it for raw RBSP input.
	EscapeFull
)

func (m EscapeMode) String() string {
	switch m {
	case EscapeTrailing:
		return "trailing"
	case EscapeFull:
		return "full"
	}
	return "unknown"
}

// ParseEscapeMode maps "trailing" or "full" to an EscapeMode.
func ParseEscapeMode(s string) (EscapeMode, error) {
	switch s {
	case "trailing", "":
		return EscapeTrailing, nil
	case "full":
		return EscapeFull, nil
	}
	return EscapeTrailing, fmt.Errorf("h264: unknown escape mode %q", s)
}

// NALU is a NAL unit reframed for an Annex-B byte stream.
type NALU struct {
	ForbiddenZeroBit uint8
	RefIdc           RefIdc
	Type             NaluType
	Framed           []byte // Start code, payload and optional escape byte.
}

func (n NALU) String() string {
	return fmt.Sprintf("NALU{ref_idc=%s, type=%s, len=%d}", n.RefIdc, n.Type, len(n.Framed))
}

// ParseHeader splits the first byte of a NAL unit into its three fields.
func ParseHeader(hdr byte) (forbidden uint8, ref RefIdc, typ NaluType) {
	forbidden = hdr >> shiftForbiddenBit
	ref = RefIdc((hdr & maskRefIdc) >> shiftRefIdc)
	typ = NaluType(hdr & maskNaluType)
	return
}

// NewNALU validates the header of payload and frames it for a byte stream.
// payload must not carry a length prefix.
func NewNALU(payload []byte, mode EscapeMode) (nalu NALU, err error) {
	framed, err := AnnexB(payload, mode)
	if err != nil {
		return
	}
	nalu.ForbiddenZeroBit, nalu.RefIdc, nalu.Type = ParseHeader(payload[0])
	nalu.Framed = framed
	return
}

// AnnexB returns payload prefixed with a start code and escaped according to mode.
func AnnexB(payload []byte, mode EscapeMode) ([]byte, error) {
	if len(payload) == 0 {
		return nil, ErrEmptyNALU
	}
	if payload[0]&maskForbiddenZeroBit != 0 {
		return nil, fmt.Errorf("%w: header 0x%02x", ErrForbiddenZeroBit, payload[0])
	}

	if mode == EscapeFull {
		escaped := EmulationPreventionInsert(payload)
		out := make([]byte, 0, len(startCode4)+len(escaped))
		out = append(out, startCode4...)
		return append(out, escaped...), nil
	}

	l := len(payload)
	if l >= 2 && payload[l-2] == 0 && payload[l-1] == 0 {
		out := make([]byte, 0, len(startCode3)+l+1)
		out = append(out, startCode3...)
		out = append(out, payload...)
		return append(out, escape), nil
	}

	out := make([]byte, 0, len(startCode4)+l)
	out = append(out, startCode4...)
	return append(out, payload...), nil
}
