package h264

import (
	"errors"
	"fmt"

	"github.com/ugparu/mp4annexb/utils/bits/pio"
)

var (
	// ErrDecconfInvalid is returned when a declared length runs past the record.
	ErrDecconfInvalid = errors.New("h264parser: AVCDecoderConfRecord invalid")
	// ErrUnsupportedVersion is returned for configurationVersion other than 1.
	ErrUnsupportedVersion = errors.New("h264parser: unsupported AVCDecoderConfRecord version")
)

// AVCDecoderConfRecord represents the AVC decoder configuration record carried by the avcC box.
type AVCDecoderConfRecord struct {
	Version              uint8    // configurationVersion, always 1.
	AVCProfileIndication uint8    // Profile indication for the AVC stream.
	ProfileCompatibility uint8    // Profile compatibility for the AVC stream.
	AVCLevelIndication   uint8    // Level indication for the AVC stream.
	LengthSizeMinusOne   uint8    // Length size (in bytes) minus one of the NALU length prefix.
	SPS                  [][]byte // Sequence Parameter Sets (SPS) containing the SPS NALUs.
	PPS                  [][]byte // Picture Parameter Sets (PPS) containing the PPS NALUs.
}

// ParseAVCDecoderConfRecord decodes a record from its avcC payload.
func ParseAVCDecoderConfRecord(b []byte) (avc AVCDecoderConfRecord, err error) {
	_, err = avc.Unmarshal(b)
	return
}

// Unmarshal decodes the binary representation of AVCDecoderConfRecord from the given byte slice.
// It returns the number of bytes read. On error the receiver is left unchanged.
func (avc *AVCDecoderConfRecord) Unmarshal(b []byte) (n int, err error) {
	if len(b) < 1 {
		err = fmt.Errorf("%w: empty record", ErrDecconfInvalid)
		return
	}
	if b[0] != configurationVersion {
		err = fmt.Errorf("%w: %d", ErrUnsupportedVersion, b[0])
		return
	}
	const minLength = 7
	if len(b) < minLength {
		err = fmt.Errorf("%w: %d bytes, need at least %d", ErrDecconfInvalid, len(b), minLength)
		return
	}

	rec := AVCDecoderConfRecord{
		Version:              b[0],
		AVCProfileIndication: b[1],
		ProfileCompatibility: b[2],
		AVCLevelIndication:   b[3],
		LengthSizeMinusOne:   b[4] & maskLengthSizeMinusOne,
	}
	spscount := int(b[5] & maskSPSCount)
	n += 6

	if rec.SPS, n, err = readParameterSets(b, n, spscount, "SPS"); err != nil {
		return 0, err
	}

	if len(b) < n+1 {
		return 0, fmt.Errorf("%w: PPS count at %d", ErrDecconfInvalid, n)
	}
	ppscount := int(b[n])
	n++

	if rec.PPS, n, err = readParameterSets(b, n, ppscount, "PPS"); err != nil {
		return 0, err
	}

	*avc = rec
	return
}

// readParameterSets copies count 16-bit length prefixed entries starting at n.
func readParameterSets(b []byte, n, count int, name string) (sets [][]byte, _ int, err error) {
	for i := range count {
		if len(b) < n+lengthFieldSize {
			return nil, n, fmt.Errorf("%w: %s #%d length at %d", ErrDecconfInvalid, name, i, n)
		}
		l := int(pio.U16BE(b[n:]))
		n += lengthFieldSize

		if len(b) < n+l {
			return nil, n, fmt.Errorf("%w: %s #%d declares %d bytes, %d left", ErrDecconfInvalid, name, i, l, len(b)-n)
		}
		set := make([]byte, l)
		copy(set, b[n:n+l])
		sets = append(sets, set)
		n += l
	}
	return sets, n, nil
}

// NALULengthSize returns the width in bytes of the length prefix in front of every sample NALU.
func (avc *AVCDecoderConfRecord) NALULengthSize() int {
	return int(avc.LengthSizeMinusOne) + 1
}

// CodecString returns the RFC 6381 codec parameter, e.g. "avc1.64001F".
func (avc *AVCDecoderConfRecord) CodecString() string {
	return fmt.Sprintf("avc1.%02X%02X%02X",
		avc.AVCProfileIndication, avc.ProfileCompatibility, avc.AVCLevelIndication)
}

// Len calculates and returns the length of the binary representation of AVCDecoderConfRecord.
// It includes the length of the fixed-size fields and the lengths of SPS and PPS data.
func (avc *AVCDecoderConfRecord) Len() (n int) {
	n = 7
	for _, sps := range avc.SPS {
		n += lengthFieldSize + len(sps)
	}
	for _, pps := range avc.PPS {
		n += lengthFieldSize + len(pps)
	}
	return
}

// Marshal serializes the AVCDecoderConfRecord to a binary representation.
// It writes the serialized data to the provided byte slice and returns the number of bytes written.
func (avc *AVCDecoderConfRecord) Marshal(b []byte) (n int) {
	b[0] = configurationVersion
	b[1] = avc.AVCProfileIndication
	b[2] = avc.ProfileCompatibility
	b[3] = avc.AVCLevelIndication
	b[4] = avc.LengthSizeMinusOne | maskLengthSizeMinusOneInv
	b[5] = uint8(len(avc.SPS)) | maskSPSCountInv //nolint:gosec // integer overflow for sps count is not possible
	n += 6

	for _, sps := range avc.SPS {
		pio.PutU16BE(b[n:], uint16(len(sps))) //nolint:gosec // integer overflow for sps length is not possible
		n += 2
		copy(b[n:], sps)
		n += len(sps)
	}

	b[n] = uint8(len(avc.PPS)) //nolint:gosec // integer overflow for pps count is not possible
	n++

	for _, pps := range avc.PPS {
		pio.PutU16BE(b[n:], uint16(len(pps))) //nolint:gosec // integer overflow for pps length is not possible
		n += 2
		copy(b[n:], pps)
		n += len(pps)
	}

	return
}

// Bytes returns the marshaled record.
func (avc *AVCDecoderConfRecord) Bytes() []byte {
	b := make([]byte, avc.Len())
	avc.Marshal(b)
	return b
}
