// Package nal splits in-memory buffers into NAL units.
package nal

import (
	"errors"
	"fmt"

	"github.com/ugparu/mp4annexb/utils/bits/pio"
)

// MinNaluSize is the default size of the AVCC length prefix.
const MinNaluSize = 4

// ErrAVCCOverrun is returned when a length prefix points past the buffer.
var ErrAVCCOverrun = errors.New("nal: AVCC length exceeds buffer")

// isStartCode checks if there's a NALU start code (0x000001 or 0x00000001) at the given position
// and returns the length of the start code found and whether a start code was found.
func isStartCode(b []byte, pos int) (startCodeLength int, found bool) {
	if pos+2 >= len(b) || b[pos] != 0 {
		return 0, false
	}

	val3 := pio.U24BE(b[pos:])
	if val3 == 1 {
		return 3, true //nolint:mnd
	}

	if val3 == 0 && pos+3 < len(b) && b[pos+3] == 1 {
		return 4, true //nolint:mnd
	}

	return 0, false
}

// SplitAnnexB splits a start code delimited byte stream into NALUs without their start codes.
// Bytes before the first start code are dropped.
func SplitAnnexB(b []byte) (nalus [][]byte) {
	start := -1
	for pos := 0; pos < len(b); {
		l, found := isStartCode(b, pos)
		if !found {
			pos++
			continue
		}
		if start >= 0 && pos > start {
			nalus = append(nalus, b[start:pos])
		}
		pos += l
		start = pos
	}
	if start >= 0 && start < len(b) {
		nalus = append(nalus, b[start:])
	}
	return
}

// SplitAVCC splits a buffer of lengthSize-byte big-endian length prefixed NALUs.
// Zero-length units are skipped.
func SplitAVCC(b []byte, lengthSize int) (nalus [][]byte, err error) {
	if lengthSize < 1 || lengthSize > 4 {
		return nil, fmt.Errorf("nal: invalid length size %d", lengthSize)
	}
	for pos := 0; pos < len(b); {
		if len(b)-pos < lengthSize {
			return nalus, fmt.Errorf("%w: %d trailing bytes at %d", ErrAVCCOverrun, len(b)-pos, pos)
		}
		l := pio.UintBE(b[pos:], lengthSize)
		pos += lengthSize
		if l > uint64(len(b)-pos) {
			return nalus, fmt.Errorf("%w: unit of %d bytes at %d, %d left", ErrAVCCOverrun, l, pos, len(b)-pos)
		}
		if l > 0 {
			nalus = append(nalus, b[pos:pos+int(l)]) //nolint:gosec
		}
		pos += int(l) //nolint:gosec
	}
	return
}

// JoinAVCC packs NALUs with lengthSize-byte big-endian prefixes.
func JoinAVCC(nalus [][]byte, lengthSize int) []byte {
	n := 0
	for _, nalu := range nalus {
		n += lengthSize + len(nalu)
	}
	b := make([]byte, n)
	pos := 0
	for _, nalu := range nalus {
		pio.PutUintBE(b[pos:], uint64(len(nalu)), lengthSize)
		pos += lengthSize
		pos += copy(b[pos:], nalu)
	}
	return b
}
