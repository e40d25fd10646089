// Package vpx parses the VP codec configuration box (vpcC) of VP8/VP9 sample entries.
package vpx

import (
	"errors"
	"fmt"

	"github.com/ugparu/mp4annexb/utils/bits/pio"
)

// ErrConfigInvalid is returned for truncated or unknown vpcC payloads.
var ErrConfigInvalid = errors.New("vpx: vpcC invalid")

// Config is the content of a vpcC box.
type Config struct {
	Version                 uint8
	Profile                 uint8
	Level                   uint8
	BitDepth                uint8
	ColorSpace              uint8 // Version 0 only.
	ChromaSubsampling       uint8
	TransferCharacteristics uint8
	MatrixCoefficients      uint8 // Version 1 only.
	ColourPrimaries         uint8 // Version 1 only.
	VideoFullRange          bool
	CodecInit               []byte
}

// ParseConfig decodes the vpcC payload that follows the box header (version and flags included).
func ParseConfig(b []byte) (cfg Config, err error) {
	const fixedSize = 4 + 4 + 2
	if len(b) < fixedSize {
		err = fmt.Errorf("%w: %d bytes", ErrConfigInvalid, len(b))
		return
	}

	cfg.Version = b[0]
	n := 4
	cfg.Profile = b[n]
	cfg.Level = b[n+1]

	switch cfg.Version {
	case 0:
		cfg.BitDepth = b[n+2] >> 4
		cfg.ColorSpace = b[n+2] & 0x0f
		cfg.ChromaSubsampling = b[n+3] >> 4
		cfg.TransferCharacteristics = (b[n+3] >> 1) & 0x07
		cfg.VideoFullRange = b[n+3]&0x01 == 1
		n += 4
	case 1:
		cfg.BitDepth = b[n+2] >> 4
		cfg.ChromaSubsampling = (b[n+2] >> 1) & 0x07
		cfg.VideoFullRange = b[n+2]&0x01 == 1
		cfg.ColourPrimaries = b[n+3]
		cfg.TransferCharacteristics = b[n+4]
		cfg.MatrixCoefficients = b[n+5]
		n += 6
	default:
		err = fmt.Errorf("%w: version %d", ErrConfigInvalid, cfg.Version)
		return
	}

	if len(b) < n+2 {
		err = fmt.Errorf("%w: codec init size at %d", ErrConfigInvalid, n)
		return
	}
	initLen := int(pio.U16BE(b[n:]))
	n += 2
	if len(b) < n+initLen {
		err = fmt.Errorf("%w: codec init declares %d bytes, %d left", ErrConfigInvalid, initLen, len(b)-n)
		return
	}
	if initLen > 0 {
		cfg.CodecInit = append([]byte(nil), b[n:n+initLen]...)
	}
	return
}

// CodecString returns the RFC 6381 style codec parameter, e.g. "vp09.00.10.08".
func (cfg Config) CodecString(fourcc string) string {
	return fmt.Sprintf("%s.%02d.%02d.%02d", fourcc, cfg.Profile, cfg.Level, cfg.BitDepth)
}
