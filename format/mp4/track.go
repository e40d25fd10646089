package mp4

import (
	"fmt"
	"io"

	"github.com/ugparu/mp4annexb"
	"github.com/ugparu/mp4annexb/codec/h264"
	"github.com/ugparu/mp4annexb/codec/vpx"
)

type track struct {
	id        uint32
	codec     mp4annexb.VideoCodec
	width     uint32
	height    uint32
	timeScale uint32
	samples   []mp4annexb.Sample
	partial   bool
}

func (t *track) ID() uint32 {
	return t.id
}

func (t *track) Codec() mp4annexb.VideoCodec {
	return t.codec
}

func (t *track) Width() uint32 {
	return t.width
}

func (t *track) Height() uint32 {
	return t.height
}

func (t *track) TimeScale() uint32 {
	return t.timeScale
}

// Samples returns the resolved sample list. Callers must not modify it.
func (t *track) Samples() []mp4annexb.Sample {
	return t.samples
}

func (t *track) Partial() bool {
	return t.partial
}

func (t *track) String() string {
	return fmt.Sprintf("%s{id=%d, %dx%d, timescale=%d, samples=%d}",
		t.codec, t.id, t.width, t.height, t.timeScale, len(t.samples))
}

// H264Track is an avc1/avc3 track together with its decoder configuration.
type H264Track struct {
	track
	conf h264.AVCDecoderConfRecord
}

func (t *H264Track) Config() h264.AVCDecoderConfRecord {
	return t.conf
}

// NewUnitReader returns a reader over the NAL units of s using the track's
// NAL length size.
func (t *H264Track) NewUnitReader(rs io.ReadSeeker, s mp4annexb.Sample) (*UnitReader, error) {
	return NewUnitReader(rs, s, t.conf.NALULengthSize())
}

// Units reads every NAL unit of s.
func (t *H264Track) Units(rs io.ReadSeeker, s mp4annexb.Sample) ([][]byte, error) {
	return ReadUnits(rs, s, t.conf.NALULengthSize())
}

// VPxTrack is a vp08/vp09/vp10 track. Samples are whole frames, there is no
// NAL framing to undo.
type VPxTrack struct {
	track
	fourcc string
	conf   vpx.Config
}

func (t *VPxTrack) Config() vpx.Config {
	return t.conf
}

// CodecString returns the RFC 6381 codecs parameter, e.g. "vp09.00.10.08".
func (t *VPxTrack) CodecString() string {
	return t.conf.CodecString(t.fourcc)
}

// ReadSample returns the raw bytes of s.
func (t *VPxTrack) ReadSample(rs io.ReadSeeker, s mp4annexb.Sample) ([]byte, error) {
	if _, err := rs.Seek(int64(s.Offset), io.SeekStart); err != nil { //nolint:gosec
		return nil, fmt.Errorf("mp4: seek to sample %d: %w", s.Index, err)
	}
	b := make([]byte, s.Size)
	if _, err := io.ReadFull(rs, b); err != nil {
		return nil, fmt.Errorf("%w: sample %d: %w", ErrSourceExhausted, s.Index, err)
	}
	return b, nil
}

var (
	_ mp4annexb.VideoTrack = (*H264Track)(nil)
	_ mp4annexb.VideoTrack = (*VPxTrack)(nil)
)
