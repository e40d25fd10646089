// Package rtp sends H.264 tracks as RTP packets framed per RFC 4571.
package rtp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"time"

	pionrtp "github.com/pion/rtp"
	"github.com/pion/rtp/codecs"
	"github.com/ugparu/mp4annexb"
	"github.com/ugparu/mp4annexb/codec/h264"
	"github.com/ugparu/mp4annexb/format/mp4"
	"github.com/ugparu/mp4annexb/utils/bits/pio"
	"github.com/ugparu/mp4annexb/utils/logger"
	"github.com/ugparu/mp4annexb/utils/sdp"
)

const (
	DefaultMTU         = 1200
	DefaultPayloadType = 96
	DefaultClockRate   = 90000
	DefaultSSRC        = 0x4d503441

	frameHeaderSize = 2
)

var ErrNoTimeScale = errors.New("rtp: track has no timescale")

type Config struct {
	MTU         uint16
	PayloadType uint8
	SSRC        uint32
	ClockRate   uint32
	Realtime    bool // Sleep for each sample delta between access units.
}

func (c *Config) setDefaults() {
	if c.MTU == 0 {
		c.MTU = DefaultMTU
	}
	if c.PayloadType == 0 {
		c.PayloadType = DefaultPayloadType
	}
	if c.SSRC == 0 {
		c.SSRC = DefaultSSRC
	}
	if c.ClockRate == 0 {
		c.ClockRate = DefaultClockRate
	}
}

type Stats struct {
	AccessUnits int
	Packets     int
	Bytes       int64
}

// Writer turns each sample of an H.264 track into one access unit.
type Writer struct {
	w          io.Writer
	trk        *mp4.H264Track
	cfg        Config
	packetizer pionrtp.Packetizer
	frame      []byte

	dts        uint64 // Track timescale units.
	rtpTime    uint64 // Clock rate units, dts rescaled.
	paramsSent bool
	stats      Stats
}

func New(w io.Writer, trk *mp4.H264Track, cfg Config) (*Writer, error) {
	if trk.TimeScale() == 0 {
		return nil, ErrNoTimeScale
	}
	cfg.setDefaults()
	return &Writer{
		w:   w,
		trk: trk,
		cfg: cfg,
		packetizer: pionrtp.NewPacketizer(cfg.MTU, cfg.PayloadType, cfg.SSRC,
			&codecs.H264Payloader{}, pionrtp.NewRandomSequencer(), cfg.ClockRate),
	}, nil
}

func (wr *Writer) String() string {
	return fmt.Sprintf("rtp.Writer{ssrc=%08x}", wr.cfg.SSRC)
}

// accessUnit reads s and returns its units in byte stream form, preceded by
// the parameter sets the first time.
func (wr *Writer) accessUnit(rs io.ReadSeeker, s mp4annexb.Sample) ([]byte, error) {
	var units [][]byte
	if !wr.paramsSent {
		conf := wr.trk.Config()
		units = append(units, conf.SPS...)
		units = append(units, conf.PPS...)
	}
	payloads, err := wr.trk.Units(rs, s)
	if err != nil {
		return nil, err
	}
	units = append(units, payloads...)

	var au []byte
	for _, u := range units {
		framed, err := h264.AnnexB(u, h264.EscapeTrailing)
		if err != nil {
			return nil, fmt.Errorf("rtp: sample %d: %w", s.Index, err)
		}
		au = append(au, framed...)
	}
	return au, nil
}

// ticks returns how far the RTP clock moves for a sample delta. The running
// sum is rescaled as a whole so rounding never accumulates.
func (wr *Writer) ticks(delta uint32) uint32 {
	wr.dts += uint64(delta)
	next := wr.dts * uint64(wr.cfg.ClockRate) / uint64(wr.trk.TimeScale())
	d := next - wr.rtpTime
	wr.rtpTime = next
	return uint32(d) //nolint:gosec
}

// WriteSample packetizes s and writes every packet.
func (wr *Writer) WriteSample(rs io.ReadSeeker, s mp4annexb.Sample) error {
	au, err := wr.accessUnit(rs, s)
	if err != nil {
		return err
	}
	packets := wr.packetizer.Packetize(au, wr.ticks(s.Delta))
	for _, pkt := range packets {
		if err = wr.writePacket(pkt); err != nil {
			return err
		}
	}
	wr.paramsSent = true
	wr.stats.AccessUnits++
	return nil
}

func (wr *Writer) writePacket(pkt *pionrtp.Packet) error {
	size := pkt.MarshalSize()
	if size > math.MaxUint16 {
		return fmt.Errorf("rtp: packet of %d bytes does not fit a frame", size)
	}
	if cap(wr.frame) < frameHeaderSize+size {
		wr.frame = make([]byte, frameHeaderSize+size)
	}
	frame := wr.frame[:frameHeaderSize+size]
	pio.PutU16BE(frame, uint16(size)) //nolint:gosec
	if _, err := pkt.MarshalTo(frame[frameHeaderSize:]); err != nil {
		return err
	}
	n, err := wr.w.Write(frame)
	wr.stats.Bytes += int64(n)
	if err != nil {
		return err
	}
	wr.stats.Packets++
	return nil
}

// WriteTrack sends every sample of the track. With Config.Realtime set it
// waits one sample delta between access units.
func (wr *Writer) WriteTrack(ctx context.Context, rs io.ReadSeeker) error {
	var timer *time.Timer
	for _, s := range wr.trk.Samples() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := wr.WriteSample(rs, s); err != nil {
			return err
		}
		if !wr.cfg.Realtime {
			continue
		}
		wait := time.Duration(s.Delta) * time.Second / time.Duration(wr.trk.TimeScale())
		if timer == nil {
			timer = time.NewTimer(wait)
			defer timer.Stop()
		} else {
			timer.Reset(wait)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}
	logger.Debugf(wr, "track %d: %d access units, %d packets, %d bytes",
		wr.trk.ID(), wr.stats.AccessUnits, wr.stats.Packets, wr.stats.Bytes)
	return nil
}

// SDP describes the stream this writer produces so a receiver can decode it.
func (wr *Writer) SDP(sess sdp.Session) string {
	conf := wr.trk.Config()
	media := sdp.Media{
		Codec:       mp4annexb.H264,
		PayloadType: int(wr.cfg.PayloadType),
		ClockRate:   int(wr.cfg.ClockRate),
		Control:     fmt.Sprintf("trackID=%d", wr.trk.ID()),
		Width:       int(wr.trk.Width()),
		Height:      int(wr.trk.Height()),
		SPS:         conf.SPS,
		PPS:         conf.PPS,
	}
	if samples := wr.trk.Samples(); len(samples) > 0 && samples[0].Delta > 0 {
		media.FPS = float64(wr.trk.TimeScale()) / float64(samples[0].Delta)
	}
	return sdp.Generate(sess, []sdp.Media{media})
}

func (wr *Writer) Stats() Stats {
	return wr.stats
}
