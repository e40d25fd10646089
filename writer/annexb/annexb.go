// Package annexb writes H.264 tracks as an Annex-B elementary stream.
package annexb

import (
	"bufio"
	"fmt"
	"io"

	"github.com/ugparu/mp4annexb"
	"github.com/ugparu/mp4annexb/codec/h264"
	"github.com/ugparu/mp4annexb/format/mp4"
	"github.com/ugparu/mp4annexb/utils/logger"
)

const defaultBufferSize = 64 * 1024

type Option func(*Writer)

// WithEscapeMode selects how payloads are escaped, h264.EscapeTrailing by default.
func WithEscapeMode(mode h264.EscapeMode) Option {
	return func(wr *Writer) {
		wr.mode = mode
	}
}

func WithBufferSize(size int) Option {
	return func(wr *Writer) {
		wr.bufSize = size
	}
}

// Stats counts what has been written so far.
type Stats struct {
	Samples int
	Units   int
	Bytes   int64
}

type Writer struct {
	w       *bufio.Writer
	mode    h264.EscapeMode
	bufSize int
	stats   Stats
}

func New(w io.Writer, opts ...Option) *Writer {
	wr := &Writer{mode: h264.EscapeTrailing, bufSize: defaultBufferSize}
	for _, opt := range opts {
		opt(wr)
	}
	wr.w = bufio.NewWriterSize(w, wr.bufSize)
	return wr
}

func (wr *Writer) String() string {
	return fmt.Sprintf("annexb.Writer{%s}", wr.mode)
}

// WriteUnit frames one NAL unit payload and writes it.
func (wr *Writer) WriteUnit(payload []byte) error {
	framed, err := h264.AnnexB(payload, wr.mode)
	if err != nil {
		return err
	}
	n, err := wr.w.Write(framed)
	wr.stats.Bytes += int64(n)
	if err != nil {
		return err
	}
	wr.stats.Units++
	return nil
}

// WriteParameterSets writes every SPS then every PPS of rec.
func (wr *Writer) WriteParameterSets(rec h264.AVCDecoderConfRecord) error {
	for _, sps := range rec.SPS {
		if err := wr.WriteUnit(sps); err != nil {
			return fmt.Errorf("annexb: SPS: %w", err)
		}
	}
	for _, pps := range rec.PPS {
		if err := wr.WriteUnit(pps); err != nil {
			return fmt.Errorf("annexb: PPS: %w", err)
		}
	}
	return nil
}

// WriteSample writes the NAL units of s in storage order.
func (wr *Writer) WriteSample(rs io.ReadSeeker, trk *mp4.H264Track, s mp4annexb.Sample) error {
	ur, err := trk.NewUnitReader(rs, s)
	if err != nil {
		return err
	}
	for ur.Next() {
		if err = wr.WriteUnit(ur.Unit()); err != nil {
			return fmt.Errorf("annexb: sample %d: %w", s.Index, err)
		}
	}
	if err = ur.Err(); err != nil {
		return err
	}
	wr.stats.Samples++
	return nil
}

// WriteTrack writes the parameter sets of trk followed by all of its samples
// and flushes the buffer.
func (wr *Writer) WriteTrack(rs io.ReadSeeker, trk *mp4.H264Track) error {
	if err := wr.WriteParameterSets(trk.Config()); err != nil {
		return err
	}
	for _, s := range trk.Samples() {
		if err := wr.WriteSample(rs, trk, s); err != nil {
			return err
		}
	}
	if err := wr.Flush(); err != nil {
		return err
	}
	logger.Debugf(wr, "track %d: %d samples, %d units, %d bytes",
		trk.ID(), wr.stats.Samples, wr.stats.Units, wr.stats.Bytes)
	return nil
}

func (wr *Writer) Flush() error {
	return wr.w.Flush()
}

func (wr *Writer) Stats() Stats {
	return wr.stats
}
