// Package mp4 resolves the sample tables of MP4 video tracks and reads the
// NAL units stored in each sample.
package mp4

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/ugparu/mp4annexb"
	"github.com/ugparu/mp4annexb/codec/h264"
	"github.com/ugparu/mp4annexb/codec/vpx"
	"github.com/ugparu/mp4annexb/format/mp4/mp4io"
	"github.com/ugparu/mp4annexb/utils"
	"github.com/ugparu/mp4annexb/utils/logger"
)

type Demuxer struct {
	r         io.ReadSeeker
	file      *os.File
	path      string
	movie     *mp4io.Movie
	atoms     []mp4io.Atom
	tracks    []mp4annexb.VideoTrack
	trackErrs []*TrackError
}

// NewDemuxer returns a demuxer for the file at path. The file is opened by Demux.
func NewDemuxer(path string) *Demuxer {
	return &Demuxer{path: path}
}

// NewDemuxerFromReader returns a demuxer over an already open source.
// Close does not close rs.
func NewDemuxerFromReader(rs io.ReadSeeker) *Demuxer {
	return &Demuxer{r: rs}
}

func (dmx *Demuxer) String() string {
	if dmx.path == "" {
		return "mp4.Demuxer"
	}
	return fmt.Sprintf("mp4.Demuxer{%s}", dmx.path)
}

// Demux parses the box tree and builds one track per supported video track.
// A track with broken tables is dropped and listed by TrackErrors; a missing
// moov box or an I/O failure fails the whole call.
func (dmx *Demuxer) Demux() (tracks []mp4annexb.VideoTrack, err error) {
	if dmx.movie != nil {
		return dmx.tracks, nil
	}
	if dmx.r == nil {
		if dmx.file, err = os.Open(dmx.path); err != nil {
			return nil, err
		}
		dmx.r = dmx.file
	}
	if err = dmx.probe(); err != nil {
		return nil, err
	}
	return dmx.tracks, nil
}

func (dmx *Demuxer) probe() (err error) {
	if _, err = dmx.r.Seek(0, io.SeekStart); err != nil {
		return
	}
	if dmx.atoms, err = mp4io.ReadFileAtoms(dmx.r); err != nil {
		return fmt.Errorf("mp4: read boxes: %w", err)
	}

	var moov *mp4io.Movie
	for _, atom := range dmx.atoms {
		if m, ok := atom.(*mp4io.Movie); ok {
			moov = m
			break
		}
	}
	if moov == nil {
		return ErrNoMovie
	}

	for _, atrack := range moov.Tracks {
		trk, terr := dmx.buildTrack(atrack)
		if terr != nil {
			var unsupported utils.UnsupportedCodecError
			if errors.As(terr, &unsupported) {
				logger.Warning(dmx, unsupported.Error())
				continue
			}
			tErr := &TrackError{TrackID: atrack.ID(), Err: terr}
			logger.Errorf(dmx, "dropping track: %v", tErr)
			dmx.trackErrs = append(dmx.trackErrs, tErr)
			continue
		}
		logger.Debugf(dmx, "found %s", trk)
		dmx.tracks = append(dmx.tracks, trk)
	}
	dmx.movie = moov
	return nil
}

func (dmx *Demuxer) buildTrack(atrack *mp4io.Track) (mp4annexb.VideoTrack, error) {
	id := atrack.ID()
	stbl := atrack.SampleTable()

	format := ""
	if stbl != nil && stbl.SampleDesc != nil {
		format = stbl.SampleDesc.Format()
	}
	if atrack.HandlerType() != "vide" {
		return nil, utils.UnsupportedCodecError{TrackID: id, Format: format}
	}

	base := track{id: id}
	if atrack.Header != nil {
		base.width, base.height = uint32(atrack.Header.Width), uint32(atrack.Header.Height)
	}
	if atrack.Media == nil || atrack.Media.Header == nil {
		return nil, fmt.Errorf("%w: no mdhd", ErrMissingTable)
	}
	base.timeScale = atrack.Media.Header.TimeScale

	var trk mp4annexb.VideoTrack
	switch {
	case atrack.GetAVC1Desc() != nil:
		desc := atrack.GetAVC1Desc()
		if desc.Conf == nil {
			return nil, utils.NoCodecDataError{TrackID: id}
		}
		conf, err := h264.ParseAVCDecoderConfRecord(desc.Conf.Data)
		if err != nil {
			return nil, err
		}
		base.codec = mp4annexb.H264
		setVisualSize(&base, desc.VisualSampleEntry)
		h := &H264Track{track: base, conf: conf}
		trk = h
		if err = resolveInto(&h.track, stbl); err != nil {
			return nil, err
		}
	case atrack.GetVPxDesc() != nil:
		desc := atrack.GetVPxDesc()
		if desc.Conf == nil {
			return nil, utils.NoCodecDataError{TrackID: id}
		}
		conf, err := vpx.ParseConfig(desc.Conf.Data)
		if err != nil {
			return nil, err
		}
		switch desc.Tag_ {
		case mp4io.VP08:
			base.codec = mp4annexb.VP8
		case mp4io.VP09:
			base.codec = mp4annexb.VP9
		default:
			base.codec = mp4annexb.VP10
		}
		setVisualSize(&base, desc.VisualSampleEntry)
		v := &VPxTrack{track: base, fourcc: desc.Tag_.String(), conf: conf}
		trk = v
		if err = resolveInto(&v.track, stbl); err != nil {
			return nil, err
		}
	default:
		return nil, utils.UnsupportedCodecError{TrackID: id, Format: format}
	}
	return trk, nil
}

func setVisualSize(t *track, v mp4io.VisualSampleEntry) {
	if v.Width > 0 && v.Height > 0 {
		t.width, t.height = uint32(v.Width), uint32(v.Height) //nolint:gosec
	}
}

func resolveInto(t *track, stbl *mp4io.SampleTable) (err error) {
	tbl, err := NewSampleTable(stbl)
	if err != nil {
		return err
	}
	if t.samples, t.partial, err = ResolveSamples(tbl); err != nil {
		return err
	}
	if t.partial {
		logger.Warningf(t, "track %d keeps %d samples, size table is short", t.id, len(t.samples))
	}
	return nil
}

// Tracks returns the tracks built by the last Demux.
func (dmx *Demuxer) Tracks() []mp4annexb.VideoTrack {
	return dmx.tracks
}

// TrackErrors lists the tracks dropped by Demux and why.
func (dmx *Demuxer) TrackErrors() []*TrackError {
	return dmx.trackErrs
}

// Atoms returns the top level boxes read by Demux.
func (dmx *Demuxer) Atoms() []mp4io.Atom {
	return dmx.atoms
}

// Reader returns the byte source the sample offsets refer to.
func (dmx *Demuxer) Reader() io.ReadSeeker {
	return dmx.r
}

func (dmx *Demuxer) Close() error {
	if dmx.file == nil {
		return nil
	}
	err := dmx.file.Close()
	dmx.file = nil
	return err
}
