// Package server exposes the video tracks of one MP4 file over HTTP.
package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	"github.com/ugparu/mp4annexb"
	"github.com/ugparu/mp4annexb/format/mp4"
	"github.com/ugparu/mp4annexb/utils/logger"
	"github.com/ugparu/mp4annexb/utils/sdp"
	"github.com/ugparu/mp4annexb/writer/annexb"
	"github.com/ugparu/mp4annexb/writer/rtp"
)

const defaultSampleLimit = 100

var modeOnce sync.Once

type Server struct {
	server    *http.Server
	router    *gin.Engine
	path      string
	startOnce *sync.Once
	closeOnce *sync.Once
	deadChan  chan any
}

// New returns a server for the MP4 file at path listening on addr.
// The file is opened again for every request.
func New(path, addr string) *Server {
	modeOnce.Do(func() {
		gin.SetMode(gin.ReleaseMode)
	})
	router := gin.New()
	router.Use(cors)
	router.Use(gin.Recovery())
	pprof.Register(router)

	s := &Server{
		router:    router,
		path:      path,
		deadChan:  make(chan any),
		startOnce: &sync.Once{},
		closeOnce: &sync.Once{},
	}
	s.server = &http.Server{
		Addr:    addr,
		Handler: router,
	}

	router.GET("/tracks", s.getTracks)
	router.GET("/tracks/:id/samples", s.getSamples)
	router.GET("/tracks/:id/stream.h264", s.getAnnexB)
	router.GET("/tracks/:id/stream.rtp", s.getRTP)
	router.GET("/tracks/:id/stream.sdp", s.getSDP)
	return s
}

func cors(c *gin.Context) {
	c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
	c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
	c.Writer.Header().Set("Access-Control-Allow-Methods", "OPTIONS, GET")
	if c.Request.Method == http.MethodOptions {
		c.AbortWithStatus(http.StatusOK)
		return
	}
	c.Next()
}

func (s *Server) String() string {
	return fmt.Sprintf("Server{%s}", s.server.Addr)
}

// Handler returns the router, e.g. for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until Close. It blocks.
func (s *Server) Start() {
	err := errors.New("HTTP server has been started already")
	s.startOnce.Do(func() {
		defer close(s.deadChan)

		logger.Infof(s, "Serving %s", s.path)
		if err = s.server.ListenAndServe(); err != nil {
			logger.Warning(s, err.Error())
			err = nil
		}
	})
	if err != nil {
		logger.Error(s, err.Error())
	}
}

func (s *Server) Close() {
	s.closeOnce.Do(func() {
		logger.Warning(s, "Stopping and closing")
		_ = s.server.Close()
	})
}

func (s *Server) Dead() <-chan any {
	return s.deadChan
}

type trackInfo struct {
	ID          uint32 `json:"id"`
	Codec       string `json:"codec"`
	CodecString string `json:"codec_string"`
	Width       uint32 `json:"width"`
	Height      uint32 `json:"height"`
	TimeScale   uint32 `json:"timescale"`
	Samples     int    `json:"samples"`
	Duration    uint64 `json:"duration"`
	Partial     bool   `json:"partial"`
}

type droppedTrack struct {
	ID    uint32 `json:"id"`
	Error string `json:"error"`
}

type tracksResponse struct {
	Tracks  []trackInfo    `json:"tracks"`
	Dropped []droppedTrack `json:"dropped,omitempty"`
}

type sampleInfo struct {
	Index       int    `json:"index"`
	ChunkIndex  int    `json:"chunk_index"`
	ChunkOffset uint64 `json:"chunk_offset"`
	Offset      uint64 `json:"offset"`
	Size        uint32 `json:"size"`
	Delta       uint32 `json:"delta"`
}

func newTrackInfo(trk mp4annexb.VideoTrack) trackInfo {
	info := trackInfo{
		ID:        trk.ID(),
		Codec:     trk.Codec().String(),
		Width:     trk.Width(),
		Height:    trk.Height(),
		TimeScale: trk.TimeScale(),
		Samples:   len(trk.Samples()),
		Partial:   trk.Partial(),
	}
	for _, smpl := range trk.Samples() {
		info.Duration += uint64(smpl.Delta)
	}
	switch t := trk.(type) {
	case *mp4.H264Track:
		conf := t.Config()
		info.CodecString = conf.CodecString()
	case *mp4.VPxTrack:
		info.CodecString = t.CodecString()
	}
	return info
}

func (s *Server) demux(c *gin.Context) (*mp4.Demuxer, []mp4annexb.VideoTrack, bool) {
	dmx := mp4.NewDemuxer(s.path)
	tracks, err := dmx.Demux()
	if err != nil {
		_ = dmx.Close()
		logger.Errorf(s, "demux %s: %v", s.path, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return nil, nil, false
	}
	return dmx, tracks, true
}

// track demuxes the file and finds the track named by the :id parameter.
// The caller closes the demuxer when ok is true.
func (s *Server) track(c *gin.Context) (dmx *mp4.Demuxer, trk mp4annexb.VideoTrack, ok bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid track id"})
		return nil, nil, false
	}
	dmx, tracks, ok := s.demux(c)
	if !ok {
		return nil, nil, false
	}
	for _, t := range tracks {
		if t.ID() == uint32(id) {
			return dmx, t, true
		}
	}
	_ = dmx.Close()
	c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("track %d not found", id)})
	return nil, nil, false
}

func (s *Server) h264Track(c *gin.Context) (*mp4.Demuxer, *mp4.H264Track, bool) {
	dmx, trk, ok := s.track(c)
	if !ok {
		return nil, nil, false
	}
	h, isH264 := trk.(*mp4.H264Track)
	if !isH264 {
		_ = dmx.Close()
		c.JSON(http.StatusUnsupportedMediaType, gin.H{"error": fmt.Sprintf("track %d is %s", trk.ID(), trk.Codec())})
		return nil, nil, false
	}
	return dmx, h, true
}

func (s *Server) getTracks(c *gin.Context) {
	dmx, tracks, ok := s.demux(c)
	if !ok {
		return
	}
	defer dmx.Close()

	resp := tracksResponse{Tracks: []trackInfo{}}
	for _, trk := range tracks {
		resp.Tracks = append(resp.Tracks, newTrackInfo(trk))
	}
	for _, tErr := range dmx.TrackErrors() {
		resp.Dropped = append(resp.Dropped, droppedTrack{ID: tErr.TrackID, Error: tErr.Err.Error()})
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) getSamples(c *gin.Context) {
	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid offset"})
		return
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultSampleLimit)))
	if err != nil || limit < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
		return
	}

	dmx, trk, ok := s.track(c)
	if !ok {
		return
	}
	defer dmx.Close()

	samples := trk.Samples()
	offset = min(offset, len(samples))
	samples = samples[offset : offset+min(limit, len(samples)-offset)]

	resp := make([]sampleInfo, 0, len(samples))
	for _, smpl := range samples {
		resp = append(resp, sampleInfo{
			Index:       smpl.Index,
			ChunkIndex:  smpl.ChunkIndex,
			ChunkOffset: smpl.ChunkOffset,
			Offset:      smpl.Offset,
			Size:        smpl.Size,
			Delta:       smpl.Delta,
		})
	}
	c.JSON(http.StatusOK, gin.H{"track": trk.ID(), "total": len(trk.Samples()), "samples": resp})
}

func (s *Server) getAnnexB(c *gin.Context) {
	dmx, trk, ok := s.h264Track(c)
	if !ok {
		return
	}
	defer dmx.Close()

	c.Header("Content-Type", "video/h264")
	c.Status(http.StatusOK)
	if err := annexb.New(c.Writer).WriteTrack(dmx.Reader(), trk); err != nil {
		logger.Errorf(s, "stream track %d: %v", trk.ID(), err)
	}
}

func (s *Server) getRTP(c *gin.Context) {
	dmx, trk, ok := s.h264Track(c)
	if !ok {
		return
	}
	defer dmx.Close()

	wr, err := rtp.New(c.Writer, trk, rtp.Config{Realtime: c.Query("realtime") == "1"})
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	c.Header("Content-Type", "application/octet-stream")
	c.Status(http.StatusOK)
	if err = wr.WriteTrack(c.Request.Context(), dmx.Reader()); err != nil {
		logger.Errorf(s, "rtp track %d: %v", trk.ID(), err)
	}
}

// getSDP describes the stream.rtp endpoint of a track.
func (s *Server) getSDP(c *gin.Context) {
	dmx, trk, ok := s.h264Track(c)
	if !ok {
		return
	}
	defer dmx.Close()

	wr, err := rtp.New(io.Discard, trk, rtp.Config{})
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	host, _, _ := strings.Cut(c.Request.Host, ":")
	c.Data(http.StatusOK, "application/sdp", []byte(wr.SDP(sdp.Session{Address: host, TCP: true})))
}
