package rtp

import (
	"bytes"
	"context"
	"errors"
	"testing"

	pionrtp "github.com/pion/rtp"
	"github.com/pion/rtp/codecs"
	"github.com/stretchr/testify/require"
	"github.com/ugparu/mp4annexb/format/mp4"
	"github.com/ugparu/mp4annexb/format/mp4/mp4test"
	"github.com/ugparu/mp4annexb/utils/bits/pio"
	"github.com/ugparu/mp4annexb/utils/nal"
	"github.com/ugparu/mp4annexb/utils/sdp"
)

var (
	testSPS = []byte{0x67, 0x42, 0xc0, 0x1e, 0x95, 0xa0}
	testPPS = []byte{0x68, 0xce, 0x3c, 0x80}
)

func openTrack(t *testing.T, timeScale uint32, deltas []uint32, samples ...[][]byte) (*mp4.Demuxer, *mp4.H264Track) {
	t.Helper()

	trk := mp4test.Track{
		ID: 1, Width: 16, Height: 16, TimeScale: timeScale, Deltas: deltas,
		Config: mp4test.AVCConfig(testSPS, testPPS),
	}
	for _, units := range samples {
		trk.Samples = append(trk.Samples, mp4test.AVCSample(units...))
	}
	dmx := mp4.NewDemuxerFromReader(bytes.NewReader(mp4test.Build(mp4test.File{Tracks: []mp4test.Track{trk}})))
	tracks, err := dmx.Demux()
	require.NoError(t, err)
	require.Len(t, tracks, 1)
	h, ok := tracks[0].(*mp4.H264Track)
	require.True(t, ok)
	return dmx, h
}

func readFrames(t *testing.T, b []byte) (packets []*pionrtp.Packet) {
	t.Helper()

	for len(b) > 0 {
		require.GreaterOrEqual(t, len(b), frameHeaderSize)
		size := int(pio.U16BE(b))
		b = b[frameHeaderSize:]
		require.GreaterOrEqual(t, len(b), size)
		pkt := &pionrtp.Packet{}
		require.NoError(t, pkt.Unmarshal(b[:size]))
		packets = append(packets, pkt)
		b = b[size:]
	}
	return
}

// auTimestamps returns the timestamp of each access unit; the marker bit
// closes an access unit.
func auTimestamps(packets []*pionrtp.Packet) (ts []uint32) {
	start := true
	for _, pkt := range packets {
		if start {
			ts = append(ts, pkt.Timestamp)
		}
		start = pkt.Marker
	}
	return
}

func TestWriteTrackPackets(t *testing.T) {
	t.Parallel()

	samples := [][][]byte{
		{{0x65, 0x88, 0x84, 0x21}},
		{{0x41, 0x9a, 0x02}},
		{{0x41, 0x9a, 0x03}, {0x41, 0x9a, 0x04}},
	}
	dmx, trk := openTrack(t, 1000, []uint32{33, 33, 34}, samples...)

	var out bytes.Buffer
	wr, err := New(&out, trk, Config{})
	require.NoError(t, err)
	require.NoError(t, wr.WriteTrack(context.Background(), dmx.Reader()))

	packets := readFrames(t, out.Bytes())
	require.Len(t, packets, wr.Stats().Packets)
	require.Equal(t, 3, wr.Stats().AccessUnits)
	require.Equal(t, int64(out.Len()), wr.Stats().Bytes)

	for i, pkt := range packets {
		require.Equal(t, uint8(DefaultPayloadType), pkt.PayloadType)
		require.Equal(t, uint32(DefaultSSRC), pkt.SSRC)
		if i > 0 {
			require.Equal(t, packets[i-1].SequenceNumber+1, pkt.SequenceNumber)
		}
	}
	require.True(t, packets[len(packets)-1].Marker)

	ts := auTimestamps(packets)
	require.Len(t, ts, 3)
	require.Equal(t, uint32(2970), ts[1]-ts[0])
	require.Equal(t, uint32(2970), ts[2]-ts[1])

	var stream []byte
	depacketizer := &codecs.H264Packet{}
	for _, pkt := range packets {
		b, err := depacketizer.Unmarshal(pkt.Payload)
		require.NoError(t, err)
		stream = append(stream, b...)
	}
	want := [][]byte{testSPS, testPPS, samples[0][0], samples[1][0], samples[2][0], samples[2][1]}
	require.Equal(t, want, nal.SplitAnnexB(stream))
}

func TestWriteTrackFragmentsLargeUnits(t *testing.T) {
	t.Parallel()

	big := append([]byte{0x65}, bytes.Repeat([]byte{0x11, 0x22, 0x33}, 100)...)
	dmx, trk := openTrack(t, 90000, []uint32{3000}, [][]byte{big})

	var out bytes.Buffer
	wr, err := New(&out, trk, Config{MTU: 100, PayloadType: 102, SSRC: 7})
	require.NoError(t, err)
	require.NoError(t, wr.WriteTrack(context.Background(), dmx.Reader()))

	packets := readFrames(t, out.Bytes())
	require.Greater(t, len(packets), 3)

	var stream []byte
	depacketizer := &codecs.H264Packet{}
	for _, pkt := range packets {
		require.LessOrEqual(t, pkt.MarshalSize(), 100)
		require.Equal(t, uint8(102), pkt.PayloadType)
		require.Equal(t, uint32(7), pkt.SSRC)
		b, err := depacketizer.Unmarshal(pkt.Payload)
		require.NoError(t, err)
		stream = append(stream, b...)
	}
	require.Equal(t, [][]byte{testSPS, testPPS, big}, nal.SplitAnnexB(stream))
}

func TestTimestampsDoNotDrift(t *testing.T) {
	t.Parallel()

	var samples [][][]byte
	var deltas []uint32
	for range 8 {
		samples = append(samples, [][]byte{{0x41, 0x01}})
		deltas = append(deltas, 1)
	}
	dmx, trk := openTrack(t, 7, deltas, samples...)

	var out bytes.Buffer
	wr, err := New(&out, trk, Config{})
	require.NoError(t, err)
	require.NoError(t, wr.WriteTrack(context.Background(), dmx.Reader()))

	ts := auTimestamps(readFrames(t, out.Bytes()))
	require.Len(t, ts, 8)
	require.Equal(t, uint32(12857), ts[1]-ts[0])
	require.Equal(t, uint32(90000), ts[7]-ts[0])
}

func TestWriteTrackCancelled(t *testing.T) {
	t.Parallel()

	dmx, trk := openTrack(t, 1, []uint32{1000, 1000}, [][]byte{{0x65, 0x01}}, [][]byte{{0x41, 0x02}})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out bytes.Buffer
	wr, err := New(&out, trk, Config{Realtime: true})
	require.NoError(t, err)
	require.ErrorIs(t, wr.WriteTrack(ctx, dmx.Reader()), context.Canceled)
	require.Zero(t, out.Len())
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, errors.New("broken pipe")
}

func TestWriteSampleErrors(t *testing.T) {
	t.Parallel()

	dmx, trk := openTrack(t, 1000, nil, [][]byte{{0x65, 0x01}})
	wr, err := New(failingWriter{}, trk, Config{})
	require.NoError(t, err)
	require.ErrorContains(t, wr.WriteSample(dmx.Reader(), trk.Samples()[0]), "broken pipe")
}

func TestSDP(t *testing.T) {
	t.Parallel()

	_, trk := openTrack(t, 90000, []uint32{3000}, [][]byte{{0x65, 0x01}})
	wr, err := New(&bytes.Buffer{}, trk, Config{PayloadType: 98})
	require.NoError(t, err)

	sess, medias := sdp.Parse(wr.SDP(sdp.Session{Address: "127.0.0.1", Port: 5004, TCP: true}))
	require.True(t, sess.TCP)
	require.Len(t, medias, 1)
	require.Equal(t, 98, medias[0].PayloadType)
	require.Equal(t, [][]byte{testSPS}, medias[0].SPS)
	require.Equal(t, [][]byte{testPPS}, medias[0].PPS)
	require.Equal(t, "trackID=1", medias[0].Control)
	require.InDelta(t, 30.0, medias[0].FPS, 0.001)
	require.Equal(t, 16, medias[0].Width)
}
