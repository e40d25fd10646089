package sdp

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/ugparu/mp4annexb"
)

func TestGenerateParseRoundtripH264(t *testing.T) {
	t.Parallel()

	sps := []byte{0x67, 0x64, 0x00, 0x1f, 0xac}
	pps := []byte{0x68, 0xee, 0x3c, 0x80}

	in := Media{
		Codec:       mp4annexb.H264,
		PayloadType: 97,
		ClockRate:   90000,
		Control:     "trackID=1",
		FPS:         29.97,
		Width:       1920,
		Height:      1080,
		SPS:         [][]byte{sps},
		PPS:         [][]byte{pps},
	}
	sess := Session{Name: "demo", Address: "10.0.0.5", Port: 5004, TCP: true}
	out := Generate(sess, []Media{in})

	require.Contains(t, out, "m=video 5004 TCP/RTP/AVP 97\r\n")
	require.Contains(t, out, "a=rtpmap:97 H264/90000\r\n")
	require.Contains(t, out, "profile-level-id=64001F")

	gotSess, medias := Parse(out)
	require.Equal(t, sess, gotSess)
	require.Len(t, medias, 1)

	in.ProfileLevelID = "64001F"
	require.Equal(t, in, medias[0])
}

func TestGenerateDefaults(t *testing.T) {
	t.Parallel()

	out := Generate(Session{}, []Media{{Codec: mp4annexb.VP9}})
	lines := strings.Split(strings.TrimSuffix(out, "\r\n"), "\r\n")
	require.Equal(t, []string{
		"v=0",
		"o=- 0 0 IN IP4 127.0.0.1",
		"s=mp4annexb",
		"c=IN IP4 127.0.0.1",
		"t=0 0",
		"m=video 0 RTP/AVP 96",
		"a=rtpmap:96 VP9/90000",
	}, lines)
}

func TestGenerateWithoutParameterSets(t *testing.T) {
	t.Parallel()

	out := Generate(Session{}, []Media{{Codec: mp4annexb.H264, SPS: [][]byte{{0x67, 0x42}}}})
	require.NotContains(t, out, "a=fmtp")
}

func TestParseSkipsAudio(t *testing.T) {
	t.Parallel()

	content := strings.Join([]string{
		"v=0",
		"s=mixed",
		"m=audio 0 RTP/AVP 0",
		"a=rtpmap:0 PCMU/8000",
		"m=video 0 RTP/AVP 96",
		"a=rtpmap:96 VP8/90000",
		"a=x-dimensions:640,480",
	}, "\n")
	sess, medias := Parse(content)
	require.Equal(t, "mixed", sess.Name)
	require.Len(t, medias, 1)
	require.Equal(t, mp4annexb.VP8, medias[0].Codec)
	require.Equal(t, 640, medias[0].Width)
	require.Equal(t, 90000, medias[0].ClockRate)
}
