package sdp

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/ugparu/mp4annexb"
)

const defaultClockRate = 90000

// Generate builds a session description for the given video streams.
// Output is stable and can be read back by Parse.
func Generate(sess Session, medias []Media) string {
	addr := sess.Address
	if addr == "" {
		addr = "127.0.0.1"
	}
	name := sess.Name
	if name == "" {
		name = "mp4annexb"
	}

	lines := make([]string, 0, 8+8*len(medias))
	lines = append(lines,
		"v=0",
		"o=- 0 0 IN IP4 "+addr,
		"s="+name,
		"c=IN IP4 "+addr,
		"t=0 0",
	)
	for _, m := range medias {
		lines = append(lines, marshalMedia(sess, m)...)
	}
	return strings.Join(lines, "\r\n") + "\r\n"
}

func marshalMedia(sess Session, m Media) []string {
	pt := m.PayloadType
	if pt == 0 {
		pt = defaultPayloadType
	}
	clock := m.ClockRate
	if clock == 0 {
		clock = defaultClockRate
	}
	proto := "RTP/AVP"
	if sess.TCP {
		proto = "TCP/RTP/AVP"
	}

	lines := make([]string, 0, 8)
	lines = append(lines, fmt.Sprintf("m=video %d %s %d", sess.Port, proto, pt))
	if sess.TCP {
		lines = append(lines, "a=setup:active", "a=connection:new")
	}
	if enc := rtpmapEncoding(m.Codec); enc != "" {
		lines = append(lines, fmt.Sprintf("a=rtpmap:%d %s/%d", pt, enc, clock))
	}
	if fmtp := fmtpLine(m, pt); fmtp != "" {
		lines = append(lines, "a=fmtp:"+fmtp)
	}
	if m.FPS > 0 {
		lines = append(lines, fmt.Sprintf("a=framerate:%g", m.FPS))
	}
	if m.Width > 0 && m.Height > 0 {
		lines = append(lines, fmt.Sprintf("a=x-dimensions:%d,%d", m.Width, m.Height))
	}
	if m.Control != "" {
		lines = append(lines, "a=control:"+m.Control)
	}
	return lines
}

func fmtpLine(m Media, pt int) string {
	if m.Codec != mp4annexb.H264 || len(m.SPS) == 0 || len(m.PPS) == 0 {
		return ""
	}
	sets := make([]string, 0, len(m.SPS)+len(m.PPS))
	for _, ps := range append(append([][]byte{}, m.SPS...), m.PPS...) {
		sets = append(sets, base64.StdEncoding.EncodeToString(ps))
	}
	params := []string{"packetization-mode=1"}
	if sps := m.SPS[0]; len(sps) >= 4 { //nolint:mnd
		params = append(params, fmt.Sprintf("profile-level-id=%02X%02X%02X", sps[1], sps[2], sps[3]))
	}
	params = append(params, "sprop-parameter-sets="+strings.Join(sets, ","))
	return fmt.Sprintf("%d %s", pt, strings.Join(params, ";"))
}

func rtpmapEncoding(c mp4annexb.VideoCodec) string {
	switch c {
	case mp4annexb.H264:
		return "H264"
	case mp4annexb.VP8:
		return "VP8"
	case mp4annexb.VP9:
		return "VP9"
	default:
		return ""
	}
}
