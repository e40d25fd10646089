// Package sdp writes and reads the session descriptions that announce RTP video streams.
package sdp

import (
	"encoding/base64"
	"strconv"
	"strings"

	"github.com/ugparu/mp4annexb"
)

const (
	defaultPayloadType = 96
	nalTypeMask        = 0x1f
	nalTypeSPS         = 7
	nalTypePPS         = 8
)

// Session holds the session level fields.
type Session struct {
	Name    string
	Address string
	Port    int
	TCP     bool // RFC 4571 framing over TCP.
}

// Media describes one video stream.
type Media struct {
	Codec          mp4annexb.VideoCodec
	PayloadType    int
	ClockRate      int
	Control        string
	FPS            float64
	Width          int
	Height         int
	SPS            [][]byte
	PPS            [][]byte
	ProfileLevelID string
}

func parseMediaDescription(val string) (*Media, bool) {
	fields := strings.Fields(val)
	if len(fields) < 4 || fields[0] != "video" { //nolint:mnd
		return nil, false
	}
	media := &Media{}
	media.PayloadType, _ = strconv.Atoi(fields[3])
	return media, true
}

func parseRtpmap(media *Media, val string) {
	fields := strings.Fields(val)
	if len(fields) != 2 { //nolint:mnd
		return
	}
	enc := strings.Split(fields[1], "/")
	switch strings.ToUpper(enc[0]) {
	case "H264":
		media.Codec = mp4annexb.H264
	case "VP8":
		media.Codec = mp4annexb.VP8
	case "VP9":
		media.Codec = mp4annexb.VP9
	}
	if len(enc) > 1 {
		media.ClockRate, _ = strconv.Atoi(enc[1])
	}
}

func parseFmtp(media *Media, val string) {
	fields := strings.SplitN(val, " ", 2) //nolint:mnd
	if len(fields) != 2 {                 //nolint:mnd
		return
	}
	for _, param := range strings.Split(fields[1], ";") {
		keyval := strings.SplitN(strings.TrimSpace(param), "=", 2) //nolint:mnd
		if len(keyval) != 2 {                                      //nolint:mnd
			continue
		}
		switch keyval[0] {
		case "profile-level-id":
			media.ProfileLevelID = strings.ToUpper(keyval[1])
		case "sprop-parameter-sets":
			for _, field := range strings.Split(keyval[1], ",") {
				ps, err := base64.StdEncoding.DecodeString(field)
				if err != nil || len(ps) == 0 {
					continue
				}
				switch ps[0] & nalTypeMask {
				case nalTypeSPS:
					media.SPS = append(media.SPS, ps)
				case nalTypePPS:
					media.PPS = append(media.PPS, ps)
				}
			}
		}
	}
}

func parseAttribute(media *Media, val string) {
	keyval := strings.SplitN(val, ":", 2) //nolint:mnd
	if len(keyval) != 2 {                 //nolint:mnd
		return
	}
	switch keyval[0] {
	case "rtpmap":
		parseRtpmap(media, keyval[1])
	case "fmtp":
		parseFmtp(media, keyval[1])
	case "control":
		media.Control = keyval[1]
	case "framerate":
		media.FPS, _ = strconv.ParseFloat(keyval[1], 64)
	case "x-dimensions":
		if wh := strings.Split(keyval[1], ","); len(wh) == 2 { //nolint:mnd
			media.Width, _ = strconv.Atoi(wh[0])
			media.Height, _ = strconv.Atoi(wh[1])
		}
	}
}

// Parse reads a session description. Non-video media sections are skipped.
func Parse(content string) (sess Session, medias []Media) {
	var media *Media

	for _, line := range strings.Split(content, "\n") {
		typeval := strings.SplitN(strings.TrimSpace(line), "=", 2) //nolint:mnd
		if len(typeval) != 2 {                                     //nolint:mnd
			continue
		}

		switch typeval[0] {
		case "s":
			sess.Name = typeval[1]
		case "c":
			if fields := strings.Fields(typeval[1]); len(fields) == 3 { //nolint:mnd
				sess.Address = fields[2]
			}
		case "m":
			if fields := strings.Fields(typeval[1]); len(fields) >= 3 { //nolint:mnd
				sess.Port, _ = strconv.Atoi(fields[1])
				sess.TCP = strings.HasPrefix(fields[2], "TCP/")
			}
			if newMedia, ok := parseMediaDescription(typeval[1]); ok {
				medias = append(medias, *newMedia)
				media = &medias[len(medias)-1]
			} else {
				media = nil
			}
		case "a":
			if media != nil {
				parseAttribute(media, typeval[1])
			}
		}
	}
	return
}
