// Package mp4test builds small MP4 files in memory for tests.
package mp4test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ugparu/mp4annexb/codec/h264"
	"github.com/ugparu/mp4annexb/utils/bits/pio"
	"github.com/ugparu/mp4annexb/utils/nal"
)

// Track describes one trak box and the samples stored for it in mdat.
type Track struct {
	ID        uint32
	Format    string // Sample entry four character code, "avc1" by default.
	Handler   string // hdlr subtype, "vide" by default.
	Width     uint16
	Height    uint16
	TimeScale uint32
	Config    []byte // avcC or vpcC payload.
	Samples   [][]byte
	Deltas    []uint32 // Per-sample durations, 1000 when nil.

	SamplesPerChunk int   // Used when ChunkSizes is nil, 1 by default.
	ChunkSizes      []int // Samples in each chunk.

	UniformSize   bool // Write a single stsz size; all samples must be equal.
	Large         bool // Use co64 instead of stco.
	TruncateSizes int  // Drop this many trailing stsz entries.
	Omit          []string
}

// File is a list of tracks.
type File struct {
	Tracks []Track
}

// Box returns a box with the given four character code and payload.
func Box(tag string, parts ...[]byte) []byte {
	n := 8
	for _, p := range parts {
		n += len(p)
	}
	b := make([]byte, 8, n)
	pio.PutU32BE(b, uint32(n)) //nolint:gosec
	copy(b[4:], tag)
	for _, p := range parts {
		b = append(b, p...)
	}
	return b
}

// FullBox returns a box whose payload starts with version and flags.
func FullBox(tag string, version uint8, flags uint32, parts ...[]byte) []byte {
	vf := make([]byte, 4)
	vf[0] = version
	pio.PutU24BE(vf[1:], flags)
	return Box(tag, append([][]byte{vf}, parts...)...)
}

func U16(v uint16) []byte {
	b := make([]byte, 2)
	pio.PutU16BE(b, v)
	return b
}

func U32(v uint32) []byte {
	b := make([]byte, 4)
	pio.PutU32BE(b, v)
	return b
}

func U64(v uint64) []byte {
	b := make([]byte, 8)
	pio.PutU64BE(b, v)
	return b
}

// AVCSample packs NAL units with 4-byte length prefixes.
func AVCSample(units ...[]byte) []byte {
	return nal.JoinAVCC(units, nal.MinNaluSize)
}

// AVCConfig returns an avcC payload with 4-byte NALU lengths.
func AVCConfig(sps, pps []byte) []byte {
	rec := h264.AVCDecoderConfRecord{
		Version:              1,
		AVCProfileIndication: sps[1],
		ProfileCompatibility: sps[2],
		AVCLevelIndication:   sps[3],
		LengthSizeMinusOne:   nal.MinNaluSize - 1,
		SPS:                  [][]byte{sps},
		PPS:                  [][]byte{pps},
	}
	return rec.Bytes()
}

func (t *Track) omitted(name string) bool {
	for _, o := range t.Omit {
		if o == name {
			return true
		}
	}
	return false
}

func (t *Track) chunkSizes() []int {
	if t.ChunkSizes != nil {
		return t.ChunkSizes
	}
	spc := t.SamplesPerChunk
	if spc <= 0 {
		spc = 1
	}
	var sizes []int
	for left := len(t.Samples); left > 0; left -= spc {
		sizes = append(sizes, min(spc, left))
	}
	return sizes
}

func (t *Track) delta(i int) uint32 {
	if t.Deltas == nil {
		return 1000 //nolint:mnd
	}
	return t.Deltas[i]
}

// Build lays out ftyp, mdat and moov. Chunk offsets point into mdat.
func Build(f File) []byte {
	ftyp := Box("ftyp", []byte("isom"), U32(0x200), []byte("isomavc1"))

	var mdat []byte
	base := uint64(len(ftyp) + 8)
	offsets := make([][]uint64, len(f.Tracks))
	for i := range f.Tracks {
		t := &f.Tracks[i]
		pos := 0
		for _, n := range t.chunkSizes() {
			offsets[i] = append(offsets[i], base+uint64(len(mdat)))
			for _, s := range t.Samples[pos : pos+n] {
				mdat = append(mdat, s...)
			}
			pos += n
		}
	}

	var traks [][]byte
	for i := range f.Tracks {
		traks = append(traks, f.Tracks[i].trak(offsets[i]))
	}

	out := append([]byte{}, ftyp...)
	out = append(out, Box("mdat", mdat)...)
	out = append(out, Box("moov", append([][]byte{mvhd()}, traks...)...)...)
	return out
}

// WriteFile builds f into a temporary file and returns its path.
func WriteFile(tb testing.TB, f File) string {
	tb.Helper()

	path := filepath.Join(tb.TempDir(), "test.mp4")
	if err := os.WriteFile(path, Build(f), 0o600); err != nil {
		tb.Fatal(err)
	}
	return path
}

func mvhd() []byte {
	body := make([]byte, 96) //nolint:mnd
	pio.PutU32BE(body[8:], 1000)
	return FullBox("mvhd", 0, 0, body)
}

func (t *Track) trak(offsets []uint64) []byte {
	handler := t.Handler
	if handler == "" {
		handler = "vide"
	}

	tkhd := make([]byte, 80) //nolint:mnd
	pio.PutU32BE(tkhd[8:], t.ID)
	pio.PutU32BE(tkhd[72:], uint32(t.Width)<<16)
	pio.PutU32BE(tkhd[76:], uint32(t.Height)<<16)

	mdhd := make([]byte, 20) //nolint:mnd
	pio.PutU32BE(mdhd[8:], t.TimeScale)

	hdlr := make([]byte, 20) //nolint:mnd
	copy(hdlr[4:], handler)
	hdlr = append(hdlr, []byte("Handler\x00")...)

	minf := [][]byte{FullBox("vmhd", 0, 1, make([]byte, 8))}
	minf = append(minf, t.stbl(offsets))

	return Box("trak",
		Box("tkhd", U32(0x7), tkhd),
		Box("mdia",
			FullBox("mdhd", 0, 0, mdhd),
			FullBox("hdlr", 0, 0, hdlr),
			Box("minf", minf...),
		),
	)
}

func (t *Track) sampleEntry() []byte {
	format := t.Format
	if format == "" {
		format = "avc1"
	}
	if t.Handler != "" && t.Handler != "vide" {
		return Box(format, make([]byte, 28)) //nolint:mnd
	}

	visual := make([]byte, 78) //nolint:mnd
	pio.PutU16BE(visual[6:], 1)
	pio.PutU16BE(visual[24:], t.Width)
	pio.PutU16BE(visual[26:], t.Height)
	pio.PutU32BE(visual[28:], 0x00480000)
	pio.PutU32BE(visual[32:], 0x00480000)
	pio.PutU16BE(visual[40:], 1)
	pio.PutU16BE(visual[74:], 0x18)
	pio.PutU16BE(visual[76:], 0xffff)

	parts := [][]byte{visual}
	if t.Config != nil && !t.omitted("config") {
		switch format {
		case "vp08", "vp09", "vp10":
			parts = append(parts, Box("vpcC", t.Config))
		default:
			parts = append(parts, Box("avcC", t.Config))
		}
	}
	return Box(format, parts...)
}

func (t *Track) stbl(offsets []uint64) []byte {
	parts := [][]byte{FullBox("stsd", 0, 0, U32(1), t.sampleEntry())}

	if !t.omitted("stts") {
		var runs [][]byte
		var count, cur uint32
		for i := range t.Samples {
			d := t.delta(i)
			if count > 0 && d != cur {
				runs = append(runs, U32(count), U32(cur))
				count = 0
			}
			cur = d
			count++
		}
		if count > 0 {
			runs = append(runs, U32(count), U32(cur))
		}
		parts = append(parts, FullBox("stts", 0, 0, append([][]byte{U32(uint32(len(runs) / 2))}, runs...)...)) //nolint:gosec
	}

	if !t.omitted("stsc") {
		var runs [][]byte
		last := -1
		for i, n := range t.chunkSizes() {
			if n == last {
				continue
			}
			runs = append(runs, U32(uint32(i+1)), U32(uint32(n)), U32(1)) //nolint:gosec
			last = n
		}
		parts = append(parts, FullBox("stsc", 0, 0, append([][]byte{U32(uint32(len(runs) / 3))}, runs...)...)) //nolint:gosec
	}

	if !t.omitted("stsz") {
		if t.UniformSize && len(t.Samples) > 0 {
			parts = append(parts, FullBox("stsz", 0, 0, U32(uint32(len(t.Samples[0]))), U32(uint32(len(t.Samples))))) //nolint:gosec
		} else {
			n := len(t.Samples) - t.TruncateSizes
			entries := [][]byte{U32(0), U32(uint32(n))} //nolint:gosec
			for _, s := range t.Samples[:n] {
				entries = append(entries, U32(uint32(len(s)))) //nolint:gosec
			}
			parts = append(parts, FullBox("stsz", 0, 0, entries...))
		}
	}

	if !t.omitted("stco") {
		entries := [][]byte{U32(uint32(len(offsets)))} //nolint:gosec
		for _, o := range offsets {
			if t.Large {
				entries = append(entries, U64(o))
			} else {
				entries = append(entries, U32(uint32(o))) //nolint:gosec
			}
		}
		tag := "stco"
		if t.Large {
			tag = "co64"
		}
		parts = append(parts, FullBox(tag, 0, 0, entries...))
	}

	return Box("stbl", parts...)
}
