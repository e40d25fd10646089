// Package mp4annexb extracts coded video samples from MP4 tracks and reframes
// their length-prefixed NAL units as an Annex-B byte stream.
package mp4annexb

import "fmt"

// Sample describes one coded access unit as stored in the container.
type Sample struct {
	ChunkIndex  int    // 0-based index of the chunk holding the sample.
	ChunkOffset uint64 // Absolute file offset of that chunk.
	Index       int    // 0-based global sample index.
	Offset      uint64 // Absolute file offset of the sample.
	Size        uint32 // Sample size in bytes.
	Delta       uint32 // Presentation duration in track timescale units.
}

func (s Sample) String() string {
	return fmt.Sprintf("Sample{index=%d, chunk=%d, offset=%d, size=%d, delta=%d}",
		s.Index, s.ChunkIndex, s.Offset, s.Size, s.Delta)
}

// End returns the offset of the first byte after the sample.
func (s Sample) End() uint64 {
	return s.Offset + uint64(s.Size)
}

// VideoTrack defines the read-only view shared by every video track.
// Codec specific configuration is reached by switching on the concrete type.
type VideoTrack interface {
	fmt.Stringer
	ID() uint32        // Returns the container track identifier.
	Codec() VideoCodec // Returns the codec carried by the track.
	Width() uint32     // Returns the frame width in pixels.
	Height() uint32    // Returns the frame height in pixels.
	TimeScale() uint32 // Returns the number of time units per second.
	Samples() []Sample // Returns the samples in storage order.
	Partial() bool     // Reports whether the sample list was cut short by a short size table.
}
