package mp4

import (
	"fmt"

	"github.com/ugparu/mp4annexb"
	"github.com/ugparu/mp4annexb/format/mp4/mp4io"
	"github.com/ugparu/mp4annexb/utils/logger"
)

// SampleToChunkEntry is one stsc run. FirstChunk is 1-based.
type SampleToChunkEntry struct {
	FirstChunk      uint32
	SamplesPerChunk uint32
}

// TimeToSampleEntry is one stts run.
type TimeToSampleEntry struct {
	Count uint32
	Delta uint32
}

// SampleSizes is the stsz table. A non-zero Uniform applies to every sample,
// otherwise Entries holds one size per sample.
type SampleSizes struct {
	Uniform uint32
	Entries []uint32
}

// SampleTable gathers the tables needed to place every sample of a track.
type SampleTable struct {
	ChunkOffsets  []uint64
	SampleToChunk []SampleToChunkEntry
	Sizes         SampleSizes
	TimeToSample  []TimeToSampleEntry
}

// NewSampleTable copies the resolver input out of a decoded stbl box.
// Absent stco/co64 means no chunks; absent stsz, stsc or stts is an error.
func NewSampleTable(stbl *mp4io.SampleTable) (tbl SampleTable, err error) {
	if stbl == nil {
		return tbl, fmt.Errorf("%w: no stbl", ErrMissingTable)
	}
	if stbl.SampleSize == nil {
		return tbl, fmt.Errorf("%w: no stsz", ErrMissingTable)
	}
	if stbl.ChunkOffset != nil {
		tbl.ChunkOffsets = stbl.ChunkOffset.Entries
	}
	if stbl.SampleToChunk != nil {
		tbl.SampleToChunk = make([]SampleToChunkEntry, len(stbl.SampleToChunk.Entries))
		for i, e := range stbl.SampleToChunk.Entries {
			tbl.SampleToChunk[i] = SampleToChunkEntry{FirstChunk: e.FirstChunk, SamplesPerChunk: e.SamplesPerChunk}
		}
	}
	if stbl.TimeToSample != nil {
		tbl.TimeToSample = make([]TimeToSampleEntry, len(stbl.TimeToSample.Entries))
		for i, e := range stbl.TimeToSample.Entries {
			tbl.TimeToSample[i] = TimeToSampleEntry{Count: e.Count, Delta: e.Duration}
		}
	}
	tbl.Sizes = SampleSizes{Uniform: stbl.SampleSize.SampleSize, Entries: stbl.SampleSize.Entries}
	return tbl, nil
}

// validate checks the run tables before any sample is produced.
func (tbl *SampleTable) validate() error {
	if len(tbl.SampleToChunk) == 0 {
		return fmt.Errorf("%w: sample-to-chunk", ErrMissingTable)
	}
	if len(tbl.TimeToSample) == 0 {
		return fmt.Errorf("%w: time-to-sample", ErrMissingTable)
	}
	if first := tbl.SampleToChunk[0].FirstChunk; first != 1 {
		return fmt.Errorf("%w: first sample-to-chunk run starts at chunk %d", ErrMalformedTable, first)
	}
	for i, run := range tbl.SampleToChunk {
		if run.SamplesPerChunk == 0 {
			return fmt.Errorf("%w: sample-to-chunk run %d has no samples", ErrMalformedTable, i)
		}
		if i > 0 && run.FirstChunk <= tbl.SampleToChunk[i-1].FirstChunk {
			return fmt.Errorf("%w: sample-to-chunk run %d is out of order", ErrMalformedTable, i)
		}
	}
	return nil
}

// SampleIterator walks the samples of a table in storage order. It only moves
// forward; create a new one to start over.
type SampleIterator struct {
	tbl SampleTable

	chunkIndex   int    // Current chunk, -1 before the first one.
	chunkSamples int    // Samples in the current chunk.
	inChunk      int    // Samples already produced from the current chunk.
	pos          uint64 // Offset of the next sample in the current chunk.

	stscIndex int // Current sample-to-chunk run.

	sttsIndex int // Current time-to-sample run.
	sttsFirst int // Global index of the first sample of that run.

	index     int
	sample    mp4annexb.Sample
	err       error
	done      bool
	truncated bool
}

// NewSampleIterator validates tbl and returns an iterator positioned before
// the first sample.
func NewSampleIterator(tbl SampleTable) (*SampleIterator, error) {
	if err := tbl.validate(); err != nil {
		return nil, err
	}
	return &SampleIterator{tbl: tbl, chunkIndex: -1}, nil
}

// Next advances to the next sample. It returns false at the end of the table,
// when the size table runs out, or on error.
func (it *SampleIterator) Next() bool {
	if it.done || it.err != nil {
		return false
	}

	for it.inChunk >= it.chunkSamples {
		it.chunkIndex++
		if it.chunkIndex >= len(it.tbl.ChunkOffsets) {
			it.done = true
			return false
		}
		chunkNumber := uint64(it.chunkIndex) + 1 //nolint:gosec
		for it.stscIndex+1 < len(it.tbl.SampleToChunk) &&
			uint64(it.tbl.SampleToChunk[it.stscIndex+1].FirstChunk) <= chunkNumber {
			it.stscIndex++
		}
		it.chunkSamples = int(it.tbl.SampleToChunk[it.stscIndex].SamplesPerChunk)
		it.inChunk = 0
		it.pos = it.tbl.ChunkOffsets[it.chunkIndex]
	}

	size := it.tbl.Sizes.Uniform
	if size == 0 {
		if it.index >= len(it.tbl.Sizes.Entries) {
			it.truncated = true
			it.done = true
			logger.Warningf(it, "size table ends at %d samples, chunk %d expects more", it.index, it.chunkIndex)
			return false
		}
		size = it.tbl.Sizes.Entries[it.index]
	}
	if size == 0 {
		it.err = &ZeroSizeSampleError{Index: it.index}
		return false
	}

	// Samples past the last time-to-sample run keep that run's delta.
	stts := it.tbl.TimeToSample
	for it.sttsIndex+1 < len(stts) && it.index >= it.sttsFirst+int(stts[it.sttsIndex].Count) {
		it.sttsFirst += int(stts[it.sttsIndex].Count)
		it.sttsIndex++
	}

	it.sample = mp4annexb.Sample{
		ChunkIndex:  it.chunkIndex,
		ChunkOffset: it.tbl.ChunkOffsets[it.chunkIndex],
		Index:       it.index,
		Offset:      it.pos,
		Size:        size,
		Delta:       stts[it.sttsIndex].Delta,
	}
	it.pos += uint64(size)
	it.inChunk++
	it.index++
	return true
}

// Sample returns the sample produced by the last successful Next.
func (it *SampleIterator) Sample() mp4annexb.Sample {
	return it.sample
}

// Err returns the error that stopped the iteration, if any.
func (it *SampleIterator) Err() error {
	return it.err
}

// Truncated reports whether iteration stopped because the per-sample size
// table had fewer entries than the chunk layout implies.
func (it *SampleIterator) Truncated() bool {
	return it.truncated
}

// ResolveSamples drains an iterator over tbl. On error no samples are returned.
func ResolveSamples(tbl SampleTable) (samples []mp4annexb.Sample, truncated bool, err error) {
	it, err := NewSampleIterator(tbl)
	if err != nil {
		return nil, false, err
	}
	samples = make([]mp4annexb.Sample, 0, len(tbl.Sizes.Entries))
	for it.Next() {
		samples = append(samples, it.Sample())
	}
	if err = it.Err(); err != nil {
		return nil, false, err
	}
	return samples, it.Truncated(), nil
}
