package mp4

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/ugparu/mp4annexb"
)

func TestResolveSamplesTwoChunks(t *testing.T) {
	t.Parallel()

	tbl := SampleTable{
		ChunkOffsets:  []uint64{100, 500},
		SampleToChunk: []SampleToChunkEntry{{FirstChunk: 1, SamplesPerChunk: 2}},
		Sizes:         SampleSizes{Uniform: 50},
		TimeToSample:  []TimeToSampleEntry{{Count: 2, Delta: 1000}},
	}
	samples, truncated, err := ResolveSamples(tbl)
	require.NoError(t, err)
	require.False(t, truncated)
	require.Equal(t, []mp4annexb.Sample{
		{ChunkIndex: 0, ChunkOffset: 100, Index: 0, Offset: 100, Size: 50, Delta: 1000},
		{ChunkIndex: 0, ChunkOffset: 100, Index: 1, Offset: 150, Size: 50, Delta: 1000},
		{ChunkIndex: 1, ChunkOffset: 500, Index: 2, Offset: 500, Size: 50, Delta: 1000},
		{ChunkIndex: 1, ChunkOffset: 500, Index: 3, Offset: 550, Size: 50, Delta: 1000},
	}, samples)
}

func TestResolveSamplesZeroSize(t *testing.T) {
	t.Parallel()

	tbl := SampleTable{
		ChunkOffsets:  []uint64{0},
		SampleToChunk: []SampleToChunkEntry{{FirstChunk: 1, SamplesPerChunk: 2}},
		Sizes:         SampleSizes{Entries: []uint32{10, 0}},
		TimeToSample:  []TimeToSampleEntry{{Count: 2, Delta: 1}},
	}

	it, err := NewSampleIterator(tbl)
	require.NoError(t, err)
	require.True(t, it.Next())
	require.Equal(t, uint32(10), it.Sample().Size)
	require.False(t, it.Next())

	var zErr *ZeroSizeSampleError
	require.ErrorAs(t, it.Err(), &zErr)
	require.Equal(t, 1, zErr.Index)
	require.ErrorIs(t, it.Err(), ErrZeroSizeSample)
	require.False(t, it.Next())

	samples, _, err := ResolveSamples(tbl)
	require.ErrorIs(t, err, ErrZeroSizeSample)
	require.Nil(t, samples)
}

func TestResolveSamplesRunChanges(t *testing.T) {
	t.Parallel()

	tbl := SampleTable{
		ChunkOffsets: []uint64{0, 1000, 2000, 3000},
		SampleToChunk: []SampleToChunkEntry{
			{FirstChunk: 1, SamplesPerChunk: 3},
			{FirstChunk: 3, SamplesPerChunk: 1},
		},
		Sizes:        SampleSizes{Entries: []uint32{1, 2, 3, 4, 5, 6, 7, 8}},
		TimeToSample: []TimeToSampleEntry{{Count: 5, Delta: 10}, {Count: 3, Delta: 20}},
	}
	samples, truncated, err := ResolveSamples(tbl)
	require.NoError(t, err)
	require.False(t, truncated)
	require.Len(t, samples, 8)

	wantOffsets := []uint64{0, 1, 3, 1000, 1004, 1009, 2000, 3000}
	wantChunks := []int{0, 0, 0, 1, 1, 1, 2, 3}
	for i, s := range samples {
		require.Equal(t, i, s.Index)
		require.Equal(t, wantOffsets[i], s.Offset, "sample %d", i)
		require.Equal(t, wantChunks[i], s.ChunkIndex, "sample %d", i)
		require.Equal(t, uint32(i+1), s.Size) //nolint:gosec
		if i < 5 {
			require.Equal(t, uint32(10), s.Delta)
		} else {
			require.Equal(t, uint32(20), s.Delta)
		}
	}
}

func TestResolveSamplesShortSizeTable(t *testing.T) {
	t.Parallel()

	tbl := SampleTable{
		ChunkOffsets:  []uint64{0, 100},
		SampleToChunk: []SampleToChunkEntry{{FirstChunk: 1, SamplesPerChunk: 2}},
		Sizes:         SampleSizes{Entries: []uint32{10, 20, 30}},
		TimeToSample:  []TimeToSampleEntry{{Count: 4, Delta: 1}},
	}
	samples, truncated, err := ResolveSamples(tbl)
	require.NoError(t, err)
	require.True(t, truncated)
	require.Len(t, samples, 3)
	require.Equal(t, uint64(100), samples[2].Offset)
}

func TestResolveSamplesNoChunks(t *testing.T) {
	t.Parallel()

	tbl := SampleTable{
		SampleToChunk: []SampleToChunkEntry{{FirstChunk: 1, SamplesPerChunk: 1}},
		Sizes:         SampleSizes{Uniform: 4},
		TimeToSample:  []TimeToSampleEntry{{Count: 1, Delta: 1}},
	}
	samples, truncated, err := ResolveSamples(tbl)
	require.NoError(t, err)
	require.False(t, truncated)
	require.Empty(t, samples)
}

func TestNewSampleIteratorRejectsBadTables(t *testing.T) {
	t.Parallel()

	valid := func() SampleTable {
		return SampleTable{
			ChunkOffsets:  []uint64{0, 10},
			SampleToChunk: []SampleToChunkEntry{{FirstChunk: 1, SamplesPerChunk: 1}, {FirstChunk: 2, SamplesPerChunk: 1}},
			Sizes:         SampleSizes{Uniform: 1},
			TimeToSample:  []TimeToSampleEntry{{Count: 2, Delta: 1}},
		}
	}

	tests := []struct {
		name   string
		modify func(*SampleTable)
		want   error
	}{
		{"no stsc", func(tbl *SampleTable) { tbl.SampleToChunk = nil }, ErrMissingTable},
		{"no stts", func(tbl *SampleTable) { tbl.TimeToSample = nil }, ErrMissingTable},
		{"first run not chunk 1", func(tbl *SampleTable) { tbl.SampleToChunk[0].FirstChunk = 2 }, ErrMalformedTable},
		{"empty run", func(tbl *SampleTable) { tbl.SampleToChunk[1].SamplesPerChunk = 0 }, ErrMalformedTable},
		{"unsorted runs", func(tbl *SampleTable) { tbl.SampleToChunk[1].FirstChunk = 1 }, ErrMalformedTable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			tbl := valid()
			tt.modify(&tbl)
			it, err := NewSampleIterator(tbl)
			require.ErrorIs(t, err, tt.want)
			require.Nil(t, it)
		})
	}
}

func TestResolveSamplesLayoutProperties(t *testing.T) {
	t.Parallel()

	rnd := rand.New(rand.NewPCG(1, 2)) //nolint:gosec
	for range 50 {
		chunks := 1 + rnd.IntN(20)
		tbl := SampleTable{}
		var perChunk []int
		for c := range chunks {
			tbl.ChunkOffsets = append(tbl.ChunkOffsets, uint64(c)*100_000) //nolint:gosec
			if c == 0 || rnd.IntN(3) == 0 {
				spc := 1 + rnd.IntN(5)
				tbl.SampleToChunk = append(tbl.SampleToChunk, SampleToChunkEntry{
					FirstChunk: uint32(c + 1), SamplesPerChunk: uint32(spc), //nolint:gosec
				})
			}
			perChunk = append(perChunk, int(tbl.SampleToChunk[len(tbl.SampleToChunk)-1].SamplesPerChunk))
		}
		total := 0
		for _, n := range perChunk {
			total += n
		}
		for range total {
			tbl.Sizes.Entries = append(tbl.Sizes.Entries, uint32(1+rnd.IntN(1000))) //nolint:gosec
		}
		for left := total; left > 0; {
			n := min(left, 1+rnd.IntN(4))
			tbl.TimeToSample = append(tbl.TimeToSample, TimeToSampleEntry{Count: uint32(n), Delta: uint32(rnd.IntN(5000))}) //nolint:gosec
			left -= n
		}

		samples, truncated, err := ResolveSamples(tbl)
		require.NoError(t, err)
		require.False(t, truncated)
		require.Len(t, samples, total)

		run, inRun := 0, 0
		for i, s := range samples {
			require.Equal(t, i, s.Index)
			if i > 0 && samples[i-1].ChunkIndex == s.ChunkIndex {
				require.Equal(t, samples[i-1].End(), s.Offset)
			} else {
				require.Equal(t, tbl.ChunkOffsets[s.ChunkIndex], s.Offset)
			}
			require.Equal(t, tbl.TimeToSample[run].Delta, s.Delta)
			if inRun++; inRun == int(tbl.TimeToSample[run].Count) {
				run, inRun = run+1, 0
			}
		}
	}
}
