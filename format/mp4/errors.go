package mp4

import (
	"errors"
	"fmt"
)

var (
	ErrMissingTable    = errors.New("mp4: required sample table is empty")
	ErrMalformedTable  = errors.New("mp4: malformed sample table")
	ErrZeroSizeSample  = errors.New("mp4: zero size sample")
	ErrUnitOverrun     = errors.New("mp4: NAL unit length runs past the sample")
	ErrSourceExhausted = errors.New("mp4: source ended inside a sample")
	ErrNoMovie         = errors.New("mp4: 'moov' atom not found")
)

// ZeroSizeSampleError carries the global index of the offending sample.
// It matches ErrZeroSizeSample with errors.Is.
type ZeroSizeSampleError struct {
	Index int
}

func (e *ZeroSizeSampleError) Error() string {
	return fmt.Sprintf("%s at index %d", ErrZeroSizeSample, e.Index)
}

func (e *ZeroSizeSampleError) Is(target error) bool {
	return target == ErrZeroSizeSample
}

// TrackError records why a single track was dropped during demuxing.
type TrackError struct {
	TrackID uint32
	Err     error
}

func (e *TrackError) Error() string {
	return fmt.Sprintf("mp4: track %d: %v", e.TrackID, e.Err)
}

func (e *TrackError) Unwrap() error {
	return e.Err
}
