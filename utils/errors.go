package utils

import "fmt"

// UnsupportedCodecError reports a track whose sample entry is not handled.
type UnsupportedCodecError struct {
	TrackID uint32
	Format  string
}

// Error returns the error message for UnsupportedCodecError.
func (e UnsupportedCodecError) Error() string {
	return fmt.Sprintf("track %d: unsupported sample entry %q", e.TrackID, e.Format)
}

// NoCodecDataError represents an error indicating that no codec configuration was provided.
type NoCodecDataError struct {
	TrackID uint32
}

// Error returns the error message for NoCodecDataError.
func (e NoCodecDataError) Error() string {
	return fmt.Sprintf("track %d: no codec data", e.TrackID)
}
