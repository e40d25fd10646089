package mp4io

import (
	"errors"
	"fmt"
	"strings"
)

// ParseError locates a field that could not be decoded. Each enclosing box
// adds one link, so the outermost error names the full box path.
type ParseError struct {
	Debug  string
	Offset int
	prev   *ParseError
}

// Path lists the box names from the outermost box down to the failed field.
func (p *ParseError) Path() (path []string) {
	for err := p; err != nil; err = err.prev {
		path = append(path, err.Debug)
	}
	return
}

// Leaf returns the innermost link, the one holding the failed field.
func (p *ParseError) Leaf() *ParseError {
	leaf := p
	for leaf.prev != nil {
		leaf = leaf.prev
	}
	return leaf
}

func (p *ParseError) Error() string {
	path := p.Path()
	leaf := p.Leaf()
	if len(path) == 1 {
		return fmt.Sprintf("mp4io: bad %s at offset %d", leaf.Debug, leaf.Offset)
	}
	return fmt.Sprintf("mp4io: %s: bad %s at offset %d",
		strings.Join(path[:len(path)-1], "/"), leaf.Debug, leaf.Offset)
}

// parseErr links a new location onto prev. Errors that are not ParseErrors
// are returned unchanged.
func parseErr(debug string, offset int, prev error) error {
	var ppe *ParseError
	if prev != nil && !errors.As(prev, &ppe) {
		return prev
	}
	return &ParseError{Debug: debug, Offset: offset, prev: ppe}
}
