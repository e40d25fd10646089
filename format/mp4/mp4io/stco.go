package mp4io

import (
	"fmt"

	"github.com/ugparu/mp4annexb/utils/bits/pio"
)

func (c ChunkOffset) Tag() Tag {
	if c.Large {
		return CO64
	}
	return STCO
}

// ChunkOffset decodes both stco (32-bit) and co64 (64-bit) chunk offset boxes.
type ChunkOffset struct {
	Version uint8
	Flags   uint32
	Large   bool
	Entries []uint64
	AtomPos
}

func (c *ChunkOffset) Unmarshal(b []byte, offset int) (n int, err error) {
	(&c.AtomPos).setPos(offset, len(b))
	if c.Version, c.Flags, n, err = fullBox(b, bodyOffset(b), offset); err != nil {
		return
	}
	entrySize := 4
	if c.Large {
		entrySize = 8
	}
	var count int
	if count, n, err = entryCount(b, n, offset, entrySize); err != nil {
		return
	}
	c.Entries = make([]uint64, count)
	for i := range c.Entries {
		if c.Large {
			c.Entries[i] = pio.U64BE(b[n:])
		} else {
			c.Entries[i] = uint64(pio.U32BE(b[n:]))
		}
		n += entrySize
	}
	return
}

func (c ChunkOffset) Children() (r []Atom) {
	return
}

func (c ChunkOffset) String() string {
	return fmt.Sprintf("entries=%d", len(c.Entries))
}
