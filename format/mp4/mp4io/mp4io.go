// Package mp4io decodes the ISO BMFF box tree needed to locate video samples.
package mp4io

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ugparu/mp4annexb/utils/bits/pio"
)

const (
	HeaderSize         = 8
	extendedHeaderSize = 16
	fullBoxHeaderSize  = 4
)

type Tag uint32

func (t Tag) String() string {
	var b [4]byte
	pio.PutU32BE(b[:], uint32(t))
	for i := range 4 {
		if b[i] == 0 {
			b[i] = ' '
		}
	}
	return string(b[:])
}

func StringToTag(tag string) Tag {
	var b [4]byte
	copy(b[:], []byte(tag))
	return Tag(pio.U32BE(b[:]))
}

// Atom is a decoded box. Unmarshal receives the whole box, header included,
// and the absolute file offset of its first byte.
type Atom interface {
	Pos() (int, int)
	Tag() Tag
	Unmarshal([]byte, int) (int, error)
	Children() []Atom
}

type AtomPos struct {
	Offset int
	Size   int
}

func (p AtomPos) Pos() (int, int) {
	return p.Offset, p.Size
}

func (p *AtomPos) setPos(offset int, size int) {
	p.Offset, p.Size = offset, size
}

// Dummy keeps the position of a box that is not decoded.
type Dummy struct {
	Data []byte
	Tag_ Tag
	AtomPos
}

func (d Dummy) Children() []Atom {
	return nil
}

func (d Dummy) Tag() Tag {
	return d.Tag_
}

func (d *Dummy) Unmarshal(b []byte, offset int) (n int, err error) {
	(&d.AtomPos).setPos(offset, len(b))
	d.Data = b
	n = len(b)
	return
}

func FindChildrenByName(root Atom, tag string) Atom {
	return FindChildren(root, StringToTag(tag))
}

func FindChildren(root Atom, tag Tag) Atom {
	if root.Tag() == tag {
		return root
	}
	for _, child := range root.Children() {
		if r := FindChildren(child, tag); r != nil {
			return r
		}
	}
	return nil
}

// boxHeader reads the size and tag of the box starting at b[n:].
// A 64-bit size is honoured; size 0 extends the box to the end of b.
func boxHeader(b []byte, n int) (tag Tag, size, hdr int, err error) {
	if len(b) < n+HeaderSize {
		err = errors.New("short box header")
		return
	}
	size = int(pio.U32BE(b[n:]))
	tag = Tag(pio.U32BE(b[n+4:]))
	hdr = HeaderSize
	switch size {
	case 0:
		size = len(b) - n
	case 1:
		if len(b) < n+extendedHeaderSize {
			err = errors.New("short extended box header")
			return
		}
		size = int(pio.U64BE(b[n+HeaderSize:])) //nolint:gosec
		hdr = extendedHeaderSize
	}
	if size < hdr || len(b) < n+size {
		err = fmt.Errorf("box %s declares %d bytes, %d available", tag, size, len(b)-n)
	}
	return
}

// bodyOffset returns where the payload of box b starts.
func bodyOffset(b []byte) int {
	if len(b) >= extendedHeaderSize && pio.U32BE(b) == 1 {
		return extendedHeaderSize
	}
	return HeaderSize
}

// unmarshalChildren walks the boxes in b[n:] and hands each one to fn.
func unmarshalChildren(b []byte, n, offset int, fn func(tag Tag, box []byte, offset int) error) (err error) {
	for n+HeaderSize <= len(b) {
		tag, size, _, herr := boxHeader(b, n)
		if herr != nil {
			return parseErr("TagSizeInvalid", n+offset, herr)
		}
		if err = fn(tag, b[n:n+size], offset+n); err != nil {
			return parseErr(tag.String(), n+offset, err)
		}
		n += size
	}
	return nil
}

// unknownAtom wraps a box that is kept only for its position.
func unknownAtom(tag Tag, b []byte, offset int) Atom {
	atom := &Dummy{Tag_: tag}
	_, _ = atom.Unmarshal(b, offset)
	return atom
}

// fullBox reads version and flags of a full box body starting at n.
func fullBox(b []byte, n, offset int) (version uint8, flags uint32, _ int, err error) {
	if len(b) < n+fullBoxHeaderSize {
		err = parseErr("Version", n+offset, nil)
		return
	}
	version = pio.U8(b[n:])
	flags = pio.U24BE(b[n+1:])
	return version, flags, n + fullBoxHeaderSize, nil
}

// ReadFileAtoms lists the top level boxes of r. moov is decoded, every other
// box is recorded as a Dummy without reading its payload.
func ReadFileAtoms(r io.ReadSeeker) (atoms []Atom, err error) {
	var start, end int64
	if start, err = r.Seek(0, io.SeekCurrent); err != nil {
		return
	}
	if end, err = r.Seek(0, io.SeekEnd); err != nil {
		return
	}
	if _, err = r.Seek(start, io.SeekStart); err != nil {
		return
	}

	for {
		offset, _ := r.Seek(0, io.SeekCurrent)
		head := make([]byte, extendedHeaderSize)
		if _, err = io.ReadFull(r, head[:HeaderSize]); err != nil {
			if err == io.EOF {
				err = nil
			}
			return
		}
		size := int64(pio.U32BE(head[0:]))
		tag := Tag(pio.U32BE(head[4:]))
		hdr := int64(HeaderSize)

		switch size {
		case 1:
			if _, err = io.ReadFull(r, head[HeaderSize:]); err != nil {
				return
			}
			size = pio.I64BE(head[HeaderSize:])
			hdr = extendedHeaderSize
		case 0:
			size = end - offset
		}
		if size < hdr {
			err = parseErr("TagSizeInvalid", int(offset), nil)
			return
		}

		if tag == MOOV {
			if size > end-offset {
				err = parseErr("moov", int(offset), fmt.Errorf("box moov declares %d bytes, %d available", size, end-offset))
				return
			}
			b := make([]byte, size)
			copy(b, head[:hdr])
			if _, err = io.ReadFull(r, b[hdr:]); err != nil {
				return
			}
			atom := &Movie{}
			if _, err = atom.Unmarshal(b, int(offset)); err != nil {
				return
			}
			atoms = append(atoms, atom)
			continue
		}

		dummy := &Dummy{Tag_: tag}
		dummy.setPos(int(offset), int(size))
		atoms = append(atoms, dummy)
		if _, err = r.Seek(offset+size, io.SeekStart); err != nil {
			return
		}
	}
}

func printatom(out io.Writer, root Atom, depth int) {
	offset, size := root.Pos()

	type stringintf interface {
		String() string
	}

	fmt.Fprintf(out,
		"%s%s offset=%d size=%d",
		strings.Repeat(" ", depth*2), root.Tag(), offset, size,
	)
	if str, ok := root.(stringintf); ok {
		fmt.Fprint(out, " ", str.String())
	}
	fmt.Fprintln(out)

	for _, child := range root.Children() {
		printatom(out, child, depth+1)
	}
}

func FprintAtom(out io.Writer, root Atom) {
	printatom(out, root, 0)
}

func PrintAtom(root Atom) {
	FprintAtom(os.Stdout, root)
}
