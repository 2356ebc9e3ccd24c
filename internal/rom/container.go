// Package rom implements the ROM container engine: a self-referential
// chunk table with relative offsets, in-place insertion by sliding
// subsequent regions, and size/offset validation before serialization
// (spec.md §4.7).
package rom

import (
	"os"

	"github.com/hailam/kunopack/internal/bigend"
	"github.com/hailam/kunopack/internal/kerr"
)

const component = "rom"

// MaxROMSize bounds the entire serialized container (I1).
const MaxROMSize = 4 * 1024 * 1024

// MaxChunks bounds the 16-bit chunk count field.
const MaxChunks = 65535

const (
	headerSize = 2 // u16 chunk count
	entrySize  = 6 // u24 addr + u24 size
)

var signature = []byte("KUNOICHI")
var cartType = []byte("CART")

// Container is the monolithic ROM byte buffer plus its chunk table,
// grown and shifted in place the way the source's single fixed buffer
// would be, but as an owned Go value instead of module-scope globals
// (Design Notes, spec.md §9).
type Container struct {
	buf   []byte
	count int
}

// New returns a Container that has been cleared and formatted (count=0).
func New() *Container {
	c := &Container{}
	c.Format()
	return c
}

// Clear zeroes the container back to an empty buffer.
func (c *Container) Clear() {
	c.buf = c.buf[:0]
	c.count = 0
}

// Format clears the container and writes the 2-byte chunk count header.
func (c *Container) Format() {
	c.Clear()
	c.buf = append(c.buf, 0, 0)
}

// Count returns the number of chunk-table entries.
func (c *Container) Count() int { return c.count }

// Size returns the current total buffer length.
func (c *Container) Size() int { return len(c.buf) }

// Bytes returns the raw serialized container (header + table + data),
// without the file signature/type preamble that Save adds.
func (c *Container) Bytes() []byte { return c.buf }

// FromBytes wraps an already-serialized flat container (such as a nested
// layout's folder payload) for read-only validation.
func FromBytes(buf []byte) (*Container, error) {
	if len(buf) < headerSize {
		return nil, kerr.New(kerr.Invariant, component, "container buffer shorter than header")
	}
	count := bigend.U16(buf[0:2])
	out := make([]byte, len(buf))
	copy(out, buf)
	return &Container{buf: out, count: int(count)}, nil
}

// Load reads a .kn1 file written by Save, checks its signature and type,
// and returns the flat container beneath them.
func Load(path string) (*Container, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, kerr.Wrap(kerr.IO, component, err)
	}
	preamble := len(signature) + len(cartType)
	if len(data) < preamble {
		return nil, kerr.New(kerr.Format, component, "file too short to contain a rom header")
	}
	if string(data[:len(signature)]) != string(signature) {
		return nil, kerr.New(kerr.Format, component, "bad rom signature")
	}
	if string(data[len(signature):preamble]) != string(cartType) {
		return nil, kerr.New(kerr.Format, component, "bad rom type")
	}
	c, err := FromBytes(data[preamble:])
	if err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Container) tableEnd() int { return headerSize + c.count*entrySize }

// CreateChunk allocates an (entry, payload) pair: it slides the data
// block down 6 bytes to make room for a new table entry, appends n zero
// bytes of payload, and records addr = previous data-block size, size =
// n. It fails, leaving the container unchanged, if the chunk count would
// reach MaxChunks, n is zero, or the buffer would exceed MaxROMSize
// (spec.md §4.7, §3 I4).
func (c *Container) CreateChunk(n int) (index int, err error) {
	if n <= 0 {
		return 0, kerr.New(kerr.Invariant, component, "chunk size must be greater than zero")
	}
	if c.count+1 >= MaxChunks {
		return 0, kerr.New(kerr.Limit, component, "chunk table is full")
	}
	newSize := len(c.buf) + entrySize + n
	if newSize > MaxROMSize {
		return 0, kerr.New(kerr.Limit, component, "rom buffer would exceed 4 MiB")
	}

	oldLen := len(c.buf)
	tableEnd := c.tableEnd()
	dataLen := oldLen - tableEnd

	// Slide the data block down by entrySize to make room for the new
	// table entry (tolerates overlap: copy is memmove-safe in Go).
	c.buf = append(c.buf, make([]byte, entrySize)...)
	copy(c.buf[tableEnd+entrySize:oldLen+entrySize], c.buf[tableEnd:oldLen])
	for i := tableEnd; i < tableEnd+entrySize; i++ {
		c.buf[i] = 0
	}

	payloadAddr := dataLen
	c.buf = append(c.buf, make([]byte, n)...)

	bigend.PutU24(c.buf[tableEnd:tableEnd+3], uint32(payloadAddr))
	bigend.PutU24(c.buf[tableEnd+3:tableEnd+6], uint32(n))

	c.count++
	bigend.PutU16(c.buf[0:2], uint16(c.count))

	return c.count - 1, nil
}

// payloadOffset returns the absolute buffer offset of chunk idx's
// payload, recomputed from the table (not cached), so it stays correct
// across later insertions that shift the data block.
func (c *Container) payloadOffset(idx int) (int, error) {
	if idx < 0 || idx >= c.count {
		return 0, kerr.New(kerr.Invariant, component, "chunk index out of range")
	}
	entryOff := headerSize + idx*entrySize
	addr := bigend.U24(c.buf[entryOff : entryOff+3])
	return c.tableEnd() + int(addr), nil
}

// Payload returns a copy of chunk idx's raw bytes.
func (c *Container) Payload(idx int) ([]byte, error) {
	if idx < 0 || idx >= c.count {
		return nil, kerr.New(kerr.Invariant, component, "chunk index out of range")
	}
	entryOff := headerSize + idx*entrySize
	size := int(bigend.U24(c.buf[entryOff+3 : entryOff+6]))
	off, err := c.payloadOffset(idx)
	if err != nil {
		return nil, err
	}
	out := make([]byte, size)
	copy(out, c.buf[off:off+size])
	return out, nil
}

// AddChunkBytes creates a new chunk sized to len(data) and copies data
// into it, returning the new chunk's index.
func (c *Container) AddChunkBytes(data []byte) (int, error) {
	idx, err := c.CreateChunk(len(data))
	if err != nil {
		return 0, err
	}
	off, err := c.payloadOffset(idx)
	if err != nil {
		return 0, err
	}
	copy(c.buf[off:off+len(data)], data)
	return idx, nil
}

// AddChunkWords is AddChunkBytes for a slice of 16-bit values, each
// written big-endian.
func (c *Container) AddChunkWords(words []uint16) (int, error) {
	data := make([]byte, 2*len(words))
	for i, w := range words {
		bigend.PutU16(data[2*i:2*i+2], w)
	}
	return c.AddChunkBytes(data)
}

// Validate re-walks the table read directly from the buffer (not from
// cached bookkeeping) so it also catches external corruption: the header
// count matches the internal entry count, every addr is the prefix sum of
// prior sizes, every size is positive, and the sizes sum to exactly the
// data block size (spec.md §4.7 "validate", §3 I1-I5).
func (c *Container) Validate() error {
	if len(c.buf) < headerSize {
		return kerr.New(kerr.Invariant, component, "container shorter than header")
	}
	headerCount := int(bigend.U16(c.buf[0:2]))
	if headerCount != c.count {
		return kerr.New(kerr.Invariant, component, "header chunk count does not match table")
	}

	tableEnd := headerSize + headerCount*entrySize
	if tableEnd > len(c.buf) {
		return kerr.New(kerr.Invariant, component, "chunk table extends past buffer")
	}
	dataSize := len(c.buf) - tableEnd

	var expectedAddr, sumSizes uint32
	for i := 0; i < headerCount; i++ {
		off := headerSize + i*entrySize
		addr := bigend.U24(c.buf[off : off+3])
		size := bigend.U24(c.buf[off+3 : off+6])
		if size == 0 {
			return kerr.New(kerr.Invariant, component, "chunk size must be nonzero")
		}
		if addr != expectedAddr {
			return kerr.New(kerr.Invariant, component, "chunk address is not the prefix sum of prior sizes")
		}
		expectedAddr += size
		sumSizes += size
	}
	if sumSizes != uint32(dataSize) {
		return kerr.New(kerr.Invariant, component, "chunk sizes do not sum to the data block size")
	}
	if len(c.buf) > MaxROMSize {
		return kerr.New(kerr.Invariant, component, "rom exceeds 4 MiB")
	}
	return nil
}

// Save validates the container, then writes it to path as:
// "KUNOICHI" (8 bytes), "CART" (4 bytes), then the raw container bytes.
// The file handle is closed on every exit path, and no file is created
// if validation fails (spec.md §4.7, §7 "no .kn1 file is written on
// failure").
func (c *Container) Save(path string) error {
	if err := c.Validate(); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return kerr.Wrap(kerr.IO, component, err)
	}
	defer f.Close()

	for _, chunk := range [][]byte{signature, cartType, c.buf} {
		if _, err := f.Write(chunk); err != nil {
			return kerr.Wrap(kerr.IO, component, err)
		}
	}
	return nil
}
