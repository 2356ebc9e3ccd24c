package rom

import (
	"github.com/hailam/kunopack/internal/bigend"
	"github.com/hailam/kunopack/internal/kerr"
)

// Folder groups chunk payloads that belong under one named slot of a
// nested-layout top-level table (spec.md §6).
type Folder struct {
	Name   string
	Chunks [][]byte
}

// BuildNested serializes folders into a two-level container: a flat
// top-level table whose entries are themselves complete flat containers
// (one per folder, in order), each holding that folder's chunks. The
// nested table reuses the exact same entry format as the top-level one,
// so the same Validate logic applies at both levels without change.
func BuildNested(folders []Folder) (*Container, error) {
	outer := New()
	for _, f := range folders {
		inner := New()
		for _, payload := range f.Chunks {
			if _, err := inner.AddChunkBytes(payload); err != nil {
				return nil, kerr.Wrap(kerr.Invariant, component, err)
			}
		}
		if err := inner.Validate(); err != nil {
			return nil, err
		}
		if _, err := outer.AddChunkBytes(inner.Bytes()); err != nil {
			return nil, err
		}
	}
	return outer, nil
}

// ValidateNested validates the outer table and then, for each outer
// chunk, reparses its payload as a nested flat container and validates
// that in turn. A folder with zero chunks is a legal empty flat
// container (format() with count=0) and validates trivially.
func ValidateNested(outer *Container) error {
	if err := outer.Validate(); err != nil {
		return err
	}
	for i := 0; i < outer.Count(); i++ {
		off, err := outer.payloadOffset(i)
		if err != nil {
			return err
		}
		entryOff := headerSize + i*entrySize
		size := int(bigend.U24(outer.buf[entryOff+3 : entryOff+6]))
		inner, err := FromBytes(outer.buf[off : off+size])
		if err != nil {
			return err
		}
		if err := inner.Validate(); err != nil {
			return kerr.Wrap(kerr.Invariant, component, err)
		}
	}
	return nil
}
