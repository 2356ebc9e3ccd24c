package rom

func init() {
	RegisterLayout("flat", func() Layout { return newFlatLayout() })
}

// flatLayout is the canonical layout: every spriteset's three chunks go
// straight into one top-level chunk table (spec.md §4.7).
type flatLayout struct {
	c *Container
}

func newFlatLayout() *flatLayout {
	return &flatLayout{c: New()}
}

func (f *flatLayout) AddSpriteset(name string, palette, spriteTable, cellPool []byte) ([3]int, error) {
	var indices [3]int
	for i, chunk := range [][]byte{palette, spriteTable, cellPool} {
		idx, err := f.c.AddChunkBytes(chunk)
		if err != nil {
			return indices, err
		}
		indices[i] = idx
	}
	return indices, nil
}

func (f *flatLayout) Validate() error { return f.c.Validate() }

func (f *flatLayout) Save(path string) error { return f.c.Save(path) }
