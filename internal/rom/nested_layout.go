package rom

import (
	"os"

	"github.com/hailam/kunopack/internal/kerr"
)

func init() {
	RegisterLayout("nested", func() Layout { return newNestedLayout() })
}

// nestedLayout puts each spriteset in its own named folder: a folder's
// nested table holds exactly that spriteset's three chunks (palette,
// sprite table, cell pool), and the top-level table holds one entry per
// folder (spec.md §6).
type nestedLayout struct {
	folders []Folder
}

func newNestedLayout() *nestedLayout {
	return &nestedLayout{}
}

func (n *nestedLayout) AddSpriteset(name string, palette, spriteTable, cellPool []byte) ([3]int, error) {
	n.folders = append(n.folders, Folder{
		Name:   name,
		Chunks: [][]byte{palette, spriteTable, cellPool},
	})
	return [3]int{0, 1, 2}, nil
}

func (n *nestedLayout) build() (*Container, error) {
	return BuildNested(n.folders)
}

func (n *nestedLayout) Validate() error {
	outer, err := n.build()
	if err != nil {
		return err
	}
	return ValidateNested(outer)
}

func (n *nestedLayout) Save(path string) error {
	outer, err := n.build()
	if err != nil {
		return err
	}
	if err := ValidateNested(outer); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return kerr.Wrap(kerr.IO, component, err)
	}
	defer f.Close()

	for _, chunk := range [][]byte{signature, cartType, outer.Bytes()} {
		if _, err := f.Write(chunk); err != nil {
			return kerr.Wrap(kerr.IO, component, err)
		}
	}
	return nil
}
