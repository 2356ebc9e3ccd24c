package session

import "github.com/hailam/kunopack/internal/kerr"

const component = "session"

// Packer is the owned per-spriteset builder: the palette latch, the
// growing cell pool, and the sprite table. The orchestrator creates one per
// spriteset directive and discards it once its three chunks are emitted
// into the ROM container (spec.md §4.8, §5).
type Packer struct {
	palette    Palette
	hasPalette bool

	cells   []byte // CellBytes-byte records, append-only
	sprites []byte // 4-byte records, append-only

	numSprites int
}

// New returns an empty Packer.
func New() *Packer {
	return &Packer{}
}

// Reset clears all three pools, equivalent to starting a new spriteset.
func (p *Packer) Reset() {
	p.palette = Palette{}
	p.hasPalette = false
	p.cells = p.cells[:0]
	p.sprites = p.sprites[:0]
	p.numSprites = 0
}

// LatchPalette applies pal if no palette has been latched yet (palette-
// latch invariant: first palette wins, later ones are ignored). Returns
// true if pal was applied.
func (p *Packer) LatchPalette(pal Palette) bool {
	if p.hasPalette {
		return false
	}
	p.palette = pal
	p.hasPalette = true
	return true
}

// HasPalette reports whether a palette has been latched yet.
func (p *Packer) HasPalette() bool { return p.hasPalette }

// Palette returns the latched palette (zero value if none latched yet).
func (p *Packer) Palette() Palette { return p.palette }

// NumCells returns the number of cells currently in the pool.
func (p *Packer) NumCells() int { return len(p.cells) / CellBytes }

// NumSprites returns the number of sprite descriptors appended so far.
func (p *Packer) NumSprites() int { return p.numSprites }

// CellPoolBytes returns the raw packed cell pool, in insertion order.
func (p *Packer) CellPoolBytes() []byte { return p.cells }

// SpriteTableBytes returns the raw packed sprite table, in insertion
// order.
func (p *Packer) SpriteTableBytes() []byte { return p.sprites }

// ReserveCells checks that appending n cells would not exceed MaxCells,
// without committing anything. AppendCells calls it before writing, so
// that on failure nothing has been written (§4.5 "Overflow", §7
// per-operation atomicity).
func (p *Packer) ReserveCells(n int) error {
	if p.NumCells()+n > MaxCells {
		return kerr.New(kerr.Limit, component, "cell pool would exceed 2048 cells")
	}
	return nil
}

// AppendCells commits packed cell bytes to the pool. It checks capacity
// with ReserveCells itself and fails closed, appending nothing, if the
// byte count isn't a whole number of cells or the pool would overflow.
func (p *Packer) AppendCells(cells []byte) error {
	if len(cells)%CellBytes != 0 {
		return kerr.New(kerr.Invariant, component, "cell payload is not a multiple of 32 bytes")
	}
	if err := p.ReserveCells(len(cells) / CellBytes); err != nil {
		return err
	}
	p.cells = append(p.cells, cells...)
	return nil
}

// AddSpriteDescriptor appends one packed sprite-table entry. Fails if the
// table is already at MaxSprites.
func (p *Packer) AddSpriteDescriptor(desc SpriteDescriptor) error {
	if p.numSprites >= MaxSprites {
		return kerr.New(kerr.Limit, component, "sprite table is full")
	}
	packed := desc.Pack()
	p.sprites = append(p.sprites, packed[:]...)
	p.numSprites++
	return nil
}

// DropLastSprite removes the most recently added sprite descriptor. Used
// by the sprite assembler to roll back a descriptor when appending that
// sprite's cells subsequently fails (§4.6 atomicity).
func (p *Packer) DropLastSprite() {
	if p.numSprites == 0 {
		return
	}
	p.sprites = p.sprites[:len(p.sprites)-4]
	p.numSprites--
}

// PackedPalette renders the latched palette as 32 bytes (16 x u16 BE), the
// exact layout of the palette ROM chunk.
func (p *Packer) PackedPalette() []byte {
	out := make([]byte, 0, 32)
	for _, c := range p.palette {
		out = append(out, byte(c>>8), byte(c))
	}
	return out
}
