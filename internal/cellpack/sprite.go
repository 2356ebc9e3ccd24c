package cellpack

import (
	"github.com/hailam/kunopack/internal/gifdecoder"
	"github.com/hailam/kunopack/internal/session"
)

// AssembleSprite reduces ping-pong animation, packs the resulting frames
// into cells, and appends one sprite descriptor plus its cells to p.
// first_cell_index is the pool length before the cells are appended. The
// frames are packed before anything is committed; if appending the cells
// then fails (pool overflow), the just-added descriptor is dropped again,
// so the sprite table and cell pool are never left inconsistent
// (spec.md §4.6, §7).
func AssembleSprite(p *session.Packer, gif *gifdecoder.Result, loop bool) error {
	frames, pingPong := ReducePingPong(gif.Frames)

	firstCellIndex := p.NumCells()
	desc := session.SpriteDescriptor{
		FirstCellIndex: firstCellIndex,
		Loop:           loop,
		PingPong:       pingPong,
		AnimTicks:      gif.AnimTicks,
	}

	// Cell packing can fail (malformed dimensions, too many frames);
	// compute it before adding the descriptor so such an error needs no
	// rollback. first_cell_index only needs to be known, not committed,
	// ahead of packing. Pool overflow is detected by AppendCells below.
	packed, cols, rows, numFrames, err := PackFrames(frames)
	if err != nil {
		return err
	}
	desc.Columns = cols
	desc.Rows = rows
	desc.NumFrames = numFrames

	if err := p.AddSpriteDescriptor(desc); err != nil {
		return err
	}
	if err := p.AppendCells(packed); err != nil {
		p.DropLastSprite()
		return err
	}
	return nil
}
