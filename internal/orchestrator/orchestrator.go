// Package orchestrator drives one compile pass end to end: parse a
// manifest, decode and pack each spriteset's sprites, and emit the
// resulting chunks into a rom.Layout (spec.md §4.8).
package orchestrator

import (
	"fmt"
	"io"
	"os"

	"github.com/hailam/kunopack/internal/cellpack"
	"github.com/hailam/kunopack/internal/config"
	"github.com/hailam/kunopack/internal/gifdecoder"
	"github.com/hailam/kunopack/internal/kerr"
	"github.com/hailam/kunopack/internal/rom"
	"github.com/hailam/kunopack/internal/session"
	"github.com/hailam/kunopack/internal/walker"
)

const component = "orchestrator"

// SpritesetReport summarizes one compiled spriteset for the build report
// and manifest subcommands.
type SpritesetReport struct {
	Name           string
	NumSprites     int
	NumCells       int
	PaletteChunk   int
	SpriteTableIdx int
	CellPoolIdx    int
	Palette        session.Palette
}

// Result is everything a compile pass produces: the populated layout plus
// per-spriteset bookkeeping for downstream reporting.
type Result struct {
	Layout     rom.Layout
	Spritesets []SpritesetReport
}

// Progress is notified at each spriteset boundary so a CLI can drive a
// spinner or progress bar without orchestrator depending on any UI
// library directly.
type Progress interface {
	StartSpriteset(name string)
	FinishSpriteset(name string)
}

type noopProgress struct{}

func (noopProgress) StartSpriteset(string) {}
func (noopProgress) FinishSpriteset(string) {}

// Compile parses the manifest read from r (whose sprite filenames are
// resolved relative to baseDir), decodes every sprite's GIF, and writes
// three chunks per spriteset into a freshly constructed layout of the
// given name ("flat" or "nested"). A spriteset with no sprites writes no
// chunks.
func Compile(r io.Reader, baseDir, layoutName string, progress Progress) (*Result, error) {
	if progress == nil {
		progress = noopProgress{}
	}

	spritesets, err := config.Parse(r)
	if err != nil {
		return nil, err
	}

	layout, err := rom.ForLayout(layoutName)
	if err != nil {
		return nil, kerr.Wrap(kerr.Invariant, component, err)
	}

	result := &Result{Layout: layout}

	for _, ss := range spritesets {
		progress.StartSpriteset(ss.Name)
		report, err := compileSpriteset(layout, baseDir, ss)
		progress.FinishSpriteset(ss.Name)
		if err != nil {
			return nil, kerr.Wrap(kerr.Invariant, component, fmt.Errorf("spriteset %q: %w", ss.Name, err))
		}
		result.Spritesets = append(result.Spritesets, report)
	}

	return result, nil
}

func compileSpriteset(layout rom.Layout, baseDir string, ss config.Spriteset) (SpritesetReport, error) {
	p := session.New()

	for _, entry := range ss.Sprites {
		path, err := walker.ResolvePath(baseDir, entry.Filename)
		if err != nil {
			return SpritesetReport{}, err
		}

		f, err := os.Open(path)
		if err != nil {
			return SpritesetReport{}, kerr.Wrap(kerr.IO, component, err)
		}
		res, err := gifdecoder.Decode(f)
		closeErr := f.Close()
		if err != nil {
			return SpritesetReport{}, err
		}
		if closeErr != nil {
			return SpritesetReport{}, kerr.Wrap(kerr.IO, component, closeErr)
		}

		p.LatchPalette(res.Palette)

		// A single-frame sprite never loops; a multi-frame one always
		// does (the manifest carries no independent per-sprite loop
		// flag to override this).
		loop := len(res.Frames) > 1
		if err := cellpack.AssembleSprite(p, res, loop); err != nil {
			return SpritesetReport{}, err
		}
	}

	var paletteIdx, spriteTableIdx, cellPoolIdx int
	if p.NumSprites() > 0 {
		var err error
		paletteIdx, spriteTableIdx, cellPoolIdx, err = emitChunks(layout, ss.Name, p)
		if err != nil {
			return SpritesetReport{}, err
		}
	}

	return SpritesetReport{
		Name:           ss.Name,
		NumSprites:     p.NumSprites(),
		NumCells:       p.NumCells(),
		PaletteChunk:   paletteIdx,
		SpriteTableIdx: spriteTableIdx,
		CellPoolIdx:    cellPoolIdx,
		Palette:        p.Palette(),
	}, nil
}

func emitChunks(layout rom.Layout, name string, p *session.Packer) (paletteIdx, spriteTableIdx, cellPoolIdx int, err error) {
	indices, err := layout.AddSpriteset(name, p.PackedPalette(), p.SpriteTableBytes(), p.CellPoolBytes())
	if err != nil {
		return 0, 0, 0, err
	}
	return indices[0], indices[1], indices[2], nil
}
