package report

import (
	"github.com/hailam/kunopack/internal/kerr"
	"github.com/hailam/kunopack/internal/orchestrator"
	"github.com/hailam/kunopack/internal/session"
	"github.com/signintech/gopdf"
)

const (
	swatchSize   = 12.0
	swatchGap    = 4.0
	marginLeft   = 20.0
	marginTop    = 20.0
	rowHeight    = 40.0
	swatchesWide = 4
)

// Manifest renders one page per spriteset: a 4x4 grid of palette swatches
// followed by a row of placeholder rectangles, one per sprite, at path.
// It draws shapes only (no embedded font), since an uncorrupted vector
// palette grid is the part of a build a human actually needs to sanity
// check by eye.
func Manifest(result *orchestrator.Result, path string) error {
	pdf := &gopdf.GoPdf{}
	pdf.Start(gopdf.Config{PageSize: *gopdf.PageSizeA4})

	for _, ss := range result.Spritesets {
		pdf.AddPage()
		drawPalette(pdf, ss.Palette)
		drawSpriteRow(pdf, ss.NumSprites)
	}

	if err := pdf.WritePdf(path); err != nil {
		return kerr.Wrap(kerr.IO, component, err)
	}
	return nil
}

func drawPalette(pdf *gopdf.GoPdf, pal session.Palette) {
	for i, c := range pal {
		r, g, b := unpackRGB(c)
		col := i % swatchesWide
		row := i / swatchesWide
		x := marginLeft + float64(col)*(swatchSize+swatchGap)
		y := marginTop + float64(row)*(swatchSize+swatchGap)

		pdf.SetFillColor(r, g, b)
		pdf.RectFromUpperLeftWithStyle(x, y, swatchSize, swatchSize, "F")
	}
}

func drawSpriteRow(pdf *gopdf.GoPdf, numSprites int) {
	paletteRows := len(session.Palette{}) / swatchesWide
	y := marginTop + float64(paletteRows)*(swatchSize+swatchGap) + rowHeight
	pdf.SetFillColor(60, 60, 60)
	for i := 0; i < numSprites; i++ {
		x := marginLeft + float64(i)*(swatchSize+swatchGap)
		pdf.RectFromUpperLeftWithStyle(x, y, swatchSize, swatchSize, "F")
	}
}

// unpackRGB expands a 15-bit 0RRRRRGGGGGBBBBB color to 8-bit channels by
// replicating the top bits into the low ones, the inverse of
// session.NewColor's truncation.
func unpackRGB(c session.Color) (r, g, b uint8) {
	v := uint16(c)
	r5 := uint8((v >> 10) & 0x1F)
	g5 := uint8((v >> 5) & 0x1F)
	b5 := uint8(v & 0x1F)
	return expand5to8(r5), expand5to8(g5), expand5to8(b5)
}

func expand5to8(v uint8) uint8 {
	return (v << 3) | (v >> 2)
}
