// Package report exports a compiled build's bookkeeping to human-facing
// artifacts: a chunk-table spreadsheet and a palette/sprite manifest PDF.
package report

import (
	"github.com/hailam/kunopack/internal/kerr"
	"github.com/hailam/kunopack/internal/orchestrator"
	"github.com/xuri/excelize/v2"
)

const component = "report"

const sheetName = "Chunks"

// BuildReport writes one row per emitted chunk (spriteset, kind, chunk
// index) to an .xlsx file at path.
func BuildReport(result *orchestrator.Result, path string) error {
	f := excelize.NewFile()
	defer f.Close()

	f.SetSheetName("Sheet1", sheetName)
	headers := []string{"Spriteset", "Chunk Kind", "Chunk Index", "Sprites", "Cells"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheetName, cell, h)
	}

	row := 2
	for _, ss := range result.Spritesets {
		if ss.NumSprites == 0 {
			continue // an empty spriteset emits no chunks
		}
		kinds := []struct {
			name string
			idx  int
		}{
			{"palette", ss.PaletteChunk},
			{"sprite_table", ss.SpriteTableIdx},
			{"cell_pool", ss.CellPoolIdx},
		}
		for _, k := range kinds {
			setRow(f, row, ss.Name, k.name, k.idx, ss.NumSprites, ss.NumCells)
			row++
		}
	}

	if err := f.SaveAs(path); err != nil {
		return kerr.Wrap(kerr.IO, component, err)
	}
	return nil
}

func setRow(f *excelize.File, row int, spriteset, kind string, chunkIdx, numSprites, numCells int) {
	vals := []interface{}{spriteset, kind, chunkIdx, numSprites, numCells}
	for i, v := range vals {
		cell, _ := excelize.CoordinatesToCellName(i+1, row)
		f.SetCellValue(sheetName, cell, v)
	}
}
