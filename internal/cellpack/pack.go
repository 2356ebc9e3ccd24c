package cellpack

import (
	"github.com/hailam/kunopack/internal/bigend"
	"github.com/hailam/kunopack/internal/kerr"
	"github.com/hailam/kunopack/internal/session"
)

const component = "cellpack"

// PackFrames converts a multi-frame, equally-sized canvas into the packed
// cell layout (spec.md §4.5). It returns the packed bytes (ready to
// append to the cell pool), plus the frame_columns/frame_rows/num_frames
// a sprite descriptor needs. It performs no pool mutation itself — the
// caller commits the result atomically (spec.md §4.6, §7).
//
// Ordering: frames outermost; within a frame, cy outer / cx inner; within
// a cell, py outer / px inner; px=even packs into the high nibble.
func PackFrames(frames []session.Frame) (packed []byte, cols, rows, numFrames int, err error) {
	if len(frames) == 0 {
		return nil, 0, 0, 0, kerr.New(kerr.Format, component, "no frames to pack")
	}
	if len(frames) > session.MaxFramesPerSprite {
		return nil, 0, 0, 0, kerr.New(kerr.Limit, component, "sprite has more than 8 frames after reduction")
	}

	w, h := frames[0].Width, frames[0].Height
	for _, f := range frames {
		if f.Width != w || f.Height != h {
			return nil, 0, 0, 0, kerr.New(kerr.Invariant, component, "all frames of a sprite must share dimensions")
		}
	}
	if w%8 != 0 || h%8 != 0 || w <= 0 || h <= 0 {
		return nil, 0, 0, 0, kerr.New(kerr.Format, component, "frame dimensions must be positive multiples of 8")
	}
	cols = w / 8
	rows = h / 8
	if cols > session.MaxGridCells || rows > session.MaxGridCells {
		return nil, 0, 0, 0, kerr.New(kerr.Format, component, "frame exceeds 16x16 cells")
	}
	numFrames = len(frames)

	numCells := numFrames * rows * cols
	out := make([]byte, numCells*session.CellBytes)

	for f, frame := range frames {
		for cy := 0; cy < rows; cy++ {
			for cx := 0; cx < cols; cx++ {
				cellIdx := f*rows*cols + cy*cols + cx
				cellBase := cellIdx * session.CellBytes
				for py := 0; py < 8; py++ {
					for px := 0; px < 8; px += 2 {
						srcLo := 8*w*cy + 8*cx + w*py + px
						hi := frame.Pixels[srcLo]
						lo := frame.Pixels[srcLo+1]
						dstOff := cellBase + (py*8+px)/2
						out[dstOff] = bigend.PackNibbles(hi, lo)
					}
				}
			}
		}
	}

	return out, cols, rows, numFrames, nil
}
