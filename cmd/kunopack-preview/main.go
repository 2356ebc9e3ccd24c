// Command kunopack-preview opens a compiled ROM and renders one sprite's
// first frame through its palette, for eyeballing a build without a real
// target device. Grounded on the windowing setup of a full NES emulator
// front end, cut down to the one texture this tool needs.
package main

import (
	"flag"
	"fmt"
	"os"
	"runtime"

	"github.com/veandco/go-sdl2/sdl"

	"github.com/hailam/kunopack/internal/bigend"
	"github.com/hailam/kunopack/internal/rom"
	"github.com/hailam/kunopack/internal/session"
)

func init() {
	runtime.LockOSThread()
}

const scale = 12

func main() {
	romPath := flag.String("rom", "", "path to a compiled .kn1 rom (required)")
	spriteIdx := flag.Int("sprite", 0, "sprite index within the rom's sprite table")
	flag.Parse()

	if *romPath == "" {
		fmt.Fprintln(os.Stderr, "usage: kunopack-preview -rom path/to/out.kn1 [-sprite N]")
		os.Exit(1)
	}

	if err := run(*romPath, *spriteIdx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run(romPath string, spriteIdx int) error {
	container, err := rom.Load(romPath)
	if err != nil {
		return err
	}
	if container.Count() < 3 {
		return fmt.Errorf("rom has %d chunks, expected at least 3 (palette, sprite table, cell pool)", container.Count())
	}

	paletteBytes, err := container.Payload(0)
	if err != nil {
		return err
	}
	spriteTable, err := container.Payload(1)
	if err != nil {
		return err
	}
	cellPool, err := container.Payload(2)
	if err != nil {
		return err
	}

	palette := decodePalette(paletteBytes)
	desc, err := decodeSprite(spriteTable, spriteIdx)
	if err != nil {
		return err
	}

	pixels, w, h := renderFirstFrame(cellPool, desc)

	if err := sdl.Init(sdl.INIT_VIDEO); err != nil {
		return fmt.Errorf("sdl init: %w", err)
	}
	defer sdl.Quit()

	window, err := sdl.CreateWindow("kunopack preview", sdl.WINDOWPOS_CENTERED, sdl.WINDOWPOS_CENTERED,
		int32(w*scale), int32(h*scale), sdl.WINDOW_SHOWN)
	if err != nil {
		return fmt.Errorf("create window: %w", err)
	}
	defer window.Destroy()

	renderer, err := sdl.CreateRenderer(window, -1, sdl.RENDERER_ACCELERATED)
	if err != nil {
		return fmt.Errorf("create renderer: %w", err)
	}
	defer renderer.Destroy()

	running := true
	for running {
		for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
			switch event.(type) {
			case *sdl.QuitEvent:
				running = false
			}
		}

		renderer.SetDrawColor(0, 0, 0, 255)
		renderer.Clear()

		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				idx := pixels[y*w+x]
				r, g, b := unpack15(palette[idx])
				renderer.SetDrawColor(r, g, b, 255)
				rect := sdl.Rect{X: int32(x * scale), Y: int32(y * scale), W: scale, H: scale}
				renderer.FillRect(&rect)
			}
		}

		renderer.Present()
		sdl.Delay(16)
	}
	return nil
}

func decodePalette(b []byte) session.Palette {
	var pal session.Palette
	for i := range pal {
		pal[i] = session.Color(bigend.U16(b[2*i : 2*i+2]))
	}
	return pal
}

func decodeSprite(table []byte, idx int) (session.SpriteDescriptor, error) {
	off := idx * 4
	if off+4 > len(table) {
		return session.SpriteDescriptor{}, fmt.Errorf("sprite index %d out of range (%d sprites)", idx, len(table)/4)
	}
	var b [4]byte
	copy(b[:], table[off:off+4])
	return session.UnpackSpriteDescriptor(b), nil
}

// renderFirstFrame expands the first frame of a sprite's cell grid back
// into a flat, one-byte-per-pixel palette-index raster.
func renderFirstFrame(cellPool []byte, desc session.SpriteDescriptor) (pixels []byte, w, h int) {
	w = desc.Columns * 8
	h = desc.Rows * 8
	pixels = make([]byte, w*h)

	for cellRow := 0; cellRow < desc.Rows; cellRow++ {
		for cellCol := 0; cellCol < desc.Columns; cellCol++ {
			cellIdx := desc.FirstCellIndex + cellRow*desc.Columns + cellCol
			cellOff := cellIdx * session.CellBytes
			if cellOff+session.CellBytes > len(cellPool) {
				continue
			}
			cell := cellPool[cellOff : cellOff+session.CellBytes]
			for py := 0; py < 8; py++ {
				for px := 0; px < 8; px++ {
					byteIdx := py*4 + px/2
					b := cell[byteIdx]
					var nibble byte
					if px%2 == 0 {
						nibble = b >> 4
					} else {
						nibble = b & 0x0F
					}
					x := cellCol*8 + px
					y := cellRow*8 + py
					pixels[y*w+x] = nibble
				}
			}
		}
	}
	return pixels, w, h
}

func unpack15(c session.Color) (r, g, b uint8) {
	v := uint16(c)
	r5 := uint8((v >> 10) & 0x1F)
	g5 := uint8((v >> 5) & 0x1F)
	b5 := uint8(v & 0x1F)
	expand := func(x uint8) uint8 { return (x << 3) | (x >> 2) }
	return expand(r5), expand(g5), expand(b5)
}
