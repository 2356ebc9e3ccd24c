// Package gifdecoder parses GIF89a files into a sequence of full-canvas
// raster frames sharing one 16-color palette, plus an animation delay
// (spec.md §4.2). It understands only what the pipeline needs: no
// encoding, no interlace, no palette remapping.
package gifdecoder

import (
	"bufio"
	"io"

	"github.com/hailam/kunopack/internal/kerr"
	"github.com/hailam/kunopack/internal/session"
)

const component = "gifdecoder"

const (
	blockImage     = 0x2C
	blockExtension = 0x21
	blockTrailer   = 0x3B

	extGraphicControl = 0xF9
	extApplication    = 0xFF
	extComment        = 0xFE
	extPlainText      = 0x01
)

const interlaceFlag = 0x40

// Result is a fully decoded GIF: one shared palette, a sequence of
// full-canvas frames, and the latched animation delay in 1/60s ticks.
type Result struct {
	Palette    session.Palette
	Frames     []session.Frame
	AnimTicks  int
	CanvasW    int
	CanvasH    int
}

// Decode reads a GIF89a stream and returns its frames. Any short read,
// malformed marker, out-of-range dimension, or LZW inconsistency aborts
// the decode and returns an error; r is never closed here — callers that
// opened a file own its lifecycle (spec.md §4.2, §5).
func Decode(r io.Reader) (*Result, error) {
	d := &decodeState{r: bufio.NewReader(r)}
	return d.run()
}

type decodeState struct {
	r *bufio.Reader

	canvasW, canvasH int

	palette    session.Palette
	hasPalette bool

	animTicks    int
	delayLatched bool

	frames []session.Frame
	canvas []byte // disposal buffer, len == canvasW*canvasH
}

func (d *decodeState) run() (*Result, error) {
	if err := d.readHeader(); err != nil {
		return nil, err
	}
	gctFlag, gctSize, err := d.readLogicalScreenDescriptor()
	if err != nil {
		return nil, err
	}
	if gctFlag {
		pal, err := d.readColorTable(gctSize)
		if err != nil {
			return nil, err
		}
		d.latchPalette(pal)
	}

	d.canvas = make([]byte, d.canvasW*d.canvasH)

	maxFrameBytes := 8 * d.canvasW * d.canvasH
	pingPongCapBytes := 2 * maxFrameBytes

	for {
		marker, err := d.r.ReadByte()
		if err != nil {
			return nil, kerr.Wrap(kerr.IO, component, err)
		}

		switch marker {
		case blockImage:
			if err := d.readImageBlock(); err != nil {
				return nil, err
			}
			if len(d.frames)*d.canvasW*d.canvasH > pingPongCapBytes {
				return nil, kerr.New(kerr.Limit, component, "frame sequence exceeds ping-pong detection cap")
			}
		case blockExtension:
			if err := d.readExtension(); err != nil {
				return nil, err
			}
		case blockTrailer:
			return d.finish()
		default:
			return nil, kerr.New(kerr.Format, component, "unrecognized block marker")
		}
	}
}

func (d *decodeState) finish() (*Result, error) {
	if len(d.frames) == 0 {
		return nil, kerr.New(kerr.Format, component, "gif contains no image blocks")
	}
	if !d.hasPalette {
		return nil, kerr.New(kerr.Format, component, "gif contains no color table")
	}
	return &Result{
		Palette:   d.palette,
		Frames:    d.frames,
		AnimTicks: d.animTicks,
		CanvasW:   d.canvasW,
		CanvasH:   d.canvasH,
	}, nil
}

func (d *decodeState) readHeader() error {
	var sig [6]byte
	if _, err := io.ReadFull(d.r, sig[:]); err != nil {
		return kerr.Wrap(kerr.IO, component, err)
	}
	if string(sig[:3]) != "GIF" || sig[3] != '8' || sig[5] != 'a' {
		return kerr.New(kerr.Format, component, "bad GIF signature")
	}
	return nil
}

func (d *decodeState) readLogicalScreenDescriptor() (gctFlag bool, gctSize int, err error) {
	var lsd [7]byte
	if _, err := io.ReadFull(d.r, lsd[:]); err != nil {
		return false, 0, kerr.Wrap(kerr.IO, component, err)
	}
	w := int(lsd[0]) | int(lsd[1])<<8
	h := int(lsd[2]) | int(lsd[3])<<8
	packed := lsd[4]

	if err := validateCanvas(w, h); err != nil {
		return false, 0, err
	}
	d.canvasW, d.canvasH = w, h

	gctFlag = packed&0x80 != 0
	gctSize = 1 << ((packed & 0x07) + 1)
	return gctFlag, gctSize, nil
}

// validateCanvas enforces spec.md §4.2 "Canvas constraints" / §3 I8.
func validateCanvas(w, h int) error {
	if w <= 0 || h <= 0 || w%8 != 0 || h%8 != 0 {
		return kerr.New(kerr.Format, component, "canvas dimensions must be positive multiples of 8")
	}
	if w/8 > session.MaxGridCells || h/8 > session.MaxGridCells {
		return kerr.New(kerr.Format, component, "canvas exceeds 16x16 cells")
	}
	return nil
}

func (d *decodeState) readColorTable(numColors int) (session.Palette, error) {
	var pal session.Palette
	buf := make([]byte, 3*numColors)
	if _, err := io.ReadFull(d.r, buf); err != nil {
		return pal, kerr.Wrap(kerr.IO, component, err)
	}
	n := numColors
	if n > 16 {
		n = 16
	}
	for i := 0; i < n; i++ {
		r, g, b := buf[3*i], buf[3*i+1], buf[3*i+2]
		pal[i] = session.NewColor(r, g, b)
	}
	return pal, nil
}

// latchPalette applies pal only if no palette has been retained yet
// (global preferred, else first local table seen); spec.md §4.2.
func (d *decodeState) latchPalette(pal session.Palette) {
	if d.hasPalette {
		return
	}
	d.palette = pal
	d.hasPalette = true
}

func (d *decodeState) readImageBlock() error {
	var idesc [9]byte
	if _, err := io.ReadFull(d.r, idesc[:]); err != nil {
		return kerr.Wrap(kerr.IO, component, err)
	}
	left := int(idesc[0]) | int(idesc[1])<<8
	top := int(idesc[2]) | int(idesc[3])<<8
	w := int(idesc[4]) | int(idesc[5])<<8
	h := int(idesc[6]) | int(idesc[7])<<8
	packed := idesc[8]

	if packed&interlaceFlag != 0 {
		return kerr.New(kerr.Format, component, "interlaced GIF images are not supported")
	}

	localFlag := packed&0x80 != 0
	if localFlag {
		localSize := 1 << ((packed & 0x07) + 1)
		pal, err := d.readColorTable(localSize)
		if err != nil {
			return err
		}
		d.latchPalette(pal)
	}

	if left < 0 || top < 0 || left+w > d.canvasW || top+h > d.canvasH {
		return kerr.New(kerr.Format, component, "image sub-rectangle exceeds canvas bounds")
	}

	rootBits, err := d.r.ReadByte()
	if err != nil {
		return kerr.Wrap(kerr.IO, component, err)
	}
	data, err := d.readSubBlocks()
	if err != nil {
		return err
	}

	pixels, err := decodeLZW(data, int(rootBits), w*h)
	if err != nil {
		return err
	}

	// Composite: disposal=previous is the only supported mode. The
	// canvas already holds the prior frame's content (or zero for the
	// first frame); we overlay the sub-image and snapshot.
	frameBuf := make([]byte, d.canvasW*d.canvasH)
	copy(frameBuf, d.canvas)
	for y := 0; y < h; y++ {
		srcRow := pixels[y*w : (y+1)*w]
		dstOff := (top+y)*d.canvasW + left
		copy(frameBuf[dstOff:dstOff+w], srcRow)
	}
	copy(d.canvas, frameBuf)

	d.frames = append(d.frames, session.Frame{Width: d.canvasW, Height: d.canvasH, Pixels: frameBuf})
	return nil
}

// readSubBlocks concatenates a length-prefixed sub-block chain, stopping
// at the zero-length terminator block (shared by image data and every
// extension kind).
func (d *decodeState) readSubBlocks() ([]byte, error) {
	var out []byte
	for {
		n, err := d.r.ReadByte()
		if err != nil {
			return nil, kerr.Wrap(kerr.IO, component, err)
		}
		if n == 0 {
			return out, nil
		}
		buf := make([]byte, n)
		if _, err := io.ReadFull(d.r, buf); err != nil {
			return nil, kerr.Wrap(kerr.IO, component, err)
		}
		out = append(out, buf...)
	}
}

func (d *decodeState) readExtension() error {
	label, err := d.r.ReadByte()
	if err != nil {
		return kerr.Wrap(kerr.IO, component, err)
	}

	switch label {
	case extGraphicControl:
		return d.readGraphicControl()
	case extApplication, extComment, extPlainText:
		_, err := d.readSubBlocks()
		return err
	default:
		// Unknown extension: consume its sub-blocks and move on, the
		// same tolerant dispatch the source uses for forward
		// compatibility.
		_, err := d.readSubBlocks()
		return err
	}
}

// delayRoundTable implements the idiosyncratic hundredths-of-a-second to
// 1/60s conversion pinned by spec.md §4.2 / §9: ticks = 3*(d/5) +
// round(d mod 5 * 12/5), with d%5 in {0,1,2,3,4} mapping to +0,+1,+1,+2,+2.
var delayRoundTable = [5]int{0, 1, 1, 2, 2}

func delayToTicks(d int) int {
	ticks := 3*(d/5) + delayRoundTable[d%5]
	if ticks > session.MaxAnimTicks {
		ticks = session.MaxAnimTicks
	}
	return ticks
}

func (d *decodeState) readGraphicControl() error {
	data, err := d.readSubBlocks()
	if err != nil {
		return err
	}
	if len(data) < 4 {
		return kerr.New(kerr.Format, component, "truncated graphic control extension")
	}
	if d.delayLatched {
		return nil
	}
	delay := int(data[1]) | int(data[2])<<8
	d.animTicks = delayToTicks(delay)
	d.delayLatched = true
	return nil
}
