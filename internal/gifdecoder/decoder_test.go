package gifdecoder

import (
	"bytes"
	"compress/lzw"
	"testing"

	"github.com/hailam/kunopack/internal/kerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// gifBuilder assembles a minimal, hand-written GIF89a stream for tests.
// It exists so the decoder tests are grounded in the exact byte layout of
// spec.md §4.2 rather than relying on any third-party GIF writer.
type gifBuilder struct {
	buf    bytes.Buffer
	w, h   int
	global [][3]byte
}

func newGIFBuilder(w, h int, global [][3]byte) *gifBuilder {
	g := &gifBuilder{w: w, h: h, global: global}
	g.buf.WriteString("GIF89a")

	le16 := func(v int) { g.buf.WriteByte(byte(v)); g.buf.WriteByte(byte(v >> 8)) }
	le16(w)
	le16(h)

	tableBits := colorTableBits(len(global))
	packed := byte(0x80) | byte(tableBits-1) // global table present, size field
	g.buf.WriteByte(packed)
	g.buf.WriteByte(0) // background color index
	g.buf.WriteByte(0) // pixel aspect ratio

	for i := 0; i < (1 << tableBits); i++ {
		if i < len(global) {
			g.buf.Write(global[i][:])
		} else {
			g.buf.Write([]byte{0, 0, 0})
		}
	}
	return g
}

func colorTableBits(n int) int {
	bits := 1
	for (1 << bits) < n {
		bits++
	}
	return bits
}

// addGraphicControl writes a graphic control extension carrying delayHundredths.
func (g *gifBuilder) addGraphicControl(delayHundredths int) {
	g.buf.WriteByte(blockExtension)
	g.buf.WriteByte(extGraphicControl)
	g.buf.WriteByte(4)
	g.buf.WriteByte(0)
	g.buf.WriteByte(byte(delayHundredths))
	g.buf.WriteByte(byte(delayHundredths >> 8))
	g.buf.WriteByte(0)
	g.buf.WriteByte(0)
}

// addImage writes an image descriptor plus LZW-compressed pixel data for
// a full-canvas frame.
func (g *gifBuilder) addImage(pixels []byte, interlaced bool) {
	g.buf.WriteByte(blockImage)
	le16 := func(v int) { g.buf.WriteByte(byte(v)); g.buf.WriteByte(byte(v >> 8)) }
	le16(0)
	le16(0)
	le16(g.w)
	le16(g.h)
	packed := byte(0)
	if interlaced {
		packed |= interlaceFlag
	}
	g.buf.WriteByte(packed)

	rootBits := colorTableBits(len(g.global))
	if rootBits < 2 {
		rootBits = 2
	}
	g.buf.WriteByte(byte(rootBits))

	var enc bytes.Buffer
	lw := lzw.NewWriter(&enc, lzw.LSB, rootBits)
	_, err := lw.Write(pixels)
	if err != nil {
		panic(err)
	}
	if err := lw.Close(); err != nil {
		panic(err)
	}

	data := enc.Bytes()
	for len(data) > 0 {
		n := len(data)
		if n > 255 {
			n = 255
		}
		g.buf.WriteByte(byte(n))
		g.buf.Write(data[:n])
		data = data[n:]
	}
	g.buf.WriteByte(0)
}

func (g *gifBuilder) finish() []byte {
	g.buf.WriteByte(blockTrailer)
	return g.buf.Bytes()
}

func TestDecodeSingleStaticFrame(t *testing.T) {
	global := make([][3]byte, 16)
	global[5] = [3]byte{255, 0, 255} // magenta at index 5

	g := newGIFBuilder(8, 8, global)
	pixels := bytes.Repeat([]byte{5}, 64)
	g.addImage(pixels, false)
	data := g.finish()

	res, err := Decode(bytes.NewReader(data))
	require.NoError(t, err)
	require.Len(t, res.Frames, 1)
	assert.Equal(t, 8, res.CanvasW)
	assert.Equal(t, 8, res.CanvasH)
	assert.Equal(t, pixels, res.Frames[0].Pixels)
	assert.Equal(t, uint16(0x7C1F), uint16(res.Palette[5]))
}

func TestDecodeTwoFrameAnimation(t *testing.T) {
	global := make([][3]byte, 16)
	g := newGIFBuilder(16, 8, global)
	frameA := bytes.Repeat([]byte{0}, 128)
	frameB := bytes.Repeat([]byte{1}, 128)
	g.addGraphicControl(2)
	g.addImage(frameA, false)
	g.addGraphicControl(2)
	g.addImage(frameB, false)
	data := g.finish()

	res, err := Decode(bytes.NewReader(data))
	require.NoError(t, err)
	require.Len(t, res.Frames, 2)
	assert.Equal(t, frameA, res.Frames[0].Pixels)
	assert.Equal(t, frameB, res.Frames[1].Pixels)
}

func TestDecodeOnlyFirstDelayLatched(t *testing.T) {
	global := make([][3]byte, 16)
	g := newGIFBuilder(8, 8, global)
	g.addGraphicControl(5) // -> ticks = 3*(5/5)+round(0) = 3
	g.addImage(bytes.Repeat([]byte{0}, 64), false)
	g.addGraphicControl(50) // should be ignored
	g.addImage(bytes.Repeat([]byte{0}, 64), false)
	data := g.finish()

	res, err := Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 3, res.AnimTicks)
}

func TestDelayToTicksRoundingTable(t *testing.T) {
	cases := []struct{ delay, ticks int }{
		{0, 0},
		{1, 1},
		{2, 1},
		{3, 2},
		{4, 2},
		{5, 3},
		{10, 6},
		{12, 3*2 + 1},
	}
	for _, c := range cases {
		assert.Equal(t, c.ticks, delayToTicks(c.delay), "delay=%d", c.delay)
	}
}

func TestDecodeInterlacedRejected(t *testing.T) {
	global := make([][3]byte, 16)
	g := newGIFBuilder(8, 8, global)
	g.addImage(bytes.Repeat([]byte{0}, 64), true)
	data := g.finish()

	_, err := Decode(bytes.NewReader(data))
	require.Error(t, err)
	assert.True(t, kerr.Is(err, kerr.Format))
}

func TestDecodeBadSignature(t *testing.T) {
	_, err := Decode(bytes.NewReader([]byte("NOTAGIF...")))
	require.Error(t, err)
	assert.True(t, kerr.Is(err, kerr.Format))
}

func TestDecodeCanvasNotMultipleOf8(t *testing.T) {
	global := make([][3]byte, 16)
	g := newGIFBuilder(10, 8, global)
	g.addImage(bytes.Repeat([]byte{0}, 80), false)
	data := g.finish()

	_, err := Decode(bytes.NewReader(data))
	require.Error(t, err)
	assert.True(t, kerr.Is(err, kerr.Format))
}

func TestDecodeGlobalTableSizesRetainOnlyFirst16(t *testing.T) {
	for _, n := range []int{2, 4, 8, 16, 32, 64, 128, 256} {
		global := make([][3]byte, n)
		for i := range global {
			global[i] = [3]byte{byte(i), byte(i), byte(i)}
		}
		g := newGIFBuilder(8, 8, global)
		g.addImage(bytes.Repeat([]byte{0}, 64), false)
		data := g.finish()

		res, err := Decode(bytes.NewReader(data))
		require.NoError(t, err, "n=%d", n)
		for i := 0; i < 16 && i < n; i++ {
			expected := uint16(((uint16(i) << 7) & 0x7C00) | ((uint16(i) << 2) & 0x03E0) | ((uint16(i) >> 3) & 0x001F))
			assert.Equal(t, expected, uint16(res.Palette[i]), "n=%d i=%d", n, i)
		}
	}
}
