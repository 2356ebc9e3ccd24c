package orchestrator

import (
	"bytes"
	"compress/lzw"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeGIF hand-assembles a minimal GIF89a file with one or more
// identical-size frames, all sharing a 16-entry color table.
func writeGIF(t *testing.T, path string, w, h int, frames [][]byte) {
	t.Helper()
	var buf bytes.Buffer
	buf.WriteString("GIF89a")
	le16 := func(v int) { buf.WriteByte(byte(v)); buf.WriteByte(byte(v >> 8)) }
	le16(w)
	le16(h)
	buf.WriteByte(0x80 | 3) // global table present, size field = 3 -> 16 colors
	buf.WriteByte(0)
	buf.WriteByte(0)
	for i := 0; i < 16; i++ {
		buf.WriteByte(byte(i))
		buf.WriteByte(byte(i))
		buf.WriteByte(byte(i))
	}

	for _, pixels := range frames {
		buf.WriteByte(0x21) // extension
		buf.WriteByte(0xF9) // graphic control
		buf.WriteByte(4)
		buf.WriteByte(0)
		buf.WriteByte(2)
		buf.WriteByte(0)
		buf.WriteByte(0)
		buf.WriteByte(0)

		buf.WriteByte(0x2C) // image descriptor
		le16(0)
		le16(0)
		le16(w)
		le16(h)
		buf.WriteByte(0)
		buf.WriteByte(2) // root bits

		var enc bytes.Buffer
		lw := lzw.NewWriter(&enc, lzw.LSB, 2)
		_, err := lw.Write(pixels)
		require.NoError(t, err)
		require.NoError(t, lw.Close())
		data := enc.Bytes()
		for len(data) > 0 {
			n := len(data)
			if n > 255 {
				n = 255
			}
			buf.WriteByte(byte(n))
			buf.Write(data[:n])
			data = data[n:]
		}
		buf.WriteByte(0)
	}
	buf.WriteByte(0x3B)

	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
}

func TestCompileSingleStaticSprite(t *testing.T) {
	dir := t.TempDir()
	writeGIF(t, filepath.Join(dir, "hero.gif"), 8, 8, [][]byte{bytes.Repeat([]byte{1}, 64)})

	manifest := `spriteset hero_set {
		sprite hero "hero.gif"
	}`

	result, err := Compile(strings.NewReader(manifest), dir, "flat", nil)
	require.NoError(t, err)
	require.Len(t, result.Spritesets, 1)
	ss := result.Spritesets[0]
	assert.Equal(t, 1, ss.NumSprites)
	assert.Equal(t, 1, ss.NumCells)
	require.NoError(t, result.Layout.Validate())
}

func TestCompileTwoFrameAnimation(t *testing.T) {
	dir := t.TempDir()
	writeGIF(t, filepath.Join(dir, "walk.gif"), 8, 8, [][]byte{
		bytes.Repeat([]byte{1}, 64),
		bytes.Repeat([]byte{2}, 64),
	})

	manifest := `spriteset set {
		sprite walker "walk.gif"
	}`
	result, err := Compile(strings.NewReader(manifest), dir, "flat", nil)
	require.NoError(t, err)
	ss := result.Spritesets[0]
	assert.Equal(t, 2, ss.NumCells)
	require.NoError(t, result.Layout.Validate())
}

func TestCompilePingPongReducesCells(t *testing.T) {
	dir := t.TempDir()
	writeGIF(t, filepath.Join(dir, "blink.gif"), 8, 8, [][]byte{
		bytes.Repeat([]byte{1}, 64),
		bytes.Repeat([]byte{2}, 64),
		bytes.Repeat([]byte{3}, 64),
		bytes.Repeat([]byte{2}, 64),
	})

	manifest := `spriteset set {
		sprite blink "blink.gif"
	}`
	result, err := Compile(strings.NewReader(manifest), dir, "flat", nil)
	require.NoError(t, err)
	ss := result.Spritesets[0]
	assert.Equal(t, 3, ss.NumCells)
	require.NoError(t, result.Layout.Validate())
}

func TestCompileMultipleSpritesetsShareSeparatePalettes(t *testing.T) {
	dir := t.TempDir()
	writeGIF(t, filepath.Join(dir, "a.gif"), 8, 8, [][]byte{bytes.Repeat([]byte{1}, 64)})
	writeGIF(t, filepath.Join(dir, "b.gif"), 8, 8, [][]byte{bytes.Repeat([]byte{2}, 64)})

	manifest := `spriteset first {
		sprite a "a.gif"
	}
	spriteset second {
		sprite b "b.gif"
	}`
	result, err := Compile(strings.NewReader(manifest), dir, "flat", nil)
	require.NoError(t, err)
	require.Len(t, result.Spritesets, 2)
	require.NoError(t, result.Layout.Validate())
}

func TestCompileMissingGIFFileFails(t *testing.T) {
	dir := t.TempDir()
	manifest := `spriteset set {
		sprite ghost "missing.gif"
	}`
	_, err := Compile(strings.NewReader(manifest), dir, "flat", nil)
	assert.Error(t, err)
}

func TestCompileUnknownLayoutFails(t *testing.T) {
	dir := t.TempDir()
	manifest := `spriteset set {}`
	_, err := Compile(strings.NewReader(manifest), dir, "bogus", nil)
	assert.Error(t, err)
}

func TestCompileNestedLayout(t *testing.T) {
	dir := t.TempDir()
	writeGIF(t, filepath.Join(dir, "a.gif"), 8, 8, [][]byte{bytes.Repeat([]byte{1}, 64)})
	manifest := `spriteset set {
		sprite a "a.gif"
	}`
	result, err := Compile(strings.NewReader(manifest), dir, "nested", nil)
	require.NoError(t, err)
	require.NoError(t, result.Layout.Validate())
}

type recordingProgress struct {
	started, finished []string
}

func (r *recordingProgress) StartSpriteset(name string)  { r.started = append(r.started, name) }
func (r *recordingProgress) FinishSpriteset(name string) { r.finished = append(r.finished, name) }

func TestCompileReportsProgressPerSpriteset(t *testing.T) {
	dir := t.TempDir()
	writeGIF(t, filepath.Join(dir, "a.gif"), 8, 8, [][]byte{bytes.Repeat([]byte{1}, 64)})
	manifest := `spriteset only {
		sprite a "a.gif"
	}`
	prog := &recordingProgress{}
	_, err := Compile(strings.NewReader(manifest), dir, "flat", prog)
	require.NoError(t, err)
	assert.Equal(t, []string{"only"}, prog.started)
	assert.Equal(t, []string{"only"}, prog.finished)
}
