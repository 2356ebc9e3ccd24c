package report

import (
	"bytes"
	"compress/lzw"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hailam/kunopack/internal/orchestrator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeMinimalGIF hand-assembles a one-frame, 8x8 GIF89a file so report
// tests have a real compiled build to work from without depending on
// another package's test-only fixtures.
func writeMinimalGIF(t *testing.T, path string) {
	t.Helper()
	var buf bytes.Buffer
	buf.WriteString("GIF89a")
	le16 := func(v int) { buf.WriteByte(byte(v)); buf.WriteByte(byte(v >> 8)) }
	le16(8)
	le16(8)
	buf.WriteByte(0x80 | 3) // global color table present, 16 entries
	buf.WriteByte(0)
	buf.WriteByte(0)
	for i := 0; i < 16; i++ {
		buf.WriteByte(byte(i))
		buf.WriteByte(byte(i))
		buf.WriteByte(byte(i))
	}

	buf.WriteByte(0x2C) // image descriptor
	le16(0)
	le16(0)
	le16(8)
	le16(8)
	buf.WriteByte(0)
	buf.WriteByte(2) // root bits

	var enc bytes.Buffer
	lw := lzw.NewWriter(&enc, lzw.LSB, 2)
	_, err := lw.Write(make([]byte, 64))
	require.NoError(t, err)
	require.NoError(t, lw.Close())
	data := enc.Bytes()
	buf.WriteByte(byte(len(data)))
	buf.Write(data)
	buf.WriteByte(0)
	buf.WriteByte(0x3B)

	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
}

func compileFixture(t *testing.T) *orchestrator.Result {
	t.Helper()
	dir := t.TempDir()
	writeMinimalGIF(t, filepath.Join(dir, "a.gif"))

	manifest := `spriteset demo {
		sprite hero "a.gif"
	}`
	result, err := orchestrator.Compile(strings.NewReader(manifest), dir, "flat", nil)
	require.NoError(t, err)
	return result
}

func TestBuildReportWritesXLSX(t *testing.T) {
	result := compileFixture(t)
	path := filepath.Join(t.TempDir(), "report.xlsx")

	require.NoError(t, BuildReport(result, path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func TestManifestWritesPDF(t *testing.T) {
	result := compileFixture(t)
	path := filepath.Join(t.TempDir(), "manifest.pdf")

	require.NoError(t, Manifest(result, path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func TestUnpackRGBRoundTripsApproximately(t *testing.T) {
	r, g, b := unpackRGB(0x7C1F) // packed magenta from session.NewColor(255,0,255)
	assert.Equal(t, uint8(255), r)
	assert.Equal(t, uint8(0), g)
	assert.Equal(t, uint8(255), b)
}
