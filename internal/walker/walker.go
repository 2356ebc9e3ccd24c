// Package walker resolves the GIF filenames a config references against a
// base directory, the one filesystem-facing step between parsing a config
// and decoding its sprites.
package walker

import (
	"io/fs"
	"os"
	"path/filepath"

	"github.com/hailam/kunopack/internal/kerr"
)

const component = "walker"

// ResolvePath joins a base directory and a config-supplied filename and
// confirms the file exists and is a regular file.
func ResolvePath(baseDir, filename string) (string, error) {
	full := filepath.Join(baseDir, filename)
	info, err := os.Stat(full)
	if err != nil {
		return "", kerr.Wrap(kerr.IO, component, err)
	}
	if info.IsDir() {
		return "", kerr.New(kerr.IO, component, "expected a file, found a directory: "+full)
	}
	return full, nil
}

// ListGIFs walks dir and returns every *.gif path found, in the lexical
// order filepath.WalkDir visits them.
func ListGIFs(dir string) ([]string, error) {
	var out []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if filepath.Ext(path) == ".gif" {
			out = append(out, path)
		}
		return nil
	})
	if err != nil {
		return nil, kerr.Wrap(kerr.IO, component, err)
	}
	return out, nil
}
