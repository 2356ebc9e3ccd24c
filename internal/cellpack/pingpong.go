// Package cellpack converts decoded GIF frame sequences into the packed
// 8x8, 4bpp cell layout and assembles sprite descriptors (spec.md §4.4,
// §4.5, §4.6).
package cellpack

import (
	"bytes"

	"github.com/hailam/kunopack/internal/session"
)

// ReducePingPong detects a forward-then-reverse frame sequence and folds
// it to N/2+1 frames (spec.md §4.4). A sequence qualifies only when its
// length N is even, N >= 4, and frame k equals frame N-k byte-for-byte
// for every k in 1..N/2. Otherwise the input is returned unchanged and
// pingPong is false.
func ReducePingPong(frames []session.Frame) (out []session.Frame, pingPong bool) {
	n := len(frames)
	if n < 4 || n%2 != 0 {
		return frames, false
	}
	for k := 1; k <= n/2; k++ {
		if !bytes.Equal(frames[k].Pixels, frames[n-k].Pixels) {
			return frames, false
		}
	}
	return frames[:n/2+1], true
}
