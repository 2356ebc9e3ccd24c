package gifdecoder

import "github.com/hailam/kunopack/internal/kerr"

// maxDictEntries is the hard ceiling on LZW code width: 12 bits, 4096
// dictionary entries (spec.md §4.3).
const maxDictEntries = 4096

// maxPixelsPerFrame bounds the output of a single decompression call
// (spec.md §4.3 "Output materialization").
const maxPixelsPerFrame = 16384

// lzwDict is the (prefix_code, suffix_byte) dictionary. Root entries
// 0..numRoots-1 are atomic literals (prefix == rootMarker). User entries
// start at numRoots+2, after the reserved clear/EOI slots.
type lzwDict struct {
	prefix   [maxDictEntries]int32
	suffix   [maxDictEntries]byte
	numRoots int
	size     int
}

const rootMarker = -1

func newLZWDict(rootBits int) *lzwDict {
	numRoots := 1 << rootBits
	d := &lzwDict{numRoots: numRoots}
	d.reset()
	for i := 0; i < numRoots; i++ {
		d.prefix[i] = rootMarker
		d.suffix[i] = byte(i)
	}
	return d
}

func (d *lzwDict) reset() {
	d.size = d.numRoots + 2
}

func (d *lzwDict) firstChar(code int) byte {
	for d.prefix[code] != rootMarker {
		code = int(d.prefix[code])
	}
	return d.suffix[code]
}

// expand appends the byte string represented by code to out, in
// left-to-right order, via an explicit prefix-chain walk (bounded by
// maxDictEntries, per Design Notes §9) rather than recursion.
func (d *lzwDict) expand(code int, out []byte) []byte {
	var stack [maxDictEntries]byte
	n := 0
	for {
		stack[n] = d.suffix[code]
		n++
		if d.prefix[code] == rootMarker {
			break
		}
		code = int(d.prefix[code])
	}
	for i := n - 1; i >= 0; i-- {
		out = append(out, stack[i])
	}
	return out
}

func (d *lzwDict) add(prefix int, suffix byte) {
	d.prefix[d.size] = int32(prefix)
	d.suffix[d.size] = suffix
	d.size++
}

// bitReader reads LZW codes LSB-first: bit 0 of the first byte is the
// lowest bit of the first code, and reads straddle byte boundaries
// freely (spec.md §4.3).
type bitReader struct {
	data []byte
	pos  int // absolute bit offset
}

func (b *bitReader) readCode(width int) (int, bool) {
	if b.pos+width > len(b.data)*8 {
		return 0, false
	}
	code := 0
	for i := 0; i < width; i++ {
		byteIdx := (b.pos + i) / 8
		bitIdx := uint((b.pos + i) % 8)
		bit := (b.data[byteIdx] >> bitIdx) & 1
		code |= int(bit) << uint(i)
	}
	b.pos += width
	return code, true
}

// decodeLZW decompresses a GIF LZW code stream (already de-chunked from
// its sub-blocks) into exactly maxOutput bytes of palette indices.
// rootBits must be in 2..8. Implements the decode loop of spec.md §4.3,
// including the implicit-reset-on-full-dictionary and
// first-code-after-clear-is-a-root-literal rules.
func decodeLZW(data []byte, rootBits, maxOutput int) ([]byte, error) {
	if rootBits < 2 || rootBits > 8 {
		return nil, kerr.New(kerr.Format, component, "lzw root_bits out of range")
	}
	if maxOutput > maxPixelsPerFrame {
		return nil, kerr.New(kerr.Limit, component, "lzw output exceeds max pixels per frame")
	}

	numRoots := 1 << rootBits
	clearCode := numRoots
	eoiCode := numRoots + 1

	dict := newLZWDict(rootBits)
	codeBits := rootBits + 1

	br := &bitReader{data: data}
	out := make([]byte, 0, maxOutput)
	prev := -1 // undefined

	for len(out) < maxOutput {
		code, ok := br.readCode(codeBits)
		if !ok {
			return nil, kerr.New(kerr.Format, component, "lzw stream ended before expected output length")
		}

		switch {
		case code == clearCode:
			dict.reset()
			codeBits = rootBits + 1
			prev = -1
			continue
		case code == eoiCode:
			return nil, kerr.New(kerr.Format, component, "lzw stream reached EOI before expected output length")
		}

		if prev == -1 {
			// First code after start/clear must be a root literal,
			// emitted verbatim with no dictionary addition (spec.md §9
			// Open Questions).
			if code >= numRoots {
				return nil, kerr.New(kerr.Format, component, "lzw: first code after clear is not a root literal")
			}
			out = appendCapped(out, []byte{byte(code)}, maxOutput)
			prev = code
			continue
		}

		var addSuffix byte
		switch {
		case code < dict.size:
			out = appendCapped(out, dict.expand(code, nil), maxOutput)
			addSuffix = dict.firstChar(code)
		case code == dict.size:
			// "KwKwK" case: the code refers to the entry about to be
			// created.
			expanded := dict.expand(prev, nil)
			expanded = append(expanded, dict.firstChar(prev))
			out = appendCapped(out, expanded, maxOutput)
			addSuffix = dict.firstChar(prev)
		default:
			return nil, kerr.New(kerr.Format, component, "lzw: code exceeds dictionary size")
		}

		dict.add(prev, addSuffix)
		if dict.size >= maxDictEntries {
			// Dictionary is full and no clear code arrived: reset
			// silently and continue (spec.md §8 boundary case).
			dict.reset()
			codeBits = rootBits + 1
			prev = -1
			continue
		}
		if dict.size == (1<<uint(codeBits)) && codeBits < 12 {
			codeBits++
		}
		prev = code
	}

	return out, nil
}

// appendCapped appends src to dst, truncating src so dst never exceeds
// limit bytes.
func appendCapped(dst, src []byte, limit int) []byte {
	room := limit - len(dst)
	if room <= 0 {
		return dst
	}
	if len(src) > room {
		src = src[:room]
	}
	return append(dst, src...)
}
