package config

// tokenKind classifies one lexical token of the manifest grammar (spec.md
// §4.1).
type tokenKind int

const (
	tokSpriteset tokenKind = iota
	tokSprite
	tokIdent
	tokInt
	tokString
	tokLBrace
	tokRBrace
	tokEOF
	tokError
)

func (k tokenKind) String() string {
	switch k {
	case tokSpriteset:
		return "spriteset"
	case tokSprite:
		return "sprite"
	case tokIdent:
		return "identifier"
	case tokInt:
		return "integer"
	case tokString:
		return "quoted filename"
	case tokLBrace:
		return "{"
	case tokRBrace:
		return "}"
	case tokEOF:
		return "EOF"
	default:
		return "ERROR"
	}
}

// token is one lexical unit plus its textual value and source line, for
// diagnostics.
type token struct {
	kind tokenKind
	text string
	line int
}

// maxNameLen bounds identifier length (spec.md §4.1: "identifier ...
// exceeding 256 bytes" is non-fatal/truncated).
const maxNameLen = 256

// maxFilenameLen bounds quoted filename length; exceeding it is fatal
// (spec.md §4.1).
const maxFilenameLen = 256

func isSpace(b byte) bool {
	switch b {
	case ' ', '\t', '\r', '\n', '\f', '\v':
		return true
	}
	return false
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

func isLetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func isIdentRune(b byte) bool {
	return isLetter(b) || isDigit(b) || b == '_'
}

func isFilenameRune(b byte) bool {
	return isLetter(b) || isDigit(b) || b == '_' || b == '.'
}
