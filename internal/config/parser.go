package config

import "io"

// SpriteEntry is one (sprite-name, filename) pair inside a spriteset
// block.
type SpriteEntry struct {
	Name     string
	Filename string
}

// Spriteset is one parsed `spriteset NAME { ... }` block.
type Spriteset struct {
	Name    string
	Sprites []SpriteEntry
}

// Parse reads a full manifest and returns its ordered spriteset
// directives, or a *kerr.Error of kind Syntax on the first grammar
// violation.
func Parse(r io.Reader) ([]Spriteset, error) {
	p := &parser{lex: newLexer(r)}
	p.advance()
	return p.parseFile()
}

type parser struct {
	lex *lexer
	cur token
}

func (p *parser) advance() { p.cur = p.lex.next() }

func (p *parser) parseFile() ([]Spriteset, error) {
	var out []Spriteset
	for p.cur.kind != tokEOF {
		ss, err := p.parseSpriteset()
		if err != nil {
			return nil, err
		}
		out = append(out, ss)
	}
	return out, nil
}

func (p *parser) parseSpriteset() (Spriteset, error) {
	if p.cur.kind == tokError {
		return Spriteset{}, syntaxErr(p.cur.line, "unrecognized token: "+p.cur.text)
	}
	if p.cur.kind != tokSpriteset {
		return Spriteset{}, syntaxErr(p.cur.line, "expected 'spriteset', got "+p.cur.kind.String())
	}
	p.advance()

	if p.cur.kind != tokIdent {
		return Spriteset{}, syntaxErr(p.cur.line, "expected spriteset name")
	}
	name := p.cur.text
	p.advance()

	if p.cur.kind != tokLBrace {
		return Spriteset{}, syntaxErr(p.cur.line, "expected '{' after spriteset name")
	}
	p.advance()

	var sprites []SpriteEntry
	for p.cur.kind != tokRBrace {
		if p.cur.kind == tokEOF {
			return Spriteset{}, syntaxErr(p.cur.line, "unterminated spriteset block, expected '}'")
		}
		entry, err := p.parseSprite()
		if err != nil {
			return Spriteset{}, err
		}
		sprites = append(sprites, entry)
	}
	p.advance() // consume '}'

	return Spriteset{Name: name, Sprites: sprites}, nil
}

func (p *parser) parseSprite() (SpriteEntry, error) {
	if p.cur.kind == tokError {
		return SpriteEntry{}, syntaxErr(p.cur.line, p.cur.text)
	}
	if p.cur.kind != tokSprite {
		return SpriteEntry{}, syntaxErr(p.cur.line, "expected 'sprite', got "+p.cur.kind.String())
	}
	p.advance()

	if p.cur.kind != tokIdent {
		return SpriteEntry{}, syntaxErr(p.cur.line, "expected sprite name")
	}
	name := p.cur.text
	p.advance()

	if p.cur.kind == tokError {
		return SpriteEntry{}, syntaxErr(p.cur.line, p.cur.text)
	}
	if p.cur.kind != tokString {
		return SpriteEntry{}, syntaxErr(p.cur.line, "expected quoted filename after sprite name")
	}
	filename := p.cur.text
	p.advance()

	return SpriteEntry{Name: name, Filename: filename}, nil
}
