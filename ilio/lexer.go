// Package ilio implements the IL's textual format: a line-streaming
// parser and a canonical serializer, round-tripping through il.Module.
package ilio

import (
	"strconv"
	"strings"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIdent
	tokTemp   // %name
	tokGlobal // @name
	tokInt
	tokFloat
	tokString
	tokPunct // one of ( ) { } , : = ->
)

type token struct {
	kind tokenKind
	text string
	ival int64
	fval float64
	line int
	col  int
}

// lexer tokenizes IL source text, tracking line and column for diagnostics.
type lexer struct {
	src  string
	pos  int
	line int
	col  int
}

func newLexer(src string) *lexer {
	return &lexer{src: src, line: 1, col: 1}
}

func (l *lexer) peekByte() byte {
	if l.pos >= len(l.src) {
		return 0
	}
	return l.src[l.pos]
}

func (l *lexer) advance() byte {
	c := l.src[l.pos]
	l.pos++
	if c == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return c
}

func (l *lexer) skipSpaceAndComments() {
	for l.pos < len(l.src) {
		c := l.peekByte()
		if c == ' ' || c == '\t' || c == '\r' || c == '\n' {
			l.advance()
			continue
		}
		if c == ';' { // line comment
			for l.pos < len(l.src) && l.peekByte() != '\n' {
				l.advance()
			}
			continue
		}
		break
	}
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentCont(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9') || c == '.'
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

// next returns the next token in the stream.
func (l *lexer) next() token {
	l.skipSpaceAndComments()
	line, col := l.line, l.col
	if l.pos >= len(l.src) {
		return token{kind: tokEOF, line: line, col: col}
	}

	c := l.peekByte()
	switch {
	case c == '%' || c == '@':
		sigil := c
		l.advance()
		start := l.pos
		for l.pos < len(l.src) && isIdentCont(l.peekByte()) {
			l.advance()
		}
		name := l.src[start:l.pos]
		if sigil == '%' {
			return token{kind: tokTemp, text: name, line: line, col: col}
		}
		return token{kind: tokGlobal, text: name, line: line, col: col}

	case c == '"':
		l.advance()
		var sb strings.Builder
		for l.pos < len(l.src) && l.peekByte() != '"' {
			ch := l.advance()
			if ch == '\\' && l.pos < len(l.src) {
				esc := l.advance()
				switch esc {
				case 'n':
					sb.WriteByte('\n')
				case 't':
					sb.WriteByte('\t')
				case '"':
					sb.WriteByte('"')
				case '\\':
					sb.WriteByte('\\')
				default:
					if esc >= '0' && esc <= '7' {
						v := int(esc - '0')
						for k := 0; k < 2 && l.pos < len(l.src) && l.peekByte() >= '0' && l.peekByte() <= '7'; k++ {
							v = v*8 + int(l.advance()-'0')
						}
						sb.WriteByte(byte(v))
					} else {
						sb.WriteByte(esc)
					}
				}
				continue
			}
			sb.WriteByte(ch)
		}
		if l.pos < len(l.src) {
			l.advance() // closing quote
		}
		return token{kind: tokString, text: sb.String(), line: line, col: col}

	case isDigit(c) || (c == '-' && l.pos+1 < len(l.src) && isDigit(l.src[l.pos+1])):
		start := l.pos
		l.advance()
		isFloat := false
		for l.pos < len(l.src) && (isDigit(l.peekByte()) || l.peekByte() == '.') {
			if l.peekByte() == '.' {
				isFloat = true
			}
			l.advance()
		}
		text := l.src[start:l.pos]
		if isFloat {
			f, _ := strconv.ParseFloat(text, 64)
			return token{kind: tokFloat, text: text, fval: f, line: line, col: col}
		}
		n, _ := strconv.ParseInt(text, 10, 64)
		return token{kind: tokInt, text: text, ival: n, line: line, col: col}

	case isIdentStart(c):
		start := l.pos
		for l.pos < len(l.src) && isIdentCont(l.peekByte()) {
			l.advance()
		}
		return token{kind: tokIdent, text: l.src[start:l.pos], line: line, col: col}

	case c == '-' && l.pos+1 < len(l.src) && l.src[l.pos+1] == '>':
		l.advance()
		l.advance()
		return token{kind: tokPunct, text: "->", line: line, col: col}

	default:
		l.advance()
		return token{kind: tokPunct, text: string(c), line: line, col: col}
	}
}
