package cel

import (
	"strings"
)

type tokenType int

const (
	tokEOF tokenType = iota
	tokIdent
	tokInt
	tokUInt
	tokDouble
	tokString
	tokBytes
	tokOp // punctuation and operators
)

type token struct {
	typ  tokenType
	text string
	pos  int
}

type lexer struct {
	src string
	pos int
}

func newLexer(src string) *lexer {
	return &lexer{src: src}
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool { return isIdentStart(c) || isDigit(c) }

func (l *lexer) errorf(pos int, msg string) error {
	return &ParseError{Source: l.src, Pos: pos, Msg: msg}
}

func (l *lexer) skipSpace() {
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		if c == ' ' || c == '\t' || c == '\n' || c == '\r' {
			l.pos++
			continue
		}
		// Line comments run to end of line.
		if c == '/' && l.pos+1 < len(l.src) && l.src[l.pos+1] == '/' {
			for l.pos < len(l.src) && l.src[l.pos] != '\n' {
				l.pos++
			}
			continue
		}
		break
	}
}

// next returns the next token, advancing the lexer.
func (l *lexer) next() (token, error) {
	l.skipSpace()
	if l.pos >= len(l.src) {
		return token{typ: tokEOF, pos: l.pos}, nil
	}

	start := l.pos
	c := l.src[l.pos]

	switch {
	case isDigit(c), c == '.' && l.pos+1 < len(l.src) && isDigit(l.src[l.pos+1]):
		return l.lexNumber()
	case c == '\'' || c == '"':
		return l.lexString(c)
	case c == 'b' && l.pos+1 < len(l.src) && (l.src[l.pos+1] == '\'' || l.src[l.pos+1] == '"'):
		l.pos++
		tok, err := l.lexString(l.src[l.pos])
		if err != nil {
			return tok, err
		}
		tok.typ = tokBytes
		tok.pos = start
		return tok, nil
	case isIdentStart(c):
		for l.pos < len(l.src) && isIdentPart(l.src[l.pos]) {
			l.pos++
		}
		return token{typ: tokIdent, text: l.src[start:l.pos], pos: start}, nil
	}

	// Two-character operators first.
	if l.pos+1 < len(l.src) {
		two := l.src[l.pos : l.pos+2]
		switch two {
		case "||", "&&", "==", "!=", "<=", ">=":
			l.pos += 2
			return token{typ: tokOp, text: two, pos: start}, nil
		}
	}

	switch c {
	case '?', ':', ',', '.', '(', ')', '[', ']', '{', '}', '<', '>', '+', '-', '*', '/', '%', '!':
		l.pos++
		return token{typ: tokOp, text: string(c), pos: start}, nil
	}

	return token{}, l.errorf(start, "unexpected character "+string(c))
}

func (l *lexer) lexNumber() (token, error) {
	start := l.pos
	isDouble := false
	for l.pos < len(l.src) && isDigit(l.src[l.pos]) {
		l.pos++
	}
	if l.pos < len(l.src) && l.src[l.pos] == '.' && l.pos+1 < len(l.src) && isDigit(l.src[l.pos+1]) {
		isDouble = true
		l.pos++
		for l.pos < len(l.src) && isDigit(l.src[l.pos]) {
			l.pos++
		}
	}
	if l.pos < len(l.src) && (l.src[l.pos] == 'e' || l.src[l.pos] == 'E') {
		mark := l.pos
		l.pos++
		if l.pos < len(l.src) && (l.src[l.pos] == '+' || l.src[l.pos] == '-') {
			l.pos++
		}
		if l.pos < len(l.src) && isDigit(l.src[l.pos]) {
			isDouble = true
			for l.pos < len(l.src) && isDigit(l.src[l.pos]) {
				l.pos++
			}
		} else {
			l.pos = mark
		}
	}
	text := l.src[start:l.pos]
	if isDouble {
		return token{typ: tokDouble, text: text, pos: start}, nil
	}
	if l.pos < len(l.src) && (l.src[l.pos] == 'u' || l.src[l.pos] == 'U') {
		l.pos++
		return token{typ: tokUInt, text: text, pos: start}, nil
	}
	return token{typ: tokInt, text: text, pos: start}, nil
}

func (l *lexer) lexString(quote byte) (token, error) {
	start := l.pos
	l.pos++ // opening quote
	var sb strings.Builder
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		if c == quote {
			l.pos++
			return token{typ: tokString, text: sb.String(), pos: start}, nil
		}
		if c == '\\' {
			if l.pos+1 >= len(l.src) {
				return token{}, l.errorf(l.pos, "unterminated escape sequence")
			}
			l.pos++
			esc := l.src[l.pos]
			switch esc {
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			case 'r':
				sb.WriteByte('\r')
			case '\\', '\'', '"':
				sb.WriteByte(esc)
			default:
				return token{}, l.errorf(l.pos, "unsupported escape sequence \\"+string(esc))
			}
			l.pos++
			continue
		}
		sb.WriteByte(c)
		l.pos++
	}
	return token{}, l.errorf(start, "unterminated string literal")
}
