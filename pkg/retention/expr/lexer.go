package expr

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// SyntaxError reports a malformed expression.
type SyntaxError struct {
	Offset  int    // byte offset into the expression
	Message string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error at offset %d: %s", e.Offset, e.Message)
}

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIdent
	tokString
	tokNumber
	tokTrue
	tokFalse
	tokNil

	tokEq       // ==
	tokNeq      // !=
	tokLt       // <
	tokLte      // <=
	tokGt       // >
	tokGte      // >=
	tokPlus     // +
	tokMinus    // -
	tokStar     // *
	tokSlash    // /
	tokAnd      // &&
	tokOr       // ||
	tokNot      // !
	tokDot      // .
	tokComma    // ,
	tokLParen   // (
	tokRParen   // )
	tokLBracket // [
	tokRBracket // ]
)

type token struct {
	kind   tokenKind
	text   string
	number float64
	offset int
}

type lexer struct {
	src string
	pos int
}

func newLexer(src string) *lexer {
	return &lexer{src: src}
}

func (l *lexer) next() (token, error) {
	for l.pos < len(l.src) && unicode.IsSpace(rune(l.src[l.pos])) {
		l.pos++
	}
	if l.pos >= len(l.src) {
		return token{kind: tokEOF, offset: l.pos}, nil
	}

	start := l.pos
	c := l.src[l.pos]

	switch {
	case c == '"' || c == '\'':
		return l.lexString(c)
	case c >= '0' && c <= '9':
		return l.lexNumber()
	case isIdentStart(c):
		return l.lexIdent()
	}

	two := ""
	if l.pos+1 < len(l.src) {
		two = l.src[l.pos : l.pos+2]
	}
	switch two {
	case "==":
		l.pos += 2
		return token{kind: tokEq, text: two, offset: start}, nil
	case "!=":
		l.pos += 2
		return token{kind: tokNeq, text: two, offset: start}, nil
	case "<=":
		l.pos += 2
		return token{kind: tokLte, text: two, offset: start}, nil
	case ">=":
		l.pos += 2
		return token{kind: tokGte, text: two, offset: start}, nil
	case "&&":
		l.pos += 2
		return token{kind: tokAnd, text: two, offset: start}, nil
	case "||":
		l.pos += 2
		return token{kind: tokOr, text: two, offset: start}, nil
	}

	l.pos++
	switch c {
	case '<':
		return token{kind: tokLt, text: "<", offset: start}, nil
	case '>':
		return token{kind: tokGt, text: ">", offset: start}, nil
	case '+':
		return token{kind: tokPlus, text: "+", offset: start}, nil
	case '-':
		return token{kind: tokMinus, text: "-", offset: start}, nil
	case '*':
		return token{kind: tokStar, text: "*", offset: start}, nil
	case '/':
		return token{kind: tokSlash, text: "/", offset: start}, nil
	case '!':
		return token{kind: tokNot, text: "!", offset: start}, nil
	case '.':
		return token{kind: tokDot, text: ".", offset: start}, nil
	case ',':
		return token{kind: tokComma, text: ",", offset: start}, nil
	case '(':
		return token{kind: tokLParen, text: "(", offset: start}, nil
	case ')':
		return token{kind: tokRParen, text: ")", offset: start}, nil
	case '[':
		return token{kind: tokLBracket, text: "[", offset: start}, nil
	case ']':
		return token{kind: tokRBracket, text: "]", offset: start}, nil
	}
	return token{}, &SyntaxError{Offset: start, Message: fmt.Sprintf("unexpected character %q", c)}
}

func (l *lexer) lexString(quote byte) (token, error) {
	start := l.pos
	l.pos++ // opening quote
	var sb strings.Builder
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		if c == quote {
			l.pos++
			return token{kind: tokString, text: sb.String(), offset: start}, nil
		}
		if c == '\\' && l.pos+1 < len(l.src) {
			l.pos++
			esc := l.src[l.pos]
			switch esc {
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			case '\\', '"', '\'':
				sb.WriteByte(esc)
			default:
				return token{}, &SyntaxError{Offset: l.pos, Message: fmt.Sprintf("unknown escape %q", esc)}
			}
			l.pos++
			continue
		}
		sb.WriteByte(c)
		l.pos++
	}
	return token{}, &SyntaxError{Offset: start, Message: "unterminated string"}
}

func (l *lexer) lexNumber() (token, error) {
	start := l.pos
	for l.pos < len(l.src) && (isDigit(l.src[l.pos]) || l.src[l.pos] == '.') {
		// A dot followed by a letter is a method call on a number
		// literal, which the grammar does not allow; stop at a dot not
		// followed by a digit.
		if l.src[l.pos] == '.' && (l.pos+1 >= len(l.src) || !isDigit(l.src[l.pos+1])) {
			break
		}
		l.pos++
	}
	text := l.src[start:l.pos]
	n, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return token{}, &SyntaxError{Offset: start, Message: fmt.Sprintf("invalid number %q", text)}
	}
	return token{kind: tokNumber, text: text, number: n, offset: start}, nil
}

func (l *lexer) lexIdent() (token, error) {
	start := l.pos
	for l.pos < len(l.src) && isIdentPart(l.src[l.pos]) {
		l.pos++
	}
	text := l.src[start:l.pos]
	switch text {
	case "true":
		return token{kind: tokTrue, text: text, offset: start}, nil
	case "false":
		return token{kind: tokFalse, text: text, offset: start}, nil
	case "nil", "null":
		return token{kind: tokNil, text: text, offset: start}, nil
	}
	return token{kind: tokIdent, text: text, offset: start}, nil
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || isDigit(c)
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
