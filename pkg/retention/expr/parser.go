package expr

import "fmt"

// node is an expression AST node.
type node interface{}

type literalNode struct {
	value any // string, float64, bool, or nil
}

type identNode struct {
	name   string
	offset int
}

type selectorNode struct {
	target node
	field  string
	offset int
}

type indexNode struct {
	target node
	key    node
	offset int
}

type callNode struct {
	target node
	method string
	args   []node
	offset int
}

type unaryNode struct {
	op      tokenKind // tokNot or tokMinus
	operand node
	offset  int
}

type binaryNode struct {
	op          tokenKind
	left, right node
	offset      int
}

// parser is a recursive-descent parser over the token stream. Precedence,
// loosest to tightest: || && (== !=) (< <= > >=) (+ -) (* /) unary postfix.
type parser struct {
	lex *lexer
	tok token
}

func parse(src string) (node, error) {
	p := &parser{lex: newLexer(src)}
	if err := p.advance(); err != nil {
		return nil, err
	}
	n, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if p.tok.kind != tokEOF {
		return nil, &SyntaxError{Offset: p.tok.offset, Message: fmt.Sprintf("unexpected %q", p.tok.text)}
	}
	return n, nil
}

func (p *parser) advance() error {
	tok, err := p.lex.next()
	if err != nil {
		return err
	}
	p.tok = tok
	return nil
}

func (p *parser) expect(kind tokenKind, what string) error {
	if p.tok.kind != kind {
		return &SyntaxError{Offset: p.tok.offset, Message: fmt.Sprintf("expected %s", what)}
	}
	return p.advance()
}

func (p *parser) parseOr() (node, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.tok.kind == tokOr {
		offset := p.tok.offset
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &binaryNode{op: tokOr, left: left, right: right, offset: offset}
	}
	return left, nil
}

func (p *parser) parseAnd() (node, error) {
	left, err := p.parseEquality()
	if err != nil {
		return nil, err
	}
	for p.tok.kind == tokAnd {
		offset := p.tok.offset
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseEquality()
		if err != nil {
			return nil, err
		}
		left = &binaryNode{op: tokAnd, left: left, right: right, offset: offset}
	}
	return left, nil
}

func (p *parser) parseEquality() (node, error) {
	return p.parseBinary([]tokenKind{tokEq, tokNeq}, p.parseComparison)
}

func (p *parser) parseComparison() (node, error) {
	return p.parseBinary([]tokenKind{tokLt, tokLte, tokGt, tokGte}, p.parseAdditive)
}

func (p *parser) parseAdditive() (node, error) {
	return p.parseBinary([]tokenKind{tokPlus, tokMinus}, p.parseMultiplicative)
}

func (p *parser) parseMultiplicative() (node, error) {
	return p.parseBinary([]tokenKind{tokStar, tokSlash}, p.parseUnary)
}

func (p *parser) parseBinary(ops []tokenKind, next func() (node, error)) (node, error) {
	left, err := next()
	if err != nil {
		return nil, err
	}
	for matches(p.tok.kind, ops) {
		op := p.tok.kind
		offset := p.tok.offset
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := next()
		if err != nil {
			return nil, err
		}
		left = &binaryNode{op: op, left: left, right: right, offset: offset}
	}
	return left, nil
}

func (p *parser) parseUnary() (node, error) {
	if p.tok.kind == tokNot || p.tok.kind == tokMinus {
		op := p.tok.kind
		offset := p.tok.offset
		if err := p.advance(); err != nil {
			return nil, err
		}
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &unaryNode{op: op, operand: operand, offset: offset}, nil
	}
	return p.parsePostfix()
}

func (p *parser) parsePostfix() (node, error) {
	n, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for {
		switch p.tok.kind {
		case tokDot:
			if err := p.advance(); err != nil {
				return nil, err
			}
			if p.tok.kind != tokIdent {
				return nil, &SyntaxError{Offset: p.tok.offset, Message: "expected field or method name after '.'"}
			}
			name := p.tok.text
			offset := p.tok.offset
			if err := p.advance(); err != nil {
				return nil, err
			}
			if p.tok.kind == tokLParen {
				args, err := p.parseArgs()
				if err != nil {
					return nil, err
				}
				n = &callNode{target: n, method: name, args: args, offset: offset}
			} else {
				n = &selectorNode{target: n, field: name, offset: offset}
			}

		case tokLBracket:
			offset := p.tok.offset
			if err := p.advance(); err != nil {
				return nil, err
			}
			key, err := p.parseOr()
			if err != nil {
				return nil, err
			}
			if err := p.expect(tokRBracket, "']'"); err != nil {
				return nil, err
			}
			n = &indexNode{target: n, key: key, offset: offset}

		default:
			return n, nil
		}
	}
}

func (p *parser) parseArgs() ([]node, error) {
	if err := p.advance(); err != nil { // consume '('
		return nil, err
	}
	var args []node
	if p.tok.kind == tokRParen {
		return args, p.advance()
	}
	for {
		arg, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		if p.tok.kind == tokComma {
			if err := p.advance(); err != nil {
				return nil, err
			}
			continue
		}
		return args, p.expect(tokRParen, "')'")
	}
}

func (p *parser) parsePrimary() (node, error) {
	switch p.tok.kind {
	case tokString:
		n := &literalNode{value: p.tok.text}
		return n, p.advance()
	case tokNumber:
		n := &literalNode{value: p.tok.number}
		return n, p.advance()
	case tokTrue:
		return &literalNode{value: true}, p.advance()
	case tokFalse:
		return &literalNode{value: false}, p.advance()
	case tokNil:
		return &literalNode{value: nil}, p.advance()
	case tokIdent:
		n := &identNode{name: p.tok.text, offset: p.tok.offset}
		return n, p.advance()
	case tokLParen:
		if err := p.advance(); err != nil {
			return nil, err
		}
		n, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		return n, p.expect(tokRParen, "')'")
	}
	return nil, &SyntaxError{Offset: p.tok.offset, Message: fmt.Sprintf("unexpected %q", p.tok.text)}
}

func matches(kind tokenKind, ops []tokenKind) bool {
	for _, op := range ops {
		if kind == op {
			return true
		}
	}
	return false
}
