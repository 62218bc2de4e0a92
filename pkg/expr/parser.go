package expr

import (
	"fmt"
	"strconv"
)

// parseCode parses an embedded code block into an AST. Any failure is a
// *SyntaxError; callers surface it at template-parse time.
func parseCode(src string) (node, error) {
	tokens, err := lex(src)
	if err != nil {
		return nil, err
	}
	p := &parser{src: src, tokens: tokens}
	n, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if p.current().Type != tokEOF {
		return nil, p.errorf("unexpected %q after expression", p.current().Value)
	}
	return n, nil
}

type parser struct {
	src    string
	tokens []token
	pos    int
}

func (p *parser) current() token {
	return p.tokens[p.pos]
}

func (p *parser) advance() token {
	tok := p.tokens[p.pos]
	if tok.Type != tokEOF {
		p.pos++
	}
	return tok
}

func (p *parser) match(typ tokenType) bool {
	if p.current().Type == typ {
		p.advance()
		return true
	}
	return false
}

func (p *parser) expect(typ tokenType, what string) (token, error) {
	if p.current().Type != typ {
		return token{}, p.errorf("expected %s, got %q", what, p.tokenValue())
	}
	return p.advance(), nil
}

func (p *parser) tokenValue() string {
	if p.current().Type == tokEOF {
		return "end of expression"
	}
	return p.current().Value
}

func (p *parser) errorf(format string, args ...any) error {
	return &SyntaxError{Source: p.src, Pos: p.current().Pos, Msg: fmt.Sprintf(format, args...)}
}

// parseExpr := or
func (p *parser) parseExpr() (node, error) {
	return p.parseOr()
}

func (p *parser) parseOr() (node, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.match(tokOr) {
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = binaryNode{Op: "or", Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseAnd() (node, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	for p.match(tokAnd) {
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		left = binaryNode{Op: "and", Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseNot() (node, error) {
	if p.match(tokNot) {
		operand, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return unaryNode{Op: "not", Operand: operand}, nil
	}
	return p.parseComparison()
}

var comparisonOps = map[tokenType]string{
	tokEqEq:   "==",
	tokBangEq: "!=",
	tokLt:     "<",
	tokLtEq:   "<=",
	tokGt:     ">",
	tokGtEq:   ">=",
}

func (p *parser) parseComparison() (node, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	if op, ok := comparisonOps[p.current().Type]; ok {
		p.advance()
		right, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		return binaryNode{Op: op, Left: left, Right: right}, nil
	}
	return left, nil
}

func (p *parser) parseAdditive() (node, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for {
		var op string
		switch p.current().Type {
		case tokPlus:
			op = "+"
		case tokMinus:
			op = "-"
		default:
			return left, nil
		}
		p.advance()
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		left = binaryNode{Op: op, Left: left, Right: right}
	}
}

func (p *parser) parseMultiplicative() (node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		var op string
		switch p.current().Type {
		case tokStar:
			op = "*"
		case tokSlash:
			op = "/"
		case tokPercent:
			op = "%"
		default:
			return left, nil
		}
		p.advance()
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = binaryNode{Op: op, Left: left, Right: right}
	}
}

func (p *parser) parseUnary() (node, error) {
	if p.match(tokMinus) {
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return unaryNode{Op: "-", Operand: operand}, nil
	}
	return p.parsePostfix()
}

// parsePostfix handles subscripts and dotted attribute access on a primary.
func (p *parser) parsePostfix() (node, error) {
	target, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for {
		switch p.current().Type {
		case tokLBracket:
			p.advance()
			index, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(tokRBracket, "']'"); err != nil {
				return nil, err
			}
			target = indexNode{Target: target, Index: index}
		case tokDot:
			p.advance()
			name, err := p.expect(tokIdent, "attribute name")
			if err != nil {
				return nil, err
			}
			target = attrNode{Target: target, Name: name.Value}
		default:
			return target, nil
		}
	}
}

func (p *parser) parsePrimary() (node, error) {
	switch p.current().Type {
	case tokNumber:
		tok := p.advance()
		n, err := strconv.ParseFloat(tok.Value, 64)
		if err != nil {
			return nil, p.errorf("invalid number %q", tok.Value)
		}
		return literalNode{Value: n}, nil
	case tokString:
		tok := p.advance()
		return literalNode{Value: tok.Value}, nil
	case tokIdent:
		return p.parseIdentOrCall()
	case tokLParen:
		p.advance()
		inner, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(tokRParen, "')'"); err != nil {
			return nil, err
		}
		return inner, nil
	case tokLBracket:
		return p.parseList()
	case tokLBrace:
		return p.parseMap()
	default:
		return nil, p.errorf("unexpected %q", p.tokenValue())
	}
}

// parseIdentOrCall parses a bare name or a call into the builtin table.
// Only bare identifiers are callable; the language has no function values.
func (p *parser) parseIdentOrCall() (node, error) {
	name := p.advance()
	if p.current().Type != tokLParen {
		return nameNode{Name: name.Value}, nil
	}
	p.advance()
	call := callNode{Name: name.Value}
	for p.current().Type != tokRParen {
		// keyword argument: ident '=' expr
		if p.current().Type == tokIdent && p.tokens[p.pos+1].Type == tokAssign {
			kwName := p.advance()
			p.advance()
			value, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			call.KwArgs = append(call.KwArgs, kwArg{Name: kwName.Value, Value: value})
		} else {
			if len(call.KwArgs) > 0 {
				return nil, p.errorf("positional argument after keyword argument")
			}
			arg, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			call.Args = append(call.Args, arg)
		}
		if !p.match(tokComma) {
			break
		}
	}
	if _, err := p.expect(tokRParen, "')'"); err != nil {
		return nil, err
	}
	return call, nil
}

func (p *parser) parseList() (node, error) {
	p.advance() // '['
	list := listNode{}
	for p.current().Type != tokRBracket {
		item, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		list.Items = append(list.Items, item)
		if !p.match(tokComma) {
			break
		}
	}
	if _, err := p.expect(tokRBracket, "']'"); err != nil {
		return nil, err
	}
	return list, nil
}

func (p *parser) parseMap() (node, error) {
	p.advance() // '{'
	m := mapNode{}
	for p.current().Type != tokRBrace {
		key, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(tokColon, "':'"); err != nil {
			return nil, err
		}
		value, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		m.Entries = append(m.Entries, mapEntry{Key: key, Value: value})
		if !p.match(tokComma) {
			break
		}
	}
	if _, err := p.expect(tokRBrace, "'}'"); err != nil {
		return nil, err
	}
	return m, nil
}
