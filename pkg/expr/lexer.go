package expr

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// tokenType identifies the type of a lexer token.
type tokenType int

const (
	// Keywords
	tokAnd tokenType = iota
	tokOr
	tokNot

	// Literals
	tokNumber
	tokString

	// Identifiers
	tokIdent

	// Punctuation
	tokLParen   // (
	tokRParen   // )
	tokLBracket // [
	tokRBracket // ]
	tokLBrace   // {
	tokRBrace   // }
	tokComma    // ,
	tokColon    // :
	tokDot      // .
	tokAssign   // = (keyword arguments only)

	// Comparison operators
	tokEqEq   // ==
	tokBangEq // !=
	tokLtEq   // <=
	tokGtEq   // >=
	tokLt     // <
	tokGt     // >

	// Arithmetic operators
	tokPlus    // +
	tokMinus   // -
	tokStar    // *
	tokSlash   // /
	tokPercent // %

	tokEOF
)

// token is a single lexer token.
type token struct {
	Type  tokenType
	Value string
	Pos   int
}

var keywords = map[string]tokenType{
	"and": tokAnd,
	"or":  tokOr,
	"not": tokNot,
}

// lex tokenizes an embedded code block. src is the code between the braces
// of a ${...} block.
func lex(src string) ([]token, error) {
	var tokens []token
	pos := 0
	for pos < len(src) {
		c := src[pos]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			pos++
		case c >= '0' && c <= '9':
			start := pos
			for pos < len(src) && (src[pos] >= '0' && src[pos] <= '9' || src[pos] == '.') {
				pos++
			}
			lit := src[start:pos]
			if _, err := strconv.ParseFloat(lit, 64); err != nil {
				return nil, &SyntaxError{Source: src, Pos: start, Msg: fmt.Sprintf("invalid number %q", lit)}
			}
			tokens = append(tokens, token{Type: tokNumber, Value: lit, Pos: start})
		case c == '\'' || c == '"':
			lit, next, err := lexString(src, pos)
			if err != nil {
				return nil, err
			}
			tokens = append(tokens, token{Type: tokString, Value: lit, Pos: pos})
			pos = next
		case isIdentStart(rune(c)):
			start := pos
			for pos < len(src) {
				r, size := utf8.DecodeRuneInString(src[pos:])
				if !isIdentPart(r) {
					break
				}
				pos += size
			}
			word := src[start:pos]
			if kw, ok := keywords[word]; ok {
				tokens = append(tokens, token{Type: kw, Value: word, Pos: start})
			} else {
				tokens = append(tokens, token{Type: tokIdent, Value: word, Pos: start})
			}
		default:
			tok, width, err := lexOperator(src, pos)
			if err != nil {
				return nil, err
			}
			tokens = append(tokens, tok)
			pos += width
		}
	}
	tokens = append(tokens, token{Type: tokEOF, Pos: len(src)})
	return tokens, nil
}

func lexString(src string, pos int) (string, int, error) {
	quote := src[pos]
	var sb strings.Builder
	i := pos + 1
	for i < len(src) {
		c := src[i]
		if c == '\\' && i+1 < len(src) {
			next := src[i+1]
			switch next {
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			case 'r':
				sb.WriteByte('\r')
			case '\\', '\'', '"':
				sb.WriteByte(next)
			default:
				sb.WriteByte('\\')
				sb.WriteByte(next)
			}
			i += 2
			continue
		}
		if c == quote {
			return sb.String(), i + 1, nil
		}
		sb.WriteByte(c)
		i++
	}
	return "", 0, &SyntaxError{Source: src, Pos: pos, Msg: "unterminated string literal"}
}

func lexOperator(src string, pos int) (token, int, error) {
	two := ""
	if pos+1 < len(src) {
		two = src[pos : pos+2]
	}
	switch two {
	case "==":
		return token{Type: tokEqEq, Value: two, Pos: pos}, 2, nil
	case "!=":
		return token{Type: tokBangEq, Value: two, Pos: pos}, 2, nil
	case "<=":
		return token{Type: tokLtEq, Value: two, Pos: pos}, 2, nil
	case ">=":
		return token{Type: tokGtEq, Value: two, Pos: pos}, 2, nil
	}
	single := map[byte]tokenType{
		'(': tokLParen, ')': tokRParen,
		'[': tokLBracket, ']': tokRBracket,
		'{': tokLBrace, '}': tokRBrace,
		',': tokComma, ':': tokColon, '.': tokDot, '=': tokAssign,
		'<': tokLt, '>': tokGt,
		'+': tokPlus, '-': tokMinus, '*': tokStar, '/': tokSlash, '%': tokPercent,
	}
	if typ, ok := single[src[pos]]; ok {
		return token{Type: typ, Value: src[pos : pos+1], Pos: pos}, 1, nil
	}
	return token{}, 0, &SyntaxError{Source: src, Pos: pos, Msg: fmt.Sprintf("unexpected character %q", src[pos])}
}

func isIdentStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isIdentPart(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
