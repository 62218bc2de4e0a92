package expr

import "strings"

// part is one segment of a parsed template: literal text or a code block.
type part struct {
	text string
	code *codePart
}

// codePart is a parsed ${...} block. The source is kept for error
// reporting.
type codePart struct {
	src  string
	node node
}

// StringExpr is a parsed template string. `${...}` blocks embed code;
// `\${...}` renders as literal `${...}` with the backslash stripped.
// Parsing happens once; malformed embedded code fails here, not at
// evaluation time.
type StringExpr struct {
	raw     string
	parts   []part
	dynamic bool
	static  string
}

// ParseString parses a template string. The only failure mode is malformed
// embedded code.
func ParseString(raw string) (*StringExpr, error) {
	e := &StringExpr{raw: raw}
	var text strings.Builder

	flush := func() {
		if text.Len() > 0 {
			e.parts = append(e.parts, part{text: text.String()})
			text.Reset()
		}
	}

	i := 0
	for i < len(raw) {
		j := strings.Index(raw[i:], "${")
		if j < 0 {
			text.WriteString(raw[i:])
			break
		}
		j += i

		// A block needs a non-empty body and a closing brace; otherwise the
		// candidate is plain text.
		end := strings.IndexByte(raw[j+2:], '}')
		if end < 0 || end == 0 {
			text.WriteString(raw[i : j+2])
			i = j + 2
			continue
		}
		end += j + 2

		if j > i && raw[j-1] == '\\' {
			// Escaped block: strip the backslash, keep ${...} literally.
			text.WriteString(raw[i : j-1])
			text.WriteString(raw[j : end+1])
			i = end + 1
			continue
		}

		src := raw[j+2 : end]
		parsed, err := parseCode(src)
		if err != nil {
			return nil, err
		}
		text.WriteString(raw[i:j])
		flush()
		e.parts = append(e.parts, part{code: &codePart{src: src, node: parsed}})
		e.dynamic = true
		i = end + 1
	}
	flush()

	if !e.dynamic {
		var sb strings.Builder
		for _, p := range e.parts {
			sb.WriteString(p.text)
		}
		e.static = sb.String()
	}
	return e, nil
}

// MustParseString is ParseString for templates known to be well-formed,
// typically literals in tests and host code.
func MustParseString(raw string) *StringExpr {
	e, err := ParseString(raw)
	if err != nil {
		panic(err)
	}
	return e
}

// Raw returns the original template source.
func (e *StringExpr) Raw() string { return e.raw }

// IsDynamic reports whether the template contains code blocks.
func (e *StringExpr) IsDynamic() bool { return e.dynamic }

// Static returns the precomputed rendering of a non-dynamic template. It
// differs from Raw when escaped blocks were unescaped.
func (e *StringExpr) Static() string { return e.static }

// Evaluate renders the template against a scope.
//
//   - Not dynamic: the precomputed static string, no re-parsing.
//   - Exactly one code block with no surrounding text: the code's native
//     value, unconverted. This is the sole path preserving non-string types.
//   - Mixed text and code: each block evaluated, stringified, and
//     concatenated with the adjoining text.
//
// Evaluation failures are wrapped into an *EvalError reporting the
// offending source text.
func (e *StringExpr) Evaluate(ctx *Context) (any, error) {
	if !e.dynamic {
		return e.static, nil
	}
	if ctx == nil {
		ctx = NewContext(nil)
	}

	if len(e.parts) == 1 && e.parts[0].code != nil {
		code := e.parts[0].code
		v, err := evalNode(code.node, ctx)
		if err != nil {
			return nil, &EvalError{Source: code.src, Err: err}
		}
		return v, nil
	}

	var sb strings.Builder
	for _, p := range e.parts {
		if p.code == nil {
			sb.WriteString(p.text)
			continue
		}
		v, err := evalNode(p.code.node, ctx)
		if err != nil {
			return nil, &EvalError{Source: p.code.src, Err: err}
		}
		sb.WriteString(Stringify(v))
	}
	return sb.String(), nil
}

func (e *StringExpr) String() string { return e.raw }
