package expr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func evaluate(t *testing.T, template string, vars map[string]any) any {
	t.Helper()
	e, err := ParseString(template)
	require.NoError(t, err)
	result, err := e.Evaluate(NewContext(vars))
	require.NoError(t, err)
	return result
}

func TestStringExprStatic(t *testing.T) {
	e, err := ParseString("Hello World")
	require.NoError(t, err)

	assert.False(t, e.IsDynamic())
	result, err := e.Evaluate(nil)
	require.NoError(t, err)
	assert.Equal(t, "Hello World", result)
}

func TestStringExprBasicSubstitution(t *testing.T) {
	e, err := ParseString("Hello ${name}")
	require.NoError(t, err)

	assert.True(t, e.IsDynamic())
	result, err := e.Evaluate(NewContext(map[string]any{"name": "User"}))
	require.NoError(t, err)
	assert.Equal(t, "Hello User", result)
}

func TestStringExprMath(t *testing.T) {
	assert.Equal(t, "Result: 15", evaluate(t, "Result: ${a + b}", map[string]any{"a": 5, "b": 10}))
}

func TestStringExprMultipleBlocks(t *testing.T) {
	result := evaluate(t, "${x} + ${y} = ${x + y}", map[string]any{"x": 1, "y": 2})
	assert.Equal(t, "1 + 2 = 3", result)
}

func TestStringExprNativeTypePreservation(t *testing.T) {
	t.Run("lone block returns native value", func(t *testing.T) {
		result := evaluate(t, "${items}", map[string]any{"items": []any{"a", "b"}})
		assert.Equal(t, []any{"a", "b"}, result)
	})

	t.Run("mixed template returns string", func(t *testing.T) {
		result := evaluate(t, "x ${n}", map[string]any{"n": 42})
		assert.Equal(t, "x 42", result)
	})

	t.Run("indexing", func(t *testing.T) {
		result := evaluate(t, "${items[1]}", map[string]any{"items": []any{"a", "b", "c"}})
		assert.Equal(t, "b", result)
	})
}

func TestStringExprEscaping(t *testing.T) {
	t.Run("escaped block is literal", func(t *testing.T) {
		e, err := ParseString(`Value is \${price}`)
		require.NoError(t, err)

		assert.False(t, e.IsDynamic())
		result, err := e.Evaluate(NewContext(map[string]any{"price": 100}))
		require.NoError(t, err)
		assert.Equal(t, "Value is ${price}", result)
	})

	t.Run("escaped block ignores unbound names", func(t *testing.T) {
		result := evaluate(t, `\${x}`, nil)
		assert.Equal(t, "${x}", result)
	})

	t.Run("mixed escaped and live blocks", func(t *testing.T) {
		result := evaluate(t, `Use \${var} to see ${var}`, map[string]any{"var": "result"})
		assert.Equal(t, "Use ${var} to see result", result)
	})
}

func TestStringExprUndefinedName(t *testing.T) {
	e, err := ParseString("Hello ${unknown}")
	require.NoError(t, err)

	_, err = e.Evaluate(NewContext(map[string]any{"known": "value"}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to evaluate ${unknown}")
	assert.Contains(t, err.Error(), `"unknown" is not defined`)
	assert.Contains(t, err.Error(), "known")
}

func TestStringExprSyntaxErrorFailsAtParseTime(t *testing.T) {
	_, err := ParseString("Value: ${1 + }")
	require.Error(t, err)
	var syntaxErr *SyntaxError
	assert.ErrorAs(t, err, &syntaxErr)
}

func TestStringExprEmptyAndDegenerateBlocks(t *testing.T) {
	assert.Equal(t, "", evaluate(t, "", nil))
	// ${} has no body; it stays literal text.
	assert.Equal(t, "${}", evaluate(t, "${}", nil))
	// An unterminated block stays literal text.
	assert.Equal(t, "${x", evaluate(t, "${x", nil))
}

func TestStringExprDottedAccess(t *testing.T) {
	vars := map[string]any{"a": map[string]any{"b": map[string]any{"c": 7}}}
	// Container lookups preserve the stored value untouched.
	assert.Equal(t, 7, evaluate(t, "${a.b.c}", vars))
	assert.Equal(t, 7, evaluate(t, "${a['b']['c']}", vars))
}
