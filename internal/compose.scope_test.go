package internal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScope_PushPop(t *testing.T) {
	scope := NewScope(map[string]any{"a": 1, "b": 2})

	pop := scope.Push(map[string]any{"b": 3, "c": 4})
	assert.Equal(t, 2, scope.Depth())
	v, _ := scope.Get("b")
	assert.Equal(t, 3, v)
	assert.True(t, scope.Has("c"))

	pop()
	pop()
	assert.Equal(t, 1, scope.Depth())
	v, _ = scope.Get("b")
	assert.Equal(t, 2, v)
	assert.False(t, scope.Has("c"))
}

func TestScope_NewIsIsolated(t *testing.T) {
	parent := NewScope(map[string]any{"secret": "x"})
	child := parent.New(map[string]any{"shown": "y"})

	assert.False(t, child.Has("secret"))
	assert.True(t, child.Has("shown"))
	assert.False(t, parent.Has("shown"))
}

func TestScope_SetTargetsTopLayer(t *testing.T) {
	scope := NewScope(nil)
	pop := scope.Push(nil)
	scope.Set("x", "inner")
	assert.Equal(t, "inner", scope.GetString("x"))
	pop()
	assert.False(t, scope.Has("x"))

	scope.Set("y", "outer")
	assert.Equal(t, "outer", scope.GetString("y"))
}

func TestScope_CopiesInput(t *testing.T) {
	values := map[string]any{"a": 1}
	scope := NewScope(values)
	values["a"] = 2
	scope.Set("b", 3)

	v, _ := scope.Get("a")
	assert.Equal(t, 1, v)
	_, leaked := values["b"]
	assert.False(t, leaked)
}

func TestScope_Flatten(t *testing.T) {
	scope := NewScope(map[string]any{"a": 1})
	scope.Push(map[string]any{"a": 2, "b": 3})

	env := scope.Flatten()
	assert.Equal(t, 2, env["a"])
	assert.Equal(t, 3, env["b"])
	assert.Equal(t, true, env[LiteralTrue])
	assert.Equal(t, false, env[LiteralFalse])
	assert.Contains(t, env, LiteralNone)
	assert.ElementsMatch(t, []string{"a", "b"}, scope.Keys())
}

func TestFormatValue(t *testing.T) {
	tests := []struct {
		name     string
		value    any
		expected string
	}{
		{name: "nil", value: nil, expected: ""},
		{name: "string", value: "x", expected: "x"},
		{name: "safe", value: SafeString("<b>"), expected: "<b>"},
		{name: "true", value: true, expected: "True"},
		{name: "false", value: false, expected: "False"},
		{name: "int", value: 42, expected: "42"},
		{name: "float", value: 1.5, expected: "1.5"},
		{name: "slice", value: []int{1, 2}, expected: "[1 2]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, FormatValue(tt.value))
		})
	}
}

func TestIsTruthy(t *testing.T) {
	truthy := []any{true, "x", SafeString("x"), 1, int64(-1), 0.5, []any{1}, map[string]any{"a": 1}, struct{}{}}
	falsy := []any{nil, false, "", SafeString(""), 0, 0.0, []any{}, map[string]any{}}

	for _, v := range truthy {
		assert.True(t, IsTruthy(v), "%#v", v)
	}
	for _, v := range falsy {
		assert.False(t, IsTruthy(v), "%#v", v)
	}
}

func TestExpression_Constants(t *testing.T) {
	tests := []struct {
		source   string
		expected any
	}{
		{source: `"card.html"`, expected: "card.html"},
		{source: `'single'`, expected: "single"},
		{source: `"a\"b"`, expected: `a"b`},
		{source: "True", expected: true},
		{source: "False", expected: false},
		{source: "None", expected: nil},
	}

	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			e, err := CompileExpression(tt.source)
			require.NoError(t, err)
			assert.True(t, e.IsConstant())
			v, err := e.Resolve(NewScope(nil))
			require.NoError(t, err)
			assert.Equal(t, tt.expected, v)
		})
	}
}

func TestExpression_Resolve(t *testing.T) {
	scope := NewScope(map[string]any{
		"n":     2,
		"user":  map[string]any{"name": "ann"},
		"items": []any{"a", "b"},
		"html":  "<script>x</script><b>ok</b>",
	})

	tests := []struct {
		source   string
		expected any
	}{
		{source: "n + 1", expected: 3},
		{source: "user.name", expected: "ann"},
		{source: "len(items)", expected: 2},
		{source: "missing", expected: nil},
		{source: "n > 1 && True", expected: true},
		{source: `"a" + "b"`, expected: "ab"},
		{source: "safe(html)", expected: SafeString("<script>x</script><b>ok</b>")},
		{source: `escape("<i>")`, expected: SafeString("&lt;i&gt;")},
		{source: "sanitize(html)", expected: SafeString("<b>ok</b>")},
	}

	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			e, err := CompileExpression(tt.source)
			require.NoError(t, err)
			v, err := e.Resolve(scope)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, v)
		})
	}
}

func TestExpression_Errors(t *testing.T) {
	_, err := CompileExpression("")
	require.Error(t, err)

	_, err = CompileExpression("a +")
	var exprErr *ExpressionError
	require.ErrorAs(t, err, &exprErr)
	assert.Equal(t, ErrMsgInvalidExpression, exprErr.Message)

	e, err := CompileExpression("safe(a, b)")
	require.NoError(t, err)
	_, err = e.Resolve(NewScope(map[string]any{"a": 1, "b": 2}))
	require.ErrorAs(t, err, &exprErr)
	assert.Equal(t, ErrMsgExpressionFailed, exprErr.Message)
}

func TestVariableNode_Escaping(t *testing.T) {
	env := newTestEnv(map[string]string{
		"page.html": `{{ raw }}|{{ safe(raw) }}|{{ flag }}|{{ nothing }}`,
	})

	out, err := env.render("page.html", map[string]any{"raw": "<a>", "flag": false})
	require.NoError(t, err)
	assert.Equal(t, "&lt;a&gt;|<a>|False|", out)
}
