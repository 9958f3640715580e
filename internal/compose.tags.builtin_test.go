package internal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuiltinTags_Render(t *testing.T) {
	tests := []struct {
		name     string
		page     string
		data     map[string]any
		expected string
	}{
		{
			name:     "if true",
			page:     `{% if ok %}yes{% endif %}`,
			data:     map[string]any{"ok": true},
			expected: "yes",
		},
		{
			name:     "if elif else",
			page:     `{% if n == 1 %}one{% elif n == 2 %}two{% else %}many{% endif %}`,
			data:     map[string]any{"n": 2},
			expected: "two",
		},
		{
			name:     "else branch",
			page:     `{% if n == 1 %}one{% else %}other{% endif %}`,
			data:     map[string]any{"n": 5},
			expected: "other",
		},
		{
			name:     "if missing variable",
			page:     `{% if nope %}yes{% endif %}`,
			expected: "",
		},
		{
			name:     "for with forloop",
			page:     `{% for x in xs %}{{ forloop.counter }}{{ x }}{% if !forloop.last %},{% endif %}{% endfor %}`,
			data:     map[string]any{"xs": []string{"a", "b", "c"}},
			expected: "1a,2b,3c",
		},
		{
			name:     "for reversed",
			page:     `{% for x in xs reversed %}{{ x }}{% endfor %}`,
			data:     map[string]any{"xs": []int{1, 2, 3}},
			expected: "321",
		},
		{
			name:     "for empty",
			page:     `{% for x in xs %}{{ x }}{% empty %}none{% endfor %}`,
			data:     map[string]any{"xs": []any{}},
			expected: "none",
		},
		{
			name:     "for over map",
			page:     `{% for k, v in m %}{{ k }}={{ v }};{% endfor %}`,
			data:     map[string]any{"m": map[string]int{"b": 2, "a": 1}},
			expected: "a=1;b=2;",
		},
		{
			name:     "for unpacks pairs",
			page:     `{% for a,b in pairs %}{{ a }}{{ b }}{% endfor %}`,
			data:     map[string]any{"pairs": [][]any{{"x", 1}, {"y", 2}}},
			expected: "x1y2",
		},
		{
			name:     "nested loop parentloop",
			page:     `{% for a in xs %}{% for b in xs %}{{ forloop.parentloop.counter }}{{ forloop.counter }} {% endfor %}{% endfor %}`,
			data:     map[string]any{"xs": []int{1, 2}},
			expected: "11 12 21 22 ",
		},
		{
			name:     "loop variable does not leak",
			page:     `{% for x in xs %}{% endfor %}[{{ x }}]`,
			data:     map[string]any{"xs": []int{1}},
			expected: "[]",
		},
		{
			name:     "with",
			page:     `{% with a="1" b=n %}{{ a }}{{ b }}{% endwith %}{{ a }}`,
			data:     map[string]any{"n": 2},
			expected: "12",
		},
		{
			name:     "comment tag",
			page:     `a{% comment %}{% compose %}{% nonsense %}{% endcomment %}b`,
			expected: "ab",
		},
		{
			name:     "define binds in scope",
			page:     `{% define greeting %}Hi <b>{{ who }}</b>{% enddefine %}[{{ greeting }}]`,
			data:     map[string]any{"who": "ann"},
			expected: "[Hi <b>ann</b>]",
		},
		{
			name:     "define feeds a keyword",
			page:     `{% define t %}T{% enddefine %}{% compose "card.html" title=t %}c{% endcompose %}`,
			expected: "T: c",
		},
		{
			name:     "include shares scope",
			page:     `{% include "part.html" %}`,
			data:     map[string]any{"who": "ann"},
			expected: "part(ann)",
		},
		{
			name:     "include with values",
			page:     `{% include "part.html" with who="bob" %}`,
			data:     map[string]any{"who": "ann"},
			expected: "part(bob)",
		},
		{
			name:     "include only",
			page:     `{% include "part.html" only %}`,
			data:     map[string]any{"who": "ann"},
			expected: "part()",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(map[string]string{
				"page.html": tt.page,
				"card.html": `{{ title }}: {{ children }}`,
				"part.html": `part({{ who }})`,
			})
			out, err := env.render("page.html", tt.data)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, out)
		})
	}
}

func TestBuiltinTags_SyntaxErrors(t *testing.T) {
	tests := []struct {
		name    string
		source  string
		message string
	}{
		{name: "if without condition", source: `{% if %}x{% endif %}`, message: ErrMsgIfMissingCondition},
		{name: "unclosed if", source: `{% if a %}x`, message: ErrMsgUnclosedTag},
		{name: "else twice", source: `{% if a %}x{% else %}y{% else %}z{% endif %}`, message: ErrMsgUnexpectedEndTag},
		{name: "for without in", source: `{% for x xs %}{% endfor %}`, message: ErrMsgForSyntax},
		{name: "for bad variable", source: `{% for 1x in xs %}{% endfor %}`, message: ErrMsgInvalidName},
		{name: "with positional", source: `{% with a %}{% endwith %}`, message: ErrMsgWithSyntax},
		{name: "with empty", source: `{% with %}{% endwith %}`, message: ErrMsgWithSyntax},
		{name: "include empty", source: `{% include %}`, message: ErrMsgIncludeSyntax},
		{name: "include stray argument", source: `{% include "a" b=1 %}`, message: ErrMsgIncludeSyntax},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseSource(t, tt.source)
			require.Error(t, err)
			var syntaxErr *SyntaxError
			require.ErrorAs(t, err, &syntaxErr)
			assert.Contains(t, syntaxErr.Message, tt.message)
		})
	}
}

func TestForNode_NotIterable(t *testing.T) {
	env := newTestEnv(map[string]string{"page.html": `{% for x in n %}{% endfor %}`})

	_, err := env.render("page.html", map[string]any{"n": 3})
	require.Error(t, err)
	var compErr *CompositionError
	require.ErrorAs(t, err, &compErr)
	assert.Equal(t, TagNameFor, compErr.TagName)
}
