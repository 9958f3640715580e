package internal

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errTestNotFound = errors.New("template not found")

// testEnv is a map backed template selector for render tests.
type testEnv struct {
	lib     *TagLibrary
	sources map[string]string
	parsed  map[string]*Template
	loads   map[string]int
}

func newTestEnv(sources map[string]string) *testEnv {
	lib := NewTagLibrary(nil)
	RegisterBuiltins(lib)
	return &testEnv{
		lib:     lib,
		sources: sources,
		parsed:  make(map[string]*Template),
		loads:   make(map[string]int),
	}
}

func (e *testEnv) SelectTemplate(_ context.Context, names []string) (Renderable, error) {
	for _, name := range names {
		src, ok := e.sources[name]
		if !ok {
			continue
		}
		e.loads[name]++
		if tmpl, ok := e.parsed[name]; ok {
			return tmpl, nil
		}
		tmpl, err := e.parse(name, src)
		if err != nil {
			return nil, err
		}
		e.parsed[name] = tmpl
		return tmpl, nil
	}
	return nil, fmt.Errorf("%w: %v", errTestNotFound, names)
}

func (e *testEnv) parse(name, src string) (*Template, error) {
	tokens, err := NewLexer(src, nil).Tokenize()
	if err != nil {
		return nil, err
	}
	nodes, err := NewParser(tokens, e.lib, name, nil).Parse()
	if err != nil {
		return nil, err
	}
	return NewTemplate(name, src, nodes), nil
}

func (e *testEnv) render(name string, data map[string]any) (string, error) {
	tmpl, err := e.SelectTemplate(context.Background(), []string{name})
	if err != nil {
		return "", err
	}
	rc := NewRenderContext(context.Background(), e, nil, DefaultMaxDepth)
	return tmpl.RenderIn(rc, NewScope(data))
}

func TestCompose_EndToEnd(t *testing.T) {
	tests := []struct {
		name     string
		page     string
		data     map[string]any
		expected string
	}{
		{
			name:     "keyword and children",
			page:     `{% compose "card.html" title="Hi" %}Body text{% endcompose %}`,
			expected: "Hi: Body text",
		},
		{
			name:     "slot supplies title",
			page:     `{% compose "card.html" %}{% slot "title" %}Hi{% endslot %}Body{% endcompose %}`,
			expected: "Hi: Body",
		},
		{
			name:     "unquoted slot name",
			page:     `{% compose "card.html" %}{% slot title %}Hi{% endslot %}Body{% endcompose %}`,
			expected: "Hi: Body",
		},
		{
			name:     "template name from variable",
			page:     `{% compose tmpl title=heading %}x{% endcompose %}`,
			data:     map[string]any{"tmpl": "card.html", "heading": "H"},
			expected: "H: x",
		},
		{
			name:     "first existing candidate wins",
			page:     `{% compose names title="A" %}b{% endcompose %}`,
			data:     map[string]any{"names": []string{"missing.html", "card.html"}},
			expected: "A: b",
		},
		{
			name:     "children are not escaped twice",
			page:     `{% compose "card.html" title="<b>" %}<i>x</i>{% endcompose %}`,
			expected: "&lt;b&gt;: <i>x</i>",
		},
		{
			name:     "nested compositions",
			page:     `{% compose "card.html" title="outer" %}{% compose "card.html" title="inner" %}core{% endcompose %}{% endcompose %}`,
			expected: "outer: inner: core",
		},
		{
			name:     "slot inside if",
			page:     `{% compose "card.html" %}{% if show %}{% slot title %}Shown{% endslot %}{% endif %}B{% endcompose %}`,
			data:     map[string]any{"show": true},
			expected: "Shown: B",
		},
		{
			name:     "slot binds to nearest composition",
			page:     `{% compose "card.html" title="o" %}{% compose "card.html" %}{% slot title %}i{% endslot %}c{% endcompose %}{% endcompose %}`,
			expected: "o: i: c",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(map[string]string{
				"page.html": tt.page,
				"card.html": `{{ title }}: {{ children }}`,
			})
			out, err := env.render("page.html", tt.data)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, out)
		})
	}
}

func TestCompose_ArraySlots(t *testing.T) {
	env := newTestEnv(map[string]string{
		"page.html": `{% compose "list.html" %}{% slot[] item %}a{% endslot %}{% slot[] item %}b{% endslot %}{% endcompose %}`,
		"list.html": `{% for i in item %}[{{ i }}]{% endfor %}`,
	})

	out, err := env.render("page.html", nil)
	require.NoError(t, err)
	assert.Equal(t, "[a][b]", out)
}

func TestCompose_ArraySlotsInLoop(t *testing.T) {
	env := newTestEnv(map[string]string{
		"page.html": `{% compose "list.html" %}{% for x in xs %}{% slot[] item %}{{ x }}{% endslot %}{% endfor %}{% endcompose %}`,
		"list.html": `{{ len(item) }}:{% for i in item %}{{ i }}{% endfor %}`,
	})

	out, err := env.render("page.html", map[string]any{"xs": []any{"1", "2", "3"}})
	require.NoError(t, err)
	assert.Equal(t, "3:123", out)
}

func TestCompose_Isolation(t *testing.T) {
	env := newTestEnv(map[string]string{
		"page.html": `{% compose "view.html" shown="yes" %}{% endcompose %}`,
		"view.html": `[{{ shown }}|{{ secret }}]`,
	})

	out, err := env.render("page.html", map[string]any{"secret": "leak"})
	require.NoError(t, err)
	assert.Equal(t, "[yes|]", out)
}

func TestCompose_TakesContext(t *testing.T) {
	env := newTestEnv(map[string]string{
		"page.html": `{% compose "view.html" shown="yes" takes_context %}c{% endcompose %}{{ shown }}`,
		"view.html": `[{{ shown }}|{{ secret }}|{{ children }}]`,
	})

	out, err := env.render("page.html", map[string]any{"secret": "visible"})
	require.NoError(t, err)
	assert.Equal(t, "[yes|visible|c]", out, "layer must be popped after the composition")
}

func TestCompose_TakesContextPopsOnError(t *testing.T) {
	env := newTestEnv(map[string]string{
		"view.html": `{% compose "missing.html" %}{% endcompose %}`,
	})
	page, err := env.parse("page.html", `{% compose "view.html" b=2 takes_context %}{% endcompose %}`)
	require.NoError(t, err)

	scope := NewScope(map[string]any{"a": 1})
	rc := NewRenderContext(context.Background(), env, nil, DefaultMaxDepth)
	_, err = page.RenderIn(rc, scope)
	require.Error(t, err)
	assert.ErrorIs(t, err, errTestNotFound)
	assert.Equal(t, 1, scope.Depth())
	assert.False(t, scope.Has("b"))
}

func TestCompose_CSRFToken(t *testing.T) {
	tests := []struct {
		name     string
		page     string
		data     map[string]any
		expected string
	}{
		{
			name:     "propagated into isolated scope",
			page:     `{% compose "form.html" %}{% endcompose %}`,
			data:     map[string]any{"csrf_token": "tok"},
			expected: "<tok>",
		},
		{
			name:     "visible through context",
			page:     `{% compose "form.html" takes_context %}{% endcompose %}`,
			data:     map[string]any{"csrf_token": "tok"},
			expected: "<tok>",
		},
		{
			name:     "absent token stays absent",
			page:     `{% compose "form.html" %}{% endcompose %}`,
			expected: "<>",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(map[string]string{
				"page.html": tt.page,
				"form.html": `<{{ csrf_token }}>`,
			})
			out, err := env.render("page.html", tt.data)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, out)
		})
	}
}

func TestCompose_SlotErrors(t *testing.T) {
	tests := []struct {
		name    string
		page    string
		message string
	}{
		{
			name:    "duplicate single slot",
			page:    `{% compose "card.html" %}{% slot title %}a{% endslot %}{% slot title %}b{% endslot %}{% endcompose %}`,
			message: ErrMsgSlotAlreadyDeclared,
		},
		{
			name:    "slot collides with keyword",
			page:    `{% compose "card.html" title="x" %}{% slot title %}a{% endslot %}{% endcompose %}`,
			message: ErrMsgSlotKeywordCollision,
		},
		{
			name:    "array slot collides with keyword",
			page:    `{% compose "card.html" title="x" %}{% slot[] title %}a{% endslot %}{% endcompose %}`,
			message: ErrMsgSlotKeywordCollision,
		},
		{
			name:    "array slot collides with single slot",
			page:    `{% compose "card.html" %}{% slot[] title %}a{% endslot %}{% slot title %}b{% endslot %}{% endcompose %}`,
			message: ErrMsgSlotKindCollision,
		},
		{
			name:    "slot outside composition",
			page:    `{% slot title %}a{% endslot %}`,
			message: ErrMsgSlotOutsideCompose,
		},
		{
			name:    "slot in target template",
			page:    `{% compose "slotted.html" %}{% endcompose %}`,
			message: ErrMsgSlotOutsideCompose,
		},
		{
			name:    "slot in included template",
			page:    `{% compose "card.html" %}{% include "slotted.html" %}{% endcompose %}`,
			message: ErrMsgSlotOutsideCompose,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(map[string]string{
				"page.html":    tt.page,
				"card.html":    `{{ title }}: {{ children }}`,
				"slotted.html": `{% slot title %}x{% endslot %}`,
			})
			_, err := env.render("page.html", nil)
			require.Error(t, err)

			var compErr *CompositionError
			require.ErrorAs(t, err, &compErr)
			assert.Equal(t, tt.message, compErr.Message)
		})
	}
}

func TestCompileCompose_SyntaxErrors(t *testing.T) {
	tests := []struct {
		name    string
		source  string
		message string
	}{
		{
			name:    "missing template",
			source:  `{% compose %}{% endcompose %}`,
			message: ErrMsgComposeMissingTarget,
		},
		{
			name:    "children keyword",
			source:  `{% compose "card.html" children="x" %}{% endcompose %}`,
			message: ErrMsgChildrenKeyword,
		},
		{
			name:    "positional argument",
			source:  `{% compose "card.html" stray %}{% endcompose %}`,
			message: ErrMsgUnexpectedArgument,
		},
		{
			name:    "duplicate keyword",
			source:  `{% compose "card.html" a=1 a=2 %}{% endcompose %}`,
			message: ErrMsgDuplicateKeyword,
		},
		{
			name:    "missing end tag",
			source:  `{% compose "card.html" %}body`,
			message: ErrMsgUnclosedTag,
		},
		{
			name:    "slot named children",
			source:  `{% compose "card.html" %}{% slot children %}x{% endslot %}{% endcompose %}`,
			message: ErrMsgSlotChildren,
		},
		{
			name:    "slot without name",
			source:  `{% compose "card.html" %}{% slot %}x{% endslot %}{% endcompose %}`,
			message: ErrMsgSlotArgCount,
		},
		{
			name:    "relative path escapes",
			source:  `{% compose "../../card.html" %}{% endcompose %}`,
			message: ErrMsgRelativePathEscapes,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(nil)
			_, err := env.parse("pages/page.html", tt.source)
			require.Error(t, err)

			var syntaxErr *SyntaxError
			require.ErrorAs(t, err, &syntaxErr)
			assert.Contains(t, syntaxErr.Message, tt.message)
		})
	}
}

func TestCompose_TemplateCachePerPass(t *testing.T) {
	env := newTestEnv(map[string]string{
		"page.html": `{% for x in xs %}{% compose "card.html" title=x %}{% endcompose %}{% endfor %}`,
		"card.html": `{{ title }};`,
	})
	data := map[string]any{"xs": []any{"a", "b", "c"}}

	out, err := env.render("page.html", data)
	require.NoError(t, err)
	assert.Equal(t, "a;b;c;", out)
	assert.Equal(t, 1, env.loads["card.html"])

	_, err = env.render("page.html", data)
	require.NoError(t, err)
	assert.Equal(t, 2, env.loads["card.html"], "cache must not outlive the render pass")
}

func TestCompose_RenderTwiceIndependent(t *testing.T) {
	env := newTestEnv(map[string]string{
		"page.html": `{% compose "list.html" %}{% for x in xs %}{% slot[] item %}{{ x }}{% endslot %}{% endfor %}{% endcompose %}`,
		"list.html": `{% for i in item %}{{ i }}{% empty %}none{% endfor %}`,
	})

	first, err := env.render("page.html", map[string]any{"xs": []any{"a", "b"}})
	require.NoError(t, err)
	second, err := env.render("page.html", map[string]any{"xs": []any{"z"}})
	require.NoError(t, err)

	assert.Equal(t, "ab", first)
	assert.Equal(t, "z", second)
}

func TestCompose_RelativeNames(t *testing.T) {
	env := newTestEnv(map[string]string{
		"pages/page.html":       `{% compose "./parts/card.html" %}x{% endcompose %}|{% compose rel %}y{% endcompose %}`,
		"pages/parts/card.html": `card({{ children }})`,
		"shared/box.html":       `box({{ children }})`,
	})

	out, err := env.render("pages/page.html", map[string]any{"rel": "../shared/box.html"})
	require.NoError(t, err)
	assert.Equal(t, "card(x)|box(y)", out)
}

func TestCompose_TemplateValue(t *testing.T) {
	env := newTestEnv(map[string]string{
		"page.html": `{% compose card title="T" %}c{% endcompose %}`,
	})
	card, err := env.parse("card.html", `{{ title }}/{{ children }}`)
	require.NoError(t, err)

	out, err := env.render("page.html", map[string]any{"card": card})
	require.NoError(t, err)
	assert.Equal(t, "T/c", out)
	assert.Zero(t, env.loads["card.html"])
}

func TestCompose_EmptyTemplateNameFails(t *testing.T) {
	env := newTestEnv(map[string]string{
		"page.html": `{% compose missing %}c{% endcompose %}`,
	})

	_, err := env.render("page.html", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, errTestNotFound)
}

func TestCompose_MaxDepth(t *testing.T) {
	env := newTestEnv(map[string]string{
		"loop.html": `{% compose "loop.html" %}{% endcompose %}`,
	})

	_, err := env.render("loop.html", nil)
	require.Error(t, err)
	var compErr *CompositionError
	require.ErrorAs(t, err, &compErr)
	assert.Equal(t, ErrMsgMaxDepthExceeded, compErr.Message)
}
