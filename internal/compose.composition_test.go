package internal

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func registerComposition(t *testing.T, env *testEnv, tagName, templateName string, fn CompositionFunc, sig Signature, takesContext bool) {
	t.Helper()
	compiler, err := NewCompositionCompiler(tagName, templateName, fn, sig, takesContext)
	require.NoError(t, err)
	require.NoError(t, env.lib.Register(tagName, compiler))
}

func TestComposition_Panel(t *testing.T) {
	env := newTestEnv(map[string]string{
		"page.html":  `{% panel disabled=True %}X{% endpanel %}`,
		"panel.html": `{{ children }}-{{ disabled }}`,
	})
	registerComposition(t, env, "panel", "panel.html", DefaultComposition, DefaultSignature(), false)

	out, err := env.render("page.html", nil)
	require.NoError(t, err)
	assert.Equal(t, "X-True", out)
}

func TestComposition_BoundParameters(t *testing.T) {
	button := func(children SafeString, _ *Scope, args Arguments) (map[string]any, error) {
		kind, _ := args.Get("kind")
		size, _ := args.Get("size")
		return map[string]any{
			"label": children,
			"class": FormatValue(kind) + "-" + FormatValue(size),
		}, nil
	}
	sig := Signature{
		Params: []Param{Required(KeyChildren), Required("kind"), Optional("size", "md")},
	}

	tests := []struct {
		name     string
		page     string
		expected string
	}{
		{name: "positional", page: `{% button "primary" %}Go{% endbutton %}`, expected: "primary-md:Go"},
		{name: "positional and keyword", page: `{% button "primary" size="lg" %}Go{% endbutton %}`, expected: "primary-lg:Go"},
		{name: "keywords", page: `{% button size="sm" kind="link" %}Go{% endbutton %}`, expected: "link-sm:Go"},
		{name: "slot fills optional parameter", page: `{% button "ghost" %}{% slot size %}xl{% endslot %}Go{% endbutton %}`, expected: "ghost-xl:Go"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(map[string]string{
				"page.html":   tt.page,
				"button.html": `{{ class }}:{{ label }}`,
			})
			registerComposition(t, env, "button", "button.html", button, sig, false)

			out, err := env.render("page.html", nil)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, out)
		})
	}
}

func TestComposition_TakesContext(t *testing.T) {
	greet := func(children SafeString, scope *Scope, args Arguments) (map[string]any, error) {
		require.NotNil(t, scope)
		return map[string]any{"greeting": scope.GetString("user") + "/" + string(children)}, nil
	}
	sig := Signature{Params: []Param{Required(KeyChildren), Required(KeyContext)}}

	env := newTestEnv(map[string]string{
		"page.html":  `{% greet %}hi{% endgreet %}`,
		"greet.html": `{{ greeting }} {{ user }}`,
	})
	registerComposition(t, env, "greet", "greet.html", greet, sig, true)

	out, err := env.render("page.html", map[string]any{"user": "ann"})
	require.NoError(t, err)
	assert.Equal(t, "ann/hi ann", out)
}

func TestComposition_VarArgs(t *testing.T) {
	sig := Signature{
		Params:  []Param{Required(KeyChildren)},
		VarArgs: KeyDefaultArgs,
	}
	env := newTestEnv(map[string]string{
		"page.html": `{% tags "a" "b" %}{% endtags %}`,
		"tags.html": `{% for a in args %}<{{ a }}>{% endfor %}`,
	})
	registerComposition(t, env, "tags", "tags.html", DefaultComposition, sig, false)

	out, err := env.render("page.html", nil)
	require.NoError(t, err)
	assert.Equal(t, "<a><b>", out)
}

func TestComposition_SyntaxErrors(t *testing.T) {
	sig := Signature{Params: []Param{Required(KeyChildren), Required("kind")}}

	tests := []struct {
		name    string
		source  string
		message string
	}{
		{name: "children keyword", source: `{% button children="x" %}{% endbutton %}`, message: ErrMsgChildrenKeyword},
		{name: "too many positional", source: `{% button "a" "b" %}{% endbutton %}`, message: ErrMsgTooManyPositional},
		{name: "unexpected keyword", source: `{% button color="red" %}{% endbutton %}`, message: ErrMsgUnexpectedKeyword},
		{name: "positional after keyword", source: `{% button kind="a" "b" %}{% endbutton %}`, message: ErrMsgPositionalAfterKw},
		{name: "multiple values", source: `{% button "a" kind="b" %}{% endbutton %}`, message: ErrMsgMultipleValues},
		{name: "missing end tag", source: `{% button "a" %}`, message: ErrMsgUnclosedTag},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(nil)
			registerComposition(t, env, "button", "button.html", DefaultComposition, sig, false)

			_, err := env.parse("page.html", tt.source)
			require.Error(t, err)
			var syntaxErr *SyntaxError
			require.ErrorAs(t, err, &syntaxErr)
			assert.Contains(t, syntaxErr.Error(), tt.message)
		})
	}
}

func TestComposition_MissingArgumentAtParse(t *testing.T) {
	sig := Signature{Params: []Param{Required(KeyChildren), Required("kind")}}

	tests := []struct {
		name   string
		source string
	}{
		{name: "no arguments", source: `{% button %}x{% endbutton %}`},
		{name: "slot does not count", source: `{% button %}{% slot kind %}a{% endslot %}x{% endbutton %}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(nil)
			registerComposition(t, env, "button", "button.html", DefaultComposition, sig, false)

			_, err := env.parse("page.html", tt.source)
			require.Error(t, err)
			var syntaxErr *SyntaxError
			require.ErrorAs(t, err, &syntaxErr)
			assert.Equal(t, "button", syntaxErr.TagName)
			assert.Equal(t, ErrMsgMissingArguments+": kind", syntaxErr.Message)
		})
	}
}

func TestComposition_BindingMessages(t *testing.T) {
	sig := Signature{Params: []Param{Required(KeyChildren), Required("kind")}}
	env := newTestEnv(nil)
	registerComposition(t, env, "button", "button.html", DefaultComposition, sig, false)

	_, err := env.parse("page.html", `{% button "a" "b" %}{% endbutton %}`)
	var syntaxErr *SyntaxError
	require.ErrorAs(t, err, &syntaxErr)
	assert.Equal(t, ErrMsgTooManyPositional, syntaxErr.Message)

	_, err = env.parse("page.html", `{% button color="red" %}{% endbutton %}`)
	require.ErrorAs(t, err, &syntaxErr)
	assert.Equal(t, ErrMsgUnexpectedKeyword+": color", syntaxErr.Message)
}

func TestComposition_RelativeTemplate(t *testing.T) {
	env := newTestEnv(map[string]string{
		"pages/home.html":      `{% hero %}welcome{% endhero %}`,
		"pages/hero.html":      `<h1>{{ children }}</h1>`,
		"hero.html":            `wrong`,
		"pages/deep/more.html": `{% hero %}deep{% endhero %}`,
		"pages/deep/hero.html": `<h2>{{ children }}</h2>`,
	})
	registerComposition(t, env, "hero", "./hero.html", DefaultComposition, DefaultSignature(), false)

	out, err := env.render("pages/home.html", nil)
	require.NoError(t, err)
	assert.Equal(t, "<h1>welcome</h1>", out)

	out, err = env.render("pages/deep/more.html", nil)
	require.NoError(t, err)
	assert.Equal(t, "<h2>deep</h2>", out)

	_, err = env.parse(StringValueEmpty, `{% hero %}x{% endhero %}`)
	var syntaxErr *SyntaxError
	require.ErrorAs(t, err, &syntaxErr)
	assert.Equal(t, ErrMsgRelativePathNoOrigin, syntaxErr.Message)
}

func TestComposition_FuncError(t *testing.T) {
	boom := errors.New("boom")
	env := newTestEnv(map[string]string{
		"page.html": `{% fails %}{% endfails %}`,
		"x.html":    `unused`,
	})
	registerComposition(t, env, "fails", "x.html", func(SafeString, *Scope, Arguments) (map[string]any, error) {
		return nil, boom
	}, DefaultSignature(), false)

	_, err := env.render("page.html", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
}

func TestNewCompositionCompiler_Errors(t *testing.T) {
	tests := []struct {
		name         string
		tagName      string
		fn           CompositionFunc
		sig          Signature
		takesContext bool
		message      string
	}{
		{name: "empty tag name", tagName: "", fn: DefaultComposition, sig: DefaultSignature(), message: ErrMsgEmptyTagName},
		{name: "nil function", tagName: "x", sig: DefaultSignature(), message: ErrMsgNilCompositionFunc},
		{name: "no children", tagName: "x", fn: DefaultComposition, sig: Signature{Params: []Param{Required("a")}}, message: ErrMsgSignatureNoChildren},
		{name: "no context", tagName: "x", fn: DefaultComposition, sig: DefaultSignature(), takesContext: true, message: ErrMsgSignatureNoContext},
		{name: "duplicate param", tagName: "x", fn: DefaultComposition, sig: Signature{Params: []Param{Required(KeyChildren), Required("a")}, VarKwargs: "a"}, message: ErrMsgDuplicateParam},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewCompositionCompiler(tt.tagName, "x.html", tt.fn, tt.sig, tt.takesContext)
			require.Error(t, err)
			var regErr *RegistryError
			require.ErrorAs(t, err, &regErr)
			assert.Equal(t, tt.message, regErr.Message)
		})
	}
}
