package compose

import (
	"reflect"
	"runtime"
	"strings"

	"go.uber.org/zap"

	"github.com/itsatony/go-compose/internal"
)

// Aliases of the engine types used when writing tags and composition
// functions.
type (
	// Signature declares the parameters of a composition function.
	Signature = internal.Signature
	// Param is one named parameter, optionally with a default.
	Param = internal.Param
	// Arguments are the values bound to a Signature.
	Arguments = internal.Arguments
	// CompositionFunc computes the values a composition renders its
	// template with.
	CompositionFunc = internal.CompositionFunc
	// Scope is the layered variable context of a render pass.
	Scope = internal.Scope
	// SafeString is rendered without HTML escaping.
	SafeString = internal.SafeString
	// TagCompiler compiles one tag occurrence into a node.
	TagCompiler = internal.TagCompiler
)

// Required declares a parameter without a default.
func Required(name string) Param {
	return internal.Required(name)
}

// Optional declares a parameter with a default value.
func Optional(name string, def any) Param {
	return internal.Optional(name, def)
}

// DefaultSignature accepts children and any keyword arguments.
func DefaultSignature() Signature {
	return internal.DefaultSignature()
}

// DefaultComposition renders the template with every bound argument plus
// children.
func DefaultComposition(children SafeString, scope *Scope, args Arguments) (map[string]any, error) {
	return internal.DefaultComposition(children, scope, args)
}

// Library holds the tags known to an engine.
type Library struct {
	tags   *internal.TagLibrary
	logger *zap.Logger
}

// TagOption configures a composition tag.
type TagOption func(*tagConfig)

type tagConfig struct {
	name         string
	takesContext bool
}

// WithTagName registers the tag under name instead of the function name.
func WithTagName(name string) TagOption {
	return func(c *tagConfig) {
		c.name = name
	}
}

// WithTakesContext passes the invoking scope to the function. The
// function signature must then declare context as its second parameter,
// and the template renders in the invoking scope with the returned values
// pushed on top.
func WithTakesContext() TagOption {
	return func(c *tagConfig) {
		c.takesContext = true
	}
}

// Tag registers a raw tag compiler. The first registration of a name wins.
func (l *Library) Tag(name string, compiler TagCompiler) error {
	if err := l.tags.Register(name, compiler); err != nil {
		return NewRegistryError(name, err)
	}
	return nil
}

// CompositionTag binds fn to templateName and registers it as a block tag
// ending with "end" + name. Without WithTagName the tag is named after the
// function. It returns the registered name.
func (l *Library) CompositionTag(templateName string, fn CompositionFunc, sig Signature, opts ...TagOption) (string, error) {
	config := &tagConfig{}
	for _, opt := range opts {
		opt(config)
	}
	name := config.name
	if name == StringValueEmpty {
		name = funcName(fn)
		if name == StringValueEmpty {
			return StringValueEmpty, NewRegistryError(name, internal.NewRegistryError(ErrMsgInvalidTagName, name))
		}
	}

	compiler, err := internal.NewCompositionCompiler(name, templateName, fn, sig, config.takesContext)
	if err != nil {
		return StringValueEmpty, NewRegistryError(name, err)
	}
	if err := l.Tag(name, compiler); err != nil {
		return StringValueEmpty, err
	}
	l.logger.Debug(LogMsgTagRegistered,
		zap.String(LogFieldTag, name),
		zap.String(LogFieldTemplate, templateName))
	return name, nil
}

// MustCompositionTag is like CompositionTag but panics on error.
func (l *Library) MustCompositionTag(templateName string, fn CompositionFunc, sig Signature, opts ...TagOption) string {
	name, err := l.CompositionTag(templateName, fn, sig, opts...)
	if err != nil {
		panic(err)
	}
	return name
}

// Has reports whether a tag called name is registered.
func (l *Library) Has(name string) bool {
	return l.tags.Has(name)
}

// Tags returns the registered tag names, sorted.
func (l *Library) Tags() []string {
	return l.tags.List()
}

// funcName derives a tag name from a named function. Closures have no
// usable name.
func funcName(fn CompositionFunc) string {
	if fn == nil {
		return StringValueEmpty
	}
	f := runtime.FuncForPC(reflect.ValueOf(fn).Pointer())
	if f == nil {
		return StringValueEmpty
	}
	full := f.Name()
	name := full[strings.LastIndex(full, FuncNameSep)+1:]
	if !internal.IsIdentifier(name) || isClosureName(name) {
		return StringValueEmpty
	}
	return name
}

func isClosureName(name string) bool {
	rest, ok := strings.CutPrefix(name, "func")
	if !ok || rest == StringValueEmpty {
		return false
	}
	for _, r := range rest {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
