package internal

import (
	"fmt"
	"strings"
)

// Param is one named parameter of a composition function.
type Param struct {
	Name       string
	Default    any
	HasDefault bool
}

// Required declares a parameter that must be supplied.
func Required(name string) Param {
	return Param{Name: name}
}

// Optional declares a parameter with a default value.
func Optional(name string, def any) Param {
	return Param{Name: name, Default: def, HasDefault: true}
}

// Signature describes the parameters a composition function accepts, in
// the order a caller may supply them positionally. VarArgs and VarKwargs
// name the catch-all parameters; empty means the function has none.
type Signature struct {
	Params    []Param
	VarArgs   string
	VarKwargs string
	KwOnly    []Param
}

// DefaultSignature accepts the children followed by any keywords.
func DefaultSignature() Signature {
	return Signature{
		Params:    []Param{Required(KeyChildren)},
		VarKwargs: KeyDefaultKw,
	}
}

// Strip validates the leading reserved parameters and returns the
// signature the tag's own arguments are bound against. The first
// parameter must be children; with takesContext the second must be
// context.
func (s Signature) Strip(takesContext bool) (Signature, error) {
	if err := s.validateNames(); err != nil {
		return Signature{}, err
	}

	if len(s.Params) == 0 || s.Params[0].Name != KeyChildren {
		return Signature{}, NewRegistryError(ErrMsgSignatureNoChildren, StringValueEmpty)
	}
	skip := 1
	if takesContext {
		if len(s.Params) < 2 || s.Params[1].Name != KeyContext {
			return Signature{}, NewRegistryError(ErrMsgSignatureNoContext, StringValueEmpty)
		}
		skip = 2
	}

	out := s
	out.Params = append([]Param(nil), s.Params[skip:]...)
	out.KwOnly = append([]Param(nil), s.KwOnly...)
	return out, nil
}

func (s Signature) validateNames() error {
	seen := make(map[string]struct{})
	names := make([]string, 0, len(s.Params)+len(s.KwOnly)+2)
	for _, p := range s.Params {
		names = append(names, p.Name)
	}
	for _, p := range s.KwOnly {
		names = append(names, p.Name)
	}
	if s.VarArgs != StringValueEmpty {
		names = append(names, s.VarArgs)
	}
	if s.VarKwargs != StringValueEmpty {
		names = append(names, s.VarKwargs)
	}
	for _, name := range names {
		if !IsIdentifier(name) {
			return NewRegistryError(ErrMsgInvalidName, name)
		}
		if _, dup := seen[name]; dup {
			return NewRegistryError(ErrMsgDuplicateParam, name)
		}
		seen[name] = struct{}{}
	}
	return nil
}

// Bind matches positional and keyword values against the signature the
// way a call does: positionals fill Params in order, the surplus goes to
// VarArgs, keywords fill named parameters or VarKwargs, and defaults
// fill the rest. The first mismatch is returned as a *BindError.
func (s Signature) Bind(args []any, kwargs KeywordValues) (Arguments, error) {
	bound := Arguments{
		Params:      make(map[string]any),
		Kwargs:      make(map[string]any),
		varArgsName: s.VarArgs,
	}

	for i, arg := range args {
		if i < len(s.Params) {
			bound.Params[s.Params[i].Name] = arg
			continue
		}
		if s.VarArgs == StringValueEmpty {
			return Arguments{}, &BindError{Message: ErrMsgTooManyPositional}
		}
		bound.Varargs = append(bound.Varargs, arg)
	}

	for _, kw := range kwargs {
		if s.isNamed(kw.Name) {
			if _, ok := bound.Params[kw.Name]; ok {
				return Arguments{}, &BindError{Message: ErrMsgMultipleValues, Name: kw.Name}
			}
			bound.Params[kw.Name] = kw.Value
			continue
		}
		if s.VarKwargs == StringValueEmpty {
			return Arguments{}, &BindError{Message: ErrMsgUnexpectedKeyword, Name: kw.Name}
		}
		bound.Kwargs[kw.Name] = kw.Value
	}

	var missing []string
	for _, p := range append(append([]Param(nil), s.Params...), s.KwOnly...) {
		if _, ok := bound.Params[p.Name]; ok {
			continue
		}
		if p.HasDefault {
			bound.Params[p.Name] = p.Default
			continue
		}
		missing = append(missing, p.Name)
	}
	if len(missing) > 0 {
		return Arguments{}, &BindError{Message: ErrMsgMissingArguments, Name: strings.Join(missing, ", ")}
	}

	return bound, nil
}

func (s Signature) isNamed(name string) bool {
	for _, p := range s.Params {
		if p.Name == name {
			return true
		}
	}
	for _, p := range s.KwOnly {
		if p.Name == name {
			return true
		}
	}
	return false
}

// BindError is an argument binding mismatch. Name is the offending
// parameter, if any.
type BindError struct {
	Message string
	Name    string
}

// Error implements the error interface.
func (e *BindError) Error() string {
	if e.Name == StringValueEmpty {
		return e.Message
	}
	return fmt.Sprintf(ErrFmtTagMessage, e.Message, e.Name)
}

// Arguments are the values bound to a composition function's parameters.
type Arguments struct {
	Params      map[string]any
	Varargs     []any
	Kwargs      map[string]any
	varArgsName string
}

// Get returns a named parameter or a collected keyword.
func (a Arguments) Get(name string) (any, bool) {
	if v, ok := a.Params[name]; ok {
		return v, true
	}
	v, ok := a.Kwargs[name]
	return v, ok
}

// All flattens the arguments into one map: named parameters, collected
// keywords and, when the signature has one, the positional catch-all
// under its own name.
func (a Arguments) All() map[string]any {
	out := make(map[string]any, len(a.Params)+len(a.Kwargs)+1)
	for k, v := range a.Kwargs {
		out[k] = v
	}
	for k, v := range a.Params {
		out[k] = v
	}
	if a.varArgsName != StringValueEmpty {
		out[a.varArgsName] = append([]any(nil), a.Varargs...)
	}
	return out
}

// CompositionFunc turns the rendered children, the calling scope (only
// when the tag takes context, nil otherwise) and the bound arguments into
// the values the target template is rendered with.
type CompositionFunc func(children SafeString, scope *Scope, args Arguments) (map[string]any, error)

// DefaultComposition passes every argument through and adds children.
func DefaultComposition(children SafeString, _ *Scope, args Arguments) (map[string]any, error) {
	values := args.All()
	values[KeyChildren] = children
	return values, nil
}

// KeywordValue is a resolved keyword argument.
type KeywordValue struct {
	Name  string
	Value any
}

// KeywordValues is an ordered keyword table.
type KeywordValues []KeywordValue

// Get returns the value bound to name.
func (kv KeywordValues) Get(name string) (any, bool) {
	for _, v := range kv {
		if v.Name == name {
			return v.Value, true
		}
	}
	return nil, false
}

// Has reports whether name is bound.
func (kv KeywordValues) Has(name string) bool {
	_, ok := kv.Get(name)
	return ok
}

// Set replaces the value bound to name, or appends it.
func (kv *KeywordValues) Set(name string, value any) {
	for i := range *kv {
		if (*kv)[i].Name == name {
			(*kv)[i].Value = value
			return
		}
	}
	*kv = append(*kv, KeywordValue{Name: name, Value: value})
}

// Map returns the table as a map.
func (kv KeywordValues) Map() map[string]any {
	out := make(map[string]any, len(kv))
	for _, v := range kv {
		out[v.Name] = v.Value
	}
	return out
}
