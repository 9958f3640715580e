package internal

import (
	"fmt"
	"reflect"
	"strconv"
)

// SafeString is rendered markup that must not be escaped again when it is
// printed. Children, slots and defined values are SafeStrings.
type SafeString string

// String returns the markup.
func (s SafeString) String() string {
	return string(s)
}

// Scope is the name to value environment expressions resolve against.
// It is a stack of layers; lookups walk from the top layer down.
// A Scope belongs to a single render pass and is not safe for concurrent use.
type Scope struct {
	layers []map[string]any
}

// NewScope creates a scope with a single layer holding values.
// The map is copied so callers may reuse it.
func NewScope(values map[string]any) *Scope {
	return &Scope{layers: []map[string]any{copyValues(values)}}
}

// Get returns the value bound to name in the nearest layer.
func (s *Scope) Get(name string) (any, bool) {
	for i := len(s.layers) - 1; i >= 0; i-- {
		if v, ok := s.layers[i][name]; ok {
			return v, true
		}
	}
	return nil, false
}

// GetString returns the printable form of the value bound to name.
func (s *Scope) GetString(name string) string {
	v, ok := s.Get(name)
	if !ok {
		return StringValueEmpty
	}
	return FormatValue(v)
}

// Has reports whether name is bound in any layer.
func (s *Scope) Has(name string) bool {
	_, ok := s.Get(name)
	return ok
}

// Set binds name in the top layer. Later siblings rendered against the
// same scope see the binding.
func (s *Scope) Set(name string, value any) {
	if len(s.layers) == 0 {
		s.layers = append(s.layers, make(map[string]any))
	}
	s.layers[len(s.layers)-1][name] = value
}

// Push adds a layer holding values and returns the function that removes
// it again. Callers defer the returned function so the layer is dropped
// even when rendering fails.
func (s *Scope) Push(values map[string]any) (pop func()) {
	n := len(s.layers)
	s.layers = append(s.layers, copyValues(values))
	return func() {
		if len(s.layers) > n {
			s.layers = s.layers[:n]
		}
	}
}

// New returns an isolated scope holding only values. Nothing from s is
// inherited.
func (s *Scope) New(values map[string]any) *Scope {
	return NewScope(values)
}

// Depth returns the number of layers.
func (s *Scope) Depth() int {
	return len(s.layers)
}

// Keys returns every bound name, nearest layer first, without duplicates.
func (s *Scope) Keys() []string {
	seen := make(map[string]struct{})
	var keys []string
	for i := len(s.layers) - 1; i >= 0; i-- {
		for k := range s.layers[i] {
			if _, ok := seen[k]; ok {
				continue
			}
			seen[k] = struct{}{}
			keys = append(keys, k)
		}
	}
	return keys
}

// Flatten merges all layers into a single map, upper layers winning.
// The literal names True, False and None are always present.
func (s *Scope) Flatten() map[string]any {
	env := map[string]any{
		LiteralTrue:  true,
		LiteralFalse: false,
		LiteralNone:  nil,
	}
	for _, layer := range s.layers {
		for k, v := range layer {
			env[k] = v
		}
	}
	return env
}

func copyValues(values map[string]any) map[string]any {
	out := make(map[string]any, len(values))
	for k, v := range values {
		out[k] = v
	}
	return out
}

// FormatValue converts a value to its printed form: nil prints nothing and
// booleans print as True and False.
func FormatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return StringValueEmpty
	case SafeString:
		return string(val)
	case string:
		return val
	case bool:
		if val {
			return LiteralTrue
		}
		return LiteralFalse
	case int:
		return strconv.Itoa(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprint(val)
	}
}

// IsTruthy reports whether v counts as true in a condition: nil, false,
// zero numbers and empty strings or collections are false.
func IsTruthy(v any) bool {
	if v == nil {
		return false
	}
	switch val := v.(type) {
	case bool:
		return val
	case string:
		return val != ""
	case SafeString:
		return val != ""
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map, reflect.Chan:
		return rv.Len() > 0
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int() != 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return rv.Uint() != 0
	case reflect.Float32, reflect.Float64:
		return rv.Float() != 0
	case reflect.Ptr, reflect.Interface:
		return !rv.IsNil()
	default:
		return true
	}
}
