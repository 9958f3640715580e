package internal

import (
	"fmt"
	"html"
	"strconv"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/microcosm-cc/bluemonday"
)

// sanitizePolicy backs the sanitize() expression function.
var sanitizePolicy = bluemonday.UGCPolicy()

// Expression is a compiled template expression. It is compiled once when
// the template is parsed and resolved against a scope at render time.
type Expression struct {
	source   string
	program  *vm.Program
	constant bool
	value    any
}

// CompileExpression compiles source. String literals and the names True,
// False and None are folded into constants.
func CompileExpression(source string) (*Expression, error) {
	if source == StringValueEmpty {
		return nil, &ExpressionError{Source: source, Message: ErrMsgInvalidExpression}
	}

	if s, ok := unquoteLiteral(source); ok {
		return NewConstantExpression(s), nil
	}
	switch source {
	case LiteralTrue:
		return &Expression{source: source, constant: true, value: true}, nil
	case LiteralFalse:
		return &Expression{source: source, constant: true, value: false}, nil
	case LiteralNone:
		return &Expression{source: source, constant: true}, nil
	}

	program, err := expr.Compile(source, expressionOptions()...)
	if err != nil {
		return nil, &ExpressionError{Source: source, Message: ErrMsgInvalidExpression, Cause: err}
	}
	return &Expression{source: source, program: program}, nil
}

// NewConstantExpression returns an expression that always resolves to value.
func NewConstantExpression(value string) *Expression {
	return &Expression{
		source:   strconv.Quote(value),
		constant: true,
		value:    value,
	}
}

// Source returns the expression text as written in the template.
func (e *Expression) Source() string {
	return e.source
}

// IsConstant reports whether the expression does not depend on the scope.
func (e *Expression) IsConstant() bool {
	return e.constant
}

// Resolve evaluates the expression against scope.
func (e *Expression) Resolve(scope *Scope) (any, error) {
	if e.constant {
		return e.value, nil
	}
	out, err := expr.Run(e.program, scope.Flatten())
	if err != nil {
		return nil, &ExpressionError{Source: e.source, Message: ErrMsgExpressionFailed, Cause: err}
	}
	return out, nil
}

// String returns a debug representation.
func (e *Expression) String() string {
	return fmt.Sprintf("Expression{%s}", e.source)
}

func expressionOptions() []expr.Option {
	return []expr.Option{
		expr.Function(FuncSanitize, func(params ...any) (any, error) {
			if len(params) != 1 {
				return nil, fmt.Errorf(ErrFmtFuncArity, FuncSanitize, len(params))
			}
			return SafeString(sanitizePolicy.Sanitize(FormatValue(params[0]))), nil
		}),
		expr.Function(FuncSafe, func(params ...any) (any, error) {
			if len(params) != 1 {
				return nil, fmt.Errorf(ErrFmtFuncArity, FuncSafe, len(params))
			}
			return SafeString(FormatValue(params[0])), nil
		}),
		expr.Function(FuncEscape, func(params ...any) (any, error) {
			if len(params) != 1 {
				return nil, fmt.Errorf(ErrFmtFuncArity, FuncEscape, len(params))
			}
			return SafeString(html.EscapeString(FormatValue(params[0]))), nil
		}),
	}
}

// unquoteLiteral returns the content of s when s is exactly one quoted
// string literal.
func unquoteLiteral(s string) (string, bool) {
	if len(s) < 2 {
		return StringValueEmpty, false
	}
	quote := s[0]
	if quote != CharDoubleQuote && quote != CharSingleQuote {
		return StringValueEmpty, false
	}

	var out []byte
	for i := 1; i < len(s); i++ {
		ch := s[i]
		if ch == CharBackslash && i+1 < len(s) {
			i++
			out = append(out, unescapeChar(s[i]))
			continue
		}
		if ch == quote {
			if i != len(s)-1 {
				return StringValueEmpty, false
			}
			return string(out), true
		}
		out = append(out, ch)
	}
	return StringValueEmpty, false
}

func unescapeChar(ch byte) byte {
	switch ch {
	case 'n':
		return '\n'
	case 't':
		return '\t'
	case 'r':
		return '\r'
	default:
		return ch
	}
}

// ExpressionError reports an expression that failed to compile or run.
type ExpressionError struct {
	Source  string
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *ExpressionError) Error() string {
	result := fmt.Sprintf(ErrFmtExpression, e.Message, e.Source)
	if e.Cause != nil {
		result = fmt.Sprintf(ErrFmtWithCause, result, e.Cause)
	}
	return result
}

// Unwrap returns the underlying cause error.
func (e *ExpressionError) Unwrap() error {
	return e.Cause
}

// Expression error messages
const (
	ErrMsgExpressionFailed = "expression evaluation failed"
	ErrFmtExpression       = "%s: %q"
	ErrFmtFuncArity        = "%s expects exactly one argument, got %d"
)
