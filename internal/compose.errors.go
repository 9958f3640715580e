package internal

import (
	"fmt"
)

// SyntaxError is raised while compiling a template: malformed tag
// invocations, missing arguments, reserved keyword misuse and argument
// binding mismatches.
type SyntaxError struct {
	Message     string
	TagName     string
	Position    Position
	Suggestions []string
	Cause       error
}

// NewSyntaxError creates a syntax error for the given tag.
func NewSyntaxError(message, tagName string, pos Position) *SyntaxError {
	return &SyntaxError{
		Message:  message,
		TagName:  tagName,
		Position: pos,
	}
}

// NewSyntaxErrorf creates a syntax error with a formatted message.
func NewSyntaxErrorf(tagName string, pos Position, format string, args ...any) *SyntaxError {
	return NewSyntaxError(fmt.Sprintf(format, args...), tagName, pos)
}

// Error implements the error interface.
func (e *SyntaxError) Error() string {
	var result string
	if e.TagName != StringValueEmpty {
		result = fmt.Sprintf(ErrFmtWithTagAndPosition, e.Message, e.TagName, e.Position.String())
	} else {
		result = fmt.Sprintf(ErrFmtWithPosition, e.Message, e.Position.String())
	}
	if len(e.Suggestions) > 0 {
		result = fmt.Sprintf(ErrFmtDidYouMean, result, e.Suggestions)
	}
	if e.Cause != nil {
		result = fmt.Sprintf(ErrFmtWithCause, result, e.Cause)
	}
	return result
}

// Unwrap returns the underlying cause error.
func (e *SyntaxError) Unwrap() error {
	return e.Cause
}

// CompositionError is raised while rendering a composition: slot and
// keyword collisions, duplicate single slots, slots outside a
// composition and render-time binding mismatches.
type CompositionError struct {
	Message  string
	TagName  string
	Name     string
	Position Position
	Cause    error
}

// NewCompositionError creates a composition error.
func NewCompositionError(message, tagName, name string, pos Position) *CompositionError {
	return &CompositionError{
		Message:  message,
		TagName:  tagName,
		Name:     name,
		Position: pos,
	}
}

// Error implements the error interface.
func (e *CompositionError) Error() string {
	msg := e.Message
	if e.Name != StringValueEmpty {
		msg = fmt.Sprintf(ErrFmtTagMessage, msg, e.Name)
	}
	var result string
	if e.TagName != StringValueEmpty {
		result = fmt.Sprintf(ErrFmtWithTagAndPosition, msg, e.TagName, e.Position.String())
	} else {
		result = fmt.Sprintf(ErrFmtWithPosition, msg, e.Position.String())
	}
	if e.Cause != nil {
		result = fmt.Sprintf(ErrFmtWithCause, result, e.Cause)
	}
	return result
}

// Unwrap returns the underlying cause error.
func (e *CompositionError) Unwrap() error {
	return e.Cause
}

// RegistryError represents a tag registration error
type RegistryError struct {
	Message string
	TagName string
}

// NewRegistryError creates a new registry error
func NewRegistryError(message, tagName string) *RegistryError {
	return &RegistryError{
		Message: message,
		TagName: tagName,
	}
}

// Error implements the error interface
func (e *RegistryError) Error() string {
	if e.TagName != StringValueEmpty {
		return fmt.Sprintf(ErrFmtTagMessage, e.Message, e.TagName)
	}
	return e.Message
}

// ErrFmtDidYouMean appends suggestions to an error message
const ErrFmtDidYouMean = "%s (did you mean %v?)"

// Syntax error messages
const (
	ErrMsgUnexpectedToken      = "unexpected token"
	ErrMsgEmptyVariable        = "empty variable tag"
	ErrMsgEmptyBlock           = "empty block tag"
	ErrMsgUnknownTag           = "invalid block tag"
	ErrMsgUnclosedTag          = "unclosed tag, expected one of"
	ErrMsgUnexpectedEndTag     = "unexpected end tag"
	ErrMsgInvalidExpression    = "invalid expression"
	ErrMsgComposeMissingTarget = "tag takes at least one argument: the name of the template to be included"
	ErrMsgChildrenKeyword      = "tag must not take children as a keyword argument"
	ErrMsgUnexpectedArgument   = "tag received an unexpected argument"
	ErrMsgDuplicateKeyword     = "tag received multiple values for keyword argument"
	ErrMsgSlotArgCount         = "tag takes exactly one argument: the slot name"
	ErrMsgSlotChildren         = "slot must not be named children"
	ErrMsgInvalidName          = "invalid variable name"
	ErrMsgDefineArgCount       = "tag takes exactly one argument: the name of the variable that should store the result"
	ErrMsgIfMissingCondition   = "tag requires a condition"
	ErrMsgElseNotLast          = "else must be the last branch"
	ErrMsgForSyntax            = "tag should use the format 'for x in y'"
	ErrMsgWithSyntax           = "tag expects name=value arguments"
	ErrMsgIncludeSyntax        = "tag takes at least one argument: the name of the template to be included"
	ErrMsgPositionalAfterKw    = "received some positional argument(s) after some keyword argument(s)"
	ErrMsgTooManyPositional    = "received too many positional arguments"
	ErrMsgUnexpectedKeyword    = "received unexpected keyword argument"
	ErrMsgMultipleValues       = "received multiple values for keyword argument"
	ErrMsgMissingArguments     = "did not receive value(s) for the argument(s)"
)

// Composition error messages
const (
	ErrMsgSlotAlreadyDeclared   = "slot already declared"
	ErrMsgSlotKeywordCollision  = "slot collides with an existing keyword argument"
	ErrMsgSlotKindCollision     = "array slot collides with a single slot of the same name"
	ErrMsgSlotOutsideCompose    = "slot must be a descendant of compose or a descendant of a compose component"
	ErrMsgInvalidTemplateRef    = "invalid template reference"
	ErrMsgMaxDepthExceeded      = "maximum composition depth exceeded"
	ErrMsgRelativePathEscapes   = "relative path points outside the file hierarchy of the template it is used in"
	ErrMsgRelativePathSelf      = "relative path resolves to the template in which the tag appears"
	ErrMsgCompositionFuncFailed = "composition function failed"
	ErrMsgNoTemplateSelector    = "no template selector available"
	ErrMsgUnknownNodeType       = "unknown node type"
)

// Registry error messages
const (
	ErrMsgNilCompiler         = "tag compiler cannot be nil"
	ErrMsgEmptyTagName        = "tag name cannot be empty"
	ErrMsgTagAlreadyExists    = "tag already registered"
	ErrMsgSignatureNoChildren = "composition function must have a first argument of 'children'"
	ErrMsgSignatureNoContext  = "composition function takes context so it must have a second argument of 'context'"
	ErrMsgNilCompositionFunc  = "composition function cannot be nil"
	ErrMsgDuplicateParam      = "duplicate parameter name"
)
