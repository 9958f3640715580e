package compose

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/itsatony/go-cuserr"

	"github.com/itsatony/go-compose/internal"
)

// Error message constants
const (
	ErrMsgParseFailed         = "template compilation failed"
	ErrMsgRenderFailed        = "template rendering failed"
	ErrMsgTemplateNotFound    = "template not found"
	ErrMsgNoTemplateNames     = "no template names given"
	ErrMsgLoadFailed          = "template load failed"
	ErrMsgRegistrationFailed  = "tag registration failed"
	ErrMsgInvalidTagName      = "cannot derive a tag name from the function"
	ErrMsgConfigReadFailed    = "failed to read configuration file"
	ErrMsgConfigDecodeFailed  = "failed to decode configuration"
	ErrMsgInvalidLogLevel     = "invalid log level"
	ErrMsgInvalidTemplateName = "invalid template name"
	ErrMsgLoaderClosed        = "loader is closed"
	ErrMsgEmptyDSN            = "postgres DSN is required"
	ErrMsgNilRedisClient      = "redis client is required"
	ErrMsgNilEngine           = "engine is required"
	ErrMsgInvalidDelimiters   = "delimiters must be non-empty and distinct"
	ErrMsgEmptyDirectory      = "template directory is required"
	ErrMsgMetricsRegistration = "failed to register metrics"
)

// Error code constants for categorization
const (
	ErrCodeSyntax   = "COMPOSE_SYNTAX"
	ErrCodeRender   = "COMPOSE_RENDER"
	ErrCodeLoader   = "COMPOSE_LOADER"
	ErrCodeRegistry = "COMPOSE_REGISTRY"
	ErrCodeConfig   = "COMPOSE_CONFIG"
)

// Metadata keys attached to errors
const (
	MetaKeyTemplate    = "template"
	MetaKeyTemplates   = "templates"
	MetaKeyLine        = "line"
	MetaKeyColumn      = "column"
	MetaKeyOffset      = "offset"
	MetaKeyTag         = "tag"
	MetaKeyName        = "name"
	MetaKeySuggestions = "suggestions"
	MetaKeyLoader      = "loader"
	MetaKeyPath        = "path"
	MetaKeyValue       = "value"
)

// ErrTemplateNotFound is matched by errors.Is for every "no such template"
// error returned by loaders and the engine.
var ErrTemplateNotFound = errors.New(ErrMsgTemplateNotFound)

// Error types surfaced by the template engine. They are usually wrapped in
// a *cuserr.CustomError; use errors.As to reach them.
type (
	SyntaxError      = internal.SyntaxError
	CompositionError = internal.CompositionError
	RegistryError    = internal.RegistryError
)

// NewParseError wraps a lexer or parser failure with the template name and
// the source position.
func NewParseError(name string, cause error) error {
	err := cuserr.WrapStdError(cause, ErrCodeSyntax, ErrMsgParseFailed).
		WithMetadata(MetaKeyTemplate, name)

	var syntaxErr *internal.SyntaxError
	var lexErr *internal.LexerError
	switch {
	case errors.As(cause, &syntaxErr):
		err = withPosition(err, syntaxErr.Position)
		if syntaxErr.TagName != StringValueEmpty {
			err = err.WithMetadata(MetaKeyTag, syntaxErr.TagName)
		}
		if len(syntaxErr.Suggestions) > 0 {
			err = err.WithMetadata(MetaKeySuggestions, strings.Join(syntaxErr.Suggestions, NameListSep))
		}
	case errors.As(cause, &lexErr):
		err = withPosition(err, lexErr.Position)
	}
	return err
}

// NewRenderError wraps a render failure. Errors that already carry a code
// (a nested template that failed to load or compile) and context
// cancellation are returned unchanged.
func NewRenderError(name string, cause error) error {
	if cause == nil {
		return nil
	}
	if errors.Is(cause, context.Canceled) || errors.Is(cause, context.DeadlineExceeded) {
		return cause
	}
	var custom *cuserr.CustomError
	if errors.As(cause, &custom) {
		return cause
	}

	err := cuserr.WrapStdError(cause, ErrCodeRender, ErrMsgRenderFailed).
		WithMetadata(MetaKeyTemplate, name)

	var compErr *internal.CompositionError
	var syntaxErr *internal.SyntaxError
	switch {
	case errors.As(cause, &compErr):
		err = withPosition(err, compErr.Position)
		if compErr.TagName != StringValueEmpty {
			err = err.WithMetadata(MetaKeyTag, compErr.TagName)
		}
		if compErr.Name != StringValueEmpty {
			err = err.WithMetadata(MetaKeyName, compErr.Name)
		}
	case errors.As(cause, &syntaxErr):
		err = withPosition(err, syntaxErr.Position)
	}
	return err
}

// NewTemplateNotFoundError reports that none of names could be loaded.
func NewTemplateNotFoundError(names ...string) error {
	msg := ErrMsgTemplateNotFound
	if len(names) == 0 {
		msg = ErrMsgNoTemplateNames
	}
	return cuserr.WrapStdError(ErrTemplateNotFound, ErrCodeLoader, msg).
		WithMetadata(MetaKeyTemplates, strings.Join(names, NameListSep))
}

// NewLoaderError wraps a backend failure while loading name.
func NewLoaderError(loader, name string, cause error) error {
	return cuserr.WrapStdError(cause, ErrCodeLoader, ErrMsgLoadFailed).
		WithMetadata(MetaKeyLoader, loader).
		WithMetadata(MetaKeyTemplate, name)
}

// NewRegistryError wraps a tag registration failure.
func NewRegistryError(tagName string, cause error) error {
	return cuserr.WrapStdError(cause, ErrCodeRegistry, ErrMsgRegistrationFailed).
		WithMetadata(MetaKeyTag, tagName)
}

// NewConfigError creates a configuration error.
func NewConfigError(msg string, cause error) *cuserr.CustomError {
	if cause == nil {
		return cuserr.NewValidationError(ErrCodeConfig, msg)
	}
	return cuserr.WrapStdError(cause, ErrCodeConfig, msg)
}

func withPosition(err *cuserr.CustomError, pos internal.Position) *cuserr.CustomError {
	return err.
		WithMetadata(MetaKeyLine, strconv.Itoa(pos.Line)).
		WithMetadata(MetaKeyColumn, strconv.Itoa(pos.Column)).
		WithMetadata(MetaKeyOffset, strconv.Itoa(pos.Offset))
}
