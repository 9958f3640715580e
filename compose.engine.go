package compose

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/itsatony/go-compose/internal"
)

// Engine compiles and renders templates. It is safe for concurrent use.
type Engine struct {
	config  *engineConfig
	logger  *zap.Logger
	library *Library
	loader  Loader
	metrics *Metrics
	tracer  trace.Tracer

	mu        sync.RWMutex
	templates map[string]*Template
}

// New creates a new Engine with the given options.
func New(opts ...Option) (*Engine, error) {
	config := defaultEngineConfig()
	for _, opt := range opts {
		opt(config)
	}
	if err := validateLexerConfig(config.lexer); err != nil {
		return nil, err
	}

	logger := config.logger
	if logger == nil {
		logger = zap.NewNop()
	}
	loader := config.loader
	if loader == nil {
		loader = NewMemoryLoader(nil)
	}
	tp := config.tracerProvider
	if tp == nil {
		tp = otel.GetTracerProvider()
	}

	tags := internal.NewTagLibrary(logger)
	internal.RegisterBuiltins(tags)

	e := &Engine{
		config:    config,
		logger:    logger,
		library:   &Library{tags: tags, logger: logger},
		loader:    loader,
		metrics:   config.metrics,
		tracer:    tp.Tracer(TracerName),
		templates: make(map[string]*Template),
	}
	logger.Debug(LogMsgEngineCreated,
		zap.Int(LogFieldTagCount, tags.Count()),
		zap.Int(LogFieldMaxDepth, config.maxDepth))
	return e, nil
}

// MustNew creates a new Engine and panics on error.
func MustNew(opts ...Option) *Engine {
	e, err := New(opts...)
	if err != nil {
		panic(err)
	}
	return e
}

// Library returns the tag library of the engine. Tags registered after a
// template was compiled do not affect that template.
func (e *Engine) Library() *Library {
	return e.library
}

// Loader returns the loader templates are fetched from.
func (e *Engine) Loader() Loader {
	return e.loader
}

// Parse compiles source under name. The name is the origin for relative
// template names used inside source. The result is not cached.
func (e *Engine) Parse(name, source string) (*Template, error) {
	start := time.Now()

	tokens, err := internal.NewLexerWithConfig(source, e.config.lexer, e.logger).Tokenize()
	if err != nil {
		e.metrics.observeParse(err)
		return nil, NewParseError(name, err)
	}
	nodes, err := internal.NewParser(tokens, e.library.tags, name, e.logger).Parse()
	e.metrics.observeParse(err)
	if err != nil {
		return nil, NewParseError(name, err)
	}

	e.logger.Debug(LogMsgTemplateParsed,
		zap.String(LogFieldTemplate, name),
		zap.Duration(LogFieldDuration, time.Since(start)))
	return &Template{inner: internal.NewTemplate(name, source, nodes), engine: e}, nil
}

// MustParse is like Parse but panics on error.
func (e *Engine) MustParse(name, source string) *Template {
	t, err := e.Parse(name, source)
	if err != nil {
		panic(err)
	}
	return t
}

// FromString compiles an anonymous template. Relative template names
// cannot be used inside it.
func (e *Engine) FromString(source string) (*Template, error) {
	return e.Parse(StringValueEmpty, source)
}

// GetTemplate loads and compiles the template called name.
func (e *Engine) GetTemplate(ctx context.Context, name string) (*Template, error) {
	if e.config.cacheTemplates {
		e.mu.RLock()
		t, ok := e.templates[name]
		e.mu.RUnlock()
		if ok {
			e.metrics.observeLoad(MetricResultHit)
			e.logger.Debug(LogMsgTemplateCached, zap.String(LogFieldTemplate, name))
			return t, nil
		}
	}

	ctx, span := e.tracer.Start(ctx, SpanLoad, trace.WithAttributes(attribute.String(AttrTemplateName, name)))
	defer span.End()

	source, err := e.loader.Load(ctx, name)
	if err != nil {
		if errors.Is(err, ErrTemplateNotFound) {
			e.metrics.observeLoad(MetricResultNotFound)
		}
		recordSpanError(span, err)
		return nil, err
	}
	e.metrics.observeLoad(MetricResultMiss)

	t, err := e.Parse(name, source)
	if err != nil {
		recordSpanError(span, err)
		return nil, err
	}
	e.logger.Debug(LogMsgTemplateLoaded, zap.String(LogFieldTemplate, name))

	if e.config.cacheTemplates {
		e.mu.Lock()
		if cached, ok := e.templates[name]; ok {
			t = cached
		} else {
			e.templates[name] = t
		}
		e.mu.Unlock()
	}
	return t, nil
}

// SelectTemplate returns the first template among names that exists.
// Loader failures other than not-found stop the search.
func (e *Engine) SelectTemplate(ctx context.Context, names []string) (*Template, error) {
	for _, name := range names {
		t, err := e.GetTemplate(ctx, name)
		if err == nil {
			return t, nil
		}
		if !errors.Is(err, ErrTemplateNotFound) {
			return nil, err
		}
	}
	return nil, NewTemplateNotFoundError(names...)
}

// Render loads the template called name and renders it with data.
func (e *Engine) Render(ctx context.Context, name string, data map[string]any) (string, error) {
	t, err := e.GetTemplate(ctx, name)
	if err != nil {
		return StringValueEmpty, err
	}
	return t.Render(ctx, data)
}

// RenderString compiles source and renders it once.
func (e *Engine) RenderString(ctx context.Context, source string, data map[string]any) (string, error) {
	t, err := e.FromString(source)
	if err != nil {
		return StringValueEmpty, err
	}
	return t.Render(ctx, data)
}

// Invalidate drops name from the compiled template cache.
func (e *Engine) Invalidate(name string) {
	e.mu.Lock()
	delete(e.templates, name)
	e.mu.Unlock()
}

// ClearCache drops every compiled template.
func (e *Engine) ClearCache() {
	e.mu.Lock()
	e.templates = make(map[string]*Template)
	e.mu.Unlock()
	e.logger.Debug(LogMsgCacheCleared)
}

// engineSelector lets compositions load templates through the engine.
type engineSelector struct {
	engine *Engine
}

func (s engineSelector) SelectTemplate(ctx context.Context, names []string) (internal.Renderable, error) {
	t, err := s.engine.SelectTemplate(ctx, names)
	if err != nil {
		return nil, err
	}
	return t.inner, nil
}

func validateLexerConfig(c internal.LexerConfig) error {
	delims := []string{c.VarOpen, c.VarClose, c.BlockOpen, c.BlockClose, c.CommentOpen, c.CommentClose}
	for _, d := range delims {
		if d == StringValueEmpty {
			return NewConfigError(ErrMsgInvalidDelimiters, nil)
		}
	}
	if c.VarOpen == c.BlockOpen || c.VarOpen == c.CommentOpen || c.BlockOpen == c.CommentOpen {
		return NewConfigError(ErrMsgInvalidDelimiters, nil)
	}
	return nil
}
