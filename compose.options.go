package compose

import (
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/itsatony/go-compose/internal"
)

// Option is a functional option for configuring the Engine.
type Option func(*engineConfig)

// engineConfig holds the internal configuration for an Engine.
type engineConfig struct {
	lexer          internal.LexerConfig
	maxDepth       int
	cacheTemplates bool
	loader         Loader
	logger         *zap.Logger
	metrics        *Metrics
	tracerProvider trace.TracerProvider
}

// defaultEngineConfig returns the default engine configuration.
func defaultEngineConfig() *engineConfig {
	return &engineConfig{
		lexer:          internal.DefaultLexerConfig(),
		maxDepth:       DefaultMaxDepth,
		cacheTemplates: true,
	}
}

// WithLogger sets the logger for the engine.
// Default: nil (no logging)
func WithLogger(logger *zap.Logger) Option {
	return func(c *engineConfig) {
		c.logger = logger
	}
}

// WithLoader sets the source of templates fetched by name.
// Default: an empty MemoryLoader
func WithLoader(loader Loader) Option {
	return func(c *engineConfig) {
		c.loader = loader
	}
}

// WithMaxDepth sets how deeply compositions and includes may nest.
// Use 0 for unlimited depth.
// Default: 100
func WithMaxDepth(depth int) Option {
	return func(c *engineConfig) {
		c.maxDepth = depth
	}
}

// WithTemplateCache toggles caching of compiled templates fetched through
// the loader. Disable it when templates change underneath a running engine
// and ClearCache is not an option.
// Default: true
func WithTemplateCache(enabled bool) Option {
	return func(c *engineConfig) {
		c.cacheTemplates = enabled
	}
}

// WithMetrics records parse, load and render metrics.
func WithMetrics(m *Metrics) Option {
	return func(c *engineConfig) {
		c.metrics = m
	}
}

// WithTracerProvider sets the OpenTelemetry tracer provider.
// Default: the global provider
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(c *engineConfig) {
		c.tracerProvider = tp
	}
}

// WithDelimiters replaces the variable and block delimiters.
// Empty values keep the default.
func WithDelimiters(varOpen, varClose, blockOpen, blockClose string) Option {
	return func(c *engineConfig) {
		if varOpen != StringValueEmpty {
			c.lexer.VarOpen = varOpen
		}
		if varClose != StringValueEmpty {
			c.lexer.VarClose = varClose
		}
		if blockOpen != StringValueEmpty {
			c.lexer.BlockOpen = blockOpen
		}
		if blockClose != StringValueEmpty {
			c.lexer.BlockClose = blockClose
		}
	}
}

// WithCommentDelimiters replaces the comment delimiters.
func WithCommentDelimiters(open, close string) Option {
	return func(c *engineConfig) {
		if open != StringValueEmpty {
			c.lexer.CommentOpen = open
		}
		if close != StringValueEmpty {
			c.lexer.CommentClose = close
		}
	}
}
