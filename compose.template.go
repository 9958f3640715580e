package compose

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/itsatony/go-compose/internal"
)

// Template is a compiled template bound to the engine that compiled it.
// A Template is immutable and may be rendered concurrently.
type Template struct {
	inner  *internal.Template
	engine *Engine
}

// Name returns the name the template was compiled under.
func (t *Template) Name() string {
	return t.inner.Name()
}

// Source returns the template source.
func (t *Template) Source() string {
	return t.inner.Source()
}

// Unwrap returns the compiled template body. Passing a *Template as a
// composition's template argument renders it directly.
func (t *Template) Unwrap() internal.Renderable {
	return t.inner
}

// Render renders the template with data. Each call is an independent
// render pass.
func (t *Template) Render(ctx context.Context, data map[string]any) (string, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, span := t.engine.tracer.Start(ctx, SpanRender, trace.WithAttributes(attribute.String(AttrTemplateName, t.Name())))
	defer span.End()

	start := time.Now()
	rc := internal.NewRenderContext(ctx, engineSelector{engine: t.engine}, t.engine.logger, t.engine.config.maxDepth)
	out, err := t.inner.RenderIn(rc, internal.NewScope(data))
	elapsed := time.Since(start)
	t.engine.metrics.observeRender(t.Name(), elapsed, err)

	if err != nil {
		err = NewRenderError(t.Name(), err)
		recordSpanError(span, err)
		t.engine.logger.Debug(LogMsgRenderFailed,
			zap.String(LogFieldTemplate, t.Name()),
			zap.Error(err))
		return StringValueEmpty, err
	}

	t.engine.logger.Debug(LogMsgTemplateRendered,
		zap.String(LogFieldTemplate, t.Name()),
		zap.Duration(LogFieldDuration, elapsed))
	return out, nil
}
