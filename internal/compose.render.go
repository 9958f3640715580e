package internal

import (
	"context"
	"strings"

	"go.uber.org/zap"
)

// Renderable is anything a composition can render its values into.
type Renderable interface {
	Name() string
	RenderIn(rc *RenderContext, scope *Scope) (string, error)
}

// TemplateWrapper is a backend wrapper around a Renderable. Compositions
// unwrap one level before rendering.
type TemplateWrapper interface {
	Unwrap() Renderable
}

// TemplateSelector loads the first template found among names.
type TemplateSelector interface {
	SelectTemplate(ctx context.Context, names []string) (Renderable, error)
}

// RenderContext carries the state of one render pass. A Template.Render
// call creates one; nodes receive copies that differ only in the active
// slot collector and depth, while the template cache is shared by the
// whole pass.
type RenderContext struct {
	ctx      context.Context
	selector TemplateSelector
	logger   *zap.Logger
	cache    map[templateCacheKey]Renderable
	slots    *SlotCollector
	depth    int
	maxDepth int
}

type templateCacheKey struct {
	node  Node
	names string
}

// NewRenderContext creates the state for one render pass.
func NewRenderContext(ctx context.Context, selector TemplateSelector, logger *zap.Logger, maxDepth int) *RenderContext {
	if ctx == nil {
		ctx = context.Background()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RenderContext{
		ctx:      ctx,
		selector: selector,
		logger:   logger,
		cache:    make(map[templateCacheKey]Renderable),
		maxDepth: maxDepth,
	}
}

// Context returns the context.Context of the render pass.
func (rc *RenderContext) Context() context.Context {
	return rc.ctx
}

// Logger returns the render pass logger.
func (rc *RenderContext) Logger() *zap.Logger {
	return rc.logger
}

// Depth returns how many compositions deep the current render is.
func (rc *RenderContext) Depth() int {
	return rc.depth
}

// Slots returns the active slot collector, or nil outside a composition body.
func (rc *RenderContext) Slots() *SlotCollector {
	return rc.slots
}

// WithSlots returns a copy of rc whose active slot collector is c.
func (rc *RenderContext) WithSlots(c *SlotCollector) *RenderContext {
	cp := *rc
	cp.slots = c
	return &cp
}

// Nested returns the render context for a template rendered by a
// composition or include: no active slot collector and one level deeper.
func (rc *RenderContext) Nested(tagName string, pos Position) (*RenderContext, error) {
	if rc.maxDepth > 0 && rc.depth >= rc.maxDepth {
		return nil, NewCompositionError(ErrMsgMaxDepthExceeded, tagName, StringValueEmpty, pos)
	}
	cp := *rc
	cp.slots = nil
	cp.depth++
	return &cp, nil
}

// SelectTemplate loads the first existing template among names, caching
// the result for node within this render pass.
func (rc *RenderContext) SelectTemplate(node Node, names []string) (Renderable, error) {
	key := templateCacheKey{node: node, names: strings.Join(names, TemplateCacheKeySep)}
	if tmpl, ok := rc.cache[key]; ok {
		rc.logger.Debug(LogMsgTemplateCacheHit, zap.Strings(LogFieldTemplates, names))
		return tmpl, nil
	}
	if rc.selector == nil {
		return nil, NewCompositionError(ErrMsgNoTemplateSelector, StringValueEmpty, StringValueEmpty, node.Pos())
	}

	tmpl, err := rc.selector.SelectTemplate(rc.ctx, names)
	if err != nil {
		return nil, err
	}
	rc.logger.Debug(LogMsgTemplateSelected,
		zap.Strings(LogFieldTemplates, names),
		zap.String(LogFieldTemplateName, tmpl.Name()))
	rc.cache[key] = tmpl
	return tmpl, nil
}

// Template is a compiled template body.
type Template struct {
	name   string
	source string
	nodes  NodeList
}

// NewTemplate creates a compiled template.
func NewTemplate(name, source string, nodes NodeList) *Template {
	return &Template{name: name, source: source, nodes: nodes}
}

// Name returns the template name the template was loaded under.
func (t *Template) Name() string {
	return t.name
}

// Source returns the template source text.
func (t *Template) Source() string {
	return t.source
}

// Nodes returns the compiled node list.
func (t *Template) Nodes() NodeList {
	return t.nodes
}

// RenderIn renders the template body against scope.
func (t *Template) RenderIn(rc *RenderContext, scope *Scope) (string, error) {
	return t.nodes.Render(rc, scope)
}
