package internal

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// ComposeNode renders a target template with values built from its
// arguments, its rendered body (children) and the slots declared in the
// body. It backs both {% compose %} and function-bound composition tags.
// A ComposeNode holds no per-render state and may be rendered
// concurrently from independent render passes.
type ComposeNode struct {
	pos          Position
	TagName      string
	Origin       string
	Template     *Expression
	Func         CompositionFunc
	Sig          Signature
	TakesContext bool
	Args         []*Expression
	Kwargs       []KeywordArg
	Body         NodeList
}

// Type returns NodeTypeCompose
func (n *ComposeNode) Type() NodeType {
	return NodeTypeCompose
}

// Pos returns the source position
func (n *ComposeNode) Pos() Position {
	return n.pos
}

// String returns a string representation
func (n *ComposeNode) String() string {
	return fmt.Sprintf("ComposeNode{%s %s, %d args, %d kwargs, takes_context=%t, %d nodes @ %s}",
		n.TagName, n.Template.Source(), len(n.Args), len(n.Kwargs), n.TakesContext, len(n.Body), n.pos)
}

// Render resolves the target template, collects children and slots,
// binds the arguments and renders the target.
func (n *ComposeNode) Render(rc *RenderContext, scope *Scope) (string, error) {
	tmpl, err := resolveTemplate(rc, n, n.Template, n.Origin, n.TagName, scope)
	if err != nil {
		return "", err
	}

	args := make([]any, 0, len(n.Args))
	for _, e := range n.Args {
		v, err := e.Resolve(scope)
		if err != nil {
			return "", err
		}
		args = append(args, v)
	}
	kwargs := make(KeywordValues, 0, len(n.Kwargs))
	for _, kw := range n.Kwargs {
		v, err := kw.Expr.Resolve(scope)
		if err != nil {
			return "", err
		}
		kwargs = append(kwargs, KeywordValue{Name: kw.Name, Value: v})
	}

	collector := NewSlotCollector()
	children, err := n.Body.Render(rc.WithSlots(collector), scope)
	if err != nil {
		return "", err
	}
	if err := collector.Merge(&kwargs); err != nil {
		return "", err
	}

	rc.Logger().Debug(LogMsgCompositionBinding,
		zap.String(LogFieldTag, n.TagName),
		zap.Int(LogFieldSlotCount, collector.Len()))
	bound, err := n.Sig.Bind(args, kwargs)
	if err != nil {
		return "", n.bindError(err)
	}

	fn := n.Func
	if fn == nil {
		fn = DefaultComposition
	}
	var callerScope *Scope
	if n.TakesContext {
		callerScope = scope
	}
	values, err := fn(SafeString(children), callerScope, bound)
	if err != nil {
		return "", &CompositionError{
			Message:  ErrMsgCompositionFuncFailed,
			TagName:  n.TagName,
			Position: n.pos,
			Cause:    err,
		}
	}
	if values == nil {
		values = make(map[string]any)
	}
	if !n.TakesContext {
		if token, ok := scope.Get(KeyCSRFToken); ok && token != nil {
			values[KeyCSRFToken] = token
		}
	}

	nested, err := rc.Nested(n.TagName, n.pos)
	if err != nil {
		return "", err
	}
	rc.Logger().Debug(LogMsgComposeRender,
		zap.String(LogFieldTag, n.TagName),
		zap.String(LogFieldTemplateName, tmpl.Name()),
		zap.Int(LogFieldDepth, nested.Depth()),
		zap.Bool(LogFieldTakesContext, n.TakesContext))

	if n.TakesContext {
		pop := scope.Push(values)
		defer pop()
		return tmpl.RenderIn(nested, scope)
	}
	return tmpl.RenderIn(nested, scope.New(values))
}

func (n *ComposeNode) bindError(err error) error {
	var be *BindError
	if errors.As(err, &be) {
		return NewCompositionError(be.Message, n.TagName, be.Name, n.pos)
	}
	return &CompositionError{Message: ErrMsgCompositionFuncFailed, TagName: n.TagName, Position: n.pos, Cause: err}
}

// CompileCompose compiles
// {% compose template [name=value ...] [takes_context] %}...{% endcompose %}.
func CompileCompose(p *Parser, tok Token) (Node, error) {
	bits := tok.SplitContents()
	if len(bits) < 2 {
		return nil, NewSyntaxError(ErrMsgComposeMissingTarget, TagNameCompose, tok.Position)
	}

	tmpl, err := compileTemplateExpression(p, bits[1], tok)
	if err != nil {
		return nil, err
	}

	takesContext := false
	var kwargs []KeywordArg
	seen := make(map[string]struct{})
	for _, bit := range bits[2:] {
		if bit == KeyTakesContext {
			takesContext = true
			continue
		}
		name, value, ok := SplitKeyword(bit)
		if !ok {
			return nil, NewSyntaxErrorf(TagNameCompose, tok.Position, ErrFmtTagMessage, ErrMsgUnexpectedArgument, bit)
		}
		if name == KeyChildren {
			return nil, NewSyntaxError(ErrMsgChildrenKeyword, TagNameCompose, tok.Position)
		}
		if _, dup := seen[name]; dup {
			return nil, NewSyntaxErrorf(TagNameCompose, tok.Position, ErrFmtTagMessage, ErrMsgDuplicateKeyword, name)
		}
		seen[name] = struct{}{}

		e, err := p.CompileExpression(value, tok)
		if err != nil {
			return nil, err
		}
		kwargs = append(kwargs, KeywordArg{Name: name, Expr: e})
	}

	body, err := p.ParseUntil(TagNameEndCompose)
	if err != nil {
		return nil, err
	}
	p.NextToken()

	return &ComposeNode{
		pos:          tok.Position,
		TagName:      TagNameCompose,
		Origin:       p.Origin(),
		Template:     tmpl,
		Sig:          Signature{VarKwargs: KeyDefaultKw},
		TakesContext: takesContext,
		Kwargs:       kwargs,
		Body:         body,
	}, nil
}

// compileTemplateExpression compiles the template argument of compose and
// include. A quoted relative name is resolved right away so a bad path is
// reported when the template is parsed.
func compileTemplateExpression(p *Parser, bit string, tok Token) (*Expression, error) {
	literal, ok := unquoteLiteral(bit)
	if !ok {
		return p.CompileExpression(bit, tok)
	}
	return literalTemplateExpression(p, literal, tok)
}

// literalTemplateExpression turns a template name into a constant
// expression, resolving "./" and "../" against the template being parsed.
func literalTemplateExpression(p *Parser, literal string, tok Token) (*Expression, error) {
	if !IsRelativeName(literal) {
		return NewConstantExpression(literal), nil
	}

	resolved, err := ResolveRelativeName(p.Origin(), literal)
	if err != nil {
		var pe *PathError
		if errors.As(err, &pe) {
			return nil, &SyntaxError{Message: pe.Message, TagName: tok.Command(), Position: tok.Position, Cause: err}
		}
		return nil, err
	}
	return NewConstantExpression(resolved), nil
}

// resolveTemplate evaluates a template expression into something
// renderable: a template value is used as is, a name or list of candidate
// names is loaded through the render pass' selector.
func resolveTemplate(rc *RenderContext, node Node, e *Expression, origin, tagName string, scope *Scope) (Renderable, error) {
	v, err := e.Resolve(scope)
	if err != nil {
		return nil, err
	}

	switch t := v.(type) {
	case TemplateWrapper:
		return t.Unwrap(), nil
	case Renderable:
		return t, nil
	}

	names, err := templateNames(v, origin)
	if err != nil {
		return nil, &CompositionError{
			Message:  ErrMsgInvalidTemplateRef,
			TagName:  tagName,
			Position: node.Pos(),
			Cause:    err,
		}
	}
	return rc.SelectTemplate(node, names)
}

// templateNames turns a resolved template reference into candidate names.
// Falsy values yield no names, which the loader rejects.
func templateNames(v any, origin string) ([]string, error) {
	if !IsTruthy(v) {
		return []string{}, nil
	}

	switch t := v.(type) {
	case string:
		name, err := ResolveRelativeName(origin, t)
		if err != nil {
			return nil, err
		}
		return []string{name}, nil
	case SafeString:
		return templateNames(string(t), origin)
	case []string:
		return append([]string(nil), t...), nil
	case []any:
		names := make([]string, 0, len(t))
		for _, item := range t {
			switch s := item.(type) {
			case string:
				names = append(names, s)
			case SafeString:
				names = append(names, string(s))
			default:
				return nil, fmt.Errorf(ErrFmtTemplateRefType, item)
			}
		}
		return names, nil
	default:
		return nil, fmt.Errorf(ErrFmtTemplateRefType, v)
	}
}

// ErrFmtTemplateRefType reports a template reference of an unusable type.
const ErrFmtTemplateRefType = "cannot use %T as a template name"
