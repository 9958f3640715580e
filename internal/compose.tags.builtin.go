package internal

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
)

// ifBranch is one condition/body pair. A nil condition is the else branch.
type ifBranch struct {
	cond *Expression
	body NodeList
}

// IfNode renders the first branch whose condition is truthy.
type IfNode struct {
	pos      Position
	branches []ifBranch
}

// Type returns NodeTypeIf
func (n *IfNode) Type() NodeType {
	return NodeTypeIf
}

// Pos returns the source position
func (n *IfNode) Pos() Position {
	return n.pos
}

// String returns a string representation
func (n *IfNode) String() string {
	return fmt.Sprintf("IfNode{%d branches @ %s}", len(n.branches), n.pos)
}

// Render evaluates the branches in order.
func (n *IfNode) Render(rc *RenderContext, scope *Scope) (string, error) {
	for _, b := range n.branches {
		if b.cond == nil {
			return b.body.Render(rc, scope)
		}
		v, err := b.cond.Resolve(scope)
		if err != nil {
			return "", err
		}
		if IsTruthy(v) {
			return b.body.Render(rc, scope)
		}
	}
	return "", nil
}

// CompileIf compiles {% if %}...{% elif %}...{% else %}...{% endif %}.
func CompileIf(p *Parser, tok Token) (Node, error) {
	node := &IfNode{pos: tok.Position}

	current := tok
	for {
		cond := tagArgument(current)
		if cond == StringValueEmpty {
			return nil, NewSyntaxError(ErrMsgIfMissingCondition, current.Command(), current.Position)
		}
		e, err := p.CompileExpression(cond, current)
		if err != nil {
			return nil, err
		}

		body, err := p.ParseUntil(TagNameElif, TagNameElse, TagNameEndIf)
		if err != nil {
			return nil, err
		}
		node.branches = append(node.branches, ifBranch{cond: e, body: body})

		next := p.NextToken()
		switch next.Command() {
		case TagNameElif:
			current = next
			continue
		case TagNameElse:
			elseBody, err := p.ParseUntil(TagNameEndIf)
			if err != nil {
				return nil, err
			}
			p.NextToken()
			node.branches = append(node.branches, ifBranch{body: elseBody})
		}
		return node, nil
	}
}

// ForNode renders its body once per item of a sequence or map.
type ForNode struct {
	pos      Position
	LoopVars []string
	Iterable *Expression
	Reversed bool
	Body     NodeList
	Empty    NodeList
}

// Type returns NodeTypeFor
func (n *ForNode) Type() NodeType {
	return NodeTypeFor
}

// Pos returns the source position
func (n *ForNode) Pos() Position {
	return n.pos
}

// String returns a string representation
func (n *ForNode) String() string {
	return fmt.Sprintf("ForNode{%s in %s @ %s}", strings.Join(n.LoopVars, ", "), n.Iterable.Source(), n.pos)
}

// Render iterates the resolved value. Each iteration pushes a layer with
// the loop variables and forloop onto scope.
func (n *ForNode) Render(rc *RenderContext, scope *Scope) (string, error) {
	v, err := n.Iterable.Resolve(scope)
	if err != nil {
		return "", err
	}

	items, err := n.items(v)
	if err != nil {
		return "", err
	}
	if len(items) == 0 {
		return n.Empty.Render(rc, scope)
	}
	if n.Reversed {
		for i, j := 0, len(items)-1; i < j; i, j = i+1, j-1 {
			items[i], items[j] = items[j], items[i]
		}
	}

	parent, _ := scope.Get(KeyForLoop)
	var sb strings.Builder
	for i, item := range items {
		values := map[string]any{
			KeyForLoop: map[string]any{
				ForLoopCounter:   i + 1,
				ForLoopCounter0:  i,
				ForLoopRevCount:  len(items) - i,
				ForLoopFirst:     i == 0,
				ForLoopLast:      i == len(items)-1,
				ForLoopLength:    len(items),
				ForLoopParentKey: parent,
			},
		}
		if err := n.bind(values, item); err != nil {
			return "", err
		}

		pop := scope.Push(values)
		out, err := n.Body.Render(rc, scope)
		pop()
		if err != nil {
			return "", err
		}
		sb.WriteString(out)
	}
	return sb.String(), nil
}

type forItem struct {
	key   any
	value any
}

func (n *ForNode) items(v any) ([]forItem, error) {
	if v == nil {
		return nil, nil
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		items := make([]forItem, rv.Len())
		for i := range items {
			items[i] = forItem{value: rv.Index(i).Interface()}
		}
		return items, nil
	case reflect.Map:
		keys := rv.MapKeys()
		sort.Slice(keys, func(i, j int) bool {
			return fmt.Sprint(keys[i].Interface()) < fmt.Sprint(keys[j].Interface())
		})
		items := make([]forItem, len(keys))
		for i, k := range keys {
			items[i] = forItem{key: k.Interface(), value: rv.MapIndex(k).Interface()}
		}
		return items, nil
	case reflect.String:
		var items []forItem
		for _, r := range rv.String() {
			items = append(items, forItem{value: string(r)})
		}
		return items, nil
	default:
		return nil, NewCompositionError(fmt.Sprintf(ErrFmtNotIterable, v), TagNameFor, StringValueEmpty, n.pos)
	}
}

// bind assigns the loop variables for one item. Map items bind key and
// value; a single variable over a map receives the key.
func (n *ForNode) bind(values map[string]any, item forItem) error {
	if len(n.LoopVars) == 1 {
		if item.key != nil {
			values[n.LoopVars[0]] = item.key
		} else {
			values[n.LoopVars[0]] = item.value
		}
		return nil
	}

	var parts []any
	if item.key != nil {
		parts = []any{item.key, item.value}
	} else {
		rv := reflect.ValueOf(item.value)
		if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
			return NewCompositionError(fmt.Sprintf(ErrFmtUnpack, len(n.LoopVars), 1), TagNameFor, StringValueEmpty, n.pos)
		}
		for i := 0; i < rv.Len(); i++ {
			parts = append(parts, rv.Index(i).Interface())
		}
	}
	if len(parts) != len(n.LoopVars) {
		return NewCompositionError(fmt.Sprintf(ErrFmtUnpack, len(n.LoopVars), len(parts)), TagNameFor, StringValueEmpty, n.pos)
	}
	for i, name := range n.LoopVars {
		values[name] = parts[i]
	}
	return nil
}

// CompileFor compiles {% for x in items [reversed] %}...{% empty %}...{% endfor %}.
func CompileFor(p *Parser, tok Token) (Node, error) {
	bits := tok.SplitContents()
	inIdx := -1
	for i, bit := range bits {
		if bit == KeyIn {
			inIdx = i
			break
		}
	}
	if len(bits) < 4 || inIdx < 2 || inIdx == len(bits)-1 {
		return nil, NewSyntaxError(ErrMsgForSyntax, TagNameFor, tok.Position)
	}

	var loopVars []string
	for _, v := range strings.Split(strings.Join(bits[1:inIdx], " "), string(CharComma)) {
		v = strings.TrimSpace(v)
		if !IsIdentifier(v) {
			return nil, NewSyntaxErrorf(TagNameFor, tok.Position, ErrFmtTagMessage, ErrMsgInvalidName, v)
		}
		loopVars = append(loopVars, v)
	}

	rest := bits[inIdx+1:]
	reversed := false
	if len(rest) > 1 && rest[len(rest)-1] == KeyReversed {
		reversed = true
		rest = rest[:len(rest)-1]
	}
	iterable, err := p.CompileExpression(strings.Join(rest, " "), tok)
	if err != nil {
		return nil, err
	}

	body, err := p.ParseUntil(TagNameEmpty, TagNameEndFor)
	if err != nil {
		return nil, err
	}
	node := &ForNode{pos: tok.Position, LoopVars: loopVars, Iterable: iterable, Reversed: reversed, Body: body}

	if p.NextToken().Command() == TagNameEmpty {
		empty, err := p.ParseUntil(TagNameEndFor)
		if err != nil {
			return nil, err
		}
		p.NextToken()
		node.Empty = empty
	}
	return node, nil
}

// WithNode renders its body with extra names pushed onto the scope.
type WithNode struct {
	pos    Position
	Values []KeywordArg
	Body   NodeList
}

// Type returns NodeTypeWith
func (n *WithNode) Type() NodeType {
	return NodeTypeWith
}

// Pos returns the source position
func (n *WithNode) Pos() Position {
	return n.pos
}

// String returns a string representation
func (n *WithNode) String() string {
	return fmt.Sprintf("WithNode{%d values @ %s}", len(n.Values), n.pos)
}

// Render pushes the values for the duration of the body.
func (n *WithNode) Render(rc *RenderContext, scope *Scope) (string, error) {
	values, err := resolveKeywords(n.Values, scope)
	if err != nil {
		return "", err
	}
	pop := scope.Push(values)
	defer pop()
	return n.Body.Render(rc, scope)
}

// CompileWith compiles {% with name=value ... %}...{% endwith %}.
func CompileWith(p *Parser, tok Token) (Node, error) {
	bits := tok.SplitContents()
	if len(bits) < 2 {
		return nil, NewSyntaxError(ErrMsgWithSyntax, TagNameWith, tok.Position)
	}
	values, err := compileKeywords(p, tok, bits[1:], ErrMsgWithSyntax)
	if err != nil {
		return nil, err
	}

	body, err := p.ParseUntil(TagNameEndWith)
	if err != nil {
		return nil, err
	}
	p.NextToken()

	return &WithNode{pos: tok.Position, Values: values, Body: body}, nil
}

// IncludeNode renders another template in place, against the current
// scope or, with only, against the given values alone.
type IncludeNode struct {
	pos      Position
	Origin   string
	Template *Expression
	Values   []KeywordArg
	Only     bool
}

// Type returns NodeTypeInclude
func (n *IncludeNode) Type() NodeType {
	return NodeTypeInclude
}

// Pos returns the source position
func (n *IncludeNode) Pos() Position {
	return n.pos
}

// String returns a string representation
func (n *IncludeNode) String() string {
	return fmt.Sprintf("IncludeNode{%s only=%t @ %s}", n.Template.Source(), n.Only, n.pos)
}

// Render renders the included template.
func (n *IncludeNode) Render(rc *RenderContext, scope *Scope) (string, error) {
	tmpl, err := resolveTemplate(rc, n, n.Template, n.Origin, TagNameInclude, scope)
	if err != nil {
		return "", err
	}
	values, err := resolveKeywords(n.Values, scope)
	if err != nil {
		return "", err
	}
	nested, err := rc.Nested(TagNameInclude, n.pos)
	if err != nil {
		return "", err
	}

	if n.Only {
		return tmpl.RenderIn(nested, scope.New(values))
	}
	pop := scope.Push(values)
	defer pop()
	return tmpl.RenderIn(nested, scope)
}

// CompileInclude compiles {% include template [with name=value ...] [only] %}.
func CompileInclude(p *Parser, tok Token) (Node, error) {
	bits := tok.SplitContents()
	if len(bits) < 2 {
		return nil, NewSyntaxError(ErrMsgIncludeSyntax, TagNameInclude, tok.Position)
	}
	tmpl, err := compileTemplateExpression(p, bits[1], tok)
	if err != nil {
		return nil, err
	}

	node := &IncludeNode{pos: tok.Position, Origin: p.Origin(), Template: tmpl}
	rest := bits[2:]
	if len(rest) > 0 && rest[len(rest)-1] == KeyOnly {
		node.Only = true
		rest = rest[:len(rest)-1]
	}
	if len(rest) > 0 {
		if rest[0] != TagNameWith || len(rest) < 2 {
			return nil, NewSyntaxError(ErrMsgIncludeSyntax, TagNameInclude, tok.Position)
		}
		node.Values, err = compileKeywords(p, tok, rest[1:], ErrMsgIncludeSyntax)
		if err != nil {
			return nil, err
		}
	}
	return node, nil
}

// CompileComment drops everything up to {% endcomment %}.
func CompileComment(p *Parser, _ Token) (Node, error) {
	if err := p.SkipPast(TagNameEndComment); err != nil {
		return nil, err
	}
	return nil, nil
}

// tagArgument returns the token text after the tag name.
func tagArgument(tok Token) string {
	return strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(tok.Value), tok.Command()))
}

func compileKeywords(p *Parser, tok Token, bits []string, message string) ([]KeywordArg, error) {
	kwargs := make([]KeywordArg, 0, len(bits))
	for _, bit := range bits {
		name, value, ok := SplitKeyword(bit)
		if !ok {
			return nil, NewSyntaxErrorf(tok.Command(), tok.Position, ErrFmtTagMessage, message, bit)
		}
		e, err := p.CompileExpression(value, tok)
		if err != nil {
			return nil, err
		}
		kwargs = append(kwargs, KeywordArg{Name: name, Expr: e})
	}
	return kwargs, nil
}

func resolveKeywords(kwargs []KeywordArg, scope *Scope) (map[string]any, error) {
	values := make(map[string]any, len(kwargs))
	for _, kw := range kwargs {
		v, err := kw.Expr.Resolve(scope)
		if err != nil {
			return nil, err
		}
		values[kw.Name] = v
	}
	return values, nil
}

// Builtin tag error formats
const (
	ErrFmtNotIterable = "cannot iterate over %T"
	ErrFmtUnpack      = "need %d values to unpack in for loop; got %d"
)
