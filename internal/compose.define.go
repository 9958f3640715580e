package internal

import (
	"fmt"

	"go.uber.org/zap"
)

// DefineNode renders its body and binds the output to Name in the scope
// it is rendered in. It prints nothing.
type DefineNode struct {
	pos  Position
	Name string
	Body NodeList
}

// Type returns NodeTypeDefine
func (n *DefineNode) Type() NodeType {
	return NodeTypeDefine
}

// Pos returns the source position
func (n *DefineNode) Pos() Position {
	return n.pos
}

// String returns a string representation
func (n *DefineNode) String() string {
	return fmt.Sprintf("DefineNode{%s, %d nodes @ %s}", n.Name, len(n.Body), n.pos)
}

// Render binds the rendered body in scope.
func (n *DefineNode) Render(rc *RenderContext, scope *Scope) (string, error) {
	out, err := n.Body.Render(rc, scope)
	if err != nil {
		return "", err
	}
	scope.Set(n.Name, SafeString(out))
	rc.Logger().Debug(LogMsgDefineBound, zap.String(LogFieldName, n.Name))
	return "", nil
}

// CompileDefine compiles {% define name %}...{% enddefine %}.
func CompileDefine(p *Parser, tok Token) (Node, error) {
	bits := tok.SplitContents()
	if len(bits) != 2 {
		return nil, NewSyntaxError(ErrMsgDefineArgCount, TagNameDefine, tok.Position)
	}
	if !IsIdentifier(bits[1]) {
		return nil, NewSyntaxErrorf(TagNameDefine, tok.Position, ErrFmtTagMessage, ErrMsgInvalidName, bits[1])
	}

	body, err := p.ParseUntil(TagNameEndDefine)
	if err != nil {
		return nil, err
	}
	p.NextToken()

	return &DefineNode{pos: tok.Position, Name: bits[1], Body: body}, nil
}
