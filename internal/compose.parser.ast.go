package internal

import (
	"fmt"
	"html"
	"strings"
)

// Node is the interface all compiled nodes implement
type Node interface {
	// Type returns the node type identifier
	Type() NodeType
	// Pos returns the source position of this node
	Pos() Position
	// String returns a human-readable representation
	String() string
	// Render produces the node's output against scope
	Render(rc *RenderContext, scope *Scope) (string, error)
}

// NodeList is a sequence of nodes rendered one after the other.
type NodeList []Node

// Render renders every node and concatenates the output. The first error
// aborts the render.
func (l NodeList) Render(rc *RenderContext, scope *Scope) (string, error) {
	var sb strings.Builder
	for _, node := range l {
		if err := rc.ctx.Err(); err != nil {
			return "", err
		}
		out, err := node.Render(rc, scope)
		if err != nil {
			return "", err
		}
		sb.WriteString(out)
	}
	return sb.String(), nil
}

// String returns a string representation of the node list
func (l NodeList) String() string {
	var sb strings.Builder
	sb.WriteString("NodeList{\n")
	for i, child := range l {
		sb.WriteString(fmt.Sprintf("  [%d] %s\n", i, child.String()))
	}
	sb.WriteString("}")
	return sb.String()
}

// TextNode represents literal text content
type TextNode struct {
	pos     Position
	Content string
}

// NewTextNode creates a new text node
func NewTextNode(content string, pos Position) *TextNode {
	return &TextNode{
		pos:     pos,
		Content: content,
	}
}

// Type returns NodeTypeText
func (n *TextNode) Type() NodeType {
	return NodeTypeText
}

// Pos returns the source position
func (n *TextNode) Pos() Position {
	return n.pos
}

// String returns a string representation
func (n *TextNode) String() string {
	return fmt.Sprintf("TextNode{%q @ %s}", truncate(n.Content), n.pos)
}

// Render returns the text unchanged
func (n *TextNode) Render(_ *RenderContext, _ *Scope) (string, error) {
	return n.Content, nil
}

// VariableNode prints an expression. Output is HTML escaped unless the
// value is a SafeString.
type VariableNode struct {
	pos  Position
	Expr *Expression
}

// NewVariableNode creates a new variable node
func NewVariableNode(e *Expression, pos Position) *VariableNode {
	return &VariableNode{
		pos:  pos,
		Expr: e,
	}
}

// Type returns NodeTypeVariable
func (n *VariableNode) Type() NodeType {
	return NodeTypeVariable
}

// Pos returns the source position
func (n *VariableNode) Pos() Position {
	return n.pos
}

// String returns a string representation
func (n *VariableNode) String() string {
	return fmt.Sprintf("VariableNode{%s @ %s}", n.Expr.Source(), n.pos)
}

// Render resolves and prints the expression
func (n *VariableNode) Render(_ *RenderContext, scope *Scope) (string, error) {
	v, err := n.Expr.Resolve(scope)
	if err != nil {
		return "", err
	}
	if s, ok := v.(SafeString); ok {
		return string(s), nil
	}
	return html.EscapeString(FormatValue(v)), nil
}

func truncate(content string) string {
	if len(content) > MaxStringDisplayLength {
		return content[:TruncatedStringLength] + TruncationSuffix
	}
	return content
}
