package internal

import (
	"fmt"

	"go.uber.org/zap"
)

// SlotKind distinguishes single slots from array slots.
type SlotKind int

const (
	// SlotSingle holds exactly one value; declaring it twice is an error.
	SlotSingle SlotKind = iota
	// SlotArray collects every occurrence into an ordered list.
	SlotArray
)

// String returns the tag name of the slot kind.
func (k SlotKind) String() string {
	if k == SlotArray {
		return TagNameSlotArray
	}
	return TagNameSlot
}

// SlotNode captures a named fragment of a composition body. It renders
// into the active slot collector and prints nothing itself. Slots may sit
// anywhere inside the body, including inside if, for and define blocks.
// They must appear in the body's own source: a slot inside a template
// pulled in by include, or inside a composition's target, renders with a
// fresh slot context and fails with ErrMsgSlotOutsideCompose.
type SlotNode struct {
	pos  Position
	Name string
	Kind SlotKind
	Body NodeList
}

// Type returns NodeTypeSlot
func (n *SlotNode) Type() NodeType {
	return NodeTypeSlot
}

// Pos returns the source position
func (n *SlotNode) Pos() Position {
	return n.pos
}

// String returns a string representation
func (n *SlotNode) String() string {
	return fmt.Sprintf("SlotNode{%s %s, %d nodes @ %s}", n.Kind, n.Name, len(n.Body), n.pos)
}

// Render renders the body and hands it to the enclosing composition.
func (n *SlotNode) Render(rc *RenderContext, scope *Scope) (string, error) {
	collector := rc.Slots()
	if collector == nil {
		return "", NewCompositionError(ErrMsgSlotOutsideCompose, n.Kind.String(), n.Name, n.pos)
	}

	out, err := n.Body.Render(rc, scope)
	if err != nil {
		return "", err
	}
	collector.add(n, out)
	rc.Logger().Debug(LogMsgSlotCollected,
		zap.String(LogFieldSlot, n.Name),
		zap.String(LogFieldSlotKind, n.Kind.String()))
	return "", nil
}

// CompileSlot compiles {% slot name %} and {% slot[] name %}.
func CompileSlot(p *Parser, tok Token) (Node, error) {
	bits := tok.SplitContents()
	tagName := bits[0]
	if len(bits) != 2 {
		return nil, NewSyntaxError(ErrMsgSlotArgCount, tagName, tok.Position)
	}

	name := bits[1]
	if s, ok := unquoteLiteral(name); ok {
		name = s
	}
	if !IsIdentifier(name) {
		return nil, NewSyntaxErrorf(tagName, tok.Position, ErrFmtTagMessage, ErrMsgInvalidName, name)
	}
	if name == KeyChildren {
		return nil, NewSyntaxError(ErrMsgSlotChildren, tagName, tok.Position)
	}

	kind := SlotSingle
	if tagName == TagNameSlotArray {
		kind = SlotArray
	}

	body, err := p.ParseUntil(TagNameEndSlot)
	if err != nil {
		return nil, err
	}
	p.NextToken()

	return &SlotNode{pos: tok.Position, Name: name, Kind: kind, Body: body}, nil
}

type slotEntry struct {
	node *SlotNode
	text string
}

// SlotCollector receives the slots rendered inside one composition body.
// It lives for a single render of that body.
type SlotCollector struct {
	singles []slotEntry
	arrays  []slotEntry
}

// NewSlotCollector creates an empty collector.
func NewSlotCollector() *SlotCollector {
	return &SlotCollector{}
}

func (c *SlotCollector) add(n *SlotNode, text string) {
	entry := slotEntry{node: n, text: text}
	if n.Kind == SlotArray {
		c.arrays = append(c.arrays, entry)
		return
	}
	c.singles = append(c.singles, entry)
}

// Len returns the number of collected slots.
func (c *SlotCollector) Len() int {
	return len(c.singles) + len(c.arrays)
}

// Merge folds the collected slots into kwargs. Single slots go first: a
// repeated single slot or one named like a keyword argument is an error.
// Array slots follow, each occurrence appending to a list. An array slot
// may extend a list started by an earlier array slot, but not a keyword
// argument or a single slot of the same name.
func (c *SlotCollector) Merge(kwargs *KeywordValues) error {
	singles := make(map[string]struct{}, len(c.singles))
	for _, e := range c.singles {
		name := e.node.Name
		if _, dup := singles[name]; dup {
			return NewCompositionError(ErrMsgSlotAlreadyDeclared, TagNameSlot, name, e.node.pos)
		}
		if kwargs.Has(name) {
			return NewCompositionError(ErrMsgSlotKeywordCollision, TagNameSlot, name, e.node.pos)
		}
		singles[name] = struct{}{}
		kwargs.Set(name, SafeString(e.text))
	}

	lists := make(map[string][]any)
	var order []string
	for _, e := range c.arrays {
		name := e.node.Name
		if _, single := singles[name]; single {
			return NewCompositionError(ErrMsgSlotKindCollision, TagNameSlotArray, name, e.node.pos)
		}
		if _, started := lists[name]; !started {
			if kwargs.Has(name) {
				return NewCompositionError(ErrMsgSlotKeywordCollision, TagNameSlotArray, name, e.node.pos)
			}
			order = append(order, name)
		}
		lists[name] = append(lists[name], SafeString(e.text))
	}
	for _, name := range order {
		kwargs.Set(name, lists[name])
	}
	return nil
}
