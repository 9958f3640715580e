package internal

import (
	"fmt"
	"strings"
)

// Position represents a location in the source template
type Position struct {
	Offset int // Byte offset from start
	Line   int // 1-indexed line number
	Column int // 1-indexed column number
}

// String returns a human-readable position string
func (p Position) String() string {
	return fmt.Sprintf("line %d, column %d", p.Line, p.Column)
}

// Token represents a lexical token produced by the lexer
type Token struct {
	Type     TokenType // The type of token
	Value    string    // Trimmed content between delimiters, or raw text
	Position Position  // Source position
}

// String returns a human-readable representation of the token
func (t Token) String() string {
	if t.Value == "" {
		return fmt.Sprintf("Token{%s @ %s}", t.Type, t.Position)
	}
	return fmt.Sprintf("Token{%s: %q @ %s}", t.Type, t.Value, t.Position)
}

// IsEOF returns true if this is an end-of-file token
func (t Token) IsEOF() bool {
	return t.Type == TokenTypeEOF
}

// IsBlock returns true if this is a block tag token
func (t Token) IsBlock() bool {
	return t.Type == TokenTypeBlock
}

// Command returns the first word of a block token, the tag name.
func (t Token) Command() string {
	if t.Type != TokenTypeBlock {
		return StringValueEmpty
	}
	bits := t.SplitContents()
	if len(bits) == 0 {
		return StringValueEmpty
	}
	return bits[0]
}

// SplitContents splits the token value on whitespace. Quoted strings and
// bracketed groups are kept together, so `title="Hi there"` and
// `["a.html", "b.html"]` stay single bits.
func (t Token) SplitContents() []string {
	return splitContents(t.Value)
}

func splitContents(s string) []string {
	var bits []string
	var sb strings.Builder
	var quote byte
	depth := 0

	flush := func() {
		if sb.Len() > 0 {
			bits = append(bits, sb.String())
			sb.Reset()
		}
	}

	for i := 0; i < len(s); i++ {
		ch := s[i]

		if quote != 0 {
			sb.WriteByte(ch)
			if ch == CharBackslash && i+1 < len(s) {
				i++
				sb.WriteByte(s[i])
				continue
			}
			if ch == quote {
				quote = 0
			}
			continue
		}

		switch {
		case ch == CharDoubleQuote || ch == CharSingleQuote:
			quote = ch
			sb.WriteByte(ch)
		case ch == '[' || ch == '(' || ch == '{':
			depth++
			sb.WriteByte(ch)
		case ch == ']' || ch == ')' || ch == '}':
			if depth > 0 {
				depth--
			}
			sb.WriteByte(ch)
		case isSpace(ch) && depth == 0:
			flush()
		default:
			sb.WriteByte(ch)
		}
	}
	flush()

	return bits
}

// NewToken creates a new token with the given type, value, and position
func NewToken(tokenType TokenType, value string, pos Position) Token {
	return Token{
		Type:     tokenType,
		Value:    value,
		Position: pos,
	}
}

// NewEOFToken creates an EOF token at the given position
func NewEOFToken(pos Position) Token {
	return Token{
		Type:     TokenTypeEOF,
		Position: pos,
	}
}

// NewTextToken creates a text token with the given content
func NewTextToken(content string, pos Position) Token {
	return NewToken(TokenTypeText, content, pos)
}

func isSpace(ch byte) bool {
	return ch == CharSpace || ch == CharTab || ch == CharNewline || ch == CharCarriageRet
}

func isLetter(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

// IsIdentifier reports whether s is a valid variable name.
func IsIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if isLetter(ch) || ch == '_' || (i > 0 && isDigit(ch)) {
			continue
		}
		return false
	}
	return true
}
