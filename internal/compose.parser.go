package internal

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// Parser compiles a token stream into a node list. Block tags are handed
// to the compilers registered in the tag library.
type Parser struct {
	tokens  []Token
	pos     int
	library *TagLibrary
	origin  string
	logger  *zap.Logger
}

// NewParser creates a parser for tokens. origin is the name of the
// template being parsed; relative template names are resolved against it.
func NewParser(tokens []Token, library *TagLibrary, origin string, logger *zap.Logger) *Parser {
	if logger == nil {
		logger = zap.NewNop()
	}
	if library == nil {
		library = NewTagLibrary(logger)
	}
	logger.Debug(LogMsgParserCreated, zap.Int(LogFieldTokens, len(tokens)), zap.String(LogFieldOrigin, origin))
	return &Parser{
		tokens:  tokens,
		library: library,
		origin:  origin,
		logger:  logger,
	}
}

// Parse compiles the whole token stream.
func (p *Parser) Parse() (NodeList, error) {
	p.logger.Debug(LogMsgParserStart)

	nodes, err := p.parse(nil)
	if err != nil {
		return nil, err
	}

	p.logger.Debug(LogMsgParserEnd, zap.Int(LogFieldNodes, len(nodes)))
	return nodes, nil
}

// ParseUntil compiles nodes until a block tag whose name is one of
// endTags. The end tag is left in the stream; callers consume it with
// NextToken. Reaching the end of input first is a syntax error.
func (p *Parser) ParseUntil(endTags ...string) (NodeList, error) {
	return p.parse(endTags)
}

func (p *Parser) parse(endTags []string) (NodeList, error) {
	var nodes NodeList

	for {
		tok := p.current()

		switch tok.Type {
		case TokenTypeEOF:
			if len(endTags) > 0 {
				return nil, NewSyntaxErrorf(StringValueEmpty, tok.Position, ErrFmtUnclosed, ErrMsgUnclosedTag, endTags)
			}
			return nodes, nil

		case TokenTypeText:
			p.advance()
			nodes = append(nodes, NewTextNode(tok.Value, tok.Position))

		case TokenTypeComment:
			p.advance()

		case TokenTypeVar:
			p.advance()
			if tok.Value == StringValueEmpty {
				return nil, NewSyntaxError(ErrMsgEmptyVariable, StringValueEmpty, tok.Position)
			}
			e, err := p.CompileExpression(tok.Value, tok)
			if err != nil {
				return nil, err
			}
			nodes = append(nodes, NewVariableNode(e, tok.Position))

		case TokenTypeBlock:
			command := tok.Command()
			if command == StringValueEmpty {
				return nil, NewSyntaxError(ErrMsgEmptyBlock, StringValueEmpty, tok.Position)
			}
			if containsString(endTags, command) {
				return nodes, nil
			}
			p.advance()

			node, err := p.compileTag(command, tok, endTags)
			if err != nil {
				return nil, err
			}
			if node != nil {
				nodes = append(nodes, node)
			}

		default:
			return nil, NewSyntaxError(ErrMsgUnexpectedToken, StringValueEmpty, tok.Position)
		}
	}
}

// compileTag dispatches a block token to its compiler
func (p *Parser) compileTag(command string, tok Token, endTags []string) (Node, error) {
	compiler, ok := p.library.Get(command)
	if !ok {
		return nil, p.newUnknownTagError(command, tok, endTags)
	}

	node, err := compiler(p, tok)
	if err != nil {
		var syntaxErr *SyntaxError
		if errors.As(err, &syntaxErr) {
			return nil, err
		}
		return nil, &SyntaxError{
			Message:  ErrMsgInvalidTagArguments,
			TagName:  command,
			Position: tok.Position,
			Cause:    err,
		}
	}
	if node != nil {
		p.logger.Debug(LogMsgTagCompiled, zap.String(LogFieldTag, command))
	}
	return node, nil
}

func (p *Parser) newUnknownTagError(command string, tok Token, endTags []string) error {
	message := ErrMsgUnknownTag
	if strings.HasPrefix(command, TagEndPrefix) || isIntermediateTag(command) {
		message = ErrMsgUnexpectedEndTag
	}
	if len(endTags) > 0 {
		message = fmt.Sprintf(ErrFmtExpected, message, endTags)
	}

	candidates := append(p.library.List(), endTags...)
	return &SyntaxError{
		Message:     message,
		TagName:     command,
		Position:    tok.Position,
		Suggestions: SuggestTags(command, candidates, DefaultMaxSuggestions),
	}
}

// NextToken consumes and returns the current token.
func (p *Parser) NextToken() Token {
	return p.advance()
}

// SkipPast discards tokens up to and including the block tag endTag.
func (p *Parser) SkipPast(endTag string) error {
	for {
		tok := p.current()
		if tok.IsEOF() {
			return NewSyntaxErrorf(StringValueEmpty, tok.Position, ErrFmtUnclosed, ErrMsgUnclosedTag, []string{endTag})
		}
		p.advance()
		if tok.IsBlock() && tok.Command() == endTag {
			return nil
		}
	}
}

// CompileExpression compiles an expression found in tok, reporting
// failures as syntax errors.
func (p *Parser) CompileExpression(source string, tok Token) (*Expression, error) {
	e, err := CompileExpression(source)
	if err != nil {
		return nil, &SyntaxError{
			Message:  ErrMsgInvalidExpression,
			TagName:  tok.Command(),
			Position: tok.Position,
			Cause:    err,
		}
	}
	return e, nil
}

// Origin returns the name of the template being parsed.
func (p *Parser) Origin() string {
	return p.origin
}

// Logger returns the parser's logger.
func (p *Parser) Logger() *zap.Logger {
	return p.logger
}

// Helper methods

// current returns the current token
func (p *Parser) current() Token {
	if p.pos >= len(p.tokens) {
		return Token{Type: TokenTypeEOF}
	}
	return p.tokens[p.pos]
}

// advance consumes and returns the current token
func (p *Parser) advance() Token {
	tok := p.current()
	if p.pos < len(p.tokens) {
		p.pos++
	}
	return tok
}

func isIntermediateTag(command string) bool {
	return command == TagNameElse || command == TagNameElif || command == TagNameEmpty
}

func containsString(slice []string, s string) bool {
	for _, item := range slice {
		if item == s {
			return true
		}
	}
	return false
}

// SplitKeyword splits a `name=expression` bit. ok is false when bit is not
// a keyword argument; `a==b` is an expression, not a keyword.
func SplitKeyword(bit string) (name, value string, ok bool) {
	idx := strings.IndexByte(bit, CharEquals)
	if idx <= 0 || idx == len(bit)-1 {
		return StringValueEmpty, StringValueEmpty, false
	}
	if bit[idx+1] == CharEquals {
		return StringValueEmpty, StringValueEmpty, false
	}
	name = bit[:idx]
	if !IsIdentifier(name) {
		return StringValueEmpty, StringValueEmpty, false
	}
	return name, bit[idx+1:], true
}

// KeywordArg is a keyword argument expression in declaration order.
type KeywordArg struct {
	Name string
	Expr *Expression
}

// Parser error formats
const (
	ErrFmtUnclosed            = "%s %v"
	ErrFmtExpected            = "%s, expected one of %v"
	ErrMsgInvalidTagArguments = "invalid tag arguments"
)
