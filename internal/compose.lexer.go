package internal

import (
	"strings"

	"go.uber.org/zap"
)

// LexerConfig holds lexer configuration
type LexerConfig struct {
	VarOpen      string // Opening variable delimiter (default: "{{")
	VarClose     string // Closing variable delimiter (default: "}}")
	BlockOpen    string // Opening block delimiter (default: "{%")
	BlockClose   string // Closing block delimiter (default: "%}")
	CommentOpen  string // Opening comment delimiter (default: "{#")
	CommentClose string // Closing comment delimiter (default: "#}")
}

// DefaultLexerConfig returns the default lexer configuration
func DefaultLexerConfig() LexerConfig {
	return LexerConfig{
		VarOpen:      StrVarOpen,
		VarClose:     StrVarClose,
		BlockOpen:    StrBlockOpen,
		BlockClose:   StrBlockClose,
		CommentOpen:  StrCommentOpen,
		CommentClose: StrCommentClose,
	}
}

// Lexer tokenizes template source into a token stream
type Lexer struct {
	source string
	config LexerConfig
	pos    int // Current byte position
	line   int // Current line (1-indexed)
	column int // Current column (1-indexed)
	logger *zap.Logger
}

// NewLexer creates a new lexer with default configuration
func NewLexer(source string, logger *zap.Logger) *Lexer {
	return NewLexerWithConfig(source, DefaultLexerConfig(), logger)
}

// NewLexerWithConfig creates a lexer with custom configuration
func NewLexerWithConfig(source string, config LexerConfig, logger *zap.Logger) *Lexer {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger.Debug(LogMsgLexerCreated, zap.Int(LogFieldSource, len(source)))
	return &Lexer{
		source: source,
		config: config,
		line:   1,
		column: 1,
		logger: logger,
	}
}

// Tokenize processes the source and returns a token stream
func (l *Lexer) Tokenize() ([]Token, error) {
	l.logger.Debug(LogMsgTokenizerStart)
	var tokens []Token

	for !l.isAtEnd() {
		tokenType, open, close, ok := l.matchOpen()
		if !ok {
			tokens = append(tokens, l.scanText())
			continue
		}

		tok, err := l.scanTag(tokenType, open, close)
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, tok)
	}

	tokens = append(tokens, NewEOFToken(l.currentPosition()))
	l.logger.Debug(LogMsgTokenizerEnd, zap.Int(LogFieldTokens, len(tokens)))
	return tokens, nil
}

// matchOpen reports which tag kind starts at the current position
func (l *Lexer) matchOpen() (TokenType, string, string, bool) {
	switch {
	case l.matchStr(l.config.VarOpen):
		return TokenTypeVar, l.config.VarOpen, l.config.VarClose, true
	case l.matchStr(l.config.BlockOpen):
		return TokenTypeBlock, l.config.BlockOpen, l.config.BlockClose, true
	case l.matchStr(l.config.CommentOpen):
		return TokenTypeComment, l.config.CommentOpen, l.config.CommentClose, true
	default:
		return TokenTypeText, "", "", false
	}
}

// scanText scans text content until the next opening delimiter
func (l *Lexer) scanText() Token {
	startPos := l.currentPosition()
	var sb strings.Builder

	for !l.isAtEnd() {
		if _, _, _, ok := l.matchOpen(); ok {
			break
		}
		sb.WriteByte(l.advance())
	}

	return NewTextToken(sb.String(), startPos)
}

// scanTag scans a delimited tag and returns its trimmed content
func (l *Lexer) scanTag(tokenType TokenType, open, close string) (Token, error) {
	startPos := l.currentPosition()
	l.advanceN(len(open))

	end := strings.Index(l.source[l.pos:], close)
	if end < 0 {
		return Token{}, &LexerError{Message: ErrMsgUnterminatedTag, Position: startPos}
	}

	content := l.source[l.pos : l.pos+end]
	l.advanceN(end + len(close))

	return NewToken(tokenType, strings.TrimSpace(content), startPos), nil
}

// Helper methods

// currentPosition returns the current position
func (l *Lexer) currentPosition() Position {
	return Position{
		Offset: l.pos,
		Line:   l.line,
		Column: l.column,
	}
}

// isAtEnd returns true if we've reached the end of source
func (l *Lexer) isAtEnd() bool {
	return l.pos >= len(l.source)
}

// advance consumes and returns the current character
func (l *Lexer) advance() byte {
	if l.isAtEnd() {
		return 0
	}
	ch := l.source[l.pos]
	l.pos++
	if ch == CharNewline {
		l.line++
		l.column = 1
	} else {
		l.column++
	}
	return ch
}

// advanceN advances by n characters
func (l *Lexer) advanceN(n int) {
	for i := 0; i < n && !l.isAtEnd(); i++ {
		l.advance()
	}
}

// matchStr returns true if the remaining source starts with s
func (l *Lexer) matchStr(s string) bool {
	return s != "" && strings.HasPrefix(l.source[l.pos:], s)
}

// LexerError represents a lexer error with position
type LexerError struct {
	Message  string
	Position Position
}

func (e *LexerError) Error() string {
	return e.Message + " at " + e.Position.String()
}

// Error message constants for lexer
const (
	ErrMsgUnterminatedTag = "unterminated tag"
)
