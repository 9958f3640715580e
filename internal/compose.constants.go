package internal

// TokenType represents the type of a lexical token
type TokenType string

// Token type constants
const (
	TokenTypeText    TokenType = "TEXT"
	TokenTypeVar     TokenType = "VAR"
	TokenTypeBlock   TokenType = "BLOCK"
	TokenTypeComment TokenType = "COMMENT"
	TokenTypeEOF     TokenType = "EOF"
)

// NodeType identifies AST node types
type NodeType int

// Node type constants
const (
	NodeTypeText NodeType = iota
	NodeTypeVariable
	NodeTypeIf
	NodeTypeFor
	NodeTypeWith
	NodeTypeInclude
	NodeTypeCompose
	NodeTypeSlot
	NodeTypeDefine
	NodeTypeCustom
)

// Node type string names for debugging
const (
	NodeTypeNameText     = "TEXT"
	NodeTypeNameVariable = "VARIABLE"
	NodeTypeNameIf       = "IF"
	NodeTypeNameFor      = "FOR"
	NodeTypeNameWith     = "WITH"
	NodeTypeNameInclude  = "INCLUDE"
	NodeTypeNameCompose  = "COMPOSE"
	NodeTypeNameSlot     = "SLOT"
	NodeTypeNameDefine   = "DEFINE"
	NodeTypeNameCustom   = "CUSTOM"
)

// String returns the string representation of the node type
func (n NodeType) String() string {
	switch n {
	case NodeTypeText:
		return NodeTypeNameText
	case NodeTypeVariable:
		return NodeTypeNameVariable
	case NodeTypeIf:
		return NodeTypeNameIf
	case NodeTypeFor:
		return NodeTypeNameFor
	case NodeTypeWith:
		return NodeTypeNameWith
	case NodeTypeInclude:
		return NodeTypeNameInclude
	case NodeTypeCompose:
		return NodeTypeNameCompose
	case NodeTypeSlot:
		return NodeTypeNameSlot
	case NodeTypeDefine:
		return NodeTypeNameDefine
	default:
		return NodeTypeNameCustom
	}
}

// Character constants
const (
	CharEquals      = '='
	CharDoubleQuote = '"'
	CharSingleQuote = '\''
	CharBackslash   = '\\'
	CharComma       = ','
	CharNewline     = '\n'
	CharSpace       = ' '
	CharTab         = '\t'
	CharCarriageRet = '\r'
)

// Default delimiters
const (
	StrVarOpen      = "{{"
	StrVarClose     = "}}"
	StrBlockOpen    = "{%"
	StrBlockClose   = "%}"
	StrCommentOpen  = "{#"
	StrCommentClose = "#}"
)

// Built-in tag names
const (
	TagNameCompose    = "compose"
	TagNameSlot       = "slot"
	TagNameSlotArray  = "slot[]"
	TagNameDefine     = "define"
	TagNameIf         = "if"
	TagNameElif       = "elif"
	TagNameElse       = "else"
	TagNameFor        = "for"
	TagNameEmpty      = "empty"
	TagNameWith       = "with"
	TagNameInclude    = "include"
	TagNameComment    = "comment"
	TagEndPrefix      = "end"
	TagNameEndCompose = TagEndPrefix + TagNameCompose
	TagNameEndSlot    = TagEndPrefix + TagNameSlot
	TagNameEndDefine  = TagEndPrefix + TagNameDefine
	TagNameEndIf      = TagEndPrefix + TagNameIf
	TagNameEndFor     = TagEndPrefix + TagNameFor
	TagNameEndWith    = TagEndPrefix + TagNameWith
	TagNameEndComment = TagEndPrefix + TagNameComment
)

// Reserved argument and scope keys
const (
	KeyChildren     = "children"
	KeyContext      = "context"
	KeyTakesContext = "takes_context"
	KeyCSRFToken    = "csrf_token"
	KeyForLoop      = "forloop"
	KeyOnly         = "only"
	KeyIn           = "in"
	KeyReversed     = "reversed"
	KeyDefaultArgs  = "args"
	KeyDefaultKw    = "kwargs"
)

// forloop attribute keys
const (
	ForLoopCounter   = "counter"
	ForLoopCounter0  = "counter0"
	ForLoopRevCount  = "revcounter"
	ForLoopFirst     = "first"
	ForLoopLast      = "last"
	ForLoopLength    = "length"
	ForLoopParentKey = "parentloop"
)

// Literal names always visible to expressions
const (
	LiteralTrue  = "True"
	LiteralFalse = "False"
	LiteralNone  = "None"
)

// Expression helper function names
const (
	FuncSanitize = "sanitize"
	FuncSafe     = "safe"
	FuncEscape   = "escape"
)

// Relative template name prefixes
const (
	RelPrefixCurrent = "./"
	RelPrefixParent  = "../"
	PathParent       = ".."
)

// Defaults
const (
	DefaultMaxDepth       = 100
	DefaultMaxSuggestions = 3
	TemplateCacheKeySep   = "\x00"
)

// Log message constants
const (
	LogMsgLexerCreated       = "lexer created"
	LogMsgTokenizerStart     = "starting tokenization"
	LogMsgTokenizerEnd       = "tokenization complete"
	LogMsgParserCreated      = "parser created"
	LogMsgParserStart        = "starting parse"
	LogMsgParserEnd          = "parse complete"
	LogMsgTagCompiled        = "tag compiled"
	LogMsgTagLibraryCreated  = "tag library created"
	LogMsgTagRegistered      = "tag registered"
	LogMsgTagCollision       = "tag registration collision - first-come-wins"
	LogMsgComposeRender      = "rendering composition"
	LogMsgTemplateSelected   = "template selected"
	LogMsgTemplateCacheHit   = "template selection cache hit"
	LogMsgSlotCollected      = "slot collected"
	LogMsgDefineBound        = "define bound"
	LogMsgCompositionBinding = "binding composition arguments"
)

// Log field names
const (
	LogFieldSource       = "source_length"
	LogFieldTokens       = "token_count"
	LogFieldNodes        = "node_count"
	LogFieldTag          = "tag"
	LogFieldTemplateName = "template_name"
	LogFieldTemplates    = "template_names"
	LogFieldOrigin       = "origin"
	LogFieldDepth        = "depth"
	LogFieldSlot         = "slot"
	LogFieldSlotKind     = "slot_kind"
	LogFieldSlotCount    = "slot_count"
	LogFieldName         = "name"
	LogFieldExisting     = "existing"
	LogFieldTakesContext = "takes_context"
)

// Error format string constants (for Error() methods)
const (
	ErrFmtWithPosition       = "%s at %s"
	ErrFmtWithTagAndPosition = "%s [%s] at %s"
	ErrFmtWithCause          = "%s: %v"
	ErrFmtTagMessage         = "%s: %s"
)

// String format constants for AST String() methods
const (
	MaxStringDisplayLength = 40
	TruncatedStringLength  = 37
	TruncationSuffix       = "..."
	StringValueEmpty       = ""
)
