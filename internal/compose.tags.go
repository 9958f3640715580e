package internal

import (
	"sort"
	"sync"

	"go.uber.org/zap"
)

// TagCompiler turns a block token into a node. It may consume further
// tokens from the parser, e.g. a body up to its end tag.
type TagCompiler func(p *Parser, tok Token) (Node, error)

// TagLibrary manages tag compiler registration with first-come-wins
// semantics. It is safe for concurrent use.
type TagLibrary struct {
	compilers map[string]TagCompiler
	mu        sync.RWMutex
	logger    *zap.Logger
}

// NewTagLibrary creates an empty tag library.
func NewTagLibrary(logger *zap.Logger) *TagLibrary {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger.Debug(LogMsgTagLibraryCreated)
	return &TagLibrary{
		compilers: make(map[string]TagCompiler),
		logger:    logger,
	}
}

// Register adds a compiler under name.
// If the name is already taken, returns an error and keeps the existing one.
func (l *TagLibrary) Register(name string, compiler TagCompiler) error {
	if compiler == nil {
		return NewRegistryError(ErrMsgNilCompiler, name)
	}
	if name == StringValueEmpty {
		return NewRegistryError(ErrMsgEmptyTagName, StringValueEmpty)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, exists := l.compilers[name]; exists {
		l.logger.Warn(LogMsgTagCollision, zap.String(LogFieldTag, name))
		return NewRegistryError(ErrMsgTagAlreadyExists, name)
	}

	l.compilers[name] = compiler
	l.logger.Debug(LogMsgTagRegistered, zap.String(LogFieldTag, name))
	return nil
}

// MustRegister adds a compiler and panics if registration fails.
// Use this for built-in tags that must always be available.
func (l *TagLibrary) MustRegister(name string, compiler TagCompiler) {
	if err := l.Register(name, compiler); err != nil {
		panic(err)
	}
}

// Get retrieves a compiler by tag name.
func (l *TagLibrary) Get(name string) (TagCompiler, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	compiler, ok := l.compilers[name]
	return compiler, ok
}

// Has checks if a compiler is registered for the given tag name.
func (l *TagLibrary) Has(name string) bool {
	_, ok := l.Get(name)
	return ok
}

// List returns all registered tag names in sorted order.
func (l *TagLibrary) List() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()

	names := make([]string, 0, len(l.compilers))
	for name := range l.compilers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Count returns the number of registered tags.
func (l *TagLibrary) Count() int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return len(l.compilers)
}

// RegisterBuiltins registers the built-in tags.
func RegisterBuiltins(l *TagLibrary) {
	l.MustRegister(TagNameCompose, CompileCompose)
	l.MustRegister(TagNameSlot, CompileSlot)
	l.MustRegister(TagNameSlotArray, CompileSlot)
	l.MustRegister(TagNameDefine, CompileDefine)
	l.MustRegister(TagNameIf, CompileIf)
	l.MustRegister(TagNameFor, CompileFor)
	l.MustRegister(TagNameWith, CompileWith)
	l.MustRegister(TagNameInclude, CompileInclude)
	l.MustRegister(TagNameComment, CompileComment)
}
