package compose

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"sort"
	"strings"
	"sync"
)

// Loader fetches template sources by name. Implementations return an
// error matching ErrTemplateNotFound when name does not exist.
type Loader interface {
	Load(ctx context.Context, name string) (string, error)
}

// LoaderDriver opens a Loader from a connection string.
type LoaderDriver interface {
	Open(connectionString string) (Loader, error)
}

// Loader error message constants
const (
	ErrMsgNilLoaderDriver         = "loader driver is nil"
	ErrMsgDriverAlreadyRegistered = "loader driver already registered"
	ErrMsgLoaderDriverNotFound    = "loader driver not found"
)

var (
	loaderDriversMu sync.RWMutex
	loaderDrivers   = make(map[string]LoaderDriver)
)

func init() {
	RegisterLoaderDriver(LoaderNameMemory, memoryLoaderDriver{})
	RegisterLoaderDriver(LoaderNameFilesystem, filesystemLoaderDriver{})
}

// RegisterLoaderDriver registers a loader driver by name.
// Panics if a driver with the same name is already registered.
func RegisterLoaderDriver(name string, driver LoaderDriver) {
	loaderDriversMu.Lock()
	defer loaderDriversMu.Unlock()

	if driver == nil {
		panic(ErrMsgNilLoaderDriver)
	}
	if _, exists := loaderDrivers[name]; exists {
		panic(ErrMsgDriverAlreadyRegistered + ": " + name)
	}
	loaderDrivers[name] = driver
}

// OpenLoader opens a loader using the named driver.
//
//	loader, err := compose.OpenLoader("filesystem", "./templates")
//	loader, err := compose.OpenLoader("postgres", "postgres://...")
//	loader, err := compose.OpenLoader("redis", "redis://localhost:6379/0")
func OpenLoader(driverName, connectionString string) (Loader, error) {
	loaderDriversMu.RLock()
	driver, ok := loaderDrivers[driverName]
	loaderDriversMu.RUnlock()

	if !ok {
		return nil, NewConfigError(ErrMsgLoaderDriverNotFound, nil).WithMetadata(MetaKeyLoader, driverName)
	}
	return driver.Open(connectionString)
}

// ListLoaderDrivers returns the registered driver names, sorted.
func ListLoaderDrivers() []string {
	loaderDriversMu.RLock()
	defer loaderDriversMu.RUnlock()

	names := make([]string, 0, len(loaderDrivers))
	for name := range loaderDrivers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// MemoryLoader serves templates from a map. It is safe for concurrent use.
type MemoryLoader struct {
	mu        sync.RWMutex
	templates map[string]string
}

type memoryLoaderDriver struct{}

func (memoryLoaderDriver) Open(_ string) (Loader, error) {
	return NewMemoryLoader(nil), nil
}

// NewMemoryLoader creates a loader holding a copy of templates.
func NewMemoryLoader(templates map[string]string) *MemoryLoader {
	m := &MemoryLoader{templates: make(map[string]string, len(templates))}
	for name, source := range templates {
		m.templates[name] = source
	}
	return m
}

// Load returns the source of name.
func (m *MemoryLoader) Load(ctx context.Context, name string) (string, error) {
	if err := ctx.Err(); err != nil {
		return StringValueEmpty, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	source, ok := m.templates[name]
	if !ok {
		return StringValueEmpty, NewTemplateNotFoundError(name)
	}
	return source, nil
}

// Set adds or replaces a template.
func (m *MemoryLoader) Set(name, source string) {
	m.mu.Lock()
	m.templates[name] = source
	m.mu.Unlock()
}

// Delete removes a template.
func (m *MemoryLoader) Delete(name string) {
	m.mu.Lock()
	delete(m.templates, name)
	m.mu.Unlock()
}

// Names returns the stored template names, sorted.
func (m *MemoryLoader) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.templates))
	for name := range m.templates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// FilesystemLoader reads templates from an fs.FS. Names are slash
// separated paths relative to the root; names that are not valid fs paths
// (absolute, or containing "..") are never found.
type FilesystemLoader struct {
	fsys fs.FS
}

type filesystemLoaderDriver struct{}

func (filesystemLoaderDriver) Open(connectionString string) (Loader, error) {
	if connectionString == StringValueEmpty {
		return nil, NewConfigError(ErrMsgEmptyDirectory, nil)
	}
	return NewFilesystemLoader(connectionString), nil
}

// NewFilesystemLoader reads templates below dir.
func NewFilesystemLoader(dir string) *FilesystemLoader {
	return &FilesystemLoader{fsys: os.DirFS(dir)}
}

// NewFSLoader reads templates from fsys, for example an embed.FS.
func NewFSLoader(fsys fs.FS) *FilesystemLoader {
	return &FilesystemLoader{fsys: fsys}
}

// Load reads name from the file system.
func (l *FilesystemLoader) Load(ctx context.Context, name string) (string, error) {
	if err := ctx.Err(); err != nil {
		return StringValueEmpty, err
	}
	name = strings.TrimPrefix(name, "/")
	if !fs.ValidPath(name) {
		return StringValueEmpty, NewTemplateNotFoundError(name)
	}

	data, err := fs.ReadFile(l.fsys, name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrInvalid) {
			return StringValueEmpty, NewTemplateNotFoundError(name)
		}
		return StringValueEmpty, NewLoaderError(LoaderNameFilesystem, name, err)
	}
	return string(data), nil
}

// Names lists every regular file below the root, sorted.
func (l *FilesystemLoader) Names() ([]string, error) {
	var names []string
	err := fs.WalkDir(l.fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() {
			names = append(names, p)
		}
		return nil
	})
	if err != nil {
		return nil, NewLoaderError(LoaderNameFilesystem, ".", err)
	}
	return names, nil
}

// ChainLoader tries each loader in order and returns the first template
// found. A failure other than not-found stops the chain.
type ChainLoader []Loader

// Load implements Loader.
func (c ChainLoader) Load(ctx context.Context, name string) (string, error) {
	for _, l := range c {
		source, err := l.Load(ctx, name)
		if err == nil {
			return source, nil
		}
		if !errors.Is(err, ErrTemplateNotFound) {
			return StringValueEmpty, err
		}
	}
	return StringValueEmpty, NewTemplateNotFoundError(name)
}

// Close closes every loader in the chain that implements io.Closer and
// returns the joined errors.
func (c ChainLoader) Close() error {
	var errs []error
	for _, l := range c {
		if closer, ok := l.(io.Closer); ok {
			if err := closer.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}
