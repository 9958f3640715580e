package compose

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/itsatony/go-cuserr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseConfig(t *testing.T) {
	cfg, err := ParseConfig([]byte(`
template_dirs: [templates, shared]
max_depth: 10
log_level: debug
listen: ":9000"
read_timeout: 5s
redis:
  addr: localhost:6379
  ttl: 1m
postgres:
  dsn: postgres://u:p@localhost/db
  auto_migrate: true
  query_timeout: 3s
`))
	require.NoError(t, err)

	assert.Equal(t, []string{"templates", "shared"}, cfg.TemplateDirs)
	assert.Equal(t, 10, cfg.MaxDepth)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, ":9000", cfg.Listen)
	assert.Equal(t, 5*time.Second, cfg.ReadTimeout)
	assert.Equal(t, DefaultWriteTimeout, cfg.WriteTimeout)
	assert.Equal(t, DefaultCSRFHeader, cfg.CSRFHeader)
	assert.True(t, cfg.TemplateCache)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, DefaultRedisPrefix, cfg.Redis.Prefix)
	assert.Equal(t, time.Minute, cfg.Redis.TTL)
	assert.Equal(t, "postgres://u:p@localhost/db", cfg.Postgres.ConnectionString)
	assert.True(t, cfg.Postgres.AutoMigrate)
	assert.Equal(t, 3*time.Second, cfg.Postgres.QueryTimeout)
	assert.Equal(t, DefaultPostgresTablePrefix, cfg.Postgres.TablePrefix)
}

func TestParseConfig_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "invalid yaml", input: "template_dirs: [unclosed"},
		{name: "unknown key", input: "templates: x"},
		{name: "bad duration", input: "read_timeout: soon"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseConfig([]byte(tt.input))
			require.Error(t, err)
			var customErr *cuserr.CustomError
			assert.ErrorAs(t, err, &customErr)
		})
	}
}

func TestParseConfig_Empty(t *testing.T) {
	cfg, err := ParseConfig(nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "compose.yaml")
	require.NoError(t, os.WriteFile(path, []byte("max_depth: 7\n"), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.MaxDepth)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	var customErr *cuserr.CustomError
	require.ErrorAs(t, err, &customErr)
	p, ok := customErr.GetMetadata(MetaKeyPath)
	assert.True(t, ok)
	assert.Contains(t, p, "missing.yaml")
}

func TestConfig_NewLogger(t *testing.T) {
	cfg := DefaultConfig()
	logger, err := cfg.NewLogger()
	require.NoError(t, err)
	assert.NotNil(t, logger)

	cfg.LogLevel = "loud"
	_, err = cfg.NewLogger()
	assert.Error(t, err)
}

func TestNewEngineFromConfig(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "page.html"),
		[]byte(`{% compose "card.html" title="T" %}x{% endcompose %}`), 0o644))

	mr := miniredis.RunT(t)
	require.NoError(t, mr.Set(DefaultRedisPrefix+"card.html", `{{ title }}:{{ children }}`))

	cfg := DefaultConfig()
	cfg.TemplateDirs = []string{dir}
	cfg.Redis.Addr = mr.Addr()

	engine, closeFn, err := NewEngineFromConfig(cfg)
	require.NoError(t, err)
	defer func() { assert.NoError(t, closeFn()) }()

	out, err := engine.Render(context.Background(), "page.html", nil)
	require.NoError(t, err)
	assert.Equal(t, "T:x", out)
}
