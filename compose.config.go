package compose

import (
	"os"
	"time"

	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Config is the file-based configuration of the CLI and the HTTP server.
//
//	template_dirs: [templates, shared]
//	max_depth: 50
//	log_level: debug
//	listen: ":8080"
//	csrf_header: X-CSRF-Token
//	redis:
//	  addr: localhost:6379
//	  prefix: "site:tpl:"
//	postgres:
//	  dsn: postgres://user:pw@localhost/db?sslmode=disable
//	  auto_migrate: true
type Config struct {
	TemplateDirs  []string       `mapstructure:"template_dirs"`
	MaxDepth      int            `mapstructure:"max_depth"`
	LogLevel      string         `mapstructure:"log_level"`
	Listen        string         `mapstructure:"listen"`
	CSRFHeader    string         `mapstructure:"csrf_header"`
	TemplateCache bool           `mapstructure:"template_cache"`
	ReadTimeout   time.Duration  `mapstructure:"read_timeout"`
	WriteTimeout  time.Duration  `mapstructure:"write_timeout"`
	Redis         RedisConfig    `mapstructure:"redis"`
	Postgres      PostgresConfig `mapstructure:"postgres"`
}

// RedisConfig configures the optional Redis loader.
type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Prefix   string        `mapstructure:"prefix"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// DefaultConfig returns the configuration used for keys a file omits.
func DefaultConfig() Config {
	return Config{
		MaxDepth:      DefaultMaxDepth,
		LogLevel:      DefaultLogLevel,
		Listen:        DefaultListenAddr,
		CSRFHeader:    DefaultCSRFHeader,
		TemplateCache: true,
		ReadTimeout:   DefaultReadTimeout,
		WriteTimeout:  DefaultWriteTimeout,
		Redis:         RedisConfig{Prefix: DefaultRedisPrefix},
		Postgres:      DefaultPostgresConfig(),
	}
}

// LoadConfig reads a YAML configuration file.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, NewConfigError(ErrMsgConfigReadFailed, err).WithMetadata(MetaKeyPath, path)
	}
	return ParseConfig(data)
}

// ParseConfig decodes YAML configuration on top of DefaultConfig.
// Durations are written as Go duration strings ("30s").
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return Config{}, NewConfigError(ErrMsgConfigDecodeFailed, err)
	}
	if raw == nil {
		return cfg, nil
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           &cfg,
	})
	if err != nil {
		return Config{}, NewConfigError(ErrMsgConfigDecodeFailed, err)
	}
	if err := decoder.Decode(raw); err != nil {
		return Config{}, NewConfigError(ErrMsgConfigDecodeFailed, err)
	}
	return cfg, nil
}

// NewLogger builds a production zap logger at the configured level.
func (c Config) NewLogger() (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(c.LogLevel)
	if err != nil {
		return nil, NewConfigError(ErrMsgInvalidLogLevel, err).WithMetadata(MetaKeyValue, c.LogLevel)
	}
	zc := zap.NewProductionConfig()
	zc.Level = level
	return zc.Build()
}

// Loaders opens the configured loaders in lookup order: template
// directories, then Redis, then PostgreSQL.
func (c Config) Loaders() (ChainLoader, error) {
	var chain ChainLoader
	for _, dir := range c.TemplateDirs {
		chain = append(chain, NewFilesystemLoader(dir))
	}
	if c.Redis.Addr != StringValueEmpty {
		rl, err := c.redisLoader()
		if err != nil {
			_ = chain.Close()
			return nil, err
		}
		chain = append(chain, rl)
	}
	if c.Postgres.ConnectionString != StringValueEmpty {
		pl, err := NewPostgresLoader(c.Postgres)
		if err != nil {
			_ = chain.Close()
			return nil, err
		}
		chain = append(chain, pl)
	}
	return chain, nil
}

// NewEngineFromConfig builds an engine reading from the configured
// loaders. The returned close function releases backend connections.
func NewEngineFromConfig(cfg Config, opts ...Option) (*Engine, func() error, error) {
	chain, err := cfg.Loaders()
	if err != nil {
		return nil, nil, err
	}
	base := []Option{
		WithLoader(chain),
		WithMaxDepth(cfg.MaxDepth),
		WithTemplateCache(cfg.TemplateCache),
	}
	engine, err := New(append(base, opts...)...)
	if err != nil {
		_ = chain.Close()
		return nil, nil, err
	}
	return engine, chain.Close, nil
}
