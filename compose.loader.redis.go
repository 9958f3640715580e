package compose

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis loader error messages
const (
	ErrMsgRedisInvalidURL = "invalid redis URL"
)

const redisIndexSuffix = "index"

// RedisLoader keeps template sources in Redis string keys under a common
// prefix, plus a set of stored names under prefix + "index". The name
// "index" is therefore reserved.
type RedisLoader struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// RedisOption configures a RedisLoader.
type RedisOption func(*RedisLoader)

// WithRedisPrefix sets the key prefix.
// Default: "compose:template:"
func WithRedisPrefix(prefix string) RedisOption {
	return func(l *RedisLoader) {
		l.prefix = prefix
	}
}

// WithRedisTTL expires stored templates after ttl. Zero keeps them.
func WithRedisTTL(ttl time.Duration) RedisOption {
	return func(l *RedisLoader) {
		l.ttl = ttl
	}
}

type redisLoaderDriver struct{}

func init() {
	RegisterLoaderDriver(LoaderNameRedis, redisLoaderDriver{})
}

// Open parses a redis:// URL.
func (redisLoaderDriver) Open(connectionString string) (Loader, error) {
	opts, err := redis.ParseURL(connectionString)
	if err != nil {
		return nil, NewConfigError(ErrMsgRedisInvalidURL, err)
	}
	return NewRedisLoader(redis.NewClient(opts))
}

// NewRedisLoader creates a loader on an existing client.
func NewRedisLoader(client *redis.Client, opts ...RedisOption) (*RedisLoader, error) {
	if client == nil {
		return nil, NewConfigError(ErrMsgNilRedisClient, nil)
	}
	l := &RedisLoader{client: client, prefix: DefaultRedisPrefix}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

func (l *RedisLoader) key(name string) string {
	return l.prefix + name
}

func (l *RedisLoader) indexKey() string {
	return l.prefix + redisIndexSuffix
}

// Load returns the source stored for name.
func (l *RedisLoader) Load(ctx context.Context, name string) (string, error) {
	if name == redisIndexSuffix {
		return StringValueEmpty, NewTemplateNotFoundError(name)
	}
	source, err := l.client.Get(ctx, l.key(name)).Result()
	if errors.Is(err, redis.Nil) {
		return StringValueEmpty, NewTemplateNotFoundError(name)
	}
	if err != nil {
		return StringValueEmpty, NewLoaderError(LoaderNameRedis, name, err)
	}
	return source, nil
}

// Save stores source under name.
func (l *RedisLoader) Save(ctx context.Context, name, source string) error {
	if name == StringValueEmpty || name == redisIndexSuffix {
		return NewLoaderError(LoaderNameRedis, name, errors.New(ErrMsgInvalidTemplateName))
	}
	_, err := l.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, l.key(name), source, l.ttl)
		pipe.SAdd(ctx, l.indexKey(), name)
		return nil
	})
	if err != nil {
		return NewLoaderError(LoaderNameRedis, name, err)
	}
	return nil
}

// Delete removes name.
func (l *RedisLoader) Delete(ctx context.Context, name string) error {
	var del *redis.IntCmd
	_, err := l.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		del = pipe.Del(ctx, l.key(name))
		pipe.SRem(ctx, l.indexKey(), name)
		return nil
	})
	if err != nil {
		return NewLoaderError(LoaderNameRedis, name, err)
	}
	if del.Val() == 0 {
		return NewTemplateNotFoundError(name)
	}
	return nil
}

// List returns the stored template names, sorted. Names whose key expired
// are dropped from the index.
func (l *RedisLoader) List(ctx context.Context) ([]string, error) {
	members, err := l.client.SMembers(ctx, l.indexKey()).Result()
	if err != nil {
		return nil, NewLoaderError(LoaderNameRedis, StringValueEmpty, err)
	}

	names := make([]string, 0, len(members))
	for _, name := range members {
		n, err := l.client.Exists(ctx, l.key(name)).Result()
		if err != nil {
			return nil, NewLoaderError(LoaderNameRedis, name, err)
		}
		if n == 0 {
			l.client.SRem(ctx, l.indexKey(), name)
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// Close closes the underlying client.
func (l *RedisLoader) Close() error {
	return l.client.Close()
}

func (c Config) redisLoader() (*RedisLoader, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     c.Redis.Addr,
		Password: c.Redis.Password,
		DB:       c.Redis.DB,
	})
	prefix := c.Redis.Prefix
	if prefix == StringValueEmpty {
		prefix = DefaultRedisPrefix
	}
	return NewRedisLoader(client, WithRedisPrefix(prefix), WithRedisTTL(c.Redis.TTL))
}
