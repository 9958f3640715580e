package compose

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultPostgresConfig(t *testing.T) {
	config := DefaultPostgresConfig()

	assert.Equal(t, DefaultPostgresMaxOpenConns, config.MaxOpenConns)
	assert.Equal(t, DefaultPostgresMaxIdleConns, config.MaxIdleConns)
	assert.Equal(t, DefaultPostgresConnMaxLifetime, config.ConnMaxLifetime)
	assert.Equal(t, DefaultPostgresConnMaxIdleTime, config.ConnMaxIdleTime)
	assert.Equal(t, DefaultPostgresTablePrefix, config.TablePrefix)
	assert.Equal(t, DefaultPostgresQueryTimeout, config.QueryTimeout)
	assert.False(t, config.AutoMigrate)
}

func TestNewPostgresLoader_EmptyDSN(t *testing.T) {
	_, err := NewPostgresLoader(PostgresConfig{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), ErrMsgEmptyDSN)
}

func TestPostgresLoader_Migrations(t *testing.T) {
	loader := &PostgresLoader{config: PostgresConfig{TablePrefix: "site_"}}

	assert.Equal(t, "site_templates", loader.tableName())
	assert.Equal(t, "site_schema_migrations", loader.migrationsTableName())

	migrations := loader.migrations()
	require.NotEmpty(t, migrations)
	for i, m := range migrations {
		assert.Equal(t, i+1, m.Version)
		assert.Contains(t, m.SQL, "site_templates")
	}
}
