package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultsMatchComposeEnvironment(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "postgres", cfg.Postgres.Host)
	assert.Equal(t, 5432, cfg.Postgres.Port)
	assert.Equal(t, 8812, cfg.QuestDB.Port)
	assert.Equal(t, "kafka:9092", cfg.Kafka.BootstrapServers)
	assert.Equal(t, "http://debezium:8083/connectors", cfg.Debezium.ConnectorURL)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fixtures.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
postgres:
  host: localhost
  port: 15432
  database: tests
  user: user
  password: password
kafka:
  bootstrapServers: localhost:19092
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "localhost", cfg.Postgres.Host)
	assert.Equal(t, 15432, cfg.Postgres.Port)
	assert.Equal(t, "localhost:19092", cfg.Kafka.BootstrapServers)
	// Untouched sections keep their defaults.
	assert.Equal(t, "mysql", cfg.MySQL.Host)
	assert.Equal(t, "mongodb:27017", cfg.MongoDB.HostWithPort)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("/does/not/exist.yaml")
	assert.Error(t, err)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestSettingsAdapters(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "mongodb://mongodb:27017/?replicaSet=rs0", cfg.MongoSettings().ConnectionString)

	src := cfg.DebeziumPostgresSource("wire_abc")
	assert.Equal(t, "wire_abc", src.Table)
	assert.Equal(t, "kafka:9092", src.BootstrapServers)
}
