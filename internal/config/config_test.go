package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ftplog/internal/config"
	"ftplog/internal/domain"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "logs", cfg.S3.LogsPrefix)
	assert.Equal(t, ".json", cfg.S3.FileSuffix)
	assert.Equal(t, cfg.S3.Bucket, cfg.S3.ArchiveBucket)
	assert.Equal(t, 5*time.Minute, cfg.Ingest.Interval)
	assert.Equal(t, domain.ArchiveBackendPostgres, cfg.Ingest.ArchiveBackend)
	assert.Equal(t, 500, cfg.Ingest.ChunkSize)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 30*time.Minute, cfg.Ingest.RunTimeout)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.Server.CORSOrigins)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("FTPLOG_S3_BUCKET", "prod-ftplog")
	t.Setenv("FTPLOG_S3_LOGS_PREFIX", "/incoming/")
	t.Setenv("FTPLOG_INGEST_INTERVAL", "30s")
	t.Setenv("FTPLOG_INGEST_ARCHIVE_BACKEND", "S3")
	t.Setenv("FTPLOG_INGEST_MAX_FILES", "25")
	t.Setenv("FTPLOG_DB_PORT", "6543")
	t.Setenv("FTPLOG_SERVER_CORS_ORIGINS", "https://a.example, ,https://b.example")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "prod-ftplog", cfg.S3.Bucket)
	assert.Equal(t, "prod-ftplog", cfg.S3.ArchiveBucket)
	assert.Equal(t, "incoming", cfg.S3.LogsPrefix)
	assert.Equal(t, 30*time.Second, cfg.Ingest.Interval)
	assert.Equal(t, domain.ArchiveBackendS3, cfg.Ingest.ArchiveBackend)
	assert.Equal(t, 25, cfg.Ingest.MaxFiles)
	assert.Equal(t, 6543, cfg.DB.Port)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.CORSOrigins)
}

func TestLoad_PortEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Server.Port)
}

func TestLoad_InvalidArchiveBackend(t *testing.T) {
	t.Setenv("FTPLOG_INGEST_ARCHIVE_BACKEND", "bigtable")
	_, err := config.Load()
	assert.Error(t, err)
}

func TestDBConfig_DSN(t *testing.T) {
	db := config.DBConfig{Host: "db", Port: 5432, User: "u", Password: "p", Name: "logviewer", SSLMode: "require"}
	assert.Equal(t, "postgres://u:p@db:5432/logviewer?sslmode=require", db.DSN())
}

func TestValidate(t *testing.T) {
	base := func() *config.Config {
		return &config.Config{
			S3:     config.S3Config{Bucket: "b"},
			Ingest: config.IngestConfig{Interval: time.Minute, ChunkSize: 10, ArchiveBackend: domain.ArchiveBackendS3},
		}
	}
	require.NoError(t, base().Validate())

	c := base()
	c.S3.Bucket = ""
	assert.Error(t, c.Validate())

	c = base()
	c.Ingest.ChunkSize = 0
	assert.Error(t, c.Validate())

	c = base()
	c.Ingest.ChunkSize = config.MaxChunkSize
	assert.NoError(t, c.Validate())

	c = base()
	c.Ingest.ChunkSize = config.MaxChunkSize + 1
	assert.Error(t, c.Validate())

	c = base()
	c.Ingest.Interval = 0
	assert.Error(t, c.Validate())
}
