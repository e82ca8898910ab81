package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"ftplog/internal/domain"
)

// Config holds all application configuration.
type Config struct {
	Server  ServerConfig
	DB      DBConfig
	S3      S3Config
	Ingest  IngestConfig
	Log     LogConfig
	Metrics MetricsConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	Environment  string        `mapstructure:"environment"`
	CORSOrigins  []string      `mapstructure:"cors_origins"`
}

// DBConfig holds PostgreSQL connection settings.
type DBConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
	MaxOpen  int    `mapstructure:"max_open"`
	MaxIdle  int    `mapstructure:"max_idle"`
}

// DSN returns the PostgreSQL connection string.
func (d *DBConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// S3Config holds object storage settings for input logs and the raw archive.
type S3Config struct {
	Region        string `mapstructure:"region"`
	Bucket        string `mapstructure:"bucket"`
	Endpoint      string `mapstructure:"endpoint"`
	AccessKey     string `mapstructure:"access_key"`
	SecretKey     string `mapstructure:"secret_key"`
	LogsPrefix    string `mapstructure:"logs_prefix"`
	FileSuffix    string `mapstructure:"file_suffix"`
	ArchiveBucket string `mapstructure:"archive_bucket"`
	ArchivePrefix string `mapstructure:"archive_prefix"`
}

// IngestConfig holds ingestion engine settings.
type IngestConfig struct {
	Interval       time.Duration         `mapstructure:"interval"`
	ListTimeout    time.Duration         `mapstructure:"list_timeout"`
	ReadTimeout    time.Duration         `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration         `mapstructure:"write_timeout"`
	RunTimeout     time.Duration         `mapstructure:"run_timeout"`
	MaxFiles       int                   `mapstructure:"max_files"`
	ChunkSize      int                   `mapstructure:"chunk_size"`
	ArchiveBackend domain.ArchiveBackend `mapstructure:"archive_backend"`
	RunOnStart     bool                  `mapstructure:"run_on_start"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// MetricsConfig holds Prometheus settings.
type MetricsConfig struct {
	Namespace string `mapstructure:"namespace"`
}

// MaxChunkSize is the largest ingest.chunk_size whose base_ftplog insert (18
// bind parameters per row) stays within PostgreSQL's 65535 parameter limit.
const MaxChunkSize = 65535 / 18

// Validate checks settings that would otherwise fail late at run time.
func (c *Config) Validate() error {
	if c.S3.Bucket == "" {
		return fmt.Errorf("config: s3.bucket is required")
	}
	switch c.Ingest.ArchiveBackend {
	case domain.ArchiveBackendPostgres, domain.ArchiveBackendS3:
	default:
		return fmt.Errorf("config: unknown ingest.archive_backend %q", c.Ingest.ArchiveBackend)
	}
	if c.Ingest.ChunkSize <= 0 || c.Ingest.ChunkSize > MaxChunkSize {
		return fmt.Errorf("config: ingest.chunk_size must be between 1 and %d", MaxChunkSize)
	}
	if c.Ingest.Interval <= 0 {
		return fmt.Errorf("config: ingest.interval must be positive")
	}
	return nil
}

// Load reads configuration from environment variables with the FTPLOG_ prefix.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("FTPLOG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Server defaults
	v.SetDefault("server.port", ":8080")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "5m")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.cors_origins", "http://localhost:3000")

	// DB defaults
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.user", "ftplog")
	v.SetDefault("db.password", "ftplog_secret")
	v.SetDefault("db.name", "logviewer")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.max_open", 10)
	v.SetDefault("db.max_idle", 5)

	// S3 defaults
	v.SetDefault("s3.region", "us-east-1")
	v.SetDefault("s3.bucket", "ftplog")
	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.logs_prefix", "logs")
	v.SetDefault("s3.file_suffix", ".json")
	v.SetDefault("s3.archive_bucket", "")
	v.SetDefault("s3.archive_prefix", "archive")

	// Ingest defaults
	v.SetDefault("ingest.interval", "5m")
	v.SetDefault("ingest.list_timeout", "1m")
	v.SetDefault("ingest.read_timeout", "2m")
	v.SetDefault("ingest.write_timeout", "5m")
	v.SetDefault("ingest.run_timeout", "30m")
	v.SetDefault("ingest.max_files", 0)
	v.SetDefault("ingest.chunk_size", 500)
	v.SetDefault("ingest.archive_backend", string(domain.ArchiveBackendPostgres))
	v.SetDefault("ingest.run_on_start", true)

	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Metrics defaults
	v.SetDefault("metrics.namespace", "ftplog")

	// Bind environment variables explicitly for nested keys
	envBindings := map[string]string{
		"server.port":            "FTPLOG_SERVER_PORT",
		"server.read_timeout":    "FTPLOG_SERVER_READ_TIMEOUT",
		"server.write_timeout":   "FTPLOG_SERVER_WRITE_TIMEOUT",
		"server.environment":     "FTPLOG_SERVER_ENVIRONMENT",
		"server.cors_origins":    "FTPLOG_SERVER_CORS_ORIGINS",
		"db.host":                "FTPLOG_DB_HOST",
		"db.port":                "FTPLOG_DB_PORT",
		"db.user":                "FTPLOG_DB_USER",
		"db.password":            "FTPLOG_DB_PASSWORD",
		"db.name":                "FTPLOG_DB_NAME",
		"db.sslmode":             "FTPLOG_DB_SSLMODE",
		"db.max_open":            "FTPLOG_DB_MAX_OPEN",
		"db.max_idle":            "FTPLOG_DB_MAX_IDLE",
		"s3.region":              "FTPLOG_S3_REGION",
		"s3.bucket":              "FTPLOG_S3_BUCKET",
		"s3.endpoint":            "FTPLOG_S3_ENDPOINT",
		"s3.access_key":          "FTPLOG_S3_ACCESS_KEY",
		"s3.secret_key":          "FTPLOG_S3_SECRET_KEY",
		"s3.logs_prefix":         "FTPLOG_S3_LOGS_PREFIX",
		"s3.file_suffix":         "FTPLOG_S3_FILE_SUFFIX",
		"s3.archive_bucket":      "FTPLOG_S3_ARCHIVE_BUCKET",
		"s3.archive_prefix":      "FTPLOG_S3_ARCHIVE_PREFIX",
		"ingest.interval":        "FTPLOG_INGEST_INTERVAL",
		"ingest.list_timeout":    "FTPLOG_INGEST_LIST_TIMEOUT",
		"ingest.read_timeout":    "FTPLOG_INGEST_READ_TIMEOUT",
		"ingest.write_timeout":   "FTPLOG_INGEST_WRITE_TIMEOUT",
		"ingest.run_timeout":     "FTPLOG_INGEST_RUN_TIMEOUT",
		"ingest.max_files":       "FTPLOG_INGEST_MAX_FILES",
		"ingest.chunk_size":      "FTPLOG_INGEST_CHUNK_SIZE",
		"ingest.archive_backend": "FTPLOG_INGEST_ARCHIVE_BACKEND",
		"ingest.run_on_start":    "FTPLOG_INGEST_RUN_ON_START",
		"log.level":              "FTPLOG_LOG_LEVEL",
		"log.format":             "FTPLOG_LOG_FORMAT",
		"metrics.namespace":      "FTPLOG_METRICS_NAMESPACE",
	}
	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}

	cfg := &Config{}

	// Cloud Run / Heroku style PORT wins when FTPLOG_SERVER_PORT is not set.
	serverPort := v.GetString("server.port")
	if port := os.Getenv("PORT"); port != "" && os.Getenv("FTPLOG_SERVER_PORT") == "" {
		serverPort = ":" + port
	}

	cfg.Server = ServerConfig{
		Port:         serverPort,
		ReadTimeout:  v.GetDuration("server.read_timeout"),
		WriteTimeout: v.GetDuration("server.write_timeout"),
		Environment:  v.GetString("server.environment"),
		CORSOrigins:  splitList(v.GetString("server.cors_origins")),
	}
	cfg.DB = DBConfig{
		Host:     v.GetString("db.host"),
		Port:     v.GetInt("db.port"),
		User:     v.GetString("db.user"),
		Password: v.GetString("db.password"),
		Name:     v.GetString("db.name"),
		SSLMode:  v.GetString("db.sslmode"),
		MaxOpen:  v.GetInt("db.max_open"),
		MaxIdle:  v.GetInt("db.max_idle"),
	}
	cfg.S3 = S3Config{
		Region:        v.GetString("s3.region"),
		Bucket:        v.GetString("s3.bucket"),
		Endpoint:      v.GetString("s3.endpoint"),
		AccessKey:     v.GetString("s3.access_key"),
		SecretKey:     v.GetString("s3.secret_key"),
		LogsPrefix:    strings.Trim(v.GetString("s3.logs_prefix"), "/"),
		FileSuffix:    v.GetString("s3.file_suffix"),
		ArchiveBucket: v.GetString("s3.archive_bucket"),
		ArchivePrefix: strings.Trim(v.GetString("s3.archive_prefix"), "/"),
	}
	if cfg.S3.ArchiveBucket == "" {
		cfg.S3.ArchiveBucket = cfg.S3.Bucket
	}
	cfg.Ingest = IngestConfig{
		Interval:       v.GetDuration("ingest.interval"),
		ListTimeout:    v.GetDuration("ingest.list_timeout"),
		ReadTimeout:    v.GetDuration("ingest.read_timeout"),
		WriteTimeout:   v.GetDuration("ingest.write_timeout"),
		RunTimeout:     v.GetDuration("ingest.run_timeout"),
		MaxFiles:       v.GetInt("ingest.max_files"),
		ChunkSize:      v.GetInt("ingest.chunk_size"),
		ArchiveBackend: domain.ArchiveBackend(strings.ToLower(v.GetString("ingest.archive_backend"))),
		RunOnStart:     v.GetBool("ingest.run_on_start"),
	}
	cfg.Log = LogConfig{
		Level:  v.GetString("log.level"),
		Format: v.GetString("log.format"),
	}
	cfg.Metrics = MetricsConfig{
		Namespace: v.GetString("metrics.namespace"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// splitList parses a comma-separated env value, dropping blanks.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
