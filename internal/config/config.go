// Package config loads loader and server settings from the environment.
package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// CredentialProvider resolves named credentials such as the bucket name.
type CredentialProvider interface {
	Credential(name, defaultValue string) string
}

// EnvCredentials reads credentials from environment variables.
type EnvCredentials struct{}

func (EnvCredentials) Credential(name, defaultValue string) string {
	return getEnv(name, defaultValue)
}

// MapCredentials serves credentials from a fixed map.
type MapCredentials map[string]string

func (m MapCredentials) Credential(name, defaultValue string) string {
	if v, ok := m[name]; ok && v != "" {
		return v
	}
	return defaultValue
}

// Config holds all application configuration
type Config struct {
	// Relational source
	DatabaseURL string

	// Search index
	QdrantHost string
	QdrantPort int
	DocsIndex  string

	// Object storage
	Bucket               string
	AWSRegion            string
	S3Endpoint           string
	UploadConcurrency    int
	SkipUnchangedUploads bool

	// Embeddings
	EmbedOpinions bool
	OpenAIAPIKey  string

	// Metrics
	PushgatewayURL string

	// Logging settings
	LogLevel  string
	LogFormat string

	// MCP server
	Port       string
	ServerMode bool
}

// Load reads configuration from environment variables, with credentials
// resolved through EnvCredentials.
func Load() (*Config, error) {
	return LoadWith(EnvCredentials{})
}

// LoadWith reads configuration, resolving credentials through creds.
func LoadWith(creds CredentialProvider) (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("error loading .env file: %w", err)
		}
	}

	cfg := &Config{
		DatabaseURL:    creds.Credential("DATABASE_URL", "postgres://localhost:5432/fec?sslmode=disable"),
		QdrantHost:     getEnv("QDRANT_HOST", "localhost"),
		DocsIndex:      getEnv("DOCS_INDEX", "docs_index"),
		Bucket:         creds.Credential("BUCKET", ""),
		AWSRegion:      getEnv("AWS_REGION", "us-gov-west-1"),
		S3Endpoint:     getEnv("S3_ENDPOINT", ""),
		OpenAIAPIKey:   creds.Credential("OPENAI_API_KEY", ""),
		PushgatewayURL: getEnv("PUSHGATEWAY_URL", ""),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFormat:      getEnv("LOG_FORMAT", "text"),
		Port:           getEnv("PORT", "8080"),
	}

	var err error
	cfg.QdrantPort, err = strconv.Atoi(getEnv("QDRANT_PORT", "6334"))
	if err != nil {
		return nil, fmt.Errorf("invalid QDRANT_PORT: %w", err)
	}

	cfg.UploadConcurrency, err = strconv.Atoi(getEnv("UPLOAD_CONCURRENCY", "1"))
	if err != nil {
		return nil, fmt.Errorf("invalid UPLOAD_CONCURRENCY: %w", err)
	}
	if cfg.UploadConcurrency < 1 {
		return nil, fmt.Errorf("invalid UPLOAD_CONCURRENCY: must be at least 1, got %d", cfg.UploadConcurrency)
	}

	if cfg.SkipUnchangedUploads, err = getEnvBool("SKIP_UNCHANGED_UPLOADS", false); err != nil {
		return nil, err
	}
	if cfg.EmbedOpinions, err = getEnvBool("EMBED_OPINIONS", false); err != nil {
		return nil, err
	}
	if cfg.ServerMode, err = getEnvBool("SERVER_MODE", false); err != nil {
		return nil, err
	}

	return cfg, nil
}

// NewLogger builds the root logger from LogLevel and LogFormat.
func (c *Config) NewLogger(w io.Writer) (*slog.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}

	opts := &slog.HandlerOptions{Level: level}
	switch strings.ToLower(c.LogFormat) {
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	case "text", "":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("invalid LOG_FORMAT: %q", c.LogFormat)
	}
}

// getEnv returns the value of an environment variable or a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}
