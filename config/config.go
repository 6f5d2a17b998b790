package config

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Storage backends for the corpus and routing log
const (
	BackendFile     = "file"
	BackendPostgres = "postgres"
	BackendNone     = "none"
)

// Config represents the complete application configuration
type Config struct {
	Server        ServerConfig
	Database      *DatabaseConfig // Optional: nil unless DATABASE_URL or DB_HOST is set
	Providers     ProvidersConfig
	Embedding     EmbeddingConfig
	Models        ModelsConfig
	Corpus        CorpusConfig
	RoutingLog    RoutingLogConfig
	Session       SessionConfig
	Pipeline      PipelineConfig
	Eval          EvalConfig
	Observability ObservabilityConfig
	Environment   string
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
	AllowedOrigins  []string
	RateLimitRPS    float64 // Per-client requests per second on pipeline routes; 0 disables
	RateLimitBurst  int
}

// DatabaseConfig holds PostgreSQL database configuration.
// When ConnectionString (from DATABASE_URL) is set, it takes precedence over individual fields.
type DatabaseConfig struct {
	ConnectionString string // From DATABASE_URL when set
	Host             string
	Port             int
	User             string
	Password         string
	Database         string
	SSLMode          string
	MaxOpenConns     int
	MaxIdleConns     int
	ConnMaxLifetime  time.Duration
}

// ProvidersConfig holds LLM provider configurations
type ProvidersConfig struct {
	Groq      GroqConfig
	Anthropic AnthropicConfig
}

// GroqConfig holds the OpenAI-compatible completion provider configuration
type GroqConfig struct {
	APIKey      string
	BaseURL     string
	Timeout     time.Duration
	MaxRetries  int
	RetryDelay  time.Duration
	Temperature float64
	MaxTokens   int
}

// AnthropicConfig holds Anthropic provider configuration
type AnthropicConfig struct {
	APIKey      string
	BaseURL     string
	Timeout     time.Duration
	ModelPrefix string // Models starting with this prefix route to Anthropic
}

// EmbeddingConfig holds the embeddings endpoint configuration
type EmbeddingConfig struct {
	APIKey    string
	BaseURL   string
	Model     string
	Timeout   time.Duration
	BatchSize int
	CacheSize int
	CacheTTL  time.Duration
}

// ModelsConfig holds routing targets
type ModelsConfig struct {
	Complex string
	Fast    string
}

// CorpusConfig holds corpus storage and ingestion settings
type CorpusConfig struct {
	Backend      string // file or postgres
	Path         string // JSON embeddings file for the file backend
	DocsDir      string // Source documents for ingestion
	ChunkSize    int
	ChunkOverlap int
}

// RoutingLogConfig holds routing log sink settings
type RoutingLogConfig struct {
	Backend     string // file, postgres or none
	Path        string // JSON-lines file for the file backend
	BufferSize  int
	WorkerCount int
	RedactPII   bool // Mask emails, phone numbers and similar in stored queries
}

// SessionConfig holds conversation memory settings
type SessionConfig struct {
	MaxTurns int
}

// PipelineConfig holds answer pipeline tuning
type PipelineConfig struct {
	TopK           int
	MaxQueryLength int
	NoContextFloor float64
}

// EvalConfig holds evaluation harness settings
type EvalConfig struct {
	CasesFile   string // Empty uses the embedded default set
	PauseBefore time.Duration
	PauseAfter  time.Duration
	CaseTimeout time.Duration
}

// ObservabilityConfig holds monitoring and logging configuration
type ObservabilityConfig struct {
	LogLevel       string
	LogFormat      string // json or text
	MetricsEnabled bool
}

// New creates a new Config instance by loading environment variables
func New(ctx context.Context) (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load(".env")

	cfg := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			Port:            getPort(),
			ReadTimeout:     getEnvAsDuration("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:    getEnvAsDuration("SERVER_WRITE_TIMEOUT", 90*time.Second),
			RequestTimeout:  getEnvAsDuration("SERVER_REQUEST_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
			AllowedOrigins:  getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:5173"}),
			RateLimitRPS:    getEnvAsFloat("RATE_LIMIT_RPS", 2),
			RateLimitBurst:  getEnvAsInt("RATE_LIMIT_BURST", 10),
		},
		Database: loadDatabaseConfig(),
		Providers: ProvidersConfig{
			Groq: GroqConfig{
				APIKey:      getEnv("GROQ_API_KEY", ""),
				BaseURL:     getEnv("GROQ_BASE_URL", "https://api.groq.com/openai/v1"),
				Timeout:     getEnvAsDuration("GROQ_TIMEOUT", 30*time.Second),
				MaxRetries:  getEnvAsInt("GROQ_MAX_RETRIES", 3),
				RetryDelay:  getEnvAsDuration("GROQ_RETRY_DELAY", 5*time.Second),
				Temperature: getEnvAsFloat("GROQ_TEMPERATURE", 0.2),
				MaxTokens:   getEnvAsInt("GROQ_MAX_TOKENS", 1024),
			},
			Anthropic: AnthropicConfig{
				APIKey:      getEnv("ANTHROPIC_API_KEY", ""),
				BaseURL:     getEnv("ANTHROPIC_BASE_URL", ""),
				Timeout:     getEnvAsDuration("ANTHROPIC_TIMEOUT", 30*time.Second),
				ModelPrefix: getEnv("ANTHROPIC_MODEL_PREFIX", "claude-"),
			},
		},
		Embedding: EmbeddingConfig{
			APIKey:    getEnv("EMBEDDING_API_KEY", ""),
			BaseURL:   getEnv("EMBEDDING_BASE_URL", "http://localhost:8081/v1"),
			Model:     getEnv("EMBEDDING_MODEL", "all-MiniLM-L6-v2"),
			Timeout:   getEnvAsDuration("EMBEDDING_TIMEOUT", 15*time.Second),
			BatchSize: getEnvAsInt("EMBEDDING_BATCH_SIZE", 64),
			CacheSize: getEnvAsInt("EMBEDDING_CACHE_SIZE", 512),
			CacheTTL:  getEnvAsDuration("EMBEDDING_CACHE_TTL", 10*time.Minute),
		},
		Models: ModelsConfig{
			Complex: getEnv("MODEL_COMPLEX", "llama-3.3-70b-versatile"),
			Fast:    getEnv("MODEL_FAST", "llama-3.1-8b-instant"),
		},
		Corpus: CorpusConfig{
			Backend:      getEnv("CORPUS_BACKEND", BackendFile),
			Path:         getEnv("CORPUS_PATH", "data/embeddings.json"),
			DocsDir:      getEnv("CORPUS_DOCS_DIR", "docs"),
			ChunkSize:    getEnvAsInt("CORPUS_CHUNK_SIZE", 450),
			ChunkOverlap: getEnvAsInt("CORPUS_CHUNK_OVERLAP", 80),
		},
		RoutingLog: RoutingLogConfig{
			Backend:     getEnv("ROUTING_LOG_BACKEND", BackendFile),
			Path:        getEnv("ROUTING_LOG_PATH", "router_log.json"),
			BufferSize:  getEnvAsInt("ROUTING_LOG_BUFFER_SIZE", 1000),
			WorkerCount: getEnvAsInt("ROUTING_LOG_WORKERS", 1),
			RedactPII:   getEnvAsBool("ROUTING_LOG_REDACT_PII", true),
		},
		Session: SessionConfig{
			MaxTurns: getEnvAsInt("SESSION_MAX_TURNS", 5),
		},
		Pipeline: PipelineConfig{
			TopK:           getEnvAsInt("PIPELINE_TOP_K", 5),
			MaxQueryLength: getEnvAsInt("PIPELINE_MAX_QUERY_LENGTH", 2000),
			NoContextFloor: getEnvAsFloat("PIPELINE_NO_CONTEXT_FLOOR", 0.30),
		},
		Eval: EvalConfig{
			CasesFile:   getEnv("EVAL_CASES_FILE", ""),
			PauseBefore: getEnvAsDuration("EVAL_PAUSE_BEFORE", 5*time.Second),
			PauseAfter:  getEnvAsDuration("EVAL_PAUSE_AFTER", 1500*time.Millisecond),
			CaseTimeout: getEnvAsDuration("EVAL_CASE_TIMEOUT", 60*time.Second),
		},
		Observability: ObservabilityConfig{
			LogLevel:       getEnv("LOG_LEVEL", "info"),
			LogFormat:      getEnv("LOG_FORMAT", "json"),
			MetricsEnabled: getEnvAsBool("METRICS_ENABLED", true),
		},
	}

	// Validate the configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks if all required configuration fields are set
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Server.RateLimitRPS < 0 {
		return fmt.Errorf("rate limit must not be negative: %v", c.Server.RateLimitRPS)
	}

	switch c.Corpus.Backend {
	case BackendFile, BackendPostgres:
	default:
		return fmt.Errorf("unknown corpus backend %q", c.Corpus.Backend)
	}
	switch c.RoutingLog.Backend {
	case BackendFile, BackendPostgres, BackendNone:
	default:
		return fmt.Errorf("unknown routing log backend %q", c.RoutingLog.Backend)
	}

	// Database validation only when a postgres backend is selected
	if c.NeedsDatabase() {
		if c.Database == nil {
			return fmt.Errorf("database configuration required: set DATABASE_URL or DB_HOST")
		}
		if c.Database.ConnectionString == "" {
			if c.Database.User == "" {
				return fmt.Errorf("database user is required")
			}
			if c.Database.Database == "" {
				return fmt.Errorf("database name is required")
			}
		}
	}

	// Provider validation (at least one provider API key required in production)
	if c.IsProduction() {
		if c.Providers.Groq.APIKey == "" && c.Providers.Anthropic.APIKey == "" {
			return fmt.Errorf("at least one LLM provider must be configured in production")
		}
	}

	if c.Models.Complex == "" || c.Models.Fast == "" {
		return fmt.Errorf("both complex and fast model ids are required")
	}
	if c.Pipeline.TopK <= 0 {
		return fmt.Errorf("pipeline top-k must be positive")
	}
	if c.Session.MaxTurns <= 0 {
		return fmt.Errorf("session max turns must be positive")
	}
	if c.Corpus.ChunkSize <= 0 || c.Corpus.ChunkOverlap < 0 || c.Corpus.ChunkOverlap >= c.Corpus.ChunkSize {
		return fmt.Errorf("chunk overlap must be in [0, chunk size)")
	}

	// Observability validation
	if c.Observability.LogLevel == "" {
		return fmt.Errorf("log level is required")
	}

	return nil
}

// NeedsDatabase reports whether any backend is postgres
func (c *Config) NeedsDatabase() bool {
	return c.Corpus.Backend == BackendPostgres || c.RoutingLog.Backend == BackendPostgres
}

// IsProduction returns true if running in production environment
func (c *Config) IsProduction() bool {
	return c.Environment == "production" || c.Environment == "prod"
}

// IsDevelopment returns true if running in development environment
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development" || c.Environment == "dev"
}

// DSN returns the PostgreSQL connection string.
// Uses ConnectionString (from DATABASE_URL) when set; otherwise builds from individual fields.
func (c *DatabaseConfig) DSN() string {
	if c.ConnectionString != "" {
		return c.ConnectionString
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// LogString returns a safe string for logging (no password). Parses ConnectionString when set.
func (c *DatabaseConfig) LogString() string {
	if c.ConnectionString != "" {
		u, err := url.Parse(c.ConnectionString)
		if err == nil {
			host := u.Hostname()
			port := u.Port()
			if port == "" {
				port = "5432"
			}
			db := strings.TrimPrefix(u.Path, "/")
			return fmt.Sprintf("host=%s port=%s database=%s", host, port, db)
		}
		return "host=<from DATABASE_URL>"
	}
	return fmt.Sprintf("host=%s port=%d database=%s", c.Host, c.Port, c.Database)
}

// loadDatabaseConfig loads database config from DATABASE_URL or DB_* env vars.
// Returns nil when neither is set.
func loadDatabaseConfig() *DatabaseConfig {
	pool := DatabaseConfig{
		MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 10),
		MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
		ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
	}

	if dbURL := getEnv("DATABASE_URL", ""); dbURL != "" {
		pool.ConnectionString = dbURL
		return &pool
	}
	if getEnv("DB_HOST", "") == "" {
		return nil
	}

	pool.Host = getEnv("DB_HOST", "localhost")
	pool.Port = getEnvAsInt("DB_PORT", 5432)
	pool.User = getEnv("DB_USER", "clearpath")
	pool.Password = getEnv("DB_PASSWORD", "")
	pool.Database = getEnv("DB_NAME", "clearpath")
	pool.SSLMode = getEnv("DB_SSLMODE", "disable")
	return &pool
}

// Address returns the HTTP server address
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Helper functions

// getPort returns the server port from PORT or SERVER_PORT env vars (default: 5000)
func getPort() int {
	if value := os.Getenv("PORT"); value != "" {
		if p, err := strconv.Atoi(value); err == nil {
			return p
		}
	}
	return getEnvAsInt("SERVER_PORT", 5000)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsList splits a comma-separated value, dropping blanks
func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
