package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// Config represents the application configuration
type Config struct {
	// Google API Configuration (Calendar + People)
	Google GoogleConfig `env:", prefix=GOOGLE_"`

	// Server Configuration
	Server ServerConfig `env:", prefix=SERVER_"`

	// Logging Configuration
	Logging LoggingConfig `env:", prefix=LOG_"`

	// Application Configuration
	App AppConfig `env:", prefix=APP_"`

	// LLM Configuration
	LLM LLMConfig `env:", prefix=LLM_"`

	// Chroma vector store Configuration
	Chroma ChromaConfig `env:", prefix=CHROMA_"`

	// Index Configuration for the semantic event index
	Index IndexConfig `env:", prefix=INDEX_"`

	// Status store Configuration for async scheduling requests
	Status StatusConfig `env:", prefix=STATUS_"`
}

// GoogleConfig holds Google Calendar and People API related configuration
type GoogleConfig struct {
	// CalendarID is the target Google Calendar ID to use
	CalendarID string `env:"CALENDAR_ID, default=primary"`

	// ServiceAccountJSON contains the Google Service Account credentials in JSON format
	ServiceAccountJSON string `env:"CALENDAR_SA_JSON"`

	// CredentialsPath is the path to Google credentials file (alternative to ServiceAccountJSON)
	CredentialsPath string `env:"APPLICATION_CREDENTIALS"`

	// TimeZone is the timezone synthesized events are pinned to (e.g., "America/Los_Angeles")
	TimeZone string `env:"CALENDAR_TIMEZONE, default=America/Los_Angeles"`

	// ContactsPageSize is the page size used when listing People API connections
	ContactsPageSize int `env:"CONTACTS_PAGE_SIZE, default=200"`

	// DedupeContacts enables dedupe-by-email across the two contact lookup paths
	DedupeContacts bool `env:"CONTACTS_DEDUPE, default=false"`
}

// ServerConfig holds HTTP server related configuration
type ServerConfig struct {
	// Port is the port the server will listen on
	Port string `env:"PORT, default=8080"`

	// Host is the host the server will bind to
	Host string `env:"HOST, default=0.0.0.0"`

	// Mode sets the Gin server mode (debug, release, test)
	Mode string `env:"GIN_MODE, default=release"`

	// ReadTimeout is the maximum duration for reading the entire request
	ReadTimeout time.Duration `env:"READ_TIMEOUT, default=10s"`

	// WriteTimeout is the maximum duration before timing out writes of the response
	WriteTimeout time.Duration `env:"WRITE_TIMEOUT, default=30s"`

	// IdleTimeout is the maximum amount of time to wait for the next request
	IdleTimeout time.Duration `env:"IDLE_TIMEOUT, default=60s"`
}

// LoggingConfig holds logging related configuration
type LoggingConfig struct {
	// Level sets the log level (debug, info, warn, error)
	Level string `env:"LEVEL, default=info"`

	// Format sets the log format (json, console)
	Format string `env:"FORMAT, default=json"`

	// Output sets the log output destination (stdout, stderr, file path)
	Output string `env:"OUTPUT, default=stdout"`

	// EnableCaller adds caller information to log entries
	EnableCaller bool `env:"ENABLE_CALLER, default=true"`

	// EnableStacktrace adds stacktrace to error level logs
	EnableStacktrace bool `env:"ENABLE_STACKTRACE, default=true"`
}

// AppConfig holds general application configuration
type AppConfig struct {
	// Environment specifies the deployment environment (dev, staging, prod)
	Environment string `env:"ENVIRONMENT, default=dev"`

	// DemoMode enables demo mode with mock services
	DemoMode bool `env:"DEMO_MODE, default=false"`

	// RequestTimeout sets the maximum duration for handling requests
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT, default=60s"`

	// AvailabilityHorizonDays is the look-ahead window for the availability narrative
	AvailabilityHorizonDays int `env:"AVAILABILITY_HORIZON_DAYS, default=14"`
}

// LLMConfig holds LLM provider configuration for natural language processing
// Supports both Inference Gateway and OpenAI-compatible API endpoints
type LLMConfig struct {
	// GatewayURL is the URL of the Inference Gateway or OpenAI-compatible API endpoint
	GatewayURL string `env:"GATEWAY_URL, default=http://localhost:8081/v1"`

	// Provider is the LLM provider to use through the Inference Gateway
	Provider string `env:"PROVIDER, default=groq"`

	// ClassifierModel is the model used for intent classification and preference compilation
	ClassifierModel string `env:"CLASSIFIER_MODEL, default=llama-3.1-8b-instant"`

	// Model is the model used for event synthesis and answer generation
	Model string `env:"MODEL, default=llama-3.3-70b-versatile"`

	// Timeout is the timeout for LLM requests
	Timeout time.Duration `env:"TIMEOUT, default=30s"`

	// MaxTokens is the maximum number of tokens to generate
	MaxTokens int `env:"MAX_TOKENS, default=2048"`

	// Temperature controls randomness in generation (0.0 to 2.0)
	Temperature float64 `env:"TEMPERATURE, default=0.2"`

	// Enabled determines if LLM functionality is enabled
	Enabled bool `env:"ENABLED, default=true"`
}

// ChromaConfig holds the vector store provider configuration
type ChromaConfig struct {
	// URL is the base URL of the Chroma server
	URL string `env:"URL, default=http://localhost:8000"`

	// Tenant is the Chroma tenant name
	Tenant string `env:"TENANT, default=default_tenant"`

	// Database is the Chroma database name
	Database string `env:"DATABASE, default=default_database"`

	// Collection is the collection holding the event chunks
	Collection string `env:"COLLECTION, default=calendar_events"`

	// APIKey is sent as the x-chroma-token header when set
	APIKey string `env:"API_KEY"`

	// Timeout is the timeout for vector store requests
	Timeout time.Duration `env:"TIMEOUT, default=15s"`
}

// IndexConfig holds semantic index behavior configuration
type IndexConfig struct {
	// ChunkSize is the number of events rendered into one index document
	ChunkSize int `env:"CHUNK_SIZE, default=10"`

	// SearchResults is the default number of nearest chunks returned by search
	SearchResults int `env:"SEARCH_RESULTS, default=5"`

	// ReindexSchedule is a cron expression for the periodic full reindex
	ReindexSchedule string `env:"REINDEX_SCHEDULE, default=@every 30m"`

	// ReindexHorizonDays is how far ahead reindexing looks for events
	ReindexHorizonDays int `env:"REINDEX_HORIZON_DAYS, default=90"`
}

// StatusConfig holds the processing-status store configuration
type StatusConfig struct {
	// TTL is how long completed entries are retained before eviction
	TTL time.Duration `env:"TTL, default=10m"`

	// RedisAddr selects the Redis-backed store when set (host:port)
	RedisAddr string `env:"REDIS_ADDR"`

	// RedisPassword is the Redis AUTH password
	RedisPassword string `env:"REDIS_PASSWORD"`

	// RedisDB is the Redis database number
	RedisDB int `env:"REDIS_DB, default=0"`
}

// Load loads configuration from environment variables
func Load(ctx context.Context) (*Config, error) {
	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return nil, fmt.Errorf("failed to process configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// LoadWithLookuper loads configuration using a custom lookuper (useful for testing)
func LoadWithLookuper(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: lookuper,
	}); err != nil {
		return nil, fmt.Errorf("failed to process configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// Validate validates the configuration values
func (c *Config) Validate() error {
	if !c.App.DemoMode {
		if c.Google.ServiceAccountJSON == "" && c.Google.CredentialsPath == "" {
			return fmt.Errorf("either GOOGLE_CALENDAR_SA_JSON or GOOGLE_APPLICATION_CREDENTIALS must be provided when not in demo mode")
		}
	}

	if _, err := time.LoadLocation(c.Google.TimeZone); err != nil {
		return fmt.Errorf("invalid GOOGLE_CALENDAR_TIMEZONE '%s': %w", c.Google.TimeZone, err)
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level '%s', must be one of: debug, info, warn, error", c.Logging.Level)
	}

	validModes := map[string]bool{
		"debug":   true,
		"release": true,
		"test":    true,
	}
	if !validModes[c.Server.Mode] {
		return fmt.Errorf("invalid server mode '%s', must be one of: debug, release, test", c.Server.Mode)
	}

	if c.LLM.Enabled {
		if c.LLM.GatewayURL == "" {
			return fmt.Errorf("LLM_GATEWAY_URL is required when LLM is enabled")
		}
		if c.LLM.Provider == "" {
			return fmt.Errorf("LLM_PROVIDER is required when LLM is enabled")
		}

		validProviders := map[string]bool{
			"openai":     true,
			"anthropic":  true,
			"groq":       true,
			"ollama":     true,
			"deepseek":   true,
			"cohere":     true,
			"cloudflare": true,
		}
		if !validProviders[c.LLM.Provider] {
			return fmt.Errorf("invalid LLM provider '%s', must be one of: openai, anthropic, groq, ollama, deepseek, cohere, cloudflare", c.LLM.Provider)
		}

		if c.LLM.Model == "" {
			return fmt.Errorf("LLM_MODEL is required when LLM is enabled")
		}
		if c.LLM.ClassifierModel == "" {
			return fmt.Errorf("LLM_CLASSIFIER_MODEL is required when LLM is enabled")
		}
		if c.LLM.Temperature < 0.0 || c.LLM.Temperature > 2.0 {
			return fmt.Errorf("LLM_TEMPERATURE must be between 0.0 and 2.0, got %f", c.LLM.Temperature)
		}
		if c.LLM.MaxTokens <= 0 {
			return fmt.Errorf("LLM_MAX_TOKENS must be greater than 0, got %d", c.LLM.MaxTokens)
		}
	}

	if c.Index.ChunkSize <= 0 {
		return fmt.Errorf("INDEX_CHUNK_SIZE must be greater than 0, got %d", c.Index.ChunkSize)
	}
	if c.Index.SearchResults <= 0 {
		return fmt.Errorf("INDEX_SEARCH_RESULTS must be greater than 0, got %d", c.Index.SearchResults)
	}
	if c.App.AvailabilityHorizonDays <= 0 {
		return fmt.Errorf("APP_AVAILABILITY_HORIZON_DAYS must be greater than 0, got %d", c.App.AvailabilityHorizonDays)
	}
	if c.Status.TTL <= 0 {
		return fmt.Errorf("STATUS_TTL must be greater than 0, got %s", c.Status.TTL)
	}

	return nil
}
