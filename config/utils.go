package config

import (
	"fmt"
	"strings"
	"time"
)

// GetGoogleCredentialsOption returns the appropriate Google API credential option
func (c *Config) GetGoogleCredentialsOption() (string, string, error) {
	if c.ShouldUseMockService() {
		return "", "", nil
	}

	if c.Google.ServiceAccountJSON != "" {
		return "json", c.Google.ServiceAccountJSON, nil
	}

	if c.Google.CredentialsPath != "" {
		return "file", c.Google.CredentialsPath, nil
	}

	return "", "", fmt.Errorf("no Google credentials configured")
}

// GetLogLevel returns the zap log level equivalent
func (c *Config) GetLogLevel() string {
	switch strings.ToLower(c.Logging.Level) {
	case "debug":
		return "debug"
	case "info":
		return "info"
	case "warn", "warning":
		return "warn"
	case "error":
		return "error"
	default:
		return "info"
	}
}

// GetServerAddress returns the formatted server address
func (c *Config) GetServerAddress() string {
	return fmt.Sprintf("%s:%s", c.Server.Host, c.Server.Port)
}

// Location returns the configured calendar timezone, falling back to UTC
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Google.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// IsProduction returns true if the application is running in production
func (c *Config) IsProduction() bool {
	return c.App.Environment == "prod" || c.App.Environment == "production"
}

// IsDevelopment returns true if the application is running in development
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "dev" || c.App.Environment == "development"
}

// ShouldUseMockService returns true if mock services should be used
func (c *Config) ShouldUseMockService() bool {
	return c.App.DemoMode
}

// UseRedisStatusStore returns true when a Redis address is configured
func (c *Config) UseRedisStatusStore() bool {
	return c.Status.RedisAddr != ""
}
