package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Config represents the complete application configuration.
type Config struct {
	Server   ServerConfig   `json:"server"`
	Database DatabaseConfig `json:"database"`
	CDM      CDMConfig      `json:"cdm"`
	Simbrief SimbriefConfig `json:"simbrief"`
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	// Port is the HTTP server port (default: 8080)
	Port string `json:"port"`

	// Host is the server bind address (default: "0.0.0.0")
	Host string `json:"host"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	// Enabled determines whether lookup history is persisted at all
	Enabled bool `json:"enabled"`

	// Host is the database server hostname
	Host string `json:"host"`

	// Port is the database server port
	Port int `json:"port"`

	// Database is the database name
	Database string `json:"database"`

	// Username for database authentication
	Username string `json:"username"`

	// Password for database authentication (should be loaded from environment)
	Password string `json:"password"`

	// SSLMode for PostgreSQL connections (disable, require, verify-ca, verify-full)
	SSLMode string `json:"ssl_mode"`

	// MaxOpenConns is the maximum number of open connections
	MaxOpenConns int `json:"max_open_conns"`

	// MaxIdleConns is the maximum number of idle connections
	MaxIdleConns int `json:"max_idle_conns"`
}

// CDMConfig contains the CDM provider configuration.
type CDMConfig struct {
	// Servers is the ordered list of configured CDM data providers.
	// Order determines lookup priority: the first provider serving an
	// airport is authoritative.
	Servers []CDMServer `json:"servers"`

	// RequestsPerSecond limits outgoing requests across all providers.
	// 0 = use the default (2 req/s)
	RequestsPerSecond float64 `json:"requests_per_second"`
}

// CDMServer represents a single CDM data provider.
type CDMServer struct {
	// Name is a friendly, unique name for this provider
	Name string `json:"name"`

	// Enabled determines if this provider should be used
	Enabled bool `json:"enabled"`

	// Protocol is the wire protocol variant: "feed_list" or "vacdm_v1"
	Protocol string `json:"protocol"`

	// URL is the provider's base URL
	URL string `json:"url"`
}

// SimbriefConfig contains settings for the SimBrief OFP fetcher.
type SimbriefConfig struct {
	// BaseURL is the SimBrief fetcher endpoint
	// (default: "https://www.simbrief.com/api/xml.fetcher.php")
	BaseURL string `json:"base_url"`

	// PilotID is the SimBrief user id whose OFP is fetched
	PilotID string `json:"pilot_id"`

	// RequestsPerMinute limits fetcher API calls (default: 6)
	RequestsPerMinute int `json:"requests_per_minute"`
}

// Load reads configuration from a JSON file.
// If the file doesn't exist, returns a default configuration.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg := DefaultConfig()
		cfg.applyEnvironmentOverrides()
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.applyEnvironmentOverrides()

	return &cfg, nil
}

// Save writes the configuration to a JSON file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port: "8080",
			Host: "0.0.0.0",
		},
		Database: DatabaseConfig{
			Enabled:      false,
			Host:         "localhost",
			Port:         5432,
			Database:     "briefhub",
			Username:     "briefhub",
			SSLMode:      "disable",
			MaxOpenConns: 25,
			MaxIdleConns: 5,
		},
		CDM: CDMConfig{
			Servers: []CDMServer{
				{
					Name:     "vACDM Germany",
					Enabled:  true,
					Protocol: "vacdm_v1",
					URL:      "https://vacdm.vatsim-germany.org",
				},
				{
					Name:     "community feed list",
					Enabled:  true,
					Protocol: "feed_list",
					URL:      "https://raw.githubusercontent.com/rpuig2001/CDM/main",
				},
			},
			RequestsPerSecond: 2.0,
		},
		Simbrief: SimbriefConfig{
			BaseURL:           "https://www.simbrief.com/api/xml.fetcher.php",
			RequestsPerMinute: 6,
		},
	}
}

// applyEnvironmentOverrides applies environment variable overrides to the config.
// This allows sensitive data like passwords to be kept out of config files.
func (c *Config) applyEnvironmentOverrides() {
	if port := os.Getenv("BRIEFHUB_PORT"); port != "" {
		c.Server.Port = port
	}
	if dbPassword := os.Getenv("BRIEFHUB_DB_PASSWORD"); dbPassword != "" {
		c.Database.Password = dbPassword
	}
	if pilotID := os.Getenv("BRIEFHUB_PILOT_ID"); pilotID != "" {
		c.Simbrief.PilotID = pilotID
	}
	if baseURL := os.Getenv("BRIEFHUB_SIMBRIEF_URL"); baseURL != "" {
		c.Simbrief.BaseURL = baseURL
	}
}
