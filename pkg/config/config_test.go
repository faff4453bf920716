package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// TestDefaultConfig verifies that DefaultConfig returns valid defaults.
func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	// Server defaults
	if cfg.Server.Port != "8080" {
		t.Errorf("Expected default port 8080, got %s", cfg.Server.Port)
	}
	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("Expected default host 0.0.0.0, got %s", cfg.Server.Host)
	}

	// Database defaults
	if cfg.Database.Enabled {
		t.Error("Expected history persistence disabled by default")
	}
	if cfg.Database.Port != 5432 {
		t.Errorf("Expected default postgres port 5432, got %d", cfg.Database.Port)
	}
	if cfg.Database.MaxOpenConns != 25 {
		t.Errorf("Expected max open conns 25, got %d", cfg.Database.MaxOpenConns)
	}
	if cfg.Database.MaxIdleConns != 5 {
		t.Errorf("Expected max idle conns 5, got %d", cfg.Database.MaxIdleConns)
	}

	// CDM defaults
	if len(cfg.CDM.Servers) != 2 {
		t.Fatalf("Expected 2 default CDM providers, got %d", len(cfg.CDM.Servers))
	}
	if cfg.CDM.Servers[0].Protocol != "vacdm_v1" {
		t.Errorf("Expected vacdm_v1 provider first, got %s", cfg.CDM.Servers[0].Protocol)
	}
	if cfg.CDM.Servers[1].Protocol != "feed_list" {
		t.Errorf("Expected feed_list provider second, got %s", cfg.CDM.Servers[1].Protocol)
	}
	for _, s := range cfg.CDM.Servers {
		if !s.Enabled {
			t.Errorf("Expected default provider %s to be enabled", s.Name)
		}
	}
	if cfg.CDM.RequestsPerSecond != 2.0 {
		t.Errorf("Expected 2 requests/second, got %f", cfg.CDM.RequestsPerSecond)
	}

	// SimBrief defaults
	if cfg.Simbrief.BaseURL != "https://www.simbrief.com/api/xml.fetcher.php" {
		t.Errorf("Unexpected SimBrief base URL: %s", cfg.Simbrief.BaseURL)
	}
	if cfg.Simbrief.RequestsPerMinute != 6 {
		t.Errorf("Expected 6 requests/minute, got %d", cfg.Simbrief.RequestsPerMinute)
	}
	if cfg.Simbrief.PilotID != "" {
		t.Error("Expected no default pilot id")
	}
}

// TestLoadNonExistentFile tests that Load returns default config when file doesn't exist.
func TestLoadNonExistentFile(t *testing.T) {
	cfg, err := Load("/nonexistent/path/config.json")
	if err != nil {
		t.Fatalf("Expected no error for non-existent file, got: %v", err)
	}
	if cfg == nil {
		t.Fatal("Expected default config, got nil")
	}
	// Verify it's actually the default config
	if cfg.Server.Port != "8080" {
		t.Error("Did not get default config for non-existent file")
	}
}

// TestLoadValidConfig tests loading a valid configuration file.
func TestLoadValidConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "test-config.json")

	testConfig := &Config{
		Server: ServerConfig{
			Port: "9090",
			Host: "127.0.0.1",
		},
		Database: DatabaseConfig{
			Enabled:  true,
			Host:     "db.example.com",
			Port:     5433,
			Database: "testdb",
			Username: "testuser",
		},
		CDM: CDMConfig{
			Servers: []CDMServer{
				{
					Name:     "test provider",
					Enabled:  true,
					Protocol: "vacdm_v1",
					URL:      "https://cdm.example.com",
				},
			},
			RequestsPerSecond: 5.0,
		},
		Simbrief: SimbriefConfig{
			BaseURL:           "https://sb.example.com/fetch",
			PilotID:           "123456",
			RequestsPerMinute: 12,
		},
	}

	data, err := json.MarshalIndent(testConfig, "", "  ")
	if err != nil {
		t.Fatalf("Failed to marshal test config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Server.Port != "9090" {
		t.Errorf("Expected port 9090, got %s", cfg.Server.Port)
	}
	if cfg.Database.Host != "db.example.com" {
		t.Errorf("Expected db.example.com, got %s", cfg.Database.Host)
	}
	if len(cfg.CDM.Servers) != 1 || cfg.CDM.Servers[0].Name != "test provider" {
		t.Errorf("Expected single test provider, got %+v", cfg.CDM.Servers)
	}
	if cfg.Simbrief.PilotID != "123456" {
		t.Errorf("Expected pilot id 123456, got %s", cfg.Simbrief.PilotID)
	}
}

// TestLoadInvalidJSON tests error handling for malformed JSON.
func TestLoadInvalidJSON(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "invalid.json")

	if err := os.WriteFile(configPath, []byte("{ invalid json }"), 0644); err != nil {
		t.Fatalf("Failed to write invalid config: %v", err)
	}

	_, err := Load(configPath)
	if err == nil {
		t.Error("Expected error for invalid JSON, got nil")
	}
	if err != nil && !strings.Contains(err.Error(), "failed to parse") {
		t.Errorf("Expected parse error, got: %v", err)
	}
}

// TestSaveConfig tests saving configuration to file.
func TestSaveConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "saved-config.json")

	cfg := DefaultConfig()
	cfg.Server.Port = "9999"
	cfg.Simbrief.PilotID = "654321"

	if err := cfg.Save(configPath); err != nil {
		t.Fatalf("Failed to save config: %v", err)
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		t.Fatal("Config file was not created")
	}

	loaded, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load saved config: %v", err)
	}

	if loaded.Server.Port != "9999" {
		t.Errorf("Expected port 9999, got %s", loaded.Server.Port)
	}
	if loaded.Simbrief.PilotID != "654321" {
		t.Errorf("Expected pilot id 654321, got %s", loaded.Simbrief.PilotID)
	}
}

// TestSaveConfigCreatesDirectory tests that Save creates missing directories.
func TestSaveConfigCreatesDirectory(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "nested", "dir", "config.json")

	cfg := DefaultConfig()
	if err := cfg.Save(configPath); err != nil {
		t.Fatalf("Failed to save config with nested directory: %v", err)
	}

	dir := filepath.Dir(configPath)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		t.Error("Directory was not created")
	}
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		t.Error("Config file was not created")
	}
}

// TestEnvironmentOverrides tests environment variable overrides.
func TestEnvironmentOverrides(t *testing.T) {
	os.Setenv("BRIEFHUB_PORT", "7777")
	os.Setenv("BRIEFHUB_DB_PASSWORD", "env-password")
	os.Setenv("BRIEFHUB_PILOT_ID", "env-pilot")
	os.Setenv("BRIEFHUB_SIMBRIEF_URL", "https://env.example.com/fetch")
	defer func() {
		os.Unsetenv("BRIEFHUB_PORT")
		os.Unsetenv("BRIEFHUB_DB_PASSWORD")
		os.Unsetenv("BRIEFHUB_PILOT_ID")
		os.Unsetenv("BRIEFHUB_SIMBRIEF_URL")
	}()

	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.json")
	testCfg := DefaultConfig()
	testCfg.Server.Port = "8080"
	testCfg.Database.Password = "original-password"
	testCfg.Simbrief.PilotID = "original-pilot"

	data, _ := json.Marshal(testCfg)
	os.WriteFile(configPath, data, 0644)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Server.Port != "7777" {
		t.Errorf("Expected port 7777 from env, got %s", cfg.Server.Port)
	}
	if cfg.Database.Password != "env-password" {
		t.Errorf("Expected env-password from env, got %s", cfg.Database.Password)
	}
	if cfg.Simbrief.PilotID != "env-pilot" {
		t.Errorf("Expected env-pilot from env, got %s", cfg.Simbrief.PilotID)
	}
	if cfg.Simbrief.BaseURL != "https://env.example.com/fetch" {
		t.Errorf("Expected SimBrief URL from env, got %s", cfg.Simbrief.BaseURL)
	}
}

// TestConfigRoundTrip tests saving and loading config preserves data.
func TestConfigRoundTrip(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "roundtrip.json")

	original := DefaultConfig()
	original.Server.Port = "3000"
	original.CDM.Servers = append(original.CDM.Servers, CDMServer{
		Name:     "extra provider",
		Enabled:  false,
		Protocol: "feed_list",
		URL:      "https://extra.example.com",
	})
	original.CDM.RequestsPerSecond = 4.5

	if err := original.Save(configPath); err != nil {
		t.Fatalf("Failed to save: %v", err)
	}

	loaded, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load: %v", err)
	}

	if loaded.Server.Port != original.Server.Port {
		t.Error("Port not preserved in round trip")
	}
	if len(loaded.CDM.Servers) != len(original.CDM.Servers) {
		t.Error("CDM providers not preserved in round trip")
	}
	if loaded.CDM.RequestsPerSecond != original.CDM.RequestsPerSecond {
		t.Error("Rate limit not preserved in round trip")
	}
}
