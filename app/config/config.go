package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"InventoryApp/app/security"
)

// Supported database drivers
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// AppConfig holds all application configuration
type AppConfig struct {
	// Database Configuration
	Database DatabaseConfig `json:"database"`

	// Business Information
	Business BusinessConfig `json:"business"`

	// System Configuration
	System SystemConfig `json:"system"`

	// First run flag
	FirstRun bool `json:"first_run"`
}

// DatabaseConfig holds database connection settings. Path is used by the
// sqlite driver; the remaining fields only matter for postgres installations.
type DatabaseConfig struct {
	Driver   string `json:"driver"`
	Path     string `json:"path,omitempty"`
	Host     string `json:"host,omitempty"`
	Port     int    `json:"port,omitempty"`
	Database string `json:"database,omitempty"`
	Username string `json:"username,omitempty"`
	Password string `json:"password,omitempty"`
	SSLMode  string `json:"ssl_mode,omitempty"`
}

// BusinessConfig holds business information
type BusinessConfig struct {
	Name           string `json:"name"`
	Currency       string `json:"currency"`
	CurrencySymbol string `json:"currency_symbol"`
}

// SystemConfig holds system settings
type SystemConfig struct {
	DataPath   string `json:"data_path"`
	ServerPort int    `json:"server_port"`
	Language   string `json:"language"`
}

// GetConfigDir returns the per-user directory holding config and data files
func GetConfigDir() (string, error) {
	appData := os.Getenv("APPDATA")
	if appData == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("could not determine home directory: %w", err)
		}
		appData = filepath.Join(homeDir, ".config")
	}

	configDir := filepath.Join(appData, "InventoryApp")
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return "", fmt.Errorf("could not create config directory: %w", err)
	}

	return configDir, nil
}

// GetConfigPath returns the path to the config file
func GetConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "config.json"), nil
}

// GetDataDir returns the directory for databases, images and logs.
// Honours the configured data_path override when one is set.
func GetDataDir() (string, error) {
	if cfg, err := LoadConfig(); err == nil && cfg.System.DataPath != "" {
		if err := os.MkdirAll(cfg.System.DataPath, 0755); err != nil {
			return "", fmt.Errorf("could not create data directory: %w", err)
		}
		return cfg.System.DataPath, nil
	}

	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	dataDir := filepath.Join(configDir, "data")
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return "", fmt.Errorf("could not create data directory: %w", err)
	}
	return dataDir, nil
}

// LoadConfig loads configuration from config.json and decrypts sensitive fields
func LoadConfig() (*AppConfig, error) {
	configPath, err := GetConfigPath()
	if err != nil {
		return nil, err
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found")
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("could not read config file: %w", err)
	}

	var cfg AppConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("could not parse config file: %w", err)
	}

	cfg.decryptSensitiveFields()
	cfg.applyDefaults()

	return &cfg, nil
}

// LoadOrCreate loads the config file, creating a default one on first run
func LoadOrCreate() (*AppConfig, error) {
	exists, err := ConfigExists()
	if err != nil {
		return nil, err
	}
	if !exists {
		return CreateDefaultConfig()
	}
	return LoadConfig()
}

// SaveConfig saves configuration to config.json after encrypting sensitive fields
func SaveConfig(cfg *AppConfig) error {
	configPath, err := GetConfigPath()
	if err != nil {
		return err
	}

	// Encrypt a copy so the caller's config stays usable
	cfgCopy := *cfg
	if err := cfgCopy.encryptSensitiveFields(); err != nil {
		return fmt.Errorf("could not encrypt sensitive fields: %w", err)
	}

	data, err := json.MarshalIndent(&cfgCopy, "", "  ")
	if err != nil {
		return fmt.Errorf("could not marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("could not write config file: %w", err)
	}

	return nil
}

// ConfigExists checks if config file exists
func ConfigExists() (bool, error) {
	configPath, err := GetConfigPath()
	if err != nil {
		return false, err
	}

	_, err = os.Stat(configPath)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	return true, nil
}

// CreateDefaultConfig creates a default configuration file
func CreateDefaultConfig() (*AppConfig, error) {
	cfg := &AppConfig{
		Database: DatabaseConfig{
			Driver: DriverSQLite,
		},
		Business: BusinessConfig{
			Name:           "My Kitchen",
			Currency:       "USD",
			CurrencySymbol: "$",
		},
		System: SystemConfig{
			ServerPort: 8090,
			Language:   "en",
		},
		FirstRun: true,
	}
	cfg.applyDefaults()

	if err := SaveConfig(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// MarkSetupComplete marks the first run as complete
func MarkSetupComplete() error {
	cfg, err := LoadConfig()
	if err != nil {
		return err
	}

	cfg.FirstRun = false
	return SaveConfig(cfg)
}

// applyDefaults fills zero values that older config files may miss
func (cfg *AppConfig) applyDefaults() {
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = DriverSQLite
	}
	if cfg.Database.Driver == DriverPostgres {
		if cfg.Database.Host == "" {
			cfg.Database.Host = "localhost"
		}
		if cfg.Database.Port == 0 {
			cfg.Database.Port = 5432
		}
		if cfg.Database.SSLMode == "" {
			cfg.Database.SSLMode = "disable"
		}
	}
	if cfg.System.ServerPort == 0 {
		cfg.System.ServerPort = 8090
	}
}

// encryptSensitiveFields encrypts sensitive configuration fields
func (cfg *AppConfig) encryptSensitiveFields() error {
	if cfg.Database.Password != "" {
		encrypted, err := security.Encrypt(cfg.Database.Password)
		if err != nil {
			return fmt.Errorf("could not encrypt database password: %w", err)
		}
		cfg.Database.Password = encrypted
	}
	return nil
}

// decryptSensitiveFields decrypts sensitive configuration fields.
// A field that fails to decrypt is kept as-is, so plain-text values written
// by hand during development keep working.
func (cfg *AppConfig) decryptSensitiveFields() {
	if cfg.Database.Password != "" {
		if decrypted, err := security.Decrypt(cfg.Database.Password); err == nil {
			cfg.Database.Password = decrypted
		}
	}
}
