// Package config loads the local configuration of the print server.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"PosPrint/app/security"
)

// ErrConfigNotFound is returned by LoadConfig when no config file exists yet
var ErrConfigNotFound = errors.New("config file not found")

// AppConfig holds all application configuration
type AppConfig struct {
	// Database Configuration
	Database DatabaseConfig `json:"database"`

	// Printer timings
	Printer PrinterConfig `json:"printer"`

	// HTTP / websocket server
	Server ServerConfig `json:"server"`

	// Print event fan-out
	Events EventsConfig `json:"events"`

	Log LogConfig `json:"log"`

	// First run flag
	FirstRun bool `json:"first_run"`
}

// DatabaseConfig holds database connection settings.
// Driver is "sqlite" (Path) or "postgres" (Host, Port, ...).
type DatabaseConfig struct {
	Driver   string `json:"driver"`
	Path     string `json:"path"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Database string `json:"database"`
	Username string `json:"username"`
	Password string `json:"password"`
	SSLMode  string `json:"ssl_mode"`
}

// PrinterConfig holds the transport timings, in milliseconds
type PrinterConfig struct {
	ConnectTimeoutMs int `json:"connect_timeout_ms"`
	SettleDelayMs    int `json:"settle_delay_ms"`
	DrainDelayMs     int `json:"drain_delay_ms"`
	GracePeriodMs    int `json:"grace_period_ms"`
	Width            int `json:"width"` // Printable columns
}

// ConnectTimeout returns the connect safety window
func (p PrinterConfig) ConnectTimeout() time.Duration {
	return time.Duration(p.ConnectTimeoutMs) * time.Millisecond
}

// SettleDelay returns the wait between connect and write
func (p PrinterConfig) SettleDelay() time.Duration {
	return time.Duration(p.SettleDelayMs) * time.Millisecond
}

// DrainDelay returns the wait between write and close
func (p PrinterConfig) DrainDelay() time.Duration {
	return time.Duration(p.DrainDelayMs) * time.Millisecond
}

// GracePeriod returns how long the printer stays busy after a job
func (p PrinterConfig) GracePeriod() time.Duration {
	return time.Duration(p.GracePeriodMs) * time.Millisecond
}

// ServerConfig holds the print API settings
type ServerConfig struct {
	Addr        string `json:"addr"`
	EnableMDNS  bool   `json:"enable_mdns"`
	ServiceName string `json:"service_name"`
}

// EventsConfig holds the NATS settings. An empty URL disables NATS.
type EventsConfig struct {
	NATSURL string `json:"nats_url"`
	Subject string `json:"subject"`
}

// LogConfig holds logging settings
type LogConfig struct {
	Dir      string `json:"dir"`
	KeepDays int    `json:"keep_days"`
}

// GetConfigDir returns the directory holding config.json and the key file.
// POSPRINT_HOME overrides the user config directory.
func GetConfigDir() (string, error) {
	dir := os.Getenv("POSPRINT_HOME")
	if dir == "" {
		userDir, err := os.UserConfigDir()
		if err != nil {
			return "", fmt.Errorf("could not determine config directory: %w", err)
		}
		dir = filepath.Join(userDir, "PosPrint")
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("could not create config directory: %w", err)
	}
	return dir, nil
}

// GetConfigPath returns the path to the config file
func GetConfigPath() (string, error) {
	dir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

func vault() (*security.Vault, error) {
	dir, err := GetConfigDir()
	if err != nil {
		return nil, err
	}
	return security.NewVault(dir), nil
}

// Default returns the built-in configuration
func Default() *AppConfig {
	return &AppConfig{
		Database: DatabaseConfig{
			Driver:   "sqlite",
			Path:     "./data/posprint.db",
			Host:     "localhost",
			Port:     5432,
			Database: "posprint",
			Username: "postgres",
			SSLMode:  "disable",
		},
		Printer: PrinterConfig{
			ConnectTimeoutMs: 5000,
			SettleDelayMs:    100,
			DrainDelayMs:     2000,
			GracePeriodMs:    1000,
			Width:            46,
		},
		Server: ServerConfig{
			Addr:        ":8080",
			EnableMDNS:  true,
			ServiceName: "PosPrint",
		},
		Events: EventsConfig{
			Subject: "posprint.jobs",
		},
		Log: LogConfig{
			KeepDays: 30,
		},
		FirstRun: true,
	}
}

// LoadConfig loads configuration from config.json and decrypts sensitive fields
func LoadConfig() (*AppConfig, error) {
	configPath, err := GetConfigPath()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(configPath)
	if os.IsNotExist(err) {
		return nil, ErrConfigNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("could not read config file: %w", err)
	}

	// Missing keys keep their defaults
	cfg := Default()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("could not parse config file: %w", err)
	}

	if cfg.Database.Password != "" {
		v, err := vault()
		if err != nil {
			return nil, err
		}
		cfg.Database.Password = v.DecryptOrPlain(cfg.Database.Password)
	}

	return cfg, nil
}

// SaveConfig saves configuration to config.json after encrypting sensitive fields
func SaveConfig(cfg *AppConfig) error {
	configPath, err := GetConfigPath()
	if err != nil {
		return err
	}

	// Encrypt on a copy so the caller keeps the plain password
	cfgCopy := *cfg
	if cfgCopy.Database.Password != "" {
		v, err := vault()
		if err != nil {
			return err
		}
		cfgCopy.Database.Password, err = v.Encrypt(cfgCopy.Database.Password)
		if err != nil {
			return fmt.Errorf("could not encrypt database password: %w", err)
		}
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
	cfg := Default()
	if err := SaveConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load reads .env files, then config.json (creating it on first run), then
// applies environment overrides and validates the result.
func Load(envFiles ...string) (*AppConfig, error) {
	if err := LoadEnvFiles(envFiles...); err != nil {
		return nil, err
	}

	cfg, err := LoadConfig()
	if errors.Is(err, ErrConfigNotFound) {
		cfg, err = CreateDefaultConfig()
	}
	if err != nil {
		return nil, err
	}

	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadEnvFiles loads .env files into the process environment. Missing files
// are skipped. Variables already set are not overwritten.
func LoadEnvFiles(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, file := range files {
		if _, err := os.Stat(file); os.IsNotExist(err) {
			continue
		}
		if err := godotenv.Load(file); err != nil {
			return fmt.Errorf("could not load %s: %w", file, err)
		}
	}
	return nil
}

// ApplyEnv overrides fields from environment variables
func (cfg *AppConfig) ApplyEnv() error {
	setString := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	setInt := func(key string, dst *int) error {
		v := os.Getenv(key)
		if v == "" {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", key, err)
		}
		*dst = n
		return nil
	}

	setString("POSPRINT_DB_DRIVER", &cfg.Database.Driver)
	setString("POSPRINT_DB_PATH", &cfg.Database.Path)
	setString("DB_HOST", &cfg.Database.Host)
	setString("DB_NAME", &cfg.Database.Database)
	setString("DB_USER", &cfg.Database.Username)
	setString("DB_PASSWORD", &cfg.Database.Password)
	setString("DB_SSLMODE", &cfg.Database.SSLMode)
	setString("POSPRINT_HTTP_ADDR", &cfg.Server.Addr)
	setString("NATS_URL", &cfg.Events.NATSURL)
	setString("POSPRINT_LOG_DIR", &cfg.Log.Dir)

	for key, dst := range map[string]*int{
		"DB_PORT":                     &cfg.Database.Port,
		"POSPRINT_CONNECT_TIMEOUT_MS": &cfg.Printer.ConnectTimeoutMs,
		"POSPRINT_SETTLE_DELAY_MS":    &cfg.Printer.SettleDelayMs,
		"POSPRINT_DRAIN_DELAY_MS":     &cfg.Printer.DrainDelayMs,
		"POSPRINT_GRACE_PERIOD_MS":    &cfg.Printer.GracePeriodMs,
	} {
		if err := setInt(key, dst); err != nil {
			return err
		}
	}

	if v := os.Getenv("POSPRINT_MDNS"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid POSPRINT_MDNS: %w", err)
		}
		cfg.Server.EnableMDNS = enabled
	}
	return nil
}

// Validate checks the values the print path depends on
func (cfg *AppConfig) Validate() error {
	switch cfg.Database.Driver {
	case "sqlite":
		if cfg.Database.Path == "" {
			return errors.New("database.path is required for sqlite")
		}
	case "postgres":
		if cfg.Database.Host == "" || cfg.Database.Database == "" {
			return errors.New("database.host and database.database are required for postgres")
		}
	default:
		return fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
	}

	if cfg.Printer.ConnectTimeoutMs <= 0 {
		return errors.New("printer.connect_timeout_ms must be positive")
	}
	if cfg.Printer.SettleDelayMs < 0 || cfg.Printer.DrainDelayMs < 0 || cfg.Printer.GracePeriodMs < 0 {
		return errors.New("printer delays must not be negative")
	}
	if cfg.Printer.Width < 20 {
		return fmt.Errorf("printer.width %d is too narrow", cfg.Printer.Width)
	}
	if cfg.Server.Addr == "" {
		return errors.New("server.addr is required")
	}
	return nil
}
