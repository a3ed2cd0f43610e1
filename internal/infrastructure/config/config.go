package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for Brewlink.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Machine   MachineConfig   `yaml:"machine"`
	Link      LinkConfig      `yaml:"link"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Database  DatabaseConfig  `yaml:"database"`
	MQTT      MQTTConfig      `yaml:"mqtt"`
	API       APIConfig       `yaml:"api"`
	InfluxDB  InfluxDBConfig  `yaml:"influxdb"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// MachineConfig identifies the espresso machine being controlled.
type MachineConfig struct {
	// Address is the machine's BLE address, e.g. "AA:BB:CC:DD:EE:FF".
	Address string `yaml:"address"`

	// Name is a display name for logs and the API.
	Name string `yaml:"name"`

	// TargetTemp is the brew boiler operating temperature in degrees
	// Celsius, used by the power state estimator.
	TargetTemp float64 `yaml:"target_temp"`

	// SettleDelay is the pause between power choreography steps, in
	// seconds.
	SettleDelay int `yaml:"settle_delay"`
}

// LinkConfig selects and tunes the BLE transport.
type LinkConfig struct {
	// Mode is "ble" for a real adapter or "simulator" for the
	// in-process fake (development and tests).
	Mode string `yaml:"mode"`

	// OpTimeout bounds each BLE operation, in seconds.
	OpTimeout int `yaml:"op_timeout"`

	// QueueSize is the connection worker's command queue depth.
	QueueSize int `yaml:"queue_size"`
}

// TelemetryConfig controls the boiler polling monitor.
type TelemetryConfig struct {
	Enabled bool `yaml:"enabled"`

	// PollInterval is the boiler sampling interval, in seconds.
	PollInterval int `yaml:"poll_interval"`
}

// DatabaseConfig contains SQLite database settings.
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Enabled   bool                `yaml:"enabled"`
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	Auth      MQTTAuthConfig      `yaml:"auth"`
	QoS       int                 `yaml:"qos"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection settings.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
	MaxAttempts  int `yaml:"max_attempts"`
}

// APIConfig contains HTTP API server settings.
type APIConfig struct {
	Host     string           `yaml:"host"`
	Port     int              `yaml:"port"`
	Timeouts APITimeoutConfig `yaml:"timeouts"`
	CORS     CORSConfig       `yaml:"cors"`
}

// APITimeoutConfig contains HTTP timeout settings.
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// CORSConfig contains Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
	AllowedMethods []string `yaml:"allowed_methods"`
	AllowedHeaders []string `yaml:"allowed_headers"`
}

// InfluxDBConfig contains InfluxDB connection settings.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: BREWLINK_SECTION_KEY
// For example: BREWLINK_MACHINE_ADDRESS, BREWLINK_DATABASE_PATH
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	// Start with defaults
	cfg := defaultConfig()

	// Read and parse YAML file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	// Apply environment variable overrides
	applyEnvOverrides(cfg)

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Machine: MachineConfig{
			Name:        "espresso",
			TargetTemp:  95.0,
			SettleDelay: 1,
		},
		Link: LinkConfig{
			Mode:      "ble",
			OpTimeout: 10,
			QueueSize: 16,
		},
		Telemetry: TelemetryConfig{
			Enabled:      true,
			PollInterval: 5,
		},
		Database: DatabaseConfig{
			Path:        "./data/brewlink.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "brewlink",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
				MaxAttempts:  0,
			},
		},
		API: APIConfig{
			Host: "0.0.0.0",
			Port: 8080,
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 30,
				Idle:  60,
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: BREWLINK_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// Machine
	if v := os.Getenv("BREWLINK_MACHINE_ADDRESS"); v != "" {
		cfg.Machine.Address = v
	}

	// Link
	if v := os.Getenv("BREWLINK_LINK_MODE"); v != "" {
		cfg.Link.Mode = v
	}

	// Database
	if v := os.Getenv("BREWLINK_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}

	// MQTT
	if v := os.Getenv("BREWLINK_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("BREWLINK_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("BREWLINK_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// API
	if v := os.Getenv("BREWLINK_API_HOST"); v != "" {
		cfg.API.Host = v
	}

	// InfluxDB
	if v := os.Getenv("BREWLINK_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	// Machine validation. The simulator needs no address; a real
	// adapter does.
	if c.Machine.Address == "" && c.Link.Mode != "simulator" {
		errs = append(errs, "machine.address is required (set BREWLINK_MACHINE_ADDRESS environment variable)")
	}
	if c.Machine.TargetTemp <= 0 {
		errs = append(errs, "machine.target_temp must be positive")
	}

	// Link validation
	if c.Link.Mode != "ble" && c.Link.Mode != "simulator" {
		errs = append(errs, "link.mode must be \"ble\" or \"simulator\"")
	}

	// Telemetry validation
	if c.Telemetry.Enabled && c.Telemetry.PollInterval < 1 {
		errs = append(errs, "telemetry.poll_interval must be at least 1 second")
	}

	// Database validation
	if c.Database.Path == "" {
		errs = append(errs, "database.path is required")
	}

	// MQTT validation
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}

	// API validation
	if c.API.Port < 1 || c.API.Port > 65535 {
		errs = append(errs, "api.port must be between 1 and 65535")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// GetSettleDelay returns the power choreography settle delay as a Duration.
func (c *Config) GetSettleDelay() time.Duration {
	return time.Duration(c.Machine.SettleDelay) * time.Second
}

// GetOpTimeout returns the BLE operation timeout as a Duration.
func (c *Config) GetOpTimeout() time.Duration {
	return time.Duration(c.Link.OpTimeout) * time.Second
}

// GetPollInterval returns the telemetry sampling interval as a Duration.
func (c *Config) GetPollInterval() time.Duration {
	return time.Duration(c.Telemetry.PollInterval) * time.Second
}

// GetReadTimeout returns the API read timeout as a Duration.
func (c *Config) GetReadTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Read) * time.Second
}

// GetWriteTimeout returns the API write timeout as a Duration.
func (c *Config) GetWriteTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Write) * time.Second
}

// GetIdleTimeout returns the API idle timeout as a Duration.
func (c *Config) GetIdleTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Idle) * time.Second
}
