// Package kvconfig loads the layered configuration for a gocbcorex Agent:
// CLI flags, then GOCBCOREX_*-prefixed environment variables, then a YAML
// config file, then built-in defaults, in that order of precedence.
// Environment variables only override keys the config file sets (see Load).
package kvconfig

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config is the complete configuration for a gocbcorex Agent.
//
// Configuration sources, highest precedence first:
//  1. CLI flags (bound by cmd/gocbkvcli)
//  2. Environment variables (GOCBCOREX_*)
//  3. Configuration file (YAML)
//  4. Default values
type Config struct {
	// Logging controls structured log output.
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`

	// Telemetry controls OpenTelemetry distributed tracing.
	Telemetry TelemetryConfig `mapstructure:"telemetry" yaml:"telemetry"`

	// Metrics controls the Prometheus metrics HTTP endpoint.
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`

	// Connection configures the cluster seed list, bucket, and the
	// Connection Babysitter's timing policy.
	Connection ConnectionConfig `mapstructure:"connection" yaml:"connection"`

	// TLS configures the transport security used to dial every node.
	TLS TLSConfig `mapstructure:"tls" yaml:"tls"`

	// Auth selects and configures the credential source.
	Auth AuthConfig `mapstructure:"auth" yaml:"auth"`

	// Retry configures the Operation Router's retry strategy.
	Retry RetryConfig `mapstructure:"retry" yaml:"retry"`

	// Orphan configures orphaned-response reporting.
	Orphan OrphanConfig `mapstructure:"orphan" yaml:"orphan"`

	// TopologyCache configures the on-disk vBucket map snapshot cache.
	TopologyCache TopologyCacheConfig `mapstructure:"topology_cache" yaml:"topology_cache"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	// Level is the minimum log level to output.
	// Valid values: DEBUG, INFO, WARN, ERROR (case-insensitive).
	Level string `mapstructure:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error" yaml:"level"`

	// Format is the log output encoding.
	// Valid values: text, json.
	Format string `mapstructure:"format" validate:"required,oneof=text json" yaml:"format"`

	// Output is where logs are written: stdout, stderr, or a file path.
	Output string `mapstructure:"output" validate:"required" yaml:"output"`
}

// TelemetryConfig holds OpenTelemetry tracing and Pyroscope profiling
// settings. Nothing in this module passes it to telemetry.Init or
// telemetry.InitProfiling.
type TelemetryConfig struct {
	// Enabled turns on trace export. Default: false.
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Endpoint is the OTLP gRPC collector address (host:port).
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint"`

	// Insecure disables TLS on the OTLP connection.
	Insecure bool `mapstructure:"insecure" yaml:"insecure"`

	// SampleRate is the fraction of traces to sample, 0.0 to 1.0.
	SampleRate float64 `mapstructure:"sample_rate" validate:"omitempty,gte=0,lte=1" yaml:"sample_rate"`

	// Profiling configures optional Pyroscope continuous profiling.
	Profiling ProfilingConfig `mapstructure:"profiling" yaml:"profiling"`
}

// ProfilingConfig controls Pyroscope continuous profiling.
type ProfilingConfig struct {
	Enabled      bool     `mapstructure:"enabled" yaml:"enabled"`
	Endpoint     string   `mapstructure:"endpoint" yaml:"endpoint"`
	ProfileTypes []string `mapstructure:"profile_types" yaml:"profile_types,omitempty"`
}

// MetricsConfig holds settings for a Prometheus metrics HTTP endpoint.
// Nothing in this module reads it; cmd/gocbkvcli serves no HTTP endpoint.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
	Port    int  `mapstructure:"port" validate:"omitempty,min=1,max=65535" yaml:"port"`
}

// ConnectionConfig configures cluster discovery and connection lifecycle.
type ConnectionConfig struct {
	// Seeds is the initial node address list, "host:port" pairs.
	Seeds []string `mapstructure:"seeds" validate:"required,min=1,dive,required" yaml:"seeds"`

	// Bucket is the bucket this Agent selects during bootstrap.
	Bucket string `mapstructure:"bucket" validate:"required" yaml:"bucket"`

	// BootstrapTimeout bounds a single connection's dial+HELLO+auth+select.
	BootstrapTimeout time.Duration `mapstructure:"bootstrap_timeout" yaml:"bootstrap_timeout"`

	// ConnectThrottlePeriod is the minimum spacing between consecutive
	// reconnect attempts on one endpoint after a failure.
	ConnectThrottlePeriod time.Duration `mapstructure:"connect_throttle_period" yaml:"connect_throttle_period"`

	// OnDemandConnect builds connections lazily on first use instead of
	// eagerly maintaining every babysitter.
	OnDemandConnect bool `mapstructure:"on_demand_connect" yaml:"on_demand_connect"`
}

// TLSConfig configures the transport security used to dial KV nodes.
type TLSConfig struct {
	Enabled            bool   `mapstructure:"enabled" yaml:"enabled"`
	CAFile             string `mapstructure:"ca_file" yaml:"ca_file,omitempty"`
	CertFile           string `mapstructure:"cert_file" yaml:"cert_file,omitempty"`
	KeyFile            string `mapstructure:"key_file" yaml:"key_file,omitempty"`
	InsecureSkipVerify bool   `mapstructure:"insecure_skip_verify" yaml:"insecure_skip_verify"`
}

// AuthConfig selects and configures the credential source.
type AuthConfig struct {
	// Type selects the mechanism family: "password", "jwt", or "kerberos".
	Type string `mapstructure:"type" validate:"required,oneof=password jwt kerberos" yaml:"type"`

	Password PasswordAuthConfig `mapstructure:"password" yaml:"password,omitempty"`
	JWT      JWTAuthConfig      `mapstructure:"jwt" yaml:"jwt,omitempty"`
	Kerberos KerberosAuthConfig `mapstructure:"kerberos" yaml:"kerberos,omitempty"`
}

// PasswordAuthConfig configures PLAIN/SCRAM username+password auth.
type PasswordAuthConfig struct {
	Username string `mapstructure:"username" yaml:"username,omitempty"`
	Password string `mapstructure:"password" yaml:"password,omitempty"`
}

// JWTAuthConfig configures bearer-token auth. Exactly one of Token or
// TokenFile should be set; TokenFile is re-read on every call to the
// provider's Credentials, and takes precedence when both are set.
type JWTAuthConfig struct {
	Token     string `mapstructure:"token" yaml:"token,omitempty"`
	TokenFile string `mapstructure:"token_file" yaml:"token_file,omitempty"`
}

// KerberosAuthConfig configures GSSAPI auth. Username names the client
// principal; KeytabPath, when set, supplies its keys, otherwise Password
// is used.
type KerberosAuthConfig struct {
	Realm        string `mapstructure:"realm" yaml:"realm,omitempty"`
	Krb5ConfPath string `mapstructure:"krb5_conf_path" yaml:"krb5_conf_path,omitempty"`
	Username     string `mapstructure:"username" yaml:"username,omitempty"`
	Password     string `mapstructure:"password" yaml:"password,omitempty"`
	KeytabPath   string `mapstructure:"keytab_path" yaml:"keytab_path,omitempty"`
	ServiceName  string `mapstructure:"service_name" yaml:"service_name,omitempty"`
}

// RetryConfig configures the Operation Router's default retry strategy.
type RetryConfig struct {
	MaxAttempts int           `mapstructure:"max_attempts" validate:"omitempty,min=0" yaml:"max_attempts"`
	BaseDelay   time.Duration `mapstructure:"base_delay" yaml:"base_delay"`
}

// OrphanConfig configures orphaned-response reporting.
type OrphanConfig struct {
	// Durable enables the optional PostgreSQL-backed orphan journal
	// alongside the always-on log sink. Default: false.
	Durable bool `mapstructure:"durable" yaml:"durable"`

	// PostgresDSN is the connection string for the durable sink. Required
	// when Durable is true.
	PostgresDSN string `mapstructure:"postgres_dsn" validate:"required_if=Durable true" yaml:"postgres_dsn,omitempty"`
}

// TopologyCacheConfig configures the embedded BadgerDB that persists the
// last-accepted vBucket map, so a restarted Agent can route operations
// against a stale-but-usable topology when no seed can be bootstrapped at
// startup.
type TopologyCacheConfig struct {
	// Enabled turns on the on-disk snapshot cache. Default: false.
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Path is the BadgerDB directory. Required when Enabled is true.
	Path string `mapstructure:"path" validate:"required_if=Enabled true" yaml:"path,omitempty"`
}

// Load loads configuration from file, environment, and defaults. A
// GOCBCOREX_* environment variable overrides only a key that the config
// file sets; when no config file is found, Load returns DefaultConfig()
// without reading the environment.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setupViper(v, configPath)

	found, err := readConfigFile(v)
	if err != nil {
		return nil, err
	}

	if !found {
		cfg := DefaultConfig()
		return cfg, nil
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(durationDecodeHook())); err != nil {
		return nil, fmt.Errorf("kvconfig: unmarshal: %w", err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("kvconfig: validation failed: %w", err)
	}

	return &cfg, nil
}

// Save writes cfg to path in YAML, creating parent directories as needed.
func Save(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("kvconfig: create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("kvconfig: marshal: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("kvconfig: write config file: %w", err)
	}
	return nil
}

func setupViper(v *viper.Viper, configPath string) {
	v.SetEnvPrefix("GOCBCOREX")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		return
	}
	dir := defaultConfigDir()
	v.AddConfigPath(dir)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
}

func readConfigFile(v *viper.Viper) (bool, error) {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return false, nil
		}
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("kvconfig: read config file: %w", err)
	}
	return true, nil
}

func durationDecodeHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != reflect.TypeOf(time.Duration(0)) {
			return data, nil
		}
		switch v := data.(type) {
		case string:
			return time.ParseDuration(v)
		case int:
			return time.Duration(v), nil
		case int64:
			return time.Duration(v), nil
		case float64:
			return time.Duration(v), nil
		default:
			return data, nil
		}
	}
}

func defaultConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "gocbkvcli")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "gocbkvcli")
}

// DefaultConfigPath returns the default configuration file path.
func DefaultConfigPath() string {
	return filepath.Join(defaultConfigDir(), "config.yaml")
}

// DefaultConfigExists reports whether a config file exists at the default
// location.
func DefaultConfigExists() bool {
	_, err := os.Stat(DefaultConfigPath())
	return err == nil
}
