package kvconfig

import "time"

// DefaultConfig returns a Config populated entirely with default values,
// suitable as a starting point when no config file is present.
func DefaultConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults fills any zero-valued field of cfg with its default. It is
// safe to call on a partially-populated Config decoded from a file or
// environment variables: already-set fields are left untouched.
func ApplyDefaults(cfg *Config) {
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "INFO"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "text"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stderr"
	}

	if cfg.Telemetry.SampleRate == 0 {
		cfg.Telemetry.SampleRate = 1.0
	}

	if cfg.Metrics.Port == 0 {
		cfg.Metrics.Port = 9090
	}

	if cfg.Connection.BootstrapTimeout == 0 {
		cfg.Connection.BootstrapTimeout = 7 * time.Second
	}
	if cfg.Connection.ConnectThrottlePeriod == 0 {
		cfg.Connection.ConnectThrottlePeriod = 5 * time.Second
	}

	if cfg.Auth.Type == "" {
		cfg.Auth.Type = "password"
	}

	if cfg.Retry.MaxAttempts == 0 {
		cfg.Retry.MaxAttempts = 3
	}
	if cfg.Retry.BaseDelay == 0 {
		cfg.Retry.BaseDelay = 50 * time.Millisecond
	}
}
