package kvconfig

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	cfg := DefaultConfig()
	cfg.Connection.Seeds = []string{"127.0.0.1:11210"}
	cfg.Connection.Bucket = "default"
	cfg.Auth.Type = "password"
	cfg.Auth.Password.Username = "Administrator"
	cfg.Auth.Password.Password = "password"
	return cfg
}

func TestApplyDefaultsFillsZeroValues(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	assert.Equal(t, "INFO", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
	assert.Equal(t, "stderr", cfg.Logging.Output)
	assert.Equal(t, 1.0, cfg.Telemetry.SampleRate)
	assert.Equal(t, 9090, cfg.Metrics.Port)
	assert.Equal(t, 7*time.Second, cfg.Connection.BootstrapTimeout)
	assert.Equal(t, "password", cfg.Auth.Type)
	assert.Equal(t, 3, cfg.Retry.MaxAttempts)
}

func TestApplyDefaultsPreservesSetValues(t *testing.T) {
	cfg := &Config{}
	cfg.Logging.Level = "DEBUG"
	cfg.Retry.MaxAttempts = 10
	ApplyDefaults(cfg)

	assert.Equal(t, "DEBUG", cfg.Logging.Level)
	assert.Equal(t, 10, cfg.Retry.MaxAttempts)
}

func TestValidateRejectsMissingSeeds(t *testing.T) {
	cfg := validConfig()
	cfg.Connection.Seeds = nil

	err := Validate(cfg)
	assert.Error(t, err)
}

func TestValidateRejectsMissingBucket(t *testing.T) {
	cfg := validConfig()
	cfg.Connection.Bucket = ""

	err := Validate(cfg)
	assert.Error(t, err)
}

func TestValidateRejectsPasswordAuthWithoutUsername(t *testing.T) {
	cfg := validConfig()
	cfg.Auth.Password.Username = ""

	err := Validate(cfg)
	assert.Error(t, err)
}

func TestValidateRejectsJWTAuthWithoutTokenOrFile(t *testing.T) {
	cfg := validConfig()
	cfg.Auth.Type = "jwt"

	err := Validate(cfg)
	assert.Error(t, err)
}

func TestValidateAcceptsJWTAuthWithToken(t *testing.T) {
	cfg := validConfig()
	cfg.Auth.Type = "jwt"
	cfg.Auth.JWT.Token = "sometoken"

	err := Validate(cfg)
	assert.NoError(t, err)
}

func TestValidateRejectsMismatchedTLSCertAndKey(t *testing.T) {
	cfg := validConfig()
	cfg.TLS.Enabled = true
	cfg.TLS.CertFile = "cert.pem"

	err := Validate(cfg)
	assert.Error(t, err)
}

func TestValidateAcceptsValidConfig(t *testing.T) {
	cfg := validConfig()
	err := Validate(cfg)
	assert.NoError(t, err)
}

func TestBuildTLSConfigDisabled(t *testing.T) {
	tlsCfg, err := BuildTLSConfig(TLSConfig{Enabled: false})
	require.NoError(t, err)
	assert.Nil(t, tlsCfg)
}

func TestBuildTLSConfigInsecureSkipVerify(t *testing.T) {
	tlsCfg, err := BuildTLSConfig(TLSConfig{Enabled: true, InsecureSkipVerify: true})
	require.NoError(t, err)
	require.NotNil(t, tlsCfg)
	assert.True(t, tlsCfg.InsecureSkipVerify)
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	cfg := validConfig()
	require.NoError(t, Save(cfg, path))

	_, err := os.Stat(path)
	require.NoError(t, err)

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.Connection.Bucket, loaded.Connection.Bucket)
	assert.Equal(t, cfg.Connection.Seeds, loaded.Connection.Seeds)
	assert.Equal(t, cfg.Auth.Password.Username, loaded.Auth.Password.Username)
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "INFO", cfg.Logging.Level)
}
