package kvconfig

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Validate checks cfg's struct tags and the cross-field invariants the tags
// alone can't express (TLS file pairing, auth sub-config presence).
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return err
	}

	switch cfg.Auth.Type {
	case "password":
		if cfg.Auth.Password.Username == "" {
			return fmt.Errorf("auth.password.username is required when auth.type is \"password\"")
		}
	case "jwt":
		if cfg.Auth.JWT.Token == "" && cfg.Auth.JWT.TokenFile == "" {
			return fmt.Errorf("one of auth.jwt.token or auth.jwt.token_file is required when auth.type is \"jwt\"")
		}
	case "kerberos":
		if cfg.Auth.Kerberos.Realm == "" {
			return fmt.Errorf("auth.kerberos.realm is required when auth.type is \"kerberos\"")
		}
		if cfg.Auth.Kerberos.KeytabPath == "" && cfg.Auth.Kerberos.Password == "" {
			return fmt.Errorf("one of auth.kerberos.keytab_path or auth.kerberos.password is required when auth.type is \"kerberos\"")
		}
	}

	if cfg.TLS.Enabled {
		if (cfg.TLS.CertFile == "") != (cfg.TLS.KeyFile == "") {
			return fmt.Errorf("tls.cert_file and tls.key_file must both be set or both be empty")
		}
	}

	return nil
}

// BuildTLSConfig constructs the *tls.Config used to dial every seed node
// from cfg. It returns nil, nil when TLS is disabled.
func BuildTLSConfig(cfg TLSConfig) (*tls.Config, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	tlsCfg := &tls.Config{
		InsecureSkipVerify: cfg.InsecureSkipVerify,
	}

	if cfg.CAFile != "" {
		caPEM, err := os.ReadFile(cfg.CAFile)
		if err != nil {
			return nil, fmt.Errorf("kvconfig: read ca_file: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(caPEM) {
			return nil, fmt.Errorf("kvconfig: ca_file contains no usable certificates")
		}
		tlsCfg.RootCAs = pool
	}

	if cfg.CertFile != "" && cfg.KeyFile != "" {
		cert, err := tls.LoadX509KeyPair(cfg.CertFile, cfg.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("kvconfig: load client key pair: %w", err)
		}
		tlsCfg.Certificates = []tls.Certificate{cert}
	}

	return tlsCfg, nil
}
