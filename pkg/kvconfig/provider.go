package kvconfig

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/couchbase/gocbcorex/internal/auth"
)

// BuildAuthProvider constructs the auth.Provider selected by cfg.Type.
func BuildAuthProvider(cfg AuthConfig) (auth.Provider, error) {
	switch cfg.Type {
	case "password":
		return &auth.StaticPasswordProvider{
			Username: cfg.Password.Username,
			Password: cfg.Password.Password,
		}, nil

	case "jwt":
		jwtCfg := cfg.JWT
		return &auth.JWTProvider{
			TokenSource: func(ctx context.Context) (string, error) {
				if jwtCfg.TokenFile != "" {
					data, err := os.ReadFile(jwtCfg.TokenFile)
					if err != nil {
						return "", fmt.Errorf("kvconfig: read jwt.token_file: %w", err)
					}
					return strings.TrimSpace(string(data)), nil
				}
				return jwtCfg.Token, nil
			},
		}, nil

	case "kerberos":
		client, err := auth.NewKerberosClient(auth.KerberosConfig{
			Realm:        cfg.Kerberos.Realm,
			Krb5ConfPath: cfg.Kerberos.Krb5ConfPath,
			Username:     cfg.Kerberos.Username,
			Password:     cfg.Kerberos.Password,
			KeytabPath:   cfg.Kerberos.KeytabPath,
			ServiceName:  cfg.Kerberos.ServiceName,
		})
		if err != nil {
			return nil, fmt.Errorf("kvconfig: build kerberos client: %w", err)
		}
		return &auth.KerberosProvider{Client: client}, nil

	default:
		return nil, fmt.Errorf("kvconfig: unknown auth.type %q", cfg.Type)
	}
}
