// Package auth builds memdx.Credentials for the bootstrap sequencer's SASL
// step, implementing the mechanisms that need state beyond a username and
// password: SCRAM-SHA512 and GSSAPI/Kerberos. Password and JWT
// credentials are already fully handled by internal/memdx directly; this
// package supplies the MechanismDriver those two cannot.
package auth

import (
	"context"
	"fmt"

	"github.com/couchbase/gocbcorex/internal/memdx"
)

// Provider resolves the credentials to present for a given bootstrap
// attempt. Implementations may refresh a token or ticket on each call.
type Provider interface {
	// Credentials returns the memdx.Credentials to bootstrap with,
	// re-resolving any time-limited material (JWT, Kerberos ticket) as
	// needed.
	Credentials(ctx context.Context) (*memdx.Credentials, error)

	// Name identifies the provider for diagnostics.
	Name() string
}

// StaticPasswordProvider authenticates with a fixed username/password via
// PLAIN or SCRAM, selected by whichever the server advertises.
type StaticPasswordProvider struct {
	Username string
	Password string
	// PreferScram forces SCRAM-SHA512 even if the server would also accept
	// PLAIN; unset (false) lets SelectMechanism pick the strongest shared
	// mechanism, which already prefers SCRAM over PLAIN.
	PreferScram bool
}

func (p *StaticPasswordProvider) Name() string { return "password" }

func (p *StaticPasswordProvider) Credentials(ctx context.Context) (*memdx.Credentials, error) {
	scram := NewScramDriver(p.Username, p.Password, memdx.SASLMechScramSHA512)
	// The driver speaks SCRAM-SHA512 only, so that is the one SCRAM
	// variant offered.
	supported := map[string]bool{
		memdx.SASLMechPlain: true,
		memdx.SASLMechScramSHA512: true,
	}
	if p.PreferScram {
		delete(supported, memdx.SASLMechPlain)
	}
	return &memdx.Credentials{
		Username: p.Username,
		Password: p.Password,
		Mechanism: scram,
		SupportedMechs: supported,
	}, nil
}

// JWTProvider authenticates with a bearer token obtained from TokenSource,
// re-fetching it on every bootstrap/reauth attempt so refresh is transparent
// to the babysitter's hot-reauth path.
type JWTProvider struct {
	TokenSource func(ctx context.Context) (string, error)
}

func (p *JWTProvider) Name() string { return "jwt" }

func (p *JWTProvider) Credentials(ctx context.Context) (*memdx.Credentials, error) {
	token, err := p.TokenSource(ctx)
	if err != nil {
		return nil, fmt.Errorf("auth: fetch bearer token: %w", err)
	}
	return &memdx.Credentials{
		BearerToken: token,
		SupportedMechs: map[string]bool{memdx.SASLMechJWT: true},
	}, nil
}

// KerberosProvider authenticates via GSSAPI using an underlying Kerberos
// client (password or keytab based, see kerberos.go).
type KerberosProvider struct {
	Client *KerberosClient
}

func (p *KerberosProvider) Name() string { return "kerberos" }

func (p *KerberosProvider) Credentials(ctx context.Context) (*memdx.Credentials, error) {
	driver, err := p.Client.NewDriver(ctx)
	if err != nil {
		return nil, fmt.Errorf("auth: build GSSAPI driver: %w", err)
	}
	return &memdx.Credentials{
		Mechanism: driver,
		SupportedMechs: map[string]bool{memdx.SASLMechGSSAPI: true},
	}, nil
}
