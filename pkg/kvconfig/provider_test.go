package kvconfig

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchbase/gocbcorex/internal/auth"
)

func TestBuildAuthProviderPassword(t *testing.T) {
	p, err := BuildAuthProvider(AuthConfig{
		Type:     "password",
		Password: PasswordAuthConfig{Username: "Administrator", Password: "password"},
	})
	require.NoError(t, err)
	assert.Equal(t, "password", p.Name())

	creds, err := p.Credentials(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Administrator", creds.Username)
}

func TestBuildAuthProviderJWTWithInlineToken(t *testing.T) {
	p, err := BuildAuthProvider(AuthConfig{
		Type: "jwt",
		JWT:  JWTAuthConfig{Token: "abc.def.ghi"},
	})
	require.NoError(t, err)

	creds, err := p.Credentials(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "abc.def.ghi", creds.BearerToken)
}

func TestBuildAuthProviderJWTWithTokenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token")
	require.NoError(t, os.WriteFile(path, []byte("from-file-token\n"), 0o600))

	p, err := BuildAuthProvider(AuthConfig{
		Type: "jwt",
		JWT:  JWTAuthConfig{TokenFile: path},
	})
	require.NoError(t, err)

	creds, err := p.Credentials(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "from-file-token", creds.BearerToken)
}

func TestBuildAuthProviderUnknownType(t *testing.T) {
	_, err := BuildAuthProvider(AuthConfig{Type: "carrier-pigeon"})
	assert.Error(t, err)
}

func TestBuildAuthProviderKerberosReturnsWiredProvider(t *testing.T) {
	krb5Conf := filepath.Join(t.TempDir(), "krb5.conf")
	require.NoError(t, os.WriteFile(krb5Conf, []byte("[libdefaults]\n    default_realm = EXAMPLE.COM\n"), 0o600))

	p, err := BuildAuthProvider(AuthConfig{
		Type: "kerberos",
		Kerberos: KerberosAuthConfig{
			Realm:        "EXAMPLE.COM",
			Krb5ConfPath: krb5Conf,
			Username:     "kvclient",
			Password:     "secret",
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "kerberos", p.Name())
	_, ok := p.(*auth.KerberosProvider)
	assert.True(t, ok)
}
