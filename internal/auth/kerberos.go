// Kerberos/GSSAPI authentication, grounded on the keytab/krb5.conf loading
// pattern in pkg/auth/kerberos.Provider, adapted from a server-side ticket
// verifier into a client-side ticket requester: instead of accepting
// AP-REQs, KerberosClient obtains a service ticket and wraps it as the
// GSSAPI initial token the SASL GSSAPI mechanism sends to the server.
package auth

import (
	"context"
	"encoding/asn1"
	"fmt"
	"os"
	"sync"

	"github.com/jcmturner/gokrb5/v8/client"
	krb5config "github.com/jcmturner/gokrb5/v8/config"
	"github.com/jcmturner/gokrb5/v8/keytab"
	"github.com/jcmturner/gokrb5/v8/messages"
	"github.com/jcmturner/gokrb5/v8/types"

	"github.com/couchbase/gocbcorex/internal/memdx"
)

// krb5OID is the Kerberos v5 GSS-API mechanism OID (1.2.840.113554.1.2.2),
// prefixed onto the AP-REQ token per RFC 4121 §4.1.
var krb5OID = asn1.ObjectIdentifier{1, 2, 840, 113554, 1, 2, 2}

// KerberosConfig selects how KerberosClient obtains its Kerberos identity.
type KerberosConfig struct {
	Realm string
	// Krb5ConfPath defaults to /etc/krb5.conf.
	Krb5ConfPath string

	// Username names the client principal. KeytabPath, when set, supplies
	// its keys; otherwise Password is used.
	Username     string
	Password     string
	KeytabPath   string

	// ServiceName is the SASL service name the server registers under,
	// e.g. "couchbase"; the service principal requested is
	// ServiceName/host@Realm.
	ServiceName string
}

// KerberosClient lazily logs into the KDC and mints GSSAPI drivers for
// each bootstrap attempt against a given host.
type KerberosClient struct {
	cfg KerberosConfig

	mu      sync.Mutex
	krbConf *krb5config.Config
	kt      *keytab.Keytab
	cl      *client.Client

	// Host is set by the caller (the babysitter, per-target) before each
	// NewDriver call since the service principal is host-qualified.
	Host string
}

// NewKerberosClient constructs a client from cfg without yet contacting the
// KDC; the first NewDriver call performs the login.
func NewKerberosClient(cfg KerberosConfig) (*KerberosClient, error) {
	if cfg.Krb5ConfPath == "" {
		cfg.Krb5ConfPath = "/etc/krb5.conf"
	}
	krbConf, err := krb5config.Load(cfg.Krb5ConfPath)
	if err != nil {
		return nil, fmt.Errorf("kerberos: load %s: %w", cfg.Krb5ConfPath, err)
	}

	kc := &KerberosClient{cfg: cfg, krbConf: krbConf}

	if cfg.KeytabPath != "" {
		kt, err := loadKeytab(cfg.KeytabPath)
		if err != nil {
			return nil, fmt.Errorf("kerberos: load keytab %s: %w", cfg.KeytabPath, err)
		}
		kc.kt = kt
	}

	return kc, nil
}

func (kc *KerberosClient) loginLocked() error {
	if kc.cl != nil {
		return nil
	}
	if kc.kt != nil {
		kc.cl = client.NewWithKeytab(kc.cfg.Username, kc.cfg.Realm, kc.kt, kc.krbConf, client.DisablePAFXFAST(true))
	} else {
		kc.cl = client.NewWithPassword(kc.cfg.Username, kc.cfg.Realm, kc.cfg.Password, kc.krbConf, client.DisablePAFXFAST(true))
	}
	return kc.cl.Login()
}

// NewDriver logs in if necessary and requests a service ticket for
// ServiceName/kc.Host, returning a MechanismDriver that produces the GSSAPI
// initial token (AP-REQ) and accepts the server's AP-REP reply.
func (kc *KerberosClient) NewDriver(ctx context.Context) (memdx.MechanismDriver, error) {
	kc.mu.Lock()
	defer kc.mu.Unlock()

	if err := kc.loginLocked(); err != nil {
		return nil, fmt.Errorf("kerberos: login: %w", err)
	}

	spn := kc.cfg.ServiceName + "/" + kc.Host
	tkt, sessionKey, err := kc.cl.GetServiceTicket(spn)
	if err != nil {
		return nil, fmt.Errorf("kerberos: get service ticket for %s: %w", spn, err)
	}

	return &gssapiDriver{client: kc.cl, ticket: tkt, sessionKey: sessionKey}, nil
}

// gssapiDriver implements memdx.MechanismDriver for GSSAPI: the initial
// response is the AP-REQ wrapped in the RFC 4121 GSS-API token header; the
// single expected step response is the server's AP-REP, which is only
// checked for being well-formed; its encrypted part is not decrypted or
// compared against the session key.
type gssapiDriver struct {
	client     *client.Client
	ticket     messages.Ticket
	sessionKey types.EncryptionKey
}

func (g *gssapiDriver) Name() string { return memdx.SASLMechGSSAPI }

func (g *gssapiDriver) InitialResponse() ([]byte, error) {
	auth, err := types.NewAuthenticator(g.ticket.Realm, g.client.Credentials.CName())
	if err != nil {
		return nil, fmt.Errorf("gssapi: build authenticator: %w", err)
	}
	apReq, err := messages.NewAPReq(g.ticket, g.sessionKey, auth)
	if err != nil {
		return nil, fmt.Errorf("gssapi: build AP-REQ: %w", err)
	}
	reqBytes, err := apReq.Marshal()
	if err != nil {
		return nil, fmt.Errorf("gssapi: marshal AP-REQ: %w", err)
	}
	return wrapGSSAPIToken(reqBytes), nil
}

func (g *gssapiDriver) Step(challenge []byte) ([]byte, bool, error) {
	var apRep messages.APRep
	if err := apRep.Unmarshal(challenge); err != nil {
		return nil, true, fmt.Errorf("gssapi: unmarshal AP-REP: %w", err)
	}
	// A full implementation would decrypt apRep.EncPart with g.sessionKey
	// and compare the embedded timestamp to the one sent in the
	// authenticator; gokrb5's messages package does not expose that check
	// directly, and this driver does not negotiate a GSS security layer,
	// so a well-formed AP-REP is accepted as mutual-auth completion.
	return nil, true, nil
}

// wrapGSSAPIToken wraps an AP-REQ in the RFC 4121 §4.1 GSS-API token
// framing: an APPLICATION 0 tag over the mechanism OID and inner token.
func wrapGSSAPIToken(apReq []byte) []byte {
	oidBytes, _ := asn1.Marshal(krb5OID)
	inner := append(oidBytes, apReq...)
	return append(asn1AppTag(0, len(inner)), inner...)
}

func asn1AppTag(tag int, length int) []byte {
	header := []byte{byte(0x60 | tag)}
	return append(header, asn1Length(length)...)
}

func asn1Length(n int) []byte {
	if n < 128 {
		return []byte{byte(n)}
	}
	var b []byte
	for n > 0 {
		b = append([]byte{byte(n & 0xff)}, b...)
		n >>= 8
	}
	return append([]byte{byte(0x80 | len(b))}, b...)
}

// loadKeytab reads and parses a keytab file, grounded on the same
// read-then-Unmarshal pattern used to load keytabs for verifying incoming
// tickets elsewhere in this codebase.
func loadKeytab(path string) (*keytab.Keytab, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read keytab file: %w", err)
	}
	kt := keytab.New()
	if err := kt.Unmarshal(data); err != nil {
		return nil, fmt.Errorf("parse keytab: %w", err)
	}
	return kt, nil
}
