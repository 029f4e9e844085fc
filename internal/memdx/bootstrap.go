package memdx

import (
	"context"
	"strings"
	"time"

	"github.com/couchbase/gocbcorex/internal/kverrors"
)

// Credentials carries the information needed to authenticate a connection,
// without committing to a particular SASL mechanism; BootstrapOpts.Auth
// resolves which mechanism to try against the server's advertised list.
type Credentials struct {
	Username string
	Password string

	// BearerToken, when set, selects OAUTHBEARER (JWT) authentication
	// instead of password-based SASL.
	BearerToken string

	// Mechanism, when set, drives a multi-round SASL mechanism (SCRAM,
	// GSSAPI) that needs cryptographic or Kerberos state this package does
	// not hold itself; implementations live in internal/auth.
	Mechanism MechanismDriver

	// SupportedMechs restricts which mechanisms the client offers, keyed
	// by SASLMech* constant; nil means "everything Credentials can satisfy".
	SupportedMechs map[string]bool
}

// MechanismDriver drives the client side of a multi-round SASL mechanism.
// memdx only needs this interface to complete the auth/step loop; the
// cryptographic and Kerberos-ticket state backing SCRAM and GSSAPI lives in
// internal/auth, which implements it, keeping the wire-protocol layer free
// of credential-management concerns.
type MechanismDriver interface {
	// Name is the SASLMech* constant this driver handles.
	Name() string
	// InitialResponse builds the client-first message sent with SASLAuth.
	InitialResponse() ([]byte, error)
	// Step consumes one server challenge and produces the next client
	// message. done is true once the driver has nothing further to send,
	// even if the server's own Continue flag says otherwise (GSSAPI's
	// final leg can be a zero-length acceptance the driver must recognize).
	Step(challenge []byte) (response []byte, done bool, err error)
}

// BootstrapOpts configures the ordered handshake a freshly dialed
// connection runs before it is usable.
type BootstrapOpts struct {
	ClientName string
	Features []HelloFeature
	ErrorMapVersion uint16
	Auth *Credentials
	BucketName string
	GetClusterConfig bool

	// Deadline bounds the entire sequence, not each individual step.
	Deadline time.Time
}

// BootstrapResult is what a successful handshake negotiated.
type BootstrapResult struct {
	Features []HelloFeature
	ErrorMap []byte
	SelectedMech string
	ClusterConfig []byte
}

// Bootstrap runs HELLO, GetErrorMap, SASL auth, SelectBucket and
// GetClusterConfig in that fixed order over d, stopping at the first step
// that fails and reporting it via kverrors.BootstrapFailed.
func Bootstrap(ctx context.Context, d *Dispatcher, opts BootstrapOpts) (BootstrapResult, *kverrors.Error) {
	var result BootstrapResult

	hello := HelloRequest{ClientName: opts.ClientName, Features: opts.Features}
	helloResp, err := dispatchAndDecode(ctx, d, hello.Encode, DecodeHelloResponse, opts.Deadline)
	if err != nil {
		return result, kverrors.BootstrapFailed("Hello", err)
	}
	result.Features = helloResp.Features

	if opts.ErrorMapVersion != 0 {
		emReq := GetErrorMapRequest{Version: opts.ErrorMapVersion}
		emResp, err := dispatchAndDecode(ctx, d, emReq.Encode, DecodeGetErrorMapResponse, opts.Deadline)
		if err != nil {
			return result, kverrors.BootstrapFailed("GetErrorMap", err)
		}
		result.ErrorMap = emResp.ErrorMap
	}

	if opts.Auth != nil {
		mech, err := runSASL(ctx, d, opts.Auth, opts.Deadline)
		if err != nil {
			return result, kverrors.BootstrapFailed("SASLAuth", err)
		}
		result.SelectedMech = mech
	}

	if opts.BucketName != "" {
		sel := SelectBucketRequest{BucketName: opts.BucketName}
		if _, err := d.Dispatch(ctx, sel.Encode(0), ResponseContext{}, opts.Deadline); err != nil {
			if err.Kind == kverrors.KindAccess || err.Kind == kverrors.KindKeyNotFound {
				err = kverrors.FromStatus(kverrors.KindUnknownBucketName, "SelectBucket", err.Status)
			}
			return result, kverrors.BootstrapFailed("SelectBucket", err)
		}
	}

	if opts.GetClusterConfig {
		cfgReq := GetClusterConfigRequest{}
		cfgResp, err := dispatchAndDecode(ctx, d, cfgReq.Encode, DecodeGetClusterConfigResponse, opts.Deadline)
		if err != nil {
			return result, kverrors.BootstrapFailed("GetClusterConfig", err)
		}
		result.ClusterConfig = cfgResp.ConfigJSON
	}

	return result, nil
}

type encodeFn func(opaque uint32) Packet
type decodeFn[T any] func(p Packet) (T, *kverrors.Error)

func dispatchAndDecode[T any](ctx context.Context, d *Dispatcher, encode encodeFn, decode decodeFn[T], deadline time.Time) (T, *kverrors.Error) {
	var zero T
	p, err := d.Dispatch(ctx, encode(0), ResponseContext{}, deadline)
	if err != nil {
		return zero, err
	}
	return decode(p)
}

// runSASL performs ListMechs, selects the strongest mutually supported
// mechanism, and drives the auth/step exchange to completion.
func runSASL(ctx context.Context, d *Dispatcher, creds *Credentials, deadline time.Time) (string, *kverrors.Error) {
	listReq := SASLListMechsRequest{}
	serverMechs, err := dispatchAndDecode(ctx, d, listReq.Encode, DecodeSASLListMechsResponse, deadline)
	if err != nil {
		// KeyNotFound here is reported as a transient condition, not a
		// missing bucket: a bucket that is really absent fails at
		// SelectBucket. That reading has not been checked against current
		// server releases.
		if err.Kind == kverrors.KindKeyNotFound {
			return "", kverrors.FromStatus(kverrors.KindTemporaryFailure, "SASLListMechs", err.Status)
		}
		return "", err
	}

	supported := creds.SupportedMechs
	if supported == nil {
		supported = defaultSupportedMechs(creds)
	}

	mech, ok := SelectMechanism(serverMechs, supported)
	if !ok {
		return "", kverrors.New(kverrors.KindAccess, "SASLAuth")
	}

	var initial []byte
	driven := creds.Mechanism != nil && creds.Mechanism.Name() == mech
	switch {
	case mech == SASLMechPlain:
		initial = EncodePlainAuth("", creds.Username, creds.Password)
	case mech == SASLMechJWT && !driven:
		initial = EncodeOAuthBearerAuth("", "", 0, creds.BearerToken)
	case driven:
		var ierr error
		initial, ierr = creds.Mechanism.InitialResponse()
		if ierr != nil {
			return "", kverrors.Wrap(kverrors.KindAccess, "SASLAuth", ierr)
		}
	default:
		return "", kverrors.New(kverrors.KindInvalidArgument, "SASLAuth")
	}

	authReq := SASLAuthRequest{Mechanism: mech, Payload: initial}
	p, dispatchErr := d.Dispatch(ctx, authReq.Encode(0), ResponseContext{}, deadline)
	if dispatchErr != nil {
		return "", dispatchErr
	}
	resp, decErr := DecodeSASLAuthResponse(p)
	if decErr != nil {
		return "", decErr
	}
	for resp.Continue {
		var next []byte
		if driven {
			var done bool
			var serr error
			next, done, serr = creds.Mechanism.Step(resp.ChallengeResponse)
			if serr != nil {
				return "", kverrors.Wrap(kverrors.KindAccess, "SASLAuth", serr)
			}
			if done && len(next) == 0 {
				break
			}
		} else {
			next = resp.ChallengeResponse
		}
		stepReq := SASLStepRequest{Mechanism: mech, Payload: next}
		p, dispatchErr = d.Dispatch(ctx, stepReq.Encode(0), ResponseContext{}, deadline)
		if dispatchErr != nil {
			return "", dispatchErr
		}
		resp, decErr = DecodeSASLAuthResponse(p)
		if decErr != nil {
			return "", decErr
		}
	}

	return mech, nil
}

func defaultSupportedMechs(creds *Credentials) map[string]bool {
	supported := map[string]bool{}
	if creds.Mechanism != nil {
		supported[creds.Mechanism.Name()] = true
	}
	if creds.BearerToken != "" {
		supported[SASLMechJWT] = true
	}
	if creds.Username != "" || creds.Password != "" {
		supported[SASLMechPlain] = true
	}
	if len(supported) == 0 {
		supported[SASLMechPlain] = true
	}
	return supported
}

// HostPlaceholder is the literal the server substitutes with the observed
// peer address in cluster config JSON.
const HostPlaceholder = "$HOST"

// SubstituteHost replaces every occurrence of HostPlaceholder in configJSON
// with host, matching what the Bootstrap Sequencer and vBucket map
// refresher both need to do before parsing node addresses.
func SubstituteHost(configJSON []byte, host string) []byte {
	return []byte(strings.ReplaceAll(string(configJSON), HostPlaceholder, host))
}
