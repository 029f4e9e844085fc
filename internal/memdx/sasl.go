package memdx

import "github.com/couchbase/gocbcorex/internal/kverrors"

// SASLListMechsRequest asks the server which SASL mechanisms it supports,
// the first step of credential negotiation.
type SASLListMechsRequest struct{}

func (r SASLListMechsRequest) Encode(opaque uint32) Packet {
	return Packet{Magic: MagicReq, OpCode: OpCodeSASLListMechs, Opaque: opaque}
}

func DecodeSASLListMechsResponse(p Packet) ([]string, *kverrors.Error) {
	if err := responseError(p, "SASLListMechs", ClassifyOpts{}); err != nil {
		return nil, err
	}
	return splitMechs(p.Value), nil
}

func splitMechs(value []byte) []string {
	var mechs []string
	start := 0
	for i, b := range value {
		if b == ' ' {
			if i > start {
				mechs = append(mechs, string(value[start:i]))
			}
			start = i + 1
		}
	}
	if start < len(value) {
		mechs = append(mechs, string(value[start:]))
	}
	return mechs
}

// SASLAuthRequest performs the initial step of a SASL exchange.
type SASLAuthRequest struct {
	Mechanism string
	Payload []byte
}

func (r SASLAuthRequest) Encode(opaque uint32) Packet {
	return Packet{Magic: MagicReq, OpCode: OpCodeSASLAuth, Opaque: opaque, Key: []byte(r.Mechanism), Value: r.Payload}
}

// SASLStepRequest continues a multi-step SASL exchange (e.g. SCRAM).
type SASLStepRequest struct {
	Mechanism string
	Payload []byte
}

func (r SASLStepRequest) Encode(opaque uint32) Packet {
	return Packet{Magic: MagicReq, OpCode: OpCodeSASLStep, Opaque: opaque, Key: []byte(r.Mechanism), Value: r.Payload}
}

// SASLAuthResponse is the decoded result of a SASLAuth/SASLStep exchange.
// Continue is true when the server returned StatusAuthContinue and
// ChallengeResponse must be fed to a further SASLStepRequest.
type SASLAuthResponse struct {
	Continue bool
	ChallengeResponse []byte
}

func DecodeSASLAuthResponse(p Packet) (SASLAuthResponse, *kverrors.Error) {
	if p.Status == StatusAuthContinue {
		return SASLAuthResponse{Continue: true, ChallengeResponse: p.Value}, nil
	}
	if err := responseError(p, "SASLAuth", ClassifyOpts{}); err != nil {
		return SASLAuthResponse{}, err
	}
	return SASLAuthResponse{ChallengeResponse: p.Value}, nil
}

// Standard SASL mechanism names, ordered strongest-first. The client
// selects the strongest mechanism it supports that also appears in the
// server's SASLListMechs response.
const (
	SASLMechJWT = "OAUTHBEARER"
	SASLMechGSSAPI = "GSSAPI"
	SASLMechScramSHA512 = "SCRAM-SHA512"
	SASLMechScramSHA256 = "SCRAM-SHA256"
	SASLMechScramSHA1 = "SCRAM-SHA1"
	SASLMechPlain = "PLAIN"
)

// PreferredMechanismOrder is the client's strongest-to-weakest preference,
// used to select among the server's advertised mechanisms.
var PreferredMechanismOrder = []string{
	SASLMechJWT,
	SASLMechGSSAPI,
	SASLMechScramSHA512,
	SASLMechScramSHA256,
	SASLMechScramSHA1,
	SASLMechPlain,
}

// SelectMechanism picks the strongest mechanism present in both the
// client's supported set and the server's advertised set.
func SelectMechanism(serverMechs []string, clientSupported map[string]bool) (string, bool) {
	serverSet := make(map[string]bool, len(serverMechs))
	for _, m := range serverMechs {
		serverSet[m] = true
	}
	for _, m := range PreferredMechanismOrder {
		if clientSupported[m] && serverSet[m] {
			return m, true
		}
	}
	return "", false
}

// EncodePlainAuth builds the PLAIN mechanism's initial response:
// authzid NUL authcid NUL passwd.
func EncodePlainAuth(authzid, username, password string) []byte {
	out := make([]byte, 0, len(authzid)+len(username)+len(password)+2)
	out = append(out, authzid...)
	out = append(out, 0)
	out = append(out, username...)
	out = append(out, 0)
	out = append(out, password...)
	return out
}

// EncodeOAuthBearerAuth builds the OAUTHBEARER initial response carrying a
// bearer token, used for JWT single-shot authentication (Supplemented
// Feature: JWT auth mechanism).
func EncodeOAuthBearerAuth(authzid, host string, port uint16, token string) []byte {
	gs2Header := "n,a=" + authzid + ","
	authField := "auth=Bearer " + token
	msg := gs2Header + "\x01host=" + host + "\x01port=" + itoa(uint32(port)) + "\x01" + authField + "\x01\x01"
	return []byte(msg)
}

func itoa(v uint32) string {
	if v == 0 {
		return "0"
	}
	var buf [10]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	return string(buf[i:])
}
