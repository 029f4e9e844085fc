package auth

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/base64"
	"fmt"
	"hash"
	"strconv"
	"strings"

	"golang.org/x/crypto/pbkdf2"

	"github.com/couchbase/gocbcorex/internal/memdx"
)

// scramDriver implements memdx.MechanismDriver for SCRAM-SHA{1,256,512}
// (RFC 5802), driven as a two-round exchange: client-first -> server-first
// -> client-final -> server-final. The server's signature on the final
// message is verified before the driver reports done, so a forged
// server-final cannot be mistaken for success.
type scramDriver struct {
	mech     string
	hashFn   func() hash.Hash
	username string
	password string

	clientNonce  string
	clientFirstBare string
	salt         []byte
	iterations   int
	serverSig    []byte
	step         int
}

// NewScramDriver returns a MechanismDriver for mech, one of
// memdx.SASLMechScramSHA{1,256,512}.
func NewScramDriver(username, password, mech string) memdx.MechanismDriver {
	var hashFn func() hash.Hash
	switch mech {
	case memdx.SASLMechScramSHA512:
		hashFn = sha512.New
	case memdx.SASLMechScramSHA256:
		hashFn = sha256.New
	default:
		hashFn = sha1.New
		mech = memdx.SASLMechScramSHA1
	}
	return &scramDriver{mech: mech, hashFn: hashFn, username: username, password: password}
}

func (d *scramDriver) Name() string { return d.mech }

func (d *scramDriver) InitialResponse() ([]byte, error) {
	nonce := make([]byte, 18)
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("scram: generate nonce: %w", err)
	}
	d.clientNonce = base64.StdEncoding.EncodeToString(nonce)
	d.clientFirstBare = "n=" + scramEscape(d.username) + ",r=" + d.clientNonce
	return []byte("n,," + d.clientFirstBare), nil
}

func (d *scramDriver) Step(challenge []byte) ([]byte, bool, error) {
	d.step++
	switch d.step {
	case 1:
		return d.handleServerFirst(challenge)
	case 2:
		return nil, true, d.verifyServerFinal(challenge)
	default:
		return nil, true, fmt.Errorf("scram: unexpected extra round")
	}
}

func (d *scramDriver) handleServerFirst(serverFirst []byte) ([]byte, bool, error) {
	fields, err := parseScramFields(string(serverFirst))
	if err != nil {
		return nil, false, err
	}
	serverNonce := fields["r"]
	if !strings.HasPrefix(serverNonce, d.clientNonce) {
		return nil, false, fmt.Errorf("scram: server nonce does not extend client nonce")
	}
	salt, err := base64.StdEncoding.DecodeString(fields["s"])
	if err != nil {
		return nil, false, fmt.Errorf("scram: decode salt: %w", err)
	}
	iterations, err := strconv.Atoi(fields["i"])
	if err != nil || iterations <= 0 {
		return nil, false, fmt.Errorf("scram: invalid iteration count %q", fields["i"])
	}
	d.salt = salt
	d.iterations = iterations

	channelBinding := base64.StdEncoding.EncodeToString([]byte("n,,"))
	clientFinalNoProof := "c=" + channelBinding + ",r=" + serverNonce
	authMessage := d.clientFirstBare + "," + string(serverFirst) + "," + clientFinalNoProof

	saltedPassword := pbkdf2.Key([]byte(d.password), salt, iterations, d.hashFn().Size(), d.hashFn)
	clientKey := hmacSum(d.hashFn, saltedPassword, []byte("Client Key"))
	storedKey := hashSum(d.hashFn, clientKey)
	clientSig := hmacSum(d.hashFn, storedKey, []byte(authMessage))
	clientProof := xorBytes(clientKey, clientSig)

	serverKey := hmacSum(d.hashFn, saltedPassword, []byte("Server Key"))
	d.serverSig = hmacSum(d.hashFn, serverKey, []byte(authMessage))

	finalMsg := clientFinalNoProof + ",p=" + base64.StdEncoding.EncodeToString(clientProof)
	return []byte(finalMsg), false, nil
}

func (d *scramDriver) verifyServerFinal(serverFinal []byte) error {
	fields, err := parseScramFields(string(serverFinal))
	if err != nil {
		return err
	}
	if errMsg, ok := fields["e"]; ok {
		return fmt.Errorf("scram: server reported error %q", errMsg)
	}
	sig, err := base64.StdEncoding.DecodeString(fields["v"])
	if err != nil {
		return fmt.Errorf("scram: decode server signature: %w", err)
	}
	if !hmac.Equal(sig, d.serverSig) {
		return fmt.Errorf("scram: server signature mismatch")
	}
	return nil
}

func hmacSum(hashFn func() hash.Hash, key, msg []byte) []byte {
	mac := hmac.New(hashFn, key)
	mac.Write(msg)
	return mac.Sum(nil)
}

func hashSum(hashFn func() hash.Hash, data []byte) []byte {
	h := hashFn()
	h.Write(data)
	return h.Sum(nil)
}

func xorBytes(a, b []byte) []byte {
	out := make([]byte, len(a))
	for i := range a {
		out[i] = a[i] ^ b[i]
	}
	return out
}

// scramEscape escapes ',' and '=' in a SCRAM username per RFC 5802 §5.1.
func scramEscape(s string) string {
	s = strings.ReplaceAll(s, "=", "=3D")
	s = strings.ReplaceAll(s, ",", "=2C")
	return s
}

func parseScramFields(msg string) (map[string]string, error) {
	fields := make(map[string]string)
	for _, part := range strings.Split(msg, ",") {
		k, v, ok := strings.Cut(part, "=")
		if !ok {
			continue
		}
		fields[k] = v
	}
	if _, ok := fields["r"]; !ok {
		if _, ok := fields["v"]; !ok {
			if _, ok := fields["e"]; !ok {
				return nil, fmt.Errorf("scram: malformed message %q", msg)
			}
		}
	}
	return fields, nil
}
