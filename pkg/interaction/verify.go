package interaction

import (
	"bytes"
	"crypto/ed25519"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
)

const (
	HeaderSignature = "X-Signature-Ed25519"
	HeaderTimestamp = "X-Signature-Timestamp"
)

var ErrInvalidPublicKey = errors.New("interaction: invalid public key")

// Verify checks an Ed25519 signature over timestamp+rawBody. Any malformed
// input yields false.
func Verify(rawBody string, signatureHex, timestampHex *string, publicKeyHex string) bool {
	if signatureHex == nil || timestampHex == nil {
		return false
	}
	key, err := parsePublicKey(publicKeyHex)
	if err != nil {
		return false
	}
	return verifyWithKey(key, rawBody, *signatureHex, *timestampHex)
}

func parsePublicKey(publicKeyHex string) (ed25519.PublicKey, error) {
	raw, err := hex.DecodeString(publicKeyHex)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPublicKey, err)
	}
	if len(raw) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("%w: want %d bytes, got %d", ErrInvalidPublicKey, ed25519.PublicKeySize, len(raw))
	}
	return ed25519.PublicKey(raw), nil
}

func verifyWithKey(key ed25519.PublicKey, rawBody, signatureHex, timestamp string) bool {
	sig, err := hex.DecodeString(signatureHex)
	if err != nil || len(sig) != ed25519.SignatureSize {
		return false
	}

	msg := make([]byte, 0, len(timestamp)+len(rawBody))
	msg = append(msg, timestamp...)
	msg = append(msg, rawBody...)

	return ed25519.Verify(key, msg, sig)
}

// Verifier holds a parsed public key for the HTTP layer.
type Verifier struct {
	key ed25519.PublicKey
}

func NewVerifier(publicKeyHex string) (*Verifier, error) {
	key, err := parsePublicKey(publicKeyHex)
	if err != nil {
		return nil, err
	}
	return &Verifier{key: key}, nil
}

// VerifyRequest reads the signature headers and body of r. The body is
// restored so later handlers can read it again.
func (v *Verifier) VerifyRequest(r *http.Request) ([]byte, bool) {
	if r.Body == nil {
		return nil, false
	}
	body, err := io.ReadAll(r.Body)
	_ = r.Body.Close()
	if err != nil {
		return nil, false
	}
	r.Body = io.NopCloser(bytes.NewReader(body))

	sig := r.Header.Get(HeaderSignature)
	ts := r.Header.Get(HeaderTimestamp)
	if sig == "" || ts == "" {
		return body, false
	}

	return body, verifyWithKey(v.key, string(body), sig, ts)
}
