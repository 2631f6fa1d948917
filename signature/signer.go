// Package signature provides HMAC-SHA256 webhook payload signing and verification.
package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// Header is the HTTP header carrying the payload signature on every
// signed webhook delivery.
const Header = "X-Hub-Signature-256"

// Signer computes HMAC-SHA256 signatures for webhook payloads.
type Signer struct{}

// NewSigner returns a new Signer.
func NewSigner() *Signer {
	return &Signer{}
}

// Sign computes the signature for a payload.
func (s *Signer) Sign(body []byte, secret string) string {
	return Sign(body, secret)
}

// Sign generates the HMAC-SHA256 signature over the exact body bytes using
// the secret as key. Returns a signature in the format "sha256=<lowercase-hex>".
func Sign(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}
