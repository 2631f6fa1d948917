package signature

import "crypto/hmac"

// Verify reports whether sig matches the payload's signature.
func (s *Signer) Verify(body []byte, secret, sig string) bool {
	return Verify(body, secret, sig)
}

// Verify checks whether the given signature matches the expected HMAC-SHA256
// signature for the body and secret.
func Verify(body []byte, secret, sig string) bool {
	expected := Sign(body, secret)
	return hmac.Equal([]byte(expected), []byte(sig))
}
