package antconsensus

import (
	"crypto/rand"

	"golang.org/x/crypto/ed25519"
)

// placeholderSignatureSize matches ed25519.SignatureSize; kept as a named
// constant so the "dummy signature" contract in spec.md §4.1 is explicit
// and doesn't drift if the signing scheme ever changes.
const placeholderSignatureSize = ed25519.SignatureSize

// SigningKey is a raw Ed25519 private key (seed + public half), or nil to
// request the placeholder/test-harness signing behavior described in
// spec.md §4.1 and Open Question 3.
type SigningKey = ed25519.PrivateKey

// PublicKey is a raw Ed25519 public key.
type PublicKey = ed25519.PublicKey

// GenerateSigningKey produces a fresh Ed25519 key pair for a node operator
// who wants real (non-placeholder) signatures.
func GenerateSigningKey() (PublicKey, SigningKey, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, nil, newErr(KindCrypto, "generate signing key", err)
	}
	return pub, priv, nil
}

// sign produces a signature over message using key. An empty (nil or
// zero-length) key yields the 64-byte zero placeholder signature described
// in spec.md §4.1: verification against it will fail, which is intentional
// — it exists to let test harnesses run without real key material.
func sign(message []byte, key SigningKey) ([]byte, error) {
	if len(key) == 0 {
		return make([]byte, placeholderSignatureSize), nil
	}
	if len(key) != ed25519.PrivateKeySize {
		return nil, newErr(KindCrypto, "signing key has wrong size", nil)
	}
	return ed25519.Sign(key, message), nil
}

// verify checks a signature over message against pub. It never panics:
// any malformed input (wrong-size key or signature) is reported as a
// verification failure rather than propagated as an error.
func verify(message, signature []byte, pub PublicKey) bool {
	if len(pub) != ed25519.PublicKeySize || len(signature) != ed25519.SignatureSize {
		return false
	}
	return ed25519.Verify(pub, message, signature)
}
