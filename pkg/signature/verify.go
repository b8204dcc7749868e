// Package signature verifies sr25519 request signatures against SS58 addresses.
package signature

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/ChainSafe/gossamer/lib/crypto/sr25519"
	"github.com/vedhavyas/go-subkey"
)

// Verifier implements signature verification for axon middleware.
type Verifier struct{}

func NewVerifier() *Verifier {
	return &Verifier{}
}

// RequestMessage builds the canonical message a caller signs for an axon
// request: hotkey, unix timestamp, and the hash of the request body, bound
// together so a captured signature can be replayed neither for another
// identity nor for another payload.
func RequestMessage(hotkey, timestamp, bodyHash string) string {
	return fmt.Sprintf("%s.%s.%s", hotkey, timestamp, bodyHash)
}

// BodyHash returns the hex sha256 digest of a request body.
func BodyHash(body []byte) string {
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:])
}

// Verify checks that signature over message was produced by the keypair behind
// ss58Address.
func (v *Verifier) Verify(message, signature, ss58Address string) (bool, error) {
	return Verify(message, signature, ss58Address)
}

func Verify(message, signature, ss58Address string) (bool, error) {
	if !strings.HasPrefix(signature, "0x") {
		return false, fmt.Errorf("signature does not start with '0x'")
	}

	sigBytes, err := hex.DecodeString(signature[2:])
	if err != nil {
		return false, fmt.Errorf("failed to decode signature hex: %w", err)
	}

	if len(sigBytes) != 64 {
		return false, fmt.Errorf("invalid signature length: expected 64 bytes, got %d", len(sigBytes))
	}

	_, pubKeyBytes, err := subkey.SS58Decode(ss58Address)
	if err != nil {
		return false, fmt.Errorf("failed to decode SS58 address: %w", err)
	}

	publicKey, err := sr25519.NewPublicKey(pubKeyBytes)
	if err != nil {
		return false, fmt.Errorf("failed to create public key: %w", err)
	}

	return publicKey.Verify([]byte(message), sigBytes)
}
