package deepbook

import (
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"

	"floorguard/internal/domain"
)

// Keypair is the ed25519 signing credential behind every submitted
// transaction. It satisfies domain.Credential.
type Keypair struct {
	priv    ed25519.PrivateKey
	address string
}

// ParseKeypair decodes a private key from either of the two accepted
// encodings: hex (with or without 0x prefix) or standard base64. The decoded
// material may be a 32-byte seed or a full 64-byte ed25519 private key.
func ParseKeypair(encoded string) (*Keypair, error) {
	encoded = strings.TrimSpace(encoded)
	if encoded == "" {
		return nil, fmt.Errorf("%w: empty input", domain.ErrInvalidKey)
	}

	raw, err := hex.DecodeString(strings.TrimPrefix(encoded, "0x"))
	if err != nil {
		raw, err = base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			return nil, fmt.Errorf("%w: not hex or base64", domain.ErrInvalidKey)
		}
	}

	var priv ed25519.PrivateKey
	switch len(raw) {
	case ed25519.SeedSize:
		priv = ed25519.NewKeyFromSeed(raw)
	case ed25519.PrivateKeySize:
		priv = ed25519.PrivateKey(raw)
	default:
		return nil, fmt.Errorf("%w: unexpected length %d", domain.ErrInvalidKey, len(raw))
	}

	pub := priv.Public().(ed25519.PublicKey)
	digest := sha256.Sum256(pub)

	return &Keypair{
		priv:    priv,
		address: "0x" + hex.EncodeToString(digest[:]),
	}, nil
}

// Address returns the account address derived from the public key.
func (k *Keypair) Address() string {
	return k.address
}

// Sign signs a message payload.
func (k *Keypair) Sign(msg []byte) []byte {
	return ed25519.Sign(k.priv, msg)
}
