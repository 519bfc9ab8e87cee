package cryptoprovider

import (
	"crypto/ed25519"
	"fmt"

	"coinjecture.dev/consensus"
)

// Ed25519Provider is the production Provider: an in-memory Ed25519 key
// pair built on stdlib crypto/ed25519, the one signature suite the wire
// protocol admits.
type Ed25519Provider struct {
	pub  ed25519.PublicKey
	priv ed25519.PrivateKey
}

// NewEd25519Provider wraps an existing Ed25519 key pair. Use
// GenerateEd25519Provider to mint a fresh one.
func NewEd25519Provider(pub ed25519.PublicKey, priv ed25519.PrivateKey) (*Ed25519Provider, error) {
	if len(pub) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("cryptoprovider: public key must be %d bytes, got %d", ed25519.PublicKeySize, len(pub))
	}
	if len(priv) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("cryptoprovider: private key must be %d bytes, got %d", ed25519.PrivateKeySize, len(priv))
	}
	return &Ed25519Provider{pub: pub, priv: priv}, nil
}

// GenerateEd25519Provider mints a fresh Ed25519 key pair from crypto/rand
// (ed25519.GenerateKey with a nil reader).
func GenerateEd25519Provider() (*Ed25519Provider, error) {
	pub, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		return nil, fmt.Errorf("cryptoprovider: generate key: %w", err)
	}
	return &Ed25519Provider{pub: pub, priv: priv}, nil
}

func (p *Ed25519Provider) PublicKey() [32]byte {
	var out [32]byte
	copy(out[:], p.pub)
	return out
}

func (p *Ed25519Provider) Sign(message []byte) (consensus.Signature, error) {
	sig := ed25519.Sign(p.priv, message)
	var out consensus.Signature
	copy(out[:], sig)
	return out, nil
}

func (p *Ed25519Provider) Address() consensus.Address {
	return consensus.DeriveAddress(p.pub)
}
