package cryptoprovider

import (
	"crypto/ed25519"
	"crypto/sha256"

	"coinjecture.dev/consensus"
)

// DevProvider is a deterministic, seed-derived Provider for tests and
// local devnets: the same seed always yields the same key pair, so golden
// fixtures (signed transactions, commitments) stay reproducible across
// runs.
type DevProvider struct {
	ed *Ed25519Provider
}

// NewDevProvider derives an Ed25519 key pair from seed via SHA-256, so
// test files never need raw private key bytes checked in.
func NewDevProvider(seed string) *DevProvider {
	digest := sha256.Sum256([]byte(seed))
	priv := ed25519.NewKeyFromSeed(digest[:])
	pub := priv.Public().(ed25519.PublicKey)
	return &DevProvider{ed: &Ed25519Provider{pub: pub, priv: priv}}
}

func (p *DevProvider) PublicKey() [32]byte               { return p.ed.PublicKey() }
func (p *DevProvider) Sign(msg []byte) (consensus.Signature, error) { return p.ed.Sign(msg) }
func (p *DevProvider) Address() consensus.Address         { return p.ed.Address() }
