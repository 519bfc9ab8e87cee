// Package cryptoprovider is the narrow signing seam used by host-side
// tooling (the CLI, a future signing client) to produce the Ed25519 keys
// and signatures consensus.VerifyTransactionSignature checks. consensus
// itself never imports this package: the core stays a set of pure
// functions, private keys live only in the signing client, and the core
// holds nothing but public keys and signatures.
package cryptoprovider

import "coinjecture.dev/consensus"

// Provider signs transaction messages and derives the address a public key
// hashes to. Implementations may keep keys in memory, an HSM, or a remote
// signer; the interface never exposes the private key material itself.
type Provider interface {
	// PublicKey returns the raw 32-byte Ed25519 verifying key, the value
	// a transaction carries as its sender field.
	PublicKey() [32]byte

	// Sign produces the 64-byte Ed25519 signature of message.
	Sign(message []byte) (consensus.Signature, error)

	// Address returns SHA-256(PublicKey), matching
	// consensus.DeriveAddress.
	Address() consensus.Address
}
