package consensus

import (
	"crypto/sha256"
)

// sha256Sum hashes a single byte string. Kept as a one-line wrapper so
// every other file in this package calls one name instead of importing
// crypto/sha256 directly.
func sha256Sum(b []byte) Hash {
	return Hash(sha256.Sum256(b))
}

// sha256Multi hashes the concatenation of several byte strings without
// allocating the concatenation itself.
func sha256Multi(parts ...[]byte) Hash {
	h := sha256.New()
	for _, p := range parts {
		h.Write(p)
	}
	var out Hash
	copy(out[:], h.Sum(nil))
	return out
}

// DeriveAddress computes address = SHA-256(pubkey).
func DeriveAddress(pubkey []byte) Address {
	return Address(sha256Sum(pubkey))
}

// BlockHash computes block_id = SHA256(canonical_binary(header)).
func BlockHash(header BlockHeader) (Hash, error) {
	b, err := EncodeBlockHeaderBinary(header)
	if err != nil {
		return Hash{}, err
	}
	return sha256Sum(b), nil
}

// TxHash computes a transaction's identity hash: SHA-256 of its canonical
// binary encoding.
func TxHash(tx Transaction) (Hash, error) {
	b, err := EncodeTransactionBinary(tx)
	if err != nil {
		return Hash{}, err
	}
	return sha256Sum(b), nil
}

// EpochSalt computes epoch_salt(parent_hash, block_index) =
// SHA-256(parent_hash || block_index.le_bytes).
func EpochSalt(parentHash Hash, blockIndex uint64) Hash {
	return sha256Multi(parentHash[:], leU64(blockIndex))
}
