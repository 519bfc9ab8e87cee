package main

import (
	"encoding/hex"
	"fmt"

	"coinjecture.dev/consensus"
)

func decodeHash(s string) (consensus.Hash, error) {
	var out consensus.Hash
	if s == "" {
		return out, nil
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return out, fmt.Errorf("invalid hex: %w", err)
	}
	if len(b) != len(out) {
		return out, fmt.Errorf("expected %d bytes, got %d", len(out), len(b))
	}
	copy(out[:], b)
	return out, nil
}
