// Package state is the per-block state-transition engine: it applies a
// validated Block atomically to account balances and three auxiliary
// ledgers (TimeLocks, Escrows, PaymentChannels). It reads through an
// external key-value store and emits a sequenced set of writes the store
// applies in one transaction.
package state

import "coinjecture.dev/consensus"

// AccountWrite is one mutation to the account ledger.
type AccountWrite struct {
	Address consensus.Address
	Balance uint64
	Nonce   uint64
}

// WriteSet is the batched mutation a single ApplyBlock call produces. The
// external store commits it as one transaction: all of a block's writes
// land together or not at all.
type WriteSet struct {
	Accounts  []AccountWrite
	TimeLocks []TimeLock
	Escrows   []Escrow
	Channels  []Channel
}

// AccountStore is the external account snapshot source.
type AccountStore interface {
	GetSnapshot(addr consensus.Address) (consensus.AccountSnapshot, error)
}

// AuxiliaryStore reads the three auxiliary ledgers by their 32-byte
// identifier.
type AuxiliaryStore interface {
	GetTimeLock(id consensus.Hash) (TimeLock, bool, error)
	GetEscrow(id consensus.Hash) (Escrow, bool, error)
	GetChannel(id consensus.Hash) (Channel, bool, error)
}

// Store is the full external dependency the engine consumes: reads
// through AccountStore/AuxiliaryStore, and a single batched ApplyWrites
// commits the whole block's mutations atomically.
type Store interface {
	AccountStore
	AuxiliaryStore
	ApplyWrites(ws WriteSet) error
}

// RewardPolicy supplies the coinbase reward for a given height. The
// emission schedule (halving and so on) belongs to the host; the engine
// only asks for a number.
type RewardPolicy interface {
	CoinbaseReward(height uint64) uint64
}

// FixedRewardPolicy is the simplest RewardPolicy: a constant reward,
// useful for tests and as a placeholder before a real emission-schedule
// policy is wired in by the host.
type FixedRewardPolicy struct {
	Reward uint64
}

func (f FixedRewardPolicy) CoinbaseReward(height uint64) uint64 { return f.Reward }

// SkippedTransaction records a transaction the engine chose not to apply:
// the failure is isolated to that transaction, and the rest of the block
// still processes.
type SkippedTransaction struct {
	Index int
	Hash  consensus.Hash
	Err   error
}
