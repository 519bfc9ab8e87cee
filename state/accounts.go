package state

import "coinjecture.dev/consensus"

// ledger is the in-block view of account balances: reads fall through to the
// external store exactly once per address, then are cached and mutated in
// memory for the rest of the block, and finally flushed as a WriteSet.
type ledger struct {
	store AccountStore
	dirty map[consensus.Address]consensus.AccountSnapshot
	// touched preserves first-seen order so WriteSet output is deterministic.
	touched []consensus.Address
}

func newLedger(store AccountStore) *ledger {
	return &ledger{store: store, dirty: make(map[consensus.Address]consensus.AccountSnapshot)}
}

func (l *ledger) get(addr consensus.Address) (consensus.AccountSnapshot, error) {
	if snap, ok := l.dirty[addr]; ok {
		return snap, nil
	}
	snap, err := l.store.GetSnapshot(addr)
	if err != nil {
		return consensus.AccountSnapshot{}, err
	}
	l.dirty[addr] = snap
	l.touched = append(l.touched, addr)
	return snap, nil
}

func (l *ledger) set(addr consensus.Address, snap consensus.AccountSnapshot) {
	if _, ok := l.dirty[addr]; !ok {
		l.touched = append(l.touched, addr)
	}
	l.dirty[addr] = snap
}

// credit adds amount to addr's balance, rejecting overflow. Every credit
// and debit is checked so supply accounting can never wrap silently.
func (l *ledger) credit(addr consensus.Address, amount uint64) error {
	snap, err := l.get(addr)
	if err != nil {
		return err
	}
	next := snap.Balance + amount
	if next < snap.Balance {
		return consensusBalanceOverflow()
	}
	snap.Balance = next
	l.set(addr, snap)
	return nil
}

// debit subtracts amount from addr's balance. Callers are expected to have
// already checked sufficiency via consensus.VerifyTransactionSemantics;
// this is a second, defense-in-depth check.
func (l *ledger) debit(addr consensus.Address, amount uint64) error {
	snap, err := l.get(addr)
	if err != nil {
		return err
	}
	if snap.Balance < amount {
		return consensusInsufficientBalance(snap.Balance, amount)
	}
	snap.Balance -= amount
	l.set(addr, snap)
	return nil
}

func (l *ledger) bumpNonce(addr consensus.Address) error {
	snap, err := l.get(addr)
	if err != nil {
		return err
	}
	snap.Nonce++
	l.set(addr, snap)
	return nil
}

// GetSnapshot lets a ledger serve as the AccountStore of an overlay
// ledger: reads fall through to this ledger's own cache-then-store path.
func (l *ledger) GetSnapshot(addr consensus.Address) (consensus.AccountSnapshot, error) {
	return l.get(addr)
}

// merge folds an overlay ledger's view back into l. Called only after the
// overlay's transaction fully succeeded; dropping the overlay instead
// discards every mutation it made.
func (l *ledger) merge(o *ledger) {
	for _, addr := range o.touched {
		l.set(addr, o.dirty[addr])
	}
}

func (l *ledger) writes() []AccountWrite {
	out := make([]AccountWrite, 0, len(l.touched))
	for _, addr := range l.touched {
		snap := l.dirty[addr]
		out = append(out, AccountWrite{Address: addr, Balance: snap.Balance, Nonce: snap.Nonce})
	}
	return out
}
