package state

import "coinjecture.dev/consensus"

// auxLedger is the in-block view of the three auxiliary ledgers, mirroring
// ledger's read-through-cache-then-flush shape in accounts.go.
type auxLedger struct {
	store AuxiliaryStore

	timeLocks        map[consensus.Hash]TimeLock
	escrows          map[consensus.Hash]Escrow
	channels         map[consensus.Hash]Channel
	touchedTimeLocks []consensus.Hash
	touchedEscrows   []consensus.Hash
	touchedChannels  []consensus.Hash
}

func newAuxLedger(store AuxiliaryStore) *auxLedger {
	return &auxLedger{
		store:     store,
		timeLocks: make(map[consensus.Hash]TimeLock),
		escrows:   make(map[consensus.Hash]Escrow),
		channels:  make(map[consensus.Hash]Channel),
	}
}

// GetTimeLock implements AuxiliaryStore so an auxLedger can back an
// overlay of itself.
func (a *auxLedger) GetTimeLock(id consensus.Hash) (TimeLock, bool, error) {
	if t, ok := a.timeLocks[id]; ok {
		return t, true, nil
	}
	t, found, err := a.store.GetTimeLock(id)
	if err != nil {
		return TimeLock{}, false, err
	}
	if found {
		a.timeLocks[id] = t
		a.touchedTimeLocks = append(a.touchedTimeLocks, id)
	}
	return t, found, nil
}

func (a *auxLedger) GetEscrow(id consensus.Hash) (Escrow, bool, error) {
	if e, ok := a.escrows[id]; ok {
		return e, true, nil
	}
	e, found, err := a.store.GetEscrow(id)
	if err != nil {
		return Escrow{}, false, err
	}
	if found {
		a.escrows[id] = e
		a.touchedEscrows = append(a.touchedEscrows, id)
	}
	return e, found, nil
}

func (a *auxLedger) putEscrow(e Escrow) {
	if _, ok := a.escrows[e.ID]; !ok {
		a.touchedEscrows = append(a.touchedEscrows, e.ID)
	}
	a.escrows[e.ID] = e
}

func (a *auxLedger) GetChannel(id consensus.Hash) (Channel, bool, error) {
	if c, ok := a.channels[id]; ok {
		return c, true, nil
	}
	c, found, err := a.store.GetChannel(id)
	if err != nil {
		return Channel{}, false, err
	}
	if found {
		a.channels[id] = c
		a.touchedChannels = append(a.touchedChannels, id)
	}
	return c, found, nil
}

func (a *auxLedger) putChannel(c Channel) {
	if _, ok := a.channels[c.ID]; !ok {
		a.touchedChannels = append(a.touchedChannels, c.ID)
	}
	a.channels[c.ID] = c
}

func (a *auxLedger) putTimeLock(t TimeLock) {
	if _, ok := a.timeLocks[t.ID]; !ok {
		a.touchedTimeLocks = append(a.touchedTimeLocks, t.ID)
	}
	a.timeLocks[t.ID] = t
}

// merge folds an overlay aux ledger's view back into a, mirroring
// ledger.merge in accounts.go.
func (a *auxLedger) merge(o *auxLedger) {
	for _, id := range o.touchedTimeLocks {
		a.putTimeLock(o.timeLocks[id])
	}
	for _, id := range o.touchedEscrows {
		a.putEscrow(o.escrows[id])
	}
	for _, id := range o.touchedChannels {
		a.putChannel(o.channels[id])
	}
}

func (a *auxLedger) writes() (timeLocks []TimeLock, escrows []Escrow, channels []Channel) {
	for _, id := range a.touchedTimeLocks {
		timeLocks = append(timeLocks, a.timeLocks[id])
	}
	for _, id := range a.touchedEscrows {
		escrows = append(escrows, a.escrows[id])
	}
	for _, id := range a.touchedChannels {
		channels = append(channels, a.channels[id])
	}
	return
}

// ApplyBlock applies a validated block to the store and returns the hashes
// of the transactions that landed. The block MUST already have passed
// consensus.ValidateBlock; ApplyBlock re-checks only the semantics that
// depend on the current in-block account view, since that view did not
// exist at validation time.
//
// A per-transaction failure is isolated: the transaction is skipped and
// recorded, and subsequent transactions still apply. A fatal error (a
// store read/write failure, or a transaction hash that cannot be computed)
// aborts the whole block with no partial write.
func ApplyBlock(block consensus.Block, store Store, reward RewardPolicy, now int64) ([]consensus.Hash, []SkippedTransaction, error) {
	ledger := newLedger(store)
	aux := newAuxLedger(store)

	coinbase := reward.CoinbaseReward(block.Header.BlockIndex)
	if coinbase > 0 {
		if err := ledger.credit(block.Header.MinerAddress, coinbase); err != nil {
			return nil, nil, err
		}
	}

	var applied []consensus.Hash
	var skipped []SkippedTransaction

	for i, tx := range block.Transactions {
		txHash, err := consensus.TxHash(tx)
		if err != nil {
			return nil, nil, err
		}

		senderSnap, err := ledger.get(tx.SenderAddress)
		if err != nil {
			return nil, nil, err
		}

		vr, err := consensus.VerifyTransactionSemantics(tx, senderSnap)
		if err != nil {
			skipped = append(skipped, SkippedTransaction{Index: i, Hash: txHash, Err: err})
			continue
		}

		// Each transaction mutates an overlay of the block view. A failure
		// partway through (a credit overflow after the debit already landed,
		// say) drops the overlay, so a skipped transaction leaves no trace;
		// only a fully applied one merges down.
		txLedger := newLedger(ledger)
		txAux := newAuxLedger(aux)
		if err := applyTransaction(txLedger, txAux, tx, vr, txHash, block.Header.MinerAddress, block.Header.BlockIndex, now); err != nil {
			if _, ok := consensus.AsConsensusError(err); !ok {
				return nil, nil, err
			}
			skipped = append(skipped, SkippedTransaction{Index: i, Hash: txHash, Err: err})
			continue
		}
		ledger.merge(txLedger)
		aux.merge(txAux)

		applied = append(applied, txHash)
	}

	ws := WriteSet{Accounts: ledger.writes()}
	ws.TimeLocks, ws.Escrows, ws.Channels = aux.writes()
	if err := store.ApplyWrites(ws); err != nil {
		return nil, nil, err
	}
	return applied, skipped, nil
}

// applyTransaction dispatches on tx_type. Every branch debits
// the sender by vr.TotalCost (amount + fee) and credits the miner by
// vr.Fee; the "amount" component either moves straight to a recipient
// (Transfer) or is parked in an auxiliary record until a later transaction
// releases it (TimeLock/Escrow/Channel creation), preserving the
// non-inflation invariant across the create/resolve pair.
func applyTransaction(ledger *ledger, aux *auxLedger, tx consensus.Transaction, vr consensus.ValidationResult, txHash consensus.Hash, minerAddress consensus.Address, height uint64, now int64) error {
	sender := tx.SenderAddress

	// Reference ops (release/refund/update/close) act on funds already
	// parked in an auxiliary record. A nonzero amount on one of these would
	// be debited from the sender and credited nowhere, silently destroying
	// supply, so it is rejected up front.
	switch tx.TxType {
	case consensus.TxEscrowRelease, consensus.TxEscrowRefund,
		consensus.TxChannelUpdate, consensus.TxChannelCoopClose, consensus.TxChannelUnilClose:
		if tx.Amount != 0 {
			return serr(consensus.ErrInvalidInput, "amount must be zero for this tx_type",
				"tx_type", tx.TxType.String(), "amount", tx.Amount)
		}
	}

	switch tx.TxType {
	case consensus.TxTransfer, consensus.TxProblemSubmission, consensus.TxBountyPayment:
		// ProblemSubmission posts a bounty to a marketplace address and
		// BountyPayment pays a solver; the marketplace bookkeeping itself
		// lives outside this engine, so both move funds exactly like a
		// Transfer.
		if err := ledger.debit(sender, vr.TotalCost); err != nil {
			return err
		}
		if err := ledger.credit(tx.RecipientAddress, tx.Amount); err != nil {
			return err
		}
		if err := ledger.credit(minerAddress, vr.Fee); err != nil {
			return err
		}

	case consensus.TxTimeLockCreate:
		unlockTime, err := decodeTimeLockCreatePayload(tx.Data)
		if err != nil {
			return err
		}
		if err := ledger.debit(sender, vr.TotalCost); err != nil {
			return err
		}
		if err := ledger.credit(minerAddress, vr.Fee); err != nil {
			return err
		}
		aux.putTimeLock(TimeLock{
			ID: txHash, Sender: sender, Recipient: tx.RecipientAddress,
			Amount: tx.Amount, UnlockTime: unlockTime, State: TimeLockActive, CreatedHeight: height,
		})

	case consensus.TxEscrowCreate:
		arbiter, timeout, condHash, err := decodeEscrowCreatePayload(tx.Data)
		if err != nil {
			return err
		}
		if err := ledger.debit(sender, vr.TotalCost); err != nil {
			return err
		}
		if err := ledger.credit(minerAddress, vr.Fee); err != nil {
			return err
		}
		aux.putEscrow(Escrow{
			ID: txHash, Sender: sender, Recipient: tx.RecipientAddress, Arbiter: arbiter,
			Amount: tx.Amount, Timeout: timeout, ConditionsHash: condHash,
			State: EscrowActive, CreatedHeight: height,
		})

	case consensus.TxEscrowRelease:
		id, err := decodeEscrowRefPayload(tx.Data)
		if err != nil {
			return err
		}
		escrow, found, err := aux.GetEscrow(id)
		if err != nil {
			return err
		}
		if !found {
			return serr(consensus.ErrInvalidInput, "escrow not found", "escrow_id", id)
		}
		if err := releaseEscrow(&escrow, sender, height); err != nil {
			return err
		}
		if err := ledger.debit(sender, vr.TotalCost); err != nil {
			return err
		}
		if err := ledger.credit(escrow.Recipient, escrow.Amount); err != nil {
			return err
		}
		if err := ledger.credit(minerAddress, vr.Fee); err != nil {
			return err
		}
		aux.putEscrow(escrow)

	case consensus.TxEscrowRefund:
		id, err := decodeEscrowRefPayload(tx.Data)
		if err != nil {
			return err
		}
		escrow, found, err := aux.GetEscrow(id)
		if err != nil {
			return err
		}
		if !found {
			return serr(consensus.ErrInvalidInput, "escrow not found", "escrow_id", id)
		}
		if err := refundEscrow(&escrow, sender, now, height); err != nil {
			return err
		}
		if err := ledger.debit(sender, vr.TotalCost); err != nil {
			return err
		}
		if err := ledger.credit(escrow.Sender, escrow.Amount); err != nil {
			return err
		}
		if err := ledger.credit(minerAddress, vr.Fee); err != nil {
			return err
		}
		aux.putEscrow(escrow)

	case consensus.TxChannelOpen:
		depositB, disputeTimeout, err := decodeChannelOpenPayload(tx.Data)
		if err != nil {
			return err
		}
		// A channel open carries one signature, so it can only move the
		// initiator's own funds: deposit_b must be zero or capacity would
		// include money nobody paid in. Balance shifts toward B through
		// Channel.Update; the payload keeps the deposit_b field for a future
		// co-signed dual-funded open.
		if depositB != 0 {
			return serr(consensus.ErrInvalidInput, "counterparty deposit requires a co-signed open",
				"deposit_b", depositB)
		}
		depositA := tx.Amount
		capacity := depositA
		if err := ledger.debit(sender, vr.TotalCost); err != nil {
			return err
		}
		if err := ledger.credit(minerAddress, vr.Fee); err != nil {
			return err
		}
		aux.putChannel(Channel{
			ID: txHash, ParticipantA: sender, ParticipantB: tx.RecipientAddress,
			BalanceA: depositA, BalanceB: depositB, Capacity: capacity,
			Sequence: 0, Status: ChannelOpen, DisputeTimeout: disputeTimeout, CreatedHeight: height,
		})

	case consensus.TxChannelUpdate:
		id, seq, balanceA, balanceB, err := decodeChannelUpdatePayload(tx.Data)
		if err != nil {
			return err
		}
		channel, found, err := aux.GetChannel(id)
		if err != nil {
			return err
		}
		if !found {
			return serr(consensus.ErrInvalidInput, "channel not found", "channel_id", id)
		}
		if err := updateChannel(&channel, sender, seq, balanceA, balanceB); err != nil {
			return err
		}
		if err := ledger.debit(sender, vr.TotalCost); err != nil {
			return err
		}
		if err := ledger.credit(minerAddress, vr.Fee); err != nil {
			return err
		}
		aux.putChannel(channel)

	case consensus.TxChannelCoopClose:
		id, finalA, finalB, err := decodeChannelCoopClosePayload(tx.Data)
		if err != nil {
			return err
		}
		channel, found, err := aux.GetChannel(id)
		if err != nil {
			return err
		}
		if !found {
			return serr(consensus.ErrInvalidInput, "channel not found", "channel_id", id)
		}
		if err := cooperativeCloseChannel(&channel, sender, finalA, finalB); err != nil {
			return err
		}
		if err := ledger.debit(sender, vr.TotalCost); err != nil {
			return err
		}
		if err := ledger.credit(channel.ParticipantA, finalA); err != nil {
			return err
		}
		if err := ledger.credit(channel.ParticipantB, finalB); err != nil {
			return err
		}
		if err := ledger.credit(minerAddress, vr.Fee); err != nil {
			return err
		}
		aux.putChannel(channel)

	case consensus.TxChannelUnilClose:
		id, seq, err := decodeChannelUnilClosePayload(tx.Data)
		if err != nil {
			return err
		}
		channel, found, err := aux.GetChannel(id)
		if err != nil {
			return err
		}
		if !found {
			return serr(consensus.ErrInvalidInput, "channel not found", "channel_id", id)
		}
		if err := unilateralCloseChannel(&channel, sender, seq, now); err != nil {
			return err
		}
		if err := ledger.debit(sender, vr.TotalCost); err != nil {
			return err
		}
		if err := ledger.credit(minerAddress, vr.Fee); err != nil {
			return err
		}
		aux.putChannel(channel)

	default:
		return serr(consensus.ErrInvalidInput, "unknown tx_type", "tx_type", int(tx.TxType))
	}

	return ledger.bumpNonce(sender)
}
