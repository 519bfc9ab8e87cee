package state

import (
	"encoding/binary"

	"coinjecture.dev/consensus"
)

// EscrowState is the escrow lifecycle.
type EscrowState uint8

const (
	EscrowActive   EscrowState = 1
	EscrowReleased EscrowState = 2
	EscrowRefunded EscrowState = 3
)

// Escrow is the auxiliary record an Escrow.Create transaction opens.
// Arbiter is the zero address when none was named.
type Escrow struct {
	ID             consensus.Hash
	Sender         consensus.Address
	Recipient      consensus.Address
	Arbiter        consensus.Address
	Amount         uint64
	Timeout        int64
	ConditionsHash consensus.Hash
	State          EscrowState
	CreatedHeight  uint64
	ResolvedHeight uint64
}

// escrowCreatePayload: arbiter(32) || timeout.le8 || conditions_hash(32).
// Recipient and amount reuse the transaction's own fields, matching the
// time-lock convention in timelocks.go.
func decodeEscrowCreatePayload(data []byte) (arbiter consensus.Address, timeout int64, conditionsHash consensus.Hash, err error) {
	if len(data) != 32+8+32 {
		return arbiter, 0, conditionsHash, serr(consensus.ErrInvalidFieldType, "escrow create payload must be 72 bytes")
	}
	copy(arbiter[:], data[0:32])
	timeout = int64(binary.LittleEndian.Uint64(data[32:40]))
	copy(conditionsHash[:], data[40:72])
	return arbiter, timeout, conditionsHash, nil
}

// EncodeEscrowCreatePayload builds the Data field for an Escrow.Create
// transaction.
func EncodeEscrowCreatePayload(arbiter consensus.Address, timeout int64, conditionsHash consensus.Hash) []byte {
	out := make([]byte, 72)
	copy(out[0:32], arbiter[:])
	binary.LittleEndian.PutUint64(out[32:40], uint64(timeout))
	copy(out[40:72], conditionsHash[:])
	return out
}

// escrowRefPayload is the Data layout shared by Escrow.Release and
// Escrow.Refund: escrow_id(32).
func decodeEscrowRefPayload(data []byte) (id consensus.Hash, err error) {
	if len(data) != 32 {
		return id, serr(consensus.ErrInvalidFieldType, "escrow reference payload must be 32 bytes")
	}
	copy(id[:], data)
	return id, nil
}

// EncodeEscrowRefPayload builds the Data field for Escrow.Release/Refund.
func EncodeEscrowRefPayload(id consensus.Hash) []byte {
	out := make([]byte, 32)
	copy(out, id[:])
	return out
}

// releaseEscrow applies Escrow.Release: requester must be the
// recipient or the arbiter.
func releaseEscrow(e *Escrow, requester consensus.Address, resolvedHeight uint64) error {
	if e.State != EscrowActive {
		return serr(consensus.ErrInvalidInput, "escrow is not active")
	}
	if requester != e.Recipient && requester != e.Arbiter {
		return serr(consensus.ErrInvalidInput, "requester is neither escrow recipient nor arbiter")
	}
	e.State = EscrowReleased
	e.ResolvedHeight = resolvedHeight
	return nil
}

// refundEscrow applies Escrow.Refund: requester must be the
// arbiter, or the sender after the timeout has elapsed.
func refundEscrow(e *Escrow, requester consensus.Address, now int64, resolvedHeight uint64) error {
	if e.State != EscrowActive {
		return serr(consensus.ErrInvalidInput, "escrow is not active")
	}
	authorized := requester == e.Arbiter || (requester == e.Sender && now >= e.Timeout)
	if !authorized {
		return serr(consensus.ErrInvalidInput, "requester not authorized to refund escrow")
	}
	e.State = EscrowRefunded
	e.ResolvedHeight = resolvedHeight
	return nil
}
