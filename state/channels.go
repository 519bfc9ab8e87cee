package state

import (
	"encoding/binary"

	"coinjecture.dev/consensus"
)

// ChannelStatus is the payment-channel lifecycle: Open, ClosedCooperative,
// InDispute (after a unilateral close), ClosedDispute (after the dispute
// timeout elapses and the host calls FinalizeDispute).
type ChannelStatus uint8

const (
	ChannelOpen              ChannelStatus = 1
	ChannelClosedCooperative ChannelStatus = 2
	ChannelInDispute         ChannelStatus = 3
	ChannelClosedDispute     ChannelStatus = 4
)

// Channel is the auxiliary record a Channel.Open transaction creates.
type Channel struct {
	ID               consensus.Hash
	ParticipantA     consensus.Address
	ParticipantB     consensus.Address
	BalanceA         uint64
	BalanceB         uint64
	Capacity         uint64
	Sequence         uint64
	Status           ChannelStatus
	DisputeTimeout   int64
	DisputeStartedAt int64
	CreatedHeight    uint64
}

// channelOpenPayload: deposit_b.le8 || dispute_timeout.le8. Participant A
// is the transaction sender, deposit_a is tx.Amount, participant B is
// tx.RecipientAddress — mirrors the time-lock/escrow convention of reusing
// the envelope fields instead of duplicating them in Data.
func decodeChannelOpenPayload(data []byte) (depositB uint64, disputeTimeout int64, err error) {
	if len(data) != 16 {
		return 0, 0, serr(consensus.ErrInvalidFieldType, "channel open payload must be 16 bytes")
	}
	depositB = binary.LittleEndian.Uint64(data[0:8])
	disputeTimeout = int64(binary.LittleEndian.Uint64(data[8:16]))
	return depositB, disputeTimeout, nil
}

// EncodeChannelOpenPayload builds the Data field for a Channel.Open
// transaction.
func EncodeChannelOpenPayload(depositB uint64, disputeTimeout int64) []byte {
	out := make([]byte, 16)
	binary.LittleEndian.PutUint64(out[0:8], depositB)
	binary.LittleEndian.PutUint64(out[8:16], uint64(disputeTimeout))
	return out
}

// channelUpdatePayload: channel_id(32) || seq.le8 || balance_a.le8 ||
// balance_b.le8.
func decodeChannelUpdatePayload(data []byte) (id consensus.Hash, seq, balanceA, balanceB uint64, err error) {
	if len(data) != 32+8+8+8 {
		return id, 0, 0, 0, serr(consensus.ErrInvalidFieldType, "channel update payload must be 56 bytes")
	}
	copy(id[:], data[0:32])
	seq = binary.LittleEndian.Uint64(data[32:40])
	balanceA = binary.LittleEndian.Uint64(data[40:48])
	balanceB = binary.LittleEndian.Uint64(data[48:56])
	return id, seq, balanceA, balanceB, nil
}

// EncodeChannelUpdatePayload builds the Data field for a Channel.Update
// transaction.
func EncodeChannelUpdatePayload(id consensus.Hash, seq, balanceA, balanceB uint64) []byte {
	out := make([]byte, 56)
	copy(out[0:32], id[:])
	binary.LittleEndian.PutUint64(out[32:40], seq)
	binary.LittleEndian.PutUint64(out[40:48], balanceA)
	binary.LittleEndian.PutUint64(out[48:56], balanceB)
	return out
}

// channelCoopClosePayload: channel_id(32) || final_a.le8 || final_b.le8.
func decodeChannelCoopClosePayload(data []byte) (id consensus.Hash, finalA, finalB uint64, err error) {
	if len(data) != 32+8+8 {
		return id, 0, 0, serr(consensus.ErrInvalidFieldType, "channel cooperative-close payload must be 48 bytes")
	}
	copy(id[:], data[0:32])
	finalA = binary.LittleEndian.Uint64(data[32:40])
	finalB = binary.LittleEndian.Uint64(data[40:48])
	return id, finalA, finalB, nil
}

// EncodeChannelCoopClosePayload builds the Data field for a
// Channel.CooperativeClose transaction.
func EncodeChannelCoopClosePayload(id consensus.Hash, finalA, finalB uint64) []byte {
	out := make([]byte, 48)
	copy(out[0:32], id[:])
	binary.LittleEndian.PutUint64(out[32:40], finalA)
	binary.LittleEndian.PutUint64(out[40:48], finalB)
	return out
}

// channelUnilClosePayload: channel_id(32) || seq.le8.
func decodeChannelUnilClosePayload(data []byte) (id consensus.Hash, seq uint64, err error) {
	if len(data) != 32+8 {
		return id, 0, serr(consensus.ErrInvalidFieldType, "channel unilateral-close payload must be 40 bytes")
	}
	copy(id[:], data[0:32])
	seq = binary.LittleEndian.Uint64(data[32:40])
	return id, seq, nil
}

// EncodeChannelUnilClosePayload builds the Data field for a
// Channel.UnilateralClose transaction.
func EncodeChannelUnilClosePayload(id consensus.Hash, seq uint64) []byte {
	out := make([]byte, 40)
	copy(out[0:32], id[:])
	binary.LittleEndian.PutUint64(out[32:40], seq)
	return out
}

func channelParticipant(c *Channel, requester consensus.Address) bool {
	return requester == c.ParticipantA || requester == c.ParticipantB
}

func updateChannel(c *Channel, requester consensus.Address, seq, balanceA, balanceB uint64) error {
	if c.Status != ChannelOpen {
		return serr(consensus.ErrInvalidInput, "channel is not open")
	}
	if !channelParticipant(c, requester) {
		return serr(consensus.ErrInvalidInput, "requester is not a channel participant")
	}
	if seq <= c.Sequence {
		return serr(consensus.ErrInvalidInput, "channel update sequence must increase",
			"current", c.Sequence, "got", seq)
	}
	// The sum is checked for wraparound: two huge balances must not pass the
	// capacity check by overflowing u64.
	if sum := balanceA + balanceB; sum < balanceA || sum != c.Capacity {
		return serr(consensus.ErrInvalidInput, "channel update balances do not sum to capacity")
	}
	c.Sequence = seq
	c.BalanceA = balanceA
	c.BalanceB = balanceB
	return nil
}

func cooperativeCloseChannel(c *Channel, requester consensus.Address, finalA, finalB uint64) error {
	// Only an open channel may close: a second close on an already-closed
	// channel would credit its capacity a second time.
	if c.Status != ChannelOpen {
		return serr(consensus.ErrInvalidInput, "channel is not open")
	}
	if !channelParticipant(c, requester) {
		return serr(consensus.ErrInvalidInput, "requester is not a channel participant")
	}
	if sum := finalA + finalB; sum < finalA || sum != c.Capacity {
		return serr(consensus.ErrInvalidInput, "cooperative close balances do not sum to capacity")
	}
	c.Status = ChannelClosedCooperative
	c.BalanceA = finalA
	c.BalanceB = finalB
	return nil
}

func unilateralCloseChannel(c *Channel, requester consensus.Address, seq uint64, now int64) error {
	if c.Status != ChannelOpen {
		return serr(consensus.ErrInvalidInput, "channel is not open")
	}
	if !channelParticipant(c, requester) {
		return serr(consensus.ErrInvalidInput, "requester is not a channel participant")
	}
	if seq < c.Sequence {
		return serr(consensus.ErrInvalidInput, "unilateral close proof is stale",
			"current", c.Sequence, "got", seq)
	}
	c.Status = ChannelInDispute
	c.DisputeStartedAt = now
	return nil
}

// FinalizeDispute settles a disputed channel once its timeout has
// elapsed. Not invoked from ApplyBlock; the host calls it.
func FinalizeDispute(c *Channel, now int64) error {
	if c.Status != ChannelInDispute {
		return serr(consensus.ErrInvalidInput, "channel is not in dispute")
	}
	if now < c.DisputeStartedAt+c.DisputeTimeout {
		return serr(consensus.ErrInvalidInput, "dispute timeout has not elapsed")
	}
	c.Status = ChannelClosedDispute
	return nil
}
