package state

import (
	"encoding/binary"

	"coinjecture.dev/consensus"
)

// TimeLockState is the time-lock lifecycle.
type TimeLockState uint8

const (
	TimeLockActive   TimeLockState = 1
	TimeLockReleased TimeLockState = 2
)

// TimeLock is the auxiliary record a TxTimeLockCreate transaction creates.
// Release is deliberately not performed by ApplyBlock: locked funds leave
// the record through an external sweep run by the host once UnlockTime has
// passed, never implicitly at block-finalize.
type TimeLock struct {
	ID            consensus.Hash
	Sender        consensus.Address
	Recipient     consensus.Address
	Amount        uint64
	UnlockTime    int64
	State         TimeLockState
	CreatedHeight uint64
	ResolvedHeight uint64
}

// timeLockCreatePayload is the Data layout for TxTimeLockCreate:
// unlock_time.le8. The lock's recipient and amount are the transaction's
// own RecipientAddress/Amount fields — no need to duplicate them in Data.
func decodeTimeLockCreatePayload(data []byte) (unlockTime int64, err error) {
	if len(data) != 8 {
		return 0, serr(consensus.ErrInvalidFieldType, "time-lock create payload must be 8 bytes")
	}
	return int64(binary.LittleEndian.Uint64(data)), nil
}

// EncodeTimeLockCreatePayload builds the Data field for a TxTimeLockCreate
// transaction.
func EncodeTimeLockCreatePayload(unlockTime int64) []byte {
	out := make([]byte, 8)
	binary.LittleEndian.PutUint64(out, uint64(unlockTime))
	return out
}
