package storekv

import (
	"encoding/binary"
	"fmt"

	bolt "go.etcd.io/bbolt"

	"coinjecture.dev/consensus"
	"coinjecture.dev/state"
)

// Fixed-layout bucket values for the three auxiliary ledgers, keyed by
// their 32-byte identifier (the bucket key), mirroring the account
// encoding's approach of skipping a self-describing format since each
// bucket only ever holds one record shape.

func encodeTimeLock(t state.TimeLock) []byte {
	out := make([]byte, 32+32+8+8+1+8+8)
	copy(out[0:32], t.Sender[:])
	copy(out[32:64], t.Recipient[:])
	binary.LittleEndian.PutUint64(out[64:72], t.Amount)
	binary.LittleEndian.PutUint64(out[72:80], uint64(t.UnlockTime))
	out[80] = byte(t.State)
	binary.LittleEndian.PutUint64(out[81:89], t.CreatedHeight)
	binary.LittleEndian.PutUint64(out[89:97], t.ResolvedHeight)
	return out
}

func decodeTimeLock(id consensus.Hash, b []byte) (state.TimeLock, error) {
	if len(b) != 97 {
		return state.TimeLock{}, fmt.Errorf("storekv: corrupt timelock record (%d bytes)", len(b))
	}
	t := state.TimeLock{ID: id}
	copy(t.Sender[:], b[0:32])
	copy(t.Recipient[:], b[32:64])
	t.Amount = binary.LittleEndian.Uint64(b[64:72])
	t.UnlockTime = int64(binary.LittleEndian.Uint64(b[72:80]))
	t.State = state.TimeLockState(b[80])
	t.CreatedHeight = binary.LittleEndian.Uint64(b[81:89])
	t.ResolvedHeight = binary.LittleEndian.Uint64(b[89:97])
	return t, nil
}

func encodeEscrow(e state.Escrow) []byte {
	out := make([]byte, 32+32+32+8+8+32+1+8+8)
	copy(out[0:32], e.Sender[:])
	copy(out[32:64], e.Recipient[:])
	copy(out[64:96], e.Arbiter[:])
	binary.LittleEndian.PutUint64(out[96:104], e.Amount)
	binary.LittleEndian.PutUint64(out[104:112], uint64(e.Timeout))
	copy(out[112:144], e.ConditionsHash[:])
	out[144] = byte(e.State)
	binary.LittleEndian.PutUint64(out[145:153], e.CreatedHeight)
	binary.LittleEndian.PutUint64(out[153:161], e.ResolvedHeight)
	return out
}

func decodeEscrow(id consensus.Hash, b []byte) (state.Escrow, error) {
	if len(b) != 161 {
		return state.Escrow{}, fmt.Errorf("storekv: corrupt escrow record (%d bytes)", len(b))
	}
	e := state.Escrow{ID: id}
	copy(e.Sender[:], b[0:32])
	copy(e.Recipient[:], b[32:64])
	copy(e.Arbiter[:], b[64:96])
	e.Amount = binary.LittleEndian.Uint64(b[96:104])
	e.Timeout = int64(binary.LittleEndian.Uint64(b[104:112]))
	copy(e.ConditionsHash[:], b[112:144])
	e.State = state.EscrowState(b[144])
	e.CreatedHeight = binary.LittleEndian.Uint64(b[145:153])
	e.ResolvedHeight = binary.LittleEndian.Uint64(b[153:161])
	return e, nil
}

func encodeChannel(c state.Channel) []byte {
	out := make([]byte, 32+32+8+8+8+8+1+8+8+8)
	copy(out[0:32], c.ParticipantA[:])
	copy(out[32:64], c.ParticipantB[:])
	binary.LittleEndian.PutUint64(out[64:72], c.BalanceA)
	binary.LittleEndian.PutUint64(out[72:80], c.BalanceB)
	binary.LittleEndian.PutUint64(out[80:88], c.Capacity)
	binary.LittleEndian.PutUint64(out[88:96], c.Sequence)
	out[96] = byte(c.Status)
	binary.LittleEndian.PutUint64(out[97:105], uint64(c.DisputeTimeout))
	binary.LittleEndian.PutUint64(out[105:113], uint64(c.DisputeStartedAt))
	binary.LittleEndian.PutUint64(out[113:121], c.CreatedHeight)
	return out
}

func decodeChannel(id consensus.Hash, b []byte) (state.Channel, error) {
	if len(b) != 121 {
		return state.Channel{}, fmt.Errorf("storekv: corrupt channel record (%d bytes)", len(b))
	}
	c := state.Channel{ID: id}
	copy(c.ParticipantA[:], b[0:32])
	copy(c.ParticipantB[:], b[32:64])
	c.BalanceA = binary.LittleEndian.Uint64(b[64:72])
	c.BalanceB = binary.LittleEndian.Uint64(b[72:80])
	c.Capacity = binary.LittleEndian.Uint64(b[80:88])
	c.Sequence = binary.LittleEndian.Uint64(b[88:96])
	c.Status = state.ChannelStatus(b[96])
	c.DisputeTimeout = int64(binary.LittleEndian.Uint64(b[97:105]))
	c.DisputeStartedAt = int64(binary.LittleEndian.Uint64(b[105:113]))
	c.CreatedHeight = binary.LittleEndian.Uint64(b[113:121])
	return c, nil
}

// GetTimeLock implements state.AuxiliaryStore.
func (d *DB) GetTimeLock(id consensus.Hash) (state.TimeLock, bool, error) {
	var out state.TimeLock
	found := false
	err := d.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketTimeLocks).Get(hashKey(id))
		if v == nil {
			return nil
		}
		t, err := decodeTimeLock(id, v)
		if err != nil {
			return err
		}
		out, found = t, true
		return nil
	})
	return out, found, err
}

// GetEscrow implements state.AuxiliaryStore.
func (d *DB) GetEscrow(id consensus.Hash) (state.Escrow, bool, error) {
	var out state.Escrow
	found := false
	err := d.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketEscrows).Get(hashKey(id))
		if v == nil {
			return nil
		}
		e, err := decodeEscrow(id, v)
		if err != nil {
			return err
		}
		out, found = e, true
		return nil
	})
	return out, found, err
}

// GetChannel implements state.AuxiliaryStore.
func (d *DB) GetChannel(id consensus.Hash) (state.Channel, bool, error) {
	var out state.Channel
	found := false
	err := d.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketChannels).Get(hashKey(id))
		if v == nil {
			return nil
		}
		c, err := decodeChannel(id, v)
		if err != nil {
			return err
		}
		out, found = c, true
		return nil
	})
	return out, found, err
}

// ApplyWrites implements state.Store: the whole WriteSet commits inside one
// bbolt read-write transaction, so a block's writes land together or not at
// all.
func (d *DB) ApplyWrites(ws state.WriteSet) error {
	return d.db.Update(func(tx *bolt.Tx) error {
		accounts := tx.Bucket(bucketAccounts)
		for _, w := range ws.Accounts {
			snap := consensus.AccountSnapshot{Balance: w.Balance, Nonce: w.Nonce}
			if err := accounts.Put(accountKey(w.Address), encodeAccountSnapshot(snap)); err != nil {
				return fmt.Errorf("storekv: put account: %w", err)
			}
		}

		timeLocks := tx.Bucket(bucketTimeLocks)
		for _, t := range ws.TimeLocks {
			if err := timeLocks.Put(hashKey(t.ID), encodeTimeLock(t)); err != nil {
				return fmt.Errorf("storekv: put timelock: %w", err)
			}
		}

		escrows := tx.Bucket(bucketEscrows)
		for _, e := range ws.Escrows {
			if err := escrows.Put(hashKey(e.ID), encodeEscrow(e)); err != nil {
				return fmt.Errorf("storekv: put escrow: %w", err)
			}
		}

		channels := tx.Bucket(bucketChannels)
		for _, c := range ws.Channels {
			if err := channels.Put(hashKey(c.ID), encodeChannel(c)); err != nil {
				return fmt.Errorf("storekv: put channel: %w", err)
			}
		}

		return nil
	})
}
