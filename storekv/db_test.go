package storekv

import (
	"testing"

	"coinjecture.dev/consensus"
	"coinjecture.dev/state"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	datadir := t.TempDir()
	db, err := Open(datadir, "00112233445566778899aabbccddeeff00112233445566778899aabbccddeeff"[:64], nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestDB_AccountRoundTrip(t *testing.T) {
	db := openTestDB(t)

	var addr consensus.Address
	addr[0] = 0xAB

	snap, err := db.GetSnapshot(addr)
	if err != nil {
		t.Fatalf("GetSnapshot: %v", err)
	}
	if snap.Balance != 0 || snap.Nonce != 0 {
		t.Fatalf("expected zero snapshot for unseen address, got %+v", snap)
	}

	err = db.ApplyWrites(state.WriteSet{
		Accounts: []state.AccountWrite{{Address: addr, Balance: 500, Nonce: 3}},
	})
	if err != nil {
		t.Fatalf("ApplyWrites: %v", err)
	}

	snap, err = db.GetSnapshot(addr)
	if err != nil {
		t.Fatalf("GetSnapshot: %v", err)
	}
	if snap.Balance != 500 || snap.Nonce != 3 {
		t.Fatalf("got %+v, want balance=500 nonce=3", snap)
	}
}

func TestDB_AuxiliaryLedgersRoundTrip(t *testing.T) {
	db := openTestDB(t)

	var id consensus.Hash
	id[0] = 0x01
	var sender, recipient, arbiter consensus.Address
	sender[0], recipient[0], arbiter[0] = 1, 2, 3

	tl := state.TimeLock{ID: id, Sender: sender, Recipient: recipient, Amount: 10, UnlockTime: 100, State: state.TimeLockActive, CreatedHeight: 5}
	es := state.Escrow{ID: id, Sender: sender, Recipient: recipient, Arbiter: arbiter, Amount: 20, Timeout: 200, State: state.EscrowActive, CreatedHeight: 6}
	ch := state.Channel{ID: id, ParticipantA: sender, ParticipantB: recipient, BalanceA: 30, BalanceB: 40, Capacity: 70, Status: state.ChannelOpen, CreatedHeight: 7}

	if err := db.ApplyWrites(state.WriteSet{
		TimeLocks: []state.TimeLock{tl},
		Escrows:   []state.Escrow{es},
		Channels:  []state.Channel{ch},
	}); err != nil {
		t.Fatalf("ApplyWrites: %v", err)
	}

	gotTL, found, err := db.GetTimeLock(id)
	if err != nil || !found {
		t.Fatalf("GetTimeLock: found=%v err=%v", found, err)
	}
	if gotTL.Amount != 10 || gotTL.UnlockTime != 100 || gotTL.State != state.TimeLockActive {
		t.Fatalf("timelock mismatch: %+v", gotTL)
	}

	gotEs, found, err := db.GetEscrow(id)
	if err != nil || !found {
		t.Fatalf("GetEscrow: found=%v err=%v", found, err)
	}
	if gotEs.Amount != 20 || gotEs.Arbiter != arbiter {
		t.Fatalf("escrow mismatch: %+v", gotEs)
	}

	gotCh, found, err := db.GetChannel(id)
	if err != nil || !found {
		t.Fatalf("GetChannel: found=%v err=%v", found, err)
	}
	if gotCh.Capacity != 70 || gotCh.Status != state.ChannelOpen {
		t.Fatalf("channel mismatch: %+v", gotCh)
	}
}

func TestDB_GetMissingAuxiliaryRecords(t *testing.T) {
	db := openTestDB(t)
	var id consensus.Hash

	if _, found, err := db.GetTimeLock(id); err != nil || found {
		t.Fatalf("expected not found, got found=%v err=%v", found, err)
	}
	if _, found, err := db.GetEscrow(id); err != nil || found {
		t.Fatalf("expected not found, got found=%v err=%v", found, err)
	}
	if _, found, err := db.GetChannel(id); err != nil || found {
		t.Fatalf("expected not found, got found=%v err=%v", found, err)
	}
}
