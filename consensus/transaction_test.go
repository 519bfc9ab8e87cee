package consensus

import (
	"crypto/ed25519"
	"testing"
)

func signedTransaction(t *testing.T, mutate func(tx *Transaction)) (Transaction, ed25519.PublicKey) {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatalf("ed25519.GenerateKey: %v", err)
	}

	var sender Address
	copy(sender[:], pub)

	tx := Transaction{
		CodecVersion:     CodecVersion,
		TxType:           TxTransfer,
		SenderAddress:    sender,
		RecipientAddress: Address{0xaa},
		Amount:           1_000_000,
		Nonce:            0,
		GasLimit:         GasLimitTransfer,
		GasPrice:         1,
		Timestamp:        1000,
	}
	if mutate != nil {
		mutate(&tx)
	}

	sig := ed25519.Sign(priv, TransactionSigningMessage(tx))
	copy(tx.Signature[:], sig)
	return tx, pub
}

func TestVerifyTransactionSignature_Accept(t *testing.T) {
	tx, _ := signedTransaction(t, nil)
	if err := VerifyTransactionSignature(tx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestVerifyTransactionSignature_TamperedByteRejected(t *testing.T) {
	tx, _ := signedTransaction(t, nil)
	tx.Signature[0] ^= 0xff
	err := VerifyTransactionSignature(tx)
	if ce, ok := AsConsensusError(err); !ok || ce.Code != ErrInvalidSignature {
		t.Fatalf("got error %v, want ErrInvalidSignature", err)
	}
}

func TestVerifyTransactionSignature_TamperedFieldRejected(t *testing.T) {
	tx, _ := signedTransaction(t, nil)
	tx.Amount += 1
	err := VerifyTransactionSignature(tx)
	if ce, ok := AsConsensusError(err); !ok || ce.Code != ErrInvalidSignature {
		t.Fatalf("got error %v, want ErrInvalidSignature", err)
	}
}

func TestCalculateMinimumFee(t *testing.T) {
	tests := []struct {
		name string
		tx   Transaction
		want uint64
	}{
		{"percent fee dominates", Transaction{Amount: 100_000_000, GasLimit: 1, GasPrice: 1}, 10_000},
		{"gas fee dominates", Transaction{Amount: 1_000, GasLimit: 21_000, GasPrice: 10}, 210_000},
		{"floor applies", Transaction{Amount: 1, GasLimit: 1, GasPrice: 1}, MinTxFee},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := CalculateMinimumFee(tc.tx); got != tc.want {
				t.Fatalf("CalculateMinimumFee() = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestVerifyTransactionSemantics_Accept(t *testing.T) {
	tx, _ := signedTransaction(t, nil)
	snap := AccountSnapshot{Balance: 10_000_000, Nonce: 0}
	vr, err := VerifyTransactionSemantics(tx, snap)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !vr.Valid {
		t.Fatalf("expected valid result")
	}
	wantFee := tx.GasLimit * tx.GasPrice
	if vr.Fee != wantFee {
		t.Fatalf("Fee = %d, want %d", vr.Fee, wantFee)
	}
	if vr.TotalCost != tx.Amount+wantFee {
		t.Fatalf("TotalCost = %d, want %d", vr.TotalCost, tx.Amount+wantFee)
	}
}

func TestVerifyTransactionSemantics_NonceMismatch(t *testing.T) {
	tx, _ := signedTransaction(t, func(tx *Transaction) { tx.Nonce = 5 })
	snap := AccountSnapshot{Balance: 10_000_000, Nonce: 0}
	_, err := VerifyTransactionSemantics(tx, snap)
	if ce, ok := AsConsensusError(err); !ok || ce.Code != ErrNonceMismatch {
		t.Fatalf("got error %v, want ErrNonceMismatch", err)
	}
}

func TestVerifyTransactionSemantics_FeeExactlyAtMinimumAccepted(t *testing.T) {
	tx, _ := signedTransaction(t, func(tx *Transaction) {
		tx.Amount = 0
		tx.GasLimit = GasLimitTransfer
		tx.GasPrice = 1
	})
	// GasLimitTransfer * 1 = 21000, above MinTxFee of 1000, so the gas
	// component is already the binding minimum; no further adjustment needed.
	snap := AccountSnapshot{Balance: 1_000_000, Nonce: 0}
	vr, err := VerifyTransactionSemantics(tx, snap)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if vr.Fee != CalculateMinimumFee(tx) {
		t.Fatalf("Fee = %d, want exactly the minimum fee %d", vr.Fee, CalculateMinimumFee(tx))
	}
}

func TestVerifyTransactionSemantics_FeeOneBelowMinimumRejected(t *testing.T) {
	tx, _ := signedTransaction(t, func(tx *Transaction) {
		tx.Amount = 0
		tx.GasLimit = MinTxFee - 1
		tx.GasPrice = 1
	})
	// actual_fee is MinTxFee-1 = 999, one below the minimum fee of MinTxFee.
	snap := AccountSnapshot{Balance: 1_000_000, Nonce: 0}
	_, err := VerifyTransactionSemantics(tx, snap)
	if ce, ok := AsConsensusError(err); !ok || ce.Code != ErrFeeTooLow {
		t.Fatalf("got error %v, want ErrFeeTooLow", err)
	}
}

func TestVerifyTransactionSemantics_InsufficientBalance(t *testing.T) {
	tx, _ := signedTransaction(t, nil)
	snap := AccountSnapshot{Balance: 100, Nonce: 0}
	_, err := VerifyTransactionSemantics(tx, snap)
	if ce, ok := AsConsensusError(err); !ok || ce.Code != ErrInsufficientBalance {
		t.Fatalf("got error %v, want ErrInsufficientBalance", err)
	}
}

func TestVerifyTransactionSemantics_GasLimitBelowFloorRejected(t *testing.T) {
	tx, _ := signedTransaction(t, func(tx *Transaction) {
		tx.GasLimit = GasLimitTransfer - 1
		tx.GasPrice = 1000
	})
	snap := AccountSnapshot{Balance: 1_000_000_000, Nonce: 0}
	_, err := VerifyTransactionSemantics(tx, snap)
	if ce, ok := AsConsensusError(err); !ok || ce.Code != ErrGasLimitTooLow {
		t.Fatalf("got error %v, want ErrGasLimitTooLow", err)
	}
}

func TestVerifyTransaction_SignatureCheckedBeforeSemantics(t *testing.T) {
	tx, _ := signedTransaction(t, func(tx *Transaction) { tx.Nonce = 99 })
	tx.Signature[0] ^= 0xff
	snap := AccountSnapshot{Balance: 10_000_000, Nonce: 0}
	_, err := VerifyTransaction(tx, snap)
	if ce, ok := AsConsensusError(err); !ok || ce.Code != ErrInvalidSignature {
		t.Fatalf("got error %v, want ErrInvalidSignature (signature must be checked first)", err)
	}
}
