package consensus

import "crypto/ed25519"

// Transaction signature and semantic validation. SenderAddress doubles as
// the raw Ed25519 public key: DeriveAddress is a convenience for display
// and for deriving new addresses, but the wire protocol itself treats a
// transaction's sender field as the verifying key directly — both are 32
// bytes, and the envelope has no separate public-key field.

// ValidationResult reports the cost a semantically-valid transaction will
// charge the sender.
type ValidationResult struct {
	Valid     bool
	TotalCost uint64
	GasUsed   uint64
	Fee       uint64
}

// VerifyTransactionSignature checks tx.Signature against tx.SenderAddress
// over TransactionSigningMessage(tx).
func VerifyTransactionSignature(tx Transaction) error {
	pub := ed25519.PublicKey(tx.SenderAddress[:])
	message := TransactionSigningMessage(tx)
	if !ed25519.Verify(pub, message, tx.Signature[:]) {
		return cerr(ErrInvalidSignature, "ed25519 signature verification failed")
	}
	return nil
}

// CalculateMinimumFee computes max(amount/FeePercentDenominator, gas_limit *
// gas_price, MinTxFee). A zero gas_price caps the gas-based
// component at zero, so the percentage and minimum-fee floors still apply.
func CalculateMinimumFee(tx Transaction) uint64 {
	percentFee := tx.Amount / FeePercentDenominator

	gasFee := tx.GasLimit * tx.GasPrice
	if tx.GasPrice != 0 && gasFee/tx.GasPrice != tx.GasLimit {
		gasFee = ^uint64(0) // overflow: saturate, mirrors checked_mul().unwrap_or(u64::MAX)
	}

	fee := percentFee
	if gasFee > fee {
		fee = gasFee
	}
	if MinTxFee > fee {
		fee = MinTxFee
	}
	return fee
}

// VerifyTransactionSemantics applies the nonce/fee/balance/gas rules
// against the sender's current on-chain state. Checks run in a fixed order
// so the first violated rule is the one reported.
func VerifyTransactionSemantics(tx Transaction, senderState AccountSnapshot) (ValidationResult, error) {
	if tx.Nonce != senderState.Nonce {
		return ValidationResult{}, cerr(ErrNonceMismatch, "nonce does not match sender's current nonce",
			"expected", senderState.Nonce, "got", tx.Nonce)
	}

	minFee := CalculateMinimumFee(tx)
	actualFee := tx.GasLimit * tx.GasPrice
	if tx.GasPrice != 0 && actualFee/tx.GasPrice != tx.GasLimit {
		return ValidationResult{}, cerr(ErrAmountOverflow, "gas_limit * gas_price overflows u64")
	}
	if actualFee < minFee {
		return ValidationResult{}, cerr(ErrFeeTooLow, "fee below required minimum",
			"required", minFee, "provided", actualFee)
	}

	totalCost := tx.Amount + actualFee
	if totalCost < tx.Amount {
		return ValidationResult{}, cerr(ErrAmountOverflow, "amount + fee overflows u64")
	}

	if senderState.Balance < totalCost {
		return ValidationResult{}, cerr(ErrInsufficientBalance, "sender cannot afford amount + fee",
			"available", senderState.Balance, "required", totalCost)
	}

	minGas := tx.TxType.GasFloor()
	if tx.GasLimit < minGas {
		return ValidationResult{}, cerr(ErrGasLimitTooLow, "gas_limit below minimum for tx_type",
			"required", minGas, "provided", tx.GasLimit)
	}

	return ValidationResult{Valid: true, TotalCost: totalCost, GasUsed: tx.GasLimit, Fee: actualFee}, nil
}

// VerifyTransaction is the full entry point: signature first, then
// semantics. ValidateBlock checks only signatures and state.ApplyBlock only
// semantics, so neither of them calls it.
func VerifyTransaction(tx Transaction, senderState AccountSnapshot) (ValidationResult, error) {
	if err := VerifyTransactionSignature(tx); err != nil {
		return ValidationResult{}, err
	}
	return VerifyTransactionSemantics(tx, senderState)
}
