package state

import "coinjecture.dev/consensus"

// serr builds a *consensus.ConsensusError the same way consensus/errors.go's
// unexported cerr does; state can't call cerr directly (different package)
// but ConsensusError's fields are exported for exactly this reason.
func serr(code consensus.ErrorCode, msg string, fields ...any) *consensus.ConsensusError {
	e := &consensus.ConsensusError{Code: code, Message: msg}
	if len(fields) > 0 {
		e.Fields = make(map[string]any, len(fields)/2)
		for i := 0; i+1 < len(fields); i += 2 {
			key, _ := fields[i].(string)
			e.Fields[key] = fields[i+1]
		}
	}
	return e
}

func consensusBalanceOverflow() error {
	return serr(consensus.ErrBalanceOverflow, "account balance overflow on credit")
}

func consensusInsufficientBalance(available, required uint64) error {
	return serr(consensus.ErrInsufficientBalance, "account balance insufficient for debit",
		"available", available, "required", required)
}
