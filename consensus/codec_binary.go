package consensus

// This file is the compact binary writer half of the codec. Field order
// is frozen per entity; changing a field requires bumping CodecVersion and
// producing golden hash vectors.

func EncodeProblemBinary(p Problem) ([]byte, error) {
	out := make([]byte, 0, 32+len(p.Elements)*8)
	out = append(out, byte(p.ProblemType))
	out = append(out, byte(p.Tier))
	out = append(out, encodeVarUint(uint64(len(p.Elements)))...)
	for _, e := range p.Elements {
		out = append(out, leI64(e)...)
	}
	out = append(out, leI64(p.Target)...)
	out = append(out, leI64(p.Timestamp)...)
	return out, nil
}

func EncodeSolutionBinary(s Solution) ([]byte, error) {
	out := make([]byte, 0, 16+len(s.Indices)*4)
	out = append(out, encodeVarUint(uint64(len(s.Indices)))...)
	for _, idx := range s.Indices {
		out = append(out, leU32(idx)...)
	}
	out = append(out, leI64(s.Timestamp)...)
	return out, nil
}

func EncodeCommitmentBinary(c Commitment) ([]byte, error) {
	out := make([]byte, 0, 128)
	out = append(out, c.EpochSalt[:]...)
	out = append(out, c.ProblemHash[:]...)
	out = append(out, c.SolutionHash[:]...)
	out = append(out, c.MinerSalt[:]...)
	return out, nil
}

func EncodeRevealBinary(r Reveal) ([]byte, error) {
	probBytes, err := EncodeProblemBinary(r.Problem)
	if err != nil {
		return nil, err
	}
	solBytes, err := EncodeSolutionBinary(r.Solution)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, len(probBytes)+len(solBytes)+40)
	out = append(out, encodeVarUint(uint64(len(probBytes)))...)
	out = append(out, probBytes...)
	out = append(out, encodeVarUint(uint64(len(solBytes)))...)
	out = append(out, solBytes...)
	out = append(out, r.MinerSalt[:]...)
	out = append(out, leU64(r.Nonce)...)
	return out, nil
}

func EncodeBlockHeaderBinary(h BlockHeader) ([]byte, error) {
	if len(h.ExtraData) > MaxExtraData {
		return nil, cerr(ErrExtraDataTooLarge, "extra_data exceeds MaxExtraData")
	}
	out := make([]byte, 0, 1+8+8+32+32+32+32+8+8+4+len(h.ExtraData))
	out = append(out, h.CodecVersion)
	out = append(out, leU64(h.BlockIndex)...)
	out = append(out, leI64(h.Timestamp)...)
	out = append(out, h.ParentHash[:]...)
	out = append(out, h.MerkleRoot[:]...)
	out = append(out, h.MinerAddress[:]...)
	out = append(out, h.Commitment[:]...)
	out = append(out, leU64(h.DifficultyTarget)...)
	out = append(out, leU64(h.Nonce)...)
	out = append(out, encodeVarUint(uint64(len(h.ExtraData)))...)
	out = append(out, h.ExtraData...)
	return out, nil
}

// EncodeTransactionBinary serializes a Transaction into its storage wire
// format. This is distinct from TransactionSigningMessage,
// which uses a fixed-width 4-byte data length and excludes the Signature
// field so the signature never signs itself.
func EncodeTransactionBinary(tx Transaction) ([]byte, error) {
	if len(tx.Data) > MaxTxData {
		return nil, cerr(ErrInvalidInput, "tx data exceeds MaxTxData")
	}
	out := make([]byte, 0, 1+1+32+32+8+8+8+8+64+4+len(tx.Data)+8)
	out = append(out, tx.CodecVersion)
	out = append(out, byte(tx.TxType))
	out = append(out, tx.SenderAddress[:]...)
	out = append(out, tx.RecipientAddress[:]...)
	out = append(out, leU64(tx.Amount)...)
	out = append(out, leU64(tx.Nonce)...)
	out = append(out, leU64(tx.GasLimit)...)
	out = append(out, leU64(tx.GasPrice)...)
	out = append(out, tx.Signature[:]...)
	out = append(out, encodeVarUint(uint64(len(tx.Data)))...)
	out = append(out, tx.Data...)
	out = append(out, leI64(tx.Timestamp)...)
	return out, nil
}

// EncodeBlockBinary serializes a Block: header || tx_count || txs || reveal
// || content_id.
func EncodeBlockBinary(b Block) ([]byte, error) {
	if len(b.Transactions) > MaxTxPerBlock {
		return nil, cerr(ErrTooManyTransactions, "block exceeds MaxTxPerBlock")
	}
	headerBytes, err := EncodeBlockHeaderBinary(b.Header)
	if err != nil {
		return nil, err
	}
	revealBytes, err := EncodeRevealBinary(b.Reveal)
	if err != nil {
		return nil, err
	}

	out := make([]byte, 0, len(headerBytes)+len(revealBytes)+64)
	out = append(out, headerBytes...)
	out = append(out, encodeVarUint(uint64(len(b.Transactions)))...)
	for _, tx := range b.Transactions {
		txBytes, err := EncodeTransactionBinary(tx)
		if err != nil {
			return nil, err
		}
		out = append(out, encodeVarUint(uint64(len(txBytes)))...)
		out = append(out, txBytes...)
	}
	out = append(out, revealBytes...)
	cidBytes := []byte(b.ContentID)
	out = append(out, encodeVarUint(uint64(len(cidBytes)))...)
	out = append(out, cidBytes...)

	if len(out) > MaxBlockSize {
		return nil, cerr(ErrBlockTooLarge, "block exceeds MaxBlockSize")
	}
	return out, nil
}

// TransactionSigningMessage builds the canonical signing preimage:
// codec_version || tx_type || sender || recipient || amount.le8 ||
// nonce.le8 || gas_limit.le8 || gas_price.le8 || data.len.le4 || data ||
// timestamp.le8. The signature is deliberately excluded — it is not the
// transaction's binary encoding, to avoid including the signature in its
// own hash preimage.
func TransactionSigningMessage(tx Transaction) []byte {
	out := make([]byte, 0, 1+1+32+32+8+8+8+8+4+len(tx.Data)+8)
	out = append(out, tx.CodecVersion)
	out = append(out, byte(tx.TxType))
	out = append(out, tx.SenderAddress[:]...)
	out = append(out, tx.RecipientAddress[:]...)
	out = append(out, leU64(tx.Amount)...)
	out = append(out, leU64(tx.Nonce)...)
	out = append(out, leU64(tx.GasLimit)...)
	out = append(out, leU64(tx.GasPrice)...)
	out = append(out, leU32(uint32(len(tx.Data)))...)
	out = append(out, tx.Data...)
	out = append(out, leI64(tx.Timestamp)...)
	return out
}
