package consensus

import "encoding/hex"

// Whole-block validation: composes the codec, commitment, proof,
// transaction and Merkle checks against an expected parent/height/clock.
// No mutation happens here — block.go only ever reads; state.ApplyBlock
// owns mutation.

// BlockValidationPolicy carries the host-supplied knobs block validation
// needs but the core does not own: whether a content-identifier is
// mandatory, and the minimum-difficulty floor. Both are optional.
type BlockValidationPolicy struct {
	RequireContentID     bool
	MinDifficultyNibbles int
}

// ValidateBlock runs the full validation sequence. Transaction checks here
// cover signatures only; state.ApplyBlock re-checks semantics against the
// in-block sender view, which does not exist yet at validation time.
func ValidateBlock(block Block, expectedParentHash Hash, expectedHeight uint64, now int64, policy BlockValidationPolicy) error {
	// 1. Structural.
	if block.Header.CodecVersion != CodecVersion {
		return cerr(ErrCodecVersionMismatch, "block header codec_version mismatch",
			"expected", CodecVersion, "got", block.Header.CodecVersion)
	}
	if len(block.Transactions) > MaxTxPerBlock {
		return cerr(ErrTooManyTransactions, "block exceeds MaxTxPerBlock")
	}
	if len(block.Header.ExtraData) > MaxExtraData {
		return cerr(ErrExtraDataTooLarge, "extra_data exceeds MaxExtraData")
	}
	if policy.RequireContentID && block.ContentID == "" {
		return cerr(ErrCidMissing, "policy requires a content identifier")
	}

	// 2. Height.
	if block.Header.BlockIndex != expectedHeight {
		return cerr(ErrInvalidHeight, "block_index does not match expected height",
			"expected", expectedHeight, "got", block.Header.BlockIndex)
	}

	// 3. Parent.
	if block.Header.ParentHash != expectedParentHash {
		return cerr(ErrInvalidPrevHash, "parent_hash does not match expected parent")
	}

	// 4. Timestamp.
	if block.Header.Timestamp > now+MaxTimestampDriftSeconds {
		return cerr(ErrFutureTimestamp, "block timestamp too far in the future",
			"now", now, "timestamp", block.Header.Timestamp)
	}
	if block.Header.Timestamp < now-MaxBlockAgeSeconds {
		return cerr(ErrTooOldTimestamp, "block timestamp too old",
			"now", now, "timestamp", block.Header.Timestamp)
	}

	// 5. Commitment-reveal. The header carries only the commitment record's
	// hash, so the candidate commitment is rebuilt from the reveal and the
	// claimed epoch, then its hash is checked against header.Commitment.
	candidateCommitment, err := CreateCommitment(block.Reveal.Problem, block.Reveal.Solution,
		block.Reveal.MinerSalt, expectedParentHash, expectedHeight)
	if err != nil {
		return err
	}
	commitmentHash, err := CommitmentHash(candidateCommitment)
	if err != nil {
		return err
	}
	if commitmentHash != block.Header.Commitment {
		return cerr(ErrCommitmentMismatch, "header commitment hash does not match reveal-derived commitment")
	}
	if err := VerifyCommitment(candidateCommitment, block.Reveal, expectedParentHash, expectedHeight); err != nil {
		return err
	}

	// 6. Proof.
	budget, err := BudgetForTier(block.Reveal.Problem.Tier)
	if err != nil {
		return err
	}
	if _, err := VerifySolution(block.Reveal.Problem, block.Reveal.Solution, budget); err != nil {
		return err
	}

	// 7. Each transaction's signature.
	for i, tx := range block.Transactions {
		if err := VerifyTransactionSignature(tx); err != nil {
			return withFields(err, "tx_index", i)
		}
	}

	// 8. Merkle root.
	leaves := make([]Hash, len(block.Transactions))
	for i, tx := range block.Transactions {
		h, err := TxHash(tx)
		if err != nil {
			return err
		}
		leaves[i] = h
	}
	if got := MerkleRoot(leaves); got != block.Header.MerkleRoot {
		return cerr(ErrMerkleRootMismatch, "computed transaction merkle root does not match header")
	}

	// 9. Difficulty floor (optional).
	if policy.MinDifficultyNibbles > 0 {
		headerHash, err := BlockHash(block.Header)
		if err != nil {
			return err
		}
		if !hasLeadingZeroNibbles(headerHash, policy.MinDifficultyNibbles) {
			return cerr(ErrInsufficientDifficulty, "header hash does not meet minimum difficulty",
				"required_nibbles", policy.MinDifficultyNibbles)
		}
	}

	return nil
}

func hasLeadingZeroNibbles(h Hash, n int) bool {
	hexStr := hex.EncodeToString(h[:])
	if n > len(hexStr) {
		n = len(hexStr)
	}
	for i := 0; i < n; i++ {
		if hexStr[i] != '0' {
			return false
		}
	}
	return true
}

func withFields(err error, kv ...any) error {
	ce, ok := AsConsensusError(err)
	if !ok {
		return err
	}
	if ce.Fields == nil {
		ce.Fields = map[string]any{}
	}
	for i := 0; i+1 < len(kv); i += 2 {
		key, _ := kv[i].(string)
		ce.Fields[key] = kv[i+1]
	}
	return ce
}
