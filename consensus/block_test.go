package consensus

import (
	"crypto/ed25519"
	"testing"
)

// buildValidBlock assembles a block that passes every ValidateBlock rule, so
// each failure test can corrupt exactly one aspect of it.
func buildValidBlock(t *testing.T) (Block, Hash, uint64, int64) {
	t.Helper()

	parentHash := sha256Sum([]byte("genesis"))
	blockIndex := uint64(1)
	now := int64(2_000_000)

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
		RecipientAddress: Address{0x09},
		Amount:           500,
		Nonce:            0,
		GasLimit:         GasLimitTransfer,
		GasPrice:         1,
		Timestamp:        now,
	}
	sig := ed25519.Sign(priv, TransactionSigningMessage(tx))
	copy(tx.Signature[:], sig)

	txHash, err := TxHash(tx)
	if err != nil {
		t.Fatalf("TxHash: %v", err)
	}
	merkleRoot := MerkleRoot([]Hash{txHash})

	problem := Problem{ProblemType: ProblemSubsetSum, Tier: TierDesktop, Elements: []int64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}, Target: 9, Timestamp: now}
	solution := Solution{Indices: []uint32{0, 2, 4}, Timestamp: now}

	minerKey := make([]byte, 32)
	for i := range minerKey {
		minerKey[i] = 3
	}
	epochSalt := EpochSalt(parentHash, blockIndex)
	minerSalt, err := ComputeMinerSalt(minerKey, epochSalt, parentHash, blockIndex)
	if err != nil {
		t.Fatalf("ComputeMinerSalt: %v", err)
	}
	commitment, err := CreateCommitment(problem, solution, minerSalt, parentHash, blockIndex)
	if err != nil {
		t.Fatalf("CreateCommitment: %v", err)
	}
	commitmentHash, err := CommitmentHash(commitment)
	if err != nil {
		t.Fatalf("CommitmentHash: %v", err)
	}

	header := BlockHeader{
		CodecVersion:     CodecVersion,
		BlockIndex:       blockIndex,
		Timestamp:        now,
		ParentHash:       parentHash,
		MerkleRoot:       merkleRoot,
		MinerAddress:     Address{0x07},
		Commitment:       commitmentHash,
		DifficultyTarget: 0,
		Nonce:            0,
	}

	reveal := Reveal{Problem: problem, Solution: solution, MinerSalt: minerSalt, Nonce: 0}

	block := Block{Header: header, Transactions: []Transaction{tx}, Reveal: reveal}
	return block, parentHash, blockIndex, now
}

func TestValidateBlock_Accept(t *testing.T) {
	block, parentHash, height, now := buildValidBlock(t)
	if err := ValidateBlock(block, parentHash, height, now, BlockValidationPolicy{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateBlock_CodecVersionMismatch(t *testing.T) {
	block, parentHash, height, now := buildValidBlock(t)
	block.Header.CodecVersion = CodecVersion + 1
	err := ValidateBlock(block, parentHash, height, now, BlockValidationPolicy{})
	if ce, ok := AsConsensusError(err); !ok || ce.Code != ErrCodecVersionMismatch {
		t.Fatalf("got error %v, want ErrCodecVersionMismatch", err)
	}
}

func TestValidateBlock_WrongHeight(t *testing.T) {
	block, parentHash, height, now := buildValidBlock(t)
	err := ValidateBlock(block, parentHash, height+1, now, BlockValidationPolicy{})
	if ce, ok := AsConsensusError(err); !ok || ce.Code != ErrInvalidHeight {
		t.Fatalf("got error %v, want ErrInvalidHeight", err)
	}
}

func TestValidateBlock_WrongParentHash(t *testing.T) {
	block, _, height, now := buildValidBlock(t)
	wrongParent := sha256Sum([]byte("not the parent"))
	err := ValidateBlock(block, wrongParent, height, now, BlockValidationPolicy{})
	if ce, ok := AsConsensusError(err); !ok || ce.Code != ErrInvalidPrevHash {
		t.Fatalf("got error %v, want ErrInvalidPrevHash", err)
	}
}

func TestValidateBlock_TimestampExactlyAtDriftBoundaryAccepted(t *testing.T) {
	block, parentHash, height, now := buildValidBlock(t)
	block.Header.Timestamp = now + MaxTimestampDriftSeconds
	err := ValidateBlock(block, parentHash, height, now, BlockValidationPolicy{})
	if err != nil {
		t.Fatalf("unexpected error at exact drift boundary: %v", err)
	}
}

func TestValidateBlock_TimestampOneSecondPastDriftRejected(t *testing.T) {
	block, parentHash, height, now := buildValidBlock(t)
	block.Header.Timestamp = now + MaxTimestampDriftSeconds + 1
	err := ValidateBlock(block, parentHash, height, now, BlockValidationPolicy{})
	if ce, ok := AsConsensusError(err); !ok || ce.Code != ErrFutureTimestamp {
		t.Fatalf("got error %v, want ErrFutureTimestamp", err)
	}
}

func TestValidateBlock_TooOldTimestampRejected(t *testing.T) {
	block, parentHash, height, now := buildValidBlock(t)
	block.Header.Timestamp = now - MaxBlockAgeSeconds - 1
	err := ValidateBlock(block, parentHash, height, now, BlockValidationPolicy{})
	if ce, ok := AsConsensusError(err); !ok || ce.Code != ErrTooOldTimestamp {
		t.Fatalf("got error %v, want ErrTooOldTimestamp", err)
	}
}

func TestValidateBlock_CommitmentMismatchRejected(t *testing.T) {
	block, parentHash, height, now := buildValidBlock(t)
	block.Header.Commitment = sha256Sum([]byte("wrong"))
	err := ValidateBlock(block, parentHash, height, now, BlockValidationPolicy{})
	if ce, ok := AsConsensusError(err); !ok || ce.Code != ErrCommitmentMismatch {
		t.Fatalf("got error %v, want ErrCommitmentMismatch", err)
	}
}

func TestValidateBlock_TamperedSolutionFailsCommitmentMismatch(t *testing.T) {
	block, parentHash, height, now := buildValidBlock(t)
	// Changing the revealed solution changes the candidate commitment block.go
	// rebuilds, so it no longer hashes to header.Commitment.
	block.Reveal.Solution.Indices = []uint32{1, 3, 5}
	err := ValidateBlock(block, parentHash, height, now, BlockValidationPolicy{})
	if ce, ok := AsConsensusError(err); !ok || ce.Code != ErrCommitmentMismatch {
		t.Fatalf("got error %v, want ErrCommitmentMismatch", err)
	}
}

func TestValidateBlock_TamperedTransactionSignatureRejected(t *testing.T) {
	block, parentHash, height, now := buildValidBlock(t)
	block.Transactions[0].Signature[0] ^= 0xff
	err := ValidateBlock(block, parentHash, height, now, BlockValidationPolicy{})
	ce, ok := AsConsensusError(err)
	if !ok || ce.Code != ErrInvalidSignature {
		t.Fatalf("got error %v, want ErrInvalidSignature", err)
	}
	if ce.Fields["tx_index"] != 0 {
		t.Fatalf("expected tx_index field to name the offending transaction, got %v", ce.Fields)
	}
}

func TestValidateBlock_MerkleRootMismatchRejected(t *testing.T) {
	block, parentHash, height, now := buildValidBlock(t)
	block.Header.MerkleRoot = sha256Sum([]byte("wrong root"))
	err := ValidateBlock(block, parentHash, height, now, BlockValidationPolicy{})
	if ce, ok := AsConsensusError(err); !ok || ce.Code != ErrMerkleRootMismatch {
		t.Fatalf("got error %v, want ErrMerkleRootMismatch", err)
	}
}

func TestValidateBlock_RequireContentIDPolicy(t *testing.T) {
	block, parentHash, height, now := buildValidBlock(t)
	policy := BlockValidationPolicy{RequireContentID: true}
	err := ValidateBlock(block, parentHash, height, now, policy)
	if ce, ok := AsConsensusError(err); !ok || ce.Code != ErrCidMissing {
		t.Fatalf("got error %v, want ErrCidMissing", err)
	}

	block.ContentID = "bafy..."
	if err := ValidateBlock(block, parentHash, height, now, policy); err != nil {
		t.Fatalf("unexpected error once content_id is present: %v", err)
	}
}

func TestValidateBlock_ExtraDataTooLargeRejected(t *testing.T) {
	block, parentHash, height, now := buildValidBlock(t)
	block.Header.ExtraData = make([]byte, MaxExtraData+1)
	err := ValidateBlock(block, parentHash, height, now, BlockValidationPolicy{})
	if ce, ok := AsConsensusError(err); !ok || ce.Code != ErrExtraDataTooLarge {
		t.Fatalf("got error %v, want ErrExtraDataTooLarge", err)
	}
}
