package consensus

import (
	"crypto/hmac"
	"crypto/sha256"
)

// Commit-reveal anti-grinding protocol. A miner commits to (problem,
// solution) before revealing either, binding the commitment to the miner's
// identity (private key) and to the specific epoch (parent_hash,
// block_index) so a commitment cannot be replayed into a different chain
// position or reused by another miner.

// ProblemHash is SHA-256 of the problem's canonical binary encoding.
func ProblemHash(p Problem) (Hash, error) {
	b, err := EncodeProblemBinary(p)
	if err != nil {
		return Hash{}, err
	}
	return sha256Sum(b), nil
}

// SolutionHash is SHA-256 of the solution's canonical binary encoding.
func SolutionHash(s Solution) (Hash, error) {
	b, err := EncodeSolutionBinary(s)
	if err != nil {
		return Hash{}, err
	}
	return sha256Sum(b), nil
}

// ComputeMinerSalt derives miner_salt = HMAC-SHA256(minerPrivateKey,
// epoch_salt || parent_hash || block_index.le). This binds the
// commitment to the miner's identity, the epoch, and prevents salt reuse
// across epochs.
func ComputeMinerSalt(minerPrivateKey []byte, epochSalt, parentHash Hash, blockIndex uint64) (Hash, error) {
	mac := hmac.New(sha256.New, minerPrivateKey)
	mac.Write(epochSalt[:])
	mac.Write(parentHash[:])
	mac.Write(leU64(blockIndex))
	var out Hash
	copy(out[:], mac.Sum(nil))
	return out, nil
}

// CreateCommitment builds the commit-phase record.
func CreateCommitment(problem Problem, solution Solution, minerSalt Hash, parentHash Hash, blockIndex uint64) (Commitment, error) {
	problemHash, err := ProblemHash(problem)
	if err != nil {
		return Commitment{}, err
	}
	solutionHash, err := SolutionHash(solution)
	if err != nil {
		return Commitment{}, err
	}
	return Commitment{
		EpochSalt:    EpochSalt(parentHash, blockIndex),
		ProblemHash:  problemHash,
		SolutionHash: solutionHash,
		MinerSalt:    minerSalt,
	}, nil
}

// CommitmentHash is the value a block header stores in its Commitment
// field: SHA-256 of the commitment record's canonical binary encoding.
func CommitmentHash(c Commitment) (Hash, error) {
	b, err := EncodeCommitmentBinary(c)
	if err != nil {
		return Hash{}, err
	}
	return sha256Sum(b), nil
}

// VerifyCommitment checks that reveal matches commitment under the epoch
// named by (parentHash, blockIndex). Four checks, run in order so the
// first failure names the specific mismatch:
//  1. epoch_salt binding
//  2. problem_hash
//  3. solution_hash
//  4. miner_salt
func VerifyCommitment(commitment Commitment, reveal Reveal, parentHash Hash, blockIndex uint64) error {
	expectedEpochSalt := EpochSalt(parentHash, blockIndex)
	if commitment.EpochSalt != expectedEpochSalt {
		return cerr(ErrEpochBindingFailed, "commitment epoch_salt does not match parent_hash/block_index")
	}

	computedProblemHash, err := ProblemHash(reveal.Problem)
	if err != nil {
		return err
	}
	if commitment.ProblemHash != computedProblemHash {
		return cerr(ErrProblemHashMismatch, "revealed problem does not hash to commitment.problem_hash",
			"expected", hexLower(commitment.ProblemHash[:]), "computed", hexLower(computedProblemHash[:]))
	}

	computedSolutionHash, err := SolutionHash(reveal.Solution)
	if err != nil {
		return err
	}
	if commitment.SolutionHash != computedSolutionHash {
		return cerr(ErrSolutionHashMismatch, "revealed solution does not hash to commitment.solution_hash",
			"expected", hexLower(commitment.SolutionHash[:]), "computed", hexLower(computedSolutionHash[:]))
	}

	if commitment.MinerSalt != reveal.MinerSalt {
		return cerr(ErrMinerSaltInvalid, "revealed miner_salt does not match commitment.miner_salt")
	}

	return nil
}
