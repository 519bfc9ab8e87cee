package consensus

import "time"

// Budgeted NP-solution verification. Verification of a subset-sum witness is
// O(k) in the solution size, never exponential. The ops budget is counted
// during that O(k) sweep and stops it once exceeded; the memory budget is
// checked after the sweep, and the wall-clock budget after the verifier
// returns.

// VerifySolution dispatches to the problem-specific verifier and enforces
// the wall-clock bound after it returns.
func VerifySolution(problem Problem, solution Solution, budget VerifyBudget) (VerificationResult, error) {
	start := time.Now()

	var result VerificationResult
	var err error
	switch problem.ProblemType {
	case ProblemSubsetSum:
		result, err = verifySubsetSum(problem, solution, budget)
	default:
		return VerificationResult{}, cerr(ErrNotImplemented, problem.ProblemType.String()+" verification not implemented")
	}
	if err != nil {
		return VerificationResult{}, err
	}

	durationMs := uint64(time.Since(start).Milliseconds())
	result.DurationMs = durationMs
	if durationMs > budget.MaxDurationMs {
		return VerificationResult{}, cerr(ErrBudgetTimeExceeded, "verification exceeded time budget",
			"max_ms", budget.MaxDurationMs, "actual_ms", durationMs)
	}
	return result, nil
}

func verifySubsetSum(problem Problem, solution Solution, budget VerifyBudget) (VerificationResult, error) {
	if err := validateTierConstraints(problem.Tier, len(problem.Elements)); err != nil {
		return VerificationResult{}, err
	}

	if len(solution.Indices) > len(problem.Elements) {
		return VerificationResult{}, cerr(ErrInvalidProofSize, "solution has more indices than problem has elements",
			"tier", int(problem.Tier), "elements", len(solution.Indices), "max", len(problem.Elements))
	}

	var opsUsed uint64
	seen := make(map[uint32]bool, len(solution.Indices))
	for _, idx := range solution.Indices {
		opsUsed++
		if opsUsed > budget.MaxOps {
			return VerificationResult{}, cerr(ErrBudgetOpsExceeded, "verification exceeded ops budget",
				"max_ops", budget.MaxOps, "actual_ops", opsUsed)
		}
		if seen[idx] {
			return VerificationResult{}, cerr(ErrDuplicateIndex, "duplicate index in solution", "index", idx)
		}
		seen[idx] = true
	}

	var sum int64
	for _, idx := range solution.Indices {
		opsUsed++
		if opsUsed > budget.MaxOps {
			return VerificationResult{}, cerr(ErrBudgetOpsExceeded, "verification exceeded ops budget",
				"max_ops", budget.MaxOps, "actual_ops", opsUsed)
		}
		if int(idx) >= len(problem.Elements) {
			return VerificationResult{}, cerr(ErrIndexOutOfBounds, "index exceeds element count",
				"index", idx, "max", len(problem.Elements))
		}
		element := problem.Elements[idx]
		next := sum + element
		// Overflow check (defense in depth): a correct subset of the
		// problem's own elements should never overflow int64, but an
		// adversarial Problem is not otherwise bounds-checked here.
		if element > 0 && next < sum {
			return VerificationResult{}, cerr(ErrInvalidInput, "integer overflow in subset sum")
		}
		if element < 0 && next > sum {
			return VerificationResult{}, cerr(ErrInvalidInput, "integer overflow in subset sum")
		}
		sum = next
	}

	if sum != problem.Target {
		return VerificationResult{}, cerr(ErrSubsetSumInvalid, "sum of selected elements does not equal target",
			"sum", sum, "target", problem.Target)
	}

	memoryUsed := uint64(len(solution.Indices)*4 + len(seen)*4)
	if memoryUsed > budget.MaxMemoryBytes {
		return VerificationResult{}, cerr(ErrTierMemoryLimitExceeded, "verification exceeded memory budget",
			"tier", int(problem.Tier), "max_bytes", budget.MaxMemoryBytes, "actual_bytes", memoryUsed)
	}

	return VerificationResult{Valid: true, OpsUsed: opsUsed, MemoryUsed: memoryUsed}, nil
}

func validateTierConstraints(tier HardwareTier, elementCount int) error {
	minElem, maxElem := tier.ElementRange()
	if elementCount < minElem || elementCount > maxElem {
		return cerr(ErrTierConstraintViolation, "element count outside tier's allowed range",
			"tier", int(tier), "min_elem", minElem, "max_elem", maxElem, "actual", elementCount)
	}
	return nil
}

// QuickValidateSolution runs cheap syntactic checks before the heavier
// VerifySolution call, so a mempool can reject obviously-bad submissions
// without spending ops/time budget.
func QuickValidateSolution(problem Problem, solution Solution) error {
	if !problem.ProblemType.IsProductionReady() {
		return cerr(ErrNotImplemented, problem.ProblemType.String()+" is not production ready")
	}
	if !problem.Tier.Valid() {
		return cerr(ErrInvalidTier, "invalid hardware tier", "tier", int(problem.Tier))
	}
	if err := validateTierConstraints(problem.Tier, len(problem.Elements)); err != nil {
		return err
	}
	if len(solution.Indices) == 0 {
		return cerr(ErrInvalidInput, "solution cannot be empty")
	}
	if len(solution.Indices) > len(problem.Elements) {
		return cerr(ErrInvalidProofSize, "solution has more indices than problem has elements",
			"tier", int(problem.Tier), "elements", len(solution.Indices), "max", len(problem.Elements))
	}
	return nil
}
