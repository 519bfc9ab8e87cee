package consensus

// Frozen protocol constants. Any change is a hard fork and MUST
// bump CodecVersion; golden-hash vector tests across versions are mandatory.
const (
	CodecVersion uint8 = 1

	MaxBlockSize  = 10 * 1024 * 1024 // 10 MiB
	MaxTxPerBlock = 10_000
	MaxExtraData  = 256
	MaxTxData     = 1 << 20 // 1 MiB

	MaxProofElements = 32

	MinTxFee              uint64 = 1_000
	FeePercentDenominator uint64 = 10_000
	GasLimitTransfer      uint64 = 21_000
	GasLimitEscrow        uint64 = 50_000

	MaxTimestampDriftSeconds int64 = 120
	MaxBlockAgeSeconds       int64 = 7_200
)

// ProblemType tags the NP problem kind a Problem record claims to pose.
// Only SubsetSum is implemented in the consensus-verifying path; every other
// tag is reserved and MUST be rejected with NotImplemented.
type ProblemType uint8

const (
	ProblemSubsetSum       ProblemType = 1
	ProblemKnapsack        ProblemType = 2
	ProblemGraphColoring   ProblemType = 3
	ProblemSAT             ProblemType = 4
	ProblemTSP             ProblemType = 5
	ProblemFactorization   ProblemType = 6
	ProblemLatticeProblems ProblemType = 7
)

func (p ProblemType) String() string {
	switch p {
	case ProblemSubsetSum:
		return "subset_sum"
	case ProblemKnapsack:
		return "knapsack"
	case ProblemGraphColoring:
		return "graph_coloring"
	case ProblemSAT:
		return "sat"
	case ProblemTSP:
		return "tsp"
	case ProblemFactorization:
		return "factorization"
	case ProblemLatticeProblems:
		return "lattice_problems"
	default:
		return "unknown"
	}
}

// IsProductionReady reports whether the consensus verifier implements this
// problem type. Only subset-sum does today.
func (p ProblemType) IsProductionReady() bool {
	return p == ProblemSubsetSum
}

// TxType discriminates the transaction family. Transfer, ProblemSubmission
// and BountyPayment move funds directly; the rest create or act on
// auxiliary state records.
type TxType uint8

const (
	TxTransfer          TxType = 1
	TxProblemSubmission TxType = 2
	TxBountyPayment     TxType = 3
	TxTimeLockCreate    TxType = 4
	TxEscrowCreate      TxType = 5
	TxEscrowRelease     TxType = 6
	TxEscrowRefund      TxType = 7
	TxChannelOpen       TxType = 8
	TxChannelUpdate     TxType = 9
	TxChannelCoopClose  TxType = 10
	TxChannelUnilClose  TxType = 11
)

func (t TxType) String() string {
	switch t {
	case TxTransfer:
		return "transfer"
	case TxProblemSubmission:
		return "problem_submission"
	case TxBountyPayment:
		return "bounty_payment"
	case TxTimeLockCreate:
		return "timelock_create"
	case TxEscrowCreate:
		return "escrow_create"
	case TxEscrowRelease:
		return "escrow_release"
	case TxEscrowRefund:
		return "escrow_refund"
	case TxChannelOpen:
		return "channel_open"
	case TxChannelUpdate:
		return "channel_update"
	case TxChannelCoopClose:
		return "channel_coop_close"
	case TxChannelUnilClose:
		return "channel_unilateral_close"
	default:
		return "unknown"
	}
}

// GasFloor returns the minimum gas_limit for this transaction kind:
// 21,000 for a Transfer, 50,000 for everything else.
func (t TxType) GasFloor() uint64 {
	if t == TxTransfer {
		return GasLimitTransfer
	}
	return GasLimitEscrow
}
