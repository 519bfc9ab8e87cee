package consensus

// Hash is a 32-byte SHA-256 digest, shared across threads as an immutable
// value.
type Hash [32]byte

// Address is a 32-byte account identifier. DeriveAddress computes
// SHA-256(public-key); a transaction's SenderAddress instead holds the raw
// Ed25519 public key, which is not hashed or checked against a digest (see
// transaction.go).
type Address [32]byte

// Signature is a 64-byte Ed25519 signature.
type Signature [64]byte

// BlockHeader is the fixed-layout record whose canonical binary encoding's
// SHA-256 is the block's identity.
type BlockHeader struct {
	CodecVersion     uint8
	BlockIndex       uint64 // height
	Timestamp        int64  // seconds since Unix epoch
	ParentHash       Hash
	MerkleRoot       Hash
	MinerAddress     Address
	Commitment       Hash // hash of the reveal-bound commitment record
	DifficultyTarget uint64
	Nonce            uint64
	ExtraData        []byte // <= MaxExtraData
}

// Problem is the subset-sum puzzle a miner must solve. ElementRange for
// ProblemSubsetSum is constrained by Tier.
type Problem struct {
	ProblemType ProblemType
	Tier        HardwareTier
	Elements    []int64
	Target      int64
	Timestamp   int64
}

// Solution proposes indices into Problem.Elements whose sum equals the
// target.
type Solution struct {
	Indices   []uint32
	Timestamp int64
}

// Commitment binds a miner's identity, problem, and solution to an epoch
// before the miner reveals them.
type Commitment struct {
	EpochSalt    Hash
	ProblemHash  Hash
	SolutionHash Hash
	MinerSalt    Hash
}

// Reveal is the public disclosure of the values a Commitment committed to.
type Reveal struct {
	Problem   Problem
	Solution  Solution
	MinerSalt Hash
	Nonce     uint64
}

// Transaction is a signed, fixed-layout envelope: a tagged sum with the
// shared fields held once. Variant-specific payload fields (unlock_time,
// arbiter, escrow_id, channel sequence numbers, ...) are carried in Data
// and parsed by the state engine per TxType.
type Transaction struct {
	CodecVersion     uint8
	TxType           TxType
	SenderAddress    Address
	RecipientAddress Address
	Amount           uint64
	Nonce            uint64
	GasLimit         uint64
	GasPrice         uint64
	Signature        Signature
	Data             []byte // <= MaxTxData
	Timestamp        int64
}

// Block is the top-level consensus record.
type Block struct {
	Header       BlockHeader
	Transactions []Transaction
	Reveal       Reveal
	ContentID    string // optional IPFS-style CID
}

// AccountSnapshot is a read-only view of one address's ledger state,
// supplied to the validator/engine by the external account store. Balance
// is the u64 spendable-wei view the transaction validator deals in; a
// wider ledger representation is the store's concern.
type AccountSnapshot struct {
	Balance uint64
	Nonce   uint64
}

// VerificationResult reports how much of a VerifyBudget a proof check
// consumed, giving callers visibility into verification cost.
type VerificationResult struct {
	Valid      bool
	OpsUsed    uint64
	DurationMs uint64
	MemoryUsed uint64
}
