package consensus

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// This file is the canonical-JSON half of the codec. Each Encode*JSON
// function except EncodeCommitmentJSON first calls the matching
// Encode*Binary function, so a value the binary codec rejects is rejected
// here too; the binary bytes are then discarded, and the JSON object is
// built by walking the typed input value directly. The JSON is not obtained
// by decoding the binary form back out, so agreement between the two paths
// is not guaranteed by construction; CrossPathEquivalentBlock checks it
// after the fact. Binary fields are emitted as lowercase hex strings; object
// keys come out in ascending lexicographic order because Go's
// encoding/json sorts map[string]any keys on Marshal.
//
// Cross-path equivalence is defined here as: decoding the
// canonical JSON back into the typed value and re-deriving its canonical
// binary encoding MUST reproduce byte-identical binary to the one the JSON
// was derived from. Two nodes — one trusting the wire's binary blocks, one
// that received and decoded JSON — therefore always agree on
// SHA256(CanonicalBinary(E)), the one content hash this protocol hashes and
// signs over.

func hexLower(b []byte) string { return hex.EncodeToString(b) }

func jsonMarshalSorted(v map[string]any) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, cerr(ErrCodecError, fmt.Sprintf("json marshal: %v", err))
	}
	return b, nil
}

func EncodeProblemJSON(p Problem) ([]byte, error) {
	if _, err := EncodeProblemBinary(p); err != nil {
		return nil, err
	}
	elems := make([]any, len(p.Elements))
	for i, e := range p.Elements {
		elems[i] = e
	}
	m := map[string]any{
		"problem_type": int(p.ProblemType),
		"tier":         int(p.Tier),
		"elements":     elems,
		"target":       p.Target,
		"timestamp":    p.Timestamp,
	}
	return jsonMarshalSorted(m)
}

func EncodeSolutionJSON(s Solution) ([]byte, error) {
	if _, err := EncodeSolutionBinary(s); err != nil {
		return nil, err
	}
	idx := make([]any, len(s.Indices))
	for i, v := range s.Indices {
		idx[i] = v
	}
	m := map[string]any{
		"indices":   idx,
		"timestamp": s.Timestamp,
	}
	return jsonMarshalSorted(m)
}

func EncodeCommitmentJSON(c Commitment) ([]byte, error) {
	m := map[string]any{
		"epoch_salt":    hexLower(c.EpochSalt[:]),
		"problem_hash":  hexLower(c.ProblemHash[:]),
		"solution_hash": hexLower(c.SolutionHash[:]),
		"miner_salt":    hexLower(c.MinerSalt[:]),
	}
	return jsonMarshalSorted(m)
}

func EncodeRevealJSON(r Reveal) ([]byte, error) {
	if _, err := EncodeRevealBinary(r); err != nil {
		return nil, err
	}
	probJSON, err := EncodeProblemJSON(r.Problem)
	if err != nil {
		return nil, err
	}
	solJSON, err := EncodeSolutionJSON(r.Solution)
	if err != nil {
		return nil, err
	}
	var probMap, solMap map[string]any
	json.Unmarshal(probJSON, &probMap)
	json.Unmarshal(solJSON, &solMap)
	m := map[string]any{
		"problem":    probMap,
		"solution":   solMap,
		"miner_salt": hexLower(r.MinerSalt[:]),
		"nonce":      r.Nonce,
	}
	return jsonMarshalSorted(m)
}

func EncodeBlockHeaderJSON(h BlockHeader) ([]byte, error) {
	if _, err := EncodeBlockHeaderBinary(h); err != nil {
		return nil, err
	}
	m := map[string]any{
		"codec_version":     int(h.CodecVersion),
		"block_index":       h.BlockIndex,
		"timestamp":         h.Timestamp,
		"parent_hash":       hexLower(h.ParentHash[:]),
		"merkle_root":       hexLower(h.MerkleRoot[:]),
		"miner_address":     hexLower(h.MinerAddress[:]),
		"commitment":        hexLower(h.Commitment[:]),
		"difficulty_target": h.DifficultyTarget,
		"nonce":             h.Nonce,
		"extra_data":        hexLower(h.ExtraData),
	}
	return jsonMarshalSorted(m)
}

func EncodeTransactionJSON(tx Transaction) ([]byte, error) {
	if _, err := EncodeTransactionBinary(tx); err != nil {
		return nil, err
	}
	m := map[string]any{
		"codec_version":     int(tx.CodecVersion),
		"tx_type":           int(tx.TxType),
		"sender_address":    hexLower(tx.SenderAddress[:]),
		"recipient_address": hexLower(tx.RecipientAddress[:]),
		"amount":            tx.Amount,
		"nonce":             tx.Nonce,
		"gas_limit":         tx.GasLimit,
		"gas_price":         tx.GasPrice,
		"signature":         hexLower(tx.Signature[:]),
		"data":              hexLower(tx.Data),
		"timestamp":         tx.Timestamp,
	}
	return jsonMarshalSorted(m)
}

func EncodeBlockJSON(b Block) ([]byte, error) {
	if _, err := EncodeBlockBinary(b); err != nil {
		return nil, err
	}
	headerJSON, err := EncodeBlockHeaderJSON(b.Header)
	if err != nil {
		return nil, err
	}
	var headerMap map[string]any
	json.Unmarshal(headerJSON, &headerMap)

	txs := make([]any, len(b.Transactions))
	for i, tx := range b.Transactions {
		txJSON, err := EncodeTransactionJSON(tx)
		if err != nil {
			return nil, err
		}
		var txMap map[string]any
		json.Unmarshal(txJSON, &txMap)
		txs[i] = txMap
	}

	revealJSON, err := EncodeRevealJSON(b.Reveal)
	if err != nil {
		return nil, err
	}
	var revealMap map[string]any
	json.Unmarshal(revealJSON, &revealMap)

	m := map[string]any{
		"header":       headerMap,
		"transactions": txs,
		"reveal":       revealMap,
		"content_id":   b.ContentID,
	}
	return jsonMarshalSorted(m)
}

// --- strict decode -----------------------------------------------------

func strictFields(raw map[string]json.RawMessage, required ...string) error {
	want := make(map[string]bool, len(required))
	for _, f := range required {
		want[f] = true
	}
	for k := range raw {
		if !want[k] {
			return cerr(ErrUnknownField, "unknown field", "field", k)
		}
	}
	for _, f := range required {
		if _, ok := raw[f]; !ok {
			return cerr(ErrMissingField, "missing field", "field", f)
		}
	}
	return nil
}

func decodeHexField(raw map[string]json.RawMessage, name string, wantLen int) ([]byte, error) {
	var s string
	if err := json.Unmarshal(raw[name], &s); err != nil {
		return nil, cerr(ErrInvalidFieldType, "expected hex string", "field", name)
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, cerr(ErrInvalidFieldType, "invalid hex", "field", name)
	}
	if wantLen >= 0 && len(b) != wantLen {
		return nil, cerr(ErrInvalidFieldType, "wrong length", "field", name)
	}
	return b, nil
}

func decodeIntField(raw map[string]json.RawMessage, name string) (int64, error) {
	var n json.Number
	if err := json.Unmarshal(raw[name], &n); err != nil {
		return 0, cerr(ErrInvalidFieldType, "expected integer", "field", name)
	}
	v, err := n.Int64()
	if err != nil {
		return 0, cerr(ErrInvalidFloatValue, "expected integer, got fractional/NaN/Inf", "field", name)
	}
	return v, nil
}

func unmarshalStrict(b []byte) (map[string]json.RawMessage, error) {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var raw map[string]json.RawMessage
	if err := dec.Decode(&raw); err != nil {
		return nil, cerr(ErrCodecError, fmt.Sprintf("json decode: %v", err))
	}
	var extra any
	if err := dec.Decode(&extra); err == nil {
		return nil, cerr(ErrTrailingData, "trailing JSON after top-level object")
	}
	return raw, nil
}

func DecodeProblemJSON(b []byte) (Problem, error) {
	var p Problem
	raw, err := unmarshalStrict(b)
	if err != nil {
		return p, err
	}
	if err := strictFields(raw, "problem_type", "tier", "elements", "target", "timestamp"); err != nil {
		return p, err
	}
	pt, err := decodeIntField(raw, "problem_type")
	if err != nil {
		return p, err
	}
	p.ProblemType = ProblemType(pt)
	tier, err := decodeIntField(raw, "tier")
	if err != nil {
		return p, err
	}
	p.Tier = HardwareTier(tier)

	var nums []json.Number
	if err := json.Unmarshal(raw["elements"], &nums); err != nil {
		return p, cerr(ErrInvalidFieldType, "expected array of integers", "field", "elements")
	}
	p.Elements = make([]int64, len(nums))
	for i, n := range nums {
		v, err := n.Int64()
		if err != nil {
			return p, cerr(ErrInvalidFloatValue, "non-integer element", "field", "elements")
		}
		p.Elements[i] = v
	}
	if p.Target, err = decodeIntField(raw, "target"); err != nil {
		return p, err
	}
	if p.Timestamp, err = decodeIntField(raw, "timestamp"); err != nil {
		return p, err
	}
	return p, nil
}

func DecodeSolutionJSON(b []byte) (Solution, error) {
	var s Solution
	raw, err := unmarshalStrict(b)
	if err != nil {
		return s, err
	}
	if err := strictFields(raw, "indices", "timestamp"); err != nil {
		return s, err
	}
	var nums []json.Number
	if err := json.Unmarshal(raw["indices"], &nums); err != nil {
		return s, cerr(ErrInvalidFieldType, "expected array of integers", "field", "indices")
	}
	s.Indices = make([]uint32, len(nums))
	for i, n := range nums {
		v, err := n.Int64()
		if err != nil || v < 0 || v > 0xffffffff {
			return s, cerr(ErrInvalidFieldType, "invalid index", "field", "indices")
		}
		s.Indices[i] = uint32(v)
	}
	if s.Timestamp, err = decodeIntField(raw, "timestamp"); err != nil {
		return s, err
	}
	return s, nil
}

func DecodeCommitmentJSON(b []byte) (Commitment, error) {
	var c Commitment
	raw, err := unmarshalStrict(b)
	if err != nil {
		return c, err
	}
	if err := strictFields(raw, "epoch_salt", "problem_hash", "solution_hash", "miner_salt"); err != nil {
		return c, err
	}
	es, err := decodeHexField(raw, "epoch_salt", 32)
	if err != nil {
		return c, err
	}
	copy(c.EpochSalt[:], es)
	ph, err := decodeHexField(raw, "problem_hash", 32)
	if err != nil {
		return c, err
	}
	copy(c.ProblemHash[:], ph)
	sh, err := decodeHexField(raw, "solution_hash", 32)
	if err != nil {
		return c, err
	}
	copy(c.SolutionHash[:], sh)
	ms, err := decodeHexField(raw, "miner_salt", 32)
	if err != nil {
		return c, err
	}
	copy(c.MinerSalt[:], ms)
	return c, nil
}

func DecodeRevealJSON(b []byte) (Reveal, error) {
	var r Reveal
	raw, err := unmarshalStrict(b)
	if err != nil {
		return r, err
	}
	if err := strictFields(raw, "problem", "solution", "miner_salt", "nonce"); err != nil {
		return r, err
	}
	if r.Problem, err = DecodeProblemJSON(raw["problem"]); err != nil {
		return r, err
	}
	if r.Solution, err = DecodeSolutionJSON(raw["solution"]); err != nil {
		return r, err
	}
	ms, err := decodeHexField(raw, "miner_salt", 32)
	if err != nil {
		return r, err
	}
	copy(r.MinerSalt[:], ms)
	n, err := decodeIntField(raw, "nonce")
	if err != nil {
		return r, err
	}
	r.Nonce = uint64(n)
	return r, nil
}

func DecodeBlockHeaderJSON(b []byte) (BlockHeader, error) {
	var h BlockHeader
	raw, err := unmarshalStrict(b)
	if err != nil {
		return h, err
	}
	required := []string{"codec_version", "block_index", "timestamp", "parent_hash",
		"merkle_root", "miner_address", "commitment", "difficulty_target", "nonce", "extra_data"}
	if err := strictFields(raw, required...); err != nil {
		return h, err
	}
	cv, err := decodeIntField(raw, "codec_version")
	if err != nil {
		return h, err
	}
	h.CodecVersion = uint8(cv)
	bi, err := decodeIntField(raw, "block_index")
	if err != nil {
		return h, err
	}
	h.BlockIndex = uint64(bi)
	if h.Timestamp, err = decodeIntField(raw, "timestamp"); err != nil {
		return h, err
	}
	ph, err := decodeHexField(raw, "parent_hash", 32)
	if err != nil {
		return h, err
	}
	copy(h.ParentHash[:], ph)
	mr, err := decodeHexField(raw, "merkle_root", 32)
	if err != nil {
		return h, err
	}
	copy(h.MerkleRoot[:], mr)
	ma, err := decodeHexField(raw, "miner_address", 32)
	if err != nil {
		return h, err
	}
	copy(h.MinerAddress[:], ma)
	cm, err := decodeHexField(raw, "commitment", 32)
	if err != nil {
		return h, err
	}
	copy(h.Commitment[:], cm)
	dt, err := decodeIntField(raw, "difficulty_target")
	if err != nil {
		return h, err
	}
	h.DifficultyTarget = uint64(dt)
	nonce, err := decodeIntField(raw, "nonce")
	if err != nil {
		return h, err
	}
	h.Nonce = uint64(nonce)
	extra, err := decodeHexField(raw, "extra_data", -1)
	if err != nil {
		return h, err
	}
	if len(extra) > MaxExtraData {
		return h, cerr(ErrExtraDataTooLarge, "extra_data exceeds MaxExtraData")
	}
	h.ExtraData = extra
	return h, nil
}

func DecodeTransactionJSON(b []byte) (Transaction, error) {
	var tx Transaction
	raw, err := unmarshalStrict(b)
	if err != nil {
		return tx, err
	}
	required := []string{"codec_version", "tx_type", "sender_address", "recipient_address",
		"amount", "nonce", "gas_limit", "gas_price", "signature", "data", "timestamp"}
	if err := strictFields(raw, required...); err != nil {
		return tx, err
	}
	cv, err := decodeIntField(raw, "codec_version")
	if err != nil {
		return tx, err
	}
	tx.CodecVersion = uint8(cv)
	tt, err := decodeIntField(raw, "tx_type")
	if err != nil {
		return tx, err
	}
	tx.TxType = TxType(tt)
	sa, err := decodeHexField(raw, "sender_address", 32)
	if err != nil {
		return tx, err
	}
	copy(tx.SenderAddress[:], sa)
	ra, err := decodeHexField(raw, "recipient_address", 32)
	if err != nil {
		return tx, err
	}
	copy(tx.RecipientAddress[:], ra)
	amt, err := decodeIntField(raw, "amount")
	if err != nil {
		return tx, err
	}
	tx.Amount = uint64(amt)
	nonce, err := decodeIntField(raw, "nonce")
	if err != nil {
		return tx, err
	}
	tx.Nonce = uint64(nonce)
	gl, err := decodeIntField(raw, "gas_limit")
	if err != nil {
		return tx, err
	}
	tx.GasLimit = uint64(gl)
	gp, err := decodeIntField(raw, "gas_price")
	if err != nil {
		return tx, err
	}
	tx.GasPrice = uint64(gp)
	sig, err := decodeHexField(raw, "signature", 64)
	if err != nil {
		return tx, err
	}
	copy(tx.Signature[:], sig)
	data, err := decodeHexField(raw, "data", -1)
	if err != nil {
		return tx, err
	}
	if len(data) > MaxTxData {
		return tx, cerr(ErrInvalidInput, "tx data exceeds MaxTxData")
	}
	tx.Data = data
	if tx.Timestamp, err = decodeIntField(raw, "timestamp"); err != nil {
		return tx, err
	}
	return tx, nil
}

func DecodeBlockJSON(b []byte) (Block, error) {
	var blk Block
	raw, err := unmarshalStrict(b)
	if err != nil {
		return blk, err
	}
	if err := strictFields(raw, "header", "transactions", "reveal", "content_id"); err != nil {
		return blk, err
	}
	if blk.Header, err = DecodeBlockHeaderJSON(raw["header"]); err != nil {
		return blk, err
	}
	var rawTxs []json.RawMessage
	if err := json.Unmarshal(raw["transactions"], &rawTxs); err != nil {
		return blk, cerr(ErrInvalidFieldType, "expected array", "field", "transactions")
	}
	blk.Transactions = make([]Transaction, len(rawTxs))
	for i, rt := range rawTxs {
		tx, err := DecodeTransactionJSON(rt)
		if err != nil {
			return blk, err
		}
		blk.Transactions[i] = tx
	}
	if blk.Reveal, err = DecodeRevealJSON(raw["reveal"]); err != nil {
		return blk, err
	}
	var cid string
	if err := json.Unmarshal(raw["content_id"], &cid); err != nil {
		return blk, cerr(ErrInvalidFieldType, "expected string", "field", "content_id")
	}
	blk.ContentID = cid
	return blk, nil
}

// --- cross-path equivalence ---------------------------------------------

// CrossPathEquivalentBlock verifies that decoding b's canonical JSON and
// re-deriving its canonical binary reproduces the exact bytes binary(b)
// did. A mismatch is CrossPathMismatch: critical, alertable.
func CrossPathEquivalentBlock(b Block) error {
	wantBinary, err := EncodeBlockBinary(b)
	if err != nil {
		return err
	}
	jsonBytes, err := EncodeBlockJSON(b)
	if err != nil {
		return err
	}
	roundTripped, err := DecodeBlockJSON(jsonBytes)
	if err != nil {
		return err
	}
	gotBinary, err := EncodeBlockBinary(roundTripped)
	if err != nil {
		return err
	}
	if !bytes.Equal(wantBinary, gotBinary) {
		wantHash := sha256Sum(wantBinary)
		gotHash := sha256Sum(gotBinary)
		return cerr(ErrCrossPathMismatch, "binary/JSON round trip diverged",
			"binary_hash", hexLower(wantHash[:]),
			"json_hash", hexLower(gotHash[:]))
	}
	return nil
}
