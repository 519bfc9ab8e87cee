package consensus

import "encoding/binary"

// cursor is a strict reader over a binary buffer. Every read that would
// overrun the buffer returns a typed error instead of panicking.
type cursor struct {
	b   []byte
	pos int
}

func newCursor(b []byte) *cursor {
	return &cursor{b: b}
}

func (c *cursor) remaining() int {
	if c.pos >= len(c.b) {
		return 0
	}
	return len(c.b) - c.pos
}

func (c *cursor) readExact(n int) ([]byte, error) {
	if n < 0 || c.remaining() < n {
		return nil, cerr(ErrCodecError, "truncated record")
	}
	start := c.pos
	c.pos += n
	return c.b[start:c.pos], nil
}

func (c *cursor) readU8() (byte, error) {
	b, err := c.readExact(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (c *cursor) readU32() (uint32, error) {
	b, err := c.readExact(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (c *cursor) readU64() (uint64, error) {
	b, err := c.readExact(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

func (c *cursor) readI64() (int64, error) {
	v, err := c.readU64()
	return int64(v), err
}

func (c *cursor) readHash() (Hash, error) {
	var h Hash
	b, err := c.readExact(32)
	if err != nil {
		return h, err
	}
	copy(h[:], b)
	return h, nil
}

func (c *cursor) readAddress() (Address, error) {
	h, err := c.readHash()
	return Address(h), err
}

func (c *cursor) readSignature() (Signature, error) {
	var s Signature
	b, err := c.readExact(64)
	if err != nil {
		return s, err
	}
	copy(s[:], b)
	return s, nil
}

func (c *cursor) readVarUint() (uint64, error) {
	return decodeVarUint(c.b, &c.pos)
}

func (c *cursor) readBytes() ([]byte, error) {
	n, err := c.readVarUint()
	if err != nil {
		return nil, err
	}
	return c.readExact(int(n))
}

func DecodeProblemBinary(b []byte) (Problem, error) {
	c := newCursor(b)
	var p Problem
	pt, err := c.readU8()
	if err != nil {
		return p, err
	}
	p.ProblemType = ProblemType(pt)
	tier, err := c.readU8()
	if err != nil {
		return p, err
	}
	p.Tier = HardwareTier(tier)

	n, err := c.readVarUint()
	if err != nil {
		return p, err
	}
	p.Elements = make([]int64, n)
	for i := range p.Elements {
		v, err := c.readI64()
		if err != nil {
			return p, err
		}
		p.Elements[i] = v
	}
	if p.Target, err = c.readI64(); err != nil {
		return p, err
	}
	if p.Timestamp, err = c.readI64(); err != nil {
		return p, err
	}
	if c.remaining() != 0 {
		return p, cerr(ErrTrailingData, "trailing bytes after Problem")
	}
	return p, nil
}

func DecodeSolutionBinary(b []byte) (Solution, error) {
	c := newCursor(b)
	var s Solution
	n, err := c.readVarUint()
	if err != nil {
		return s, err
	}
	s.Indices = make([]uint32, n)
	for i := range s.Indices {
		v, err := c.readU32()
		if err != nil {
			return s, err
		}
		s.Indices[i] = v
	}
	if s.Timestamp, err = c.readI64(); err != nil {
		return s, err
	}
	if c.remaining() != 0 {
		return s, cerr(ErrTrailingData, "trailing bytes after Solution")
	}
	return s, nil
}

func DecodeCommitmentBinary(b []byte) (Commitment, error) {
	c := newCursor(b)
	var cm Commitment
	var err error
	if cm.EpochSalt, err = c.readHash(); err != nil {
		return cm, err
	}
	if cm.ProblemHash, err = c.readHash(); err != nil {
		return cm, err
	}
	if cm.SolutionHash, err = c.readHash(); err != nil {
		return cm, err
	}
	if cm.MinerSalt, err = c.readHash(); err != nil {
		return cm, err
	}
	if c.remaining() != 0 {
		return cm, cerr(ErrTrailingData, "trailing bytes after Commitment")
	}
	return cm, nil
}

func DecodeRevealBinary(b []byte) (Reveal, error) {
	c := newCursor(b)
	var r Reveal

	probBytes, err := c.readBytes()
	if err != nil {
		return r, err
	}
	r.Problem, err = DecodeProblemBinary(probBytes)
	if err != nil {
		return r, err
	}

	solBytes, err := c.readBytes()
	if err != nil {
		return r, err
	}
	r.Solution, err = DecodeSolutionBinary(solBytes)
	if err != nil {
		return r, err
	}

	if r.MinerSalt, err = c.readHash(); err != nil {
		return r, err
	}
	if r.Nonce, err = c.readU64(); err != nil {
		return r, err
	}
	if c.remaining() != 0 {
		return r, cerr(ErrTrailingData, "trailing bytes after Reveal")
	}
	return r, nil
}

func DecodeBlockHeaderBinary(b []byte) (BlockHeader, error) {
	c := newCursor(b)
	h, err := decodeBlockHeaderFromCursor(c)
	if err != nil {
		return h, err
	}
	if c.remaining() != 0 {
		return h, cerr(ErrTrailingData, "trailing bytes after BlockHeader")
	}
	return h, nil
}

func DecodeTransactionBinary(b []byte) (Transaction, error) {
	c := newCursor(b)
	var tx Transaction
	var err error
	if tx.CodecVersion, err = c.readU8(); err != nil {
		return tx, err
	}
	tt, err := c.readU8()
	if err != nil {
		return tx, err
	}
	tx.TxType = TxType(tt)
	if tx.SenderAddress, err = c.readAddress(); err != nil {
		return tx, err
	}
	if tx.RecipientAddress, err = c.readAddress(); err != nil {
		return tx, err
	}
	if tx.Amount, err = c.readU64(); err != nil {
		return tx, err
	}
	if tx.Nonce, err = c.readU64(); err != nil {
		return tx, err
	}
	if tx.GasLimit, err = c.readU64(); err != nil {
		return tx, err
	}
	if tx.GasPrice, err = c.readU64(); err != nil {
		return tx, err
	}
	if tx.Signature, err = c.readSignature(); err != nil {
		return tx, err
	}
	data, err := c.readBytes()
	if err != nil {
		return tx, err
	}
	if len(data) > MaxTxData {
		return tx, cerr(ErrInvalidInput, "tx data exceeds MaxTxData")
	}
	tx.Data = append([]byte(nil), data...)
	if tx.Timestamp, err = c.readI64(); err != nil {
		return tx, err
	}
	if c.remaining() != 0 {
		return tx, cerr(ErrTrailingData, "trailing bytes after Transaction")
	}
	return tx, nil
}

func DecodeBlockBinary(b []byte) (Block, error) {
	var blk Block
	if len(b) > MaxBlockSize {
		return blk, cerr(ErrBlockTooLarge, "block exceeds MaxBlockSize")
	}

	c := newCursor(b)
	header, err := decodeBlockHeaderFromCursor(c)
	if err != nil {
		return blk, err
	}
	blk.Header = header

	txCount, err := c.readVarUint()
	if err != nil {
		return blk, err
	}
	if txCount > MaxTxPerBlock {
		return blk, cerr(ErrTooManyTransactions, "tx_count exceeds MaxTxPerBlock")
	}
	blk.Transactions = make([]Transaction, txCount)
	for i := uint64(0); i < txCount; i++ {
		txBytes, err := c.readBytes()
		if err != nil {
			return blk, err
		}
		tx, err := DecodeTransactionBinary(txBytes)
		if err != nil {
			return blk, err
		}
		blk.Transactions[i] = tx
	}

	reveal, err := decodeRevealFromCursor(c)
	if err != nil {
		return blk, err
	}
	blk.Reveal = reveal

	cidBytes, err := c.readBytes()
	if err != nil {
		return blk, err
	}
	blk.ContentID = string(cidBytes)

	if c.remaining() != 0 {
		return blk, cerr(ErrTrailingData, "trailing bytes after Block")
	}
	return blk, nil
}

func decodeBlockHeaderFromCursor(c *cursor) (BlockHeader, error) {
	var h BlockHeader
	var err error
	if h.CodecVersion, err = c.readU8(); err != nil {
		return h, err
	}
	if h.BlockIndex, err = c.readU64(); err != nil {
		return h, err
	}
	if h.Timestamp, err = c.readI64(); err != nil {
		return h, err
	}
	if h.ParentHash, err = c.readHash(); err != nil {
		return h, err
	}
	if h.MerkleRoot, err = c.readHash(); err != nil {
		return h, err
	}
	if h.MinerAddress, err = c.readAddress(); err != nil {
		return h, err
	}
	if h.Commitment, err = c.readHash(); err != nil {
		return h, err
	}
	if h.DifficultyTarget, err = c.readU64(); err != nil {
		return h, err
	}
	if h.Nonce, err = c.readU64(); err != nil {
		return h, err
	}
	extra, err := c.readBytes()
	if err != nil {
		return h, err
	}
	if len(extra) > MaxExtraData {
		return h, cerr(ErrExtraDataTooLarge, "extra_data exceeds MaxExtraData")
	}
	h.ExtraData = append([]byte(nil), extra...)
	return h, nil
}

func decodeRevealFromCursor(c *cursor) (Reveal, error) {
	var r Reveal
	probBytes, err := c.readBytes()
	if err != nil {
		return r, err
	}
	if r.Problem, err = DecodeProblemBinary(probBytes); err != nil {
		return r, err
	}
	solBytes, err := c.readBytes()
	if err != nil {
		return r, err
	}
	if r.Solution, err = DecodeSolutionBinary(solBytes); err != nil {
		return r, err
	}
	if r.MinerSalt, err = c.readHash(); err != nil {
		return r, err
	}
	if r.Nonce, err = c.readU64(); err != nil {
		return r, err
	}
	return r, nil
}
