package consensus

import (
	"bytes"
	"encoding/json"
	"reflect"
	"testing"
)

func sampleBlock() Block {
	header := BlockHeader{
		CodecVersion:     CodecVersion,
		BlockIndex:       5,
		Timestamp:        1700,
		ParentHash:       sha256Sum([]byte("parent")),
		MerkleRoot:       Hash{},
		MinerAddress:     Address{0x01},
		Commitment:       Hash{},
		DifficultyTarget: 1000,
		Nonce:            7,
		ExtraData:        []byte("hello"),
	}
	problem := Problem{ProblemType: ProblemSubsetSum, Tier: TierDesktop, Elements: []int64{1, 2, 3, 4, 5}, Target: 9, Timestamp: 1700}
	solution := Solution{Indices: []uint32{0, 2, 4}, Timestamp: 1700}
	reveal := Reveal{Problem: problem, Solution: solution, MinerSalt: sha256Sum([]byte("salt")), Nonce: 3}
	tx := Transaction{
		CodecVersion:     CodecVersion,
		TxType:           TxTransfer,
		SenderAddress:    Address{0x02},
		RecipientAddress: Address{0x03},
		Amount:           100,
		Nonce:            0,
		GasLimit:         GasLimitTransfer,
		GasPrice:         1,
		Data:             []byte{0xde, 0xad},
		Timestamp:        1700,
	}
	return Block{Header: header, Transactions: []Transaction{tx}, Reveal: reveal, ContentID: "cid123"}
}

func TestProblemBinaryRoundTrip(t *testing.T) {
	p := Problem{ProblemType: ProblemSubsetSum, Tier: TierDesktop, Elements: []int64{1, -2, 3}, Target: 2, Timestamp: 42}
	b, err := EncodeProblemBinary(p)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := DecodeProblemBinary(b)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.ProblemType != p.ProblemType || got.Tier != p.Tier || got.Target != p.Target || got.Timestamp != p.Timestamp {
		t.Fatalf("round trip mismatch: %+v != %+v", got, p)
	}
	if len(got.Elements) != len(p.Elements) {
		t.Fatalf("element count mismatch")
	}
	for i := range p.Elements {
		if got.Elements[i] != p.Elements[i] {
			t.Fatalf("element %d mismatch: %d != %d", i, got.Elements[i], p.Elements[i])
		}
	}
}

func TestTransactionBinaryRoundTrip(t *testing.T) {
	blk := sampleBlock()
	tx := blk.Transactions[0]
	b, err := EncodeTransactionBinary(tx)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := DecodeTransactionBinary(b)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !reflect.DeepEqual(got, tx) {
		t.Fatalf("round trip mismatch: %+v != %+v", got, tx)
	}
}

func TestBlockBinaryRoundTrip(t *testing.T) {
	blk := sampleBlock()
	b, err := EncodeBlockBinary(blk)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := DecodeBlockBinary(b)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	gotBytes, err := EncodeBlockBinary(got)
	if err != nil {
		t.Fatalf("re-encode: %v", err)
	}
	if !bytes.Equal(b, gotBytes) {
		t.Fatalf("round trip produced different binary bytes")
	}
}

func TestCrossPathEquivalentBlock(t *testing.T) {
	blk := sampleBlock()
	if err := CrossPathEquivalentBlock(blk); err != nil {
		t.Fatalf("unexpected cross-path mismatch: %v", err)
	}
}

func TestDecodeTransactionJSON_UnknownFieldRejected(t *testing.T) {
	tx := sampleBlock().Transactions[0]
	b, err := EncodeTransactionJSON(tx)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(b, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	extra, _ := json.Marshal("surprise")
	m["unexpected_field"] = extra
	tampered, err := json.Marshal(m)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	_, err = DecodeTransactionJSON(tampered)
	if ce, ok := AsConsensusError(err); !ok || ce.Code != ErrUnknownField {
		t.Fatalf("got error %v, want ErrUnknownField", err)
	}
}

func TestDecodeTransactionJSON_MissingFieldRejected(t *testing.T) {
	tx := sampleBlock().Transactions[0]
	b, err := EncodeTransactionJSON(tx)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(b, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	delete(m, "nonce")
	tampered, err := json.Marshal(m)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	_, err = DecodeTransactionJSON(tampered)
	if ce, ok := AsConsensusError(err); !ok || ce.Code != ErrMissingField {
		t.Fatalf("got error %v, want ErrMissingField", err)
	}
}

func TestDecodeTransactionJSON_InvalidFloatRejected(t *testing.T) {
	tx := sampleBlock().Transactions[0]
	b, err := EncodeTransactionJSON(tx)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(b, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	m["amount"] = json.RawMessage("1.5")
	tampered, err := json.Marshal(m)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	_, err = DecodeTransactionJSON(tampered)
	if ce, ok := AsConsensusError(err); !ok || ce.Code != ErrInvalidFloatValue {
		t.Fatalf("got error %v, want ErrInvalidFloatValue", err)
	}
}

func TestDecodeTransactionJSON_InvalidHexTypeRejected(t *testing.T) {
	tx := sampleBlock().Transactions[0]
	b, err := EncodeTransactionJSON(tx)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(b, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	m["sender_address"] = json.RawMessage("12345")
	tampered, err := json.Marshal(m)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	_, err = DecodeTransactionJSON(tampered)
	if ce, ok := AsConsensusError(err); !ok || ce.Code != ErrInvalidFieldType {
		t.Fatalf("got error %v, want ErrInvalidFieldType", err)
	}
}

func TestUnmarshalStrict_TrailingDataRejected(t *testing.T) {
	tx := sampleBlock().Transactions[0]
	b, err := EncodeTransactionJSON(tx)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	tampered := append(append([]byte{}, b...), []byte(`{}`)...)
	_, err = DecodeTransactionJSON(tampered)
	if ce, ok := AsConsensusError(err); !ok || ce.Code != ErrTrailingData {
		t.Fatalf("got error %v, want ErrTrailingData", err)
	}
}

func TestDecodeProblemBinary_TrailingDataRejected(t *testing.T) {
	p := Problem{ProblemType: ProblemSubsetSum, Tier: TierDesktop, Elements: []int64{1, 2}, Target: 3, Timestamp: 1}
	b, err := EncodeProblemBinary(p)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	tampered := append(b, 0xff)
	_, err = DecodeProblemBinary(tampered)
	if ce, ok := AsConsensusError(err); !ok || ce.Code != ErrTrailingData {
		t.Fatalf("got error %v, want ErrTrailingData", err)
	}
}
