package consensus

import "encoding/binary"

// VarUint is a CompactSize-style variable-length unsigned integer
// encoding. Values below 0xfd are a single byte; the 0xfd, 0xfe and 0xff
// tags introduce a 2/4/8-byte little-endian payload. Decoding rejects any
// encoding that isn't the minimal one for its value (OverlongVarint).
func encodeVarUint(v uint64) []byte {
	switch {
	case v < 0xfd:
		return []byte{byte(v)}
	case v <= 0xffff:
		out := make([]byte, 3)
		out[0] = 0xfd
		binary.LittleEndian.PutUint16(out[1:], uint16(v))
		return out
	case v <= 0xffffffff:
		out := make([]byte, 5)
		out[0] = 0xfe
		binary.LittleEndian.PutUint32(out[1:], uint32(v))
		return out
	default:
		out := make([]byte, 9)
		out[0] = 0xff
		binary.LittleEndian.PutUint64(out[1:], v)
		return out
	}
}

func decodeVarUint(b []byte, off *int) (uint64, error) {
	if *off >= len(b) {
		return 0, cerr(ErrCodecError, "varint: truncated tag")
	}
	tag := b[*off]
	*off++

	switch {
	case tag < 0xfd:
		return uint64(tag), nil
	case tag == 0xfd:
		if len(b)-*off < 2 {
			return 0, cerr(ErrCodecError, "varint: truncated u16 payload")
		}
		v := binary.LittleEndian.Uint16(b[*off:])
		*off += 2
		if v < 0xfd {
			return 0, cerr(ErrOverlongVarint, "non-minimal varint (0xfd prefix)")
		}
		return uint64(v), nil
	case tag == 0xfe:
		if len(b)-*off < 4 {
			return 0, cerr(ErrCodecError, "varint: truncated u32 payload")
		}
		v := binary.LittleEndian.Uint32(b[*off:])
		*off += 4
		if v <= 0xffff {
			return 0, cerr(ErrOverlongVarint, "non-minimal varint (0xfe prefix)")
		}
		return uint64(v), nil
	default: // 0xff
		if len(b)-*off < 8 {
			return 0, cerr(ErrCodecError, "varint: truncated u64 payload")
		}
		v := binary.LittleEndian.Uint64(b[*off:])
		*off += 8
		if v <= 0xffffffff {
			return 0, cerr(ErrOverlongVarint, "non-minimal varint (0xff prefix)")
		}
		return v, nil
	}
}

func leU16(v uint16) []byte {
	out := make([]byte, 2)
	binary.LittleEndian.PutUint16(out, v)
	return out
}

func leU32(v uint32) []byte {
	out := make([]byte, 4)
	binary.LittleEndian.PutUint32(out, v)
	return out
}

func leU64(v uint64) []byte {
	out := make([]byte, 8)
	binary.LittleEndian.PutUint64(out, v)
	return out
}

func leI64(v int64) []byte {
	return leU64(uint64(v))
}
