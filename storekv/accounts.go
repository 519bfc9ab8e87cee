package storekv

import (
	"encoding/binary"

	bolt "go.etcd.io/bbolt"

	"coinjecture.dev/consensus"
)

// encodeAccountSnapshot/decodeAccountSnapshot use a fixed 16-byte layout
// (balance.le8 || nonce.le8) rather than a self-describing format: the
// bucket key (address) already disambiguates records, so no type tag is
// needed.
func encodeAccountSnapshot(s consensus.AccountSnapshot) []byte {
	out := make([]byte, 16)
	binary.LittleEndian.PutUint64(out[0:8], s.Balance)
	binary.LittleEndian.PutUint64(out[8:16], s.Nonce)
	return out
}

func decodeAccountSnapshot(b []byte) consensus.AccountSnapshot {
	if len(b) != 16 {
		return consensus.AccountSnapshot{}
	}
	return consensus.AccountSnapshot{
		Balance: binary.LittleEndian.Uint64(b[0:8]),
		Nonce:   binary.LittleEndian.Uint64(b[8:16]),
	}
}

// GetSnapshot implements state.AccountStore. An address never seen before
// reads back the zero snapshot; accounts exist implicitly from their first
// credit.
func (d *DB) GetSnapshot(addr consensus.Address) (consensus.AccountSnapshot, error) {
	var out consensus.AccountSnapshot
	err := d.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketAccounts).Get(accountKey(addr))
		if v == nil {
			return nil
		}
		out = decodeAccountSnapshot(v)
		return nil
	})
	return out, err
}
