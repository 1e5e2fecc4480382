package store

import (
	"encoding/binary"
	"fmt"
	"time"

	"go.etcd.io/bbolt"
)

var (
	bucketEntries  = []byte("entries")
	bucketMeta     = []byte("meta")
	keyFingerprint = []byte("fingerprint")
)

// openDB opens (or creates) the bolt file at path and makes sure the index
// buckets exist.
func openDB(path string) (*bbolt.DB, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, b := range [][]byte{bucketEntries, bucketMeta} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", b, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

// resetBucket drops a bucket and recreates it empty within tx.
func resetBucket(tx *bbolt.Tx, name []byte) (*bbolt.Bucket, error) {
	if tx.Bucket(name) != nil {
		if err := tx.DeleteBucket(name); err != nil {
			return nil, fmt.Errorf("failed to drop bucket %s: %w", name, err)
		}
	}
	return tx.CreateBucket(name)
}

// entryKey encodes an entry ID big-endian so that cursor order is ID order.
func entryKey(id int) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, uint64(id))
	return key
}

func decodeEntryKey(key []byte) (int, error) {
	if len(key) != 8 {
		return 0, fmt.Errorf("invalid entry key length %d", len(key))
	}
	return int(binary.BigEndian.Uint64(key)), nil
}
