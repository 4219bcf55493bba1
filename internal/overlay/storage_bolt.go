package overlay

import (
	"fmt"

	"github.com/boltdb/bolt"
)

var bucketName = []byte("overlay_storage")
var dataKey = []byte("data")

// BoltStorage is a disk-backed Storage sink. It exists to give the opaque
// storage interface a genuine pluggable implementation beyond the default
// no-op, used whenever a simulation is built with a bolt storage path.
type BoltStorage struct {
	id   PeerID
	db   *bolt.DB
	owns bool
}

// NewBoltStorage opens (creating if necessary) a bolt database at path,
// owned exclusively by the returned BoltStorage — Close releases it. For
// many nodes sharing one file, open the database once and build each
// node's sink with NewBoltStorageFromDB instead; bolt's file lock means a
// second Open against the same path from the same process would block.
func NewBoltStorage(path string, id PeerID) (*BoltStorage, error) {
	db, err := bolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("overlay: opening bolt storage at %q: %w", path, err)
	}
	storage, err := newBoltStorage(db, id, true)
	if err != nil {
		db.Close()
		return nil, err
	}
	return storage, nil
}

// NewBoltStorageFromDB builds a storage sink backed by an already-open bolt
// database, keyed by its own per-peer bucket. The caller retains ownership
// of db and is responsible for closing it once every sink built from it is
// done — this is how SimulationBuilder gives every node in a run its own
// bucket within one shared file.
func NewBoltStorageFromDB(db *bolt.DB, id PeerID) (*BoltStorage, error) {
	return newBoltStorage(db, id, false)
}

func newBoltStorage(db *bolt.DB, id PeerID, owns bool) (*BoltStorage, error) {
	bucket := append([]byte(nil), bucketName...)
	bucket = append(bucket, id.Bytes()...)
	err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucket)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("overlay: creating bolt bucket for %s: %w", id, err)
	}
	return &BoltStorage{id: id, db: db, owns: owns}, nil
}

func (s *BoltStorage) bucketName() []byte {
	bucket := append([]byte(nil), bucketName...)
	return append(bucket, s.id.Bytes()...)
}

func (s *BoltStorage) Write(data []byte) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(s.bucketName())
		return b.Put(dataKey, data)
	})
}

func (s *BoltStorage) Read() ([]byte, error) {
	var out []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(s.bucketName())
		if v := b.Get(dataKey); v != nil {
			out = append([]byte(nil), v...)
		}
		return nil
	})
	return out, err
}

func (s *BoltStorage) Poll() bool {
	return true
}

// Close releases the underlying bolt database handle if this BoltStorage
// opened it itself. A sink built with NewBoltStorageFromDB leaves closing
// the shared handle to whoever opened it.
func (s *BoltStorage) Close() error {
	if !s.owns {
		return nil
	}
	return s.db.Close()
}
