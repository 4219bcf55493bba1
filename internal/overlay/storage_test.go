package overlay

import (
	"path/filepath"
	"testing"

	"github.com/boltdb/bolt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoopStorageAlwaysReadyAndDiscardsWrites(t *testing.T) {
	s := NewNoopStorage(PeerID{1})

	assert.True(t, s.Poll())
	require.NoError(t, s.Write([]byte("hello")))

	data, err := s.Read()
	require.NoError(t, err)
	assert.Nil(t, data)
}

func TestBoltStorageRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "overlay.db")
	id := PeerID{1}

	s, err := NewBoltStorage(path, id)
	require.NoError(t, err)
	defer s.Close()

	assert.True(t, s.Poll())
	require.NoError(t, s.Write([]byte("checkpoint-1")))

	data, err := s.Read()
	require.NoError(t, err)
	assert.Equal(t, []byte("checkpoint-1"), data)
}

func TestBoltStorageFromSharedDBIsolatesPeersByBucket(t *testing.T) {
	path := filepath.Join(t.TempDir(), "overlay.db")
	db, err := bolt.Open(path, 0600, nil)
	require.NoError(t, err)
	defer db.Close()

	alice, err := NewBoltStorageFromDB(db, PeerID{1})
	require.NoError(t, err)
	bob, err := NewBoltStorageFromDB(db, PeerID{2})
	require.NoError(t, err)

	require.NoError(t, alice.Write([]byte("alice-data")))
	require.NoError(t, bob.Write([]byte("bob-data")))

	aliceData, err := alice.Read()
	require.NoError(t, err)
	assert.Equal(t, []byte("alice-data"), aliceData)

	bobData, err := bob.Read()
	require.NoError(t, err)
	assert.Equal(t, []byte("bob-data"), bobData)

	// A sink built from a shared, caller-owned database must not close it.
	assert.NoError(t, alice.Close())
	require.NoError(t, db.Update(func(tx *bolt.Tx) error { return nil }), "db should still be open after alice.Close()")
}
