package overlay

import logging "github.com/ipfs/go-log/v2"

var storageLog = logging.Logger("overlay/storage")

// Storage is the opaque per-node event sink. The simulation core never
// inspects what a node writes; it only calls Write/Read/Poll and logs
// errors, exactly like every other node operation.
type Storage interface {
	Write(data []byte) error
	Read() ([]byte, error)
	Poll() bool
}

// NoopStorage is the default storage sink: it accepts writes and discards
// them, and always reports itself ready. This matches the reference
// simulated storage, which never actually persists anything either.
type NoopStorage struct {
	id PeerID
}

// NewNoopStorage builds a no-op sink labeled with the owning node's id, for
// logging only.
func NewNoopStorage(id PeerID) *NoopStorage {
	return &NoopStorage{id: id}
}

func (s *NoopStorage) Write(data []byte) error {
	storageLog.Debugw("simulated write", "peer", s.id, "bytes", len(data))
	return nil
}

func (s *NoopStorage) Read() ([]byte, error) {
	storageLog.Debugw("simulated read", "peer", s.id)
	return nil, nil
}

func (s *NoopStorage) Poll() bool {
	return true
}
