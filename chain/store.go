package chain

import (
	"bytes"
	"fmt"

	"github.com/syndtr/goleveldb/leveldb"
	leveldbstorage "github.com/syndtr/goleveldb/leveldb/storage"
)

// Store wraps LevelDB for raw key-value persistence of sidechain state
// and the block index. Thread-safe: LevelDB handles its own
// synchronization.
type Store struct {
	db *leveldb.DB
}

// NewStore opens or creates a LevelDB database at the given path.
// If path is empty, uses in-memory storage.
func NewStore(path string) (*Store, error) {
	var db *leveldb.DB
	var err error

	if path == "" {
		memStorage := leveldbstorage.NewMemStorage()
		db, err = leveldb.Open(memStorage, nil)
	} else {
		db, err = leveldb.OpenFile(path, nil)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to open database at %s: %w", path, err)
	}

	return &Store{db: db}, nil
}

// NewMemoryStore creates an in-memory Store for testing.
func NewMemoryStore() (*Store, error) {
	return NewStore("")
}

// Get retrieves a value by key. Returns (nil, false, nil) if not found.
func (s *Store) Get(key []byte) ([]byte, bool, error) {
	data, err := s.db.Get(key, nil)
	if err == leveldb.ErrNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("Get %x: %w", key, err)
	}
	return data, true, nil
}

func (s *Store) Put(key []byte, value []byte) error {
	return s.db.Put(key, value, nil)
}

func (s *Store) Delete(key []byte) error {
	return s.db.Delete(key, nil)
}

// GetWithPrefix returns all key-value pairs with the given prefix,
// sorted by key order.
func (s *Store) GetWithPrefix(prefix []byte) ([][2][]byte, error) {
	iter := s.db.NewIterator(nil, nil)
	defer iter.Release()

	var results [][2][]byte
	for ok := iter.Seek(prefix); ok; ok = iter.Next() {
		key := iter.Key()
		if !bytes.HasPrefix(key, prefix) {
			break
		}
		k := append([]byte(nil), key...)
		v := append([]byte(nil), iter.Value()...)
		results = append(results, [2][]byte{k, v})
	}
	if err := iter.Error(); err != nil {
		return nil, fmt.Errorf("GetWithPrefix %x: %w", prefix, err)
	}
	return results, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}
