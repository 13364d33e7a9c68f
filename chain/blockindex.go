package chain

import (
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/zendoolabs/zend/cctp"
	"github.com/zendoolabs/zend/common"
	"github.com/zendoolabs/zend/log"
	"github.com/zendoolabs/zend/sc"
)

var blockIndexPrefix = []byte("bi/")

// blockIndexRowSize is hash(32) + height(4) + cumulative root(32).
const blockIndexRowSize = 32 + 4 + 32

func blockIndexKey(height int32) []byte {
	key := append([]byte(nil), blockIndexPrefix...)
	var h [4]byte
	binary.BigEndian.PutUint32(h[:], uint32(height))
	return append(key, h[:]...)
}

func encodeIndexEntry(e *sc.BlockIndexEntry) []byte {
	row := make([]byte, 0, blockIndexRowSize)
	row = append(row, e.Hash.Bytes()...)
	var h [4]byte
	binary.BigEndian.PutUint32(h[:], uint32(e.Height))
	row = append(row, h[:]...)
	return append(row, e.ScCumTreeHash.Serialize()...)
}

func decodeIndexEntry(row []byte) (*sc.BlockIndexEntry, error) {
	if len(row) != blockIndexRowSize {
		return nil, fmt.Errorf("block index row: bad length %d", len(row))
	}
	cum, err := cctp.FieldElementFromBytes(row[36:68])
	if err != nil {
		return nil, err
	}
	return &sc.BlockIndexEntry{
		Hash:          common.BytesToHash(row[:32]),
		Height:        int32(binary.BigEndian.Uint32(row[32:36])),
		ScCumTreeHash: cum,
	}, nil
}

// ActiveChain is the persisted block index of the active chain. Every
// appended block carries the cumulative sidechain commitment up to and
// including itself. It implements sc.BlockIndex.
type ActiveChain struct {
	mu     sync.RWMutex
	store  *Store
	height int32
}

// NewActiveChain opens the index and recovers the tip height from disk.
func NewActiveChain(store *Store) (*ActiveChain, error) {
	ac := &ActiveChain{store: store, height: -1}
	pairs, err := store.GetWithPrefix(blockIndexPrefix)
	if err != nil {
		return nil, err
	}
	if len(pairs) > 0 {
		entry, err := decodeIndexEntry(pairs[len(pairs)-1][1])
		if err != nil {
			return nil, err
		}
		ac.height = entry.Height
	}
	return ac, nil
}

func (ac *ActiveChain) Height() int32 {
	ac.mu.RLock()
	defer ac.mu.RUnlock()
	return ac.height
}

func (ac *ActiveChain) AtHeight(height int32) (*sc.BlockIndexEntry, bool) {
	if height < 0 {
		return nil, false
	}
	row, ok, err := ac.store.Get(blockIndexKey(height))
	if err != nil || !ok {
		return nil, false
	}
	entry, err := decodeIndexEntry(row)
	if err != nil {
		log.Error(log.ChainMonitoring, "block index decode failed", "height", height, "err", err)
		return nil, false
	}
	return entry, true
}

func (ac *ActiveChain) Tip() (*sc.BlockIndexEntry, bool) {
	ac.mu.RLock()
	h := ac.height
	ac.mu.RUnlock()
	if h < 0 {
		return nil, false
	}
	return ac.AtHeight(h)
}

// Append extends the index with the next block. The entry's cumulative
// root folds the parent's cumulative root with the block's own sidechain
// commitment, so any historic commitment is bound by the tip.
func (ac *ActiveChain) Append(blockHash common.Hash, scTxsCommitment common.Hash) (*sc.BlockIndexEntry, error) {
	ac.mu.Lock()
	defer ac.mu.Unlock()

	prevCum := cctp.PhantomFieldElement()
	if ac.height >= 0 {
		row, ok, err := ac.store.Get(blockIndexKey(ac.height))
		if err != nil || !ok {
			return nil, fmt.Errorf("block index: missing tip row at height %d", ac.height)
		}
		tip, err := decodeIndexEntry(row)
		if err != nil {
			return nil, err
		}
		prevCum = tip.ScCumTreeHash
	}

	cum, err := cctp.ComputeHash(prevCum, cctp.FieldElementFromHash(scTxsCommitment))
	if err != nil {
		return nil, fmt.Errorf("block index: cumulative root: %w", err)
	}

	entry := &sc.BlockIndexEntry{
		Hash:          blockHash,
		Height:        ac.height + 1,
		ScCumTreeHash: cum,
	}
	if err := ac.store.Put(blockIndexKey(entry.Height), encodeIndexEntry(entry)); err != nil {
		return nil, err
	}
	ac.height = entry.Height
	log.Trace(log.ChainMonitoring, "block index appended", "height", entry.Height,
		"block", blockHash.String_short())
	return entry, nil
}
