package chain

import (
	"encoding/json"
	"fmt"

	"github.com/zendoolabs/zend/common"
	"github.com/zendoolabs/zend/log"
	"github.com/zendoolabs/zend/sc"
)

var sidechainPrefix = []byte("sc/")

func sidechainKey(scId common.Hash) []byte {
	return append(append([]byte(nil), sidechainPrefix...), scId.Bytes()...)
}

// View is the persistent sidechain state, one record per sidechain.
// It implements sc.StateView.
type View struct {
	store *Store
}

func NewView(store *Store) *View {
	return &View{store: store}
}

// GetSidechain loads one sidechain record. Absence is not an error.
func (v *View) GetSidechain(scId common.Hash) (*sc.SidechainRecord, bool) {
	data, ok, err := v.store.Get(sidechainKey(scId))
	if err != nil {
		log.Error(log.ChainMonitoring, "sidechain load failed", "sc", scId.String_short(), "err", err)
		return nil, false
	}
	if !ok {
		return nil, false
	}
	var record sc.SidechainRecord
	if err := json.Unmarshal(data, &record); err != nil {
		log.Error(log.ChainMonitoring, "sidechain decode failed", "sc", scId.String_short(), "err", err)
		return nil, false
	}
	return &record, true
}

// PutSidechain persists one sidechain record under its id.
func (v *View) PutSidechain(record *sc.SidechainRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("sidechain encode %s: %w", record.ScId.String_short(), err)
	}
	return v.store.Put(sidechainKey(record.ScId), data)
}

// HasSidechain reports whether a record exists without decoding it.
func (v *View) HasSidechain(scId common.Hash) bool {
	_, ok, err := v.store.Get(sidechainKey(scId))
	return err == nil && ok
}

// SetActiveCertView updates the top quality certificate slice of an
// existing sidechain record.
func (v *View) SetActiveCertView(scId common.Hash, certHash common.Hash, epoch int32,
	quality uint64, certView sc.ActiveCertView) error {

	record, ok := v.GetSidechain(scId)
	if !ok {
		return fmt.Errorf("set cert view: unknown sidechain %s", scId.String_short())
	}
	record.TopQualityCertView = certView
	record.TopQualityCertHash = certHash
	record.TopCertEpoch = epoch
	record.TopCertQuality = quality
	return v.PutSidechain(record)
}

// Sidechains returns every persisted record, sorted by key.
func (v *View) Sidechains() ([]*sc.SidechainRecord, error) {
	pairs, err := v.store.GetWithPrefix(sidechainPrefix)
	if err != nil {
		return nil, err
	}
	records := make([]*sc.SidechainRecord, 0, len(pairs))
	for _, pair := range pairs {
		var record sc.SidechainRecord
		if err := json.Unmarshal(pair[1], &record); err != nil {
			return nil, fmt.Errorf("sidechain decode: %w", err)
		}
		records = append(records, &record)
	}
	return records, nil
}
