package types

import (
	"bytes"

	"github.com/zendoolabs/zend/common"
)

// BlockHeader carries the fields the sidechain subsystem reads. The
// ScTxsCommitment commits to every sidechain payload in the block's body.
type BlockHeader struct {
	ParentHash      common.Hash `json:"parentHash"`
	Height          int32       `json:"height"`
	Time            uint32      `json:"time"`
	ScTxsCommitment common.Hash `json:"scTxsCommitment"`
}

// GetHash returns the header's content hash, which identifies the block.
func (h *BlockHeader) GetHash() common.Hash {
	var buf bytes.Buffer
	buf.Write(h.ParentHash.Bytes())
	buf.Write(common.Int32ToBytes(h.Height))
	buf.Write(common.Uint32ToBytes(h.Time))
	buf.Write(h.ScTxsCommitment.Bytes())
	return common.Blake2Hash(buf.Bytes())
}

// Block bundles a header with its transactions and certificates.
type Block struct {
	Header BlockHeader   `json:"header"`
	Vtx    []Transaction `json:"vtx,omitempty"`
	Vcert  []Certificate `json:"vcert,omitempty"`
}
