package types

import (
	"bytes"

	"github.com/zendoolabs/zend/cctp"
	"github.com/zendoolabs/zend/common"
)

// BackwardTransfer pays sidechain value back to a mainchain key hash. It is
// an ordinary TxOut that a certificate lists from FirstBwtPos onward.
type BackwardTransfer = TxOut

// Certificate closes one withdrawal epoch of a sidechain. Outputs before
// FirstBwtPos are ordinary change; the rest are backward transfers.
type Certificate struct {
	ScId                           common.Hash       `json:"scId"`
	EpochNumber                    int32             `json:"epochNumber"`
	Quality                        uint64            `json:"quality"`
	EndEpochBlockHash              common.Hash       `json:"endEpochBlockHash"`
	EndEpochCumScTxCommTreeRoot    cctp.FieldElement `json:"endEpochCumScTxCommTreeRoot"`
	ScProof                        cctp.ScProof      `json:"scProof"`
	FieldElementCertificateFields  [][]byte          `json:"feCertificateFields,omitempty"`
	BitVectorCertificateFields     [][]byte          `json:"bvCertificateFields,omitempty"`
	ForwardTransferScFee           int64             `json:"ftScFee"`
	MainchainBackwardTransferScFee int64             `json:"mbtrScFee"`
	FirstBwtPos                    int32             `json:"firstBwtPos"`
	Vout                           []TxOut           `json:"vout,omitempty"`
}

// BackwardTransfers returns the backward transfer slice of the outputs.
func (c *Certificate) BackwardTransfers() []BackwardTransfer {
	if int(c.FirstBwtPos) >= len(c.Vout) {
		return nil
	}
	return c.Vout[c.FirstBwtPos:]
}

func (c *Certificate) serializeForHash(includeProof bool) []byte {
	var buf bytes.Buffer
	buf.Write(c.ScId.Bytes())
	buf.Write(common.Int32ToBytes(c.EpochNumber))
	buf.Write(common.Uint64ToBytes(c.Quality))
	buf.Write(c.EndEpochBlockHash.Bytes())
	writeSized(&buf, c.EndEpochCumScTxCommTreeRoot.Serialize())
	if includeProof {
		writeSized(&buf, c.ScProof.Serialize())
	}
	writeCount(&buf, len(c.FieldElementCertificateFields))
	for _, f := range c.FieldElementCertificateFields {
		writeSized(&buf, f)
	}
	writeCount(&buf, len(c.BitVectorCertificateFields))
	for _, f := range c.BitVectorCertificateFields {
		writeSized(&buf, f)
	}
	buf.Write(common.Int64ToBytes(c.ForwardTransferScFee))
	buf.Write(common.Int64ToBytes(c.MainchainBackwardTransferScFee))
	buf.Write(common.Int32ToBytes(c.FirstBwtPos))
	writeCount(&buf, len(c.Vout))
	for _, out := range c.Vout {
		buf.Write(common.Int64ToBytes(out.Value))
		buf.Write(out.PubKeyHash.Bytes())
	}
	return buf.Bytes()
}

// GetHash returns the content hash of the full certificate.
func (c *Certificate) GetHash() common.Hash {
	return common.Blake2Hash(c.serializeForHash(true))
}

// DataHash returns the certificate data hash used by ceased withdrawal
// proofs: the proof itself stays out so the hash is fixed before proving.
func (c *Certificate) DataHash() cctp.FieldElement {
	return cctp.FieldElementFromHash(common.Blake2Hash(c.serializeForHash(false)))
}
