package types

import (
	"bytes"

	"github.com/zendoolabs/zend/cctp"
	"github.com/zendoolabs/zend/common"
)

// Transaction versions carrying sidechain payloads. Plain value transfers
// use non-negative versions and never reach the sidechain subsystem.
const (
	ScTxVersion int32 = -4
	CertVersion int32 = -5
)

// TxOut is a plain value output paying a 160-bit key hash.
type TxOut struct {
	Value      int64          `json:"value"`
	PubKeyHash common.Address `json:"pubKeyHash"`
}

// ScCreationOut declares a new sidechain. Its position inside the creating
// transaction determines the sidechain id.
type ScCreationOut struct {
	Value                 int64              `json:"value"`
	Address               cctp.FieldElement  `json:"address"`
	WithdrawalEpochLength int32              `json:"withdrawalEpochLength"`
	CustomData            []byte             `json:"customData"`
	Constant              *cctp.FieldElement `json:"constant,omitempty"`
	CertVKey              cctp.ScVKey        `json:"certVKey"`
	CswVKey               *cctp.ScVKey       `json:"cswVKey,omitempty"`

	// Declared shapes for the certificate custom field payloads.
	FieldElementCertFieldConfigs []uint8                `json:"feCertFieldConfigs,omitempty"`
	BitVectorCertFieldConfigs    []BitVectorFieldConfig `json:"bvCertFieldConfigs,omitempty"`
}

// BitVectorFieldConfig declares one bit vector custom field: its length in
// bits and the maximum size of its compressed representation.
type BitVectorFieldConfig struct {
	BitVectorSizeBits      int32 `json:"bitVectorSizeBits"`
	MaxCompressedSizeBytes int32 `json:"maxCompressedSizeBytes"`
}

// ForwardTransferOut moves mainchain value into an existing sidechain.
type ForwardTransferOut struct {
	Value      int64          `json:"value"`
	PubKeyHash common.Address `json:"pubKeyHash"`
	ScId       common.Hash    `json:"scId"`
	ReturnAddr common.Address `json:"returnAddr"`
}

// BwtRequestOut asks a sidechain to schedule a backward transfer.
type BwtRequestOut struct {
	ScId        common.Hash         `json:"scId"`
	PubKeyHash  common.Address      `json:"pubKeyHash"`
	RequestData []cctp.FieldElement `json:"requestData"`
	Fee         int64               `json:"fee"`
}

// CswInput withdraws value from a ceased sidechain under a proof.
type CswInput struct {
	Value                  int64             `json:"value"`
	ScId                   common.Hash       `json:"scId"`
	Nullifier              cctp.FieldElement `json:"nullifier"`
	PubKeyHash             common.Address    `json:"pubKeyHash"`
	ScProof                cctp.ScProof      `json:"scProof"`
	ActCertDataHash        cctp.FieldElement `json:"actCertDataHash"`
	CeasingCumScTxCommTree cctp.FieldElement `json:"ceasingCumScTxCommTree"`
}

// Transaction is the subset of a mainchain transaction the sidechain
// subsystem consumes. Sidechain payloads only appear on ScTxVersion.
type Transaction struct {
	Version        int32                `json:"version"`
	Vout           []TxOut              `json:"vout,omitempty"`
	VscCcOut       []ScCreationOut      `json:"vscCcOut,omitempty"`
	VftCcOut       []ForwardTransferOut `json:"vftCcOut,omitempty"`
	VbwtRequestOut []BwtRequestOut      `json:"vbwtRequestOut,omitempty"`
	VcswCcIn       []CswInput           `json:"vcswCcIn,omitempty"`
}

// IsScVersion reports whether this transaction can carry sidechain payloads.
func (tx *Transaction) IsScVersion() bool {
	return tx.Version == ScTxVersion
}

// HasScOutputs reports whether any sidechain payload is present.
func (tx *Transaction) HasScOutputs() bool {
	return len(tx.VscCcOut) > 0 || len(tx.VftCcOut) > 0 || len(tx.VbwtRequestOut) > 0 || len(tx.VcswCcIn) > 0
}

// writeSized writes a length prefix before variable-length bytes so no two
// distinct field layouts concatenate to the same preimage.
func writeSized(buf *bytes.Buffer, b []byte) {
	buf.Write(common.Uint32ToBytes(uint32(len(b))))
	buf.Write(b)
}

// writeCount writes the element count of a repeated section.
func writeCount(buf *bytes.Buffer, n int) {
	buf.Write(common.Uint32ToBytes(uint32(n)))
}

// GetHash returns the content hash of the transaction.
func (tx *Transaction) GetHash() common.Hash {
	var buf bytes.Buffer
	buf.Write(common.Int32ToBytes(tx.Version))

	writeCount(&buf, len(tx.Vout))
	for _, out := range tx.Vout {
		buf.Write(common.Int64ToBytes(out.Value))
		buf.Write(out.PubKeyHash.Bytes())
	}
	writeCount(&buf, len(tx.VscCcOut))
	for _, sc := range tx.VscCcOut {
		buf.Write(common.Int64ToBytes(sc.Value))
		writeSized(&buf, sc.Address.Serialize())
		buf.Write(common.Int32ToBytes(sc.WithdrawalEpochLength))
		writeSized(&buf, sc.CustomData)
		if sc.Constant != nil {
			buf.WriteByte(1)
			writeSized(&buf, sc.Constant.Serialize())
		} else {
			buf.WriteByte(0)
		}
		writeSized(&buf, sc.CertVKey.Serialize())
		if sc.CswVKey != nil {
			buf.WriteByte(1)
			writeSized(&buf, sc.CswVKey.Serialize())
		} else {
			buf.WriteByte(0)
		}
		writeSized(&buf, sc.FieldElementCertFieldConfigs)
		writeCount(&buf, len(sc.BitVectorCertFieldConfigs))
		for _, bv := range sc.BitVectorCertFieldConfigs {
			buf.Write(common.Int32ToBytes(bv.BitVectorSizeBits))
			buf.Write(common.Int32ToBytes(bv.MaxCompressedSizeBytes))
		}
	}
	writeCount(&buf, len(tx.VftCcOut))
	for _, ft := range tx.VftCcOut {
		buf.Write(common.Int64ToBytes(ft.Value))
		buf.Write(ft.PubKeyHash.Bytes())
		buf.Write(ft.ScId.Bytes())
		buf.Write(ft.ReturnAddr.Bytes())
	}
	writeCount(&buf, len(tx.VbwtRequestOut))
	for _, bwtr := range tx.VbwtRequestOut {
		buf.Write(bwtr.ScId.Bytes())
		buf.Write(bwtr.PubKeyHash.Bytes())
		writeCount(&buf, len(bwtr.RequestData))
		for _, fe := range bwtr.RequestData {
			writeSized(&buf, fe.Serialize())
		}
		buf.Write(common.Int64ToBytes(bwtr.Fee))
	}
	writeCount(&buf, len(tx.VcswCcIn))
	for _, csw := range tx.VcswCcIn {
		buf.Write(common.Int64ToBytes(csw.Value))
		buf.Write(csw.ScId.Bytes())
		writeSized(&buf, csw.Nullifier.Serialize())
		buf.Write(csw.PubKeyHash.Bytes())
		writeSized(&buf, csw.ScProof.Serialize())
		writeSized(&buf, csw.ActCertDataHash.Serialize())
		writeSized(&buf, csw.CeasingCumScTxCommTree.Serialize())
	}
	return common.Blake2Hash(buf.Bytes())
}

// ScIdForCreationOutput derives the sidechain id declared by the creation
// output at position idx.
func (tx *Transaction) ScIdForCreationOutput(idx int) common.Hash {
	txHash := tx.GetHash()
	data := make([]byte, 0, len(txHash)+4)
	data = append(data, txHash.Bytes()...)
	data = append(data, common.Uint32ToBytes(uint32(idx))...)
	return common.Blake2Hash(data)
}
