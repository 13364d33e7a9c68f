package sc

import (
	"github.com/zendoolabs/zend/cctp"
	"github.com/zendoolabs/zend/common"
	"github.com/zendoolabs/zend/types"
)

// FixedParams are the sidechain parameters fixed at creation time. They
// never change for the lifetime of the sidechain.
type FixedParams struct {
	Version               int32              `json:"version"`
	WithdrawalEpochLength int32              `json:"withdrawalEpochLength"`
	Constant              *cctp.FieldElement `json:"constant,omitempty"`
	CertVKey              cctp.ScVKey        `json:"certVKey"`
	CswVKey               *cctp.ScVKey       `json:"cswVKey,omitempty"`
	CustomData            []byte             `json:"customData,omitempty"`

	FieldElementCertFieldConfigs []FieldElementCertificateFieldConfig `json:"feCertFieldConfigs,omitempty"`
	BitVectorCertFieldConfigs    []BitVectorCertificateFieldConfig    `json:"bvCertFieldConfigs,omitempty"`
}

// ActiveCertView is the slice of the top quality certificate that ceased
// withdrawal proofs and fee checks read.
type ActiveCertView struct {
	CertDataHash                   cctp.FieldElement `json:"certDataHash"`
	ForwardTransferScFee           int64             `json:"ftScFee"`
	MainchainBackwardTransferScFee int64             `json:"mbtrScFee"`
}

// SidechainRecord is the per-sidechain state the node persists.
type SidechainRecord struct {
	ScId                common.Hash    `json:"scId"`
	CreationBlockHeight int32          `json:"creationBlockHeight"`
	CreationTxHash      common.Hash    `json:"creationTxHash"`
	Balance             int64          `json:"balance"`
	FixedParams         FixedParams    `json:"fixedParams"`
	TopQualityCertView  ActiveCertView `json:"topQualityCertView"`
	TopQualityCertHash  common.Hash    `json:"topQualityCertHash"`
	TopCertQuality      uint64         `json:"topCertQuality"`
	TopCertEpoch        int32          `json:"topCertEpoch"`
}

// EndHeightForEpoch returns the mainchain height at which the given
// withdrawal epoch ends.
func (r *SidechainRecord) EndHeightForEpoch(epoch int32) int32 {
	return r.CreationBlockHeight - 1 + (epoch+1)*r.FixedParams.WithdrawalEpochLength
}

// EpochForHeight returns the withdrawal epoch the given height falls in.
func (r *SidechainRecord) EpochForHeight(height int32) int32 {
	return (height - r.CreationBlockHeight) / r.FixedParams.WithdrawalEpochLength
}

// NewSidechainRecord builds the record declared by a creation output.
func NewSidechainRecord(tx *types.Transaction, outIdx int, height int32) *SidechainRecord {
	out := tx.VscCcOut[outIdx]

	feConfigs := make([]FieldElementCertificateFieldConfig, 0, len(out.FieldElementCertFieldConfigs))
	for _, nBits := range out.FieldElementCertFieldConfigs {
		feConfigs = append(feConfigs, FieldElementCertificateFieldConfig{NBits: nBits})
	}
	bvConfigs := make([]BitVectorCertificateFieldConfig, 0, len(out.BitVectorCertFieldConfigs))
	for _, cfg := range out.BitVectorCertFieldConfigs {
		bvConfigs = append(bvConfigs, BitVectorCertificateFieldConfig{
			BitVectorSizeBits:      cfg.BitVectorSizeBits,
			MaxCompressedSizeBytes: cfg.MaxCompressedSizeBytes,
		})
	}

	return &SidechainRecord{
		ScId:                tx.ScIdForCreationOutput(outIdx),
		CreationBlockHeight: height,
		CreationTxHash:      tx.GetHash(),
		Balance:             out.Value,
		FixedParams: FixedParams{
			WithdrawalEpochLength:        out.WithdrawalEpochLength,
			Constant:                     out.Constant,
			CertVKey:                     out.CertVKey,
			CswVKey:                      out.CswVKey,
			CustomData:                   append([]byte(nil), out.CustomData...),
			FieldElementCertFieldConfigs: feConfigs,
			BitVectorCertFieldConfigs:    bvConfigs,
		},
		TopCertEpoch: -1,
	}
}

// BlockIndexEntry is the per-block slice of the chain index the proof
// loader reads: the cumulative sidechain commitment up to that block.
type BlockIndexEntry struct {
	Hash          common.Hash       `json:"hash"`
	Height        int32             `json:"height"`
	ScCumTreeHash cctp.FieldElement `json:"scCumTreeHash"`
}

// StateView exposes the sidechain state a validation pass reads.
type StateView interface {
	GetSidechain(scId common.Hash) (*SidechainRecord, bool)
}

// BlockIndex exposes the active chain's block index.
type BlockIndex interface {
	AtHeight(height int32) (*BlockIndexEntry, bool)
	Tip() (*BlockIndexEntry, bool)
	Height() int32
}
