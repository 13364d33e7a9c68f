package sc

import (
	"fmt"

	"github.com/zendoolabs/zend/cctp"
	"github.com/zendoolabs/zend/common"
	"github.com/zendoolabs/zend/log"
	"github.com/zendoolabs/zend/types"
)

// Verification selects how much proof checking a validation pass does.
// Loose mode loads and stages everything but skips the cryptographic
// verification, for blocks below the assumed-valid point.
type Verification int

const (
	VerificationStrict Verification = iota
	VerificationLoose
)

func (v Verification) String() string {
	if v == VerificationLoose {
		return "loose"
	}
	return "strict"
}

// CertProofVerifierInput is a fully loaded certificate proof descriptor.
type CertProofVerifierInput struct {
	CertHash                        common.Hash
	ScId                            common.Hash
	Constant                        *cctp.FieldElement
	EpochNumber                     int32
	Quality                         uint64
	BtList                          []types.BackwardTransfer
	PrevEndEpochCumScTxCommTreeRoot cctp.FieldElement
	EndEpochCumScTxCommTreeRoot     cctp.FieldElement
	Proof                           cctp.ScProof
	VKey                            cctp.ScVKey
}

// CswProofVerifierInput is a fully loaded ceased withdrawal descriptor.
type CswProofVerifierInput struct {
	TxHash                 common.Hash
	OutIdx                 uint32
	ScId                   common.Hash
	Value                  int64
	Nullifier              cctp.FieldElement
	PubKeyHash             common.Address
	ActCertDataHash        cctp.FieldElement
	CeasingCumScTxCommTree cctp.FieldElement
	Proof                  cctp.ScProof
	VKey                   cctp.ScVKey
}

// ProofFailure identifies one descriptor that failed batch verification.
type ProofFailure struct {
	CertHash common.Hash
	TxHash   common.Hash
	OutIdx   uint32
	IsCsw    bool
	Code     cctp.ErrorCode
}

// VerifierBackend runs the actual cryptographic batch. Swappable so tests
// can observe or stub the expensive part.
type VerifierBackend interface {
	Verify(certs []CertProofVerifierInput, csws []CswProofVerifierInput) (bool, []ProofFailure)
}

// ScProofVerifier stages proof descriptors during block validation and
// verifies them in one batch at the end of the pass. Certificates are
// keyed by certificate hash and the last enqueue wins; ceased withdrawals
// are keyed by their containing transaction and input position.
type ScProofVerifier struct {
	mode    Verification
	backend VerifierBackend

	certs map[common.Hash]CertProofVerifierInput
	csws  map[common.Hash]map[uint32]CswProofVerifierInput

	certOrder []common.Hash
	cswOrder  []common.Hash
}

func NewScProofVerifier(mode Verification, backend VerifierBackend) *ScProofVerifier {
	return &ScProofVerifier{
		mode:    mode,
		backend: backend,
		certs:   make(map[common.Hash]CertProofVerifierInput),
		csws:    make(map[common.Hash]map[uint32]CswProofVerifierInput),
	}
}

func (pv *ScProofVerifier) Mode() Verification { return pv.mode }

// PendingCerts and PendingCsws report queue sizes.
func (pv *ScProofVerifier) PendingCerts() int { return len(pv.certs) }

func (pv *ScProofVerifier) PendingCsws() int {
	n := 0
	for _, m := range pv.csws {
		n += len(m)
	}
	return n
}

// LoadDataForCertVerification resolves everything a certificate proof
// needs from state and enqueues the descriptor. A no-op under Loose mode,
// which never reads chain state. Callers must have checked
// the certificate against a known sidechain first; an unknown sidechain
// or a missing epoch boundary block here is state corruption.
func (pv *ScProofVerifier) LoadDataForCertVerification(view StateView, index BlockIndex, cert *types.Certificate) error {
	if pv.mode == VerificationLoose {
		return nil
	}
	record, ok := view.GetSidechain(cert.ScId)
	if !ok {
		panic(fmt.Sprintf("cert proof load: unknown sidechain %s", cert.ScId.String()))
	}

	currEndHeight := record.EndHeightForEpoch(cert.EpochNumber)
	prevEndHeight := currEndHeight - record.FixedParams.WithdrawalEpochLength

	currEntry, ok := index.AtHeight(currEndHeight)
	if !ok {
		panic(fmt.Sprintf("cert proof load: missing block index entry at epoch end height %d", currEndHeight))
	}
	// Epoch 0 of a sidechain created near genesis has no previous
	// boundary block; its cumulative root is the phantom element.
	prevCum := cctp.PhantomFieldElement()
	if prevEndHeight >= 0 {
		prevEntry, ok := index.AtHeight(prevEndHeight)
		if !ok {
			panic(fmt.Sprintf("cert proof load: missing block index entry at previous epoch end height %d", prevEndHeight))
		}
		prevCum = prevEntry.ScCumTreeHash
	}

	certHash := cert.GetHash()
	input := CertProofVerifierInput{
		CertHash:                        certHash,
		ScId:                            cert.ScId,
		Constant:                        record.FixedParams.Constant,
		EpochNumber:                     cert.EpochNumber,
		Quality:                         cert.Quality,
		BtList:                          cert.BackwardTransfers(),
		PrevEndEpochCumScTxCommTreeRoot: prevCum,
		EndEpochCumScTxCommTreeRoot:     currEntry.ScCumTreeHash,
		Proof:                           cert.ScProof,
		VKey:                            record.FixedParams.CertVKey,
	}

	if _, seen := pv.certs[certHash]; !seen {
		pv.certOrder = append(pv.certOrder, certHash)
	}
	pv.certs[certHash] = input
	log.Trace(log.CertMonitoring, "staged cert proof", "cert", certHash.String_short(),
		"sc", cert.ScId.String_short(), "epoch", cert.EpochNumber, "quality", cert.Quality)
	return nil
}

// ErrNoCswVKey is returned when a ceased withdrawal references a
// sidechain created without a ceased withdrawal circuit.
var ErrNoCswVKey = fmt.Errorf("sidechain has no ceased withdrawal verification key")

// LoadDataForCswVerification stages one ceased withdrawal input of tx.
// Inputs of the same transaction merge into one per-transaction group.
// A no-op under Loose mode, which never reads chain state.
func (pv *ScProofVerifier) LoadDataForCswVerification(view StateView, tx *types.Transaction, outIdx uint32) error {
	if pv.mode == VerificationLoose {
		return nil
	}
	csw := tx.VcswCcIn[outIdx]
	record, ok := view.GetSidechain(csw.ScId)
	if !ok {
		panic(fmt.Sprintf("csw proof load: unknown sidechain %s", csw.ScId.String()))
	}
	if record.FixedParams.CswVKey == nil {
		return ErrNoCswVKey
	}

	txHash := tx.GetHash()
	group, ok := pv.csws[txHash]
	if !ok {
		group = make(map[uint32]CswProofVerifierInput)
		pv.csws[txHash] = group
		pv.cswOrder = append(pv.cswOrder, txHash)
	}
	group[outIdx] = CswProofVerifierInput{
		TxHash:                 txHash,
		OutIdx:                 outIdx,
		ScId:                   csw.ScId,
		Value:                  csw.Value,
		Nullifier:              csw.Nullifier,
		PubKeyHash:             csw.PubKeyHash,
		ActCertDataHash:        csw.ActCertDataHash,
		CeasingCumScTxCommTree: csw.CeasingCumScTxCommTree,
		Proof:                  csw.ScProof,
		VKey:                   *record.FixedParams.CswVKey,
	}
	log.Trace(log.ScMonitoring, "staged csw proof", "tx", txHash.String_short(), "idx", outIdx,
		"sc", csw.ScId.String_short(), "value", csw.Value)
	return nil
}

// BatchVerify checks everything staged so far and drains the queues,
// success or not. Loose mode skips the cryptographic work entirely.
func (pv *ScProofVerifier) BatchVerify() (bool, []ProofFailure) {
	certs := make([]CertProofVerifierInput, 0, len(pv.certOrder))
	for _, h := range pv.certOrder {
		certs = append(certs, pv.certs[h])
	}
	csws := make([]CswProofVerifierInput, 0)
	for _, txHash := range pv.cswOrder {
		group := pv.csws[txHash]
		for idx := uint32(0); int(idx) <= maxKey(group); idx++ {
			if in, ok := group[idx]; ok {
				csws = append(csws, in)
			}
		}
	}

	pv.certs = make(map[common.Hash]CertProofVerifierInput)
	pv.csws = make(map[common.Hash]map[uint32]CswProofVerifierInput)
	pv.certOrder = nil
	pv.cswOrder = nil

	if pv.mode == VerificationLoose {
		log.Debug(log.ScMonitoring, "batch verify skipped", "mode", pv.mode.String(),
			"certs", len(certs), "csws", len(csws))
		return true, nil
	}

	ok, failures := pv.backend.Verify(certs, csws)
	if !ok {
		log.Warn(log.ScMonitoring, "batch verify failed", "certs", len(certs),
			"csws", len(csws), "failures", len(failures))
	}
	return ok, failures
}

func maxKey(m map[uint32]CswProofVerifierInput) int {
	max := -1
	for k := range m {
		if int(k) > max {
			max = int(k)
		}
	}
	return max
}
