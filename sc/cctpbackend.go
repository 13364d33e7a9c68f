package sc

import (
	"bytes"

	"github.com/zendoolabs/zend/cctp"
	"github.com/zendoolabs/zend/common"
	"github.com/zendoolabs/zend/types"
)

// CctpVerifierBackend runs batch verification through the cctp proving
// backend. It is the backend production nodes use.
type CctpVerifierBackend struct{}

func NewCctpVerifierBackend() *CctpVerifierBackend { return &CctpVerifierBackend{} }

// backwardTransferListHash digests a certificate's backward transfer list
// into the single field element the circuit statement binds.
func backwardTransferListHash(btList []types.BackwardTransfer) (cctp.FieldElement, error) {
	if len(btList) == 0 {
		return cctp.PhantomFieldElement(), nil
	}
	var buf bytes.Buffer
	for _, bt := range btList {
		buf.Write(common.Int64ToBytes(bt.Value))
		buf.Write(bt.PubKeyHash.Bytes())
	}
	return cctp.FieldElementFromHash(common.Blake2Hash(buf.Bytes())), nil
}

func (be *CctpVerifierBackend) Verify(certs []CertProofVerifierInput, csws []CswProofVerifierInput) (bool, []ProofFailure) {
	bv := cctp.NewBatchProofVerifier()
	var failures []ProofFailure

	// Index positions map batch failures back to descriptors.
	type ref struct {
		certHash common.Hash
		txHash   common.Hash
		outIdx   uint32
		isCsw    bool
	}
	var refs []ref

	for _, cert := range certs {
		constant := cctp.PhantomFieldElement()
		if cert.Constant != nil {
			constant = *cert.Constant
		}
		btListHash, err := backwardTransferListHash(cert.BtList)
		if err != nil {
			failures = append(failures, ProofFailure{CertHash: cert.CertHash, Code: cctp.ErrorCodeInvalidValue})
			continue
		}
		idx := uint32(len(refs))
		refs = append(refs, ref{certHash: cert.CertHash})
		code := bv.AddCertificateProof(idx, constant, cert.EpochNumber, cert.Quality,
			btListHash, cert.PrevEndEpochCumScTxCommTreeRoot, cert.EndEpochCumScTxCommTreeRoot,
			cert.Proof, cert.VKey)
		if code != cctp.ErrorCodeOK {
			failures = append(failures, ProofFailure{CertHash: cert.CertHash, Code: code})
		}
	}

	for _, csw := range csws {
		pkHashFe := cctp.FieldElementFromHash(common.Blake2Hash(csw.PubKeyHash.Bytes()))
		idx := uint32(len(refs))
		refs = append(refs, ref{txHash: csw.TxHash, outIdx: csw.OutIdx, isCsw: true})
		code := bv.AddCSWProof(idx, csw.Value, csw.Nullifier, pkHashFe, csw.ActCertDataHash,
			csw.Proof, csw.VKey)
		if code != cctp.ErrorCodeOK {
			failures = append(failures, ProofFailure{TxHash: csw.TxHash, OutIdx: csw.OutIdx, IsCsw: true, Code: code})
		}
	}

	ok, itemFailures := bv.Verify()
	for _, f := range itemFailures {
		r := refs[f.Idx]
		failures = append(failures, ProofFailure{
			CertHash: r.certHash,
			TxHash:   r.txHash,
			OutIdx:   r.outIdx,
			IsCsw:    r.isCsw,
			Code:     f.Code,
		})
	}
	return ok && len(failures) == 0, failures
}
