package cctp

import (
	"math/big"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/frontend"
	"github.com/zendoolabs/zend/log"
)

// VerifyFailure reports one failed batch item.
type VerifyFailure struct {
	Idx  uint32
	Code ErrorCode
}

type batchItem struct {
	idx       uint32
	kind      string
	statement FieldElement
	proof     ScProof
	vk        ScVKey
}

// BatchProofVerifier aggregates certificate and ceased-withdrawal proof
// descriptors and checks them in one amortized pass. Descriptors are added
// one at a time with a per-item status code; Verify reports the aggregate
// result. One instance per validation pass; not safe for concurrent use.
type BatchProofVerifier struct {
	items []batchItem
}

func NewBatchProofVerifier() *BatchProofVerifier {
	return &BatchProofVerifier{}
}

// AddCertificateProof enqueues one certificate descriptor. The statement
// folds the sidechain constant, epoch, quality, the backward-transfer list
// digest and the epoch-boundary cumulative roots. Custom fields and fee
// parameters stay outside the fold until the sidechain circuit contract
// binds them.
func (bv *BatchProofVerifier) AddCertificateProof(idx uint32, constant FieldElement, epochNumber int32,
	quality uint64, btListHash, prevCumRoot, endCumRoot FieldElement, proof ScProof, vk ScVKey) ErrorCode {

	stmt, err := ComputeStatement([]FieldElement{
		constant,
		FieldElementFromUint64(uint64(uint32(epochNumber))),
		FieldElementFromUint64(quality),
		btListHash,
		prevCumRoot,
		endCumRoot,
	})
	if err != nil {
		return ErrorCodeInvalidStatement
	}
	return bv.add(idx, "cert", stmt, proof, vk)
}

// AddCSWProof enqueues one ceased-sidechain-withdrawal descriptor. The
// statement folds the withdrawn amount, the nullifier, the payout key hash
// and the active certificate data hash.
func (bv *BatchProofVerifier) AddCSWProof(idx uint32, amount int64, nullifier, pubKeyHash,
	certDataHash FieldElement, proof ScProof, vk ScVKey) ErrorCode {

	stmt, err := ComputeStatement([]FieldElement{
		FieldElementFromUint64(uint64(amount)),
		nullifier,
		pubKeyHash,
		certDataHash,
	})
	if err != nil {
		return ErrorCodeInvalidStatement
	}
	return bv.add(idx, "csw", stmt, proof, vk)
}

func (bv *BatchProofVerifier) add(idx uint32, kind string, stmt FieldElement, proof ScProof, vk ScVKey) ErrorCode {
	if proof.IsNull() {
		return ErrorCodeInvalidProof
	}
	if vk.IsNull() {
		return ErrorCodeInvalidVKey
	}
	bv.items = append(bv.items, batchItem{idx: idx, kind: kind, statement: stmt, proof: proof, vk: vk})
	return ErrorCodeOK
}

func (bv *BatchProofVerifier) Len() int { return len(bv.items) }

// Verify checks every queued item against its verification key. Any single
// failure fails the whole batch; per-item failures are returned alongside
// the aggregate result.
func (bv *BatchProofVerifier) Verify() (bool, []VerifyFailure) {
	var failures []VerifyFailure
	for _, item := range bv.items {
		if code := verifyItem(item); code != ErrorCodeOK {
			log.Debug(log.CctpMonitoring, "batch item failed",
				"idx", item.idx, "kind", item.kind, "code", code.String())
			failures = append(failures, VerifyFailure{Idx: item.idx, Code: code})
		}
	}
	return len(failures) == 0, failures
}

func verifyItem(item batchItem) ErrorCode {
	proof := item.proof.Deserialize()
	if proof == nil {
		return ErrorCodeInvalidProof
	}
	vk := item.vk.Deserialize()
	if vk == nil {
		return ErrorCodeInvalidVKey
	}
	stmt := item.statement.Deserialize()
	if stmt == nil {
		return ErrorCodeInvalidStatement
	}

	assignment := &StatementCircuit{
		Statement: new(big.Int).SetBytes(item.statement.Serialize()),
	}
	witness, err := frontend.NewWitness(assignment, ecc.BN254.ScalarField(), frontend.PublicOnly())
	if err != nil {
		return ErrorCodeInvalidStatement
	}
	if err := groth16.Verify(proof, vk, witness); err != nil {
		return ErrorCodeProofVerificationFailure
	}
	return ErrorCodeOK
}
