package cctp

import (
	"bytes"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/constraint"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/frontend/cs/r1cs"
)

// ProvingSystem holds the compiled statement circuit and a groth16 key
// pair. Sidechains run the trusted setup out of band; the node only ever
// consumes serialized verification keys. This type exists for tooling and
// tests that need to produce proofs the node accepts.
type ProvingSystem struct {
	ccs constraint.ConstraintSystem
	pk  groth16.ProvingKey
	vk  groth16.VerifyingKey
}

// NewProvingSystem compiles the statement circuit and runs the setup.
func NewProvingSystem() (*ProvingSystem, error) {
	var circuit StatementCircuit
	ccs, err := frontend.Compile(ecc.BN254.ScalarField(), r1cs.NewBuilder, &circuit)
	if err != nil {
		return nil, err
	}
	pk, vk, err := groth16.Setup(ccs)
	if err != nil {
		return nil, err
	}
	return &ProvingSystem{ccs: ccs, pk: pk, vk: vk}, nil
}

// VerificationKey returns the serialized verification key in the wrapper
// form the node stores per sidechain.
func (ps *ProvingSystem) VerificationKey() (ScVKey, error) {
	var buf bytes.Buffer
	if _, err := ps.vk.WriteTo(&buf); err != nil {
		return ScVKey{}, err
	}
	return ScVKeyFromBytes(buf.Bytes())
}

// Prove produces a proof for the statement derived from the given
// descriptor preimage, along with the statement itself.
func (ps *ProvingSystem) Prove(preimage []FieldElement) (ScProof, FieldElement, error) {
	stmt, err := ComputeStatement(preimage)
	if err != nil {
		return ScProof{}, FieldElement{}, err
	}

	assignment := &StatementCircuit{
		Statement: new(big.Int).SetBytes(stmt.Serialize()),
	}
	padded := make([]FieldElement, StatementPreimageSlots)
	for i := range padded {
		if i < len(preimage) {
			padded[i] = preimage[i]
		} else {
			padded[i] = PhantomFieldElement()
		}
	}
	for i, fe := range padded {
		assignment.PreImage[i] = new(big.Int).SetBytes(fe.Serialize())
	}

	witness, err := frontend.NewWitness(assignment, ecc.BN254.ScalarField())
	if err != nil {
		return ScProof{}, FieldElement{}, err
	}
	proof, err := groth16.Prove(ps.ccs, ps.pk, witness)
	if err != nil {
		return ScProof{}, FieldElement{}, err
	}

	var buf bytes.Buffer
	if _, err := proof.WriteTo(&buf); err != nil {
		return ScProof{}, FieldElement{}, err
	}
	scProof, err := ScProofFromBytes(buf.Bytes())
	if err != nil {
		return ScProof{}, FieldElement{}, err
	}
	return scProof, stmt, nil
}
