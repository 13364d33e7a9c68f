package cctp

import (
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/std/hash/mimc"
)

// StatementPreimageSlots is the fixed number of secret preimage inputs in
// the statement circuit. Shorter descriptor digests are padded with the
// phantom element.
const StatementPreimageSlots = 8

// StatementCircuit binds one public statement to the hash of a fixed-width
// descriptor preimage. Certificate and ceased-withdrawal proofs share this
// shape; only the descriptor fold differs.
type StatementCircuit struct {
	PreImage  [StatementPreimageSlots]frontend.Variable
	Statement frontend.Variable `gnark:",public"`
}

// Define declares the circuit's constraints: Statement = H(PreImage...).
func (c *StatementCircuit) Define(api frontend.API) error {
	h, err := mimc.NewMiMC(api)
	if err != nil {
		return err
	}
	h.Write(c.PreImage[:]...)
	api.AssertIsEqual(c.Statement, h.Sum())
	return nil
}

// ComputeStatement folds up to StatementPreimageSlots descriptor field
// elements into the public statement, padding with the phantom element so
// the in-circuit and out-of-circuit folds agree.
func ComputeStatement(inputs []FieldElement) (FieldElement, error) {
	if len(inputs) > StatementPreimageSlots {
		return FieldElement{}, ErrTooManyInputs
	}
	padded := make([]FieldElement, StatementPreimageSlots)
	for i := range padded {
		if i < len(inputs) {
			padded[i] = inputs[i]
		} else {
			padded[i] = PhantomFieldElement()
		}
	}
	return HashFieldElements(padded...)
}
