package cctp

import (
	"bytes"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/groth16"
)

// ScProof is a bounded-size serialized sidechain proof. Deserialization is
// deferred to the backend; malformed bytes yield a nil handle, never a
// panic.
type ScProof struct {
	cctpObject
}

func ScProofFromBytes(b []byte) (ScProof, error) {
	if len(b) > MaxProofSizeBytes {
		return ScProof{}, ErrProofTooLarge
	}
	buf := make([]byte, len(b))
	copy(buf, b)
	return ScProof{cctpObject{buf}}, nil
}

// Deserialize parses the proof with the backend. Returns nil on malformed
// or truncated bytes.
func (p ScProof) Deserialize() groth16.Proof {
	if p.IsNull() {
		return nil
	}
	proof := groth16.NewProof(ecc.BN254)
	if _, err := proof.ReadFrom(bytes.NewReader(p.byteVector)); err != nil {
		return nil
	}
	return proof
}

func (p ScProof) IsValid() bool {
	return p.Deserialize() != nil
}

func (p ScProof) ProvingSystemType() ProvingSystemType {
	if p.IsNull() {
		return ProvingSystemTypeUndefined
	}
	return ProvingSystemTypeGroth16Bn254
}

func (p ScProof) MarshalJSON() ([]byte, error) { return p.marshalHex() }

func (p *ScProof) UnmarshalJSON(data []byte) error {
	raw, err := unmarshalHex(data)
	if err != nil {
		return err
	}
	if raw == nil {
		p.SetNull()
		return nil
	}
	parsed, err := ScProofFromBytes(raw)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
