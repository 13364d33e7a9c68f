package cctp

import (
	"bytes"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/groth16"
)

// ScVKey is a bounded-size serialized verification key bound to one
// sidechain at creation time.
type ScVKey struct {
	cctpObject
}

func ScVKeyFromBytes(b []byte) (ScVKey, error) {
	if len(b) > MaxVKeySizeBytes {
		return ScVKey{}, ErrVKeyTooLarge
	}
	buf := make([]byte, len(b))
	copy(buf, b)
	return ScVKey{cctpObject{buf}}, nil
}

// Deserialize parses the key with the backend. Returns nil on malformed
// or truncated bytes.
func (k ScVKey) Deserialize() groth16.VerifyingKey {
	if k.IsNull() {
		return nil
	}
	vk := groth16.NewVerifyingKey(ecc.BN254)
	if _, err := vk.ReadFrom(bytes.NewReader(k.byteVector)); err != nil {
		return nil
	}
	return vk
}

func (k ScVKey) IsValid() bool {
	return k.Deserialize() != nil
}

func (k ScVKey) ProvingSystemType() ProvingSystemType {
	if k.IsNull() {
		return ProvingSystemTypeUndefined
	}
	return ProvingSystemTypeGroth16Bn254
}

func (k ScVKey) MarshalJSON() ([]byte, error) { return k.marshalHex() }

func (k *ScVKey) UnmarshalJSON(data []byte) error {
	raw, err := unmarshalHex(data)
	if err != nil {
		return err
	}
	if raw == nil {
		k.SetNull()
		return nil
	}
	parsed, err := ScVKeyFromBytes(raw)
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}
