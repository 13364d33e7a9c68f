package cctp

import (
	"bytes"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr/mimc"
	"github.com/zendoolabs/zend/common"
)

// FieldElement is a fixed-size scalar over the proving system's field,
// stored in canonical big-endian serialized form. The zero value is the
// null sentinel.
type FieldElement struct {
	cctpObject
}

// FieldElementFromBytes builds a field element from exactly
// FieldElementSizeBytes bytes. The bytes are copied. No canonicity check
// is performed here; use IsValid or Deserialize for that.
func FieldElementFromBytes(b []byte) (FieldElement, error) {
	if len(b) != FieldElementSizeBytes {
		return FieldElement{}, ErrFieldElementSize
	}
	buf := make([]byte, FieldElementSizeBytes)
	copy(buf, b)
	return FieldElement{cctpObject{buf}}, nil
}

// FieldElementFromElement serializes a backend field element handle.
func FieldElementFromElement(e *fr.Element) FieldElement {
	if e == nil {
		return FieldElement{}
	}
	b := e.Bytes()
	return FieldElement{cctpObject{b[:]}}
}

// FieldElementFromHash reduces an arbitrary 32-byte hash into the field.
// A raw copy cannot be canonical for every input, so the hash is
// interpreted as a big-endian integer modulo the field order.
func FieldElementFromHash(h common.Hash) FieldElement {
	var e fr.Element
	e.SetBytes(h.Bytes())
	return FieldElementFromElement(&e)
}

// FieldElementFromUint64 lifts a small integer into the field.
func FieldElementFromUint64(v uint64) FieldElement {
	var e fr.Element
	e.SetUint64(v)
	return FieldElementFromElement(&e)
}

// PhantomFieldElement returns the all-zero field element used wherever a
// constant placeholder value is required.
func PhantomFieldElement() FieldElement {
	return FieldElement{cctpObject{make([]byte, FieldElementSizeBytes)}}
}

// Deserialize parses the serialized form into a backend field element
// handle. Returns nil, not an error, on malformed input; callers must
// check before use.
func (fe FieldElement) Deserialize() *fr.Element {
	if fe.IsNull() {
		return nil
	}
	if len(fe.byteVector) != FieldElementSizeBytes {
		return nil
	}
	var e fr.Element
	if err := e.SetBytesCanonical(fe.byteVector); err != nil {
		return nil
	}
	return &e
}

// IsValid reports whether the serialized bytes decode to a canonical
// field element.
func (fe FieldElement) IsValid() bool {
	return fe.Deserialize() != nil
}

func (fe FieldElement) Equal(other FieldElement) bool {
	return bytes.Equal(fe.byteVector, other.byteVector)
}

func (fe FieldElement) MarshalJSON() ([]byte, error) { return fe.marshalHex() }

func (fe *FieldElement) UnmarshalJSON(data []byte) error {
	raw, err := unmarshalHex(data)
	if err != nil {
		return err
	}
	if raw == nil {
		fe.SetNull()
		return nil
	}
	parsed, err := FieldElementFromBytes(raw)
	if err != nil {
		return err
	}
	*fe = parsed
	return nil
}

// ComputeHash applies the backend's 2-to-1 compression function to two
// field elements. Both operands must be valid.
func ComputeHash(lhs, rhs FieldElement) (FieldElement, error) {
	l := lhs.Deserialize()
	r := rhs.Deserialize()
	if l == nil || r == nil {
		return FieldElement{}, ErrInvalidOperand
	}
	out := hashPair(*l, *r)
	return FieldElementFromElement(&out), nil
}

// HashFieldElements folds any number of valid field elements into one via
// the backend hash. Used for leaf and statement digests.
func HashFieldElements(fes ...FieldElement) (FieldElement, error) {
	h := mimc.NewMiMC()
	for _, fe := range fes {
		if !fe.IsValid() {
			return FieldElement{}, ErrInvalidOperand
		}
		if _, err := h.Write(fe.byteVector); err != nil {
			return FieldElement{}, err
		}
	}
	var out fr.Element
	out.SetBytes(h.Sum(nil))
	return FieldElementFromElement(&out), nil
}

// hashPair is the raw 2-to-1 compression over backend handles.
func hashPair(l, r fr.Element) fr.Element {
	h := mimc.NewMiMC()
	lb := l.Bytes()
	rb := r.Bytes()
	h.Write(lb[:])
	h.Write(rb[:])
	var out fr.Element
	out.SetBytes(h.Sum(nil))
	return out
}
