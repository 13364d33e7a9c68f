package sc

import (
	"math/bits"

	"github.com/zendoolabs/zend/cctp"
)

// FieldElementCertificateFieldConfig declares one field element custom
// field: its width in bits. The width must fit a single field element.
type FieldElementCertificateFieldConfig struct {
	NBits uint8 `json:"nBits"`
}

func (c FieldElementCertificateFieldConfig) IsValid() bool {
	return c.NBits > 0
}

// BitVectorCertificateFieldConfig declares one bit vector custom field.
// The bit count must fill whole field elements and whole bytes.
type BitVectorCertificateFieldConfig struct {
	BitVectorSizeBits      int32 `json:"bitVectorSizeBits"`
	MaxCompressedSizeBytes int32 `json:"maxCompressedSizeBytes"`
}

func (c BitVectorCertificateFieldConfig) IsValid() bool {
	if c.BitVectorSizeBits <= 0 || c.MaxCompressedSizeBytes <= 0 {
		return false
	}
	return c.BitVectorSizeBits%254 == 0 && c.BitVectorSizeBits%8 == 0
}

// UncompressedSizeBytes is the exact byte length the decompressed bit
// vector must have.
func (c BitVectorCertificateFieldConfig) UncompressedSizeBytes() int {
	return int(c.BitVectorSizeBits / 8)
}

type validationState int

const (
	validationNotInitialized validationState = iota
	validationValid
	validationInvalid
)

// FieldElementCertificateField wraps the raw bytes of one field element
// custom field. The lifted field element is computed lazily against a
// config and cached together with the config that produced it.
type FieldElementCertificateField struct {
	rawField []byte

	state    validationState
	usedCfg  FieldElementCertificateFieldConfig
	fieldElt cctp.FieldElement
}

func NewFieldElementCertificateField(raw []byte) *FieldElementCertificateField {
	return &FieldElementCertificateField{rawField: append([]byte(nil), raw...)}
}

func (f *FieldElementCertificateField) RawData() []byte {
	return append([]byte(nil), f.rawField...)
}

// Copy returns an independent copy, cache included.
func (f *FieldElementCertificateField) Copy() *FieldElementCertificateField {
	cp := *f
	cp.rawField = append([]byte(nil), f.rawField...)
	return &cp
}

// GetFieldElement validates the raw bytes against cfg and lifts them into
// a field element. The result is cached; a later call with a different
// config revalidates.
func (f *FieldElementCertificateField) GetFieldElement(cfg FieldElementCertificateFieldConfig) (cctp.FieldElement, bool) {
	if f.state != validationNotInitialized && f.usedCfg == cfg {
		return f.fieldElt, f.state == validationValid
	}
	f.usedCfg = cfg
	f.state = validationInvalid
	f.fieldElt = cctp.FieldElement{}

	if !cfg.IsValid() {
		return cctp.FieldElement{}, false
	}
	expectedBytes := (int(cfg.NBits) + 7) / 8
	if len(f.rawField) != expectedBytes {
		return cctp.FieldElement{}, false
	}
	// Bits past NBits in the last byte are padding and must be zero.
	if rem := int(cfg.NBits) % 8; rem != 0 {
		last := f.rawField[len(f.rawField)-1]
		if last != 0 && bits.TrailingZeros8(last) < 8-rem {
			return cctp.FieldElement{}, false
		}
	}

	padded := make([]byte, cctp.FieldElementSizeBytes)
	copy(padded[cctp.FieldElementSizeBytes-len(f.rawField):], f.rawField)
	fe, err := cctp.FieldElementFromBytes(padded)
	if err != nil || !fe.IsValid() {
		return cctp.FieldElement{}, false
	}
	f.state = validationValid
	f.fieldElt = fe
	return fe, true
}

// BitVectorCertificateField wraps the compressed bytes of one bit vector
// custom field. The lifted element is the Merkle root of the decompressed
// vector, cached like the field element variant.
type BitVectorCertificateField struct {
	rawCompressed []byte

	state    validationState
	usedCfg  BitVectorCertificateFieldConfig
	fieldElt cctp.FieldElement
}

func NewBitVectorCertificateField(compressed []byte) *BitVectorCertificateField {
	return &BitVectorCertificateField{rawCompressed: append([]byte(nil), compressed...)}
}

func (f *BitVectorCertificateField) RawData() []byte {
	return append([]byte(nil), f.rawCompressed...)
}

func (f *BitVectorCertificateField) Copy() *BitVectorCertificateField {
	cp := *f
	cp.rawCompressed = append([]byte(nil), f.rawCompressed...)
	return &cp
}

// GetFieldElement checks the compressed size bound before any
// decompression work, then lifts the vector into its Merkle root.
func (f *BitVectorCertificateField) GetFieldElement(cfg BitVectorCertificateFieldConfig) (cctp.FieldElement, bool) {
	if f.state != validationNotInitialized && f.usedCfg == cfg {
		return f.fieldElt, f.state == validationValid
	}
	f.usedCfg = cfg
	f.state = validationInvalid
	f.fieldElt = cctp.FieldElement{}

	if !cfg.IsValid() {
		return cctp.FieldElement{}, false
	}
	if len(f.rawCompressed) == 0 || len(f.rawCompressed) > int(cfg.MaxCompressedSizeBytes) {
		return cctp.FieldElement{}, false
	}
	root, err := cctp.MerkleRootFromCompressedBytes(f.rawCompressed, cfg.UncompressedSizeBytes())
	if err != nil {
		return cctp.FieldElement{}, false
	}
	f.state = validationValid
	f.fieldElt = root
	return root, true
}
