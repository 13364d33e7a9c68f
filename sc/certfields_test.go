package sc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zendoolabs/zend/cctp"
)

func TestFieldElementCertFieldWholeBytes(t *testing.T) {
	cfg := FieldElementCertificateFieldConfig{NBits: 16}
	f := NewFieldElementCertificateField([]byte{0xab, 0xcd})

	fe, ok := f.GetFieldElement(cfg)
	require.True(t, ok)
	assert.True(t, fe.IsValid())

	// Cached result on repeat.
	fe2, ok := f.GetFieldElement(cfg)
	require.True(t, ok)
	assert.True(t, fe.Equal(fe2))
}

func TestFieldElementCertFieldLengthMismatch(t *testing.T) {
	cfg := FieldElementCertificateFieldConfig{NBits: 16}

	_, ok := NewFieldElementCertificateField([]byte{0xab}).GetFieldElement(cfg)
	assert.False(t, ok)
	_, ok = NewFieldElementCertificateField([]byte{1, 2, 3}).GetFieldElement(cfg)
	assert.False(t, ok)
}

func TestFieldElementCertFieldPaddingBits(t *testing.T) {
	// Every width with a partial last byte must reject set padding bits
	// and accept zero padding bits.
	for rem := 1; rem <= 7; rem++ {
		nBits := uint8(8 + rem)
		cfg := FieldElementCertificateFieldConfig{NBits: nBits}
		padBits := 8 - rem

		// Highest meaningful bit set, padding clear.
		good := []byte{0xff, byte(1 << padBits)}
		_, ok := NewFieldElementCertificateField(good).GetFieldElement(cfg)
		assert.True(t, ok, "nBits=%d clean padding must pass", nBits)

		// Lowest padding bit set.
		bad := []byte{0xff, 0x01}
		_, ok = NewFieldElementCertificateField(bad).GetFieldElement(cfg)
		assert.False(t, ok, "nBits=%d dirty padding must fail", nBits)
	}
}

func TestFieldElementCertFieldRevalidatesOnConfigChange(t *testing.T) {
	f := NewFieldElementCertificateField([]byte{0xff, 0x01})

	_, ok := f.GetFieldElement(FieldElementCertificateFieldConfig{NBits: 16})
	require.True(t, ok)

	// Same bytes, different declared width with dirty padding.
	_, ok = f.GetFieldElement(FieldElementCertificateFieldConfig{NBits: 9})
	assert.False(t, ok)
}

func TestFieldElementCertFieldCopyIndependent(t *testing.T) {
	f := NewFieldElementCertificateField([]byte{0x01, 0x02})
	cp := f.Copy()

	cfg := FieldElementCertificateFieldConfig{NBits: 16}
	fe1, ok := f.GetFieldElement(cfg)
	require.True(t, ok)
	fe2, ok := cp.GetFieldElement(cfg)
	require.True(t, ok)
	assert.True(t, fe1.Equal(fe2))
	assert.Equal(t, f.RawData(), cp.RawData())
}

func TestBitVectorConfigValidity(t *testing.T) {
	assert.True(t, BitVectorCertificateFieldConfig{BitVectorSizeBits: 254 * 4, MaxCompressedSizeBytes: 2048}.IsValid())
	assert.False(t, BitVectorCertificateFieldConfig{BitVectorSizeBits: 255, MaxCompressedSizeBytes: 2048}.IsValid())
	assert.False(t, BitVectorCertificateFieldConfig{BitVectorSizeBits: 254, MaxCompressedSizeBytes: 2048}.IsValid(), "must also fill whole bytes")
	assert.False(t, BitVectorCertificateFieldConfig{BitVectorSizeBits: 254 * 4, MaxCompressedSizeBytes: 0}.IsValid())
}

func TestBitVectorCertField(t *testing.T) {
	cfg := BitVectorCertificateFieldConfig{BitVectorSizeBits: 254 * 4, MaxCompressedSizeBytes: 2048}
	raw := make([]byte, cfg.UncompressedSizeBytes())
	for i := range raw {
		raw[i] = byte(i)
	}
	compressed, err := cctp.CompressBitVector(raw, cctp.CompressionGzip)
	require.NoError(t, err)

	f := NewBitVectorCertificateField(compressed)
	fe, ok := f.GetFieldElement(cfg)
	require.True(t, ok)
	assert.True(t, fe.IsValid())

	fe2, ok := f.Copy().GetFieldElement(cfg)
	require.True(t, ok)
	assert.True(t, fe.Equal(fe2))
}

func TestBitVectorCertFieldOversizedCompressed(t *testing.T) {
	cfg := BitVectorCertificateFieldConfig{BitVectorSizeBits: 254 * 4, MaxCompressedSizeBytes: 4}
	compressed, err := cctp.CompressBitVector(make([]byte, cfg.UncompressedSizeBytes()), cctp.CompressionUncompressed)
	require.NoError(t, err)

	// Rejected on the declared bound alone, before any decompression.
	_, ok := NewBitVectorCertificateField(compressed).GetFieldElement(cfg)
	assert.False(t, ok)
}

func TestBitVectorCertFieldWrongUncompressedSize(t *testing.T) {
	cfg := BitVectorCertificateFieldConfig{BitVectorSizeBits: 254 * 4, MaxCompressedSizeBytes: 2048}
	compressed, err := cctp.CompressBitVector(make([]byte, cfg.UncompressedSizeBytes()+1), cctp.CompressionGzip)
	require.NoError(t, err)

	_, ok := NewBitVectorCertificateField(compressed).GetFieldElement(cfg)
	assert.False(t, ok)
}
