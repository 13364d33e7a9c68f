package cctp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bitVectorSample(n int) []byte {
	raw := make([]byte, n)
	for i := range raw {
		raw[i] = byte(i * 7)
	}
	return raw
}

func TestBitVectorRoundTrip(t *testing.T) {
	raw := bitVectorSample(254 * 4)

	for _, alg := range []CompressionAlgorithm{CompressionUncompressed, CompressionGzip, CompressionZstd} {
		compressed, err := CompressBitVector(raw, alg)
		require.NoError(t, err)
		require.NotEmpty(t, compressed)
		assert.Equal(t, byte(alg), compressed[0])

		got, err := DecompressBitVector(compressed, len(raw))
		require.NoError(t, err)
		assert.Equal(t, raw, got)
	}
}

func TestBitVectorSizeMismatch(t *testing.T) {
	raw := bitVectorSample(64)
	compressed, err := CompressBitVector(raw, CompressionGzip)
	require.NoError(t, err)

	_, err = DecompressBitVector(compressed, len(raw)+1)
	assert.ErrorIs(t, err, ErrUncompressedSize)
	_, err = DecompressBitVector(compressed, len(raw)-1)
	assert.ErrorIs(t, err, ErrUncompressedSize)
}

func TestBitVectorZstdOutputBounded(t *testing.T) {
	// A highly compressible payload must not inflate past the declared
	// size: the decoder is capped, so a mismatch errors instead of
	// allocating the full expansion first.
	raw := make([]byte, 1<<16)
	compressed, err := CompressBitVector(raw, CompressionZstd)
	require.NoError(t, err)
	require.Less(t, len(compressed), 1024)

	_, err = DecompressBitVector(compressed, 64)
	assert.Error(t, err)

	// The correct declared size still round-trips.
	got, err := DecompressBitVector(compressed, len(raw))
	require.NoError(t, err)
	assert.Equal(t, raw, got)
}

func TestBitVectorUnknownAlgorithm(t *testing.T) {
	_, err := CompressBitVector(bitVectorSample(8), CompressionAlgorithm(99))
	assert.ErrorIs(t, err, ErrUnknownAlgorithm)

	_, err = DecompressBitVector([]byte{99, 1, 2, 3}, 3)
	assert.ErrorIs(t, err, ErrUnknownAlgorithm)
}

func TestBitVectorEmpty(t *testing.T) {
	_, err := CompressBitVector(nil, CompressionGzip)
	assert.ErrorIs(t, err, ErrEmptyBitVector)

	_, err = DecompressBitVector(nil, 0)
	assert.ErrorIs(t, err, ErrEmptyBitVector)
}

func TestBitVectorMerkleRoot(t *testing.T) {
	raw := bitVectorSample(254)
	compressed, err := CompressBitVector(raw, CompressionZstd)
	require.NoError(t, err)

	r1, err := MerkleRootFromCompressedBytes(compressed, len(raw))
	require.NoError(t, err)
	require.True(t, r1.IsValid())

	// The root depends only on the uncompressed content.
	plain, err := CompressBitVector(raw, CompressionUncompressed)
	require.NoError(t, err)
	r2, err := MerkleRootFromCompressedBytes(plain, len(raw))
	require.NoError(t, err)
	assert.True(t, r1.Equal(r2))

	// Flipping a bit changes the root.
	raw[13] ^= 0x01
	flipped, err := CompressBitVector(raw, CompressionUncompressed)
	require.NoError(t, err)
	r3, err := MerkleRootFromCompressedBytes(flipped, len(raw))
	require.NoError(t, err)
	assert.False(t, r1.Equal(r3))
}
