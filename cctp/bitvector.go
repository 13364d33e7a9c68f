package cctp

import (
	"bytes"
	"fmt"
	"io"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// CompressionAlgorithm is the leading tag byte of a compressed bit vector.
type CompressionAlgorithm uint8

const (
	CompressionUncompressed CompressionAlgorithm = iota
	CompressionGzip
	CompressionZstd
)

// bitVectorLeafSize is the chunk size used when lifting raw bit vector
// bytes into field elements: 31 bytes always fit below the field order.
const bitVectorLeafSize = 31

// CompressBitVector encodes raw bit vector bytes with the given algorithm
// and prepends the algorithm tag.
func CompressBitVector(raw []byte, alg CompressionAlgorithm) ([]byte, error) {
	if len(raw) == 0 {
		return nil, ErrEmptyBitVector
	}
	switch alg {
	case CompressionUncompressed:
		out := make([]byte, 0, len(raw)+1)
		out = append(out, byte(alg))
		return append(out, raw...), nil
	case CompressionGzip:
		var buf bytes.Buffer
		buf.WriteByte(byte(alg))
		zw := gzip.NewWriter(&buf)
		if _, err := zw.Write(raw); err != nil {
			return nil, err
		}
		if err := zw.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case CompressionZstd:
		enc, err := zstd.NewWriter(nil)
		if err != nil {
			return nil, err
		}
		defer enc.Close()
		out := make([]byte, 1, len(raw)/2+1)
		out[0] = byte(alg)
		return enc.EncodeAll(raw, out), nil
	default:
		return nil, ErrUnknownAlgorithm
	}
}

// DecompressBitVector reverses CompressBitVector. The declared uncompressed
// size must match exactly; a mismatch is an error, not a truncation.
func DecompressBitVector(compressed []byte, expectedLen int) ([]byte, error) {
	if len(compressed) == 0 {
		return nil, ErrEmptyBitVector
	}
	alg := CompressionAlgorithm(compressed[0])
	payload := compressed[1:]

	var raw []byte
	switch alg {
	case CompressionUncompressed:
		raw = payload
	case CompressionGzip:
		zr, err := gzip.NewReader(bytes.NewReader(payload))
		if err != nil {
			return nil, fmt.Errorf("bit vector gzip: %w", err)
		}
		defer zr.Close()
		raw, err = io.ReadAll(io.LimitReader(zr, int64(expectedLen)+1))
		if err != nil {
			return nil, fmt.Errorf("bit vector gzip: %w", err)
		}
	case CompressionZstd:
		// Bound the decoder so a tiny payload with an extreme ratio
		// cannot allocate past the declared size.
		dec, err := zstd.NewReader(nil, zstd.WithDecoderMaxMemory(uint64(expectedLen)+1))
		if err != nil {
			return nil, err
		}
		defer dec.Close()
		raw, err = dec.DecodeAll(payload, nil)
		if err != nil {
			return nil, fmt.Errorf("bit vector zstd: %w", err)
		}
	default:
		return nil, ErrUnknownAlgorithm
	}

	if len(raw) != expectedLen {
		return nil, ErrUncompressedSize
	}
	return raw, nil
}

// MerkleRootFromCompressedBytes reconstructs the Merkle root field element
// of a compressed bit vector. The declared uncompressed byte length must
// match the configuration; otherwise the reconstruction fails.
func MerkleRootFromCompressedBytes(compressed []byte, expectedUncompressedLen int) (FieldElement, error) {
	raw, err := DecompressBitVector(compressed, expectedUncompressedLen)
	if err != nil {
		return FieldElement{}, err
	}

	leaves := make([]fr.Element, 0, (len(raw)+bitVectorLeafSize-1)/bitVectorLeafSize)
	for off := 0; off < len(raw); off += bitVectorLeafSize {
		end := off + bitVectorLeafSize
		if end > len(raw) {
			end = len(raw)
		}
		var e fr.Element
		e.SetBytes(raw[off:end])
		leaves = append(leaves, e)
	}
	root := foldLeaves(leaves)
	return FieldElementFromElement(&root), nil
}
