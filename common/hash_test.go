package common

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBlake2Hash(t *testing.T) {
	h1 := Blake2Hash([]byte("zend"))
	h2 := Blake2Hash([]byte("zend"))
	require.Equal(t, h1, h2)
	require.NotEqual(t, h1, Blake2Hash([]byte("zen")))
	require.False(t, h1.IsZero())
}

func TestIntHelpers(t *testing.T) {
	require.Equal(t, uint64(0xdeadbeef), BytesToUint64(Uint64ToBytes(0xdeadbeef)))
	require.Equal(t, uint32(42), BytesToUint32(Uint32ToBytes(42)))
	require.Equal(t, Int64ToBytes(-1), Uint64ToBytes(0xffffffffffffffff))
}

func TestHashJSON(t *testing.T) {
	h := HexToHash("0x01")
	b, err := h.MarshalJSON()
	require.NoError(t, err)
	var back Hash
	require.NoError(t, back.UnmarshalJSON(b))
	require.Equal(t, h, back)
}
