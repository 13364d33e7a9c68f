package cctp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommitmentTreeOrderSensitive(t *testing.T) {
	a := FieldElementFromUint64(1)
	b := FieldElementFromUint64(2)

	t1 := NewCommitmentTree()
	require.NoError(t, t1.AddLeaf(a))
	require.NoError(t, t1.AddLeaf(b))
	r1, err := t1.Finalize()
	require.NoError(t, err)

	t2 := NewCommitmentTree()
	require.NoError(t, t2.AddLeaf(b))
	require.NoError(t, t2.AddLeaf(a))
	r2, err := t2.Finalize()
	require.NoError(t, err)

	assert.False(t, r1.Equal(r2))
}

func TestCommitmentTreeFinalizeIdempotent(t *testing.T) {
	tr := NewCommitmentTree()
	require.NoError(t, tr.AddLeaf(FieldElementFromUint64(9)))

	r1, err := tr.Finalize()
	require.NoError(t, err)
	r2, err := tr.Finalize()
	require.NoError(t, err)
	assert.True(t, r1.Equal(r2))

	err = tr.AddLeaf(FieldElementFromUint64(10))
	assert.ErrorIs(t, err, ErrTreeFinalized)
}

func TestCommitmentTreeFreed(t *testing.T) {
	tr := NewCommitmentTree()
	require.NoError(t, tr.AddLeaf(FieldElementFromUint64(1)))
	tr.Free()
	tr.Free() // idempotent

	assert.ErrorIs(t, tr.AddLeaf(FieldElementFromUint64(2)), ErrTreeFreed)
	_, err := tr.Finalize()
	assert.ErrorIs(t, err, ErrTreeFreed)
}

func TestCommitmentTreeEmpty(t *testing.T) {
	tr := NewCommitmentTree()
	root, err := tr.Finalize()
	require.NoError(t, err)
	assert.True(t, root.Equal(PhantomFieldElement()))
}

func TestCommitmentTreeOddLeafDuplicated(t *testing.T) {
	a := FieldElementFromUint64(5)

	single := NewCommitmentTree()
	require.NoError(t, single.AddLeaf(a))
	r1, err := single.Finalize()
	require.NoError(t, err)

	doubled := NewCommitmentTree()
	require.NoError(t, doubled.AddLeaf(a))
	require.NoError(t, doubled.AddLeaf(a))
	r2, err := doubled.Finalize()
	require.NoError(t, err)

	assert.True(t, r1.Equal(r2))
}
