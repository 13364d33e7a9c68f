package cctp

import (
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
)

// CommitmentTree is the backend handle for the per-block sidechain
// commitment accumulator. Leaves are appended in order and folded into a
// single root on finalization. Not safe for concurrent use: each instance
// is owned by exactly one block-validation pass.
type CommitmentTree struct {
	leaves    []fr.Element
	finalized bool
	freed     bool
	root      fr.Element
}

func NewCommitmentTree() *CommitmentTree {
	return &CommitmentTree{
		leaves: make([]fr.Element, 0, 64),
	}
}

// AddLeaf appends one leaf. Fails once the tree has been finalized or the
// handle released, or if the leaf does not decode.
func (t *CommitmentTree) AddLeaf(fe FieldElement) error {
	if t.freed {
		return ErrTreeFreed
	}
	if t.finalized {
		return ErrTreeFinalized
	}
	e := fe.Deserialize()
	if e == nil {
		return ErrInvalidOperand
	}
	t.leaves = append(t.leaves, *e)
	return nil
}

// Finalize folds all leaves into the root digest. Repeated calls return
// the cached root; no further leaves may be added afterwards.
func (t *CommitmentTree) Finalize() (FieldElement, error) {
	if t.freed {
		return FieldElement{}, ErrTreeFreed
	}
	if t.finalized {
		return FieldElementFromElement(&t.root), nil
	}
	t.root = foldLeaves(t.leaves)
	t.finalized = true
	return FieldElementFromElement(&t.root), nil
}

// Free releases the handle. Idempotent; any later use fails.
func (t *CommitmentTree) Free() {
	t.leaves = nil
	t.freed = true
}

func (t *CommitmentTree) Len() int { return len(t.leaves) }

// foldLeaves reduces the leaf level pairwise with the 2-to-1 hash,
// duplicating an odd trailing leaf, until one element remains. The empty
// tree folds to zero.
func foldLeaves(leaves []fr.Element) fr.Element {
	if len(leaves) == 0 {
		return fr.Element{}
	}
	level := make([]fr.Element, len(leaves))
	copy(level, leaves)
	for len(level) > 1 {
		next := make([]fr.Element, 0, (len(level)+1)/2)
		for i := 0; i < len(level); i += 2 {
			if i+1 < len(level) {
				next = append(next, hashPair(level[i], level[i+1]))
			} else {
				next = append(next, hashPair(level[i], level[i]))
			}
		}
		level = next
	}
	return level[0]
}
