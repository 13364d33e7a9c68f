package sc

import (
	"fmt"
	"sort"

	"github.com/xlab/treeprint"
	"github.com/zendoolabs/zend/cctp"
	"github.com/zendoolabs/zend/common"
	"github.com/zendoolabs/zend/log"
	"github.com/zendoolabs/zend/types"
)

// Domain tags keep leaves of different payload kinds from colliding.
const (
	leafTagScCreation uint64 = iota + 1
	leafTagForwardTransfer
	leafTagBwtRequest
	leafTagCsw
	leafTagCertificate
)

type scLeafGroup struct {
	scc  []cctp.FieldElement
	fwt  []cctp.FieldElement
	bwtr []cctp.FieldElement
	csw  []cctp.FieldElement
	cert []cctp.FieldElement
}

func (g *scLeafGroup) ordered() []cctp.FieldElement {
	out := make([]cctp.FieldElement, 0, len(g.scc)+len(g.fwt)+len(g.bwtr)+len(g.csw)+len(g.cert))
	out = append(out, g.scc...)
	out = append(out, g.fwt...)
	out = append(out, g.bwtr...)
	out = append(out, g.csw...)
	return append(out, g.cert...)
}

// CommitmentBuilder folds every sidechain payload of one block into a
// single commitment. Payloads are grouped per sidechain, each group folds
// into a subtree root, and the roots fold in sidechain id order into the
// block commitment. Any failed leaf poisons the builder.
type CommitmentBuilder struct {
	groups    map[common.Hash]*scLeafGroup
	order     []common.Hash
	err       error
	finalized bool
	root      common.Hash
}

func NewCommitmentBuilder() *CommitmentBuilder {
	return &CommitmentBuilder{groups: make(map[common.Hash]*scLeafGroup)}
}

func (b *CommitmentBuilder) group(scId common.Hash) *scLeafGroup {
	g, ok := b.groups[scId]
	if !ok {
		g = &scLeafGroup{}
		b.groups[scId] = g
		b.order = append(b.order, scId)
	}
	return g
}

func (b *CommitmentBuilder) fail(err error) error {
	b.err = err
	return err
}

// AddTransaction folds every sidechain payload of tx into the builder.
// Transactions without the sidechain version are ignored. Creation,
// forward transfer and request leaves bind the transaction hash and the
// output position; ceased withdrawal leaves deliberately do not, so the
// same withdrawal commits identically wherever it appears.
func (b *CommitmentBuilder) AddTransaction(tx *types.Transaction) error {
	if b.err != nil {
		return b.err
	}
	if b.finalized {
		return cctp.ErrTreeFinalized
	}
	if !tx.IsScVersion() {
		return nil
	}
	txHashFe := cctp.FieldElementFromHash(tx.GetHash())

	for i, out := range tx.VscCcOut {
		scId := tx.ScIdForCreationOutput(i)
		leaf, err := cctp.HashFieldElements(
			cctp.FieldElementFromUint64(leafTagScCreation),
			cctp.FieldElementFromHash(scId),
			txHashFe,
			cctp.FieldElementFromUint64(uint64(i)),
			cctp.FieldElementFromUint64(uint64(out.Value)),
			cctp.FieldElementFromUint64(uint64(uint32(out.WithdrawalEpochLength))),
		)
		if err != nil {
			return b.fail(err)
		}
		b.group(scId).scc = append(b.group(scId).scc, leaf)
	}
	for i, ft := range tx.VftCcOut {
		leaf, err := cctp.HashFieldElements(
			cctp.FieldElementFromUint64(leafTagForwardTransfer),
			cctp.FieldElementFromHash(ft.ScId),
			txHashFe,
			cctp.FieldElementFromUint64(uint64(i)),
			cctp.FieldElementFromUint64(uint64(ft.Value)),
			cctp.FieldElementFromHash(common.Blake2Hash(ft.PubKeyHash.Bytes())),
		)
		if err != nil {
			return b.fail(err)
		}
		b.group(ft.ScId).fwt = append(b.group(ft.ScId).fwt, leaf)
	}
	for i, bwtr := range tx.VbwtRequestOut {
		reqDigest, err := cctp.HashFieldElements(bwtr.RequestData...)
		if err != nil {
			return b.fail(err)
		}
		leaf, err := cctp.HashFieldElements(
			cctp.FieldElementFromUint64(leafTagBwtRequest),
			cctp.FieldElementFromHash(bwtr.ScId),
			txHashFe,
			cctp.FieldElementFromUint64(uint64(i)),
			reqDigest,
			cctp.FieldElementFromUint64(uint64(bwtr.Fee)),
		)
		if err != nil {
			return b.fail(err)
		}
		b.group(bwtr.ScId).bwtr = append(b.group(bwtr.ScId).bwtr, leaf)
	}
	for _, csw := range tx.VcswCcIn {
		leaf, err := cctp.HashFieldElements(
			cctp.FieldElementFromUint64(leafTagCsw),
			cctp.FieldElementFromHash(csw.ScId),
			cctp.FieldElementFromUint64(uint64(csw.Value)),
			csw.Nullifier,
			cctp.FieldElementFromHash(common.Blake2Hash(csw.PubKeyHash.Bytes())),
		)
		if err != nil {
			return b.fail(err)
		}
		b.group(csw.ScId).csw = append(b.group(csw.ScId).csw, leaf)
	}
	return nil
}

// AddCertificate folds one certificate leaf for its sidechain.
func (b *CommitmentBuilder) AddCertificate(cert *types.Certificate) error {
	if b.err != nil {
		return b.err
	}
	if b.finalized {
		return cctp.ErrTreeFinalized
	}
	leaf, err := cctp.HashFieldElements(
		cctp.FieldElementFromUint64(leafTagCertificate),
		cctp.FieldElementFromHash(cert.ScId),
		cctp.FieldElementFromHash(cert.GetHash()),
		cctp.FieldElementFromUint64(uint64(uint32(cert.EpochNumber))),
		cctp.FieldElementFromUint64(cert.Quality),
	)
	if err != nil {
		return b.fail(err)
	}
	b.group(cert.ScId).cert = append(b.group(cert.ScId).cert, leaf)
	return nil
}

// Commitment finalizes the builder and returns the block commitment.
// It is idempotent; adding after the first call is an error.
func (b *CommitmentBuilder) Commitment() (common.Hash, error) {
	if b.err != nil {
		return common.Hash{}, b.err
	}
	if b.finalized {
		return b.root, nil
	}

	scIds := b.sortedScIds()
	top := cctp.NewCommitmentTree()
	defer top.Free()
	for _, scId := range scIds {
		sub := cctp.NewCommitmentTree()
		for _, leaf := range b.groups[scId].ordered() {
			if err := sub.AddLeaf(leaf); err != nil {
				sub.Free()
				return common.Hash{}, b.fail(err)
			}
		}
		subRoot, err := sub.Finalize()
		sub.Free()
		if err != nil {
			return common.Hash{}, b.fail(err)
		}
		scLeaf, err := cctp.ComputeHash(cctp.FieldElementFromHash(scId), subRoot)
		if err != nil {
			return common.Hash{}, b.fail(err)
		}
		if err := top.AddLeaf(scLeaf); err != nil {
			return common.Hash{}, b.fail(err)
		}
	}
	root, err := top.Finalize()
	if err != nil {
		return common.Hash{}, b.fail(err)
	}

	b.finalized = true
	b.root = common.BytesToHash(root.Serialize())
	log.Debug(log.ScMonitoring, "block sidechain commitment", "sidechains", len(scIds), "root", b.root.String_short())
	return b.root, nil
}

func (b *CommitmentBuilder) sortedScIds() []common.Hash {
	scIds := append([]common.Hash(nil), b.order...)
	sort.Slice(scIds, func(i, j int) bool {
		return scIds[i].String() < scIds[j].String()
	})
	return scIds
}

// Dump renders the builder contents for debugging.
func (b *CommitmentBuilder) Dump() string {
	tree := treeprint.NewWithRoot("scTxsCommitment")
	for _, scId := range b.sortedScIds() {
		g := b.groups[scId]
		branch := tree.AddBranch(scId.String_short())
		branch.AddNode(fmt.Sprintf("scc=%d fwt=%d bwtr=%d csw=%d cert=%d",
			len(g.scc), len(g.fwt), len(g.bwtr), len(g.csw), len(g.cert)))
	}
	return tree.String()
}
