package node

import (
	"errors"
	"fmt"

	"github.com/zendoolabs/zend/cctp"
	"github.com/zendoolabs/zend/chain"
	"github.com/zendoolabs/zend/common"
	"github.com/zendoolabs/zend/log"
	"github.com/zendoolabs/zend/sc"
	"github.com/zendoolabs/zend/types"
)

var (
	ErrCommitmentMismatch  = errors.New("block sidechain commitment mismatch")
	ErrUnknownSidechain    = errors.New("unknown sidechain")
	ErrDuplicateSidechain  = errors.New("sidechain already exists")
	ErrInvalidCustomFields = errors.New("invalid certificate custom fields")
	ErrProofsInvalid       = errors.New("batch proof verification failed")
)

// Config carries the node's runtime settings.
type Config struct {
	DataDir          string
	LogLevel         string
	LogModules       string
	VerificationMode sc.Verification
}

// Node ties the sidechain state, the block index and the proof verifier
// together and drives block connection.
type Node struct {
	cfg     Config
	store   *chain.Store
	view    *chain.View
	index   *chain.ActiveChain
	backend sc.VerifierBackend
}

// New opens the node's state. The cryptographic type size self check runs
// first; a mismatch there means the binary cannot validate anything.
func New(cfg Config) (*Node, error) {
	cctp.CheckTypeSizes()

	store, err := chain.NewStore(cfg.DataDir)
	if err != nil {
		return nil, err
	}
	index, err := chain.NewActiveChain(store)
	if err != nil {
		store.Close()
		return nil, err
	}
	n := &Node{
		cfg:     cfg,
		store:   store,
		view:    chain.NewView(store),
		index:   index,
		backend: sc.NewCctpVerifierBackend(),
	}
	log.Info(log.NodeMonitoring, "node opened", "datadir", cfg.DataDir,
		"mode", cfg.VerificationMode.String(), "height", index.Height())
	return n, nil
}

// SetVerifierBackend swaps the proof backend. Used by tests and tooling.
func (n *Node) SetVerifierBackend(backend sc.VerifierBackend) { n.backend = backend }

func (n *Node) View() *chain.View         { return n.view }
func (n *Node) Index() *chain.ActiveChain { return n.index }
func (n *Node) Height() int32             { return n.index.Height() }

func (n *Node) Close() error {
	log.Info(log.NodeMonitoring, "node closing", "height", n.index.Height())
	return n.store.Close()
}

// ConnectBlock validates one block's sidechain payloads against state and
// appends it to the active chain. The pass recomputes the block's
// sidechain commitment, validates certificate custom fields, stages every
// proof, runs the batch and only then mutates state.
func (n *Node) ConnectBlock(block *types.Block) error {
	height := n.index.Height() + 1
	blockHash := block.Header.GetHash()

	// Recompute the commitment over the block's own payloads.
	builder := sc.NewCommitmentBuilder()
	for i := range block.Vtx {
		if err := builder.AddTransaction(&block.Vtx[i]); err != nil {
			return fmt.Errorf("connect %s: %w", blockHash.String_short(), err)
		}
	}
	for i := range block.Vcert {
		if err := builder.AddCertificate(&block.Vcert[i]); err != nil {
			return fmt.Errorf("connect %s: %w", blockHash.String_short(), err)
		}
	}
	commitment, err := builder.Commitment()
	if err != nil {
		return fmt.Errorf("connect %s: %w", blockHash.String_short(), err)
	}
	if commitment != block.Header.ScTxsCommitment {
		log.Error(log.NodeMonitoring, "commitment mismatch", "block", blockHash.String_short(),
			"computed", commitment.String_short(), "header", block.Header.ScTxsCommitment.String_short())
		return ErrCommitmentMismatch
	}

	// Stage new sidechains so later payloads in the same block see them.
	pending, err := n.stageSidechainCreations(block, height)
	if err != nil {
		return err
	}
	view := &overlayView{base: n.view, pending: pending}

	pv := sc.NewScProofVerifier(n.cfg.VerificationMode, n.backend)
	for i := range block.Vtx {
		tx := &block.Vtx[i]
		if !tx.IsScVersion() {
			continue
		}
		for idx := range tx.VcswCcIn {
			if _, ok := view.GetSidechain(tx.VcswCcIn[idx].ScId); !ok {
				return fmt.Errorf("%w: csw references %s", ErrUnknownSidechain, tx.VcswCcIn[idx].ScId.String_short())
			}
			if err := pv.LoadDataForCswVerification(view, tx, uint32(idx)); err != nil {
				return fmt.Errorf("connect %s: %w", blockHash.String_short(), err)
			}
		}
		for _, ft := range tx.VftCcOut {
			if _, ok := view.GetSidechain(ft.ScId); !ok {
				return fmt.Errorf("%w: forward transfer references %s", ErrUnknownSidechain, ft.ScId.String_short())
			}
		}
		for _, bwtr := range tx.VbwtRequestOut {
			if _, ok := view.GetSidechain(bwtr.ScId); !ok {
				return fmt.Errorf("%w: backward transfer request references %s", ErrUnknownSidechain, bwtr.ScId.String_short())
			}
		}
	}
	for i := range block.Vcert {
		cert := &block.Vcert[i]
		record, ok := view.GetSidechain(cert.ScId)
		if !ok {
			return fmt.Errorf("%w: certificate references %s", ErrUnknownSidechain, cert.ScId.String_short())
		}
		if err := checkCertificateCustomFields(record, cert); err != nil {
			return err
		}
		if err := pv.LoadDataForCertVerification(view, n.index, cert); err != nil {
			return fmt.Errorf("connect %s: %w", blockHash.String_short(), err)
		}
	}

	if ok, failures := pv.BatchVerify(); !ok {
		for _, f := range failures {
			if f.IsCsw {
				log.Error(log.NodeMonitoring, "csw proof rejected", "tx", f.TxHash.String_short(),
					"idx", f.OutIdx, "code", f.Code.String())
			} else {
				log.Error(log.NodeMonitoring, "cert proof rejected", "cert", f.CertHash.String_short(),
					"code", f.Code.String())
			}
		}
		return ErrProofsInvalid
	}

	// Everything checked; persist.
	for _, record := range pending {
		if err := n.view.PutSidechain(record); err != nil {
			return err
		}
	}
	for i := range block.Vcert {
		if err := n.applyCertificate(&block.Vcert[i]); err != nil {
			return err
		}
	}
	for i := range block.Vtx {
		if err := n.applyValueTransfers(&block.Vtx[i]); err != nil {
			return err
		}
	}
	if _, err := n.index.Append(blockHash, commitment); err != nil {
		return err
	}
	log.Info(log.NodeMonitoring, "block connected", "height", height,
		"block", blockHash.String_short(), "txs", len(block.Vtx), "certs", len(block.Vcert))
	return nil
}

// stageSidechainCreations collects the records declared by this block's
// creation outputs without persisting them yet.
func (n *Node) stageSidechainCreations(block *types.Block, height int32) (map[common.Hash]*sc.SidechainRecord, error) {
	pending := make(map[common.Hash]*sc.SidechainRecord)
	for i := range block.Vtx {
		tx := &block.Vtx[i]
		if !tx.IsScVersion() {
			continue
		}
		for idx := range tx.VscCcOut {
			record := sc.NewSidechainRecord(tx, idx, height)
			if n.view.HasSidechain(record.ScId) {
				return nil, fmt.Errorf("%w: %s", ErrDuplicateSidechain, record.ScId.String_short())
			}
			if _, dup := pending[record.ScId]; dup {
				return nil, fmt.Errorf("%w: %s", ErrDuplicateSidechain, record.ScId.String_short())
			}
			pending[record.ScId] = record
			log.Debug(log.NodeMonitoring, "sidechain staged", "sc", record.ScId.String_short(),
				"epochLen", record.FixedParams.WithdrawalEpochLength)
		}
	}
	return pending, nil
}

// checkCertificateCustomFields validates the certificate's custom field
// payloads against the sidechain's declared shapes.
func checkCertificateCustomFields(record *sc.SidechainRecord, cert *types.Certificate) error {
	feConfigs := record.FixedParams.FieldElementCertFieldConfigs
	bvConfigs := record.FixedParams.BitVectorCertFieldConfigs

	if len(cert.FieldElementCertificateFields) != len(feConfigs) ||
		len(cert.BitVectorCertificateFields) != len(bvConfigs) {
		return fmt.Errorf("%w: cert %s declares %d+%d fields, sidechain expects %d+%d",
			ErrInvalidCustomFields, cert.GetHash().String_short(),
			len(cert.FieldElementCertificateFields), len(cert.BitVectorCertificateFields),
			len(feConfigs), len(bvConfigs))
	}
	for i, raw := range cert.FieldElementCertificateFields {
		if _, ok := sc.NewFieldElementCertificateField(raw).GetFieldElement(feConfigs[i]); !ok {
			return fmt.Errorf("%w: field element field %d", ErrInvalidCustomFields, i)
		}
	}
	for i, raw := range cert.BitVectorCertificateFields {
		if _, ok := sc.NewBitVectorCertificateField(raw).GetFieldElement(bvConfigs[i]); !ok {
			return fmt.Errorf("%w: bit vector field %d", ErrInvalidCustomFields, i)
		}
	}
	return nil
}

// applyCertificate installs a verified certificate as the sidechain's top
// quality view when it improves on the current one.
func (n *Node) applyCertificate(cert *types.Certificate) error {
	record, ok := n.view.GetSidechain(cert.ScId)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownSidechain, cert.ScId.String_short())
	}
	if cert.EpochNumber < record.TopCertEpoch ||
		(cert.EpochNumber == record.TopCertEpoch && cert.Quality <= record.TopCertQuality) {
		log.Debug(log.CertMonitoring, "certificate superseded", "sc", cert.ScId.String_short(),
			"epoch", cert.EpochNumber, "quality", cert.Quality)
		return nil
	}

	for _, bt := range cert.BackwardTransfers() {
		record.Balance -= bt.Value
	}
	record.TopQualityCertView = sc.ActiveCertView{
		CertDataHash:                   cert.DataHash(),
		ForwardTransferScFee:           cert.ForwardTransferScFee,
		MainchainBackwardTransferScFee: cert.MainchainBackwardTransferScFee,
	}
	record.TopQualityCertHash = cert.GetHash()
	record.TopCertEpoch = cert.EpochNumber
	record.TopCertQuality = cert.Quality
	log.Info(log.CertMonitoring, "top quality certificate updated", "sc", cert.ScId.String_short(),
		"epoch", cert.EpochNumber, "quality", cert.Quality)
	return n.view.PutSidechain(record)
}

// applyValueTransfers credits forward transfers and debits ceased
// withdrawals on sidechain balances.
func (n *Node) applyValueTransfers(tx *types.Transaction) error {
	if !tx.IsScVersion() {
		return nil
	}
	for _, ft := range tx.VftCcOut {
		record, ok := n.view.GetSidechain(ft.ScId)
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownSidechain, ft.ScId.String_short())
		}
		record.Balance += ft.Value
		if err := n.view.PutSidechain(record); err != nil {
			return err
		}
	}
	for _, csw := range tx.VcswCcIn {
		record, ok := n.view.GetSidechain(csw.ScId)
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownSidechain, csw.ScId.String_short())
		}
		record.Balance -= csw.Value
		if err := n.view.PutSidechain(record); err != nil {
			return err
		}
	}
	return nil
}

// overlayView lets payloads of a block see sidechains the same block
// creates, without touching persistent state before the block passes.
type overlayView struct {
	base    *chain.View
	pending map[common.Hash]*sc.SidechainRecord
}

func (v *overlayView) GetSidechain(scId common.Hash) (*sc.SidechainRecord, bool) {
	if record, ok := v.pending[scId]; ok {
		return record, true
	}
	return v.base.GetSidechain(scId)
}
