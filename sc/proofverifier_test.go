package sc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zendoolabs/zend/cctp"
	"github.com/zendoolabs/zend/common"
	"github.com/zendoolabs/zend/types"
)

type mockView struct {
	sidechains map[common.Hash]*SidechainRecord
}

func (v *mockView) GetSidechain(scId common.Hash) (*SidechainRecord, bool) {
	r, ok := v.sidechains[scId]
	return r, ok
}

type mockIndex struct {
	entries map[int32]*BlockIndexEntry
}

func (i *mockIndex) AtHeight(h int32) (*BlockIndexEntry, bool) {
	e, ok := i.entries[h]
	return e, ok
}

func (i *mockIndex) Tip() (*BlockIndexEntry, bool) {
	var tip *BlockIndexEntry
	for _, e := range i.entries {
		if tip == nil || e.Height > tip.Height {
			tip = e
		}
	}
	return tip, tip != nil
}

func (i *mockIndex) Height() int32 {
	tip, ok := i.Tip()
	if !ok {
		return -1
	}
	return tip.Height
}

// countingBackend records how often and with what it was invoked.
type countingBackend struct {
	calls     int
	lastCerts []CertProofVerifierInput
	lastCsws  []CswProofVerifierInput
	result    bool
	failures  []ProofFailure
}

func (b *countingBackend) Verify(certs []CertProofVerifierInput, csws []CswProofVerifierInput) (bool, []ProofFailure) {
	b.calls++
	b.lastCerts = certs
	b.lastCsws = csws
	return b.result, b.failures
}

func testSidechainSetup(t *testing.T) (*mockView, *mockIndex, *SidechainRecord, *types.Certificate) {
	t.Helper()

	vk, err := cctp.ScVKeyFromBytes([]byte{1, 2, 3})
	require.NoError(t, err)
	cswVKey, err := cctp.ScVKeyFromBytes([]byte{4, 5, 6})
	require.NoError(t, err)
	constant := cctp.FieldElementFromUint64(1001)

	record := &SidechainRecord{
		ScId:                common.HexToHash("0x0101"),
		CreationBlockHeight: 100,
		FixedParams: FixedParams{
			WithdrawalEpochLength: 10,
			Constant:              &constant,
			CertVKey:              vk,
			CswVKey:               &cswVKey,
		},
	}

	view := &mockView{sidechains: map[common.Hash]*SidechainRecord{record.ScId: record}}

	index := &mockIndex{entries: make(map[int32]*BlockIndexEntry)}
	for h := int32(99); h <= 130; h++ {
		index.entries[h] = &BlockIndexEntry{
			Height:        h,
			ScCumTreeHash: cctp.FieldElementFromUint64(uint64(h)),
		}
	}

	proof, err := cctp.ScProofFromBytes([]byte{9, 9, 9})
	require.NoError(t, err)
	cert := &types.Certificate{
		ScId:        record.ScId,
		EpochNumber: 1,
		Quality:     5,
		ScProof:     proof,
		FirstBwtPos: 0,
		Vout:        []types.TxOut{{Value: 50}},
	}
	return view, index, record, cert
}

func TestEndHeightForEpoch(t *testing.T) {
	r := &SidechainRecord{CreationBlockHeight: 100, FixedParams: FixedParams{WithdrawalEpochLength: 10}}
	assert.Equal(t, int32(109), r.EndHeightForEpoch(0))
	assert.Equal(t, int32(119), r.EndHeightForEpoch(1))
	assert.Equal(t, int32(0), r.EpochForHeight(105))
	assert.Equal(t, int32(1), r.EpochForHeight(110))
}

func TestLoadCertVerificationResolvesEpochBoundaries(t *testing.T) {
	view, index, record, cert := testSidechainSetup(t)
	backend := &countingBackend{result: true}
	pv := NewScProofVerifier(VerificationStrict, backend)

	require.NoError(t, pv.LoadDataForCertVerification(view, index, cert))
	require.Equal(t, 1, pv.PendingCerts())

	ok, failures := pv.BatchVerify()
	assert.True(t, ok)
	assert.Empty(t, failures)
	require.Len(t, backend.lastCerts, 1)

	in := backend.lastCerts[0]
	currEnd := record.EndHeightForEpoch(cert.EpochNumber)
	assert.Equal(t, cctp.FieldElementFromUint64(uint64(currEnd)), in.EndEpochCumScTxCommTreeRoot)
	assert.Equal(t, cctp.FieldElementFromUint64(uint64(currEnd-record.FixedParams.WithdrawalEpochLength)),
		in.PrevEndEpochCumScTxCommTreeRoot)
	assert.Equal(t, record.FixedParams.CertVKey, in.VKey)
	require.NotNil(t, in.Constant)
	assert.Len(t, in.BtList, 1)
}

func TestLoadCertVerificationUnknownSidechainPanics(t *testing.T) {
	view, index, _, cert := testSidechainSetup(t)
	cert.ScId = common.HexToHash("0xdead")
	pv := NewScProofVerifier(VerificationStrict, &countingBackend{})

	assert.Panics(t, func() {
		_ = pv.LoadDataForCertVerification(view, index, cert)
	})
}

func TestLoadCertVerificationMissingBoundaryPanics(t *testing.T) {
	view, index, _, cert := testSidechainSetup(t)
	cert.EpochNumber = 5 // end height 159, outside the index
	pv := NewScProofVerifier(VerificationStrict, &countingBackend{})

	assert.Panics(t, func() {
		_ = pv.LoadDataForCertVerification(view, index, cert)
	})
}

func TestCertEnqueueLastWriteWins(t *testing.T) {
	view, index, _, cert := testSidechainSetup(t)
	backend := &countingBackend{result: true}
	pv := NewScProofVerifier(VerificationStrict, backend)

	require.NoError(t, pv.LoadDataForCertVerification(view, index, cert))
	require.NoError(t, pv.LoadDataForCertVerification(view, index, cert))
	assert.Equal(t, 1, pv.PendingCerts())

	pv.BatchVerify()
	assert.Len(t, backend.lastCerts, 1)
}

func TestCswEnqueueMergesPerTransaction(t *testing.T) {
	view, _, record, _ := testSidechainSetup(t)
	backend := &countingBackend{result: true}
	pv := NewScProofVerifier(VerificationStrict, backend)

	proof, err := cctp.ScProofFromBytes([]byte{7})
	require.NoError(t, err)
	tx := &types.Transaction{
		Version: types.ScTxVersion,
		VcswCcIn: []types.CswInput{
			{Value: 10, ScId: record.ScId, ScProof: proof},
			{Value: 20, ScId: record.ScId, ScProof: proof},
		},
	}

	require.NoError(t, pv.LoadDataForCswVerification(view, tx, 0))
	require.NoError(t, pv.LoadDataForCswVerification(view, tx, 1))
	// Restaging the same input replaces, not duplicates.
	require.NoError(t, pv.LoadDataForCswVerification(view, tx, 1))
	assert.Equal(t, 2, pv.PendingCsws())

	pv.BatchVerify()
	require.Len(t, backend.lastCsws, 2)
	assert.Equal(t, int64(10), backend.lastCsws[0].Value)
	assert.Equal(t, int64(20), backend.lastCsws[1].Value)
	assert.Equal(t, *record.FixedParams.CswVKey, backend.lastCsws[0].VKey)
}

func TestCswWithoutVKey(t *testing.T) {
	view, _, record, _ := testSidechainSetup(t)
	record.FixedParams.CswVKey = nil
	pv := NewScProofVerifier(VerificationStrict, &countingBackend{})

	tx := &types.Transaction{
		Version:  types.ScTxVersion,
		VcswCcIn: []types.CswInput{{Value: 10, ScId: record.ScId}},
	}
	err := pv.LoadDataForCswVerification(view, tx, 0)
	assert.ErrorIs(t, err, ErrNoCswVKey)
	assert.Equal(t, 0, pv.PendingCsws())
}

func TestLooseModeSkipsBackend(t *testing.T) {
	view, index, _, cert := testSidechainSetup(t)
	backend := &countingBackend{result: false}
	pv := NewScProofVerifier(VerificationLoose, backend)

	require.NoError(t, pv.LoadDataForCertVerification(view, index, cert))
	ok, failures := pv.BatchVerify()
	assert.True(t, ok)
	assert.Empty(t, failures)
	assert.Equal(t, 0, backend.calls, "loose mode must never reach the backend")
	assert.Equal(t, 0, pv.PendingCerts())
}

func TestLooseModeLoadNeverReadsState(t *testing.T) {
	// During assumed-valid replay the state view may not know the
	// sidechain yet; loose loading must not look it up at all.
	emptyView := &mockView{sidechains: map[common.Hash]*SidechainRecord{}}
	emptyIndex := &mockIndex{entries: map[int32]*BlockIndexEntry{}}
	backend := &countingBackend{result: false}
	pv := NewScProofVerifier(VerificationLoose, backend)

	cert := &types.Certificate{ScId: common.HexToHash("0xdead"), EpochNumber: 3}
	require.NotPanics(t, func() {
		require.NoError(t, pv.LoadDataForCertVerification(emptyView, emptyIndex, cert))
	})
	assert.Equal(t, 0, pv.PendingCerts())

	tx := &types.Transaction{
		Version:  types.ScTxVersion,
		VcswCcIn: []types.CswInput{{Value: 1, ScId: common.HexToHash("0xdead")}},
	}
	require.NotPanics(t, func() {
		require.NoError(t, pv.LoadDataForCswVerification(emptyView, tx, 0))
	})
	assert.Equal(t, 0, pv.PendingCsws())

	ok, failures := pv.BatchVerify()
	assert.True(t, ok)
	assert.Empty(t, failures)
	assert.Equal(t, 0, backend.calls)
}

func TestBatchVerifyDrainsQueues(t *testing.T) {
	view, index, _, cert := testSidechainSetup(t)
	backend := &countingBackend{result: false, failures: []ProofFailure{{CertHash: cert.GetHash(), Code: cctp.ErrorCodeProofVerificationFailure}}}
	pv := NewScProofVerifier(VerificationStrict, backend)

	require.NoError(t, pv.LoadDataForCertVerification(view, index, cert))
	ok, failures := pv.BatchVerify()
	assert.False(t, ok)
	assert.Len(t, failures, 1)

	// Drained even on failure.
	assert.Equal(t, 0, pv.PendingCerts())
	ok, _ = pv.BatchVerify()
	assert.True(t, ok || len(backend.lastCerts) == 0)
	assert.Empty(t, backend.lastCerts)
}
