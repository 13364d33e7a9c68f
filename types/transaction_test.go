package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zendoolabs/zend/cctp"
	"github.com/zendoolabs/zend/common"
)

func TestTransactionVersions(t *testing.T) {
	scTx := Transaction{Version: ScTxVersion}
	assert.True(t, scTx.IsScVersion())

	plain := Transaction{Version: 1}
	assert.False(t, plain.IsScVersion())
	assert.False(t, plain.HasScOutputs())
}

func TestTransactionHashChangesWithContent(t *testing.T) {
	tx := Transaction{
		Version: ScTxVersion,
		VftCcOut: []ForwardTransferOut{{
			Value:      100,
			PubKeyHash: common.HexToAddress("0x0102030405060708090a0b0c0d0e0f1011121314"),
			ScId:       common.HexToHash("0xaa"),
		}},
	}
	h1 := tx.GetHash()

	tx.VftCcOut[0].Value = 101
	h2 := tx.GetHash()
	assert.NotEqual(t, h1, h2)
}

func TestScIdForCreationOutput(t *testing.T) {
	tx := Transaction{
		Version: ScTxVersion,
		VscCcOut: []ScCreationOut{
			{Value: 10, WithdrawalEpochLength: 100},
			{Value: 20, WithdrawalEpochLength: 200},
		},
	}
	id0 := tx.ScIdForCreationOutput(0)
	id1 := tx.ScIdForCreationOutput(1)
	assert.NotEqual(t, id0, id1)
	assert.False(t, id0.IsZero())

	// Deterministic for the same transaction.
	assert.Equal(t, id0, tx.ScIdForCreationOutput(0))
}

func TestCertificateHashFieldBoundaries(t *testing.T) {
	// Splitting the same bytes across custom fields must change the hash.
	a := Certificate{FieldElementCertificateFields: [][]byte{{0x01, 0x02}}}
	b := Certificate{FieldElementCertificateFields: [][]byte{{0x01}, {0x02}}}
	assert.NotEqual(t, a.GetHash(), b.GetHash())
	assert.False(t, a.DataHash().Equal(b.DataHash()))

	// Bytes moving between field kinds must change the hash too.
	c := Certificate{BitVectorCertificateFields: [][]byte{{0x01, 0x02}}}
	assert.NotEqual(t, a.GetHash(), c.GetHash())
}

func TestTransactionHashFieldBoundaries(t *testing.T) {
	fe := cctp.FieldElementFromUint64(7)
	feBytes := fe.Serialize()

	// The same bytes as custom data or as the optional constant must
	// hash differently.
	a := Transaction{
		Version:  ScTxVersion,
		VscCcOut: []ScCreationOut{{CustomData: feBytes}},
	}
	b := Transaction{
		Version:  ScTxVersion,
		VscCcOut: []ScCreationOut{{Constant: &fe}},
	}
	assert.NotEqual(t, a.GetHash(), b.GetHash())

	// Splitting request data across elements must change the hash.
	scId := common.HexToHash("0x21")
	one := Transaction{
		Version: ScTxVersion,
		VbwtRequestOut: []BwtRequestOut{
			{ScId: scId, RequestData: []cctp.FieldElement{fe, fe}},
		},
	}
	two := Transaction{
		Version: ScTxVersion,
		VbwtRequestOut: []BwtRequestOut{
			{ScId: scId, RequestData: []cctp.FieldElement{fe}},
			{ScId: scId, RequestData: []cctp.FieldElement{fe}},
		},
	}
	assert.NotEqual(t, one.GetHash(), two.GetHash())
}

func TestCertificateBackwardTransfers(t *testing.T) {
	cert := Certificate{
		FirstBwtPos: 1,
		Vout: []TxOut{
			{Value: 5},
			{Value: 10},
			{Value: 15},
		},
	}
	bts := cert.BackwardTransfers()
	require.Len(t, bts, 2)
	assert.Equal(t, int64(10), bts[0].Value)

	cert.FirstBwtPos = 3
	assert.Nil(t, cert.BackwardTransfers())
}

func TestCertificateDataHashExcludesProof(t *testing.T) {
	proof, err := cctp.ScProofFromBytes([]byte{1, 2, 3, 4})
	require.NoError(t, err)

	cert := Certificate{EpochNumber: 2, Quality: 7}
	base := cert.DataHash()
	baseFull := cert.GetHash()

	cert.ScProof = proof
	assert.True(t, base.Equal(cert.DataHash()), "data hash must not cover the proof")
	assert.NotEqual(t, baseFull, cert.GetHash(), "full hash must cover the proof")
}

func TestBlockHeaderHash(t *testing.T) {
	h := BlockHeader{Height: 5, Time: 1000}
	h1 := h.GetHash()
	h.ScTxsCommitment = common.HexToHash("0x01")
	assert.NotEqual(t, h1, h.GetHash())
}
