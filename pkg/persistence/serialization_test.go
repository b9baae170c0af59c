package persistence

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BlockChain-Man/Merkle-Tree-ERC20-Airdrop/pkg/types"
)

func sampleDistribution(root byte, createdAt int64) *types.Distribution {
	return &types.Distribution{
		Root:        common.Hash{root},
		TotalAmount: "300",
		ClaimCount:  2,
		CreatedAt:   createdAt,
		Claims: []*types.ClaimEntry{
			{
				Index:   0,
				Account: common.HexToAddress("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa0001"),
				Amount:  "100",
				Leaf:    common.Hash{0x01},
				Proof:   []common.Hash{{0x02}},
			},
			{
				Index:   1,
				Account: common.HexToAddress("0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb0002"),
				Amount:  "200",
				Leaf:    common.Hash{0x02},
				Proof:   []common.Hash{{0x01}},
			},
		},
	}
}

// TestMarshalUnmarshalDistribution_RoundTrip tests JSON marshaling/unmarshaling
func TestMarshalUnmarshalDistribution_RoundTrip(t *testing.T) {
	original := sampleDistribution(0xab, 1700000000)

	data, err := MarshalDistribution(original)
	require.NoError(t, err)
	require.NotEmpty(t, data)

	restored, err := UnmarshalDistribution(data)
	require.NoError(t, err)
	assert.Equal(t, original, restored)
}

// TestMarshalDistribution_HexRendering checks roots and proofs are 0x-prefixed hex strings
func TestMarshalDistribution_HexRendering(t *testing.T) {
	data, err := MarshalDistribution(sampleDistribution(0xab, 1))
	require.NoError(t, err)

	s := string(data)
	assert.Contains(t, s, `"root":"0xab00000000000000000000000000000000000000000000000000000000000000"`)
	assert.Contains(t, s, `"proof":["0x0200000000000000000000000000000000000000000000000000000000000000"]`)
	assert.Contains(t, s, `"amount":"100"`)
}

func TestMarshalDistribution_NilInput(t *testing.T) {
	_, err := MarshalDistribution(nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nil Distribution")
}

func TestUnmarshalDistribution_InvalidJSON(t *testing.T) {
	_, err := UnmarshalDistribution([]byte(`{"root": 12}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unmarshal")
}

func TestUnmarshalDistribution_EmptyData(t *testing.T) {
	_, err := UnmarshalDistribution([]byte{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty data")
}

func TestSortDistributions(t *testing.T) {
	dists := []*types.Distribution{
		sampleDistribution(0x03, 20),
		sampleDistribution(0x02, 10),
		sampleDistribution(0x01, 20),
	}
	SortDistributions(dists)

	require.Equal(t, common.Hash{0x02}, dists[0].Root)
	require.Equal(t, common.Hash{0x01}, dists[1].Root)
	require.Equal(t, common.Hash{0x03}, dists[2].Root)
}
