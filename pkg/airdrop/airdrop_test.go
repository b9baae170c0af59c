package airdrop

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BlockChain-Man/Merkle-Tree-ERC20-Airdrop/pkg/leaf"
	"github.com/BlockChain-Man/Merkle-Tree-ERC20-Airdrop/pkg/merkle"
	"github.com/BlockChain-Man/Merkle-Tree-ERC20-Airdrop/pkg/types"
)

func mustClaim(t *testing.T, account, amount string) types.Claim {
	t.Helper()
	c, err := leaf.ParseClaim(account, amount)
	require.NoError(t, err)
	return c
}

func newTestGenerator(workers int) *Generator {
	g := NewGenerator(&GeneratorConfig{Workers: workers}, zap.NewNop())
	g.now = func() time.Time { return time.Unix(1700000000, 0) }
	return g
}

// TestGenerateTwoClaims walks the two claim end-to-end scenario.
func TestGenerateTwoClaims(t *testing.T) {
	claims := []types.Claim{
		mustClaim(t, "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa0001", "100"),
		mustClaim(t, "0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb0002", "200"),
	}

	dist, err := newTestGenerator(2).Generate(context.Background(), claims)
	require.NoError(t, err)

	leaf0 := common.HexToHash("0x9fc3e9763b4ef1d03c2d0f7348a3ed95ebab18680dfdd16b47274b382fe79365")
	leaf1 := common.HexToHash("0xa9ed5be728d73fb34a923cba69ec1ef9ad15fc2ad051f13c7a7fd8443835ccf6")

	require.Equal(t, common.HexToHash("0x0f9ab543d494be4790ecd88711163e1acc3f005903dacc2d36bbba6843b17d71"), dist.Root)
	require.Equal(t, common.Hash(merkle.HashPair(leaf0, leaf1)), dist.Root)
	require.Equal(t, "300", dist.TotalAmount)
	require.Equal(t, 2, dist.ClaimCount)
	require.Equal(t, int64(1700000000), dist.CreatedAt)

	require.Equal(t, leaf0, dist.Claims[0].Leaf)
	require.Equal(t, []common.Hash{leaf1}, dist.Claims[0].Proof)
	require.Equal(t, leaf1, dist.Claims[1].Leaf)
	require.Equal(t, []common.Hash{leaf0}, dist.Claims[1].Proof)

	require.True(t, merkle.Verify(leaf0, [][32]byte{leaf1}, dist.Root))
	require.True(t, merkle.Verify(leaf1, [][32]byte{leaf0}, dist.Root))
}

// TestGenerateReferenceAllowlist checks root and proofs for a three entry allowlist.
func TestGenerateReferenceAllowlist(t *testing.T) {
	claims := []types.Claim{
		mustClaim(t, "0x5B38Da6a701c568545dCfcB03FcB875f56beddC4", "10000000000000000000"),
		mustClaim(t, "0xAb8483F64d9C6d1EcF9b849Ae677dD3315835cb2", "5000000000000000000"),
		mustClaim(t, "0x4B20993Bc481177ec7E8f571ceCaE8A9e22C02db", "1000000000000000000"),
	}

	dist, err := newTestGenerator(0).Generate(context.Background(), claims)
	require.NoError(t, err)

	require.Equal(t, common.HexToHash("0x255e019d475f2bb095482b9693e6111b2387d139631b69275913897922511600"), dist.Root)
	require.Equal(t, "16000000000000000000", dist.TotalAmount)

	expectedProofs := [][]common.Hash{
		{
			common.HexToHash("0xa5e8d2b120bc53ddc707f117a69f775e5ac32cd16211b083e4c409fe6a07717b"),
			common.HexToHash("0x7cf6e7b900f51b42247a36831f19574d4b00166e29ab19d1715ba1732e4b8301"),
		},
		{
			common.HexToHash("0xc00ee55abe91067e8bfc1b4cec7dc90478f614c3f97140336c12258c829c177f"),
			common.HexToHash("0x7cf6e7b900f51b42247a36831f19574d4b00166e29ab19d1715ba1732e4b8301"),
		},
		{
			common.HexToHash("0x1eaf23b6ffd9bd920cc539f32f665735de815fdb0dfc9943a7a57b9bd888726d"),
			common.HexToHash("0x8b58ca28fdda8dd72713e33d437617ae30874da4215bdd70aa587b5e04661ef4"),
		},
	}
	for i, entry := range dist.Claims {
		require.Equal(t, i, entry.Index)
		require.Equal(t, claims[i].Account, entry.Account)
		require.Equal(t, expectedProofs[i], entry.Proof, "claim %d", i)

		ok, err := VerifyEntry(entry, dist.Root)
		require.NoError(t, err)
		require.True(t, ok)
	}
}

func TestGenerateEmpty(t *testing.T) {
	dist, err := newTestGenerator(0).Generate(context.Background(), nil)
	require.Nil(t, dist)
	require.True(t, errors.Is(err, merkle.ErrEmptyInput))
}

func TestGenerateInvalidClaim(t *testing.T) {
	claims := []types.Claim{{Account: common.Address{1}}}
	_, err := newTestGenerator(1).Generate(context.Background(), claims)
	require.True(t, errors.Is(err, leaf.ErrInvalidAmount))
}

func TestGenerateDuplicateClaims(t *testing.T) {
	c := mustClaim(t, "0x5B38Da6a701c568545dCfcB03FcB875f56beddC4", "7")
	other := mustClaim(t, "0xAb8483F64d9C6d1EcF9b849Ae677dD3315835cb2", "9")
	claims := []types.Claim{c, other, c}

	dist, err := newTestGenerator(0).Generate(context.Background(), claims)
	require.NoError(t, err)
	require.Equal(t, "23", dist.TotalAmount)

	entries := dist.EntriesFor(c.Account)
	require.Len(t, entries, 2)
	require.Equal(t, 0, entries[0].Index)
	require.Equal(t, 2, entries[1].Index)
	require.Equal(t, entries[0].Leaf, entries[1].Leaf)
	require.NotEqual(t, entries[0].Proof, entries[1].Proof)

	for _, e := range entries {
		ok, err := VerifyEntry(e, dist.Root)
		require.NoError(t, err)
		require.True(t, ok)
	}
}

func TestGenerateDeterministicAcrossWorkerCounts(t *testing.T) {
	claims := make([]types.Claim, 53)
	for i := range claims {
		claims[i] = types.Claim{
			Account: common.BigToAddress(uint256.NewInt(uint64(i + 1)).ToBig()),
			Amount:  uint256.NewInt(uint64(1000 + i)),
		}
	}

	reference, err := newTestGenerator(1).Generate(context.Background(), claims)
	require.NoError(t, err)

	for _, workers := range []int{0, 3, 8, 64} {
		dist, err := newTestGenerator(workers).Generate(context.Background(), claims)
		require.NoError(t, err)
		assert.Equal(t, reference, dist, "workers %d", workers)
	}
}

func TestVerifyEntryRejectsTampering(t *testing.T) {
	claims := []types.Claim{
		mustClaim(t, "0x5B38Da6a701c568545dCfcB03FcB875f56beddC4", "1"),
		mustClaim(t, "0xAb8483F64d9C6d1EcF9b849Ae677dD3315835cb2", "2"),
		mustClaim(t, "0x4B20993Bc481177ec7E8f571ceCaE8A9e22C02db", "3"),
	}
	dist, err := newTestGenerator(0).Generate(context.Background(), claims)
	require.NoError(t, err)

	t.Run("amount", func(t *testing.T) {
		entry := *dist.Claims[0]
		entry.Amount = "1000"
		ok, err := VerifyEntry(&entry, dist.Root)
		require.False(t, ok)
		require.True(t, errors.Is(err, ErrLeafMismatch))
	})

	t.Run("account", func(t *testing.T) {
		entry := *dist.Claims[0]
		entry.Account = claims[1].Account
		ok, err := VerifyEntry(&entry, dist.Root)
		require.False(t, ok)
		require.True(t, errors.Is(err, ErrLeafMismatch))
	})

	t.Run("proof", func(t *testing.T) {
		entry := *dist.Claims[1]
		entry.Proof = append([]common.Hash{}, entry.Proof...)
		entry.Proof[0][0] ^= 0x01
		ok, err := VerifyEntry(&entry, dist.Root)
		require.NoError(t, err)
		require.False(t, ok)
	})

	t.Run("root", func(t *testing.T) {
		root := dist.Root
		root[31] ^= 0x80
		ok, err := VerifyEntry(dist.Claims[2], root)
		require.NoError(t, err)
		require.False(t, ok)
	})

	t.Run("nil", func(t *testing.T) {
		_, err := VerifyEntry(nil, dist.Root)
		require.Error(t, err)
	})
}

func TestGenerateCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	claims := []types.Claim{mustClaim(t, "0x5B38Da6a701c568545dCfcB03FcB875f56beddC4", "1")}
	_, err := newTestGenerator(1).Generate(ctx, claims)
	require.True(t, errors.Is(err, context.Canceled))
}
