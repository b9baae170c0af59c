// Package persistencetest holds behaviour tests shared by every IDistributionStore backend.
package persistencetest

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BlockChain-Man/Merkle-Tree-ERC20-Airdrop/pkg/persistence"
	"github.com/BlockChain-Man/Merkle-Tree-ERC20-Airdrop/pkg/types"
)

// StoreFactory returns a fresh, empty store. The suite closes it.
type StoreFactory func(t *testing.T) persistence.IDistributionStore

// NewDistribution builds a small distribution with a distinct root.
func NewDistribution(root byte, createdAt int64) *types.Distribution {
	return &types.Distribution{
		Root:        common.Hash{root, 0xee},
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

// RunStoreTests exercises the full IDistributionStore contract.
func RunStoreTests(t *testing.T, newStore StoreFactory) {
	t.Run("SaveAndLoad", func(t *testing.T) {
		store := newStore(t)
		defer func() { _ = store.Close() }()

		dist := NewDistribution(0x10, 1700000000)
		require.NoError(t, store.SaveDistribution(dist))

		loaded, err := store.LoadDistribution(dist.Root)
		require.NoError(t, err)
		require.NotNil(t, loaded)
		assert.Equal(t, dist, loaded)
	})

	t.Run("LoadNotFound", func(t *testing.T) {
		store := newStore(t)
		defer func() { _ = store.Close() }()

		loaded, err := store.LoadDistribution(common.Hash{0x99})
		require.NoError(t, err)
		assert.Nil(t, loaded)
	})

	t.Run("SaveNil", func(t *testing.T) {
		store := newStore(t)
		defer func() { _ = store.Close() }()

		require.Error(t, store.SaveDistribution(nil))
	})

	t.Run("SaveOverwrites", func(t *testing.T) {
		store := newStore(t)
		defer func() { _ = store.Close() }()

		dist := NewDistribution(0x11, 1)
		require.NoError(t, store.SaveDistribution(dist))

		updated := NewDistribution(0x11, 2)
		updated.TotalAmount = "999"
		require.NoError(t, store.SaveDistribution(updated))

		loaded, err := store.LoadDistribution(dist.Root)
		require.NoError(t, err)
		assert.Equal(t, "999", loaded.TotalAmount)

		all, err := store.ListDistributions()
		require.NoError(t, err)
		assert.Len(t, all, 1)
	})

	t.Run("List", func(t *testing.T) {
		store := newStore(t)
		defer func() { _ = store.Close() }()

		empty, err := store.ListDistributions()
		require.NoError(t, err)
		assert.Empty(t, empty)

		require.NoError(t, store.SaveDistribution(NewDistribution(0x30, 300)))
		require.NoError(t, store.SaveDistribution(NewDistribution(0x20, 100)))
		require.NoError(t, store.SaveDistribution(NewDistribution(0x25, 300)))

		all, err := store.ListDistributions()
		require.NoError(t, err)
		require.Len(t, all, 3)
		assert.Equal(t, NewDistribution(0x20, 100).Root, all[0].Root)
		assert.Equal(t, NewDistribution(0x25, 300).Root, all[1].Root)
		assert.Equal(t, NewDistribution(0x30, 300).Root, all[2].Root)
	})

	t.Run("Delete", func(t *testing.T) {
		store := newStore(t)
		defer func() { _ = store.Close() }()

		dist := NewDistribution(0x40, 1)
		require.NoError(t, store.SaveDistribution(dist))
		require.NoError(t, store.DeleteDistribution(dist.Root))

		loaded, err := store.LoadDistribution(dist.Root)
		require.NoError(t, err)
		assert.Nil(t, loaded)

		all, err := store.ListDistributions()
		require.NoError(t, err)
		assert.Empty(t, all)

		// Idempotent
		require.NoError(t, store.DeleteDistribution(dist.Root))
	})

	t.Run("ActiveRoot", func(t *testing.T) {
		store := newStore(t)
		defer func() { _ = store.Close() }()

		root, err := store.GetActiveRoot()
		require.NoError(t, err)
		assert.Equal(t, common.Hash{}, root)

		expected := NewDistribution(0x50, 1).Root
		require.NoError(t, store.SetActiveRoot(expected))

		root, err = store.GetActiveRoot()
		require.NoError(t, err)
		assert.Equal(t, expected, root)

		require.NoError(t, store.SetActiveRoot(common.Hash{}))
		root, err = store.GetActiveRoot()
		require.NoError(t, err)
		assert.Equal(t, common.Hash{}, root)
	})

	t.Run("ReturnedCopiesAreIndependent", func(t *testing.T) {
		store := newStore(t)
		defer func() { _ = store.Close() }()

		dist := NewDistribution(0x60, 1)
		require.NoError(t, store.SaveDistribution(dist))
		dist.Claims[0].Amount = "mutated"

		loaded, err := store.LoadDistribution(dist.Root)
		require.NoError(t, err)
		assert.Equal(t, "100", loaded.Claims[0].Amount)

		loaded.Claims[1].Proof[0] = common.Hash{0xff}
		again, err := store.LoadDistribution(dist.Root)
		require.NoError(t, err)
		assert.Equal(t, common.Hash{0x01}, again.Claims[1].Proof[0])
	})

	t.Run("HealthCheck", func(t *testing.T) {
		store := newStore(t)
		defer func() { _ = store.Close() }()

		require.NoError(t, store.HealthCheck())
	})

	t.Run("Close", func(t *testing.T) {
		store := newStore(t)

		require.NoError(t, store.Close())
		// Idempotent
		require.NoError(t, store.Close())

		err := store.SaveDistribution(NewDistribution(0x70, 1))
		assert.True(t, errors.Is(err, persistence.ErrClosed))
		_, err = store.LoadDistribution(common.Hash{})
		assert.True(t, errors.Is(err, persistence.ErrClosed))
		_, err = store.ListDistributions()
		assert.True(t, errors.Is(err, persistence.ErrClosed))
		assert.True(t, errors.Is(store.DeleteDistribution(common.Hash{}), persistence.ErrClosed))
		assert.True(t, errors.Is(store.SetActiveRoot(common.Hash{}), persistence.ErrClosed))
		_, err = store.GetActiveRoot()
		assert.True(t, errors.Is(err, persistence.ErrClosed))
		assert.True(t, errors.Is(store.HealthCheck(), persistence.ErrClosed))
	})

	t.Run("ConcurrentAccess", func(t *testing.T) {
		store := newStore(t)
		defer func() { _ = store.Close() }()

		const workers = 10
		var wg sync.WaitGroup
		errs := make(chan error, workers*2)

		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func(idx int) {
				defer wg.Done()
				dist := NewDistribution(byte(0x80+idx), int64(idx))
				if err := store.SaveDistribution(dist); err != nil {
					errs <- err
					return
				}
				loaded, err := store.LoadDistribution(dist.Root)
				if err != nil {
					errs <- err
					return
				}
				if loaded == nil {
					errs <- fmt.Errorf("distribution %d not found after save", idx)
				}
			}(i)
		}
		wg.Wait()
		close(errs)

		for err := range errs {
			require.NoError(t, err)
		}

		all, err := store.ListDistributions()
		require.NoError(t, err)
		assert.Len(t, all, workers)
	})
}
