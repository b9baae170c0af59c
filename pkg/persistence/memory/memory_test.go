package memory

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BlockChain-Man/Merkle-Tree-ERC20-Airdrop/pkg/persistence"
	"github.com/BlockChain-Man/Merkle-Tree-ERC20-Airdrop/pkg/persistence/persistencetest"
)

func TestMemoryPersistence(t *testing.T) {
	persistencetest.RunStoreTests(t, func(t *testing.T) persistence.IDistributionStore {
		return NewMemoryPersistence(zap.NewNop())
	})
}

func TestMemoryPersistence_NilLogger(t *testing.T) {
	mp := NewMemoryPersistence(nil)
	defer func() { _ = mp.Close() }()

	require.NoError(t, mp.HealthCheck())
}
