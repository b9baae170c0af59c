package memory

import (
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/BlockChain-Man/Merkle-Tree-ERC20-Airdrop/pkg/persistence"
	"github.com/BlockChain-Man/Merkle-Tree-ERC20-Airdrop/pkg/types"
)

// MemoryPersistence is an in-memory implementation of IDistributionStore.
// Intended for tests and dry runs: everything is lost when the process exits.
//
// Thread-safe using sync.RWMutex for concurrent access.
// Deep copies data to prevent external mutation.
type MemoryPersistence struct {
	mu sync.RWMutex

	// Distribution storage: root -> Distribution
	distributions map[common.Hash]*types.Distribution

	activeRoot common.Hash

	closed bool
}

// NewMemoryPersistence creates a new in-memory store.
// Logs a warning since nothing is persisted across runs.
func NewMemoryPersistence(logger *zap.Logger) *MemoryPersistence {
	if logger != nil {
		logger.Sugar().Warnw("Using in-memory persistence - distributions will be lost on exit",
			"hint", "set AIRDROP_PERSISTENCE_TYPE=badger to keep them")
	}

	return &MemoryPersistence{
		distributions: make(map[common.Hash]*types.Distribution),
	}
}

var _ persistence.IDistributionStore = (*MemoryPersistence)(nil)

// SaveDistribution persists a distribution under its root.
func (m *MemoryPersistence) SaveDistribution(dist *types.Distribution) error {
	if dist == nil {
		return fmt.Errorf("cannot save nil Distribution")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return persistence.ErrClosed
	}

	m.distributions[dist.Root] = deepCopyDistribution(dist)
	return nil
}

// LoadDistribution retrieves a distribution by root.
func (m *MemoryPersistence) LoadDistribution(root common.Hash) (*types.Distribution, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, persistence.ErrClosed
	}

	dist, exists := m.distributions[root]
	if !exists {
		return nil, nil // Not found is not an error
	}

	return deepCopyDistribution(dist), nil
}

// ListDistributions returns all distributions sorted by creation time.
func (m *MemoryPersistence) ListDistributions() ([]*types.Distribution, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, persistence.ErrClosed
	}

	result := make([]*types.Distribution, 0, len(m.distributions))
	for _, dist := range m.distributions {
		result = append(result, deepCopyDistribution(dist))
	}
	persistence.SortDistributions(result)

	return result, nil
}

// DeleteDistribution removes a distribution.
func (m *MemoryPersistence) DeleteDistribution(root common.Hash) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return persistence.ErrClosed
	}

	delete(m.distributions, root)
	return nil
}

// SetActiveRoot stores the active root.
func (m *MemoryPersistence) SetActiveRoot(root common.Hash) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return persistence.ErrClosed
	}

	m.activeRoot = root
	return nil
}

// GetActiveRoot returns the active root.
func (m *MemoryPersistence) GetActiveRoot() (common.Hash, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return common.Hash{}, persistence.ErrClosed
	}

	return m.activeRoot, nil
}

// Close marks the store as closed.
func (m *MemoryPersistence) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	return nil
}

// HealthCheck always succeeds unless closed.
func (m *MemoryPersistence) HealthCheck() error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return persistence.ErrClosed
	}
	return nil
}

func deepCopyDistribution(d *types.Distribution) *types.Distribution {
	claims := make([]*types.ClaimEntry, len(d.Claims))
	for i, c := range d.Claims {
		if c == nil {
			continue
		}
		entryCopy := *c
		if c.Proof != nil {
			entryCopy.Proof = make([]common.Hash, len(c.Proof))
			copy(entryCopy.Proof, c.Proof)
		}
		claims[i] = &entryCopy
	}

	return &types.Distribution{
		Root:        d.Root,
		TotalAmount: d.TotalAmount,
		ClaimCount:  d.ClaimCount,
		CreatedAt:   d.CreatedAt,
		Claims:      claims,
	}
}
