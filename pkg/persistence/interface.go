package persistence

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/BlockChain-Man/Merkle-Tree-ERC20-Airdrop/pkg/types"
)

// IDistributionStore persists generated airdrop distributions keyed by merkle root.
// All implementations must be thread-safe.
//
// The interface supports:
// - Distribution storage (save, load, list, delete)
// - Active root tracking (which distribution is currently published)
// - Lifecycle management (close, health check)
type IDistributionStore interface {
	// Distribution Management

	// SaveDistribution persists a distribution under its root.
	// Saving the same root twice overwrites the earlier copy.
	SaveDistribution(dist *types.Distribution) error

	// LoadDistribution retrieves a distribution by root.
	// Returns nil if it doesn't exist, error only on storage failure.
	LoadDistribution(root common.Hash) (*types.Distribution, error)

	// ListDistributions returns all distributions sorted by CreatedAt (ascending),
	// ties broken by root. Returns an empty slice if none exist.
	ListDistributions() ([]*types.Distribution, error)

	// DeleteDistribution removes a distribution.
	// Idempotent - returns nil if it doesn't exist.
	DeleteDistribution(root common.Hash) error

	// Active Root Tracking

	// SetActiveRoot records which root is currently published on-chain.
	// Setting the zero hash clears it.
	SetActiveRoot(root common.Hash) error

	// GetActiveRoot returns the active root, or the zero hash if none is set.
	GetActiveRoot() (common.Hash, error)

	// Lifecycle Management

	// Close cleanly shuts down the store.
	// Idempotent - safe to call multiple times.
	// After Close(), all other operations return errors.
	Close() error

	// HealthCheck verifies the store is operational.
	HealthCheck() error
}
