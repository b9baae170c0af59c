package badger

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	badgerdb "github.com/dgraph-io/badger/v3"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/BlockChain-Man/Merkle-Tree-ERC20-Airdrop/pkg/persistence"
	"github.com/BlockChain-Man/Merkle-Tree-ERC20-Airdrop/pkg/types"
)

// Key prefixes for namespacing
const (
	keyPrefixDistribution = "distribution:"
	keyActiveRoot         = "active:root"
	keySchemaVersion      = "metadata:schema_version"
	currentSchemaVersion  = "v1"
)

// BadgerPersistence is a disk-backed IDistributionStore using Badger.
type BadgerPersistence struct {
	db       *badgerdb.DB
	logger   *zap.Logger
	gcCancel context.CancelFunc
	gcWg     sync.WaitGroup
	mu       sync.RWMutex
	closed   bool
}

var _ persistence.IDistributionStore = (*BadgerPersistence)(nil)

// NewBadgerPersistence opens (or creates) a Badger database at dataPath.
// SyncWrites is enabled for durability and a background goroutine runs value log GC.
func NewBadgerPersistence(dataPath string, logger *zap.Logger) (*BadgerPersistence, error) {
	absPath, err := filepath.Abs(dataPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve absolute path: %w", err)
	}

	opts := badgerdb.DefaultOptions(absPath)
	opts.Logger = &badgerLoggerAdapter{logger: logger}
	opts.SyncWrites = true
	opts.CompactL0OnClose = true
	opts.NumVersionsToKeep = 1

	db, err := badgerdb.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger database at %s: %w", absPath, err)
	}

	bp := &BadgerPersistence{
		db:     db,
		logger: logger,
	}

	if err := bp.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	bp.gcCancel = cancel
	bp.gcWg.Add(1)
	go bp.runGC(ctx)

	logger.Sugar().Infow("Badger persistence initialized", "path", absPath)

	return bp, nil
}

// initSchema initializes or validates the schema version
func (b *BadgerPersistence) initSchema() error {
	return b.db.Update(func(txn *badgerdb.Txn) error {
		item, err := txn.Get([]byte(keySchemaVersion))
		if errors.Is(err, badgerdb.ErrKeyNotFound) {
			return txn.Set([]byte(keySchemaVersion), []byte(currentSchemaVersion))
		}
		if err != nil {
			return fmt.Errorf("failed to read schema version: %w", err)
		}

		var existingVersion string
		err = item.Value(func(val []byte) error {
			existingVersion = string(val)
			return nil
		})
		if err != nil {
			return fmt.Errorf("failed to read schema version value: %w", err)
		}

		if existingVersion != currentSchemaVersion {
			return fmt.Errorf("unsupported schema version: %s (expected: %s)", existingVersion, currentSchemaVersion)
		}

		return nil
	})
}

// runGC runs periodic value log garbage collection in the background
func (b *BadgerPersistence) runGC(ctx context.Context) {
	defer b.gcWg.Done()

	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			err := b.db.RunValueLogGC(0.5)
			if err != nil && !errors.Is(err, badgerdb.ErrNoRewrite) {
				b.logger.Sugar().Warnw("Badger GC error", "error", err)
			}
		case <-ctx.Done():
			return
		}
	}
}

func distributionKey(root common.Hash) []byte {
	return []byte(keyPrefixDistribution + root.Hex())
}

// get copies the value stored at key, returning nil if absent
func (b *BadgerPersistence) get(key []byte) ([]byte, error) {
	var data []byte
	err := b.db.View(func(txn *badgerdb.Txn) error {
		item, err := txn.Get(key)
		if errors.Is(err, badgerdb.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	return data, err
}

// SaveDistribution persists a distribution under its root
func (b *BadgerPersistence) SaveDistribution(dist *types.Distribution) error {
	if dist == nil {
		return fmt.Errorf("cannot save nil Distribution")
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return persistence.ErrClosed
	}

	data, err := persistence.MarshalDistribution(dist)
	if err != nil {
		return fmt.Errorf("failed to marshal Distribution: %w", err)
	}

	return b.db.Update(func(txn *badgerdb.Txn) error {
		return txn.Set(distributionKey(dist.Root), data)
	})
}

// LoadDistribution retrieves a distribution by root
func (b *BadgerPersistence) LoadDistribution(root common.Hash) (*types.Distribution, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return nil, persistence.ErrClosed
	}

	data, err := b.get(distributionKey(root))
	if err != nil {
		return nil, fmt.Errorf("failed to load Distribution: %w", err)
	}
	if data == nil {
		return nil, nil // Not found
	}

	dist, err := persistence.UnmarshalDistribution(data)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal Distribution: %w", err)
	}

	return dist, nil
}

// ListDistributions returns all distributions sorted by creation time
func (b *BadgerPersistence) ListDistributions() ([]*types.Distribution, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return nil, persistence.ErrClosed
	}

	dists := make([]*types.Distribution, 0)

	err := b.db.View(func(txn *badgerdb.Txn) error {
		opts := badgerdb.DefaultIteratorOptions
		opts.Prefix = []byte(keyPrefixDistribution)

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()

			data, err := item.ValueCopy(nil)
			if err != nil {
				return fmt.Errorf("failed to read value: %w", err)
			}

			dist, err := persistence.UnmarshalDistribution(data)
			if err != nil {
				b.logger.Sugar().Warnw("Failed to unmarshal Distribution, skipping",
					"key", string(item.Key()), "error", err)
				continue
			}

			dists = append(dists, dist)
		}

		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("failed to list Distributions: %w", err)
	}

	persistence.SortDistributions(dists)
	return dists, nil
}

// DeleteDistribution removes a distribution
func (b *BadgerPersistence) DeleteDistribution(root common.Hash) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return persistence.ErrClosed
	}

	return b.db.Update(func(txn *badgerdb.Txn) error {
		return txn.Delete(distributionKey(root))
	})
}

// SetActiveRoot stores the active root
func (b *BadgerPersistence) SetActiveRoot(root common.Hash) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return persistence.ErrClosed
	}

	return b.db.Update(func(txn *badgerdb.Txn) error {
		return txn.Set([]byte(keyActiveRoot), root.Bytes())
	})
}

// GetActiveRoot retrieves the active root
func (b *BadgerPersistence) GetActiveRoot() (common.Hash, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return common.Hash{}, persistence.ErrClosed
	}

	data, err := b.get([]byte(keyActiveRoot))
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to get active root: %w", err)
	}
	if data == nil {
		return common.Hash{}, nil // No active root set yet
	}
	if len(data) != common.HashLength {
		return common.Hash{}, fmt.Errorf("invalid active root data length: %d", len(data))
	}

	return common.BytesToHash(data), nil
}

// Close shuts down the persistence layer
func (b *BadgerPersistence) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil // Already closed, idempotent
	}
	b.closed = true
	b.mu.Unlock()

	if b.gcCancel != nil {
		b.gcCancel()
	}
	b.gcWg.Wait()

	if err := b.db.Close(); err != nil {
		return fmt.Errorf("failed to close badger database: %w", err)
	}

	b.logger.Sugar().Info("Badger persistence closed")
	return nil
}

// HealthCheck verifies the persistence layer is operational
func (b *BadgerPersistence) HealthCheck() error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return persistence.ErrClosed
	}

	return b.db.View(func(txn *badgerdb.Txn) error {
		_, err := txn.Get([]byte(keySchemaVersion))
		if errors.Is(err, badgerdb.ErrKeyNotFound) {
			return fmt.Errorf("schema version not found - database may be corrupted")
		}
		return err
	})
}
