package main

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/BlockChain-Man/Merkle-Tree-ERC20-Airdrop/pkg/config"
	"github.com/BlockChain-Man/Merkle-Tree-ERC20-Airdrop/pkg/persistence"
	"github.com/BlockChain-Man/Merkle-Tree-ERC20-Airdrop/pkg/persistence/badger"
	"github.com/BlockChain-Man/Merkle-Tree-ERC20-Airdrop/pkg/persistence/memory"
	"github.com/BlockChain-Man/Merkle-Tree-ERC20-Airdrop/pkg/persistence/redis"
)

// newStore opens the distribution store selected by the persistence config
func newStore(cfg *config.PersistenceConfig, l *zap.Logger) (persistence.IDistributionStore, error) {
	switch cfg.Type {
	case config.PersistenceTypeMemory:
		return memory.NewMemoryPersistence(l), nil
	case config.PersistenceTypeBadger:
		store, err := badger.NewBadgerPersistence(cfg.DataDir, l)
		if err != nil {
			return nil, fmt.Errorf("failed to open badger store: %w", err)
		}
		return store, nil
	case config.PersistenceTypeRedis:
		store, err := redis.NewRedisPersistence(&redis.RedisConfig{
			Address:   cfg.RedisAddress,
			Password:  cfg.RedisPassword,
			DB:        cfg.RedisDB,
			KeyPrefix: cfg.RedisKeyPrefix,
		}, l)
		if err != nil {
			return nil, fmt.Errorf("failed to open redis store: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unsupported persistence type %q (supported: %s)",
			cfg.Type, config.GetSupportedPersistenceTypesString())
	}
}
