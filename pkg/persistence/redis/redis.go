package redis

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/BlockChain-Man/Merkle-Tree-ERC20-Airdrop/pkg/persistence"
	"github.com/BlockChain-Man/Merkle-Tree-ERC20-Airdrop/pkg/types"
)

// Key prefixes for namespacing in Redis
const (
	keyPrefixDistribution = "airdrop:distribution:"
	keyActiveRoot         = "airdrop:active:root"
	keySchemaVersion      = "airdrop:metadata:schema_version"
	currentSchemaVersion  = "v1"

	// Key set for listing operations (Redis doesn't support prefix iteration natively)
	keySetDistributions = "airdrop:distributions:index"

	operationTimeout = 5 * time.Second
)

// RedisPersistence is an IDistributionStore backed by Redis, suitable for
// sharing distributions between the generator and a claim API.
type RedisPersistence struct {
	client    *redis.Client
	logger    *zap.Logger
	keyPrefix string // Custom prefix for all keys
	mu        sync.RWMutex
	closed    bool
}

var _ persistence.IDistributionStore = (*RedisPersistence)(nil)

// RedisConfig holds the configuration for connecting to Redis
type RedisConfig struct {
	// Address is the Redis server address (host:port)
	Address string
	// Password is the optional Redis password
	Password string
	// DB is the Redis database number (0-15)
	DB int
	// KeyPrefix is an optional custom prefix for all keys, e.g. "myapp:" results
	// in keys like "myapp:airdrop:distribution:0x...".
	KeyPrefix string
}

// NewRedisPersistence connects to Redis and validates the schema version.
func NewRedisPersistence(cfg *RedisConfig, logger *zap.Logger) (*RedisPersistence, error) {
	if cfg == nil {
		return nil, fmt.Errorf("redis config cannot be nil")
	}

	if cfg.Address == "" {
		return nil, fmt.Errorf("redis address cannot be empty")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), operationTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.Address, err)
	}

	rp := &RedisPersistence{
		client:    client,
		logger:    logger,
		keyPrefix: cfg.KeyPrefix,
	}

	if err := rp.initSchema(ctx); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	logger.Sugar().Infow("Redis persistence initialized", "address", cfg.Address, "db", cfg.DB, "key_prefix", cfg.KeyPrefix)

	return rp, nil
}

// prefixKey adds the custom key prefix (if configured) to a key
func (r *RedisPersistence) prefixKey(key string) string {
	if r.keyPrefix == "" {
		return key
	}
	return r.keyPrefix + key
}

func (r *RedisPersistence) distributionKey(root string) string {
	return r.prefixKey(keyPrefixDistribution + root)
}

// initSchema initializes or validates the schema version
func (r *RedisPersistence) initSchema(ctx context.Context) error {
	schemaKey := r.prefixKey(keySchemaVersion)

	existingVersion, err := r.client.Get(ctx, schemaKey).Result()
	if errors.Is(err, redis.Nil) {
		return r.client.Set(ctx, schemaKey, currentSchemaVersion, 0).Err()
	}
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	if existingVersion != currentSchemaVersion {
		return fmt.Errorf("unsupported schema version: %s (expected: %s)", existingVersion, currentSchemaVersion)
	}

	return nil
}

// SaveDistribution persists a distribution and records its root in the index set
func (r *RedisPersistence) SaveDistribution(dist *types.Distribution) error {
	if dist == nil {
		return fmt.Errorf("cannot save nil Distribution")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return persistence.ErrClosed
	}

	data, err := persistence.MarshalDistribution(dist)
	if err != nil {
		return fmt.Errorf("failed to marshal Distribution: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), operationTimeout)
	defer cancel()

	root := dist.Root.Hex()
	pipe := r.client.TxPipeline()
	pipe.Set(ctx, r.distributionKey(root), data, 0)
	pipe.SAdd(ctx, r.prefixKey(keySetDistributions), root)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save Distribution: %w", err)
	}

	return nil
}

// LoadDistribution retrieves a distribution by root
func (r *RedisPersistence) LoadDistribution(root common.Hash) (*types.Distribution, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return nil, persistence.ErrClosed
	}

	ctx, cancel := context.WithTimeout(context.Background(), operationTimeout)
	defer cancel()

	data, err := r.client.Get(ctx, r.distributionKey(root.Hex())).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil // Not found is not an error
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load Distribution: %w", err)
	}

	dist, err := persistence.UnmarshalDistribution(data)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal Distribution: %w", err)
	}

	return dist, nil
}

// ListDistributions returns all distributions sorted by creation time
func (r *RedisPersistence) ListDistributions() ([]*types.Distribution, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return nil, persistence.ErrClosed
	}

	ctx, cancel := context.WithTimeout(context.Background(), operationTimeout)
	defer cancel()

	indexKey := r.prefixKey(keySetDistributions)

	roots, err := r.client.SMembers(ctx, indexKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list Distribution roots: %w", err)
	}

	dists := make([]*types.Distribution, 0, len(roots))
	if len(roots) == 0 {
		return dists, nil
	}

	keys := make([]string, len(roots))
	for i, root := range roots {
		keys[i] = r.distributionKey(root)
	}

	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch Distributions: %w", err)
	}

	for i, val := range values {
		if val == nil {
			// Key was in index but doesn't exist - clean up index
			r.client.SRem(ctx, indexKey, roots[i])
			continue
		}

		data, ok := val.(string)
		if !ok {
			r.logger.Sugar().Warnw("Unexpected value type for Distribution", "key", keys[i])
			continue
		}

		dist, err := persistence.UnmarshalDistribution([]byte(data))
		if err != nil {
			r.logger.Sugar().Warnw("Failed to unmarshal Distribution, skipping",
				"key", keys[i], "error", err)
			continue
		}

		dists = append(dists, dist)
	}

	persistence.SortDistributions(dists)
	return dists, nil
}

// DeleteDistribution removes a distribution and its index entry
func (r *RedisPersistence) DeleteDistribution(root common.Hash) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return persistence.ErrClosed
	}

	ctx, cancel := context.WithTimeout(context.Background(), operationTimeout)
	defer cancel()

	pipe := r.client.TxPipeline()
	pipe.Del(ctx, r.distributionKey(root.Hex()))
	pipe.SRem(ctx, r.prefixKey(keySetDistributions), root.Hex())

	_, err := pipe.Exec(ctx)
	return err
}

// SetActiveRoot stores the active root
func (r *RedisPersistence) SetActiveRoot(root common.Hash) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return persistence.ErrClosed
	}

	ctx, cancel := context.WithTimeout(context.Background(), operationTimeout)
	defer cancel()

	return r.client.Set(ctx, r.prefixKey(keyActiveRoot), root.Bytes(), 0).Err()
}

// GetActiveRoot retrieves the active root
func (r *RedisPersistence) GetActiveRoot() (common.Hash, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return common.Hash{}, persistence.ErrClosed
	}

	ctx, cancel := context.WithTimeout(context.Background(), operationTimeout)
	defer cancel()

	data, err := r.client.Get(ctx, r.prefixKey(keyActiveRoot)).Bytes()
	if errors.Is(err, redis.Nil) {
		return common.Hash{}, nil // No active root set yet
	}
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to get active root: %w", err)
	}

	if len(data) != common.HashLength {
		return common.Hash{}, fmt.Errorf("invalid active root data length: %d", len(data))
	}

	return common.BytesToHash(data), nil
}

// Close closes the Redis client
func (r *RedisPersistence) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil // Already closed, idempotent
	}
	r.closed = true
	r.mu.Unlock()

	if err := r.client.Close(); err != nil {
		return fmt.Errorf("failed to close Redis client: %w", err)
	}

	r.logger.Sugar().Info("Redis persistence closed")
	return nil
}

// HealthCheck verifies the persistence layer is operational
func (r *RedisPersistence) HealthCheck() error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return persistence.ErrClosed
	}

	ctx, cancel := context.WithTimeout(context.Background(), operationTimeout)
	defer cancel()

	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis health check failed: %w", err)
	}

	_, err := r.client.Get(ctx, r.prefixKey(keySchemaVersion)).Result()
	if errors.Is(err, redis.Nil) {
		return fmt.Errorf("schema version not found - database may not be properly initialized")
	}
	if err != nil {
		return fmt.Errorf("failed to verify schema version: %w", err)
	}

	return nil
}
