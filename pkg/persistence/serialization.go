package persistence

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/BlockChain-Man/Merkle-Tree-ERC20-Airdrop/pkg/types"
)

// ErrClosed is returned by every store operation after Close
var ErrClosed = errors.New("persistence layer is closed")

// MarshalDistribution serializes a Distribution to JSON bytes.
func MarshalDistribution(dist *types.Distribution) ([]byte, error) {
	if dist == nil {
		return nil, fmt.Errorf("cannot marshal nil Distribution")
	}

	data, err := json.Marshal(dist)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal Distribution to JSON: %w", err)
	}

	return data, nil
}

// UnmarshalDistribution deserializes a Distribution from JSON bytes.
func UnmarshalDistribution(data []byte) (*types.Distribution, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("cannot unmarshal empty data")
	}

	var dist types.Distribution
	if err := json.Unmarshal(data, &dist); err != nil {
		return nil, fmt.Errorf("failed to unmarshal JSON to Distribution: %w", err)
	}

	return &dist, nil
}

// SortDistributions orders distributions by CreatedAt, then root.
func SortDistributions(dists []*types.Distribution) {
	sort.Slice(dists, func(i, j int) bool {
		if dists[i].CreatedAt != dists[j].CreatedAt {
			return dists[i].CreatedAt < dists[j].CreatedAt
		}
		return bytes.Compare(dists[i].Root[:], dists[j].Root[:]) < 0
	})
}
