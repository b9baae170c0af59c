// Package airdrop turns an allowlist of claims into a distribution: the merkle
// root to publish plus a leaf and proof for every claim.
package airdrop

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/BlockChain-Man/Merkle-Tree-ERC20-Airdrop/pkg/leaf"
	"github.com/BlockChain-Man/Merkle-Tree-ERC20-Airdrop/pkg/merkle"
	"github.com/BlockChain-Man/Merkle-Tree-ERC20-Airdrop/pkg/types"
)

var (
	ErrProofSelfCheck = errors.New("generated proof does not verify against root")
	ErrLeafMismatch   = errors.New("leaf does not match account and amount")
)

type GeneratorConfig struct {
	// Workers bounds the goroutines used for hashing and proof generation.
	// Zero means GOMAXPROCS.
	Workers int
}

type Generator struct {
	config *GeneratorConfig
	logger *zap.Logger
	now    func() time.Time
}

func NewGenerator(cfg *GeneratorConfig, logger *zap.Logger) *Generator {
	if cfg == nil {
		cfg = &GeneratorConfig{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{
		config: cfg,
		logger: logger,
		now:    time.Now,
	}
}

// Generate builds the merkle tree for claims (in the given order) and returns
// every claim with its proof. Each proof is verified against the root before
// it is returned.
func (g *Generator) Generate(ctx context.Context, claims []types.Claim) (*types.Distribution, error) {
	if len(claims) == 0 {
		return nil, merkle.ErrEmptyInput
	}

	start := g.now()
	leaves, err := leaf.HashClaims(ctx, claims, g.config.Workers)
	if err != nil {
		return nil, fmt.Errorf("failed to hash claims: %w", err)
	}

	tree, err := merkle.NewMerkleTree(leaves)
	if err != nil {
		return nil, fmt.Errorf("failed to build merkle tree: %w", err)
	}
	root := tree.Root()

	g.logger.Sugar().Debugw("Built merkle tree",
		"leaves", tree.LeafCount(),
		"depth", tree.Depth(),
		"root", common.Hash(root).Hex())

	entries := make([]*types.ClaimEntry, len(claims))

	eg, ctx := errgroup.WithContext(ctx)
	if g.config.Workers > 0 {
		eg.SetLimit(g.config.Workers)
	}
	for i := range claims {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			proof, err := tree.GenerateProof(i)
			if err != nil {
				return err
			}
			if !merkle.VerifyProof(proof, root) {
				return fmt.Errorf("%w: claim %d", ErrProofSelfCheck, i)
			}
			entries[i] = newClaimEntry(i, claims[i], proof)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	total := new(big.Int)
	for _, c := range claims {
		total.Add(total, c.Amount.ToBig())
	}

	dist := &types.Distribution{
		Root:        common.Hash(root),
		TotalAmount: total.String(),
		ClaimCount:  len(entries),
		CreatedAt:   g.now().Unix(),
		Claims:      entries,
	}

	g.logger.Sugar().Infow("Generated airdrop distribution",
		"root", dist.Root.Hex(),
		"claims", dist.ClaimCount,
		"total_amount", dist.TotalAmount,
		"duration", g.now().Sub(start))

	return dist, nil
}

func newClaimEntry(index int, c types.Claim, proof *merkle.MerkleProof) *types.ClaimEntry {
	siblings := make([]common.Hash, len(proof.Proof))
	for i, s := range proof.Proof {
		siblings[i] = common.Hash(s)
	}
	return &types.ClaimEntry{
		Index:   index,
		Account: c.Account,
		Amount:  c.Amount.Dec(),
		Leaf:    common.Hash(proof.Leaf),
		Proof:   siblings,
	}
}

// VerifyEntry recomputes the leaf from the entry's account and amount, checks
// that it matches the recorded leaf and verifies the proof against root.
func VerifyEntry(entry *types.ClaimEntry, root common.Hash) (bool, error) {
	if entry == nil {
		return false, fmt.Errorf("cannot verify nil claim entry")
	}
	amount, err := leaf.ParseAmount(entry.Amount)
	if err != nil {
		return false, err
	}
	h, err := leaf.HashClaim(types.Claim{Account: entry.Account, Amount: amount})
	if err != nil {
		return false, err
	}
	if common.Hash(h) != entry.Leaf {
		return false, fmt.Errorf("%w: claim %d", ErrLeafMismatch, entry.Index)
	}
	return merkle.Verify(h, ProofHashes(entry.Proof), root), nil
}

// ProofHashes converts a rendered proof back to raw hashes.
func ProofHashes(proof []common.Hash) [][32]byte {
	out := make([][32]byte, len(proof))
	for i, p := range proof {
		out[i] = p
	}
	return out
}
