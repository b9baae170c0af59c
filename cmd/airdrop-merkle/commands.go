package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/BlockChain-Man/Merkle-Tree-ERC20-Airdrop/pkg/airdrop"
	"github.com/BlockChain-Man/Merkle-Tree-ERC20-Airdrop/pkg/allowlist"
	"github.com/BlockChain-Man/Merkle-Tree-ERC20-Airdrop/pkg/config"
	"github.com/BlockChain-Man/Merkle-Tree-ERC20-Airdrop/pkg/leaf"
	"github.com/BlockChain-Man/Merkle-Tree-ERC20-Airdrop/pkg/logger"
	"github.com/BlockChain-Man/Merkle-Tree-ERC20-Airdrop/pkg/merkle"
	"github.com/BlockChain-Man/Merkle-Tree-ERC20-Airdrop/pkg/persistence"
	"github.com/BlockChain-Man/Merkle-Tree-ERC20-Airdrop/pkg/types"
	"github.com/BlockChain-Man/Merkle-Tree-ERC20-Airdrop/pkg/util"
)

// claimOutput is what the proof command prints for each entry
type claimOutput struct {
	Index    int           `json:"index"`
	Account  string        `json:"account"`
	Amount   string        `json:"amount"`
	Leaf     common.Hash   `json:"leaf"`
	Proof    []common.Hash `json:"proof"`
	Calldata hexutil.Bytes `json:"calldata"`
}

func parseAirdropConfig(c *cli.Context) *config.AirdropConfig {
	return &config.AirdropConfig{
		AllowlistPath: c.String("allowlist"),
		OutputPath:    c.String("output"),
		Workers:       c.Int("workers"),
		Verbose:       c.Bool("verbose"),
		LogFile:       c.String("log-file"),
		Persistence: config.PersistenceConfig{
			Type:           config.PersistenceType(c.String("persistence-type")),
			DataDir:        c.String("data-dir"),
			RedisAddress:   c.String("redis-address"),
			RedisPassword:  c.String("redis-password"),
			RedisDB:        c.Int("redis-db"),
			RedisKeyPrefix: c.String("redis-key-prefix"),
		},
	}
}

func newCommandLogger(cfg *config.AirdropConfig) (*zap.Logger, error) {
	l, err := logger.NewLogger(&logger.LoggerConfig{
		Debug:   cfg.Verbose,
		LogFile: cfg.LogFile,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return l, nil
}

// generateCommand handles the generate subcommand
func generateCommand(c *cli.Context) error {
	cfg := parseAirdropConfig(c)
	if err := cfg.ValidateGenerate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	l, err := newCommandLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = l.Sync() }()

	claims, err := allowlist.Load(cfg.AllowlistPath)
	if err != nil {
		return err
	}
	l.Sugar().Infow("Loaded allowlist", "path", cfg.AllowlistPath, "claims", len(claims))

	generator := airdrop.NewGenerator(&airdrop.GeneratorConfig{Workers: cfg.EffectiveWorkers()}, l)
	dist, err := generator.Generate(c.Context, claims)
	if err != nil {
		return fmt.Errorf("failed to generate distribution: %w", err)
	}

	if cfg.OutputPath != "" {
		data, err := json.MarshalIndent(dist, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode distribution: %w", err)
		}
		if err := os.WriteFile(cfg.OutputPath, data, 0644); err != nil {
			return fmt.Errorf("failed to write to file: %w", err)
		}
		l.Sugar().Infow("Wrote distribution", "path", cfg.OutputPath)
	}

	store, err := newStore(&cfg.Persistence, l)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	if err := store.SaveDistribution(dist); err != nil {
		return fmt.Errorf("failed to save distribution: %w", err)
	}
	if err := store.SetActiveRoot(dist.Root); err != nil {
		return fmt.Errorf("failed to set active root: %w", err)
	}

	w := c.App.Writer
	_, _ = fmt.Fprintf(w, "Merkle root: %s\n", dist.Root.Hex())
	_, _ = fmt.Fprintf(w, "Claims: %d\n", dist.ClaimCount)
	_, _ = fmt.Fprintf(w, "Total amount: %s\n", dist.TotalAmount)
	return nil
}

// proofCommand handles the proof subcommand
func proofCommand(c *cli.Context) error {
	cfg := parseAirdropConfig(c)

	account, err := leaf.ParseAddress(c.String("account"))
	if err != nil {
		return err
	}

	l, err := newCommandLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = l.Sync() }()

	dist, err := loadDistribution(c, cfg, l)
	if err != nil {
		return err
	}

	entries := dist.EntriesFor(account)
	if len(entries) == 0 {
		return fmt.Errorf("account %s has no claims in distribution %s", account.Hex(), dist.Root.Hex())
	}

	outputs := make([]claimOutput, 0, len(entries))
	for _, entry := range entries {
		ok, err := airdrop.VerifyEntry(entry, dist.Root)
		if err != nil {
			return fmt.Errorf("claim %d: %w", entry.Index, err)
		}
		if !ok {
			return fmt.Errorf("claim %d does not verify against root %s", entry.Index, dist.Root.Hex())
		}

		amount, err := leaf.ParseAmount(entry.Amount)
		if err != nil {
			return fmt.Errorf("claim %d: %w", entry.Index, err)
		}
		calldata, err := util.EncodeClaimCalldata(entry.Index, entry.Account, amount.ToBig(), entry.Proof)
		if err != nil {
			return fmt.Errorf("claim %d: %w", entry.Index, err)
		}

		outputs = append(outputs, claimOutput{
			Index:    entry.Index,
			Account:  entry.Account.Hex(),
			Amount:   entry.Amount,
			Leaf:     entry.Leaf,
			Proof:    entry.Proof,
			Calldata: calldata,
		})
	}

	data, err := json.MarshalIndent(outputs, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode proofs: %w", err)
	}
	_, _ = fmt.Fprintln(c.App.Writer, string(data))
	return nil
}

// loadDistribution reads the distribution named by --distribution, --root or the active root
func loadDistribution(c *cli.Context, cfg *config.AirdropConfig, l *zap.Logger) (*types.Distribution, error) {
	if path := c.String("distribution"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read distribution: %w", err)
		}
		return persistence.UnmarshalDistribution(data)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	store, err := newStore(&cfg.Persistence, l)
	if err != nil {
		return nil, err
	}
	defer func() { _ = store.Close() }()

	var root common.Hash
	if s := c.String("root"); s != "" {
		if root, err = parseHash(s); err != nil {
			return nil, err
		}
	} else {
		if root, err = store.GetActiveRoot(); err != nil {
			return nil, fmt.Errorf("failed to get active root: %w", err)
		}
		if root == (common.Hash{}) {
			return nil, fmt.Errorf("no active distribution, run generate first or pass --root")
		}
	}

	dist, err := store.LoadDistribution(root)
	if err != nil {
		return nil, fmt.Errorf("failed to load distribution: %w", err)
	}
	if dist == nil {
		return nil, fmt.Errorf("distribution %s not found", root.Hex())
	}
	return dist, nil
}

// verifyCommand handles the verify subcommand
func verifyCommand(c *cli.Context) error {
	leafHash, err := parseHash(c.String("leaf"))
	if err != nil {
		return err
	}
	root, err := parseHash(c.String("root"))
	if err != nil {
		return err
	}
	proof, err := parseProof(c.String("proof"))
	if err != nil {
		return err
	}

	if !merkle.Verify(leafHash, airdrop.ProofHashes(proof), root) {
		return fmt.Errorf("proof does not verify against root %s", root.Hex())
	}

	_, _ = fmt.Fprintln(c.App.Writer, "Proof is valid")
	return nil
}

func parseHash(s string) (common.Hash, error) {
	b, err := hexutil.Decode(strings.TrimSpace(s))
	if err != nil {
		return common.Hash{}, fmt.Errorf("invalid hash %q: %w", s, err)
	}
	if len(b) != common.HashLength {
		return common.Hash{}, fmt.Errorf("invalid hash %q: expected %d bytes, got %d", s, common.HashLength, len(b))
	}
	return common.BytesToHash(b), nil
}

func parseProof(s string) ([]common.Hash, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	proof := make([]common.Hash, len(parts))
	for i, part := range parts {
		h, err := parseHash(part)
		if err != nil {
			return nil, fmt.Errorf("proof element %d: %w", i, err)
		}
		proof[i] = h
	}
	return proof, nil
}
