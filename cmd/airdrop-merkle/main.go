package main

import (
	"fmt"
	"log"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/BlockChain-Man/Merkle-Tree-ERC20-Airdrop/pkg/config"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatalf("Application error: %v", err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "airdrop-merkle",
		Usage: "Merkle tree generator for ERC20 airdrop allowlists",
		Description: `Builds the merkle tree of an airdrop allowlist and serves per-account proofs.

Leaves are keccak256(abi.encodePacked(address account, uint256 amount)) and inner
nodes hash the sorted pair of their children, matching OpenZeppelin's MerkleProof.verify.

This tool can:
- Generate the root and every claim proof from a JSON or CSV allowlist
- Look up the proof and claim calldata for an account
- Verify a leaf and proof against a root`,
		Version: "1.0.0",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "verbose",
				Usage:   "Enable verbose logging",
				EnvVars: []string{config.EnvAirdropVerbose},
			},
			&cli.StringFlag{
				Name:    "log-file",
				Usage:   "Also write JSON logs to this file (rotated)",
				EnvVars: []string{config.EnvAirdropLogFile},
			},
			&cli.StringFlag{
				Name:    "persistence-type",
				Usage:   fmt.Sprintf("Distribution store: %s", config.GetSupportedPersistenceTypesString()),
				Value:   config.PersistenceTypeBadger.String(),
				EnvVars: []string{config.EnvAirdropPersistenceType},
			},
			&cli.StringFlag{
				Name:    "data-dir",
				Usage:   "Badger data directory",
				Value:   config.DefaultDataDir,
				EnvVars: []string{config.EnvAirdropDataDir},
			},
			&cli.StringFlag{
				Name:    "redis-address",
				Usage:   "Redis server address (host:port)",
				Value:   config.DefaultRedisAddress,
				EnvVars: []string{config.EnvAirdropRedisAddress},
			},
			&cli.StringFlag{
				Name:    "redis-password",
				Usage:   "Redis password",
				EnvVars: []string{config.EnvAirdropRedisPassword},
			},
			&cli.IntFlag{
				Name:    "redis-db",
				Usage:   "Redis database number (0-15)",
				EnvVars: []string{config.EnvAirdropRedisDB},
			},
			&cli.StringFlag{
				Name:    "redis-key-prefix",
				Usage:   "Prefix for every Redis key",
				EnvVars: []string{config.EnvAirdropRedisKeyPrefix},
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "generate",
				Usage: "Build the merkle tree and all proofs for an allowlist",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "allowlist",
						Aliases:  []string{"a"},
						Usage:    "Allowlist file (.json or .csv)",
						EnvVars:  []string{config.EnvAirdropAllowlist},
						Required: true,
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Write the distribution (root, leaves, proofs) as JSON to this file",
						EnvVars: []string{config.EnvAirdropOutput},
					},
					&cli.IntFlag{
						Name:    "workers",
						Usage:   "Hashing and proof goroutines (0 = GOMAXPROCS)",
						EnvVars: []string{config.EnvAirdropWorkers},
					},
				},
				Action: generateCommand,
			},
			{
				Name:  "proof",
				Usage: "Print the proofs and claim calldata for an account",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "account",
						Usage:    "Claimant address",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "root",
						Usage: "Distribution root to read from the store (default: active root)",
					},
					&cli.StringFlag{
						Name:  "distribution",
						Usage: "Read the distribution from a file written by generate instead of the store",
					},
				},
				Action: proofCommand,
			},
			{
				Name:  "verify",
				Usage: "Verify a leaf and proof against a root",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "leaf",
						Usage:    "Leaf hash (0x-prefixed, 32 bytes)",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "root",
						Usage:    "Merkle root (0x-prefixed, 32 bytes)",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "proof",
						Usage: "Comma separated sibling hashes, leaf level first",
					},
				},
				Action: verifyCommand,
			},
		},
	}
}
