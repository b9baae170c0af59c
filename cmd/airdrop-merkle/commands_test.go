package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BlockChain-Man/Merkle-Tree-ERC20-Airdrop/pkg/config"
	"github.com/BlockChain-Man/Merkle-Tree-ERC20-Airdrop/pkg/util"
)

const (
	testRoot  = "0x0f9ab543d494be4790ecd88711163e1acc3f005903dacc2d36bbba6843b17d71"
	testLeaf0 = "0x9fc3e9763b4ef1d03c2d0f7348a3ed95ebab18680dfdd16b47274b382fe79365"
	testLeaf1 = "0xa9ed5be728d73fb34a923cba69ec1ef9ad15fc2ad051f13c7a7fd8443835ccf6"

	testAccount0 = "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa0001"
)

func writeAllowlist(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "allowlist.json")
	data := `[
  {"account": "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa0001", "amount": "100"},
  {"account": "0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb0002", "amount": "200"}
]`
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))
	return path
}

func runApp(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	app := newApp()
	app.Writer = &out
	app.ErrWriter = &out
	err := app.Run(append([]string{"airdrop-merkle"}, args...))
	return out.String(), err
}

func decodeClaims(t *testing.T, out string) []claimOutput {
	t.Helper()
	var claims []claimOutput
	require.NoError(t, json.Unmarshal([]byte(out), &claims))
	return claims
}

func TestGenerateAndProof_Badger(t *testing.T) {
	dataDir := t.TempDir()
	allowlistPath := writeAllowlist(t)
	outputPath := filepath.Join(t.TempDir(), "distribution.json")

	out, err := runApp(t,
		"--persistence-type", "badger", "--data-dir", dataDir,
		"generate", "--allowlist", allowlistPath, "--output", outputPath, "--workers", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "Merkle root: "+testRoot)
	assert.Contains(t, out, "Claims: 2")
	assert.Contains(t, out, "Total amount: 300")

	written, err := os.ReadFile(outputPath)
	require.NoError(t, err)
	assert.Contains(t, string(written), testRoot)

	out, err = runApp(t,
		"--persistence-type", "badger", "--data-dir", dataDir,
		"proof", "--account", testAccount0)
	require.NoError(t, err)

	claims := decodeClaims(t, out)
	require.Len(t, claims, 1)
	assert.Equal(t, 0, claims[0].Index)
	assert.Equal(t, "100", claims[0].Amount)
	assert.Equal(t, testLeaf0, claims[0].Leaf.Hex())
	require.Len(t, claims[0].Proof, 1)
	assert.Equal(t, testLeaf1, claims[0].Proof[0].Hex())

	index, account, amount, proof, err := util.DecodeClaimCalldata(claims[0].Calldata)
	require.NoError(t, err)
	assert.Equal(t, 0, index)
	assert.Equal(t, testAccount0, strings.ToLower(account.Hex()))
	assert.Equal(t, "100", amount.String())
	assert.Equal(t, claims[0].Proof, proof)
}

func TestGenerateAndProof_Redis(t *testing.T) {
	server := miniredis.RunT(t)
	allowlistPath := writeAllowlist(t)

	_, err := runApp(t,
		"--persistence-type", "redis", "--redis-address", server.Addr(),
		"generate", "--allowlist", allowlistPath)
	require.NoError(t, err)

	out, err := runApp(t,
		"--persistence-type", "redis", "--redis-address", server.Addr(),
		"proof", "--account", "0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb0002", "--root", testRoot)
	require.NoError(t, err)

	claims := decodeClaims(t, out)
	require.Len(t, claims, 1)
	assert.Equal(t, 1, claims[0].Index)
	assert.Equal(t, testLeaf1, claims[0].Leaf.Hex())
}

func TestProof_FromDistributionFile(t *testing.T) {
	allowlistPath := writeAllowlist(t)
	outputPath := filepath.Join(t.TempDir(), "distribution.json")

	_, err := runApp(t,
		"--persistence-type", "memory",
		"generate", "--allowlist", allowlistPath, "--output", outputPath)
	require.NoError(t, err)

	out, err := runApp(t, "proof", "--account", testAccount0, "--distribution", outputPath)
	require.NoError(t, err)
	require.Len(t, decodeClaims(t, out), 1)
}

func TestProof_Errors(t *testing.T) {
	allowlistPath := writeAllowlist(t)
	outputPath := filepath.Join(t.TempDir(), "distribution.json")
	_, err := runApp(t,
		"--persistence-type", "memory",
		"generate", "--allowlist", allowlistPath, "--output", outputPath)
	require.NoError(t, err)

	t.Run("unknown account", func(t *testing.T) {
		_, err := runApp(t, "proof", "--account", "0xcccccccccccccccccccccccccccccccccccc0003", "--distribution", outputPath)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "has no claims")
	})

	t.Run("invalid account", func(t *testing.T) {
		_, err := runApp(t, "proof", "--account", "0x1234", "--distribution", outputPath)
		require.Error(t, err)
	})

	t.Run("no active root", func(t *testing.T) {
		_, err := runApp(t,
			"--persistence-type", "badger", "--data-dir", t.TempDir(),
			"proof", "--account", testAccount0)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no active distribution")
	})
}

func TestGenerate_InvalidInput(t *testing.T) {
	t.Run("invalid amount", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "allowlist.csv")
		require.NoError(t, os.WriteFile(path, []byte("account,amount\n"+testAccount0+",-5\n"), 0644))

		_, err := runApp(t, "--persistence-type", "memory", "generate", "--allowlist", path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "allowlist entry 0")
	})

	t.Run("unsupported persistence", func(t *testing.T) {
		_, err := runApp(t, "--persistence-type", "postgres", "generate", "--allowlist", writeAllowlist(t))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid configuration")
	})
}

func TestVerify(t *testing.T) {
	out, err := runApp(t, "verify", "--leaf", testLeaf0, "--root", testRoot, "--proof", testLeaf1)
	require.NoError(t, err)
	assert.Contains(t, out, "Proof is valid")

	_, err = runApp(t, "verify", "--leaf", testLeaf1, "--root", testRoot, "--proof", testLeaf1)
	require.Error(t, err)

	// A single leaf is its own root with an empty proof
	_, err = runApp(t, "verify", "--leaf", testLeaf0, "--root", testLeaf0)
	require.NoError(t, err)

	_, err = runApp(t, "verify", "--leaf", "0x1234", "--root", testRoot)
	require.Error(t, err)

	_, err = runApp(t, "verify", "--leaf", testLeaf0, "--root", testRoot, "--proof", testLeaf1+",0xzz")
	require.Error(t, err)
}

func TestNewStore(t *testing.T) {
	for _, pt := range config.GetSupportedPersistenceTypes() {
		t.Run(pt.String(), func(t *testing.T) {
			cfg := &config.PersistenceConfig{Type: pt, DataDir: t.TempDir()}
			if pt == config.PersistenceTypeRedis {
				cfg.RedisAddress = miniredis.RunT(t).Addr()
			}

			store, err := newStore(cfg, zap.NewNop())
			require.NoError(t, err)
			require.NoError(t, store.HealthCheck())
			require.NoError(t, store.Close())
		})
	}

	_, err := newStore(&config.PersistenceConfig{Type: "postgres"}, zap.NewNop())
	require.Error(t, err)
}
