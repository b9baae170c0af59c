// Package leaf produces merkle leaves for airdrop claims.
//
// A leaf is keccak256(abi.encodePacked(address account, uint256 amount)):
// the 20 address bytes followed by the amount as a 32-byte big-endian word,
// with no length prefixes. This must match the on-chain verifier byte for byte.
package leaf

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"runtime"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
	"golang.org/x/sync/errgroup"

	"github.com/BlockChain-Man/Merkle-Tree-ERC20-Airdrop/pkg/types"
)

const (
	// AddressLength is the width of the packed account field
	AddressLength = common.AddressLength

	// AmountLength is the width of the packed uint256 amount field
	AmountLength = 32

	// EncodedLength is the total width of a packed claim
	EncodedLength = AddressLength + AmountLength
)

var (
	ErrInvalidAddress = errors.New("invalid address")
	ErrAmountOverflow = errors.New("amount out of uint256 range")
	ErrInvalidAmount  = errors.New("invalid amount")
)

// Encode packs account and amount into exactly EncodedLength bytes.
// The amount is never truncated: values outside [0, 2^256) are rejected.
func Encode(account []byte, amount *big.Int) ([]byte, error) {
	if len(account) != AddressLength {
		return nil, fmt.Errorf("%w: expected %d bytes, got %d", ErrInvalidAddress, AddressLength, len(account))
	}
	if amount == nil {
		return nil, fmt.Errorf("%w: amount is nil", ErrInvalidAmount)
	}
	if amount.Sign() < 0 {
		return nil, fmt.Errorf("%w: negative amount %s", ErrAmountOverflow, amount)
	}
	word, overflow := uint256.FromBig(amount)
	if overflow {
		return nil, fmt.Errorf("%w: amount has %d bits", ErrAmountOverflow, amount.BitLen())
	}
	return pack(account, word), nil
}

// LeafHash returns keccak256(Encode(account, amount)).
func LeafHash(account []byte, amount *big.Int) ([32]byte, error) {
	data, err := Encode(account, amount)
	if err != nil {
		return [32]byte{}, err
	}
	return crypto.Keccak256Hash(data), nil
}

// EncodeClaim packs an already parsed claim.
func EncodeClaim(c types.Claim) ([]byte, error) {
	if c.Amount == nil {
		return nil, fmt.Errorf("%w: amount is nil", ErrInvalidAmount)
	}
	return pack(c.Account[:], c.Amount), nil
}

// HashClaim returns the merkle leaf for a parsed claim.
func HashClaim(c types.Claim) ([32]byte, error) {
	data, err := EncodeClaim(c)
	if err != nil {
		return [32]byte{}, err
	}
	return crypto.Keccak256Hash(data), nil
}

func pack(account []byte, amount *uint256.Int) []byte {
	data := make([]byte, 0, EncodedLength)
	data = append(data, account...)
	word := amount.Bytes32()
	data = append(data, word[:]...)
	return data
}

// ParseClaim validates a raw allowlist record.
//
// The account may be given with or without the 0x prefix. Mixed-case accounts
// must carry a valid EIP-55 checksum. The amount is a base-10 string or a
// 0x-prefixed base-16 string.
func ParseClaim(account, amount string) (types.Claim, error) {
	addr, err := ParseAddress(account)
	if err != nil {
		return types.Claim{}, err
	}
	value, err := ParseAmount(amount)
	if err != nil {
		return types.Claim{}, err
	}
	return types.Claim{Account: addr, Amount: value}, nil
}

// ParseAddress parses a hex-encoded 20-byte account.
func ParseAddress(s string) (common.Address, error) {
	s = strings.TrimSpace(s)
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("%w: %q", ErrInvalidAddress, s)
	}
	addr := common.HexToAddress(s)

	body := strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if strings.ToLower(body) != body && strings.ToUpper(body) != body {
		if "0x"+body != addr.Hex() {
			return common.Address{}, fmt.Errorf("%w: bad checksum for %q", ErrInvalidAddress, s)
		}
	}
	return addr, nil
}

// ParseAmount parses a non-negative integer that must fit in 256 bits.
func ParseAmount(s string) (*uint256.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("%w: empty amount", ErrInvalidAmount)
	}

	var (
		value *big.Int
		ok    bool
	)
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		digits := s[2:]
		if digits == "" {
			return nil, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
		}
		value, ok = new(big.Int).SetString(digits, 16)
	} else {
		value, ok = new(big.Int).SetString(s, 10)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	if value.Sign() < 0 {
		return nil, fmt.Errorf("%w: negative amount %q", ErrAmountOverflow, s)
	}

	word, overflow := uint256.FromBig(value)
	if overflow {
		return nil, fmt.Errorf("%w: %q", ErrAmountOverflow, s)
	}
	return word, nil
}

// HashClaims hashes claims on up to workers goroutines. The result is in
// input order. workers <= 0 means GOMAXPROCS.
func HashClaims(ctx context.Context, claims []types.Claim, workers int) ([][32]byte, error) {
	leaves := make([][32]byte, len(claims))
	if len(claims) == 0 {
		return leaves, nil
	}
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > len(claims) {
		workers = len(claims)
	}

	chunk := (len(claims) + workers - 1) / workers
	g, ctx := errgroup.WithContext(ctx)
	for start := 0; start < len(claims); start += chunk {
		start, end := start, min(start+chunk, len(claims))
		g.Go(func() error {
			for i := start; i < end; i++ {
				if err := ctx.Err(); err != nil {
					return err
				}
				h, err := HashClaim(claims[i])
				if err != nil {
					return fmt.Errorf("claim %d: %w", i, err)
				}
				leaves[i] = h
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return leaves, nil
}
