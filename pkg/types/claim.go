package types

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Claim is one allowlist entry: an account entitled to an amount of tokens.
// Claims are immutable once parsed; duplicates are allowed and each gets its own leaf.
type Claim struct {
	Account common.Address
	Amount  *uint256.Int
}

// ClaimInput is the raw allowlist record as read from JSON or CSV.
// Amount is either a decimal string or a 0x-prefixed hex string.
type ClaimInput struct {
	Account string `json:"account"`
	Amount  string `json:"amount"`
}

// ClaimEntry pairs a claim with its leaf and inclusion proof.
type ClaimEntry struct {
	// Index is the position of the claim in the allowlist (and of its leaf in the tree)
	Index int `json:"index"`

	Account common.Address `json:"account"`

	// Amount is rendered as a base-10 string
	Amount string `json:"amount"`

	Leaf common.Hash `json:"leaf"`

	// Proof contains the sibling hashes from leaf to root
	Proof []common.Hash `json:"proof"`
}

// Distribution is the complete output for one allowlist: the root to publish
// on-chain plus every claim with its proof.
type Distribution struct {
	Root        common.Hash   `json:"root"`
	TotalAmount string        `json:"totalAmount"`
	ClaimCount  int           `json:"claimCount"`
	CreatedAt   int64         `json:"createdAt"`
	Claims      []*ClaimEntry `json:"claims"`
}

// EntriesFor returns every entry belonging to account, in allowlist order.
func (d *Distribution) EntriesFor(account common.Address) []*ClaimEntry {
	if d == nil {
		return nil
	}
	var entries []*ClaimEntry
	for _, e := range d.Claims {
		if e != nil && e.Account == account {
			entries = append(entries, e)
		}
	}
	return entries
}
