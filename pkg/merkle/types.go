package merkle

import "errors"

var (
	ErrEmptyInput      = errors.New("cannot build merkle tree from empty leaf list")
	ErrIndexOutOfRange = errors.New("leaf index out of range")
	ErrTreeNotBuilt    = errors.New("merkle tree has not been built")
)

// MerkleTree is a binary keccak256 merkle tree with sorted-pair node hashing.
// It is immutable once NewMerkleTree returns and safe for concurrent reads.
type MerkleTree struct {
	// levels stores all tree levels for proof generation
	// levels[0] = leaves, levels[len-1] = [root]
	levels [][][32]byte
}

// MerkleProof represents a proof that a leaf is included in the tree.
type MerkleProof struct {
	// LeafIndex is the position of the leaf in the input order
	LeafIndex int

	// Leaf is the hash of the leaf being proven
	Leaf [32]byte

	// Proof contains the sibling hashes from leaf to root
	// proof[0] is the sibling of the leaf, proof[len-1] is a child of the root
	Proof [][32]byte
}
