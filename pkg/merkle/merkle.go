package merkle

import (
	"bytes"
	"fmt"

	"github.com/ethereum/go-ethereum/crypto"
)

// NewMerkleTree builds a merkle tree over leaves in the given order.
//
// Each level pairs nodes (0,1), (2,3), ... and hashes every pair with HashPair.
// If a level has an odd number of nodes the last one is paired with itself.
// A single leaf is its own root.
func NewMerkleTree(leaves [][32]byte) (*MerkleTree, error) {
	if len(leaves) == 0 {
		return nil, ErrEmptyInput
	}

	// Copy so callers can't mutate level 0 after the fact
	currentLevel := make([][32]byte, len(leaves))
	copy(currentLevel, leaves)

	levels := make([][][32]byte, 0, depthFor(len(leaves))+1)
	levels = append(levels, currentLevel)

	for len(currentLevel) > 1 {
		nextLevel := make([][32]byte, 0, (len(currentLevel)+1)/2)

		for i := 0; i < len(currentLevel); i += 2 {
			left := currentLevel[i]
			right := left
			if i+1 < len(currentLevel) {
				right = currentLevel[i+1]
			}
			nextLevel = append(nextLevel, HashPair(left, right))
		}

		levels = append(levels, nextLevel)
		currentLevel = nextLevel
	}

	return &MerkleTree{levels: levels}, nil
}

// Root returns the merkle root. It is the zero hash for an unbuilt tree.
func (mt *MerkleTree) Root() [32]byte {
	if !mt.built() {
		return [32]byte{}
	}
	return mt.levels[len(mt.levels)-1][0]
}

// Leaves returns a copy of the leaf level.
func (mt *MerkleTree) Leaves() [][32]byte {
	if !mt.built() {
		return nil
	}
	return copyLevel(mt.levels[0])
}

// LeafCount returns the number of leaves, counting duplicates.
func (mt *MerkleTree) LeafCount() int {
	if !mt.built() {
		return 0
	}
	return len(mt.levels[0])
}

// Depth returns the number of levels above the leaves, which is also the
// length of every proof.
func (mt *MerkleTree) Depth() int {
	if !mt.built() {
		return 0
	}
	return len(mt.levels) - 1
}

// Level returns a copy of the nodes at the given depth (0 = leaves).
func (mt *MerkleTree) Level(depth int) ([][32]byte, error) {
	if !mt.built() {
		return nil, ErrTreeNotBuilt
	}
	if depth < 0 || depth >= len(mt.levels) {
		return nil, fmt.Errorf("level %d out of bounds (tree has %d levels)", depth, len(mt.levels))
	}
	return copyLevel(mt.levels[depth]), nil
}

// GenerateProof creates a merkle proof for the leaf at the given index.
// The returned proof shares no memory with the tree.
func (mt *MerkleTree) GenerateProof(leafIndex int) (*MerkleProof, error) {
	if !mt.built() {
		return nil, ErrTreeNotBuilt
	}
	leaves := mt.levels[0]
	if leafIndex < 0 || leafIndex >= len(leaves) {
		return nil, fmt.Errorf("%w: index %d (tree has %d leaves)", ErrIndexOutOfRange, leafIndex, len(leaves))
	}

	proof := make([][32]byte, 0, len(mt.levels)-1)
	index := leafIndex

	for level := 0; level < len(mt.levels)-1; level++ {
		currentLevel := mt.levels[level]

		var siblingIndex int
		if index%2 == 0 {
			siblingIndex = index + 1
		} else {
			siblingIndex = index - 1
		}

		// Unpaired tail node was hashed with itself
		if siblingIndex >= len(currentLevel) {
			siblingIndex = index
		}

		proof = append(proof, currentLevel[siblingIndex])
		index = index / 2
	}

	return &MerkleProof{
		LeafIndex: leafIndex,
		Leaf:      leaves[leafIndex],
		Proof:     proof,
	}, nil
}

// Verify folds proof into leaf with HashPair and compares the result to root.
// Only the proof contents matter; no leaf index or side bits are needed.
func Verify(leaf [32]byte, proof [][32]byte, root [32]byte) bool {
	current := leaf
	for _, sibling := range proof {
		current = HashPair(current, sibling)
	}
	return current == root
}

// VerifyProof verifies that proof.Leaf is included in the tree with the given root.
func VerifyProof(proof *MerkleProof, root [32]byte) bool {
	if proof == nil {
		return false
	}
	return Verify(proof.Leaf, proof.Proof, root)
}

// HashPair computes keccak256(min(a,b) || max(a,b)) with the two hashes
// compared as big-endian unsigned integers.
func HashPair(a, b [32]byte) [32]byte {
	if bytes.Compare(a[:], b[:]) > 0 {
		a, b = b, a
	}
	return crypto.Keccak256Hash(a[:], b[:])
}

func (mt *MerkleTree) built() bool {
	return mt != nil && len(mt.levels) > 0 && len(mt.levels[len(mt.levels)-1]) == 1
}

func depthFor(n int) int {
	depth := 0
	for n > 1 {
		n = (n + 1) / 2
		depth++
	}
	return depth
}

func copyLevel(level [][32]byte) [][32]byte {
	out := make([][32]byte, len(level))
	copy(out, level)
	return out
}
