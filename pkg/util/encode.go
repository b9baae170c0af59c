package util

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// ClaimMethodSignature is the merkle distributor entry point the calldata targets.
const ClaimMethodSignature = "claim(uint256,address,uint256,bytes32[])"

var claimArguments = mustClaimArguments()

func mustClaimArguments() abi.Arguments {
	uint256Type, err := abi.NewType("uint256", "", nil)
	if err != nil {
		panic(err)
	}
	addressType, err := abi.NewType("address", "", nil)
	if err != nil {
		panic(err)
	}
	proofType, err := abi.NewType("bytes32[]", "", nil)
	if err != nil {
		panic(err)
	}
	return abi.Arguments{
		{Name: "index", Type: uint256Type},
		{Name: "account", Type: addressType},
		{Name: "amount", Type: uint256Type},
		{Name: "merkleProof", Type: proofType},
	}
}

// ClaimSelector returns the 4-byte function selector of ClaimMethodSignature.
func ClaimSelector() []byte {
	return crypto.Keccak256([]byte(ClaimMethodSignature))[:4]
}

// EncodeClaimCalldata builds the transaction input for claiming an airdrop entry.
func EncodeClaimCalldata(index int, account common.Address, amount *big.Int, proof []common.Hash) ([]byte, error) {
	if index < 0 {
		return nil, fmt.Errorf("claim index must be non-negative, got %d", index)
	}
	if amount == nil || amount.Sign() < 0 {
		return nil, fmt.Errorf("claim amount must be a non-negative integer")
	}

	siblings := make([][32]byte, len(proof))
	for i, p := range proof {
		siblings[i] = p
	}

	encoded, err := claimArguments.Pack(big.NewInt(int64(index)), account, amount, siblings)
	if err != nil {
		return nil, fmt.Errorf("failed to pack claim arguments: %w", err)
	}

	return append(ClaimSelector(), encoded...), nil
}

// DecodeClaimCalldata is the inverse of EncodeClaimCalldata.
func DecodeClaimCalldata(data []byte) (int, common.Address, *big.Int, []common.Hash, error) {
	if len(data) < 4 || string(data[:4]) != string(ClaimSelector()) {
		return 0, common.Address{}, nil, nil, fmt.Errorf("calldata does not target %s", ClaimMethodSignature)
	}

	values, err := claimArguments.Unpack(data[4:])
	if err != nil {
		return 0, common.Address{}, nil, nil, fmt.Errorf("failed to unpack claim arguments: %w", err)
	}

	index := values[0].(*big.Int)
	if !index.IsInt64() {
		return 0, common.Address{}, nil, nil, fmt.Errorf("claim index %s out of range", index)
	}
	account := values[1].(common.Address)
	amount := values[2].(*big.Int)
	siblings := values[3].([][32]byte)

	proof := make([]common.Hash, len(siblings))
	for i, s := range siblings {
		proof[i] = s
	}

	return int(index.Int64()), account, amount, proof, nil
}
