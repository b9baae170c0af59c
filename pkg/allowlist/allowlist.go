// Package allowlist reads airdrop allowlists from JSON or CSV files.
package allowlist

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/BlockChain-Man/Merkle-Tree-ERC20-Airdrop/pkg/leaf"
	"github.com/BlockChain-Man/Merkle-Tree-ERC20-Airdrop/pkg/types"
)

type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
)

// FormatForPath picks the format from the file extension.
func FormatForPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".csv":
		return FormatCSV, nil
	default:
		return "", errors.Errorf("unsupported allowlist file extension %q (expected .json or .csv)", filepath.Ext(path))
	}
}

// LoadFile reads the raw allowlist records from path.
func LoadFile(path string) ([]types.ClaimInput, error) {
	format, err := FormatForPath(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open allowlist %s", path)
	}
	defer func() { _ = f.Close() }()

	inputs, err := Read(f, format)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read allowlist %s", path)
	}
	return inputs, nil
}

// Read decodes allowlist records from r.
func Read(r io.Reader, format Format) ([]types.ClaimInput, error) {
	switch format {
	case FormatJSON:
		return readJSON(r)
	case FormatCSV:
		return readCSV(r)
	default:
		return nil, errors.Errorf("unsupported allowlist format %q", format)
	}
}

func readJSON(r io.Reader) ([]types.ClaimInput, error) {
	var inputs []types.ClaimInput
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&inputs); err != nil {
		return nil, errors.Wrap(err, "invalid JSON allowlist")
	}
	return inputs, nil
}

// readCSV expects a header row naming the account and amount columns.
func readCSV(r io.Reader) ([]types.ClaimInput, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.Comment = '#'

	header, err := reader.Read()
	if err == io.EOF {
		return nil, errors.New("CSV allowlist is empty")
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to read CSV header")
	}

	accountCol, amountCol := -1, -1
	for i, name := range header {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "account", "address":
			accountCol = i
		case "amount":
			amountCol = i
		}
	}
	if accountCol < 0 || amountCol < 0 {
		return nil, errors.Errorf("CSV header must contain account and amount columns, got %v", header)
	}

	var inputs []types.ClaimInput
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "failed to read CSV record")
		}
		inputs = append(inputs, types.ClaimInput{
			Account: record[accountCol],
			Amount:  record[amountCol],
		})
	}
	return inputs, nil
}

// ParseClaims validates every record, preserving order. The error names the
// first offending row.
func ParseClaims(inputs []types.ClaimInput) ([]types.Claim, error) {
	claims := make([]types.Claim, 0, len(inputs))
	for i, in := range inputs {
		c, err := leaf.ParseClaim(in.Account, in.Amount)
		if err != nil {
			return nil, errors.Wrapf(err, "allowlist entry %d", i)
		}
		claims = append(claims, c)
	}
	return claims, nil
}

// Load reads and validates the allowlist at path.
func Load(path string) ([]types.Claim, error) {
	inputs, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	if len(inputs) == 0 {
		return nil, errors.Errorf("allowlist %s has no entries", path)
	}
	return ParseClaims(inputs)
}
