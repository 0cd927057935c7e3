package blockchain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Artifact is a compiled contract: its ABI and creation bytecode.
type Artifact struct {
	ContractName string
	ABI          *abi.ABI
	Bytecode     []byte
}

// artifactFile covers hardhat, brownie and foundry output. Foundry nests the
// bytecode as {"object": "0x..."}; brownie omits the 0x prefix.
type artifactFile struct {
	ContractName string          `json:"contractName"`
	ABI          json.RawMessage `json:"abi"`
	Bytecode     json.RawMessage `json:"bytecode"`
}

// ParseArtifact decodes a build artifact. fallbackName is used when the file
// carries no contractName.
func ParseArtifact(data []byte, fallbackName string) (*Artifact, error) {
	var f artifactFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decoding artifact: %w", err)
	}
	if len(f.ABI) == 0 {
		return nil, fmt.Errorf("artifact has no abi")
	}
	parsed, err := abi.JSON(bytes.NewReader(f.ABI))
	if err != nil {
		return nil, fmt.Errorf("parsing artifact abi: %w", err)
	}

	code, err := decodeBytecode(f.Bytecode)
	if err != nil {
		return nil, err
	}

	name := f.ContractName
	if name == "" {
		name = fallbackName
	}
	if name == "" {
		return nil, fmt.Errorf("artifact has no contract name")
	}
	return &Artifact{ContractName: name, ABI: &parsed, Bytecode: code}, nil
}

func decodeBytecode(raw json.RawMessage) ([]byte, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("artifact has no bytecode")
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		var nested struct {
			Object string `json:"object"`
		}
		if err := json.Unmarshal(raw, &nested); err != nil {
			return nil, fmt.Errorf("decoding bytecode: %w", err)
		}
		s = nested.Object
	}
	if !strings.HasPrefix(s, "0x") {
		s = "0x" + s
	}
	code, err := hexutil.Decode(s)
	if err != nil {
		return nil, fmt.Errorf("decoding bytecode: %w", err)
	}
	if len(code) == 0 {
		return nil, fmt.Errorf("artifact bytecode is empty (abstract contract or interface?)")
	}
	return code, nil
}

// DeployData returns the creation bytecode followed by the ABI-encoded
// constructor arguments.
func (a *Artifact) DeployData(args ...any) ([]byte, error) {
	packed, err := a.ABI.Pack("", args...)
	if err != nil {
		return nil, fmt.Errorf("packing constructor args for %s: %w", a.ContractName, err)
	}
	data := make([]byte, 0, len(a.Bytecode)+len(packed))
	data = append(data, a.Bytecode...)
	return append(data, packed...), nil
}

// ArtifactName derives a contract name from an artifact location:
// "build/contracts/TestingAavePool.json.gz" gives "TestingAavePool".
func ArtifactName(location string) string {
	name := location
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	name = strings.TrimSuffix(name, ".gz")
	return strings.TrimSuffix(name, ".json")
}
