package blockchain

import (
	"bytes"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

const testingPoolABI = `[{"inputs":[{"internalType":"address","name":"provider","type":"address"}],"stateMutability":"nonpayable","type":"constructor"}]`

func TestParseArtifact(t *testing.T) {
	tests := []struct {
		name        string
		json        string
		fallback    string
		wantName    string
		wantCode    []byte
		errContains string
	}{
		{
			name:     "hardhat",
			json:     `{"contractName":"TestingAavePool","abi":` + testingPoolABI + `,"bytecode":"0x6080"}`,
			wantName: "TestingAavePool",
			wantCode: []byte{0x60, 0x80},
		},
		{
			name:     "brownie without prefix",
			json:     `{"contractName":"TestingAavePool","abi":` + testingPoolABI + `,"bytecode":"6080"}`,
			wantName: "TestingAavePool",
			wantCode: []byte{0x60, 0x80},
		},
		{
			name:     "foundry nested object",
			json:     `{"abi":` + testingPoolABI + `,"bytecode":{"object":"0x6080"}}`,
			fallback: "TestingAavePool",
			wantName: "TestingAavePool",
			wantCode: []byte{0x60, 0x80},
		},
		{
			name:        "missing abi",
			json:        `{"contractName":"X","bytecode":"0x6080"}`,
			errContains: "no abi",
		},
		{
			name:        "empty bytecode",
			json:        `{"contractName":"IPool","abi":[],"bytecode":"0x"}`,
			errContains: "bytecode is empty",
		},
		{
			name:        "no name",
			json:        `{"abi":[],"bytecode":"0x6080"}`,
			errContains: "no contract name",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := ParseArtifact([]byte(tt.json), tt.fallback)
			if tt.errContains != "" {
				if err == nil || !strings.Contains(err.Error(), tt.errContains) {
					t.Fatalf("expected error containing %q, got %v", tt.errContains, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if a.ContractName != tt.wantName {
				t.Errorf("name = %q, want %q", a.ContractName, tt.wantName)
			}
			if !bytes.Equal(a.Bytecode, tt.wantCode) {
				t.Errorf("bytecode = %x, want %x", a.Bytecode, tt.wantCode)
			}
		})
	}
}

func TestArtifact_DeployDataAppendsConstructorArgs(t *testing.T) {
	a, err := ParseArtifact([]byte(`{"contractName":"TestingAavePool","abi":`+testingPoolABI+`,"bytecode":"0x6080"}`), "")
	if err != nil {
		t.Fatalf("ParseArtifact: %v", err)
	}
	provider := common.HexToAddress("0x2f39d218133AFaB8F2B819B1066c7E434Ad94E9e")

	data, err := a.DeployData(provider)
	if err != nil {
		t.Fatalf("DeployData: %v", err)
	}
	if len(data) != 2+32 {
		t.Fatalf("len = %d, want 34", len(data))
	}
	if !bytes.Equal(data[:2], []byte{0x60, 0x80}) {
		t.Errorf("bytecode prefix = %x", data[:2])
	}
	if common.BytesToAddress(data[2:]) != provider {
		t.Errorf("constructor arg = %x, want %s", data[2:], provider.Hex())
	}

	if _, err := a.DeployData(); err == nil {
		t.Error("expected error for missing constructor arg")
	}
}

func TestArtifactName(t *testing.T) {
	tests := map[string]string{
		"artifacts/contracts/TestingAavePool.sol/TestingAavePool.json": "TestingAavePool",
		"s3://b/artifacts/TestingAavePool.json.gz":                     "TestingAavePool",
		"Pool":                                                         "Pool",
	}
	for in, want := range tests {
		if got := ArtifactName(in); got != want {
			t.Errorf("ArtifactName(%q) = %q, want %q", in, got, want)
		}
	}
}
