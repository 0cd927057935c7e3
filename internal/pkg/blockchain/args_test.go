package blockchain

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

func mustType(t *testing.T, s string) abi.Type {
	t.Helper()
	typ, err := abi.NewType(s, "", nil)
	if err != nil {
		t.Fatalf("NewType(%s): %v", s, err)
	}
	return typ
}

func TestParseArgs(t *testing.T) {
	inputs := abi.Arguments{
		{Name: "asset", Type: mustType(t, "address")},
		{Name: "amount", Type: mustType(t, "uint256")},
		{Name: "referralCode", Type: mustType(t, "uint16")},
		{Name: "flag", Type: mustType(t, "bool")},
		{Name: "delta", Type: mustType(t, "int64")},
	}

	got, err := ParseArgs(inputs, []string{
		"0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2", "1000000000000000000000", "0", "true", "-7",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got[0].(common.Address) != common.HexToAddress("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2") {
		t.Errorf("asset = %v", got[0])
	}
	want, _ := new(big.Int).SetString("1000000000000000000000", 10)
	if got[1].(*big.Int).Cmp(want) != 0 {
		t.Errorf("amount = %v", got[1])
	}
	if got[2].(uint16) != 0 {
		t.Errorf("referralCode = %v", got[2])
	}
	if got[3].(bool) != true {
		t.Errorf("flag = %v", got[3])
	}
	if got[4].(int64) != -7 {
		t.Errorf("delta = %v", got[4])
	}

	// The parsed values must be accepted by the ABI encoder.
	if _, err := inputs.Pack(got...); err != nil {
		t.Errorf("Pack rejected parsed args: %v", err)
	}
}

func TestParseArgs_Errors(t *testing.T) {
	tests := []struct {
		name string
		typ  string
		raw  string
	}{
		{name: "bad address", typ: "address", raw: "0x1234"},
		{name: "negative uint", typ: "uint256", raw: "-1"},
		{name: "uint8 overflow", typ: "uint8", raw: "256"},
		{name: "int8 overflow", typ: "int8", raw: "128"},
		{name: "not a number", typ: "uint256", raw: "lots"},
		{name: "bad bool", typ: "bool", raw: "maybe"},
		{name: "array", typ: "address[]", raw: "[]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inputs := abi.Arguments{{Name: "x", Type: mustType(t, tt.typ)}}
			if _, err := ParseArgs(inputs, []string{tt.raw}); err == nil {
				t.Fatal("expected error")
			}
		})
	}

	t.Run("arity", func(t *testing.T) {
		inputs := abi.Arguments{{Name: "x", Type: mustType(t, "bool")}}
		if _, err := ParseArgs(inputs, nil); err == nil {
			t.Fatal("expected arity error")
		}
	})
}
