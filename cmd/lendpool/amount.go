package main

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"github.com/archon-research/lendpool/internal/domain/entity"
)

// parseRawAmount parses a non-negative integer amount in base units.
func parseRawAmount(s string) (*big.Int, error) {
	v, ok := new(big.Int).SetString(strings.TrimSpace(s), 10)
	if !ok {
		return nil, fmt.Errorf("invalid amount %q", s)
	}
	if v.Sign() < 0 {
		return nil, fmt.Errorf("amount must not be negative: %q", s)
	}
	return v, nil
}

// parseAddress requires a non-zero hex address. what names the argument in errors.
func parseAddress(what, s string) (common.Address, error) {
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("%s: invalid address %q", what, s)
	}
	addr := common.HexToAddress(s)
	if !entity.IsSet(addr) {
		return common.Address{}, fmt.Errorf("%s: zero address", what)
	}
	return addr, nil
}

// parseOptionalAddress returns the zero address for an empty string.
func parseOptionalAddress(what, s string) (common.Address, error) {
	if s == "" {
		return common.Address{}, nil
	}
	return parseAddress(what, s)
}
