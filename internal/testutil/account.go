package testutil

import (
	"context"
	"crypto/ecdsa"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

// Well-known hardhat/anvil development keys #0 and #1.
const (
	DevKey0 = "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"
	DevKey1 = "59c6995e998f97a5a0044966f0945389dc9e86dae88c7a8412f4603b6b78690d"
)

// KeyAccount is a minimal outbound.Account backed by a raw key.
type KeyAccount struct {
	key  *ecdsa.PrivateKey
	addr common.Address
}

// NewKeyAccount parses hexKey or fails the test.
func NewKeyAccount(t *testing.T, hexKey string) *KeyAccount {
	t.Helper()
	key, err := crypto.HexToECDSA(hexKey)
	if err != nil {
		t.Fatalf("parse key: %v", err)
	}
	return &KeyAccount{key: key, addr: crypto.PubkeyToAddress(key.PublicKey)}
}

func (a *KeyAccount) Address() common.Address { return a.addr }

func (a *KeyAccount) SignTx(_ context.Context, tx *types.Transaction, chainID *big.Int) (*types.Transaction, error) {
	return types.SignTx(tx, types.LatestSignerForChainID(chainID), a.key)
}
