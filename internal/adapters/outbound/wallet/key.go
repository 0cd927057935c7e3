// Package wallet provides signing accounts: raw private keys, encrypted
// keystore files, and the development accounts of local test nodes.
package wallet

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/archon-research/lendpool/internal/ports/outbound"
)

var _ outbound.Account = (*KeyAccount)(nil)

// KeyAccount signs with an in-memory private key.
type KeyAccount struct {
	key     *ecdsa.PrivateKey
	address common.Address
}

// NewKeyAccount parses a hex private key, with or without 0x prefix.
func NewKeyAccount(hexKey string) (*KeyAccount, error) {
	hexKey = strings.TrimPrefix(strings.TrimSpace(hexKey), "0x")
	if hexKey == "" {
		return nil, fmt.Errorf("private key is empty")
	}
	key, err := crypto.HexToECDSA(hexKey)
	if err != nil {
		// Never echo the key material.
		return nil, fmt.Errorf("invalid private key")
	}
	return &KeyAccount{key: key, address: crypto.PubkeyToAddress(key.PublicKey)}, nil
}

func (a *KeyAccount) Address() common.Address {
	return a.address
}

func (a *KeyAccount) SignTx(_ context.Context, tx *types.Transaction, chainID *big.Int) (*types.Transaction, error) {
	return types.SignTx(tx, types.LatestSignerForChainID(chainID), a.key)
}
