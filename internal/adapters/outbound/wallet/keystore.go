package wallet

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"path/filepath"
	"strings"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/archon-research/lendpool/internal/ports/outbound"
)

// ErrKeystoreAccountNotFound is returned when no key file matches the identifier.
var ErrKeystoreAccountNotFound = errors.New("keystore account not found")

var _ outbound.Account = (*KeystoreAccount)(nil)

// KeystoreAccount signs with a passphrase-protected key file.
type KeystoreAccount struct {
	ks         *keystore.KeyStore
	account    accounts.Account
	passphrase string
}

// LoadKeystoreAccount finds id in dir and verifies the passphrase. id is
// either an address or a key file name (with or without extension).
func LoadKeystoreAccount(dir, id, passphrase string) (*KeystoreAccount, error) {
	if dir == "" {
		return nil, fmt.Errorf("keystore directory not configured")
	}
	ks := keystore.NewKeyStore(dir, keystore.LightScryptN, keystore.LightScryptP)

	acct, err := findAccount(ks, id)
	if err != nil {
		return nil, err
	}

	// Unlock and immediately relock to fail fast on a wrong passphrase.
	if err := ks.Unlock(acct, passphrase); err != nil {
		return nil, fmt.Errorf("unlocking keystore account %s: %w", acct.Address.Hex(), err)
	}
	if err := ks.Lock(acct.Address); err != nil {
		return nil, fmt.Errorf("locking keystore account: %w", err)
	}

	return &KeystoreAccount{ks: ks, account: acct, passphrase: passphrase}, nil
}

func findAccount(ks *keystore.KeyStore, id string) (accounts.Account, error) {
	if common.IsHexAddress(id) {
		acct, err := ks.Find(accounts.Account{Address: common.HexToAddress(id)})
		if err != nil {
			return accounts.Account{}, fmt.Errorf("%w: %s", ErrKeystoreAccountNotFound, id)
		}
		return acct, nil
	}
	for _, acct := range ks.Accounts() {
		base := filepath.Base(acct.URL.Path)
		if base == id || strings.TrimSuffix(base, filepath.Ext(base)) == id {
			return acct, nil
		}
	}
	return accounts.Account{}, fmt.Errorf("%w: %s", ErrKeystoreAccountNotFound, id)
}

func (a *KeystoreAccount) Address() common.Address {
	return a.account.Address
}

func (a *KeystoreAccount) SignTx(_ context.Context, tx *types.Transaction, chainID *big.Int) (*types.Transaction, error) {
	return a.ks.SignTxWithPassphrase(a.account, a.passphrase, tx, chainID)
}
