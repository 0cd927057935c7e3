package wallet

import (
	"fmt"
	"sync"

	"github.com/archon-research/lendpool/internal/ports/outbound"
)

var _ outbound.AccountSource = (*Source)(nil)

// SourceConfig holds the credentials available to a network.
type SourceConfig struct {
	// Local enables the built-in development keys when DevKeys is empty.
	Local bool

	// DevKeys overrides the preloaded account set.
	DevKeys []string

	KeystoreDir      string
	KeystorePassword string

	// PrivateKey backs the configuration-derived account.
	PrivateKey string
}

// Source implements outbound.AccountSource.
type Source struct {
	config SourceConfig

	once     sync.Once
	devAccts []outbound.Account
	devErr   error
}

func NewSource(config SourceConfig) *Source {
	return &Source{config: config}
}

func (s *Source) Preloaded() ([]outbound.Account, error) {
	s.once.Do(func() {
		if len(s.config.DevKeys) == 0 && !s.config.Local {
			s.devAccts = []outbound.Account{}
			return
		}
		accts, err := LoadDevAccounts(s.config.DevKeys)
		if err != nil {
			s.devErr = err
			return
		}
		s.devAccts = make([]outbound.Account, len(accts))
		for i, a := range accts {
			s.devAccts[i] = a
		}
	})
	return s.devAccts, s.devErr
}

func (s *Source) Keystore(id string) (outbound.Account, error) {
	if s.config.KeystoreDir == "" {
		return nil, fmt.Errorf("keystore: %w", outbound.ErrAccountNotConfigured)
	}
	return LoadKeystoreAccount(s.config.KeystoreDir, id, s.config.KeystorePassword)
}

func (s *Source) Configured() (outbound.Account, error) {
	if s.config.PrivateKey == "" {
		return nil, fmt.Errorf("wallets.from_key: %w", outbound.ErrAccountNotConfigured)
	}
	acct, err := NewKeyAccount(s.config.PrivateKey)
	if err != nil {
		return nil, fmt.Errorf("wallets.from_key: %w", err)
	}
	return acct, nil
}
