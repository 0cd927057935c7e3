// Package account_resolver picks the signing account a command runs as.
//
// Resolution order: explicit index into the preloaded set, then the first
// preloaded account on local test networks, then a keystore account, then the
// account derived from configuration.
package account_resolver

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/ethereum/go-ethereum/common"

	"github.com/archon-research/lendpool/internal/ports/outbound"
)

var (
	// ErrNoAccount is returned when no source can provide a signer.
	ErrNoAccount = errors.New("no account available")

	// ErrAccountIndexOutOfRange is returned when an explicit index exceeds the preloaded set.
	ErrAccountIndexOutOfRange = errors.New("account index out of range")
)

// Request selects an account. A nil Index means no index was given; index 0 is explicit.
type Request struct {
	Index *int
	ID    string
}

// Source names where a resolved account came from.
type Source string

const (
	SourceIndex    Source = "index"
	SourceLocal    Source = "local"
	SourceKeystore Source = "keystore"
	SourceConfig   Source = "config"
)

// Config holds configuration for the resolver.
type Config struct {
	// Local marks a local or forked test network.
	Local  bool
	Logger *slog.Logger
}

func configDefaults() Config {
	return Config{
		Logger: slog.Default(),
	}
}

// Service resolves accounts.
type Service struct {
	config Config
	source outbound.AccountSource
	logger *slog.Logger
}

// NewService creates a new account resolver.
func NewService(config Config, source outbound.AccountSource) (*Service, error) {
	if source == nil {
		return nil, fmt.Errorf("account source cannot be nil")
	}
	if config.Logger == nil {
		config.Logger = configDefaults().Logger
	}
	return &Service{
		config: config,
		source: source,
		logger: config.Logger.With("component", "account-resolver"),
	}, nil
}

// Resolve returns exactly one signer for req, or an error.
func (s *Service) Resolve(req Request) (outbound.Account, error) {
	acct, src, err := s.resolve(req)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("account resolved", "address", acct.Address().Hex(), "source", string(src))
	return acct, nil
}

func (s *Service) resolve(req Request) (outbound.Account, Source, error) {
	if req.Index != nil {
		acct, err := s.preloaded(*req.Index)
		return acct, SourceIndex, err
	}

	if s.config.Local {
		acct, err := s.preloaded(0)
		if errors.Is(err, ErrAccountIndexOutOfRange) {
			return nil, SourceLocal, fmt.Errorf("%w: local network has no preloaded accounts", ErrNoAccount)
		}
		return acct, SourceLocal, err
	}

	if req.ID != "" {
		acct, err := s.source.Keystore(req.ID)
		if err != nil {
			return nil, SourceKeystore, fmt.Errorf("loading keystore account %q: %w", req.ID, err)
		}
		return acct, SourceKeystore, nil
	}

	acct, err := s.source.Configured()
	if errors.Is(err, outbound.ErrAccountNotConfigured) {
		return nil, SourceConfig, fmt.Errorf("%w: pass --account-index or --account-id, or set wallets.from_key", ErrNoAccount)
	}
	if err != nil {
		return nil, SourceConfig, fmt.Errorf("loading configured account: %w", err)
	}
	return acct, SourceConfig, nil
}

func (s *Service) preloaded(index int) (outbound.Account, error) {
	accts, err := s.source.Preloaded()
	if err != nil {
		return nil, fmt.Errorf("loading preloaded accounts: %w", err)
	}
	if index < 0 || index >= len(accts) {
		return nil, fmt.Errorf("%w: index %d, %d accounts available", ErrAccountIndexOutOfRange, index, len(accts))
	}
	return accts[index], nil
}

// List returns the addresses of the preloaded account set in order.
func (s *Service) List() ([]common.Address, error) {
	accts, err := s.source.Preloaded()
	if err != nil {
		return nil, fmt.Errorf("loading preloaded accounts: %w", err)
	}
	out := make([]common.Address, len(accts))
	for i, a := range accts {
		out[i] = a.Address()
	}
	return out, nil
}
