// Package deployer deploys contracts from build artifacts and records them so
// later commands can attach to the latest deployment.
package deployer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/archon-research/lendpool/internal/domain/entity"
	"github.com/archon-research/lendpool/internal/pkg/blockchain"
	"github.com/archon-research/lendpool/internal/ports/outbound"
	"github.com/archon-research/lendpool/internal/services/shared"
)

// DefaultContract is deployed when no other contract is named.
const DefaultContract = "TestingAavePool"

// DefaultArtifact is the hardhat build output of DefaultContract.
const DefaultArtifact = "artifacts/contracts/TestingAavePool.sol/TestingAavePool.json"

// Request describes a deployment.
type Request struct {
	// Artifact is a local path or s3://bucket/key of the build artifact.
	Artifact string

	// Args are the constructor arguments as strings, parsed against the ABI.
	Args []string

	// Name overrides the contract name recorded for the deployment.
	Name string
}

// Config holds configuration for the deployer.
type Config struct {
	Network *entity.Network
	Out     io.Writer
	Logger  *slog.Logger
	Now     func() time.Time
}

func configDefaults() Config {
	return Config{
		Out:    os.Stdout,
		Logger: slog.Default(),
		Now:    time.Now,
	}
}

// Service deploys contracts.
type Service struct {
	config     Config
	transactor outbound.Transactor
	artifacts  outbound.ArtifactReader
	repo       outbound.DeploymentRepository
	events     outbound.EventSink
	logger     *slog.Logger
}

// NewService creates a deployer. events may be nil.
func NewService(
	config Config,
	transactor outbound.Transactor,
	artifacts outbound.ArtifactReader,
	repo outbound.DeploymentRepository,
	events outbound.EventSink,
) (*Service, error) {
	if config.Network == nil {
		return nil, fmt.Errorf("network cannot be nil")
	}
	if transactor == nil {
		return nil, fmt.Errorf("transactor cannot be nil")
	}
	if artifacts == nil {
		return nil, fmt.Errorf("artifact reader cannot be nil")
	}
	if repo == nil {
		return nil, fmt.Errorf("deployment repository cannot be nil")
	}

	defaults := configDefaults()
	if config.Out == nil {
		config.Out = defaults.Out
	}
	if config.Logger == nil {
		config.Logger = defaults.Logger
	}
	if config.Now == nil {
		config.Now = defaults.Now
	}

	return &Service{
		config:     config,
		transactor: transactor,
		artifacts:  artifacts,
		repo:       repo,
		events:     events,
		logger:     config.Logger.With("component", "deployer", "network", config.Network.Name),
	}, nil
}

// Deploy sends the creation transaction, waits for it and records the result.
func (s *Service) Deploy(ctx context.Context, from outbound.Account, req Request) (*entity.Deployment, error) {
	artifact, err := s.loadArtifact(ctx, req)
	if err != nil {
		return nil, err
	}

	args, err := blockchain.ParseArgs(artifact.ABI.Constructor.Inputs, req.Args)
	if err != nil {
		return nil, fmt.Errorf("constructor args for %s: %w", artifact.ContractName, err)
	}
	data, err := artifact.DeployData(args...)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Deploying contract...", "contract", artifact.ContractName, "from", from.Address().Hex())
	receipt, err := shared.SendAndWait(ctx, s.transactor, outbound.TxRequest{
		Action: "deploy",
		From:   from,
		Data:   data,
	})
	if err != nil {
		return nil, fmt.Errorf("deploying %s: %w", artifact.ContractName, err)
	}
	if !entity.IsSet(receipt.ContractAddress) {
		return nil, fmt.Errorf("deploying %s: receipt has no contract address", artifact.ContractName)
	}

	var block uint64
	if receipt.BlockNumber != nil {
		block = receipt.BlockNumber.Uint64()
	}
	d, err := entity.NewDeployment(
		s.config.Network.Name,
		s.config.Network.ChainID,
		artifact.ContractName,
		receipt.ContractAddress,
		receipt.TxHash,
		block,
		s.config.Now().UTC(),
	)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, d); err != nil {
		return nil, fmt.Errorf("recording deployment: %w", err)
	}
	s.publish(ctx, d)

	fmt.Fprintf(s.config.Out, "Deployed %s at %s\n", d.ContractName, d.Address.Hex())
	return d, nil
}

// DeployTestingPool deploys DefaultContract bound to the given PoolAddressesProvider.
func (s *Service) DeployTestingPool(ctx context.Context, from outbound.Account, artifact string, provider common.Address) (*entity.Deployment, error) {
	if !entity.IsSet(provider) {
		return nil, blockchain.ErrAddressesProviderNotConfigured
	}
	if artifact == "" {
		artifact = DefaultArtifact
	}
	return s.Deploy(ctx, from, Request{
		Artifact: artifact,
		Args:     []string{provider.Hex()},
		Name:     DefaultContract,
	})
}

// GetOrDeploy returns address when it is a valid non-zero address, otherwise
// the latest recorded deployment of req's contract, deploying one if none exists.
func (s *Service) GetOrDeploy(ctx context.Context, from outbound.Account, address string, req Request) (common.Address, error) {
	if common.IsHexAddress(address) {
		if addr := common.HexToAddress(address); entity.IsSet(addr) {
			s.logger.Info("attaching to contract", "address", addr.Hex())
			return addr, nil
		}
	}

	name := req.Name
	if name == "" {
		name = blockchain.ArtifactName(req.Artifact)
	}
	latest, err := s.repo.Latest(ctx, s.config.Network.Name, name)
	switch {
	case err == nil:
		s.logger.Info("using latest deployment", "contract", name, "address", latest.Address.Hex(), "block", latest.BlockNumber)
		return latest.Address, nil
	case !errors.Is(err, outbound.ErrNotFound):
		return common.Address{}, fmt.Errorf("looking up %s deployment: %w", name, err)
	}

	d, err := s.Deploy(ctx, from, req)
	if err != nil {
		return common.Address{}, err
	}
	return d.Address, nil
}

// List prints and returns the deployments recorded on the network, newest first.
func (s *Service) List(ctx context.Context) ([]*entity.Deployment, error) {
	deployments, err := s.repo.List(ctx, s.config.Network.Name)
	if err != nil {
		return nil, fmt.Errorf("listing deployments: %w", err)
	}
	for _, d := range deployments {
		fmt.Fprintf(s.config.Out, "%-24s %s block=%d tx=%s %s\n",
			d.ContractName, d.Address.Hex(), d.BlockNumber, d.TxHash.Hex(), d.DeployedAt.Format(time.RFC3339))
	}
	return deployments, nil
}

func (s *Service) loadArtifact(ctx context.Context, req Request) (*blockchain.Artifact, error) {
	if req.Artifact == "" {
		return nil, fmt.Errorf("artifact location is required")
	}
	data, err := s.artifacts.ReadArtifact(ctx, req.Artifact)
	if err != nil {
		return nil, err
	}
	artifact, err := blockchain.ParseArtifact(data, blockchain.ArtifactName(req.Artifact))
	if err != nil {
		return nil, fmt.Errorf("artifact %s: %w", req.Artifact, err)
	}
	if req.Name != "" {
		artifact.ContractName = req.Name
	}
	return artifact, nil
}

func (s *Service) publish(ctx context.Context, d *entity.Deployment) {
	if s.events == nil {
		return
	}
	err := s.events.Publish(ctx, outbound.ContractDeployedEvent{
		ChainID:      d.ChainID,
		Network:      d.Network,
		ContractName: d.ContractName,
		Address:      d.Address.Hex(),
		TxHash:       d.TxHash.Hex(),
		BlockNumber:  d.BlockNumber,
		DeployedAt:   d.DeployedAt,
	})
	if err != nil {
		s.logger.Warn("failed to publish deployment event", "contract", d.ContractName, "error", err)
	}
}
