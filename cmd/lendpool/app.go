package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awssns "github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/spf13/cobra"

	"github.com/archon-research/lendpool/internal/adapters/outbound/artifacts"
	"github.com/archon-research/lendpool/internal/adapters/outbound/ethereum"
	"github.com/archon-research/lendpool/internal/adapters/outbound/etherscan"
	"github.com/archon-research/lendpool/internal/adapters/outbound/filestore"
	"github.com/archon-research/lendpool/internal/adapters/outbound/memory"
	"github.com/archon-research/lendpool/internal/adapters/outbound/postgres"
	"github.com/archon-research/lendpool/internal/adapters/outbound/redis"
	"github.com/archon-research/lendpool/internal/adapters/outbound/s3"
	"github.com/archon-research/lendpool/internal/adapters/outbound/sns"
	"github.com/archon-research/lendpool/internal/adapters/outbound/telemetry"
	"github.com/archon-research/lendpool/internal/adapters/outbound/wallet"
	"github.com/archon-research/lendpool/internal/config"
	"github.com/archon-research/lendpool/internal/pkg/blockchain"
	"github.com/archon-research/lendpool/internal/pkg/blockchain/multicall"
	"github.com/archon-research/lendpool/internal/ports/outbound"
	"github.com/archon-research/lendpool/internal/services/account_resolver"
	"github.com/archon-research/lendpool/internal/services/contract_call"
	"github.com/archon-research/lendpool/internal/services/deployer"
	"github.com/archon-research/lendpool/internal/services/lending"
	"github.com/archon-research/lendpool/internal/services/shared"
	"github.com/archon-research/lendpool/internal/services/weth"
)

const serviceName = "lendpool"

// app holds the adapters and services for one command invocation.
type app struct {
	cfg    *config.Config
	logger *slog.Logger
	out    io.Writer

	deployments outbound.DeploymentRepository
	journal     outbound.TransactionJournal
	events      outbound.EventSink
	cache       outbound.TokenCache
	awsCfg      *aws.Config

	client      *ethclient.Client
	transactor  *ethereum.Transactor
	multicaller *multicall.Client
	resolver    *blockchain.AaveResolver
	tokens      *shared.TokenLookup
	accounts    *account_resolver.Service

	closers []func(context.Context) error
}

// runWithApp loads configuration, wires the adapters, runs fn and releases
// everything it opened.
func runWithApp(cmd *cobra.Command, flags *globalFlags, connect bool, fn func(ctx context.Context, a *app) error) error {
	ctx := cmd.Context()
	a, err := newApp(ctx, flags, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer a.close()

	if connect {
		if err := a.connect(ctx); err != nil {
			return err
		}
	}
	return fn(ctx, a)
}

func newApp(ctx context.Context, flags *globalFlags, out io.Writer) (*app, error) {
	cfg, err := config.Load(config.Options{Network: flags.network, Path: flags.configPath})
	if err != nil {
		return nil, err
	}

	level := cfg.LogLevel
	if flags.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	a := &app{cfg: cfg, logger: logger, out: out}
	if err := a.initTelemetry(ctx); err != nil {
		a.close()
		return nil, err
	}
	if err := a.initPersistence(ctx); err != nil {
		a.close()
		return nil, err
	}
	if err := a.initCache(ctx); err != nil {
		a.close()
		return nil, err
	}
	if err := a.initEvents(ctx); err != nil {
		a.close()
		return nil, err
	}

	accounts, err := account_resolver.NewService(account_resolver.Config{
		Local:  cfg.Network.Local,
		Logger: logger,
	}, wallet.NewSource(wallet.SourceConfig{
		Local:            cfg.Network.Local,
		DevKeys:          cfg.DevKeys,
		KeystoreDir:      cfg.KeystoreDir,
		KeystorePassword: cfg.KeystorePassword,
		PrivateKey:       cfg.FromKey,
	}))
	if err != nil {
		a.close()
		return nil, err
	}
	a.accounts = accounts
	return a, nil
}

func (a *app) initTelemetry(ctx context.Context) error {
	shutdownTracer, err := telemetry.InitTracer(ctx, telemetry.TracerConfig{
		ServiceName:    serviceName,
		ServiceVersion: GitCommit,
		Environment:    a.cfg.Network.Name,
		OTLPEndpoint:   a.cfg.OTLPEndpoint,
	})
	if err != nil {
		return fmt.Errorf("initializing tracer: %w", err)
	}
	a.closers = append(a.closers, shutdownTracer)

	shutdownMetrics, err := telemetry.InitMetrics(ctx, telemetry.MetricConfig{
		ServiceName:    serviceName,
		ServiceVersion: GitCommit,
		Environment:    a.cfg.Network.Name,
		OTLPEndpoint:   a.cfg.OTLPEndpoint,
	})
	if err != nil {
		return fmt.Errorf("initializing metrics: %w", err)
	}
	a.closers = append(a.closers, shutdownMetrics)
	return nil
}

// initPersistence uses PostgreSQL when DATABASE_URL is set and JSON files
// under the data directory otherwise.
func (a *app) initPersistence(ctx context.Context) error {
	if a.cfg.DatabaseURL == "" {
		var err error
		if a.deployments, err = filestore.NewDeploymentRepository(a.cfg.DataDir, a.logger); err != nil {
			return err
		}
		if a.journal, err = filestore.NewTransactionJournal(a.cfg.DataDir, a.logger); err != nil {
			return err
		}
		a.logger.Debug("using file storage", "dir", a.cfg.DataDir)
		return nil
	}

	pool, err := postgres.OpenPool(ctx, postgres.DefaultDBConfig(a.cfg.DatabaseURL))
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	a.closers = append(a.closers, func(context.Context) error {
		pool.Close()
		return nil
	})

	if a.deployments, err = postgres.NewDeploymentRepository(pool, a.logger); err != nil {
		return err
	}
	if a.journal, err = postgres.NewTransactionJournal(pool, a.logger); err != nil {
		return err
	}
	return nil
}

// initCache uses Redis when REDIS_ADDR is set. An unreachable Redis degrades
// to the in-memory cache.
func (a *app) initCache(ctx context.Context) error {
	if a.cfg.RedisAddr == "" {
		a.cache = memory.NewTokenCache()
		return nil
	}

	cache, err := redis.NewTokenCache(redis.Config{Addr: a.cfg.RedisAddr}, a.logger)
	if err != nil {
		return err
	}
	if err := cache.Ping(ctx); err != nil {
		a.logger.Warn("redis unavailable, using in-memory token cache", "addr", a.cfg.RedisAddr, "error", err)
		cache.Close()
		a.cache = memory.NewTokenCache()
		return nil
	}
	a.cache = cache
	a.closers = append(a.closers, func(context.Context) error { return cache.Close() })
	return nil
}

func (a *app) initEvents(ctx context.Context) error {
	if a.cfg.SNSTopicARN == "" {
		a.events = memory.NewEventSink()
		return nil
	}

	awsCfg, err := a.awsConfig(ctx)
	if err != nil {
		return err
	}
	sink, err := sns.NewEventSink(awssns.NewFromConfig(awsCfg), sns.Config{
		TopicARN: a.cfg.SNSTopicARN,
		Logger:   a.logger,
	})
	if err != nil {
		return fmt.Errorf("creating SNS event sink: %w", err)
	}
	a.events = sink
	a.closers = append(a.closers, func(context.Context) error { return sink.Close() })
	return nil
}

func (a *app) awsConfig(ctx context.Context) (aws.Config, error) {
	if a.awsCfg != nil {
		return *a.awsCfg, nil
	}
	var opts []func(*awsconfig.LoadOptions) error
	if a.cfg.S3Region != "" {
		opts = append(opts, awsconfig.WithRegion(a.cfg.S3Region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("loading AWS config: %w", err)
	}
	a.awsCfg = &awsCfg
	return awsCfg, nil
}

// connect dials the network and builds the chain-facing adapters.
func (a *app) connect(ctx context.Context) error {
	network := &a.cfg.Network
	client, err := ethereum.Dial(ctx, network, ethereum.DialConfig{Logger: a.logger})
	if err != nil {
		return err
	}
	a.client = client
	a.closers = append(a.closers, func(context.Context) error {
		client.Close()
		return nil
	})

	metrics, err := telemetry.NewMetrics(serviceName, network.Name)
	if err != nil {
		return err
	}
	a.transactor, err = ethereum.NewTransactor(client, ethereum.TransactorConfig{
		Network: network,
		Journal: a.journal,
		Events:  a.events,
		Metrics: metrics,
		Logger:  a.logger,
	})
	if err != nil {
		return err
	}

	if a.multicaller, err = multicall.NewClient(client, blockchain.Multicall3); err != nil {
		return err
	}
	if a.resolver, err = blockchain.NewAaveResolver(client, network.Contracts); err != nil {
		return err
	}
	if a.tokens, err = shared.NewTokenLookup(network.ChainID, a.multicaller, a.cache, a.logger); err != nil {
		return err
	}
	return nil
}

func (a *app) close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			a.logger.Warn("shutdown", "error", err)
		}
	}
	a.closers = nil
}

func (a *app) account(cmd *cobra.Command, flags *globalFlags) (outbound.Account, error) {
	acct, err := a.accounts.Resolve(flags.accountRequest(cmd))
	if err != nil {
		return nil, err
	}
	a.logger.Debug("using account", "address", acct.Address().Hex())
	return acct, nil
}

// artifactReader loads AWS configuration only when an s3:// artifact is read,
// so a region from the shared config files is enough.
func (a *app) artifactReader() outbound.ArtifactReader {
	return artifacts.NewLazyReader(func(ctx context.Context) (outbound.S3Reader, error) {
		awsCfg, err := a.awsConfig(ctx)
		if err != nil {
			return nil, err
		}
		return s3.NewReader(awsCfg, a.logger), nil
	})
}

func (a *app) lendingService(fraction float64) (*lending.Service, error) {
	return lending.NewService(lending.Config{
		BorrowFraction: fraction,
		Out:            a.out,
		Logger:         a.logger,
	}, a.client, a.transactor, a.multicaller, a.resolver, a.tokens)
}

func (a *app) wethService() (*weth.Service, error) {
	return weth.NewService(weth.Config{Out: a.out, Logger: a.logger},
		a.client, a.transactor, a.cfg.Network.Contracts.WETH)
}

func (a *app) deployerService() (*deployer.Service, error) {
	return deployer.NewService(deployer.Config{
		Network: &a.cfg.Network,
		Out:     a.out,
		Logger:  a.logger,
	}, a.transactor, a.artifactReader(), a.deployments, a.events)
}

func (a *app) callService() (*contract_call.Service, error) {
	var explorer outbound.ABISource
	if a.cfg.EtherscanAPIKey != "" {
		client, err := etherscan.NewClient(etherscan.ClientConfig{
			APIKey:  a.cfg.EtherscanAPIKey,
			ChainID: a.cfg.Network.ChainID,
			Logger:  a.logger,
		})
		if err != nil {
			return nil, err
		}
		explorer = client
	}
	return contract_call.NewService(contract_call.Config{Out: a.out, Logger: a.logger}, a.client, a.artifactReader(), explorer)
}

// amount parses s in token units of asset, or as base units when raw is set.
func (a *app) amount(ctx context.Context, asset common.Address, s string, raw bool) (*big.Int, error) {
	if raw {
		return parseRawAmount(s)
	}
	meta, err := a.tokens.Get(ctx, asset)
	if err != nil {
		return nil, err
	}
	return blockchain.ParseUnits(s, int(meta.Decimals))
}

// optionalAmount returns nil for an empty string or "max".
func (a *app) optionalAmount(ctx context.Context, asset common.Address, s string, raw bool) (*big.Int, error) {
	if s == "" || strings.EqualFold(s, "max") {
		return nil, nil
	}
	return a.amount(ctx, asset, s, raw)
}
