// Package config resolves the network and credentials a command runs with.
//
// Sources, lowest precedence first: built-in presets, the YAML config file,
// .env files, the process environment.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/ethereum/go-ethereum/common"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/archon-research/lendpool/internal/domain/entity"
	"github.com/archon-research/lendpool/internal/pkg/blockchain"
	"github.com/archon-research/lendpool/internal/pkg/env"
)

// DefaultPath is the config file read when no path is given.
const DefaultPath = "lendpool.yaml"

// DefaultDataDir is where deployments and the transaction journal are kept
// when no database is configured.
const DefaultDataDir = ".lendpool"

// File is the on-disk layout of lendpool.yaml.
type File struct {
	Networks map[string]NetworkFile `yaml:"networks"`
	Wallets  struct {
		FromKey string `yaml:"from_key"`
	} `yaml:"wallets"`
	Keystore struct {
		Dir string `yaml:"dir"`
	} `yaml:"keystore"`
	DevKeys []string `yaml:"dev_keys"`
	DataDir string   `yaml:"data_dir"`
}

// NetworkFile is one entry under networks. Pointer fields distinguish
// "unset" from an explicit zero so presets can be partially overridden.
type NetworkFile struct {
	RPCURL        string        `yaml:"rpc_url"`
	ChainID       *int64        `yaml:"chain_id"`
	Local         *bool         `yaml:"local"`
	GasLimit      *uint64       `yaml:"gas_limit"`
	Confirmations *uint64       `yaml:"confirmations"`
	Contracts     ContractsFile `yaml:"contracts"`
}

// ContractsFile holds hex addresses; empty means unset.
type ContractsFile struct {
	PoolAddressesProvider string `yaml:"pool_addresses_provider"`
	Pool                  string `yaml:"pool"`
	WETH                  string `yaml:"weth"`
	Oracle                string `yaml:"oracle"`
}

// Config is the resolved configuration for one network.
type Config struct {
	Network entity.Network

	FromKey          string
	KeystoreDir      string
	KeystorePassword string
	DevKeys          []string

	// DataDir holds the file-backed deployments and journal when DatabaseURL is empty.
	DataDir string

	DatabaseURL     string
	RedisAddr       string
	SNSTopicARN     string
	EtherscanAPIKey string
	OTLPEndpoint    string
	S3Region        string

	LogLevel slog.Level
}

// Options controls Load.
type Options struct {
	// Network is the environment name, e.g. "hardhat" or "sepolia".
	Network string

	// Path is the config file. Empty means DefaultPath, which may be absent.
	Path string

	// EnvDir is where .env files are looked up. Empty means the working directory.
	EnvDir string
}

// Load resolves the configuration for opts.Network.
func Load(opts Options) (*Config, error) {
	if opts.Network == "" {
		return nil, errors.New("invalid network name")
	}

	if err := loadEnvFiles(opts.EnvDir, opts.Network); err != nil {
		return nil, err
	}

	file, err := readFile(opts.Path)
	if err != nil {
		return nil, err
	}

	network, err := resolveNetwork(opts.Network, file)
	if err != nil {
		return nil, err
	}
	applyNetworkEnv(&network)

	if err := network.Validate(); err != nil {
		return nil, err
	}

	return &Config{
		Network:          network,
		FromKey:          env.Get("PRIVATE_KEY", file.Wallets.FromKey),
		KeystoreDir:      env.Get("KEYSTORE_DIR", file.Keystore.Dir),
		KeystorePassword: env.Get("KEYSTORE_PASSWORD", ""),
		DevKeys:          file.DevKeys,
		DataDir:          env.Get("LENDPOOL_DATA_DIR", dataDir(file.DataDir)),
		DatabaseURL:      env.Get("DATABASE_URL", ""),
		RedisAddr:        env.Get("REDIS_ADDR", ""),
		SNSTopicARN:      env.Get("SNS_TOPIC_ARN", ""),
		EtherscanAPIKey:  env.Get("ETHERSCAN_API_KEY", ""),
		OTLPEndpoint:     env.Get("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		S3Region:         env.First("", "AWS_REGION", "AWS_DEFAULT_REGION"),
		LogLevel:         env.ParseLogLevel(slog.LevelInfo),
	}, nil
}

func dataDir(fromFile string) string {
	if fromFile != "" {
		return fromFile
	}
	return DefaultDataDir
}

// NetworkNames returns the preset names merged with those in the file at path.
func NetworkNames(path string) ([]string, error) {
	file, err := readFile(path)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	for name := range presets {
		seen[name] = true
	}
	for name := range file.Networks {
		seen[name] = true
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// loadEnvFiles loads .env.<network> then .env. godotenv never overrides
// variables that are already set, so the process environment wins and the
// network-specific file wins over the shared one.
func loadEnvFiles(dir, network string) error {
	var files []string
	for _, name := range []string{".env." + network, ".env"} {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			files = append(files, path)
		}
	}
	if len(files) == 0 {
		return nil
	}
	if err := godotenv.Load(files...); err != nil {
		return fmt.Errorf("loading env files: %w", err)
	}
	return nil
}

func readFile(path string) (*File, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}

	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) && !explicit {
		return &File{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var file File
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(raw))), &file); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return &file, nil
}

func resolveNetwork(name string, file *File) (entity.Network, error) {
	network, hasPreset := presets[name]
	if !hasPreset {
		network = entity.Network{GasLimit: blockchain.DefaultGasLimit, Confirmations: 1}
	}
	network.Name = name

	nf, inFile := file.Networks[name]
	if !hasPreset && !inFile {
		return entity.Network{}, fmt.Errorf("invalid network name %q", name)
	}
	if !inFile {
		return network, nil
	}

	if nf.RPCURL != "" {
		network.RPCURL = nf.RPCURL
	}
	if nf.ChainID != nil {
		network.ChainID = *nf.ChainID
	}
	if nf.Local != nil {
		network.Local = *nf.Local
	}
	if nf.GasLimit != nil {
		network.GasLimit = *nf.GasLimit
	}
	if nf.Confirmations != nil {
		network.Confirmations = *nf.Confirmations
	}

	fields := []struct {
		field string
		value string
		dst   *common.Address
	}{
		{"pool_addresses_provider", nf.Contracts.PoolAddressesProvider, &network.Contracts.PoolAddressesProvider},
		{"pool", nf.Contracts.Pool, &network.Contracts.Pool},
		{"weth", nf.Contracts.WETH, &network.Contracts.WETH},
		{"oracle", nf.Contracts.Oracle, &network.Contracts.Oracle},
	}
	for _, f := range fields {
		if f.value == "" {
			continue
		}
		addr, err := parseAddress(f.value)
		if err != nil {
			return entity.Network{}, fmt.Errorf("network %q: contracts.%s: %w", name, f.field, err)
		}
		*f.dst = addr
	}
	return network, nil
}

// applyNetworkEnv applies the per-network overrides used by the deployment scripts.
func applyNetworkEnv(n *entity.Network) {
	n.RPCURL = env.Get("URL", n.RPCURL)
	n.GasLimit = env.GetUint64("GAS_LIMIT", n.GasLimit)
	if addr, err := parseAddress(env.Get("AAVE_POOL_ADDRESS", "")); err == nil {
		n.Contracts.Pool = addr
	}
	if addr, err := parseAddress(env.First("", "WETH_ADDRESS", "WRAPPED_NATIVE_TOKEN_ADDRESS")); err == nil {
		n.Contracts.WETH = addr
	}
}

func parseAddress(s string) (common.Address, error) {
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("invalid address %q", s)
	}
	return common.HexToAddress(s), nil
}
