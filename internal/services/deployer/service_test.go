package deployer

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	ethadapter "github.com/archon-research/lendpool/internal/adapters/outbound/ethereum"
	"github.com/archon-research/lendpool/internal/adapters/outbound/filestore"
	"github.com/archon-research/lendpool/internal/adapters/outbound/memory"
	"github.com/archon-research/lendpool/internal/domain/entity"
	"github.com/archon-research/lendpool/internal/pkg/blockchain"
	"github.com/archon-research/lendpool/internal/ports/outbound"
	"github.com/archon-research/lendpool/internal/testutil"
)

const testingPoolArtifact = `{
	"contractName": "TestingAavePool",
	"abi": [{"inputs":[{"internalType":"address","name":"provider","type":"address"}],"stateMutability":"nonpayable","type":"constructor"}],
	"bytecode": "0x6080604052"
}`

var providerAddr = common.HexToAddress("0x2f39d218133AFaB8F2B819B1066c7E434Ad94E9e")

type stubArtifacts map[string]string

func (s stubArtifacts) ReadArtifact(_ context.Context, location string) ([]byte, error) {
	data, ok := s[location]
	if !ok {
		return nil, errors.New("no artifact at " + location)
	}
	return []byte(data), nil
}

type fixture struct {
	chain    *testutil.FakeChain
	recorder *testutil.RecordingTransactor
	repo     *memory.DeploymentRepository
	events   *memory.EventSink
	account  *testutil.KeyAccount
	out      *bytes.Buffer
	svc      *Service
	now      time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	network := &entity.Network{Name: "hardhat", ChainID: 31337, RPCURL: "http://127.0.0.1:8545", GasLimit: blockchain.DefaultGasLimit, Confirmations: 1}
	f := &fixture{
		chain:   testutil.NewFakeChain(network.ChainID),
		repo:    memory.NewDeploymentRepository(),
		events:  memory.NewEventSink(),
		account: testutil.NewKeyAccount(t, testutil.DevKey0),
		out:     &bytes.Buffer{},
		now:     time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	inner, err := ethadapter.NewTransactor(f.chain, ethadapter.TransactorConfig{
		Network:      network,
		PollInterval: time.Millisecond,
		MineTimeout:  time.Second,
		Logger:       testutil.DiscardLogger(),
	})
	if err != nil {
		t.Fatal(err)
	}
	f.recorder = testutil.NewRecordingTransactor(inner)

	artifacts := stubArtifacts{
		DefaultArtifact:             testingPoolArtifact,
		"s3://builds/Pool.json.gz": testingPoolArtifact,
	}
	f.svc, err = NewService(Config{
		Network: network,
		Out:     f.out,
		Logger:  testutil.DiscardLogger(),
		Now:     func() time.Time { return f.now },
	}, f.recorder, artifacts, f.repo, f.events)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return f
}

func TestDeployTestingPool(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	d, err := f.svc.DeployTestingPool(ctx, f.account, "", providerAddr)
	if err != nil {
		t.Fatalf("DeployTestingPool: %v", err)
	}

	want := crypto.CreateAddress(f.account.Address(), 0)
	if d.Address != want {
		t.Errorf("address = %s, want %s", d.Address.Hex(), want.Hex())
	}
	if d.ContractName != DefaultContract || d.Network != "hardhat" || d.ChainID != 31337 || !d.DeployedAt.Equal(f.now) {
		t.Errorf("deployment = %+v", d)
	}

	if len(f.chain.Sent) != 1 || f.chain.Sent[0].To() != nil {
		t.Fatalf("expected one creation tx, got %d", len(f.chain.Sent))
	}
	data := f.chain.Sent[0].Data()
	if !bytes.HasPrefix(data, []byte{0x60, 0x80, 0x60, 0x40, 0x52}) {
		t.Errorf("data does not start with bytecode: %x", data[:5])
	}
	if common.BytesToAddress(data[len(data)-32:]) != providerAddr {
		t.Errorf("constructor arg = %x", data[len(data)-32:])
	}

	latest, err := f.repo.Latest(ctx, "hardhat", DefaultContract)
	if err != nil || latest.Address != want {
		t.Errorf("recorded deployment = %+v, %v", latest, err)
	}
	events := f.events.GetEventsByType(outbound.EventTypeContractDeployed)
	if len(events) != 1 {
		t.Fatalf("events = %d", len(events))
	}
	if ev := events[0].(outbound.ContractDeployedEvent); ev.Address != want.Hex() || ev.ContractName != DefaultContract {
		t.Errorf("event = %+v", ev)
	}
	if got := f.out.String(); got != "Deployed TestingAavePool at "+want.Hex()+"\n" {
		t.Errorf("output = %q", got)
	}
	if v := f.recorder.Violations(); len(v) != 0 {
		t.Errorf("violations: %v", v)
	}
}

func TestDeploy_FromS3WithNameFromLocation(t *testing.T) {
	f := newFixture(t)
	d, err := f.svc.Deploy(context.Background(), f.account, Request{
		Artifact: "s3://builds/Pool.json.gz",
		Args:     []string{providerAddr.Hex()},
		Name:     "Pool",
	})
	if err != nil {
		t.Fatalf("Deploy: %v", err)
	}
	if d.ContractName != "Pool" {
		t.Errorf("name = %s", d.ContractName)
	}
}

func TestDeploy_Errors(t *testing.T) {
	tests := []struct {
		name        string
		req         Request
		errContains string
	}{
		{"missing artifact", Request{}, "artifact location is required"},
		{"unknown artifact", Request{Artifact: "nope.json"}, "no artifact at"},
		{"wrong arg count", Request{Artifact: DefaultArtifact}, "constructor args"},
		{"bad address arg", Request{Artifact: DefaultArtifact, Args: []string{"0x123"}}, "constructor args"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			_, err := f.svc.Deploy(context.Background(), f.account, tt.req)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.errContains) {
				t.Errorf("error = %q, want substring %q", err, tt.errContains)
			}
			if len(f.chain.Sent) != 0 {
				t.Errorf("no transaction expected, got %d", len(f.chain.Sent))
			}
		})
	}
}

func TestDeployTestingPool_RequiresProvider(t *testing.T) {
	f := newFixture(t)
	if _, err := f.svc.DeployTestingPool(context.Background(), f.account, "", common.Address{}); !errors.Is(err, blockchain.ErrAddressesProviderNotConfigured) {
		t.Fatalf("expected ErrAddressesProviderNotConfigured, got %v", err)
	}
}

func TestGetOrDeploy(t *testing.T) {
	existing := common.HexToAddress("0x5FbDB2315678afecb367f032d93F642f64180aa3")
	req := Request{Artifact: DefaultArtifact, Args: []string{providerAddr.Hex()}}

	tests := []struct {
		name     string
		address  string
		recorded bool
		want     func(f *fixture) common.Address
		sends    int
	}{
		{
			name:    "valid address attaches",
			address: existing.Hex(),
			want:    func(*fixture) common.Address { return existing },
		},
		{
			name:     "empty address uses latest deployment",
			recorded: true,
			want:     func(*fixture) common.Address { return existing },
		},
		{
			name:     "invalid address uses latest deployment",
			address:  "0xnot-an-address",
			recorded: true,
			want:     func(*fixture) common.Address { return existing },
		},
		{
			name:    "zero address deploys when nothing is recorded",
			address: common.Address{}.Hex(),
			want: func(f *fixture) common.Address {
				return crypto.CreateAddress(f.account.Address(), 0)
			},
			sends: 1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()
			if tt.recorded {
				d, err := entity.NewDeployment("hardhat", 31337, DefaultContract, existing, common.HexToHash("0x01"), 5, f.now)
				if err != nil {
					t.Fatal(err)
				}
				if err := f.repo.Save(ctx, d); err != nil {
					t.Fatal(err)
				}
			}

			got, err := f.svc.GetOrDeploy(ctx, f.account, tt.address, req)
			if err != nil {
				t.Fatalf("GetOrDeploy: %v", err)
			}
			if want := tt.want(f); got != want {
				t.Errorf("address = %s, want %s", got.Hex(), want.Hex())
			}
			if len(f.chain.Sent) != tt.sends {
				t.Errorf("sent %d transactions, want %d", len(f.chain.Sent), tt.sends)
			}
		})
	}
}

func TestList(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	if _, err := f.svc.DeployTestingPool(ctx, f.account, "", providerAddr); err != nil {
		t.Fatal(err)
	}
	if _, err := f.svc.DeployTestingPool(ctx, f.account, "", providerAddr); err != nil {
		t.Fatal(err)
	}
	f.out.Reset()

	list, err := f.svc.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 2 || list[0].Address != crypto.CreateAddress(f.account.Address(), 1) {
		t.Errorf("list = %+v", list)
	}
	if strings.Count(f.out.String(), "TestingAavePool") != 2 {
		t.Errorf("output = %q", f.out.String())
	}
}

func TestDeploy_EstimatesCreationGas(t *testing.T) {
	f := newFixture(t)
	f.chain.EstimatedGas = 4_200_000

	if _, err := f.svc.DeployTestingPool(context.Background(), f.account, "", providerAddr); err != nil {
		t.Fatalf("DeployTestingPool: %v", err)
	}
	if got := f.chain.Sent[0].Gas(); got != 4_200_000 {
		t.Errorf("creation gas = %d, want the node estimate, not %d", got, blockchain.DefaultGasLimit)
	}
}

func TestGetOrDeploy_ReusesDeploymentFromEarlierRun(t *testing.T) {
	dataDir := t.TempDir()
	req := Request{Artifact: DefaultArtifact, Name: DefaultContract, Args: []string{providerAddr.Hex()}}

	// Each run builds its own service over the same data directory.
	run := func() (*fixture, common.Address) {
		f := newFixture(t)
		repo, err := filestore.NewDeploymentRepository(dataDir, testutil.DiscardLogger())
		if err != nil {
			t.Fatal(err)
		}
		f.svc.repo = repo
		addr, err := f.svc.GetOrDeploy(context.Background(), f.account, "", req)
		if err != nil {
			t.Fatalf("GetOrDeploy: %v", err)
		}
		return f, addr
	}

	first, deployed := run()
	if len(first.chain.Sent) != 1 {
		t.Fatalf("first run sent %d transactions, want 1", len(first.chain.Sent))
	}

	second, reused := run()
	if reused != deployed {
		t.Errorf("second run = %s, want recorded %s", reused.Hex(), deployed.Hex())
	}
	if len(second.chain.Sent) != 0 {
		t.Errorf("second run sent %d transactions, want 0", len(second.chain.Sent))
	}
}
