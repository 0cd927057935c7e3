package account_resolver

import (
	"errors"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"github.com/archon-research/lendpool/internal/ports/outbound"
	"github.com/archon-research/lendpool/internal/testutil"
)

const devKey2 = "5de4111afa1a4b94908f83103eb1f1706367c2e68ca870fc3fb9a804cdab365a"

type fakeSource struct {
	preloaded  []outbound.Account
	keystore   map[string]outbound.Account
	configured outbound.Account
	calls      []string
}

func (f *fakeSource) Preloaded() ([]outbound.Account, error) {
	f.calls = append(f.calls, "preloaded")
	return f.preloaded, nil
}

func (f *fakeSource) Keystore(id string) (outbound.Account, error) {
	f.calls = append(f.calls, "keystore")
	acct, ok := f.keystore[id]
	if !ok {
		return nil, errors.New("no key file for " + id)
	}
	return acct, nil
}

func (f *fakeSource) Configured() (outbound.Account, error) {
	f.calls = append(f.calls, "configured")
	if f.configured == nil {
		return nil, outbound.ErrAccountNotConfigured
	}
	return f.configured, nil
}

func intPtr(i int) *int { return &i }

func TestResolve_Priority(t *testing.T) {
	dev0 := testutil.NewKeyAccount(t, testutil.DevKey0)
	dev1 := testutil.NewKeyAccount(t, testutil.DevKey1)
	ks := testutil.NewKeyAccount(t, devKey2)
	cfg := testutil.NewKeyAccount(t, devKey2)

	tests := []struct {
		name        string
		local       bool
		req         Request
		noConfig    bool
		want        common.Address
		wantCalls   string
		wantErr     error
		errContains string
	}{
		{
			name:      "explicit index wins over everything",
			local:     true,
			req:       Request{Index: intPtr(1), ID: "alice"},
			want:      dev1.Address(),
			wantCalls: "preloaded",
		},
		{
			name:      "index zero is explicit on remote networks",
			req:       Request{Index: intPtr(0), ID: "alice"},
			want:      dev0.Address(),
			wantCalls: "preloaded",
		},
		{
			name:      "local network uses first preloaded account",
			local:     true,
			req:       Request{ID: "alice"},
			want:      dev0.Address(),
			wantCalls: "preloaded",
		},
		{
			name:      "identifier loads keystore account",
			req:       Request{ID: "alice"},
			want:      ks.Address(),
			wantCalls: "keystore",
		},
		{
			name:      "falls back to configured account",
			req:       Request{},
			want:      cfg.Address(),
			wantCalls: "configured",
		},
		{
			name:      "nothing configured",
			req:       Request{},
			noConfig:  true,
			wantErr:   ErrNoAccount,
			wantCalls: "configured",
		},
		{
			name:      "index out of range",
			req:       Request{Index: intPtr(5)},
			wantErr:   ErrAccountIndexOutOfRange,
			wantCalls: "preloaded",
		},
		{
			name:      "negative index",
			req:       Request{Index: intPtr(-1)},
			wantErr:   ErrAccountIndexOutOfRange,
			wantCalls: "preloaded",
		},
		{
			name:        "unknown keystore id",
			req:         Request{ID: "bob"},
			errContains: `loading keystore account "bob"`,
			wantCalls:   "keystore",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := &fakeSource{
				preloaded:  []outbound.Account{dev0, dev1},
				keystore:   map[string]outbound.Account{"alice": ks},
				configured: cfg,
			}
			if tt.noConfig {
				src.configured = nil
			}
			svc, err := NewService(Config{Local: tt.local, Logger: testutil.DiscardLogger()}, src)
			if err != nil {
				t.Fatalf("NewService: %v", err)
			}

			got, err := svc.Resolve(tt.req)

			if strings.Join(src.calls, ",") != tt.wantCalls {
				t.Errorf("calls = %v, want %s", src.calls, tt.wantCalls)
			}
			if tt.wantErr != nil || tt.errContains != "" {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
					t.Errorf("error = %v, want %v", err, tt.wantErr)
				}
				if tt.errContains != "" && !strings.Contains(err.Error(), tt.errContains) {
					t.Errorf("error = %q, want substring %q", err, tt.errContains)
				}
				return
			}
			if err != nil {
				t.Fatalf("Resolve: %v", err)
			}
			if got.Address() != tt.want {
				t.Errorf("address = %s, want %s", got.Address().Hex(), tt.want.Hex())
			}
		})
	}
}

func TestResolve_LocalWithoutPreloadedAccounts(t *testing.T) {
	svc, err := NewService(Config{Local: true}, &fakeSource{})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	if _, err := svc.Resolve(Request{}); !errors.Is(err, ErrNoAccount) {
		t.Fatalf("expected ErrNoAccount, got %v", err)
	}
}

func TestList(t *testing.T) {
	dev0 := testutil.NewKeyAccount(t, testutil.DevKey0)
	dev1 := testutil.NewKeyAccount(t, testutil.DevKey1)
	svc, err := NewService(Config{}, &fakeSource{preloaded: []outbound.Account{dev0, dev1}})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	addrs, err := svc.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(addrs) != 2 || addrs[0] != dev0.Address() || addrs[1] != dev1.Address() {
		t.Errorf("List = %v", addrs)
	}
}

func TestNewService_NilSource(t *testing.T) {
	if _, err := NewService(Config{}, nil); err == nil {
		t.Fatal("expected error for nil source")
	}
}
