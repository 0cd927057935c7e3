package ethereum

import (
	"context"
	"strings"
	"testing"

	"github.com/archon-research/lendpool/internal/domain/entity"
	"github.com/archon-research/lendpool/internal/testutil"
)

func TestDial_ChainIDCheck(t *testing.T) {
	node := testutil.StartMockEthRPC(t, 31337)

	tests := []struct {
		name        string
		configured  int64
		wantChainID int64
		errContains string
	}{
		{name: "matching", configured: 31337, wantChainID: 31337},
		{name: "adopts node chain", configured: 0, wantChainID: 31337},
		{name: "mismatch", configured: 1, errContains: "node reports chain ID 31337, configured 1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			network := &entity.Network{Name: "hardhat", RPCURL: node.URL, ChainID: tt.configured}
			client, err := Dial(context.Background(), network, DialConfig{Logger: testutil.DiscardLogger()})
			if tt.errContains != "" {
				if err == nil || !strings.Contains(err.Error(), tt.errContains) {
					t.Fatalf("expected error containing %q, got %v", tt.errContains, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Dial: %v", err)
			}
			defer client.Close()
			if network.ChainID != tt.wantChainID {
				t.Errorf("chain ID = %d, want %d", network.ChainID, tt.wantChainID)
			}
		})
	}
}
