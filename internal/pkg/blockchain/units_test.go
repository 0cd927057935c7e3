package blockchain

import (
	"math/big"
	"testing"
)

func TestParseUnits(t *testing.T) {
	tests := []struct {
		in       string
		decimals int
		want     string
		wantErr  bool
	}{
		{in: "1", decimals: 18, want: "1000000000000000000"},
		{in: "0.1", decimals: 18, want: "100000000000000000"},
		{in: ".5", decimals: 6, want: "500000"},
		{in: "2.", decimals: 6, want: "2000000"},
		{in: "1.000001", decimals: 6, want: "1000001"},
		{in: "0", decimals: 18, want: "0"},
		{in: "123", decimals: 0, want: "123"},
		{in: "1.0000001", decimals: 6, wantErr: true},
		{in: "-1", decimals: 18, wantErr: true},
		{in: "", decimals: 18, wantErr: true},
		{in: ".", decimals: 18, wantErr: true},
		{in: "1e18", decimals: 18, wantErr: true},
		{in: "1.2.3", decimals: 18, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseUnits(tt.in, tt.decimals)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %s", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.String() != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestFormatUnits(t *testing.T) {
	tests := []struct {
		amount   *big.Int
		decimals int
		want     string
	}{
		{amount: big.NewInt(1000000000000000000), decimals: 18, want: "1"},
		{amount: big.NewInt(100000000000000000), decimals: 18, want: "0.1"},
		{amount: big.NewInt(1500000), decimals: 6, want: "1.5"},
		{amount: big.NewInt(1), decimals: 6, want: "0.000001"},
		{amount: big.NewInt(-2500000), decimals: 6, want: "-2.5"},
		{amount: big.NewInt(42), decimals: 0, want: "42"},
		{amount: nil, decimals: 18, want: "0"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := FormatUnits(tt.amount, tt.decimals); got != tt.want {
				t.Errorf("FormatUnits(%v, %d) = %q, want %q", tt.amount, tt.decimals, got, tt.want)
			}
		})
	}
}
