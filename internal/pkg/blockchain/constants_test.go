package blockchain

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common/math"
)

func TestMaxUint256(t *testing.T) {
	want := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))
	if MaxUint256.Cmp(want) != 0 {
		t.Fatalf("MaxUint256 = %s, want 2^256-1", MaxUint256)
	}
	if MaxUint256 == math.MaxBig256 {
		t.Error("MaxUint256 must not alias math.MaxBig256")
	}
}
