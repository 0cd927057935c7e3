package blockchain

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// ParseArgs converts command-line strings into the Go values abi.Pack expects
// for inputs. Scalar types only; arrays and tuples are rejected.
func ParseArgs(inputs abi.Arguments, raw []string) ([]any, error) {
	if len(raw) != len(inputs) {
		return nil, fmt.Errorf("expected %d arguments, got %d", len(inputs), len(raw))
	}
	out := make([]any, len(raw))
	for i, in := range inputs {
		v, err := parseArg(in.Type, raw[i])
		if err != nil {
			name := in.Name
			if name == "" {
				name = strconv.Itoa(i)
			}
			return nil, fmt.Errorf("argument %s (%s): %w", name, in.Type.String(), err)
		}
		out[i] = v
	}
	return out, nil
}

func parseArg(t abi.Type, s string) (any, error) {
	s = strings.TrimSpace(s)
	switch t.T {
	case abi.AddressTy:
		if !common.IsHexAddress(s) {
			return nil, fmt.Errorf("invalid address %q", s)
		}
		return common.HexToAddress(s), nil
	case abi.BoolTy:
		return strconv.ParseBool(s)
	case abi.StringTy:
		return s, nil
	case abi.BytesTy:
		return hexutil.Decode(s)
	case abi.FixedBytesTy:
		b, err := hexutil.Decode(s)
		if err != nil {
			return nil, err
		}
		if len(b) > t.Size {
			return nil, fmt.Errorf("value longer than %d bytes", t.Size)
		}
		if t.Size != 32 {
			return nil, fmt.Errorf("only bytes32 is supported")
		}
		var fixed [32]byte
		copy(fixed[32-len(b):], b)
		return fixed, nil
	case abi.UintTy, abi.IntTy:
		return parseInteger(t, s)
	default:
		return nil, fmt.Errorf("unsupported argument type")
	}
}

func parseInteger(t abi.Type, s string) (any, error) {
	n, ok := new(big.Int).SetString(s, 0)
	if !ok {
		return nil, fmt.Errorf("invalid integer %q", s)
	}
	if t.T == abi.UintTy && n.Sign() < 0 {
		return nil, fmt.Errorf("negative value for unsigned type")
	}
	if t.Size > 64 {
		return n, nil
	}
	if t.T == abi.UintTy {
		if !n.IsUint64() || n.BitLen() > t.Size {
			return nil, fmt.Errorf("value out of range")
		}
		u := n.Uint64()
		switch t.Size {
		case 8:
			return uint8(u), nil
		case 16:
			return uint16(u), nil
		case 32:
			return uint32(u), nil
		case 64:
			return u, nil
		}
	} else {
		if !n.IsInt64() {
			return nil, fmt.Errorf("value out of range")
		}
		i := n.Int64()
		switch t.Size {
		case 8:
			if int64(int8(i)) == i {
				return int8(i), nil
			}
		case 16:
			if int64(int16(i)) == i {
				return int16(i), nil
			}
		case 32:
			if int64(int32(i)) == i {
				return int32(i), nil
			}
		case 64:
			return i, nil
		default:
			return n, nil
		}
		return nil, fmt.Errorf("value out of range")
	}
	return n, nil
}
