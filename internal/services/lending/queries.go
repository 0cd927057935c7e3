package lending

import (
	"context"
	"fmt"
	"math/big"
	"reflect"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"github.com/archon-research/lendpool/internal/domain/entity"
	"github.com/archon-research/lendpool/internal/pkg/blockchain"
	"github.com/archon-research/lendpool/internal/ports/outbound"
)

// baseCurrencyDecimals is used to print base amounts when the oracle cannot
// be asked for BASE_CURRENCY_UNIT (Aave V3 markets use USD with 8 decimals).
const baseCurrencyDecimals = 8

// Reserve is one asset listed on the pool, with the user's flags when known.
type Reserve struct {
	Token  *entity.TokenMetadata
	Config ReserveConfig

	Collateral bool
	Borrowing  bool

	// id is the reserve's slot in user configuration bitmaps. It is not the
	// position in getReservesList once a reserve has been dropped.
	id      uint16
	idKnown bool
}

// ReserveConfig is the decoded ReserveConfigurationMap of a reserve.
// LTV and LiquidationThreshold are in basis points.
type ReserveConfig struct {
	LTV                  uint64
	LiquidationThreshold uint64
	Active               bool
	Frozen               bool
	BorrowingEnabled     bool
}

// Snapshot is a consistent view of an account's position in one asset,
// read in a single multicall.
type Snapshot struct {
	User         common.Address
	Token        *entity.TokenMetadata
	Pool         common.Address
	Native       *big.Int
	TokenBalance *big.Int
	Allowance    *big.Int
	Account      *entity.UserAccountData
}

// UserData reads and prints the user's aggregate position.
func (s *Service) UserData(ctx context.Context, user common.Address) (*entity.UserAccountData, error) {
	pool, err := s.Pool(ctx)
	if err != nil {
		return nil, err
	}
	out, err := pool.Call(ctx, s.caller, "getUserAccountData", user)
	if err != nil {
		return nil, err
	}
	data, err := entity.NewUserAccountDataFromOutputs(user, out)
	if err != nil {
		return nil, fmt.Errorf("decoding getUserAccountData: %w", err)
	}

	s.printUserData(ctx, data)
	return data, nil
}

// UserReserves returns the reserves the user supplies as collateral or borrows,
// decoded from the getUserConfiguration bitmap.
func (s *Service) UserReserves(ctx context.Context, user common.Address) ([]Reserve, error) {
	pool, err := s.Pool(ctx)
	if err != nil {
		return nil, err
	}
	out, err := pool.Call(ctx, s.caller, "getUserConfiguration", user)
	if err != nil {
		return nil, err
	}
	bitmap, err := configurationData(out)
	if err != nil {
		return nil, fmt.Errorf("decoding getUserConfiguration: %w", err)
	}
	if bitmap.Sign() == 0 {
		return nil, nil
	}

	reserves, err := s.reserves(ctx, pool)
	if err != nil {
		return nil, err
	}
	var used []Reserve
	for _, r := range reserves {
		if !r.idKnown {
			s.logger.Warn("reserve data unavailable, skipping", "asset", r.Token.Address.Hex())
			continue
		}
		r.Borrowing = bitmap.Bit(2*int(r.id)) == 1
		r.Collateral = bitmap.Bit(2*int(r.id)+1) == 1
		if r.Borrowing || r.Collateral {
			used = append(used, r)
		}
	}
	for _, r := range used {
		s.printf("  %-8s collateral=%t borrowing=%t\n", r.Token.Symbol, r.Collateral, r.Borrowing)
	}
	return used, nil
}

// Reserves lists the pool's reserves with their token metadata.
func (s *Service) Reserves(ctx context.Context) ([]Reserve, error) {
	pool, err := s.Pool(ctx)
	if err != nil {
		return nil, err
	}
	reserves, err := s.reserves(ctx, pool)
	if err != nil {
		return nil, err
	}
	for _, r := range reserves {
		s.printf("%-8s %s decimals=%-2d ltv=%s%% lt=%s%% active=%t frozen=%t borrowing=%t\n",
			r.Token.Symbol, r.Token.Address.Hex(), r.Token.Decimals,
			blockchain.FormatUnits(new(big.Int).SetUint64(r.Config.LTV), 2),
			blockchain.FormatUnits(new(big.Int).SetUint64(r.Config.LiquidationThreshold), 2),
			r.Config.Active, r.Config.Frozen, r.Config.BorrowingEnabled)
	}
	return reserves, nil
}

func (s *Service) reserves(ctx context.Context, pool *blockchain.Contract) ([]Reserve, error) {
	list, err := blockchain.CallOne[[]common.Address](ctx, s.caller, pool, "getReservesList")
	if err != nil {
		return nil, err
	}
	metas, err := s.tokens.GetMany(ctx, list)
	if err != nil {
		return nil, err
	}

	calls := make([]outbound.Call, len(list))
	for i, asset := range list {
		calls[i], err = pool.MulticallEntry(true, "getReserveData", asset)
		if err != nil {
			return nil, err
		}
	}
	results, err := s.multicaller.Execute(ctx, calls, nil)
	if err != nil {
		return nil, fmt.Errorf("reading reserve data: %w", err)
	}

	out := make([]Reserve, len(metas))
	for i, m := range metas {
		out[i] = Reserve{Token: m}
		if !results[i].Success {
			continue
		}
		bitmap, id, err := decodeReserveData(results[i].ReturnData)
		if err != nil {
			return nil, fmt.Errorf("decoding getReserveData for %s: %w", m.Symbol, err)
		}
		out[i].Config = decodeReserveConfig(bitmap)
		out[i].id, out[i].idKnown = id, true
	}
	return out, nil
}

// Snapshot reads native balance, token balance, allowance to the pool and
// account data for user in one round trip.
func (s *Service) Snapshot(ctx context.Context, user, asset common.Address) (*Snapshot, error) {
	pool, err := s.Pool(ctx)
	if err != nil {
		return nil, err
	}
	meta, err := s.tokens.Get(ctx, asset)
	if err != nil {
		return nil, err
	}
	token := s.token(asset)

	entries := []struct {
		contract *blockchain.Contract
		method   string
		args     []any
	}{
		{s.mc3, "getEthBalance", []any{user}},
		{token, "balanceOf", []any{user}},
		{token, "allowance", []any{user, pool.Address}},
		{pool, "getUserAccountData", []any{user}},
	}
	calls := make([]outbound.Call, len(entries))
	for i, e := range entries {
		calls[i], err = e.contract.MulticallEntry(false, e.method, e.args...)
		if err != nil {
			return nil, err
		}
	}

	results, err := s.multicaller.Execute(ctx, calls, nil)
	if err != nil {
		return nil, fmt.Errorf("reading snapshot: %w", err)
	}

	snap := &Snapshot{User: user, Token: meta, Pool: pool.Address}
	if snap.Native, err = blockchain.UnpackOne[*big.Int](s.mc3, "getEthBalance", results[0].ReturnData); err != nil {
		return nil, err
	}
	if snap.TokenBalance, err = blockchain.UnpackOne[*big.Int](token, "balanceOf", results[1].ReturnData); err != nil {
		return nil, err
	}
	if snap.Allowance, err = blockchain.UnpackOne[*big.Int](token, "allowance", results[2].ReturnData); err != nil {
		return nil, err
	}
	accountOut, err := pool.Unpack("getUserAccountData", results[3].ReturnData)
	if err != nil {
		return nil, err
	}
	if snap.Account, err = entity.NewUserAccountDataFromOutputs(user, accountOut); err != nil {
		return nil, fmt.Errorf("decoding getUserAccountData: %w", err)
	}

	dec := int(meta.Decimals)
	s.printf("Account %s\n", user.Hex())
	s.printf("  native balance:   %s ETH\n", blockchain.FormatUnits(snap.Native, 18))
	s.printf("  %s balance:%s %s\n", meta.Symbol, pad(meta.Symbol), blockchain.FormatUnits(snap.TokenBalance, dec))
	s.printf("  allowance (pool): %s\n", s.amountLabelDecimals(snap.Allowance, dec))
	s.printUserData(ctx, snap.Account)
	return snap, nil
}

func (s *Service) printUserData(ctx context.Context, d *entity.UserAccountData) {
	decimals := s.baseDecimals(ctx)
	s.printf("User %s\n", d.User.Hex())
	s.printf("  total collateral:      %s\n", blockchain.FormatUnits(d.TotalCollateralBase, decimals))
	s.printf("  total debt:            %s\n", blockchain.FormatUnits(d.TotalDebtBase, decimals))
	s.printf("  available borrows:     %s\n", blockchain.FormatUnits(d.AvailableBorrowsBase, decimals))
	s.printf("  liquidation threshold: %s%%\n", blockchain.FormatUnits(d.CurrentLiquidationThreshold, 2))
	s.printf("  ltv:                   %s%%\n", blockchain.FormatUnits(d.LTV, 2))
	s.printf("  health factor:         %s\n", d.HealthFactorString())
}

// baseDecimals derives the base currency decimals from BASE_CURRENCY_UNIT.
func (s *Service) baseDecimals(ctx context.Context) int {
	oracle, err := s.priceOracle(ctx)
	if err != nil {
		return baseCurrencyDecimals
	}
	unit, err := blockchain.CallOne[*big.Int](ctx, s.caller, oracle, "BASE_CURRENCY_UNIT")
	if err != nil || unit.Sign() <= 0 {
		return baseCurrencyDecimals
	}
	return len(unit.String()) - 1
}

func (s *Service) amountLabelDecimals(amount *big.Int, decimals int) string {
	if amount.Cmp(blockchain.MaxUint256) == 0 {
		return "unlimited"
	}
	return blockchain.FormatUnits(amount, decimals)
}

func pad(symbol string) string {
	const width = 8
	if len(symbol) >= width {
		return ""
	}
	return strings.Repeat(" ", width-len(symbol))
}

// configurationData extracts the uint256 from a UserConfigurationMap tuple
// output.
func configurationData(out []any) (*big.Int, error) {
	if len(out) != 1 {
		return nil, fmt.Errorf("expected 1 output, got %d", len(out))
	}
	v := reflect.ValueOf(out[0])
	if v.Kind() != reflect.Struct {
		return nil, fmt.Errorf("expected tuple, got %T", out[0])
	}
	field := v.FieldByName("Data")
	if !field.IsValid() {
		return nil, fmt.Errorf("tuple has no data field")
	}
	data, ok := field.Interface().(*big.Int)
	if !ok {
		return nil, fmt.Errorf("unexpected data type %T", field.Interface())
	}
	return data, nil
}
