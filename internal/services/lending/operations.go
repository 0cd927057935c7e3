package lending

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/archon-research/lendpool/internal/domain/entity"
	"github.com/archon-research/lendpool/internal/pkg/blockchain"
	"github.com/archon-research/lendpool/internal/ports/outbound"
	"github.com/archon-research/lendpool/internal/services/shared"
)

// BorrowRequest describes a borrow. A nil Amount borrows the configured
// fraction of the account's available borrowing power.
type BorrowRequest struct {
	Asset      common.Address
	Amount     *big.Int
	Mode       entity.InterestRateMode
	OnBehalfOf common.Address
}

// InteractRequest is the approve, supply, borrow sequence run as one command.
type InteractRequest struct {
	Asset        common.Address
	SupplyAmount *big.Int

	// BorrowAsset defaults to Asset.
	BorrowAsset  common.Address
	BorrowAmount *big.Int
	Mode         entity.InterestRateMode

	// BorrowExtra borrows SupplyAmount+BorrowExtra of Asset. It cannot be
	// combined with BorrowAmount or a different BorrowAsset.
	BorrowExtra *big.Int
}

// Approve lets spender move amount of token on behalf of from, and waits.
func (s *Service) Approve(ctx context.Context, from outbound.Account, token, spender common.Address, amount *big.Int) (*types.Receipt, error) {
	if amount == nil || amount.Sign() < 0 {
		return nil, fmt.Errorf("approve amount must not be negative")
	}
	data, err := s.token(token).Pack("approve", spender, amount)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Approving ERC20 token...", "token", token.Hex(), "spender", spender.Hex(), "amount", amount.String())
	receipt, err := shared.SendAndWait(ctx, s.transactor, outbound.TxRequest{
		Action: "approve",
		From:   from,
		To:     &token,
		Data:   data,
	})
	if err != nil {
		return receipt, err
	}
	s.printf("Approved %s to spend %s of %s\n", spender.Hex(), amount.String(), token.Hex())
	return receipt, nil
}

// Supply approves the pool for amount, waits, then supplies amount of asset.
func (s *Service) Supply(ctx context.Context, from outbound.Account, asset common.Address, amount *big.Int, onBehalfOf common.Address) (*types.Receipt, error) {
	if amount == nil || amount.Sign() <= 0 {
		return nil, fmt.Errorf("supply amount must be positive")
	}
	pool, err := s.Pool(ctx)
	if err != nil {
		return nil, err
	}
	if !entity.IsSet(onBehalfOf) {
		onBehalfOf = from.Address()
	}

	if _, err := s.Approve(ctx, from, asset, pool.Address, amount); err != nil {
		return nil, fmt.Errorf("approving supply: %w", err)
	}

	data, err := pool.Pack("supply", asset, amount, onBehalfOf, blockchain.ReferralCode)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Supplying...", "asset", asset.Hex(), "amount", amount.String(), "onBehalfOf", onBehalfOf.Hex())
	receipt, err := shared.SendAndWait(ctx, s.transactor, outbound.TxRequest{
		Action: "supply",
		From:   from,
		To:     &pool.Address,
		Data:   data,
	})
	if err != nil {
		return receipt, err
	}
	s.printf("Supplied %s\n", s.describe(ctx, asset, amount))
	return receipt, nil
}

// Borrow borrows req.Asset against the caller's collateral.
func (s *Service) Borrow(ctx context.Context, from outbound.Account, req BorrowRequest) (*types.Receipt, error) {
	pool, err := s.Pool(ctx)
	if err != nil {
		return nil, err
	}
	if req.Mode == 0 {
		req.Mode = entity.InterestRateModeVariable
	}
	if !entity.IsSet(req.OnBehalfOf) {
		req.OnBehalfOf = from.Address()
	}

	amount := req.Amount
	if amount == nil {
		amount, err = s.BorrowableAmount(ctx, req.OnBehalfOf, req.Asset)
		if err != nil {
			return nil, err
		}
	}
	if amount.Sign() <= 0 {
		return nil, fmt.Errorf("nothing to borrow: amount is %s", amount.String())
	}

	data, err := pool.Pack("borrow", req.Asset, amount, req.Mode.BigInt(), blockchain.ReferralCode, req.OnBehalfOf)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Borrowing...", "asset", req.Asset.Hex(), "amount", amount.String(), "mode", req.Mode.String())
	receipt, err := shared.SendAndWait(ctx, s.transactor, outbound.TxRequest{
		Action: "borrow",
		From:   from,
		To:     &pool.Address,
		Data:   data,
	})
	if err != nil {
		return receipt, err
	}
	s.printf("Borrowed %s (%s rate)\n", s.describe(ctx, req.Asset, amount), req.Mode.String())
	return receipt, nil
}

// BorrowableAmount converts the configured fraction of user's available
// borrowing power into base units of asset using the oracle price.
func (s *Service) BorrowableAmount(ctx context.Context, user, asset common.Address) (*big.Int, error) {
	data, err := s.UserData(ctx, user)
	if err != nil {
		return nil, err
	}
	oracle, err := s.priceOracle(ctx)
	if err != nil {
		return nil, err
	}
	price, err := blockchain.CallOne[*big.Int](ctx, s.caller, oracle, "getAssetPrice", asset)
	if err != nil {
		return nil, fmt.Errorf("reading asset price: %w", err)
	}
	meta, err := s.tokens.Get(ctx, asset)
	if err != nil {
		return nil, err
	}
	amount, err := borrowAmount(data.AvailableBorrowsBase, price, meta.Decimals, s.config.BorrowFraction)
	if err != nil {
		return nil, err
	}
	s.logger.Info("computed borrow amount",
		"availableBorrowsBase", data.AvailableBorrowsBase.String(),
		"price", price.String(),
		"fraction", s.config.BorrowFraction,
		"amount", blockchain.FormatUnits(amount, int(meta.Decimals)),
		"symbol", meta.Symbol)
	return amount, nil
}

// Withdraw withdraws amount of asset to to. A nil amount withdraws everything.
func (s *Service) Withdraw(ctx context.Context, from outbound.Account, asset common.Address, amount *big.Int, to common.Address) (*types.Receipt, error) {
	pool, err := s.Pool(ctx)
	if err != nil {
		return nil, err
	}
	if amount == nil {
		amount = blockchain.MaxUint256
	}
	if amount.Sign() <= 0 {
		return nil, fmt.Errorf("withdraw amount must be positive")
	}
	if !entity.IsSet(to) {
		to = from.Address()
	}

	data, err := pool.Pack("withdraw", asset, amount, to)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Withdrawing...", "asset", asset.Hex(), "amount", s.amountLabel(amount), "to", to.Hex())
	receipt, err := shared.SendAndWait(ctx, s.transactor, outbound.TxRequest{
		Action: "withdraw",
		From:   from,
		To:     &pool.Address,
		Data:   data,
	})
	if err != nil {
		return receipt, err
	}
	s.printf("Withdrew %s\n", s.describe(ctx, asset, amount))
	return receipt, nil
}

// Repay approves the pool and repays amount of debt. A nil amount repays the whole debt.
func (s *Service) Repay(ctx context.Context, from outbound.Account, asset common.Address, amount *big.Int, mode entity.InterestRateMode, onBehalfOf common.Address) (*types.Receipt, error) {
	pool, err := s.Pool(ctx)
	if err != nil {
		return nil, err
	}
	if amount == nil {
		amount = blockchain.MaxUint256
	}
	if amount.Sign() <= 0 {
		return nil, fmt.Errorf("repay amount must be positive")
	}
	if mode == 0 {
		mode = entity.InterestRateModeVariable
	}
	if !entity.IsSet(onBehalfOf) {
		onBehalfOf = from.Address()
	}

	if _, err := s.Approve(ctx, from, asset, pool.Address, amount); err != nil {
		return nil, fmt.Errorf("approving repay: %w", err)
	}

	data, err := pool.Pack("repay", asset, amount, mode.BigInt(), onBehalfOf)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Repaying...", "asset", asset.Hex(), "amount", s.amountLabel(amount), "mode", mode.String())
	receipt, err := shared.SendAndWait(ctx, s.transactor, outbound.TxRequest{
		Action: "repay",
		From:   from,
		To:     &pool.Address,
		Data:   data,
	})
	if err != nil {
		return receipt, err
	}
	s.printf("Repaid %s\n", s.describe(ctx, asset, amount))
	return receipt, nil
}

// Interact supplies req.SupplyAmount of req.Asset and then borrows against it.
func (s *Service) Interact(ctx context.Context, from outbound.Account, req InteractRequest) error {
	borrowAsset := req.BorrowAsset
	if !entity.IsSet(borrowAsset) {
		borrowAsset = req.Asset
	}
	borrowAmount := req.BorrowAmount
	if req.BorrowExtra != nil {
		switch {
		case req.BorrowAmount != nil:
			return fmt.Errorf("borrow amount and borrow extra are mutually exclusive")
		case borrowAsset != req.Asset:
			return fmt.Errorf("borrow extra applies only when borrowing the supplied asset")
		case req.BorrowExtra.Sign() < 0:
			return fmt.Errorf("borrow extra must not be negative")
		case req.SupplyAmount == nil:
			return fmt.Errorf("supply amount is required")
		}
		borrowAmount = new(big.Int).Add(req.SupplyAmount, req.BorrowExtra)
	}

	if _, err := s.Supply(ctx, from, req.Asset, req.SupplyAmount, from.Address()); err != nil {
		return err
	}

	if _, err := s.Borrow(ctx, from, BorrowRequest{
		Asset:  borrowAsset,
		Amount: borrowAmount,
		Mode:   req.Mode,
	}); err != nil {
		return err
	}

	_, err := s.UserData(ctx, from.Address())
	return err
}

// describe renders amount with the token's symbol and decimals, falling back
// to raw units when metadata is unavailable.
func (s *Service) describe(ctx context.Context, asset common.Address, amount *big.Int) string {
	if amount.Cmp(blockchain.MaxUint256) == 0 {
		return "all " + asset.Hex()
	}
	meta, err := s.tokens.Get(ctx, asset)
	if err != nil {
		s.logger.Debug("token metadata unavailable", "token", asset.Hex(), "error", err)
		return amount.String() + " " + asset.Hex()
	}
	return blockchain.FormatUnits(amount, int(meta.Decimals)) + " " + meta.Symbol
}

func (s *Service) amountLabel(amount *big.Int) string {
	if amount.Cmp(blockchain.MaxUint256) == 0 {
		return "max"
	}
	return amount.String()
}
