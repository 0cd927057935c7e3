package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/archon-research/lendpool/internal/domain/entity"
	"github.com/archon-research/lendpool/internal/ports/outbound"
	"github.com/archon-research/lendpool/internal/services/lending"
)

// lendingFunc runs with a connected app, the resolved account and the lending service.
type lendingFunc func(ctx context.Context, a *app, svc *lending.Service, from outbound.Account) error

func withLending(cmd *cobra.Command, flags *globalFlags, fraction float64, fn lendingFunc) error {
	return runWithApp(cmd, flags, true, func(ctx context.Context, a *app) error {
		from, err := a.account(cmd, flags)
		if err != nil {
			return err
		}
		svc, err := a.lendingService(fraction)
		if err != nil {
			return err
		}
		return fn(ctx, a, svc, from)
	})
}

func newApproveCmd(flags *globalFlags) *cobra.Command {
	var (
		spender string
		raw     bool
	)
	cmd := &cobra.Command{
		Use:   "approve <token> <amount>",
		Short: "Approve a spender (default: the pool) to move tokens",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := parseAddress("token", args[0])
			if err != nil {
				return err
			}
			spenderAddr, err := parseOptionalAddress("--spender", spender)
			if err != nil {
				return err
			}
			return withLending(cmd, flags, 0, func(ctx context.Context, a *app, svc *lending.Service, from outbound.Account) error {
				amount, err := a.amount(ctx, token, args[1], raw)
				if err != nil {
					return err
				}
				if !entity.IsSet(spenderAddr) {
					pool, err := svc.Pool(ctx)
					if err != nil {
						return err
					}
					spenderAddr = pool.Address
				}
				_, err = svc.Approve(ctx, from, token, spenderAddr, amount)
				return err
			})
		},
	}
	cmd.Flags().StringVar(&spender, "spender", "", "spender address (default: the pool)")
	cmd.Flags().BoolVar(&raw, "raw", false, "amount is in base units")
	return cmd
}

func newSupplyCmd(flags *globalFlags) *cobra.Command {
	var (
		onBehalfOf string
		raw        bool
	)
	cmd := &cobra.Command{
		Use:   "supply <asset> <amount>",
		Short: "Approve the pool and supply an asset",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			asset, err := parseAddress("asset", args[0])
			if err != nil {
				return err
			}
			beneficiary, err := parseOptionalAddress("--on-behalf-of", onBehalfOf)
			if err != nil {
				return err
			}
			return withLending(cmd, flags, 0, func(ctx context.Context, a *app, svc *lending.Service, from outbound.Account) error {
				amount, err := a.amount(ctx, asset, args[1], raw)
				if err != nil {
					return err
				}
				_, err = svc.Supply(ctx, from, asset, amount, beneficiary)
				return err
			})
		},
	}
	cmd.Flags().StringVar(&onBehalfOf, "on-behalf-of", "", "credit the supply to this address (default: the sender)")
	cmd.Flags().BoolVar(&raw, "raw", false, "amount is in base units")
	return cmd
}

func newBorrowCmd(flags *globalFlags) *cobra.Command {
	var (
		mode       string
		onBehalfOf string
		fraction   float64
		raw        bool
	)
	cmd := &cobra.Command{
		Use:   "borrow <asset> [amount]",
		Short: "Borrow an asset, by default a fraction of the available borrowing power",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			asset, err := parseAddress("asset", args[0])
			if err != nil {
				return err
			}
			rateMode, err := entity.ParseInterestRateMode(mode)
			if err != nil {
				return err
			}
			debtor, err := parseOptionalAddress("--on-behalf-of", onBehalfOf)
			if err != nil {
				return err
			}
			return withLending(cmd, flags, fraction, func(ctx context.Context, a *app, svc *lending.Service, from outbound.Account) error {
				req := lending.BorrowRequest{Asset: asset, Mode: rateMode, OnBehalfOf: debtor}
				if len(args) == 2 {
					if req.Amount, err = a.amount(ctx, asset, args[1], raw); err != nil {
						return err
					}
				}
				_, err := svc.Borrow(ctx, from, req)
				return err
			})
		},
	}
	cmd.Flags().StringVar(&mode, "mode", "variable", "interest rate mode: variable or stable")
	cmd.Flags().StringVar(&onBehalfOf, "on-behalf-of", "", "borrow against this address's credit delegation (default: the sender)")
	cmd.Flags().Float64Var(&fraction, "fraction", lending.DefaultBorrowFraction, "share of available borrows used when no amount is given")
	cmd.Flags().BoolVar(&raw, "raw", false, "amount is in base units")
	return cmd
}

func newWithdrawCmd(flags *globalFlags) *cobra.Command {
	var (
		to  string
		raw bool
	)
	cmd := &cobra.Command{
		Use:   "withdraw <asset> [amount|max]",
		Short: "Withdraw a supplied asset (default: everything)",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			asset, err := parseAddress("asset", args[0])
			if err != nil {
				return err
			}
			recipient, err := parseOptionalAddress("--to", to)
			if err != nil {
				return err
			}
			return withLending(cmd, flags, 0, func(ctx context.Context, a *app, svc *lending.Service, from outbound.Account) error {
				amount, err := a.optionalAmount(ctx, asset, argAt(args, 1), raw)
				if err != nil {
					return err
				}
				_, err = svc.Withdraw(ctx, from, asset, amount, recipient)
				return err
			})
		},
	}
	cmd.Flags().StringVar(&to, "to", "", "recipient (default: the sender)")
	cmd.Flags().BoolVar(&raw, "raw", false, "amount is in base units")
	return cmd
}

func newRepayCmd(flags *globalFlags) *cobra.Command {
	var (
		mode       string
		onBehalfOf string
		raw        bool
	)
	cmd := &cobra.Command{
		Use:   "repay <asset> [amount|max]",
		Short: "Approve the pool and repay debt (default: all of it)",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			asset, err := parseAddress("asset", args[0])
			if err != nil {
				return err
			}
			rateMode, err := entity.ParseInterestRateMode(mode)
			if err != nil {
				return err
			}
			debtor, err := parseOptionalAddress("--on-behalf-of", onBehalfOf)
			if err != nil {
				return err
			}
			return withLending(cmd, flags, 0, func(ctx context.Context, a *app, svc *lending.Service, from outbound.Account) error {
				amount, err := a.optionalAmount(ctx, asset, argAt(args, 1), raw)
				if err != nil {
					return err
				}
				_, err = svc.Repay(ctx, from, asset, amount, rateMode, debtor)
				return err
			})
		},
	}
	cmd.Flags().StringVar(&mode, "mode", "variable", "interest rate mode: variable or stable")
	cmd.Flags().StringVar(&onBehalfOf, "on-behalf-of", "", "repay this address's debt (default: the sender)")
	cmd.Flags().BoolVar(&raw, "raw", false, "amount is in base units")
	return cmd
}

func newInteractCmd(flags *globalFlags) *cobra.Command {
	var (
		borrowAsset  string
		borrowAmount string
		borrowExtra  string
		mode         string
		fraction     float64
		raw          bool
	)
	cmd := &cobra.Command{
		Use:   "interact <asset> <supply-amount>",
		Short: "Approve, supply and borrow in one strictly ordered sequence",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			asset, err := parseAddress("asset", args[0])
			if err != nil {
				return err
			}
			borrowAddr, err := parseOptionalAddress("--borrow-asset", borrowAsset)
			if err != nil {
				return err
			}
			rateMode, err := entity.ParseInterestRateMode(mode)
			if err != nil {
				return err
			}
			return withLending(cmd, flags, fraction, func(ctx context.Context, a *app, svc *lending.Service, from outbound.Account) error {
				req := lending.InteractRequest{Asset: asset, BorrowAsset: borrowAddr, Mode: rateMode}
				if req.SupplyAmount, err = a.amount(ctx, asset, args[1], raw); err != nil {
					return err
				}
				if borrowExtra != "" {
					if req.BorrowExtra, err = a.amount(ctx, asset, borrowExtra, raw); err != nil {
						return err
					}
				}
				if borrowAmount != "" {
					target := borrowAddr
					if !entity.IsSet(target) {
						target = asset
					}
					if req.BorrowAmount, err = a.amount(ctx, target, borrowAmount, raw); err != nil {
						return err
					}
				}
				return svc.Interact(ctx, from, req)
			})
		},
	}
	cmd.Flags().StringVar(&borrowAsset, "borrow-asset", "", "asset to borrow (default: the supplied asset)")
	cmd.Flags().StringVar(&borrowAmount, "borrow-amount", "", "amount to borrow (default: --fraction of available borrows)")
	cmd.Flags().StringVar(&borrowExtra, "borrow-extra", "", "borrow the supply amount plus this much of the supplied asset")
	cmd.MarkFlagsMutuallyExclusive("borrow-amount", "borrow-extra")
	cmd.Flags().StringVar(&mode, "mode", "variable", "interest rate mode: variable or stable")
	cmd.Flags().Float64Var(&fraction, "fraction", lending.DefaultBorrowFraction, "share of available borrows used when no amount is given")
	cmd.Flags().BoolVar(&raw, "raw", false, "amounts are in base units")
	return cmd
}

func argAt(args []string, i int) string {
	if i < len(args) {
		return args[i]
	}
	return ""
}
