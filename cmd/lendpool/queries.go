package main

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"

	"github.com/archon-research/lendpool/internal/services/lending"
)

// queryFunc runs a read-only lending query for user.
type queryFunc func(ctx context.Context, a *app, svc *lending.Service, user common.Address) error

// withQuery resolves user from the given address, or from the configured
// account when the address is empty.
func withQuery(cmd *cobra.Command, flags *globalFlags, address string, fn queryFunc) error {
	user, err := parseOptionalAddress("user", address)
	if err != nil {
		return err
	}
	return runWithApp(cmd, flags, true, func(ctx context.Context, a *app) error {
		if user == (common.Address{}) {
			acct, err := a.account(cmd, flags)
			if err != nil {
				return err
			}
			user = acct.Address()
		}
		svc, err := a.lendingService(0)
		if err != nil {
			return err
		}
		return fn(ctx, a, svc, user)
	})
}

func newUserDataCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "user-data [address]",
		Short: "Print the account's collateral, debt and health factor",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withQuery(cmd, flags, argAt(args, 0), func(ctx context.Context, a *app, svc *lending.Service, user common.Address) error {
				if _, err := svc.UserData(ctx, user); err != nil {
					return err
				}
				fmt.Fprintln(a.out, "Reserves in use:")
				reserves, err := svc.UserReserves(ctx, user)
				if err != nil {
					return err
				}
				if len(reserves) == 0 {
					fmt.Fprintln(a.out, "  none")
				}
				return nil
			})
		},
	}
}

func newReservesCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "reserves",
		Short: "List the pool's reserves and their risk parameters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runWithApp(cmd, flags, true, func(ctx context.Context, a *app) error {
				svc, err := a.lendingService(0)
				if err != nil {
					return err
				}
				_, err = svc.Reserves(ctx)
				return err
			})
		},
	}
}

func newSnapshotCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "snapshot <asset> [address]",
		Short: "Read balances, allowance and account data in one multicall",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			asset, err := parseAddress("asset", args[0])
			if err != nil {
				return err
			}
			return withQuery(cmd, flags, argAt(args, 1), func(ctx context.Context, _ *app, svc *lending.Service, user common.Address) error {
				_, err := svc.Snapshot(ctx, user, asset)
				return err
			})
		},
	}
}
