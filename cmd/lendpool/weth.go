package main

import (
	"context"
	"fmt"
	"math/big"

	"github.com/spf13/cobra"

	"github.com/archon-research/lendpool/internal/pkg/blockchain"
	"github.com/archon-research/lendpool/internal/ports/outbound"
	"github.com/archon-research/lendpool/internal/services/weth"
)

func newWethCmd(flags *globalFlags) *cobra.Command {
	var raw bool
	cmd := &cobra.Command{
		Use:   "weth",
		Short: "Wrap and unwrap ETH",
	}
	cmd.PersistentFlags().BoolVar(&raw, "raw", false, "amounts are in wei")

	parse := func(s string) (*big.Int, error) {
		if raw {
			return parseRawAmount(s)
		}
		return blockchain.ParseUnits(s, weth.Decimals)
	}

	// wethAction resolves the account and WETH service before calling fn.
	wethAction := func(fn func(ctx context.Context, a *app, svc *weth.Service, from outbound.Account, amount *big.Int) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			amount, err := parse(args[0])
			if err != nil {
				return err
			}
			return runWithApp(cmd, flags, true, func(ctx context.Context, a *app) error {
				from, err := a.account(cmd, flags)
				if err != nil {
					return err
				}
				svc, err := a.wethService()
				if err != nil {
					return err
				}
				return fn(ctx, a, svc, from, amount)
			})
		}
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "wrap <amount>",
			Short: "Deposit ETH into WETH",
			Args:  cobra.ExactArgs(1),
			RunE: wethAction(func(ctx context.Context, a *app, svc *weth.Service, from outbound.Account, amount *big.Int) error {
				_, err := svc.Wrap(ctx, from, amount)
				return err
			}),
		},
		&cobra.Command{
			Use:   "top-up <target>",
			Short: "Wrap only what is missing for the WETH balance to reach target",
			Args:  cobra.ExactArgs(1),
			RunE: wethAction(func(ctx context.Context, a *app, svc *weth.Service, from outbound.Account, target *big.Int) error {
				wrapped, err := svc.TopUp(ctx, from, target)
				if err != nil {
					return err
				}
				if wrapped.Sign() == 0 {
					fmt.Fprintf(a.out, "WETH balance already at or above %s\n", blockchain.FormatUnits(target, weth.Decimals))
				}
				return nil
			}),
		},
		&cobra.Command{
			Use:   "unwrap <amount>",
			Short: "Withdraw WETH back to ETH",
			Args:  cobra.ExactArgs(1),
			RunE: wethAction(func(ctx context.Context, a *app, svc *weth.Service, from outbound.Account, amount *big.Int) error {
				_, err := svc.Unwrap(ctx, from, amount)
				return err
			}),
		},
	)
	return cmd
}
