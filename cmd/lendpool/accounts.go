package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/archon-research/lendpool/internal/pkg/blockchain"
)

func newAccountsCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "accounts",
		Short: "List the network's preloaded accounts with their ETH balances",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runWithApp(cmd, flags, true, func(ctx context.Context, a *app) error {
				addrs, err := a.accounts.List()
				if err != nil {
					return err
				}
				if len(addrs) == 0 {
					fmt.Fprintf(a.out, "No preloaded accounts on %s\n", a.cfg.Network.Name)
					return nil
				}
				for i, addr := range addrs {
					balance, err := a.client.BalanceAt(ctx, addr, nil)
					if err != nil {
						return fmt.Errorf("reading balance of %s: %w", addr.Hex(), err)
					}
					fmt.Fprintf(a.out, "%2d %s %s ETH\n", i, addr.Hex(), blockchain.FormatUnits(balance, 18))
				}
				return nil
			})
		},
	}
}
