package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/archon-research/lendpool/internal/services/contract_call"
)

func newCallCmd(flags *globalFlags) *cobra.Command {
	var artifact string
	cmd := &cobra.Command{
		Use:   "call <address> <method> [args...]",
		Short: "Call a view method and print the decoded result",
		Long: `Calls a view or pure method. The ABI comes from --artifact, then from
Etherscan when ETHERSCAN_API_KEY is set, then from the built-in Aave, WETH,
ERC-20 and Multicall3 fragments.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			address, err := parseAddress("address", args[0])
			if err != nil {
				return err
			}
			return runWithApp(cmd, flags, true, func(ctx context.Context, a *app) error {
				svc, err := a.callService()
				if err != nil {
					return err
				}
				_, err = svc.Call(ctx, contract_call.Request{
					Address:  address,
					Method:   args[1],
					Args:     args[2:],
					Artifact: artifact,
				})
				return err
			})
		},
	}
	cmd.Flags().StringVar(&artifact, "artifact", "", "artifact JSON path or s3://bucket/key describing the contract")
	return cmd
}
