package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/archon-research/lendpool/internal/services/account_resolver"
)

// globalFlags are the persistent flags shared by every subcommand.
type globalFlags struct {
	network      string
	configPath   string
	accountIndex int
	accountID    string
	verbose      bool
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:           "lendpool",
		Short:         "Deploy and interact with an Aave-style lending pool",
		Long:          `lendpool deploys contracts, wraps ETH into WETH and supplies or borrows against an Aave v3 pool on a configured network.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&flags.network, "network", "n", "", "network name (hardhat, ganache, mainnet-fork, development, sepolia, mainnet or one from the config file)")
	pf.StringVar(&flags.configPath, "config", "", "config file (default lendpool.yaml)")
	pf.IntVar(&flags.accountIndex, "account-index", 0, "use the preloaded account at this index")
	pf.StringVar(&flags.accountID, "account-id", "", "keystore account (address or key file name)")
	pf.BoolVarP(&flags.verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(
		newAccountsCmd(flags),
		newDeployCmd(flags),
		newDeploymentsCmd(flags),
		newWethCmd(flags),
		newApproveCmd(flags),
		newSupplyCmd(flags),
		newBorrowCmd(flags),
		newWithdrawCmd(flags),
		newRepayCmd(flags),
		newInteractCmd(flags),
		newUserDataCmd(flags),
		newReservesCmd(flags),
		newSnapshotCmd(flags),
		newCallCmd(flags),
		newHistoryCmd(flags),
		newVersionCmd(),
	)
	return root
}

// accountRequest builds the resolver request. --account-index counts only
// when given on the command line, so index 0 is explicit.
func (f *globalFlags) accountRequest(cmd *cobra.Command) account_resolver.Request {
	req := account_resolver.Request{ID: f.accountID}
	if cmd.Flags().Changed("account-index") {
		i := f.accountIndex
		req.Index = &i
	}
	return req
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "lendpool\n  Commit:     %s\n  Build Time: %s\n", GitCommit, BuildTime)
		},
	}
}
