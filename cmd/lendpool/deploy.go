package main

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"

	"github.com/archon-research/lendpool/internal/services/deployer"
)

type deployOptions struct {
	artifact string
	name     string
	provider string
	reuse    bool
	address  string
}

func newDeployCmd(flags *globalFlags) *cobra.Command {
	opts := &deployOptions{}
	cmd := &cobra.Command{
		Use:   "deploy [constructor-args...]",
		Short: "Deploy a contract from a build artifact",
		Long: `Deploys the contract in --artifact with the given constructor arguments.

Without arguments the default TestingAavePool artifact is deployed against the
network's PoolAddressesProvider. With --reuse, a valid --address is attached to,
otherwise the latest recorded deployment is used and a new one is deployed only
when none exists.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithApp(cmd, flags, true, func(ctx context.Context, a *app) error {
				return runDeploy(ctx, a, cmd, flags, opts, args)
			})
		},
	}
	f := cmd.Flags()
	f.StringVar(&opts.artifact, "artifact", deployer.DefaultArtifact, "artifact JSON path or s3://bucket/key (.gz accepted)")
	f.StringVar(&opts.name, "name", "", "contract name to record (default: from the artifact)")
	f.StringVar(&opts.provider, "provider", "", "PoolAddressesProvider for the default TestingAavePool (default: from config)")
	f.BoolVar(&opts.reuse, "reuse", false, "attach to --address or the latest deployment instead of always deploying")
	f.StringVar(&opts.address, "address", "", "existing contract address used with --reuse")
	return cmd
}

func runDeploy(ctx context.Context, a *app, cmd *cobra.Command, flags *globalFlags, opts *deployOptions, args []string) error {
	from, err := a.account(cmd, flags)
	if err != nil {
		return err
	}
	svc, err := a.deployerService()
	if err != nil {
		return err
	}

	req := deployer.Request{Artifact: opts.artifact, Args: args, Name: opts.name}
	testingPool := len(args) == 0 && opts.artifact == deployer.DefaultArtifact

	if opts.reuse {
		if testingPool {
			provider, err := resolveProvider(ctx, a, opts.provider)
			if err != nil {
				return err
			}
			req.Args = []string{provider.Hex()}
			if req.Name == "" {
				req.Name = deployer.DefaultContract
			}
		}
		addr, err := svc.GetOrDeploy(ctx, from, opts.address, req)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Using %s\n", addr.Hex())
		return nil
	}

	if testingPool {
		provider, err := resolveProvider(ctx, a, opts.provider)
		if err != nil {
			return err
		}
		_, err = svc.DeployTestingPool(ctx, from, opts.artifact, provider)
		return err
	}
	_, err = svc.Deploy(ctx, from, req)
	return err
}

func resolveProvider(ctx context.Context, a *app, flagValue string) (common.Address, error) {
	if flagValue != "" {
		return parseAddress("--provider", flagValue)
	}
	return a.resolver.ResolveAddressesProvider(ctx)
}

func newDeploymentsCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "deployments",
		Short: "List the contracts deployed on the network",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runWithApp(cmd, flags, true, func(ctx context.Context, a *app) error {
				svc, err := a.deployerService()
				if err != nil {
					return err
				}
				deployments, err := svc.List(ctx)
				if err != nil {
					return err
				}
				if len(deployments) == 0 {
					fmt.Fprintf(a.out, "No deployments recorded on %s\n", a.cfg.Network.Name)
				}
				return nil
			})
		},
	}
}
