package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/archon-research/lendpool/internal/domain/entity"
)

func newHistoryCmd(flags *globalFlags) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List journaled transactions on the network, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runWithApp(cmd, flags, false, func(ctx context.Context, a *app) error {
				records, err := a.journal.List(ctx, a.cfg.Network.Name, limit)
				if err != nil {
					return fmt.Errorf("listing transactions: %w", err)
				}
				if len(records) == 0 {
					fmt.Fprintf(a.out, "No transactions recorded on %s\n", a.cfg.Network.Name)
					return nil
				}
				for _, r := range records {
					printRecord(a.out, r)
				}
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of records (0 for all)")
	return cmd
}

func printRecord(w io.Writer, r *entity.TransactionRecord) {
	to := "(create)"
	if r.To != nil {
		to = r.To.Hex()
	}
	fmt.Fprintf(w, "%s %-14s %-9s %s from=%s to=%s",
		r.SubmittedAt.Format(time.RFC3339), r.Action, r.Status, r.Hash.Hex(), r.From.Hex(), to)
	if r.Status != entity.TxStatusPending {
		fmt.Fprintf(w, " block=%d gas=%d", r.BlockNumber, r.GasUsed)
	}
	fmt.Fprintln(w)
}
