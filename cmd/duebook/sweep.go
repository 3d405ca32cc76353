package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func newSweepCmd() *cobra.Command {
	var accountID string
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Mark due Pending invoices Overdue once and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			a, err := newApp(ctx, cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			if accountID == "" {
				n := a.worker.SweepAll(ctx)
				fmt.Fprintf(cmd.OutOrStdout(), "%d invoices marked overdue\n", n)
				return nil
			}

			id, err := uuid.Parse(accountID)
			if err != nil {
				return fmt.Errorf("--account: %w", err)
			}
			n, err := a.invoices.SweepOverdue(ctx, id)
			fmt.Fprintf(cmd.OutOrStdout(), "%d invoices marked overdue\n", n)
			return err
		},
	}
	cmd.Flags().StringVar(&accountID, "account", "", "sweep a single account id instead of every account")
	return cmd
}
