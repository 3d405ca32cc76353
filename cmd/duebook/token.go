package main

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/dmitrymomot/duebook/pkg/config"
	"github.com/dmitrymomot/duebook/pkg/jwt"
)

func newTokenCmd() *cobra.Command {
	var (
		accountID string
		email     string
		ttl       time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a development access token for an account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if _, env := newLogger(cfg); env.IsProduction() {
				return fmt.Errorf("token: refusing to issue tokens in production")
			}

			id, err := uuid.Parse(accountID)
			if err != nil {
				return fmt.Errorf("--account: %w", err)
			}
			var jwtCfg jwt.Config
			if err := config.Load(&jwtCfg); err != nil {
				return err
			}
			tokens, err := jwt.New(jwtCfg)
			if err != nil {
				return err
			}
			token, err := tokens.Issue(id, email, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&accountID, "account", "", "account id to put in the subject")
	cmd.Flags().StringVar(&email, "email", "", "email claim")
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "token lifetime")
	_ = cmd.MarkFlagRequired("account")
	return cmd
}
