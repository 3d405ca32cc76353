package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/duebook/pkg/config"
	"github.com/dmitrymomot/duebook/pkg/pg"
	"github.com/dmitrymomot/duebook/store/postgres"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "migrate [up|down]",
		Short:     "Apply or roll back the Postgres schema",
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"up", "down"},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			log, _ := newLogger(cfg)

			var pgCfg pg.Config
			if err := config.Load(&pgCfg); err != nil {
				return err
			}
			pool, err := pg.Connect(ctx, pgCfg)
			if err != nil {
				return err
			}
			defer pool.Close()

			direction := "up"
			if len(args) > 0 {
				direction = args[0]
			}
			switch direction {
			case "down":
				err = pg.Rollback(ctx, pool, pgCfg, postgres.Migrations(), log)
			default:
				err = pg.Migrate(ctx, pool, pgCfg, postgres.Migrations(), log)
			}
			if err != nil {
				return fmt.Errorf("migrate %s: %w", direction, err)
			}
			return nil
		},
	}
}
