// Package pg bootstraps the PostgreSQL connection pool (jackc/pgx/v5) and
// applies schema migrations with pressly/goose/v3.
//
//	var cfg pg.Config
//	config.MustLoad(&cfg)
//
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil {
//	    return err
//	}
//	defer pool.Close()
//
//	if err := pg.Migrate(ctx, pool, cfg, postgres.Migrations(), log); err != nil {
//	    return err
//	}
//
// Error helpers (IsNotFoundError, IsDuplicateKeyError, IsDuplicateKeyOn)
// classify driver errors so stores can map them to domain sentinels.
package pg
