// Package postgres implements the account, subscription and invoice storage
// ports on a jackc/pgx/v5 pool.
//
// Schema changes live in migrations/ as goose SQL files and are embedded into
// the binary; pass Migrations() to pg.Migrate.
//
// Uniqueness rules are enforced by the schema, not by read-then-write checks:
// referral codes are unique case-insensitively, a referral pair is recorded
// once, and every account owns at most one subscription row. Counters are
// incremented in a single UPDATE so concurrent referrals never lose a count.
package postgres
