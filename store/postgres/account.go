package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/dmitrymomot/duebook/pkg/pg"
	"github.com/dmitrymomot/duebook/svc/account"
)

const accountColumns = `id, email, name, company_name, company_email, company_phone, referral_code,
	referred_by, referral_count, status, subscription_end_date, created_at, updated_at`

// AccountStore implements account.Store.
type AccountStore struct {
	db DB
}

// NewAccountStore creates the store. Panics if db is nil.
func NewAccountStore(db DB) *AccountStore {
	if db == nil {
		panic("postgres: DB is required")
	}
	return &AccountStore{db: db}
}

func scanAccount(row pgx.Row) (*account.Account, error) {
	var acc account.Account
	err := row.Scan(&acc.ID, &acc.Email, &acc.Name, &acc.CompanyName, &acc.CompanyEmail, &acc.CompanyPhone,
		&acc.ReferralCode, &acc.ReferredBy, &acc.ReferralCount, &acc.Status, &acc.SubscriptionEndDate,
		&acc.CreatedAt, &acc.UpdatedAt)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, account.ErrAccountNotFound
		}
		return nil, fmt.Errorf("scan account: %w", err)
	}
	return &acc, nil
}

func (s *AccountStore) GetAccount(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	return scanAccount(s.db.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id))
}

func (s *AccountStore) CreateAccount(ctx context.Context, acc *account.Account) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO accounts (id, email, name, company_name, company_email, company_phone, referral_code,
			referred_by, referral_count, status, subscription_end_date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		acc.ID, acc.Email, acc.Name, acc.CompanyName, acc.CompanyEmail, acc.CompanyPhone, acc.ReferralCode,
		acc.ReferredBy, acc.ReferralCount, acc.Status, acc.SubscriptionEndDate, acc.CreatedAt, acc.UpdatedAt,
	)
	switch {
	case err == nil:
		return nil
	case pg.IsDuplicateKeyOn(err, "accounts_pkey"):
		return account.ErrAccountAlreadyExists
	case pg.IsDuplicateKeyOn(err, "accounts_referral_code_key"):
		return account.ErrReferralCodeTaken
	}
	return fmt.Errorf("insert account: %w", err)
}

func (s *AccountStore) ReferralCodeExists(ctx context.Context, code string) (bool, error) {
	var exists bool
	err := s.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM accounts WHERE upper(referral_code) = upper($1))`, code,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check referral code: %w", err)
	}
	return exists, nil
}

func (s *AccountStore) FindByReferralCode(ctx context.Context, code string) (*account.Account, error) {
	return scanAccount(s.db.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE upper(referral_code) = upper(btrim($1))`, code))
}

func (s *AccountStore) LinkReferrer(ctx context.Context, accountID, referrerID uuid.UUID, at time.Time) error {
	return s.update(ctx, `UPDATE accounts SET referred_by = $2, updated_at = $3 WHERE id = $1`, accountID, referrerID, at)
}

func (s *AccountStore) CreateReferral(ctx context.Context, ref *account.Referral) error {
	if ref.ReferrerID == ref.ReferredID {
		return account.ErrSelfReferral
	}
	_, err := s.db.Exec(ctx, `
		INSERT INTO referrals (id, referrer_id, referred_id, status, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		ref.ID, ref.ReferrerID, ref.ReferredID, ref.Status, ref.CreatedAt,
	)
	switch {
	case err == nil:
		return nil
	case pg.IsDuplicateKeyOn(err, "referrals_pair_key"):
		return account.ErrReferralExists
	case pg.IsForeignKeyViolationError(err):
		return account.ErrAccountNotFound
	}
	return fmt.Errorf("insert referral: %w", err)
}

func (s *AccountStore) IncrementReferralCount(ctx context.Context, id uuid.UUID) (int, error) {
	var n int
	err := s.db.QueryRow(ctx, `
		UPDATE accounts SET referral_count = referral_count + 1, updated_at = now()
		WHERE id = $1
		RETURNING referral_count`, id,
	).Scan(&n)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return 0, account.ErrAccountNotFound
		}
		return 0, fmt.Errorf("increment referral count: %w", err)
	}
	return n, nil
}

func (s *AccountStore) ExtendSubscription(ctx context.Context, id uuid.UUID, end time.Time, status account.Status, at time.Time) error {
	return s.update(ctx,
		`UPDATE accounts SET subscription_end_date = $2, status = $3, updated_at = $4 WHERE id = $1`,
		id, end, status, at)
}

// UpdatePlanStatus relies on GREATEST skipping NULLs: a nil end or an unset column keeps the other value.
func (s *AccountStore) UpdatePlanStatus(ctx context.Context, id uuid.UUID, status account.Status, end *time.Time, at time.Time) error {
	return s.update(ctx, `
		UPDATE accounts
		SET status = $2, subscription_end_date = GREATEST(subscription_end_date, $3::timestamptz), updated_at = $4
		WHERE id = $1`,
		id, status, end, at)
}

func (s *AccountStore) update(ctx context.Context, sql string, args ...any) error {
	tag, err := s.db.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update account: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return account.ErrAccountNotFound
	}
	return nil
}

var _ account.Store = (*AccountStore)(nil)
