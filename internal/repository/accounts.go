package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/DishantMadariya/ghost-feedbacksystem-backend/internal/auth"
	"github.com/DishantMadariya/ghost-feedbacksystem-backend/internal/domain"
)

const accountColumns = `
	id, email, password_hash, role, first_name, last_name,
	perm_view_suggestions, perm_edit_suggestions, perm_delete_suggestions, perm_manage_suggestions,
	perm_manage_admins, perm_export_data, perm_view_analytics,
	is_active, failed_login_count, lock_until, last_login, created_at, updated_at, version
`

func scanAccount(row rowScanner) (*domain.Account, error) {
	a := &domain.Account{}
	var lockUntil, lastLogin sql.NullTime
	dst := []any{
		&a.ID, &a.Email, &a.PasswordHash, &a.Role, &a.FirstName, &a.LastName,
		&a.Permissions.ViewSuggestions, &a.Permissions.EditSuggestions, &a.Permissions.DeleteSuggestions, &a.Permissions.ManageSuggestions,
		&a.Permissions.ManageAdmins, &a.Permissions.ExportData, &a.Permissions.ViewAnalytics,
		&a.IsActive, &a.FailedLoginCount, &lockUntil, &lastLogin, &a.CreatedAt, &a.UpdatedAt, &a.Version,
	}
	if err := row.Scan(dst...); err != nil {
		return nil, err
	}
	a.LockUntil = nullTime(lockUntil)
	a.LastLogin = nullTime(lastLogin)
	return a, nil
}

func (r *Repository) GetAccountByID(ctx context.Context, id int64) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	a, err := scanAccount(r.dbpool.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, mapError(err)
	}
	return a, nil
}

// GetAccountByEmail matches case-insensitively; emails are stored lower-cased.
func (r *Repository) GetAccountByEmail(ctx context.Context, email string) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE email = $1`

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	a, err := scanAccount(r.dbpool.QueryRowContext(ctx, query, domain.NormalizeEmail(email)))
	if err != nil {
		return nil, mapError(err)
	}
	return a, nil
}

func (r *Repository) CreateAccount(ctx context.Context, a *domain.Account) error {
	query := `
		INSERT INTO accounts (
			email, password_hash, role, first_name, last_name,
			perm_view_suggestions, perm_edit_suggestions, perm_delete_suggestions, perm_manage_suggestions,
			perm_manage_admins, perm_export_data, perm_view_analytics, is_active
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id, failed_login_count, created_at, updated_at, version
	`

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	a.Email = domain.NormalizeEmail(a.Email)
	p := a.Permissions
	args := []any{
		a.Email, a.PasswordHash, a.Role, a.FirstName, a.LastName,
		p.ViewSuggestions, p.EditSuggestions, p.DeleteSuggestions, p.ManageSuggestions,
		p.ManageAdmins, p.ExportData, p.ViewAnalytics, a.IsActive,
	}
	dst := []any{&a.ID, &a.FailedLoginCount, &a.CreatedAt, &a.UpdatedAt, &a.Version}
	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(dst...); err != nil {
		return mapError(err)
	}
	return nil
}

// UpdateAccount saves profile, role, permission and status fields. The
// password hash is never touched here. A stale version yields ErrConflict.
func (r *Repository) UpdateAccount(ctx context.Context, a *domain.Account) error {
	query := `
		UPDATE accounts
		SET
			email = $1,
			role = $2,
			first_name = $3,
			last_name = $4,
			perm_view_suggestions = $5,
			perm_edit_suggestions = $6,
			perm_delete_suggestions = $7,
			perm_manage_suggestions = $8,
			perm_manage_admins = $9,
			perm_export_data = $10,
			perm_view_analytics = $11,
			is_active = $12,
			updated_at = NOW(),
			version = version + 1
		WHERE id = $13 AND version = $14
		RETURNING updated_at, version
	`

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	a.Email = domain.NormalizeEmail(a.Email)
	p := a.Permissions
	args := []any{
		a.Email, a.Role, a.FirstName, a.LastName,
		p.ViewSuggestions, p.EditSuggestions, p.DeleteSuggestions, p.ManageSuggestions,
		p.ManageAdmins, p.ExportData, p.ViewAnalytics, a.IsActive,
		a.ID, a.Version,
	}
	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(&a.UpdatedAt, &a.Version); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: account was modified concurrently", domain.ErrConflict)
		}
		return mapError(err)
	}
	return nil
}

// SetAccountStatus flips the active flag without a version check.
func (r *Repository) SetAccountStatus(ctx context.Context, id int64, active bool) (*domain.Account, error) {
	query := `
		UPDATE accounts
		SET is_active = $1, updated_at = NOW(), version = version + 1
		WHERE id = $2
		RETURNING ` + accountColumns

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	a, err := scanAccount(r.dbpool.QueryRowContext(ctx, query, active, id))
	if err != nil {
		return nil, mapError(err)
	}
	return a, nil
}

// RecordFailedLogin is auth.LockoutPolicy.AfterFailure as a single
// conditional statement, so concurrent failures never lose an increment.
func (r *Repository) RecordFailedLogin(ctx context.Context, id int64, now time.Time, policy auth.LockoutPolicy) (auth.LoginState, error) {
	query := `
		UPDATE accounts
		SET
			failed_login_count = CASE
				WHEN lock_until IS NOT NULL AND lock_until <= $2 THEN 1
				ELSE failed_login_count + 1
			END,
			lock_until = CASE
				WHEN lock_until IS NOT NULL AND lock_until <= $2 THEN NULL
				WHEN lock_until IS NOT NULL THEN lock_until
				WHEN failed_login_count + 1 >= $3 THEN $4::timestamptz
				ELSE NULL
			END,
			updated_at = $2
		WHERE id = $1
		RETURNING failed_login_count, lock_until
	`

	if policy.MaxAttempts <= 0 || policy.Duration <= 0 {
		policy = auth.DefaultLockoutPolicy()
	}

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var (
		state     auth.LoginState
		lockUntil sql.NullTime
	)
	args := []any{id, now, policy.MaxAttempts, now.Add(policy.Duration)}
	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(&state.FailedCount, &lockUntil); err != nil {
		return auth.LoginState{}, mapError(err)
	}
	state.LockUntil = nullTime(lockUntil)
	return state, nil
}

func (r *Repository) ResetFailedLogins(ctx context.Context, id int64, lastLogin time.Time) error {
	query := `
		UPDATE accounts
		SET failed_login_count = 0, lock_until = NULL, last_login = $2
		WHERE id = $1
	`

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	return r.execOne(ctx, query, id, lastLogin)
}

// UpdatePassword stores a new hash and clears lockout state.
func (r *Repository) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	query := `
		UPDATE accounts
		SET
			password_hash = $2,
			failed_login_count = 0,
			lock_until = NULL,
			updated_at = NOW(),
			version = version + 1
		WHERE id = $1
	`

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	return r.execOne(ctx, query, id, passwordHash)
}

func (r *Repository) ListAccounts(ctx context.Context) ([]*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts ORDER BY created_at DESC`

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	accounts := make([]*domain.Account, 0)
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		a.PasswordHash = ""
		accounts = append(accounts, a)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return accounts, nil
}

// ListAccountNames returns active accounts that can be picked as assignees.
func (r *Repository) ListAccountNames(ctx context.Context) ([]domain.AccountName, error) {
	query := `
		SELECT id, first_name, last_name, role, email
		FROM accounts
		WHERE is_active = TRUE
		ORDER BY first_name, last_name
	`

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	names := make([]domain.AccountName, 0)
	for rows.Next() {
		var (
			n                   domain.AccountName
			firstName, lastName string
		)
		if err := rows.Scan(&n.ID, &firstName, &lastName, &n.Role, &n.Email); err != nil {
			return nil, err
		}
		n.Name = domain.NormalizeName(firstName + " " + lastName)
		names = append(names, n)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return names, nil
}

func (r *Repository) execOne(ctx context.Context, query string, args ...any) error {
	res, err := r.dbpool.ExecContext(ctx, query, args...)
	if err != nil {
		return mapError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func nullTime(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}
