package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"storefront-catalog-service/internal/domain"
)

const userColumns = `id, email, password_hash, first_name, last_name, is_staff, is_superuser, date_joined`

func scanUser(row rowScanner) (*domain.User, error) {
	var u domain.User
	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName, &u.IsStaff, &u.IsSuperuser, &u.DateJoined); err != nil {
		return nil, err
	}
	return &u, nil
}

func isEmailUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" { // Unique violation
		return strings.Contains(pqErr.Constraint, "users_email_key") || strings.Contains(pqErr.Detail, "Key (email)")
	}
	return false
}

func (s *PostgresStore) CreateUser(ctx context.Context, user *domain.User) (*domain.User, error) {
	query := `
		INSERT INTO users (email, password_hash, first_name, last_name, is_staff, is_superuser)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + userColumns + `;`

	created, err := scanUser(s.q.QueryRowContext(ctx, query,
		strings.ToLower(user.Email), user.PasswordHash, user.FirstName, user.LastName, user.IsStaff, user.IsSuperuser,
	))
	if err != nil {
		if isEmailUniqueViolation(err) {
			return nil, ErrUserEmailExists
		}
		return nil, fmt.Errorf("store: CreateUser failed to scan row: %w", err)
	}
	return created, nil
}

func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1;`
	user, err := scanUser(s.q.QueryRowContext(ctx, query, strings.ToLower(email)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("store: GetUserByEmail failed to scan row: %w", err)
	}
	return user, nil
}

func (s *PostgresStore) GetUserByID(ctx context.Context, id int64) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1;`
	user, err := scanUser(s.q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("store: GetUserByID failed to scan row: %w", err)
	}
	return user, nil
}

// UpsertStaffUser creates a staff superuser, or promotes the existing account with
// the same email and resets its password. The boolean reports whether a row was inserted.
func (s *PostgresStore) UpsertStaffUser(ctx context.Context, user *domain.User) (*domain.User, bool, error) {
	query := `
		INSERT INTO users (email, password_hash, first_name, last_name, is_staff, is_superuser)
		VALUES ($1, $2, $3, $4, TRUE, TRUE)
		ON CONFLICT (email) DO UPDATE
		SET password_hash = EXCLUDED.password_hash, is_staff = TRUE, is_superuser = TRUE
		RETURNING ` + userColumns + `, (xmax = 0) AS inserted;`

	var u domain.User
	var inserted bool
	err := s.q.QueryRowContext(ctx, query, strings.ToLower(user.Email), user.PasswordHash, user.FirstName, user.LastName).Scan(
		&u.ID, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName, &u.IsStaff, &u.IsSuperuser, &u.DateJoined, &inserted,
	)
	if err != nil {
		return nil, false, fmt.Errorf("store: UpsertStaffUser failed to scan row: %w", err)
	}
	return &u, inserted, nil
}
