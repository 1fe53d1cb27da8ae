package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/ipanov/UrbanAI-sub002/internal/domain"
)

// UsersPG stores users and their external logins.
type UsersPG struct {
	pg *PG
}

func NewUsersPG(pg *PG) *UsersPG { return &UsersPG{pg: pg} }

// Create inserts the user and its external login in one transaction.
// A concurrent insert for the same (provider, external_id) surfaces as
// ErrDuplicate.
func (r *UsersPG) Create(ctx context.Context, u *domain.User, login *domain.ExternalLogin) error {
	tx, err := r.pg.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO users (id, username, role, user_type, registration_completed, onboarding_step, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		u.ID, u.Username, u.Role, int(u.UserType), u.RegistrationCompleted, u.OnboardingStep, u.CreatedAt)
	if err != nil {
		if IsUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("insert user: %w", err)
	}

	login.ID = uuid.NewString()
	login.UserID = u.ID
	login.CreatedAt = u.CreatedAt
	_, err = tx.Exec(ctx, `
		INSERT INTO external_logins (id, provider, external_id, user_id, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		login.ID, login.Provider, login.ExternalID, login.UserID, login.CreatedAt)
	if err != nil {
		if IsUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("insert external login: %w", err)
	}

	return tx.Commit(ctx)
}

// GetByExternalLogin resolves the account behind an OAuth identity.
// Returns (nil, nil) when no account exists.
func (r *UsersPG) GetByExternalLogin(ctx context.Context, provider, externalID string) (*domain.User, error) {
	row := r.pg.Pool.QueryRow(ctx, `
		SELECT u.id, u.username, u.role, u.user_type, u.registration_completed, u.onboarding_step, u.created_at
		FROM users u
		JOIN external_logins el ON el.user_id = u.id
		WHERE el.provider = $1 AND el.external_id = $2`,
		provider, externalID)
	return scanUser(row)
}

// GetByID returns (nil, nil) when the user does not exist.
func (r *UsersPG) GetByID(ctx context.Context, id string) (*domain.User, error) {
	row := r.pg.Pool.QueryRow(ctx, `
		SELECT id, username, role, user_type, registration_completed, onboarding_step, created_at
		FROM users WHERE id = $1`, id)
	return scanUser(row)
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	var userType int
	err := row.Scan(&u.ID, &u.Username, &u.Role, &userType,
		&u.RegistrationCompleted, &u.OnboardingStep, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan user: %w", err)
	}
	u.UserType = domain.UserType(userType)
	return &u, nil
}
