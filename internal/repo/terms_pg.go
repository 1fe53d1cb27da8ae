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

// TermsPG stores terms-of-service versions and acceptance records.
type TermsPG struct {
	pg *PG
}

func NewTermsPG(pg *PG) *TermsPG { return &TermsPG{pg: pg} }

// Current returns the active version, or (nil, nil) when none is published.
func (r *TermsPG) Current(ctx context.Context) (*domain.TermsOfService, error) {
	row := r.pg.Pool.QueryRow(ctx, `
		SELECT id, version, title, content, effective_date, is_active, url, created_at
		FROM terms_of_service WHERE is_active ORDER BY effective_date DESC LIMIT 1`)
	return scanTerms(row)
}

func (r *TermsPG) GetByVersion(ctx context.Context, version string) (*domain.TermsOfService, error) {
	row := r.pg.Pool.QueryRow(ctx, `
		SELECT id, version, title, content, effective_date, is_active, url, created_at
		FROM terms_of_service WHERE version = $1`, version)
	return scanTerms(row)
}

// RecordAcceptance appends one acceptance row.
func (r *TermsPG) RecordAcceptance(ctx context.Context, a *domain.UserTermsOfService) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.AcceptedAt.IsZero() {
		a.AcceptedAt = time.Now().UTC()
	}
	_, err := r.pg.Pool.Exec(ctx, `
		INSERT INTO user_terms_of_service (id, user_id, version, accepted_at, ip_address, user_agent)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		a.ID, a.UserID, a.Version, a.AcceptedAt, a.IPAddress, a.UserAgent)
	if err != nil {
		return fmt.Errorf("record terms acceptance: %w", err)
	}
	return nil
}

func scanTerms(row pgx.Row) (*domain.TermsOfService, error) {
	var t domain.TermsOfService
	err := row.Scan(&t.ID, &t.Version, &t.Title, &t.Content,
		&t.EffectiveDate, &t.IsActive, &t.URL, &t.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan terms: %w", err)
	}
	return &t, nil
}
