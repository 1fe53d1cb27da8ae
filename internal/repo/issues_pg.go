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

const issueCols = `id, title, description, photo_url, latitude, longitude, address,
	status, classification, resolution, reporter_id, reported_at, updated_at`

// IssuesPG stores reported issues.
type IssuesPG struct {
	pg *PG
}

func NewIssuesPG(pg *PG) *IssuesPG { return &IssuesPG{pg: pg} }

func (r *IssuesPG) Create(ctx context.Context, is *domain.Issue) error {
	if is.ID == "" {
		is.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if is.ReportedAt.IsZero() {
		is.ReportedAt = now
	}
	is.UpdatedAt = now
	_, err := r.pg.Pool.Exec(ctx, `
		INSERT INTO issues (`+issueCols+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		is.ID, is.Title, is.Description, is.PhotoURL, is.Latitude, is.Longitude, is.Address,
		string(is.Status), is.Classification, is.Resolution, is.ReporterID, is.ReportedAt, is.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert issue: %w", err)
	}
	return nil
}

// GetByID returns (nil, nil) when the issue does not exist.
func (r *IssuesPG) GetByID(ctx context.Context, id string) (*domain.Issue, error) {
	row := r.pg.Pool.QueryRow(ctx, `SELECT `+issueCols+` FROM issues WHERE id = $1`, id)
	return scanIssue(row)
}

func (r *IssuesPG) Update(ctx context.Context, is *domain.Issue) error {
	is.UpdatedAt = time.Now().UTC()
	_, err := r.pg.Pool.Exec(ctx, `
		UPDATE issues SET title = $2, description = $3, photo_url = $4, latitude = $5,
			longitude = $6, address = $7, status = $8, classification = $9,
			resolution = $10, updated_at = $11
		WHERE id = $1`,
		is.ID, is.Title, is.Description, is.PhotoURL, is.Latitude, is.Longitude,
		is.Address, string(is.Status), is.Classification, is.Resolution, is.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update issue: %w", err)
	}
	return nil
}

// Delete reports whether a row was removed.
func (r *IssuesPG) Delete(ctx context.Context, id string) (bool, error) {
	tag, err := r.pg.Pool.Exec(ctx, `DELETE FROM issues WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete issue: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *IssuesPG) ListAll(ctx context.Context) ([]domain.Issue, error) {
	rows, err := r.pg.Pool.Query(ctx,
		`SELECT `+issueCols+` FROM issues ORDER BY reported_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list issues: %w", err)
	}
	defer rows.Close()
	return collectIssues(rows)
}

func (r *IssuesPG) ListByReporter(ctx context.Context, reporterID string) ([]domain.Issue, error) {
	rows, err := r.pg.Pool.Query(ctx,
		`SELECT `+issueCols+` FROM issues WHERE reporter_id = $1 ORDER BY reported_at DESC`,
		reporterID)
	if err != nil {
		return nil, fmt.Errorf("list issues by reporter: %w", err)
	}
	defer rows.Close()
	return collectIssues(rows)
}

func collectIssues(rows pgx.Rows) ([]domain.Issue, error) {
	out := make([]domain.Issue, 0, 16)
	for rows.Next() {
		is, err := scanIssue(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *is)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate issues: %w", err)
	}
	return out, nil
}

func scanIssue(row pgx.Row) (*domain.Issue, error) {
	var is domain.Issue
	var status string
	err := row.Scan(&is.ID, &is.Title, &is.Description, &is.PhotoURL,
		&is.Latitude, &is.Longitude, &is.Address, &status, &is.Classification,
		&is.Resolution, &is.ReporterID, &is.ReportedAt, &is.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan issue: %w", err)
	}
	is.Status = domain.IssueStatus(status)
	return &is, nil
}
