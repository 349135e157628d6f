package leave

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/campushub-erp/campushub/internal/shared"
)

// Repository provides PostgreSQL backed persistence for leave.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const applicationColumns = `
	la.id, la.school_id, la.applicant_id, COALESCE(t.full_name, ''),
	la.leave_type, la.from_date, la.to_date, la.reason,
	la.status, COALESCE(la.reviewed_by::text, ''), COALESCE(la.review_note, ''), la.reviewed_at,
	la.created_at, la.updated_at`

const applicationJoins = `
	FROM leave_applications la
	LEFT JOIN teachers t ON t.id = la.applicant_id`

// List returns applications matching the filter, newest first.
func (r *Repository) List(ctx context.Context, f ListFilter) ([]Application, error) {
	where := []string{"la.school_id = $1"}
	args := []any{f.SchoolID}
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if f.ApplicantID != "" {
		where = append(where, "la.applicant_id = "+arg(f.ApplicantID))
	}
	if f.Status != "" {
		where = append(where, "la.status = "+arg(string(f.Status)))
	}
	if !f.From.IsZero() {
		where = append(where, "la.to_date >= "+arg(f.From))
	}
	if !f.To.IsZero() {
		where = append(where, "la.from_date <= "+arg(f.To))
	}

	query := "SELECT " + applicationColumns + applicationJoins +
		"\n\tWHERE " + strings.Join(where, " AND ") +
		"\n\tORDER BY la.created_at DESC"
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list leave applications: %w", err)
	}
	defer rows.Close()

	out := make([]Application, 0)
	for rows.Next() {
		a, err := scanApplication(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// Get loads one application.
func (r *Repository) Get(ctx context.Context, schoolID, id string) (*Application, error) {
	query := "SELECT " + applicationColumns + applicationJoins + "\n\tWHERE la.school_id = $1 AND la.id = $2"
	a, err := scanApplication(r.pool.QueryRow(ctx, query, schoolID, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// Create inserts a pending application.
func (r *Repository) Create(ctx context.Context, a Application) (*Application, error) {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	err := r.pool.QueryRow(ctx, `
		INSERT INTO leave_applications (
			id, school_id, applicant_id, leave_type, from_date, to_date, reason, status,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
		RETURNING created_at, updated_at`,
		a.ID, a.SchoolID, a.ApplicantID, string(a.LeaveType),
		a.FromDate, a.ToDate, a.Reason, string(a.Status),
	).Scan(&a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("create leave application: %w", err)
	}
	return &a, nil
}

// UpdateReview persists a status transition with its review metadata.
func (r *Repository) UpdateReview(ctx context.Context, a Application) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE leave_applications
		SET status = $3, reviewed_by = $4, review_note = $5, reviewed_at = $6, updated_at = NOW()
		WHERE school_id = $1 AND id = $2`,
		a.SchoolID, a.ID,
		string(a.Status), nullText(a.ReviewedBy), nullText(a.ReviewNote), nullTime(a.ReviewedAt),
	)
	if err != nil {
		return fmt.Errorf("update leave application: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func scanApplication(row pgx.Row) (Application, error) {
	var a Application
	var reviewedAt pgtype.Timestamptz
	err := row.Scan(
		&a.ID, &a.SchoolID, &a.ApplicantID, &a.ApplicantName,
		&a.LeaveType, &a.FromDate, &a.ToDate, &a.Reason,
		&a.Status, &a.ReviewedBy, &a.ReviewNote, &reviewedAt,
		&a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return Application{}, err
	}
	if reviewedAt.Valid {
		a.ReviewedAt = reviewedAt.Time
	}
	return a, nil
}

func nullText(s string) pgtype.Text {
	return pgtype.Text{String: s, Valid: s != ""}
}

func nullTime(t time.Time) pgtype.Timestamptz {
	return pgtype.Timestamptz{Time: t, Valid: !t.IsZero()}
}
