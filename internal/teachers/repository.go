package teachers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/campushub-erp/campushub/internal/shared"
)

// Repository provides PostgreSQL backed persistence for teachers.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const teacherColumns = `
	id, school_id, full_name, email, COALESCE(phone, ''),
	COALESCE(qualification, ''), COALESCE(subject, ''), joining_date,
	COALESCE(photo_key, ''), status, password_hash, created_at, updated_at`

// List returns teachers of a school, newest first.
func (r *Repository) List(ctx context.Context, schoolID string) ([]Teacher, error) {
	rows, err := r.pool.Query(ctx,
		"SELECT "+teacherColumns+" FROM teachers WHERE school_id = $1 ORDER BY full_name", schoolID)
	if err != nil {
		return nil, fmt.Errorf("list teachers: %w", err)
	}
	defer rows.Close()
	out := make([]Teacher, 0)
	for rows.Next() {
		t, err := scanTeacher(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// Get loads one teacher.
func (r *Repository) Get(ctx context.Context, schoolID, id string) (*Teacher, error) {
	t, err := scanTeacher(r.pool.QueryRow(ctx,
		"SELECT "+teacherColumns+" FROM teachers WHERE school_id = $1 AND id = $2", schoolID, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Create inserts a teacher. A duplicate email within the school maps
// to shared.ErrDuplicate.
func (r *Repository) Create(ctx context.Context, t Teacher) (*Teacher, error) {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	err := r.pool.QueryRow(ctx, `
		INSERT INTO teachers (
			id, school_id, full_name, email, phone, qualification, subject,
			joining_date, photo_key, status, password_hash, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW(), NOW())
		RETURNING created_at, updated_at`,
		t.ID, t.SchoolID, t.FullName, t.Email, nullText(t.Phone),
		nullText(t.Qualification), nullText(t.Subject),
		nullDate(t.JoiningDate), nullText(t.PhotoKey), string(t.Status), t.PasswordHash,
	).Scan(&t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, shared.ErrDuplicate
		}
		return nil, fmt.Errorf("create teacher: %w", err)
	}
	return &t, nil
}

// Update rewrites the editable fields.
func (r *Repository) Update(ctx context.Context, t Teacher) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE teachers
		SET full_name = $3, email = $4, phone = $5, qualification = $6, subject = $7,
		    joining_date = $8, photo_key = $9, status = $10, password_hash = $11, updated_at = NOW()
		WHERE school_id = $1 AND id = $2`,
		t.SchoolID, t.ID,
		t.FullName, t.Email, nullText(t.Phone), nullText(t.Qualification), nullText(t.Subject),
		nullDate(t.JoiningDate), nullText(t.PhotoKey), string(t.Status), t.PasswordHash,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return shared.ErrDuplicate
		}
		return fmt.Errorf("update teacher: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func scanTeacher(row pgx.Row) (Teacher, error) {
	var t Teacher
	var joining pgtype.Date
	err := row.Scan(
		&t.ID, &t.SchoolID, &t.FullName, &t.Email, &t.Phone,
		&t.Qualification, &t.Subject, &joining,
		&t.PhotoKey, &t.Status, &t.PasswordHash, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return Teacher{}, err
	}
	if joining.Valid {
		t.JoiningDate = joining.Time
	}
	return t, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func nullText(s string) pgtype.Text {
	return pgtype.Text{String: s, Valid: s != ""}
}

func nullDate(t time.Time) pgtype.Date {
	return pgtype.Date{Time: t, Valid: !t.IsZero()}
}
