package students

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/campushub-erp/campushub/internal/shared"
)

// Repository provides PostgreSQL backed persistence for students.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const studentColumns = `
	st.id, st.school_id, st.full_name, COALESCE(st.father_name, ''), COALESCE(st.mother_name, ''),
	st.admission_number, st.admission_date, COALESCE(st.roll_number, ''),
	COALESCE(st.class_id::text, ''), COALESCE(c.name, ''), COALESCE(c.division, ''),
	st.date_of_birth, COALESCE(st.gender, ''), COALESCE(st.phone, ''),
	COALESCE(st.email, ''), COALESCE(st.address, ''), st.status,
	st.created_at, st.updated_at`

const studentJoins = `
	FROM students st
	LEFT JOIN classes c ON c.id = st.class_id`

// List returns students matching the filter plus the total match count.
func (r *Repository) List(ctx context.Context, f ListFilter) ([]Student, int, error) {
	where := []string{"st.school_id = $1"}
	args := []any{f.SchoolID}
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if f.ClassID != "" {
		where = append(where, "st.class_id = "+arg(f.ClassID))
	}
	if f.Status != "" {
		where = append(where, "st.status = "+arg(string(f.Status)))
	}
	if f.Search != "" {
		pattern := "%" + f.Search + "%"
		where = append(where, "(st.full_name ILIKE "+arg(pattern)+
			" OR st.roll_number ILIKE "+arg(pattern)+
			" OR st.admission_number ILIKE "+arg(pattern)+")")
	}
	clause := strings.Join(where, " AND ")

	var total int
	countQuery := "SELECT COUNT(*)" + studentJoins + "\n\tWHERE " + clause
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count students: %w", err)
	}

	query := "SELECT " + studentColumns + studentJoins + "\n\tWHERE " + clause + "\n\tORDER BY st.full_name"
	if f.Limit > 0 {
		query += " LIMIT " + arg(f.Limit)
	}
	if f.Offset > 0 {
		query += " OFFSET " + arg(f.Offset)
	}
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list students: %w", err)
	}
	defer rows.Close()

	out := make([]Student, 0)
	for rows.Next() {
		st, err := scanStudent(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, st)
	}
	return out, total, rows.Err()
}

// Get loads one student.
func (r *Repository) Get(ctx context.Context, schoolID, id string) (*Student, error) {
	query := "SELECT " + studentColumns + studentJoins + "\n\tWHERE st.school_id = $1 AND st.id = $2"
	st, err := scanStudent(r.pool.QueryRow(ctx, query, schoolID, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &st, nil
}

// Create inserts an admitted student.
func (r *Repository) Create(ctx context.Context, st Student) (*Student, error) {
	if st.ID == "" {
		st.ID = uuid.NewString()
	}
	err := r.pool.QueryRow(ctx, `
		INSERT INTO students (
			id, school_id, full_name, father_name, mother_name,
			admission_number, admission_date, roll_number, class_id,
			date_of_birth, gender, phone, email, address, status,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, NOW(), NOW())
		RETURNING created_at, updated_at`,
		st.ID, st.SchoolID, st.FullName, nullText(st.FatherName), nullText(st.MotherName),
		st.AdmissionNumber, nullDate(st.AdmissionDate), nullText(st.RollNumber), nullText(st.ClassID),
		nullDate(st.DateOfBirth), nullText(st.Gender), nullText(st.Phone),
		nullText(st.Email), nullText(st.Address), string(st.Status),
	).Scan(&st.CreatedAt, &st.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, shared.ErrDuplicate
		}
		return nil, fmt.Errorf("create student: %w", err)
	}
	return &st, nil
}

// Update rewrites the editable profile fields.
func (r *Repository) Update(ctx context.Context, st Student) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE students
		SET full_name = $3, father_name = $4, mother_name = $5, roll_number = $6, class_id = $7,
		    date_of_birth = $8, gender = $9, phone = $10, email = $11, address = $12,
		    status = $13, updated_at = NOW()
		WHERE school_id = $1 AND id = $2`,
		st.SchoolID, st.ID,
		st.FullName, nullText(st.FatherName), nullText(st.MotherName),
		nullText(st.RollNumber), nullText(st.ClassID),
		nullDate(st.DateOfBirth), nullText(st.Gender), nullText(st.Phone),
		nullText(st.Email), nullText(st.Address), string(st.Status),
	)
	if err != nil {
		return fmt.Errorf("update student: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// NextAdmissionSequence reserves the next admission number sequence
// value for a school within the given year.
func (r *Repository) NextAdmissionSequence(ctx context.Context, schoolID string, year int) (int, error) {
	var seq int
	err := r.pool.QueryRow(ctx, `
		INSERT INTO admission_sequences (school_id, year, value)
		VALUES ($1, $2, 1)
		ON CONFLICT (school_id, year) DO UPDATE SET value = admission_sequences.value + 1
		RETURNING value`,
		schoolID, year).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("next admission sequence: %w", err)
	}
	return seq, nil
}

// --- Classes ---

func (r *Repository) ListClasses(ctx context.Context, schoolID string) ([]Class, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, school_id, name, COALESCE(division, '') FROM classes WHERE school_id = $1 ORDER BY name, division`,
		schoolID)
	if err != nil {
		return nil, fmt.Errorf("list classes: %w", err)
	}
	defer rows.Close()
	out := make([]Class, 0)
	for rows.Next() {
		var c Class
		if err := rows.Scan(&c.ID, &c.SchoolID, &c.Name, &c.Division); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *Repository) CreateClass(ctx context.Context, c Class) (*Class, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	_, err := r.pool.Exec(ctx,
		`INSERT INTO classes (id, school_id, name, division) VALUES ($1, $2, $3, $4)`,
		c.ID, c.SchoolID, c.Name, nullText(c.Division))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, shared.ErrDuplicate
		}
		return nil, fmt.Errorf("create class: %w", err)
	}
	return &c, nil
}

func (r *Repository) DeleteClass(ctx context.Context, schoolID, id string) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM classes WHERE school_id = $1 AND id = $2`, schoolID, id)
	if err != nil {
		return fmt.Errorf("delete class: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func scanStudent(row pgx.Row) (Student, error) {
	var st Student
	var admissionDate, dob pgtype.Date
	err := row.Scan(
		&st.ID, &st.SchoolID, &st.FullName, &st.FatherName, &st.MotherName,
		&st.AdmissionNumber, &admissionDate, &st.RollNumber,
		&st.ClassID, &st.ClassName, &st.ClassDivision,
		&dob, &st.Gender, &st.Phone, &st.Email, &st.Address, &st.Status,
		&st.CreatedAt, &st.UpdatedAt,
	)
	if err != nil {
		return Student{}, err
	}
	if admissionDate.Valid {
		st.AdmissionDate = admissionDate.Time
	}
	if dob.Valid {
		st.DateOfBirth = dob.Time
	}
	return st, nil
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
