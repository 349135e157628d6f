package lms

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/campushub-erp/campushub/internal/shared"
)

// Repository provides PostgreSQL backed persistence for the LMS.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const courseColumns = `
	c.id, c.school_id, c.title, COALESCE(c.description, ''), COALESCE(c.subject, ''),
	COALESCE(c.teacher_id::text, ''), COALESCE(c.target_audience, 'student'), c.published,
	(SELECT COUNT(*) FROM course_resources r WHERE r.course_id = c.id),
	(SELECT COUNT(*) FROM course_enrollments e WHERE e.course_id = c.id),
	c.created_at, c.updated_at`

// ListCourses returns courses of a school. When publishedOnly is set,
// drafts are hidden.
func (r *Repository) ListCourses(ctx context.Context, schoolID string, publishedOnly bool) ([]Course, error) {
	query := "SELECT " + courseColumns + " FROM courses c WHERE c.school_id = $1"
	if publishedOnly {
		query += " AND c.published"
	}
	query += " ORDER BY c.title"

	rows, err := r.pool.Query(ctx, query, schoolID)
	if err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	defer rows.Close()

	out := make([]Course, 0)
	for rows.Next() {
		c, err := scanCourse(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// GetCourse loads one course.
func (r *Repository) GetCourse(ctx context.Context, schoolID, id string) (*Course, error) {
	c, err := scanCourse(r.pool.QueryRow(ctx,
		"SELECT "+courseColumns+" FROM courses c WHERE c.school_id = $1 AND c.id = $2", schoolID, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// CreateCourse inserts a draft course.
func (r *Repository) CreateCourse(ctx context.Context, c Course) (*Course, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	err := r.pool.QueryRow(ctx, `
		INSERT INTO courses (id, school_id, title, description, subject, teacher_id, target_audience, published, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
		RETURNING created_at, updated_at`,
		c.ID, c.SchoolID, c.Title, nullText(c.Description), nullText(c.Subject),
		nullText(c.TeacherID), c.TargetAudience, c.Published,
	).Scan(&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("create course: %w", err)
	}
	return &c, nil
}

// UpdateCourse rewrites the editable fields.
func (r *Repository) UpdateCourse(ctx context.Context, c Course) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE courses
		SET title = $3, description = $4, subject = $5, teacher_id = $6, target_audience = $7, published = $8, updated_at = NOW()
		WHERE school_id = $1 AND id = $2`,
		c.SchoolID, c.ID,
		c.Title, nullText(c.Description), nullText(c.Subject), nullText(c.TeacherID), c.TargetAudience, c.Published,
	)
	if err != nil {
		return fmt.Errorf("update course: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// DeleteCourse removes a course with its resources and enrollments.
func (r *Repository) DeleteCourse(ctx context.Context, schoolID, id string) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM courses WHERE school_id = $1 AND id = $2`, schoolID, id)
	if err != nil {
		return fmt.Errorf("delete course: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// --- Resources ---

func (r *Repository) ListResources(ctx context.Context, courseID string) ([]Resource, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, course_id, title, kind, COALESCE(url, ''), COALESCE(object_key, ''), position, created_at
		FROM course_resources WHERE course_id = $1 ORDER BY position, created_at`, courseID)
	if err != nil {
		return nil, fmt.Errorf("list resources: %w", err)
	}
	defer rows.Close()
	out := make([]Resource, 0)
	for rows.Next() {
		var res Resource
		if err := rows.Scan(&res.ID, &res.CourseID, &res.Title, &res.Kind,
			&res.URL, &res.ObjectKey, &res.Position, &res.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	return out, rows.Err()
}

func (r *Repository) CreateResource(ctx context.Context, res Resource) (*Resource, error) {
	if res.ID == "" {
		res.ID = uuid.NewString()
	}
	err := r.pool.QueryRow(ctx, `
		INSERT INTO course_resources (id, course_id, title, kind, url, object_key, position, created_at)
		VALUES ($1, $2, $3, $4, $5, $6,
			COALESCE((SELECT MAX(position) + 1 FROM course_resources WHERE course_id = $2), 1),
			NOW())
		RETURNING position, created_at`,
		res.ID, res.CourseID, res.Title, string(res.Kind), nullText(res.URL), nullText(res.ObjectKey),
	).Scan(&res.Position, &res.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("create resource: %w", err)
	}
	return &res, nil
}

func (r *Repository) DeleteResource(ctx context.Context, courseID, id string) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM course_resources WHERE course_id = $1 AND id = $2`, courseID, id)
	if err != nil {
		return fmt.Errorf("delete resource: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// --- Enrollments ---

func (r *Repository) ListEnrollments(ctx context.Context, courseID string) ([]Enrollment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT e.id, e.course_id, e.user_id, e.user_type,
			COALESCE(s.full_name, t.full_name, ''), e.progress, e.enrolled_at
		FROM course_enrollments e
		LEFT JOIN students s ON e.user_type = 'student' AND s.id = e.user_id
		LEFT JOIN teachers t ON e.user_type = 'teacher' AND t.id = e.user_id
		WHERE e.course_id = $1
		ORDER BY e.enrolled_at`, courseID)
	if err != nil {
		return nil, fmt.Errorf("list enrollments: %w", err)
	}
	defer rows.Close()
	out := make([]Enrollment, 0)
	for rows.Next() {
		var e Enrollment
		if err := rows.Scan(&e.ID, &e.CourseID, &e.UserID, &e.UserType, &e.UserName, &e.Progress, &e.EnrolledAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// CreateEnrollment enrols a user once per course.
func (r *Repository) CreateEnrollment(ctx context.Context, e Enrollment) (*Enrollment, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	err := r.pool.QueryRow(ctx, `
		INSERT INTO course_enrollments (id, course_id, user_id, user_type, progress, enrolled_at)
		VALUES ($1, $2, $3, $4, 0, NOW())
		RETURNING enrolled_at`,
		e.ID, e.CourseID, e.UserID, e.UserType,
	).Scan(&e.EnrolledAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, shared.ErrDuplicate
		}
		return nil, fmt.Errorf("create enrollment: %w", err)
	}
	return &e, nil
}

// UpdateProgress stores a user's completion percentage.
func (r *Repository) UpdateProgress(ctx context.Context, courseID, userID string, progress int) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE course_enrollments SET progress = $3
		WHERE course_id = $1 AND user_id = $2`,
		courseID, userID, progress)
	if err != nil {
		return fmt.Errorf("update progress: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// --- Favorites ---

func (r *Repository) AddFavorite(ctx context.Context, userID, courseID string) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO course_favorites (user_id, course_id, created_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (user_id, course_id) DO NOTHING`,
		userID, courseID)
	if err != nil {
		return fmt.Errorf("add favorite: %w", err)
	}
	return nil
}

func (r *Repository) RemoveFavorite(ctx context.Context, userID, courseID string) error {
	_, err := r.pool.Exec(ctx,
		`DELETE FROM course_favorites WHERE user_id = $1 AND course_id = $2`, userID, courseID)
	if err != nil {
		return fmt.Errorf("remove favorite: %w", err)
	}
	return nil
}

func (r *Repository) ListFavoriteCourseIDs(ctx context.Context, userID string) ([]string, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT course_id FROM course_favorites WHERE user_id = $1`, userID)
	if err != nil {
		return nil, fmt.Errorf("list favorites: %w", err)
	}
	defer rows.Close()
	ids := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func scanCourse(row pgx.Row) (Course, error) {
	var c Course
	err := row.Scan(
		&c.ID, &c.SchoolID, &c.Title, &c.Description, &c.Subject,
		&c.TeacherID, &c.TargetAudience, &c.Published,
		&c.ResourceCount, &c.EnrollmentCount,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return Course{}, err
	}
	return c, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func nullText(s string) pgtype.Text {
	return pgtype.Text{String: s, Valid: s != ""}
}
