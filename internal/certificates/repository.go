package certificates

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/campushub-erp/campushub/internal/shared"
)

// Repository provides PostgreSQL backed persistence for templates.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// List returns the templates of a school.
func (r *Repository) List(ctx context.Context, schoolID string) ([]Template, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, school_id, name, template_type, COALESCE(background_key, ''), elements, created_at, updated_at
		FROM certificate_templates WHERE school_id = $1 ORDER BY template_type`, schoolID)
	if err != nil {
		return nil, fmt.Errorf("list certificate templates: %w", err)
	}
	defer rows.Close()
	out := make([]Template, 0)
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// GetByType loads the template of one type.
func (r *Repository) GetByType(ctx context.Context, schoolID, templateType string) (*Template, error) {
	t, err := scanTemplate(r.pool.QueryRow(ctx, `
		SELECT id, school_id, name, template_type, COALESCE(background_key, ''), elements, created_at, updated_at
		FROM certificate_templates WHERE school_id = $1 AND template_type = $2`,
		schoolID, templateType))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Upsert saves a template, replacing any existing layout of the same
// type within the school.
func (r *Repository) Upsert(ctx context.Context, t Template) (*Template, error) {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	elements, err := json.Marshal(t.Elements)
	if err != nil {
		return nil, fmt.Errorf("marshal elements: %w", err)
	}
	err = r.pool.QueryRow(ctx, `
		INSERT INTO certificate_templates (id, school_id, name, template_type, background_key, elements, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		ON CONFLICT (school_id, template_type) DO UPDATE
		SET name = EXCLUDED.name,
		    background_key = EXCLUDED.background_key,
		    elements = EXCLUDED.elements,
		    updated_at = NOW()
		RETURNING id, created_at, updated_at`,
		t.ID, t.SchoolID, t.Name, t.TemplateType, nullText(t.BackgroundKey), elements,
	).Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("upsert certificate template: %w", err)
	}
	return &t, nil
}

// Delete removes a template.
func (r *Repository) Delete(ctx context.Context, schoolID, templateType string) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM certificate_templates WHERE school_id = $1 AND template_type = $2`,
		schoolID, templateType)
	if err != nil {
		return fmt.Errorf("delete certificate template: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func scanTemplate(row pgx.Row) (Template, error) {
	var t Template
	var elements []byte
	err := row.Scan(&t.ID, &t.SchoolID, &t.Name, &t.TemplateType,
		&t.BackgroundKey, &elements, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return Template{}, err
	}
	if len(elements) > 0 {
		if err := json.Unmarshal(elements, &t.Elements); err != nil {
			return Template{}, fmt.Errorf("unmarshal elements: %w", err)
		}
	}
	return t, nil
}

func nullText(s string) pgtype.Text {
	return pgtype.Text{String: s, Valid: s != ""}
}
