package fees

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/campushub-erp/campushub/internal/shared"
)

// --- Fee categories ---

func (r *Repository) ListCategories(ctx context.Context, schoolID string) ([]FeeCategory, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, school_id, name FROM fee_categories WHERE school_id = $1 ORDER BY name`, schoolID)
	if err != nil {
		return nil, fmt.Errorf("list fee categories: %w", err)
	}
	defer rows.Close()
	out := make([]FeeCategory, 0)
	for rows.Next() {
		var c FeeCategory
		if err := rows.Scan(&c.ID, &c.SchoolID, &c.Name); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *Repository) CreateCategory(ctx context.Context, c FeeCategory) (*FeeCategory, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	_, err := r.pool.Exec(ctx,
		`INSERT INTO fee_categories (id, school_id, name) VALUES ($1, $2, $3)`,
		c.ID, c.SchoolID, c.Name)
	if err != nil {
		return nil, fmt.Errorf("create fee category: %w", err)
	}
	return &c, nil
}

func (r *Repository) UpdateCategory(ctx context.Context, c FeeCategory) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE fee_categories SET name = $3 WHERE school_id = $1 AND id = $2`,
		c.SchoolID, c.ID, c.Name)
	if err != nil {
		return fmt.Errorf("update fee category: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *Repository) DeleteCategory(ctx context.Context, schoolID, id string) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM fee_categories WHERE school_id = $1 AND id = $2`, schoolID, id)
	if err != nil {
		return fmt.Errorf("delete fee category: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// --- Fee types ---

// ListFeeTypes returns fee types of a school, optionally restricted to
// one kind. Empty kind means all.
func (r *Repository) ListFeeTypes(ctx context.Context, schoolID string, kind FeeTypeKind) ([]FeeType, error) {
	query := `SELECT id, school_id, name, COALESCE(display_name, name), installment_type
		FROM fee_types WHERE school_id = $1`
	args := []any{schoolID}
	if kind != "" {
		query += ` AND installment_type = $2`
		args = append(args, string(kind))
	}
	query += ` ORDER BY name`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list fee types: %w", err)
	}
	defer rows.Close()
	out := make([]FeeType, 0)
	for rows.Next() {
		var t FeeType
		if err := rows.Scan(&t.ID, &t.SchoolID, &t.Name, &t.DisplayName, &t.Kind); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *Repository) CreateFeeType(ctx context.Context, t FeeType) (*FeeType, error) {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	_, err := r.pool.Exec(ctx,
		`INSERT INTO fee_types (id, school_id, name, display_name, installment_type) VALUES ($1, $2, $3, $4, $5)`,
		t.ID, t.SchoolID, t.Name, t.DisplayName, string(t.Kind))
	if err != nil {
		return nil, fmt.Errorf("create fee type: %w", err)
	}
	return &t, nil
}

func (r *Repository) DeleteFeeType(ctx context.Context, schoolID, id string) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM fee_types WHERE school_id = $1 AND id = $2`, schoolID, id)
	if err != nil {
		return fmt.Errorf("delete fee type: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// --- Installments ---

func (r *Repository) ListInstallments(ctx context.Context, schoolID string) ([]Installment, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, school_id, title FROM installments WHERE school_id = $1 ORDER BY title`, schoolID)
	if err != nil {
		return nil, fmt.Errorf("list installments: %w", err)
	}
	defer rows.Close()
	out := make([]Installment, 0)
	for rows.Next() {
		var ins Installment
		if err := rows.Scan(&ins.ID, &ins.SchoolID, &ins.Title); err != nil {
			return nil, err
		}
		out = append(out, ins)
	}
	return out, rows.Err()
}

func (r *Repository) CreateInstallment(ctx context.Context, ins Installment) (*Installment, error) {
	if ins.ID == "" {
		ins.ID = uuid.NewString()
	}
	_, err := r.pool.Exec(ctx,
		`INSERT INTO installments (id, school_id, title) VALUES ($1, $2, $3)`,
		ins.ID, ins.SchoolID, ins.Title)
	if err != nil {
		return nil, fmt.Errorf("create installment: %w", err)
	}
	return &ins, nil
}

// --- Fee groups ---

func (r *Repository) ListFeeGroups(ctx context.Context, schoolID string) ([]FeeGroup, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, school_id, name FROM fee_groups WHERE school_id = $1 ORDER BY name`, schoolID)
	if err != nil {
		return nil, fmt.Errorf("list fee groups: %w", err)
	}
	defer rows.Close()
	out := make([]FeeGroup, 0)
	for rows.Next() {
		var g FeeGroup
		if err := rows.Scan(&g.ID, &g.SchoolID, &g.Name); err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func (r *Repository) CreateFeeGroup(ctx context.Context, g FeeGroup) (*FeeGroup, error) {
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	_, err := r.pool.Exec(ctx,
		`INSERT INTO fee_groups (id, school_id, name) VALUES ($1, $2, $3)`,
		g.ID, g.SchoolID, g.Name)
	if err != nil {
		return nil, fmt.Errorf("create fee group: %w", err)
	}
	return &g, nil
}

// --- Payment methods ---

func (r *Repository) ListPaymentMethods(ctx context.Context, schoolID string) ([]PaymentMethod, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, school_id, name, COALESCE(description, '') FROM payment_methods WHERE school_id = $1 ORDER BY name`,
		schoolID)
	if err != nil {
		return nil, fmt.Errorf("list payment methods: %w", err)
	}
	defer rows.Close()
	out := make([]PaymentMethod, 0)
	for rows.Next() {
		var m PaymentMethod
		if err := rows.Scan(&m.ID, &m.SchoolID, &m.Name, &m.Description); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *Repository) GetPaymentMethod(ctx context.Context, schoolID, id string) (*PaymentMethod, error) {
	var m PaymentMethod
	err := r.pool.QueryRow(ctx,
		`SELECT id, school_id, name, COALESCE(description, '') FROM payment_methods WHERE school_id = $1 AND id = $2`,
		schoolID, id).Scan(&m.ID, &m.SchoolID, &m.Name, &m.Description)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get payment method: %w", err)
	}
	return &m, nil
}

func (r *Repository) CreatePaymentMethod(ctx context.Context, m PaymentMethod) (*PaymentMethod, error) {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	_, err := r.pool.Exec(ctx,
		`INSERT INTO payment_methods (id, school_id, name, description) VALUES ($1, $2, $3, $4)`,
		m.ID, m.SchoolID, m.Name, m.Description)
	if err != nil {
		return nil, fmt.Errorf("create payment method: %w", err)
	}
	return &m, nil
}

func (r *Repository) UpdatePaymentMethod(ctx context.Context, m PaymentMethod) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE payment_methods SET name = $3, description = $4 WHERE school_id = $1 AND id = $2`,
		m.SchoolID, m.ID, m.Name, m.Description)
	if err != nil {
		return fmt.Errorf("update payment method: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *Repository) DeletePaymentMethod(ctx context.Context, schoolID, id string) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM payment_methods WHERE school_id = $1 AND id = $2`, schoolID, id)
	if err != nil {
		return fmt.Errorf("delete payment method: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// CountPaymentsByMode counts fee payments whose payment_mode matches
// the given method name, case-insensitive. Guards method deletion.
func (r *Repository) CountPaymentsByMode(ctx context.Context, schoolID, modeName string) (int64, error) {
	var n int64
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM fee_payments WHERE school_id = $1 AND LOWER(payment_mode) = LOWER($2)`,
		schoolID, modeName).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count payments by mode: %w", err)
	}
	return n, nil
}
