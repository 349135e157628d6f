package fees

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
	"github.com/shopspring/decimal"

	"github.com/campushub-erp/campushub/internal/platform/db"
	"github.com/campushub-erp/campushub/internal/shared"
)

// Repository provides PostgreSQL backed persistence for fees.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const paymentColumns = `
	fp.id, fp.school_id, fp.student_id,
	fp.assigned_amount, fp.paid_amount, fp.status,
	fp.due_date, fp.payment_date, fp.payment_mode, fp.notes,
	fp.fee_category_id, fp.fee_type_id, fp.installment_id, fp.fee_group_id,
	fp.academic_year_id,
	s.full_name, COALESCE(s.father_name, ''), COALESCE(s.roll_number, ''),
	COALESCE(c.id::text, ''), COALESCE(c.name, ''), COALESCE(c.division, ''),
	COALESCE(fc.name, ''), COALESCE(ft.display_name, ft.name, ''), COALESCE(i.title, ''),
	fp.created_at, fp.updated_at`

const paymentJoins = `
	FROM fee_payments fp
	JOIN students s ON s.id = fp.student_id
	LEFT JOIN classes c ON c.id = s.class_id
	LEFT JOIN fee_categories fc ON fc.id = fp.fee_category_id
	LEFT JOIN fee_types ft ON ft.id = fp.fee_type_id
	LEFT JOIN installments i ON i.id = fp.installment_id`

// ListPayments returns payments matching the filter, joined with
// student, class and fee head display fields, concessions attached.
func (r *Repository) ListPayments(ctx context.Context, f Filter) ([]FeePayment, error) {
	if f.SchoolID == "" {
		return nil, shared.ErrSchoolScopeMissing
	}
	if f.MatchNone {
		return []FeePayment{}, nil
	}

	where := []string{"fp.school_id = $1"}
	args := []any{f.SchoolID}
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.StudentID != "" {
		where = append(where, "fp.student_id = "+arg(f.StudentID))
	}
	if f.ClassID != "" {
		where = append(where, "s.class_id = "+arg(f.ClassID))
	}
	if len(f.Statuses) > 0 {
		statuses := make([]string, len(f.Statuses))
		for i, s := range f.Statuses {
			statuses[i] = string(s)
		}
		where = append(where, "fp.status = ANY("+arg(statuses)+")")
	}
	if f.FeeCategoryID != "" {
		where = append(where, "fp.fee_category_id = "+arg(f.FeeCategoryID))
	}
	if len(f.FeeTypeIDs) > 0 {
		where = append(where, "fp.fee_type_id = ANY("+arg(f.FeeTypeIDs)+")")
	}
	if f.InstallmentID != "" {
		where = append(where, "fp.installment_id = "+arg(f.InstallmentID))
	}
	if f.RequireInstallment {
		where = append(where, "fp.installment_id IS NOT NULL")
	}
	if f.ExcludeInstallments {
		where = append(where, "fp.installment_id IS NULL")
	}
	if f.FeeGroupID != "" {
		where = append(where, "fp.fee_group_id = "+arg(f.FeeGroupID))
	}
	if f.PaymentMode != "" {
		where = append(where, "LOWER(fp.payment_mode) = LOWER("+arg(f.PaymentMode)+")")
	}
	if f.ExcludePaymentMode != "" {
		where = append(where, "(fp.payment_mode IS NULL OR LOWER(fp.payment_mode) <> LOWER("+arg(f.ExcludePaymentMode)+"))")
	}
	if f.AcademicYearID != "" {
		where = append(where, "fp.academic_year_id = "+arg(f.AcademicYearID))
	}
	if !f.DueFrom.IsZero() {
		where = append(where, "fp.due_date >= "+arg(f.DueFrom))
	}
	if !f.DueTo.IsZero() {
		where = append(where, "fp.due_date <= "+arg(f.DueTo))
	}
	if !f.PaidFrom.IsZero() {
		where = append(where, "fp.payment_date >= "+arg(f.PaidFrom))
	}
	if !f.PaidTo.IsZero() {
		where = append(where, "fp.payment_date <= "+arg(f.PaidTo))
	}
	if !f.PaidOn.IsZero() {
		where = append(where, "fp.payment_date::date = "+arg(f.PaidOn.Format("2006-01-02"))+"::date")
	}
	if f.Search != "" {
		pattern := "%" + f.Search + "%"
		where = append(where, "(s.full_name ILIKE "+arg(pattern)+" OR s.father_name ILIKE "+arg(pattern)+")")
	}

	query := "SELECT " + paymentColumns + paymentJoins +
		"\n\tWHERE " + strings.Join(where, " AND ") +
		"\n\tORDER BY s.full_name, fp.due_date, fp.id"
	if f.Limit > 0 {
		query += " LIMIT " + arg(f.Limit)
	}
	if f.Offset > 0 {
		query += " OFFSET " + arg(f.Offset)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list fee payments: %w", err)
	}
	defer rows.Close()

	payments := make([]FeePayment, 0)
	ids := make([]string, 0)
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, p)
		ids = append(ids, p.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list fee payments: %w", err)
	}

	if err := r.attachConcessions(ctx, payments, ids); err != nil {
		return nil, err
	}
	return payments, nil
}

// GetPayment loads one payment by id within a school.
func (r *Repository) GetPayment(ctx context.Context, schoolID, id string) (*FeePayment, error) {
	query := "SELECT " + paymentColumns + paymentJoins + "\n\tWHERE fp.school_id = $1 AND fp.id = $2"
	row := r.pool.QueryRow(ctx, query, schoolID, id)
	p, err := scanPayment(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := r.attachConcessions(ctx, []FeePayment{p}, []string{p.ID}); err != nil {
		return nil, err
	}
	return &p, nil
}

// CreatePayment inserts a fee assignment.
func (r *Repository) CreatePayment(ctx context.Context, p FeePayment) (*FeePayment, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	query := `
		INSERT INTO fee_payments (
			id, school_id, student_id, assigned_amount, paid_amount, status,
			due_date, payment_mode, notes,
			fee_category_id, fee_type_id, installment_id, fee_group_id, academic_year_id,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4::numeric, $5::numeric, $6, $7, $8, $9, $10, $11, $12, $13, $14, NOW(), NOW())
		RETURNING created_at, updated_at`
	err := r.pool.QueryRow(ctx, query,
		p.ID, p.SchoolID, p.StudentID,
		p.AssignedAmount.String(), p.PaidAmount.String(), string(p.Status),
		nullableDate(p.DueDate), nullableText(p.PaymentMode), nullableText(p.Notes),
		nullableText(p.FeeCategoryID), nullableText(p.FeeTypeID),
		nullableText(p.InstallmentID), nullableText(p.FeeGroupID), nullableText(p.AcademicYearID),
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("create fee payment: %w", err)
	}
	return &p, nil
}

// UpdatePaymentCollection persists the mutable collection fields after
// a payment is recorded.
func (r *Repository) UpdatePaymentCollection(ctx context.Context, p FeePayment) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE fee_payments
		SET paid_amount = $3::numeric, status = $4, payment_date = $5, payment_mode = $6, notes = $7, updated_at = NOW()
		WHERE school_id = $1 AND id = $2`,
		p.SchoolID, p.ID,
		p.PaidAmount.String(), string(p.Status),
		nullableTime(p.PaymentDate), nullableText(p.PaymentMode), nullableText(p.Notes),
	)
	if err != nil {
		return fmt.Errorf("update fee payment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// DeletePayment removes a fee assignment and its concessions in one
// transaction, so a failed delete never strands orphaned concessions
// or drops them for a payment that stays.
func (r *Repository) DeletePayment(ctx context.Context, schoolID, id string) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			DELETE FROM fee_concessions
			WHERE fee_payment_id IN (SELECT id FROM fee_payments WHERE school_id = $1 AND id = $2)`,
			schoolID, id)
		if err != nil {
			return fmt.Errorf("delete fee concessions: %w", err)
		}
		tag, err := tx.Exec(ctx,
			`DELETE FROM fee_payments WHERE school_id = $1 AND id = $2`, schoolID, id)
		if err != nil {
			return fmt.Errorf("delete fee payment: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
}

// MarkOverdue flips pending payments past their due date. Returns the
// number of rows updated.
func (r *Repository) MarkOverdue(ctx context.Context, schoolID string, asOf time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE fee_payments
		SET status = $3, updated_at = NOW()
		WHERE school_id = $1 AND status = $2 AND due_date IS NOT NULL AND due_date < $4`,
		schoolID, string(StatusPending), string(StatusOverdue), asOf)
	if err != nil {
		return 0, fmt.Errorf("mark overdue: %w", err)
	}
	return tag.RowsAffected(), nil
}

// ListSchoolIDs returns distinct school ids present in fee_payments.
// Used by the overdue scan to walk every tenant.
func (r *Repository) ListSchoolIDs(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT DISTINCT school_id FROM fee_payments`)
	if err != nil {
		return nil, fmt.Errorf("list school ids: %w", err)
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

// AddConcession records a concession against a payment.
func (r *Repository) AddConcession(ctx context.Context, c Concession) (*Concession, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	err := r.pool.QueryRow(ctx, `
		INSERT INTO fee_concessions (id, fee_payment_id, amount, reason, created_at)
		VALUES ($1, $2, $3::numeric, $4, NOW())
		RETURNING created_at`,
		c.ID, c.FeePaymentID, c.Amount.String(), c.Reason,
	).Scan(&c.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("add concession: %w", err)
	}
	return &c, nil
}

func (r *Repository) attachConcessions(ctx context.Context, payments []FeePayment, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, fee_payment_id, amount, reason, created_at
		FROM fee_concessions
		WHERE fee_payment_id = ANY($1)
		ORDER BY created_at`, ids)
	if err != nil {
		return fmt.Errorf("list concessions: %w", err)
	}
	defer rows.Close()

	byPayment := make(map[string][]Concession)
	for rows.Next() {
		var c Concession
		var amount pgtype.Numeric
		if err := rows.Scan(&c.ID, &c.FeePaymentID, &amount, &c.Reason, &c.CreatedAt); err != nil {
			return err
		}
		c.Amount = numericToDecimal(amount)
		byPayment[c.FeePaymentID] = append(byPayment[c.FeePaymentID], c)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	for i := range payments {
		payments[i].Concessions = byPayment[payments[i].ID]
	}
	return nil
}

func scanPayment(row pgx.Row) (FeePayment, error) {
	var p FeePayment
	var assigned, paid pgtype.Numeric
	var dueDate pgtype.Date
	var paymentDate pgtype.Timestamptz
	var mode, notes pgtype.Text
	var categoryID, typeID, installmentID, groupID, yearID pgtype.Text

	err := row.Scan(
		&p.ID, &p.SchoolID, &p.StudentID,
		&assigned, &paid, &p.Status,
		&dueDate, &paymentDate, &mode, &notes,
		&categoryID, &typeID, &installmentID, &groupID, &yearID,
		&p.StudentName, &p.FatherName, &p.RollNumber,
		&p.ClassID, &p.ClassName, &p.ClassDivision,
		&p.CategoryName, &p.FeeTypeName, &p.InstallmentTitle,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return FeePayment{}, err
	}
	p.AssignedAmount = numericToDecimal(assigned)
	p.PaidAmount = numericToDecimal(paid)
	if dueDate.Valid {
		p.DueDate = dueDate.Time
	}
	if paymentDate.Valid {
		p.PaymentDate = paymentDate.Time
	}
	p.PaymentMode = mode.String
	p.Notes = notes.String
	p.FeeCategoryID = categoryID.String
	p.FeeTypeID = typeID.String
	p.InstallmentID = installmentID.String
	p.FeeGroupID = groupID.String
	p.AcademicYearID = yearID.String
	return p, nil
}

func numericToDecimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid || n.Int == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(n.Int, n.Exp)
}

func nullableText(s string) pgtype.Text {
	return pgtype.Text{String: s, Valid: s != ""}
}

func nullableDate(t time.Time) pgtype.Date {
	return pgtype.Date{Time: t, Valid: !t.IsZero()}
}

func nullableTime(t time.Time) pgtype.Timestamptz {
	return pgtype.Timestamptz{Time: t, Valid: !t.IsZero()}
}
