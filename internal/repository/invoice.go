package repository

import (
	"context"
	"errors"

	sq "github.com/Masterminds/squirrel"
	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/samandr77/microservices/backoffice/internal/entity"
)

const selectInvoice = `SELECT
		id,
		first_name,
		last_name,
		email,
		amount,
		product_code,
		bill_no,
		is_approved,
		created_by,
		created_at
	FROM invoices`

var invoiceColumns = []string{
	"id",
	"first_name",
	"last_name",
	"email",
	"amount",
	"product_code",
	"bill_no",
	"is_approved",
	"created_by",
	"created_at",
}

func (r *Repository) CreateInvoice(ctx context.Context, inv entity.Invoice) (entity.Invoice, error) {
	const q = `
	INSERT INTO invoices (
		first_name,
		last_name,
		email,
		amount,
		product_code,
		bill_no,
		is_approved,
		created_by
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	RETURNING id, created_at
	`

	err := r.conn(ctx).QueryRow(
		ctx,
		q,
		inv.FirstName,
		inv.LastName,
		inv.Email,
		inv.Amount,
		inv.ProductCode,
		inv.BillNo,
		inv.IsApproved,
		inv.CreatedBy,
	).Scan(&inv.ID, &inv.CreatedAt)
	if err != nil {
		return entity.Invoice{}, err
	}

	return inv, nil
}

func (r *Repository) Invoice(ctx context.Context, id uuid.UUID) (entity.Invoice, error) {
	q := selectInvoice + " WHERE id = $1"
	return scanInvoice(r.conn(ctx).QueryRow(ctx, q, id))
}

// DeleteInvoice removes the invoice. Deleting a missing invoice is not an error.
func (r *Repository) DeleteInvoice(ctx context.Context, id uuid.UUID) error {
	const q = `DELETE FROM invoices WHERE id = $1`

	_, err := r.conn(ctx).Exec(ctx, q, id)

	return err
}

func (r *Repository) InvoicesByBillNo(ctx context.Context, billNo string, approved bool) ([]entity.Invoice, error) {
	q := selectInvoice + " WHERE bill_no = $1 AND is_approved = $2"

	rows, err := r.conn(ctx).Query(ctx, q, billNo, approved)
	if err != nil {
		return nil, err
	}

	defer rows.Close()

	var invoices []entity.Invoice

	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}

		invoices = append(invoices, inv)
	}

	return invoices, rows.Err()
}

func (r *Repository) Invoices(
	ctx context.Context,
	ownerID uuid.UUID,
	f entity.InvoiceFilter,
) ([]entity.Invoice, int, error) {
	stmt := sq.Select(append(invoiceColumns, "COUNT(*) OVER() AS total_count")...).
		From("invoices").
		Where(sq.Eq{"created_by": ownerID}).
		PlaceholderFormat(sq.Dollar)

	if f.IsApproved != nil {
		stmt = stmt.Where(sq.Eq{"is_approved": *f.IsApproved})
	}

	stmt = stmt.
		OrderBy("created_at DESC", "id").
		Limit(f.PageSize).
		Offset(f.Offset())

	sql, args, err := stmt.ToSql()
	if err != nil {
		return nil, 0, err
	}

	rows, err := r.conn(ctx).Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	invoices := make([]entity.Invoice, 0, f.PageSize)

	var totalCount int

	for rows.Next() {
		var inv entity.Invoice

		err = rows.Scan(
			&inv.ID,
			&inv.FirstName,
			&inv.LastName,
			&inv.Email,
			&inv.Amount,
			&inv.ProductCode,
			&inv.BillNo,
			&inv.IsApproved,
			&inv.CreatedBy,
			&inv.CreatedAt,
			&totalCount,
		)
		if err != nil {
			return nil, 0, err
		}

		invoices = append(invoices, inv)
	}

	if err = rows.Err(); err != nil {
		return nil, 0, err
	}

	return invoices, totalCount, nil
}

// InvoiceAmountTotal sums invoice amounts grouped by owner. Nil filters are not applied.
// With an owner filter there is at most one group; without it the group totals are added up.
// Returns zero when nothing matches.
func (r *Repository) InvoiceAmountTotal(ctx context.Context, userID *uuid.UUID, approved *bool) (decimal.Decimal, error) {
	stmt := sq.Select("created_by", "SUM(amount)").
		From("invoices").
		GroupBy("created_by").
		PlaceholderFormat(sq.Dollar)

	if userID != nil {
		stmt = stmt.Where(sq.Eq{"created_by": *userID})
	}

	if approved != nil {
		stmt = stmt.Where(sq.Eq{"is_approved": *approved})
	}

	sql, args, err := stmt.ToSql()
	if err != nil {
		return decimal.Zero, err
	}

	rows, err := r.conn(ctx).Query(ctx, sql, args...)
	if err != nil {
		return decimal.Zero, err
	}
	defer rows.Close()

	total := decimal.Zero

	for rows.Next() {
		var (
			owner uuid.UUID
			sum   decimal.Decimal
		)

		err = rows.Scan(&owner, &sum)
		if err != nil {
			return decimal.Zero, err
		}

		total = total.Add(sum)
	}

	if err = rows.Err(); err != nil {
		return decimal.Zero, err
	}

	return total, nil
}

func scanInvoice(row pgx.Row) (inv entity.Invoice, err error) {
	err = row.Scan(
		&inv.ID,
		&inv.FirstName,
		&inv.LastName,
		&inv.Email,
		&inv.Amount,
		&inv.ProductCode,
		&inv.BillNo,
		&inv.IsApproved,
		&inv.CreatedBy,
		&inv.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return entity.Invoice{}, entity.ErrNotFound
		}

		return entity.Invoice{}, err
	}

	return inv, nil
}
