package billing

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/hms/hms/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

// =========== Invoice Repository ===========

type invoiceRepoPG struct{ pool *pgxpool.Pool }

func NewInvoiceRepoPG(pool *pgxpool.Pool) InvoiceRepository { return &invoiceRepoPG{pool: pool} }

func (r *invoiceRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const invCols = `id, tenant_id, patient_id, invoice_no, subtotal, discount, tax, total, status, created_at`

func scanInvoice(row pgx.Row) (*Invoice, error) {
	var inv Invoice
	err := row.Scan(&inv.ID, &inv.TenantID, &inv.PatientID, &inv.InvoiceNo,
		&inv.Subtotal, &inv.Discount, &inv.Tax, &inv.Total, &inv.Status, &inv.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return &inv, err
}

func (r *invoiceRepoPG) Create(ctx context.Context, inv *Invoice) error {
	tenantID, err := db.TenantFromContext(ctx)
	if err != nil {
		return err
	}
	inv.ID = uuid.New()
	inv.TenantID = tenantID
	c := r.conn(ctx)
	err = c.QueryRow(ctx, `
		INSERT INTO hms_invoice (id, tenant_id, patient_id, invoice_no, subtotal, discount, tax, total, status)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		RETURNING created_at`,
		inv.ID, inv.TenantID, inv.PatientID, inv.InvoiceNo,
		inv.Subtotal, inv.Discount, inv.Tax, inv.Total, inv.Status,
	).Scan(&inv.CreatedAt)
	if err != nil {
		return err
	}
	for _, it := range inv.Items {
		it.ID = uuid.New()
		it.InvoiceID = inv.ID
		if _, err := c.Exec(ctx, `
			INSERT INTO hms_invoice_item (id, invoice_id, service_id, description, qty, rate, amount)
			VALUES ($1,$2,$3,$4,$5,$6,$7)`,
			it.ID, it.InvoiceID, it.ServiceID, it.Description, it.Qty, it.Rate, it.Amount,
		); err != nil {
			return err
		}
	}
	return nil
}

func (r *invoiceRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Invoice, error) {
	tenantID, err := db.TenantFromContext(ctx)
	if err != nil {
		return nil, err
	}
	inv, err := scanInvoice(r.conn(ctx).QueryRow(ctx,
		`SELECT `+invCols+` FROM hms_invoice WHERE tenant_id = $1 AND id = $2`,
		tenantID, id))
	if err != nil {
		return nil, err
	}
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, invoice_id, service_id, description, qty, rate, amount
		FROM hms_invoice_item WHERE invoice_id = $1 ORDER BY id`,
		inv.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var it InvoiceItem
		if err := rows.Scan(&it.ID, &it.InvoiceID, &it.ServiceID, &it.Description,
			&it.Qty, &it.Rate, &it.Amount); err != nil {
			return nil, err
		}
		inv.Items = append(inv.Items, &it)
	}
	return inv, rows.Err()
}

func (r *invoiceRepoPG) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*Invoice, error) {
	tenantID, err := db.TenantFromContext(ctx)
	if err != nil {
		return nil, err
	}
	return scanInvoice(r.conn(ctx).QueryRow(ctx,
		`SELECT `+invCols+` FROM hms_invoice WHERE tenant_id = $1 AND id = $2 FOR UPDATE`,
		tenantID, id))
}

func (r *invoiceRepoPG) UpdateStatus(ctx context.Context, id uuid.UUID, status InvoiceStatus) error {
	tenantID, err := db.TenantFromContext(ctx)
	if err != nil {
		return err
	}
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE hms_invoice SET status = $3 WHERE tenant_id = $1 AND id = $2`,
		tenantID, id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *invoiceRepoPG) List(ctx context.Context, limit, offset int) ([]*Invoice, int, error) {
	tenantID, err := db.TenantFromContext(ctx)
	if err != nil {
		return nil, 0, err
	}
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM hms_invoice WHERE tenant_id = $1`, tenantID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+invCols+` FROM hms_invoice WHERE tenant_id = $1
		 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		tenantID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var out []*Invoice
	for rows.Next() {
		var inv Invoice
		if err := rows.Scan(&inv.ID, &inv.TenantID, &inv.PatientID, &inv.InvoiceNo,
			&inv.Subtotal, &inv.Discount, &inv.Tax, &inv.Total, &inv.Status, &inv.CreatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, &inv)
	}
	return out, total, rows.Err()
}

// =========== Payment Repository ===========

type paymentRepoPG struct{ pool *pgxpool.Pool }

func NewPaymentRepoPG(pool *pgxpool.Pool) PaymentRepository { return &paymentRepoPG{pool: pool} }

func (r *paymentRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

func (r *paymentRepoPG) Create(ctx context.Context, p *Payment) error {
	tenantID, err := db.TenantFromContext(ctx)
	if err != nil {
		return err
	}
	p.ID = uuid.New()
	p.TenantID = tenantID
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO hms_payment (id, tenant_id, invoice_id, amount, mode, reference)
		VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING created_at`,
		p.ID, p.TenantID, p.InvoiceID, p.Amount, p.Mode, p.Reference,
	).Scan(&p.CreatedAt)
}

func (r *paymentRepoPG) SumByInvoice(ctx context.Context, invoiceID uuid.UUID) (decimal.Decimal, error) {
	tenantID, err := db.TenantFromContext(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	var sum decimal.Decimal
	err = r.conn(ctx).QueryRow(ctx,
		`SELECT COALESCE(SUM(amount), 0) FROM hms_payment WHERE tenant_id = $1 AND invoice_id = $2`,
		tenantID, invoiceID).Scan(&sum)
	return sum, err
}

func (r *paymentRepoPG) ListByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]*Payment, error) {
	tenantID, err := db.TenantFromContext(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, tenant_id, invoice_id, amount, mode, reference, created_at
		FROM hms_payment WHERE tenant_id = $1 AND invoice_id = $2
		ORDER BY created_at ASC`,
		tenantID, invoiceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*Payment
	for rows.Next() {
		var p Payment
		if err := rows.Scan(&p.ID, &p.TenantID, &p.InvoiceID, &p.Amount, &p.Mode,
			&p.Reference, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &p)
	}
	return out, rows.Err()
}

// =========== Ledger Repository ===========

type ledgerRepoPG struct{ pool *pgxpool.Pool }

func NewLedgerRepoPG(pool *pgxpool.Pool) LedgerRepository { return &ledgerRepoPG{pool: pool} }

func (r *ledgerRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

func (r *ledgerRepoPG) Append(ctx context.Context, entries []*AccountingEntry) error {
	tenantID, err := db.TenantFromContext(ctx)
	if err != nil {
		return err
	}
	c := r.conn(ctx)
	for _, e := range entries {
		e.ID = uuid.New()
		e.TenantID = tenantID
		if err := c.QueryRow(ctx, `
			INSERT INTO hms_accounting_entry (id, tenant_id, invoice_id, payment_id, account, debit, credit)
			VALUES ($1,$2,$3,$4,$5,$6,$7)
			RETURNING created_at`,
			e.ID, e.TenantID, e.InvoiceID, e.PaymentID, e.Account, e.Debit, e.Credit,
		).Scan(&e.CreatedAt); err != nil {
			return err
		}
	}
	return nil
}

func (r *ledgerRepoPG) ListByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]*AccountingEntry, error) {
	return r.list(ctx, `invoice_id`, invoiceID)
}

func (r *ledgerRepoPG) ListByPayment(ctx context.Context, paymentID uuid.UUID) ([]*AccountingEntry, error) {
	return r.list(ctx, `payment_id`, paymentID)
}

func (r *ledgerRepoPG) list(ctx context.Context, col string, id uuid.UUID) ([]*AccountingEntry, error) {
	tenantID, err := db.TenantFromContext(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, tenant_id, invoice_id, payment_id, account, debit, credit, created_at
		FROM hms_accounting_entry WHERE tenant_id = $1 AND `+col+` = $2
		ORDER BY created_at ASC, id`,
		tenantID, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*AccountingEntry
	for rows.Next() {
		var e AccountingEntry
		if err := rows.Scan(&e.ID, &e.TenantID, &e.InvoiceID, &e.PaymentID,
			&e.Account, &e.Debit, &e.Credit, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &e)
	}
	return out, rows.Err()
}
