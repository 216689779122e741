package messaging

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hms/hms/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

func (r *repoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

func (r *repoPG) Create(ctx context.Context, m *MessageLog) error {
	tenantID, err := db.TenantFromContext(ctx)
	if err != nil {
		return err
	}
	m.ID = uuid.New()
	m.TenantID = tenantID
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO hms_message_log (id, tenant_id, patient_id, invoice_id, channel, recipient, body, status, provider_id, error)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		RETURNING created_at, updated_at`,
		m.ID, m.TenantID, m.PatientID, m.InvoiceID, m.Channel, m.Recipient, m.Body, m.Status, m.ProviderID, m.Error,
	).Scan(&m.CreatedAt, &m.UpdatedAt)
}

func (r *repoPG) UpdateOutcome(ctx context.Context, m *MessageLog) error {
	tenantID, err := db.TenantFromContext(ctx)
	if err != nil {
		return err
	}
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE hms_message_log SET status = $3, provider_id = $4, error = $5, updated_at = now()
		WHERE tenant_id = $1 AND id = $2`,
		tenantID, m.ID, m.Status, m.ProviderID, m.Error)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) ListByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]*MessageLog, error) {
	tenantID, err := db.TenantFromContext(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, tenant_id, patient_id, invoice_id, channel, recipient, body, status, provider_id, error, created_at, updated_at
		FROM hms_message_log WHERE tenant_id = $1 AND invoice_id = $2
		ORDER BY created_at DESC`,
		tenantID, invoiceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*MessageLog
	for rows.Next() {
		var m MessageLog
		if err := rows.Scan(&m.ID, &m.TenantID, &m.PatientID, &m.InvoiceID, &m.Channel, &m.Recipient,
			&m.Body, &m.Status, &m.ProviderID, &m.Error, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, &m)
	}
	return out, rows.Err()
}
