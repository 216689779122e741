package patient

import (
	"context"
	"errors"

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

const cols = `id, tenant_id, uhid, first_name, last_name, phone, email, gender, dob, address, created_at, updated_at`

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	err := row.Scan(&p.ID, &p.TenantID, &p.UHID, &p.FirstName, &p.LastName, &p.Phone,
		&p.Email, &p.Gender, &p.DOB, &p.Address, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return &p, err
}

func (r *repoPG) Create(ctx context.Context, p *Patient) error {
	tenantID, err := db.TenantFromContext(ctx)
	if err != nil {
		return err
	}
	p.ID = uuid.New()
	p.TenantID = tenantID
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO hms_patient (id, tenant_id, uhid, first_name, last_name, phone, email, gender, dob, address)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		RETURNING created_at, updated_at`,
		p.ID, p.TenantID, p.UHID, p.FirstName, p.LastName, p.Phone, p.Email, p.Gender, p.DOB, p.Address,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	tenantID, err := db.TenantFromContext(ctx)
	if err != nil {
		return nil, err
	}
	return scanPatient(r.conn(ctx).QueryRow(ctx,
		`SELECT `+cols+` FROM hms_patient WHERE tenant_id = $1 AND id = $2`, tenantID, id))
}

func (r *repoPG) FindByUHID(ctx context.Context, uhid string) (*Patient, error) {
	tenantID, err := db.TenantFromContext(ctx)
	if err != nil {
		return nil, err
	}
	return scanPatient(r.conn(ctx).QueryRow(ctx,
		`SELECT `+cols+` FROM hms_patient WHERE tenant_id = $1 AND uhid = $2`, tenantID, uhid))
}

func (r *repoPG) FindByPhone(ctx context.Context, phone string) (*Patient, error) {
	tenantID, err := db.TenantFromContext(ctx)
	if err != nil {
		return nil, err
	}
	return scanPatient(r.conn(ctx).QueryRow(ctx,
		`SELECT `+cols+` FROM hms_patient WHERE tenant_id = $1 AND phone = $2`, tenantID, phone))
}

func (r *repoPG) Search(ctx context.Context, q string, limit int) ([]*Patient, error) {
	tenantID, err := db.TenantFromContext(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+cols+` FROM hms_patient
		WHERE tenant_id = $1
		  AND (first_name || ' ' || COALESCE(last_name, '') ILIKE '%' || $2 || '%'
		       OR phone = $2 OR uhid = $2)
		ORDER BY updated_at DESC
		LIMIT $3`, tenantID, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*Patient
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	return items, rows.Err()
}

func (r *repoPG) List(ctx context.Context, limit, offset int) ([]*Patient, int, error) {
	tenantID, err := db.TenantFromContext(ctx)
	if err != nil {
		return nil, 0, err
	}
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM hms_patient WHERE tenant_id = $1`, tenantID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+cols+` FROM hms_patient WHERE tenant_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		tenantID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*Patient
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, p)
	}
	return items, total, rows.Err()
}
