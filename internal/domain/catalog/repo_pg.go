package catalog

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

const cols = `id, tenant_id, code, name, rate, created_at`

func scanItem(row pgx.Row) (*Item, error) {
	var it Item
	err := row.Scan(&it.ID, &it.TenantID, &it.Code, &it.Name, &it.Rate, &it.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return &it, err
}

func (r *repoPG) Create(ctx context.Context, item *Item) error {
	tenantID, err := db.TenantFromContext(ctx)
	if err != nil {
		return err
	}
	item.ID = uuid.New()
	item.TenantID = tenantID
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO hms_service (id, tenant_id, code, name, rate)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING created_at`,
		item.ID, item.TenantID, item.Code, item.Name, item.Rate,
	).Scan(&item.CreatedAt)
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Item, error) {
	tenantID, err := db.TenantFromContext(ctx)
	if err != nil {
		return nil, err
	}
	return scanItem(r.conn(ctx).QueryRow(ctx,
		`SELECT `+cols+` FROM hms_service WHERE tenant_id = $1 AND id = $2`, tenantID, id))
}

func (r *repoPG) GetByCode(ctx context.Context, code string) (*Item, error) {
	tenantID, err := db.TenantFromContext(ctx)
	if err != nil {
		return nil, err
	}
	return scanItem(r.conn(ctx).QueryRow(ctx,
		`SELECT `+cols+` FROM hms_service WHERE tenant_id = $1 AND code = $2`, tenantID, code))
}

func (r *repoPG) List(ctx context.Context, limit, offset int) ([]*Item, int, error) {
	tenantID, err := db.TenantFromContext(ctx)
	if err != nil {
		return nil, 0, err
	}
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM hms_service WHERE tenant_id = $1`, tenantID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+cols+` FROM hms_service WHERE tenant_id = $1 ORDER BY code ASC LIMIT $2 OFFSET $3`,
		tenantID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*Item
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, it)
	}
	return items, total, rows.Err()
}
