package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TxFromContext returns the transaction bound to ctx, or nil outside a unit of
// work.
func TxFromContext(ctx context.Context) pgx.Tx {
	tx, _ := ctx.Value(txKey).(pgx.Tx)
	return tx
}

// WithTx returns a context carrying the given transaction.
func WithTx(ctx context.Context, tx pgx.Tx) context.Context {
	return context.WithValue(ctx, txKey, tx)
}

// TxManager runs units of work. Each call opens one transaction, applies the
// resolved tenant to the session before any query runs, and commits or rolls
// back as a whole. The tenant setting is transaction-local, so it cannot leak
// to an unrelated transaction on the same pooled connection.
type TxManager struct {
	pool *pgxpool.Pool
}

func NewTxManager(pool *pgxpool.Pool) *TxManager {
	return &TxManager{pool: pool}
}

// InTenantTx executes fn inside a single transaction scoped to the tenant
// carried by ctx. The transaction is visible to repositories through
// TxFromContext. fn returning an error rolls everything back.
func (m *TxManager) InTenantTx(ctx context.Context, fn func(ctx context.Context) error) error {
	tenantID, err := TenantFromContext(ctx)
	if err != nil {
		return err
	}

	tx, err := m.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	// set_config with is_local=true is reverted at commit/rollback.
	if _, err := tx.Exec(ctx, `SELECT set_config('app.tenant_id', $1, true)`, tenantID); err != nil {
		return fmt.Errorf("bind tenant: %w", err)
	}

	if err := fn(WithTx(ctx, tx)); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
