package appointment

import (
	"context"
	"errors"
	"strings"
	"time"

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

const cols = `id, tenant_id, patient_id, doctor_id, scheduled_at, reason, status, cancelled_at, created_at, updated_at`

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	err := row.Scan(&a.ID, &a.TenantID, &a.PatientID, &a.DoctorID, &a.ScheduledAt,
		&a.Reason, &a.Status, &a.CancelledAt, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return &a, err
}

func (r *repoPG) Create(ctx context.Context, a *Appointment) error {
	tenantID, err := db.TenantFromContext(ctx)
	if err != nil {
		return err
	}
	a.ID = uuid.New()
	a.TenantID = tenantID
	err = r.conn(ctx).QueryRow(ctx, `
		INSERT INTO hms_appointment (id, tenant_id, patient_id, doctor_id, scheduled_at, reason, status)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING created_at, updated_at`,
		a.ID, a.TenantID, a.PatientID, a.DoctorID, a.ScheduledAt, a.Reason, a.Status,
	).Scan(&a.CreatedAt, &a.UpdatedAt)
	if isSlotConflict(err) {
		return ErrDuplicateSlot
	}
	return err
}

// isSlotConflict matches unique violations on the doctor/timestamp index so
// a lost booking race surfaces the same way a detected conflict does.
func isSlotConflict(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) &&
		pgErr.Code == "23505" &&
		strings.Contains(pgErr.ConstraintName, "doctor_slot")
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	tenantID, err := db.TenantFromContext(ctx)
	if err != nil {
		return nil, err
	}
	return scanAppointment(r.conn(ctx).QueryRow(ctx,
		`SELECT `+cols+` FROM hms_appointment WHERE tenant_id = $1 AND id = $2`,
		tenantID, id))
}

func (r *repoPG) FindConflict(ctx context.Context, doctorID uuid.UUID, at time.Time) (*Appointment, error) {
	tenantID, err := db.TenantFromContext(ctx)
	if err != nil {
		return nil, err
	}
	return scanAppointment(r.conn(ctx).QueryRow(ctx, `
		SELECT `+cols+` FROM hms_appointment
		WHERE tenant_id = $1 AND doctor_id = $2 AND scheduled_at = $3 AND status <> $4
		LIMIT 1`,
		tenantID, doctorID, at, StatusCancelled))
}

func (r *repoPG) UpdateStatus(ctx context.Context, a *Appointment) error {
	tenantID, err := db.TenantFromContext(ctx)
	if err != nil {
		return err
	}
	return r.conn(ctx).QueryRow(ctx, `
		UPDATE hms_appointment SET status = $3, cancelled_at = $4, updated_at = now()
		WHERE tenant_id = $1 AND id = $2
		RETURNING updated_at`,
		tenantID, a.ID, a.Status, a.CancelledAt,
	).Scan(&a.UpdatedAt)
}

func (r *repoPG) ListDay(ctx context.Context, day time.Time, doctorID *uuid.UUID) ([]*Appointment, error) {
	tenantID, err := db.TenantFromContext(ctx)
	if err != nil {
		return nil, err
	}
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	end := start.Add(24 * time.Hour)
	q := `SELECT ` + cols + ` FROM hms_appointment
		WHERE tenant_id = $1 AND scheduled_at >= $2 AND scheduled_at < $3`
	args := []interface{}{tenantID, start, end}
	if doctorID != nil {
		q += ` AND doctor_id = $4`
		args = append(args, *doctorID)
	}
	q += ` ORDER BY scheduled_at ASC`
	rows, err := r.conn(ctx).Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collect(rows)
}

func (r *repoPG) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	tenantID, err := db.TenantFromContext(ctx)
	if err != nil {
		return nil, 0, err
	}
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM hms_appointment WHERE tenant_id = $1 AND patient_id = $2`,
		tenantID, patientID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+cols+` FROM hms_appointment
		 WHERE tenant_id = $1 AND patient_id = $2
		 ORDER BY scheduled_at DESC LIMIT $3 OFFSET $4`,
		tenantID, patientID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	out, err := collect(rows)
	return out, total, err
}

func collect(rows pgx.Rows) ([]*Appointment, error) {
	var out []*Appointment
	for rows.Next() {
		var a Appointment
		if err := rows.Scan(&a.ID, &a.TenantID, &a.PatientID, &a.DoctorID, &a.ScheduledAt,
			&a.Reason, &a.Status, &a.CancelledAt, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, &a)
	}
	return out, rows.Err()
}
