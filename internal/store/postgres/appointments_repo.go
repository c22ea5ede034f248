package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/uptrace/bun"

	"trainerbook/backend/internal/domain"
	"trainerbook/backend/internal/store"
)

type AppointmentRepo struct {
	db *bun.DB
}

func NewAppointmentRepo(db *bun.DB) *AppointmentRepo {
	return &AppointmentRepo{db: db}
}

type scheduleTx struct {
	tx bun.Tx
}

func (r *AppointmentRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.Appointment, error) {
	var appt domain.Appointment
	err := r.db.NewSelect().
		Model(&appt).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Appointment{}, store.ErrNotFound
		}
		return domain.Appointment{}, err
	}
	return appt, nil
}

func (r *AppointmentRepo) List(ctx context.Context, f store.ListFilter) ([]domain.Appointment, int, error) {
	var rows []domain.Appointment
	q := r.db.NewSelect().Model(&rows)

	switch f.Role {
	case domain.RoleClient:
		q = q.Where("client_id = ?", f.UserID)
	default:
		q = q.Where("trainer_id = ?", f.UserID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.From != nil {
		q = q.Where("start_datetime >= ?", f.From.UTC())
	}
	if f.To != nil {
		q = q.Where("start_datetime <= ?", f.To.UTC())
	}

	total, err := q.Count(ctx)
	if err != nil {
		return nil, 0, err
	}

	q = q.OrderExpr("start_datetime ASC")
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	if f.Offset > 0 {
		q = q.Offset(f.Offset)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func (r *AppointmentRepo) InTrainerTx(ctx context.Context, trainerID uuid.UUID, fn func(ctx context.Context, tx store.ScheduleTx) error) error {
	return r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := lockTrainerCalendar(ctx, tx, trainerID); err != nil {
			return err
		}
		return fn(ctx, scheduleTx{tx: tx})
	})
}

func lockTrainerCalendar(ctx context.Context, tx bun.Tx, trainerID uuid.UUID) error {
	_, err := tx.NewRaw("SELECT pg_advisory_xact_lock(hashtext(?))", trainerID.String()).Exec(ctx)
	return err
}

func (r scheduleTx) GetForUpdate(ctx context.Context, id uuid.UUID) (domain.Appointment, error) {
	var appt domain.Appointment
	err := r.tx.NewSelect().
		Model(&appt).
		Where("id = ?", id).
		For("UPDATE").
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Appointment{}, store.ErrNotFound
		}
		return domain.Appointment{}, err
	}
	return appt, nil
}

func (r scheduleTx) FindConflict(ctx context.Context, trainerID uuid.UUID, start, end time.Time, excludeID uuid.UUID) (*domain.Appointment, error) {
	var appt domain.Appointment
	q := r.tx.NewSelect().
		Model(&appt).
		Where("trainer_id = ?", trainerID).
		Where("status <> ?", domain.StatusCancelled).
		Where("start_datetime < ?", end.UTC()).
		Where("end_datetime > ?", start.UTC()).
		Limit(1)
	if excludeID != uuid.Nil {
		q = q.Where("id <> ?", excludeID)
	}
	err := q.Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &appt, nil
}

func (r scheduleTx) Create(ctx context.Context, appt domain.Appointment) (domain.Appointment, error) {
	m := appt
	_, err := r.tx.NewInsert().Model(&m).Exec(ctx)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23P01" && pgErr.ConstraintName == "appointments_trainer_no_overlap" {
			return domain.Appointment{}, store.ErrConflict
		}
		return domain.Appointment{}, err
	}
	return m, nil
}

// Update writes the full record guarded by the loaded updated_at, so a
// write against a row someone else changed since the read affects zero
// rows and surfaces as ErrConflict.
func (r scheduleTx) Update(ctx context.Context, appt domain.Appointment) (domain.Appointment, error) {
	loadedAt := appt.UpdatedAt
	m := appt
	res, err := r.tx.NewUpdate().
		Model(&m).
		WherePK().
		Where("updated_at = ?", loadedAt).
		Exec(ctx)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23P01" && pgErr.ConstraintName == "appointments_trainer_no_overlap" {
			return domain.Appointment{}, store.ErrConflict
		}
		return domain.Appointment{}, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return domain.Appointment{}, err
	}
	if affected == 0 {
		return domain.Appointment{}, store.ErrConflict
	}
	return m, nil
}
