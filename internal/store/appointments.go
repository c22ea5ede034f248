package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"trainerbook/backend/internal/domain"
)

// ListFilter scopes a listing to one side of the appointment (trainer or
// client) with optional status and start-time bounds.
type ListFilter struct {
	Role   domain.Role
	UserID uuid.UUID
	Status domain.Status
	From   *time.Time
	To     *time.Time
	Limit  int
	Offset int
}

type AppointmentStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (domain.Appointment, error)
	List(ctx context.Context, f ListFilter) ([]domain.Appointment, int, error)

	// InTrainerTx runs fn inside a transaction that serializes all writes
	// to the trainer's calendar, so a conflict check and the write that
	// follows it observe a consistent snapshot.
	InTrainerTx(ctx context.Context, trainerID uuid.UUID, fn func(ctx context.Context, tx ScheduleTx) error) error
}

type ScheduleTx interface {
	GetForUpdate(ctx context.Context, id uuid.UUID) (domain.Appointment, error)

	// FindConflict returns a non-cancelled appointment for the trainer
	// whose window overlaps [start, end), excluding excludeID. Touching
	// endpoints do not overlap. Returns nil when the slot is free.
	FindConflict(ctx context.Context, trainerID uuid.UUID, start, end time.Time, excludeID uuid.UUID) (*domain.Appointment, error)

	Create(ctx context.Context, appt domain.Appointment) (domain.Appointment, error)
	Update(ctx context.Context, appt domain.Appointment) (domain.Appointment, error)
}

// UserDirectory looks up participant records for response enrichment.
type UserDirectory interface {
	GetUser(ctx context.Context, id uuid.UUID) (domain.User, error)
}
