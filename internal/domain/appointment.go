package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Status is the closed set of appointment states. Cancelled is terminal;
// no transition is defined out of it.
type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
)

func (s Status) Valid() bool {
	switch s {
	case StatusScheduled, StatusConfirmed, StatusCancelled:
		return true
	}
	return false
}

func (s Status) Terminal() bool {
	return s == StatusCancelled
}

type Appointment struct {
	bun.BaseModel `bun:"table:appointments"`

	ID              uuid.UUID  `bun:"id,pk,type:uuid"`
	TrainerID       uuid.UUID  `bun:"trainer_id,notnull,type:uuid"`
	ClientID        uuid.UUID  `bun:"client_id,notnull,type:uuid"`
	Title           string     `bun:"title,notnull"`
	Description     string     `bun:"description"`
	Location        string     `bun:"location"`
	Notes           string     `bun:"notes"`
	StartDatetime   time.Time  `bun:"start_datetime,notnull"`
	EndDatetime     time.Time  `bun:"end_datetime,notnull"`
	DurationMinutes int        `bun:"duration_minutes,notnull"`
	Status          Status     `bun:"status,notnull"`
	CancelledAt     *time.Time `bun:"cancelled_at"`
	CancelReason    *string    `bun:"cancel_reason"`
	CreatedAt       time.Time  `bun:"created_at,notnull"`
	UpdatedAt       time.Time  `bun:"updated_at,notnull"`
}

func (a *Appointment) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	now := time.Now().UTC()
	switch query.(type) {
	case *bun.InsertQuery:
		if a.ID == uuid.Nil {
			id, err := uuid.NewV7()
			if err != nil {
				return err
			}
			a.ID = id
		}
		if a.CreatedAt.IsZero() {
			a.CreatedAt = now
		}
		if a.UpdatedAt.IsZero() {
			a.UpdatedAt = now
		}
	case *bun.UpdateQuery:
		a.UpdatedAt = now
	}
	return nil
}

// DurationMinutes returns the window length in whole minutes. Fractional
// minutes are floored; callers validate end > start first.
func DurationMinutes(start, end time.Time) int {
	return int(end.Sub(start) / time.Minute)
}
