package schedule

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"trainerbook/backend/internal/domain"
	"trainerbook/backend/internal/store"
)

// Service orchestrates the appointment lifecycle: view, update or
// reschedule, cancel, plus create and list. It holds no state of its
// own; every mutation goes through the store inside a per-trainer
// transaction so conflict checks and the writes that follow them are
// atomic.
type Service struct {
	store store.AppointmentStore
	users store.UserDirectory
	now   func() time.Time
}

func NewService(st store.AppointmentStore, users store.UserDirectory) *Service {
	return &Service{store: st, users: users, now: time.Now}
}

// AppointmentDetail is an appointment enriched with the participant
// records the responses embed.
type AppointmentDetail struct {
	Appointment domain.Appointment
	Trainer     domain.User
	Client      domain.User
}

// UpdatePatch is a partial update: nil means the field was not supplied,
// which is distinct from supplying a value.
type UpdatePatch struct {
	Title         *string
	Description   *string
	Location      *string
	Notes         *string
	Status        *domain.Status
	StartDatetime *time.Time
	EndDatetime   *time.Time
}

func (p UpdatePatch) reschedules() bool {
	return p.StartDatetime != nil || p.EndDatetime != nil
}

type CreateInput struct {
	ClientID      uuid.UUID
	Title         string
	Description   string
	Location      string
	Notes         string
	StartDatetime time.Time
	EndDatetime   time.Time
}

type CancelOutput struct {
	Appointment domain.Appointment
	// LateCancellation is true only when the cancellation lands inside
	// the 24-hour window before start. The transport omits the field
	// entirely otherwise; it never serializes false.
	LateCancellation bool
}

type ListInput struct {
	Status *domain.Status
	From   *time.Time
	To     *time.Time
	Limit  int
	Offset int
}

type ListOutput struct {
	Appointments []AppointmentDetail
	Total        int
	Limit        int
	Offset       int
	HasMore      bool
}

func (s *Service) View(ctx context.Context, id uuid.UUID, req domain.Requester) (AppointmentDetail, error) {
	appt, err := s.getExisting(ctx, id)
	if err != nil {
		return AppointmentDetail{}, err
	}
	if err := authorizeView(req, appt); err != nil {
		return AppointmentDetail{}, err
	}
	return s.enrich(ctx, appt)
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, req domain.Requester, patch UpdatePatch) (AppointmentDetail, error) {
	appt, err := s.getExisting(ctx, id)
	if err != nil {
		return AppointmentDetail{}, err
	}
	if err := authorizeUpdate(req, appt); err != nil {
		return AppointmentDetail{}, err
	}
	if appt.Status.Terminal() {
		return AppointmentDetail{}, conflictError("Appointment is already cancelled")
	}

	if patch.Title != nil && strings.TrimSpace(*patch.Title) == "" {
		return AppointmentDetail{}, validationError("Title is required")
	}
	if patch.Status != nil && *patch.Status != domain.StatusScheduled && *patch.Status != domain.StatusConfirmed {
		// Cancellation has its own operation; it is the only path that
		// may set cancelled_at alongside the status.
		return AppointmentDetail{}, validationError("Status must be scheduled or confirmed")
	}

	resched := patch.reschedules()
	start := appt.StartDatetime
	end := appt.EndDatetime
	if patch.StartDatetime != nil {
		start = patch.StartDatetime.UTC()
	}
	if patch.EndDatetime != nil {
		end = patch.EndDatetime.UTC()
	}
	if resched && !end.After(start) {
		return AppointmentDetail{}, validationError("End time must be after start time")
	}

	var updated domain.Appointment
	err = s.store.InTrainerTx(ctx, appt.TrainerID, func(ctx context.Context, tx store.ScheduleTx) error {
		cur, err := tx.GetForUpdate(ctx, appt.ID)
		if err != nil {
			return err
		}
		if cur.Status.Terminal() {
			return conflictError("Appointment is already cancelled")
		}

		if resched {
			conflict, err := tx.FindConflict(ctx, cur.TrainerID, start, end, cur.ID)
			if err != nil {
				return err
			}
			if conflict != nil {
				return conflictError("Rescheduled time conflicts with another appointment")
			}
			cur.StartDatetime = start
			cur.EndDatetime = end
			cur.DurationMinutes = domain.DurationMinutes(start, end)
		}

		applyPatch(&cur, patch)

		updated, err = tx.Update(ctx, cur)
		if err != nil {
			if errors.Is(err, store.ErrConflict) {
				if resched {
					return conflictError("Rescheduled time conflicts with another appointment")
				}
				return conflictError("Appointment was modified concurrently")
			}
			return err
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return AppointmentDetail{}, notFoundError("Appointment not found")
		}
		return AppointmentDetail{}, err
	}

	return s.enrich(ctx, updated)
}

func (s *Service) Cancel(ctx context.Context, id uuid.UUID, req domain.Requester, reason string) (CancelOutput, error) {
	appt, err := s.getExisting(ctx, id)
	if err != nil {
		return CancelOutput{}, err
	}
	if err := authorizeCancel(req, appt); err != nil {
		return CancelOutput{}, err
	}
	if appt.Status.Terminal() {
		return CancelOutput{}, conflictError("Appointment is already cancelled")
	}

	now := s.now().UTC()
	reason = strings.TrimSpace(reason)

	var updated domain.Appointment
	err = s.store.InTrainerTx(ctx, appt.TrainerID, func(ctx context.Context, tx store.ScheduleTx) error {
		cur, err := tx.GetForUpdate(ctx, appt.ID)
		if err != nil {
			return err
		}
		if cur.Status.Terminal() {
			return conflictError("Appointment is already cancelled")
		}

		cur.Status = domain.StatusCancelled
		cancelledAt := now
		cur.CancelledAt = &cancelledAt
		if reason != "" {
			r := reason
			cur.CancelReason = &r
		}

		updated, err = tx.Update(ctx, cur)
		if err != nil {
			if errors.Is(err, store.ErrConflict) {
				return conflictError("Appointment was modified concurrently")
			}
			return err
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return CancelOutput{}, notFoundError("Appointment not found")
		}
		return CancelOutput{}, err
	}

	// Policy runs against the pre-cancellation start time.
	return CancelOutput{
		Appointment:      updated,
		LateCancellation: IsLateCancellation(appt.StartDatetime, now),
	}, nil
}

func (s *Service) Create(ctx context.Context, req domain.Requester, in CreateInput) (AppointmentDetail, error) {
	if err := authorizeCreate(req); err != nil {
		return AppointmentDetail{}, err
	}

	title := strings.TrimSpace(in.Title)
	if title == "" {
		return AppointmentDetail{}, validationError("Title is required")
	}
	if in.ClientID == uuid.Nil {
		return AppointmentDetail{}, validationError("Client is required")
	}

	start := in.StartDatetime.UTC()
	end := in.EndDatetime.UTC()
	if !end.After(start) {
		return AppointmentDetail{}, validationError("End time must be after start time")
	}

	client, err := s.users.GetUser(ctx, in.ClientID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return AppointmentDetail{}, validationError("Client not found")
		}
		return AppointmentDetail{}, err
	}

	appt := domain.Appointment{
		TrainerID:       req.ID,
		ClientID:        in.ClientID,
		Title:           title,
		Description:     in.Description,
		Location:        in.Location,
		Notes:           in.Notes,
		StartDatetime:   start,
		EndDatetime:     end,
		DurationMinutes: domain.DurationMinutes(start, end),
		Status:          domain.StatusScheduled,
	}

	var created domain.Appointment
	err = s.store.InTrainerTx(ctx, req.ID, func(ctx context.Context, tx store.ScheduleTx) error {
		conflict, err := tx.FindConflict(ctx, req.ID, start, end, uuid.Nil)
		if err != nil {
			return err
		}
		if conflict != nil {
			return conflictError("Time slot conflicts with an existing appointment")
		}
		created, err = tx.Create(ctx, appt)
		if err != nil {
			if errors.Is(err, store.ErrConflict) {
				return conflictError("Time slot conflicts with an existing appointment")
			}
			return err
		}
		return nil
	})
	if err != nil {
		return AppointmentDetail{}, err
	}

	trainer, err := s.users.GetUser(ctx, created.TrainerID)
	if err != nil {
		return AppointmentDetail{}, err
	}
	return AppointmentDetail{Appointment: created, Trainer: trainer, Client: client}, nil
}

func (s *Service) List(ctx context.Context, req domain.Requester, in ListInput) (ListOutput, error) {
	limit := in.Limit
	if limit <= 0 {
		limit = 100
	}
	if limit > 200 {
		limit = 200
	}
	offset := in.Offset
	if offset < 0 {
		offset = 0
	}

	f := store.ListFilter{
		Role:   req.Role,
		UserID: req.ID,
		From:   in.From,
		To:     in.To,
		Limit:  limit,
		Offset: offset,
	}
	if in.Status != nil {
		f.Status = *in.Status
	}

	rows, total, err := s.store.List(ctx, f)
	if err != nil {
		return ListOutput{}, err
	}

	cache := make(map[uuid.UUID]domain.User, 2*len(rows))
	lookup := func(id uuid.UUID) (domain.User, error) {
		if u, ok := cache[id]; ok {
			return u, nil
		}
		u, err := s.users.GetUser(ctx, id)
		if err != nil {
			return domain.User{}, err
		}
		cache[id] = u
		return u, nil
	}

	details := make([]AppointmentDetail, 0, len(rows))
	for _, appt := range rows {
		trainer, err := lookup(appt.TrainerID)
		if err != nil {
			return ListOutput{}, err
		}
		client, err := lookup(appt.ClientID)
		if err != nil {
			return ListOutput{}, err
		}
		details = append(details, AppointmentDetail{Appointment: appt, Trainer: trainer, Client: client})
	}

	return ListOutput{
		Appointments: details,
		Total:        total,
		Limit:        limit,
		Offset:       offset,
		HasMore:      offset+limit < total,
	}, nil
}

func (s *Service) getExisting(ctx context.Context, id uuid.UUID) (domain.Appointment, error) {
	appt, err := s.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Appointment{}, notFoundError("Appointment not found")
		}
		return domain.Appointment{}, err
	}
	return appt, nil
}

func (s *Service) enrich(ctx context.Context, appt domain.Appointment) (AppointmentDetail, error) {
	trainer, err := s.users.GetUser(ctx, appt.TrainerID)
	if err != nil {
		return AppointmentDetail{}, err
	}
	client, err := s.users.GetUser(ctx, appt.ClientID)
	if err != nil {
		return AppointmentDetail{}, err
	}
	return AppointmentDetail{Appointment: appt, Trainer: trainer, Client: client}, nil
}

func applyPatch(appt *domain.Appointment, p UpdatePatch) {
	if p.Title != nil {
		appt.Title = strings.TrimSpace(*p.Title)
	}
	if p.Description != nil {
		appt.Description = *p.Description
	}
	if p.Location != nil {
		appt.Location = *p.Location
	}
	if p.Notes != nil {
		appt.Notes = *p.Notes
	}
	if p.Status != nil {
		appt.Status = *p.Status
	}
}
