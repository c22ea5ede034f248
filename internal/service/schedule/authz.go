package schedule

import "trainerbook/backend/internal/domain"

// Authorization guards are pure predicates over requester identity and
// the appointment's participant ids. They run strictly after existence
// is confirmed: a missing appointment is always NotFound, never
// Forbidden, whoever asks.

func authorizeView(req domain.Requester, appt domain.Appointment) error {
	if req.ID == appt.TrainerID || req.ID == appt.ClientID {
		return nil
	}
	return forbiddenError("Not authorized to view this appointment")
}

func authorizeUpdate(req domain.Requester, appt domain.Appointment) error {
	if req.ID == appt.TrainerID {
		return nil
	}
	return forbiddenError("Only the trainer can update this appointment")
}

func authorizeCancel(req domain.Requester, appt domain.Appointment) error {
	if req.ID == appt.TrainerID || req.ID == appt.ClientID {
		return nil
	}
	return forbiddenError("Not authorized to cancel this appointment")
}

func authorizeCreate(req domain.Requester) error {
	switch req.Role {
	case domain.RoleTrainer:
		return nil
	case domain.RoleClient:
		return forbiddenError("Only trainers can create appointments")
	}
	return forbiddenError("Only trainers can create appointments")
}
