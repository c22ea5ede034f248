package http

import (
	"encoding/json"
	"net/http"
	"time"

	"trainerbook/backend/internal/domain"
	"trainerbook/backend/internal/service/schedule"
)

// Every response is wrapped in the same envelope: {success, data} on the
// happy path, {success:false, error} on failure. Optional fields lean on
// omitempty so absent never degrades to null or false on the wire.
type envelope struct {
	Success bool      `json:"success"`
	Message string    `json:"message,omitempty"`
	Data    any       `json:"data,omitempty"`
	Meta    *listMeta `json:"meta,omitempty"`
	Error   string    `json:"error,omitempty"`
}

type listMeta struct {
	Total   int  `json:"total"`
	HasMore bool `json:"hasMore"`
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
}

type profileJSON struct {
	Bio             string `json:"bio"`
	ProfilePhotoURL string `json:"profilePhotoUrl"`
}

type participantJSON struct {
	ID      string      `json:"id"`
	Email   string      `json:"email"`
	Profile profileJSON `json:"profile"`
}

type appointmentJSON struct {
	ID               string           `json:"id"`
	TrainerID        string           `json:"trainerId"`
	ClientID         string           `json:"clientId"`
	Title            string           `json:"title"`
	Description      string           `json:"description,omitempty"`
	Location         string           `json:"location,omitempty"`
	Notes            string           `json:"notes,omitempty"`
	StartDatetime    string           `json:"startDatetime"`
	EndDatetime      string           `json:"endDatetime"`
	DurationMinutes  int              `json:"durationMinutes"`
	Status           string           `json:"status"`
	CancelledAt      string           `json:"cancelledAt,omitempty"`
	CancelReason     string           `json:"cancelReason,omitempty"`
	CreatedAt        string           `json:"createdAt"`
	UpdatedAt        string           `json:"updatedAt"`
	Trainer          *participantJSON `json:"trainer,omitempty"`
	Client           *participantJSON `json:"client,omitempty"`
	LateCancellation bool             `json:"lateCancellation,omitempty"`
}

func toAppointmentJSON(a domain.Appointment) appointmentJSON {
	out := appointmentJSON{
		ID:              a.ID.String(),
		TrainerID:       a.TrainerID.String(),
		ClientID:        a.ClientID.String(),
		Title:           a.Title,
		Description:     a.Description,
		Location:        a.Location,
		Notes:           a.Notes,
		StartDatetime:   a.StartDatetime.UTC().Format(time.RFC3339),
		EndDatetime:     a.EndDatetime.UTC().Format(time.RFC3339),
		DurationMinutes: a.DurationMinutes,
		Status:          string(a.Status),
		CreatedAt:       a.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:       a.UpdatedAt.UTC().Format(time.RFC3339),
	}
	if a.CancelledAt != nil {
		out.CancelledAt = a.CancelledAt.UTC().Format(time.RFC3339)
	}
	if a.CancelReason != nil {
		out.CancelReason = *a.CancelReason
	}
	return out
}

func toDetailJSON(d schedule.AppointmentDetail) appointmentJSON {
	out := toAppointmentJSON(d.Appointment)
	out.Trainer = toParticipantJSON(d.Trainer)
	out.Client = toParticipantJSON(d.Client)
	return out
}

func toParticipantJSON(u domain.User) *participantJSON {
	return &participantJSON{
		ID:    u.ID.String(),
		Email: u.Email,
		Profile: profileJSON{
			Bio:             u.Bio,
			ProfilePhotoURL: u.ProfilePhotoURL,
		},
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeData(w http.ResponseWriter, status int, message string, data any) {
	writeJSON(w, status, envelope{Success: true, Message: message, Data: data})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, envelope{Success: false, Error: msg})
}
