package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"trainerbook/backend/internal/domain"
	"trainerbook/backend/internal/service/schedule"
)

type AppointmentsHandler struct {
	svc scheduleService
	log *slog.Logger
}

type scheduleService interface {
	View(ctx context.Context, id uuid.UUID, req domain.Requester) (schedule.AppointmentDetail, error)
	Update(ctx context.Context, id uuid.UUID, req domain.Requester, patch schedule.UpdatePatch) (schedule.AppointmentDetail, error)
	Cancel(ctx context.Context, id uuid.UUID, req domain.Requester, reason string) (schedule.CancelOutput, error)
	Create(ctx context.Context, req domain.Requester, in schedule.CreateInput) (schedule.AppointmentDetail, error)
	List(ctx context.Context, req domain.Requester, in schedule.ListInput) (schedule.ListOutput, error)
}

func NewAppointmentsHandler(svc scheduleService, log *slog.Logger) *AppointmentsHandler {
	if log == nil {
		log = slog.Default()
	}
	return &AppointmentsHandler{
		svc: svc,
		log: log.With(slog.String("component", "http.appointments")),
	}
}

type createAppointmentRequest struct {
	ClientID      string `json:"clientId"`
	Title         string `json:"title"`
	Description   string `json:"description"`
	Location      string `json:"location"`
	Notes         string `json:"notes"`
	StartDatetime string `json:"startDatetime"`
	EndDatetime   string `json:"endDatetime"`
}

type updateAppointmentRequest struct {
	Title         *string `json:"title"`
	Description   *string `json:"description"`
	Location      *string `json:"location"`
	Notes         *string `json:"notes"`
	Status        *string `json:"status"`
	StartDatetime *string `json:"startDatetime"`
	EndDatetime   *string `json:"endDatetime"`
}

type cancelAppointmentRequest struct {
	CancelReason string `json:"cancelReason"`
}

func (h *AppointmentsHandler) View(w http.ResponseWriter, r *http.Request) {
	log := h.log.With(slog.String("op", "view"))

	req, ok := RequesterFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	id, ok := appointmentID(w, r)
	if !ok {
		return
	}

	detail, err := h.svc.View(r.Context(), id, req)
	if err != nil {
		h.writeServiceError(w, log, err)
		return
	}

	log.Debug("appointment viewed",
		slog.String("appointment_id", id.String()),
		slog.String("user_id", req.ID.String()),
	)
	writeData(w, http.StatusOK, "", toDetailJSON(detail))
}

func (h *AppointmentsHandler) Update(w http.ResponseWriter, r *http.Request) {
	log := h.log.With(slog.String("op", "update"))

	req, ok := RequesterFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	id, ok := appointmentID(w, r)
	if !ok {
		return
	}

	var body updateAppointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}

	patch := schedule.UpdatePatch{
		Title:       body.Title,
		Description: body.Description,
		Location:    body.Location,
		Notes:       body.Notes,
	}
	if body.Status != nil {
		st := domain.Status(strings.TrimSpace(*body.Status))
		patch.Status = &st
	}
	if body.StartDatetime != nil {
		t, err := time.Parse(time.RFC3339, *body.StartDatetime)
		if err != nil {
			writeError(w, http.StatusBadRequest, "startDatetime must be RFC3339 format")
			return
		}
		patch.StartDatetime = &t
	}
	if body.EndDatetime != nil {
		t, err := time.Parse(time.RFC3339, *body.EndDatetime)
		if err != nil {
			writeError(w, http.StatusBadRequest, "endDatetime must be RFC3339 format")
			return
		}
		patch.EndDatetime = &t
	}

	detail, err := h.svc.Update(r.Context(), id, req, patch)
	if err != nil {
		h.writeServiceError(w, log, err)
		return
	}

	log.Info("appointment updated",
		slog.String("appointment_id", id.String()),
		slog.String("user_id", req.ID.String()),
		slog.Time("start_datetime", detail.Appointment.StartDatetime),
		slog.Time("end_datetime", detail.Appointment.EndDatetime),
	)
	writeData(w, http.StatusOK, "", toDetailJSON(detail))
}

func (h *AppointmentsHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	log := h.log.With(slog.String("op", "cancel"))

	req, ok := RequesterFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	id, ok := appointmentID(w, r)
	if !ok {
		return
	}

	// DELETE without a body is fine; a malformed one is ignored too.
	var body cancelAppointmentRequest
	_ = json.NewDecoder(r.Body).Decode(&body)

	out, err := h.svc.Cancel(r.Context(), id, req, strings.TrimSpace(body.CancelReason))
	if err != nil {
		h.writeServiceError(w, log, err)
		return
	}

	data := toAppointmentJSON(out.Appointment)
	data.LateCancellation = out.LateCancellation

	log.Info("appointment cancelled",
		slog.String("appointment_id", id.String()),
		slog.String("user_id", req.ID.String()),
		slog.Bool("late_cancellation", out.LateCancellation),
	)
	writeData(w, http.StatusOK, "Appointment cancelled", data)
}

func (h *AppointmentsHandler) Create(w http.ResponseWriter, r *http.Request) {
	log := h.log.With(slog.String("op", "create"))

	req, ok := RequesterFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var body createAppointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}

	clientID, err := uuid.Parse(strings.TrimSpace(body.ClientID))
	if err != nil {
		writeError(w, http.StatusBadRequest, "clientId must be a UUID")
		return
	}
	if body.StartDatetime == "" || body.EndDatetime == "" {
		writeError(w, http.StatusBadRequest, "startDatetime and endDatetime are required")
		return
	}
	start, err := time.Parse(time.RFC3339, body.StartDatetime)
	if err != nil {
		writeError(w, http.StatusBadRequest, "startDatetime must be RFC3339 format")
		return
	}
	end, err := time.Parse(time.RFC3339, body.EndDatetime)
	if err != nil {
		writeError(w, http.StatusBadRequest, "endDatetime must be RFC3339 format")
		return
	}

	detail, err := h.svc.Create(r.Context(), req, schedule.CreateInput{
		ClientID:      clientID,
		Title:         body.Title,
		Description:   body.Description,
		Location:      body.Location,
		Notes:         body.Notes,
		StartDatetime: start,
		EndDatetime:   end,
	})
	if err != nil {
		h.writeServiceError(w, log, err)
		return
	}

	log.Info("appointment created",
		slog.String("appointment_id", detail.Appointment.ID.String()),
		slog.String("trainer_id", req.ID.String()),
		slog.String("client_id", clientID.String()),
		slog.Time("start_datetime", detail.Appointment.StartDatetime),
		slog.Time("end_datetime", detail.Appointment.EndDatetime),
	)
	writeData(w, http.StatusCreated, "Appointment created", toDetailJSON(detail))
}

func (h *AppointmentsHandler) List(w http.ResponseWriter, r *http.Request) {
	log := h.log.With(slog.String("op", "list"))

	req, ok := RequesterFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	in := schedule.ListInput{}
	q := r.URL.Query()

	if raw := strings.TrimSpace(q.Get("status")); raw != "" {
		st := domain.Status(raw)
		if !st.Valid() {
			writeError(w, http.StatusBadRequest, "invalid status filter")
			return
		}
		in.Status = &st
	}
	if raw := strings.TrimSpace(q.Get("startDate")); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "startDate must be RFC3339 format")
			return
		}
		in.From = &t
	}
	if raw := strings.TrimSpace(q.Get("endDate")); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "endDate must be RFC3339 format")
			return
		}
		in.To = &t
	}
	if raw := strings.TrimSpace(q.Get("limit")); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			in.Limit = n
		}
	}
	if raw := strings.TrimSpace(q.Get("offset")); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			in.Offset = n
		}
	}

	out, err := h.svc.List(r.Context(), req, in)
	if err != nil {
		h.writeServiceError(w, log, err)
		return
	}

	items := make([]appointmentJSON, 0, len(out.Appointments))
	for _, d := range out.Appointments {
		items = append(items, toDetailJSON(d))
	}

	log.Debug("appointments listed",
		slog.String("user_id", req.ID.String()),
		slog.Int("count", len(items)),
		slog.Int("total", out.Total),
	)
	writeJSON(w, http.StatusOK, envelope{
		Success: true,
		Data:    items,
		Meta: &listMeta{
			Total:   out.Total,
			HasMore: out.HasMore,
			Limit:   out.Limit,
			Offset:  out.Offset,
		},
	})
}

// appointmentID parses the path id. Ids are opaque uuids, so anything
// that does not parse cannot name a stored appointment and reads as
// missing, not malformed.
func appointmentID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "Appointment not found")
		return uuid.Nil, false
	}
	return id, true
}

func (h *AppointmentsHandler) writeServiceError(w http.ResponseWriter, log *slog.Logger, err error) {
	var nf *schedule.NotFoundError
	if errors.As(err, &nf) {
		log.Info("appointment not found", slog.Any("err", err))
		writeError(w, http.StatusNotFound, nf.Error())
		return
	}
	var fb *schedule.ForbiddenError
	if errors.As(err, &fb) {
		log.Info("request forbidden", slog.Any("err", err))
		writeError(w, http.StatusForbidden, fb.Error())
		return
	}
	var ve *schedule.ValidationError
	if errors.As(err, &ve) {
		log.Warn("invalid request", slog.Any("err", err))
		writeError(w, http.StatusBadRequest, ve.Error())
		return
	}
	var ce *schedule.ConflictError
	if errors.As(err, &ce) {
		log.Info("request conflict", slog.Any("err", err))
		writeError(w, http.StatusConflict, ce.Error())
		return
	}
	log.Error("request failed", slog.Any("err", err))
	writeError(w, http.StatusInternalServerError, "internal error")
}
