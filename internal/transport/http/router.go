package http

import "net/http"

// NewRouter mounts the appointment routes behind the identity
// middleware. Health stays open for probes.
func NewRouter(h *AppointmentsHandler) http.Handler {
	api := http.NewServeMux()
	api.HandleFunc("GET /api/schedule/appointments", h.List)
	api.HandleFunc("POST /api/schedule/appointments", h.Create)
	api.HandleFunc("GET /api/schedule/appointments/{id}", h.View)
	api.HandleFunc("PUT /api/schedule/appointments/{id}", h.Update)
	api.HandleFunc("DELETE /api/schedule/appointments/{id}", h.Cancel)

	root := http.NewServeMux()
	root.Handle("/api/", RequireIdentity(api))
	root.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	return root
}
