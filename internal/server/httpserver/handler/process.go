package handler

import "net/http"

// handleServerStatus handles GET /server/status.
func (h *Handler) handleServerStatus(w http.ResponseWriter, r *http.Request) {
	state := h.coord.ServerStatus(r.Context())
	h.writeJSON(w, r, http.StatusOK, ServerStatusResponse{ServerStatus: state.String()})
}

// handleStartServer handles POST /server/start.
func (h *Handler) handleStartServer(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.opContext(r)
	defer cancel()

	state, err := h.coord.StartServer(ctx)
	if err != nil {
		h.handleServiceError(w, r, err, state)
		return
	}
	h.writeJSON(w, r, http.StatusOK, ServerStatusResponse{ServerStatus: state.String()})
}

// handleStopServer handles POST /server/stop. Stopping a stopped server
// succeeds.
func (h *Handler) handleStopServer(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.opContext(r)
	defer cancel()

	state, err := h.coord.StopServer(ctx)
	if err != nil {
		h.handleServiceError(w, r, err, state)
		return
	}
	h.writeJSON(w, r, http.StatusOK, ServerStatusResponse{ServerStatus: state.String()})
}
