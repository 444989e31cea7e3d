package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/yndnr/worldsnap-go/internal/core/domain"
	"github.com/yndnr/worldsnap-go/internal/core/service"
	"github.com/yndnr/worldsnap-go/internal/telemetry/logger"
)

const maxBodyBytes = 4 << 10

// handleListSnapshots handles GET /snapshots.
func (h *Handler) handleListSnapshots(w http.ResponseWriter, r *http.Request) {
	snaps, state, err := h.coord.ListSnapshots(r.Context())
	if err != nil {
		h.handleServiceError(w, r, err, state)
		return
	}

	items := make([]SnapshotInfo, len(snaps))
	for i, s := range snaps {
		items[i] = toSnapshotInfo(s)
	}
	h.writeJSON(w, r, http.StatusOK, ListSnapshotsResponse{
		Snapshots:    items,
		Count:        len(items),
		ServerStatus: state.String(),
	})
}

// handleCreateSnapshot handles POST /snapshots. The body is optional.
func (h *Handler) handleCreateSnapshot(w http.ResponseWriter, r *http.Request) {
	var req CreateSnapshotRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		h.handleServiceError(w, r, domain.ErrBadRequest.Wrap(err), h.coord.ServerStatus(r.Context()))
		return
	}
	h.createSnapshot(w, r, req.Name)
}

// handleLegacyCreate handles GET /create-backup[/{name}].
func (h *Handler) handleLegacyCreate(w http.ResponseWriter, r *http.Request) {
	h.createSnapshot(w, r, r.PathValue("name"))
}

func (h *Handler) createSnapshot(w http.ResponseWriter, r *http.Request, name string) {
	ctx, cancel := h.opContext(r)
	defer cancel()

	res, err := h.coord.CreateSnapshot(ctx, name)
	if err != nil {
		h.operationFailed(w, r, err, res)
		return
	}
	if res.RestartWarning != nil {
		logger.L(r.Context()).Warn("snapshot created but server restart failed",
			"snapshot", res.Snapshot.Name, "error", res.RestartWarning)
	}
	h.writeJSON(w, r, http.StatusCreated, toSnapshotOpResponse(res))
}

// handleRestoreSnapshot handles POST /snapshots/{name}/restore and the
// legacy GET /restore/{name}.
func (h *Handler) handleRestoreSnapshot(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.opContext(r)
	defer cancel()

	name := r.PathValue("name")
	res, err := h.coord.RestoreSnapshot(ctx, name)
	if err != nil {
		h.operationFailed(w, r, err, res)
		return
	}
	if res.RestartWarning != nil {
		logger.L(r.Context()).Warn("snapshot restored but server restart failed",
			"snapshot", name, "error", res.RestartWarning)
	}
	h.writeJSON(w, r, http.StatusOK, toSnapshotOpResponse(res))
}

// operationFailed writes the error for a failed create or restore, keeping
// the parts of res that were already settled.
func (h *Handler) operationFailed(w http.ResponseWriter, r *http.Request, err error, res service.Result) {
	details := &ErrorDetails{
		ServerStatus:   res.ServerStatus.String(),
		SafetySnapshot: res.SafetySnapshot,
	}
	if res.RestartWarning != nil {
		details.RestartWarning = res.RestartWarning.Error()
		logger.L(r.Context()).Warn("server restart failed after failed operation",
			"error", res.RestartWarning)
	}
	if res.SafetySnapshot != "" {
		logger.L(r.Context()).Info("safety snapshot kept after failed restore",
			"snapshot", res.SafetySnapshot)
	}
	h.writeServiceError(w, r, err, details)
}
