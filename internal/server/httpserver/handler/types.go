package handler

import (
	"time"

	"github.com/yndnr/worldsnap-go/internal/core/domain"
	"github.com/yndnr/worldsnap-go/internal/core/service"
)

// Response is the standard API response envelope.
// All JSON responses use this format (except /metrics which uses Prometheus format).
type Response struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id"`
	Timestamp int64  `json:"timestamp"`
	Data      any    `json:"data,omitempty"`
	Details   any    `json:"details,omitempty"`
}

// NewResponse creates a success response.
func NewResponse(requestID string, data any) *Response {
	return &Response{
		Code:      "OK",
		Message:   "Success",
		RequestID: requestID,
		Timestamp: time.Now().UnixMilli(),
		Data:      data,
	}
}

// NewErrorResponse creates an error response.
func NewErrorResponse(requestID, code, message string, details any) *Response {
	return &Response{
		Code:      code,
		Message:   message,
		RequestID: requestID,
		Timestamp: time.Now().UnixMilli(),
		Details:   details,
	}
}

// ErrorDetails accompanies every error response. A failed snapshot
// operation also carries its restart warning and the name of any safety
// snapshot already written.
type ErrorDetails struct {
	ServerStatus   string `json:"server_status"`
	RestartWarning string `json:"restart_warning,omitempty"`
	SafetySnapshot string `json:"safety_snapshot,omitempty"`
}

// SnapshotInfo describes one snapshot.
type SnapshotInfo struct {
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at,omitzero"`
}

func toSnapshotInfo(s domain.Snapshot) SnapshotInfo {
	return SnapshotInfo{Name: s.Name, CreatedAt: s.CreatedAt}
}

// ListSnapshotsResponse is the response body for GET /snapshots.
type ListSnapshotsResponse struct {
	Snapshots    []SnapshotInfo `json:"snapshots"`
	Count        int            `json:"count"`
	ServerStatus string         `json:"server_status"`
}

// CreateSnapshotRequest is the request body for POST /snapshots.
// An empty name derives one from the current time.
type CreateSnapshotRequest struct {
	Name string `json:"name,omitempty"`
}

// SnapshotOpResponse is the response body for create and restore.
type SnapshotOpResponse struct {
	Snapshot       SnapshotInfo `json:"snapshot"`
	SafetySnapshot string       `json:"safety_snapshot,omitempty"`
	ServerStatus   string       `json:"server_status"`
	RestartWarning string       `json:"restart_warning,omitempty"`
}

func toSnapshotOpResponse(res service.Result) SnapshotOpResponse {
	out := SnapshotOpResponse{
		Snapshot:       toSnapshotInfo(res.Snapshot),
		SafetySnapshot: res.SafetySnapshot,
		ServerStatus:   res.ServerStatus.String(),
	}
	if res.RestartWarning != nil {
		out.RestartWarning = res.RestartWarning.Error()
	}
	return out
}

// ServerStatusResponse is the response body for the server endpoints.
type ServerStatusResponse struct {
	ServerStatus string `json:"server_status"`
}

// HealthResponse is the response body for GET /health.
type HealthResponse struct {
	Status        string `json:"status"`
	Time          string `json:"time"`
	UptimeSeconds int64  `json:"uptime_seconds"`
}
