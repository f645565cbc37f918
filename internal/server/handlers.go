package server

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/a7medmo7amady/trello/internal/models"
	"github.com/a7medmo7amady/trello/internal/remote"
)

// apiError is the standard error response body.
type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Debug("encode response", "err", err)
	}
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, apiError{Code: code, Message: message})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleGetSnapshot(w http.ResponseWriter, r *http.Request) {
	snap, err := s.db.Snapshot()
	if err != nil {
		slog.Error("read snapshot", "err", err)
		writeError(w, http.StatusInternalServerError, "snapshot_failed", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handlePutSnapshot(w http.ResponseWriter, r *http.Request) {
	var snap models.Snapshot
	if err := json.NewDecoder(r.Body).Decode(&snap); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid snapshot body")
		return
	}
	if err := s.db.ReplaceSnapshot(snap); err != nil {
		slog.Error("replace snapshot", "err", err)
		writeError(w, http.StatusInternalServerError, "snapshot_failed", err.Error())
		return
	}
	s.hub.Broadcast(ChangeNotice{Kind: "snapshot"})
	w.WriteHeader(http.StatusNoContent)
}

// pushRequest mirrors the client's POST /v1/board/changes body.
type pushRequest struct {
	Changes []models.SyncQueueEntry `json:"changes"`
}

func (s *Server) handlePushChanges(w http.ResponseWriter, r *http.Request) {
	var req pushRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid changes body")
		return
	}

	results, err := s.db.ApplyChanges(req.Changes)
	if err != nil {
		slog.Error("apply changes", "err", err)
		writeError(w, http.StatusInternalServerError, "apply_failed", err.Error())
		return
	}

	snap, err := s.db.Snapshot()
	if err != nil {
		slog.Error("read snapshot", "err", err)
		writeError(w, http.StatusInternalServerError, "snapshot_failed", err.Error())
		return
	}

	for i, res := range results {
		if res.Success {
			s.hub.Broadcast(ChangeNotice{
				Kind:     "change",
				ChangeID: res.ChangeID,
				Type:     string(req.Changes[i].Type),
			})
		}
	}

	writeJSON(w, http.StatusOK, remote.PushResult{Results: results, Snapshot: snap})
}
