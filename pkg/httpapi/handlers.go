package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"shopassist/pkg/approval"
	"shopassist/pkg/logx"
	"shopassist/pkg/orchestrator"
	"shopassist/pkg/persistence"
)

type chatRequest struct {
	SessionID string `json:"session_id,omitempty"`
	UserID    string `json:"user_id,omitempty"`
	Message   string `json:"message"`
}

type resolveRequest struct {
	Decision string `json:"decision"`
	Verdict  string `json:"verdict,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}

	reply, err := s.orch.Chat(r.Context(), req.SessionID, req.UserID, req.Message)
	if err != nil {
		s.logger.Error("chat failed: %v", err)
		writeError(w, http.StatusInternalServerError, "chat processing failed")
		return
	}
	writeJSON(w, http.StatusOK, reply)
}

func (s *Server) handleChatStream(w http.ResponseWriter, r *http.Request) {
	message := r.URL.Query().Get("message")
	if strings.TrimSpace(message) == "" {
		writeError(w, http.StatusBadRequest, "message query parameter is required")
		return
	}
	sessionID := r.URL.Query().Get("session_id")
	userID := r.URL.Query().Get("user_id")

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	for ev := range s.orch.StreamChat(r.Context(), sessionID, userID, message) {
		payload, err := json.Marshal(ev)
		if err != nil {
			continue
		}
		fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Type, payload)
		flusher.Flush()
		if ev.Type == orchestrator.EventComplete || ev.Type == orchestrator.EventError {
			return
		}
	}
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	sessions, err := s.store.List(r.Context(), userID)
	if err != nil {
		s.logger.Error("session listing failed: %v", err)
		writeError(w, http.StatusInternalServerError, "session listing failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"sessions": sessions})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	sess, err := s.store.Load(r.Context(), r.PathValue("id"))
	if errors.Is(err, persistence.ErrSessionNotFound) {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	if err != nil {
		s.logger.Error("history load failed: %v", err)
		writeError(w, http.StatusInternalServerError, "history load failed")
		return
	}

	turns := sess.RecentTurns(persistence.DefaultHistoryLimit)
	writeJSON(w, http.StatusOK, map[string]any{
		"session_id": sess.ID,
		"user_id":    sess.UserID,
		"turns":      turns,
	})
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	err := s.store.Delete(r.Context(), r.PathValue("id"))
	if errors.Is(err, persistence.ErrSessionNotFound) {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	if err != nil {
		s.logger.Error("session delete failed: %v", err)
		writeError(w, http.StatusInternalServerError, "session delete failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleListApprovals(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	writeJSON(w, http.StatusOK, map[string]any{"approvals": s.approvals.List(status)})
}

func (s *Server) handleResolveApproval(w http.ResponseWriter, r *http.Request) {
	var req resolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	var status string
	switch req.Decision {
	case "approve":
		status = approval.StatusApproved
	case "reject":
		status = approval.StatusRejected
	default:
		writeError(w, http.StatusBadRequest, "decision must be approve or reject")
		return
	}

	resolved, err := s.approvals.Resolve(r.PathValue("id"), status, req.Verdict)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, resolved)
}

func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	scope := r.URL.Query().Get("scope")
	since := time.Now().Add(-15 * time.Minute)
	writeJSON(w, http.StatusOK, map[string]any{"logs": logx.GetRecentLogEntries(scope, since)})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
