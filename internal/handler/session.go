package handler

import (
	"net/http"

	"github.com/efreitasn/matchd/internal/session"
)

// SessionLister reports the connected sessions.
type SessionLister interface {
	Sessions() []session.Info
}

// SessionHandler serves the list of connected clients.
type SessionHandler struct {
	sessions SessionLister
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(sessions SessionLister) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

type sessionsResponse struct {
	Count    int            `json:"count"`
	Sessions []session.Info `json:"sessions"`
}

// ListSessions handles GET /sessions.
func (h *SessionHandler) ListSessions(w http.ResponseWriter, r *http.Request) {
	infos := h.sessions.Sessions()
	WriteJSON(w, http.StatusOK, sessionsResponse{Count: len(infos), Sessions: emptyIfNil(infos)})
}
