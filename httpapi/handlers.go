package httpapi

import (
	"net/http"
	"time"

	"github.com/samber/lo"

	"chat-relay/domain"
	"chat-relay/repositories"
	"chat-relay/ws"
)

// handleChat is the websocket entry point. The room and the display
// identity come from the two path segments; no further negotiation
// happens. The handler goroutine runs the broadcaster loop for the whole
// session lifetime.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	room := r.PathValue("room")
	identity := r.PathValue("identity")

	session := ws.NewSession(s.log, w, r, s.sendTimeout)
	if err := s.broadcaster.Run(session, room, identity); err != nil {
		// Handshake refusals end up here; the upgrader has already
		// written its response.
		s.log.Warn("session aborted", "room", room, "identity", identity, "error", err)
	}
}

type messageResponse struct {
	ID        string    `json:"id"`
	Room      string    `json:"room"`
	User      string    `json:"user"`
	Kind      string    `json:"kind"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

func toMessageResponse(records []domain.Record) []messageResponse {
	return lo.Map(records, func(item domain.Record, _ int) messageResponse {
		return messageResponse{
			ID:        item.ID.String(),
			Room:      item.Room,
			User:      item.User,
			Kind:      string(item.Kind),
			Message:   item.Body,
			Timestamp: item.At,
		}
	})
}

// handleSearch matches free text against one room's logged messages.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	room := r.URL.Query().Get("room")
	query := r.URL.Query().Get("query")
	if room == "" || query == "" {
		writeError(w, http.StatusBadRequest, "room and query are required")
		return
	}

	records, total, err := s.chat.Search(r.Context(), room, query)
	if err != nil {
		s.log.Error("search failed", "room", room, "error", err)
		writeError(w, http.StatusInternalServerError, "search failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"total":   total,
		"results": toMessageResponse(records),
	})
}

// handleRoomLog returns the room's records oldest first, capped at the
// default query limit.
func (s *Server) handleRoomLog(w http.ResponseWriter, r *http.Request) {
	room := r.PathValue("room")

	records, err := s.chat.RoomLog(r.Context(), room, repositories.DefaultQueryLimit)
	if err != nil {
		s.log.Error("room log read failed", "room", room, "error", err)
		writeError(w, http.StatusInternalServerError, "log read failed")
		return
	}
	writeJSON(w, http.StatusOK, toMessageResponse(records))
}

// handleHistory pages through the room's durable history, newest first.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	room := r.PathValue("room")

	var cursor *string
	if c := r.URL.Query().Get("cursor"); c != "" {
		cursor = &c
	}

	records, next, err := s.chat.History(room, cursor)
	if err != nil {
		s.log.Error("history read failed", "room", room, "error", err)
		writeError(w, http.StatusInternalServerError, "history read failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"messages": toMessageResponse(records),
		"cursor":   next,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"rooms":  s.registry.Rooms(),
	})
}
