// Package httpapi exposes the relay over HTTP: the websocket entry point,
// the read side of the chat log, and the account API.
package httpapi

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"chat-relay/auth"
	"chat-relay/runtime"
	"chat-relay/services"
)

type Server struct {
	log         *slog.Logger
	broadcaster *runtime.Broadcaster
	registry    *runtime.Registry
	chat        services.IChatService
	auths       services.IAuthService
	users       services.IUserService
	issuer      auth.TokenIssuer
	sendTimeout time.Duration
}

func New(log *slog.Logger, broadcaster *runtime.Broadcaster, registry *runtime.Registry,
	chat services.IChatService, auths services.IAuthService, users services.IUserService,
	issuer auth.TokenIssuer, sendTimeout time.Duration) *Server {
	return &Server{
		log:         log,
		broadcaster: broadcaster,
		registry:    registry,
		chat:        chat,
		auths:       auths,
		users:       users,
		issuer:      issuer,
		sendTimeout: sendTimeout,
	}
}

func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /ws/chat/{room}/{identity}", s.handleChat)

	mux.HandleFunc("GET /api/v1/search", s.handleSearch)
	mux.HandleFunc("GET /api/v1/chat/rooms/{room}/log", s.handleRoomLog)
	mux.HandleFunc("GET /api/v1/chat/rooms/{room}/messages", s.handleHistory)

	mux.HandleFunc("POST /api/v1/auth/register", s.handleRegister)
	mux.HandleFunc("POST /api/v1/auth/login", s.handleLogin)

	mux.Handle("GET /api/v1/users", s.requireAuth(s.handleListUsers))
	mux.Handle("GET /api/v1/users/me", s.requireAuth(s.handleCurrentUser))
	mux.Handle("GET /api/v1/users/{id}", s.requireAuth(s.handleGetUser))
	mux.Handle("PUT /api/v1/users/{id}", s.requireAuth(s.handleUpdateUser))
	mux.Handle("DELETE /api/v1/users/{id}", s.requireAuth(s.handleDeleteUser))

	return corsMiddleware(mux)
}

type contextKey string

const claimsKey contextKey = "claims"

// requireAuth validates the bearer token and stores its claims in the
// request context. The websocket path is intentionally not behind this:
// room access carries no authorization.
func (s *Server) requireAuth(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, found := strings.CutPrefix(header, "Bearer ")
		if !found || token == "" {
			writeError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		claims, err := s.issuer.Validate(token)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}
		next.ServeHTTP(w, r.WithContext(
			context.WithValue(r.Context(), claimsKey, claims)))
	})
}

func claimsFrom(r *http.Request) *auth.CustomClaims {
	claims, _ := r.Context().Value(claimsKey).(*auth.CustomClaims)
	return claims
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
