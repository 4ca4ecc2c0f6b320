// Package httpapi serves the blackjack action envelope and the read routes
// around it over HTTP/JSON.
package httpapi

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"casino-lite/apps/server/internal/auth"
	"casino-lite/apps/server/internal/game"
)

const (
	sessionsPrefix = "/game/blackjack/sessions/"
	tapePrefix     = "/api/blackjack/sessions/"
	maxBodyBytes   = 1 << 16
)

type HTTPHandler struct {
	auth auth.Service
	game *game.Service
}

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

func NewHTTPHandler(authService auth.Service, gameService *game.Service) *HTTPHandler {
	return &HTTPHandler{
		auth: authService,
		game: gameService,
	}
}

func (h *HTTPHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/game/blackjack", h.handleAction)
	mux.HandleFunc(sessionsPrefix, h.handleSession)
	mux.HandleFunc("/api/blackjack/history", h.handleHistory)
	mux.HandleFunc(tapePrefix, h.handleEvents)
	mux.HandleFunc("/api/points/balance", h.handleBalance)
}

func (h *HTTPHandler) handleAction(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	userID, ok := h.resolveUserID(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid session token")
		return
	}

	var req game.Request
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	out, err := h.game.Apply(ctx, userID, req)
	if err != nil {
		writeGameError(w, "action "+req.Action, err)
		return
	}
	writeJSON(w, http.StatusOK, out.Body())
}

func (h *HTTPHandler) handleSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	userID, ok := h.resolveUserID(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid session token")
		return
	}
	sessionID := strings.TrimSpace(strings.TrimPrefix(r.URL.Path, sessionsPrefix))
	if sessionID == "" || strings.Contains(sessionID, "/") {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	out, err := h.game.Get(ctx, userID, sessionID)
	if err != nil {
		writeGameError(w, "get session", err)
		return
	}
	writeJSON(w, http.StatusOK, out.Body())
}

func (h *HTTPHandler) handleHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	userID, ok := h.resolveUserID(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid session token")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	items, err := h.game.History(ctx, userID, parseLimit(r.URL.Query().Get("limit")))
	if err != nil {
		writeGameError(w, "history", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"items": items,
	})
}

func (h *HTTPHandler) handleEvents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	userID, ok := h.resolveUserID(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid session token")
		return
	}
	parts := strings.Split(strings.TrimPrefix(r.URL.Path, tapePrefix), "/")
	if len(parts) != 2 || parts[1] != "events" || strings.TrimSpace(parts[0]) == "" {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	sessionID := strings.TrimSpace(parts[0])

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	events, err := h.game.Events(ctx, userID, sessionID)
	if err != nil {
		writeGameError(w, "session events", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"session_id": sessionID,
		"events":     events,
	})
}

func (h *HTTPHandler) handleBalance(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	userID, ok := h.resolveUserID(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid session token")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	balance, err := h.game.Balance(ctx, userID)
	if err != nil {
		writeGameError(w, "balance", err)
		return
	}
	entries, err := h.game.Journal(ctx, userID, parseLimit(r.URL.Query().Get("limit")))
	if err != nil {
		writeGameError(w, "journal", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"points":  balance,
		"entries": entries,
	})
}

func (h *HTTPHandler) resolveUserID(r *http.Request) (uint64, bool) {
	userID, _, ok := auth.Authenticate(h.auth, r)
	return userID, ok
}

// StatusFor maps game errors onto HTTP status codes. Every request-caused
// failure is a 400.
func StatusFor(err error) int {
	if game.IsClientError(err) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func writeGameError(w http.ResponseWriter, op string, err error) {
	status := StatusFor(err)
	if status == http.StatusInternalServerError {
		log.Printf("[HTTP] %s failed: err=%v", op, err)
		writeJSON(w, status, errorResponse{Error: "internal error", Kind: game.KindInternal})
		return
	}
	writeJSON(w, status, errorResponse{Error: game.PublicMessage(err), Kind: game.ErrorKind(err)})
}

func parseLimit(raw string) int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0
	}
	if n > 100 {
		return 100
	}
	return n
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
