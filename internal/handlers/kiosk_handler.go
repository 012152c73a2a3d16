package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"homeheroes/internal/engine"
	"homeheroes/internal/identity"
	"homeheroes/internal/reconcile"
)

// KioskHandler serves the player-facing console: the shared state, the
// live stream, task completion and the point shop.
type KioskHandler struct {
	rec *reconcile.Reconciler
	ids *identity.Service
}

// NewKioskHandler creates a new kiosk handler
func NewKioskHandler(rec *reconcile.Reconciler, ids *identity.Service) *KioskHandler {
	return &KioskHandler{rec: rec, ids: ids}
}

// State returns the current local snapshot and connection status
func (h *KioskHandler) State(w http.ResponseWriter, r *http.Request) {
	status, statusErr := h.rec.Status()
	state, ok := h.rec.Snapshot()
	if !ok {
		respondError(w, http.StatusServiceUnavailable, "Family data not loaded yet", statusErr)
		return
	}
	respondJSON(w, http.StatusOK, newStatePayload(status, state))
}

// Stream pushes the state over server-sent events on every change
func (h *KioskHandler) Stream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		respondError(w, http.StatusInternalServerError, "Streaming unsupported", nil)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	updates := h.rec.Watch(r.Context())
	for state := range updates {
		status, _ := h.rec.Status()
		payload := newStatePayload(status, state)
		fmt.Fprint(w, "data: ")
		if err := writeJSONLine(w, payload); err != nil {
			return
		}
		fmt.Fprint(w, "\n")
		flusher.Flush()
	}
}

// CompleteTask marks a task done for the player (or pending approval)
func (h *KioskHandler) CompleteTask(w http.ResponseWriter, r *http.Request) {
	playerID, taskID, ok := taskPath(w, r)
	if !ok {
		return
	}
	h.dispatch(w, r, engine.CompleteTask{PlayerID: playerID, TaskID: taskID})
}

// UseShield spends a shield to skip a task for half value
func (h *KioskHandler) UseShield(w http.ResponseWriter, r *http.Request) {
	playerID, taskID, ok := taskPath(w, r)
	if !ok {
		return
	}
	h.dispatch(w, r, engine.UseShield{PlayerID: playerID, TaskID: taskID})
}

// BuyDouble purchases a double-points window for the player
func (h *KioskHandler) BuyDouble(w http.ResponseWriter, r *http.Request) {
	playerID, ok := playerPath(w, r)
	if !ok {
		return
	}
	h.dispatch(w, r, engine.BuyDouble{PlayerID: playerID})
}

// BuyShield purchases a shield for the player
func (h *KioskHandler) BuyShield(w http.ResponseWriter, r *http.Request) {
	playerID, ok := playerPath(w, r)
	if !ok {
		return
	}
	h.dispatch(w, r, engine.BuyShield{PlayerID: playerID})
}

func (h *KioskHandler) dispatch(w http.ResponseWriter, r *http.Request, cmd engine.Command) {
	id := IdentityFromContext(r.Context())
	actor := engine.Actor{Label: id.Label, Privileged: h.ids.AllowList().IsPrivileged(id)}
	dispatchAndRespond(w, r, h.rec, cmd, actor)
}

// dispatchAndRespond runs a command through the reconciler and maps the
// result onto the command response contract shared by both consoles.
func dispatchAndRespond(w http.ResponseWriter, r *http.Request, rec *reconcile.Reconciler, cmd engine.Command, actor engine.Actor) {
	outcome, err := rec.Dispatch(r.Context(), cmd, actor)

	switch {
	case err == nil:
		status, _ := rec.Status()
		state, _ := rec.Snapshot()
		payload := newStatePayload(status, state)
		respondJSON(w, http.StatusOK, commandResponse{
			Applied:   true,
			Awarded:   outcome.Awarded,
			Celebrate: outcome.Celebrate,
			State:     &payload,
		})
	case errors.Is(err, engine.ErrNotFound):
		respondJSON(w, http.StatusOK, commandResponse{Reason: "not_found"})
	case errors.Is(err, engine.ErrInsufficientFunds):
		respondJSON(w, http.StatusOK, commandResponse{Reason: "insufficient_funds"})
	case errors.Is(err, engine.ErrInvalidState):
		respondJSON(w, http.StatusOK, commandResponse{Reason: "invalid_state"})
	case errors.Is(err, engine.ErrUnauthorized):
		respondError(w, http.StatusForbidden, "Parent access required", nil)
	case errors.Is(err, reconcile.ErrNotReady):
		respondError(w, http.StatusServiceUnavailable, "Family data not loaded yet", nil)
	default:
		respondError(w, http.StatusBadRequest, "Command rejected", err)
	}
}

func playerPath(w http.ResponseWriter, r *http.Request) (int, bool) {
	playerID, err := strconv.Atoi(r.PathValue("playerId"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid player id", nil)
		return 0, false
	}
	return playerID, true
}

func taskPath(w http.ResponseWriter, r *http.Request) (int, string, bool) {
	playerID, ok := playerPath(w, r)
	if !ok {
		return 0, "", false
	}
	taskID := r.PathValue("taskId")
	if taskID == "" {
		respondError(w, http.StatusBadRequest, "Invalid task id", nil)
		return 0, "", false
	}
	return playerID, taskID, true
}
