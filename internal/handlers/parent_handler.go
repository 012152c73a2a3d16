package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"homeheroes/internal/engine"
	"homeheroes/internal/identity"
	"homeheroes/internal/ledger"
	"homeheroes/internal/models"
	"homeheroes/internal/reconcile"
)

// ParentHandler serves the privileged console: approvals, task management,
// point corrections, boss reset and time simulation. Every route is behind
// RequireAdmin.
type ParentHandler struct {
	rec *reconcile.Reconciler
	ids *identity.Service
}

// NewParentHandler creates a new parent handler
func NewParentHandler(rec *reconcile.Reconciler, ids *identity.Service) *ParentHandler {
	return &ParentHandler{rec: rec, ids: ids}
}

// ApproveTask awards a pending completion
func (h *ParentHandler) ApproveTask(w http.ResponseWriter, r *http.Request) {
	playerID, taskID, ok := taskPath(w, r)
	if !ok {
		return
	}
	h.dispatch(w, r, engine.ApproveTask{PlayerID: playerID, TaskID: taskID})
}

// ResetTask reverts a task to open
func (h *ParentHandler) ResetTask(w http.ResponseWriter, r *http.Request) {
	playerID, taskID, ok := taskPath(w, r)
	if !ok {
		return
	}
	h.dispatch(w, r, engine.ResetTask{PlayerID: playerID, TaskID: taskID})
}

// DeleteTask removes a task entirely
func (h *ParentHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	playerID, taskID, ok := taskPath(w, r)
	if !ok {
		return
	}
	h.dispatch(w, r, engine.DeleteTask{PlayerID: playerID, TaskID: taskID})
}

// AddTask appends a new task to a player's list. Each request mints a fresh
// task id, so a retried request creates a duplicate rather than overwriting.
func (h *ParentHandler) AddTask(w http.ResponseWriter, r *http.Request) {
	var req addTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	task := models.Task{
		ID:        uuid.New().String(),
		Title:     req.Title,
		Value:     req.Value,
		Time:      models.TimePhase(req.Time),
		Status:    models.StatusOpen,
		IsOneTime: req.IsOneTime,
	}
	for _, d := range req.Days {
		task.Days = append(task.Days, models.Weekday(d))
	}

	h.dispatch(w, r, engine.AddTask{PlayerID: req.PlayerID, Task: task})
}

// ManagePoints applies a manual point correction
func (h *ParentHandler) ManagePoints(w http.ResponseWriter, r *http.Request) {
	playerID, ok := playerPath(w, r)
	if !ok {
		return
	}
	var req managePointsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	h.dispatch(w, r, engine.ManagePoints{
		PlayerID: playerID,
		Amount:   req.Amount,
		Mode:     ledger.AdjustMode(req.Mode),
	})
}

// ResetBoss restores the boss pool to full
func (h *ParentHandler) ResetBoss(w http.ResponseWriter, r *http.Request) {
	h.dispatch(w, r, engine.ResetBoss{})
}

// SetTime overrides the document's time phase for simulation
func (h *ParentHandler) SetTime(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Phase string `json:"phase"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	h.dispatch(w, r, engine.SetTime{Phase: models.TimePhase(req.Phase)})
}

// SetDay overrides the document's day for simulation
func (h *ParentHandler) SetDay(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Day string `json:"day"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	h.dispatch(w, r, engine.SetDay{Day: models.Weekday(req.Day)})
}

// SyncRealTime snaps day and phase back to the wall clock
func (h *ParentHandler) SyncRealTime(w http.ResponseWriter, r *http.Request) {
	h.dispatch(w, r, engine.SyncRealTime{})
}

func (h *ParentHandler) dispatch(w http.ResponseWriter, r *http.Request, cmd engine.Command) {
	id := IdentityFromContext(r.Context())
	actor := engine.Actor{Label: id.Label, Privileged: h.ids.AllowList().IsPrivileged(id)}
	dispatchAndRespond(w, r, h.rec, cmd, actor)
}
