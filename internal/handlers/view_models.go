package handlers

import (
	"homeheroes/internal/models"
	"homeheroes/internal/reconcile"
)

// statePayload is what both consoles render from: the raw document plus the
// derived progress numbers and the reconciler's connection status.
type statePayload struct {
	Status       reconcile.Status   `json:"status"`
	Family       models.FamilyState `json:"family"`
	TotalPoints  int                `json:"totalPoints"`
	GoalReached  bool               `json:"goalReached"`
	BossDefeated bool               `json:"bossDefeated"`
}

func newStatePayload(status reconcile.Status, state models.FamilyState) statePayload {
	return statePayload{
		Status:       status,
		Family:       state,
		TotalPoints:  state.TotalPoints(),
		GoalReached:  state.TotalPoints() >= state.FamilyGoal,
		BossDefeated: state.BossDefeated(),
	}
}

// commandResponse reports the result of a dispatched command. Rejections
// (unknown ids, insufficient funds, wrong task state) come back as
// applied=false with a reason, not as HTTP errors: the consoles treat them
// as quiet no-ops.
type commandResponse struct {
	Applied   bool          `json:"applied"`
	Reason    string        `json:"reason,omitempty"`
	Awarded   int           `json:"awarded,omitempty"`
	Celebrate bool          `json:"celebrate,omitempty"`
	State     *statePayload `json:"state,omitempty"`
}

// addTaskRequest is the parent console's new-task form
type addTaskRequest struct {
	PlayerID  int      `json:"playerId"`
	Title     string   `json:"title"`
	Value     int      `json:"value"`
	Time      string   `json:"time"`
	Days      []string `json:"days"`
	IsOneTime bool     `json:"isOneTime"`
}

// managePointsRequest is the parent console's point correction form
type managePointsRequest struct {
	Amount int    `json:"amount"`
	Mode   string `json:"mode"`
}
