package engine

import (
	"homeheroes/internal/ledger"
	"homeheroes/internal/models"
)

// Actor identifies who is issuing a command. Privilege is advisory: it is
// derived from the identity allowlist by the console, not enforced by the
// store.
type Actor struct {
	Label      string
	Privileged bool
}

// Command is the closed set of intents the processor accepts. Each variant
// maps to one row of the command table; the compiler keeps the dispatch
// exhaustive, so an unknown command cannot silently no-op.
type Command interface {
	// Kind names the command for logging
	Kind() string
	// RequiresPrivilege reports whether only a parent console may issue it
	RequiresPrivilege() bool
}

// CompleteTask marks an open, visible task as finished. Toddlers are awarded
// immediately; everyone else lands in pending approval.
type CompleteTask struct {
	PlayerID int
	TaskID   string
}

// ApproveTask awards a pending completion (parent only)
type ApproveTask struct {
	PlayerID int
	TaskID   string
}

// ResetTask reverts a task to open regardless of its state (parent only)
type ResetTask struct {
	PlayerID int
	TaskID   string
}

// DeleteTask removes a task entirely, in any state (parent only)
type DeleteTask struct {
	PlayerID int
	TaskID   string
}

// AddTask appends a new open task to a player's list (parent only).
// Retrying an add creates a duplicate; callers must mint a fresh task id
// per logical add.
type AddTask struct {
	PlayerID int
	Task     models.Task
}

// UseShield spends a shield to skip an open task for half its base value
type UseShield struct {
	PlayerID int
	TaskID   string
}

// BuyDouble purchases a one-hour double-points window
type BuyDouble struct {
	PlayerID int
}

// BuyShield purchases one skip shield
type BuyShield struct {
	PlayerID int
}

// ManagePoints applies a manual point correction (parent only)
type ManagePoints struct {
	PlayerID int
	Amount   int
	Mode     ledger.AdjustMode
}

// ResetBoss restores the boss pool to full (parent only)
type ResetBoss struct{}

// SetTime overrides the document's time phase for simulation (parent only).
// The periodic real-time resync will overwrite this within one period.
type SetTime struct {
	Phase models.TimePhase
}

// SetDay overrides the document's day for simulation (parent only).
// The periodic real-time resync will overwrite this within one period.
type SetDay struct {
	Day models.Weekday
}

// SyncRealTime re-derives day and phase from the wall clock (parent only;
// also issued by the reconciler's drift check)
type SyncRealTime struct{}

func (CompleteTask) Kind() string { return "complete_task" }
func (ApproveTask) Kind() string  { return "approve_task" }
func (ResetTask) Kind() string    { return "reset_task" }
func (DeleteTask) Kind() string   { return "delete_task" }
func (AddTask) Kind() string      { return "add_task" }
func (UseShield) Kind() string    { return "use_shield" }
func (BuyDouble) Kind() string    { return "buy_double" }
func (BuyShield) Kind() string    { return "buy_shield" }
func (ManagePoints) Kind() string { return "manage_points" }
func (ResetBoss) Kind() string    { return "reset_boss" }
func (SetTime) Kind() string      { return "set_time" }
func (SetDay) Kind() string       { return "set_day" }
func (SyncRealTime) Kind() string { return "sync_real_time" }

func (CompleteTask) RequiresPrivilege() bool { return false }
func (ApproveTask) RequiresPrivilege() bool  { return true }
func (ResetTask) RequiresPrivilege() bool    { return true }
func (DeleteTask) RequiresPrivilege() bool   { return true }
func (AddTask) RequiresPrivilege() bool      { return true }
func (UseShield) RequiresPrivilege() bool    { return false }
func (BuyDouble) RequiresPrivilege() bool    { return false }
func (BuyShield) RequiresPrivilege() bool    { return false }
func (ManagePoints) RequiresPrivilege() bool { return true }
func (ResetBoss) RequiresPrivilege() bool    { return true }
func (SetTime) RequiresPrivilege() bool      { return true }
func (SetDay) RequiresPrivilege() bool       { return true }
func (SyncRealTime) RequiresPrivilege() bool { return true }
