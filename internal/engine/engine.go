// Package engine is the single entry point for mutating the shared family
// document. It validates a command against the current snapshot, applies the
// ledger and task-lifecycle rules, and returns a new snapshot. The input
// snapshot is never mutated, so callers still holding the old one are safe.
package engine

import (
	"errors"
	"fmt"
	"time"

	"homeheroes/internal/clock"
	"homeheroes/internal/ledger"
	"homeheroes/internal/models"
)

var (
	// ErrNotFound means the command referenced a player or task id that is
	// not in the snapshot. Consoles treat it as a silent no-op.
	ErrNotFound = errors.New("player or task not found")
	// ErrInsufficientFunds means a purchase or shield use could not be paid
	// for. Consoles treat it as a silent no-op.
	ErrInsufficientFunds = errors.New("not enough points or shields")
	// ErrUnauthorized means an unprivileged actor issued a parent command
	ErrUnauthorized = errors.New("command requires a privileged actor")
	// ErrInvalidState means the task is not in a state the command allows
	ErrInvalidState = errors.New("task state does not allow this command")
)

// Outcome describes side effects the consoles care about beyond the new
// snapshot itself.
type Outcome struct {
	// Awarded is the number of points credited by this command, if any
	Awarded int
	// Celebrate is set when a toddler completion auto-approved, so the
	// kiosk can throw confetti
	Celebrate bool
	// Pending is set when a completion landed in pending approval and a
	// parent should be told
	Pending *PendingApproval
}

// PendingApproval identifies a completion waiting for a parent
type PendingApproval struct {
	PlayerName string
	TaskTitle  string
	TaskValue  int
}

// Apply validates cmd against the snapshot and returns the next snapshot.
// On any error the returned state is the input, unchanged: every rejected
// command is a no-op. now feeds the double-points check and real-time sync.
func Apply(state models.FamilyState, cmd Command, actor Actor, now time.Time) (models.FamilyState, Outcome, error) {
	if cmd.RequiresPrivilege() && !actor.Privileged {
		return state, Outcome{}, ErrUnauthorized
	}

	next := state.Clone()

	switch c := cmd.(type) {
	case CompleteTask:
		outcome, err := completeTask(&next, c, now)
		if err != nil {
			return state, Outcome{}, err
		}
		return next, outcome, nil

	case ApproveTask:
		outcome, err := approveTask(&next, c, now)
		if err != nil {
			return state, Outcome{}, err
		}
		return next, outcome, nil

	case ResetTask:
		player := next.Player(c.PlayerID)
		if player == nil {
			return state, Outcome{}, ErrNotFound
		}
		task := player.Task(c.TaskID)
		if task == nil {
			return state, Outcome{}, ErrNotFound
		}
		task.Status = models.StatusOpen
		return next, Outcome{}, nil

	case DeleteTask:
		player := next.Player(c.PlayerID)
		if player == nil {
			return state, Outcome{}, ErrNotFound
		}
		if !player.RemoveTask(c.TaskID) {
			return state, Outcome{}, ErrNotFound
		}
		return next, Outcome{}, nil

	case AddTask:
		player := next.Player(c.PlayerID)
		if player == nil {
			return state, Outcome{}, ErrNotFound
		}
		task := c.Task
		if task.Status == "" {
			task.Status = models.StatusOpen
		}
		if err := task.Validate(); err != nil {
			return state, Outcome{}, fmt.Errorf("add_task: %w", err)
		}
		player.Tasks = append(player.Tasks, task)
		return next, Outcome{}, nil

	case UseShield:
		outcome, err := useShield(&next, c)
		if err != nil {
			return state, Outcome{}, err
		}
		return next, outcome, nil

	case BuyDouble:
		player := next.Player(c.PlayerID)
		if player == nil {
			return state, Outcome{}, ErrNotFound
		}
		if !ledger.PurchaseDouble(player, now) {
			return state, Outcome{}, ErrInsufficientFunds
		}
		return next, Outcome{}, nil

	case BuyShield:
		player := next.Player(c.PlayerID)
		if player == nil {
			return state, Outcome{}, ErrNotFound
		}
		if !ledger.PurchaseShield(player) {
			return state, Outcome{}, ErrInsufficientFunds
		}
		return next, Outcome{}, nil

	case ManagePoints:
		player := next.Player(c.PlayerID)
		if player == nil {
			return state, Outcome{}, ErrNotFound
		}
		if !c.Mode.IsValid() {
			return state, Outcome{}, fmt.Errorf("manage_points: unknown mode %q", c.Mode)
		}
		ledger.ManualAdjust(player, c.Amount, c.Mode)
		return next, Outcome{}, nil

	case ResetBoss:
		next.BossHP = next.MaxBossHP
		return next, Outcome{}, nil

	case SetTime:
		if !c.Phase.IsValid() {
			return state, Outcome{}, fmt.Errorf("set_time: unknown phase %q", c.Phase)
		}
		next.CurrentTimePhase = c.Phase
		return next, Outcome{}, nil

	case SetDay:
		if !c.Day.IsValid() {
			return state, Outcome{}, fmt.Errorf("set_day: unknown day %q", c.Day)
		}
		next.CurrentDay = c.Day
		return next, Outcome{}, nil

	case SyncRealTime:
		next.CurrentDay, next.CurrentTimePhase = clock.Resolve(now)
		return next, Outcome{}, nil

	default:
		return state, Outcome{}, fmt.Errorf("unhandled command %q", cmd.Kind())
	}
}

// applyDamage takes points off the shared boss pool, clamped at zero.
// Every point award, by any player, lands here.
func applyDamage(state *models.FamilyState, points int) {
	state.BossHP -= points
	if state.BossHP < 0 {
		state.BossHP = 0
	}
}

func completeTask(state *models.FamilyState, c CompleteTask, now time.Time) (Outcome, error) {
	player := state.Player(c.PlayerID)
	if player == nil {
		return Outcome{}, ErrNotFound
	}
	task := player.Task(c.TaskID)
	if task == nil {
		return Outcome{}, ErrNotFound
	}
	if task.Status != models.StatusOpen {
		return Outcome{}, ErrInvalidState
	}
	if !task.IsVisible(state.CurrentDay, state.CurrentTimePhase) {
		return Outcome{}, ErrInvalidState
	}

	if player.AgeGroup == models.AgeToddler {
		points := ledger.EffectiveValue(player, task, now)
		ledger.Award(player, points)
		applyDamage(state, points)
		if task.IsOneTime {
			player.RemoveTask(task.ID)
		} else {
			task.Status = models.StatusDone
		}
		return Outcome{Awarded: points, Celebrate: true}, nil
	}

	// everyone else waits for a parent; no points move yet
	task.Status = models.StatusPendingApproval
	return Outcome{Pending: &PendingApproval{
		PlayerName: player.Name,
		TaskTitle:  task.Title,
		TaskValue:  task.Value,
	}}, nil
}

func approveTask(state *models.FamilyState, c ApproveTask, now time.Time) (Outcome, error) {
	player := state.Player(c.PlayerID)
	if player == nil {
		return Outcome{}, ErrNotFound
	}
	task := player.Task(c.TaskID)
	if task == nil {
		return Outcome{}, ErrNotFound
	}
	if task.Status != models.StatusPendingApproval {
		return Outcome{}, ErrInvalidState
	}

	points := ledger.EffectiveValue(player, task, now)
	ledger.Award(player, points)
	applyDamage(state, points)
	if task.IsOneTime {
		player.RemoveTask(task.ID)
	} else {
		task.Status = models.StatusDone
	}
	return Outcome{Awarded: points}, nil
}

func useShield(state *models.FamilyState, c UseShield) (Outcome, error) {
	player := state.Player(c.PlayerID)
	if player == nil {
		return Outcome{}, ErrNotFound
	}
	task := player.Task(c.TaskID)
	if task == nil {
		return Outcome{}, ErrNotFound
	}
	if task.Status != models.StatusOpen {
		return Outcome{}, ErrInvalidState
	}
	if player.Inventory.Shields <= 0 {
		return Outcome{}, ErrInsufficientFunds
	}

	player.Inventory.Shields--
	// shield payouts use half the base value and are never doubled
	points := task.Value / 2
	ledger.Award(player, points)
	applyDamage(state, points)
	task.Status = models.StatusSkipped
	return Outcome{Awarded: points}, nil
}
