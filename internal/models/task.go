package models

import "errors"

// TaskStatus tracks where a task is in its lifecycle
type TaskStatus string

const (
	StatusOpen            TaskStatus = "open"
	StatusPendingApproval TaskStatus = "pending_approval"
	StatusDone            TaskStatus = "done"
	StatusSkipped         TaskStatus = "skipped"
)

// IsValid checks that the status is one of the known values
func (s TaskStatus) IsValid() bool {
	switch s {
	case StatusOpen, StatusPendingApproval, StatusDone, StatusSkipped:
		return true
	}
	return false
}

// Task is a unit of work with a point value and a day/phase visibility window
type Task struct {
	ID     string     `json:"id"`
	Title  string     `json:"title"`
	Value  int        `json:"value"`
	Time   TimePhase  `json:"time"`
	Days   []Weekday  `json:"days"`
	Status TaskStatus `json:"status"`
	// IsOneTime tasks are removed from the player's list on approval
	// instead of being marked done
	IsOneTime bool `json:"isOneTime"`
}

// IsVisible reports whether the task should be shown on the kiosk for the
// given day and phase. Finished and skipped tasks are never visible.
func (t *Task) IsVisible(day Weekday, phase TimePhase) bool {
	if t.Status == StatusDone || t.Status == StatusSkipped {
		return false
	}
	if t.Time != phase {
		return false
	}
	for _, d := range t.Days {
		if d == day {
			return true
		}
	}
	return false
}

// Validate checks the task's invariants
func (t *Task) Validate() error {
	if t.ID == "" {
		return errors.New("task id is required")
	}
	if t.Title == "" {
		return errors.New("task title is required")
	}
	if t.Value <= 0 {
		return errors.New("task value must be positive")
	}
	if !t.Time.IsValid() {
		return errors.New("task time phase is invalid")
	}
	if len(t.Days) == 0 {
		return errors.New("task needs at least one day")
	}
	for _, d := range t.Days {
		if !d.IsValid() {
			return errors.New("task day is invalid")
		}
	}
	if t.Status == "" {
		return errors.New("task status is required")
	}
	if !t.Status.IsValid() {
		return errors.New("task status is invalid")
	}
	return nil
}

func (t Task) clone() Task {
	clone := t
	clone.Days = append([]Weekday(nil), t.Days...)
	return clone
}
