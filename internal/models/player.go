package models

import (
	"errors"
	"time"
)

// AgeGroup controls whether a player's completions need parent approval
type AgeGroup string

const (
	// AgeToddler players auto-approve their own completions
	AgeToddler AgeGroup = "toddler"
	// AgeBig players need a parent to approve before points are awarded
	AgeBig AgeGroup = "big"
)

// IsValid checks that the age group is one of the known values
func (a AgeGroup) IsValid() bool {
	return a == AgeToddler || a == AgeBig
}

// Inventory holds a player's consumables
type Inventory struct {
	Shields int `json:"shields"`
}

// ActiveEffects holds a player's timed modifiers
type ActiveEffects struct {
	// DoublePointsUntil is an epoch-millisecond expiry; zero or past means
	// no active window. Buying while active replaces the expiry, it never
	// stacks.
	DoublePointsUntil int64 `json:"doublePointsUntil"`
}

// DoubleActiveAt reports whether the double-points window covers the given
// instant. The exact expiry instant counts as expired.
func (e ActiveEffects) DoubleActiveAt(now time.Time) bool {
	return e.DoublePointsUntil > now.UnixMilli()
}

// Player is one tracked household member with a point balance and task list
type Player struct {
	ID             int           `json:"id"`
	Name           string        `json:"name"`
	AgeGroup       AgeGroup      `json:"ageGroup"`
	Points         int           `json:"points"`
	LifetimePoints int           `json:"lifetimePoints"`
	Inventory      Inventory     `json:"inventory"`
	ActiveEffects  ActiveEffects `json:"activeEffects"`
	Tasks          []Task        `json:"tasks"`
}

// Task returns a pointer to the task with the given id, or nil
func (p *Player) Task(id string) *Task {
	for i := range p.Tasks {
		if p.Tasks[i].ID == id {
			return &p.Tasks[i]
		}
	}
	return nil
}

// RemoveTask deletes the task with the given id from the player's list.
// It reports whether a task was removed.
func (p *Player) RemoveTask(id string) bool {
	for i := range p.Tasks {
		if p.Tasks[i].ID == id {
			p.Tasks = append(p.Tasks[:i], p.Tasks[i+1:]...)
			return true
		}
	}
	return false
}

// Level derives the player's display level from lifetime points
func (p *Player) Level() int {
	return p.LifetimePoints / 100
}

// Validate checks the player's invariants
func (p *Player) Validate() error {
	if p.Name == "" {
		return errors.New("player name is required")
	}
	if !p.AgeGroup.IsValid() {
		return errors.New("player age group is invalid")
	}
	if p.Points < 0 {
		return errors.New("player points must not be negative")
	}
	if p.LifetimePoints < 0 {
		return errors.New("player lifetime points must not be negative")
	}
	if p.Inventory.Shields < 0 {
		return errors.New("player shield count must not be negative")
	}
	for i := range p.Tasks {
		if err := p.Tasks[i].Validate(); err != nil {
			return err
		}
	}
	return nil
}

func (p Player) clone() Player {
	clone := p
	clone.Tasks = make([]Task, len(p.Tasks))
	for i, t := range p.Tasks {
		clone.Tasks[i] = t.clone()
	}
	return clone
}
