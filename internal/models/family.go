package models

// Weekday identifies a day of the week in the shared family document
type Weekday string

const (
	Sunday    Weekday = "sunday"
	Monday    Weekday = "monday"
	Tuesday   Weekday = "tuesday"
	Wednesday Weekday = "wednesday"
	Thursday  Weekday = "thursday"
	Friday    Weekday = "friday"
	Saturday  Weekday = "saturday"
)

// AllWeekdays lists the weekdays in document order (week starts on Sunday)
var AllWeekdays = []Weekday{Sunday, Monday, Tuesday, Wednesday, Thursday, Friday, Saturday}

// IsValid checks that the weekday is one of the known values
func (d Weekday) IsValid() bool {
	for _, day := range AllWeekdays {
		if d == day {
			return true
		}
	}
	return false
}

// TimePhase identifies the part of the day a task belongs to
type TimePhase string

const (
	Morning TimePhase = "morning"
	Noon    TimePhase = "noon"
	Evening TimePhase = "evening"
)

// IsValid checks that the phase is one of the known values
func (p TimePhase) IsValid() bool {
	return p == Morning || p == Noon || p == Evening
}

// FamilyState is the single shared document describing the whole family game.
// It is read and written wholesale; there is no field-level merging.
type FamilyState struct {
	FamilyGoal       int       `json:"familyGoal"`
	BossHP           int       `json:"bossHP"`
	MaxBossHP        int       `json:"maxBossHP"`
	CurrentDay       Weekday   `json:"currentDay"`
	CurrentTimePhase TimePhase `json:"currentTimePhase"`
	Players          []Player  `json:"players"`
}

// Player returns a pointer to the player with the given id, or nil
func (s *FamilyState) Player(id int) *Player {
	for i := range s.Players {
		if s.Players[i].ID == id {
			return &s.Players[i]
		}
	}
	return nil
}

// TotalPoints sums the current (spendable) points of all players.
// The family goal is met when this reaches FamilyGoal.
func (s *FamilyState) TotalPoints() int {
	total := 0
	for i := range s.Players {
		total += s.Players[i].Points
	}
	return total
}

// BossDefeated reports whether the shared boss pool is exhausted
func (s *FamilyState) BossDefeated() bool {
	return s.BossHP <= 0
}

// Clone returns a deep copy of the state. All mutation goes through the
// command processor, which clones first so that snapshots already handed
// out are never changed underneath their holders.
func (s FamilyState) Clone() FamilyState {
	clone := s
	clone.Players = make([]Player, len(s.Players))
	for i, p := range s.Players {
		clone.Players[i] = p.clone()
	}
	return clone
}
