// Package clock derives the family document's (day, phase) pair from wall
// time. Scheduled tasks become visible and invisible purely through this
// derivation; nothing else in the system looks at the real clock.
package clock

import (
	"time"

	"homeheroes/internal/models"
)

// Clock abstracts time so the reconciler and engine are deterministic in tests
type Clock interface {
	Now() time.Time
}

// SystemClock reads the real wall clock
type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now()
}

// Resolve maps an instant to the weekday and time phase it falls in.
// Phases: [06:00,12:00) morning, [12:00,17:00) noon, everything else evening
// (late night hours before 06:00 still count as evening).
func Resolve(now time.Time) (models.Weekday, models.TimePhase) {
	day := models.AllWeekdays[int(now.Weekday())]

	phase := models.Evening
	hour := now.Hour()
	switch {
	case hour >= 6 && hour < 12:
		phase = models.Morning
	case hour >= 12 && hour < 17:
		phase = models.Noon
	}
	return day, phase
}
