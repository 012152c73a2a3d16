package config

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"homeheroes/internal/models"
)

// seedFile is the YAML shape of a family seed document. Task ids are minted
// at load time; day and phase are filled in from the clock by the caller.
type seedFile struct {
	FamilyGoal int          `yaml:"familyGoal"`
	MaxBossHP  int          `yaml:"maxBossHP"`
	Players    []seedPlayer `yaml:"players"`
}

type seedPlayer struct {
	ID       int        `yaml:"id"`
	Name     string     `yaml:"name"`
	AgeGroup string     `yaml:"ageGroup"`
	Points   int        `yaml:"points"`
	Shields  int        `yaml:"shields"`
	Tasks    []seedTask `yaml:"tasks"`
}

type seedTask struct {
	Title   string   `yaml:"title"`
	Value   int      `yaml:"value"`
	Time    string   `yaml:"time"`
	Days    []string `yaml:"days"`
	OneTime bool     `yaml:"oneTime"`
}

// LoadSeed reads a family seed file, or returns the built-in default family
// when path is empty.
func LoadSeed(path string) (models.FamilyState, error) {
	if path == "" {
		return DefaultSeed(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return models.FamilyState{}, fmt.Errorf("failed to read seed file: %w", err)
	}

	var seed seedFile
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return models.FamilyState{}, fmt.Errorf("failed to parse seed file: %w", err)
	}

	state := models.FamilyState{
		FamilyGoal: seed.FamilyGoal,
		BossHP:     seed.MaxBossHP,
		MaxBossHP:  seed.MaxBossHP,
	}
	for _, sp := range seed.Players {
		player := models.Player{
			ID:        sp.ID,
			Name:      sp.Name,
			AgeGroup:  models.AgeGroup(sp.AgeGroup),
			Points:    sp.Points,
			Inventory: models.Inventory{Shields: sp.Shields},
		}
		for _, st := range sp.Tasks {
			task := models.Task{
				ID:        uuid.New().String(),
				Title:     st.Title,
				Value:     st.Value,
				Time:      models.TimePhase(st.Time),
				Status:    models.StatusOpen,
				IsOneTime: st.OneTime,
			}
			for _, d := range st.Days {
				task.Days = append(task.Days, models.Weekday(d))
			}
			if err := task.Validate(); err != nil {
				return models.FamilyState{}, fmt.Errorf("seed task %q: %w", st.Title, err)
			}
			player.Tasks = append(player.Tasks, task)
		}
		if err := player.Validate(); err != nil {
			return models.FamilyState{}, fmt.Errorf("seed player %q: %w", sp.Name, err)
		}
		state.Players = append(state.Players, player)
	}

	if state.FamilyGoal <= 0 || state.MaxBossHP <= 0 || len(state.Players) == 0 {
		return models.FamilyState{}, fmt.Errorf("seed file needs familyGoal, maxBossHP and at least one player")
	}
	return state, nil
}

// DefaultSeed is the family document created on first run when no seed file
// is configured.
func DefaultSeed() models.FamilyState {
	return models.FamilyState{
		FamilyGoal: 350,
		BossHP:     500,
		MaxBossHP:  500,
		Players: []models.Player{
			{ID: 1, Name: "Alex", AgeGroup: models.AgeBig, Points: 0},
			{ID: 2, Name: "Robin", AgeGroup: models.AgeBig, Points: 0},
			{ID: 3, Name: "Sam", AgeGroup: models.AgeToddler, Points: 0},
		},
	}
}
