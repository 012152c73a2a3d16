package config

import (
	"os"
	"path/filepath"
	"testing"

	"homeheroes/internal/models"
)

func writeSeedFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "family.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writing seed file: %v", err)
	}
	return path
}

func TestLoadSeedFromFile(t *testing.T) {
	path := writeSeedFile(t, `
familyGoal: 400
maxBossHP: 600
players:
  - id: 1
    name: Alex
    ageGroup: big
    points: 10
    shields: 2
    tasks:
      - title: Make bed
        value: 20
        time: morning
        days: [monday, tuesday]
      - title: Tidy room
        value: 50
        time: evening
        days: [saturday]
        oneTime: true
  - id: 2
    name: Sam
    ageGroup: toddler
`)

	state, err := LoadSeed(path)
	if err != nil {
		t.Fatalf("LoadSeed() error = %v", err)
	}

	if state.FamilyGoal != 400 {
		t.Errorf("familyGoal = %d, want 400", state.FamilyGoal)
	}
	if state.BossHP != 600 || state.MaxBossHP != 600 {
		t.Errorf("bossHP = %d/%d, want 600/600 (boss starts full)", state.BossHP, state.MaxBossHP)
	}
	if len(state.Players) != 2 {
		t.Fatalf("players = %d, want 2", len(state.Players))
	}

	alex := state.Player(1)
	if alex.Inventory.Shields != 2 || alex.Points != 10 {
		t.Errorf("alex = %+v", alex)
	}
	if len(alex.Tasks) != 2 {
		t.Fatalf("alex tasks = %d, want 2", len(alex.Tasks))
	}
	for _, task := range alex.Tasks {
		if task.ID == "" {
			t.Error("task id not minted at load time")
		}
		if task.Status != models.StatusOpen {
			t.Errorf("task status = %v, want open", task.Status)
		}
	}
	if !alex.Tasks[1].IsOneTime {
		t.Error("oneTime flag not carried over")
	}
	if alex.Tasks[0].Time != models.Morning || len(alex.Tasks[0].Days) != 2 {
		t.Errorf("task schedule = %+v", alex.Tasks[0])
	}
}

func TestLoadSeedRejectsBadFiles(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			"no players",
			"familyGoal: 400\nmaxBossHP: 600\n",
		},
		{
			"missing goal",
			"maxBossHP: 600\nplayers:\n  - {id: 1, name: Alex, ageGroup: big}\n",
		},
		{
			"bad age group",
			"familyGoal: 400\nmaxBossHP: 600\nplayers:\n  - {id: 1, name: Alex, ageGroup: teen}\n",
		},
		{
			"task without days",
			`familyGoal: 400
maxBossHP: 600
players:
  - id: 1
    name: Alex
    ageGroup: big
    tasks:
      - title: Make bed
        value: 20
        time: morning
`,
		},
		{
			"not yaml",
			"{{{",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeSeedFile(t, tt.content)
			if _, err := LoadSeed(path); err == nil {
				t.Error("LoadSeed() accepted a bad seed file")
			}
		})
	}
}

func TestLoadSeedDefaults(t *testing.T) {
	state, err := LoadSeed("")
	if err != nil {
		t.Fatalf("LoadSeed(\"\") error = %v", err)
	}
	if len(state.Players) == 0 || state.FamilyGoal <= 0 || state.MaxBossHP <= 0 {
		t.Errorf("default seed = %+v", state)
	}
	for i := range state.Players {
		if err := state.Players[i].Validate(); err != nil {
			t.Errorf("default player %d invalid: %v", i, err)
		}
	}
}

func TestLoadSeedMissingFile(t *testing.T) {
	if _, err := LoadSeed("/nonexistent/family.yaml"); err == nil {
		t.Error("LoadSeed() with a missing file succeeded")
	}
}
