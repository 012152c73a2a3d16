package ledger

import (
	"testing"
	"time"

	"homeheroes/internal/models"
)

var testNow = time.Date(2026, 8, 24, 10, 0, 0, 0, time.UTC)

func TestEffectiveValue(t *testing.T) {
	task := models.Task{ID: "t1", Value: 30}

	tests := []struct {
		name  string
		until int64
		want  int
	}{
		{"no window", 0, 30},
		{"window active", testNow.Add(30 * time.Minute).UnixMilli(), 60},
		{"window expired", testNow.Add(-time.Minute).UnixMilli(), 30},
		{"exact expiry instant counts as expired", testNow.UnixMilli(), 30},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := models.Player{ActiveEffects: models.ActiveEffects{DoublePointsUntil: tt.until}}
			if got := EffectiveValue(&p, &task, testNow); got != tt.want {
				t.Errorf("EffectiveValue() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestAward(t *testing.T) {
	p := models.Player{Points: 10, LifetimePoints: 210}
	Award(&p, 40)
	if p.Points != 50 {
		t.Errorf("Points = %d, want 50", p.Points)
	}
	if p.LifetimePoints != 250 {
		t.Errorf("LifetimePoints = %d, want 250", p.LifetimePoints)
	}
}

func TestSpend(t *testing.T) {
	tests := []struct {
		name       string
		points     int
		cost       int
		wantOK     bool
		wantPoints int
	}{
		{"sufficient", 120, 100, true, 20},
		{"exact balance", 100, 100, true, 0},
		{"insufficient leaves balance untouched", 95, 100, false, 95},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := models.Player{Points: tt.points, LifetimePoints: 300}
			ok := Spend(&p, tt.cost)
			if ok != tt.wantOK {
				t.Errorf("Spend() = %v, want %v", ok, tt.wantOK)
			}
			if p.Points != tt.wantPoints {
				t.Errorf("Points = %d, want %d", p.Points, tt.wantPoints)
			}
			if p.LifetimePoints != 300 {
				t.Errorf("LifetimePoints changed to %d, spending must not touch it", p.LifetimePoints)
			}
		})
	}
}

func TestPurchaseDouble(t *testing.T) {
	t.Run("sets expiry an hour out", func(t *testing.T) {
		p := models.Player{Points: 150}
		if !PurchaseDouble(&p, testNow) {
			t.Fatal("PurchaseDouble() = false, want true")
		}
		if p.Points != 50 {
			t.Errorf("Points = %d, want 50", p.Points)
		}
		want := testNow.Add(time.Hour).UnixMilli()
		if p.ActiveEffects.DoublePointsUntil != want {
			t.Errorf("DoublePointsUntil = %d, want %d", p.ActiveEffects.DoublePointsUntil, want)
		}
	})

	t.Run("buying while active replaces expiry", func(t *testing.T) {
		p := models.Player{Points: 200}
		if !PurchaseDouble(&p, testNow) {
			t.Fatal("first PurchaseDouble() = false")
		}
		later := testNow.Add(20 * time.Minute)
		if !PurchaseDouble(&p, later) {
			t.Fatal("second PurchaseDouble() = false")
		}
		want := later.Add(time.Hour).UnixMilli()
		if p.ActiveEffects.DoublePointsUntil != want {
			t.Errorf("DoublePointsUntil = %d, want %d (replaced, not stacked)", p.ActiveEffects.DoublePointsUntil, want)
		}
	})

	t.Run("insufficient points", func(t *testing.T) {
		p := models.Player{Points: 95}
		if PurchaseDouble(&p, testNow) {
			t.Fatal("PurchaseDouble() = true with 95 points, want false")
		}
		if p.Points != 95 || p.ActiveEffects.DoublePointsUntil != 0 {
			t.Errorf("failed purchase mutated player: %+v", p)
		}
	})
}

func TestPurchaseShield(t *testing.T) {
	t.Run("adds one shield", func(t *testing.T) {
		p := models.Player{Points: 150, Inventory: models.Inventory{Shields: 1}}
		if !PurchaseShield(&p) {
			t.Fatal("PurchaseShield() = false, want true")
		}
		if p.Points != 0 {
			t.Errorf("Points = %d, want 0", p.Points)
		}
		if p.Inventory.Shields != 2 {
			t.Errorf("Shields = %d, want 2", p.Inventory.Shields)
		}
	})

	t.Run("insufficient points", func(t *testing.T) {
		p := models.Player{Points: 149}
		if PurchaseShield(&p) {
			t.Fatal("PurchaseShield() = true with 149 points, want false")
		}
		if p.Points != 149 || p.Inventory.Shields != 0 {
			t.Errorf("failed purchase mutated player: %+v", p)
		}
	})
}

func TestManualAdjust(t *testing.T) {
	tests := []struct {
		name   string
		points int
		amount int
		mode   AdjustMode
		want   int
	}{
		{"add", 50, 25, AdjustAdd, 75},
		{"subtract", 50, 20, AdjustSubtract, 30},
		{"subtract clamps at zero", 10, 40, AdjustSubtract, 0},
		{"reset", 80, 0, AdjustReset, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := models.Player{Points: tt.points, LifetimePoints: 500}
			ManualAdjust(&p, tt.amount, tt.mode)
			if p.Points != tt.want {
				t.Errorf("Points = %d, want %d", p.Points, tt.want)
			}
			if p.LifetimePoints != 500 {
				t.Errorf("LifetimePoints changed to %d, adjustments must not touch it", p.LifetimePoints)
			}
		})
	}
}
