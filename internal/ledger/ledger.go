// Package ledger implements the point economy: earning, spending, timed
// double-points windows and consumable shields. All mutations here run on a
// cloned snapshot owned by the command processor; nothing else may change a
// player's points.
package ledger

import (
	"time"

	"homeheroes/internal/models"
)

const (
	// DoubleCost buys a double-points window
	DoubleCost = 100
	// ShieldCost buys one skip shield
	ShieldCost = 150
	// DoubleDuration is the length of a purchased double-points window
	DoubleDuration = time.Hour
)

// EffectiveValue is the point award for completing the task now: twice the
// base value inside an active double-points window, the base value otherwise.
func EffectiveValue(p *models.Player, t *models.Task, now time.Time) int {
	if p.ActiveEffects.DoubleActiveAt(now) {
		return t.Value * 2
	}
	return t.Value
}

// Award credits points to both the spendable balance and the lifetime total.
// Awarding is the only path that increases lifetime points.
func Award(p *models.Player, amount int) {
	p.Points += amount
	p.LifetimePoints += amount
}

// Spend deducts cost from the player's balance. It reports false without
// mutating anything when the balance is insufficient.
func Spend(p *models.Player, cost int) bool {
	if p.Points < cost {
		return false
	}
	p.Points -= cost
	return true
}

// PurchaseDouble buys a double-points window ending an hour from now.
// Buying while a window is active replaces the expiry rather than extending
// it. Reports false on insufficient points.
func PurchaseDouble(p *models.Player, now time.Time) bool {
	if !Spend(p, DoubleCost) {
		return false
	}
	p.ActiveEffects.DoublePointsUntil = now.Add(DoubleDuration).UnixMilli()
	return true
}

// PurchaseShield buys one skip shield. Reports false on insufficient points.
func PurchaseShield(p *models.Player) bool {
	if !Spend(p, ShieldCost) {
		return false
	}
	p.Inventory.Shields++
	return true
}

// AdjustMode selects how a manual point adjustment is applied
type AdjustMode string

const (
	AdjustAdd      AdjustMode = "add"
	AdjustSubtract AdjustMode = "subtract"
	AdjustReset    AdjustMode = "reset"
)

// IsValid checks that the mode is one of the known values
func (m AdjustMode) IsValid() bool {
	return m == AdjustAdd || m == AdjustSubtract || m == AdjustReset
}

// ManualAdjust applies a parent's point correction. Subtracting clamps at
// zero and resetting zeroes the balance; lifetime points are never touched.
func ManualAdjust(p *models.Player, amount int, mode AdjustMode) {
	switch mode {
	case AdjustAdd:
		p.Points += amount
	case AdjustSubtract:
		p.Points -= amount
		if p.Points < 0 {
			p.Points = 0
		}
	case AdjustReset:
		p.Points = 0
	}
}
