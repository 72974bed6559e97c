package domain

import (
	"math"
	"time"
)

// CooldownCheck is the result of evaluating the cooldown guard.
type CooldownCheck struct {
	Allowed   bool
	Remaining time.Duration
}

// RemainingSeconds reports the remaining wait rounded up to whole seconds,
// the shape the message surface renders.
func (c CooldownCheck) RemainingSeconds() int {
	if c.Allowed || c.Remaining <= 0 {
		return 0
	}
	return int(math.Ceil(c.Remaining.Seconds()))
}

// Cooldown evaluates whether a player may act on a session at the given
// instant. It is a pure function over the player's last roll time and the
// session's configured cooldown; players who have not rolled yet are always
// allowed. Evaluated before any write attempt so a cooldown rejection never
// consumes a retry or mutates state.
func Cooldown(session Session, playerID string, now time.Time) CooldownCheck {
	if session.Config.Cooldown <= 0 {
		return CooldownCheck{Allowed: true}
	}
	player, ok := session.Player(playerID)
	if !ok || player.LastRollTime == nil {
		return CooldownCheck{Allowed: true}
	}

	elapsed := now.Sub(*player.LastRollTime)
	if elapsed >= session.Config.Cooldown {
		return CooldownCheck{Allowed: true}
	}
	return CooldownCheck{Remaining: session.Config.Cooldown - elapsed}
}
