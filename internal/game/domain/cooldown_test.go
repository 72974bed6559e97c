package domain

import (
	"testing"
	"time"
)

func TestCooldownAllowsUnknownPlayer(t *testing.T) {
	session := testSession(t)
	check := Cooldown(session, "alice", session.CreatedAt)
	if !check.Allowed {
		t.Fatal("player who never rolled must be allowed")
	}
}

func TestCooldownAllowsZeroCooldown(t *testing.T) {
	session := testSession(t)
	session.Config.Cooldown = 0
	session, err := Transition(session, "alice", "Alice", 3, session.CreatedAt)
	if err != nil {
		t.Fatalf("seed roll: %v", err)
	}

	check := Cooldown(session, "alice", session.CreatedAt)
	if !check.Allowed {
		t.Fatal("zero cooldown must always allow")
	}
}

func TestCooldownBlocksWithinWindow(t *testing.T) {
	session := testSession(t)
	rolledAt := session.CreatedAt.Add(time.Minute)
	session, err := Transition(session, "alice", "Alice", 3, rolledAt)
	if err != nil {
		t.Fatalf("seed roll: %v", err)
	}

	check := Cooldown(session, "alice", rolledAt.Add(3*time.Second))
	if check.Allowed {
		t.Fatal("expected cooldown to block")
	}
	if check.Remaining != 7*time.Second {
		t.Fatalf("remaining = %v, want 7s", check.Remaining)
	}
	if check.RemainingSeconds() != 7 {
		t.Fatalf("remaining seconds = %d, want 7", check.RemainingSeconds())
	}
}

func TestCooldownRemainingSecondsRoundsUp(t *testing.T) {
	session := testSession(t)
	rolledAt := session.CreatedAt.Add(time.Minute)
	session, err := Transition(session, "alice", "Alice", 3, rolledAt)
	if err != nil {
		t.Fatalf("seed roll: %v", err)
	}

	check := Cooldown(session, "alice", rolledAt.Add(9500*time.Millisecond))
	if check.Allowed {
		t.Fatal("expected cooldown to block")
	}
	if check.RemainingSeconds() != 1 {
		t.Fatalf("remaining seconds = %d, want 1", check.RemainingSeconds())
	}
}

func TestCooldownAllowsAtBoundary(t *testing.T) {
	session := testSession(t)
	rolledAt := session.CreatedAt.Add(time.Minute)
	session, err := Transition(session, "alice", "Alice", 3, rolledAt)
	if err != nil {
		t.Fatalf("seed roll: %v", err)
	}

	check := Cooldown(session, "alice", rolledAt.Add(10*time.Second))
	if !check.Allowed {
		t.Fatalf("expected boundary instant to allow, remaining %v", check.Remaining)
	}
}

func TestCooldownIsScopedPerPlayer(t *testing.T) {
	session := testSession(t)
	rolledAt := session.CreatedAt.Add(time.Minute)
	session, err := Transition(session, "alice", "Alice", 3, rolledAt)
	if err != nil {
		t.Fatalf("seed roll: %v", err)
	}

	check := Cooldown(session, "bob", rolledAt.Add(time.Second))
	if !check.Allowed {
		t.Fatal("another player's roll must not block bob")
	}
}
