package domain

import (
	"time"

	"github.com/louisbranch/highroll/internal/platform/errors"
)

// Transition applies one roll to a session and returns the fully updated
// session value, not yet persisted.
//
// Transition is pure: it never mutates its input and is deterministic given
// the same arguments, so the retry coordinator can safely re-invoke it on
// every compare-and-swap attempt. Status never regresses; the only path
// into FINISHED is a roll equal to the configured target score.
func Transition(session Session, playerID, displayName string, roll int, now time.Time) (Session, error) {
	if session.Status == StatusFinished {
		return Session{}, errors.WithMetadata(errors.CodeGameAlreadyFinished, "session already has a winner", map[string]string{
			"winner": session.Winner,
		})
	}
	if session.Status != StatusWaiting && session.Status != StatusActive {
		return Session{}, errors.New(errors.CodeInvalidState, "session is not accepting rolls")
	}

	updated := session.clone()
	now = now.UTC()

	idx := -1
	for i := range updated.Players {
		if updated.Players[i].ID == playerID {
			idx = i
			break
		}
	}
	if idx == -1 {
		if len(updated.Players) >= updated.Config.MaxPlayers {
			return Session{}, errors.New(errors.CodeSessionFull, "session has no free seats")
		}
		updated.Players = append(updated.Players, Player{
			ID:          playerID,
			DisplayName: displayName,
			JoinedAt:    now,
		})
		idx = len(updated.Players) - 1
	}

	rollValue := roll
	rollTime := now
	updated.Players[idx].LastRoll = &rollValue
	updated.Players[idx].LastRollTime = &rollTime
	updated.UpdatedAt = now

	if roll == updated.Config.TargetScore {
		updated.Status = StatusFinished
		updated.Winner = playerID
		updated.WinningScore = roll
		return updated, nil
	}

	if updated.Status == StatusWaiting {
		updated.Status = StatusActive
	}
	return updated, nil
}
