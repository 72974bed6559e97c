// Package reward defines the prize-fulfillment contract and recipient
// selection policy for finished sessions.
package reward

import (
	"context"

	"github.com/louisbranch/highroll/internal/game/domain"
	"github.com/louisbranch/highroll/internal/platform/errors"
)

// Granter deposits a prize into a recipient's inventory. Implementations
// must be idempotent for the same (sessionID, prizeType): a duplicate grant
// is a no-op, never a double deposit.
type Granter interface {
	Grant(ctx context.Context, sessionID, prizeType, recipientID string) error
}

// PickRecipient selects the prize recipient for a finished session
// according to its configured policy. intn draws a uniform value in
// [0, n) and is injected so tests can script the choice.
func PickRecipient(session domain.Session, intn func(n int) int) (string, error) {
	switch session.Config.PrizePolicy {
	case domain.PrizePolicyRandomPlayer:
		if len(session.Players) == 0 {
			break
		}
		if intn == nil {
			return "", errors.New(errors.CodeUnknown, "random source is required for random prize policy")
		}
		return session.Players[intn(len(session.Players))].ID, nil
	}

	if session.Winner == "" {
		return "", errors.New(errors.CodeRewardWinnerMissing, "session has no winner to reward")
	}
	return session.Winner, nil
}
