package service

import (
	"context"
	stderrors "errors"
	"log"

	"github.com/louisbranch/highroll/internal/game/domain"
	"github.com/louisbranch/highroll/internal/platform/timeouts"
	"github.com/louisbranch/highroll/internal/reward"
	"github.com/louisbranch/highroll/internal/storage"
)

// fulfillReward runs the one-time prize deposit for a finished session.
// The committed document is re-read, a recipient is picked per the prize
// policy, the deposit is made, and prizeClaimed is flipped with a second
// compare-and-swap. Grant failures are logged and left for out-of-band
// reconciliation; the session outcome stands regardless.
func (s *Service) fulfillReward(ctx context.Context, sessionID string) (granted bool, recipient string, committed domain.Session) {
	session, version, err := s.store.Get(ctx, sessionID)
	if err != nil {
		log.Printf("reward re-read failed session_id=%s err=%v", sessionID, err)
		return false, "", domain.Session{}
	}
	if session.PrizeClaimed {
		return true, session.PrizeClaimedBy, session
	}

	recipient, err = reward.PickRecipient(session, s.intn)
	if err != nil {
		log.Printf("reward recipient selection failed session_id=%s err=%v", sessionID, err)
		return false, "", session
	}

	grantCtx, cancel := context.WithTimeout(ctx, timeouts.RewardGrant)
	defer cancel()
	if err := s.granter.Grant(grantCtx, sessionID, session.Config.PrizeType, recipient); err != nil {
		log.Printf("reward grant failed session_id=%s recipient=%s prize=%s err=%v",
			sessionID, recipient, session.Config.PrizeType, err)
		return false, "", session
	}
	log.Printf("reward granted session_id=%s recipient=%s prize=%s",
		sessionID, recipient, session.Config.PrizeType)

	now := s.clock()
	claimed := session
	claimed.PrizeClaimed = true
	claimed.PrizeClaimedBy = recipient
	claimed.PrizeClaimedAt = &now
	claimed.UpdatedAt = now

	if err := s.store.CompareAndSwap(ctx, sessionID, version, claimed); err != nil {
		if stderrors.Is(err, storage.ErrVersionConflict) {
			// Another writer got in between. The deposit store is
			// idempotent, so a document already flagged claimed is fine.
			current, _, readErr := s.store.Get(ctx, sessionID)
			if readErr == nil && current.PrizeClaimed {
				return true, current.PrizeClaimedBy, current
			}
		}
		log.Printf("reward claim flag write failed session_id=%s recipient=%s err=%v",
			sessionID, recipient, err)
		return true, recipient, session
	}
	return true, recipient, claimed
}
