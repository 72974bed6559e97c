package service

import (
	"context"
	stderrors "errors"
	"log"
	"strconv"
	"strings"

	"github.com/cenkalti/backoff/v5"
	"go.opentelemetry.io/otel/attribute"

	"github.com/louisbranch/highroll/internal/game/domain"
	"github.com/louisbranch/highroll/internal/platform/errors"
	"github.com/louisbranch/highroll/internal/storage"
)

// Roll executes one player attempt against a shared session. The document
// is read, transitioned with a fresh die draw, and written back with a
// compare-and-swap keyed on the stored version. Lost races re-read and
// retry with a newly drawn roll, up to the attempt bound.
func (s *Service) Roll(ctx context.Context, action Action) (Result, error) {
	if s == nil || s.store == nil {
		return Result{}, errors.New(errors.CodeUnknown, "session store is not configured")
	}

	ctx, span := s.tracer.Start(ctx, "service.Roll")
	defer span.End()

	requestID := strings.TrimSpace(action.RequestID)
	if requestID == "" {
		return Result{}, errors.New(errors.CodeRequestEmptyID, "request id is required")
	}

	// The request is marked seen before any side-effecting work so a
	// concurrent duplicate cannot slip in between validation and commit.
	// Shape validation failures unmark so a corrected retry of the same
	// request id is not rejected as a duplicate.
	if s.dedup.Seen(requestID) {
		return Result{}, errors.WithMetadata(errors.CodeDuplicateRequest, "request was already processed",
			map[string]string{"request_id": requestID})
	}
	action.RequestID = requestID
	action, err := normalizeAction(action)
	if err != nil {
		s.dedup.Forget(requestID)
		return Result{}, err
	}

	span.SetAttributes(
		attribute.String("session.id", action.SessionID),
		attribute.String("player.id", action.PlayerID),
	)

	outcome, err := backoff.Retry(ctx, func() (rollOutcome, error) {
		return s.attempt(ctx, action)
	}, backoff.WithBackOff(s.newBackOff()), backoff.WithMaxTries(s.maxAttempts))
	if err != nil {
		if stderrors.Is(err, storage.ErrVersionConflict) {
			log.Printf("roll contention exhausted session_id=%s player_id=%s attempts=%d",
				action.SessionID, action.PlayerID, s.maxAttempts)
			return Result{}, errors.WithMetadata(errors.CodeConcurrencyExhausted,
				"session is under heavy contention, try again",
				map[string]string{"attempts": strconv.FormatUint(uint64(s.maxAttempts), 10)})
		}
		// The deadline may have elapsed mid-retry. No partial write is
		// possible, but the request stays marked seen since an earlier
		// attempt's write may have committed.
		if stderrors.Is(err, context.DeadlineExceeded) || stderrors.Is(err, context.Canceled) {
			log.Printf("roll deadline elapsed session_id=%s player_id=%s err=%v",
				action.SessionID, action.PlayerID, err)
			return Result{}, errors.Wrap(errors.CodeDeadlineExceeded,
				"roll was cut short by the request deadline", err)
		}
		span.RecordError(err)
		return Result{}, err
	}

	result := Result{
		Roll:    outcome.roll,
		Session: outcome.session,
		Won:     outcome.session.Status == domain.StatusFinished && outcome.session.Winner == action.PlayerID,
	}
	log.Printf("roll committed session_id=%s player_id=%s roll=%d status=%s",
		action.SessionID, action.PlayerID, result.Roll, result.Session.Status)

	if outcome.session.Status == domain.StatusFinished {
		granted, recipient, committed := s.fulfillReward(ctx, action.SessionID)
		result.RewardGranted = granted
		result.RewardRecipient = recipient
		if granted {
			result.Session = committed
		}
	}
	return result, nil
}

// rollOutcome carries one committed attempt out of the retry loop.
type rollOutcome struct {
	roll    int
	session domain.Session
}

// attempt runs a single read-transition-write cycle. A version conflict is
// returned as-is so the retry policy re-runs the cycle; every other failure
// is permanent.
func (s *Service) attempt(ctx context.Context, action Action) (rollOutcome, error) {
	session, version, err := s.store.Get(ctx, action.SessionID)
	if err != nil {
		if stderrors.Is(err, storage.ErrNotFound) {
			return rollOutcome{}, backoff.Permanent(errors.New(errors.CodeNotFound, "session not found"))
		}
		return rollOutcome{}, backoff.Permanent(errors.Wrap(errors.CodeUnknown, "load session", err))
	}

	now := s.clock()
	if session.Expired(now) {
		return rollOutcome{}, backoff.Permanent(errors.New(errors.CodeSessionExpired, "session has expired"))
	}

	if check := domain.Cooldown(session, action.PlayerID, now); !check.Allowed {
		return rollOutcome{}, backoff.Permanent(errors.WithMetadata(errors.CodeCooldownActive,
			"player is on cooldown",
			map[string]string{"remaining_seconds": strconv.Itoa(check.RemainingSeconds())}))
	}

	roll, err := s.roller.Roll(session.Config.DiceSides)
	if err != nil {
		return rollOutcome{}, backoff.Permanent(errors.Wrap(errors.CodeUnknown, "roll die", err))
	}

	next, err := domain.Transition(session, action.PlayerID, action.DisplayName, roll, now)
	if err != nil {
		return rollOutcome{}, backoff.Permanent(err)
	}

	if err := s.store.CompareAndSwap(ctx, action.SessionID, version, next); err != nil {
		if stderrors.Is(err, storage.ErrVersionConflict) {
			// Someone else committed first. If the race was decided, stop
			// retrying; otherwise retry against the fresh document.
			current, _, readErr := s.store.Get(ctx, action.SessionID)
			if readErr == nil && current.Status == domain.StatusFinished {
				metadata := map[string]string{"winner": current.Winner}
				return rollOutcome{}, backoff.Permanent(errors.WithMetadata(
					errors.CodeGameAlreadyFinished, "game has already been won", metadata))
			}
			return rollOutcome{}, err
		}
		if stderrors.Is(err, storage.ErrNotFound) {
			return rollOutcome{}, backoff.Permanent(errors.New(errors.CodeNotFound, "session not found"))
		}
		return rollOutcome{}, backoff.Permanent(errors.Wrap(errors.CodeUnknown, "write session", err))
	}

	return rollOutcome{roll: roll, session: next}, nil
}
