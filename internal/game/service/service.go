// Package service implements the game-session coordinator: it accepts roll
// actions from the message surface, drives the optimistic concurrency
// cycle against the session store, and runs the one-time reward step when
// a session finishes.
package service

import (
	"context"
	stderrors "errors"
	"math/rand"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/louisbranch/highroll/internal/core/dice"
	"github.com/louisbranch/highroll/internal/game/dedup"
	"github.com/louisbranch/highroll/internal/game/domain"
	"github.com/louisbranch/highroll/internal/id"
	"github.com/louisbranch/highroll/internal/platform/errors"
	"github.com/louisbranch/highroll/internal/reward"
	"github.com/louisbranch/highroll/internal/storage"
)

// defaultMaxAttempts bounds the compare-and-swap cycle per action.
const defaultMaxAttempts = 3

// defaultBackoffInterval seeds the delay applied between CAS retries.
const defaultBackoffInterval = 50 * time.Millisecond

// Action is one inbound player attempt delivered by the message surface.
// RequestID uniquely identifies the attempt so transport-level retries and
// double-clicks are suppressed.
type Action struct {
	SessionID   string
	PlayerID    string
	DisplayName string
	RequestID   string
}

// Result is the outcome of a successfully committed roll. Rejections are
// returned as *errors.Error values, never as Result.
type Result struct {
	Roll    int
	Session domain.Session
	Won     bool
	// RewardGranted reports whether the prize reached the recipient's
	// inventory in this request. A won session with RewardGranted false is
	// valid: the outcome stands and fulfillment is retried out of band.
	RewardGranted   bool
	RewardRecipient string
}

// Service coordinates concurrent roll actions against shared sessions.
type Service struct {
	store   storage.SessionStore
	granter reward.Granter
	dedup   *dedup.Cache
	roller  dice.Roller

	clock       func() time.Time
	idGenerator func() (string, error)
	intn        func(n int) int

	maxAttempts uint
	newBackOff  func() backoff.BackOff

	tracer trace.Tracer
}

// Option configures optional Service dependencies.
type Option func(*Service)

// WithClock overrides the wall clock, for tests.
func WithClock(clock func() time.Time) Option {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithRoller overrides the die roller.
func WithRoller(roller dice.Roller) Option {
	return func(s *Service) {
		if roller != nil {
			s.roller = roller
		}
	}
}

// WithDedupCapacity bounds the request deduplication cache.
func WithDedupCapacity(capacity int) Option {
	return func(s *Service) {
		s.dedup = dedup.NewCache(capacity)
	}
}

// WithMaxAttempts bounds the compare-and-swap cycle per action.
func WithMaxAttempts(attempts int) Option {
	return func(s *Service) {
		if attempts > 0 {
			s.maxAttempts = uint(attempts)
		}
	}
}

// WithBackOff overrides the retry delay policy. The factory is invoked once
// per action so attempts within one action share a policy instance.
func WithBackOff(factory func() backoff.BackOff) Option {
	return func(s *Service) {
		if factory != nil {
			s.newBackOff = factory
		}
	}
}

// WithRecipientRand overrides the random draw used by the random-player
// prize policy, for tests.
func WithRecipientRand(intn func(n int) int) Option {
	return func(s *Service) {
		if intn != nil {
			s.intn = intn
		}
	}
}

// New creates a coordinator service with default dependencies.
func New(store storage.SessionStore, granter reward.Granter, opts ...Option) *Service {
	service := &Service{
		store:       store,
		granter:     granter,
		dedup:       dedup.NewCache(dedup.DefaultCapacity),
		roller:      dice.NewSource(time.Now().UnixNano()),
		clock:       time.Now,
		idGenerator: id.NewID,
		intn:        rand.Intn,
		maxAttempts: defaultMaxAttempts,
		newBackOff: func() backoff.BackOff {
			policy := backoff.NewExponentialBackOff()
			policy.InitialInterval = defaultBackoffInterval
			return policy
		},
		tracer: otel.Tracer("github.com/louisbranch/highroll/internal/game/service"),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(service)
		}
	}
	return service
}

// CreateSession creates and persists a new session in WAITING status.
// This is the setup step invoked by an operator or the message surface
// before players start rolling.
func (s *Service) CreateSession(ctx context.Context, input domain.CreateSessionInput) (domain.Session, error) {
	if s == nil || s.store == nil {
		return domain.Session{}, errors.New(errors.CodeUnknown, "session store is not configured")
	}

	session, err := domain.CreateSession(input, s.clock, s.idGenerator)
	if err != nil {
		return domain.Session{}, err
	}
	if err := s.store.Put(ctx, session); err != nil {
		return domain.Session{}, errors.Wrap(errors.CodeUnknown, "persist session", err)
	}
	return session, nil
}

// GetSession returns a session and its current version. Expired sessions
// are reported as such rather than returned.
func (s *Service) GetSession(ctx context.Context, sessionID string) (domain.Session, uint64, error) {
	if s == nil || s.store == nil {
		return domain.Session{}, 0, errors.New(errors.CodeUnknown, "session store is not configured")
	}
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return domain.Session{}, 0, errors.New(errors.CodeSessionEmptyID, "session id is required")
	}

	session, version, err := s.store.Get(ctx, sessionID)
	if err != nil {
		if stderrors.Is(err, storage.ErrNotFound) {
			return domain.Session{}, 0, errors.New(errors.CodeNotFound, "session not found")
		}
		return domain.Session{}, 0, errors.Wrap(errors.CodeUnknown, "load session", err)
	}
	if session.Expired(s.clock()) {
		return domain.Session{}, 0, errors.New(errors.CodeSessionExpired, "session has expired")
	}
	return session, version, nil
}

// normalizeAction trims identifiers and validates the action shape.
func normalizeAction(action Action) (Action, error) {
	action.SessionID = strings.TrimSpace(action.SessionID)
	action.PlayerID = strings.TrimSpace(action.PlayerID)
	action.DisplayName = strings.TrimSpace(action.DisplayName)
	action.RequestID = strings.TrimSpace(action.RequestID)

	if action.RequestID == "" {
		return Action{}, errors.New(errors.CodeRequestEmptyID, "request id is required")
	}
	if action.SessionID == "" {
		return Action{}, errors.New(errors.CodeSessionEmptyID, "session id is required")
	}
	if action.PlayerID == "" {
		return Action{}, errors.New(errors.CodePlayerEmptyID, "player id is required")
	}
	if action.DisplayName == "" {
		action.DisplayName = action.PlayerID
	}
	return action, nil
}
