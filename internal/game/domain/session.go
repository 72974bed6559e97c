package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/louisbranch/highroll/internal/id"
	"github.com/louisbranch/highroll/internal/platform/errors"
)

// Status describes the lifecycle state of a session.
type Status int

const (
	// StatusUnspecified represents an invalid session status value.
	StatusUnspecified Status = iota
	// StatusWaiting indicates the session exists but nobody has rolled yet.
	StatusWaiting
	// StatusActive indicates at least one roll has been recorded.
	StatusActive
	// StatusFinished indicates a roll matched the target score. Terminal.
	StatusFinished
)

// String returns the lowercase wire name for a status.
func (s Status) String() string {
	switch s {
	case StatusWaiting:
		return "waiting"
	case StatusActive:
		return "active"
	case StatusFinished:
		return "finished"
	default:
		return "unspecified"
	}
}

// PrizePolicy selects the reward recipient once a session finishes.
type PrizePolicy int

const (
	// PrizePolicyUnspecified represents an invalid policy value.
	PrizePolicyUnspecified PrizePolicy = iota
	// PrizePolicyWinner grants the prize to the winning player.
	PrizePolicyWinner
	// PrizePolicyRandomPlayer grants the prize to a uniformly random
	// session player, winner included.
	PrizePolicyRandomPlayer
)

// Config captures the immutable session configuration recorded at creation.
type Config struct {
	TargetScore int
	DiceSides   int
	Cooldown    time.Duration
	MaxPlayers  int
	PrizeType   string
	PrizePolicy PrizePolicy
}

// Player is one participant embedded in a session. Players are appended the
// first time they act and are never removed.
type Player struct {
	ID           string
	DisplayName  string
	LastRoll     *int
	LastRollTime *time.Time
	JoinedAt     time.Time
}

// Session is the shared mutable record coordinating one game instance.
// It is persisted as a single versioned document; the version lives in the
// storage layer and is not part of the domain value.
type Session struct {
	ID           string
	Status       Status
	Config       Config
	Players      []Player
	Winner       string // player id, empty until finished
	WinningScore int
	PrizeClaimed   bool
	PrizeClaimedBy string
	PrizeClaimedAt *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
	ExpiresAt      time.Time
}

// Player returns the embedded player with the given id, if present.
func (s Session) Player(playerID string) (Player, bool) {
	for _, player := range s.Players {
		if player.ID == playerID {
			return player, true
		}
	}
	return Player{}, false
}

// Expired reports whether the session's TTL has elapsed. An expired session
// is treated as non-existent for new actions.
func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && now.After(s.ExpiresAt)
}

// clone returns a deep copy so transitions never alias the caller's players.
func (s Session) clone() Session {
	copied := s
	copied.Players = make([]Player, len(s.Players))
	copy(copied.Players, s.Players)
	return copied
}

// CreateSessionInput describes the configuration needed to create a session.
type CreateSessionInput struct {
	TargetScore int
	DiceSides   int
	Cooldown    time.Duration
	MaxPlayers  int
	PrizeType   string
	PrizePolicy PrizePolicy
	TTL         time.Duration
}

// CreateSession creates a new session in WAITING status with zero players.
// The configuration is validated and immutable afterwards.
func CreateSession(input CreateSessionInput, now func() time.Time, idGenerator func() (string, error)) (Session, error) {
	if now == nil {
		now = time.Now
	}
	if idGenerator == nil {
		idGenerator = id.NewID
	}

	if input.DiceSides < 2 {
		return Session{}, errors.New(errors.CodeSessionInvalidDiceSides, "dice must have at least two sides")
	}
	if input.TargetScore < 1 || input.TargetScore > input.DiceSides {
		return Session{}, errors.New(errors.CodeSessionInvalidTargetScore, "target score must be within [1, dice sides]")
	}
	if input.Cooldown < 0 {
		return Session{}, errors.New(errors.CodeSessionInvalidCooldown, "cooldown must not be negative")
	}
	if input.MaxPlayers < 1 {
		return Session{}, errors.New(errors.CodeSessionInvalidMaxPlayers, "session needs room for at least one player")
	}
	if input.TTL <= 0 {
		return Session{}, errors.New(errors.CodeSessionInvalidTTL, "session ttl must be positive")
	}
	if input.PrizePolicy == PrizePolicyUnspecified {
		input.PrizePolicy = PrizePolicyWinner
	}
	if input.PrizePolicy != PrizePolicyWinner && input.PrizePolicy != PrizePolicyRandomPlayer {
		return Session{}, errors.New(errors.CodeSessionInvalidPrizePolicy, "unknown prize policy")
	}

	sessionID, err := idGenerator()
	if err != nil {
		return Session{}, fmt.Errorf("generate session id: %w", err)
	}

	createdAt := now().UTC()
	return Session{
		ID:     sessionID,
		Status: StatusWaiting,
		Config: Config{
			TargetScore: input.TargetScore,
			DiceSides:   input.DiceSides,
			Cooldown:    input.Cooldown,
			MaxPlayers:  input.MaxPlayers,
			PrizeType:   strings.TrimSpace(input.PrizeType),
			PrizePolicy: input.PrizePolicy,
		},
		Players:   nil,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
		ExpiresAt: createdAt.Add(input.TTL),
	}, nil
}
