package server

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/louisbranch/highroll/internal/game/domain"
	"github.com/louisbranch/highroll/internal/game/service"
	platformerrors "github.com/louisbranch/highroll/internal/platform/errors"
	"github.com/louisbranch/highroll/internal/platform/timeouts"
)

const maxRequestBodyBytes = 64 * 1024

type createSessionRequest struct {
	TargetScore     int    `json:"target_score"`
	DiceSides       int    `json:"dice_sides"`
	CooldownSeconds int    `json:"cooldown_seconds"`
	MaxPlayers      int    `json:"max_players"`
	PrizeType       string `json:"prize_type"`
	PrizePolicy     string `json:"prize_policy,omitempty"`
	TTLSeconds      int    `json:"ttl_seconds"`
}

type rollRequest struct {
	SessionID   string `json:"session_id"`
	PlayerID    string `json:"player_id"`
	DisplayName string `json:"display_name,omitempty"`
	RequestID   string `json:"request_id"`
}

type rollResponse struct {
	Roll            int            `json:"roll"`
	Won             bool           `json:"won"`
	RewardGranted   bool           `json:"reward_granted,omitempty"`
	RewardRecipient string         `json:"reward_recipient,omitempty"`
	Session         sessionPayload `json:"session"`
}

type sessionEnvelope struct {
	Session sessionPayload `json:"session"`
}

type sessionPayload struct {
	SessionID       string          `json:"session_id"`
	Status          string          `json:"status"`
	TargetScore     int             `json:"target_score"`
	DiceSides       int             `json:"dice_sides"`
	CooldownSeconds int             `json:"cooldown_seconds"`
	MaxPlayers      int             `json:"max_players"`
	PrizeType       string          `json:"prize_type"`
	PrizePolicy     string          `json:"prize_policy"`
	Players         []playerPayload `json:"players"`
	Winner          string          `json:"winner,omitempty"`
	WinningScore    int             `json:"winning_score,omitempty"`
	PrizeClaimed    bool            `json:"prize_claimed"`
	PrizeClaimedBy  string          `json:"prize_claimed_by,omitempty"`
	CreatedAt       string          `json:"created_at"`
	ExpiresAt       string          `json:"expires_at"`
}

type playerPayload struct {
	PlayerID     string `json:"player_id"`
	DisplayName  string `json:"display_name"`
	LastRoll     *int   `json:"last_roll,omitempty"`
	LastRollTime string `json:"last_roll_time,omitempty"`
	JoinedAt     string `json:"joined_at"`
}

type errorEnvelope struct {
	Error errorPayload `json:"error"`
}

type errorPayload struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Retryable bool              `json:"retryable"`
	Details   map[string]string `json:"details,omitempty"`
}

// routes wires the HTTP routes for the coordinator ingest surface.
func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/healthz", http.HandlerFunc(handleHealth))
	mux.Handle("/v1/sessions", http.HandlerFunc(s.handleCreateSession))
	mux.Handle("/v1/sessions/", http.HandlerFunc(s.handleGetSession))
	mux.Handle("/v1/rolls", http.HandlerFunc(s.handleRoll))
	return mux
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req createSessionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	input := domain.CreateSessionInput{
		TargetScore: req.TargetScore,
		DiceSides:   req.DiceSides,
		Cooldown:    time.Duration(req.CooldownSeconds) * time.Second,
		MaxPlayers:  req.MaxPlayers,
		PrizeType:   req.PrizeType,
		TTL:         time.Duration(req.TTLSeconds) * time.Second,
	}
	switch strings.TrimSpace(req.PrizePolicy) {
	case "", "winner":
		input.PrizePolicy = domain.PrizePolicyWinner
	case "random_player":
		input.PrizePolicy = domain.PrizePolicyRandomPlayer
	default:
		writeError(w, platformerrors.New(platformerrors.CodeSessionInvalidPrizePolicy, "unknown prize policy"))
		return
	}

	session, err := s.service.CreateSession(r.Context(), input)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sessionEnvelope{Session: toSessionPayload(session)})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	sessionID := strings.TrimPrefix(r.URL.Path, "/v1/sessions/")
	if sessionID == "" || strings.Contains(sessionID, "/") {
		http.NotFound(w, r)
		return
	}

	session, _, err := s.service.GetSession(r.Context(), sessionID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionEnvelope{Session: toSessionPayload(session)})
}

func (s *Server) handleRoll(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req rollRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.RollRequest)
	defer cancel()
	result, err := s.service.Roll(ctx, service.Action{
		SessionID:   req.SessionID,
		PlayerID:    req.PlayerID,
		DisplayName: req.DisplayName,
		RequestID:   req.RequestID,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rollResponse{
		Roll:            result.Roll,
		Won:             result.Won,
		RewardGranted:   result.RewardGranted,
		RewardRecipient: result.RewardRecipient,
		Session:         toSessionPayload(result.Session),
	})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, target any) bool {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBodyBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(target); err != nil {
		writeJSON(w, http.StatusBadRequest, errorEnvelope{Error: errorPayload{
			Code:    "MALFORMED_REQUEST",
			Message: "request body is not valid JSON",
		}})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("encode response: %v", err)
	}
}

// writeError renders a domain error as a JSON rejection envelope. The HTTP
// status is derived from the error's gRPC code so both surfaces agree on
// failure classification.
func writeError(w http.ResponseWriter, err error) {
	payload := errorPayload{
		Code:    string(platformerrors.CodeOf(err)),
		Message: "request failed",
	}
	var domainErr *platformerrors.Error
	if errors.As(err, &domainErr) {
		payload.Message = domainErr.Message
		payload.Details = domainErr.Metadata
		err = domainErr.ToGRPCStatus()
	}
	httpStatus := grpcErrorHTTPStatus(err, http.StatusInternalServerError)
	payload.Retryable = httpStatus == http.StatusTooManyRequests || httpStatus == http.StatusServiceUnavailable
	writeJSON(w, httpStatus, errorEnvelope{Error: payload})
}

// grpcErrorHTTPStatus maps gRPC status codes to HTTP status codes. It
// returns fallback when err is not a gRPC status or is unmapped.
func grpcErrorHTTPStatus(err error, fallback int) int {
	st, ok := status.FromError(err)
	if !ok {
		return fallback
	}
	switch st.Code() {
	case codes.InvalidArgument:
		return http.StatusBadRequest
	case codes.NotFound:
		return http.StatusNotFound
	case codes.AlreadyExists:
		return http.StatusConflict
	case codes.FailedPrecondition:
		return http.StatusConflict
	case codes.Aborted:
		return http.StatusServiceUnavailable
	case codes.ResourceExhausted:
		return http.StatusTooManyRequests
	case codes.DeadlineExceeded:
		return http.StatusGatewayTimeout
	case codes.Unavailable:
		return http.StatusServiceUnavailable
	default:
		return fallback
	}
}

func toSessionPayload(session domain.Session) sessionPayload {
	payload := sessionPayload{
		SessionID:       session.ID,
		Status:          session.Status.String(),
		TargetScore:     session.Config.TargetScore,
		DiceSides:       session.Config.DiceSides,
		CooldownSeconds: int(session.Config.Cooldown / time.Second),
		MaxPlayers:      session.Config.MaxPlayers,
		PrizeType:       session.Config.PrizeType,
		PrizePolicy:     prizePolicyName(session.Config.PrizePolicy),
		Players:         make([]playerPayload, 0, len(session.Players)),
		Winner:          session.Winner,
		WinningScore:    session.WinningScore,
		PrizeClaimed:    session.PrizeClaimed,
		PrizeClaimedBy:  session.PrizeClaimedBy,
		CreatedAt:       session.CreatedAt.UTC().Format(time.RFC3339),
		ExpiresAt:       session.ExpiresAt.UTC().Format(time.RFC3339),
	}
	for _, player := range session.Players {
		entry := playerPayload{
			PlayerID:    player.ID,
			DisplayName: player.DisplayName,
			LastRoll:    player.LastRoll,
			JoinedAt:    player.JoinedAt.UTC().Format(time.RFC3339),
		}
		if player.LastRollTime != nil {
			entry.LastRollTime = player.LastRollTime.UTC().Format(time.RFC3339)
		}
		payload.Players = append(payload.Players, entry)
	}
	return payload
}

func prizePolicyName(policy domain.PrizePolicy) string {
	switch policy {
	case domain.PrizePolicyRandomPlayer:
		return "random_player"
	case domain.PrizePolicyWinner:
		return "winner"
	default:
		return "unspecified"
	}
}
