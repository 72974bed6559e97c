// Package errors provides structured error handling for the coordinator.
package errors

import "google.golang.org/grpc/codes"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Session configuration errors
	CodeSessionInvalidTargetScore Code = "SESSION_INVALID_TARGET_SCORE"
	CodeSessionInvalidDiceSides   Code = "SESSION_INVALID_DICE_SIDES"
	CodeSessionInvalidCooldown    Code = "SESSION_INVALID_COOLDOWN"
	CodeSessionInvalidMaxPlayers  Code = "SESSION_INVALID_MAX_PLAYERS"
	CodeSessionInvalidTTL         Code = "SESSION_INVALID_TTL"
	CodeSessionInvalidPrizePolicy Code = "SESSION_INVALID_PRIZE_POLICY"

	// Action validation errors
	CodeSessionEmptyID Code = "SESSION_EMPTY_ID"
	CodeRequestEmptyID Code = "REQUEST_EMPTY_ID"
	CodePlayerEmptyID  Code = "PLAYER_EMPTY_ID"

	// Roll rejections
	CodeSessionFull          Code = "SESSION_FULL"
	CodeInvalidState         Code = "INVALID_STATE"
	CodeGameAlreadyFinished  Code = "GAME_ALREADY_FINISHED"
	CodeCooldownActive       Code = "COOLDOWN_ACTIVE"
	CodeConcurrencyExhausted Code = "CONCURRENCY_EXHAUSTED"
	CodeSessionExpired       Code = "SESSION_EXPIRED"
	CodeDuplicateRequest     Code = "DUPLICATE_REQUEST"
	CodeDeadlineExceeded     Code = "DEADLINE_EXCEEDED"

	// Reward errors
	CodeRewardWinnerMissing Code = "REWARD_WINNER_MISSING"

	// Storage errors
	CodeNotFound Code = "NOT_FOUND"
)

// GRPCCode maps domain codes to gRPC status codes.
func (c Code) GRPCCode() codes.Code {
	switch c {
	// InvalidArgument - validation failures, bad input
	case CodeSessionInvalidTargetScore,
		CodeSessionInvalidDiceSides,
		CodeSessionInvalidCooldown,
		CodeSessionInvalidMaxPlayers,
		CodeSessionInvalidTTL,
		CodeSessionInvalidPrizePolicy,
		CodeSessionEmptyID,
		CodeRequestEmptyID,
		CodePlayerEmptyID:
		return codes.InvalidArgument

	// FailedPrecondition - session state doesn't allow the action
	case CodeSessionFull,
		CodeInvalidState,
		CodeGameAlreadyFinished,
		CodeRewardWinnerMissing:
		return codes.FailedPrecondition

	// ResourceExhausted - the caller must wait before acting again
	case CodeCooldownActive:
		return codes.ResourceExhausted

	// Aborted - concurrency conflict the caller may safely retry
	case CodeConcurrencyExhausted:
		return codes.Aborted

	// AlreadyExists - the same request was already processed
	case CodeDuplicateRequest:
		return codes.AlreadyExists

	// NotFound - resource doesn't exist (expired sessions included)
	case CodeNotFound,
		CodeSessionExpired:
		return codes.NotFound

	// DeadlineExceeded - the request deadline elapsed mid-operation
	case CodeDeadlineExceeded:
		return codes.DeadlineExceeded

	default:
		return codes.Internal
	}
}
