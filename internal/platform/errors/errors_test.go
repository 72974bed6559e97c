package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestErrorIsMatchesByCode(t *testing.T) {
	err := New(CodeSessionFull, "session has no free seats")
	if !stderrors.Is(err, New(CodeSessionFull, "other message")) {
		t.Fatal("expected errors with the same code to match")
	}
	if stderrors.Is(err, New(CodeInvalidState, "other code")) {
		t.Fatal("expected errors with different codes not to match")
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := stderrors.New("disk full")
	err := Wrap(CodeUnknown, "persist session", cause)
	if !stderrors.Is(err, cause) {
		t.Fatal("expected wrapped cause to be found in chain")
	}
}

func TestCodeOfWalksChain(t *testing.T) {
	inner := New(CodeCooldownActive, "cooldown active")
	outer := fmt.Errorf("handle roll: %w", inner)
	if got := CodeOf(outer); got != CodeCooldownActive {
		t.Fatalf("code = %q, want %q", got, CodeCooldownActive)
	}
	if got := CodeOf(stderrors.New("plain")); got != CodeUnknown {
		t.Fatalf("code = %q, want %q", got, CodeUnknown)
	}
}

func TestGRPCCodeMapping(t *testing.T) {
	tests := []struct {
		code Code
		want codes.Code
	}{
		{CodeRequestEmptyID, codes.InvalidArgument},
		{CodeSessionFull, codes.FailedPrecondition},
		{CodeInvalidState, codes.FailedPrecondition},
		{CodeGameAlreadyFinished, codes.FailedPrecondition},
		{CodeCooldownActive, codes.ResourceExhausted},
		{CodeConcurrencyExhausted, codes.Aborted},
		{CodeDuplicateRequest, codes.AlreadyExists},
		{CodeSessionExpired, codes.NotFound},
		{CodeNotFound, codes.NotFound},
		{CodeDeadlineExceeded, codes.DeadlineExceeded},
		{CodeUnknown, codes.Internal},
	}
	for _, tc := range tests {
		if got := tc.code.GRPCCode(); got != tc.want {
			t.Fatalf("%s maps to %v, want %v", tc.code, got, tc.want)
		}
	}
}

func TestToGRPCStatusCarriesErrorInfo(t *testing.T) {
	err := WithMetadata(CodeCooldownActive, "cooldown active", map[string]string{
		"remaining_seconds": "7",
	})

	st, ok := status.FromError(err.ToGRPCStatus())
	if !ok {
		t.Fatal("expected a gRPC status error")
	}
	if st.Code() != codes.ResourceExhausted {
		t.Fatalf("status code = %v, want %v", st.Code(), codes.ResourceExhausted)
	}

	details := st.Details()
	if len(details) != 1 {
		t.Fatalf("expected 1 detail, got %d", len(details))
	}
}
