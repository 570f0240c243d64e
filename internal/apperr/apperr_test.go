package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestKindOfUnwrapsWrappedErrors(t *testing.T) {
	err := fmt.Errorf("toggle publish: %w", Forbidden("only the owner can publish"))

	if KindOf(err) != KindForbidden {
		t.Fatalf("expected forbidden, got %s", KindOf(err))
	}
	if !Is(err, KindForbidden) {
		t.Fatal("Is should match the wrapped kind")
	}
	if KindOf(errors.New("boom")) != KindInternal {
		t.Fatal("plain errors should classify as internal")
	}
}

func TestStatusMapping(t *testing.T) {
	cases := map[Kind]int{
		KindBadRequest:   http.StatusBadRequest,
		KindUnauthorized: http.StatusUnauthorized,
		KindForbidden:    http.StatusForbidden,
		KindNotFound:     http.StatusNotFound,
		KindConflict:     http.StatusConflict,
		KindInternal:     http.StatusInternalServerError,
	}
	for kind, want := range cases {
		if got := kind.Status(); got != want {
			t.Fatalf("%s: expected %d, got %d", kind, want, got)
		}
	}
}

func TestInternalKeepsCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := Internal("failed to save video", cause)
	if !errors.Is(err, cause) {
		t.Fatal("cause should be reachable through Unwrap")
	}
}
