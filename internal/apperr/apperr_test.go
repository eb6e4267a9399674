package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestKindStatusMapping(t *testing.T) {
	cases := []struct {
		kind   Kind
		status int
	}{
		{KindUnauthorized, http.StatusUnauthorized},
		{KindInvalidCredentials, http.StatusUnauthorized},
		{KindForbidden, http.StatusForbidden},
		{KindBadRequest, http.StatusBadRequest},
		{KindInvalidPhotoType, http.StatusBadRequest},
		{KindNotFound, http.StatusNotFound},
		{KindConflict, http.StatusConflict},
		{KindValidation, http.StatusUnprocessableEntity},
		{KindInvalidTransition, http.StatusUnprocessableEntity},
		{KindVerificationEmail, http.StatusInternalServerError},
		{KindInternal, http.StatusInternalServerError},
	}

	for _, tc := range cases {
		if got := tc.kind.Status(); got != tc.status {
			t.Errorf("kind %s: expected status %d, got %d", tc.kind.Code(), tc.status, got)
		}
	}
}

func TestKindOfUnwrapsChain(t *testing.T) {
	base := FromKind(KindInvalidTransition)
	wrapped := fmt.Errorf("transition report: %w", base)

	kind, ok := KindOf(wrapped)
	if !ok {
		t.Fatal("expected wrapped app error to be recognized")
	}
	if kind != KindInvalidTransition {
		t.Errorf("expected KindInvalidTransition, got %s", kind.Code())
	}
}

func TestKindOfForeignError(t *testing.T) {
	kind, ok := KindOf(errors.New("plain failure"))
	if ok {
		t.Fatal("expected foreign error to not be recognized")
	}
	if kind != KindInternal {
		t.Errorf("expected fallback KindInternal, got %s", kind.Code())
	}
}

func TestDefaultMessages(t *testing.T) {
	if got := FromKind(KindUnauthorized).Message; got != "You don't have the right to access this resource." {
		t.Errorf("unexpected unauthorized message: %q", got)
	}
	if got := FromKind(KindForbidden).Message; got != "Administrator privileges required." {
		t.Errorf("unexpected forbidden message: %q", got)
	}
}
