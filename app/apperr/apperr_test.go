package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestKindOfWrappedError(t *testing.T) {
	base := NotFound("campaign not found")
	wrapped := fmt.Errorf("failed to generate content: %w", base)

	if KindOf(wrapped) != KindNotFound {
		t.Errorf("Expected kind %s, got %s", KindNotFound, KindOf(wrapped))
	}
	if !Is(wrapped, KindNotFound) {
		t.Error("Expected Is to match wrapped kind")
	}
}

func TestKindOfPlainError(t *testing.T) {
	if KindOf(errors.New("boom")) != KindInternal {
		t.Error("Expected plain errors to be internal")
	}
	if Is(nil, KindInternal) {
		t.Error("Expected nil error to match no kind")
	}
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		kind   Kind
		status int
	}{
		{KindValidation, http.StatusBadRequest},
		{KindUnauthorized, http.StatusUnauthorized},
		{KindForbidden, http.StatusForbidden},
		{KindNotFound, http.StatusNotFound},
		{KindConflict, http.StatusConflict},
		{KindInsufficientCredits, http.StatusPaymentRequired},
		{KindUpstream, http.StatusInternalServerError},
		{KindParse, http.StatusInternalServerError},
		{KindConfig, http.StatusInternalServerError},
		{KindInternal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		if got := HTTPStatus(tt.kind); got != tt.status {
			t.Errorf("Expected status %d for %s, got %d", tt.status, tt.kind, got)
		}
	}
}

func TestErrorMessageIncludesCause(t *testing.T) {
	err := Wrap(KindUpstream, "LLM request failed", errors.New("status 503"))
	if err.Error() != "LLM request failed: status 503" {
		t.Errorf("Unexpected error message: %s", err.Error())
	}
	if !errors.Is(err, err.Err) {
		t.Error("Expected Unwrap to expose the cause")
	}

	detailed := err.WithDetails("try again later")
	if detailed.Details != "try again later" || err.Details != "" {
		t.Error("Expected WithDetails to return a modified copy")
	}
}
