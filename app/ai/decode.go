package ai

import (
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/lysyi3m/adcomb/app/apperr"
)

// Policy decides what happens when an LLM response cannot be decoded or
// fails validation.
type Policy int

const (
	// PolicyFail returns the decode or validation error to the caller.
	PolicyFail Policy = iota
	// PolicyFallback logs the error and returns the fallback value.
	PolicyFallback
)

func (p Policy) String() string {
	if p == PolicyFallback {
		return "fallback"
	}
	return "fail"
}

// DecodeWithPolicy unmarshals raw into T and runs validate on it. Malformed
// JSON is reported as a parse error, a failed validation as the error
// validate returns.
func DecodeWithPolicy[T any](raw string, policy Policy, validate func(*T) error, fallback func(error) T) (T, error) {
	var value T

	err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &value)
	if err != nil {
		err = apperr.Wrap(apperr.KindParse, "LLM returned malformed JSON", err)
	} else if validate != nil {
		err = validate(&value)
	}

	if err == nil {
		return value, nil
	}

	if policy == PolicyFallback && fallback != nil {
		slog.Warn("Using fallback for invalid LLM response", "error", err)
		return fallback(err), nil
	}

	var zero T
	return zero, err
}

func invalidResponse(message string) error {
	return apperr.New(apperr.KindParse, "LLM response is missing required fields").WithDetails(message)
}
