package dyndns

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

const (
	MessageMissingParameters = "Missing request parameters"
	MessageInvalidToken      = "Invalid token"
	MessageUnexpected        = "Something went wrong"
)

type ValidationError struct {
	Missing []string
}

func (e *ValidationError) Error() string {
	if len(e.Missing) == 0 {
		return MessageMissingParameters
	}
	return MessageMissingParameters + ": " + strings.Join(e.Missing, ", ")
}

type AuthReason string

const InvalidToken AuthReason = "InvalidToken"

type AuthError struct {
	Reason   AuthReason
	ClientID string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("authentication failed for client %s: %s", e.ClientID, e.Reason)
}

// ProviderError is a failed DNS provider call. Its message is returned to the
// caller.
type ProviderError struct {
	Op  string
	Err error
}

func (e *ProviderError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// StatusCode maps an invocation error to the HTTP status returned to the caller.
func StatusCode(err error) int {
	var validationErr *ValidationError
	var authErr *AuthError
	var providerErr *ProviderError

	switch {
	case err == nil:
		return http.StatusOK
	case errors.As(err, &validationErr):
		return http.StatusBadRequest
	case errors.As(err, &authErr):
		return http.StatusUnauthorized
	case errors.As(err, &providerErr):
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// publicMessage is the error text that may leave the process.
func publicMessage(err error) string {
	var validationErr *ValidationError
	var authErr *AuthError
	var providerErr *ProviderError

	switch {
	case errors.As(err, &validationErr):
		return validationErr.Error()
	case errors.As(err, &authErr):
		return MessageInvalidToken
	case errors.As(err, &providerErr):
		return providerErr.Error()
	default:
		return MessageUnexpected
	}
}
