package core

import (
	"fmt"
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

const (
	ErrorTokenMissing     = "SCOOPIT_TOKEN_MISSING"
	ErrorRequestFailed    = "SCOOPIT_REQUEST_FAILED"
	ErrorBusiness         = "SCOOPIT_BUSINESS_ERROR"
	ErrorBadInput         = "SCOOPIT_BAD_INPUT"
	ErrorTransportFailure = "SCOOPIT_TRANSPORT_FAILURE"
	ErrorInternal         = "SCOOPIT_INTERNAL_ERROR"
)

// NewTokenMissingError reports that an operation needed a current token of a
// given stage and none was present.
func NewTokenMissingError(message string) *goerrors.Error {
	return goerrors.New(message, goerrors.CategoryAuth).
		WithCode(http.StatusUnauthorized).
		WithTextCode(ErrorTokenMissing)
}

// NewRequestFailureError reports a non-success status from the provider or an
// unsupported HTTP method.
func NewRequestFailureError(status int, message string) *goerrors.Error {
	err := goerrors.New(message, goerrors.CategoryExternal).
		WithCode(status).
		WithTextCode(ErrorRequestFailed)
	err.WithMetadata(map[string]any{"status_code": status})
	return err
}

func NewBadInputError(message string) *goerrors.Error {
	return goerrors.New(message, goerrors.CategoryBadInput).
		WithCode(http.StatusBadRequest).
		WithTextCode(ErrorBadInput)
}

func IsTokenMissing(err error) bool {
	return hasTextCode(err, ErrorTokenMissing)
}

func IsRequestFailure(err error) bool {
	return hasTextCode(err, ErrorRequestFailed)
}

func IsBadInput(err error) bool {
	return hasTextCode(err, ErrorBadInput)
}

// RequestFailureStatus returns the provider status carried by a request
// failure, or zero when err is not one.
func RequestFailureStatus(err error) int {
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) || richErr.TextCode != ErrorRequestFailed {
		return 0
	}
	return richErr.Code
}

func hasTextCode(err error, textCode string) bool {
	if err == nil {
		return false
	}
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		return false
	}
	return richErr.TextCode == textCode
}

func clientErrorMapper(err error) *goerrors.Error {
	if err == nil {
		return nil
	}

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return ensureClientErrorEnvelope(richErr)
	}

	msg := strings.ToLower(strings.TrimSpace(err.Error()))
	switch {
	case strings.Contains(msg, "token") && (strings.Contains(msg, "not set") || strings.Contains(msg, "missing")):
		return ensureClientErrorEnvelope(NewTokenMissingError(err.Error()))
	case strings.Contains(msg, "required"), strings.Contains(msg, "invalid"), strings.Contains(msg, "exclusive"):
		return ensureClientErrorEnvelope(NewBadInputError(err.Error()))
	}

	mapped := goerrors.MapToError(err, goerrors.DefaultErrorMappers())
	return ensureClientErrorEnvelope(mapped)
}

func ensureClientErrorEnvelope(err *goerrors.Error) *goerrors.Error {
	if err == nil {
		return nil
	}
	if err.Code == 0 {
		err.Code = clientHTTPStatus(err.Category)
	}
	if strings.TrimSpace(err.TextCode) == "" {
		err.TextCode = defaultClientTextCode(err.Category)
	}
	if err.Category == goerrors.CategoryInternal && strings.TrimSpace(err.Message) == "" {
		err.Message = "An unexpected error occurred"
	}
	return err
}

func defaultClientTextCode(category goerrors.Category) string {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return ErrorBadInput
	case goerrors.CategoryAuth, goerrors.CategoryAuthz:
		return ErrorTokenMissing
	case goerrors.CategoryExternal:
		return ErrorTransportFailure
	case goerrors.CategoryOperation:
		return ErrorBusiness
	default:
		return ErrorInternal
	}
}

func clientHTTPStatus(category goerrors.Category) int {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return http.StatusBadRequest
	case goerrors.CategoryNotFound:
		return http.StatusNotFound
	case goerrors.CategoryAuth:
		return http.StatusUnauthorized
	case goerrors.CategoryAuthz:
		return http.StatusForbidden
	case goerrors.CategoryExternal:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func statusMessage(prefix string, status int) string {
	return fmt.Sprintf("%s (%d)", prefix, status)
}
