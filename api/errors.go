package api

import (
	"fmt"
	"net/http"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-scoopit/core"
)

const ErrorBadResponse = "SCOOPIT_BAD_RESPONSE"

const unknownStatusDescription = "Unknown Error"

var statusDescriptions = map[int]string{
	http.StatusBadRequest:       "Bad Request",
	http.StatusUnauthorized:     "Unauthorized",
	http.StatusForbidden:        "Forbidden",
	http.StatusNotFound:         "Not Found",
	http.StatusMethodNotAllowed: "Method Not Allowed",
}

// StatusDescription returns the fixed description for status, or
// "Unknown Error" for codes outside the table.
func StatusDescription(status int) string {
	if description, ok := statusDescriptions[status]; ok {
		return description
	}
	return unknownStatusDescription
}

// NewBusinessError reports an envelope with success=false.
func NewBusinessError(status int, providerError string) *goerrors.Error {
	description := StatusDescription(status)
	err := goerrors.New(fmt.Sprintf("%d %s: %s", status, description, providerError), goerrors.CategoryOperation).
		WithCode(status).
		WithTextCode(core.ErrorBusiness)
	err.WithMetadata(map[string]any{
		"status_code":    status,
		"description":    description,
		"provider_error": providerError,
	})
	return err
}

func NewBadResponseError(status int, cause error) *goerrors.Error {
	err := goerrors.Wrap(cause, goerrors.CategoryExternal, "api: response is not a valid envelope").
		WithCode(http.StatusBadGateway).
		WithTextCode(ErrorBadResponse)
	err.WithMetadata(map[string]any{"status_code": status})
	return err
}

func IsBusinessError(err error) bool {
	return hasTextCode(err, core.ErrorBusiness)
}

func IsBadResponse(err error) bool {
	return hasTextCode(err, ErrorBadResponse)
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
