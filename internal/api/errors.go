package api

import (
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"strings"

	"auditdesk/internal/services"
)

// HTTPStatus maps a Service error to its HTTP status code.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, services.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrDecode):
		return http.StatusUnprocessableEntity
	case errors.Is(err, services.ErrIO):
		if errors.Is(err, fs.ErrNotExist) {
			return http.StatusNotFound
		}
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// ErrorMessage renders err as the human-readable message returned to callers.
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	return strings.TrimSpace(err.Error())
}

// NewErrorResponse builds the failure body for err.
func NewErrorResponse(err error, requestID string) ErrorResponse {
	return ErrorResponse{
		Error:     ErrorMessage(err),
		Kind:      services.Kind(err),
		RequestID: requestID,
	}
}

// RemoteError is a failure reported by the daemon.
type RemoteError struct {
	Status  int
	Kind    string
	Message string
}

func (e *RemoteError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("daemon returned status %d", e.Status)
	}
	return e.Message
}

// Unwrap exposes the services marker matching the reported kind, and
// fs.ErrNotExist for 404 responses.
func (e *RemoteError) Unwrap() []error {
	var out []error
	if marker := markerForKind(e.Kind); marker != nil {
		out = append(out, marker)
	}
	if e.Status == http.StatusNotFound {
		out = append(out, fs.ErrNotExist)
	}
	return out
}

func markerForKind(kind string) error {
	switch kind {
	case "io":
		return services.ErrIO
	case "encoding":
		return services.ErrEncoding
	case "decode":
		return services.ErrDecode
	case "validation":
		return services.ErrValidation
	default:
		return nil
	}
}
