package errors

import (
	"net/http"

	"github.com/gigpass/gp-checkout/pkg/status"
)

// ApplicativeError carries the HTTP status code and machine-readable
// status alongside the human-readable message, so handlers can answer
// without inspecting error types.
type ApplicativeError struct {
	HTTPStatusCode int
	Status         string
	Message        string
}

func (e *ApplicativeError) Error() string {
	return e.Message
}

func New(httpStatusCode int, applicativeStatus string, message string) error {
	return &ApplicativeError{
		HTTPStatusCode: httpStatusCode,
		Status:         applicativeStatus,
		Message:        message,
	}
}

// Destruct resolves any error into an ApplicativeError. Unknown error
// values come back as internal server errors with their message kept
// out of the response payload.
func Destruct(err error) *ApplicativeError {
	if ae, ok := err.(*ApplicativeError); ok {
		return ae
	}

	return &ApplicativeError{
		HTTPStatusCode: http.StatusInternalServerError,
		Status:         status.INTERNAL_SERVER_ERROR,
		Message:        "an unexpected error occurred",
	}
}
