package backend

import (
	"errors"
	"fmt"
)

var (
	// ErrUnavailable is returned when the backend could not be reached.
	ErrUnavailable = errors.New("backend unavailable")
	// ErrUnauthorized is returned when the backend rejects the token or no token is held.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrNotImage is returned by the upload pre-check for non-image files.
	ErrNotImage = errors.New("only image files are allowed")
	// ErrUploadTooLarge is returned by the upload pre-check for oversize files.
	ErrUploadTooLarge = errors.New("image file is too large")
	// ErrEmptyUpload is returned by the upload pre-check for empty files.
	ErrEmptyUpload = errors.New("image file is empty")
)

// APIError carries a non-success backend reply.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("backend returned status %d: %s", e.StatusCode, e.Message)
}

// Message extracts the server message from err, if any.
func Message(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return ""
}
