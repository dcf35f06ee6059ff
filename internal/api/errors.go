package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pwklam/scrape-chinese-social-media/internal/count"
	"github.com/pwklam/scrape-chinese-social-media/internal/ingest"
	"github.com/pwklam/scrape-chinese-social-media/internal/normalize"
	"github.com/pwklam/scrape-chinese-social-media/internal/storage"
)

// APIError carries the HTTP status an error should be answered with.
type APIError struct {
	error
	httpStatus int
	message    string
}

func (e APIError) Unwrap() error {
	return e.error
}

// NewError wraps err with an explicit status and an optional message.
func NewError(err error, httpStatus int, message string) APIError {
	return APIError{error: err, httpStatus: httpStatus, message: message}
}

func statusFor(err error) int {
	var apiErr APIError
	switch {
	case errors.As(err, &apiErr):
		return apiErr.httpStatus
	case errors.Is(err, count.ErrUnparsableNumber),
		errors.Is(err, count.ErrUnsupportedUnit),
		errors.Is(err, normalize.ErrNegativeCount):
		return http.StatusUnprocessableEntity
	case errors.Is(err, normalize.ErrUnknownPlatform):
		return http.StatusBadRequest
	case errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ingest.ErrRunInProgress):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// ToResponse writes err as a JSON error body.
func ToResponse(c *gin.Context, err error) {
	status := statusFor(err)
	body := gin.H{"error": err.Error()}

	var apiErr APIError
	if errors.As(err, &apiErr) && apiErr.message != "" {
		body["message"] = apiErr.message
	}
	if status == http.StatusInternalServerError {
		body["error"] = "unexpected server error occurred"
	}
	if id, ok := c.Get(requestIDKey); ok {
		body["request_id"] = id
	}
	c.JSON(status, body)
}
