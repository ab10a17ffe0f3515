package youtube

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/api/googleapi"
)

// APIError wraps an upstream failure with its retry classification, so
// backoff decisions are made from the error value instead of per call
// site.
type APIError struct {
	Op        string
	Retryable bool
	Err       error
}

func (e *APIError) Error() string {
	return fmt.Sprintf("youtube %s: %v", e.Op, e.Err)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// Retryable reports whether an upstream error is a transient rate-limit
// or server-side condition worth another attempt.
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		switch gerr.Code {
		case 429, 500, 502, 503, 504:
			return true
		case 403:
			for _, item := range gerr.Errors {
				switch item.Reason {
				case "rateLimitExceeded", "userRateLimitExceeded", "quotaExceeded":
					return true
				}
			}
			return false
		default:
			return false
		}
	}

	// Network-level errors default to retryable.
	return true
}

// commentsDisabled reports the 403 the API returns for videos whose
// comments are turned off. Surfaced to callers as an empty list, not an
// error.
func commentsDisabled(err error) bool {
	var gerr *googleapi.Error
	if !errors.As(err, &gerr) || gerr.Code != 403 {
		return false
	}
	for _, item := range gerr.Errors {
		if item.Reason == "commentsDisabled" {
			return true
		}
	}
	return false
}
