package youtube

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"google.golang.org/api/googleapi"
)

func gapiErr(code int, reason string) error {
	e := &googleapi.Error{Code: code}
	if reason != "" {
		e.Errors = []googleapi.ErrorItem{{Reason: reason}}
	}
	return e
}

func TestRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"context canceled", context.Canceled, false},
		{"context deadline", fmt.Errorf("wrapped: %w", context.DeadlineExceeded), false},
		{"429 too many requests", gapiErr(429, ""), true},
		{"500 server error", gapiErr(500, ""), true},
		{"503 unavailable", gapiErr(503, ""), true},
		{"403 quota exceeded", gapiErr(403, "quotaExceeded"), true},
		{"403 rate limit", gapiErr(403, "rateLimitExceeded"), true},
		{"403 user rate limit", gapiErr(403, "userRateLimitExceeded"), true},
		{"403 forbidden without quota reason", gapiErr(403, "forbidden"), false},
		{"400 bad request", gapiErr(400, ""), false},
		{"404 not found", gapiErr(404, ""), false},
		{"wrapped api error", fmt.Errorf("search: %w", gapiErr(429, "")), true},
		{"plain network error", errors.New("connection reset"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Retryable(tt.err); got != tt.want {
				t.Errorf("Retryable(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestCommentsDisabled(t *testing.T) {
	if !commentsDisabled(gapiErr(403, "commentsDisabled")) {
		t.Error("commentsDisabled(403 commentsDisabled) = false, want true")
	}
	if commentsDisabled(gapiErr(403, "quotaExceeded")) {
		t.Error("commentsDisabled(403 quotaExceeded) = true, want false")
	}
	if commentsDisabled(gapiErr(404, "commentsDisabled")) {
		t.Error("commentsDisabled(404) = true, want false")
	}
	if commentsDisabled(errors.New("not an api error")) {
		t.Error("commentsDisabled(plain error) = true, want false")
	}
}

func TestAPIError_Unwrap(t *testing.T) {
	inner := gapiErr(429, "")
	err := &APIError{Op: "search", Retryable: true, Err: inner}

	var gerr *googleapi.Error
	if !errors.As(err, &gerr) {
		t.Fatal("errors.As failed to unwrap the googleapi error")
	}
	if gerr.Code != 429 {
		t.Errorf("unwrapped code = %d, want 429", gerr.Code)
	}
	if !Retryable(err) {
		t.Error("Retryable(wrapped 429) = false, want true")
	}
}
