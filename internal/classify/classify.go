// Package classify turns raw failures from external collaborators (scraping,
// drafting, sending) into typed, retry-annotated errors. Classification is a
// priority-ordered rule match over the failure message and optional HTTP
// status code; the first matching rule wins.
package classify

import (
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"
)

// ErrorType identifies the failure category assigned by the classifier.
type ErrorType string

// Failure categories, from most to least specific.
const (
	ErrorTypeTimeout      ErrorType = "TIMEOUT"
	ErrorTypeBotDetection ErrorType = "BOT_DETECTION"
	ErrorTypeNetwork      ErrorType = "NETWORK_ERROR"
	ErrorTypeBrowser      ErrorType = "BROWSER_ERROR"
	ErrorTypeParsing      ErrorType = "PARSING_ERROR"
	ErrorTypeUnknown      ErrorType = "UNKNOWN"
)

// maxJitter bounds the random component added to every backoff delay.
const maxJitter = 2 * time.Second

// ClassifiedError annotates a raw failure with a retry policy. It is a value
// produced per failure and consumed immediately by the caller; it is never
// stored as an entity.
type ClassifiedError struct {
	Type       ErrorType
	Message    string
	StatusCode int
	Retryable  bool
	RetryDelay time.Duration
	MaxRetries int
}

// Error implements the error interface.
func (e *ClassifiedError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s (status %d): %s", e.Type, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// rule is one entry in the priority-ordered classification table.
type rule struct {
	match      func(msg string, statusCode int) bool
	errType    ErrorType
	retryable  bool
	retryDelay time.Duration
	maxRetries int
}

// rules is evaluated top to bottom; the first hit wins. A 403 or 429 status
// is always bot detection no matter what the message says, so that check
// sits above the text-based rules.
var rules = []rule{
	{
		match: func(msg string, code int) bool {
			return code == 403 || code == 429
		},
		errType:    ErrorTypeBotDetection,
		retryable:  false,
		retryDelay: 60 * time.Second,
		maxRetries: 1,
	},
	{
		match: func(msg string, code int) bool {
			return containsAny(msg, "timeout", "timed out", "navigation timeout", "deadline exceeded")
		},
		errType:    ErrorTypeTimeout,
		retryable:  true,
		retryDelay: 5 * time.Second,
		maxRetries: 3,
	},
	{
		match: func(msg string, code int) bool {
			return containsAny(msg, "forbidden", "blocked", "captcha", "bot detect", "access denied")
		},
		errType:    ErrorTypeBotDetection,
		retryable:  false,
		retryDelay: 60 * time.Second,
		maxRetries: 1,
	},
	{
		match: func(msg string, code int) bool {
			return code == 502 || code == 503 || code == 504 ||
				containsAny(msg, "dns", "no such host", "connection refused", "connection reset", "econnrefused", "econnreset")
		},
		errType:    ErrorTypeNetwork,
		retryable:  true,
		retryDelay: 10 * time.Second,
		maxRetries: 3,
	},
	{
		match: func(msg string, code int) bool {
			return containsAny(msg, "browser", "session closed", "target closed", "protocol error", "page crashed")
		},
		errType:    ErrorTypeBrowser,
		retryable:  true,
		retryDelay: 3 * time.Second,
		maxRetries: 2,
	},
	{
		match: func(msg string, code int) bool {
			return code == 400 || containsAny(msg, "malformed", "invalid", "parse error", "unexpected token")
		},
		errType:    ErrorTypeParsing,
		retryable:  false,
		retryDelay: 0,
		maxRetries: 0,
	},
	{
		match: func(msg string, code int) bool {
			return code >= 500 && code < 600
		},
		errType:    ErrorTypeNetwork,
		retryable:  true,
		retryDelay: 15 * time.Second,
		maxRetries: 2,
	},
}

// defaultRule catches everything the table does not.
var defaultRule = rule{
	errType:    ErrorTypeUnknown,
	retryable:  true,
	retryDelay: 5 * time.Second,
	maxRetries: 2,
}

// Classify maps a raw failure message and optional HTTP status code
// (zero when not applicable) to a ClassifiedError.
func Classify(message string, statusCode int) *ClassifiedError {
	msg := strings.ToLower(message)

	matched := defaultRule
	for _, r := range rules {
		if r.match(msg, statusCode) {
			matched = r
			break
		}
	}

	return &ClassifiedError{
		Type:       matched.errType,
		Message:    message,
		StatusCode: statusCode,
		Retryable:  matched.retryable,
		RetryDelay: matched.retryDelay,
		MaxRetries: matched.maxRetries,
	}
}

// ClassifyError classifies a raw error. A *ClassifiedError anywhere in the
// chain passes through unchanged so double classification is harmless.
func ClassifyError(err error) *ClassifiedError {
	if err == nil {
		return nil
	}
	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce
	}
	return Classify(err.Error(), 0)
}

// BackoffDelay computes the jittered exponential backoff before the next
// attempt: retryDelay × 2^retryCount plus up to maxJitter of random jitter.
func BackoffDelay(ce *ClassifiedError, retryCount int) time.Duration {
	if retryCount < 0 {
		retryCount = 0
	}
	base := ce.RetryDelay << uint(retryCount)
	jitter := time.Duration(rand.Int63n(int64(maxJitter)))
	return base + jitter
}

// ShouldRetry reports whether another automatic attempt is allowed: the
// error must be retryable and the retry budget not yet exhausted.
func ShouldRetry(ce *ClassifiedError, retryCount int) bool {
	return ce.Retryable && retryCount < ce.MaxRetries
}

// containsAny reports whether s contains any of the given substrings.
func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
