package api

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/valyala/fasthttp"
)

// Upstream service names, used in errors, logs and metric labels.
const (
	ServiceKeywordTool = "keywordtool"
	ServiceDataLab     = "datalab"
)

// ValidationError rejects input before any network activity.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// UpstreamError means the service answered with a non-success status or an unreadable
// success body. Body is for logs only.
type UpstreamError struct {
	Service    string
	StatusCode int
	Body       string
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s returned status %d: %v", e.Service, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s returned status %d", e.Service, e.StatusCode)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// NetworkError covers everything that kept a response from arriving: DNS, resets,
// deadlines, cancelled searches and a saturated in-flight limiter.
type NetworkError struct {
	Service string
	Err     error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s request failed: %v", e.Service, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// Timeout reports whether the call hit its deadline.
func (e *NetworkError) Timeout() bool {
	return errors.Is(e.Err, fasthttp.ErrTimeout) || errors.Is(e.Err, context.DeadlineExceeded)
}

// ValidateKeyword trims keyword and rejects it when nothing is left.
func ValidateKeyword(keyword string) (string, error) {
	kw := strings.TrimSpace(keyword)
	if kw == "" {
		return "", &ValidationError{Field: "keyword", Reason: "must not be empty"}
	}
	return kw, nil
}
