package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/valyala/fasthttp"
)

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected ErrorKind
	}{
		{
			name:     "nil error",
			err:      nil,
			expected: KindNone,
		},
		{
			name:     "empty keyword",
			err:      &ValidationError{Field: "keyword", Reason: "empty"},
			expected: KindValidation,
		},
		{
			name:     "wrapped validation error",
			err:      fmt.Errorf("search: %w", &ValidationError{Field: "keyword", Reason: "empty"}),
			expected: KindValidation,
		},
		{
			name:     "HTTP 429 from keyword tool",
			err:      &UpstreamError{Service: ServiceKeywordTool, StatusCode: 429},
			expected: KindUpstream,
		},
		{
			name:     "HTTP 500 from datalab",
			err:      &UpstreamError{Service: ServiceDataLab, StatusCode: 500},
			expected: KindUpstream,
		},
		{
			name:     "timeout",
			err:      &NetworkError{Service: ServiceKeywordTool, Err: fasthttp.ErrTimeout},
			expected: KindNetwork,
		},
		{
			name:     "plain error",
			err:      errors.New("connection refused"),
			expected: KindUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if result := ClassifyError(tt.err); result != tt.expected {
				t.Errorf("Expected %s, got %s for error: %v", tt.expected, result, tt.err)
			}
		})
	}
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{"nil", nil, ""},
		{"empty keyword", &ValidationError{Field: "keyword", Reason: "empty"}, MessageEmptyKeyword},
		{"bad sort", &ValidationError{Field: "sort", Reason: "unknown key"}, MessageInvalidInput},
		{"keyword tool 429", &UpstreamError{Service: ServiceKeywordTool, StatusCode: 429, Body: `{"title":"quota"}`}, "네이버 API 오류: 429"},
		{"datalab 500", &UpstreamError{Service: ServiceDataLab, StatusCode: 500}, "네이버 데이터랩 API 오류: 500"},
		{"network", &NetworkError{Service: ServiceDataLab, Err: errors.New("reset")}, MessageNetwork},
		{"unknown", errors.New("boom"), MessageUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := UserMessage(tt.err); got != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestUserMessage_NeverLeaksBody(t *testing.T) {
	err := &UpstreamError{Service: ServiceKeywordTool, StatusCode: 403, Body: "invalid signature for customer 3523257"}
	if msg := UserMessage(err); msg != "네이버 API 오류: 403" {
		t.Errorf("Unexpected message %q", msg)
	}
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"nil", nil, http.StatusOK},
		{"validation", &ValidationError{Field: "keyword"}, http.StatusBadRequest},
		{"upstream 429", &UpstreamError{StatusCode: 429}, http.StatusTooManyRequests},
		{"upstream 2xx bad body", &UpstreamError{StatusCode: 200, Err: errors.New("eof")}, http.StatusBadGateway},
		{"network", &NetworkError{Err: context.DeadlineExceeded}, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HTTPStatus(tt.err); got != tt.expected {
				t.Errorf("Expected %d, got %d", tt.expected, got)
			}
		})
	}
}

func TestUpstreamPredicates(t *testing.T) {
	if !IsRateLimited(&UpstreamError{StatusCode: 429}) {
		t.Error("Expected 429 to be rate limited")
	}
	if IsRateLimited(&UpstreamError{StatusCode: 500}) {
		t.Error("Expected 500 to not be rate limited")
	}
	if !IsAuthFailure(fmt.Errorf("wrapped: %w", &UpstreamError{StatusCode: 403})) {
		t.Error("Expected wrapped 403 to be an auth failure")
	}
	if IsAuthFailure(&NetworkError{Err: errors.New("x")}) {
		t.Error("Expected network error to not be an auth failure")
	}
}

func TestNetworkError_Timeout(t *testing.T) {
	if !(&NetworkError{Err: fasthttp.ErrTimeout}).Timeout() {
		t.Error("Expected fasthttp timeout to be reported")
	}
	if !(&NetworkError{Err: fmt.Errorf("ctx: %w", context.DeadlineExceeded)}).Timeout() {
		t.Error("Expected context deadline to be reported")
	}
	if (&NetworkError{Err: errors.New("reset")}).Timeout() {
		t.Error("Expected reset to not be a timeout")
	}
}
