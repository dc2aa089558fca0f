package api

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind is the user-facing category of a failed search.
type ErrorKind int

const (
	KindNone ErrorKind = iota
	KindValidation
	KindUpstream
	KindNetwork
	KindUnknown
)

func (k ErrorKind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindValidation:
		return "validation"
	case KindUpstream:
		return "upstream"
	case KindNetwork:
		return "network"
	default:
		return "unknown"
	}
}

// Messages shown to end users. Raw upstream bodies never appear here.
const (
	MessageEmptyKeyword = "키워드를 입력해주세요."
	MessageInvalidInput = "요청 값이 올바르지 않습니다."
	MessageNetwork      = "API 요청에 실패했습니다."
	MessageUnknown      = "검색에 실패했습니다."
	MessageNoResults    = "검색 결과가 없습니다."
)

// ClassifyError maps an error returned by the clients onto its kind.
func ClassifyError(err error) ErrorKind {
	if err == nil {
		return KindNone
	}

	var validation *ValidationError
	if errors.As(err, &validation) {
		return KindValidation
	}

	var upstream *UpstreamError
	if errors.As(err, &upstream) {
		return KindUpstream
	}

	var network *NetworkError
	if errors.As(err, &network) {
		return KindNetwork
	}

	return KindUnknown
}

// UserMessage returns the localized message for display. Upstream failures name the
// status code so users can tell a rate limit from an outage.
func UserMessage(err error) string {
	var validation *ValidationError
	var upstream *UpstreamError

	switch ClassifyError(err) {
	case KindNone:
		return ""
	case KindValidation:
		errors.As(err, &validation)
		if validation.Field == "keyword" {
			return MessageEmptyKeyword
		}
		return MessageInvalidInput
	case KindUpstream:
		errors.As(err, &upstream)
		if upstream.Service == ServiceDataLab {
			return fmt.Sprintf("네이버 데이터랩 API 오류: %d", upstream.StatusCode)
		}
		return fmt.Sprintf("네이버 API 오류: %d", upstream.StatusCode)
	case KindNetwork:
		return MessageNetwork
	default:
		return MessageUnknown
	}
}

// HTTPStatus is the status the inbound surface answers with for err.
func HTTPStatus(err error) int {
	var upstream *UpstreamError

	switch ClassifyError(err) {
	case KindNone:
		return http.StatusOK
	case KindValidation:
		return http.StatusBadRequest
	case KindUpstream:
		errors.As(err, &upstream)
		if upstream.StatusCode < 400 {
			// 2xx with an undecodable body
			return http.StatusBadGateway
		}
		return upstream.StatusCode
	default:
		return http.StatusInternalServerError
	}
}

// IsRateLimited reports an upstream 429.
func IsRateLimited(err error) bool {
	var upstream *UpstreamError
	return errors.As(err, &upstream) && upstream.StatusCode == http.StatusTooManyRequests
}

// IsAuthFailure reports 401/403, which for the keyword tool usually means a stale
// timestamp or a wrong secret.
func IsAuthFailure(err error) bool {
	var upstream *UpstreamError
	if !errors.As(err, &upstream) {
		return false
	}
	return upstream.StatusCode == http.StatusUnauthorized || upstream.StatusCode == http.StatusForbidden
}
