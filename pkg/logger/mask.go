package logger

import (
	"crypto/sha256"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

var secretPattern = regexp.MustCompile(`(?i)(api[-_]?key|secret|signature|token)([=:]\s*)[^\s&",]+`)

// sensitiveHeaders are upstream auth headers that must never reach a log line in clear.
var sensitiveHeaders = []string{"x-api-key", "x-signature", "x-customer", "x-naver-client-secret", "x-naver-client-id"}

// MaskSecret replaces a credential with a short fingerprint so two log lines can still be
// correlated without revealing the value.
func MaskSecret(secret string) string {
	if secret == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(secret))
	return fmt.Sprintf("***#%x", sum[:4])
}

// MaskHeaders returns a copy of headers with every credential header fingerprinted.
func MaskHeaders(headers map[string]string) map[string]interface{} {
	masked := make(map[string]interface{}, len(headers))
	for k, v := range headers {
		if isSensitiveHeader(k) {
			masked[k] = MaskSecret(v)
			continue
		}
		masked[k] = v
	}
	return masked
}

// MaskLogMessage strips inline key=value credentials from free text such as upstream
// error bodies.
func MaskLogMessage(message string) string {
	return secretPattern.ReplaceAllString(message, "${1}${2}***")
}

// Truncate caps a diagnostic body at max bytes, backing off to a rune boundary so
// Hangul text is never cut mid-character.
func Truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "...(truncated)"
}

func isSensitiveHeader(name string) bool {
	lower := strings.ToLower(name)
	for _, h := range sensitiveHeaders {
		if lower == h {
			return true
		}
	}
	return false
}
