package api

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"strconv"
	"strings"
)

// RequestDescriptor identifies one outbound keyword tool call for signing.
type RequestDescriptor struct {
	Method         string
	Path           string
	IssuedAtMillis int64
}

// Signer computes the X-Signature header of the search ad API: base64 HMAC-SHA256 over
// "{timestamp}.{METHOD}.{path}". The secret is used exactly as provisioned.
type Signer struct {
	secret []byte
}

func NewSigner(secret string) *Signer {
	return &Signer{secret: []byte(secret)}
}

// Sign is pure; a fresh timestamp per call is the caller's responsibility because the
// upstream rejects signatures outside its acceptance window.
func (s *Signer) Sign(issuedAtMillis int64, method, path string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(signingMessage(issuedAtMillis, method, path)))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func (s *Signer) SignRequest(d RequestDescriptor) string {
	return s.Sign(d.IssuedAtMillis, d.Method, d.Path)
}

func signingMessage(issuedAtMillis int64, method, path string) string {
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	return strconv.FormatInt(issuedAtMillis, 10) + "." + strings.ToUpper(method) + "." + path
}
