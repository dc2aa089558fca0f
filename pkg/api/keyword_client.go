package api

import (
	"context"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/valyala/fasthttp"

	"keyword-volume-go/pkg/logger"
)

const (
	DefaultKeywordToolBaseURL = "https://api.searchad.naver.com"
	KeywordToolPath           = "/keywordstool"

	maxLoggedBody = 2048
)

// KeywordClientConfig carries the search ad credentials. Nothing here is global: tests
// and binaries pass their own values.
type KeywordClientConfig struct {
	BaseURL    string
	APIKey     string
	SecretKey  string
	CustomerID string
	Connection ConnectionConfig
}

// KeywordClient calls the signed keywordstool endpoint.
type KeywordClient struct {
	baseURL    string
	apiKey     string
	customerID string
	signer     *Signer
	transport  *transport
}

func NewKeywordClient(cfg KeywordClientConfig, opts ...Option) *KeywordClient {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultKeywordToolBaseURL
	}
	return &KeywordClient{
		baseURL:    baseURL,
		apiKey:     cfg.APIKey,
		customerID: cfg.CustomerID,
		signer:     NewSigner(cfg.SecretKey),
		transport:  newTransport(ServiceKeywordTool, cfg.Connection, opts),
	}
}

// FetchMetrics returns the related keywords of keyword in upstream order.
func (c *KeywordClient) FetchMetrics(ctx context.Context, keyword string) (*MetricsResult, error) {
	kw, err := ValidateKeyword(keyword)
	if err != nil {
		return nil, err
	}

	desc := RequestDescriptor{
		Method:         fasthttp.MethodGet,
		Path:           KeywordToolPath,
		IssuedAtMillis: c.transport.now().UnixMilli(),
	}
	headers := map[string]string{
		"X-Timestamp": strconv.FormatInt(desc.IssuedAtMillis, 10),
		"X-API-KEY":   c.apiKey,
		"X-Customer":  c.customerID,
		"X-Signature": c.signer.SignRequest(desc),
	}

	query := url.Values{}
	query.Set("hintKeywords", kw)
	query.Set("showDetail", "1")

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.baseURL + desc.Path + "?" + query.Encode())
	req.Header.SetMethod(desc.Method)
	req.Header.Set("Accept", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	log := c.transport.log.WithField("keyword", kw)
	log.WithFields(logger.MaskHeaders(headers)).Debug("Sending keywordstool request")

	start := time.Now()
	if err := c.transport.do(ctx, req, resp); err != nil {
		log.WithError(err).Warn("keywordstool request failed")
		return nil, err
	}

	status := resp.StatusCode()
	body := append([]byte(nil), resp.Body()...)

	if !isSuccess(status) {
		upstreamErr := &UpstreamError{Service: ServiceKeywordTool, StatusCode: status, Body: string(body)}
		log.WithFields(map[string]interface{}{
			"status": status,
			"body":   logger.MaskLogMessage(logger.Truncate(string(body), maxLoggedBody)),
			"auth":   IsAuthFailure(upstreamErr),
		}).Error("keywordstool returned non-success status")
		return nil, upstreamErr
	}

	parsed, err := parseKeywordList(body)
	if err != nil {
		log.WithError(err).WithField("body", logger.Truncate(string(body), maxLoggedBody)).Error("keywordstool response unreadable")
		return nil, &UpstreamError{Service: ServiceKeywordTool, StatusCode: status, Body: string(body), Err: err}
	}

	if parsed.droppedEmpty > 0 {
		log.WithField("dropped", parsed.droppedEmpty).Warn("Dropped keywordstool entries without relKeyword")
	}

	result := &MetricsResult{
		Keyword:   kw,
		Records:   parsed.records,
		NoResults: len(parsed.records) == 0,
	}

	log.WithFields(map[string]interface{}{
		"records":      len(result.Records),
		"list_missing": parsed.listMissing,
		"duration_ms":  time.Since(start).Milliseconds(),
	}).Debug("keywordstool request completed")

	return result, nil
}
