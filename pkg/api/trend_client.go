package api

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/valyala/fasthttp"

	"keyword-volume-go/pkg/logger"
	"keyword-volume-go/pkg/record"
)

const (
	DefaultDataLabBaseURL = "https://openapi.naver.com"
	DataLabSearchPath     = "/v1/datalab/search"

	dateLayout    = "2006-01-02"
	trendTimeUnit = "month"
)

// TrendClientConfig carries the open API client credentials. DataLab authenticates with
// the id/secret pair only; it is never signed.
type TrendClientConfig struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	Connection   ConnectionConfig
}

// TrendResult is the flattened monthly series for one keyword.
type TrendResult struct {
	Keyword   string              `json:"keyword"`
	StartDate string              `json:"startDate"`
	EndDate   string              `json:"endDate"`
	TimeUnit  string              `json:"timeUnit"`
	Points    []record.TrendPoint `json:"points"`
	NoResults bool                `json:"noResults"`
}

type trendRequest struct {
	StartDate     string         `json:"startDate"`
	EndDate       string         `json:"endDate"`
	TimeUnit      string         `json:"timeUnit"`
	KeywordGroups []keywordGroup `json:"keywordGroups"`
}

type keywordGroup struct {
	GroupName string   `json:"groupName"`
	Keywords  []string `json:"keywords"`
}

type trendResponse struct {
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
	TimeUnit  string `json:"timeUnit"`
	Results   []struct {
		Title    string              `json:"title"`
		Keywords []string            `json:"keywords"`
		Data     []record.TrendPoint `json:"data"`
	} `json:"results"`
}

// TrendClient calls the DataLab search trend endpoint.
type TrendClient struct {
	baseURL      string
	clientID     string
	clientSecret string
	transport    *transport
}

func NewTrendClient(cfg TrendClientConfig, opts ...Option) *TrendClient {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultDataLabBaseURL
	}
	return &TrendClient{
		baseURL:      baseURL,
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		transport:    newTransport(ServiceDataLab, cfg.Connection, opts),
	}
}

// FetchTrend returns the monthly ratios for the year ending today, in upstream order.
func (c *TrendClient) FetchTrend(ctx context.Context, keyword string) (*TrendResult, error) {
	kw, err := ValidateKeyword(keyword)
	if err != nil {
		return nil, err
	}

	start, end := TrendWindow(c.transport.now())
	payload := trendRequest{
		StartDate: start.Format(dateLayout),
		EndDate:   end.Format(dateLayout),
		TimeUnit:  trendTimeUnit,
		KeywordGroups: []keywordGroup{
			{GroupName: kw, Keywords: []string{kw}},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal trend request: %w", err)
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.baseURL + DataLabSearchPath)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.Set("X-Naver-Client-Id", c.clientID)
	req.Header.Set("X-Naver-Client-Secret", c.clientSecret)
	req.Header.SetContentType("application/json")
	req.SetBody(body)

	log := c.transport.log.WithFields(map[string]interface{}{
		"keyword":    kw,
		"start_date": payload.StartDate,
		"end_date":   payload.EndDate,
	})
	log.Debug("Sending datalab request")

	if err := c.transport.do(ctx, req, resp); err != nil {
		log.WithError(err).Warn("datalab request failed")
		return nil, err
	}

	status := resp.StatusCode()
	respBody := append([]byte(nil), resp.Body()...)

	if !isSuccess(status) {
		log.WithFields(map[string]interface{}{
			"status": status,
			"body":   logger.MaskLogMessage(logger.Truncate(string(respBody), maxLoggedBody)),
		}).Error("datalab returned non-success status")
		return nil, &UpstreamError{Service: ServiceDataLab, StatusCode: status, Body: string(respBody)}
	}

	var raw trendResponse
	if err := json.Unmarshal(respBody, &raw); err != nil {
		log.WithError(err).WithField("body", logger.Truncate(string(respBody), maxLoggedBody)).Error("datalab response unreadable")
		return nil, &UpstreamError{Service: ServiceDataLab, StatusCode: status, Body: string(respBody), Err: err}
	}

	result := &TrendResult{
		Keyword:   kw,
		StartDate: payload.StartDate,
		EndDate:   payload.EndDate,
		TimeUnit:  trendTimeUnit,
		Points:    []record.TrendPoint{},
	}
	// upstream order is chronological; never re-sort
	for _, group := range raw.Results {
		result.Points = append(result.Points, group.Data...)
	}
	result.NoResults = len(result.Points) == 0

	log.WithField("points", len(result.Points)).Debug("datalab request completed")
	return result, nil
}

// TrendWindow returns the calendar dates [today one year ago, today] in UTC. Feb 29
// maps to Feb 28 of the previous year instead of rolling into March.
func TrendWindow(now time.Time) (start, end time.Time) {
	y, m, d := now.UTC().Date()
	end = time.Date(y, m, d, 0, 0, 0, 0, time.UTC)

	if last := daysIn(m, y-1); d > last {
		d = last
	}
	start = time.Date(y-1, m, d, 0, 0, 0, 0, time.UTC)
	return start, end
}

func daysIn(m time.Month, year int) int {
	return time.Date(year, m+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
