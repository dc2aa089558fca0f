package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"keyword-volume-go/pkg/api"
	"keyword-volume-go/pkg/limiter"
	"keyword-volume-go/pkg/logger"
	"keyword-volume-go/pkg/metrics"
	"keyword-volume-go/pkg/record"
)

type stubKeywords struct {
	records []record.MetricRecord
	err     error
	panics  bool
	calls   int32
}

func (s *stubKeywords) FetchMetrics(ctx context.Context, keyword string) (*api.MetricsResult, error) {
	atomic.AddInt32(&s.calls, 1)
	if s.panics {
		panic("keyword stub failure")
	}
	kw, err := api.ValidateKeyword(keyword)
	if err != nil {
		return nil, err
	}
	if s.err != nil {
		return nil, s.err
	}
	return &api.MetricsResult{Keyword: kw, Records: s.records, NoResults: len(s.records) == 0}, nil
}

type stubTrend struct {
	err error
}

func (s *stubTrend) FetchTrend(ctx context.Context, keyword string) (*api.TrendResult, error) {
	kw, err := api.ValidateKeyword(keyword)
	if err != nil {
		return nil, err
	}
	if s.err != nil {
		return nil, s.err
	}
	return &api.TrendResult{
		Keyword:   kw,
		StartDate: "2023-03-15",
		EndDate:   "2024-03-15",
		TimeUnit:  "month",
		Points:    []record.TrendPoint{{Period: "2023-03-01", Ratio: 12.5}, {Period: "2023-04-01", Ratio: 100}},
	}, nil
}

func shoesAndSocks() []record.MetricRecord {
	return []record.MetricRecord{
		{Keyword: "shoes", PCVolume: record.Count(100), MobileVolume: record.Count(300), Competition: record.ParseCompetition("높음")},
		{Keyword: "running shoes", PCVolume: record.LowCount(), MobileVolume: record.Count(50), Competition: record.ParseCompetition("중간")},
		{Keyword: "socks", PCVolume: record.Count(500), MobileVolume: record.Count(20), Competition: record.ParseCompetition("낮음")},
	}
}

var fixedNow = time.Date(2024, 3, 15, 23, 30, 0, 0, time.UTC)

func newTestController(kw api.KeywordMetricsAPI, trend api.TrendAPI, m *metrics.Metrics) *Controller {
	return NewController(ControllerConfig{
		Keywords: kw,
		Trend:    trend,
		Metrics:  m,
		Logger:   logger.Nop(),
		Now:      func() time.Time { return fixedNow },
	})
}

func get(t *testing.T, c *Controller, target string) *http.Response {
	t.Helper()
	resp, err := NewApp(c).Test(httptest.NewRequest(http.MethodGet, target, nil), -1)
	require.NoError(t, err)
	return resp
}

func decode(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func TestSearch(t *testing.T) {
	c := newTestController(&stubKeywords{records: shoesAndSocks()}, nil, nil)
	resp := get(t, c, "/api/search?keyword=shoes")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Keyword     string                   `json:"keyword"`
		KeywordList []map[string]interface{} `json:"keywordList"`
		NoResults   bool                     `json:"noResults"`
	}
	decode(t, resp, &body)

	assert.Equal(t, "shoes", body.Keyword)
	assert.False(t, body.NoResults)
	require.Len(t, body.KeywordList, 3)
	assert.Equal(t, "running shoes", body.KeywordList[1]["relKeyword"])
	assert.Equal(t, "< 10", body.KeywordList[1]["monthlyPcQcCnt"])
	assert.Equal(t, float64(300), body.KeywordList[0]["monthlyMobileQcCnt"])
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		target     string
		err        error
		wantStatus int
		wantError  string
	}{
		{"empty keyword", "/api/search?keyword=%20%20", nil, 400, "키워드를 입력해주세요."},
		{"upstream rate limit", "/api/search?keyword=shoes", &api.UpstreamError{Service: api.ServiceKeywordTool, StatusCode: 429, Body: "secret body"}, 429, "네이버 API 오류: 429"},
		{"network", "/api/search?keyword=shoes", &api.NetworkError{Service: api.ServiceKeywordTool, Err: context.DeadlineExceeded}, 500, "API 요청에 실패했습니다."},
		{"bad sort", "/api/view?keyword=shoes&sort=price", nil, 400, api.MessageInvalidInput},
		{"bad filter", "/api/view?keyword=shoes&filter=maybe", nil, 400, api.MessageInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestController(&stubKeywords{records: shoesAndSocks(), err: tt.err}, nil, nil)
			resp := get(t, c, tt.target)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)

			var body ErrorResponse
			decode(t, resp, &body)
			assert.Equal(t, tt.wantError, body.Error)
			assert.NotContains(t, body.Error, "secret body")
		})
	}
}

func TestView_BadSortSkipsUpstream(t *testing.T) {
	kw := &stubKeywords{records: shoesAndSocks()}
	resp := get(t, newTestController(kw, nil, nil), "/api/view?keyword=shoes&sort=price")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Zero(t, atomic.LoadInt32(&kw.calls))
}

func TestView_FilterAndSort(t *testing.T) {
	c := newTestController(&stubKeywords{records: shoesAndSocks()}, nil, nil)

	var body ViewResponse
	decode(t, get(t, c, "/api/view?keyword=Shoes&sort=mobile"), &body)

	require.Len(t, body.Records, 2)
	assert.Equal(t, "shoes", body.Records[0].Keyword)
	assert.Equal(t, "running shoes", body.Records[1].Keyword)
	assert.True(t, body.Filter)
	assert.Equal(t, "mobile", string(body.Sort))
	assert.Equal(t, int64(100), body.Totals.PC)
	assert.Equal(t, int64(350), body.Totals.Mobile)
	assert.Equal(t, int64(450), body.Totals.Total)
}

func TestView_FilterDisabledSortTotal(t *testing.T) {
	c := newTestController(&stubKeywords{records: shoesAndSocks()}, nil, nil)

	var body ViewResponse
	decode(t, get(t, c, "/api/view?keyword=shoes&filter=false&sort=total"), &body)

	require.Len(t, body.Records, 3)
	assert.Equal(t, "socks", body.Records[0].Keyword)
	assert.Equal(t, "shoes", body.Records[1].Keyword)
	assert.Equal(t, "running shoes", body.Records[2].Keyword)
	assert.Equal(t, 3, body.Totals.Keywords)
}

func TestTrend(t *testing.T) {
	c := newTestController(&stubKeywords{}, &stubTrend{}, nil)
	resp := get(t, c, "/api/trend?keyword=shoes")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body api.TrendResult
	decode(t, resp, &body)
	assert.Equal(t, "month", body.TimeUnit)
	require.Len(t, body.Points, 2)
	assert.Equal(t, "2023-03-01", body.Points[0].Period)
}

func TestTrend_UpstreamErrorAndDisabled(t *testing.T) {
	c := newTestController(&stubKeywords{}, &stubTrend{err: &api.UpstreamError{Service: api.ServiceDataLab, StatusCode: 500}}, nil)
	resp := get(t, c, "/api/trend?keyword=shoes")
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	var body ErrorResponse
	decode(t, resp, &body)
	assert.Equal(t, "네이버 데이터랩 API 오류: 500", body.Error)

	resp = get(t, newTestController(&stubKeywords{}, nil, nil), "/api/trend?keyword=shoes")
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestLookup(t *testing.T) {
	c := newTestController(&stubKeywords{records: shoesAndSocks()}, &stubTrend{}, nil)
	resp := get(t, c, "/api/lookup?keyword=shoes")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		SearchID string             `json:"searchId"`
		Metrics  *api.MetricsResult `json:"metrics"`
		Trend    *api.TrendResult   `json:"trend"`
	}
	decode(t, resp, &body)
	assert.NotEmpty(t, body.SearchID)
	require.NotNil(t, body.Metrics)
	assert.Len(t, body.Metrics.Records, 3)
	require.NotNil(t, body.Trend)
	assert.Len(t, body.Trend.Points, 2)
}

func TestLookup_TrendFailureStillReturnsVolumes(t *testing.T) {
	trend := &stubTrend{err: &api.NetworkError{Service: api.ServiceDataLab, Err: context.DeadlineExceeded}}
	c := newTestController(&stubKeywords{records: shoesAndSocks()}, trend, nil)
	resp := get(t, c, "/api/lookup?keyword=shoes")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Metrics    *api.MetricsResult `json:"metrics"`
		Trend      *api.TrendResult   `json:"trend"`
		TrendError string             `json:"trendError"`
	}
	decode(t, resp, &body)
	require.NotNil(t, body.Metrics)
	assert.Len(t, body.Metrics.Records, 3)
	assert.Nil(t, body.Trend)
	assert.Equal(t, "API 요청에 실패했습니다.", body.TrendError)
}

func TestExport(t *testing.T) {
	c := newTestController(&stubKeywords{records: shoesAndSocks()}, nil, nil)
	resp := get(t, c, "/api/export?keyword=shoes&sort=total")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", resp.Header.Get("Content-Type"))
	disposition := resp.Header.Get("Content-Disposition")
	assert.True(t, strings.HasPrefix(disposition, "attachment;"))
	assert.Contains(t, disposition, `filename="shoes_2024-03-15.xlsx"`)
	assert.Contains(t, disposition, "filename*=UTF-8''"+
		"%EB%84%A4%EC%9D%B4%EB%B2%84_%EA%B2%80%EC%83%89%EB%9F%89_shoes_2024-03-15.xlsx")

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, len(data) > 4 && string(data[:2]) == "PK", "xlsx is a zip archive")
}

func TestExport_NoResults(t *testing.T) {
	c := newTestController(&stubKeywords{}, nil, nil)
	resp := get(t, c, "/api/export?keyword=zzz")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	var body ErrorResponse
	decode(t, resp, &body)
	assert.Equal(t, "검색 결과가 없습니다.", body.Error)
}

func TestHealthAndMetrics(t *testing.T) {
	m := metrics.New()
	c := newTestController(&stubKeywords{records: shoesAndSocks()}, nil, m)
	app := NewApp(c)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/healthz", nil), -1)
	require.NoError(t, err)
	var status StatusResponse
	decode(t, resp, &status)
	assert.Equal(t, "ok", status.Status)
	assert.False(t, status.TrendEnabled)
	assert.Empty(t, status.Limiters)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/api/search?keyword=shoes", nil), -1)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, float64(1), testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("/api/search", "200")))

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/nope", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
	assert.Equal(t, float64(1), testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("unmatched", "404")))

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil), -1)
	require.NoError(t, err)
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(data), "keyword_volume_http_requests_total")
}

func TestContentDisposition(t *testing.T) {
	assert.Equal(t,
		`attachment; filename="keyword-volume.xlsx"; filename*=UTF-8''%EC%8B%A0%EB%B0%9C.xlsx`,
		ContentDisposition("신발.xlsx"))
	assert.Equal(t,
		`attachment; filename="a b.xlsx"; filename*=UTF-8''a%20b.xlsx`,
		ContentDisposition("a b.xlsx"))
}

func TestHealth_ReportsLimiters(t *testing.T) {
	keywordLimiter := limiter.NewInFlight(api.ServiceKeywordTool, 3, time.Second)
	trendLimiter := limiter.NewInFlight(api.ServiceDataLab, 2, time.Second)
	require.NoError(t, keywordLimiter.Acquire(context.Background()))
	defer keywordLimiter.Release()

	c := NewController(ControllerConfig{
		Keywords: &stubKeywords{},
		Trend:    &stubTrend{},
		Limiters: []*limiter.InFlight{keywordLimiter, trendLimiter},
		Logger:   logger.Nop(),
		Now:      func() time.Time { return fixedNow },
	})

	var status StatusResponse
	decode(t, get(t, c, "/healthz"), &status)

	assert.True(t, status.TrendEnabled)
	require.Len(t, status.Limiters, 2)
	assert.Equal(t, 3, status.Limiters["keywordtool"].MaxConcurrent)
	assert.Equal(t, 1, status.Limiters["keywordtool"].CurrentActive)
	assert.Equal(t, 2, status.Limiters["datalab"].MaxConcurrent)
	assert.Equal(t, 0, status.Limiters["datalab"].CurrentActive)
}

func TestPanicIsRecoveredAndCounted(t *testing.T) {
	m := metrics.New()
	c := newTestController(&stubKeywords{panics: true}, nil, m)

	resp := get(t, c, "/api/search?keyword=shoes")
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	var body ErrorResponse
	decode(t, resp, &body)
	assert.Equal(t, api.MessageUnknown, body.Error)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("/api/search", "500")))
}
