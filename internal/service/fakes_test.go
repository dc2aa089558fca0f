package service

import (
	"context"
	"sync"
	"sync/atomic"

	"keyword-volume-go/pkg/api"
	"keyword-volume-go/pkg/record"
)

// fakeMetrics answers from a map and can hold individual keywords until released.
type fakeMetrics struct {
	mu      sync.Mutex
	results map[string][]record.MetricRecord
	errs    map[string]error
	hold    map[string]chan struct{}
	calls   int32
}

func newFakeMetrics() *fakeMetrics {
	return &fakeMetrics{
		results: map[string][]record.MetricRecord{},
		errs:    map[string]error{},
		hold:    map[string]chan struct{}{},
	}
}

func (f *fakeMetrics) FetchMetrics(ctx context.Context, keyword string) (*api.MetricsResult, error) {
	atomic.AddInt32(&f.calls, 1)

	f.mu.Lock()
	gate := f.hold[keyword]
	records := f.results[keyword]
	err := f.errs[keyword]
	f.mu.Unlock()

	if gate != nil {
		// ignores ctx on purpose: models a response that arrives after cancellation
		<-gate
	}
	if err != nil {
		return nil, err
	}
	return &api.MetricsResult{Keyword: keyword, Records: records, NoResults: len(records) == 0}, nil
}

func (f *fakeMetrics) Calls() int { return int(atomic.LoadInt32(&f.calls)) }

type fakeTrend struct {
	points []record.TrendPoint
	err    error
	calls  int32
}

func (f *fakeTrend) FetchTrend(ctx context.Context, keyword string) (*api.TrendResult, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.err != nil {
		return nil, f.err
	}
	return &api.TrendResult{Keyword: keyword, TimeUnit: "month", Points: f.points}, nil
}

func records(keywords ...string) []record.MetricRecord {
	out := make([]record.MetricRecord, len(keywords))
	for i, kw := range keywords {
		out[i] = record.MetricRecord{Keyword: kw, PCVolume: record.Count(int64(i + 1)), MobileVolume: record.LowCount()}
	}
	return out
}
