package api

import (
	"context"
	"time"
)

// KeywordMetricsAPI fetches related keyword volumes for a seed keyword.
type KeywordMetricsAPI interface {
	FetchMetrics(ctx context.Context, keyword string) (*MetricsResult, error)
}

// TrendAPI fetches the trailing twelve month search trend for a keyword.
type TrendAPI interface {
	FetchTrend(ctx context.Context, keyword string) (*TrendResult, error)
}

// ConcurrencyLimiter caps simultaneous calls to one upstream.
type ConcurrencyLimiter interface {
	Acquire(ctx context.Context) error
	Release()
}

// Recorder receives one observation per upstream attempt.
type Recorder interface {
	ObserveUpstream(service, outcome string, elapsed time.Duration)
}
