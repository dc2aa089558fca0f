// Package service composes the upstream clients into searches.
package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"keyword-volume-go/pkg/api"
	"keyword-volume-go/pkg/logger"
)

// LookupResult bundles both upstream answers for one keyword. A failed trend call leaves
// Trend nil and is reported through TrendErr and the localized TrendError.
type LookupResult struct {
	SearchID   string             `json:"searchId"`
	Keyword    string             `json:"keyword"`
	Metrics    *api.MetricsResult `json:"metrics"`
	Trend      *api.TrendResult   `json:"trend,omitempty"`
	TrendError string             `json:"trendError,omitempty"`
	TrendErr   error              `json:"-"`
}

// Lookup runs the keyword and trend calls for one keyword concurrently. The calls are
// independent: a keyword tool failure fails the lookup and cancels the trend call, while
// a trend failure is recorded next to the volumes.
type Lookup struct {
	metrics api.KeywordMetricsAPI
	trend   api.TrendAPI
	log     *logger.Logger
}

// NewLookup builds a lookup; trend may be nil when DataLab is not configured.
func NewLookup(metrics api.KeywordMetricsAPI, trend api.TrendAPI, log *logger.Logger) *Lookup {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Lookup{
		metrics: metrics,
		trend:   trend,
		log:     log.WithComponent("lookup"),
	}
}

func (l *Lookup) Run(ctx context.Context, keyword string) (*LookupResult, error) {
	kw, err := api.ValidateKeyword(keyword)
	if err != nil {
		return nil, err
	}

	result := &LookupResult{SearchID: uuid.NewString(), Keyword: kw}
	log := l.log.WithFields(map[string]interface{}{"search_id": result.SearchID, "keyword": kw})
	start := time.Now()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		m, err := l.metrics.FetchMetrics(gctx, kw)
		if err != nil {
			return err
		}
		result.Metrics = m
		return nil
	})
	if l.trend != nil {
		g.Go(func() error {
			t, err := l.trend.FetchTrend(gctx, kw)
			if err != nil {
				result.TrendErr = err
				result.TrendError = api.UserMessage(err)
				return nil
			}
			result.Trend = t
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		log.WithError(err).WithField("kind", api.ClassifyError(err).String()).Warn("Lookup failed")
		return nil, err
	}

	if result.TrendErr != nil {
		log.WithError(result.TrendErr).WithField("kind", api.ClassifyError(result.TrendErr).String()).
			Warn("Trend failed, returning volumes only")
	}

	log.WithFields(map[string]interface{}{
		"records":     len(result.Metrics.Records),
		"trend":       result.Trend != nil,
		"duration_ms": time.Since(start).Milliseconds(),
	}).Info("Lookup completed")
	return result, nil
}
