package service

import (
	"keyword-volume-go/internal/config"
	"keyword-volume-go/pkg/api"
	"keyword-volume-go/pkg/limiter"
	"keyword-volume-go/pkg/logger"
	"keyword-volume-go/pkg/metrics"
)

// Clients are the upstream clients built from one configuration. Trend is nil when
// DataLab credentials are absent.
type Clients struct {
	Keywords *api.KeywordClient
	Trend    *api.TrendClient
	Limiters []*limiter.InFlight
}

// KeywordsAPI returns the keyword client as an interface, nil when unset.
func (c *Clients) KeywordsAPI() api.KeywordMetricsAPI {
	if c.Keywords == nil {
		return nil
	}
	return c.Keywords
}

// TrendAPI returns the trend client as an interface. A nil *TrendClient must not leak
// into a non-nil interface, so callers can test against nil.
func (c *Clients) TrendAPI() api.TrendAPI {
	if c.Trend == nil {
		return nil
	}
	return c.Trend
}

// NewClients wires each upstream with its own in-flight limiter. rec may be nil.
func NewClients(cfg *config.Config, rec *metrics.Metrics, log *logger.Logger) (*Clients, error) {
	if err := config.RequireSearchAd(cfg); err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.GetLogger()
	}

	clients := &Clients{}
	common := func(service string) []api.Option {
		l := limiter.NewInFlight(service, cfg.HTTP.MaxInFlight, cfg.HTTP.AcquireTimeout)
		clients.Limiters = append(clients.Limiters, l)
		opts := []api.Option{
			api.WithTimeout(cfg.HTTP.Timeout),
			api.WithLimiter(l),
			api.WithLogger(log),
		}
		if rec != nil {
			opts = append(opts, api.WithRecorder(rec))
		}
		return opts
	}

	clients.Keywords = api.NewKeywordClient(api.KeywordClientConfig{
		BaseURL:    cfg.SearchAd.BaseURL,
		APIKey:     cfg.SearchAd.APIKey,
		SecretKey:  cfg.SearchAd.SecretKey,
		CustomerID: cfg.SearchAd.CustomerID,
		Connection: cfg.HTTP.Connection,
	}, common(api.ServiceKeywordTool)...)

	if cfg.DataLab.Enabled() {
		clients.Trend = api.NewTrendClient(api.TrendClientConfig{
			BaseURL:      cfg.DataLab.BaseURL,
			ClientID:     cfg.DataLab.ClientID,
			ClientSecret: cfg.DataLab.ClientSecret,
			Connection:   cfg.HTTP.Connection,
		}, common(api.ServiceDataLab)...)
	} else {
		log.Warn("DataLab credentials not set, trend lookups disabled")
	}

	log.WithFields(map[string]interface{}{
		"searchad_api_key": logger.MaskSecret(cfg.SearchAd.APIKey),
		"customer_id":      logger.MaskSecret(cfg.SearchAd.CustomerID),
		"timeout":          cfg.HTTP.Timeout.String(),
		"max_in_flight":    cfg.HTTP.MaxInFlight,
		"trend_enabled":    clients.Trend != nil,
	}).Info("Upstream clients configured")

	return clients, nil
}
