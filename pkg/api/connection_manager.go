package api

import (
	"context"
	"time"

	"github.com/valyala/fasthttp"

	"keyword-volume-go/pkg/logger"
)

// DefaultTimeout bounds every upstream call; expiry surfaces as a NetworkError.
const DefaultTimeout = 10 * time.Second

// ConnectionConfig holds configuration for upstream connections
type ConnectionConfig struct {
	MaxConnsPerHost     int           `mapstructure:"max_conns_per_host"`
	MaxIdleConnDuration time.Duration `mapstructure:"max_idle_conn_duration"`
	ReadTimeout         time.Duration `mapstructure:"read_timeout"`
	WriteTimeout        time.Duration `mapstructure:"write_timeout"`
	MaxResponseBodySize int           `mapstructure:"max_response_body_size"`
}

// DefaultConnectionConfig suits a handful of interactive searches, not bulk traffic.
func DefaultConnectionConfig() ConnectionConfig {
	return ConnectionConfig{
		MaxConnsPerHost:     16,
		MaxIdleConnDuration: 90 * time.Second,
		ReadTimeout:         DefaultTimeout,
		WriteTimeout:        DefaultTimeout,
		MaxResponseBodySize: 8 << 20,
	}
}

// NewFastHTTPClient builds the pooled client shared by one upstream service.
func NewFastHTTPClient(config ConnectionConfig) *fasthttp.Client {
	def := DefaultConnectionConfig()
	if config.MaxConnsPerHost <= 0 {
		config.MaxConnsPerHost = def.MaxConnsPerHost
	}
	if config.MaxIdleConnDuration <= 0 {
		config.MaxIdleConnDuration = def.MaxIdleConnDuration
	}
	if config.ReadTimeout <= 0 {
		config.ReadTimeout = def.ReadTimeout
	}
	if config.WriteTimeout <= 0 {
		config.WriteTimeout = def.WriteTimeout
	}
	if config.MaxResponseBodySize <= 0 {
		config.MaxResponseBodySize = def.MaxResponseBodySize
	}

	return &fasthttp.Client{
		Name:                          "keyword-volume-go/1.0",
		MaxConnsPerHost:               config.MaxConnsPerHost,
		MaxIdleConnDuration:           config.MaxIdleConnDuration,
		ReadTimeout:                   config.ReadTimeout,
		WriteTimeout:                  config.WriteTimeout,
		MaxResponseBodySize:           config.MaxResponseBodySize,
		DisableHeaderNamesNormalizing: true,
		// fasthttp retries idempotent requests on connection errors by default
		MaxIdemponentCallAttempts:     1,
	}
}

// Option customizes a client at construction.
type Option func(*transport)

func WithHTTPClient(client *fasthttp.Client) Option {
	return func(t *transport) { t.client = client }
}

func WithTimeout(d time.Duration) Option {
	return func(t *transport) {
		if d > 0 {
			t.timeout = d
		}
	}
}

func WithLimiter(l ConcurrencyLimiter) Option {
	return func(t *transport) { t.limiter = l }
}

func WithRecorder(r Recorder) Option {
	return func(t *transport) { t.recorder = r }
}

func WithLogger(l *logger.Logger) Option {
	return func(t *transport) { t.log = l }
}

// WithClock replaces time.Now for timestamps and trend date windows.
func WithClock(now func() time.Time) Option {
	return func(t *transport) { t.now = now }
}

// transport is the per-service plumbing shared by both clients: limiter, deadline,
// metrics and the network error boundary.
type transport struct {
	service  string
	client   *fasthttp.Client
	timeout  time.Duration
	limiter  ConcurrencyLimiter
	recorder Recorder
	log      *logger.Logger
	now      func() time.Time
}

func newTransport(service string, conn ConnectionConfig, opts []Option) *transport {
	t := &transport{
		service: service,
		timeout: DefaultTimeout,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.client == nil {
		t.client = NewFastHTTPClient(conn)
	}
	if t.log == nil {
		t.log = logger.GetLogger()
	}
	t.log = t.log.WithComponent(service + "_client")
	return t
}

// do executes req once. It never retries: repeated signed calls against a rate limited
// API need explicit user intent.
func (t *transport) do(ctx context.Context, req *fasthttp.Request, resp *fasthttp.Response) error {
	if err := ctx.Err(); err != nil {
		return &NetworkError{Service: t.service, Err: err}
	}

	if t.limiter != nil {
		if err := t.limiter.Acquire(ctx); err != nil {
			t.observe("limited", 0)
			return &NetworkError{Service: t.service, Err: err}
		}
		defer t.limiter.Release()
	}

	deadline := time.Now().Add(t.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	start := time.Now()
	err := t.client.DoDeadline(req, resp, deadline)
	elapsed := time.Since(start)

	if err != nil {
		t.observe("network_error", elapsed)
		return &NetworkError{Service: t.service, Err: err}
	}

	t.observe(statusOutcome(resp.StatusCode()), elapsed)
	return nil
}

func (t *transport) observe(outcome string, d time.Duration) {
	if t.recorder != nil {
		t.recorder.ObserveUpstream(t.service, outcome, d)
	}
}

func statusOutcome(status int) string {
	switch {
	case status >= 200 && status < 300:
		return "ok"
	case status == fasthttp.StatusTooManyRequests:
		return "rate_limited"
	case status >= 500:
		return "server_error"
	default:
		return "client_error"
	}
}

func isSuccess(status int) bool {
	return status >= 200 && status < 300
}
