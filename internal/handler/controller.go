// Package handler serves searches, trends, views and exports over HTTP.
package handler

import (
	"bytes"
	"context"
	"errors"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"keyword-volume-go/internal/service"
	"keyword-volume-go/pkg/api"
	"keyword-volume-go/pkg/export"
	"keyword-volume-go/pkg/limiter"
	"keyword-volume-go/pkg/logger"
	"keyword-volume-go/pkg/metrics"
	"keyword-volume-go/pkg/pipeline"
	"keyword-volume-go/pkg/record"
)

// MessageTrendDisabled is returned by trend routes when DataLab is not configured.
const MessageTrendDisabled = "데이터랩 API가 설정되지 않았습니다."

type Controller struct {
	keywords api.KeywordMetricsAPI
	trend    api.TrendAPI
	lookup   *service.Lookup
	metrics  *metrics.Metrics
	limiters []*limiter.InFlight
	log      *logger.Logger
	now      func() time.Time
}

// ControllerConfig lists the collaborators. Trend, Metrics and Limiters may be nil.
type ControllerConfig struct {
	Keywords api.KeywordMetricsAPI
	Trend    api.TrendAPI
	Metrics  *metrics.Metrics
	Limiters []*limiter.InFlight
	Logger   *logger.Logger
	Now      func() time.Time
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type ViewResponse struct {
	Keyword   string                `json:"keyword"`
	Sort      pipeline.SortKey      `json:"sort"`
	Filter    bool                  `json:"filter"`
	Records   []record.MetricRecord `json:"keywordList"`
	Totals    pipeline.Totals       `json:"totals"`
	NoResults bool                  `json:"noResults"`
}

type StatusResponse struct {
	Status       string                   `json:"status"`
	Timestamp    string                   `json:"timestamp"`
	TrendEnabled bool                     `json:"trendEnabled"`
	Limiters     map[string]limiter.Stats `json:"limiters"`
}

func NewController(cfg ControllerConfig) *Controller {
	log := cfg.Logger
	if log == nil {
		log = logger.GetLogger()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Controller{
		keywords: cfg.Keywords,
		trend:    cfg.Trend,
		lookup:   service.NewLookup(cfg.Keywords, cfg.Trend, log),
		metrics:  cfg.Metrics,
		limiters: cfg.Limiters,
		log:      log.WithComponent("http"),
		now:      now,
	}
}

// NewApp builds the fiber application with every route registered.
func NewApp(c *Controller) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "keyword-volume-go",
		DisableStartupMessage: true,
		ErrorHandler:          c.errorHandler,
	})

	// observe wraps recover so panics are counted as 500s
	app.Use(c.observe)
	app.Use(recover.New())

	app.Get("/healthz", c.health)
	if c.metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(c.metrics.Handler()))
	}

	group := app.Group("/api")
	group.Get("/search", c.search)
	group.Get("/trend", c.trendSeries)
	group.Get("/lookup", c.lookupBoth)
	group.Get("/view", c.view)
	group.Get("/export", c.export)

	return app
}

// Serve listens on addr until ctx ends, then drains in-flight requests for at most
// shutdownTimeout.
func Serve(ctx context.Context, app *fiber.App, addr string, shutdownTimeout time.Duration) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- app.Listen(addr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
		return err
	}
	return <-errCh
}

func (c *Controller) health(ctx *fiber.Ctx) error {
	limiters := make(map[string]limiter.Stats, len(c.limiters))
	for _, l := range c.limiters {
		stats := l.Stats()
		limiters[stats.Upstream] = stats
	}
	return ctx.JSON(StatusResponse{
		Status:       "ok",
		Timestamp:    c.now().UTC().Format(time.RFC3339),
		TrendEnabled: c.trend != nil,
		Limiters:     limiters,
	})
}

func (c *Controller) search(ctx *fiber.Ctx) error {
	result, err := c.keywords.FetchMetrics(ctx.UserContext(), ctx.Query("keyword"))
	if err != nil {
		return c.fail(ctx, err)
	}
	if c.metrics != nil {
		c.metrics.ObserveRecords(len(result.Records))
	}
	return ctx.JSON(result)
}

func (c *Controller) trendSeries(ctx *fiber.Ctx) error {
	if c.trend == nil {
		return ctx.Status(fiber.StatusServiceUnavailable).JSON(ErrorResponse{Error: MessageTrendDisabled})
	}
	result, err := c.trend.FetchTrend(ctx.UserContext(), ctx.Query("keyword"))
	if err != nil {
		return c.fail(ctx, err)
	}
	return ctx.JSON(result)
}

func (c *Controller) lookupBoth(ctx *fiber.Ctx) error {
	result, err := c.lookup.Run(ctx.UserContext(), ctx.Query("keyword"))
	if err != nil {
		return c.fail(ctx, err)
	}
	return ctx.JSON(result)
}

func (c *Controller) view(ctx *fiber.Ctx) error {
	result, opts, err := c.fetchView(ctx)
	if err != nil {
		return c.fail(ctx, err)
	}

	shown := pipeline.ApplyOptions(result.Records, opts)
	if shown == nil {
		shown = []record.MetricRecord{}
	}
	return ctx.JSON(ViewResponse{
		Keyword:   result.Keyword,
		Sort:      opts.Sort,
		Filter:    opts.FilterEnabled,
		Records:   shown,
		Totals:    pipeline.Sum(shown),
		NoResults: result.NoResults,
	})
}

func (c *Controller) export(ctx *fiber.Ctx) error {
	result, opts, err := c.fetchView(ctx)
	if err != nil {
		return c.fail(ctx, err)
	}
	if len(result.Records) == 0 {
		return ctx.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: api.MessageNoResults})
	}

	rows := pipeline.ExportRows(pipeline.ApplyOptions(result.Records, opts))
	var buf bytes.Buffer
	if err := export.Write(&buf, rows); err != nil {
		if errors.Is(err, export.ErrNothingToExport) {
			return ctx.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: api.MessageNoResults})
		}
		return c.fail(ctx, err)
	}

	filename := pipeline.ExportFilename(result.Keyword, c.now())
	ctx.Set(fiber.HeaderContentType, export.ContentType)
	ctx.Set(fiber.HeaderContentDisposition, ContentDisposition(filename))
	c.log.WithFields(map[string]interface{}{
		"keyword": result.Keyword,
		"rows":    len(rows),
		"bytes":   buf.Len(),
	}).Info("Export generated")
	return ctx.Send(buf.Bytes())
}

// fetchView reads keyword, filter (default on) and sort, then fetches the keyword's
// records. Option parsing happens first so a bad sort costs no upstream call.
func (c *Controller) fetchView(ctx *fiber.Ctx) (*api.MetricsResult, pipeline.Options, error) {
	key, err := pipeline.ParseSortKey(ctx.Query("sort"))
	if err != nil {
		return nil, pipeline.Options{}, &api.ValidationError{Field: "sort", Reason: err.Error()}
	}

	filterEnabled, err := parseBool(ctx.Query("filter"), true)
	if err != nil {
		return nil, pipeline.Options{}, &api.ValidationError{Field: "filter", Reason: err.Error()}
	}

	result, err := c.keywords.FetchMetrics(ctx.UserContext(), ctx.Query("keyword"))
	if err != nil {
		return nil, pipeline.Options{}, err
	}
	if c.metrics != nil {
		c.metrics.ObserveRecords(len(result.Records))
	}

	return result, pipeline.Options{
		FilterText:    result.Keyword,
		FilterEnabled: filterEnabled,
		Sort:          key,
	}, nil
}

func (c *Controller) fail(ctx *fiber.Ctx, err error) error {
	status := api.HTTPStatus(err)
	fields := map[string]interface{}{
		"path":   ctx.Path(),
		"status": status,
		"kind":   api.ClassifyError(err).String(),
	}
	if status >= fiber.StatusInternalServerError {
		c.log.WithError(err).WithFields(fields).Error("Request failed")
	} else {
		c.log.WithError(err).WithFields(fields).Warn("Request failed")
	}
	return ctx.Status(status).JSON(ErrorResponse{Error: api.UserMessage(err)})
}

// errorHandler renders routing errors and recovered panics in the same JSON shape.
func (c *Controller) errorHandler(ctx *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := api.MessageUnknown

	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		message = fe.Message
	} else {
		c.log.WithError(err).WithField("path", ctx.Path()).Error("Unhandled error")
	}
	return ctx.Status(code).JSON(ErrorResponse{Error: message})
}

func (c *Controller) observe(ctx *fiber.Ctx) error {
	err := ctx.Next()
	if c.metrics == nil {
		return err
	}

	status := ctx.Response().StatusCode()
	route := ctx.Route().Path
	if err != nil {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			status = fe.Code
		} else {
			status = fiber.StatusInternalServerError
		}
		if status == fiber.StatusNotFound {
			route = "unmatched"
		}
	}
	c.metrics.ObserveHTTP(route, strconv.Itoa(status))
	return err
}

// ContentDisposition builds an attachment header carrying the UTF-8 filename per
// RFC 5987 and an ASCII fallback for old clients.
func ContentDisposition(filename string) string {
	encoded := strings.ReplaceAll(url.QueryEscape(filename), "+", "%20")
	return `attachment; filename="` + asciiFallback(filename) + `"; filename*=UTF-8''` + encoded
}

func asciiFallback(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r == '"' || r == '\\':
			b.WriteByte('_')
		case r < 0x20 || r > 0x7e:
			continue
		default:
			b.WriteRune(r)
		}
	}
	fallback := strings.TrimLeft(b.String(), "_")
	if strings.TrimSuffix(fallback, ".xlsx") == "" {
		return "keyword-volume.xlsx"
	}
	return fallback
}

func parseBool(s string, def bool) (bool, error) {
	if s == "" {
		return def, nil
	}
	return strconv.ParseBool(s)
}
