package service

import (
	"context"

	"github.com/google/uuid"

	"keyword-volume-go/pkg/api"
	"keyword-volume-go/pkg/logger"
	"keyword-volume-go/pkg/record"
)

// Snapshot is the current search as seen by a display. It is replaced wholesale by each
// new search and never mutated after being handed out.
type Snapshot struct {
	Generation  uint64
	SearchID    string
	Keyword     string
	Records     []record.MetricRecord
	NoResults   bool
	Trend       *api.TrendResult
	MetricsErr  error
	TrendErr    error
	MetricsDone bool
	TrendDone   bool
}

// Loading reports whether any call of the current generation is still outstanding.
func (s Snapshot) Loading() bool {
	return s.Generation > 0 && !(s.MetricsDone && s.TrendDone)
}

type outcome struct {
	generation uint64
	metrics    *api.MetricsResult
	trend      *api.TrendResult
	isTrend    bool
	err        error
}

type submission struct {
	keyword string
	reply   chan uint64
}

// Searcher owns the state of one interactive search session in a single goroutine.
// Every Submit starts a new generation and cancels the previous one; fetch results come
// back over a channel tagged with their generation and are dropped if it is no longer
// current, so a slow earlier response can never overwrite a newer search.
type Searcher struct {
	metrics api.KeywordMetricsAPI
	trend   api.TrendAPI
	log     *logger.Logger

	onChange func(Snapshot)
	onStale  func(generation uint64)

	submits   chan submission
	outcomes  chan outcome
	snapshots chan chan Snapshot
}

type SearcherOption func(*Searcher)

// WithOnChange registers a callback run on the searcher goroutine after every state
// change. It must not block or call back into the Searcher.
func WithOnChange(fn func(Snapshot)) SearcherOption {
	return func(s *Searcher) { s.onChange = fn }
}

// WithOnStale registers a callback for each discarded result.
func WithOnStale(fn func(generation uint64)) SearcherOption {
	return func(s *Searcher) { s.onStale = fn }
}

func WithSearcherLogger(l *logger.Logger) SearcherOption {
	return func(s *Searcher) { s.log = l }
}

func NewSearcher(metrics api.KeywordMetricsAPI, trend api.TrendAPI, opts ...SearcherOption) *Searcher {
	s := &Searcher{
		metrics:   metrics,
		trend:     trend,
		submits:   make(chan submission),
		outcomes:  make(chan outcome),
		snapshots: make(chan chan Snapshot),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = logger.GetLogger()
	}
	s.log = s.log.WithComponent("searcher")
	return s
}

// Run serves submissions until ctx ends. In-flight fetches are cancelled on return.
func (s *Searcher) Run(ctx context.Context) error {
	var (
		state  Snapshot
		gen    uint64
		cancel context.CancelFunc
	)
	stop := func() {
		if cancel != nil {
			cancel()
			cancel = nil
		}
	}
	defer stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case sub := <-s.submits:
			gen++
			stop()
			state = s.begin(ctx, gen, sub.keyword, &cancel)
			sub.reply <- gen
			s.notify(state)

		case o := <-s.outcomes:
			if o.generation != gen {
				s.log.WithFields(map[string]interface{}{
					"stale_generation":   o.generation,
					"current_generation": gen,
					"trend":              o.isTrend,
				}).Debug("Discarded result of superseded search")
				if s.onStale != nil {
					s.onStale(o.generation)
				}
				continue
			}
			state = apply(state, o)
			if !state.Loading() {
				stop()
			}
			s.notify(state)

		case reply := <-s.snapshots:
			reply <- state
		}
	}
}

// begin resets state for a new generation and launches its fetches.
func (s *Searcher) begin(runCtx context.Context, gen uint64, keyword string, cancel *context.CancelFunc) Snapshot {
	kw, err := api.ValidateKeyword(keyword)
	state := Snapshot{Generation: gen, SearchID: uuid.NewString(), Keyword: kw}
	if err != nil {
		state.MetricsErr, state.TrendErr = err, err
		state.MetricsDone, state.TrendDone = true, true
		return state
	}

	searchCtx, c := context.WithCancel(runCtx)
	*cancel = c

	s.log.WithFields(map[string]interface{}{
		"generation": gen,
		"search_id":  state.SearchID,
		"keyword":    kw,
	}).Info("Search started")

	go func() {
		res, err := s.metrics.FetchMetrics(searchCtx, kw)
		s.deliver(runCtx, outcome{generation: gen, metrics: res, err: err})
	}()

	if s.trend == nil {
		state.TrendDone = true
	} else {
		go func() {
			res, err := s.trend.FetchTrend(searchCtx, kw)
			s.deliver(runCtx, outcome{generation: gen, trend: res, isTrend: true, err: err})
		}()
	}
	return state
}

func (s *Searcher) deliver(runCtx context.Context, o outcome) {
	select {
	case s.outcomes <- o:
	case <-runCtx.Done():
	}
}

func apply(state Snapshot, o outcome) Snapshot {
	if o.isTrend {
		state.TrendDone = true
		state.TrendErr = o.err
		if o.err == nil {
			state.Trend = o.trend
		}
		return state
	}

	state.MetricsDone = true
	state.MetricsErr = o.err
	if o.err == nil && o.metrics != nil {
		state.Records = o.metrics.Records
		state.NoResults = o.metrics.NoResults
	}
	return state
}

func (s *Searcher) notify(state Snapshot) {
	if s.onChange != nil {
		s.onChange(state)
	}
}

// Submit starts a search for keyword, superseding any search in progress, and returns
// its generation. An empty keyword completes immediately with a validation error.
func (s *Searcher) Submit(ctx context.Context, keyword string) (uint64, error) {
	reply := make(chan uint64, 1)
	select {
	case s.submits <- submission{keyword: keyword, reply: reply}:
	case <-ctx.Done():
		return 0, ctx.Err()
	}
	select {
	case gen := <-reply:
		return gen, nil
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

// Snapshot returns the current state.
func (s *Searcher) Snapshot(ctx context.Context) (Snapshot, error) {
	reply := make(chan Snapshot, 1)
	select {
	case s.snapshots <- reply:
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	}
	select {
	case snap := <-reply:
		return snap, nil
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	}
}
