package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"keyword-volume-go/internal/service"
	"keyword-volume-go/pkg/api"
	"keyword-volume-go/pkg/export"
	"keyword-volume-go/pkg/pipeline"
)

const watchHelp = `Type a keyword to search. A new keyword replaces the search in progress.
  :sort pc|mobile|total   toggle the sort column (same key again clears it)
  :filter                 toggle the keyword filter
  :export                 save the current table as xlsx
  :quit                   exit`

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Interactive search session that keeps only the latest search",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := setup(cmd, true)
		if err != nil {
			return err
		}

		ctx, cancel := signalContext()
		defer cancel()

		view := &watchView{out: os.Stdout, opts: pipeline.Options{FilterEnabled: true}}
		searcher := service.NewSearcher(rt.clients.KeywordsAPI(), rt.clients.TrendAPI(),
			service.WithOnChange(view.update),
			service.WithOnStale(func(uint64) { rt.metrics.ObserveStale() }),
			service.WithSearcherLogger(rt.log),
		)

		done := make(chan error, 1)
		go func() { done <- searcher.Run(ctx) }()

		fmt.Fprintln(os.Stdout, watchHelp)
		// Scanning stdin cannot be interrupted, so a signal must not wait for it.
		input := make(chan error, 1)
		go func() { input <- runWatch(ctx, os.Stdin, searcher, view, rt.cfg.Export.Dir) }()
		select {
		case err = <-input:
		case <-ctx.Done():
		}
		cancel()
		<-done
		return err
	},
}

// watchView renders snapshots and holds the display options. update runs on the
// searcher goroutine while commands arrive on the input goroutine.
type watchView struct {
	mu   sync.Mutex
	out  io.Writer
	opts pipeline.Options
	last service.Snapshot
}

func (w *watchView) update(snap service.Snapshot) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.last = snap
	w.render()
}

func (w *watchView) render() {
	snap := w.last
	if snap.Generation == 0 {
		return
	}
	if snap.Loading() {
		fmt.Fprintf(w.out, "[%d] %s ...\n", snap.Generation, snap.Keyword)
		return
	}

	if snap.MetricsErr != nil {
		fmt.Fprintf(w.out, "[%d] %s\n", snap.Generation, api.UserMessage(snap.MetricsErr))
		return
	}
	if snap.TrendErr != nil {
		fmt.Fprintf(w.out, "[%d] %s\n", snap.Generation, api.UserMessage(snap.TrendErr))
	}

	opts := w.opts
	opts.FilterText = snap.Keyword
	shown := pipeline.ApplyOptions(snap.Records, opts)
	fmt.Fprintf(w.out, "[%d] %s  sort=%s filter=%t\n", snap.Generation, snap.Keyword, sortLabel(opts.Sort), opts.FilterEnabled)
	if snap.NoResults || len(shown) == 0 {
		fmt.Fprintln(w.out, api.MessageNoResults)
	} else {
		_ = writeTable(w.out, shown)
	}
	if snap.Trend != nil && !snap.Trend.NoResults {
		_ = writeTrend(w.out, snap.Trend)
	}
}

func (w *watchView) toggleSort(key pipeline.SortKey) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.opts.Sort = pipeline.ToggleSort(w.opts.Sort, key)
	w.render()
}

func (w *watchView) toggleFilter() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.opts.FilterEnabled = !w.opts.FilterEnabled
	w.render()
}

// exportRows returns the rows currently displayed, or ErrNothingToExport when the
// current search has no records at all.
func (w *watchView) exportRows() (string, []pipeline.ExportRow, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.last.Loading() || len(w.last.Records) == 0 {
		return "", nil, export.ErrNothingToExport
	}
	opts := w.opts
	opts.FilterText = w.last.Keyword
	return w.last.Keyword, pipeline.ExportRows(pipeline.ApplyOptions(w.last.Records, opts)), nil
}

func runWatch(ctx context.Context, in io.Reader, searcher *service.Searcher, view *watchView, exportDir string) error {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, ":") {
			if _, err := searcher.Submit(ctx, line); err != nil {
				return err
			}
			continue
		}

		fields := strings.Fields(line)
		switch fields[0] {
		case ":quit", ":q":
			return nil
		case ":filter":
			view.toggleFilter()
		case ":sort":
			if len(fields) < 2 {
				fmt.Fprintln(view.out, "usage: :sort pc|mobile|total")
				continue
			}
			key, err := pipeline.ParseSortKey(fields[1])
			if err != nil || key == pipeline.SortNone {
				fmt.Fprintln(view.out, "usage: :sort pc|mobile|total")
				continue
			}
			view.toggleSort(key)
		case ":export":
			keyword, rows, err := view.exportRows()
			if err != nil {
				fmt.Fprintln(view.out, api.MessageNoResults)
				continue
			}
			path, err := export.WriteFile(exportDir, pipeline.ExportFilename(keyword, time.Now()), rows)
			if err != nil {
				fmt.Fprintln(view.out, err)
				continue
			}
			fmt.Fprintln(view.out, path)
		default:
			fmt.Fprintln(view.out, watchHelp)
		}
	}
	return scanner.Err()
}

func sortLabel(key pipeline.SortKey) string {
	if key == pipeline.SortNone {
		return "none"
	}
	return string(key)
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
