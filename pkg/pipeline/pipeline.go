// Package pipeline turns a fetched record set into the displayed table: filter, then
// sort, then (on demand) export rows.
package pipeline

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/cases"

	"keyword-volume-go/pkg/record"
)

// SortKey selects the descending order of the table.
type SortKey string

const (
	SortNone   SortKey = ""
	SortPC     SortKey = "pc"
	SortMobile SortKey = "mobile"
	SortTotal  SortKey = "total"
)

// ParseSortKey accepts pc, mobile, total or the empty string (upstream order).
func ParseSortKey(s string) (SortKey, error) {
	switch k := SortKey(strings.ToLower(strings.TrimSpace(s))); k {
	case SortNone, SortPC, SortMobile, SortTotal:
		return k, nil
	default:
		return SortNone, fmt.Errorf("unknown sort key %q", s)
	}
}

// ToggleSort mirrors a column header click: choosing the active key clears it.
func ToggleSort(current, selected SortKey) SortKey {
	if current == selected {
		return SortNone
	}
	return selected
}

// Options are the user's view choices.
type Options struct {
	FilterText    string
	FilterEnabled bool
	Sort          SortKey
}

// Apply filters and then sorts records. The input slice is never modified.
func Apply(records []record.MetricRecord, filterText string, filterEnabled bool, key SortKey) []record.MetricRecord {
	return Sort(Filter(records, filterText, filterEnabled), key)
}

// ApplyOptions is Apply with the options bundled.
func ApplyOptions(records []record.MetricRecord, opts Options) []record.MetricRecord {
	return Apply(records, opts.FilterText, opts.FilterEnabled, opts.Sort)
}

// Filter keeps records whose keyword contains text, case-insensitively. A disabled
// filter or blank text returns records unchanged.
func Filter(records []record.MetricRecord, text string, enabled bool) []record.MetricRecord {
	text = strings.TrimSpace(text)
	if !enabled || text == "" {
		return records
	}

	fold := cases.Fold()
	needle := fold.String(text)

	out := make([]record.MetricRecord, 0, len(records))
	for _, r := range records {
		if strings.Contains(fold.String(r.Keyword), needle) {
			out = append(out, r)
		}
	}
	return out
}

// Sort returns a new slice in descending comparable order for key. Ties keep upstream
// order, so repeated calls on the same input agree.
func Sort(records []record.MetricRecord, key SortKey) []record.MetricRecord {
	value := comparator(key)
	if value == nil {
		return records
	}

	sorted := make([]record.MetricRecord, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		return value(sorted[i]) > value(sorted[j])
	})
	return sorted
}

func comparator(key SortKey) func(record.MetricRecord) int64 {
	switch key {
	case SortPC:
		return record.ComparablePC
	case SortMobile:
		return record.ComparableMobile
	case SortTotal:
		return record.TotalComparable
	default:
		return nil
	}
}

// Totals sums comparable volumes over a record set.
type Totals struct {
	Keywords int   `json:"keywords"`
	PC       int64 `json:"pc"`
	Mobile   int64 `json:"mobile"`
	Total    int64 `json:"total"`
}

func Sum(records []record.MetricRecord) Totals {
	t := Totals{Keywords: len(records)}
	for _, r := range records {
		t.PC += record.ComparablePC(r)
		t.Mobile += record.ComparableMobile(r)
	}
	t.Total = t.PC + t.Mobile
	return t
}
