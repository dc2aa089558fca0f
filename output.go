package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"keyword-volume-go/pkg/api"
	"keyword-volume-go/pkg/pipeline"
	"keyword-volume-go/pkg/record"
)

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

// writeTable prints records in display order with the export column headings, then a
// totals line.
func writeTable(w io.Writer, records []record.MetricRecord) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	for i, h := range pipeline.ExportHeaders {
		if i > 0 {
			fmt.Fprint(tw, "\t")
		}
		fmt.Fprint(tw, h)
	}
	fmt.Fprintln(tw, "\t")

	for _, row := range pipeline.ExportRows(records) {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t\n",
			row.Index,
			row.Keyword,
			record.FormatVolume(row.PCVolume),
			record.FormatVolume(row.MobileVolume),
			record.FormatCount(row.TotalVolume),
			row.Competition,
		)
	}

	totals := pipeline.Sum(records)
	fmt.Fprintf(tw, "\t%s\t%s\t%s\t%s\t\t\n",
		strconv.Itoa(totals.Keywords)+" keywords",
		record.FormatCount(totals.PC),
		record.FormatCount(totals.Mobile),
		record.FormatCount(totals.Total),
	)
	return tw.Flush()
}

func writeTrend(w io.Writer, result *api.TrendResult) error {
	fmt.Fprintf(w, "%s  %s ~ %s (%s)\n", result.Keyword, result.StartDate, result.EndDate, result.TimeUnit)
	if result.NoResults {
		_, err := fmt.Fprintln(w, api.MessageNoResults)
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, p := range result.Points {
		fmt.Fprintf(tw, "%s\t%6.2f\t%s\n", p.Period, p.Ratio, bar(p.Ratio))
	}
	return tw.Flush()
}

// bar draws ratio (0..100) as up to 40 blocks.
func bar(ratio float64) string {
	n := int(ratio / 100 * 40)
	if n < 0 {
		n = 0
	}
	if n > 40 {
		n = 40
	}
	b := make([]rune, n)
	for i := range b {
		b[i] = '█'
	}
	return string(b)
}
