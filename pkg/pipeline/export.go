package pipeline

import (
	"time"

	"keyword-volume-go/pkg/record"
)

// ExportHeaders is the column order of every export.
var ExportHeaders = []string{"No.", "키워드", "월간 PC 검색량", "월간 모바일 검색량", "총 검색량", "경쟁강도"}

// ExportRow is one spreadsheet line. Volumes stay raw; only the total is projected.
type ExportRow struct {
	Index        int
	Keyword      string
	PCVolume     record.Volume
	MobileVolume record.Volume
	TotalVolume  int64
	Competition  string
}

// Cells returns the row in ExportHeaders order.
func (r ExportRow) Cells() []interface{} {
	return []interface{}{
		r.Index,
		r.Keyword,
		r.PCVolume.CellValue(),
		r.MobileVolume.CellValue(),
		r.TotalVolume,
		r.Competition,
	}
}

// ExportRows numbers records in their current display order, starting at 1.
func ExportRows(records []record.MetricRecord) []ExportRow {
	rows := make([]ExportRow, len(records))
	for i, r := range records {
		rows[i] = ExportRow{
			Index:        i + 1,
			Keyword:      r.Keyword,
			PCVolume:     r.PCVolume,
			MobileVolume: r.MobileVolume,
			TotalVolume:  record.TotalComparable(r),
			Competition:  r.Competition.Label(),
		}
	}
	return rows
}

// ExportFilename embeds the search keyword and the UTC date of now.
func ExportFilename(keyword string, now time.Time) string {
	return "네이버_검색량_" + keyword + "_" + now.UTC().Format("2006-01-02") + ".xlsx"
}
