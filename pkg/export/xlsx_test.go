package export

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"keyword-volume-go/pkg/pipeline"
	"keyword-volume-go/pkg/record"
)

func sampleRows() []pipeline.ExportRow {
	return pipeline.ExportRows([]record.MetricRecord{
		{Keyword: "shoes", PCVolume: record.Count(120), MobileVolume: record.Count(300), Competition: record.ParseCompetition("높음")},
		{Keyword: "socks", PCVolume: record.LowCount(), MobileVolume: record.Count(50), Competition: record.ParseCompetition("낮음")},
	})
}

func TestWrite(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, sampleRows()))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, pipeline.ExportHeaders, rows[0])
	assert.Equal(t, []string{"1", "shoes", "120", "300", "420", "높음"}, rows[1])
	assert.Equal(t, []string{"2", "socks", "< 10", "50", "50", "낮음"}, rows[2])

	width, err := f.GetColWidth(SheetName, "B")
	require.NoError(t, err)
	assert.Equal(t, 25.0, width)
}

func TestWrite_Empty(t *testing.T) {
	var buf bytes.Buffer
	err := Write(&buf, nil)
	assert.True(t, errors.Is(err, ErrNothingToExport))
	assert.Zero(t, buf.Len())
}

func TestWriteFile(t *testing.T) {
	dir := t.TempDir()

	path, err := WriteFile(dir, "네이버_검색량_a/b_2026-10-19.xlsx", sampleRows())
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "네이버_검색량_a_b_2026-10-19.xlsx"), path)
	_, err = os.Stat(path)
	assert.NoError(t, err)
}
