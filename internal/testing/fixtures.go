package testing

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aristath/ratechart/internal/modules/dataset"
)

// FixtureCSV is a small slice of the FRED unemployment export, including a
// missing-value marker for the national series
const FixtureCSV = `DATE,UNRATE,MOUR,CLMUR
2000-01-01,4.0,3.1,1.9
2005-06-01,5.1,4.8,3.9
2010-01-01,.,9.6,6.8
2015-01-01,5.7,5.9,4.1
2018-12-01,3.9,3.2,2.5
`

// NewMonthlyCSV builds a CSV with one row per month starting at start. Each
// row's values are produced by value(seriesIndex, row).
func NewMonthlyCSV(start time.Time, months int, ids []string, value func(series, row int) string) string {
	var b strings.Builder
	b.WriteString("DATE," + strings.Join(ids, ",") + "\n")
	for row := 0; row < months; row++ {
		b.WriteString(start.AddDate(0, row, 0).Format("2006-01-02"))
		for i := range ids {
			b.WriteString("," + value(i, row))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// WriteFixture writes content to a file in a per-test temp directory and returns its path
func WriteFixture(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write fixture %s: %v", name, err)
	}
	return path
}

// NewDatasetFixture returns a parsed dataset built from FixtureCSV rows
func NewDatasetFixture() *dataset.Dataset {
	lines := strings.Split(strings.TrimSpace(FixtureCSV), "\n")
	columns := strings.Split(lines[0], ",")

	records := make([]dataset.Record, 0, len(lines)-1)
	for _, line := range lines[1:] {
		cells := strings.Split(line, ",")
		rec := make(dataset.Record, len(columns))
		for i, col := range columns {
			rec[col] = cells[i]
		}
		records = append(records, rec)
	}

	return &dataset.Dataset{
		Source:   "fixture.csv",
		Columns:  columns,
		Records:  records,
		Checksum: fmt.Sprintf("%064d", len(records)),
		LoadedAt: time.Date(2019, time.January, 1, 0, 0, 0, 0, time.UTC),
	}
}
