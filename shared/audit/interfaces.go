package audit

import (
	"context"
	"fmt"
	"io"
	"time"
)

// TableExporter provides the tables included in a report.
type TableExporter interface {
	TableNames(ctx context.Context) ([]string, error)
	TableData(ctx context.Context, tableName string) ([]map[string]interface{}, []string, error)
}

// ExcelWriter writes data to Excel format.
type ExcelWriter interface {
	// AddSheet adds a new sheet and makes it current.
	AddSheet(name string) error

	WriteHeader(columns []string) error
	WriteRow(row []interface{}) error

	Save(w io.Writer) error
	SaveToFile(path string) error
	Close() error
}

// Notifier delivers finished reports, e.g. to the admin chat.
type Notifier interface {
	SendDocument(filename string, data []byte, caption string) error
}

// DataCleaner drops journal rows past the retention period.
type DataCleaner interface {
	DeleteOlderThan(ctx context.Context, olderThan time.Duration) (int64, error)
}

// GenerateFilename creates a filename like "roombook_2025-03.xlsx".
func GenerateFilename(prefix string, t time.Time) string {
	return fmt.Sprintf("%s_%s.xlsx", prefix, t.Format("2006-01"))
}

// PreviousMonth returns a time inside the calendar month before now.
func PreviousMonth(now time.Time) time.Time {
	return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()).AddDate(0, -1, 0)
}
