package audit

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

type fakeExporter struct {
	tables map[string][]map[string]interface{}
	cols   map[string][]string
	order  []string
}

func (f *fakeExporter) TableNames(context.Context) ([]string, error) {
	return f.order, nil
}

func (f *fakeExporter) TableData(_ context.Context, name string) ([]map[string]interface{}, []string, error) {
	rows, ok := f.tables[name]
	if !ok {
		return nil, nil, errors.New("no such table")
	}
	return rows, f.cols[name], nil
}

type captureNotifier struct {
	name    string
	data    []byte
	caption string
}

func (c *captureNotifier) SendDocument(name string, data []byte, caption string) error {
	c.name, c.data, c.caption = name, data, caption
	return nil
}

type fakeCleaner struct {
	olderThan time.Duration
}

func (f *fakeCleaner) DeleteOlderThan(_ context.Context, d time.Duration) (int64, error) {
	f.olderThan = d
	return 4, nil
}

func TestExportBuildsWorkbook(t *testing.T) {
	created := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	exporter := &fakeExporter{
		order: []string{"events", "missing", "bookings"},
		tables: map[string][]map[string]interface{}{
			"events":   {{"id": int64(1), "type": "booking:created", "created_at": created}},
			"bookings": {{"id": []byte("b-1"), "status": "approved"}},
		},
		cols: map[string][]string{
			"events":   {"id", "type", "created_at"},
			"bookings": {"id", "status"},
		},
	}
	notifier := &captureNotifier{}
	dir := t.TempDir()

	svc := NewService(&Config{ExportDir: dir}, exporter, NewExcelizeWriter, notifier, nil, zerolog.New(io.Discard))
	svc.now = func() time.Time { return time.Date(2025, 4, 1, 0, 1, 0, 0, time.UTC) }

	name, err := svc.Export(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "roombook_2025-03.xlsx", name)
	assert.Equal(t, name, notifier.name)
	assert.Contains(t, notifier.caption, "roombook")

	_, err = os.Stat(filepath.Join(dir, name))
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(notifier.data))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"events", "bookings"}, f.GetSheetList())
	v, err := f.GetCellValue("events", "C2")
	require.NoError(t, err)
	assert.Equal(t, "2025-03-10 09:00:00", v)
	v, err = f.GetCellValue("bookings", "A2")
	require.NoError(t, err)
	assert.Equal(t, "b-1", v)
	v, err = f.GetCellValue("bookings", "B1")
	require.NoError(t, err)
	assert.Equal(t, "status", v)
}

func TestExportRequiresExporter(t *testing.T) {
	svc := NewService(nil, nil, NewExcelizeWriter, nil, nil, zerolog.New(io.Discard))
	_, err := svc.Export(context.Background())
	assert.Error(t, err)
}

func TestCleanupUsesRetention(t *testing.T) {
	cleaner := &fakeCleaner{}
	svc := NewService(&Config{RetentionDays: 30}, nil, nil, nil, cleaner, zerolog.New(io.Discard))

	deleted, err := svc.Cleanup(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(4), deleted)
	assert.Equal(t, 30*24*time.Hour, cleaner.olderThan)
}

func TestStartStop(t *testing.T) {
	svc := NewService(nil, nil, nil, nil, nil, zerolog.New(io.Discard))
	svc.Start()
	svc.Start()
	svc.Stop()
	svc.Stop()
}

func TestFilenames(t *testing.T) {
	assert.Equal(t, "roombook_2025-12.xlsx", GenerateFilename("roombook", PreviousMonth(time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC))))
	assert.Equal(t, time.Date(2025, 5, 1, 0, 1, 0, 0, time.UTC), nextFirstOfMonth(time.Date(2025, 4, 30, 23, 0, 0, 0, time.UTC)))
}
