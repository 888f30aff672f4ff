package audit

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Config holds configuration for the audit service.
type Config struct {
	// RetentionDays is how long journal events are kept. Default: 180.
	RetentionDays int

	ExportOnStart bool

	// ExportDir keeps a copy of every report when set.
	ExportDir string

	// Name prefixes report filenames and captions.
	Name string
}

func DefaultConfig() *Config {
	return &Config{
		RetentionDays: 180,
		Name:          "roombook",
	}
}

// Service exports the journal to Excel on the first of every month and
// then drops events past retention.
type Service struct {
	config   *Config
	exporter TableExporter
	writer   func() ExcelWriter
	notifier Notifier
	cleaner  DataCleaner
	now      func() time.Time
	logger   zerolog.Logger
	stopCh   chan struct{}
	wg       sync.WaitGroup
	mu       sync.Mutex
	running  bool
}

func NewService(
	config *Config,
	exporter TableExporter,
	writerFactory func() ExcelWriter,
	notifier Notifier,
	cleaner DataCleaner,
	logger zerolog.Logger,
) *Service {
	if config == nil {
		config = DefaultConfig()
	}
	if config.RetentionDays <= 0 {
		config.RetentionDays = 180
	}
	if config.Name == "" {
		config.Name = "roombook"
	}

	return &Service{
		config:   config,
		exporter: exporter,
		writer:   writerFactory,
		notifier: notifier,
		cleaner:  cleaner,
		now:      time.Now,
		logger:   logger.With().Str("component", "audit").Logger(),
		stopCh:   make(chan struct{}),
	}
}

// Start begins the monthly scheduler.
func (s *Service) Start() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.mu.Unlock()

	if s.config.ExportOnStart {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.RunExportAndCleanup()
		}()
	}

	s.wg.Add(1)
	go s.loop()

	s.logger.Info().Int("retention_days", s.config.RetentionDays).Msg("Audit service started")
}

// Stop waits for a running export to finish.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.mu.Unlock()

	close(s.stopCh)
	s.wg.Wait()

	s.logger.Info().Msg("Audit service stopped")
}

func (s *Service) loop() {
	defer s.wg.Done()

	nextRun := nextFirstOfMonth(s.now())
	timer := time.NewTimer(time.Until(nextRun))
	defer timer.Stop()

	s.logger.Info().Time("time", nextRun).Msg("Next audit scheduled")

	for {
		select {
		case <-s.stopCh:
			return
		case <-timer.C:
			s.RunExportAndCleanup()

			nextRun = nextFirstOfMonth(s.now())
			timer.Reset(time.Until(nextRun))
			s.logger.Info().Time("time", nextRun).Msg("Next audit scheduled")
		}
	}
}

func nextFirstOfMonth(now time.Time) time.Time {
	return time.Date(now.Year(), now.Month()+1, 1, 0, 1, 0, 0, now.Location())
}

// RunExportAndCleanup exports and then cleans up. Cleanup runs even when
// the export fails.
func (s *Service) RunExportAndCleanup() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	if _, err := s.Export(ctx); err != nil {
		s.logger.Error().Err(err).Msg("Failed to export audit data")
	}
	if _, err := s.Cleanup(ctx); err != nil {
		s.logger.Error().Err(err).Msg("Failed to cleanup old data")
	}
}

// Export builds the report, stores it in ExportDir when configured and
// hands it to the notifier. It returns the report filename.
func (s *Service) Export(ctx context.Context) (string, error) {
	if s.exporter == nil || s.writer == nil {
		return "", fmt.Errorf("exporter or writer not configured")
	}

	tables, err := s.exporter.TableNames(ctx)
	if err != nil {
		return "", fmt.Errorf("get table names: %w", err)
	}
	if len(tables) == 0 {
		s.logger.Info().Msg("No tables to export")
		return "", nil
	}

	excel := s.writer()
	if excel == nil {
		return "", fmt.Errorf("failed to create excel writer")
	}
	defer excel.Close()

	for _, tableName := range tables {
		if err := s.exportTable(ctx, excel, tableName); err != nil {
			s.logger.Error().Err(err).Str("table", tableName).Msg("Failed to export table")
		}
	}

	var buf bytes.Buffer
	if err := excel.Save(&buf); err != nil {
		return "", fmt.Errorf("save excel: %w", err)
	}

	filename := GenerateFilename(s.config.Name, PreviousMonth(s.now()))

	if s.config.ExportDir != "" {
		if err := os.MkdirAll(s.config.ExportDir, 0o755); err != nil {
			return "", fmt.Errorf("create export dir: %w", err)
		}
		if err := os.WriteFile(filepath.Join(s.config.ExportDir, filename), buf.Bytes(), 0o644); err != nil {
			return "", fmt.Errorf("write report: %w", err)
		}
	}

	if s.notifier != nil {
		caption := fmt.Sprintf("📊 Monthly report %s", s.config.Name)
		if err := s.notifier.SendDocument(filename, buf.Bytes(), caption); err != nil {
			return filename, fmt.Errorf("send document: %w", err)
		}
	}

	s.logger.Info().Str("filename", filename).Msg("Audit report exported")
	return filename, nil
}

func (s *Service) exportTable(ctx context.Context, excel ExcelWriter, tableName string) error {
	data, columns, err := s.exporter.TableData(ctx, tableName)
	if err != nil {
		return err
	}
	if err := excel.AddSheet(tableName); err != nil {
		return err
	}
	if err := excel.WriteHeader(columns); err != nil {
		return err
	}

	for _, row := range data {
		rowData := make([]interface{}, len(columns))
		for i, col := range columns {
			rowData[i] = row[col]
		}
		if err := excel.WriteRow(rowData); err != nil {
			return err
		}
	}

	s.logger.Debug().Str("table", tableName).Int("rows", len(data)).Msg("Exported table")
	return nil
}

// Cleanup drops journal events past retention.
func (s *Service) Cleanup(ctx context.Context) (int64, error) {
	if s.cleaner == nil {
		return 0, nil
	}

	retention := time.Duration(s.config.RetentionDays) * 24 * time.Hour
	deleted, err := s.cleaner.DeleteOlderThan(ctx, retention)
	if err != nil {
		return 0, fmt.Errorf("delete old events: %w", err)
	}

	s.logger.Info().
		Int64("deleted_count", deleted).
		Int("retention_days", s.config.RetentionDays).
		Msg("Cleaned up old data")
	return deleted, nil
}
