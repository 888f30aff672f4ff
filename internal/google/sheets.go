package google

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	googleoauth "golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"roombook/internal/events"
	"roombook/internal/models"
)

// ScheduleSource provides the data mirrored to the spreadsheet.
type ScheduleSource interface {
	Bookings() []models.Booking
	Rooms() []models.Room
}

type Config struct {
	CredentialsFile string
	SpreadsheetID   string
	SheetName       string
	GridSheetName   string
	GridDays        int
}

var bookingHeader = []interface{}{
	"ID", "Room", "Title", "Requester", "Role", "Start", "End", "Status", "Purpose", "Created",
}

// SheetsService mirrors the active schedule into a Google spreadsheet: one
// sheet with a row per booking and one room-by-day grid.
type SheetsService struct {
	srv    *sheets.Service
	config Config
	logger zerolog.Logger

	mu          sync.Mutex
	rowCache    map[string]int
	updates     map[string]models.Booking
	dirty       bool
	gridSheetID *int64
}

func NewSheetsService(ctx context.Context, cfg Config, logger zerolog.Logger) (*SheetsService, error) {
	data, err := os.ReadFile(cfg.CredentialsFile)
	if err != nil {
		return nil, fmt.Errorf("read credentials: %w", err)
	}
	jwt, err := googleoauth.JWTConfigFromJSON(data, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("parse credentials: %w", err)
	}
	srv, err := sheets.NewService(ctx, option.WithTokenSource(jwt.TokenSource(ctx)))
	if err != nil {
		return nil, fmt.Errorf("sheets client: %w", err)
	}
	return newSheetsService(srv, cfg, logger), nil
}

func newSheetsService(srv *sheets.Service, cfg Config, logger zerolog.Logger) *SheetsService {
	if cfg.GridDays <= 0 {
		cfg.GridDays = 7
	}
	return &SheetsService{
		srv:      srv,
		config:   cfg,
		logger:   logger.With().Str("component", "sheets").Logger(),
		rowCache: make(map[string]int),
		updates:  make(map[string]models.Booking),
		dirty:    true,
	}
}

// pending reports whether a full rebuild is due and how many single-row
// updates are queued.
func (s *SheetsService) pending() (bool, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty, len(s.updates)
}

// Listener records schedule changes for the next Flush. Field edits of an
// already mirrored booking rewrite just its row; anything else rebuilds
// both sheets.
func (s *SheetsService) Listener() events.Listener {
	return func(event events.Event) error {
		switch event.Type.Subject() {
		case "booking", "room", "recurring":
		default:
			return nil
		}

		b, isBooking := event.Payload.(models.Booking)
		if isBooking && !b.IsActive() {
			s.deleteCacheRow(b.ID)
		}

		s.mu.Lock()
		defer s.mu.Unlock()
		if isBooking && event.Type == events.BookingUpdated && b.IsActive() {
			s.updates[b.ID] = b
			return nil
		}
		s.dirty = true
		return nil
	}
}

// Run flushes pending changes every interval until ctx ends.
func (s *SheetsService) Run(ctx context.Context, interval time.Duration, source ScheduleSource, now func() time.Time) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if err := s.Flush(ctx, source, now()); err != nil {
			s.logger.Error().Err(err).Msg("sheets sync failed")
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Flush writes pending changes. On failure the changes stay pending.
func (s *SheetsService) Flush(ctx context.Context, source ScheduleSource, now time.Time) error {
	s.mu.Lock()
	dirty := s.dirty
	updates := s.updates
	s.dirty = false
	s.updates = make(map[string]models.Booking)
	if !dirty {
		for id := range updates {
			if _, ok := s.rowCache[id]; !ok {
				dirty = true
				break
			}
		}
	}
	s.mu.Unlock()

	var err error
	if dirty {
		err = s.SyncAll(ctx, source.Bookings(), source.Rooms(), now)
	} else {
		for _, b := range updates {
			if err = s.updateRow(ctx, b); err != nil {
				break
			}
		}
		if err == nil && len(updates) > 0 {
			err = s.writeGrid(ctx, source.Rooms(), filterActiveBookings(source.Bookings()), now)
		}
	}

	if err != nil {
		s.mu.Lock()
		s.dirty = true
		s.mu.Unlock()
	}
	return err
}

// SyncAll rewrites the booking sheet and the grid.
func (s *SheetsService) SyncAll(ctx context.Context, bookings []models.Booking, rooms []models.Room, now time.Time) error {
	active := filterActiveBookings(bookings)

	values := make([][]interface{}, 0, len(active)+1)
	values = append(values, bookingHeader)
	for i := range active {
		values = append(values, bookingRowValues(&active[i]))
	}

	sheet := s.config.SheetName
	if _, err := s.srv.Spreadsheets.Values.Clear(s.config.SpreadsheetID, sheet+"!A:J", &sheets.ClearValuesRequest{}).
		Context(ctx).Do(); err != nil {
		return fmt.Errorf("clear %s: %w", sheet, err)
	}
	if _, err := s.srv.Spreadsheets.Values.Update(s.config.SpreadsheetID, sheet+"!A1", &sheets.ValueRange{Values: values}).
		ValueInputOption("RAW").Context(ctx).Do(); err != nil {
		return fmt.Errorf("write %s: %w", sheet, err)
	}

	s.ClearCache()
	for i := range active {
		s.setCachedRow(active[i].ID, i+2)
	}

	if err := s.writeGrid(ctx, rooms, active, now); err != nil {
		return err
	}
	s.logger.Info().Int("bookings", len(active)).Msg("schedule mirrored")
	return nil
}

func (s *SheetsService) updateRow(ctx context.Context, b models.Booking) error {
	row, ok := s.getCachedRow(b.ID)
	if !ok {
		return fmt.Errorf("booking %s has no mirrored row", b.ID)
	}
	rng := fmt.Sprintf("%s!A%d:J%d", s.config.SheetName, row, row)
	vr := &sheets.ValueRange{Values: [][]interface{}{bookingRowValues(&b)}}
	if _, err := s.srv.Spreadsheets.Values.Update(s.config.SpreadsheetID, rng, vr).
		ValueInputOption("RAW").Context(ctx).Do(); err != nil {
		return fmt.Errorf("update row %d: %w", row, err)
	}
	return nil
}

func (s *SheetsService) writeGrid(ctx context.Context, rooms []models.Room, active []models.Booking, now time.Time) error {
	sheetID, err := s.lookupGridSheet(ctx)
	if err != nil {
		return err
	}

	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	end := start.AddDate(0, 0, s.config.GridDays-1)
	rows := buildGrid(rooms, active, start, end)

	req := &sheets.BatchUpdateSpreadsheetRequest{Requests: []*sheets.Request{
		{UpdateCells: &sheets.UpdateCellsRequest{
			Range:  &sheets.GridRange{SheetId: sheetID, ForceSendFields: []string{"SheetId"}},
			Fields: "userEnteredValue,userEnteredFormat.backgroundColor",
		}},
		{UpdateCells: &sheets.UpdateCellsRequest{
			Start: &sheets.GridCoordinate{
				SheetId:         sheetID,
				ForceSendFields: []string{"SheetId", "RowIndex", "ColumnIndex"},
			},
			Rows:   rows,
			Fields: "userEnteredValue,userEnteredFormat.backgroundColor",
		}},
	}}
	if _, err := s.srv.Spreadsheets.BatchUpdate(s.config.SpreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("write grid: %w", err)
	}
	return nil
}

func (s *SheetsService) lookupGridSheet(ctx context.Context) (int64, error) {
	s.mu.Lock()
	cached := s.gridSheetID
	s.mu.Unlock()
	if cached != nil {
		return *cached, nil
	}

	ss, err := s.srv.Spreadsheets.Get(s.config.SpreadsheetID).Fields("sheets.properties").Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("get spreadsheet: %w", err)
	}
	for _, sh := range ss.Sheets {
		if sh.Properties != nil && sh.Properties.Title == s.config.GridSheetName {
			id := sh.Properties.SheetId
			s.mu.Lock()
			s.gridSheetID = &id
			s.mu.Unlock()
			return id, nil
		}
	}
	return 0, fmt.Errorf("sheet %q not found", s.config.GridSheetName)
}

// filterActiveBookings drops cancelled and rejected bookings and orders the
// rest by start time.
func filterActiveBookings(bookings []models.Booking) []models.Booking {
	active := make([]models.Booking, 0, len(bookings))
	for _, b := range bookings {
		if b.IsActive() {
			active = append(active, b)
		}
	}
	sort.SliceStable(active, func(i, j int) bool { return active[i].Start.Before(active[j].Start) })
	return active
}

func bookingRowValues(b *models.Booking) []interface{} {
	return []interface{}{
		b.ID,
		b.RoomID,
		b.Title,
		b.Requester,
		string(b.Role),
		b.Start.Format("2006-01-02 15:04"),
		b.End.Format("2006-01-02 15:04"),
		string(b.Status),
		b.Purpose,
		b.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}

// prepareDateHeaders returns the grid header row and the number of day
// columns between start and end inclusive.
func prepareDateHeaders(start, end time.Time) ([]string, int) {
	headers := []string{"Room"}
	cols := 0
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		headers = append(headers, d.Format("02.01"))
		cols++
	}
	return headers, cols
}

var (
	colorFree    = &sheets.Color{Red: 0.85, Green: 0.95, Blue: 0.85}
	colorPending = &sheets.Color{Red: 1, Green: 0.95, Blue: 0.8}
	colorBooked  = &sheets.Color{Red: 0.95, Green: 0.8, Blue: 0.8}
)

// formatScheduleCell renders one room-day cell. Cells with a pending
// booking are highlighted differently from fully approved ones.
func formatScheduleCell(room models.Room, bookings []models.Booking) (string, *sheets.Color) {
	if len(bookings) == 0 {
		return "free", colorFree
	}
	lines := make([]string, 0, len(bookings))
	color := colorBooked
	for _, b := range bookings {
		line := fmt.Sprintf("%s-%s %s (%s)", b.Start.Format("15:04"), b.End.Format("15:04"), b.Title, b.Requester)
		if b.Status == models.StatusPending {
			line += " [pending]"
			color = colorPending
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n"), color
}

func buildGrid(rooms []models.Room, active []models.Booking, start, end time.Time) []*sheets.RowData {
	headers, cols := prepareDateHeaders(start, end)
	rows := make([]*sheets.RowData, 0, len(rooms)+1)
	rows = append(rows, &sheets.RowData{Values: stringCells(headers)})

	for _, room := range rooms {
		cells := make([]*sheets.CellData, 0, cols+1)
		name := room.Name
		cells = append(cells, &sheets.CellData{UserEnteredValue: &sheets.ExtendedValue{StringValue: &name}})
		for day := 0; day < cols; day++ {
			dayStart := start.AddDate(0, 0, day)
			dayEnd := dayStart.AddDate(0, 0, 1)
			var onDay []models.Booking
			for _, b := range active {
				if b.RoomID == room.ID && b.Overlaps(dayStart, dayEnd) {
					onDay = append(onDay, b)
				}
			}
			text, color := formatScheduleCell(room, onDay)
			cells = append(cells, &sheets.CellData{
				UserEnteredValue:  &sheets.ExtendedValue{StringValue: &text},
				UserEnteredFormat: &sheets.CellFormat{BackgroundColor: color},
			})
		}
		rows = append(rows, &sheets.RowData{Values: cells})
	}
	return rows
}

func stringCells(values []string) []*sheets.CellData {
	cells := make([]*sheets.CellData, len(values))
	for i := range values {
		v := values[i]
		cells[i] = &sheets.CellData{UserEnteredValue: &sheets.ExtendedValue{StringValue: &v}}
	}
	return cells
}

func (s *SheetsService) getCachedRow(id string) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.rowCache[id]
	return row, ok
}

func (s *SheetsService) setCachedRow(id string, row int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rowCache[id] = row
}

func (s *SheetsService) deleteCacheRow(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rowCache, id)
}

// ClearCache forgets every mirrored row position.
func (s *SheetsService) ClearCache() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rowCache = make(map[string]int)
}
