package google

import (
	"io"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"roombook/internal/events"
	"roombook/internal/models"
)

func newTestService() *SheetsService {
	s := newSheetsService(nil, Config{SheetName: "Schedule", GridSheetName: "Grid"}, zerolog.New(io.Discard))
	s.dirty = false
	return s
}

func TestFilterActiveBookings(t *testing.T) {
	base := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	bookings := []models.Booking{
		{ID: "late", Status: models.StatusApproved, Start: base.Add(2 * time.Hour)},
		{ID: "gone", Status: models.StatusCancelled, Start: base},
		{ID: "early", Status: models.StatusPending, Start: base},
		{ID: "no", Status: models.StatusRejected, Start: base},
	}

	active := filterActiveBookings(bookings)

	if len(active) != 2 {
		t.Fatalf("Expected 2 active bookings, got %d", len(active))
	}
	if active[0].ID != "early" || active[1].ID != "late" {
		t.Errorf("Expected bookings ordered by start, got %s, %s", active[0].ID, active[1].ID)
	}
}

func TestBookingRowValues(t *testing.T) {
	start := time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)
	created := time.Date(2025, 3, 1, 8, 30, 15, 0, time.UTC)

	booking := &models.Booking{
		ID:        "b-1",
		RoomID:    "r-101",
		Title:     "Exam Review",
		Requester: "Prof. Lee",
		Role:      models.RoleTeacher,
		Start:     start,
		End:       start.Add(2 * time.Hour),
		Status:    models.StatusApproved,
		Purpose:   "Finals",
		CreatedAt: created,
	}

	values := bookingRowValues(booking)

	expected := []interface{}{
		"b-1",
		"r-101",
		"Exam Review",
		"Prof. Lee",
		"teacher",
		"2025-03-10 10:00",
		"2025-03-10 12:00",
		"approved",
		"Finals",
		"2025-03-01 08:30:15",
	}

	if len(values) != len(expected) || len(values) != len(bookingHeader) {
		t.Fatalf("Expected %d values, got %d", len(expected), len(values))
	}
	for i, v := range values {
		if v != expected[i] {
			t.Errorf("At index %d: expected %v, got %v", i, expected[i], v)
		}
	}
}

func TestRowCache(t *testing.T) {
	s := newTestService()

	s.setCachedRow("b-1", 10)
	row, ok := s.getCachedRow("b-1")
	if !ok || row != 10 {
		t.Errorf("Expected row 10, got %d (ok=%v)", row, ok)
	}

	s.deleteCacheRow("b-1")
	if _, ok = s.getCachedRow("b-1"); ok {
		t.Error("Expected row to be deleted from cache")
	}

	s.setCachedRow("b-2", 20)
	s.ClearCache()
	if _, ok = s.getCachedRow("b-2"); ok {
		t.Error("Expected cache to be cleared")
	}
}

func TestPrepareDateHeaders(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 1, 3, 0, 0, 0, 0, time.UTC)

	headers, cols := prepareDateHeaders(start, end)

	if cols != 3 {
		t.Errorf("Expected 3 columns, got %d", cols)
	}
	if len(headers) != 4 {
		t.Fatalf("Expected 4 headers, got %d", len(headers))
	}
	if headers[0] != "Room" || headers[1] != "01.01" || headers[3] != "03.01" {
		t.Errorf("Unexpected headers %v", headers)
	}
}

func TestFormatScheduleCell(t *testing.T) {
	room := models.Room{ID: "r-101", Name: "Room 101"}
	start := time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)

	text, color := formatScheduleCell(room, nil)
	if text != "free" || color != colorFree {
		t.Errorf("Expected free cell, got %q", text)
	}

	approved := models.Booking{Title: "Exam", Requester: "Lee", Start: start, End: start.Add(time.Hour), Status: models.StatusApproved}
	text, color = formatScheduleCell(room, []models.Booking{approved})
	if text != "10:00-11:00 Exam (Lee)" || color != colorBooked {
		t.Errorf("Unexpected approved cell %q", text)
	}

	pending := approved
	pending.Status = models.StatusPending
	pending.Title = "Club"
	text, color = formatScheduleCell(room, []models.Booking{approved, pending})
	if !strings.Contains(text, "Club (Lee) [pending]") || strings.Count(text, "\n") != 1 {
		t.Errorf("Unexpected mixed cell %q", text)
	}
	if color != colorPending {
		t.Error("Expected pending color when any booking awaits a decision")
	}
}

func TestBuildGrid(t *testing.T) {
	day := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	rooms := []models.Room{{ID: "a", Name: "A"}, {ID: "b", Name: "B"}}
	active := []models.Booking{
		{RoomID: "a", Title: "T", Requester: "R", Start: day.Add(26 * time.Hour), End: day.Add(27 * time.Hour), Status: models.StatusApproved},
	}

	rows := buildGrid(rooms, active, day, day.AddDate(0, 0, 1))

	if len(rows) != 3 {
		t.Fatalf("Expected header plus 2 room rows, got %d", len(rows))
	}
	if got := *rows[1].Values[0].UserEnteredValue.StringValue; got != "A" {
		t.Errorf("Expected room name A, got %q", got)
	}
	if got := *rows[1].Values[1].UserEnteredValue.StringValue; got != "free" {
		t.Errorf("Expected first day free, got %q", got)
	}
	if got := *rows[1].Values[2].UserEnteredValue.StringValue; got != "02:00-03:00 T (R)" {
		t.Errorf("Expected booking on second day, got %q", got)
	}
}

func TestListenerQueuesChanges(t *testing.T) {
	s := newTestService()
	listener := s.Listener()
	b := models.Booking{ID: "b-1", Status: models.StatusApproved}

	_ = listener(events.New(events.UserCreated, models.User{ID: "u"}))
	if dirty, n := s.pending(); dirty || n != 0 {
		t.Error("Expected unrelated events to be ignored")
	}

	_ = listener(events.New(events.BookingUpdated, b))
	if dirty, n := s.pending(); dirty || n != 1 {
		t.Errorf("Expected one row update, got dirty=%v n=%d", dirty, n)
	}

	s.setCachedRow("b-2", 3)
	_ = listener(events.New(events.BookingUpdated, models.Booking{ID: "b-2", Status: models.StatusCancelled}))
	if dirty, _ := s.pending(); !dirty {
		t.Error("Expected cancellation to force a rebuild")
	}
	if _, ok := s.getCachedRow("b-2"); ok {
		t.Error("Expected cancelled booking row to be forgotten")
	}
}
