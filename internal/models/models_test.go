package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(h, m int) time.Time {
	return time.Date(2025, 3, 10, h, m, 0, 0, time.UTC)
}

func TestBooking_Overlaps(t *testing.T) {
	b := &Booking{Start: at(10, 0), End: at(12, 0), Status: StatusApproved}

	tests := []struct {
		name       string
		start, end time.Time
		want       bool
	}{
		{"inside", at(10, 30), at(11, 0), true},
		{"covers", at(9, 0), at(13, 0), true},
		{"overlaps start", at(9, 0), at(10, 1), true},
		{"overlaps end", at(11, 59), at(13, 0), true},
		{"touches end", at(12, 0), at(13, 0), false},
		{"touches start", at(9, 0), at(10, 0), false},
		{"before", at(7, 0), at(8, 0), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, b.Overlaps(tt.start, tt.end))
		})
	}
}

func TestBooking_Helpers(t *testing.T) {
	b := &Booking{Start: at(10, 0), End: at(11, 30), Status: StatusPending}

	assert.Equal(t, 90*time.Minute, b.Duration())
	assert.True(t, b.IsActive())
	assert.True(t, b.ContainsTime(at(10, 0)))
	assert.False(t, b.ContainsTime(at(11, 30)))

	b.Status = StatusCancelled
	assert.False(t, b.IsActive())
	b.Status = StatusRejected
	assert.False(t, b.IsActive())
}

func TestDefaultStatusFor(t *testing.T) {
	assert.Equal(t, StatusPending, DefaultStatusFor(RoleStudent))
	assert.Equal(t, StatusPending, DefaultStatusFor(""))
	assert.Equal(t, StatusApproved, DefaultStatusFor(RoleTeacher))
	assert.Equal(t, StatusApproved, DefaultStatusFor(RoleAdmin))
}

func TestBooking_MarshalJSON(t *testing.T) {
	b := Booking{
		ID:     "b-1",
		RoomID: "r-101",
		Title:  "Exam Review",
		Role:   RoleTeacher,
		Start:  at(10, 0),
		End:    at(12, 0),
		Status: StatusApproved,
	}

	raw, err := json.Marshal(b)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, float64(at(10, 0).UnixMilli()), decoded["start"])
	assert.Equal(t, float64(at(12, 0).UnixMilli()), decoded["end"])
	assert.Equal(t, float64(0), decoded["createdAt"])
	assert.Equal(t, "r-101", decoded["roomId"])
	assert.NotContains(t, decoded, "purpose")
}

func TestRoom_HasEquipment(t *testing.T) {
	r := &Room{Equipment: []string{"Projector", "AC"}}

	assert.True(t, r.HasEquipment())
	assert.True(t, r.HasEquipment("AC"))
	assert.True(t, r.HasEquipment("AC", "Projector"))
	assert.False(t, r.HasEquipment("AC", "Whiteboard"))
}

func TestRoom_CloneDoesNotShareTags(t *testing.T) {
	r := Room{Equipment: []string{"AC", "", "AC", "Projector"}}
	c := r.Clone()
	c.Equipment[0] = "Changed"

	assert.Equal(t, "AC", r.Equipment[0])
	assert.Equal(t, []string{"Changed", "Projector"}, c.Equipment)
}

func TestRoom_MarshalEmptyEquipment(t *testing.T) {
	raw, err := json.Marshal(Room{ID: "r-1"})
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"equipment":[]`)
}

func TestMillisRoundTrip(t *testing.T) {
	ts := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, ts, FromMillis(Millis(ts)))
	assert.True(t, FromMillis(0).IsZero())
	assert.Equal(t, int64(0), Millis(time.Time{}))
}

func TestEnumsValid(t *testing.T) {
	assert.True(t, RoleAdmin.Valid())
	assert.False(t, Role("guest").Valid())
	assert.True(t, StatusCancelled.Valid())
	assert.False(t, BookingStatus("done").Valid())
	assert.True(t, KindReminder.Valid())
	assert.False(t, NotificationKind("x").Valid())
	assert.True(t, PatternMonthly.Valid())
	assert.False(t, RecurrencePattern("yearly").Valid())
}
