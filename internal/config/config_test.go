package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_DefaultsAndEnvExpansion(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("ROOMBOOK_TEST_TOKEN", "secret-token")

	path := writeFile(t, dir, "config.yaml", `
telegram:
  enabled: true
  bot_token: ${ROOMBOOK_TEST_TOKEN}
  admins: [1, 2]
journal:
  enabled: true
  path: `+filepath.Join(dir, "nested", "journal.db")+`
reminders:
  lead_minutes: 15
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "secret-token", cfg.Telegram.BotToken)
	assert.Equal(t, []int64{1, 2}, cfg.Telegram.Admins)
	assert.Equal(t, ":8080", cfg.Server.Address)
	assert.Equal(t, "configs/rooms.yaml", cfg.Rooms.CatalogPath)
	assert.Equal(t, "roombook:events", cfg.Redis.Channel)
	assert.Equal(t, 10*time.Second, cfg.Heartbeat())
	assert.Equal(t, 15*time.Minute, cfg.ReminderLead())
	assert.Equal(t, 24*time.Hour, cfg.BackupInterval())
	assert.Equal(t, 30*time.Second, cfg.SheetsSyncInterval())
	assert.Equal(t, "Grid", cfg.Google.GridSheetName)
	assert.Equal(t, 7, cfg.Google.GridDays)
	assert.Equal(t, "UTC", cfg.Reminders.DigestTimezone)
	assert.DirExists(t, filepath.Join(dir, "nested"))
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := writeFile(t, t.TempDir(), "bad.yaml", "server: [unclosed")
	_, err = Load(path)
	assert.Error(t, err)
}

const roomsYAML = `
rooms:
  - id: r-101
    name: Room 101
    building: Main
    capacity: 40
    equipment: [Projector, AC, AC]
  - id: lab-1
    name: Science Lab 1
    building: Science
    capacity: 25
`

func TestLoadRoomsConfig(t *testing.T) {
	path := writeFile(t, t.TempDir(), "rooms.yaml", roomsYAML)

	cfg, err := LoadRoomsConfig(path)
	require.NoError(t, err)
	rooms := cfg.Models()
	require.Len(t, rooms, 2)
	assert.Equal(t, []string{"Projector", "AC"}, rooms[0].Equipment)
	assert.Equal(t, "Science", rooms[1].Building)
}

func TestRoomsConfig_Validate(t *testing.T) {
	tests := []struct {
		name  string
		rooms []RoomConfig
		want  string
	}{
		{"missing id", []RoomConfig{{Name: "A", Capacity: 1}}, "room[0]: id is required"},
		{"duplicate", []RoomConfig{{ID: "a", Name: "A", Capacity: 1}, {ID: "a", Name: "B", Capacity: 1}}, `room[1]: duplicate id "a"`},
		{"missing name", []RoomConfig{{ID: "a", Capacity: 1}}, "room[0]: name is required"},
		{"capacity", []RoomConfig{{ID: "a", Name: "A"}}, "room[0]: capacity must be positive"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := RoomsConfig{Rooms: tt.rooms}
			assert.EqualError(t, cfg.Validate(), tt.want)
		})
	}
}

func TestRoomsWatcher_Poll(t *testing.T) {
	path := writeFile(t, t.TempDir(), "rooms.yaml", roomsYAML)

	var updates []*RoomsConfig
	w := NewRoomsWatcher(path, time.Second, func(cfg *RoomsConfig) { updates = append(updates, cfg) }, nil)
	require.NoError(t, w.Load())
	require.Len(t, updates, 1)

	changed, err := w.Poll()
	require.NoError(t, err)
	assert.False(t, changed)

	// Invalid content is reported and does not replace the catalog.
	require.NoError(t, os.WriteFile(path, []byte("rooms:\n  - id: x\n"), 0o644))
	future := time.Now().Add(time.Minute)
	require.NoError(t, os.Chtimes(path, future, future))
	changed, err = w.Poll()
	assert.Error(t, err)
	assert.False(t, changed)

	require.NoError(t, os.WriteFile(path, []byte(roomsYAML), 0o644))
	later := future.Add(time.Minute)
	require.NoError(t, os.Chtimes(path, later, later))
	changed, err = w.Poll()
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Len(t, updates, 2)
}

func TestWatchRooms_MissingFile(t *testing.T) {
	err := WatchRooms(t.Context(), filepath.Join(t.TempDir(), "none.yaml"), time.Second, nil, nil)
	assert.Error(t, err)
}
