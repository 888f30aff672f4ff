package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3" // sqlite3 driver
	"github.com/rs/zerolog"

	"roombook/internal/events"
	"roombook/internal/models"
)

// Journal is an append-only SQLite log of every broadcast event plus the
// last known state of each booking. The in-memory store stays the source of
// truth; the journal feeds audit exports and backups.
type Journal struct {
	*sql.DB
	path    string
	timeout time.Duration
	logger  zerolog.Logger
}

// Entry is one journaled event.
type Entry struct {
	ID        int64
	Type      events.Type
	EntityID  string
	Payload   string
	CreatedAt time.Time
}

// AuditTableNames lists the tables included in audit reports.
var AuditTableNames = []string{
	"events",
	"bookings",
}

// NewJournal opens (creating if needed) the journal database at path.
func NewJournal(path string, logger zerolog.Logger) (*Journal, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create journal directory: %w", err)
	}

	dsn := path + "?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}

	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to journal: %w", err)
	}

	j := &Journal{
		DB:      db,
		path:    path,
		timeout: 2 * time.Second,
		logger:  logger.With().Str("component", "journal").Logger(),
	}
	if err := j.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	j.logger.Info().Str("path", path).Msg("Journal initialized")
	return j, nil
}

func (j *Journal) createTables() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			type TEXT NOT NULL,
			entity_id TEXT,
			payload TEXT NOT NULL,
			created_at DATETIME NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_events_created_at ON events(created_at)`,
		`CREATE TABLE IF NOT EXISTS bookings (
			id TEXT PRIMARY KEY,
			room_id TEXT NOT NULL,
			title TEXT NOT NULL,
			requester TEXT NOT NULL,
			role TEXT NOT NULL,
			start_at DATETIME NOT NULL,
			end_at DATETIME NOT NULL,
			status TEXT NOT NULL,
			deleted BOOLEAN NOT NULL DEFAULT 0,
			updated_at DATETIME NOT NULL
		)`,
	}

	for _, q := range queries {
		if _, err := j.Exec(q); err != nil {
			return err
		}
	}
	return nil
}

// Path returns the database file location.
func (j *Journal) Path() string {
	return j.path
}

// Listener journals every event it receives.
func (j *Journal) Listener() events.Listener {
	return func(event events.Event) error {
		ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
		defer cancel()
		return j.Record(ctx, event)
	}
}

// Record appends event and, for booking events, refreshes the booking row.
func (j *Journal) Record(ctx context.Context, event events.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	tx, err := j.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err = tx.ExecContext(ctx,
		`INSERT INTO events (type, entity_id, payload, created_at) VALUES (?, ?, ?, ?)`,
		string(event.Type), entityID(event.Payload), string(payload), event.CreatedAt.UTC(),
	); err != nil {
		return fmt.Errorf("insert event: %w", err)
	}

	switch p := event.Payload.(type) {
	case models.Booking:
		if err = upsertBooking(ctx, tx, p, event.Type == events.BookingDeleted, event.CreatedAt); err != nil {
			return err
		}
	case map[string]any:
		if generated, ok := p["bookings"].([]models.Booking); ok {
			for _, b := range generated {
				if err = upsertBooking(ctx, tx, b, false, event.CreatedAt); err != nil {
					return err
				}
			}
		}
	}

	return tx.Commit()
}

func upsertBooking(ctx context.Context, tx *sql.Tx, b models.Booking, deleted bool, at time.Time) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO bookings (id, room_id, title, requester, role, start_at, end_at, status, deleted, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			room_id = excluded.room_id,
			title = excluded.title,
			requester = excluded.requester,
			role = excluded.role,
			start_at = excluded.start_at,
			end_at = excluded.end_at,
			status = excluded.status,
			deleted = excluded.deleted,
			updated_at = excluded.updated_at`,
		b.ID, b.RoomID, b.Title, b.Requester, string(b.Role),
		b.Start.UTC(), b.End.UTC(), string(b.Status), deleted, at.UTC(),
	)
	if err != nil {
		return fmt.Errorf("upsert booking %s: %w", b.ID, err)
	}
	return nil
}

func entityID(payload any) string {
	switch p := payload.(type) {
	case models.Booking:
		return p.ID
	case models.Room:
		return p.ID
	case models.NotificationItem:
		return p.ID
	case models.User:
		return p.ID
	case models.Equipment:
		return p.ID
	case map[string]any:
		if r, ok := p["recurring"].(models.RecurringBooking); ok {
			return r.ID
		}
	}
	return ""
}

// Recent returns up to limit entries, newest first.
func (j *Journal) Recent(ctx context.Context, limit int) ([]Entry, error) {
	rows, err := j.QueryContext(ctx,
		`SELECT id, type, entity_id, payload, created_at FROM events ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var typ string
		var entity sql.NullString
		if err := rows.Scan(&e.ID, &typ, &entity, &e.Payload, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.Type = events.Type(typ)
		e.EntityID = entity.String
		out = append(out, e)
	}
	return out, rows.Err()
}

// DeleteOlderThan removes events older than olderThan and returns how many
// rows went away. Booking rows are kept.
func (j *Journal) DeleteOlderThan(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := time.Now().Add(-olderThan).UTC()
	res, err := j.ExecContext(ctx, `DELETE FROM events WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// TableNames returns the tables to export.
func (j *Journal) TableNames(context.Context) ([]string, error) {
	return AuditTableNames, nil
}

// TableData returns all rows from a table as maps along with its columns.
func (j *Journal) TableData(ctx context.Context, tableName string) (result []map[string]interface{}, columns []string, err error) {
	validTable := false
	for _, t := range AuditTableNames {
		if t == tableName {
			validTable = true
			break
		}
	}
	if !validTable {
		return nil, nil, fmt.Errorf("invalid table name: %s", tableName)
	}

	rows, err := j.QueryContext(ctx, fmt.Sprintf("SELECT * FROM %s ORDER BY rowid", tableName))
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	columns, err = rows.Columns()
	if err != nil {
		return nil, nil, err
	}

	for rows.Next() {
		values := make([]interface{}, len(columns))
		valuePtrs := make([]interface{}, len(columns))
		for i := range values {
			valuePtrs[i] = &values[i]
		}
		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, nil, err
		}

		row := make(map[string]interface{}, len(columns))
		for i, col := range columns {
			row[col] = values[i]
		}
		result = append(result, row)
	}

	return result, columns, rows.Err()
}
