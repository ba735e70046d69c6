package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/MuneebDevss/conflict-resolver-agent/pkg/model"
	"github.com/m-mizutani/goerr/v2"
	_ "modernc.org/sqlite"
)

// Times are stored as Unix microseconds in UTC.
const sqliteSchema = `
CREATE TABLE IF NOT EXISTS meetings (
	id               TEXT PRIMARY KEY,
	title            TEXT NOT NULL,
	description      TEXT NOT NULL DEFAULT '',
	start_time       INTEGER NOT NULL,
	end_time         INTEGER NOT NULL,
	organizer        TEXT NOT NULL DEFAULT '',
	attendees        TEXT NOT NULL DEFAULT '[]',
	location         TEXT NOT NULL DEFAULT '',
	status           TEXT NOT NULL DEFAULT 'scheduled',
	has_conflict     INTEGER NOT NULL DEFAULT 0,
	conflict_details TEXT NOT NULL DEFAULT '',
	created_at       INTEGER NOT NULL,
	updated_at       INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_meetings_start_time ON meetings(start_time);
CREATE TABLE IF NOT EXISTS conflict_records (
	id            TEXT PRIMARY KEY,
	scenario      TEXT NOT NULL,
	resolution    TEXT NOT NULL,
	intent        TEXT NOT NULL,
	conflict_type TEXT NOT NULL,
	created_at    INTEGER NOT NULL
);
`

const meetingColumns = `id, title, description, start_time, end_time, organizer, attendees,
	location, status, has_conflict, conflict_details, created_at, updated_at`

// SQLite implements Repository on an embedded SQLite database file. The
// database is opened and migrated on first use and kept open afterwards.
type SQLite struct {
	path string

	mu sync.Mutex
	db *sql.DB
}

// NewSQLite creates a repository backed by the database file at path
func NewSQLite(path string) *SQLite {
	return &SQLite{path: path}
}

func (r *SQLite) connect(ctx context.Context) (*sql.DB, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.db != nil {
		return r.db, nil
	}

	db, err := sql.Open("sqlite", r.path)
	if err != nil {
		return nil, goerr.Wrap(model.ErrStoreUnavailable, "failed to open sqlite database",
			goerr.V("path", r.path),
			goerr.V("cause", err.Error()))
	}
	// SQLite allows a single writer
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{"PRAGMA journal_mode=WAL;", "PRAGMA busy_timeout=5000;"} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, goerr.Wrap(model.ErrStoreUnavailable, "failed to configure sqlite",
				goerr.V("pragma", pragma),
				goerr.V("cause", err.Error()))
		}
	}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, goerr.Wrap(model.ErrStoreUnavailable, "failed to migrate sqlite schema",
			goerr.V("cause", err.Error()))
	}

	r.db = db
	return db, nil
}

// Close closes the database if it was opened
func (r *SQLite) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.db == nil {
		return nil
	}
	err := r.db.Close()
	r.db = nil
	if err != nil {
		return goerr.Wrap(err, "failed to close sqlite database")
	}
	return nil
}

func sqliteError(err error, msg string, options ...goerr.Option) error {
	if errors.Is(err, sql.ErrNoRows) {
		return goerr.Wrap(model.ErrNotFound, msg, options...)
	}
	options = append(options, goerr.V("cause", err.Error()))
	return goerr.Wrap(model.ErrStoreUnavailable, msg, options...)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMeeting(row rowScanner) (*model.Meeting, error) {
	var (
		m                            model.Meeting
		start, end, created, updated int64
		attendees                    string
		hasConflict                  int
	)
	if err := row.Scan(&m.ID, &m.Title, &m.Description, &start, &end, &m.Organizer, &attendees,
		&m.Location, &m.Status, &hasConflict, &m.ConflictDetails, &created, &updated); err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(attendees), &m.Attendees); err != nil {
		return nil, goerr.Wrap(err, "failed to decode attendees", goerr.V("meeting_id", m.ID))
	}
	m.StartTime = time.UnixMicro(start).UTC()
	m.EndTime = time.UnixMicro(end).UTC()
	m.CreatedAt = time.UnixMicro(created).UTC()
	m.UpdatedAt = time.UnixMicro(updated).UTC()
	m.HasConflict = hasConflict != 0
	return &m, nil
}

func meetingArgs(m *model.Meeting) ([]any, error) {
	attendees := m.Attendees
	if attendees == nil {
		attendees = []string{}
	}
	raw, err := json.Marshal(attendees)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to encode attendees", goerr.V("meeting_id", m.ID))
	}

	hasConflict := 0
	if m.HasConflict {
		hasConflict = 1
	}
	return []any{
		string(m.ID), m.Title, m.Description,
		m.StartTime.UnixMicro(), m.EndTime.UnixMicro(),
		m.Organizer, string(raw), m.Location, string(m.Status),
		hasConflict, m.ConflictDetails,
		m.CreatedAt.UnixMicro(), m.UpdatedAt.UnixMicro(),
	}, nil
}

const upsertMeeting = `INSERT INTO meetings (` + meetingColumns + `)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		title = excluded.title,
		description = excluded.description,
		start_time = excluded.start_time,
		end_time = excluded.end_time,
		organizer = excluded.organizer,
		attendees = excluded.attendees,
		location = excluded.location,
		status = excluded.status,
		has_conflict = excluded.has_conflict,
		conflict_details = excluded.conflict_details,
		updated_at = excluded.updated_at`

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func putMeeting(ctx context.Context, db execer, meeting *model.Meeting) error {
	args, err := meetingArgs(meeting)
	if err != nil {
		return err
	}
	if _, err := db.ExecContext(ctx, upsertMeeting, args...); err != nil {
		return sqliteError(err, "failed to put meeting", goerr.V("meeting_id", meeting.ID))
	}
	return nil
}

func (r *SQLite) PutMeeting(ctx context.Context, meeting *model.Meeting) error {
	db, err := r.connect(ctx)
	if err != nil {
		return err
	}
	return putMeeting(ctx, db, meeting)
}

func (r *SQLite) GetMeeting(ctx context.Context, id model.MeetingID) (*model.Meeting, error) {
	db, err := r.connect(ctx)
	if err != nil {
		return nil, err
	}

	row := db.QueryRowContext(ctx, `SELECT `+meetingColumns+` FROM meetings WHERE id = ?`, string(id))
	m, err := scanMeeting(row)
	if err != nil {
		return nil, sqliteError(err, "failed to get meeting", goerr.V("meeting_id", id))
	}
	return m, nil
}

func (r *SQLite) FindMeetings(ctx context.Context, filter model.MeetingFilter) ([]*model.Meeting, error) {
	db, err := r.connect(ctx)
	if err != nil {
		return nil, err
	}

	var (
		conds []string
		args  []any
	)
	if filter.Organizer != "" {
		conds = append(conds, "organizer = ?")
		args = append(args, filter.Organizer)
	}
	if filter.Status != "" {
		conds = append(conds, "status = ?")
		args = append(args, string(filter.Status))
	}
	if !filter.StartFrom.IsZero() {
		conds = append(conds, "start_time >= ?")
		args = append(args, filter.StartFrom.UnixMicro())
	}
	if !filter.StartTo.IsZero() {
		conds = append(conds, "start_time <= ?")
		args = append(args, filter.StartTo.UnixMicro())
	}

	query := `SELECT ` + meetingColumns + ` FROM meetings`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY start_time ASC, id ASC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, sqliteError(err, "failed to query meetings")
	}
	defer rows.Close()

	var meetings []*model.Meeting
	for rows.Next() {
		m, err := scanMeeting(rows)
		if err != nil {
			return nil, sqliteError(err, "failed to scan meeting")
		}
		meetings = append(meetings, m)
	}
	if err := rows.Err(); err != nil {
		return nil, sqliteError(err, "failed to iterate meetings")
	}
	return meetings, nil
}

func (r *SQLite) UpdateMeeting(ctx context.Context, id model.MeetingID, fn func(*model.Meeting) (*model.Meeting, error)) (*model.Meeting, error) {
	db, err := r.connect(ctx)
	if err != nil {
		return nil, err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, sqliteError(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx, `SELECT `+meetingColumns+` FROM meetings WHERE id = ?`, string(id))
	current, err := scanMeeting(row)
	if err != nil {
		return nil, sqliteError(err, "failed to get meeting", goerr.V("meeting_id", id))
	}

	updated, err := fn(current)
	if err != nil {
		return nil, err
	}
	updated.ID = id

	if err := putMeeting(ctx, tx, updated); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, sqliteError(err, "failed to commit meeting update", goerr.V("meeting_id", id))
	}
	return updated, nil
}

func (r *SQLite) DeleteMeeting(ctx context.Context, id model.MeetingID) (*model.Meeting, error) {
	db, err := r.connect(ctx)
	if err != nil {
		return nil, err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, sqliteError(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx, `SELECT `+meetingColumns+` FROM meetings WHERE id = ?`, string(id))
	m, err := scanMeeting(row)
	if err != nil {
		return nil, sqliteError(err, "failed to get meeting", goerr.V("meeting_id", id))
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM meetings WHERE id = ?`, string(id)); err != nil {
		return nil, sqliteError(err, "failed to delete meeting", goerr.V("meeting_id", id))
	}
	if err := tx.Commit(); err != nil {
		return nil, sqliteError(err, "failed to commit meeting delete", goerr.V("meeting_id", id))
	}
	return m, nil
}

func (r *SQLite) CountMeetings(ctx context.Context) (int, error) {
	db, err := r.connect(ctx)
	if err != nil {
		return 0, err
	}

	var count int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM meetings`).Scan(&count); err != nil {
		return 0, sqliteError(err, "failed to count meetings")
	}
	return count, nil
}

func (r *SQLite) PutConflictRecord(ctx context.Context, record *model.ConflictRecord) error {
	db, err := r.connect(ctx)
	if err != nil {
		return err
	}

	if _, err := db.ExecContext(ctx,
		`INSERT INTO conflict_records (id, scenario, resolution, intent, conflict_type, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		string(record.ID), record.Scenario, record.Resolution,
		string(record.Intent), string(record.ConflictType), record.CreatedAt.UnixMicro(),
	); err != nil {
		return sqliteError(err, "failed to put conflict record", goerr.V("record_id", record.ID))
	}
	return nil
}

func (r *SQLite) ListConflictRecords(ctx context.Context, limit int) ([]*model.ConflictRecord, error) {
	db, err := r.connect(ctx)
	if err != nil {
		return nil, err
	}

	query := `SELECT id, scenario, resolution, intent, conflict_type, created_at FROM conflict_records ORDER BY created_at DESC`
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, sqliteError(err, "failed to query conflict records")
	}
	defer rows.Close()

	var records []*model.ConflictRecord
	for rows.Next() {
		var (
			rec     model.ConflictRecord
			created int64
		)
		if err := rows.Scan(&rec.ID, &rec.Scenario, &rec.Resolution, &rec.Intent, &rec.ConflictType, &created); err != nil {
			return nil, sqliteError(err, "failed to scan conflict record")
		}
		rec.CreatedAt = time.UnixMicro(created).UTC()
		records = append(records, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, sqliteError(err, "failed to iterate conflict records")
	}
	return records, nil
}

func (r *SQLite) Ping(ctx context.Context) error {
	db, err := r.connect(ctx)
	if err != nil {
		return err
	}
	if err := db.PingContext(ctx); err != nil {
		return sqliteError(err, "failed to ping sqlite")
	}
	return nil
}
