// Package journal records immersive session lifecycle and plane events in
// a sqlite database, one row per session and one per notification.
package journal

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/banshee-data/xrsession/internal/monitoring"
	"github.com/banshee-data/xrsession/internal/timeutil"
	"github.com/banshee-data/xrsession/internal/xr"
	"github.com/banshee-data/xrsession/internal/xr/event"
	"github.com/banshee-data/xrsession/internal/xr/host"
)

// ErrClosed is returned by every operation after Close.
var ErrClosed = fmt.Errorf("journal is closed")

// ErrNoSession is returned when an event is recorded outside a session.
var ErrNoSession = fmt.Errorf("no journal session is open")

// Session is one recorded session. EndedAt is nil while it is open.
type Session struct {
	ID                 string     `json:"session_id"`
	Mode               string     `json:"mode"`
	ReferenceSpaceType string     `json:"reference_space_type"`
	StartedAt          time.Time  `json:"started_at"`
	EndedAt            *time.Time `json:"ended_at,omitempty"`
}

// Event is one recorded notification. PlaneTime is set for plane
// add/remove/change events, PlaneCount for planesdetected.
type Event struct {
	ID         int64     `json:"event_id"`
	SessionID  string    `json:"session_id"`
	Type       string    `json:"event_type"`
	PlaneTime  *float64  `json:"plane_time,omitempty"`
	PlaneCount *int      `json:"plane_count,omitempty"`
	RecordedAt time.Time `json:"recorded_at"`
}

// Journal is safe for concurrent use.
type Journal struct {
	db    *sql.DB
	path  string
	clock timeutil.Clock

	mu      sync.Mutex
	closed  bool
	current string
}

// Open opens (creating if needed) the journal at path and migrates it to
// the latest schema.
func Open(path string) (*Journal, error) {
	return open(path, timeutil.RealClock{})
}

func open(path string, clock timeutil.Clock) (*Journal, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open journal %s: %w", path, err)
	}
	// A single connection keeps in-memory databases shared and serialises
	// writers.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	j := &Journal{db: db, path: path, clock: clock}
	if err := j.migrateUp(); err != nil {
		db.Close()
		return nil, err
	}
	monitoring.Logf("journal: opened %s", path)
	return j, nil
}

// Close closes the database. An open session is marked ended first.
func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.closed {
		return ErrClosed
	}
	if j.current != "" {
		if err := j.endLocked(); err != nil {
			monitoring.Logf("journal: closing open session: %v", err)
		}
	}
	j.closed = true
	return j.db.Close()
}

// BeginSession opens a new session row and returns its generated ID. A
// session still open is ended first.
func (j *Journal) BeginSession(mode, referenceSpaceType string) (string, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.closed {
		return "", ErrClosed
	}
	if j.current != "" {
		if err := j.endLocked(); err != nil {
			return "", err
		}
	}

	id := uuid.NewString()
	_, err := j.db.Exec(
		`INSERT INTO xr_sessions (session_id, mode, reference_space_type, started_unix_ms) VALUES (?, ?, ?, ?)`,
		id, mode, referenceSpaceType, j.clock.Now().UnixMilli(),
	)
	if err != nil {
		return "", fmt.Errorf("failed to insert session: %w", err)
	}
	j.current = id
	return id, nil
}

// EndSession marks the open session as ended. It is a no-op when no
// session is open.
func (j *Journal) EndSession() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.closed {
		return ErrClosed
	}
	if j.current == "" {
		return nil
	}
	return j.endLocked()
}

func (j *Journal) endLocked() error {
	_, err := j.db.Exec(`UPDATE xr_sessions SET ended_unix_ms = ? WHERE session_id = ?`,
		j.clock.Now().UnixMilli(), j.current)
	if err != nil {
		return fmt.Errorf("failed to end session %s: %w", j.current, err)
	}
	j.current = ""
	return nil
}

// CurrentSession returns the open session's ID, or "".
func (j *Journal) CurrentSession() string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.current
}

// RecordEvent appends an event to the open session. planeTime and
// planeCount may be nil.
func (j *Journal) RecordEvent(typ string, planeTime *float64, planeCount *int) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.closed {
		return ErrClosed
	}
	if j.current == "" {
		return ErrNoSession
	}
	_, err := j.db.Exec(
		`INSERT INTO xr_events (session_id, event_type, plane_time, plane_count, recorded_unix_ms) VALUES (?, ?, ?, ?, ?)`,
		j.current, typ, planeTime, planeCount, j.clock.Now().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert %s event: %w", typ, err)
	}
	return nil
}

// Sessions returns up to limit sessions, newest first. limit <= 0 returns
// every session.
func (j *Journal) Sessions(limit int) ([]Session, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.closed {
		return nil, ErrClosed
	}

	query := `SELECT session_id, mode, reference_space_type, started_unix_ms, ended_unix_ms
		FROM xr_sessions ORDER BY started_unix_ms DESC, rowid DESC`
	args := []interface{}{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := j.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	var out []Session
	for rows.Next() {
		var s Session
		var started int64
		var ended sql.NullInt64
		if err := rows.Scan(&s.ID, &s.Mode, &s.ReferenceSpaceType, &started, &ended); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		s.StartedAt = time.UnixMilli(started).UTC()
		if ended.Valid {
			t := time.UnixMilli(ended.Int64).UTC()
			s.EndedAt = &t
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Events returns every event of sessionID in recording order.
func (j *Journal) Events(sessionID string) ([]Event, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.closed {
		return nil, ErrClosed
	}

	rows, err := j.db.Query(
		`SELECT event_id, session_id, event_type, plane_time, plane_count, recorded_unix_ms
		FROM xr_events WHERE session_id = ? ORDER BY event_id`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var e Event
		var planeTime sql.NullFloat64
		var planeCount sql.NullInt64
		var recorded int64
		if err := rows.Scan(&e.ID, &e.SessionID, &e.Type, &planeTime, &planeCount, &recorded); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		if planeTime.Valid {
			v := planeTime.Float64
			e.PlaneTime = &v
		}
		if planeCount.Valid {
			v := int(planeCount.Int64)
			e.PlaneCount = &v
		}
		e.RecordedAt = time.UnixMilli(recorded).UTC()
		out = append(out, e)
	}
	return out, rows.Err()
}

// Attach records m's session and plane notifications until the returned
// function is called. Write failures are logged, never returned to m.
func (j *Journal) Attach(m *xr.Manager) (detach func()) {
	var ids []string
	on := func(typ string, fn event.Listener) {
		ids = append(ids, m.AddEventListener(typ, fn))
	}

	// planesdetected fires every tick; only count changes are written.
	lastCount := -1

	on(xr.EventSessionStart, func(event.Event) {
		lastCount = -1
		spaceType := m.ReferenceSpaceType()
		if ref := m.ReferenceSpace(); ref != nil {
			spaceType = ref.Type()
		}
		if _, err := j.BeginSession(m.Status().Mode, spaceType); err != nil {
			monitoring.Logf("journal: %v", err)
		}
	})
	on(xr.EventSessionEnd, func(event.Event) {
		if err := j.EndSession(); err != nil {
			monitoring.Logf("journal: %v", err)
		}
	})
	on(xr.EventPlanesDetected, func(ev event.Event) {
		planes, _ := ev.Data.([]host.Plane)
		n := len(planes)
		if n == lastCount {
			return
		}
		lastCount = n
		if err := j.RecordEvent(ev.Type, nil, &n); err != nil {
			monitoring.Logf("journal: %v", err)
		}
	})
	for _, typ := range []string{xr.EventPlaneAdded, xr.EventPlaneRemoved, xr.EventPlaneChanged} {
		on(typ, func(ev event.Event) {
			var ts *float64
			if p, ok := ev.Data.(host.Plane); ok {
				v := p.LastChangedTime()
				ts = &v
			}
			if err := j.RecordEvent(ev.Type, ts, nil); err != nil {
				monitoring.Logf("journal: %v", err)
			}
		})
	}

	return func() {
		for _, id := range ids {
			m.RemoveEventListener(id)
		}
	}
}
