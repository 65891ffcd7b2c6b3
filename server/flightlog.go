package main

import (
	"database/sql"
	"log"
	"sync"
	"time"
)

const (
	flightLogBuffer   = 1024
	flightLogBatch    = 50
	flightLogInterval = 5 * time.Second
)

type loggedEvent struct {
	FlightEvent
	PilotID   int64
	SessionID string
	Timestamp time.Time
}

// FlightLog records gameplay events with batched background writes
type FlightLog struct {
	db     *DB
	events chan loggedEvent
	stop   chan struct{}
	wg     sync.WaitGroup
	once   sync.Once
}

// NewFlightLog creates and starts the background writer
func NewFlightLog(db *DB) *FlightLog {
	l := &FlightLog{
		db:     db,
		events: make(chan loggedEvent, flightLogBuffer),
		stop:   make(chan struct{}),
	}
	l.wg.Add(1)
	go l.writer()
	return l
}

// Track enqueues an event without blocking the game loop. Events are dropped
// when the buffer is full.
func (l *FlightLog) Track(ev FlightEvent, pilotID int64, sessionID string) {
	select {
	case l.events <- loggedEvent{
		FlightEvent: ev,
		PilotID:     pilotID,
		SessionID:   sessionID,
		Timestamp:   time.Now().UTC(),
	}:
	default:
	}
}

// Stop flushes pending events and ends the writer
func (l *FlightLog) Stop() {
	l.once.Do(func() { close(l.stop) })
	l.wg.Wait()
}

func (l *FlightLog) writer() {
	defer l.wg.Done()

	batch := make([]loggedEvent, 0, flightLogBatch)
	ticker := time.NewTicker(flightLogInterval)
	defer ticker.Stop()

	for {
		select {
		case ev := <-l.events:
			batch = append(batch, ev)
			if len(batch) >= flightLogBatch {
				l.flush(batch)
				batch = batch[:0]
			}
		case <-ticker.C:
			if len(batch) > 0 {
				l.flush(batch)
				batch = batch[:0]
			}
		case <-l.stop:
			for {
				select {
				case ev := <-l.events:
					batch = append(batch, ev)
				default:
					l.flush(batch)
					return
				}
			}
		}
	}
}

// flush writes a batch in one transaction
func (l *FlightLog) flush(events []loggedEvent) {
	if l.db == nil || len(events) == 0 {
		return
	}
	tx, err := l.db.conn.Begin()
	if err != nil {
		log.Printf("flightlog: begin tx: %v", err)
		return
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT INTO flight_events (event_type, pilot_id, session_id, level, score, detail, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		log.Printf("flightlog: prepare: %v", err)
		return
	}
	defer stmt.Close()

	for _, ev := range events {
		pid := sql.NullInt64{Int64: ev.PilotID, Valid: ev.PilotID > 0}
		sid := sql.NullString{String: ev.SessionID, Valid: ev.SessionID != ""}
		detail := sql.NullString{String: ev.Detail, Valid: ev.Detail != ""}
		if _, err := stmt.Exec(ev.Kind, pid, sid, ev.Level, ev.Score, detail, ev.Timestamp.Format(time.RFC3339)); err != nil {
			log.Printf("flightlog: insert: %v", err)
		}
	}
	if err := tx.Commit(); err != nil {
		log.Printf("flightlog: commit: %v", err)
	}
}

// EventCounts returns counts of each event kind for the last N days
func (l *FlightLog) EventCounts(days int) (map[string]int, error) {
	if l.db == nil {
		return nil, nil
	}
	rows, err := l.db.conn.Query(`
		SELECT event_type, COUNT(*) FROM flight_events
		WHERE created_at >= date('now', '-' || ? || ' days')
		GROUP BY event_type ORDER BY COUNT(*) DESC
	`, days)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[string]int)
	for rows.Next() {
		var kind string
		var count int
		if err := rows.Scan(&kind, &count); err != nil {
			continue
		}
		result[kind] = count
	}
	return result, rows.Err()
}
