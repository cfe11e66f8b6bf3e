package progress

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

const dbTimeout = 5 * time.Second

// Event types emitted by the engine.
const (
	EventLessonCompleted   = "lesson_completed"
	EventExerciseCompleted = "exercise_completed"
	EventQuizRecorded      = "quiz_recorded"
	EventProgressReset     = "progress_reset"
)

// Event is one entry of the learner's activity log.
type Event struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	ItemID    string    `json:"itemId,omitempty"`
	XPAwarded int       `json:"xpAwarded"`
	XPTotal   int       `json:"xpTotal"`
	Level     int       `json:"level"`
	CreatedAt time.Time `json:"createdAt"`
}

// EventLogger records activity events.
type EventLogger interface {
	LogEvent(ctx context.Context, event Event) error
}

// NopEventLogger ignores all events.
type NopEventLogger struct{}

func (NopEventLogger) LogEvent(context.Context, Event) error {
	return nil
}

// MemoryEventCapacity is how many events a MemoryEventLogger retains.
const MemoryEventCapacity = 500

// MemoryEventLogger keeps the most recent events in a fixed-size ring.
type MemoryEventLogger struct {
	mu       sync.Mutex
	ring     []Event
	next     int // slot the next event goes into
	capacity int
}

func NewMemoryEventLogger() *MemoryEventLogger {
	return &MemoryEventLogger{
		ring:     make([]Event, 0, MemoryEventCapacity),
		capacity: MemoryEventCapacity,
	}
}

func (l *MemoryEventLogger) LogEvent(_ context.Context, event Event) error {
	if event.Type == "" {
		return fmt.Errorf("event type is required")
	}
	stamp(&event)

	l.mu.Lock()
	if len(l.ring) < l.capacity {
		l.ring = append(l.ring, event)
	} else {
		l.ring[l.next] = event
	}
	l.next = (l.next + 1) % l.capacity
	l.mu.Unlock()
	return nil
}

// Events returns the retained events, oldest first.
func (l *MemoryEventLogger) Events() []Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.ordered()
}

func (l *MemoryEventLogger) ordered() []Event {
	if len(l.ring) < l.capacity {
		return append([]Event{}, l.ring...)
	}
	return append(append([]Event{}, l.ring[l.next:]...), l.ring[:l.next]...)
}

// PostgresEventLogger inserts events into the progress_events table.
type PostgresEventLogger struct {
	pool *pgxpool.Pool
}

func NewPostgresEventLogger(pool *pgxpool.Pool) *PostgresEventLogger {
	return &PostgresEventLogger{pool: pool}
}

// EnsureSchema creates the progress_events table if it does not exist.
func (l *PostgresEventLogger) EnsureSchema(ctx context.Context) error {
	if l == nil || l.pool == nil {
		return fmt.Errorf("event logger pool is nil")
	}
	_, err := l.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS progress_events (
			id         UUID PRIMARY KEY,
			event_type TEXT NOT NULL,
			item_id    TEXT NOT NULL DEFAULT '',
			xp_awarded INTEGER NOT NULL DEFAULT 0,
			xp_total   INTEGER NOT NULL DEFAULT 0,
			level      INTEGER NOT NULL DEFAULT 1,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`)
	if err != nil {
		return fmt.Errorf("create progress_events: %w", err)
	}
	return nil
}

func (l *PostgresEventLogger) LogEvent(ctx context.Context, event Event) error {
	if l == nil || l.pool == nil {
		return fmt.Errorf("event logger pool is nil")
	}
	if event.Type == "" {
		return fmt.Errorf("event type is required")
	}
	stamp(&event)

	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	_, err := l.pool.Exec(ctx,
		`INSERT INTO progress_events (id, event_type, item_id, xp_awarded, xp_total, level, created_at)
		 VALUES ($1::uuid, $2, $3, $4, $5, $6, $7)`,
		event.ID,
		event.Type,
		event.ItemID,
		event.XPAwarded,
		event.XPTotal,
		event.Level,
		event.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}

	slog.Debug("event logged", "type", event.Type, "item_id", event.ItemID)
	return nil
}

// Recent returns up to limit events, newest first.
func (l *PostgresEventLogger) Recent(ctx context.Context, limit int) ([]Event, error) {
	if l == nil || l.pool == nil {
		return nil, fmt.Errorf("event logger pool is nil")
	}
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := l.pool.Query(ctx,
		`SELECT id::text, event_type, item_id, xp_awarded, xp_total, level, created_at
		 FROM progress_events
		 ORDER BY created_at DESC
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	events := []Event{}
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.ID, &e.Type, &e.ItemID, &e.XPAwarded, &e.XPTotal, &e.Level, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func stamp(event *Event) {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}
}

// Recent returns up to limit events, newest first.
func (l *MemoryEventLogger) Recent(_ context.Context, limit int) ([]Event, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	events := l.ordered()
	out := []Event{}
	for i := len(events) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, events[i])
	}
	return out, nil
}
