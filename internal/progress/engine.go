package progress

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
)

// Catalog answers whether an id names a known lesson or exercise.
type Catalog interface {
	HasLesson(id string) bool
	HasExercise(id string) bool
}

// EngineConfig holds dependencies for the progress engine.
type EngineConfig struct {
	Store   Store
	Catalog Catalog
	Events  EventLogger // optional, defaults to NopEventLogger
}

// Engine applies learner actions to the progress record.
// Every operation is a single read-modify-write on the store.
type Engine struct {
	store   Store
	catalog Catalog
	events  EventLogger
}

// NewEngine creates a progress engine.
func NewEngine(cfg EngineConfig) *Engine {
	events := cfg.Events
	if events == nil {
		events = NopEventLogger{}
	}
	return &Engine{
		store:   cfg.Store,
		catalog: cfg.Catalog,
		events:  events,
	}
}

// CurrentState returns the persisted record.
func (e *Engine) CurrentState() Record {
	return e.store.Load()
}

// Apply runs a decoded action.
func (e *Engine) Apply(ctx context.Context, a Action) (Record, error) {
	switch a := a.(type) {
	case CompleteLesson:
		return e.CompleteLesson(ctx, a.LessonID)
	case CompleteExercise:
		return e.CompleteExercise(ctx, a.ExerciseID)
	case Reset:
		return e.Reset(ctx)
	default:
		return Record{}, fmt.Errorf("%w: %T", ErrInvalidAction, a)
	}
}

// CompleteLesson marks a lesson as done and awards LessonXP the first time.
func (e *Engine) CompleteLesson(ctx context.Context, lessonID string) (Record, error) {
	if !e.catalog.HasLesson(lessonID) {
		return Record{}, fmt.Errorf("%w: lesson %q", ErrInvalidReference, lessonID)
	}
	return e.complete(ctx, EventLessonCompleted, lessonID, LessonXP, func(r *Record) *[]string {
		return &r.CompletedLessons
	})
}

// CompleteExercise marks an exercise as done and awards ExerciseXP the first time.
func (e *Engine) CompleteExercise(ctx context.Context, exerciseID string) (Record, error) {
	if !e.catalog.HasExercise(exerciseID) {
		return Record{}, fmt.Errorf("%w: exercise %q", ErrInvalidReference, exerciseID)
	}
	return e.complete(ctx, EventExerciseCompleted, exerciseID, ExerciseXP, func(r *Record) *[]string {
		return &r.CompletedExercises
	})
}

func (e *Engine) complete(ctx context.Context, eventType, id string, xp int, set func(*Record) *[]string) (Record, error) {
	awarded := 0
	rec, err := e.store.Update(func(r *Record) error {
		e.prune(r)
		ids := set(r)
		if slices.Contains(*ids, id) {
			return nil
		}
		*ids = append(*ids, id)
		r.ExperiencePoints += xp
		awarded = xp
		return nil
	})
	if awarded > 0 {
		e.emit(ctx, err, rec, Event{Type: eventType, ItemID: id, XPAwarded: awarded})
	}
	return rec, err
}

// RecordQuizResult counts one quiz submission and awards QuizCorrectXP per
// correct answer. Negative counts are treated as zero and numCorrect never
// exceeds numAnswered.
func (e *Engine) RecordQuizResult(ctx context.Context, numCorrect, numAnswered int) (Record, error) {
	numAnswered = max(numAnswered, 0)
	numCorrect = min(max(numCorrect, 0), numAnswered)

	rec, err := e.store.Update(func(r *Record) error {
		e.prune(r)
		r.QuizzesTaken++
		r.QuizCorrectTotal += numCorrect
		r.ExperiencePoints += numCorrect * QuizCorrectXP
		return nil
	})
	e.emit(ctx, err, rec, Event{Type: EventQuizRecorded, XPAwarded: numCorrect * QuizCorrectXP})
	return rec, err
}

// Reset replaces the record with defaults.
func (e *Engine) Reset(ctx context.Context) (Record, error) {
	rec, err := e.store.Update(func(r *Record) error {
		*r = Default()
		return nil
	})
	e.emit(ctx, err, rec, Event{Type: EventProgressReset})
	return rec, err
}

// prune drops completed ids that are no longer in the catalog.
func (e *Engine) prune(r *Record) {
	r.CompletedLessons = slices.DeleteFunc(r.CompletedLessons, func(id string) bool {
		return !e.catalog.HasLesson(id)
	})
	r.CompletedExercises = slices.DeleteFunc(r.CompletedExercises, func(id string) bool {
		return !e.catalog.HasExercise(id)
	})
}

// emit logs an event for a mutation that was persisted. Event logging
// failures never fail the learner's action.
func (e *Engine) emit(ctx context.Context, updateErr error, rec Record, event Event) {
	if updateErr != nil {
		return
	}
	event.XPTotal = rec.ExperiencePoints
	event.Level = rec.Level
	if err := e.events.LogEvent(ctx, event); err != nil {
		slog.Warn("failed to log progress event", "type", event.Type, "error", err)
	}
}
