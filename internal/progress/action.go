package progress

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Action is a learner request to change progress. The set of actions is
// closed: only the types in this package implement it.
type Action interface {
	action()
}

// CompleteLesson marks a lesson as done.
type CompleteLesson struct {
	LessonID string
}

// CompleteExercise marks an exercise as done.
type CompleteExercise struct {
	ExerciseID string
}

// Reset discards all progress.
type Reset struct{}

func (CompleteLesson) action()   {}
func (CompleteExercise) action() {}
func (Reset) action()            {}

type actionPayload struct {
	Action     string `json:"action"`
	LessonID   string `json:"lesson_id"`
	ExerciseID string `json:"exercise_id"`
}

// DecodeAction parses a progress request body. Malformed JSON, unknown
// action names and missing ids yield ErrInvalidAction.
func DecodeAction(data []byte) (Action, error) {
	var p actionPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAction, err)
	}

	switch p.Action {
	case "complete_lesson":
		id := strings.TrimSpace(p.LessonID)
		if id == "" {
			return nil, fmt.Errorf("%w: lesson_id is required", ErrInvalidAction)
		}
		return CompleteLesson{LessonID: id}, nil
	case "complete_exercise":
		id := strings.TrimSpace(p.ExerciseID)
		if id == "" {
			return nil, fmt.Errorf("%w: exercise_id is required", ErrInvalidAction)
		}
		return CompleteExercise{ExerciseID: id}, nil
	case "reset":
		return Reset{}, nil
	case "":
		return nil, fmt.Errorf("%w: action is required", ErrInvalidAction)
	default:
		return nil, fmt.Errorf("%w: unknown action %q", ErrInvalidAction, p.Action)
	}
}
