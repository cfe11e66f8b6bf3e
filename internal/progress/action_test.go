package progress_test

import (
	"errors"
	"reflect"
	"testing"

	"github.com/p-n-ai/codemaster/internal/progress"
)

func TestDecodeAction(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    progress.Action
		wantErr bool
	}{
		{"complete lesson", `{"action":"complete_lesson","lesson_id":"py_01"}`, progress.CompleteLesson{LessonID: "py_01"}, false},
		{"complete exercise", `{"action":"complete_exercise","exercise_id":"ex_py_01"}`, progress.CompleteExercise{ExerciseID: "ex_py_01"}, false},
		{"reset", `{"action":"reset"}`, progress.Reset{}, false},
		{"trims ids", `{"action":"complete_lesson","lesson_id":"  py_01 "}`, progress.CompleteLesson{LessonID: "py_01"}, false},
		{"missing lesson id", `{"action":"complete_lesson"}`, nil, true},
		{"exercise id on lesson action", `{"action":"complete_lesson","exercise_id":"ex_py_01"}`, nil, true},
		{"missing exercise id", `{"action":"complete_exercise","exercise_id":""}`, nil, true},
		{"unknown action", `{"action":"level_up"}`, nil, true},
		{"no action", `{"lesson_id":"py_01"}`, nil, true},
		{"malformed", `{"action":`, nil, true},
		{"wrong id type", `{"action":"complete_lesson","lesson_id":7}`, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := progress.DecodeAction([]byte(tt.body))
			if tt.wantErr {
				if !errors.Is(err, progress.ErrInvalidAction) {
					t.Fatalf("DecodeAction() error = %v, want ErrInvalidAction", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("DecodeAction() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("DecodeAction() = %#v, want %#v", got, tt.want)
			}
		})
	}
}
