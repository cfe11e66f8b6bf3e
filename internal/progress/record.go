// Package progress tracks the learner's cumulative progress: completed items,
// experience points and level, persisted to a single JSON file.
package progress

import "slices"

// Experience rules. These values are part of the learner-facing contract.
const (
	LessonXP      = 50
	ExerciseXP    = 100
	QuizCorrectXP = 20
	XPPerLevel    = 500
)

// Record is the single learner's progress.
type Record struct {
	CompletedLessons   []string `json:"completedLessons"`
	CompletedExercises []string `json:"completedExercises"`
	ExperiencePoints   int      `json:"experiencePoints"`
	Level              int      `json:"level"`
	QuizzesTaken       int      `json:"quizzesTaken"`
	QuizCorrectTotal   int      `json:"quizCorrectTotal"`
}

// Default returns the progress of a learner who has done nothing yet.
func Default() Record {
	return Record{
		CompletedLessons:   []string{},
		CompletedExercises: []string{},
		Level:              1,
	}
}

// LevelFor derives the level from experience points.
func LevelFor(xp int) int {
	if xp < 0 {
		xp = 0
	}
	return xp/XPPerLevel + 1
}

// HasLesson reports whether the lesson is marked complete.
func (r Record) HasLesson(id string) bool {
	return slices.Contains(r.CompletedLessons, id)
}

// HasExercise reports whether the exercise is marked complete.
func (r Record) HasExercise(id string) bool {
	return slices.Contains(r.CompletedExercises, id)
}

// normalize restores the record invariants: non-nil sets without
// duplicates, non-negative counters and a level consistent with xp.
func (r *Record) normalize() {
	r.CompletedLessons = dedupe(r.CompletedLessons)
	r.CompletedExercises = dedupe(r.CompletedExercises)
	r.ExperiencePoints = max(r.ExperiencePoints, 0)
	r.QuizzesTaken = max(r.QuizzesTaken, 0)
	r.QuizCorrectTotal = max(r.QuizCorrectTotal, 0)
	r.Level = LevelFor(r.ExperiencePoints)
}

func (r Record) clone() Record {
	r.CompletedLessons = slices.Clone(r.CompletedLessons)
	r.CompletedExercises = slices.Clone(r.CompletedExercises)
	return r
}

func dedupe(ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
