package progress

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

// recordSchema describes every shape of progress file the store accepts,
// including files written with the legacy snake_case keys. No field is
// required; absent and null fields are healed to defaults after validation.
const recordSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "definitions": {
    "ids": {"type": ["array", "null"], "items": {"type": "string"}},
    "count": {"type": ["integer", "null"], "minimum": 0}
  },
  "properties": {
    "completedLessons":   {"$ref": "#/definitions/ids"},
    "completedExercises": {"$ref": "#/definitions/ids"},
    "experiencePoints":   {"$ref": "#/definitions/count"},
    "level":              {"type": ["integer", "null"]},
    "quizzesTaken":       {"$ref": "#/definitions/count"},
    "quizCorrectTotal":   {"$ref": "#/definitions/count"},
    "lessons":            {"$ref": "#/definitions/ids"},
    "exercises":          {"$ref": "#/definitions/ids"},
    "xp":                 {"$ref": "#/definitions/count"},
    "quizzes_taken":      {"$ref": "#/definitions/count"},
    "quiz_correct":       {"$ref": "#/definitions/count"}
  }
}`

var compiledSchema = sync.OnceValues(func() (*gojsonschema.Schema, error) {
	return gojsonschema.NewSchema(gojsonschema.NewStringLoader(recordSchema))
})

// diskRecord is the union of the current and legacy file layouts. Counters
// are floats since the schema admits whole values written as 5.0.
type diskRecord struct {
	CompletedLessons   []string `json:"completedLessons"`
	CompletedExercises []string `json:"completedExercises"`
	ExperiencePoints   *float64 `json:"experiencePoints"`
	QuizzesTaken       *float64 `json:"quizzesTaken"`
	QuizCorrectTotal   *float64 `json:"quizCorrectTotal"`

	LegacyLessons      []string `json:"lessons"`
	LegacyExercises    []string `json:"exercises"`
	LegacyXP           *float64 `json:"xp"`
	LegacyQuizzesTaken *float64 `json:"quizzes_taken"`
	LegacyQuizCorrect  *float64 `json:"quiz_correct"`
}

// validateRecord checks data against the progress file schema.
func validateRecord(data []byte) error {
	schema, err := compiledSchema()
	if err != nil {
		return fmt.Errorf("compiling progress schema: %w", err)
	}
	result, err := schema.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("parsing progress file: %w", err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return fmt.Errorf("progress file does not match schema: %s", strings.Join(msgs, "; "))
	}
	return nil
}

// decodeRecord validates and heals a persisted record. Missing fields take
// their defaults and legacy keys are folded into the current ones.
func decodeRecord(data []byte) (Record, error) {
	if err := validateRecord(data); err != nil {
		return Record{}, err
	}

	var d diskRecord
	if err := json.Unmarshal(data, &d); err != nil {
		return Record{}, fmt.Errorf("decoding progress file: %w", err)
	}

	rec := Default()
	rec.CompletedLessons = append(append(rec.CompletedLessons, d.CompletedLessons...), d.LegacyLessons...)
	rec.CompletedExercises = append(append(rec.CompletedExercises, d.CompletedExercises...), d.LegacyExercises...)
	rec.ExperiencePoints = firstInt(d.ExperiencePoints, d.LegacyXP)
	rec.QuizzesTaken = firstInt(d.QuizzesTaken, d.LegacyQuizzesTaken)
	rec.QuizCorrectTotal = firstInt(d.QuizCorrectTotal, d.LegacyQuizCorrect)
	rec.normalize()
	return rec, nil
}

func firstInt(vals ...*float64) int {
	for _, v := range vals {
		if v != nil {
			return int(*v)
		}
	}
	return 0
}
