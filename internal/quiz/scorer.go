// Package quiz samples quiz questions for learners and grades their answers.
package quiz

import (
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"math"
	"math/rand/v2"
	"sort"
	"sync/atomic"

	"github.com/p-n-ai/codemaster/internal/curriculum"
)

const (
	defaultLength = 8
	defaultMax    = 20
)

// ErrPayloadTooLarge means a submission has more answers than one quiz can hold.
var ErrPayloadTooLarge = errors.New("payload too large")

// Catalog is the question source of the scorer.
type Catalog interface {
	Questions(lang string) []curriculum.Question
	Question(id string) (curriculum.Question, bool)
}

// Config sets quiz lengths. Zero values take the defaults (8 and 20).
type Config struct {
	DefaultLength int
	MaxLength     int
}

// PublicQuestion is a question as served before grading: no answer, no explanation.
type PublicQuestion struct {
	ID      string   `json:"id"`
	Lang    string   `json:"lang"`
	Level   string   `json:"level"`
	Text    string   `json:"q"`
	Options []string `json:"opts"`
}

// Submission maps question ids to the selected option index. Values come
// straight from decoded JSON, so anything that is not an integer is ignored.
type Submission map[string]any

// QuestionResult is the feedback for one graded answer.
type QuestionResult struct {
	ID           string `json:"id"`
	Correct      bool   `json:"correct"`
	CorrectIndex int    `json:"correctIndex"`
	Explanation  string `json:"explanation"`
}

// GradeResult is the outcome of grading one submission.
type GradeResult struct {
	Correct int              `json:"correct"`
	Total   int              `json:"total"`
	Results []QuestionResult `json:"results"`
}

// Scorer serves and grades quiz questions.
type Scorer struct {
	catalog       Catalog
	defaultLength int
	maxLength     int
}

// NewScorer creates a scorer over the catalog's questions.
func NewScorer(catalog Catalog, cfg Config) *Scorer {
	maxLen := cfg.MaxLength
	if maxLen <= 0 {
		maxLen = defaultMax
	}
	defLen := cfg.DefaultLength
	if defLen <= 0 {
		defLen = defaultLength
	}
	return &Scorer{
		catalog:       catalog,
		defaultLength: min(defLen, maxLen),
		maxLength:     maxLen,
	}
}

// MaxAnswers is the largest submission Grade accepts.
func (s *Scorer) MaxAnswers() int {
	return s.maxLength
}

// Sample returns up to count distinct random questions, optionally limited
// to one language. A count of zero or less means the default quiz length.
// Counts above Config.MaxLength are capped to it, so a pool larger than
// MaxLength never comes back whole and every served quiz stays gradable.
// Questions are drawn one at a time as the sequence is consumed; the
// sequence can be ranged over only once, later ranges yield nothing.
func (s *Scorer) Sample(lang string, count int) iter.Seq[PublicQuestion] {
	if count <= 0 {
		count = s.defaultLength
	}
	count = min(count, s.maxLength)
	pool := s.catalog.Questions(lang)

	var used atomic.Bool
	return func(yield func(PublicQuestion) bool) {
		if used.Swap(true) {
			return
		}
		n := min(count, len(pool))
		for i := range n {
			// Partial Fisher-Yates: pool[:i] holds what was already drawn.
			j := i + rand.IntN(len(pool)-i)
			pool[i], pool[j] = pool[j], pool[i]
			if !yield(public(pool[i])) {
				return
			}
		}
	}
}

// Grade scores a submission. Unknown question ids and non-integer answers
// are skipped. Results are ordered by question id.
func (s *Scorer) Grade(sub Submission) (GradeResult, error) {
	if len(sub) > s.maxLength {
		return GradeResult{}, fmt.Errorf("%w: %d answers, at most %d", ErrPayloadTooLarge, len(sub), s.maxLength)
	}

	res := GradeResult{Results: []QuestionResult{}}
	for id, v := range sub {
		q, ok := s.catalog.Question(id)
		if !ok {
			continue
		}
		idx, ok := answerIndex(v)
		if !ok {
			continue
		}
		correct := idx == q.Answer
		if correct {
			res.Correct++
		}
		res.Total++
		res.Results = append(res.Results, QuestionResult{
			ID:           id,
			Correct:      correct,
			CorrectIndex: q.Answer,
			Explanation:  q.Explanation,
		})
	}

	sort.Slice(res.Results, func(i, j int) bool {
		return res.Results[i].ID < res.Results[j].ID
	})
	return res, nil
}

func public(q curriculum.Question) PublicQuestion {
	return PublicQuestion{
		ID:      q.ID,
		Lang:    q.Lang,
		Level:   q.Level,
		Text:    q.Text,
		Options: append([]string(nil), q.Options...),
	}
}

func answerIndex(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		if n < math.MinInt || n > math.MaxInt {
			return 0, false
		}
		return int(n), true
	case float64:
		if n != math.Trunc(n) || math.IsInf(n, 0) || math.Abs(n) > 1<<53 {
			return 0, false
		}
		return int(n), true
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, false
		}
		return answerIndex(i)
	default:
		return 0, false
	}
}
