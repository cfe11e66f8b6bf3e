// Package curriculum holds the read-only catalog of lessons, exercises and quiz questions.
package curriculum

import (
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"gopkg.in/yaml.v3"
)

//go:embed content/*.yaml
var builtin embed.FS

// Catalog is an immutable, in-memory registry of catalog entries.
// It is safe for concurrent use.
type Catalog struct {
	languages []Language
	lessons   []Lesson
	exercises []Exercise
	questions []Question

	lessonByID   map[string]int
	exerciseByID map[string]int
	questionByID map[string]int
	ids          map[string]string // any id -> kind, for global uniqueness
}

// Default returns the catalog bundled with the binary.
func Default() (*Catalog, error) {
	sub, err := fs.Sub(builtin, "content")
	if err != nil {
		return nil, err
	}
	return Load(sub)
}

// LoadDir loads every YAML file under dir.
func LoadDir(dir string) (*Catalog, error) {
	return Load(os.DirFS(dir))
}

// Load walks fsys and builds a catalog from all .yaml/.yml files.
// Unparseable files are skipped; duplicate ids and invalid questions are errors.
func Load(fsys fs.FS) (*Catalog, error) {
	c := &Catalog{
		lessonByID:   make(map[string]int),
		exerciseByID: make(map[string]int),
		questionByID: make(map[string]int),
		ids:          make(map[string]string),
	}

	err := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		ext := path.Ext(p)
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}
		return c.loadPack(fsys, p)
	})
	if err != nil {
		return nil, fmt.Errorf("loading catalog: %w", err)
	}

	sort.SliceStable(c.languages, func(i, j int) bool {
		if c.languages[i].Order != c.languages[j].Order {
			return c.languages[i].Order < c.languages[j].Order
		}
		return c.languages[i].ID < c.languages[j].ID
	})

	slog.Info("catalog loaded",
		"languages", len(c.languages),
		"lessons", len(c.lessons),
		"exercises", len(c.exercises),
		"questions", len(c.questions),
	)
	return c, nil
}

func (c *Catalog) loadPack(fsys fs.FS, p string) error {
	data, err := fs.ReadFile(fsys, p)
	if err != nil {
		return err
	}

	var pk pack
	if err := yaml.Unmarshal(data, &pk); err != nil {
		slog.Warn("skipping invalid catalog YAML", "path", p, "error", err)
		return nil
	}

	lang := ""
	if pk.Language != nil && pk.Language.ID != "" {
		lang = pk.Language.ID
		for _, l := range c.languages {
			if l.ID == lang {
				return fmt.Errorf("%s: duplicate language %q", p, lang)
			}
		}
		c.languages = append(c.languages, *pk.Language)
	}

	for _, l := range pk.Lessons {
		if l.Lang == "" {
			l.Lang = lang
		}
		if err := c.claim(l.ID, "lesson"); err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
		c.lessonByID[l.ID] = len(c.lessons)
		c.lessons = append(c.lessons, l)
	}

	for _, e := range pk.Exercises {
		if e.Lang == "" {
			e.Lang = lang
		}
		if err := c.claim(e.ID, "exercise"); err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
		c.exerciseByID[e.ID] = len(c.exercises)
		c.exercises = append(c.exercises, e)
	}

	for _, q := range pk.Questions {
		if q.Lang == "" {
			q.Lang = lang
		}
		if q.Answer < 0 || q.Answer >= len(q.Options) {
			return fmt.Errorf("%s: question %q answer %d out of range [0,%d)", p, q.ID, q.Answer, len(q.Options))
		}
		if err := c.claim(q.ID, "question"); err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
		c.questionByID[q.ID] = len(c.questions)
		c.questions = append(c.questions, q)
	}

	return nil
}

func (c *Catalog) claim(id, kind string) error {
	if id == "" {
		return fmt.Errorf("%s without id", kind)
	}
	if prev, ok := c.ids[id]; ok {
		return fmt.Errorf("duplicate id %q (%s and %s)", id, prev, kind)
	}
	c.ids[id] = kind
	return nil
}

// Languages returns all language tracks in display order with lesson counts.
func (c *Catalog) Languages() []LanguageSummary {
	out := make([]LanguageSummary, 0, len(c.languages))
	for _, l := range c.languages {
		n := 0
		for _, ls := range c.lessons {
			if ls.Lang == l.ID {
				n++
			}
		}
		out = append(out, LanguageSummary{Language: l, Lessons: n})
	}
	return out
}

// Lessons returns the lessons of a language. The bool is false for an unknown language.
func (c *Catalog) Lessons(lang string) ([]Lesson, bool) {
	known := false
	for _, l := range c.languages {
		if SameLanguage(l.ID, lang) {
			known = true
			break
		}
	}
	if !known {
		return nil, false
	}
	out := []Lesson{}
	for _, l := range c.lessons {
		if SameLanguage(l.Lang, lang) {
			out = append(out, l)
		}
	}
	return out, true
}

// AllLessons returns every lesson in catalog order.
func (c *Catalog) AllLessons() []Lesson {
	return append([]Lesson(nil), c.lessons...)
}

// Exercises returns exercises, filtered by language unless lang is empty.
func (c *Catalog) Exercises(lang string) []Exercise {
	out := []Exercise{}
	for _, e := range c.exercises {
		if lang == "" || SameLanguage(e.Lang, lang) {
			out = append(out, e)
		}
	}
	return out
}

// Questions returns quiz questions, filtered by language unless lang is empty.
func (c *Catalog) Questions(lang string) []Question {
	out := []Question{}
	for _, q := range c.questions {
		if lang == "" || SameLanguage(q.Lang, lang) {
			out = append(out, q)
		}
	}
	return out
}

// Lesson looks a lesson up by id.
func (c *Catalog) Lesson(id string) (Lesson, bool) {
	i, ok := c.lessonByID[id]
	if !ok {
		return Lesson{}, false
	}
	return c.lessons[i], true
}

// Exercise looks an exercise up by id.
func (c *Catalog) Exercise(id string) (Exercise, bool) {
	i, ok := c.exerciseByID[id]
	if !ok {
		return Exercise{}, false
	}
	return c.exercises[i], true
}

// Question looks a quiz question up by id.
func (c *Catalog) Question(id string) (Question, bool) {
	i, ok := c.questionByID[id]
	if !ok {
		return Question{}, false
	}
	return c.questions[i], true
}

// HasLesson reports whether id names a lesson.
func (c *Catalog) HasLesson(id string) bool {
	_, ok := c.lessonByID[id]
	return ok
}

// HasExercise reports whether id names an exercise.
func (c *Catalog) HasExercise(id string) bool {
	_, ok := c.exerciseByID[id]
	return ok
}

// SameLanguage compares language ids case-insensitively.
func SameLanguage(a, b string) bool {
	// A Caser keeps state between calls, so each comparison gets its own.
	fold := cases.Fold()
	return fold.String(strings.TrimSpace(a)) == fold.String(strings.TrimSpace(b))
}
