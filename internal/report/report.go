// Package report exports the learner's progress as an XLSX workbook.
package report

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/p-n-ai/codemaster/internal/curriculum"
	"github.com/p-n-ai/codemaster/internal/progress"
)

// Sheet names.
const (
	SheetSummary   = "Summary"
	SheetLessons   = "Lessons"
	SheetExercises = "Exercises"
)

// ContentType is the media type of the exported workbook.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Catalog lists the items progress is reported against.
type Catalog interface {
	AllLessons() []curriculum.Lesson
	Exercises(lang string) []curriculum.Exercise
}

// Write renders rec as a workbook with a summary sheet and one sheet per
// item kind, marking which items are completed.
func Write(w io.Writer, rec progress.Record, cat Catalog, generatedAt time.Time) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("creating header style: %w", err)
	}

	if err := f.SetSheetName("Sheet1", SheetSummary); err != nil {
		return fmt.Errorf("renaming sheet: %w", err)
	}
	summary := [][]any{
		{"Metric", "Value"},
		{"Experience points", rec.ExperiencePoints},
		{"Level", rec.Level},
		{"XP to next level", progress.XPPerLevel - rec.ExperiencePoints%progress.XPPerLevel},
		{"Lessons completed", len(rec.CompletedLessons)},
		{"Exercises completed", len(rec.CompletedExercises)},
		{"Quizzes taken", rec.QuizzesTaken},
		{"Correct quiz answers", rec.QuizCorrectTotal},
		{"Generated at", generatedAt.UTC().Format(time.RFC3339)},
	}
	if err := writeRows(f, SheetSummary, summary, header); err != nil {
		return err
	}

	lessons := [][]any{{"Language", "ID", "Title", "Level", "XP", "Completed"}}
	for _, l := range cat.AllLessons() {
		lessons = append(lessons, []any{l.Lang, l.ID, l.Title, l.Level, l.XP, yesNo(rec.HasLesson(l.ID))})
	}
	if err := addSheet(f, SheetLessons, lessons, header); err != nil {
		return err
	}

	exercises := [][]any{{"Language", "ID", "Title", "Level", "XP", "Completed"}}
	for _, e := range cat.Exercises("") {
		exercises = append(exercises, []any{e.Lang, e.ID, e.Title, e.Level, e.XP, yesNo(rec.HasExercise(e.ID))})
	}
	if err := addSheet(f, SheetExercises, exercises, header); err != nil {
		return err
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

func addSheet(f *excelize.File, name string, rows [][]any, header int) error {
	if _, err := f.NewSheet(name); err != nil {
		return fmt.Errorf("creating sheet %s: %w", name, err)
	}
	return writeRows(f, name, rows, header)
}

func writeRows(f *excelize.File, sheet string, rows [][]any, header int) error {
	width := 0
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("writing %s row %d: %w", sheet, i+1, err)
		}
		width = max(width, len(row))
	}
	if width == 0 {
		return nil
	}
	last, err := excelize.ColumnNumberToName(width)
	if err != nil {
		return err
	}
	if err := f.SetRowStyle(sheet, 1, 1, header); err != nil {
		return fmt.Errorf("styling %s header: %w", sheet, err)
	}
	return f.SetColWidth(sheet, "A", last, 18)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
