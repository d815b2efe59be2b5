package report

import (
	"bytes"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/adolago/studypath/internal/curriculum"
	"github.com/adolago/studypath/internal/mastery"
	"github.com/adolago/studypath/internal/planner"
)

func testInput() Input {
	graph := curriculum.NewGraph([]curriculum.Topic{
		{ID: "arithmetic", Name: "Arithmetic", Section: curriculum.SectionNumeracy},
		{ID: "fractions", Name: "Fractions", Section: curriculum.SectionNumeracy, Prerequisites: []string{"arithmetic"}},
	})

	rec := mastery.NewRecord("alice", "arithmetic")
	rec.Level = 0.62
	rec.Stage = mastery.StageForLevel(rec.Level)
	rec.PracticeCount = 9
	rec.Accuracy7d = 0.8
	rec.NextReviewAt = time.Date(2025, 6, 3, 9, 0, 0, 0, time.UTC)

	return Input{
		LearnerID: "alice",
		Plan: planner.Plan{
			Tasks: []planner.Task{
				{Kind: planner.TaskReview, TopicID: "arithmetic", TopicName: "Arithmetic", Section: curriculum.SectionNumeracy, Difficulty: planner.DifficultyMedium},
			},
			Summary: planner.Summary{DueCount: 1, ReviewPercent: 1},
		},
		Graph:   graph,
		Records: map[string]*mastery.Record{"arithmetic": rec},
		Now:     time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestWrite_Workbook(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, testInput()); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("OpenReader() error = %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	have := map[string]bool{}
	for _, s := range sheets {
		have[s] = true
	}
	if len(sheets) != 2 || !have["Summary"] || !have["Topics"] {
		t.Fatalf("sheets = %v, want Summary and Topics", sheets)
	}

	learner, err := f.GetCellValue("Summary", "B1")
	if err != nil {
		t.Fatalf("GetCellValue: %v", err)
	}
	if learner != "alice" {
		t.Errorf("Summary!B1 = %q, want alice", learner)
	}

	due, err := f.GetCellValue("Summary", "B4")
	if err != nil {
		t.Fatalf("GetCellValue: %v", err)
	}
	if due != "1" {
		t.Errorf("Summary!B4 = %q, want 1", due)
	}
}

func TestWrite_TopicRows(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, testInput()); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("OpenReader() error = %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows("Topics")
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	// Header plus one row: fractions has no record and is skipped.
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rows))
	}
	if rows[1][0] != "Arithmetic" {
		t.Errorf("topic = %q, want Arithmetic", rows[1][0])
	}
	if rows[1][1] != "Numeracy" {
		t.Errorf("section = %q, want title-cased Numeracy", rows[1][1])
	}
	if rows[1][2] != "proficient" {
		t.Errorf("stage = %q, want proficient", rows[1][2])
	}
}
