// Package report renders a learner's progress as an Excel workbook: one
// summary sheet for the current plan, one sheet listing every tracked topic.
// Nothing is persisted; the workbook streams straight to the caller.
package report

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/adolago/studypath/internal/curriculum"
	"github.com/adolago/studypath/internal/mastery"
	"github.com/adolago/studypath/internal/planner"
)

const (
	summarySheet = "Summary"
	topicsSheet  = "Topics"
)

// Input is everything a progress report covers.
type Input struct {
	LearnerID string
	Plan      planner.Plan
	Graph     *curriculum.Graph
	Records   map[string]*mastery.Record
	Now       time.Time
}

// Write renders the workbook to w.
func Write(w io.Writer, in Input) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := writeSummary(f, in); err != nil {
		return err
	}
	if err := writeTopics(f, in); err != nil {
		return err
	}

	// Drop the default sheet and land the reader on the summary.
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("delete default sheet: %w", err)
	}
	idx, err := f.GetSheetIndex(summarySheet)
	if err != nil {
		return fmt.Errorf("find summary sheet: %w", err)
	}
	f.SetActiveSheet(idx)

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeSummary(f *excelize.File, in Input) error {
	if _, err := f.NewSheet(summarySheet); err != nil {
		return fmt.Errorf("create summary sheet: %w", err)
	}

	rows := [][]any{
		{"Learner", in.LearnerID},
		{"Generated", in.Now.Format("2006-01-02 15:04")},
		{},
		{"Due reviews", in.Plan.Summary.DueCount},
		{"New topics ready", in.Plan.Summary.FrontierCount},
		{"Consolidation tasks", in.Plan.Summary.ConsolidationCount},
		{"Review share of plan", fmt.Sprintf("%.0f%%", in.Plan.Summary.ReviewPercent*100)},
		{},
		{"Next up", "Section", "Kind", "Difficulty"},
	}
	for _, task := range in.Plan.Tasks {
		rows = append(rows, []any{
			task.TopicName,
			sectionTitle(task.Section),
			string(task.Kind),
			task.Difficulty.String(),
		})
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return fmt.Errorf("summary row %d: %w", i+1, err)
		}
		if err := f.SetSheetRow(summarySheet, cell, &row); err != nil {
			return fmt.Errorf("summary row %d: %w", i+1, err)
		}
	}
	return nil
}

func writeTopics(f *excelize.File, in Input) error {
	if _, err := f.NewSheet(topicsSheet); err != nil {
		return fmt.Errorf("create topics sheet: %w", err)
	}

	header := []any{"Topic", "Section", "Stage", "Level", "Accuracy 7d", "Accuracy 30d", "Practice count", "Next review"}
	if err := f.SetSheetRow(topicsSheet, "A1", &header); err != nil {
		return fmt.Errorf("topics header: %w", err)
	}

	topics := in.Graph.All()
	sort.Slice(topics, func(i, j int) bool {
		if topics[i].Section != topics[j].Section {
			return topics[i].Section < topics[j].Section
		}
		return topics[i].Name < topics[j].Name
	})

	rowNum := 2
	for _, topic := range topics {
		rec := in.Records[topic.ID]
		if rec == nil {
			continue
		}
		nextReview := ""
		if !rec.NextReviewAt.IsZero() {
			nextReview = rec.NextReviewAt.Format("2006-01-02 15:04")
		}
		row := []any{
			topic.Name,
			sectionTitle(topic.Section),
			string(rec.Stage),
			rec.Level,
			rec.Accuracy7d,
			rec.Accuracy30d,
			rec.PracticeCount,
			nextReview,
		}
		cell, err := excelize.CoordinatesToCellName(1, rowNum)
		if err != nil {
			return fmt.Errorf("topics row %d: %w", rowNum, err)
		}
		if err := f.SetSheetRow(topicsSheet, cell, &row); err != nil {
			return fmt.Errorf("topics row %d: %w", rowNum, err)
		}
		rowNum++
	}
	return nil
}

var titleCaser = cases.Title(language.English)

func sectionTitle(s curriculum.Section) string {
	return titleCaser.String(string(s))
}
