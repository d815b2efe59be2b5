// Package question resolves a (topic, difficulty) recommendation into a
// concrete question. Selection prefers unattempted questions, skips anything
// answered correctly in the last 48 hours, retries previously-missed
// questions before arbitrary ones, and falls back to easier difficulty
// levels (never harder) when the requested level has nothing left.
package question

import (
	"context"
	"fmt"
	"time"

	"github.com/adolago/studypath/internal/mastery"
	"github.com/adolago/studypath/internal/planner"
	"github.com/adolago/studypath/internal/progress"
)

// recentCorrectWindow is how long a correctly-answered question stays out of
// rotation.
const recentCorrectWindow = 48 * time.Hour

// Question is one practice question in the bank.
type Question struct {
	ID         string             `json:"id"`
	TopicID    string             `json:"topic_id"`
	Difficulty planner.Difficulty `json:"difficulty"`
	Body       string             `json:"body"`
}

// Bank serves the question inventory for a topic at one difficulty.
type Bank interface {
	Questions(ctx context.Context, topicID string, difficulty planner.Difficulty) ([]Question, error)
}

// Exclusions is an optional fast-path check for recently-correct questions,
// typically redis-backed. The attempt log remains the source of truth.
type Exclusions interface {
	IsRecentCorrect(ctx context.Context, learnerID, questionID string) bool
}

// Picker selects questions for recommendations.
type Picker struct {
	bank       Bank
	store      progress.Store
	exclusions Exclusions // may be nil
}

// NewPicker creates a picker over a question bank and the attempt log.
func NewPicker(bank Bank, store progress.Store, exclusions Exclusions) *Picker {
	return &Picker{bank: bank, store: store, exclusions: exclusions}
}

// PickQuestion resolves a question for the learner at the requested
// difficulty, falling back to easier levels when necessary. The second
// result is false when no question is available at any level; callers drop
// the task in that case. now anchors the recently-correct window.
func (p *Picker) PickQuestion(ctx context.Context, learnerID, topicID string, difficulty planner.Difficulty, excludeIDs []string, now time.Time) (string, bool, error) {
	attempts, err := p.store.TopicAttempts(ctx, learnerID, topicID, time.Time{})
	if err != nil {
		return "", false, fmt.Errorf("load topic attempts: %w", err)
	}

	history := summarizeAttempts(attempts)
	excluded := make(map[string]bool, len(excludeIDs))
	for _, id := range excludeIDs {
		excluded[id] = true
	}

	level := difficulty
	for {
		candidates, err := p.bank.Questions(ctx, topicID, level)
		if err != nil {
			return "", false, fmt.Errorf("load questions for %s/%s: %w", topicID, level, err)
		}

		if id, ok := p.choose(ctx, learnerID, candidates, history, excluded, now); ok {
			return id, true, nil
		}

		easier, moved := level.Easier()
		if !moved {
			return "", false, nil
		}
		level = easier
	}
}

// choose applies the preference order within one difficulty level:
// unattempted first, then previously-incorrect, then anything not excluded.
func (p *Picker) choose(ctx context.Context, learnerID string, candidates []Question, history map[string]attemptSummary, excluded map[string]bool, now time.Time) (string, bool) {
	var unattempted, missed, rest []string

	for _, q := range candidates {
		if excluded[q.ID] {
			continue
		}
		if p.exclusions != nil && p.exclusions.IsRecentCorrect(ctx, learnerID, q.ID) {
			continue
		}

		h, attempted := history[q.ID]
		if attempted && h.lastCorrect && now.Sub(h.lastAt) < recentCorrectWindow {
			continue
		}

		switch {
		case !attempted:
			unattempted = append(unattempted, q.ID)
		case !h.lastCorrect:
			missed = append(missed, q.ID)
		default:
			rest = append(rest, q.ID)
		}
	}

	for _, pool := range [][]string{unattempted, missed, rest} {
		if len(pool) > 0 {
			return pool[0], true
		}
	}
	return "", false
}

// attemptSummary captures how the learner last interacted with a question.
type attemptSummary struct {
	lastCorrect bool
	lastAt      time.Time
}

func summarizeAttempts(attempts []mastery.Attempt) map[string]attemptSummary {
	history := make(map[string]attemptSummary)
	for _, a := range attempts {
		// Attempts arrive oldest-first; the latest one wins.
		history[a.QuestionID] = attemptSummary{
			lastCorrect: a.Correct,
			lastAt:      a.CreatedAt,
		}
	}
	return history
}
