package question

import (
	"context"
	"testing"
	"time"

	"github.com/adolago/studypath/internal/mastery"
	"github.com/adolago/studypath/internal/planner"
	"github.com/adolago/studypath/internal/progress"
)

var pickNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func testBank() *MemoryBank {
	bank := NewMemoryBank()
	bank.Add(Question{ID: "q-med-1", TopicID: "fractions", Difficulty: planner.DifficultyMedium, Body: "1/2 + 1/4 = ?"})
	bank.Add(Question{ID: "q-med-2", TopicID: "fractions", Difficulty: planner.DifficultyMedium, Body: "3/4 - 1/8 = ?"})
	bank.Add(Question{ID: "q-easy-1", TopicID: "fractions", Difficulty: planner.DifficultyEasy, Body: "1/2 of 10 = ?"})
	return bank
}

func attemptAt(learnerID, questionID string, correct bool, at time.Time) mastery.Attempt {
	return mastery.Attempt{
		ID:         questionID + "-" + at.Format(time.RFC3339),
		LearnerID:  learnerID,
		QuestionID: questionID,
		TopicID:    "fractions",
		Correct:    correct,
		CreatedAt:  at,
	}
}

func TestPicker_PickQuestion_PrefersUnattempted(t *testing.T) {
	store := progress.NewMemoryStore()
	picker := NewPicker(testBank(), store, nil)
	ctx := context.Background()

	if err := store.AppendAttempt(ctx, attemptAt("alice", "q-med-1", false, pickNow.Add(-time.Hour))); err != nil {
		t.Fatalf("AppendAttempt: %v", err)
	}

	id, ok, err := picker.PickQuestion(ctx, "alice", "fractions", planner.DifficultyMedium, nil, pickNow)
	if err != nil {
		t.Fatalf("PickQuestion: %v", err)
	}
	if !ok || id != "q-med-2" {
		t.Errorf("got (%q, %v), want unattempted q-med-2", id, ok)
	}
}

func TestPicker_PickQuestion_SkipsRecentlyCorrect(t *testing.T) {
	store := progress.NewMemoryStore()
	picker := NewPicker(testBank(), store, nil)
	ctx := context.Background()

	// Both medium questions answered correctly within the window; the
	// picker must fall back to the easy level.
	recent := pickNow.Add(-2 * time.Hour)
	for _, q := range []string{"q-med-1", "q-med-2"} {
		if err := store.AppendAttempt(ctx, attemptAt("alice", q, true, recent)); err != nil {
			t.Fatalf("AppendAttempt: %v", err)
		}
	}

	id, ok, err := picker.PickQuestion(ctx, "alice", "fractions", planner.DifficultyMedium, nil, pickNow)
	if err != nil {
		t.Fatalf("PickQuestion: %v", err)
	}
	if !ok || id != "q-easy-1" {
		t.Errorf("got (%q, %v), want fallback to q-easy-1", id, ok)
	}
}

func TestPicker_PickQuestion_WindowAnchoredToCallerClock(t *testing.T) {
	store := progress.NewMemoryStore()
	picker := NewPicker(testBank(), store, nil)
	ctx := context.Background()

	// One correct attempt on each medium question. Whether those questions
	// are back in rotation depends only on the instant the caller supplies,
	// not on the wall clock.
	answered := pickNow.Add(-47 * time.Hour)
	for _, q := range []string{"q-med-1", "q-med-2"} {
		if err := store.AppendAttempt(ctx, attemptAt("alice", q, true, answered)); err != nil {
			t.Fatalf("AppendAttempt: %v", err)
		}
	}

	id, ok, err := picker.PickQuestion(ctx, "alice", "fractions", planner.DifficultyMedium, nil, pickNow)
	if err != nil {
		t.Fatalf("PickQuestion: %v", err)
	}
	if !ok || id != "q-easy-1" {
		t.Errorf("at 47h got (%q, %v), want fallback to q-easy-1", id, ok)
	}

	later := pickNow.Add(2 * time.Hour) // 49h after the attempts
	id, ok, err = picker.PickQuestion(ctx, "alice", "fractions", planner.DifficultyMedium, nil, later)
	if err != nil {
		t.Fatalf("PickQuestion: %v", err)
	}
	if !ok || id != "q-med-1" {
		t.Errorf("at 49h got (%q, %v), want q-med-1 back in rotation", id, ok)
	}
}

func TestPicker_PickQuestion_RetriesMissedBeforeStale(t *testing.T) {
	store := progress.NewMemoryStore()
	picker := NewPicker(testBank(), store, nil)
	ctx := context.Background()

	// q-med-1 was answered correctly long ago, q-med-2 was missed. With no
	// unattempted questions left, the missed one comes first.
	old := pickNow.Add(-30 * 24 * time.Hour)
	if err := store.AppendAttempt(ctx, attemptAt("alice", "q-med-1", true, old)); err != nil {
		t.Fatalf("AppendAttempt: %v", err)
	}
	if err := store.AppendAttempt(ctx, attemptAt("alice", "q-med-2", false, old)); err != nil {
		t.Fatalf("AppendAttempt: %v", err)
	}

	id, ok, err := picker.PickQuestion(ctx, "alice", "fractions", planner.DifficultyMedium, nil, pickNow)
	if err != nil {
		t.Fatalf("PickQuestion: %v", err)
	}
	if !ok || id != "q-med-2" {
		t.Errorf("got (%q, %v), want previously-missed q-med-2", id, ok)
	}
}

func TestPicker_PickQuestion_AllowsStaleCorrect(t *testing.T) {
	store := progress.NewMemoryStore()
	picker := NewPicker(testBank(), store, nil)
	ctx := context.Background()

	// Everything answered correctly, but outside the 48h window: the bank
	// is still usable.
	old := pickNow.Add(-30 * 24 * time.Hour)
	for _, q := range []string{"q-med-1", "q-med-2", "q-easy-1"} {
		if err := store.AppendAttempt(ctx, attemptAt("alice", q, true, old)); err != nil {
			t.Fatalf("AppendAttempt: %v", err)
		}
	}

	id, ok, err := picker.PickQuestion(ctx, "alice", "fractions", planner.DifficultyMedium, nil, pickNow)
	if err != nil {
		t.Fatalf("PickQuestion: %v", err)
	}
	if !ok || id != "q-med-1" {
		t.Errorf("got (%q, %v), want q-med-1", id, ok)
	}
}

func TestPicker_PickQuestion_HonorsExcludeIDs(t *testing.T) {
	store := progress.NewMemoryStore()
	picker := NewPicker(testBank(), store, nil)
	ctx := context.Background()

	id, ok, err := picker.PickQuestion(ctx, "alice", "fractions", planner.DifficultyMedium, []string{"q-med-1"}, pickNow)
	if err != nil {
		t.Fatalf("PickQuestion: %v", err)
	}
	if !ok || id != "q-med-2" {
		t.Errorf("got (%q, %v), want q-med-2 with q-med-1 excluded", id, ok)
	}
}

func TestPicker_PickQuestion_NoneAvailable(t *testing.T) {
	store := progress.NewMemoryStore()
	picker := NewPicker(NewMemoryBank(), store, nil)

	id, ok, err := picker.PickQuestion(context.Background(), "alice", "fractions", planner.DifficultyHard, nil, pickNow)
	if err != nil {
		t.Fatalf("PickQuestion: %v", err)
	}
	if ok || id != "" {
		t.Errorf("got (%q, %v), want no question", id, ok)
	}
}

func TestPicker_PickQuestion_NeverFallsBackUpward(t *testing.T) {
	bank := NewMemoryBank()
	bank.Add(Question{ID: "q-hard-1", TopicID: "fractions", Difficulty: planner.DifficultyHard, Body: "simplify (3/4)/(9/16)"})
	picker := NewPicker(bank, progress.NewMemoryStore(), nil)

	_, ok, err := picker.PickQuestion(context.Background(), "alice", "fractions", planner.DifficultyEasy, nil, pickNow)
	if err != nil {
		t.Fatalf("PickQuestion: %v", err)
	}
	if ok {
		t.Error("picked a harder question than requested")
	}
}

type staticExclusions struct {
	ids map[string]bool
}

func (e staticExclusions) IsRecentCorrect(_ context.Context, _, questionID string) bool {
	return e.ids[questionID]
}

func TestPicker_PickQuestion_UsesExclusionFastPath(t *testing.T) {
	store := progress.NewMemoryStore()
	exclusions := staticExclusions{ids: map[string]bool{"q-med-1": true}}
	picker := NewPicker(testBank(), store, exclusions)

	id, ok, err := picker.PickQuestion(context.Background(), "alice", "fractions", planner.DifficultyMedium, nil, pickNow)
	if err != nil {
		t.Fatalf("PickQuestion: %v", err)
	}
	if !ok || id != "q-med-2" {
		t.Errorf("got (%q, %v), want q-med-2 with q-med-1 marked recent", id, ok)
	}
}
