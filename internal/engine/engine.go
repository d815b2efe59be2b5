// Package engine wires the scheduler together: it turns a recorded attempt
// into mastery, stability, and queue updates (plus prerequisite credit), and
// turns a learner's state into an ordered study plan with concrete questions.
package engine

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/adolago/studypath/internal/curriculum"
	"github.com/adolago/studypath/internal/mastery"
	"github.com/adolago/studypath/internal/planner"
	"github.com/adolago/studypath/internal/progress"
	"github.com/adolago/studypath/internal/spacedrep"
)

// recentWindow bounds the attempt count that gates support-level bumps.
const recentWindow = 7 * 24 * time.Hour

var (
	// ErrUnknownTopic rejects attempts against topics the curriculum does
	// not define.
	ErrUnknownTopic = errors.New("unknown topic")
	// ErrInvalidAttempt rejects attempts missing required fields.
	ErrInvalidAttempt = errors.New("invalid attempt")
)

// Picker resolves a (topic, difficulty) recommendation into a question ID.
type Picker interface {
	PickQuestion(ctx context.Context, learnerID, topicID string, difficulty planner.Difficulty, excludeIDs []string, now time.Time) (string, bool, error)
}

// PlanCache is an optional short-lived cache for built plans.
type PlanCache interface {
	GetPlan(ctx context.Context, learnerID string, limit int, topicFilter string) (planner.Plan, bool)
	SetPlan(ctx context.Context, learnerID string, limit int, topicFilter string, plan planner.Plan)
	InvalidatePlans(ctx context.Context, learnerID string)
}

// RecentMarker records a correctly-answered question so the picker can skip
// it cheaply. Failures here are logged, never fatal; the attempt log is the
// source of truth.
type RecentMarker interface {
	MarkRecentCorrect(ctx context.Context, learnerID, questionID string) error
}

// Config holds dependencies for the scheduling engine.
type Config struct {
	Graph     *curriculum.Graph
	Store     progress.Store // defaults to a MemoryStore
	Picker    Picker         // optional; tasks keep an empty question ID without one
	PlanCache PlanCache      // optional
	Marker    RecentMarker   // optional
	Intervals spacedrep.Params
	MaxDepth  int              // prerequisite credit / consolidation depth bound, defaults to mastery.DefaultMaxDepth
	Now       func() time.Time // defaults to time.Now
}

// Engine is the core scheduler.
type Engine struct {
	graph      *curriculum.Graph
	store      progress.Store
	picker     Picker
	planCache  PlanCache
	marker     RecentMarker
	propagator *mastery.Propagator
	maxDepth   int
	intervals  spacedrep.Params
	broker     *Broker
	now        func() time.Time
}

// New creates a scheduling engine.
func New(cfg Config) *Engine {
	store := cfg.Store
	if store == nil {
		store = progress.NewMemoryStore()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Engine{
		graph:      cfg.Graph,
		store:      store,
		picker:     cfg.Picker,
		planCache:  cfg.PlanCache,
		marker:     cfg.Marker,
		propagator: mastery.NewPropagator(cfg.Graph.Prerequisites, cfg.MaxDepth),
		maxDepth:   cfg.MaxDepth,
		intervals:  cfg.Intervals,
		broker:     NewBroker(),
		now:        now,
	}
}

// Broker exposes the attempt event stream for subscribers.
func (e *Engine) Broker() *Broker {
	return e.broker
}

// AttemptResult reports everything one recorded attempt changed.
type AttemptResult struct {
	Record       *mastery.Record  `json:"record"`
	Credits      []mastery.Credit `json:"credits,omitempty"`
	NextReviewAt time.Time        `json:"next_review_at"`
	Interval     time.Duration    `json:"interval"`
}

// RecordAttempt persists an attempt and applies the full update pipeline:
// mastery estimate, stability and review interval, queue entry, and, on a
// correct answer, implicit credit to prerequisite ancestors. Storage
// failures abort with a wrapped error; cache failures only log.
func (e *Engine) RecordAttempt(ctx context.Context, attempt mastery.Attempt) (*AttemptResult, error) {
	if attempt.LearnerID == "" || attempt.TopicID == "" {
		return nil, fmt.Errorf("%w: learner_id and topic_id are required", ErrInvalidAttempt)
	}
	if _, ok := e.graph.Topic(attempt.TopicID); !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTopic, attempt.TopicID)
	}
	if attempt.ID == "" {
		attempt.ID = generateID()
	}
	now := e.now()
	if attempt.CreatedAt.IsZero() {
		attempt.CreatedAt = now
	}

	if err := e.store.AppendAttempt(ctx, attempt); err != nil {
		return nil, fmt.Errorf("append attempt: %w", err)
	}

	rec, found, err := e.store.GetMastery(ctx, attempt.LearnerID, attempt.TopicID)
	if err != nil {
		return nil, fmt.Errorf("load mastery: %w", err)
	}
	if !found {
		rec = mastery.NewRecord(attempt.LearnerID, attempt.TopicID)
	}

	history, err := e.store.TopicAttempts(ctx, attempt.LearnerID, attempt.TopicID, time.Time{})
	if err != nil {
		return nil, fmt.Errorf("load attempt history: %w", err)
	}

	next := mastery.ComputeUpdate(rec, attempt, history, now)
	next.Stability = spacedrep.UpdateStability(rec.Stability, attempt.Score(), rec.PracticeCount)

	interval := spacedrep.NextInterval(e.currentInterval(ctx, attempt.LearnerID, attempt.TopicID), attempt.Score(), next.Level, e.intervals)
	next.NextReviewAt = spacedrep.NextReviewAt(now, interval)

	if err := e.store.UpsertMastery(ctx, next); err != nil {
		return nil, fmt.Errorf("save mastery: %w", err)
	}

	entry := progress.ReviewQueueEntry{
		LearnerID:   attempt.LearnerID,
		TopicID:     attempt.TopicID,
		ScheduledAt: next.NextReviewAt,
		Interval:    interval,
		Urgency:     0, // re-derived at read time
	}
	if err := e.store.UpsertQueueEntry(ctx, entry); err != nil {
		return nil, fmt.Errorf("save queue entry: %w", err)
	}

	var credits []mastery.Credit
	if attempt.Correct {
		credits, err = e.propagateCredit(ctx, attempt)
		if err != nil {
			return nil, err
		}
		if e.marker != nil && attempt.QuestionID != "" {
			if err := e.marker.MarkRecentCorrect(ctx, attempt.LearnerID, attempt.QuestionID); err != nil {
				slog.Warn("failed to mark recent correct", "question_id", attempt.QuestionID, "error", err)
			}
		}
	}

	if e.planCache != nil {
		e.planCache.InvalidatePlans(ctx, attempt.LearnerID)
	}

	slog.Info("attempt recorded",
		"learner_id", attempt.LearnerID,
		"topic_id", attempt.TopicID,
		"correct", attempt.Correct,
		"level", next.Level,
		"stage", next.Stage,
		"next_review_at", next.NextReviewAt,
		"credited", len(credits),
	)

	e.broker.Publish(AttemptEvent{
		LearnerID: attempt.LearnerID,
		TopicID:   attempt.TopicID,
		Correct:   attempt.Correct,
		Level:     next.Level,
		CreatedAt: attempt.CreatedAt,
	})

	return &AttemptResult{
		Record:       next,
		Credits:      credits,
		NextReviewAt: next.NextReviewAt,
		Interval:     interval,
	}, nil
}

// propagateCredit runs the prerequisite credit pass and persists every
// credited record.
func (e *Engine) propagateCredit(ctx context.Context, attempt mastery.Attempt) ([]mastery.Credit, error) {
	records, err := e.store.AllMastery(ctx, attempt.LearnerID)
	if err != nil {
		return nil, fmt.Errorf("load mastery map: %w", err)
	}

	credits := e.propagator.Propagate(attempt.TopicID, attempt.Score(), records)
	for _, c := range credits {
		if err := e.store.UpsertMastery(ctx, records[c.TopicID]); err != nil {
			return nil, fmt.Errorf("save credited mastery for %s: %w", c.TopicID, err)
		}
		slog.Debug("prerequisite credit applied",
			"learner_id", attempt.LearnerID,
			"topic_id", c.TopicID,
			"depth", c.Depth,
			"new_level", c.NewLevel,
		)
	}
	return credits, nil
}

// currentInterval reads the topic's scheduled interval, or zero when the
// topic has never been queued.
func (e *Engine) currentInterval(ctx context.Context, learnerID, topicID string) time.Duration {
	entries, err := e.store.AllQueueEntries(ctx, learnerID)
	if err != nil {
		slog.Warn("failed to load queue entries", "learner_id", learnerID, "error", err)
		return 0
	}
	for _, entry := range entries {
		if entry.TopicID == topicID {
			return entry.Interval
		}
	}
	return 0
}

// NextTasks builds the learner's study plan: snapshot state, recompute every
// urgency against a single clock reading, run the selector, and resolve each
// task to a concrete question. Tasks with no available question are dropped.
func (e *Engine) NextTasks(ctx context.Context, learnerID string, limit int, topicFilter string) (planner.Plan, error) {
	if e.planCache != nil {
		if plan, ok := e.planCache.GetPlan(ctx, learnerID, limit, topicFilter); ok {
			return plan, nil
		}
	}

	records, err := e.store.AllMastery(ctx, learnerID)
	if err != nil {
		return planner.Plan{}, fmt.Errorf("load mastery map: %w", err)
	}
	entries, err := e.store.AllQueueEntries(ctx, learnerID)
	if err != nil {
		return planner.Plan{}, fmt.Errorf("load review queue: %w", err)
	}

	now := e.now()
	queue := make([]planner.QueueItem, 0, len(entries))
	for _, entry := range entries {
		retention := 0.0
		if rec, ok := records[entry.TopicID]; ok {
			retention = spacedrep.Retention(rec.LastPracticedAt, rec.Stability, now)
		}
		queue = append(queue, planner.QueueItem{
			TopicID:     entry.TopicID,
			ScheduledAt: entry.ScheduledAt,
			Urgency:     spacedrep.Urgency(retention, entry.ScheduledAt, now),
		})
	}

	recent, err := e.recentAttemptCounts(ctx, learnerID, now)
	if err != nil {
		return planner.Plan{}, err
	}

	plan := planner.BuildPlan(planner.Input{
		Graph:          e.graph,
		Records:        records,
		Queue:          queue,
		Now:            now,
		Limit:          limit,
		TopicFilter:    topicFilter,
		RecentAttempts: recent,
		MaxDepth:       e.maxDepth,
	})

	if e.picker != nil {
		plan.Tasks, err = e.resolveQuestions(ctx, learnerID, plan.Tasks, now)
		if err != nil {
			return planner.Plan{}, err
		}
	}

	if e.planCache != nil {
		e.planCache.SetPlan(ctx, learnerID, limit, topicFilter, plan)
	}
	return plan, nil
}

// resolveQuestions assigns a question to every task, keeping questions
// unique within the plan. Tasks the bank cannot serve are dropped.
func (e *Engine) resolveQuestions(ctx context.Context, learnerID string, tasks []planner.Task, now time.Time) ([]planner.Task, error) {
	var picked []string
	resolved := tasks[:0]
	for _, task := range tasks {
		id, ok, err := e.picker.PickQuestion(ctx, learnerID, task.TopicID, task.Difficulty, picked, now)
		if err != nil {
			return nil, fmt.Errorf("pick question for %s: %w", task.TopicID, err)
		}
		if !ok {
			slog.Warn("no question available, dropping task",
				"learner_id", learnerID,
				"topic_id", task.TopicID,
				"difficulty", task.Difficulty,
			)
			continue
		}
		task.QuestionID = id
		picked = append(picked, id)
		resolved = append(resolved, task)
	}
	return resolved, nil
}

// recentAttemptCounts tallies the learner's attempts per topic inside the
// recent-accuracy window.
func (e *Engine) recentAttemptCounts(ctx context.Context, learnerID string, now time.Time) (map[string]int, error) {
	attempts, err := e.store.RecentAttempts(ctx, learnerID, now.Add(-recentWindow))
	if err != nil {
		return nil, fmt.Errorf("load recent attempts: %w", err)
	}
	counts := make(map[string]int, len(attempts))
	for _, a := range attempts {
		counts[a.TopicID]++
	}
	return counts, nil
}

// MasterySnapshot returns the learner's full mastery map.
func (e *Engine) MasterySnapshot(ctx context.Context, learnerID string) (map[string]*mastery.Record, error) {
	records, err := e.store.AllMastery(ctx, learnerID)
	if err != nil {
		return nil, fmt.Errorf("load mastery map: %w", err)
	}
	return records, nil
}

func generateID() string {
	b := make([]byte, 16)
	rand.Read(b)
	return fmt.Sprintf("%x", b)
}
