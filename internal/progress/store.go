// Package progress persists the learner's scheduling state: mastery records,
// review-queue entries, and the immutable attempt log. Records are written
// with whole-record upsert semantics.
package progress

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/adolago/studypath/internal/mastery"
)

// ReviewQueueEntry schedules one topic's next review. The stored urgency is
// informational only; readers always re-derive it from retention and overdue
// time.
type ReviewQueueEntry struct {
	LearnerID   string        `json:"learner_id"`
	TopicID     string        `json:"topic_id"`
	ScheduledAt time.Time     `json:"scheduled_at"`
	Interval    time.Duration `json:"interval"`
	Urgency     float64       `json:"urgency"`
}

// Store persists scheduling state for all learners.
type Store interface {
	GetMastery(ctx context.Context, learnerID, topicID string) (*mastery.Record, bool, error)
	AllMastery(ctx context.Context, learnerID string) (map[string]*mastery.Record, error)
	UpsertMastery(ctx context.Context, rec *mastery.Record) error

	AllQueueEntries(ctx context.Context, learnerID string) ([]ReviewQueueEntry, error)
	UpsertQueueEntry(ctx context.Context, entry ReviewQueueEntry) error

	AppendAttempt(ctx context.Context, attempt mastery.Attempt) error
	TopicAttempts(ctx context.Context, learnerID, topicID string, since time.Time) ([]mastery.Attempt, error)
	RecentAttempts(ctx context.Context, learnerID string, since time.Time) ([]mastery.Attempt, error)
}

// MemoryStore is an in-memory Store for tests and single-process use.
type MemoryStore struct {
	mu       sync.RWMutex
	records  map[string]map[string]*mastery.Record // learner -> topic -> record
	queues   map[string]map[string]ReviewQueueEntry
	attempts map[string][]mastery.Attempt // learner -> append-only log
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records:  make(map[string]map[string]*mastery.Record),
		queues:   make(map[string]map[string]ReviewQueueEntry),
		attempts: make(map[string][]mastery.Attempt),
	}
}

func (s *MemoryStore) GetMastery(_ context.Context, learnerID, topicID string) (*mastery.Record, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[learnerID][topicID]
	if !ok {
		return nil, false, nil
	}
	cp := *rec
	return &cp, true, nil
}

func (s *MemoryStore) AllMastery(_ context.Context, learnerID string) (map[string]*mastery.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]*mastery.Record, len(s.records[learnerID]))
	for topicID, rec := range s.records[learnerID] {
		cp := *rec
		out[topicID] = &cp
	}
	return out, nil
}

func (s *MemoryStore) UpsertMastery(_ context.Context, rec *mastery.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.records[rec.LearnerID] == nil {
		s.records[rec.LearnerID] = make(map[string]*mastery.Record)
	}
	cp := *rec
	s.records[rec.LearnerID][rec.TopicID] = &cp
	return nil
}

func (s *MemoryStore) AllQueueEntries(_ context.Context, learnerID string) ([]ReviewQueueEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]ReviewQueueEntry, 0, len(s.queues[learnerID]))
	for _, entry := range s.queues[learnerID] {
		out = append(out, entry)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TopicID < out[j].TopicID })
	return out, nil
}

func (s *MemoryStore) UpsertQueueEntry(_ context.Context, entry ReviewQueueEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.queues[entry.LearnerID] == nil {
		s.queues[entry.LearnerID] = make(map[string]ReviewQueueEntry)
	}
	s.queues[entry.LearnerID][entry.TopicID] = entry
	return nil
}

func (s *MemoryStore) AppendAttempt(_ context.Context, attempt mastery.Attempt) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.attempts[attempt.LearnerID] = append(s.attempts[attempt.LearnerID], attempt)
	return nil
}

func (s *MemoryStore) TopicAttempts(_ context.Context, learnerID, topicID string, since time.Time) ([]mastery.Attempt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []mastery.Attempt
	for _, a := range s.attempts[learnerID] {
		if a.TopicID == topicID && !a.CreatedAt.Before(since) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *MemoryStore) RecentAttempts(_ context.Context, learnerID string, since time.Time) ([]mastery.Attempt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []mastery.Attempt
	for _, a := range s.attempts[learnerID] {
		if !a.CreatedAt.Before(since) {
			out = append(out, a)
		}
	}
	return out, nil
}
