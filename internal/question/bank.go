package question

import (
	"context"
	"sync"

	"github.com/adolago/studypath/internal/planner"
)

// MemoryBank is an in-memory question bank for development and tests.
type MemoryBank struct {
	mu        sync.RWMutex
	questions map[string][]Question // topicID -> questions, insertion order
}

// NewMemoryBank creates an empty in-memory bank.
func NewMemoryBank() *MemoryBank {
	return &MemoryBank{questions: make(map[string][]Question)}
}

// Add inserts a question into the bank.
func (b *MemoryBank) Add(q Question) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.questions[q.TopicID] = append(b.questions[q.TopicID], q)
}

// Questions returns the questions for a topic at one difficulty, in the
// order they were added.
func (b *MemoryBank) Questions(_ context.Context, topicID string, difficulty planner.Difficulty) ([]Question, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var out []Question
	for _, q := range b.questions[topicID] {
		if q.Difficulty == difficulty {
			out = append(out, q)
		}
	}
	return out, nil
}
