// Package mastery maintains the per-topic skill estimate: a bounded level
// updated by an exponential moving average, the discrete stage derived from
// it, rolling accuracy windows, and fractional implicit repetition (FIRe)
// credit for prerequisite topics.
package mastery

import "time"

// Stage is the discrete classification of a mastery level.
type Stage string

const (
	StageUnknown    Stage = "unknown"
	StageIntroduced Stage = "introduced"
	StageDeveloping Stage = "developing"
	StageProficient Stage = "proficient"
	StageMastered   Stage = "mastered"
	StageFluent     Stage = "fluent"
)

// StageForLevel maps a mastery level to its stage via fixed thresholds.
func StageForLevel(level float64) Stage {
	switch {
	case level >= 0.9:
		return StageFluent
	case level >= 0.75:
		return StageMastered
	case level >= 0.5:
		return StageProficient
	case level >= 0.3:
		return StageDeveloping
	case level >= 0.1:
		return StageIntroduced
	default:
		return StageUnknown
	}
}

// Record holds all mastery state for one learner/topic pair. Created lazily
// on first attempt; a missing record reads as level 0, stage unknown. Only
// the estimator and the FIRe propagator mutate it.
type Record struct {
	LearnerID       string    `json:"learner_id"`
	TopicID         string    `json:"topic_id"`
	Level           float64   `json:"level"` // always in [0,1]
	Stage           Stage     `json:"stage"`
	PracticeCount   int       `json:"practice_count"` // explicit attempts only
	Accuracy7d      float64   `json:"accuracy_7d"`
	Accuracy30d     float64   `json:"accuracy_30d"`
	AvgTimeMs       float64   `json:"avg_time_ms"`
	Stability       float64   `json:"stability"` // days, >= 0.5
	LastPracticedAt time.Time `json:"last_practiced_at"`
	NextReviewAt    time.Time `json:"next_review_at"`
}

// NewRecord initializes a fresh record for a topic at first contact.
func NewRecord(learnerID, topicID string) *Record {
	return &Record{
		LearnerID: learnerID,
		TopicID:   topicID,
		Stage:     StageUnknown,
		Stability: 0.5,
	}
}
