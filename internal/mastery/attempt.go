package mastery

import "time"

// Attempt is one immutable practice fact. Attempts are never mutated or
// deleted; the rolling accuracy windows are derived from them alone.
type Attempt struct {
	ID           string    `json:"id"`
	LearnerID    string    `json:"learner_id"`
	QuestionID   string    `json:"question_id"`
	TopicID      string    `json:"topic_id"`
	Correct      bool      `json:"correct"`
	TimeMs       int       `json:"time_ms"`
	ErrorKind    string    `json:"error_kind,omitempty"` // empty when correct or unclassified
	SupportLevel int       `json:"support_level"`
	CreatedAt    time.Time `json:"created_at"`
}

// Score maps correctness to the binary score fed to the level update.
func (a Attempt) Score() float64 {
	if a.Correct {
		return 1
	}
	return 0
}
