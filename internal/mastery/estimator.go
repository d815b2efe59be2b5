package mastery

import "time"

const (
	// AlphaExplicit is the EMA step for a topic the learner practiced directly.
	AlphaExplicit = 0.3
	// AlphaImplicit is the EMA step for FIRe credit flowing to a prerequisite.
	AlphaImplicit = 0.1
)

// UpdateLevel moves the level toward score by alpha, clamped to [0,1].
// When score equals the current level the update is a no-op.
func UpdateLevel(current, score, alpha float64) float64 {
	return clamp01(current + alpha*(score-current))
}

// RollingAccuracy computes correct/total over attempts within the window
// ending at now. An empty window yields 0; callers must read that as
// "no signal", not as uniformly-wrong performance.
func RollingAccuracy(attempts []Attempt, window time.Duration, now time.Time) float64 {
	cutoff := now.Add(-window)
	var total, correct int
	for _, a := range attempts {
		if a.CreatedAt.Before(cutoff) {
			continue
		}
		total++
		if a.Correct {
			correct++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(correct) / float64(total)
}

// ComputeUpdate applies one explicit attempt to a record and returns the
// full next state. history must contain the learner's prior attempts on the
// topic; the new attempt is counted in the rolling windows regardless of
// whether the caller already appended it.
func ComputeUpdate(rec *Record, attempt Attempt, history []Attempt, now time.Time) *Record {
	next := *rec

	next.Level = UpdateLevel(rec.Level, attempt.Score(), AlphaExplicit)
	next.Stage = StageForLevel(next.Level)
	next.PracticeCount = rec.PracticeCount + 1

	windowed := history
	if !containsAttempt(history, attempt) {
		windowed = append(append([]Attempt{}, history...), attempt)
	}
	next.Accuracy7d = RollingAccuracy(windowed, 7*24*time.Hour, now)
	next.Accuracy30d = RollingAccuracy(windowed, 30*24*time.Hour, now)

	// Running mean over explicit attempts only; FIRe updates leave it alone.
	n := float64(next.PracticeCount)
	next.AvgTimeMs = rec.AvgTimeMs + (float64(attempt.TimeMs)-rec.AvgTimeMs)/n

	next.LastPracticedAt = now
	return &next
}

// ApplyImplicitCredit applies FIRe credit to a record: a weaker EMA step
// that does not count as practice and does not touch the response-time mean.
func ApplyImplicitCredit(rec *Record, score float64) *Record {
	next := *rec
	next.Level = UpdateLevel(rec.Level, score, AlphaImplicit)
	next.Stage = StageForLevel(next.Level)
	return &next
}

func containsAttempt(attempts []Attempt, a Attempt) bool {
	if a.ID == "" {
		return false
	}
	for _, existing := range attempts {
		if existing.ID == a.ID {
			return true
		}
	}
	return false
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
