// Package spacedrep implements the forgetting-curve memory model: recall
// probability decaying with time since practice, review urgency, and the
// stability/interval update rules applied after each practice session.
package spacedrep

import (
	"math"
	"time"
)

// Retention estimates the probability of correct recall at now, given the
// last practice time and the stability factor in days. The curve is
// R = e^(-elapsedHours / stabilityHours), clamped to [0,1].
//
// A topic that has never been practiced has no defined retention; callers
// treat it as 0.
func Retention(lastPracticedAt time.Time, stabilityDays float64, now time.Time) float64 {
	elapsedHours := now.Sub(lastPracticedAt).Hours()
	if elapsedHours < 0 {
		elapsedHours = 0
	}
	stabilityHours := stabilityDays * 24
	if stabilityHours <= 0 {
		return 0
	}
	return clamp01(math.Exp(-elapsedHours / stabilityHours))
}

// Urgency scores how badly a topic needs review. Low retention raises it,
// and being overdue scales it roughly linearly with days past the scheduled
// review: urgency = (1 - retention) * (1 + overdueHours/24).
//
// A fully-retained topic that is not yet due scores 0; an overdue,
// poorly-retained topic scores above 1. The result is never negative.
func Urgency(retention float64, scheduledAt, now time.Time) float64 {
	overdueHours := now.Sub(scheduledAt).Hours()
	if overdueHours < 0 {
		overdueHours = 0
	}
	overdueFactor := 1 + overdueHours/24
	u := (1 - clamp01(retention)) * overdueFactor
	if u < 0 {
		return 0
	}
	return u
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
