package spacedrep

import (
	"math"
	"time"
)

const (
	// MinStability is the floor for the stability factor, in days.
	MinStability = 0.5
)

// Params bounds the review interval schedule. Zero values are replaced by
// defaults, so Params{} behaves like DefaultParams().
type Params struct {
	MinInterval   time.Duration // shortest allowed review interval
	MaxInterval   time.Duration // longest allowed review interval
	ResetInterval time.Duration // interval after a failed session
}

// DefaultParams returns the standard interval bounds.
func DefaultParams() Params {
	return Params{
		MinInterval:   30 * time.Minute,
		MaxInterval:   90 * 24 * time.Hour,
		ResetInterval: 4 * time.Hour,
	}
}

func (p Params) withDefaults() Params {
	d := DefaultParams()
	if p.MinInterval <= 0 {
		p.MinInterval = d.MinInterval
	}
	if p.MaxInterval <= 0 {
		p.MaxInterval = d.MaxInterval
	}
	if p.ResetInterval <= 0 {
		p.ResetInterval = d.ResetInterval
	}
	return p
}

// NextInterval computes the review interval that follows a practice session.
// The current interval is scaled by an accuracy-band multiplier (2.5 at
// >=0.9, 1.5 at >=0.7, unchanged at >=0.5, halved at >=0.3, otherwise reset
// to the default interval), then by a mastery bonus (1 + level*0.1), then
// clamped to the configured bounds.
func NextInterval(current time.Duration, accuracyScore, masteryLevel float64, p Params) time.Duration {
	p = p.withDefaults()

	var next time.Duration
	switch {
	case accuracyScore >= 0.9:
		next = time.Duration(float64(current) * 2.5)
	case accuracyScore >= 0.7:
		next = time.Duration(float64(current) * 1.5)
	case accuracyScore >= 0.5:
		next = current
	case accuracyScore >= 0.3:
		next = current / 2
	default:
		next = p.ResetInterval
	}

	next = time.Duration(float64(next) * (1 + clamp01(masteryLevel)*0.1))

	if next < p.MinInterval {
		next = p.MinInterval
	}
	if next > p.MaxInterval {
		next = p.MaxInterval
	}
	return next
}

// NextReviewAt schedules the next review from now.
func NextReviewAt(now time.Time, interval time.Duration) time.Time {
	return now.Add(interval)
}

// UpdateStability adjusts the stability factor after a session. The learning
// rate follows a diminishing-returns schedule, max(0.1, 1/sqrt(count+1)):
// early practice moves stability quickly, later practice barely at all.
// Accuracy at or above 0.7 lengthens the forgetting curve; below that it
// shortens, but never under MinStability.
func UpdateStability(current, accuracyScore float64, practiceCount int) float64 {
	if practiceCount < 0 {
		practiceCount = 0
	}
	lr := 1 / math.Sqrt(float64(practiceCount+1))
	if lr < 0.1 {
		lr = 0.1
	}

	next := current
	if accuracyScore >= 0.7 {
		next += lr * accuracyScore
	} else {
		next -= lr * (1 - accuracyScore)
	}

	if next < MinStability {
		next = MinStability
	}
	return next
}
