package spacedrep

import (
	"math"
	"testing"
	"time"
)

func TestNextInterval_AccuracyBands(t *testing.T) {
	current := 10 * time.Hour

	tests := []struct {
		name     string
		accuracy float64
		want     time.Duration
	}{
		{"excellent", 0.95, 25 * time.Hour},
		{"good", 0.75, 15 * time.Hour},
		{"ok", 0.55, 10 * time.Hour},
		{"weak", 0.35, 5 * time.Hour},
		{"failed resets", 0.1, 4 * time.Hour},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Mastery 0 so the bonus multiplier is 1.
			got := NextInterval(current, tt.accuracy, 0, Params{})
			if got != tt.want {
				t.Errorf("NextInterval(acc=%v) = %v, want %v", tt.accuracy, got, tt.want)
			}
		})
	}
}

func TestNextInterval_MasteryBonus(t *testing.T) {
	// 4h * 2.5 * (1 + 0.5*0.1) = 10.5h
	got := NextInterval(4*time.Hour, 0.95, 0.5, Params{})
	want := time.Duration(10.5 * float64(time.Hour))
	if got != want {
		t.Errorf("NextInterval() = %v, want %v", got, want)
	}
}

func TestNextInterval_Clamped(t *testing.T) {
	p := DefaultParams()

	if got := NextInterval(time.Minute, 0.4, 0, p); got != p.MinInterval {
		t.Errorf("short interval = %v, want clamped to %v", got, p.MinInterval)
	}
	if got := NextInterval(80*24*time.Hour, 0.95, 1.0, p); got != p.MaxInterval {
		t.Errorf("long interval = %v, want clamped to %v", got, p.MaxInterval)
	}
}

func TestNextReviewAt(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	got := NextReviewAt(now, 90*time.Minute)
	want := now.Add(90 * time.Minute)
	if !got.Equal(want) {
		t.Errorf("NextReviewAt() = %v, want %v", got, want)
	}
}

func TestUpdateStability_SuccessGrows(t *testing.T) {
	// practiceCount 0 -> lr = 1. stability 1.0 + 1*0.9 = 1.9
	got := UpdateStability(1.0, 0.9, 0)
	if math.Abs(got-1.9) > 1e-9 {
		t.Errorf("UpdateStability() = %v, want 1.9", got)
	}
}

func TestUpdateStability_FailureShrinks(t *testing.T) {
	// practiceCount 3 -> lr = 0.5. stability 2.0 - 0.5*(1-0.2) = 1.6
	got := UpdateStability(2.0, 0.2, 3)
	if math.Abs(got-1.6) > 1e-9 {
		t.Errorf("UpdateStability() = %v, want 1.6", got)
	}
}

func TestUpdateStability_Floor(t *testing.T) {
	got := UpdateStability(0.6, 0.0, 0)
	if got != MinStability {
		t.Errorf("UpdateStability() = %v, want floor %v", got, MinStability)
	}
}

func TestUpdateStability_DiminishingReturns(t *testing.T) {
	// The learning rate bottoms out at 0.1 regardless of practice count.
	a := UpdateStability(5.0, 1.0, 99)
	b := UpdateStability(5.0, 1.0, 9999)
	if math.Abs(a-b) > 1e-9 {
		t.Errorf("learning rate should floor at 0.1: %v != %v", a, b)
	}
	if math.Abs(a-5.1) > 1e-9 {
		t.Errorf("UpdateStability(high count) = %v, want 5.1", a)
	}
}
