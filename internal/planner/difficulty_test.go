package planner

import "testing"

func TestDifficulty_HarderEasier(t *testing.T) {
	if got, ok := DifficultyEasy.Harder(); !ok || got != DifficultyMedium {
		t.Errorf("Easy.Harder() = %v, %v", got, ok)
	}
	if got, ok := DifficultyHard.Harder(); ok || got != DifficultyHard {
		t.Errorf("Hard.Harder() = %v, %v, want hold at hard", got, ok)
	}
	if got, ok := DifficultyHard.Easier(); !ok || got != DifficultyMedium {
		t.Errorf("Hard.Easier() = %v, %v", got, ok)
	}
	if got, ok := DifficultyEasy.Easier(); ok || got != DifficultyEasy {
		t.Errorf("Easy.Easier() = %v, %v, want hold at easy", got, ok)
	}
}

func TestParseDifficulty(t *testing.T) {
	for _, d := range []Difficulty{DifficultyEasy, DifficultyMedium, DifficultyHard} {
		got, err := ParseDifficulty(d.String())
		if err != nil || got != d {
			t.Errorf("ParseDifficulty(%q) = %v, %v", d.String(), got, err)
		}
	}
	if _, err := ParseDifficulty("impossible"); err == nil {
		t.Error("ParseDifficulty(impossible) should error")
	}
}

func TestCalibrate(t *testing.T) {
	tests := []struct {
		name     string
		current  Difficulty
		accuracy float64
		count    int
		want     Difficulty
		inZone   bool
	}{
		{"insufficient signal holds", DifficultyMedium, 0.95, 4, DifficultyMedium, false},
		{"high accuracy steps up", DifficultyMedium, 0.92, 10, DifficultyHard, false},
		{"low accuracy steps down", DifficultyMedium, 0.5, 10, DifficultyEasy, false},
		{"in zone holds", DifficultyMedium, 0.78, 10, DifficultyMedium, true},
		{"band edge low is in zone", DifficultyMedium, 0.70, 10, DifficultyMedium, true},
		{"band edge high is in zone", DifficultyMedium, 0.85, 10, DifficultyMedium, true},
		{"hold at hardest", DifficultyHard, 0.95, 10, DifficultyHard, false},
		{"hold at easiest", DifficultyEasy, 0.2, 10, DifficultyEasy, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Calibrate(tt.current, tt.accuracy, tt.count)
			if got.Level != tt.want {
				t.Errorf("Calibrate() level = %v, want %v", got.Level, tt.want)
			}
			if got.InOptimalZone != tt.inZone {
				t.Errorf("Calibrate() inZone = %v, want %v", got.InOptimalZone, tt.inZone)
			}
			if got.Reason == "" {
				t.Error("Calibrate() reason is empty")
			}
		})
	}
}

func TestSupportFor(t *testing.T) {
	tests := []struct {
		name     string
		level    float64
		accuracy float64
		attempts int
		want     SupportLevel
	}{
		{"unknown topic gets full guidance", 0.0, 0, 0, SupportGuided},
		{"developing gets worked examples", 0.4, 0.8, 5, SupportWorked},
		{"proficient gets hints", 0.6, 0.8, 5, SupportHints},
		{"mastered works independently", 0.8, 0.9, 5, SupportIndependent},
		{"poor accuracy bumps by two", 0.8, 0.3, 5, SupportWorked},
		{"weak accuracy bumps by one", 0.8, 0.5, 5, SupportHints},
		{"too few attempts is no signal", 0.8, 0.3, 2, SupportIndependent},
		{"bump clamps at guided", 0.4, 0.1, 5, SupportGuided},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SupportFor(tt.level, tt.accuracy, tt.attempts); got != tt.want {
				t.Errorf("SupportFor(%v, %v, %d) = %v, want %v", tt.level, tt.accuracy, tt.attempts, got, tt.want)
			}
		})
	}
}
