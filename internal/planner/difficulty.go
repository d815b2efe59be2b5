package planner

import "fmt"

// Difficulty is an ordered question difficulty level.
type Difficulty int

const (
	DifficultyEasy Difficulty = iota
	DifficultyMedium
	DifficultyHard
)

func (d Difficulty) String() string {
	switch d {
	case DifficultyEasy:
		return "easy"
	case DifficultyMedium:
		return "medium"
	case DifficultyHard:
		return "hard"
	}
	return fmt.Sprintf("difficulty(%d)", int(d))
}

// MarshalJSON encodes the difficulty as its string name.
func (d Difficulty) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

// UnmarshalJSON decodes a difficulty from its string name.
func (d *Difficulty) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	parsed, err := ParseDifficulty(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// ParseDifficulty maps a string to a difficulty level.
func ParseDifficulty(s string) (Difficulty, error) {
	switch s {
	case "easy":
		return DifficultyEasy, nil
	case "medium":
		return DifficultyMedium, nil
	case "hard":
		return DifficultyHard, nil
	}
	return DifficultyEasy, fmt.Errorf("unknown difficulty %q", s)
}

// Harder returns the next harder level. The second result is false when d is
// already the hardest level.
func (d Difficulty) Harder() (Difficulty, bool) {
	if d >= DifficultyHard {
		return DifficultyHard, false
	}
	return d + 1, true
}

// Easier returns the next easier level. The second result is false when d is
// already the easiest level.
func (d Difficulty) Easier() (Difficulty, bool) {
	if d <= DifficultyEasy {
		return DifficultyEasy, false
	}
	return d - 1, true
}

const (
	// Learning-efficiency band: recent accuracy inside [OptimalLow,
	// OptimalHigh] means the difficulty is well calibrated.
	OptimalLow  = 0.70
	OptimalHigh = 0.85

	// minCalibrationSignal is the practice count below which the calibrator
	// holds rather than guessing from noise.
	minCalibrationSignal = 5
)

// Calibration is the calibrator's recommendation.
type Calibration struct {
	Level         Difficulty
	Reason        string
	InOptimalZone bool
}

// Calibrate recommends raising, lowering, or holding difficulty so that the
// learner's recent accuracy stays inside the learning-efficiency band.
func Calibrate(current Difficulty, recentAccuracy float64, practiceCount int) Calibration {
	if practiceCount < minCalibrationSignal {
		return Calibration{
			Level:  current,
			Reason: fmt.Sprintf("only %d attempts so far, holding %s until there is enough signal", practiceCount, current),
		}
	}

	if recentAccuracy > OptimalHigh {
		if harder, ok := current.Harder(); ok {
			return Calibration{
				Level:  harder,
				Reason: fmt.Sprintf("accuracy %.0f%% is above the target band, stepping up to %s", recentAccuracy*100, harder),
			}
		}
		return Calibration{
			Level:  current,
			Reason: "already at the hardest level, consider advancing to a new topic",
		}
	}

	if recentAccuracy < OptimalLow {
		if easier, ok := current.Easier(); ok {
			return Calibration{
				Level:  easier,
				Reason: fmt.Sprintf("accuracy %.0f%% is below the target band, stepping down to %s", recentAccuracy*100, easier),
			}
		}
		return Calibration{
			Level:  current,
			Reason: "already at the easiest level, review the prerequisites",
		}
	}

	return Calibration{
		Level:         current,
		Reason:        fmt.Sprintf("accuracy %.0f%% is in the optimal learning zone", recentAccuracy*100),
		InOptimalZone: true,
	}
}
