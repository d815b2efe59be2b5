package planner

import "fmt"

// SupportLevel is an ordered instructional-support level. Higher means more
// scaffolding; SupportGuided is the safe default when there is no signal.
type SupportLevel int

const (
	SupportIndependent SupportLevel = 1 // no scaffolding
	SupportHints       SupportLevel = 2 // hints on request
	SupportWorked      SupportLevel = 3 // worked examples alongside
	SupportGuided      SupportLevel = 4 // full step-by-step guidance
)

func (s SupportLevel) String() string {
	switch s {
	case SupportIndependent:
		return "independent"
	case SupportHints:
		return "hints"
	case SupportWorked:
		return "worked-examples"
	case SupportGuided:
		return "guided"
	}
	return fmt.Sprintf("support(%d)", int(s))
}

// SupportFor picks the instructional-support level for a topic. Mastery
// alone sets the base (more mastery, less support); poor recent accuracy
// with at least three recent attempts bumps the level toward more support.
// Fewer than three recent attempts is no signal, so no bump. The result
// stays inside [SupportIndependent, SupportGuided].
func SupportFor(masteryLevel, recentAccuracy float64, recentAttempts int) SupportLevel {
	var level SupportLevel
	switch {
	case masteryLevel >= 0.75:
		level = SupportIndependent
	case masteryLevel >= 0.5:
		level = SupportHints
	case masteryLevel >= 0.3:
		level = SupportWorked
	default:
		level = SupportGuided
	}

	if recentAttempts >= 3 {
		switch {
		case recentAccuracy < 0.4:
			level += 2
		case recentAccuracy < 0.6:
			level++
		}
	}

	if level > SupportGuided {
		level = SupportGuided
	}
	if level < SupportIndependent {
		level = SupportIndependent
	}
	return level
}
