// Package engagement implements the Exhale progression engine.
// XP and levels, daily streaks, daily and limited tasks, achievements,
// health milestones and derived savings. Everything except Store is a pure
// function over domain values.
package engagement

import "github.com/exhale-app/exhale/internal/domain"

// TouchStreak applies one day of activity to s.
// Same day: no-op. Yesterday or never: extend. Any other gap, including a
// last date in the future from clock skew: reset to 1.
// Longest is raised to Current afterwards and never lowered.
func TouchStreak(s domain.Streak, today domain.Date) (domain.Streak, domain.StreakTransition) {
	var transition domain.StreakTransition

	switch {
	case s.LastActiveDate == nil:
		// First activity ever counts as day one.
		s.Current++
		transition = domain.StreakFirst
	case s.LastActiveDate.Equal(today):
		return s, domain.StreakNoop
	case s.LastActiveDate.AddDays(1).Equal(today):
		s.Current++
		transition = domain.StreakContinue
	default:
		s.Current = 1
		transition = domain.StreakReset
	}

	last := today
	s.LastActiveDate = &last
	if s.Current > s.Longest {
		s.Longest = s.Current
	}
	return s, transition
}

// RepairStreak restores Longest >= Current and clamps negatives.
func RepairStreak(s domain.Streak) domain.Streak {
	if s.Current < 0 {
		s.Current = 0
	}
	if s.Longest < s.Current {
		s.Longest = s.Current
	}
	return s
}

// StreakAlive reports whether the streak can still be continued today,
// i.e. the last active date is today or yesterday.
func StreakAlive(s domain.Streak, today domain.Date) bool {
	if s.LastActiveDate == nil || s.Current == 0 {
		return false
	}
	gap := s.LastActiveDate.DaysUntil(today)
	return gap == 0 || gap == 1
}
