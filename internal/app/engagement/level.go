package engagement

import "github.com/exhale-app/exhale/internal/domain"

// levelThresholds is the cumulative XP needed to reach each level.
// levelThresholds[i] unlocks level i+1; the table must stay strictly
// increasing with levelThresholds[0] == 0.
var levelThresholds = []int64{
	0, 100, 250, 500, 800,
	1200, 1700, 2300, 3000, 4000,
	5200, 6600, 8200, 10000, 12500,
}

// MaxLevel is the highest reachable level.
var MaxLevel = len(levelThresholds)

// tiers maps the first level of each band to its badge.
var tiers = []struct {
	from int
	tier domain.Tier
}{
	{1, domain.Tier{Name: "Beginner", Color: "#9E9E9E"}},
	{3, domain.Tier{Name: "Fighter", Color: "#4CAF50"}},
	{6, domain.Tier{Name: "Warrior", Color: "#2196F3"}},
	{9, domain.Tier{Name: "Champion", Color: "#9C27B0"}},
	{12, domain.Tier{Name: "Legend", Color: "#FF9800"}},
	{15, domain.Tier{Name: "Master", Color: "#FFD700"}},
}

// XPForLevel returns the cumulative XP required to reach a given level.
func XPForLevel(level int) int64 {
	if level <= 1 {
		return 0
	}
	if level > MaxLevel {
		level = MaxLevel
	}
	return levelThresholds[level-1]
}

// LevelForXP returns the largest level whose threshold xp has reached,
// clamped to [1, MaxLevel].
func LevelForXP(xp int64) int {
	level := 1
	for level < MaxLevel && xp >= levelThresholds[level] {
		level++
	}
	return level
}

// ProgressPct returns progress toward the next level (0.0–100.0).
// The max level reports 100.
func ProgressPct(xp int64, level int) float64 {
	if level >= MaxLevel {
		return 100.0
	}
	if level < 1 {
		level = 1
	}
	thisLevel := XPForLevel(level)
	span := XPForLevel(level+1) - thisLevel
	if span <= 0 {
		return 100.0
	}
	progress := float64(xp-thisLevel) / float64(span) * 100.0
	if progress < 0 {
		progress = 0
	}
	if progress > 100 {
		progress = 100
	}
	return progress
}

// NextLevelThreshold returns the XP that unlocks the level after level,
// or the final threshold at max level.
func NextLevelThreshold(level int) int64 {
	if level >= MaxLevel {
		return levelThresholds[MaxLevel-1]
	}
	if level < 1 {
		level = 1
	}
	return levelThresholds[level]
}

// XPToNextLevel returns XP remaining until the next level.
func XPToNextLevel(xp int64) int64 {
	level := LevelForXP(xp)
	if level >= MaxLevel {
		return 0
	}
	remaining := NextLevelThreshold(level) - xp
	if remaining < 0 {
		remaining = 0
	}
	return remaining
}

// TierFor returns the badge for a level.
func TierFor(level int) domain.Tier {
	t := tiers[0].tier
	for _, band := range tiers {
		if level >= band.from {
			t = band.tier
		}
	}
	return t
}

// LevelView builds the read model for an XP total.
func LevelView(xp int64) domain.UserLevel {
	level := LevelForXP(xp)
	return domain.UserLevel{
		Level:         level,
		XP:            xp,
		ProgressPct:   ProgressPct(xp, level),
		NextThreshold: NextLevelThreshold(level),
		XPToNext:      XPToNextLevel(xp),
		MaxLevel:      level >= MaxLevel,
		Tier:          TierFor(level),
	}
}
