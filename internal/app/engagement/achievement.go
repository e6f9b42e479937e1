package engagement

import (
	"time"

	"github.com/exhale-app/exhale/internal/domain"
)

// EvaluateAchievements checks every locked achievement against stats.
// Satisfied ones are unlocked at now with Progress pinned to the requirement;
// the rest get Progress set to the current raw metric. Unlocked entries are
// never touched, so a lower metric can never re-lock them.
//
// The input slice is not modified. newly holds the achievements unlocked by
// this call; granting their Points is the caller's job.
func EvaluateAchievements(catalog []domain.Achievement, stats domain.UserStats, now time.Time) (updated, newly []domain.Achievement) {
	updated = make([]domain.Achievement, len(catalog))
	copy(updated, catalog)

	for i := range updated {
		a := &updated[i]
		if a.Unlocked {
			continue
		}
		metric, ok := stats.Metric(a.Requirement.Type)
		if !ok {
			continue
		}
		if metric >= a.Requirement.Value {
			at := now
			a.Unlocked = true
			a.UnlockedAt = &at
			a.Progress = a.Requirement.Value
			newly = append(newly, *a)
			continue
		}
		if metric < 0 {
			metric = 0
		}
		a.Progress = metric
	}
	return updated, newly
}

// MergeAchievements reconciles persisted state with the current catalog.
// Definitions come from catalog; unlock state and progress are carried over
// by id. Stored ids missing from the catalog are dropped.
func MergeAchievements(stored, catalog []domain.Achievement) []domain.Achievement {
	byID := make(map[string]domain.Achievement, len(stored))
	for _, a := range stored {
		byID[a.ID] = a
	}
	merged := make([]domain.Achievement, len(catalog))
	for i, def := range catalog {
		merged[i] = def
		if prev, ok := byID[def.ID]; ok {
			merged[i].Unlocked = prev.Unlocked
			merged[i].UnlockedAt = prev.UnlockedAt
			merged[i].Progress = prev.Progress
			if merged[i].Unlocked {
				merged[i].Progress = def.Requirement.Value
			}
		}
	}
	return merged
}

// UnlockedCount returns how many achievements are unlocked.
func UnlockedCount(achievements []domain.Achievement) int {
	n := 0
	for _, a := range achievements {
		if a.Unlocked {
			n++
		}
	}
	return n
}

// TotalPoints sums the points of the given achievements.
func TotalPoints(achievements []domain.Achievement) int64 {
	var total int64
	for _, a := range achievements {
		total += a.Points
	}
	return total
}

// ─── Achievement Catalog ────────────────────────────────────────────────────

func achievement(id, title, desc string, cat domain.AchievementCategory, icon string,
	req domain.RequirementType, value, points int64, rarity domain.Rarity) domain.Achievement {
	return domain.Achievement{
		ID: id, Title: title, Description: desc, Category: cat, Icon: icon,
		Requirement: domain.Requirement{Type: req, Value: value},
		Points:      points, Rarity: rarity,
	}
}

// AllAchievements returns the full achievement catalog, all locked.
func AllAchievements() []domain.Achievement {
	return []domain.Achievement{
		// ── Time smoke-free ────────────────────────────────────────────
		achievement("day_1", "First Day", "24 hours without a cigarette.", domain.CatTime, "🌱", domain.ReqDays, 1, 20, domain.RarityCommon),
		achievement("day_3", "Nicotine Free", "Three days: nicotine has left your body.", domain.CatTime, "🍃", domain.ReqDays, 3, 40, domain.RarityCommon),
		achievement("week_1", "One Week", "A full week smoke-free.", domain.CatTime, "📅", domain.ReqDays, 7, 80, domain.RarityUncommon),
		achievement("week_2", "Two Weeks", "Fourteen days in a row.", domain.CatTime, "🗓️", domain.ReqDays, 14, 120, domain.RarityUncommon),
		achievement("month_1", "One Month", "Thirty days smoke-free.", domain.CatTime, "🏅", domain.ReqDays, 30, 250, domain.RarityRare),
		achievement("month_3", "Quarter Year", "Ninety days smoke-free.", domain.CatTime, "🥈", domain.ReqDays, 90, 500, domain.RarityEpic),
		achievement("month_6", "Half Year", "Six months smoke-free.", domain.CatTime, "🥇", domain.ReqDays, 180, 800, domain.RarityEpic),
		achievement("year_1", "One Year", "A whole year smoke-free.", domain.CatTime, "🏆", domain.ReqDays, 365, 2000, domain.RarityLegendary),

		// ── Health (cigarettes not smoked) ─────────────────────────────
		achievement("avoided_100", "Hundred Skipped", "100 cigarettes not smoked.", domain.CatHealth, "🚭", domain.ReqCigarettesAvoided, 100, 60, domain.RarityCommon),
		achievement("avoided_500", "Clean Lungs", "500 cigarettes not smoked.", domain.CatHealth, "🫁", domain.ReqCigarettesAvoided, 500, 150, domain.RarityUncommon),
		achievement("avoided_1000", "Thousand Breaths", "1,000 cigarettes not smoked.", domain.CatHealth, "💨", domain.ReqCigarettesAvoided, 1000, 300, domain.RarityRare),
		achievement("avoided_5000", "Smoke Breaker", "5,000 cigarettes not smoked.", domain.CatHealth, "🌬️", domain.ReqCigarettesAvoided, 5000, 1000, domain.RarityEpic),

		// ── Money ──────────────────────────────────────────────────────
		achievement("saved_100", "Piggy Bank", "Saved 100 in cigarette money.", domain.CatMoney, "🐷", domain.ReqMoneySaved, 100, 50, domain.RarityCommon),
		achievement("saved_500", "Treat Yourself", "Saved 500 in cigarette money.", domain.CatMoney, "💵", domain.ReqMoneySaved, 500, 120, domain.RarityUncommon),
		achievement("saved_1000", "Big Saver", "Saved 1,000 in cigarette money.", domain.CatMoney, "💰", domain.ReqMoneySaved, 1000, 250, domain.RarityRare),
		achievement("saved_5000", "Money Maker", "Saved 5,000 in cigarette money.", domain.CatMoney, "💎", domain.ReqMoneySaved, 5000, 800, domain.RarityEpic),

		// ── Progress ───────────────────────────────────────────────────
		achievement("xp_1000", "Experienced", "Earned 1,000 XP.", domain.CatProgress, "⭐", domain.ReqXP, 1000, 100, domain.RarityUncommon),
		achievement("level_5", "Rising", "Reached level 5.", domain.CatProgress, "📈", domain.ReqLevel, 5, 100, domain.RarityUncommon),
		achievement("level_10", "Seasoned", "Reached level 10.", domain.CatProgress, "🎖️", domain.ReqLevel, 10, 400, domain.RarityRare),
		achievement("level_max", "Master of Breath", "Reached the highest level.", domain.CatProgress, "👑", domain.ReqLevel, int64(MaxLevel), 1500, domain.RarityLegendary),

		// ── Tasks ──────────────────────────────────────────────────────
		achievement("tasks_1", "Getting Started", "Completed your first daily task.", domain.CatTasks, "✅", domain.ReqTasksCompleted, 1, 10, domain.RarityCommon),
		achievement("tasks_50", "Task Hunter", "Completed 50 daily tasks.", domain.CatTasks, "🎯", domain.ReqTasksCompleted, 50, 200, domain.RarityRare),
		achievement("limited_5", "Beat the Clock", "Completed 5 bonus tasks before they expired.", domain.CatTasks, "⏱️", domain.ReqLimitedTasksCompleted, 5, 150, domain.RarityUncommon),
		achievement("gifts_7", "Gift Collector", "Claimed 7 daily gifts.", domain.CatTasks, "🎁", domain.ReqGiftsClaimed, 7, 70, domain.RarityUncommon),

		// ── Streaks ────────────────────────────────────────────────────
		achievement("streak_3", "On a Roll", "Opened the app 3 days in a row.", domain.CatStreak, "🔥", domain.ReqStreak, 3, 30, domain.RarityCommon),
		achievement("streak_7", "Week Warrior", "Opened the app 7 days in a row.", domain.CatStreak, "💪", domain.ReqStreak, 7, 100, domain.RarityUncommon),
		achievement("streak_30", "Unstoppable", "Opened the app 30 days in a row.", domain.CatStreak, "⚡", domain.ReqStreak, 30, 500, domain.RarityEpic),
	}
}
