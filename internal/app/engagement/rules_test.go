package engagement_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/exhale-app/exhale/internal/app/engagement"
	"github.com/exhale-app/exhale/internal/domain"
)

// ═══════════════════════════════════════════════════════════════════════════
// Level Tests
// ═══════════════════════════════════════════════════════════════════════════

func TestLevelForXP_Table(t *testing.T) {
	cases := []struct {
		xp    int64
		level int
	}{
		{0, 1}, {99, 1}, {100, 2}, {249, 2}, {250, 3},
		{799, 4}, {800, 5}, {4000, 10}, {12499, 14}, {12500, 15}, {1_000_000, 15},
		{-50, 1},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.level, engagement.LevelForXP(tc.xp), "xp=%d", tc.xp)
	}
}

func TestLevelForXP_Monotonic(t *testing.T) {
	prev := engagement.LevelForXP(0)
	for xp := int64(1); xp <= 13000; xp += 7 {
		level := engagement.LevelForXP(xp)
		require.GreaterOrEqual(t, level, prev, "xp=%d", xp)
		require.LessOrEqual(t, level, engagement.MaxLevel)
		prev = level
	}
}

func TestXPForLevel(t *testing.T) {
	assert.Equal(t, int64(0), engagement.XPForLevel(1))
	assert.Equal(t, int64(100), engagement.XPForLevel(2))
	assert.Equal(t, int64(12500), engagement.XPForLevel(15))
	assert.Equal(t, int64(12500), engagement.XPForLevel(99))
	assert.Equal(t, int64(0), engagement.XPForLevel(0))
}

func TestLevelView(t *testing.T) {
	v := engagement.LevelView(150)
	assert.Equal(t, 2, v.Level)
	assert.InDelta(t, 33.33, v.ProgressPct, 0.01)
	assert.Equal(t, int64(250), v.NextThreshold)
	assert.Equal(t, int64(100), v.XPToNext)
	assert.False(t, v.MaxLevel)
	assert.Equal(t, "Beginner", v.Tier.Name)

	top := engagement.LevelView(20000)
	assert.Equal(t, engagement.MaxLevel, top.Level)
	assert.Equal(t, 100.0, top.ProgressPct)
	assert.Equal(t, int64(0), top.XPToNext)
	assert.True(t, top.MaxLevel)
	assert.Equal(t, "Master", top.Tier.Name)
}

func TestTierFor(t *testing.T) {
	want := map[int]string{
		1: "Beginner", 2: "Beginner", 3: "Fighter", 5: "Fighter", 6: "Warrior",
		9: "Champion", 11: "Champion", 12: "Legend", 14: "Legend", 15: "Master",
	}
	for level, name := range want {
		assert.Equal(t, name, engagement.TierFor(level).Name, "level %d", level)
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Streak Tests
// ═══════════════════════════════════════════════════════════════════════════

func streakAt(t *testing.T, current, longest int, last string) domain.Streak {
	d := date(t, last)
	return domain.Streak{Current: current, Longest: longest, LastActiveDate: &d}
}

func TestTouchStreak_NextDayExtends(t *testing.T) {
	s, tr := engagement.TouchStreak(streakAt(t, 3, 3, "2025-01-10"), date(t, "2025-01-11"))
	assert.Equal(t, domain.StreakContinue, tr)
	assert.Equal(t, 4, s.Current)
	assert.Equal(t, 4, s.Longest)
	assert.Equal(t, "2025-01-11", s.LastActiveDate.String())
}

func TestTouchStreak_GapResets(t *testing.T) {
	s, tr := engagement.TouchStreak(streakAt(t, 3, 3, "2025-01-10"), date(t, "2025-01-13"))
	assert.Equal(t, domain.StreakReset, tr)
	assert.Equal(t, 1, s.Current)
	assert.Equal(t, 3, s.Longest, "longest never decreases")
}

func TestTouchStreak_SameDayIdempotent(t *testing.T) {
	today := date(t, "2025-01-11")
	once, _ := engagement.TouchStreak(streakAt(t, 3, 3, "2025-01-10"), today)
	twice, tr := engagement.TouchStreak(once, today)
	assert.Equal(t, domain.StreakNoop, tr)
	assert.Equal(t, once, twice)
}

func TestTouchStreak_FirstActivity(t *testing.T) {
	s, tr := engagement.TouchStreak(domain.Streak{}, date(t, "2025-01-10"))
	assert.Equal(t, domain.StreakFirst, tr)
	assert.Equal(t, 1, s.Current)
	assert.Equal(t, 1, s.Longest)
}

func TestTouchStreak_FutureLastDateResets(t *testing.T) {
	s, tr := engagement.TouchStreak(streakAt(t, 5, 5, "2025-01-12"), date(t, "2025-01-11"))
	assert.Equal(t, domain.StreakReset, tr)
	assert.Equal(t, 1, s.Current)
	assert.Equal(t, 5, s.Longest)
}

func TestRepairStreak(t *testing.T) {
	s := engagement.RepairStreak(domain.Streak{Current: 5, Longest: 2})
	assert.Equal(t, 5, s.Longest)
	s = engagement.RepairStreak(domain.Streak{Current: -1, Longest: 0})
	assert.Equal(t, 0, s.Current)
}

func TestStreakAlive(t *testing.T) {
	s := streakAt(t, 2, 2, "2025-01-10")
	assert.True(t, engagement.StreakAlive(s, date(t, "2025-01-10")))
	assert.True(t, engagement.StreakAlive(s, date(t, "2025-01-11")))
	assert.False(t, engagement.StreakAlive(s, date(t, "2025-01-12")))
	assert.False(t, engagement.StreakAlive(domain.Streak{}, date(t, "2025-01-12")))
}

// ═══════════════════════════════════════════════════════════════════════════
// Daily Task Tests
// ═══════════════════════════════════════════════════════════════════════════

func TestCompleteDaily_Idempotent(t *testing.T) {
	tasks := engagement.DailyPool()

	updated, reward, ok := engagement.CompleteDaily(tasks, "walk", start)
	require.True(t, ok)
	assert.Equal(t, int64(20), reward)
	assert.False(t, tasks[1].Completed, "input slice must not change")
	assert.Equal(t, 1, engagement.CountCompleted(updated))

	again, reward, ok := engagement.CompleteDaily(updated, "walk", start)
	assert.False(t, ok)
	assert.Zero(t, reward)
	assert.Equal(t, updated, again)

	_, _, ok = engagement.CompleteDaily(updated, "nope", start)
	assert.False(t, ok)
}

func TestDailyTasksCurrent(t *testing.T) {
	today := date(t, "2025-01-10")
	yesterday := today.AddDays(-1)

	assert.True(t, engagement.DailyTasksCurrent(engagement.DailyPool(), &today, today))
	assert.False(t, engagement.DailyTasksCurrent(engagement.DailyPool(), &yesterday, today))
	assert.False(t, engagement.DailyTasksCurrent(engagement.DailyPool(), nil, today))
	assert.False(t, engagement.DailyTasksCurrent([]domain.DailyTask{{ID: "retired"}}, &today, today))
}

// ═══════════════════════════════════════════════════════════════════════════
// Limited Task Tests
// ═══════════════════════════════════════════════════════════════════════════

func TestGenerateLimited_Horizon(t *testing.T) {
	short := engagement.GenerateLimited(&seqRandom{vals: []int{0, 0}}, start)
	assert.Equal(t, "cold-shower", short.TemplateID)
	assert.Equal(t, start.Add(2*time.Hour), short.ExpiresAt)
	assert.Equal(t, int64(50), short.Reward())

	long := engagement.GenerateLimited(&seqRandom{vals: []int{5, 120}}, start)
	assert.Equal(t, "clean-space", long.TemplateID)
	assert.Equal(t, start.Add(4*time.Hour), long.ExpiresAt)
	assert.NotEqual(t, short.ID, long.ID)
}

func TestCompleteLimited_BeforeAndAfterExpiry(t *testing.T) {
	task := engagement.GenerateLimited(&seqRandom{}, start)

	done, reward, ok := engagement.CompleteLimited(task, start.Add(time.Hour))
	require.True(t, ok)
	assert.Equal(t, task.BaseXP+task.BonusXP, reward)
	assert.True(t, done.Completed)

	_, reward, ok = engagement.CompleteLimited(done, start.Add(time.Hour))
	assert.False(t, ok)
	assert.Zero(t, reward)

	_, reward, ok = engagement.CompleteLimited(task, task.ExpiresAt)
	assert.False(t, ok, "a task is expired at its deadline")
	assert.Zero(t, reward)
}

func TestLimitedVisibility(t *testing.T) {
	task := engagement.GenerateLimited(&seqRandom{}, start)
	done, _, _ := engagement.CompleteLimited(task, start)

	assert.True(t, engagement.ActiveLimited(&task, start))
	assert.False(t, engagement.ActiveLimited(&done, start))
	assert.True(t, engagement.VisibleLimited(&done, start))
	assert.False(t, engagement.VisibleLimited(&task, task.ExpiresAt))
	assert.False(t, engagement.VisibleLimited(nil, start))
}

// ═══════════════════════════════════════════════════════════════════════════
// Achievement & Milestone Tests
// ═══════════════════════════════════════════════════════════════════════════

func findAchievement(t *testing.T, list []domain.Achievement, id string) domain.Achievement {
	t.Helper()
	for _, a := range list {
		if a.ID == id {
			return a
		}
	}
	t.Fatalf("achievement %q not found", id)
	return domain.Achievement{}
}

func TestEvaluateAchievements_UnlockAndProgress(t *testing.T) {
	catalog := engagement.AllAchievements()
	updated, newly := engagement.EvaluateAchievements(catalog, domain.UserStats{DaysSinceQuit: 1}, start)

	require.Len(t, newly, 1)
	assert.Equal(t, "day_1", newly[0].ID)
	assert.True(t, findAchievement(t, updated, "day_1").Unlocked)
	assert.Equal(t, int64(1), findAchievement(t, updated, "day_3").Progress)
	assert.False(t, findAchievement(t, catalog, "day_1").Unlocked, "catalog must not change")
}

func TestEvaluateAchievements_NeverRelocks(t *testing.T) {
	updated, _ := engagement.EvaluateAchievements(engagement.AllAchievements(), domain.UserStats{Streak: 3}, start)
	again, newly := engagement.EvaluateAchievements(updated, domain.UserStats{Streak: 0}, start.Add(time.Hour))

	assert.Empty(t, newly)
	a := findAchievement(t, again, "streak_3")
	assert.True(t, a.Unlocked)
	assert.Equal(t, int64(3), a.Progress)
	assert.Equal(t, start, *a.UnlockedAt)
}

func TestMergeAchievements(t *testing.T) {
	at := start
	stored := []domain.Achievement{
		{ID: "day_1", Unlocked: true, UnlockedAt: &at},
		{ID: "week_1", Progress: 4},
		{ID: "retired", Unlocked: true},
	}
	merged := engagement.MergeAchievements(stored, engagement.AllAchievements())

	assert.Len(t, merged, len(engagement.AllAchievements()))
	assert.True(t, findAchievement(t, merged, "day_1").Unlocked)
	assert.Equal(t, "First Day", findAchievement(t, merged, "day_1").Title)
	assert.Equal(t, int64(4), findAchievement(t, merged, "week_1").Progress)
	assert.Equal(t, 1, engagement.UnlockedCount(merged))
}

func TestEvaluateMilestones_MarksAllQualifying(t *testing.T) {
	updated, first := engagement.EvaluateMilestones(engagement.AllMilestones(), 5, start)
	require.NotNil(t, first)
	assert.Equal(t, "co_normal", first.ID)

	reached := 0
	for _, m := range updated {
		if m.Reached {
			reached++
			assert.LessOrEqual(t, m.DaysRequired, 5)
		}
	}
	assert.Equal(t, 3, reached)

	_, first = engagement.EvaluateMilestones(updated, 5, start)
	assert.Nil(t, first)

	next, ok := engagement.NextMilestone(updated)
	require.True(t, ok)
	assert.Equal(t, "circulation", next.ID)
}

// ═══════════════════════════════════════════════════════════════════════════
// Stats & Gift Tests
// ═══════════════════════════════════════════════════════════════════════════

func TestProject_TenDays(t *testing.T) {
	d := engagement.Project(profile(start), 10)
	assert.Equal(t, int64(200), d.CigarettesAvoided)
	assert.Equal(t, int64(500), d.MoneySaved)
	assert.Equal(t, int64(2200), d.LifeRegainedMinutes)
	assert.Equal(t, domain.LifeRegained{Days: 1, Hours: 12, Minutes: 40}, d.LifeRegained)
}

func TestDaysSinceQuit(t *testing.T) {
	assert.Equal(t, int64(1), engagement.DaysSinceQuit(start, start.Add(36*time.Hour)))
	assert.Equal(t, int64(0), engagement.DaysSinceQuit(start, start.Add(-time.Hour)))
	assert.Equal(t, int64(0), engagement.DaysSinceQuit(time.Time{}, start))
}

func TestMoneySaved_RoundsHalfUp(t *testing.T) {
	assert.Equal(t, int64(2), engagement.MoneySaved(3, 20, 10))
	assert.Equal(t, int64(0), engagement.MoneySaved(10, 20, 0))
	assert.Equal(t, int64(5), engagement.MoneySaved(10, 0, 10), "pack size defaults to 20")
}

func TestRollGift(t *testing.T) {
	xp := engagement.RollGift(&seqRandom{vals: []int{0, 4}})
	assert.Equal(t, domain.GiftXP, xp.Type)
	require.NotNil(t, xp.XP)
	assert.Equal(t, int64(100), *xp.XP)

	tip := engagement.RollGift(&seqRandom{vals: []int{2, 1}})
	assert.Equal(t, domain.GiftTip, tip.Type)
	assert.Nil(t, tip.XP)

	badge := engagement.RollGift(&seqRandom{vals: []int{3, 0}})
	assert.Equal(t, domain.GiftBadge, badge.Type)
}

func TestGiftAvailable(t *testing.T) {
	today := date(t, "2025-01-10")
	yesterday := today.AddDays(-1)
	assert.True(t, engagement.GiftAvailable(nil, today))
	assert.True(t, engagement.GiftAvailable(&yesterday, today))
	assert.False(t, engagement.GiftAvailable(&today, today))
}
