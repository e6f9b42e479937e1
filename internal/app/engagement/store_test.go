package engagement_test

import (
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/exhale-app/exhale/internal/app/engagement"
	"github.com/exhale-app/exhale/internal/domain"
	"github.com/exhale-app/exhale/internal/infra/memstore"
)

func loadProgression(t *testing.T, kv *memstore.Store) domain.ProgressionSnapshot {
	t.Helper()
	raw, err := kv.Load(domain.SnapshotKeyProgression)
	require.NoError(t, err)
	require.NotNil(t, raw)
	var p domain.ProgressionSnapshot
	require.NoError(t, json.Unmarshal(raw, &p))
	return p
}

// ═══════════════════════════════════════════════════════════════════════════
// Construction
// ═══════════════════════════════════════════════════════════════════════════

func TestNewStore_FreshStartPersists(t *testing.T) {
	h := newHarness(t, 0)

	v := h.store.Progress()
	assert.Equal(t, 1, v.Level)
	assert.Zero(t, v.XP)
	assert.Len(t, h.store.DailyTasks(), 6)
	assert.Equal(t, 2, h.kv.Saves(), "both records written on first run")

	p := loadProgression(t, h.kv)
	assert.Equal(t, "2025-01-10", p.DailyTasksDate.String())
	assert.True(t, p.AvailableGift)
}

func TestNewStore_DefaultsWithoutPersistence(t *testing.T) {
	s := engagement.NewStore(engagement.Options{})
	assert.Equal(t, 1, s.Progress().Level)
	assert.True(t, s.Flush())
}

// ═══════════════════════════════════════════════════════════════════════════
// XP
// ═══════════════════════════════════════════════════════════════════════════

func TestAddXP_LevelUp(t *testing.T) {
	h := newHarness(t, 0)

	change := h.store.AddXP(150)
	assert.True(t, change.Applied)
	assert.True(t, change.LeveledUp)
	assert.Equal(t, 1, change.OldLevel)
	assert.Equal(t, 2, change.NewLevel)
	assert.Equal(t, int64(150), h.store.Progress().XP)
}

func TestAddXP_NonPositiveIgnored(t *testing.T) {
	h := newHarness(t, 0)
	h.store.AddXP(40)

	for _, amount := range []int64{0, -5} {
		change := h.store.AddXP(amount)
		assert.False(t, change.Applied)
		assert.Equal(t, int64(40), change.XP)
	}
	assert.Equal(t, int64(40), h.store.Progress().XP)
}

func TestAddXP_SaturatesAtMax(t *testing.T) {
	h := newHarness(t, 0)
	h.store.AddXP(40)

	change := h.store.AddXP(math.MaxInt64)
	assert.True(t, change.Applied)
	assert.Equal(t, int64(math.MaxInt64), change.XP)
	assert.Equal(t, 15, change.NewLevel)

	change = h.store.AddXP(1)
	assert.False(t, change.Applied)
	assert.Equal(t, int64(math.MaxInt64), h.store.Progress().XP)
	assert.Equal(t, int64(math.MaxInt64), loadProgression(t, h.kv).XP)
}

// ═══════════════════════════════════════════════════════════════════════════
// Daily Tasks
// ═══════════════════════════════════════════════════════════════════════════

func TestCompleteTask_GrantsOnce(t *testing.T) {
	h := newHarness(t, 0)

	granted, ok := h.store.CompleteTask("water")
	require.True(t, ok)
	assert.Equal(t, int64(10), granted)

	granted, ok = h.store.CompleteTask("water")
	assert.False(t, ok)
	assert.Zero(t, granted)

	_, ok = h.store.CompleteTask("unknown")
	assert.False(t, ok)

	assert.Equal(t, int64(10), h.store.Progress().XP)
	assert.Equal(t, 1, h.store.CompletedToday())
	assert.Equal(t, int64(1), h.store.Stats().TasksCompleted)
}

func TestResetDailyTasks_SameDayKeepsCompletions(t *testing.T) {
	h := newHarness(t, 0)
	h.store.CompleteTask("walk")

	assert.False(t, h.store.ResetDailyTasks())
	assert.Equal(t, 1, engagement.CountCompleted(h.store.DailyTasks()))
}

func TestDailyTasks_RollOverAtMidnight(t *testing.T) {
	h := newHarness(t, 0)
	h.store.CompleteTask("walk")

	h.clock.Advance(24 * time.Hour)
	assert.Zero(t, h.store.CompletedToday())
	assert.True(t, h.store.ResetDailyTasks())
	assert.Zero(t, engagement.CountCompleted(h.store.DailyTasks()))

	granted, ok := h.store.CompleteTask("walk")
	assert.True(t, ok, "same task completable again on a new day")
	assert.Equal(t, int64(20), granted)
	assert.Equal(t, int64(2), h.store.Stats().TasksCompleted)
}

// ═══════════════════════════════════════════════════════════════════════════
// Streak
// ═══════════════════════════════════════════════════════════════════════════

func TestTouchDailyActivity(t *testing.T) {
	h := newHarness(t, 0)

	s, tr := h.store.TouchDailyActivity()
	assert.Equal(t, domain.StreakFirst, tr)
	assert.Equal(t, 1, s.Current)

	_, tr = h.store.TouchDailyActivity()
	assert.Equal(t, domain.StreakNoop, tr)

	h.clock.Advance(24 * time.Hour)
	s, tr = h.store.TouchDailyActivity()
	assert.Equal(t, domain.StreakContinue, tr)
	assert.Equal(t, 2, s.Current)

	h.clock.Advance(72 * time.Hour)
	s, tr = h.store.TouchDailyActivity()
	assert.Equal(t, domain.StreakReset, tr)
	assert.Equal(t, 1, s.Current)
	assert.Equal(t, 2, s.Longest)
	assert.Equal(t, s, h.store.StreakInfo())
}

func TestTouchDailyActivity_LocalMidnightContinues(t *testing.T) {
	// 23:59 local is 18:29 UTC; two minutes later it is a new local day
	// while UTC is still on the same date.
	ist := time.FixedZone("IST", 5*60*60+30*60)
	h := newHarnessAt(t, time.Date(2025, 3, 14, 23, 59, 0, 0, ist), ist)

	s, tr := h.store.TouchDailyActivity()
	require.Equal(t, domain.StreakFirst, tr)
	assert.Equal(t, "2025-03-14", s.LastActiveDate.String())

	h.clock.Advance(2 * time.Minute)
	s, tr = h.store.TouchDailyActivity()
	assert.Equal(t, domain.StreakContinue, tr)
	assert.Equal(t, 2, s.Current)
	assert.Equal(t, "2025-03-15", s.LastActiveDate.String())
}

func TestTouchDailyActivity_UTCMidnightSameLocalDay(t *testing.T) {
	// 18:59 local is 23:59 UTC; two minutes later UTC has rolled over but
	// the local day has not.
	est := time.FixedZone("EST", -5*60*60)
	h := newHarnessAt(t, time.Date(2025, 3, 14, 18, 59, 0, 0, est), est)

	_, tr := h.store.TouchDailyActivity()
	require.Equal(t, domain.StreakFirst, tr)
	h.store.CompleteTask("water")

	h.clock.Advance(2 * time.Minute)
	s, tr := h.store.TouchDailyActivity()
	assert.Equal(t, domain.StreakNoop, tr)
	assert.Equal(t, 1, s.Current)
	assert.Equal(t, 1, h.store.CompletedToday(), "daily tasks did not roll over")
}

// ═══════════════════════════════════════════════════════════════════════════
// Limited Tasks
// ═══════════════════════════════════════════════════════════════════════════

func TestLimitedTask_CompleteBeforeExpiry(t *testing.T) {
	h := newHarness(t, 0)
	task := h.store.GenerateLimitedTask()

	h.clock.Advance(time.Hour)
	granted, ok := h.store.CompleteLimitedTask()
	require.True(t, ok)
	assert.Equal(t, task.Reward(), granted)

	_, ok = h.store.CompleteLimitedTask()
	assert.False(t, ok)
	assert.Equal(t, task.Reward(), h.store.Progress().XP)

	visible, ok := h.store.ActiveLimitedTask()
	require.True(t, ok, "completed task stays visible until its deadline")
	assert.True(t, visible.Completed)

	h.clock.Advance(4 * time.Hour)
	_, ok = h.store.ActiveLimitedTask()
	assert.False(t, ok)
}

func TestLimitedTask_ExpiredGrantsNothing(t *testing.T) {
	h := newHarness(t, 0)
	task := h.store.GenerateLimitedTask()

	h.clock.Advance(task.ExpiresAt.Sub(start))
	granted, ok := h.store.CompleteLimitedTask()
	assert.False(t, ok)
	assert.Zero(t, granted)
	assert.Zero(t, h.store.Progress().XP)
	assert.Zero(t, h.store.Stats().LimitedTasksCompleted)
}

func TestLimitedTask_RegenerateGrantsNothing(t *testing.T) {
	h := newHarness(t, 0)
	first := h.store.GenerateLimitedTask()
	second := h.store.GenerateLimitedTask()

	assert.NotEqual(t, first.ID, second.ID)
	assert.Zero(t, h.store.Progress().XP)

	active, ok := h.store.ActiveLimitedTask()
	require.True(t, ok)
	assert.Equal(t, second.ID, active.ID)
}

func TestLimitedTask_NoneGenerated(t *testing.T) {
	h := newHarness(t, 0)
	_, ok := h.store.CompleteLimitedTask()
	assert.False(t, ok)
	_, ok = h.store.ActiveLimitedTask()
	assert.False(t, ok)
}

// ═══════════════════════════════════════════════════════════════════════════
// Daily Gift
// ═══════════════════════════════════════════════════════════════════════════

func TestClaimDailyGift_OncePerDay(t *testing.T) {
	h := newHarness(t, 0)
	h.rng.vals = []int{0, 1} // XP gift worth 20

	gift, ok := h.store.ClaimDailyGift()
	require.True(t, ok)
	assert.Equal(t, domain.GiftXP, gift.Type)
	assert.Equal(t, int64(20), h.store.Progress().XP)

	_, ok = h.store.ClaimDailyGift()
	assert.False(t, ok)
	assert.False(t, h.store.GiftAvailable())

	h.clock.Advance(24 * time.Hour)
	assert.True(t, h.store.GiftAvailable())
	_, ok = h.store.ClaimDailyGift()
	assert.True(t, ok)
	assert.Equal(t, int64(2), h.store.Stats().GiftsClaimed)
}

// ═══════════════════════════════════════════════════════════════════════════
// Achievements, Milestones, Stats
// ═══════════════════════════════════════════════════════════════════════════

func TestCheckAchievements_GrantsPointsOnce(t *testing.T) {
	h := newHarness(t, 10)

	newly := h.store.CheckAchievements()
	ids := make([]string, 0, len(newly))
	for _, a := range newly {
		ids = append(ids, a.ID)
	}
	assert.ElementsMatch(t, []string{"day_1", "day_3", "week_1", "avoided_100", "saved_100", "saved_500"}, ids)
	assert.Equal(t, engagement.TotalPoints(newly), h.store.Progress().XP)
	assert.Equal(t, int64(370), h.store.Progress().XP)

	assert.Empty(t, h.store.CheckAchievements())
	assert.Equal(t, int64(370), h.store.Progress().XP)
	assert.Equal(t, 6, engagement.UnlockedCount(h.store.Achievements()))
}

func TestCheckMilestones(t *testing.T) {
	h := newHarness(t, 10)

	first := h.store.CheckMilestones()
	require.NotNil(t, first)
	assert.Equal(t, "co_normal", first.ID)
	assert.Nil(t, h.store.CheckMilestones())

	reached := 0
	for _, m := range h.store.Milestones() {
		if m.Reached {
			reached++
		}
	}
	assert.Equal(t, 3, reached)
}

func TestRefreshStats(t *testing.T) {
	h := newHarness(t, 10)

	d := h.store.RefreshStats()
	assert.Equal(t, int64(200), d.CigarettesAvoided)
	assert.Equal(t, int64(500), d.MoneySaved)
	assert.Equal(t, int64(2200), d.LifeRegainedMinutes)

	p := loadProgression(t, h.kv)
	assert.Equal(t, int64(200), p.TotalCigarettesAvoided)
	assert.Equal(t, int64(500), p.TotalMoneySaved)
	assert.Equal(t, int64(2200), p.TotalMinutesGained)
}

func TestUpdateProfile(t *testing.T) {
	h := newHarness(t, 10)

	assert.False(t, h.store.UpdateProfile(domain.UserProfile{CigarettesPerDay: -1}))

	next := profile(start.Add(-2 * 24 * time.Hour))
	next.CigarettesPerPack = 0
	require.True(t, h.store.UpdateProfile(next))

	got := h.store.Profile()
	assert.Equal(t, domain.DefaultCigarettesPerPack, got.CigarettesPerPack)
	assert.Equal(t, int64(2), h.store.Stats().DaysSinceQuit)
	assert.Equal(t, int64(40), loadProgression(t, h.kv).TotalCigarettesAvoided)
}

// ═══════════════════════════════════════════════════════════════════════════
// Persistence
// ═══════════════════════════════════════════════════════════════════════════

func TestStore_ReopenRestoresState(t *testing.T) {
	h := newHarness(t, 3)
	h.store.CompleteTask("share")
	h.store.TouchDailyActivity()
	h.store.GenerateLimitedTask()
	h.store.CheckAchievements()

	reopened := h.reopen(0)
	assert.Equal(t, h.store.Progress(), reopened.Progress())
	assert.Equal(t, h.store.StreakInfo(), reopened.StreakInfo())
	assert.Equal(t, 1, reopened.CompletedToday())
	assert.Equal(t, h.store.Profile().QuitAt.Unix(), reopened.Profile().QuitAt.Unix())
	assert.Equal(t, engagement.UnlockedCount(h.store.Achievements()), engagement.UnlockedCount(reopened.Achievements()))

	_, ok := reopened.ActiveLimitedTask()
	assert.True(t, ok)
}

func TestStore_RepairsOnLoad(t *testing.T) {
	h := newHarness(t, 0)
	h.kv.Put(domain.SnapshotKeyProgression, []byte(`{
		"xp": 300,
		"level": 1,
		"streak": 5,
		"longestStreak": 2,
		"lastActiveDate": 20097,
		"dailyTasks": [{"id": "retired", "title": "Old", "completed": true}],
		"dailyTasksDate": "2025-01-10",
		"completedTasksToday": 1
	}`))

	s := h.reopen(0)
	assert.Equal(t, 3, s.Progress().Level, "level recomputed from xp")

	streak := s.StreakInfo()
	assert.Equal(t, 5, streak.Longest)
	assert.Equal(t, "2025-01-09", streak.LastActiveDate.String())

	tasks := s.DailyTasks()
	require.Len(t, tasks, 6)
	assert.Equal(t, "water", tasks[0].ID)
	assert.Zero(t, s.CompletedToday())

	_, tr := s.TouchDailyActivity()
	assert.Equal(t, domain.StreakContinue, tr)
	assert.Equal(t, 6, s.StreakInfo().Current)
}

func TestStore_CorruptSnapshotFallsBack(t *testing.T) {
	h := newHarness(t, 0)
	h.kv.Put(domain.SnapshotKeyProgression, []byte(`{"xp": "lots"`))
	h.kv.Put(domain.SnapshotKeyAchievements, []byte(`[]`))

	s := h.reopen(0)
	assert.Zero(t, s.Progress().XP)
	assert.Len(t, s.Achievements(), len(engagement.AllAchievements()))
	assert.Len(t, s.Milestones(), len(engagement.AllMilestones()))

	backup, err := h.kv.Load(domain.SnapshotKeyProgression + domain.SnapshotCorruptSuffix)
	require.NoError(t, err)
	assert.Equal(t, `{"xp": "lots"`, string(backup), "unreadable record kept aside")
	backup, err = h.kv.Load(domain.SnapshotKeyAchievements + domain.SnapshotCorruptSuffix)
	require.NoError(t, err)
	assert.Equal(t, `[]`, string(backup))
}

func TestStore_CorruptSnapshotHeldWhenBackupFails(t *testing.T) {
	h := newHarness(t, 0)
	h.kv.Put(domain.SnapshotKeyProgression, []byte(`garbage`))
	h.kv.FailSaves(memstore.ErrInjected)

	s := h.reopen(0)
	h.kv.FailSaves(nil)
	s.AddXP(10)
	assert.False(t, s.Flush())

	raw, err := h.kv.Load(domain.SnapshotKeyProgression)
	require.NoError(t, err)
	assert.Equal(t, `garbage`, string(raw), "record without a backup is never overwritten")
}

// tamper rewrites the stored record under key through edit.
func tamper(t *testing.T, kv *memstore.Store, key string, edit func(rec map[string]any)) {
	t.Helper()
	raw, err := kv.Load(key)
	require.NoError(t, err)
	var rec map[string]any
	require.NoError(t, json.Unmarshal(raw, &rec))
	edit(rec)
	out, err := json.Marshal(rec)
	require.NoError(t, err)
	kv.Put(key, out)
}

func TestStore_UnknownRarityKeepsUnlocks(t *testing.T) {
	h := newHarness(t, 10)
	require.Len(t, h.store.CheckAchievements(), 6)
	require.Equal(t, int64(370), h.store.Progress().XP)

	tamper(t, h.kv, domain.SnapshotKeyAchievements, func(rec map[string]any) {
		for _, a := range rec["achievements"].([]any) {
			a.(map[string]any)["rarity"] = "mythic"
		}
	})

	s := h.reopen(10)
	assert.Equal(t, 6, engagement.UnlockedCount(s.Achievements()))
	assert.Empty(t, s.CheckAchievements(), "no unlock is granted twice")
	assert.Equal(t, int64(370), s.Progress().XP)

	catalog := map[string]domain.Rarity{}
	for _, a := range engagement.AllAchievements() {
		catalog[a.ID] = a.Rarity
	}
	for _, a := range s.Achievements() {
		assert.Equal(t, catalog[a.ID], a.Rarity, a.ID)
	}
}

func TestStore_BadDateFieldKeepsProgress(t *testing.T) {
	h := newHarness(t, 0)
	h.store.AddXP(900)
	h.rng.vals = []int{2} // tip, no XP
	_, ok := h.store.ClaimDailyGift()
	require.True(t, ok)

	tamper(t, h.kv, domain.SnapshotKeyProgression, func(rec map[string]any) {
		rec["lastGiftDate"] = "10/01/2025"
	})

	s := h.reopen(0)
	assert.Equal(t, int64(900), s.Progress().XP)
	assert.Equal(t, int64(1), s.Stats().GiftsClaimed)
	assert.True(t, s.GiftAvailable(), "unreadable date dropped")

	stored := loadProgression(t, h.kv)
	assert.Equal(t, int64(900), stored.XP)
	assert.Nil(t, stored.LastGiftDate, "record rewritten without the bad field")
}

type brokenStore struct{}

func (brokenStore) Load(string) ([]byte, error) { return nil, errors.New("disk on fire") }
func (brokenStore) Save(string, []byte) error   { return errors.New("disk on fire") }

func TestStore_UnreadableStoreKeepsRunning(t *testing.T) {
	s := engagement.NewStore(engagement.Options{Store: brokenStore{}, Location: time.UTC})

	granted, ok := s.CompleteTask("water")
	assert.True(t, ok)
	assert.Equal(t, int64(10), granted)
	assert.Equal(t, int64(10), s.Progress().XP)
	assert.False(t, s.Flush())
}

func TestStore_SaveFailureRetriedOnNextMutation(t *testing.T) {
	h := newHarness(t, 0)
	h.kv.FailSaves(memstore.ErrInjected)

	h.store.AddXP(50)
	assert.Equal(t, int64(50), h.store.Progress().XP, "memory stays authoritative")
	assert.Zero(t, loadProgression(t, h.kv).XP)
	assert.False(t, h.store.Flush())

	h.kv.FailSaves(nil)
	h.store.CompleteTask("water")
	assert.Equal(t, int64(60), loadProgression(t, h.kv).XP)
	assert.True(t, h.store.Flush())
}

func TestStore_ConcurrentMutations(t *testing.T) {
	h := newHarness(t, 0)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h.store.AddXP(5)
			h.store.CompleteTask("learn")
			_ = h.store.DailyTasks()
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(20*5+10), h.store.Progress().XP)
	assert.Equal(t, int64(110), loadProgression(t, h.kv).XP)
}
