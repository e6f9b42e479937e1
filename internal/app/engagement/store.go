package engagement

import (
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/exhale-app/exhale/internal/domain"
	"github.com/exhale-app/exhale/internal/infra/metrics"
)

// Options configures a Store. Zero fields take defaults: real clock,
// time-seeded random source, local timezone, no-op logger. A nil Store
// keeps state in memory only.
type Options struct {
	Store    domain.SnapshotStore
	Clock    domain.Clock
	Random   domain.Random
	Location *time.Location
	Logger   *zap.Logger

	// DefaultProfile seeds a first run. A zero QuitAt means "now".
	DefaultProfile domain.UserProfile
}

// Store is the progression aggregate. It owns XP, streak, tasks, gifts,
// achievements and milestones, and persists both snapshot records after
// every mutation. Safe for concurrent use.
//
// No method returns an error: persistence failures are logged and retried
// on the next mutation while the in-memory state stays authoritative.
type Store struct {
	mu sync.Mutex

	kv             domain.SnapshotStore
	clock          domain.Clock
	rng            domain.Random
	loc            *time.Location
	log            *zap.Logger
	defaultProfile domain.UserProfile

	p            domain.ProgressionSnapshot
	achievements []domain.Achievement
	milestones   []domain.Milestone
	dirty        map[string]bool
	held         map[string]bool
}

// NewStore builds a Store and loads its state from opts.Store.
func NewStore(opts Options) *Store {
	s := &Store{
		kv:             opts.Store,
		clock:          opts.Clock,
		rng:            opts.Random,
		loc:            opts.Location,
		log:            opts.Logger,
		defaultProfile: opts.DefaultProfile,
		dirty:          make(map[string]bool),
		held:           make(map[string]bool),
	}
	if s.clock == nil {
		s.clock = clockwork.NewRealClock()
	}
	if s.rng == nil {
		s.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if s.loc == nil {
		s.loc = time.Local
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	s.log = s.log.Named("engagement")

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loadLocked()
	s.persistLocked()
	return s
}

// Now returns the store's clock reading.
func (s *Store) Now() time.Time {
	return s.clock.Now()
}

func (s *Store) today() domain.Date {
	return domain.DateOf(s.clock.Now(), s.loc)
}

// ─── XP ─────────────────────────────────────────────────────────────────────

// AddXP grants amount XP as a manual adjustment. Non-positive amounts are
// ignored and reported with Applied=false.
func (s *Store) AddXP(amount int64) domain.LevelChange {
	s.mu.Lock()
	defer s.mu.Unlock()
	change := s.addXPLocked(amount, domain.XPManual)
	if change.Applied {
		s.persistLocked()
	}
	return change
}

func (s *Store) addXPLocked(amount int64, source domain.XPSource) domain.LevelChange {
	old := LevelForXP(s.p.XP)
	if amount <= 0 || s.p.XP == math.MaxInt64 {
		return domain.LevelChange{XP: s.p.XP, OldLevel: old, NewLevel: old}
	}

	// Saturate instead of wrapping.
	if amount > math.MaxInt64-s.p.XP {
		amount = math.MaxInt64 - s.p.XP
	}
	s.p.XP += amount
	s.p.Level = LevelForXP(s.p.XP)
	s.markDirty(domain.SnapshotKeyProgression)

	metrics.XPGranted.WithLabelValues(string(source)).Add(float64(amount))
	metrics.Level.Set(float64(s.p.Level))

	change := domain.LevelChange{
		Applied:   true,
		XP:        s.p.XP,
		OldLevel:  old,
		NewLevel:  s.p.Level,
		LeveledUp: s.p.Level > old,
	}
	if change.LeveledUp {
		metrics.LevelUps.Inc()
		s.log.Info("level up",
			zap.Int("from", old),
			zap.Int("to", s.p.Level),
			zap.String("tier", TierFor(s.p.Level).Name))
	}
	return change
}

// Progress returns the current level view.
func (s *Store) Progress() domain.UserLevel {
	s.mu.Lock()
	defer s.mu.Unlock()
	return LevelView(s.p.XP)
}

// ─── Streak ─────────────────────────────────────────────────────────────────

// TouchDailyActivity records activity for today. The first touch of a day
// extends or resets the streak; later touches the same day change nothing.
func (s *Store) TouchDailyActivity() (domain.Streak, domain.StreakTransition) {
	s.mu.Lock()
	defer s.mu.Unlock()

	today := s.today()
	rolled := s.ensureDailyLocked(today)

	next, transition := TouchStreak(s.streakLocked(), today)
	if transition != domain.StreakNoop {
		s.p.Streak = next.Current
		s.p.LongestStreak = next.Longest
		s.p.LastActiveDate = next.LastActiveDate
		s.markDirty(domain.SnapshotKeyProgression)

		metrics.StreakTransitions.WithLabelValues(string(transition)).Inc()
		metrics.StreakDays.Set(float64(next.Current))
		s.log.Debug("streak touched",
			zap.String("transition", string(transition)),
			zap.Int("streak", next.Current))
	}
	if rolled || transition != domain.StreakNoop {
		s.persistLocked()
	}
	return next, transition
}

// StreakInfo returns the current streak.
func (s *Store) StreakInfo() domain.Streak {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.streakLocked()
}

func (s *Store) streakLocked() domain.Streak {
	st := domain.Streak{Current: s.p.Streak, Longest: s.p.LongestStreak}
	if s.p.LastActiveDate != nil {
		d := *s.p.LastActiveDate
		st.LastActiveDate = &d
	}
	return st
}

// ─── Daily Tasks ────────────────────────────────────────────────────────────

// ensureDailyLocked regenerates the daily list when it was built for another
// day or no longer matches the pool. Reports whether it did.
func (s *Store) ensureDailyLocked(today domain.Date) bool {
	if DailyTasksCurrent(s.p.DailyTasks, s.p.DailyTasksDate, today) {
		return false
	}
	d := today
	s.p.DailyTasks = DailyPool()
	s.p.DailyTasksDate = &d
	s.p.CompletedTasksToday = 0
	s.markDirty(domain.SnapshotKeyProgression)
	metrics.DailyRollovers.Inc()
	s.log.Debug("daily tasks regenerated", zap.Stringer("date", d))
	return true
}

// DailyTasks returns today's tasks, rolling the list over first if needed.
func (s *Store) DailyTasks() []domain.DailyTask {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ensureDailyLocked(s.today()) {
		s.persistLocked()
	}
	out := make([]domain.DailyTask, len(s.p.DailyTasks))
	copy(out, s.p.DailyTasks)
	return out
}

// CompleteTask completes today's task id and grants its reward.
// ok is false for an unknown id or an already completed task.
func (s *Store) CompleteTask(id string) (granted int64, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	rolled := s.ensureDailyLocked(domain.DateOf(now, s.loc))

	updated, reward, ok := CompleteDaily(s.p.DailyTasks, id, now)
	if !ok {
		if rolled {
			s.persistLocked()
		}
		return 0, false
	}

	s.p.DailyTasks = updated
	s.p.CompletedTasksToday++
	s.p.TotalTasksCompleted++
	s.markDirty(domain.SnapshotKeyProgression)
	metrics.TasksCompleted.WithLabelValues("daily").Inc()

	s.addXPLocked(reward, domain.XPDailyTask)
	s.persistLocked()
	return reward, true
}

// ResetDailyTasks regenerates the daily list if the calendar day changed.
// Calling it again on the same day is a no-op that preserves completions.
func (s *Store) ResetDailyTasks() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.ensureDailyLocked(s.today()) {
		return false
	}
	s.persistLocked()
	return true
}

// CompletedToday returns how many daily tasks were completed today.
func (s *Store) CompletedToday() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !DailyTasksCurrent(s.p.DailyTasks, s.p.DailyTasksDate, s.today()) {
		return 0
	}
	return s.p.CompletedTasksToday
}

// ─── Limited Tasks ──────────────────────────────────────────────────────────

// GenerateLimitedTask replaces the current bonus task with a fresh one.
// The replaced task grants nothing.
func (s *Store) GenerateLimitedTask() domain.LimitedTask {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	if ActiveLimited(s.p.LimitedTask, now) {
		s.log.Info("discarding open limited task", zap.String("task", s.p.LimitedTask.ID))
	}
	task := GenerateLimited(s.rng, now)
	s.p.LimitedTask = &task
	s.markDirty(domain.SnapshotKeyProgression)
	metrics.LimitedTasksGenerated.Inc()
	s.persistLocked()
	return task
}

// CompleteLimitedTask completes the current bonus task if it is still open
// and grants base plus bonus XP. ok is false when there is no task, it
// expired, or it was already completed.
func (s *Store) CompleteLimitedTask() (granted int64, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.p.LimitedTask == nil {
		return 0, false
	}
	updated, reward, ok := CompleteLimited(*s.p.LimitedTask, s.clock.Now())
	if !ok {
		return 0, false
	}

	s.p.LimitedTask = &updated
	s.p.LimitedTasksCompleted++
	s.markDirty(domain.SnapshotKeyProgression)
	metrics.TasksCompleted.WithLabelValues("limited").Inc()

	s.addXPLocked(reward, domain.XPLimitedTask)
	s.persistLocked()
	return reward, true
}

// ActiveLimitedTask returns the bonus task if it has not expired yet.
// A completed task stays visible until its deadline.
func (s *Store) ActiveLimitedTask() (domain.LimitedTask, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !VisibleLimited(s.p.LimitedTask, s.clock.Now()) {
		return domain.LimitedTask{}, false
	}
	return *s.p.LimitedTask, true
}

// ─── Daily Gift ─────────────────────────────────────────────────────────────

// GiftAvailable reports whether today's gift is unclaimed.
func (s *Store) GiftAvailable() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return GiftAvailable(s.p.LastGiftDate, s.today())
}

// ClaimDailyGift rolls and grants today's gift. ok is false when it was
// already claimed today.
func (s *Store) ClaimDailyGift() (domain.Gift, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	today := s.today()
	if !GiftAvailable(s.p.LastGiftDate, today) {
		return domain.Gift{}, false
	}

	gift := RollGift(s.rng)
	if gift.XP != nil {
		s.addXPLocked(*gift.XP, domain.XPGift)
	}
	s.p.LastGiftDate = &today
	s.p.GiftsClaimed++
	s.markDirty(domain.SnapshotKeyProgression)
	metrics.GiftsClaimed.WithLabelValues(string(gift.Type)).Inc()

	s.persistLocked()
	return gift, true
}

// ─── Achievements & Milestones ──────────────────────────────────────────────

// CheckAchievements evaluates every locked achievement against current
// stats, unlocks the satisfied ones and grants their points as XP. Points
// granted here can satisfy XP or level achievements; those unlock on the
// next call.
func (s *Store) CheckAchievements() []domain.Achievement {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	updated, newly := EvaluateAchievements(s.achievements, s.statsLocked(now), now)
	s.achievements = updated
	s.markDirty(domain.SnapshotKeyAchievements)

	for _, a := range newly {
		metrics.AchievementsUnlocked.WithLabelValues(a.Rarity.String()).Inc()
		s.log.Info("achievement unlocked",
			zap.String("id", a.ID),
			zap.String("rarity", a.Rarity.String()),
			zap.Int64("points", a.Points))
		s.addXPLocked(a.Points, domain.XPAchievement)
	}
	s.persistLocked()
	return newly
}

// Achievements returns the catalog with unlock state and progress.
func (s *Store) Achievements() []domain.Achievement {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Achievement, len(s.achievements))
	copy(out, s.achievements)
	return out
}

// CheckMilestones marks every milestone covered by the days since quitting.
// Returns the earliest newly reached one, or nil.
func (s *Store) CheckMilestones() *domain.Milestone {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	before := countReached(s.milestones)
	updated, first := EvaluateMilestones(s.milestones, DaysSinceQuit(s.p.Profile.QuitAt, now), now)
	s.milestones = updated

	if reached := countReached(updated) - before; reached > 0 {
		metrics.MilestonesReached.Add(float64(reached))
		s.log.Info("milestones reached", zap.Int("count", reached), zap.String("first", first.ID))
		s.markDirty(domain.SnapshotKeyAchievements)
		s.persistLocked()
	}
	return first
}

// Milestones returns the health timeline in ascending order.
func (s *Store) Milestones() []domain.Milestone {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Milestone, len(s.milestones))
	copy(out, s.milestones)
	return out
}

func countReached(ms []domain.Milestone) int {
	n := 0
	for _, m := range ms {
		if m.Reached {
			n++
		}
	}
	return n
}

// ─── Stats & Profile ────────────────────────────────────────────────────────

// RefreshStats recomputes the derived totals from the profile and stores
// them in the progression record.
func (s *Store) RefreshStats() domain.DerivedStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	d := s.refreshLocked(s.clock.Now())
	s.persistLocked()
	return d
}

func (s *Store) refreshLocked(now time.Time) domain.DerivedStats {
	d := Derive(s.p.Profile, now)
	if d.CigarettesAvoided != s.p.TotalCigarettesAvoided ||
		d.MoneySaved != s.p.TotalMoneySaved ||
		d.LifeRegainedMinutes != s.p.TotalMinutesGained {
		s.p.TotalCigarettesAvoided = d.CigarettesAvoided
		s.p.TotalMoneySaved = d.MoneySaved
		s.p.TotalMinutesGained = d.LifeRegainedMinutes
		s.markDirty(domain.SnapshotKeyProgression)
	}
	return d
}

// Stats returns the cumulative statistics achievements are evaluated on.
func (s *Store) Stats() domain.UserStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.statsLocked(s.clock.Now())
}

func (s *Store) statsLocked(now time.Time) domain.UserStats {
	d := Derive(s.p.Profile, now)
	return domain.UserStats{
		DaysSinceQuit:         d.DaysSinceQuit,
		XP:                    s.p.XP,
		Level:                 int64(LevelForXP(s.p.XP)),
		TasksCompleted:        s.p.TotalTasksCompleted,
		CigarettesAvoided:     d.CigarettesAvoided,
		MoneySaved:            d.MoneySaved,
		Streak:                int64(s.p.Streak),
		LongestStreak:         int64(s.p.LongestStreak),
		LimitedTasksCompleted: s.p.LimitedTasksCompleted,
		GiftsClaimed:          s.p.GiftsClaimed,
	}
}

// Profile returns the smoking profile.
func (s *Store) Profile() domain.UserProfile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.p.Profile
}

// UpdateProfile replaces the smoking profile and refreshes derived totals.
// An invalid profile is rejected and reported with false.
func (s *Store) UpdateProfile(p domain.UserProfile) bool {
	if err := p.Validate(); err != nil {
		s.log.Warn("profile rejected", zap.Error(err))
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p = p.Normalized()
	if p.QuitAt.IsZero() {
		p.QuitAt = s.p.Profile.QuitAt
	}
	s.p.Profile = p
	s.markDirty(domain.SnapshotKeyProgression)
	s.refreshLocked(s.clock.Now())
	s.persistLocked()
	return true
}

// Flush retries any pending snapshot writes. Reports whether everything is
// persisted.
func (s *Store) Flush() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.persistLocked()
	return len(s.dirty) == 0
}
