package engagement

import (
	"time"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/exhale-app/exhale/internal/domain"
	"github.com/exhale-app/exhale/internal/infra/metrics"
)

// loadLocked reads both records from the snapshot store and repairs them.
// Any failure falls back to defaults; the engine keeps running in memory.
func (s *Store) loadLocked() {
	now := s.clock.Now()
	today := domain.DateOf(now, s.loc)

	s.p = s.defaultProgression(now)
	s.achievements = AllAchievements()
	s.milestones = AllMilestones()

	if raw, ok := s.readKey(domain.SnapshotKeyProgression); ok {
		p, skipped, err := decodeProgression(raw)
		if err != nil {
			s.log.Warn("progression snapshot unreadable, starting fresh", zap.Error(err))
			metrics.SnapshotLoadFailures.WithLabelValues(domain.SnapshotKeyProgression).Inc()
			s.quarantineLocked(domain.SnapshotKeyProgression, raw)
		} else {
			s.noteSkipped(domain.SnapshotKeyProgression, skipped)
			s.p = s.repairProgression(p)
		}
	} else {
		s.markDirty(domain.SnapshotKeyProgression)
	}

	if raw, ok := s.readKey(domain.SnapshotKeyAchievements); ok {
		a, skipped, err := decodeAchievements(raw)
		if err != nil {
			s.log.Warn("achievements snapshot unreadable, starting fresh", zap.Error(err))
			metrics.SnapshotLoadFailures.WithLabelValues(domain.SnapshotKeyAchievements).Inc()
			s.quarantineLocked(domain.SnapshotKeyAchievements, raw)
		} else {
			s.noteSkipped(domain.SnapshotKeyAchievements, skipped)
			s.achievements = MergeAchievements(a.Achievements, AllAchievements())
			s.milestones = MergeMilestones(a.Milestones, AllMilestones())
		}
	} else {
		s.markDirty(domain.SnapshotKeyAchievements)
	}

	if s.ensureDailyLocked(today) {
		s.markDirty(domain.SnapshotKeyProgression)
	}

	metrics.Level.Set(float64(s.p.Level))
	metrics.StreakDays.Set(float64(s.p.Streak))
}

// noteSkipped records fields dropped while decoding key. The record is
// rewritten without them.
func (s *Store) noteSkipped(key string, skipped []string) {
	if len(skipped) == 0 {
		return
	}
	s.log.Warn("snapshot fields unreadable, repaired",
		zap.String("key", key), zap.Strings("fields", skipped))
	metrics.SnapshotRepairs.WithLabelValues("undecodable_field").Add(float64(len(skipped)))
	s.markDirty(key)
}

// quarantineLocked copies an undecodable record to key+SnapshotCorruptSuffix
// before defaults replace it. If the copy cannot be written the key is held:
// it stays dirty and is never overwritten by this Store.
func (s *Store) quarantineLocked(key string, raw []byte) {
	backup := key + domain.SnapshotCorruptSuffix
	if err := s.kv.Save(backup, raw); err != nil {
		s.log.Error("cannot back up unreadable snapshot, leaving it in place",
			zap.String("key", key), zap.Error(err))
		s.held[key] = true
		return
	}
	s.log.Warn("unreadable snapshot backed up", zap.String("key", key), zap.String("backup", backup))
	s.markDirty(key)
}

// readKey loads raw bytes for key. ok is false when nothing usable exists.
func (s *Store) readKey(key string) ([]byte, bool) {
	if s.kv == nil {
		return nil, false
	}
	raw, err := s.kv.Load(key)
	if err != nil {
		s.log.Warn("snapshot load failed, using defaults", zap.String("key", key), zap.Error(err))
		metrics.SnapshotLoadFailures.WithLabelValues(key).Inc()
		return nil, false
	}
	if len(raw) == 0 {
		return nil, false
	}
	return raw, true
}

// defaultProgression is the state of a first run.
func (s *Store) defaultProgression(now time.Time) domain.ProgressionSnapshot {
	profile := s.defaultProfile.Normalized()
	if profile.QuitAt.IsZero() {
		profile.QuitAt = now
	}
	return domain.ProgressionSnapshot{Profile: profile, Level: 1}
}

// repairProgression restores invariants on a loaded record.
func (s *Store) repairProgression(p domain.ProgressionSnapshot) domain.ProgressionSnapshot {
	repaired := func(reason string) {
		metrics.SnapshotRepairs.WithLabelValues(reason).Inc()
		s.log.Info("repaired progression snapshot", zap.String("reason", reason))
		s.markDirty(domain.SnapshotKeyProgression)
	}

	if p.XP < 0 {
		p.XP = 0
		repaired("negative_xp")
	}
	if level := LevelForXP(p.XP); p.Level != level {
		p.Level = level
		repaired("level_desync")
	}

	streak := RepairStreak(domain.Streak{Current: p.Streak, Longest: p.LongestStreak})
	if streak.Current != p.Streak || streak.Longest != p.LongestStreak {
		p.Streak, p.LongestStreak = streak.Current, streak.Longest
		repaired("streak_invariant")
	}

	if p.Profile.Validate() != nil {
		p.Profile = s.defaultProfile
		repaired("invalid_profile")
	}
	p.Profile = p.Profile.Normalized()
	if p.Profile.QuitAt.IsZero() {
		p.Profile.QuitAt = s.clock.Now()
		repaired("missing_quit_date")
	}

	for _, d := range []**domain.Date{&p.LastActiveDate, &p.DailyTasksDate, &p.LastGiftDate} {
		if *d != nil && (*d).IsZero() {
			*d = nil
			repaired("zero_date")
		}
	}

	if p.LimitedTask != nil && p.LimitedTask.ExpiresAt.IsZero() {
		p.LimitedTask = nil
		repaired("limited_task_without_expiry")
	}
	return p
}

// markDirty records that key must be written on the next persist.
func (s *Store) markDirty(key string) {
	s.dirty[key] = true
}

// persistLocked writes every dirty record. A failed write stays dirty and
// is retried on the next mutation; in-memory state stays authoritative.
func (s *Store) persistLocked() {
	if s.kv == nil {
		clear(s.dirty)
		return
	}
	for _, key := range []string{domain.SnapshotKeyProgression, domain.SnapshotKeyAchievements} {
		if !s.dirty[key] || s.held[key] {
			continue
		}
		data, err := s.encode(key)
		if err != nil {
			s.log.Error("snapshot encode failed", zap.String("key", key), zap.Error(err))
			continue
		}
		if err := s.kv.Save(key, data); err != nil {
			s.log.Warn("snapshot save failed, will retry on next change",
				zap.String("key", key), zap.Error(err))
			metrics.SnapshotSaveFailures.WithLabelValues(key).Inc()
			continue
		}
		delete(s.dirty, key)
	}
}

func (s *Store) encode(key string) ([]byte, error) {
	switch key {
	case domain.SnapshotKeyProgression:
		p := s.p
		p.Level = LevelForXP(p.XP)
		p.AvailableGift = GiftAvailable(p.LastGiftDate, s.today())
		return json.Marshal(p)
	default:
		return json.Marshal(domain.AchievementsSnapshot{
			Achievements:  s.achievements,
			Milestones:    s.milestones,
			UnlockedCount: UnlockedCount(s.achievements),
		})
	}
}
