// Package metrics provides Prometheus metrics for Exhale.
// Counters and gauges for the progression engine: XP, levels, streaks,
// task completions, unlocks and snapshot persistence.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ─── Progression ────────────────────────────────────────────────────────────

// XPGranted tracks XP granted by source.
var XPGranted = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "exhale",
	Name:      "xp_granted_total",
	Help:      "Total XP granted.",
}, []string{"source"})

// LevelUps tracks level-up events.
var LevelUps = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "exhale",
	Name:      "level_ups_total",
	Help:      "Total level-up events.",
})

// Level tracks the current level.
var Level = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "exhale",
	Name:      "level_current",
	Help:      "Current level.",
})

// StreakDays tracks the current streak length.
var StreakDays = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "exhale",
	Name:      "streak_days",
	Help:      "Current streak in days.",
})

// StreakTransitions tracks daily touches by outcome (first, continue, reset).
var StreakTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "exhale",
	Name:      "streak_transitions_total",
	Help:      "Streak transitions by outcome.",
}, []string{"transition"})

// ─── Tasks ──────────────────────────────────────────────────────────────────

// TasksCompleted tracks completed tasks by kind (daily, limited).
var TasksCompleted = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "exhale",
	Name:      "tasks_completed_total",
	Help:      "Total completed tasks.",
}, []string{"kind"})

// LimitedTasksGenerated tracks bonus tasks generated.
var LimitedTasksGenerated = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "exhale",
	Name:      "limited_tasks_generated_total",
	Help:      "Total limited tasks generated.",
})

// DailyRollovers tracks daily task pool regenerations.
var DailyRollovers = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "exhale",
	Name:      "daily_rollovers_total",
	Help:      "Daily task pool regenerations.",
})

// GiftsClaimed tracks daily gifts by type.
var GiftsClaimed = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "exhale",
	Name:      "gifts_claimed_total",
	Help:      "Daily gifts claimed by type.",
}, []string{"type"})

// ─── Unlocks ────────────────────────────────────────────────────────────────

// AchievementsUnlocked tracks unlocks by rarity.
var AchievementsUnlocked = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "exhale",
	Name:      "achievements_unlocked_total",
	Help:      "Achievements unlocked by rarity.",
}, []string{"rarity"})

// MilestonesReached tracks health milestones reached.
var MilestonesReached = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "exhale",
	Name:      "milestones_reached_total",
	Help:      "Health milestones reached.",
})

// ─── Persistence ────────────────────────────────────────────────────────────

// SnapshotSaveFailures tracks failed snapshot writes per key.
var SnapshotSaveFailures = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "exhale",
	Name:      "snapshot_save_failures_total",
	Help:      "Failed snapshot writes per key.",
}, []string{"key"})

// SnapshotLoadFailures tracks unreadable snapshots per key.
var SnapshotLoadFailures = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "exhale",
	Name:      "snapshot_load_failures_total",
	Help:      "Snapshots that failed to load or decode, per key.",
}, []string{"key"})

// SnapshotRepairs tracks invariant repairs applied on load.
var SnapshotRepairs = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "exhale",
	Name:      "snapshot_repairs_total",
	Help:      "Invariant repairs applied to loaded snapshots.",
}, []string{"reason"})
