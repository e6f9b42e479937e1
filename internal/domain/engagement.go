// Package domain holds the progression engine's value types.
// The engine turns quit-smoking time and activity into XP, levels, streaks,
// tasks, achievements and health milestones.
package domain

import (
	"fmt"
	"strings"
	"time"
)

// ─── Profile ────────────────────────────────────────────────────────────────

// DefaultCigarettesPerPack is used when a profile leaves the pack size unset.
const DefaultCigarettesPerPack = 20

// UserProfile is the user's smoking history. It changes only through explicit
// profile edits.
type UserProfile struct {
	QuitAt            time.Time `json:"quitAt"`
	CigarettesPerDay  int       `json:"cigarettesPerDay"`
	PricePerPack      float64   `json:"pricePerPack"`
	CigarettesPerPack int       `json:"cigarettesPerPack"`
}

// Normalized fills defaulted fields.
func (p UserProfile) Normalized() UserProfile {
	if p.CigarettesPerPack <= 0 {
		p.CigarettesPerPack = DefaultCigarettesPerPack
	}
	return p
}

// Validate rejects profiles the stats calculator cannot work with.
func (p UserProfile) Validate() error {
	switch {
	case p.CigarettesPerDay < 0:
		return fmt.Errorf("%w: cigarettes per day %d", ErrInvalidProfile, p.CigarettesPerDay)
	case p.PricePerPack < 0:
		return fmt.Errorf("%w: price per pack %.2f", ErrInvalidProfile, p.PricePerPack)
	case p.CigarettesPerPack < 0:
		return fmt.Errorf("%w: cigarettes per pack %d", ErrInvalidProfile, p.CigarettesPerPack)
	}
	return nil
}

// ─── Level / XP Types ───────────────────────────────────────────────────────

// XPSource categorizes how XP was earned.
type XPSource string

const (
	XPDailyTask   XPSource = "daily_task"
	XPLimitedTask XPSource = "limited_task"
	XPAchievement XPSource = "achievement"
	XPGift        XPSource = "gift"
	XPManual      XPSource = "manual"
)

// Tier is the qualitative name and badge color for a band of levels.
type Tier struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

// UserLevel is the read model for XP progress.
type UserLevel struct {
	Level         int     `json:"level"`
	XP            int64   `json:"xp"`
	ProgressPct   float64 `json:"progressPct"`
	NextThreshold int64   `json:"nextThreshold"`
	XPToNext      int64   `json:"xpToNext"`
	MaxLevel      bool    `json:"maxLevel"`
	Tier          Tier    `json:"tier"`
}

// LevelChange reports the effect of an XP grant.
type LevelChange struct {
	Applied   bool  `json:"applied"`
	XP        int64 `json:"xp"`
	OldLevel  int   `json:"oldLevel"`
	NewLevel  int   `json:"newLevel"`
	LeveledUp bool  `json:"leveledUp"`
}

// ─── Streak Types ───────────────────────────────────────────────────────────

// Streak tracks consecutive calendar days with recorded activity.
type Streak struct {
	Current        int   `json:"current"`
	Longest        int   `json:"longest"`
	LastActiveDate *Date `json:"lastActiveDate"`
}

// StreakTransition names what a daily touch did to the streak.
type StreakTransition string

const (
	StreakNoop     StreakTransition = "noop"
	StreakFirst    StreakTransition = "first"
	StreakContinue StreakTransition = "continue"
	StreakReset    StreakTransition = "reset"
)

// ─── Task Types ─────────────────────────────────────────────────────────────

// TaskCategory groups daily tasks by theme.
type TaskCategory string

const (
	TaskHealth    TaskCategory = "health"
	TaskMental    TaskCategory = "mental"
	TaskSocial    TaskCategory = "social"
	TaskEducation TaskCategory = "education"
)

// DailyTask is one entry of the pool regenerated every calendar day.
type DailyTask struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	XPReward    int64        `json:"xpReward"`
	Category    TaskCategory `json:"category"`
	Completed   bool         `json:"completed"`
	CompletedAt *time.Time   `json:"completedAt,omitempty"`
}

// LimitedTaskTemplate is one of the bonus task blueprints.
type LimitedTaskTemplate struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	BaseXP      int64  `json:"baseXp"`
	BonusXP     int64  `json:"bonusXp"`
}

// LimitedTask is the single time-boxed bonus task.
type LimitedTask struct {
	ID          string     `json:"id"`
	TemplateID  string     `json:"templateId"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	BaseXP      int64      `json:"baseXp"`
	BonusXP     int64      `json:"bonusXp"`
	CreatedAt   time.Time  `json:"createdAt"`
	ExpiresAt   time.Time  `json:"expiresAt"`
	Completed   bool       `json:"completed"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

// IsExpired reports whether the deadline has passed at now.
func (t LimitedTask) IsExpired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}

// Reward is the total XP granted on completion.
func (t LimitedTask) Reward() int64 {
	return t.BaseXP + t.BonusXP
}

// Remaining returns the time left before expiry, never negative.
func (t LimitedTask) Remaining(now time.Time) time.Duration {
	if t.IsExpired(now) {
		return 0
	}
	return t.ExpiresAt.Sub(now)
}

// ─── Achievement Types ──────────────────────────────────────────────────────

// AchievementCategory groups achievements by theme.
type AchievementCategory string

const (
	CatTime     AchievementCategory = "time"
	CatHealth   AchievementCategory = "health"
	CatMoney    AchievementCategory = "money"
	CatProgress AchievementCategory = "progress"
	CatTasks    AchievementCategory = "tasks"
	CatStreak   AchievementCategory = "streak"
)

// Rarity is ordered: common < uncommon < rare < epic < legendary.
type Rarity int

const (
	RarityCommon Rarity = iota
	RarityUncommon
	RarityRare
	RarityEpic
	RarityLegendary
)

var rarityNames = []string{"common", "uncommon", "rare", "epic", "legendary"}

func (r Rarity) String() string {
	if r < 0 || int(r) >= len(rarityNames) {
		return "unknown"
	}
	return rarityNames[r]
}

// MarshalText encodes the rarity by name.
func (r Rarity) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// UnmarshalText decodes a rarity name.
func (r *Rarity) UnmarshalText(b []byte) error {
	name := strings.ToLower(string(b))
	for i, n := range rarityNames {
		if n == name {
			*r = Rarity(i)
			return nil
		}
	}
	return fmt.Errorf("%w: rarity %q", ErrCorruptSnapshot, b)
}

// RequirementType selects the statistic an achievement is keyed on.
type RequirementType string

const (
	ReqDays                  RequirementType = "days"
	ReqXP                    RequirementType = "xp"
	ReqLevel                 RequirementType = "level"
	ReqTasksCompleted        RequirementType = "tasks_completed"
	ReqCigarettesAvoided     RequirementType = "cigarettes_avoided"
	ReqMoneySaved            RequirementType = "money_saved"
	ReqStreak                RequirementType = "streak"
	ReqLimitedTasksCompleted RequirementType = "limited_tasks_completed"
	ReqGiftsClaimed          RequirementType = "gifts_claimed"
)

// Requirement is the unlock threshold: Metric(Type) >= Value.
type Requirement struct {
	Type  RequirementType `json:"type"`
	Value int64           `json:"value"`
}

// Achievement is a one-time unlockable reward.
type Achievement struct {
	ID          string              `json:"id"`
	Title       string              `json:"title"`
	Description string              `json:"description"`
	Category    AchievementCategory `json:"category"`
	Icon        string              `json:"icon"`
	Requirement Requirement         `json:"requirement"`
	Points      int64               `json:"points"`
	Rarity      Rarity              `json:"rarity"`
	Unlocked    bool                `json:"unlocked"`
	UnlockedAt  *time.Time          `json:"unlockedAt,omitempty"`
	Progress    int64               `json:"progress"`
}

// ProgressPct returns completion percentage (0-100).
func (a Achievement) ProgressPct() float64 {
	if a.Unlocked || a.Requirement.Value <= 0 {
		return 100.0
	}
	pct := float64(a.Progress) / float64(a.Requirement.Value) * 100.0
	if pct > 100.0 {
		pct = 100.0
	}
	if pct < 0 {
		pct = 0
	}
	return pct
}

// UserStats is a snapshot of cumulative statistics fed to achievement rules.
type UserStats struct {
	DaysSinceQuit         int64 `json:"daysSinceQuit"`
	XP                    int64 `json:"xp"`
	Level                 int64 `json:"level"`
	TasksCompleted        int64 `json:"tasksCompleted"`
	CigarettesAvoided     int64 `json:"cigarettesAvoided"`
	MoneySaved            int64 `json:"moneySaved"`
	Streak                int64 `json:"streak"`
	LongestStreak         int64 `json:"longestStreak"`
	LimitedTasksCompleted int64 `json:"limitedTasksCompleted"`
	GiftsClaimed          int64 `json:"giftsClaimed"`
}

// Metric returns the statistic a requirement type is keyed on.
// ok is false for unknown types.
func (s UserStats) Metric(t RequirementType) (value int64, ok bool) {
	switch t {
	case ReqDays:
		return s.DaysSinceQuit, true
	case ReqXP:
		return s.XP, true
	case ReqLevel:
		return s.Level, true
	case ReqTasksCompleted:
		return s.TasksCompleted, true
	case ReqCigarettesAvoided:
		return s.CigarettesAvoided, true
	case ReqMoneySaved:
		return s.MoneySaved, true
	case ReqStreak:
		return s.Streak, true
	case ReqLimitedTasksCompleted:
		return s.LimitedTasksCompleted, true
	case ReqGiftsClaimed:
		return s.GiftsClaimed, true
	}
	return 0, false
}

// ─── Milestone Types ────────────────────────────────────────────────────────

// Milestone is a health-recovery checkpoint keyed on days since quitting.
type Milestone struct {
	ID           string     `json:"id"`
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	DaysRequired int        `json:"daysRequired"`
	Reached      bool       `json:"reached"`
	ReachedAt    *time.Time `json:"reachedAt,omitempty"`
}

// ─── Gift Types ─────────────────────────────────────────────────────────────

// GiftType categorizes the daily gift.
type GiftType string

const (
	GiftXP    GiftType = "xp"
	GiftTip   GiftType = "tip"
	GiftBadge GiftType = "badge"
)

// Gift is produced by a daily claim. Only XP gifts carry a value.
type Gift struct {
	Type        GiftType `json:"type"`
	Description string   `json:"description"`
	XP          *int64   `json:"xp,omitempty"`
}

// ─── Derived Statistics ─────────────────────────────────────────────────────

// LifeRegained splits regained minutes for display.
type LifeRegained struct {
	Days    int64 `json:"days"`
	Hours   int64 `json:"hours"`
	Minutes int64 `json:"minutes"`
}

// DerivedStats are the health and money numbers computed from a profile.
type DerivedStats struct {
	DaysSinceQuit       int64        `json:"daysSinceQuit"`
	CigarettesAvoided   int64        `json:"cigarettesAvoided"`
	MoneySaved          int64        `json:"moneySaved"`
	LifeRegainedMinutes int64        `json:"lifeRegainedMinutes"`
	LifeRegained        LifeRegained `json:"lifeRegained"`
}
