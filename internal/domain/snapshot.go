package domain

// Keys under which the engine persists its two records.
const (
	SnapshotKeyProgression  = "progression"
	SnapshotKeyAchievements = "achievements"

	// SnapshotCorruptSuffix names the copy of a record that could not be
	// decoded at all, e.g. "progression.corrupt".
	SnapshotCorruptSuffix = ".corrupt"
)

// ProgressionSnapshot is the persisted form of the progression aggregate.
// Level is written for readers of the raw record but is recomputed from XP
// on load.
type ProgressionSnapshot struct {
	Profile                UserProfile  `json:"profile"`
	XP                     int64        `json:"xp"`
	Level                  int          `json:"level"`
	Streak                 int          `json:"streak"`
	LongestStreak          int          `json:"longestStreak"`
	LastActiveDate         *Date        `json:"lastActiveDate"`
	DailyTasks             []DailyTask  `json:"dailyTasks"`
	DailyTasksDate         *Date        `json:"dailyTasksDate"`
	CompletedTasksToday    int          `json:"completedTasksToday"`
	TotalTasksCompleted    int64        `json:"totalTasksCompleted"`
	LimitedTask            *LimitedTask `json:"limitedTask,omitempty"`
	LimitedTasksCompleted  int64        `json:"limitedTasksCompleted"`
	GiftsClaimed           int64        `json:"giftsClaimed"`
	TotalCigarettesAvoided int64        `json:"totalCigarettesAvoided"`
	TotalMoneySaved        int64        `json:"totalMoneySaved"`
	TotalMinutesGained     int64        `json:"totalMinutesGained"`
	LastGiftDate           *Date        `json:"lastGiftDate"`
	AvailableGift          bool         `json:"availableGift"`
}

// AchievementsSnapshot is the persisted achievement and milestone record.
type AchievementsSnapshot struct {
	Achievements  []Achievement `json:"achievements"`
	Milestones    []Milestone   `json:"milestones"`
	UnlockedCount int           `json:"unlockedCount"`
}
