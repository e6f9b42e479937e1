package engagement

import (
	"time"

	"github.com/exhale-app/exhale/internal/domain"
)

// dailyPool is the fixed set of tasks materialized every calendar day.
// Ids are stable across days so completion state can be matched.
var dailyPool = []domain.DailyTask{
	{ID: "water", Title: "Drink a glass of water", Description: "Water helps flush nicotine out faster.", XPReward: 10, Category: domain.TaskHealth},
	{ID: "walk", Title: "Take a 10-minute walk", Description: "Light exercise softens cravings.", XPReward: 20, Category: domain.TaskHealth},
	{ID: "breathing", Title: "Breathing exercise", Description: "Five minutes of slow 4-7-8 breathing.", XPReward: 15, Category: domain.TaskMental},
	{ID: "journal", Title: "Write down a trigger", Description: "Note one situation that made you want to smoke.", XPReward: 15, Category: domain.TaskMental},
	{ID: "share", Title: "Share your progress", Description: "Tell a friend how many days you have been smoke-free.", XPReward: 25, Category: domain.TaskSocial},
	{ID: "learn", Title: "Read about recovery", Description: "Learn one thing your body is repairing right now.", XPReward: 10, Category: domain.TaskEducation},
}

// DailyPool returns a fresh copy of the daily template pool, all uncompleted.
func DailyPool() []domain.DailyTask {
	tasks := make([]domain.DailyTask, len(dailyPool))
	copy(tasks, dailyPool)
	return tasks
}

// DailyTasksCurrent reports whether tasks generated on generatedFor can be
// reused today: same date and the same ids as the code's pool.
func DailyTasksCurrent(tasks []domain.DailyTask, generatedFor *domain.Date, today domain.Date) bool {
	if generatedFor == nil || !generatedFor.Equal(today) {
		return false
	}
	return matchesPool(tasks)
}

// matchesPool reports whether tasks carry exactly the pool's ids in order.
func matchesPool(tasks []domain.DailyTask) bool {
	if len(tasks) != len(dailyPool) {
		return false
	}
	for i := range tasks {
		if tasks[i].ID != dailyPool[i].ID {
			return false
		}
	}
	return true
}

// CompleteDaily marks the task with id completed at now.
// Returns the updated slice and the XP to grant; ok is false (and tasks
// untouched) when the id is unknown or the task is already completed.
func CompleteDaily(tasks []domain.DailyTask, id string, now time.Time) (updated []domain.DailyTask, reward int64, ok bool) {
	for i := range tasks {
		if tasks[i].ID != id {
			continue
		}
		if tasks[i].Completed {
			return tasks, 0, false
		}
		updated = make([]domain.DailyTask, len(tasks))
		copy(updated, tasks)
		at := now
		updated[i].Completed = true
		updated[i].CompletedAt = &at
		return updated, updated[i].XPReward, true
	}
	return tasks, 0, false
}

// CountCompleted returns how many tasks are completed.
func CountCompleted(tasks []domain.DailyTask) int {
	n := 0
	for _, t := range tasks {
		if t.Completed {
			n++
		}
	}
	return n
}
