package engagement

import (
	"time"

	"github.com/google/uuid"

	"github.com/exhale-app/exhale/internal/domain"
)

// Limited task expiry window. The horizon is drawn uniformly per minute.
const (
	LimitedMinHorizon = 2 * time.Hour
	LimitedMaxHorizon = 4 * time.Hour
)

// limitedPool is the set of bonus task templates.
var limitedPool = []domain.LimitedTaskTemplate{
	{ID: "cold-shower", Title: "Cold splash", Description: "Splash cold water on your face when the next craving hits.", BaseXP: 30, BonusXP: 20},
	{ID: "stairs", Title: "Take the stairs", Description: "Climb three flights of stairs instead of a smoke break.", BaseXP: 40, BonusXP: 25},
	{ID: "healthy-snack", Title: "Healthy snack", Description: "Swap a cigarette for fruit or nuts.", BaseXP: 25, BonusXP: 15},
	{ID: "call-friend", Title: "Call a friend", Description: "Talk to someone who supports your quit for five minutes.", BaseXP: 35, BonusXP: 25},
	{ID: "meditate", Title: "Ten-minute meditation", Description: "Sit quietly and follow a guided meditation.", BaseXP: 45, BonusXP: 30},
	{ID: "clean-space", Title: "Clear the ashtrays", Description: "Remove every lighter and ashtray from one room.", BaseXP: 50, BonusXP: 35},
}

// LimitedTemplates returns a copy of the bonus task templates.
func LimitedTemplates() []domain.LimitedTaskTemplate {
	out := make([]domain.LimitedTaskTemplate, len(limitedPool))
	copy(out, limitedPool)
	return out
}

// GenerateLimited picks a template uniformly and sets the expiry between
// LimitedMinHorizon and LimitedMaxHorizon from now, inclusive.
func GenerateLimited(rng domain.Random, now time.Time) domain.LimitedTask {
	tmpl := limitedPool[rng.Intn(len(limitedPool))]
	spanMinutes := int((LimitedMaxHorizon - LimitedMinHorizon) / time.Minute)
	horizon := LimitedMinHorizon + time.Duration(rng.Intn(spanMinutes+1))*time.Minute

	return domain.LimitedTask{
		ID:          tmpl.ID + "-" + uuid.NewString(),
		TemplateID:  tmpl.ID,
		Title:       tmpl.Title,
		Description: tmpl.Description,
		BaseXP:      tmpl.BaseXP,
		BonusXP:     tmpl.BonusXP,
		CreatedAt:   now,
		ExpiresAt:   now.Add(horizon),
	}
}

// CompleteLimited completes task if it is still open at now.
// ok is false for a completed or expired task; no reward is due then.
func CompleteLimited(task domain.LimitedTask, now time.Time) (updated domain.LimitedTask, reward int64, ok bool) {
	if task.Completed || task.IsExpired(now) {
		return task, 0, false
	}
	at := now
	task.Completed = true
	task.CompletedAt = &at
	return task, task.Reward(), true
}

// ActiveLimited reports whether task can still be completed at now.
func ActiveLimited(task *domain.LimitedTask, now time.Time) bool {
	return task != nil && !task.Completed && !task.IsExpired(now)
}

// VisibleLimited reports whether task belongs in listings at now. A task
// that reached its deadline is hidden whether or not it was completed.
func VisibleLimited(task *domain.LimitedTask, now time.Time) bool {
	return task != nil && !task.IsExpired(now)
}
