package engagement

import (
	"sort"
	"time"

	"github.com/exhale-app/exhale/internal/domain"
)

// AllMilestones returns the health recovery timeline in ascending order.
func AllMilestones() []domain.Milestone {
	return []domain.Milestone{
		{ID: "co_normal", Title: "Carbon monoxide normalized", Description: "Blood carbon monoxide drops to normal and oxygen levels rise.", DaysRequired: 1},
		{ID: "taste_smell", Title: "Taste and smell return", Description: "Damaged nerve endings start to regrow.", DaysRequired: 2},
		{ID: "breathing", Title: "Breathing gets easier", Description: "Bronchial tubes relax and energy levels rise.", DaysRequired: 3},
		{ID: "circulation", Title: "Circulation improves", Description: "Walking and exercise become easier.", DaysRequired: 14},
		{ID: "lung_function", Title: "Lung function up", Description: "Coughing and shortness of breath decrease.", DaysRequired: 30},
		{ID: "cilia", Title: "Lungs clean themselves", Description: "Cilia regrow and clear mucus more effectively.", DaysRequired: 90},
		{ID: "infections", Title: "Fewer infections", Description: "Lung infections become less frequent.", DaysRequired: 180},
		{ID: "heart_half", Title: "Heart risk halved", Description: "Coronary heart disease risk is half that of a smoker.", DaysRequired: 365},
		{ID: "stroke", Title: "Stroke risk drops", Description: "Stroke risk approaches that of a non-smoker.", DaysRequired: 1825},
		{ID: "lung_cancer", Title: "Lung cancer risk halved", Description: "Lung cancer death risk is about half that of a smoker.", DaysRequired: 3650},
	}
}

// EvaluateMilestones marks every unreached milestone whose DaysRequired is
// covered by daysSinceQuit, walking in ascending order. All qualifying
// milestones are marked in one call; first is the earliest of them (nil when
// none were newly reached). Reached is never cleared.
func EvaluateMilestones(milestones []domain.Milestone, daysSinceQuit int64, now time.Time) (updated []domain.Milestone, first *domain.Milestone) {
	updated = make([]domain.Milestone, len(milestones))
	copy(updated, milestones)
	sort.SliceStable(updated, func(i, j int) bool {
		return updated[i].DaysRequired < updated[j].DaysRequired
	})

	for i := range updated {
		m := &updated[i]
		if m.Reached || daysSinceQuit < int64(m.DaysRequired) {
			continue
		}
		at := now
		m.Reached = true
		m.ReachedAt = &at
		if first == nil {
			reached := *m
			first = &reached
		}
	}
	return updated, first
}

// MergeMilestones carries reached state from stored onto the catalog by id.
func MergeMilestones(stored, catalog []domain.Milestone) []domain.Milestone {
	byID := make(map[string]domain.Milestone, len(stored))
	for _, m := range stored {
		byID[m.ID] = m
	}
	merged := make([]domain.Milestone, len(catalog))
	for i, def := range catalog {
		merged[i] = def
		if prev, ok := byID[def.ID]; ok && prev.Reached {
			merged[i].Reached = true
			merged[i].ReachedAt = prev.ReachedAt
		}
	}
	return merged
}

// NextMilestone returns the first unreached milestone, if any.
func NextMilestone(milestones []domain.Milestone) (domain.Milestone, bool) {
	for _, m := range milestones {
		if !m.Reached {
			return m, true
		}
	}
	return domain.Milestone{}, false
}
