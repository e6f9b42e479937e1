package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/exhale-app/exhale/internal/app/engagement"
	"github.com/exhale-app/exhale/internal/domain"
)

// ─── Level & Streak ─────────────────────────────────────────────────────────

func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.store.Progress())
}

type streakResponse struct {
	domain.Streak
	Transition domain.StreakTransition `json:"transition,omitempty"`
	Applied    *bool                   `json:"applied,omitempty"`
}

func (s *Server) handleStreak(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, streakResponse{Streak: s.store.StreakInfo()})
}

func (s *Server) handleActivity(w http.ResponseWriter, r *http.Request) {
	streak, transition := s.store.TouchDailyActivity()
	applied := transition != domain.StreakNoop
	writeJSON(w, http.StatusOK, streakResponse{Streak: streak, Transition: transition, Applied: &applied})
}

// ─── Tasks ──────────────────────────────────────────────────────────────────

// rewardResponse reports the outcome of an action that may grant XP.
type rewardResponse struct {
	Applied   bool             `json:"applied"`
	XPGranted int64            `json:"xpGranted"`
	Progress  domain.UserLevel `json:"progress"`
}

func (s *Server) reward(granted int64, ok bool) rewardResponse {
	return rewardResponse{Applied: ok, XPGranted: granted, Progress: s.store.Progress()}
}

func (s *Server) handleDailyTasks(w http.ResponseWriter, r *http.Request) {
	tasks := s.store.DailyTasks()
	writeJSON(w, http.StatusOK, map[string]any{
		"tasks":          tasks,
		"completedToday": s.store.CompletedToday(),
		"total":          len(tasks),
	})
}

func (s *Server) handleCompleteDaily(w http.ResponseWriter, r *http.Request) {
	granted, ok := s.store.CompleteTask(chi.URLParam(r, "id"))
	writeJSON(w, http.StatusOK, s.reward(granted, ok))
}

func (s *Server) handleResetDaily(w http.ResponseWriter, r *http.Request) {
	applied := s.store.ResetDailyTasks()
	writeJSON(w, http.StatusOK, map[string]any{
		"applied": applied,
		"tasks":   s.store.DailyTasks(),
	})
}

type limitedResponse struct {
	Applied          *bool               `json:"applied,omitempty"`
	Task             *domain.LimitedTask `json:"task"`
	RemainingSeconds int64               `json:"remainingSeconds"`
}

func (s *Server) limitedView() limitedResponse {
	task, ok := s.store.ActiveLimitedTask()
	if !ok {
		return limitedResponse{}
	}
	return limitedResponse{
		Task:             &task,
		RemainingSeconds: int64(task.Remaining(s.store.Now()) / time.Second),
	}
}

func (s *Server) handleLimitedTask(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.limitedView())
}

func (s *Server) handleGenerateLimited(w http.ResponseWriter, r *http.Request) {
	s.store.GenerateLimitedTask()
	resp := s.limitedView()
	applied := true
	resp.Applied = &applied
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCompleteLimited(w http.ResponseWriter, r *http.Request) {
	granted, ok := s.store.CompleteLimitedTask()
	writeJSON(w, http.StatusOK, s.reward(granted, ok))
}

// ─── Gift ───────────────────────────────────────────────────────────────────

func (s *Server) handleGift(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"available": s.store.GiftAvailable()})
}

func (s *Server) handleClaimGift(w http.ResponseWriter, r *http.Request) {
	gift, ok := s.store.ClaimDailyGift()
	resp := map[string]any{
		"applied":  ok,
		"progress": s.store.Progress(),
	}
	if ok {
		resp["gift"] = gift
	}
	writeJSON(w, http.StatusOK, resp)
}

// ─── Achievements & Milestones ──────────────────────────────────────────────

func (s *Server) handleAchievements(w http.ResponseWriter, r *http.Request) {
	all := s.store.Achievements()
	writeJSON(w, http.StatusOK, map[string]any{
		"achievements":  all,
		"unlockedCount": engagement.UnlockedCount(all),
		"total":         len(all),
	})
}

func (s *Server) handleCheckAchievements(w http.ResponseWriter, r *http.Request) {
	newly := s.store.CheckAchievements()
	if newly == nil {
		newly = []domain.Achievement{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"applied":  len(newly) > 0,
		"unlocked": newly,
		"progress": s.store.Progress(),
	})
}

func (s *Server) handleMilestones(w http.ResponseWriter, r *http.Request) {
	all := s.store.Milestones()
	resp := map[string]any{"milestones": all}
	if next, ok := engagement.NextMilestone(all); ok {
		resp["next"] = next
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCheckMilestones(w http.ResponseWriter, r *http.Request) {
	first := s.store.CheckMilestones()
	writeJSON(w, http.StatusOK, map[string]any{
		"applied":   first != nil,
		"milestone": first,
	})
}

// ─── Stats & Profile ────────────────────────────────────────────────────────

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{
		"stats":   s.store.Stats(),
		"derived": s.store.RefreshStats(),
	}
	if raw := r.URL.Query().Get("project"); raw != "" {
		days, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || days < 0 {
			writeError(w, http.StatusBadRequest, "project must be a non-negative number of days")
			return
		}
		resp["projection"] = engagement.Project(s.store.Profile(), days)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.store.Profile())
}

// profileUpdate is a partial profile; absent fields keep their value.
type profileUpdate struct {
	QuitAt            *time.Time `json:"quitAt"`
	CigarettesPerDay  *int       `json:"cigarettesPerDay"`
	PricePerPack      *float64   `json:"pricePerPack"`
	CigarettesPerPack *int       `json:"cigarettesPerPack"`
}

func (u profileUpdate) apply(p domain.UserProfile) domain.UserProfile {
	if u.QuitAt != nil {
		p.QuitAt = *u.QuitAt
	}
	if u.CigarettesPerDay != nil {
		p.CigarettesPerDay = *u.CigarettesPerDay
	}
	if u.PricePerPack != nil {
		p.PricePerPack = *u.PricePerPack
	}
	if u.CigarettesPerPack != nil {
		p.CigarettesPerPack = *u.CigarettesPerPack
	}
	return p
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req profileUpdate
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid profile: "+err.Error())
		return
	}

	applied := s.store.UpdateProfile(req.apply(s.store.Profile()))
	writeJSON(w, http.StatusOK, map[string]any{
		"applied": applied,
		"profile": s.store.Profile(),
	})
}
