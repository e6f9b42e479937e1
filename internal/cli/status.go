package cli

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/exhale-app/exhale/internal/app/engagement"
	"github.com/exhale-app/exhale/internal/daemon"
	"github.com/exhale-app/exhale/internal/domain"
)

func init() {
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(touchCmd)
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show level, streak, today's tasks and savings",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDaemon(func(d *daemon.Daemon) error {
			out := cmd.OutOrStdout()
			s := d.Store
			now := s.Now()

			fmt.Fprintln(out, levelLine(s.Progress()))

			streak := s.StreakInfo()
			fmt.Fprintf(out, "Streak: %d days (longest %d)\n", streak.Current, streak.Longest)

			derived := s.RefreshStats()
			fmt.Fprintf(out, "Smoke-free: %s days · %s cigarettes avoided · %s saved · %s of life regained\n",
				humanize.Comma(derived.DaysSinceQuit),
				humanize.Comma(derived.CigarettesAvoided),
				humanize.Comma(derived.MoneySaved),
				lifeLine(derived.LifeRegained))

			tasks := s.DailyTasks()
			fmt.Fprintf(out, "Daily tasks: %d/%d done\n", engagement.CountCompleted(tasks), len(tasks))

			if task, ok := s.ActiveLimitedTask(); ok {
				state := "expires " + humanize.RelTime(now, task.ExpiresAt, "ago", "from now")
				if task.Completed {
					state = "completed"
				}
				fmt.Fprintf(out, "Bonus task: %s (+%d XP, %s)\n", task.Title, task.Reward(), state)
			}
			if s.GiftAvailable() {
				fmt.Fprintln(out, "A daily gift is waiting: run 'exhale gift'")
			}
			if next, ok := engagement.NextMilestone(s.Milestones()); ok {
				due := s.Profile().QuitAt.Add(time.Duration(next.DaysRequired) * 24 * time.Hour)
				fmt.Fprintf(out, "Next milestone: %s (%s)\n", next.Title, humanize.RelTime(now, due, "ago", "from now"))
			}
			return nil
		})
	},
}

var touchCmd = &cobra.Command{
	Use:   "touch",
	Short: "Record today's activity and extend the streak",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDaemon(func(d *daemon.Daemon) error {
			streak, transition := d.Store.TouchDailyActivity()
			out := cmd.OutOrStdout()
			switch transition {
			case domain.StreakNoop:
				fmt.Fprintf(out, "Already checked in today. Streak: %d\n", streak.Current)
			case domain.StreakReset:
				fmt.Fprintf(out, "Welcome back! Streak restarted at %d (longest %d)\n", streak.Current, streak.Longest)
			default:
				fmt.Fprintf(out, "Streak: %d days 🔥\n", streak.Current)
			}
			return nil
		})
	},
}
