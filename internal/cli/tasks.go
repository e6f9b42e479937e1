package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/exhale-app/exhale/internal/daemon"
)

func init() {
	tasksCmd.AddCommand(tasksCompleteCmd, tasksResetCmd)
	limitedCmd.AddCommand(limitedNewCmd, limitedCompleteCmd)
	rootCmd.AddCommand(tasksCmd, limitedCmd)
}

// ─── Daily Tasks ────────────────────────────────────────────────────────────

var tasksCmd = &cobra.Command{
	Use:   "tasks",
	Short: "List today's daily tasks",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDaemon(func(d *daemon.Daemon) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "\tID\tTASK\tCATEGORY\tXP")
			for _, t := range d.Store.DailyTasks() {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t+%d\n", check(t.Completed), t.ID, t.Title, t.Category, t.XPReward)
			}
			return w.Flush()
		})
	},
}

var tasksCompleteCmd = &cobra.Command{
	Use:   "complete ID",
	Short: "Complete a daily task",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDaemon(func(d *daemon.Daemon) error {
			granted, ok := d.Store.CompleteTask(args[0])
			if !ok {
				fmt.Fprintf(cmd.OutOrStdout(), "Nothing to do: %q is unknown or already done today.\n", args[0])
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "+%d XP\n%s\n", granted, levelLine(d.Store.Progress()))
			return nil
		})
	},
}

var tasksResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Start a new set of daily tasks if the day changed",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDaemon(func(d *daemon.Daemon) error {
			if d.Store.ResetDailyTasks() {
				fmt.Fprintln(cmd.OutOrStdout(), "New daily tasks are ready.")
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), "Today's tasks are already current.")
			}
			return nil
		})
	},
}

// ─── Limited Task ───────────────────────────────────────────────────────────

var limitedCmd = &cobra.Command{
	Use:   "limited",
	Short: "Show the time-limited bonus task",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDaemon(func(d *daemon.Daemon) error {
			task, ok := d.Store.ActiveLimitedTask()
			out := cmd.OutOrStdout()
			if !ok {
				fmt.Fprintln(out, "No bonus task. Run 'exhale limited new' to get one.")
				return nil
			}
			fmt.Fprintf(out, "%s %s: %s\n", check(task.Completed), task.Title, task.Description)
			fmt.Fprintf(out, "Reward: %d + %d bonus XP, expires %s\n",
				task.BaseXP, task.BonusXP, humanize.RelTime(d.Store.Now(), task.ExpiresAt, "ago", "from now"))
			return nil
		})
	},
}

var limitedNewCmd = &cobra.Command{
	Use:   "new",
	Short: "Draw a new bonus task, discarding the current one",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDaemon(func(d *daemon.Daemon) error {
			task := d.Store.GenerateLimitedTask()
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s (+%d XP, expires %s)\n",
				task.Title, task.Description, task.Reward(),
				humanize.RelTime(d.Store.Now(), task.ExpiresAt, "ago", "from now"))
			return nil
		})
	},
}

var limitedCompleteCmd = &cobra.Command{
	Use:   "complete",
	Short: "Complete the bonus task before it expires",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDaemon(func(d *daemon.Daemon) error {
			granted, ok := d.Store.CompleteLimitedTask()
			if !ok {
				fmt.Fprintln(cmd.OutOrStdout(), "No open bonus task to complete.")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "+%d XP\n%s\n", granted, levelLine(d.Store.Progress()))
			return nil
		})
	},
}

