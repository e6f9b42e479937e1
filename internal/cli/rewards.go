package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/exhale-app/exhale/internal/app/engagement"
	"github.com/exhale-app/exhale/internal/daemon"
	"github.com/exhale-app/exhale/internal/domain"
)

func init() {
	achievementsCmd.Flags().BoolVar(&achievementsCheck, "check", false, "Evaluate and unlock earned achievements first")
	milestonesCmd.Flags().BoolVar(&milestonesCheck, "check", false, "Mark reached milestones first")
	rootCmd.AddCommand(giftCmd, achievementsCmd, milestonesCmd)
}

var (
	achievementsCheck bool
	milestonesCheck   bool
)

var giftCmd = &cobra.Command{
	Use:   "gift",
	Short: "Claim today's gift",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDaemon(func(d *daemon.Daemon) error {
			out := cmd.OutOrStdout()
			gift, ok := d.Store.ClaimDailyGift()
			if !ok {
				fmt.Fprintln(out, "Today's gift was already claimed. Come back tomorrow!")
				return nil
			}
			switch gift.Type {
			case domain.GiftXP:
				fmt.Fprintf(out, "🎁 %s: +%d XP\n", gift.Description, *gift.XP)
			default:
				fmt.Fprintf(out, "🎁 %s\n", gift.Description)
			}
			return nil
		})
	},
}

var achievementsCmd = &cobra.Command{
	Use:   "achievements",
	Short: "List achievements and progress",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDaemon(func(d *daemon.Daemon) error {
			out := cmd.OutOrStdout()
			if achievementsCheck {
				for _, a := range d.Store.CheckAchievements() {
					fmt.Fprintf(out, "Unlocked %s %s (%s, +%d XP)\n", a.Icon, a.Title, a.Rarity, a.Points)
				}
			}

			all := d.Store.Achievements()
			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "\tACHIEVEMENT\tRARITY\tPROGRESS\tPOINTS")
			for _, a := range all {
				fmt.Fprintf(w, "%s\t%s %s\t%s\t%d/%d\t%d\n",
					check(a.Unlocked), a.Icon, a.Title, a.Rarity,
					a.Progress, a.Requirement.Value, a.Points)
			}
			if err := w.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(out, "%d of %d unlocked\n", engagement.UnlockedCount(all), len(all))
			return nil
		})
	},
}

var milestonesCmd = &cobra.Command{
	Use:   "milestones",
	Short: "Show the health recovery timeline",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDaemon(func(d *daemon.Daemon) error {
			out := cmd.OutOrStdout()
			if milestonesCheck {
				if m := d.Store.CheckMilestones(); m != nil {
					fmt.Fprintf(out, "Reached: %s\n", m.Title)
				}
			}

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "\tDAY\tMILESTONE")
			for _, m := range d.Store.Milestones() {
				fmt.Fprintf(w, "%s\t%d\t%s: %s\n", check(m.Reached), m.DaysRequired, m.Title, m.Description)
			}
			return w.Flush()
		})
	},
}
