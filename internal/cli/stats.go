package cli

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/exhale-app/exhale/internal/app/engagement"
	"github.com/exhale-app/exhale/internal/daemon"
)

func init() {
	statsCmd.Flags().Int64Var(&statsProject, "project", 0, "Also project savings after this many smoke-free days")

	profileSetCmd.Flags().StringVar(&profileQuit, "quit", "", "Quit date, YYYY-MM-DD or RFC 3339")
	profileSetCmd.Flags().IntVar(&profilePerDay, "per-day", -1, "Cigarettes smoked per day before quitting")
	profileSetCmd.Flags().Float64Var(&profilePrice, "pack-price", -1, "Price of one pack")
	profileSetCmd.Flags().IntVar(&profilePerPack, "per-pack", -1, "Cigarettes per pack")
	profileCmd.AddCommand(profileSetCmd)

	rootCmd.AddCommand(statsCmd, profileCmd)
}

var (
	statsProject   int64
	profileQuit    string
	profilePerDay  int
	profilePrice   float64
	profilePerPack int
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show health and money statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDaemon(func(d *daemon.Daemon) error {
			out := cmd.OutOrStdout()
			derived := d.Store.RefreshStats()
			stats := d.Store.Stats()

			fmt.Fprintf(out, "Days smoke-free:     %s\n", humanize.Comma(derived.DaysSinceQuit))
			fmt.Fprintf(out, "Cigarettes avoided:  %s\n", humanize.Comma(derived.CigarettesAvoided))
			fmt.Fprintf(out, "Money saved:         %s\n", humanize.Comma(derived.MoneySaved))
			fmt.Fprintf(out, "Life regained:       %s\n", lifeLine(derived.LifeRegained))
			fmt.Fprintf(out, "Tasks completed:     %d (+%d bonus)\n", stats.TasksCompleted, stats.LimitedTasksCompleted)
			fmt.Fprintf(out, "Gifts claimed:       %d\n", stats.GiftsClaimed)

			if statsProject > 0 {
				p := engagement.Project(d.Store.Profile(), statsProject)
				fmt.Fprintf(out, "\nAfter %s days: %s cigarettes avoided, %s saved, %s regained\n",
					humanize.Comma(statsProject),
					humanize.Comma(p.CigarettesAvoided),
					humanize.Comma(p.MoneySaved),
					lifeLine(p.LifeRegained))
			}
			return nil
		})
	},
}

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Show the smoking profile",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDaemon(func(d *daemon.Daemon) error {
			p := d.Store.Profile()
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Quit:            %s (%s)\n", p.QuitAt.Format(time.RFC1123), humanize.Time(p.QuitAt))
			fmt.Fprintf(out, "Per day:         %d\n", p.CigarettesPerDay)
			fmt.Fprintf(out, "Pack price:      %.2f\n", p.PricePerPack)
			fmt.Fprintf(out, "Per pack:        %d\n", p.CigarettesPerPack)
			return nil
		})
	},
}

var profileSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Change the smoking profile",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDaemon(func(d *daemon.Daemon) error {
			p := d.Store.Profile()
			if profileQuit != "" {
				loc, _ := d.Config.Engine.Location()
				quitAt, err := daemon.ParseQuitDate(profileQuit, loc)
				if err != nil {
					return err
				}
				p.QuitAt = quitAt
			}
			if cmd.Flags().Changed("per-day") {
				p.CigarettesPerDay = profilePerDay
			}
			if cmd.Flags().Changed("pack-price") {
				p.PricePerPack = profilePrice
			}
			if cmd.Flags().Changed("per-pack") {
				p.CigarettesPerPack = profilePerPack
			}
			if err := p.Validate(); err != nil {
				return err
			}
			d.Store.UpdateProfile(p)
			fmt.Fprintln(cmd.OutOrStdout(), "Profile updated.")
			return nil
		})
	},
}
