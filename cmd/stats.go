package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/studyloop/internal/mastery"
	"github.com/abhisek/studyloop/internal/selector"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show topic mastery and recent sessions for a student",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		sessions, _ := cmd.Flags().GetInt("sessions")

		e, err := openEnv(cmd)
		if err != nil {
			return err
		}
		defer e.close()

		p, err := e.profiles.Load(ctx, e.cfg.Student)
		if err != nil {
			return err
		}

		fmt.Printf("Student: %s  (%d answers recorded)\n\n", p.StudentID, len(p.Attempts))

		// With a bank every topic is listed with its selection weight;
		// without one only attempted topics are shown.
		var rows []selector.TopicWeight
		b, bankErr := e.loadBank()
		if bankErr == nil {
			rows = selector.New(e.cfg.Selector).Weights(b, p)
		} else {
			e.logger.Debug("stats without bank", "error", bankErr)
			for _, t := range p.Topics() {
				m := p.Mastery[t]
				rows = append(rows, selector.TopicWeight{Name: t, Mastery: m.Score, Attempts: m.Attempts})
			}
		}

		if len(rows) == 0 {
			fmt.Println("No topics yet. Run `studyloop study` to get started.")
		} else {
			fmt.Printf("%-28s  %7s  %8s  %-11s  %s\n", "Topic", "Mastery", "Attempts", "Level", "Weight")
			fmt.Println(strings.Repeat("─", 70))
			for _, r := range rows {
				weight := "-"
				if bankErr == nil {
					weight = fmt.Sprintf("%.2f", r.Weight)
				}
				fmt.Printf("%-28s  %6.0f%%  %8d  %-11s  %s\n",
					truncate(r.Name, 28), r.Mastery*100, r.Attempts,
					mastery.LevelFor(r.Mastery, r.Attempts), weight)
			}
		}

		if review := p.ReviewCandidates(); len(review) > 0 {
			fmt.Printf("\n%d questions waiting for review.\n", len(review))
		}

		recent, err := e.store.EventRepo().RecentSessions(ctx, p.StudentID, sessions)
		if err != nil {
			return fmt.Errorf("query sessions: %w", err)
		}
		if len(recent) == 0 {
			return nil
		}

		fmt.Println()
		fmt.Printf("%-19s  %-7s  %8s  %7s\n", "Started", "Mode", "Answered", "Correct")
		fmt.Println(strings.Repeat("─", 48))
		for _, s := range recent {
			fmt.Printf("%-19s  %-7s  %8d  %7d\n",
				s.Started.Local().Format("2006-01-02 15:04:05"), s.Mode, s.Answered, s.Correct)
		}
		return nil
	},
}

func init() {
	statsCmd.Flags().Int("sessions", 5, "Number of recent sessions to show")
}
