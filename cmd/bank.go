package cmd

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/studyloop/internal/bank"
)

var bankCmd = &cobra.Command{
	Use:   "bank",
	Short: "Inspect question banks",
}

var bankValidateCmd = &cobra.Command{
	Use:   "validate <file>...",
	Short: "Check that question bank files load",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		failed := 0
		for _, path := range args {
			b, err := bank.LoadFile(path)
			if err != nil {
				failed++
				fmt.Printf("✗ %s\n  %v\n", path, err)
				continue
			}
			fmt.Printf("✓ %s: %d questions, %d topics\n", path, b.Len(), len(b.Topics()))
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d banks failed to load", failed, len(args))
		}
		return nil
	},
}

var bankListCmd = &cobra.Command{
	Use:   "list [file]",
	Short: "List questions (optionally filtered by topic or difficulty)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		topic, _ := cmd.Flags().GetString("topic")
		level, _ := cmd.Flags().GetString("difficulty")

		path, _ := cmd.Flags().GetString("bank")
		if len(args) == 1 {
			path = args[0]
		}
		if path == "" {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			path = cfg.Bank
		}

		b, err := bank.LoadFile(path)
		if err != nil {
			return err
		}

		var f bank.Filter
		if topic != "" {
			if !slices.Contains(b.Topics(), topic) {
				return fmt.Errorf("no questions found for topic %q", topic)
			}
			f = bank.ByTopic(topic)
		}
		if level != "" {
			d, err := bank.ParseDifficulty(level)
			if err != nil {
				return err
			}
			f = f.WithDifficulty(d)
		}

		// Header.
		fmt.Printf("%-16s  %-20s  %-6s  %-6s  %s\n",
			"ID", "Topic", "Level", "Type", "Prompt")
		fmt.Println(strings.Repeat("─", 100))

		n := 0
		for q := range b.Filter(f) {
			kind := "open"
			if q.Type == bank.TypeMultipleChoice {
				kind = "choice"
			}
			prompt := strings.Join(strings.Fields(q.Prompt), " ")
			if len(prompt) > 44 {
				prompt = prompt[:41] + "..."
			}
			fmt.Printf("%-16s  %-20s  %-6s  %-6s  %s\n",
				truncate(q.ID, 16), truncate(q.Topic, 20), q.Difficulty, kind, prompt)
			n++
		}

		fmt.Printf("\n%d questions\n", n)
		return nil
	},
}

func init() {
	bankListCmd.Flags().String("topic", "", "Filter by topic")
	bankListCmd.Flags().String("difficulty", "", "Filter by difficulty (easy, medium or hard)")

	bankCmd.AddCommand(bankValidateCmd)
	bankCmd.AddCommand(bankListCmd)
}
