package cmd

import (
	"github.com/abhisek/studyloop/internal/store"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "studyloop",
	Short: "Adaptive study sessions from a question bank",
	Long: "studyloop asks questions from a question bank, grades your answers and " +
		"steers every session toward the topics you know least.",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSession(cmd, "")
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String("db", "", "Path to SQLite database file (overrides STUDYLOOP_DB env var)")
	flags.String("config", "", "Path to YAML config file (overrides STUDYLOOP_CONFIG env var)")
	flags.String("bank", "", "Question bank file (.json or .yaml)")
	flags.StringP("student", "s", "", "Student id (defaults to the config value or $USER)")
	flags.String("json-store", "", "Keep profiles in this JSON file instead of the database")
	flags.String("log-level", "", "Log level: debug, info, warn or error")

	rootCmd.Flags().IntP("budget", "n", -1, "Maximum questions per session, 0 for no limit")

	rootCmd.AddCommand(studyCmd)
	rootCmd.AddCommand(reviewCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(bankCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(versionCmd)
}

// resolveDBPath returns the database path using --db flag (highest priority),
// then STUDYLOOP_DB env var, then the default XDG path.
func resolveDBPath(cmd *cobra.Command) (string, error) {
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		return p, store.EnsureDir(p)
	}
	return store.DefaultDBPath()
}
