package cmd

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete a student's mastery and answer history",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		yes, _ := cmd.Flags().GetBool("yes")

		e, err := openEnv(cmd)
		if err != nil {
			return err
		}
		defer e.close()

		student := e.cfg.Student
		out := cmd.OutOrStdout()
		if !yes {
			fmt.Fprintf(out, "Delete all progress for %q? [y/N] ", student)
			line, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			if a := strings.ToLower(strings.TrimSpace(line)); a != "y" && a != "yes" {
				fmt.Fprintln(out, "Nothing deleted.")
				return nil
			}
		}

		if err := e.profiles.Delete(ctx, student); err != nil {
			return err
		}
		fmt.Fprintf(out, "Progress for %q deleted.\n", student)
		return nil
	},
}

func init() {
	resetCmd.Flags().BoolP("yes", "y", false, "Do not ask for confirmation")
}
