package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/examprep/internal/scoring"
	"github.com/abhisek/examprep/internal/ui/report"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show a user's points, streaks, badges and recent attempts",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		user, _ := cmd.Flags().GetString("user")
		limit, _ := cmd.Flags().GetInt("limit")

		b, err := openBackend(cmd.Context(), cfg, newLogger(cfg, false))
		if err != nil {
			return err
		}
		defer b.Close()

		ctx := cmd.Context()
		st, err := b.attempts.Gamification(ctx, user)
		if err != nil {
			return fmt.Errorf("load gamification: %w", err)
		}
		attempts, err := b.repos.ListAttempts(ctx, user, limit)
		if err != nil {
			return fmt.Errorf("list attempts: %w", err)
		}

		fmt.Println(report.Stats(st, attempts, scoring.DefaultPolicy()))
		return nil
	},
}

func init() {
	statsCmd.Flags().String("user", "local", "User to show")
	statsCmd.Flags().IntP("limit", "n", 10, "Number of recent attempts")
}
