package cmd

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/abhisek/examprep/internal/store"
	"github.com/abhisek/examprep/internal/ui/report"
)

var llmCmd = &cobra.Command{
	Use:   "llm",
	Short: "Inspect recorded question-set and analysis LLM calls",
}

var llmListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent LLM calls",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		purpose, _ := cmd.Flags().GetString("purpose")

		return withEventStore(cmd, func(s *store.Store) error {
			events, err := s.QueryLLMEvents(cmd.Context(), store.QueryOpts{Limit: limit, Purpose: purpose})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), report.LLMEvents(events))
			return nil
		})
	},
}

var llmViewCmd = &cobra.Command{
	Use:   "view <id>",
	Short: "Show the full request and response of one LLM call",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid event id %q", args[0])
		}

		return withEventStore(cmd, func(s *store.Store) error {
			e, err := s.GetLLMEvent(cmd.Context(), id)
			if errors.Is(err, store.ErrNotFound) {
				return fmt.Errorf("event %d not found", id)
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), report.LLMEvent(*e))
			return nil
		})
	},
}

var llmUsageCmd = &cobra.Command{
	Use:   "usage",
	Short: "Show token usage by purpose and estimated cost by model",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEventStore(cmd, func(s *store.Store) error {
			byPurpose, err := s.LLMUsageByPurpose(cmd.Context())
			if err != nil {
				return err
			}
			byModel, err := s.LLMUsageByModel(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), report.LLMUsage(byPurpose, byModel))
			return nil
		})
	},
}

// withEventStore opens the SQLite store holding LLM events for the length
// of fn. The mongo backend does not record events.
func withEventStore(cmd *cobra.Command, fn func(s *store.Store) error) error {
	dbPath, err := resolveDBPath(cmd)
	if err != nil {
		return fmt.Errorf("resolve database path: %w", err)
	}
	s, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer s.Close()
	return fn(s)
}

func init() {
	llmListCmd.Flags().IntP("limit", "n", 20, "Number of events to show")
	llmListCmd.Flags().StringP("purpose", "p", "", "Only show one purpose (question-set or performance-analysis)")

	llmCmd.AddCommand(llmListCmd, llmViewCmd, llmUsageCmd)
}
