package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/examprep/internal/questiongen"
	"github.com/abhisek/examprep/internal/quiz"
	"github.com/abhisek/examprep/internal/ui/report"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate and store a question set",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		logger := newLogger(cfg, false)

		flags := cmd.Flags()
		exam, _ := flags.GetString("exam")
		stream, _ := flags.GetString("stream")
		syllabus, _ := flags.GetString("syllabus")
		level, _ := flags.GetString("difficulty")
		count, _ := flags.GetInt("count")
		user, _ := flags.GetString("user")
		withAnswers, _ := flags.GetBool("answers")

		difficulty, err := quiz.ParseDifficulty(level)
		if err != nil {
			return err
		}
		if count < cfg.MinQuestions || count > cfg.MaxQuestions {
			return fmt.Errorf("count must be between %d and %d", cfg.MinQuestions, cfg.MaxQuestions)
		}

		b, err := openBackend(cmd.Context(), cfg, logger)
		if err != nil {
			return err
		}
		defer b.Close()
		if b.quizzes == nil {
			return errors.New("no LLM provider configured; set EXAMPREP_LLM_PROVIDER or a vendor API key")
		}

		z, res, err := b.quizzes.CreateQuiz(cmd.Context(), quiz.Configuration{
			Exam:       exam,
			Stream:     stream,
			Syllabus:   syllabus,
			Difficulty: difficulty,
			Count:      count,
			UserID:     user,
		})
		var failed *questiongen.GenerationFailedError
		if errors.As(err, &failed) {
			return fmt.Errorf("%w; try different syllabus topics", err)
		}
		if err != nil {
			return err
		}

		fmt.Println(report.Quiz(z, withAnswers))
		fmt.Printf("\n(%d generation attempt(s))\n", len(res.Attempts))
		return nil
	},
}

func init() {
	f := generateCmd.Flags()
	f.String("exam", "", "Exam name, e.g. \"JEE Main\"")
	f.String("stream", "", "Stream or branch within the exam")
	f.String("syllabus", "", "Syllabus topics to draw questions from")
	f.String("difficulty", "medium", "easy, medium or hard")
	f.IntP("count", "n", 10, "Number of questions")
	f.String("user", "local", "User the quiz belongs to")
	f.Bool("answers", false, "Print correct answers")
	generateCmd.MarkFlagRequired("exam")
	generateCmd.MarkFlagRequired("syllabus")
}
