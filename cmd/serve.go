package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhisek/examprep/internal/questiongen"
	"github.com/abhisek/examprep/internal/quiz"
	"github.com/abhisek/examprep/internal/transport/rest"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			cfg.HTTPAddr = addr
		}
		logger := newLogger(cfg, true)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		b, err := openBackend(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer b.Close()

		var creator rest.QuizCreator = noGenerator{}
		if b.quizzes != nil {
			creator = b.quizzes
		}

		srv := &http.Server{
			Addr: cfg.HTTPAddr,
			Handler: rest.NewRouter(&rest.Container{
				Quizzes:      creator,
				Attempts:     b.attempts,
				Reader:       b.repos,
				Leaderboard:  b.board,
				MinQuestions: cfg.MinQuestions,
				MaxQuestions: cfg.MaxQuestions,
				Health:       b.ping,
				Logger:       logger,
			}),
			ReadHeaderTimeout: 10 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			logger.Info("server listening", "addr", cfg.HTTPAddr, "storage", cfg.Driver)
			errCh <- srv.ListenAndServe()
		}()

		select {
		case err := <-errCh:
			if !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("listen: %w", err)
			}
			return nil
		case <-ctx.Done():
		}

		logger.Info("shutting down", "timeout", cfg.ShutdownTimeout)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	},
}

// noGenerator answers generation requests when no LLM provider is
// configured.
type noGenerator struct{}

func (noGenerator) CreateQuiz(context.Context, quiz.Configuration) (*quiz.Quiz, *questiongen.Result, error) {
	return nil, nil, &questiongen.TransportError{Err: errors.New("no LLM provider configured")}
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address (overrides EXAMPREP_HTTP_ADDR)")
}
