package attempt

import (
	"context"

	"github.com/abhisek/examprep/internal/analysis"
	"github.com/abhisek/examprep/internal/scoring"
)

type analysisJob struct {
	ctx     context.Context
	attempt *scoring.Attempt
	hint    string
}

// dispatchAnalysis classifies a persisted attempt. It reports whether the
// work was queued for the background worker; otherwise the classification
// has already been stored on a. The attempt is already saved, so a caller
// going away must not cut its classification short.
func (s *Service) dispatchAnalysis(ctx context.Context, a *scoring.Attempt, hint string) bool {
	ctx = context.WithoutCancel(ctx)
	if s.analyzer == nil {
		s.storeClassification(ctx, a, scoring.Unavailable("analysis not configured"))
		return false
	}
	if s.pending == nil {
		s.storeClassification(ctx, a, s.classify(ctx, a, hint))
		return false
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	reason := "analysis worker stopped"
	if !s.closed {
		reason = "analysis queue full"
		job := analysisJob{ctx: ctx, attempt: a.Clone(), hint: hint}
		select {
		case s.pending <- job:
			return true
		default:
		}
	}

	s.logger.Warn("analysis skipped", "attempt_id", a.ID, "reason", reason)
	s.storeClassification(ctx, a, scoring.Unavailable(reason))
	return false
}

func (s *Service) processLoop() {
	defer s.wg.Done()
	for job := range s.pending {
		c := s.classify(job.ctx, job.attempt, job.hint)
		s.storeClassification(job.ctx, job.attempt, c)
	}
}

func (s *Service) classify(ctx context.Context, a *scoring.Attempt, hint string) scoring.Classification {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.AnalysisTimeout)
	defer cancel()

	report, err := s.analyzer.Analyze(ctx, analysis.BuildRequest(a, hint))
	if err != nil {
		s.logger.Warn("analysis failed", "attempt_id", a.ID, "error", err)
		return scoring.Unavailable(err.Error())
	}
	return analysis.Merge(a.Questions, a.Outcomes, report)
}

func (s *Service) storeClassification(ctx context.Context, a *scoring.Attempt, c scoring.Classification) {
	a.Classification = c
	if err := s.repos.UpdateAttemptErrorClassification(ctx, a.ID, c); err != nil {
		s.logger.Error("store classification failed", "attempt_id", a.ID, "error", err)
		return
	}
	s.logger.Debug("classification stored", "attempt_id", a.ID, "state", c.State)
}

// Close stops accepting background analyses and waits for the queued ones
// to finish.
func (s *Service) Close() {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		if s.pending != nil {
			close(s.pending)
		}
	}
	s.mu.Unlock()
	s.wg.Wait()
}
