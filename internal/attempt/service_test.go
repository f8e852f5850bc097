package attempt

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/abhisek/examprep/internal/analysis"
	"github.com/abhisek/examprep/internal/leaderboard"
	"github.com/abhisek/examprep/internal/quiz"
	"github.com/abhisek/examprep/internal/scoring"
	"github.com/abhisek/examprep/internal/store"
)

func openTestStore(t *testing.T) *store.Store {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	s, err := store.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func tenQuestionQuiz(userID string) *quiz.Quiz {
	qs := make([]quiz.Question, 10)
	for i := range qs {
		qs[i] = quiz.Question{
			Text:       fmt.Sprintf("What is %d squared?", i+1),
			Kind:       quiz.KindNumeric,
			Correct:    quiz.NumericAnswer(float64((i + 1) * (i + 1))),
			Difficulty: quiz.DifficultyEasy,
			Topic:      "Squares",
		}
	}
	cfg := quiz.Configuration{Exam: "CAT", Syllabus: "Arithmetic", Difficulty: quiz.DifficultyEasy, Count: 10, UserID: userID}
	return quiz.NewQuiz(cfg, qs, time.Now())
}

// eightRight answers the first eight questions correctly.
func eightRight() map[int]any {
	answers := make(map[int]any)
	for i := range 10 {
		v := (i + 1) * (i + 1)
		if i >= 8 {
			v++
		}
		answers[i] = fmt.Sprint(v)
	}
	return answers
}

type stubAnalyzer struct {
	mu     sync.Mutex
	report *analysis.Report
	err    error
	calls  int
	block  chan struct{}

	// cancel, if set, is called before answering, as when the client
	// disconnects mid-analysis.
	cancel context.CancelFunc
}

func (a *stubAnalyzer) Analyze(ctx context.Context, req analysis.Request) (*analysis.Report, error) {
	if a.block != nil {
		<-a.block
	}
	if a.cancel != nil {
		a.cancel()
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.calls++
	return a.report, a.err
}

// saveQuizzes stores n fresh quizzes of u1, one per planned submission.
func saveQuizzes(t *testing.T, st *store.Store, n int) []*quiz.Quiz {
	t.Helper()
	zs := make([]*quiz.Quiz, n)
	for i := range zs {
		zs[i] = tenQuestionQuiz("u1")
		require.NoError(t, st.SaveQuiz(context.Background(), zs[i]))
	}
	return zs
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 10, 0, 0, 0, time.UTC)
}

func TestSubmit_ScoresAndUpdatesGamification(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t)
	zs := saveQuizzes(t, st, 2)
	z := zs[0]

	svc := NewService(st, nil, nil, Config{}, nil)
	defer svc.Close()

	out, err := svc.Submit(ctx, Submission{
		QuizID:      z.ID,
		UserID:      "u1",
		Answers:     eightRight(),
		SubmittedAt: day(2026, 3, 1),
	})
	require.NoError(t, err)

	require.Equal(t, 8, out.Scorecard.Score)
	require.Equal(t, 8, out.Attempt.Score)
	require.Equal(t, 80, out.Gamification.Points)
	require.Equal(t, 1, out.Gamification.CurrentStreak)
	require.Contains(t, out.NewBadges, scoring.BadgeFirstSteps)
	require.False(t, out.AnalysisQueued)

	saved, err := st.GetAttempt(ctx, out.Attempt.ID)
	require.NoError(t, err)
	require.Equal(t, 8, saved.Score)
	require.Equal(t, scoring.ClassificationUnavailable, saved.Classification.State)

	// Next day extends the streak.
	out, err = svc.Submit(ctx, Submission{QuizID: zs[1].ID, Answers: eightRight(), SubmittedAt: day(2026, 3, 2)})
	require.NoError(t, err)
	require.Equal(t, 160, out.Gamification.Points)
	require.Equal(t, 2, out.Gamification.CurrentStreak)
	require.Empty(t, out.NewBadges)

	g, err := svc.Gamification(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, out.Gamification, g)
}

func TestSubmit_IgnoresClientScore(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t)
	z := tenQuestionQuiz("u1")
	require.NoError(t, st.SaveQuiz(ctx, z))
	svc := NewService(st, nil, nil, Config{}, nil)

	out, err := svc.Submit(ctx, Submission{QuizID: z.ID, Answers: map[int]any{0: "1", 1: []any{"4", "5"}, 2: "nine"}})
	require.NoError(t, err)
	require.Equal(t, 1, out.Scorecard.Score)
	require.Equal(t, quiz.StatusMismatch, out.Scorecard.Outcomes[1].Status)
	require.Equal(t, quiz.StatusInvalid, out.Scorecard.Outcomes[2].Status)
	require.Equal(t, quiz.StatusUnanswered, out.Scorecard.Outcomes[3].Status)
}

func TestSubmit_InvalidSubmissions(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t)
	z := tenQuestionQuiz("u1")
	require.NoError(t, st.SaveQuiz(ctx, z))
	svc := NewService(st, nil, nil, Config{}, nil)

	tests := []struct {
		name string
		sub  Submission
	}{
		{"other user", Submission{QuizID: z.ID, UserID: "u2"}},
		{"index out of range", Submission{QuizID: z.ID, Answers: map[int]any{10: "1"}}},
		{"negative time", Submission{QuizID: z.ID, QuestionTimes: map[int]float64{0: -1}}},
		{"negative total", Submission{QuizID: z.ID, TotalTimeSeconds: -5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Submit(ctx, tt.sub)
			require.ErrorIs(t, err, ErrInvalidSubmission)
		})
	}

	_, err := svc.Submit(ctx, Submission{QuizID: "missing"})
	require.ErrorIs(t, err, store.ErrNotFound)

	states, err := st.TopPoints(ctx, 0)
	require.NoError(t, err)
	require.Empty(t, states, "rejected submissions must not touch gamification")
}

func TestSubmit_SyncAnalysisMergesClassification(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t)
	z := tenQuestionQuiz("u1")
	require.NoError(t, st.SaveQuiz(ctx, z))

	an := &stubAnalyzer{report: &analysis.Report{
		Feedback:      "Watch the last digits.",
		WeakestTopics: []string{"Squares"},
		PerQuestion: []analysis.QuestionResult{
			{QuestionText: "What is 9 squared?", ErrorType: scoring.ErrorCarelessSlip},
			{QuestionText: "What is 10 squared?", ErrorType: scoring.ErrorConceptual},
		},
	}}
	svc := NewService(st, an, nil, Config{}, nil)

	out, err := svc.Submit(ctx, Submission{QuizID: z.ID, Answers: eightRight(), QuestionTimes: map[int]float64{8: 2.5}})
	require.NoError(t, err)
	require.Equal(t, scoring.ClassificationPresent, out.Attempt.Classification.State)

	saved, err := st.GetAttempt(ctx, out.Attempt.ID)
	require.NoError(t, err)
	c := saved.Classification
	require.Equal(t, scoring.ClassificationPresent, c.State)
	require.Equal(t, 1, c.Tally[scoring.ErrorCarelessSlip])
	require.Equal(t, 1, c.Tally[scoring.ErrorConceptual])
	require.Equal(t, scoring.ErrorCorrect, c.Tags[0].Type)
	require.Equal(t, scoring.ErrorCarelessSlip, c.Tags[8].Type)
	require.InDelta(t, 2.5, saved.TotalTimeSeconds, 1e-9)
}

func TestSubmit_AnalysisFailureKeepsAttempt(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t)
	z := tenQuestionQuiz("u1")
	require.NoError(t, st.SaveQuiz(ctx, z))

	an := &stubAnalyzer{err: fmt.Errorf("%w: provider down", analysis.ErrAnalysisUnavailable)}
	svc := NewService(st, an, nil, Config{}, nil)

	out, err := svc.Submit(ctx, Submission{QuizID: z.ID, Answers: eightRight()})
	require.NoError(t, err)

	saved, err := st.GetAttempt(ctx, out.Attempt.ID)
	require.NoError(t, err)
	require.Equal(t, 8, saved.Score)
	require.Equal(t, scoring.ClassificationUnavailable, saved.Classification.State)
	require.Contains(t, saved.Classification.Reason, "provider down")
}

func TestSubmit_AsyncAnalysis(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t)
	z := tenQuestionQuiz("u1")
	require.NoError(t, st.SaveQuiz(ctx, z))

	an := &stubAnalyzer{report: &analysis.Report{Feedback: "ok"}, block: make(chan struct{})}
	svc := NewService(st, an, nil, Config{AsyncAnalysis: true}, nil)

	out, err := svc.Submit(ctx, Submission{QuizID: z.ID, Answers: eightRight()})
	require.NoError(t, err)
	require.True(t, out.AnalysisQueued)
	require.Equal(t, scoring.ClassificationPending, out.Attempt.Classification.State)

	saved, err := st.GetAttempt(ctx, out.Attempt.ID)
	require.NoError(t, err)
	require.Equal(t, scoring.ClassificationPending, saved.Classification.State)

	close(an.block)
	svc.Close()

	saved, err = st.GetAttempt(ctx, out.Attempt.ID)
	require.NoError(t, err)
	require.Equal(t, scoring.ClassificationPresent, saved.Classification.State)
	require.Equal(t, "ok", saved.Classification.Feedback)
}

func TestSubmit_AsyncQueueFull(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t)
	zs := saveQuizzes(t, st, 4)

	an := &stubAnalyzer{report: &analysis.Report{}, block: make(chan struct{})}
	svc := NewService(st, an, nil, Config{AsyncAnalysis: true, QueueSize: 1}, nil)

	// The worker takes at most one job and blocks, the queue holds one more.
	var last *Submitted
	for _, z := range zs[:3] {
		out, err := svc.Submit(ctx, Submission{QuizID: z.ID, Answers: eightRight()})
		require.NoError(t, err)
		last = out
	}
	close(an.block)
	svc.Close()

	saved, err := st.GetAttempt(ctx, last.Attempt.ID)
	require.NoError(t, err)
	if last.AnalysisQueued {
		require.Equal(t, scoring.ClassificationPresent, saved.Classification.State)
	} else {
		require.Equal(t, scoring.ClassificationUnavailable, saved.Classification.State)
		require.Equal(t, "analysis queue full", saved.Classification.Reason)
	}

	// After Close nothing is queued.
	out, err := svc.Submit(ctx, Submission{QuizID: zs[3].ID, Answers: eightRight()})
	require.NoError(t, err)
	require.False(t, out.AnalysisQueued)
	require.Equal(t, "analysis worker stopped", out.Attempt.Classification.Reason)
}

func TestSubmit_SyncAnalysisOutlivesCanceledRequest(t *testing.T) {
	st := openTestStore(t)
	z := tenQuestionQuiz("u1")
	require.NoError(t, st.SaveQuiz(context.Background(), z))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	an := &stubAnalyzer{report: &analysis.Report{Feedback: "Keep going."}, cancel: cancel}
	svc := NewService(st, an, nil, Config{}, nil)

	out, err := svc.Submit(ctx, Submission{QuizID: z.ID, Answers: eightRight()})
	require.NoError(t, err)
	require.Error(t, ctx.Err())

	saved, err := st.GetAttempt(context.Background(), out.Attempt.ID)
	require.NoError(t, err)
	require.Equal(t, scoring.ClassificationPresent, saved.Classification.State)
	require.Equal(t, "Keep going.", saved.Classification.Feedback)
}

func TestSubmit_QuizSubmittedOnce(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t)
	z := tenQuestionQuiz("u1")
	require.NoError(t, st.SaveQuiz(ctx, z))
	svc := NewService(st, nil, nil, Config{}, nil)

	_, err := svc.Submit(ctx, Submission{QuizID: z.ID, Answers: eightRight(), SubmittedAt: day(2026, 3, 1)})
	require.NoError(t, err)

	_, err = svc.Submit(ctx, Submission{QuizID: z.ID, Answers: eightRight(), SubmittedAt: day(2026, 3, 2)})
	require.ErrorIs(t, err, store.ErrAlreadySubmitted)

	g, err := svc.Gamification(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, 80, g.Points)
	require.Equal(t, 1, g.CurrentStreak)

	list, err := st.ListAttempts(ctx, "u1", 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
}

func TestSubmit_RecordsLeaderboard(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t)
	z := tenQuestionQuiz("u1")
	require.NoError(t, st.SaveQuiz(ctx, z))

	board := &recordingBoard{}
	svc := NewService(st, nil, board, Config{}, nil)

	_, err := svc.Submit(ctx, Submission{QuizID: z.ID, Answers: eightRight()})
	require.NoError(t, err)
	require.Len(t, board.states, 1)
	require.Equal(t, 80, board.states[0].Points)
}

type recordingBoard struct {
	leaderboard.StoreBoard
	states []scoring.State
}

func (b *recordingBoard) Record(_ context.Context, st scoring.State) error {
	b.states = append(b.states, st)
	return nil
}

// memRepos is an in-memory Repos with optimistic versioning. conflicts
// makes that many state saves fail as if another process won the race.
type memRepos struct {
	mu        sync.Mutex
	quizzes   map[string]*quiz.Quiz
	attempts  map[string]*scoring.Attempt
	states    map[string]scoring.State
	conflicts int
}

func newMemRepos(zs ...*quiz.Quiz) *memRepos {
	m := &memRepos{
		quizzes:  make(map[string]*quiz.Quiz),
		attempts: make(map[string]*scoring.Attempt),
		states:   make(map[string]scoring.State),
	}
	for _, z := range zs {
		m.quizzes[z.ID] = z
	}
	return m
}

func (m *memRepos) SaveQuiz(_ context.Context, z *quiz.Quiz) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.quizzes[z.ID] = z
	return nil
}

func (m *memRepos) GetQuiz(_ context.Context, id string) (*quiz.Quiz, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	z, ok := m.quizzes[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return z, nil
}

func (m *memRepos) SaveAttempt(_ context.Context, a *scoring.Attempt) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saveAttempt(a)
}

func (m *memRepos) saveAttempt(a *scoring.Attempt) (string, error) {
	for _, prev := range m.attempts {
		if prev.QuizID == a.QuizID {
			return "", store.ErrAlreadySubmitted
		}
	}
	a.ID = fmt.Sprintf("a%d", len(m.attempts)+1)
	m.attempts[a.ID] = a.Clone()
	return a.ID, nil
}

func (m *memRepos) GetAttempt(_ context.Context, id string) (*scoring.Attempt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.attempts[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return a.Clone(), nil
}

func (m *memRepos) ListAttempts(context.Context, string, int) ([]*scoring.Attempt, error) {
	return nil, errors.New("not implemented")
}

func (m *memRepos) UpdateAttemptErrorClassification(_ context.Context, id string, c scoring.Classification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.attempts[id]
	if !ok {
		return store.ErrNotFound
	}
	a.Classification = c
	return nil
}

func (m *memRepos) LoadGamificationState(_ context.Context, userID string) (*scoring.State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.states[userID]
	if !ok {
		return nil, nil
	}
	c := st.Clone()
	return &c, nil
}

func (m *memRepos) SaveGamificationState(_ context.Context, st scoring.State) (scoring.State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saveState(st)
}

func (m *memRepos) saveState(st scoring.State) (scoring.State, error) {
	cur := m.states[st.UserID]
	if m.conflicts > 0 {
		m.conflicts--
		cur.UserID = st.UserID
		cur.Points += 5
		cur.Version++
		m.states[st.UserID] = cur
		return scoring.State{}, store.ErrConflict
	}
	if cur.Version != st.Version {
		return scoring.State{}, store.ErrConflict
	}
	st.Version++
	m.states[st.UserID] = st.Clone()
	return st, nil
}

func (m *memRepos) SaveSubmission(_ context.Context, a *scoring.Attempt, st scoring.State) (scoring.State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, prev := range m.attempts {
		if prev.QuizID == a.QuizID {
			return st, store.ErrAlreadySubmitted
		}
	}
	saved, err := m.saveState(st)
	if err != nil {
		return st, err
	}
	if _, err := m.saveAttempt(a); err != nil {
		return st, err
	}
	return saved, nil
}

func (m *memRepos) TopPoints(context.Context, int) ([]scoring.State, error) {
	return nil, errors.New("not implemented")
}

func TestSubmit_RetriesOnConflict(t *testing.T) {
	z := tenQuestionQuiz("u1")
	repos := newMemRepos(z)
	repos.conflicts = 2
	svc := NewService(repos, nil, nil, Config{}, nil)

	out, err := svc.Submit(context.Background(), Submission{QuizID: z.ID, Answers: eightRight()})
	require.NoError(t, err)
	// Two concurrent writers added 5 points each before this save won.
	require.Equal(t, 90, out.Gamification.Points)
	require.Equal(t, int64(3), out.Gamification.Version)
	require.Len(t, repos.attempts, 1, "attempt is saved once")
}

func TestSubmit_GivesUpAfterMaxRetries(t *testing.T) {
	z := tenQuestionQuiz("u1")
	repos := newMemRepos(z)
	repos.conflicts = 10
	svc := NewService(repos, nil, nil, Config{MaxStateRetries: 2}, nil)

	_, err := svc.Submit(context.Background(), Submission{QuizID: z.ID, Answers: eightRight()})
	require.ErrorIs(t, err, store.ErrConflict)
	require.Empty(t, repos.attempts, "a lost submission leaves no attempt behind")
	require.Equal(t, 10, repos.conflicts+2, "one save per allowed try")
}

func TestSubmit_ConcurrentSameUser(t *testing.T) {
	const n = 20
	repos := newMemRepos()
	zs := make([]*quiz.Quiz, n)
	for i := range zs {
		zs[i] = tenQuestionQuiz("u1")
		repos.quizzes[zs[i].ID] = zs[i]
	}
	svc := NewService(repos, nil, nil, Config{}, nil)

	var wg sync.WaitGroup
	errs := make(chan error, n)
	for _, z := range zs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Submit(context.Background(), Submission{QuizID: z.ID, Answers: eightRight(), SubmittedAt: day(2026, 3, 1)})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	st, err := svc.Gamification(context.Background(), "u1")
	require.NoError(t, err)
	require.Equal(t, n*80, st.Points, "no lost updates")
	require.Equal(t, 1, st.CurrentStreak)
	require.Len(t, repos.attempts, n)
	require.Zero(t, svc.locks.size())
}

func TestSubmit_StreakAcrossTimeZone(t *testing.T) {
	z, next := tenQuestionQuiz("u1"), tenQuestionQuiz("u1")
	repos := newMemRepos(z, next)
	kolkata := time.FixedZone("IST", 5*3600+1800)
	svc := NewService(repos, nil, nil, Config{Location: kolkata}, nil)

	// 20:00 UTC on the 1st is already the 2nd in IST.
	first := time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC)
	second := time.Date(2026, 3, 3, 1, 0, 0, 0, time.UTC)

	_, err := svc.Submit(context.Background(), Submission{QuizID: z.ID, Answers: eightRight(), SubmittedAt: first})
	require.NoError(t, err)
	out, err := svc.Submit(context.Background(), Submission{QuizID: next.ID, Answers: eightRight(), SubmittedAt: second})
	require.NoError(t, err)
	require.Equal(t, 2, out.Gamification.CurrentStreak)
	require.Equal(t, "2026-03-03", out.Attempt.Date.String())
}
