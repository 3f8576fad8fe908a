package game

import (
	"context"
	stderrors "errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kapu/quien-soy-bot-go/internal/domain"
	"github.com/kapu/quien-soy-bot-go/pkg/errors"
	"go.uber.org/zap"
)

type fakeGateway struct {
	mu         sync.Mutex
	characters []*domain.Character
	fetchErr   error
	verdicts   []bool
	judgeErr   error
	excludes   [][]string
	guesses    []string

	// when set, calls block until released
	fetchGate chan struct{}
	judgeGate chan struct{}
	entered   chan struct{}
}

func (f *fakeGateway) FetchCharacter(_ context.Context, exclude []string) (*domain.Character, error) {
	f.mu.Lock()
	f.excludes = append(f.excludes, append([]string(nil), exclude...))
	gate := f.fetchGate
	f.mu.Unlock()

	if gate != nil {
		if f.entered != nil {
			f.entered <- struct{}{}
		}
		<-gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	if len(f.characters) == 0 {
		return nil, fmt.Errorf("no characters left")
	}
	c := f.characters[0]
	f.characters = f.characters[1:]
	return c, nil
}

func (f *fakeGateway) JudgeGuess(_ context.Context, guess, _ string) (bool, error) {
	f.mu.Lock()
	f.guesses = append(f.guesses, guess)
	gate := f.judgeGate
	f.mu.Unlock()

	if gate != nil {
		if f.entered != nil {
			f.entered <- struct{}{}
		}
		<-gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.judgeErr != nil {
		return false, f.judgeErr
	}
	if len(f.verdicts) == 0 {
		return false, nil
	}
	v := f.verdicts[0]
	f.verdicts = f.verdicts[1:]
	return v, nil
}

func newTestSession(gw *fakeGateway) *Session {
	return NewSession(gw, zap.NewNop())
}

func TestSessionCorrectFirstGuessScoresFiveHundred(t *testing.T) {
	gw := &fakeGateway{
		characters: []*domain.Character{testCharacter("Rosalía")},
		verdicts:   []bool{true},
	}
	s := newTestSession(gw)

	snap, err := s.StartRound(context.Background())
	if err != nil {
		t.Fatalf("StartRound failed: %v", err)
	}
	if snap.Status != StatusPlaying || snap.RevealedHints != 1 || len(snap.Character.Hints) != domain.HintCount {
		t.Fatalf("unexpected snapshot after start: %+v", snap)
	}

	result, err := s.SubmitGuess(context.Background(), "rosalia")
	if err != nil {
		t.Fatalf("SubmitGuess failed: %v", err)
	}
	if result.Outcome != OutcomeCorrect || result.RoundScore != 500 || result.Snapshot.Score != 500 {
		t.Fatalf("unexpected result %+v", result)
	}
	if !result.Snapshot.HasWon || result.Snapshot.Status != StatusFinished {
		t.Fatalf("expected finished win, got %+v", result.Snapshot)
	}
	if len(result.Snapshot.History) != 1 || !result.Snapshot.History[0].Won {
		t.Fatalf("expected one winning summary, got %+v", result.Snapshot.History)
	}
}

func TestSessionWrongGuessesRevealThenStrike(t *testing.T) {
	gw := &fakeGateway{characters: []*domain.Character{testCharacter("Rosalía")}}
	s := newTestSession(gw)
	ctx := context.Background()

	if _, err := s.StartRound(ctx); err != nil {
		t.Fatalf("StartRound failed: %v", err)
	}

	for i := 0; i < 3; i++ {
		result, err := s.SubmitGuess(ctx, "Shakira")
		if err != nil {
			t.Fatalf("guess %d failed: %v", i, err)
		}
		if result.Outcome != OutcomeWrong || !result.RevealedHint {
			t.Fatalf("guess %d: expected wrong with reveal, got %+v", i, result)
		}
	}
	snap := s.Snapshot()
	if snap.RevealedHints != 4 || snap.Attempts != 0 || snap.Status != StatusPlaying {
		t.Fatalf("unexpected state after three misses: %+v", snap)
	}

	// fourth miss reveals the last hint
	if result, _ := s.SubmitGuess(ctx, "Shakira"); !result.RevealedHint || result.Snapshot.RevealedHints != 5 {
		t.Fatalf("expected last hint reveal, got %+v", result)
	}

	for i := 1; i <= 2; i++ {
		result, err := s.SubmitGuess(ctx, "Shakira")
		if err != nil {
			t.Fatalf("strike %d failed: %v", i, err)
		}
		if result.Outcome != OutcomeWrong || result.RevealedHint || result.Snapshot.Attempts != i {
			t.Fatalf("strike %d: unexpected result %+v", i, result)
		}
	}

	result, err := s.SubmitGuess(ctx, "Shakira")
	if err != nil {
		t.Fatalf("final strike failed: %v", err)
	}
	if result.Outcome != OutcomeLost || result.Snapshot.HasWon || result.Snapshot.Status != StatusFinished {
		t.Fatalf("expected lost round, got %+v", result)
	}
	history := result.Snapshot.History
	if len(history) != 1 || history[0].Won || history[0].Score != 0 {
		t.Fatalf("unexpected history %+v", history)
	}
	if result.Snapshot.Score != 0 {
		t.Fatalf("score must not change on a loss, got %d", result.Snapshot.Score)
	}
}

func TestSessionExcludesPreviousNamesInOrder(t *testing.T) {
	gw := &fakeGateway{
		characters: []*domain.Character{testCharacter("Rosalía"), testCharacter("Cervantes"), testCharacter("Nadal")},
		verdicts:   []bool{true, true},
	}
	s := newTestSession(gw)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := s.StartRound(ctx); err != nil {
			t.Fatalf("round %d start failed: %v", i, err)
		}
		if _, err := s.SubmitGuess(ctx, "answer"); err != nil {
			t.Fatalf("round %d guess failed: %v", i, err)
		}
	}
	if _, err := s.StartRound(ctx); err != nil {
		t.Fatalf("third start failed: %v", err)
	}

	last := gw.excludes[len(gw.excludes)-1]
	if len(last) != 2 || last[0] != "Rosalía" || last[1] != "Cervantes" {
		t.Fatalf("unexpected exclusion list %v", last)
	}
	if len(gw.excludes[0]) != 0 {
		t.Fatalf("first round must exclude nothing, got %v", gw.excludes[0])
	}
}

func TestSessionScoreByRevealedHints(t *testing.T) {
	for revealed := 1; revealed <= domain.HintCount; revealed++ {
		t.Run(fmt.Sprintf("hints_%d", revealed), func(t *testing.T) {
			gw := &fakeGateway{
				characters: []*domain.Character{testCharacter("Rosalía")},
				verdicts:   []bool{true},
			}
			s := newTestSession(gw)
			if _, err := s.StartRound(context.Background()); err != nil {
				t.Fatalf("start failed: %v", err)
			}
			for i := 1; i < revealed; i++ {
				s.RevealHint()
			}
			result, err := s.SubmitGuess(context.Background(), "Rosalía")
			if err != nil {
				t.Fatalf("guess failed: %v", err)
			}
			want := (6 - revealed) * 100
			if result.RoundScore != want || result.Snapshot.Score != want {
				t.Fatalf("expected %d, got round=%d total=%d", want, result.RoundScore, result.Snapshot.Score)
			}
		})
	}
}

func TestSessionFetchFailureReturnsGenerationError(t *testing.T) {
	gw := &fakeGateway{
		characters: []*domain.Character{testCharacter("Rosalía")},
		verdicts:   []bool{true},
	}
	s := newTestSession(gw)
	ctx := context.Background()

	if _, err := s.StartRound(ctx); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if _, err := s.SubmitGuess(ctx, "Rosalía"); err != nil {
		t.Fatalf("guess failed: %v", err)
	}

	gw.fetchErr = fmt.Errorf("upstream 503")
	snap, err := s.StartRound(ctx)

	var genErr *errors.GenerationError
	if !stderrors.As(err, &genErr) {
		t.Fatalf("expected GenerationError, got %v", err)
	}
	if !genErr.Retryable() {
		t.Fatalf("generation errors must be retryable")
	}
	if snap.Status != StatusIdle {
		t.Fatalf("expected IDLE after failure, got %s", snap.Status)
	}
	if snap.Score != 500 || len(snap.History) != 1 {
		t.Fatalf("failure must keep score and history, got %+v", snap)
	}
}

func TestSessionRejectsInvalidCharacter(t *testing.T) {
	broken := testCharacter("Rosalía")
	broken.Hints = broken.Hints[:3]
	gw := &fakeGateway{characters: []*domain.Character{broken}}
	s := newTestSession(gw)

	snap, err := s.StartRound(context.Background())
	var genErr *errors.GenerationError
	if !stderrors.As(err, &genErr) {
		t.Fatalf("expected GenerationError, got %v", err)
	}
	var vErr *errors.ValidationError
	if !stderrors.As(err, &vErr) || vErr.Field != "hints" {
		t.Fatalf("expected wrapped hints ValidationError, got %v", err)
	}
	if snap.Status != StatusIdle {
		t.Fatalf("expected IDLE, got %s", snap.Status)
	}
}

func TestSessionJudgeFailureLeavesRoundUntouched(t *testing.T) {
	gw := &fakeGateway{
		characters: []*domain.Character{testCharacter("Rosalía")},
		judgeErr:   fmt.Errorf("timeout"),
	}
	s := newTestSession(gw)
	ctx := context.Background()

	if _, err := s.StartRound(ctx); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	before := s.Snapshot()

	result, err := s.SubmitGuess(ctx, "Rosalía")
	var judgeErr *errors.JudgeError
	if !stderrors.As(err, &judgeErr) {
		t.Fatalf("expected JudgeError, got %v", err)
	}
	if result.Outcome != OutcomeIgnored {
		t.Fatalf("expected ignored outcome on error, got %s", result.Outcome)
	}
	after := s.Snapshot()
	if after.RevealedHints != before.RevealedHints || after.Attempts != before.Attempts || after.Status != StatusPlaying {
		t.Fatalf("state changed after verdict failure: before=%+v after=%+v", before, after)
	}
	if after.Verifying {
		t.Fatalf("verifying flag must be cleared after failure")
	}

	gw.judgeErr = nil
	gw.verdicts = []bool{true}
	if result, err := s.SubmitGuess(ctx, "Rosalía"); err != nil || result.Outcome != OutcomeCorrect {
		t.Fatalf("retry should succeed, got %+v, %v", result, err)
	}
}

func TestSessionIgnoresNoOpInputs(t *testing.T) {
	gw := &fakeGateway{characters: []*domain.Character{testCharacter("Rosalía")}}
	s := newTestSession(gw)
	ctx := context.Background()

	if result, err := s.SubmitGuess(ctx, "Rosalía"); err != nil || result.Outcome != OutcomeIgnored {
		t.Fatalf("guess while idle must be ignored, got %+v, %v", result, err)
	}
	if _, changed := s.RevealHint(); changed {
		t.Fatalf("hint while idle must be ignored")
	}

	if _, err := s.StartRound(ctx); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if result, err := s.SubmitGuess(ctx, "   \t"); err != nil || result.Outcome != OutcomeIgnored {
		t.Fatalf("blank guess must be ignored, got %+v, %v", result, err)
	}
	if len(gw.guesses) != 0 {
		t.Fatalf("judge must not be called for ignored guesses, got %v", gw.guesses)
	}
}

func TestSessionRejectsConcurrentGuess(t *testing.T) {
	gw := &fakeGateway{
		characters: []*domain.Character{testCharacter("Rosalía")},
		verdicts:   []bool{false},
	}
	s := newTestSession(gw)
	ctx := context.Background()
	if _, err := s.StartRound(ctx); err != nil {
		t.Fatalf("start failed: %v", err)
	}

	gw.judgeGate = make(chan struct{})
	gw.entered = make(chan struct{}, 1)

	done := make(chan GuessResult, 1)
	go func() {
		result, _ := s.SubmitGuess(ctx, "Shakira")
		done <- result
	}()
	<-gw.entered

	if !s.Snapshot().Verifying {
		t.Fatalf("expected verifying while verdict is pending")
	}
	second, err := s.SubmitGuess(ctx, "Rosalía")
	if err != nil || second.Outcome != OutcomeIgnored {
		t.Fatalf("concurrent guess must be rejected, got %+v, %v", second, err)
	}

	// hints may be revealed while a verdict is pending
	if _, changed := s.RevealHint(); !changed {
		t.Fatalf("hint reveal should be allowed while verifying")
	}

	close(gw.judgeGate)
	select {
	case first := <-done:
		if first.Outcome != OutcomeWrong || first.Snapshot.RevealedHints != 3 {
			t.Fatalf("unexpected first result %+v", first)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for verdict")
	}
	if len(gw.guesses) != 1 {
		t.Fatalf("judge should be called once, got %v", gw.guesses)
	}
}

func TestSessionDiscardsVerdictFromSupersededRound(t *testing.T) {
	gw := &fakeGateway{
		characters: []*domain.Character{testCharacter("Rosalía"), testCharacter("Cervantes")},
		verdicts:   []bool{true},
	}
	s := newTestSession(gw)
	ctx := context.Background()
	if _, err := s.StartRound(ctx); err != nil {
		t.Fatalf("start failed: %v", err)
	}

	gw.judgeGate = make(chan struct{})
	gw.entered = make(chan struct{}, 1)

	type outcome struct {
		result GuessResult
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		result, err := s.SubmitGuess(ctx, "Rosalía")
		done <- outcome{result, err}
	}()
	<-gw.entered

	gw.mu.Lock()
	gate := gw.judgeGate
	gw.judgeGate = nil
	gw.entered = nil
	gw.mu.Unlock()

	snap, err := s.StartRound(ctx)
	if err != nil {
		t.Fatalf("second start failed: %v", err)
	}
	if snap.Character.Name != "Cervantes" {
		t.Fatalf("expected new character, got %s", snap.Character.Name)
	}

	// release the stale verdict
	gw.mu.Lock()
	gw.verdicts = []bool{true}
	gw.mu.Unlock()
	close(gate)

	select {
	case o := <-done:
		if !stderrors.Is(o.err, ErrSuperseded) {
			t.Fatalf("expected ErrSuperseded, got %v", o.err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for stale verdict")
	}

	after := s.Snapshot()
	if after.Status != StatusPlaying || after.Score != 0 || len(after.History) != 0 {
		t.Fatalf("stale verdict mutated the new round: %+v", after)
	}
	if after.Character.Name != "Cervantes" {
		t.Fatalf("round character changed: %s", after.Character.Name)
	}
}

func TestSessionDiscardsCharacterFromSupersededFetch(t *testing.T) {
	gw := &fakeGateway{
		characters: []*domain.Character{testCharacter("Rosalía"), testCharacter("Cervantes")},
		fetchGate:  make(chan struct{}),
		entered:    make(chan struct{}, 1),
	}
	s := newTestSession(gw)
	ctx := context.Background()

	first := make(chan error, 1)
	go func() {
		_, err := s.StartRound(ctx)
		first <- err
	}()
	<-gw.entered

	gw.mu.Lock()
	gate := gw.fetchGate
	gw.fetchGate = nil
	gw.entered = nil
	gw.mu.Unlock()

	// the second fetch is served first
	snap, err := s.StartRound(ctx)
	if err != nil {
		t.Fatalf("second start failed: %v", err)
	}
	close(gate)

	if err := <-first; !stderrors.Is(err, ErrSuperseded) {
		t.Fatalf("expected ErrSuperseded for the first fetch, got %v", err)
	}
	if got := s.Snapshot(); got.RoundID != snap.RoundID || got.Character.Name != snap.Character.Name {
		t.Fatalf("superseded fetch replaced the round: %+v vs %+v", got, snap)
	}
}

func TestSnapshotIsDetached(t *testing.T) {
	gw := &fakeGateway{characters: []*domain.Character{testCharacter("Rosalía")}}
	s := newTestSession(gw)
	snap, err := s.StartRound(context.Background())
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}

	snap.Character.Hints[0] = "tampered"
	snap.Character.Name = "tampered"
	if got := s.Snapshot(); got.Character.Name != "Rosalía" || got.Character.Hints[0] != "pista 1" {
		t.Fatalf("snapshot mutation leaked into the session: %+v", got.Character)
	}
	if hints := s.Snapshot().VisibleHints(); len(hints) != 1 {
		t.Fatalf("expected a single visible hint, got %v", hints)
	}
}

// submitWhileRevealing starts a guess, reveals one hint while the verdict is
// held back, then releases it.
func submitWhileRevealing(t *testing.T, s *Session, gw *fakeGateway, guess string) GuessResult {
	t.Helper()
	ctx := context.Background()

	gw.mu.Lock()
	gw.judgeGate = make(chan struct{})
	gw.entered = make(chan struct{}, 1)
	gate := gw.judgeGate
	entered := gw.entered
	gw.mu.Unlock()

	done := make(chan GuessResult, 1)
	go func() {
		result, err := s.SubmitGuess(ctx, guess)
		if err != nil {
			t.Errorf("SubmitGuess failed: %v", err)
		}
		done <- result
	}()
	<-entered

	if _, changed := s.RevealHint(); !changed {
		t.Fatalf("expected a hint reveal while the verdict is pending")
	}
	close(gate)

	select {
	case result := <-done:
		gw.mu.Lock()
		gw.judgeGate = nil
		gw.entered = nil
		gw.mu.Unlock()
		return result
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for verdict")
		return GuessResult{}
	}
}

func TestSessionScoresHintsVisibleAtSubmission(t *testing.T) {
	gw := &fakeGateway{
		characters: []*domain.Character{testCharacter("Rosalía")},
		verdicts:   []bool{true},
	}
	s := newTestSession(gw)
	if _, err := s.StartRound(context.Background()); err != nil {
		t.Fatalf("StartRound failed: %v", err)
	}

	result := submitWhileRevealing(t, s, gw, "rosalia")
	if result.Outcome != OutcomeCorrect {
		t.Fatalf("expected correct outcome, got %+v", result)
	}
	if result.RoundScore != 500 || result.Snapshot.Score != 500 {
		t.Fatalf("guess sent with 1 hint must score 500, got round=%d total=%d", result.RoundScore, result.Snapshot.Score)
	}
	if result.Snapshot.History[0].Score != 500 {
		t.Fatalf("unexpected history %+v", result.Snapshot.History)
	}
}

func TestSessionWrongGuessBeforeLastHintIsNotAStrike(t *testing.T) {
	gw := &fakeGateway{
		characters: []*domain.Character{testCharacter("Rosalía")},
		verdicts:   []bool{false, false, false},
	}
	s := newTestSession(gw)
	ctx := context.Background()
	if _, err := s.StartRound(ctx); err != nil {
		t.Fatalf("StartRound failed: %v", err)
	}
	for i := 0; i < 3; i++ {
		s.RevealHint()
	}
	if got := s.Snapshot().RevealedHints; got != 4 {
		t.Fatalf("expected 4 hints before the guess, got %d", got)
	}

	result := submitWhileRevealing(t, s, gw, "Shakira")
	snap := result.Snapshot
	if result.Outcome != OutcomeWrong || snap.Status != StatusPlaying {
		t.Fatalf("expected the round to continue, got %+v", result)
	}
	if snap.Attempts != 0 || snap.RevealedHints != domain.HintCount {
		t.Fatalf("expected attempts=0 revealed=5, got attempts=%d revealed=%d", snap.Attempts, snap.RevealedHints)
	}
}

func TestSessionNoticeOnlyForAcceptedGuess(t *testing.T) {
	gw := &fakeGateway{
		characters: []*domain.Character{testCharacter("Rosalía")},
		verdicts:   []bool{false},
	}
	s := newTestSession(gw)
	ctx := context.Background()

	var notices atomic.Int32
	notice := func(snap Snapshot) {
		notices.Add(1)
		if !snap.Verifying || snap.Status != StatusPlaying {
			t.Errorf("notice should see the pending guess, got %+v", snap)
		}
	}

	if result, _ := s.SubmitGuessWithNotice(ctx, "Shakira", notice); result.Outcome != OutcomeIgnored {
		t.Fatalf("guess without a round should be ignored, got %+v", result)
	}
	if notices.Load() != 0 {
		t.Fatal("ignored guess must not trigger the notice")
	}

	if _, err := s.StartRound(ctx); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	gw.judgeGate = make(chan struct{})
	gw.entered = make(chan struct{}, 1)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = s.SubmitGuessWithNotice(ctx, "Shakira", notice)
	}()
	<-gw.entered

	_, _ = s.SubmitGuessWithNotice(ctx, "Rosalía", notice)
	_, _ = s.SubmitGuessWithNotice(ctx, "   ", notice)
	if notices.Load() != 1 {
		t.Fatalf("concurrent and blank guesses must not trigger the notice, got %d", notices.Load())
	}

	close(gw.judgeGate)
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for verdict")
	}
	if notices.Load() != 1 {
		t.Fatalf("expected exactly one notice, got %d", notices.Load())
	}
}
