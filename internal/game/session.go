package game

import (
	"context"
	stderrors "errors"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/kapu/quien-soy-bot-go/internal/domain"
	"github.com/kapu/quien-soy-bot-go/pkg/errors"
	"go.uber.org/zap"
)

// ErrSuperseded is returned when a gateway response arrived after a newer
// round had already started. The response was dropped.
var ErrSuperseded = stderrors.New("response belongs to a superseded round")

// Outcome classifies what a submitted guess did to the round.
type Outcome string

const (
	OutcomeIgnored Outcome = "ignored"
	OutcomeCorrect Outcome = "correct"
	OutcomeWrong   Outcome = "wrong"
	OutcomeLost    Outcome = "lost"
)

// Snapshot is a read-only copy of the session state.
type Snapshot struct {
	RoundID       string
	Status        Status
	Character     *domain.Character
	RevealedHints int
	Attempts      int
	StrikesLeft   int
	Score         int
	HasWon        bool
	Verifying     bool
	History       []domain.RoundSummary
	Wins          int
}

// VisibleHints returns the hints revealed so far.
func (s Snapshot) VisibleHints() []string {
	if s.Character == nil {
		return nil
	}
	n := s.RevealedHints
	if n > len(s.Character.Hints) {
		n = len(s.Character.Hints)
	}
	return s.Character.Hints[:n]
}

// GuessResult reports a guess evaluation. Outcome is OutcomeIgnored whenever
// an error is returned alongside it.
type GuessResult struct {
	Outcome      Outcome
	RoundScore   int
	RevealedHint bool
	Snapshot     Snapshot
}

// Session owns the game state for the lifetime of the process. Gateway calls
// run without the lock held; every response is checked against the round
// token it was issued under before it may touch the state.
type Session struct {
	mu        sync.Mutex
	state     State
	gateway   Gateway
	logger    *zap.Logger
	roundID   uuid.UUID
	verifying bool
}

func NewSession(gateway Gateway, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Session{
		state:   NewState(),
		gateway: gateway,
		logger:  logger,
	}
}

// StartRound fetches a character that has not been played in this session.
// Any round in progress is abandoned without a history entry, and responses
// still in flight for it are discarded.
func (s *Session) StartRound(ctx context.Context) (Snapshot, error) {
	s.mu.Lock()
	token := uuid.New()
	s.roundID = token
	s.verifying = false
	s.state = BeginLoading(s.state)
	exclude := s.state.History.Names()
	s.mu.Unlock()

	s.logger.Debug("Fetching character",
		zap.String("round_id", token.String()),
		zap.Int("excluded", len(exclude)),
	)

	character, err := s.gateway.FetchCharacter(ctx, exclude)
	if err == nil {
		character = cloneCharacter(character)
		character.Normalize()
		if vErr := character.Validate(); vErr != nil {
			err = errors.NewGenerationError("generated character failed validation", "session", vErr)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.roundID != token {
		s.logger.Debug("Discarding character for superseded round", zap.String("round_id", token.String()))
		return s.snapshotLocked(), ErrSuperseded
	}

	if err != nil {
		s.state = ApplyFetchFailure(s.state)
		s.logger.Warn("Character fetch failed", zap.Error(err))
		return s.snapshotLocked(), asGenerationError(err)
	}

	s.state = ApplyCharacter(s.state, character)
	s.logger.Info("Round started",
		zap.String("round_id", token.String()),
		zap.String("category", character.Category),
		zap.Int("history", s.state.History.Len()),
	)
	return s.snapshotLocked(), nil
}

// RevealHint shows the next hint. The bool reports whether anything changed.
func (s *Session) RevealHint() (Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	before := s.state.RevealedHints
	s.state = RevealHint(s.state)
	return s.snapshotLocked(), s.state.RevealedHints != before
}

// SubmitGuess asks the judge about text and applies the verdict. Blank
// guesses, guesses outside a round and guesses made while another verdict is
// pending are ignored without error. The verdict is scored against the hints
// visible at submission, not those revealed while it was pending.
func (s *Session) SubmitGuess(ctx context.Context, text string) (GuessResult, error) {
	return s.SubmitGuessWithNotice(ctx, text, nil)
}

// SubmitGuessWithNotice is SubmitGuess with a hook that runs once the guess
// is accepted, before the judge is consulted. Ignored guesses never call it.
func (s *Session) SubmitGuessWithNotice(ctx context.Context, text string, accepted func(Snapshot)) (GuessResult, error) {
	guess := strings.TrimSpace(text)

	s.mu.Lock()
	if s.state.Status != StatusPlaying || s.state.Character == nil || guess == "" || s.verifying {
		result := GuessResult{Outcome: OutcomeIgnored, Snapshot: s.snapshotLocked()}
		s.mu.Unlock()
		return result, nil
	}
	s.verifying = true
	token := s.roundID
	answer := s.state.Character.Name
	revealed := s.state.RevealedHints
	pending := s.snapshotLocked()
	s.mu.Unlock()

	if accepted != nil {
		accepted(pending)
	}

	correct, err := s.gateway.JudgeGuess(ctx, guess, answer)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.roundID != token {
		s.logger.Debug("Discarding verdict for superseded round", zap.String("round_id", token.String()))
		return GuessResult{Outcome: OutcomeIgnored, Snapshot: s.snapshotLocked()}, ErrSuperseded
	}
	s.verifying = false

	if err != nil {
		s.logger.Warn("Guess verdict failed", zap.Error(err))
		return GuessResult{Outcome: OutcomeIgnored, Snapshot: s.snapshotLocked()}, asJudgeError(guess, err)
	}

	if correct {
		next, summary := ApplyCorrectGuessAt(s.state, revealed)
		s.state = next
		s.logger.Info("Round won",
			zap.String("round_id", token.String()),
			zap.Int("round_score", summary.Score),
			zap.Int("total_score", s.state.Score),
		)
		return GuessResult{
			Outcome:    OutcomeCorrect,
			RoundScore: summary.Score,
			Snapshot:   s.snapshotLocked(),
		}, nil
	}

	before := s.state.RevealedHints
	next, summary := ApplyWrongGuessAt(s.state, revealed)
	s.state = next

	if summary != nil {
		s.logger.Info("Round lost",
			zap.String("round_id", token.String()),
			zap.Int("attempts", s.state.Attempts),
		)
		return GuessResult{Outcome: OutcomeLost, Snapshot: s.snapshotLocked()}, nil
	}

	return GuessResult{
		Outcome:      OutcomeWrong,
		RevealedHint: s.state.RevealedHints != before,
		Snapshot:     s.snapshotLocked(),
	}, nil
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Recent returns the last n finished rounds, oldest first.
func (s *Session) Recent(n int) []domain.RoundSummary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.History.Recent(n)
}

func (s *Session) snapshotLocked() Snapshot {
	snap := Snapshot{
		Status:        s.state.Status,
		Character:     cloneCharacter(s.state.Character),
		RevealedHints: s.state.RevealedHints,
		Attempts:      s.state.Attempts,
		StrikesLeft:   s.state.StrikesLeft(),
		Score:         s.state.Score,
		HasWon:        s.state.HasWon,
		Verifying:     s.verifying,
		History:       s.state.History.Entries(),
		Wins:          s.state.History.Wins(),
	}
	if s.roundID != uuid.Nil {
		snap.RoundID = s.roundID.String()
	}
	return snap
}

func cloneCharacter(c *domain.Character) *domain.Character {
	if c == nil {
		return nil
	}
	clone := *c
	clone.Hints = append([]string(nil), c.Hints...)
	return &clone
}

func asGenerationError(err error) error {
	var genErr *errors.GenerationError
	if stderrors.As(err, &genErr) {
		return err
	}
	return errors.NewGenerationError("character generation failed", "gateway", err)
}

func asJudgeError(guess string, err error) error {
	var judgeErr *errors.JudgeError
	if stderrors.As(err, &judgeErr) {
		return err
	}
	return errors.NewJudgeError("guess verdict failed", guess, err)
}
