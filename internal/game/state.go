package game

import "github.com/kapu/quien-soy-bot-go/internal/domain"

// Status is the phase of the current round.
type Status string

const (
	StatusIdle     Status = "IDLE"
	StatusLoading  Status = "LOADING"
	StatusPlaying  Status = "PLAYING"
	StatusFinished Status = "FINISHED"
)

func (s Status) String() string {
	return string(s)
}

// strikeLimit is the attempts value at which a further wrong guess with all
// hints revealed ends the round. Three strikes in total.
const strikeLimit = 2

// State is the whole session aggregate. Transitions below are pure: they take
// a State and return the next one without mutating the input.
type State struct {
	Status        Status
	Character     *domain.Character
	RevealedHints int
	Attempts      int
	Score         int
	HasWon        bool
	History       Ledger
}

func NewState() State {
	return State{
		Status:        StatusIdle,
		RevealedHints: 1,
	}
}

// BeginLoading discards the current character and waits for a new one.
// Score and history are carried over.
func BeginLoading(s State) State {
	next := s
	next.Status = StatusLoading
	next.Character = nil
	next.HasWon = false
	return next
}

// ApplyCharacter starts a round with a freshly fetched character.
func ApplyCharacter(s State, character *domain.Character) State {
	next := s
	next.Status = StatusPlaying
	next.Character = character
	next.RevealedHints = 1
	next.Attempts = 0
	next.HasWon = false
	return next
}

// ApplyFetchFailure returns to Idle keeping score and history.
func ApplyFetchFailure(s State) State {
	next := s
	next.Status = StatusIdle
	next.Character = nil
	return next
}

// RevealHint shows one more hint. No-op outside Playing or at the cap.
func RevealHint(s State) State {
	if s.Status != StatusPlaying || s.RevealedHints >= domain.HintCount {
		return s
	}
	next := s
	next.RevealedHints = s.RevealedHints + 1
	return next
}

// ApplyCorrectGuess scores the round and finishes it. The returned summary is
// nil when the state was not Playing.
func ApplyCorrectGuess(s State) (State, *domain.RoundSummary) {
	return ApplyCorrectGuessAt(s, s.RevealedHints)
}

// ApplyCorrectGuessAt scores the round with the hint count visible when the
// guess was submitted. Hints revealed while the verdict was pending do not
// lower the award.
func ApplyCorrectGuessAt(s State, revealedAtGuess int) (State, *domain.RoundSummary) {
	if s.Status != StatusPlaying || s.Character == nil {
		return s, nil
	}

	summary := domain.RoundSummary{
		Name:  s.Character.Name,
		Won:   true,
		Score: Score(revealedAtGuess),
	}

	next := s
	next.Status = StatusFinished
	next.HasWon = true
	next.Score = s.Score + summary.Score
	next.History = s.History.Append(summary)
	return next, &summary
}

// ApplyWrongGuess either reveals the next hint or, once all hints are shown,
// counts a strike. Both branches read the values held before this guess, so a
// single wrong guess never does both. The third strike finishes the round and
// the returned summary is non-nil.
func ApplyWrongGuess(s State) (State, *domain.RoundSummary) {
	return ApplyWrongGuessAt(s, s.RevealedHints)
}

// ApplyWrongGuessAt picks between reveal and strike from the hint count
// visible when the guess was submitted. A guess sent while a hint was still
// hidden never counts as a strike, even if that hint was revealed by hand
// before the verdict arrived; the reveal is then a no-op.
func ApplyWrongGuessAt(s State, revealedAtGuess int) (State, *domain.RoundSummary) {
	if s.Status != StatusPlaying || s.Character == nil {
		return s, nil
	}

	if revealedAtGuess < domain.HintCount {
		return RevealHint(s), nil
	}

	next := s
	next.Attempts = s.Attempts + 1
	if s.Attempts < strikeLimit {
		return next, nil
	}

	summary := domain.RoundSummary{
		Name:  s.Character.Name,
		Won:   false,
		Score: 0,
	}
	next.Status = StatusFinished
	next.HasWon = false
	next.History = s.History.Append(summary)
	return next, &summary
}

// StrikesLeft is the number of wrong guesses still allowed once all hints
// are visible.
func (s State) StrikesLeft() int {
	left := strikeLimit + 1 - s.Attempts
	if left < 0 {
		return 0
	}
	return left
}
