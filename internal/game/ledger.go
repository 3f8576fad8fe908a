package game

import "github.com/kapu/quien-soy-bot-go/internal/domain"

// Ledger is the append-only list of finished rounds. It has value semantics:
// Append returns a new Ledger and never touches the receiver's backing array,
// so a State copy can be held without aliasing later rounds.
type Ledger struct {
	entries []domain.RoundSummary
}

func (l Ledger) Append(summary domain.RoundSummary) Ledger {
	entries := make([]domain.RoundSummary, len(l.entries), len(l.entries)+1)
	copy(entries, l.entries)
	return Ledger{entries: append(entries, summary)}
}

// Names lists every character name in completion order.
func (l Ledger) Names() []string {
	names := make([]string, 0, len(l.entries))
	for _, entry := range l.entries {
		names = append(names, entry.Name)
	}
	return names
}

// Recent returns the last n summaries, oldest first.
func (l Ledger) Recent(n int) []domain.RoundSummary {
	if n <= 0 {
		return []domain.RoundSummary{}
	}
	start := len(l.entries) - n
	if start < 0 {
		start = 0
	}
	out := make([]domain.RoundSummary, len(l.entries)-start)
	copy(out, l.entries[start:])
	return out
}

func (l Ledger) Entries() []domain.RoundSummary {
	return l.Recent(len(l.entries))
}

func (l Ledger) Len() int {
	return len(l.entries)
}

// Wins counts the rounds that ended with a correct guess.
func (l Ledger) Wins() int {
	wins := 0
	for _, entry := range l.entries {
		if entry.Won {
			wins++
		}
	}
	return wins
}
