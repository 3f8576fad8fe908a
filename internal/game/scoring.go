package game

import "github.com/kapu/quien-soy-bot-go/internal/domain"

const pointsPerUnusedHint = 100

// Score returns the points awarded for a correct guess made with
// revealedHints hints visible: 500 with one hint down to 100 with all five.
// Values outside [1,5] are clamped.
func Score(revealedHints int) int {
	if revealedHints < 1 {
		revealedHints = 1
	}
	if revealedHints > domain.HintCount {
		revealedHints = domain.HintCount
	}
	return (domain.HintCount + 1 - revealedHints) * pointsPerUnusedHint
}
