package domain

// RoundSummary records how a finished round ended. Summaries are never
// modified once appended to the history.
type RoundSummary struct {
	Name  string `json:"name"`
	Won   bool   `json:"won"`
	Score int    `json:"score"`
}
