package adapter

import (
	stderrors "errors"
	"fmt"
	"strings"
	"text/template"

	"github.com/kapu/quien-soy-bot-go/internal/constants"
	"github.com/kapu/quien-soy-bot-go/internal/domain"
	"github.com/kapu/quien-soy-bot-go/internal/game"
	"github.com/kapu/quien-soy-bot-go/internal/util"
	"github.com/kapu/quien-soy-bot-go/pkg/errors"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Messages shown when the gateway fails. Both leave the session usable.
const (
	MsgGenerationFailed = "Vaya, algo ha fallado al buscar al personaje. ¡Reintenta!"
	MsgJudgeFailed      = "No he podido comprobar tu respuesta. ¡Inténtalo otra vez!"
	MsgUnexpected       = "Algo ha ido mal. ¡Inténtalo de nuevo!"
)

type roundView struct {
	Prefix       string
	Category     string
	Hints        []string
	HintNumber   int
	LatestHint   string
	NextHint     int
	RoundValue   string
	TotalScore   string
	StrikesLeft  int
	Guess        string
	RevealedHint bool
}

type finishedView struct {
	Prefix      string
	Won         bool
	Name        string
	Description string
	ImageURL    string
	RoundScore  string
	TotalScore  string
}

type statsEntryView struct {
	Short string
	Won   bool
	Score string
}

type summaryView struct {
	Prefix     string
	Entries    []statsEntryView
	Played     int
	Wins       int
	TotalScore string
	MaxScore   string
	MinScore   string
	Message    string
}

// ResponseFormatter renders game replies in Spanish with locale-aware
// numbers.
type ResponseFormatter struct {
	prefix  string
	printer *message.Printer
	tmpl    *template.Template
}

func NewResponseFormatter(prefix string, locale language.Tag) (*ResponseFormatter, error) {
	if strings.TrimSpace(prefix) == "" {
		prefix = "!"
	}
	tmpl, err := loadFormatterTemplates()
	if err != nil {
		return nil, fmt.Errorf("load formatter templates: %w", err)
	}
	return &ResponseFormatter{
		prefix:  prefix,
		printer: message.NewPrinter(locale),
		tmpl:    tmpl,
	}, nil
}

func (f *ResponseFormatter) Prefix() string {
	return f.prefix
}

func (f *ResponseFormatter) FormatLoading() string {
	return f.render("loading", nil)
}

func (f *ResponseFormatter) FormatChecking() string {
	return f.render("checking", nil)
}

func (f *ResponseFormatter) FormatRoundStarted(snap game.Snapshot) string {
	return f.render("round_started", f.roundView(snap))
}

// FormatRoundStatus re-renders the round in progress, used when someone asks
// for the score mid-round.
func (f *ResponseFormatter) FormatRoundStatus(snap game.Snapshot) string {
	if snap.Status != game.StatusPlaying {
		return f.FormatNoRound()
	}
	return f.render("round_status", f.roundView(snap))
}

func (f *ResponseFormatter) FormatHintRevealed(snap game.Snapshot) string {
	return f.render("hint_revealed", f.roundView(snap))
}

func (f *ResponseFormatter) FormatNoMoreHints(snap game.Snapshot) string {
	return f.render("no_more_hints", f.roundView(snap))
}

func (f *ResponseFormatter) FormatWrongGuess(guess string, result game.GuessResult) string {
	view := f.roundView(result.Snapshot)
	view.Guess = guess
	view.RevealedHint = result.RevealedHint
	return f.render("wrong_guess", view)
}

// FormatRoundFinished renders the win or loss screen. imageURL may be empty.
func (f *ResponseFormatter) FormatRoundFinished(result game.GuessResult, imageURL string) string {
	snap := result.Snapshot
	view := finishedView{
		Prefix:     f.prefix,
		Won:        result.Outcome == game.OutcomeCorrect,
		RoundScore: f.number(result.RoundScore),
		TotalScore: f.number(snap.Score),
		ImageURL:   imageURL,
	}
	if snap.Character != nil {
		view.Name = snap.Character.Name
		view.Description = util.TruncateString(snap.Character.Description, constants.StringLimits.Description)
	}
	return f.render("round_finished", view)
}

func (f *ResponseFormatter) FormatScore(snap game.Snapshot) string {
	return f.render("score", summaryView{
		Prefix:     f.prefix,
		Played:     len(snap.History),
		Wins:       snap.Wins,
		TotalScore: f.number(snap.Score),
	})
}

// FormatStats lists recent rounds, oldest first, by the first word of the
// character's name.
func (f *ResponseFormatter) FormatStats(recent []domain.RoundSummary, totalScore int) string {
	entries := make([]statsEntryView, 0, len(recent))
	for _, entry := range recent {
		entries = append(entries, statsEntryView{
			Short: util.TruncateString(domain.ShortName(entry.Name), constants.StringLimits.HistoryName),
			Won:   entry.Won,
			Score: f.number(entry.Score),
		})
	}
	return f.render("stats", summaryView{
		Prefix:     f.prefix,
		Entries:    entries,
		TotalScore: f.number(totalScore),
	})
}

func (f *ResponseFormatter) FormatHelp() string {
	return f.render("help", summaryView{
		Prefix:   f.prefix,
		MaxScore: f.number(game.Score(1)),
		MinScore: f.number(game.Score(domain.HintCount)),
	})
}

func (f *ResponseFormatter) FormatNoRound() string {
	return f.render("no_round", summaryView{Prefix: f.prefix})
}

func (f *ResponseFormatter) FormatGuessUsage() string {
	return f.render("guess_usage", summaryView{Prefix: f.prefix})
}

func (f *ResponseFormatter) FormatError(msg string) string {
	return f.render("error", summaryView{Message: msg})
}

// FormatGatewayError picks the user-facing message for an error returned by
// the session.
func (f *ResponseFormatter) FormatGatewayError(err error) string {
	var genErr *errors.GenerationError
	var judgeErr *errors.JudgeError
	switch {
	case stderrors.As(err, &genErr):
		return f.FormatError(MsgGenerationFailed)
	case stderrors.As(err, &judgeErr):
		return f.FormatError(MsgJudgeFailed)
	default:
		return f.FormatError(MsgUnexpected)
	}
}

func (f *ResponseFormatter) roundView(snap game.Snapshot) roundView {
	visible := snap.VisibleHints()
	hints := make([]string, len(visible))
	for i, hint := range visible {
		hints[i] = util.TruncateString(hint, constants.StringLimits.Hint)
	}
	view := roundView{
		Prefix:      f.prefix,
		Hints:       hints,
		HintNumber:  len(hints),
		TotalScore:  f.number(snap.Score),
		RoundValue:  f.number(game.Score(snap.RevealedHints)),
		StrikesLeft: snap.StrikesLeft,
	}
	if snap.Character != nil {
		view.Category = snap.Character.Category
	}
	if len(hints) > 0 {
		view.LatestHint = hints[len(hints)-1]
	}
	if snap.RevealedHints < domain.HintCount {
		view.NextHint = snap.RevealedHints + 1
	}
	return view
}

func (f *ResponseFormatter) number(n int) string {
	return f.printer.Sprintf("%d", n)
}

func (f *ResponseFormatter) render(name string, data any) string {
	out, err := executeTemplate(f.tmpl, name, data)
	if err != nil {
		return "⚠️ " + MsgUnexpected
	}
	return out
}
