package prompt

type CharacterPromptData struct {
	Theme       string
	Language    string
	HintCount   int
	ExcludeList []string
}

type JudgePromptData struct {
	Guess  string
	Answer string
}

// System instructions sent alongside the rendered templates.
const (
	CharacterSystemInstruction = "Eres un experto en cultura, cine, música, deportes e historia. Tu objetivo es crear desafíos entretenidos para un juego de adivinanzas."
	JudgeSystemInstruction     = "Eres el árbitro imparcial de un juego de adivinanzas. Juzgas si una respuesta identifica al personaje correcto."
)
