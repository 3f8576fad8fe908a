package prompt

import (
	"fmt"
	"strings"
)

func FallbackCharacterPrompt(data CharacterPromptData) string {
	exclude := ""
	if len(data.ExcludeList) > 0 {
		exclude = fmt.Sprintf(" No elijas a ninguno de estos: %s.", strings.Join(data.ExcludeList, ", "))
	}
	return fmt.Sprintf(`Genera un personaje famoso de %s para el juego "¿Quién Soy?".%s Responde en el idioma %s. Devuelve exactamente %d pistas de la más difícil a la más fácil; la última debe ser bastante reveladora. Campos: name, category, hints, description, imageSearchQuery.`,
		data.Theme, exclude, data.Language, data.HintCount)
}

func FallbackJudgePrompt(data JudgePromptData) string {
	return fmt.Sprintf(`¿Es "%s" una respuesta correcta o muy aproximada para el personaje "%s"? Responde solo con un booleano en formato JSON {"isCorrect": bool}. Considera variaciones ortográficas menores o nombres incompletos conocidos.`,
		data.Guess, data.Answer)
}
