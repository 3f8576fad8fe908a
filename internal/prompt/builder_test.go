package prompt

import (
	"strings"
	"testing"
)

func TestBuildCharacterPromptIncludesExclusions(t *testing.T) {
	pb := NewPromptBuilder()
	got := pb.BuildCharacterPrompt(CharacterPromptData{
		Theme:       "la cultura española",
		Language:    "español",
		HintCount:   5,
		ExcludeList: []string{"Rosalía", "Rafa Nadal"},
	})

	for _, want := range []string{"la cultura española", "Rosalía, Rafa Nadal", "5 pistas", "imageSearchQuery"} {
		if !strings.Contains(got, want) {
			t.Fatalf("prompt missing %q:\n%s", want, got)
		}
	}
}

func TestBuildCharacterPromptWithoutExclusions(t *testing.T) {
	pb := NewPromptBuilder()
	got := pb.BuildCharacterPrompt(CharacterPromptData{Theme: "la cultura española", Language: "español", HintCount: 5})
	if strings.Contains(got, "No elijas") {
		t.Fatalf("prompt should not mention exclusions:\n%s", got)
	}
}

func TestBuildJudgePrompt(t *testing.T) {
	pb := NewPromptBuilder()
	got := pb.BuildJudgePrompt(JudgePromptData{Guess: "cervantes", Answer: "Miguel de Cervantes"})
	if !strings.Contains(got, `"cervantes"`) || !strings.Contains(got, `"Miguel de Cervantes"`) || !strings.Contains(got, "isCorrect") {
		t.Fatalf("unexpected judge prompt:\n%s", got)
	}
}

func TestRenderUnknownTemplate(t *testing.T) {
	pb := NewPromptBuilder()
	if _, err := pb.Render(TemplateName("missing.yaml"), nil); err == nil {
		t.Fatal("expected error for a missing template")
	}
}

func TestFallbackPrompts(t *testing.T) {
	got := FallbackCharacterPrompt(CharacterPromptData{Theme: "cine", Language: "español", HintCount: 5, ExcludeList: []string{"Almodóvar"}})
	if !strings.Contains(got, "Almodóvar") || !strings.Contains(got, "5 pistas") {
		t.Fatalf("unexpected fallback prompt: %s", got)
	}
	if got := FallbackJudgePrompt(JudgePromptData{Guess: "a", Answer: "b"}); !strings.Contains(got, "isCorrect") {
		t.Fatalf("unexpected fallback judge prompt: %s", got)
	}
}
