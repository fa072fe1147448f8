package workflow

import (
	"strings"
	"testing"
)

func TestRenderSoraPrompt(t *testing.T) {
	brief := validBrief()
	analysis := map[string]any{
		"hook":       "You're doing it wrong",
		"ad_summary": "Fast cuts over a phone UI with bold captions",
	}
	got := RenderSoraPrompt(brief, analysis)

	for _, want := range []string{
		`"TestApp"`,
		"Competitor inspiration (do not copy visuals): Fast cuts over a phone UI with bold captions",
		"Competitor hook pattern: You're doing it wrong",
		`Our hook (verbatim): "Try TestApp today"`,
		"#0b0a10",
		"#6e56cf",
		"- fast sync",
		"- save time",
		"Avoid: medical claims",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestRenderSoraPrompt_MissingAnalysis(t *testing.T) {
	got := RenderSoraPrompt(validBrief(), nil)
	if !strings.Contains(got, "(summary unavailable)") || !strings.Contains(got, "(hook unavailable)") {
		t.Error("missing analysis should use placeholders")
	}
}

func TestRenderSoraPrompt_ShortLists(t *testing.T) {
	brief := validBrief()
	brief.Claims.Outcomes = []string{"only one"}
	got := RenderSoraPrompt(brief, nil)
	// pick falls back to the first entry rather than panicking.
	if strings.Count(got, "- only one\n") != 2 {
		t.Errorf("short outcome list should repeat the first entry:\n%s", got)
	}
}

func TestPick(t *testing.T) {
	xs := []string{"a", "b"}
	if pick(xs, 0) != "a" || pick(xs, 1) != "b" || pick(xs, 5) != "a" {
		t.Error("pick should index or fall back to the first entry")
	}
}
