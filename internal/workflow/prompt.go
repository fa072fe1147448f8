package workflow

import (
	"fmt"
	"strings"
)

func pick(xs []string, i int) string {
	if i < len(xs) {
		return xs[i]
	}
	return xs[0]
}

// RenderSoraPrompt builds the structured vertical-ad prompt from the product
// brief and the picked competitor ad's analysis. The competitor material is
// inspiration only; all copy and visuals in the prompt are the brief's own.
func RenderSoraPrompt(brief *ProductBrief, analysis map[string]any) string {
	hook, _ := analysis["hook"].(string)
	summary, _ := analysis["ad_summary"].(string)
	hook = strings.TrimSpace(hook)
	summary = strings.TrimSpace(summary)
	if hook == "" {
		hook = "(hook unavailable)"
	}
	if summary == "" {
		summary = "(summary unavailable)"
	}

	colors := brief.Brand.Colors
	features := brief.Claims.Features
	outcomes := brief.Claims.Outcomes
	proof := brief.ProofPoints()
	hookLine := brief.HookLine()

	var b strings.Builder
	fmt.Fprintf(&b, "Use case: paid social (vertical video ad)\n")
	fmt.Fprintf(&b, "Primary request: Create an 8s vertical ad for %q inspired by a top competitor ad's pacing: bold high-contrast captions, quick beats, and a product UI reveal. Use original visuals and copy.\n\n", brief.ProductName)
	fmt.Fprintf(&b, "Competitor inspiration (do not copy visuals): %s\n", summary)
	fmt.Fprintf(&b, "Competitor hook pattern: %s\n", hook)
	fmt.Fprintf(&b, "Our hook (verbatim): %q\n\n", hookLine)
	fmt.Fprintf(&b, "Scene/background: Dark premium gradient background (base %s) with subtle grain and faint glow accents. UI panels float with parallax.\n", colors.BackgroundDark)
	fmt.Fprintf(&b, "Subject: Original abstract non-human product visuals (no real person, no face realism). Message bubbles + a phone UI mock in a clean frame.\n")
	fmt.Fprintf(&b, "Action: Rapid caption beats + UI cuts. Show the product in action. End card with brand name + CTA.\n")
	fmt.Fprintf(&b, "Camera: Locked-off with punch-in zooms on UI; quick jump cuts; subtle parallax; clean motion.\n")
	fmt.Fprintf(&b, "Lighting/mood: Premium, moody, confident, reassuring.\n")
	fmt.Fprintf(&b, "Color palette: %s (background), %s (accent), %s (soft highlight), %s (UI surface).\n", colors.BackgroundDark, colors.Primary, colors.PrimaryForeground, colors.SurfaceLight)
	fmt.Fprintf(&b, "Style/format: minimal motion-graphics + UI mock; bold kinetic typography; high readability; social ad pacing.\n\n")
	fmt.Fprintf(&b, "Timing/beats:\n")
	fmt.Fprintf(&b, "- 0.0-1.0s: Big caption hook (use the verbatim hook). Quick punch-in.\n")
	fmt.Fprintf(&b, "- 1.0-3.0s: 2 proof points as bold captions over UI snippets.\n")
	fmt.Fprintf(&b, "- 3.0-6.0s: Show %q delivering its core feature; keep UI legible.\n", brief.ProductName)
	fmt.Fprintf(&b, "- 6.0-8.0s: End card with %q and a clear Download CTA.\n\n", brief.ProductName)
	fmt.Fprintf(&b, "On-screen proof points (choose 2, keep very short):\n")
	fmt.Fprintf(&b, "- %s\n", pick(proof, 0))
	fmt.Fprintf(&b, "- %s\n", pick(proof, 1))
	fmt.Fprintf(&b, "- %s\n\n", pick(proof, 2))
	fmt.Fprintf(&b, "Product feature anchors (do not over-claim):\n")
	fmt.Fprintf(&b, "- %s\n", pick(features, 0))
	fmt.Fprintf(&b, "- %s\n", pick(features, 1))
	fmt.Fprintf(&b, "- %s\n\n", pick(features, 2))
	fmt.Fprintf(&b, "Desired outcomes:\n")
	fmt.Fprintf(&b, "- %s\n", pick(outcomes, 0))
	fmt.Fprintf(&b, "- %s\n\n", pick(outcomes, 1))
	fmt.Fprintf(&b, "Constraints:\n")
	fmt.Fprintf(&b, "- No real people; no faces; no copyrighted characters; no logos besides the text %q.\n", brief.ProductName)
	fmt.Fprintf(&b, "- Keep all copy PG-13.\n")
	fmt.Fprintf(&b, "- Avoid: %s\n\n", strings.Join(brief.Claims.Forbidden, ", "))
	fmt.Fprintf(&b, "Audio: subtle modern synth pulse + soft whooshes (no recognizable song).\n")
	fmt.Fprintf(&b, "Text (verbatim): %q\n", brief.ProductName)
	fmt.Fprintf(&b, "Avoid: unreadable UI text, messy artifacts, excessive motion blur, jitter.\n")
	return b.String()
}
