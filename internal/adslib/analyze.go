package adslib

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"growthkit/internal/artifact"
	"growthkit/internal/media"
	"growthkit/internal/openai"
)

const imagePromptFormat = `You are analyzing a Meta Ads Library IMAGE ad for a creative inspiration library.

Return a single JSON object with these keys:
- ad_summary: string (1-2 sentences)
- hook: string (the hook line or visual hook; be specific)
- primary_message: string
- visual_description: string (what is shown)
- on_screen_text: list[string] (best-effort)
- style: object with keys: color_palette (list[string hex]), typography, layout, imagery_style, brand_vibes
- cta_offer: object with keys: cta, offer, urgency, audience
- inspiration_notes: list[string] (actionable tactics)

Context:
- ad_meta: %s
- extracted_text: %s
- computed_palettes_by_image: %s`

const videoPromptFormat = `You are analyzing a Meta Ads Library VIDEO ad for a creative inspiration library.

You will be given 1 frame per second (up to 30 seconds) in chronological order.

Return a single JSON object with these keys:
- ad_summary: string (1-2 sentences)
- hook: string (what the ad uses as the hook; reference transcript/opening frames)
- hook_timestamp_s: integer (best-effort)
- timeline: list of objects, each with keys: t_s (int), visual (string), on_screen_text (string|null), motion_editing (string|null)
- style: object with keys: color_palette (list[string hex]), typography, layout, imagery_style, motion_style, sound_style
- primary_message: string
- cta_offer: object with keys: cta, offer, urgency, audience
- inspiration_notes: list[string] (actionable tactics)

Context:
- ad_meta: %s
- extracted_text: %s
- transcript (first 30s): %s
- computed_overall_palette: %s

Frames are ordered from t=0 to t=%d.`

func jsonContext(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "null"
	}
	return string(b)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// analyzeImageAd sends up to 5 downscaled creative images to the vision
// model. A non-JSON reply comes back as {"raw_text": ...}.
func (t *Tracker) analyzeImageAd(ctx context.Context, meta *BundleMeta, imagePaths []string, paletteByImage map[string][]string) (map[string]any, error) {
	if len(imagePaths) > 5 {
		imagePaths = imagePaths[:5]
	}
	prompt := fmt.Sprintf(imagePromptFormat,
		jsonContext(meta),
		jsonContext(truncate(meta.ExtractedText, 2000)),
		jsonContext(paletteByImage),
	)

	parts := []openai.ContentPart{openai.TextPart(prompt)}
	for _, p := range imagePaths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", p, err)
		}
		parts = append(parts, openai.ImagePart(data))
	}

	parsed, raw, err := t.ai.ChatJSON(ctx, t.opts.VisionModel, []openai.Message{
		{Role: "user", Content: parts},
	})
	if err != nil {
		return nil, err
	}
	if parsed == nil {
		return map[string]any{"raw_text": raw}, nil
	}
	return parsed, nil
}

// analyzeVideoAd sends up to 30 chronological frames plus the transcript.
func (t *Tracker) analyzeVideoAd(ctx context.Context, meta *BundleMeta, framePaths []string, transcript string, paletteOverall []string) (map[string]any, error) {
	if len(framePaths) > 30 {
		framePaths = framePaths[:30]
	}
	prompt := fmt.Sprintf(videoPromptFormat,
		jsonContext(meta),
		jsonContext(truncate(meta.ExtractedText, 2000)),
		jsonContext(truncate(transcript, 4000)),
		jsonContext(paletteOverall),
		len(framePaths)-1,
	)

	parts := []openai.ContentPart{openai.TextPart(prompt)}
	for _, p := range framePaths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", p, err)
		}
		parts = append(parts, openai.ImagePart(data))
	}

	parsed, raw, err := t.ai.ChatJSON(ctx, t.opts.VisionModel, []openai.Message{
		{Role: "user", Content: parts},
	})
	if err != nil {
		return nil, err
	}
	if parsed == nil {
		return map[string]any{"raw_text": raw}, nil
	}
	return parsed, nil
}

// AnalysisNeedsRerun reports whether a stored analysis is effectively empty:
// missing, carrying an error, or holding only raw text that is not a JSON
// object.
func AnalysisNeedsRerun(obj map[string]any) bool {
	if len(obj) == 0 {
		return true
	}
	if errStr, ok := obj["error"].(string); ok && strings.TrimSpace(errStr) != "" {
		return true
	}
	if len(obj) == 1 {
		raw, ok := obj["raw_text"].(string)
		if !ok {
			return false
		}
		raw = strings.TrimSpace(raw)
		if raw == "" {
			return true
		}
		var parsed map[string]any
		if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
			return true
		}
		return false
	}
	return false
}

// downscaleTo writes a downscaled JPEG copy of src into dstDir and returns
// the copy's path.
func downscaleTo(src, dstDir string, maxSide, quality int) (string, error) {
	data, err := media.DownscaleJPEG(src, maxSide, quality)
	if err != nil {
		return "", err
	}
	base := strings.TrimSuffix(filepath.Base(src), filepath.Ext(src)) + ".jpg"
	dst := filepath.Join(dstDir, base)
	if err := os.MkdirAll(dstDir, 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(dst, data, 0o644); err != nil {
		return "", err
	}
	return dst, nil
}

// prepareVideoInputs extracts frames, audio, and a transcript for a bundled
// video, reusing whatever already exists on disk, and returns the downscaled
// frame copies for the model.
func (t *Tracker) prepareVideoInputs(ctx context.Context, adDir, videoPath string) (llmFrames []string, transcript string, palette []string, err error) {
	framesDir := filepath.Join(adDir, "frames")
	audioPath := filepath.Join(adDir, "audio", "audio.mp3")
	transcriptPath := filepath.Join(adDir, "audio", "transcript.txt")
	inputsDir := filepath.Join(adDir, "analysis_inputs", "frames")

	frames, _ := filepath.Glob(filepath.Join(framesDir, "frame_*.jpg"))
	if len(frames) == 0 {
		frames, err = media.ExtractFrames(ctx, videoPath, framesDir, float64(t.opts.FPS), t.opts.MaxVideoSeconds)
		if err != nil {
			return nil, "", nil, err
		}
	}
	sort.Strings(frames)

	hasAudio := fileExists(audioPath)
	if !hasAudio {
		hasAudio, err = media.ExtractAudio(ctx, videoPath, audioPath, t.opts.MaxVideoSeconds)
		if err != nil {
			return nil, "", nil, err
		}
	}
	if b, readErr := os.ReadFile(transcriptPath); readErr == nil {
		transcript = strings.TrimSpace(string(b))
	}
	if transcript == "" && hasAudio && t.ai.Available() {
		transcript, err = t.ai.Transcribe(ctx, t.opts.TranscribeModel, audioPath)
		if err != nil {
			t.log.WithError(err).Warn("transcription failed")
			transcript = ""
			err = nil
		} else if transcript != "" {
			_ = artifact.AtomicWrite(transcriptPath, []byte(transcript+"\n"))
		}
	}

	maxFrames := t.opts.MaxVideoSeconds * t.opts.FPS
	if maxFrames > 30 {
		maxFrames = 30
	}
	if maxFrames < 1 {
		maxFrames = 1
	}
	if len(frames) > maxFrames {
		frames = frames[:maxFrames]
	}
	for _, fp := range frames {
		llm, dsErr := downscaleTo(fp, inputsDir, 768, 70)
		if dsErr != nil {
			continue
		}
		llmFrames = append(llmFrames, llm)
	}

	if len(llmFrames) > 0 {
		palette, _ = media.DominantColorsHex(llmFrames[0], 6)
	}
	return llmFrames, transcript, palette, nil
}

// prepareImageInputs downscales bundle images for the model and computes a
// palette per image.
func (t *Tracker) prepareImageInputs(adDir string, images []string) (llmImages []string, paletteByImage map[string][]string) {
	inputsDir := filepath.Join(adDir, "analysis_inputs", "images")
	paletteByImage = map[string][]string{}
	if len(images) > 5 {
		images = images[:5]
	}
	for _, img := range images {
		llm, err := downscaleTo(img, inputsDir, 1024, 75)
		if err != nil {
			continue
		}
		llmImages = append(llmImages, llm)
		palette, err := media.DominantColorsHex(llm, 6)
		if err != nil {
			palette = nil
		}
		paletteByImage[filepath.Base(llm)] = palette
	}
	return llmImages, paletteByImage
}

// reanalyzeBundle reruns analysis from whatever creative files a bundle
// already holds, without touching the network for scraping.
func (t *Tracker) reanalyzeBundle(ctx context.Context, adDir string, meta *BundleMeta) (map[string]any, string, error) {
	images, videos := existingMedia(t.opts.OutDir, adDir, meta)

	kind := meta.Kind
	if kind == "" {
		kind = "unknown"
	}

	if kind == "video" || (kind == "unknown" && len(videos) > 0) {
		if len(videos) == 0 {
			return map[string]any{"error": "missing_video_assets"}, "", nil
		}
		llmFrames, transcript, palette, err := t.prepareVideoInputs(ctx, adDir, videos[0])
		if err != nil {
			return nil, "", err
		}
		analysis, err := t.analyzeVideoAd(ctx, meta, llmFrames, transcript, palette)
		if err != nil {
			return nil, "", err
		}
		return analysis, transcript, nil
	}

	if len(images) == 0 {
		return map[string]any{"error": "missing_image_assets"}, "", nil
	}
	llmImages, paletteByImage := t.prepareImageInputs(adDir, images)
	analysis, err := t.analyzeImageAd(ctx, meta, llmImages, paletteByImage)
	if err != nil {
		return nil, "", err
	}
	return analysis, "", nil
}
