package sentiment

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"growthkit/internal/openai"
)

// Label is a per-post sentiment classification.
type Label struct {
	ID         string   `json:"id"`
	Sentiment  string   `json:"sentiment"`
	Confidence float64  `json:"confidence"`
	Themes     []string `json:"themes"`
}

var posWords = []string{
	"love", "loved", "awesome", "great", "amazing", "nice", "good", "cool",
	"wow", "fantastic", "perfect", "best", "excited", "impressed",
	"recommend", "recommended", "helpful", "useful", "thanks", "thank you",
}

var negWords = []string{
	"hate", "hated", "awful", "terrible", "bad", "worse", "worst", "broken",
	"bug", "bugs", "crash", "crashes", "scam", "spam", "creepy", "weird",
	"privacy", "unsafe", "annoying", "disappointed", "disappointing", "refund",
}

// HeuristicSentiment scores a post by keyword matching. Confidence is
// deliberately low; this is the no-API fallback.
func HeuristicSentiment(text string) (string, float64) {
	t := strings.ToLower(text)
	if strings.TrimSpace(t) == "" {
		return "neutral", 0.2
	}
	score := 0
	for _, w := range posWords {
		if strings.Contains(t, w) {
			score++
		}
	}
	for _, w := range negWords {
		if strings.Contains(t, w) {
			score--
		}
	}
	switch {
	case score >= 2:
		return "positive", 0.55
	case score <= -2:
		return "negative", 0.55
	case score == 1:
		return "positive", 0.45
	case score == -1:
		return "negative", 0.45
	}
	return "neutral", 0.35
}

// HeuristicLabels applies HeuristicSentiment to every tweet.
func HeuristicLabels(tweets []Tweet) []Label {
	labels := make([]Label, len(tweets))
	for i, t := range tweets {
		s, conf := HeuristicSentiment(t.Text)
		labels[i] = Label{ID: t.ID, Sentiment: s, Confidence: conf, Themes: []string{}}
	}
	return labels
}

const classifySystem = `You classify sentiment for short social posts.
Return ONLY JSON.
Sentiment labels: positive | neutral | negative.
Be conservative: if unsure, choose neutral.
Ignore the author's political stance; score only the author's attitude toward the product/topic in the post.
If the post is a question or newsy/announcement without clear attitude, choose neutral.`

type classifyPayloadItem struct {
	ID       string `json:"id"`
	Text     string `json:"text"`
	Likes    int    `json:"likes"`
	Retweets int    `json:"retweets"`
}

const classifyChunkSize = 15

// ClassifyWithOpenAI labels tweets in chunks via JSON-mode chat. Output
// order follows the input; posts the model skipped are filled in as
// low-confidence neutral.
func ClassifyWithOpenAI(ctx context.Context, client *openai.Client, model string, tweets []Tweet) ([]Label, error) {
	byID := make(map[string]Label)

	for start := 0; start < len(tweets); start += classifyChunkSize {
		end := start + classifyChunkSize
		if end > len(tweets) {
			end = len(tweets)
		}
		part := tweets[start:end]

		payload := make([]classifyPayloadItem, len(part))
		for i, t := range part {
			payload[i] = classifyPayloadItem{ID: t.ID, Text: t.Text, Likes: t.Metrics.Likes, Retweets: t.Metrics.Retweets}
		}
		payloadJSON, err := json.MarshalIndent(payload, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("marshaling classify payload: %w", err)
		}

		user := "Classify each post.\n\n" +
			"Return a JSON object with this shape:\n" +
			"{\n" +
			"  \"items\": [\n" +
			"    {\"id\": \"...\", \"sentiment\": \"positive|neutral|negative\", \"confidence\": 0.0-1.0, \"themes\": [\"...\",\"...\"]}\n" +
			"  ]\n" +
			"}\n\n" +
			"Posts:\n" + string(payloadJSON)

		obj, raw, err := client.ChatJSON(ctx, model, []openai.Message{
			{Role: "system", Content: classifySystem},
			{Role: "user", Content: user},
		})
		if err != nil {
			return nil, err
		}
		if obj == nil {
			snippet := raw
			if len(snippet) > 2000 {
				snippet = snippet[:2000]
			}
			return nil, fmt.Errorf("model did not return valid JSON: %s", snippet)
		}
		items, ok := obj["items"].([]any)
		if !ok {
			return nil, fmt.Errorf("model response missing items array")
		}
		for _, it := range items {
			m, ok := it.(map[string]any)
			if !ok {
				continue
			}
			label := sanitizeLabel(m)
			if label.ID != "" {
				byID[label.ID] = label
			}
		}
	}

	out := make([]Label, len(tweets))
	for i, t := range tweets {
		if l, ok := byID[t.ID]; ok && t.ID != "" {
			out[i] = l
		} else {
			out[i] = Label{ID: t.ID, Sentiment: "neutral", Confidence: 0.4, Themes: []string{}}
		}
	}
	return out, nil
}

// sanitizeLabel clamps and defaults a model-produced label: invalid
// sentiments become neutral, confidence stays in [0,1], themes cap at 6.
func sanitizeLabel(m map[string]any) Label {
	id, _ := m["id"].(string)
	sent, _ := m["sentiment"].(string)
	sent = strings.ToLower(strings.TrimSpace(sent))
	if sent != "positive" && sent != "neutral" && sent != "negative" {
		sent = "neutral"
	}
	conf := 0.5
	if f, ok := m["confidence"].(float64); ok {
		conf = f
	}
	if conf < 0 {
		conf = 0
	}
	if conf > 1 {
		conf = 1
	}
	themes := []string{}
	if list, ok := m["themes"].([]any); ok {
		for _, v := range list {
			if s, ok := v.(string); ok {
				if t := strings.TrimSpace(s); t != "" {
					themes = append(themes, t)
				}
			}
			if len(themes) >= 6 {
				break
			}
		}
	}
	return Label{ID: strings.TrimSpace(id), Sentiment: sent, Confidence: conf, Themes: themes}
}
