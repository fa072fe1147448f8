package sentiment

import (
	"strconv"
	"strings"
)

// Metrics holds engagement counts for a post.
type Metrics struct {
	Likes    int `json:"likes"`
	Retweets int `json:"retweets"`
	Replies  int `json:"replies"`
}

// Tweet is a normalized post. Raw preserves the original object since
// bird's output shape varies across versions.
type Tweet struct {
	ID        string         `json:"id"`
	URL       string         `json:"url"`
	Author    string         `json:"author"`
	CreatedAt string         `json:"created_at"`
	Text      string         `json:"text"`
	Metrics   Metrics        `json:"metrics"`
	Raw       map[string]any `json:"raw"`
}

// AsList unwraps a bird payload into a list of objects. CLIs sometimes
// wrap results in {data: [...]} or similar envelopes.
func AsList(v any) []map[string]any {
	var items []any
	switch x := v.(type) {
	case nil:
		return nil
	case []any:
		items = x
	case map[string]any:
		for _, k := range []string{"data", "results", "tweets", "items"} {
			if list, ok := x[k].([]any); ok {
				items = list
				break
			}
		}
	}
	var out []map[string]any
	for _, it := range items {
		if m, ok := it.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}

func pickFirstString(d map[string]any, keys []string) string {
	for _, k := range keys {
		if s, ok := d[k].(string); ok {
			if t := strings.TrimSpace(s); t != "" {
				return t
			}
		}
	}
	return ""
}

func pickInt(d map[string]any, keys []string) int {
	for _, k := range keys {
		switch v := d[k].(type) {
		case bool:
			continue
		case float64:
			return int(v)
		case string:
			t := strings.TrimSpace(v)
			if n, err := strconv.Atoi(t); err == nil {
				return n
			}
		}
	}
	return 0
}

// NormalizeTweet maps a raw bird object onto the Tweet shape, trying
// the field names different bird versions have used.
func NormalizeTweet(raw map[string]any) Tweet {
	return Tweet{
		ID:        pickFirstString(raw, []string{"id_str", "id", "tweet_id", "rest_id"}),
		URL:       pickFirstString(raw, []string{"url", "tweet_url", "permalink", "permalink_url"}),
		Author:    pickFirstString(raw, []string{"username", "screen_name", "user", "author"}),
		CreatedAt: pickFirstString(raw, []string{"created_at", "createdAt", "date"}),
		Text:      pickFirstString(raw, []string{"full_text", "text", "content"}),
		Metrics: Metrics{
			Likes:    pickInt(raw, []string{"favorite_count", "like_count", "likes"}),
			Retweets: pickInt(raw, []string{"retweet_count", "repost_count", "retweets"}),
			Replies:  pickInt(raw, []string{"reply_count", "replies"}),
		},
		Raw: raw,
	}
}
