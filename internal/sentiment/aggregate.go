package sentiment

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// Row joins a normalized tweet with its label.
type Row struct {
	ID         string   `json:"id"`
	URL        string   `json:"url"`
	Author     string   `json:"author"`
	CreatedAt  string   `json:"created_at"`
	Text       string   `json:"text"`
	Metrics    Metrics  `json:"metrics"`
	Sentiment  string   `json:"sentiment"`
	Confidence float64  `json:"confidence"`
	Themes     []string `json:"themes"`
}

// ThemeCount is one rolled-up theme.
type ThemeCount struct {
	Theme string `json:"theme"`
	Count int    `json:"count"`
}

// Summary is the aggregated view over all labeled posts.
type Summary struct {
	Counts       map[string]int     `json:"counts"`
	Percent      map[string]float64 `json:"percent"`
	NetSentiment float64            `json:"net_sentiment"`
	TopPositive  []Row              `json:"top_positive"`
	TopNegative  []Row              `json:"top_negative"`
	Themes       []ThemeCount       `json:"themes"`
	Rows         []Row              `json:"rows"`
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// Aggregate computes counts, percentages, net sentiment (positive% -
// negative%), the three most-liked posts per polarity, and a theme
// frequency rollup.
func Aggregate(tweets []Tweet, labels []Label) (*Summary, error) {
	if len(tweets) != len(labels) {
		return nil, fmt.Errorf("tweets/labels length mismatch: %d vs %d", len(tweets), len(labels))
	}

	rows := make([]Row, len(tweets))
	counts := map[string]int{"positive": 0, "neutral": 0, "negative": 0}
	for i, t := range tweets {
		l := labels[i]
		s := l.Sentiment
		if _, ok := counts[s]; !ok {
			s = "neutral"
		}
		counts[s]++
		themes := l.Themes
		if themes == nil {
			themes = []string{}
		}
		rows[i] = Row{
			ID: t.ID, URL: t.URL, Author: t.Author, CreatedAt: t.CreatedAt,
			Text: t.Text, Metrics: t.Metrics,
			Sentiment: s, Confidence: l.Confidence, Themes: themes,
		}
	}

	n := len(rows)
	if n < 1 {
		n = 1
	}
	pct := map[string]float64{}
	for k, v := range counts {
		pct[k] = round1(100 * float64(v) / float64(n))
	}
	net := round1(pct["positive"] - pct["negative"])

	topByLikes := func(sentiment string) []Row {
		var matched []Row
		for _, r := range rows {
			if r.Sentiment == sentiment {
				matched = append(matched, r)
			}
		}
		sort.SliceStable(matched, func(i, j int) bool {
			return matched[i].Metrics.Likes > matched[j].Metrics.Likes
		})
		if len(matched) > 3 {
			matched = matched[:3]
		}
		return matched
	}

	themeCounts := make(map[string]int)
	for _, r := range rows {
		for _, th := range r.Themes {
			if t := strings.TrimSpace(th); t != "" {
				themeCounts[t]++
			}
		}
	}
	themes := make([]ThemeCount, 0, len(themeCounts))
	for k, v := range themeCounts {
		themes = append(themes, ThemeCount{Theme: k, Count: v})
	}
	sort.Slice(themes, func(i, j int) bool {
		if themes[i].Count != themes[j].Count {
			return themes[i].Count > themes[j].Count
		}
		return strings.ToLower(themes[i].Theme) < strings.ToLower(themes[j].Theme)
	})
	if len(themes) > 10 {
		themes = themes[:10]
	}

	return &Summary{
		Counts:       counts,
		Percent:      pct,
		NetSentiment: net,
		TopPositive:  topByLikes("positive"),
		TopNegative:  topByLikes("negative"),
		Themes:       themes,
		Rows:         rows,
	}, nil
}
