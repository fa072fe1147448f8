// Package sentiment scores sentiment for X posts fetched through the
// bird CLI, with OpenAI classification and a heuristic fallback.
package sentiment

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/sirupsen/logrus"

	"growthkit/internal/artifact"
	"growthkit/internal/openai"
)

// Options configures a sentiment run.
type Options struct {
	Query     string
	N         int
	BirdBin   string
	InputJSON string
	OutDir    string
	Model     string
	NoOpenAI  bool
	OpenAI    *openai.Client
	Log       *logrus.Logger
}

// Analysis is the persisted analysis artifact.
type Analysis struct {
	Query        string         `json:"query"`
	TimestampUTC string         `json:"timestamp_utc"`
	RawPath      string         `json:"raw_path"`
	UsedOpenAI   bool           `json:"used_openai"`
	Model        string         `json:"model"`
	Summary      map[string]any `json:"summary"`
	Rows         []Row          `json:"rows"`
}

// Run fetches posts, labels them, and writes raw/analysis/report
// artifacts keyed by a UTC timestamp. Returns the report path.
func Run(ctx context.Context, opts Options) (string, error) {
	query := strings.TrimSpace(opts.Query)
	if query == "" {
		return "", fmt.Errorf("query must be non-empty")
	}
	if opts.N <= 0 || opts.N > 200 {
		return "", fmt.Errorf("post count must be between 1 and 200")
	}

	stamp := artifact.TimeStamp(time.Now())
	rawPath := filepath.Join(opts.OutDir, "raw", stamp+".json")
	analysisPath := filepath.Join(opts.OutDir, "analysis", stamp+".json")
	reportPath := filepath.Join(opts.OutDir, "reports", stamp+".md")

	var raw any
	var err error
	if opts.InputJSON != "" {
		if err := artifact.ReadJSON(opts.InputJSON, &raw); err != nil {
			return "", fmt.Errorf("reading input JSON: %w", err)
		}
	} else {
		raw, err = RunBird(ctx, opts.BirdBin, query, opts.N)
		if err != nil {
			return "", err
		}
	}
	if err := artifact.WriteJSON(rawPath, raw); err != nil {
		return "", err
	}

	var tweets []Tweet
	for _, item := range AsList(raw) {
		t := NormalizeTweet(item)
		// Empty-text posts confuse both heuristics and the model.
		if strings.TrimSpace(t.Text) != "" {
			tweets = append(tweets, t)
		}
	}
	opts.Log.WithField("posts", len(tweets)).Info("normalized posts")

	useOpenAI := !opts.NoOpenAI && opts.OpenAI.Available()
	var labels []Label
	if useOpenAI {
		labels, err = ClassifyWithOpenAI(ctx, opts.OpenAI, opts.Model, tweets)
		if err != nil {
			opts.Log.WithError(err).Warn("OpenAI sentiment failed, falling back to heuristic")
			labels = nil
			useOpenAI = false
		}
	}
	if labels == nil {
		labels = HeuristicLabels(tweets)
	}

	agg, err := Aggregate(tweets, labels)
	if err != nil {
		return "", err
	}

	analysis := Analysis{
		Query:        query,
		TimestampUTC: stamp,
		RawPath:      rawPath,
		UsedOpenAI:   useOpenAI,
		Model:        opts.Model,
		Summary: map[string]any{
			"counts":        agg.Counts,
			"percent":       agg.Percent,
			"net_sentiment": agg.NetSentiment,
			"themes":        agg.Themes,
		},
		Rows: agg.Rows,
	}
	if err := artifact.WriteJSON(analysisPath, analysis); err != nil {
		return "", err
	}
	if err := artifact.AtomicWrite(reportPath, []byte(FormatReport(query, stamp, agg))); err != nil {
		return "", err
	}
	return reportPath, nil
}

// FormatReport renders the Markdown summary for one run.
func FormatReport(query, stamp string, agg *Summary) string {
	var b strings.Builder
	w := func(format string, args ...any) {
		fmt.Fprintf(&b, format+"\n", args...)
	}

	w("# X Sentiment Report")
	w("")
	w("- Query: `%s`", query)
	w("- Timestamp (UTC): `%s`", stamp)
	w("")
	w("## Summary")
	w("")
	w("- Positive: %v%% (%d)", agg.Percent["positive"], agg.Counts["positive"])
	w("- Neutral: %v%% (%d)", agg.Percent["neutral"], agg.Counts["neutral"])
	w("- Negative: %v%% (%d)", agg.Percent["negative"], agg.Counts["negative"])
	w("- Net sentiment: `%v` (positive%% - negative%%)", agg.NetSentiment)
	w("")

	w("## Top Themes")
	w("")
	if len(agg.Themes) > 0 {
		limit := len(agg.Themes)
		if limit > 8 {
			limit = 8
		}
		for _, t := range agg.Themes[:limit] {
			w("- %s (%d)", t.Theme, t.Count)
		}
	} else {
		w("- (no themes extracted)")
	}
	w("")

	w("## Most Liked Positive")
	w("")
	writeRows(&b, agg.TopPositive)
	w("")
	w("## Most Liked Negative")
	w("")
	writeRows(&b, agg.TopNegative)
	w("")

	w("## Caveats")
	w("")
	w("- Search results are a convenience sample, not representative of all X users.")
	w("- Without an OpenAI API key, sentiment uses a heuristic fallback (lower quality).")
	return b.String()
}

func writeRows(b *strings.Builder, rows []Row) {
	if len(rows) == 0 {
		b.WriteString("- (none)\n")
		return
	}
	for _, r := range rows {
		link := r.URL
		if link == "" && r.ID != "" {
			link = "https://x.com/i/web/status/" + r.ID
		}
		fmt.Fprintf(b, "- [%s] (%d likes) %s %s\n  - %s\n",
			r.Sentiment, r.Metrics.Likes, r.Author, link, shortText(r.Text, 280))
	}
}

func shortText(s string, max int) string {
	s = strings.TrimSpace(strings.ReplaceAll(s, "\n", " "))
	s = strings.Join(strings.Fields(s), " ")
	if len(s) <= max {
		return s
	}
	// Back off to a full rune so the cut never leaves a partial sequence.
	truncated := s[:max-1]
	for len(truncated) > 0 {
		if r, size := utf8.DecodeLastRuneInString(truncated); r != utf8.RuneError || size > 1 {
			break
		}
		truncated = truncated[:len(truncated)-1]
	}
	return strings.TrimRight(truncated, " ") + "..."
}
