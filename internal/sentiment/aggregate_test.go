package sentiment

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestAggregate_LengthMismatch(t *testing.T) {
	_, err := Aggregate([]Tweet{{ID: "1"}}, nil)
	if err == nil {
		t.Fatal("expected error for tweets/labels length mismatch")
	}
}

func TestAggregate_CountsAndNet(t *testing.T) {
	tweets := []Tweet{
		{ID: "1", Metrics: Metrics{Likes: 10}},
		{ID: "2", Metrics: Metrics{Likes: 5}},
		{ID: "3", Metrics: Metrics{Likes: 1}},
		{ID: "4"},
	}
	labels := []Label{
		{ID: "1", Sentiment: "positive", Themes: []string{"speed"}},
		{ID: "2", Sentiment: "positive", Themes: []string{"speed", "price"}},
		{ID: "3", Sentiment: "negative"},
		{ID: "4", Sentiment: "bogus"},
	}
	s, err := Aggregate(tweets, labels)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Counts["positive"] != 2 || s.Counts["negative"] != 1 || s.Counts["neutral"] != 1 {
		t.Errorf("counts: got %v", s.Counts)
	}
	if s.Percent["positive"] != 50.0 {
		t.Errorf("positive percent: got %v, want 50.0", s.Percent["positive"])
	}
	if s.NetSentiment != 25.0 {
		t.Errorf("net sentiment: got %v, want 25.0", s.NetSentiment)
	}
	if len(s.Rows) != 4 {
		t.Errorf("rows: got %d, want 4", len(s.Rows))
	}
}

func TestAggregate_TopByLikes(t *testing.T) {
	tweets := []Tweet{
		{ID: "1", Metrics: Metrics{Likes: 1}},
		{ID: "2", Metrics: Metrics{Likes: 100}},
		{ID: "3", Metrics: Metrics{Likes: 50}},
		{ID: "4", Metrics: Metrics{Likes: 7}},
	}
	labels := []Label{
		{ID: "1", Sentiment: "positive"},
		{ID: "2", Sentiment: "positive"},
		{ID: "3", Sentiment: "positive"},
		{ID: "4", Sentiment: "positive"},
	}
	s, err := Aggregate(tweets, labels)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(s.TopPositive) != 3 {
		t.Fatalf("top positive: got %d, want 3", len(s.TopPositive))
	}
	if s.TopPositive[0].ID != "2" || s.TopPositive[1].ID != "3" || s.TopPositive[2].ID != "4" {
		t.Errorf("top positive order: got %s %s %s",
			s.TopPositive[0].ID, s.TopPositive[1].ID, s.TopPositive[2].ID)
	}
}

func TestAggregate_ThemeRollup(t *testing.T) {
	tweets := []Tweet{{ID: "1"}, {ID: "2"}, {ID: "3"}}
	labels := []Label{
		{ID: "1", Sentiment: "neutral", Themes: []string{"price", "speed"}},
		{ID: "2", Sentiment: "neutral", Themes: []string{"price"}},
		{ID: "3", Sentiment: "neutral", Themes: []string{" ", "speed"}},
	}
	s, err := Aggregate(tweets, labels)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(s.Themes) != 2 {
		t.Fatalf("themes: got %v", s.Themes)
	}
	if s.Themes[0].Theme != "price" || s.Themes[0].Count != 2 {
		t.Errorf("top theme: got %+v", s.Themes[0])
	}
	if s.Themes[1].Theme != "speed" || s.Themes[1].Count != 2 {
		t.Errorf("second theme: got %+v", s.Themes[1])
	}
}

func TestAggregate_Empty(t *testing.T) {
	s, err := Aggregate(nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Percent["positive"] != 0 || s.NetSentiment != 0 {
		t.Errorf("empty input should produce zero percentages, got %+v", s)
	}
}

func TestShortText_KeepsValidUTF8(t *testing.T) {
	long := strings.Repeat("世", 200)
	got := shortText(long, 280)
	if !utf8.ValidString(got) {
		t.Fatalf("truncated text is not valid UTF-8: %q", got[len(got)-8:])
	}
	if !strings.HasSuffix(got, "...") {
		t.Errorf("expected ellipsis suffix, got %q", got)
	}
	if len(got) > 283 {
		t.Errorf("truncated length %d exceeds limit", len(got))
	}
}

func TestShortText_ShortInputUnchanged(t *testing.T) {
	if got := shortText("  hello \n world  ", 280); got != "hello world" {
		t.Errorf("got %q, want %q", got, "hello world")
	}
}
