package appstore

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestExtractAppleAppID(t *testing.T) {
	cases := []struct {
		url  string
		want string
	}{
		{"https://apps.apple.com/us/app/foo/id123456789", "123456789"},
		{"https://apps.apple.com/us/app/foo/id123456789?see-all=reviews", "123456789"},
		{"https://apps.apple.com/lookup?id=42", "42"},
		{"https://apps.apple.com/us/app/foo", ""},
		{"not a url at all", ""},
	}
	for _, tc := range cases {
		if got := ExtractAppleAppID(tc.url); got != tc.want {
			t.Errorf("ExtractAppleAppID(%q): got %q, want %q", tc.url, got, tc.want)
		}
	}
}

func TestWithQueryParam(t *testing.T) {
	got := withQueryParam("https://apps.apple.com/us/app/foo/id1?sort=old", "sort", "mostRecent")
	if !strings.Contains(got, "sort=mostRecent") || strings.Contains(got, "sort=old") {
		t.Errorf("got %q, want sort replaced", got)
	}
}

func TestExtractInAppPurchases(t *testing.T) {
	page := `<h2>In-App Purchases</h2>
<div class="text-pair"><span>Premium Monthly</span><span>$9.99</span></div>
<div class="text-pair"><span>Premium Monthly</span><span>$9.99</span></div>
<div class="text-pair"><span>Starter Pack</span><span>$1.99</span></div>
<div class="text-pair"><span>No Currency Here</span><span>free</span></div>`
	iaps := ExtractInAppPurchases(page)
	if len(iaps) != 2 {
		t.Fatalf("got %d IAPs, want 2: %+v", len(iaps), iaps)
	}
	if iaps[0].Name != "Premium Monthly" || iaps[0].Price != "$9.99" {
		t.Errorf("first IAP: got %+v", iaps[0])
	}
	if iaps[1].Name != "Starter Pack" {
		t.Errorf("second IAP: got %+v", iaps[1])
	}
}

func TestExtractInAppPurchases_NoSection(t *testing.T) {
	if got := ExtractInAppPurchases("<html>nothing here</html>"); len(got) != 0 {
		t.Errorf("expected no IAPs, got %+v", got)
	}
}

func TestExtractSubscriptionPricePoints(t *testing.T) {
	iaps := []PricePoint{
		{Name: "Premium Monthly", Price: "$9.99"},
		{Name: "Coin Bundle", Price: "$0.99"},
		{Name: "Annual Plan", Price: "$59.99"},
		{Name: "Annual Plan", Price: "$59.99"},
		{Name: "", Price: "$1.00"},
	}
	subs := ExtractSubscriptionPricePoints(iaps)
	if len(subs) != 2 {
		t.Fatalf("got %d subscriptions, want 2: %+v", len(subs), subs)
	}
	if subs[0].Name != "Premium Monthly" || subs[1].Name != "Annual Plan" {
		t.Errorf("got %+v", subs)
	}
}

func TestExtractRecentReviews(t *testing.T) {
	page := `junk {"componentType":"productReview","x":1} more
{"review":{"id":"r1","reviewerName":"Pat","title":"Great app","contents":"Works well","rating":5,"date":"2026-08-01"}}
{"componentType":"productReview"} {"review":{"id":"r1","reviewerName":"Pat","title":"Dup","contents":"dup","rating":5,"date":"2026-08-01"}}
{"componentType":"productReview"} {"review":{"id":"r2","reviewerName":"Sam","title":"Meh","contents":"Crashes on open","rating":2,"date":"2026-08-02"}}`
	reviews := ExtractRecentReviews(page, 12)
	if len(reviews) != 2 {
		t.Fatalf("got %d reviews, want 2: %+v", len(reviews), reviews)
	}
	r := reviews[0]
	if r.ID != "r1" || r.Author != "Pat" || r.Title != "Great app" {
		t.Errorf("first review: got %+v", r)
	}
	if r.Rating == nil || *r.Rating != 5 {
		t.Errorf("rating: got %v", r.Rating)
	}
	if reviews[1].ID != "r2" {
		t.Errorf("second review: got %+v", reviews[1])
	}
}

func TestExtractRecentReviews_MaxCap(t *testing.T) {
	var sb strings.Builder
	for i := 0; i < 5; i++ {
		sb.WriteString(`{"componentType":"productReview"} {"review":{"id":"r` +
			string(rune('a'+i)) + `","title":"t","contents":"c"}}` + "\n")
	}
	reviews := ExtractRecentReviews(sb.String(), 3)
	if len(reviews) != 3 {
		t.Errorf("got %d reviews, want cap of 3", len(reviews))
	}
}

func TestMatchBraces(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{`{"a":1}trailing`, `{"a":1}`, true},
		{`{"a":{"b":"}"}}`, `{"a":{"b":"}"}}`, true},
		{`{"a":"\"}"}`, `{"a":"\"}"}`, true},
		{`{"unclosed":1`, "", false},
		{`no brace`, "", false},
		{``, "", false},
	}
	for _, tc := range cases {
		got, ok := matchBraces(tc.in)
		if ok != tc.ok || got != tc.want {
			t.Errorf("matchBraces(%q): got (%q, %v), want (%q, %v)", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}

func TestSummarizeReviewThemes(t *testing.T) {
	reviews := []Review{
		{Title: "Love it", Body: "great app"},
		{Title: "", Body: "constant crash and bugs everywhere"},
		{Title: "Nothing notable", Body: "fine I guess"},
	}
	themes := SummarizeReviewThemes(reviews)
	if len(themes.PositiveExamples) != 1 || themes.PositiveExamples[0] != "Love it" {
		t.Errorf("positive: got %v", themes.PositiveExamples)
	}
	if len(themes.NegativeExamples) != 1 {
		t.Errorf("negative: got %v", themes.NegativeExamples)
	}
}

func TestTruncateRunes_NeverSplitsRune(t *testing.T) {
	long := strings.Repeat("世", 40)
	got := truncateRunes(long, 80)
	if !utf8.ValidString(got) {
		t.Fatalf("truncated string is not valid UTF-8: %q", got)
	}
	if len(got) != 78 {
		t.Errorf("len = %d, want 78 (largest rune boundary under 80)", len(got))
	}
	if got := truncateRunes("short", 80); got != "short" {
		t.Errorf("short input changed: %q", got)
	}
}

func TestSummarizeReviewThemes_MultibyteExampleStaysValid(t *testing.T) {
	body := "love it " + strings.Repeat("世", 40)
	themes := SummarizeReviewThemes([]Review{{Body: body}})
	if len(themes.PositiveExamples) != 1 {
		t.Fatalf("expected one positive example, got %v", themes.PositiveExamples)
	}
	if !utf8.ValidString(themes.PositiveExamples[0]) {
		t.Errorf("example is not valid UTF-8: %q", themes.PositiveExamples[0])
	}
}
