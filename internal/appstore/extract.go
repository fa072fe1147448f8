package appstore

import (
	"encoding/json"
	"html"
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	appIDPathRe  = regexp.MustCompile(`/id(\d+)`)
	digitsRe     = regexp.MustCompile(`^\d+$`)
	wsRe         = regexp.MustCompile(`\s+`)
	textPairRe   = regexp.MustCompile(`(?is)text-pair[^>]*>\s*<span[^>]*>\s*([^<]{1,200}?)\s*</span>\s*<span[^>]*>\s*([^<]{1,40}?)\s*</span>`)
	currencyRe   = regexp.MustCompile(`(?i)[$€£¥]|R\$|CA\$|A\$|USD|EUR|GBP|JPY`)
	loosePriceRe = regexp.MustCompile(`(?is)>([^<>]{1,200}?)<[^>]{0,120}?>[^<]{0,40}?([$€£¥]|R\$|CA\$|A\$)\s*([0-9][0-9.,]{0,10})`)
	periodRe     = regexp.MustCompile(`(?i)\b(week|weekly|month|monthly|year|yearly|annual|annually|subscription|subscrip|pro|premium|plus|plan)\b`)
)

// ExtractAppleAppID pulls the numeric app id from an apps.apple.com URL.
// Typical form: https://apps.apple.com/us/app/foo/id123456789
func ExtractAppleAppID(rawURL string) string {
	if m := appIDPathRe.FindStringSubmatch(rawURL); m != nil {
		return m[1]
	}
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	if id := parsed.Query().Get("id"); digitsRe.MatchString(id) {
		return id
	}
	return ""
}

// withQueryParam returns rawURL with key set to value, replacing any
// existing occurrence.
func withQueryParam(rawURL, key, value string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	q := parsed.Query()
	q.Set(key, value)
	parsed.RawQuery = q.Encode()
	return parsed.String()
}

func cleanWS(s string) string {
	return strings.TrimSpace(wsRe.ReplaceAllString(html.UnescapeString(s), " "))
}

// ExtractInAppPurchases scans App Store page HTML for the In-App
// Purchases table. Markup changes over time; this stays heuristic and
// bounded. Capped at 80 entries.
func ExtractInAppPurchases(pageHTML string) []PricePoint {
	var out []PricePoint
	idx := strings.Index(pageHTML, "In-App Purchases")
	if idx < 0 {
		return out
	}
	end := idx + 250_000
	if end > len(pageHTML) {
		end = len(pageHTML)
	}
	window := pageHTML[idx:end]

	seen := make(map[[2]string]bool)
	add := func(name, price string) bool {
		key := [2]string{name, price}
		if name == "" || seen[key] {
			return len(out) < 80
		}
		seen[key] = true
		out = append(out, PricePoint{Name: name, Price: price})
		return len(out) < 80
	}

	// Paired <span>NAME</span><span>PRICE</span> inside a text-pair div.
	for _, m := range textPairRe.FindAllStringSubmatch(window, -1) {
		name := cleanWS(m[1])
		price := cleanWS(m[2])
		if price == "" || !currencyRe.MatchString(price) {
			continue
		}
		if !add(name, price) {
			return out
		}
	}

	// Fallback: looser "NAME ... $x.xx" pattern.
	for _, m := range loosePriceRe.FindAllStringSubmatch(window, -1) {
		name := cleanWS(m[1])
		price := strings.TrimSpace(m[2]) + strings.TrimSpace(m[3])
		if !add(name, price) {
			break
		}
	}
	return out
}

// ExtractSubscriptionPricePoints filters IAPs down to entries whose
// names imply a plan or billing period.
func ExtractSubscriptionPricePoints(iaps []PricePoint) []PricePoint {
	var out []PricePoint
	seen := make(map[[2]string]bool)
	for _, item := range iaps {
		name := strings.TrimSpace(item.Name)
		price := strings.TrimSpace(item.Price)
		if name == "" || price == "" || !periodRe.MatchString(name) {
			continue
		}
		key := [2]string{name, price}
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, PricePoint{Name: name, Price: price})
	}
	return out
}

// ExtractRecentReviews pulls review objects out of the JSON blobs the
// App Store embeds in its pages ("componentType":"productReview"
// followed by a "review":{...} object). More reliable than scraping
// rendered markup.
func ExtractRecentReviews(pageHTML string, maxReviews int) []Review {
	var reviews []Review
	const needle = `"componentType":"productReview"`
	const reviewKey = `"review":`
	pos := 0
	seenIDs := make(map[string]bool)
	for len(reviews) < maxReviews {
		i := strings.Index(pageHTML[pos:], needle)
		if i < 0 {
			break
		}
		i += pos
		pos = i + len(needle)

		end := i + 120_000
		if end > len(pageHTML) {
			end = len(pageHTML)
		}
		window := pageHTML[i:end]
		j := strings.Index(window, reviewKey+"{")
		if j < 0 {
			continue
		}
		s := window[j+len(reviewKey):]

		objText, ok := matchBraces(s)
		if !ok {
			continue
		}
		var data map[string]any
		if err := json.Unmarshal([]byte(objText), &data); err != nil {
			continue
		}

		id := strings.TrimSpace(asString(data["id"]))
		if id != "" && seenIDs[id] {
			continue
		}
		if id != "" {
			seenIDs[id] = true
		}

		var rating *int
		if n, isNum := data["rating"].(float64); isNum {
			v := int(n)
			rating = &v
		}
		reviews = append(reviews, Review{
			ID:     id,
			Author: cleanWS(asString(data["reviewerName"])),
			Title:  cleanWS(asString(data["title"])),
			Body:   cleanWS(asString(data["contents"])),
			Rating: rating,
			Date:   cleanWS(asString(data["date"])),
		})
	}
	return reviews
}

// matchBraces returns the balanced {...} prefix of s, respecting string
// literals and escapes.
func matchBraces(s string) (string, bool) {
	if s == "" || s[0] != '{' {
		return "", false
	}
	depth := 0
	inStr := false
	esc := false
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if inStr {
			if esc {
				esc = false
			} else if ch == '\\' {
				esc = true
			} else if ch == '"' {
				inStr = false
			}
			continue
		}
		switch ch {
		case '"':
			inStr = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[:i+1], true
			}
		}
	}
	return "", false
}

func asString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

var (
	positiveWords = []string{"love", "great", "amazing", "perfect", "helpful", "easy", "awesome"}
	negativeWords = []string{"hate", "bad", "bug", "crash", "broken", "terrible", "slow", "ads", "scam"}
)

// SummarizeReviewThemes picks keyword-matched example reviews as
// love/hate seeds. Heuristic only; downstream analysis refines it.
func SummarizeReviewThemes(reviews []Review) ReviewThemes {
	var positives, negatives []string
	for _, r := range reviews {
		txt := strings.ToLower(r.Title + " " + r.Body)
		example := r.Title
		if example == "" {
			example = truncateRunes(r.Body, 80)
		}
		if example == "" {
			continue
		}
		if containsAny(txt, positiveWords) {
			positives = append(positives, example)
		}
		if containsAny(txt, negativeWords) {
			negatives = append(negatives, example)
		}
	}
	return ReviewThemes{
		PositiveExamples: capSlice(positives, 3),
		NegativeExamples: capSlice(negatives, 3),
	}
}

// truncateRunes cuts s to at most n bytes without splitting a rune.
func truncateRunes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	s = s[:n]
	for len(s) > 0 {
		if r, size := utf8.DecodeLastRuneInString(s); r != utf8.RuneError || size > 1 {
			break
		}
		s = s[:len(s)-1]
	}
	return s
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

func capSlice(s []string, n int) []string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
