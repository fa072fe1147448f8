package appstore

import (
	"fmt"
	"strings"

	"growthkit/internal/artifact"
)

func mdEscape(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.TrimSpace(s)
}

// writeReport renders the per-run Markdown report: a summary table
// followed by per-app detail sections.
func writeReport(path, date string, results []*AppResult) error {
	var b strings.Builder
	w := func(format string, args ...any) {
		fmt.Fprintf(&b, format+"\n", args...)
	}

	w("# Competitor Updates Report (%s)", date)
	w("")
	w("## Summary")
	w("")
	w("| App | Store | Total Reviews | Last Update | Version | Base Price | Subscription Price Points | IAP Price Points | Reviews Fetched | Changed vs Previous |")
	w("| --- | --- | ---: | --- | --- | --- | ---: | ---: | ---: | --- |")
	for _, r := range results {
		name := r.AppName
		if name == "" {
			name = r.AppKey
		}
		total := ""
		if r.TotalReviews != nil {
			total = fmt.Sprintf("%d", *r.TotalReviews)
		}
		changed := "no"
		if len(r.Diff) > 0 {
			changed = "yes"
		}
		w("| %s | %s | %s | %s | %s | %s | %d | %d | %d | %s |",
			mdEscape(name), mdEscape(r.Store), total, mdEscape(r.LastUpdateDate),
			mdEscape(r.Version), mdEscape(r.BasePrice),
			len(r.SubscriptionPrices), len(r.InAppPurchases), len(r.RecentReviews), changed)
	}
	w("")

	for _, r := range results {
		name := r.AppName
		if name == "" {
			name = r.AppKey
		}
		w("## %s", name)
		w("")
		w("- Store: `%s`", r.Store)
		w("- URL: `%s`", r.AppURL)
		if r.LookupURL != "" {
			w("- iTunes lookup: `%s`", r.LookupURL)
		}
		w("- Snapshot: `%s`", r.SnapshotPath)
		if r.PreviousSnapshotPath != "" {
			w("- Previous snapshot: `%s`", r.PreviousSnapshotPath)
		}
		w("")

		if len(r.Errors) > 0 {
			w("### Errors")
			w("")
			for _, e := range r.Errors {
				w("- %s", e)
			}
			w("")
		}

		if len(r.Diff) > 0 {
			w("### Changes Detected")
			w("")
			for _, k := range diffKeys {
				if c, ok := r.Diff[k]; ok {
					w("- `%s`: %v -> %v", k, c.From, c.To)
				}
			}
			w("")
		}

		w("### Release Notes (Latest)")
		w("")
		if rn := strings.TrimSpace(r.ReleaseNotes); rn != "" {
			w("%s", rn)
		} else {
			w("(missing)")
		}
		w("")

		w("### Pricing")
		w("")
		w("- Base price: %q", r.BasePrice)
		writePricePoints(&b, "Subscription price points", r.SubscriptionPrices)
		writePricePoints(&b, "In-app purchases", r.InAppPurchases)
		w("")

		w("### Recent Reviews (Latest)")
		w("")
		if len(r.RecentReviews) == 0 {
			w("(missing)")
		} else {
			for _, rev := range r.RecentReviews {
				rating := "none"
				if rev.Rating != nil {
					rating = fmt.Sprintf("%d", *rev.Rating)
				}
				w("- %q (rating=%s, author=%q, date=%q)", rev.Title, rating, rev.Author, rev.Date)
				w("  %s", rev.Body)
			}
		}
		w("")

		w("### Theme Heuristics (Draft)")
		w("")
		w("- Positive examples: %q", r.ReviewThemes.PositiveExamples)
		w("- Negative examples: %q", r.ReviewThemes.NegativeExamples)
		w("")
	}

	return artifact.AtomicWrite(path, []byte(b.String()))
}

func writePricePoints(b *strings.Builder, label string, items []PricePoint) {
	if len(items) == 0 {
		fmt.Fprintf(b, "- %s: (missing or none detected)\n", label)
		return
	}
	fmt.Fprintf(b, "- %s (best-effort):\n", label)
	limit := len(items)
	if limit > 20 {
		limit = 20
	}
	for _, item := range items[:limit] {
		fmt.Fprintf(b, "  - %q: %q\n", item.Name, item.Price)
	}
	if len(items) > 20 {
		fmt.Fprintf(b, "  - (and %d more)\n", len(items)-20)
	}
}
