// Package appstore tracks competitor App Store listings: per-app
// snapshots of metadata, pricing and recent reviews, with a diff
// against the previous snapshot.
package appstore

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"growthkit/internal/artifact"
)

// PricePoint is one named price entry (IAP or subscription).
type PricePoint struct {
	Name  string `json:"name"`
	Price string `json:"price"`
}

// Review is one extracted App Store review.
type Review struct {
	ID     string `json:"id"`
	Author string `json:"author"`
	Title  string `json:"title"`
	Body   string `json:"body"`
	Rating *int   `json:"rating"`
	Date   string `json:"date"`
}

// ReviewThemes holds keyword-matched example reviews.
type ReviewThemes struct {
	PositiveExamples []string `json:"positive_examples"`
	NegativeExamples []string `json:"negative_examples"`
}

// Change records a single field transition between snapshots.
type Change struct {
	From any `json:"from"`
	To   any `json:"to"`
}

// AppResult is the snapshot captured for one app on one date.
type AppResult struct {
	Store                string            `json:"store"`
	AppURL               string            `json:"app_url"`
	Country              string            `json:"country"`
	Date                 string            `json:"date"`
	Errors               []string          `json:"errors"`
	AppKey               string            `json:"app_key,omitempty"`
	AppID                string            `json:"app_id,omitempty"`
	LookupURL            string            `json:"lookup_url,omitempty"`
	AppName              string            `json:"app_name,omitempty"`
	SellerName           string            `json:"seller_name,omitempty"`
	Version              string            `json:"version,omitempty"`
	LastUpdateDate       string            `json:"last_update_date,omitempty"`
	ReleaseNotes         string            `json:"release_notes,omitempty"`
	TotalReviews         *int64            `json:"total_reviews"`
	BasePrice            string            `json:"base_price"`
	FinalURL             string            `json:"final_url,omitempty"`
	ReviewsURL           string            `json:"reviews_url,omitempty"`
	InAppPurchases       []PricePoint      `json:"in_app_purchases"`
	SubscriptionPrices   []PricePoint      `json:"subscription_prices"`
	RecentReviews        []Review          `json:"recent_reviews"`
	ReviewThemes         ReviewThemes      `json:"review_themes"`
	SnapshotPath         string            `json:"snapshot_path,omitempty"`
	PreviousSnapshotDate string            `json:"previous_snapshot_date,omitempty"`
	PreviousSnapshotPath string            `json:"previous_snapshot_path,omitempty"`
	Diff                 map[string]Change `json:"diff"`
	FetchedAt            string            `json:"fetched_at,omitempty"`
}

// diffKeys is the fixed set of snapshot fields compared between runs.
var diffKeys = []string{
	"total_reviews",
	"last_update_date",
	"version",
	"release_notes",
	"base_price",
	"in_app_purchases",
	"subscription_prices",
}

// DiffSnapshot compares prev and cur over the fixed key set and returns
// the fields whose values differ.
func DiffSnapshot(prev, cur map[string]any) map[string]Change {
	diff := make(map[string]Change)
	for _, k := range diffKeys {
		if !reflect.DeepEqual(prev[k], cur[k]) {
			diff[k] = Change{From: prev[k], To: cur[k]}
		}
	}
	return diff
}

// toJSONMap round-trips v through JSON so diffing sees the same value
// shapes a reloaded snapshot file would have.
func toJSONMap(v any) (map[string]any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return m, nil
}

// Options configures a tracking run.
type Options struct {
	URLs         []string
	OutDir       string
	Country      string
	Date         string
	Timeout      time.Duration
	Retries      int
	RetryBackoff time.Duration
	MaxReviews   int
	Sleep        time.Duration
	Log          *logrus.Logger
}

type itunesRecord struct {
	TrackName                 string   `json:"trackName"`
	SellerName                string   `json:"sellerName"`
	Version                   string   `json:"version"`
	CurrentVersionReleaseDate string   `json:"currentVersionReleaseDate"`
	ReleaseNotes              string   `json:"releaseNotes"`
	UserRatingCount           *int64   `json:"userRatingCount"`
	Price                     *float64 `json:"price"`
	Currency                  string   `json:"currency"`
	FormattedPrice            string   `json:"formattedPrice"`
}

type itunesLookup struct {
	Results []itunesRecord `json:"results"`
}

// Run snapshots every URL, diffs against the prior snapshot, writes the
// Markdown report and returns its path. Per-app failures land in the
// app's Errors list; only setup problems fail the run.
func Run(ctx context.Context, opts Options) (string, []*AppResult, error) {
	log := opts.Log
	if opts.Date == "" {
		opts.Date = time.Now().Format("2006-01-02")
	} else if _, err := time.Parse("2006-01-02", opts.Date); err != nil {
		return "", nil, fmt.Errorf("invalid --date %q, want YYYY-MM-DD", opts.Date)
	}
	f := newFetcher(opts.Timeout, opts.Country, opts.Retries, opts.RetryBackoff)

	var results []*AppResult
	for i, appURL := range opts.URLs {
		if i > 0 && opts.Sleep > 0 {
			select {
			case <-time.After(opts.Sleep):
			case <-ctx.Done():
				return "", results, ctx.Err()
			}
		}

		r := trackOne(ctx, f, appURL, opts)
		log.WithFields(logrus.Fields{
			"app":     r.AppKey,
			"errors":  len(r.Errors),
			"changed": len(r.Diff) > 0,
		}).Info("captured app snapshot")
		results = append(results, r)
	}

	reportPath := filepath.Join(opts.OutDir, "reports", opts.Date+".md")
	if err := writeReport(reportPath, opts.Date, results); err != nil {
		return "", results, err
	}
	return reportPath, results, nil
}

func trackOne(ctx context.Context, f *fetcher, appURL string, opts Options) *AppResult {
	r := &AppResult{
		AppURL:             appURL,
		Country:            opts.Country,
		Date:               opts.Date,
		Errors:             []string{},
		InAppPurchases:     []PricePoint{},
		SubscriptionPrices: []PricePoint{},
		RecentReviews:      []Review{},
		Diff:               map[string]Change{},
	}

	parsed, err := url.Parse(appURL)
	host := ""
	if err == nil {
		host = strings.ToLower(parsed.Host)
	}

	if strings.HasSuffix(host, "apps.apple.com") {
		r.Store = "apple-app-store"
		appID := ExtractAppleAppID(appURL)
		if appID == "" {
			r.Errors = append(r.Errors, "could not extract Apple app id from URL")
			r.AppKey = artifact.Slug(appURL)
		} else {
			r.AppID = appID
			r.AppKey = "apple-" + appID
			captureApple(ctx, f, r, appURL, appID, opts)
		}
	} else {
		r.Store = "unknown"
		r.AppKey = artifact.Slug(host + "-" + appURL)
		r.Errors = append(r.Errors, fmt.Sprintf("unsupported store host %q, expected apps.apple.com", host))
	}

	persistSnapshot(r, opts.OutDir)
	return r
}

func captureApple(ctx context.Context, f *fetcher, r *AppResult, appURL, appID string, opts Options) {
	// Stable metadata from the iTunes lookup API.
	lookupURL := fmt.Sprintf("https://itunes.apple.com/lookup?id=%s&country=%s",
		url.QueryEscape(appID), url.QueryEscape(opts.Country))
	raw, _, _, err := f.get(ctx, lookupURL)
	if err != nil {
		r.Errors = append(r.Errors, fmt.Sprintf("iTunes lookup failed: %v", err))
	} else {
		var lookup itunesLookup
		if err := json.Unmarshal(raw, &lookup); err != nil {
			r.Errors = append(r.Errors, fmt.Sprintf("iTunes lookup parse failed: %v", err))
		} else if len(lookup.Results) == 0 {
			r.Errors = append(r.Errors, "no results in iTunes lookup")
		} else {
			rec := lookup.Results[0]
			r.LookupURL = lookupURL
			r.AppName = rec.TrackName
			r.SellerName = rec.SellerName
			r.Version = rec.Version
			r.LastUpdateDate = rec.CurrentVersionReleaseDate
			r.ReleaseNotes = rec.ReleaseNotes
			r.TotalReviews = rec.UserRatingCount
			switch {
			case rec.FormattedPrice != "":
				r.BasePrice = rec.FormattedPrice
			case rec.Price != nil && rec.Currency != "":
				r.BasePrice = fmt.Sprintf("%g %s", *rec.Price, rec.Currency)
			}
		}
	}

	// Page HTML for IAP pricing and embedded reviews.
	pageHTML := ""
	raw, finalURL, _, err := f.get(ctx, appURL)
	if err != nil {
		r.Errors = append(r.Errors, fmt.Sprintf("app page fetch failed: %v", err))
	} else {
		pageHTML = string(raw)
		r.FinalURL = finalURL
	}

	if pageHTML != "" {
		r.InAppPurchases = ExtractInAppPurchases(pageHTML)
		r.SubscriptionPrices = ExtractSubscriptionPricePoints(r.InAppPurchases)
		r.RecentReviews = ExtractRecentReviews(pageHTML, opts.MaxReviews)
	}

	// Fill remaining review slots from the dedicated reviews page,
	// sorted mostRecent to stay deterministic.
	if len(r.RecentReviews) < opts.MaxReviews {
		reviewsURL := withQueryParam(withQueryParam(appURL, "see-all", "reviews"), "sort", "mostRecent")
		raw, _, _, err := f.get(ctx, reviewsURL)
		if err != nil {
			r.Errors = append(r.Errors, fmt.Sprintf("reviews fetch failed: %v", err))
		} else {
			r.ReviewsURL = reviewsURL
			seen := make(map[string]bool)
			for _, rev := range r.RecentReviews {
				if rev.ID != "" {
					seen[rev.ID] = true
				}
			}
			for _, rev := range ExtractRecentReviews(string(raw), opts.MaxReviews) {
				if len(r.RecentReviews) >= opts.MaxReviews {
					break
				}
				if rev.ID != "" && seen[rev.ID] {
					continue
				}
				if rev.ID != "" {
					seen[rev.ID] = true
				}
				r.RecentReviews = append(r.RecentReviews, rev)
			}
		}
	}
	r.ReviewThemes = SummarizeReviewThemes(r.RecentReviews)
}

func persistSnapshot(r *AppResult, outDir string) {
	appDir := filepath.Join(outDir, "snapshots", r.AppKey)
	snapshotPath := filepath.Join(appDir, r.Date+".json")
	r.SnapshotPath = snapshotPath

	if prevPath := artifact.PreviousSnapshot(appDir, r.Date); prevPath != "" {
		var prev map[string]any
		if err := artifact.ReadJSON(prevPath, &prev); err == nil {
			r.PreviousSnapshotPath = prevPath
			r.PreviousSnapshotDate = strings.TrimSuffix(filepath.Base(prevPath), ".json")
			if cur, err := toJSONMap(r); err == nil {
				r.Diff = DiffSnapshot(prev, cur)
			}
		}
	}

	r.FetchedAt = time.Now().Format("2006-01-02T15:04:05")
	if err := artifact.WriteJSON(snapshotPath, r); err != nil {
		r.Errors = append(r.Errors, fmt.Sprintf("snapshot write failed: %v", err))
		return
	}
	if err := artifact.WriteJSON(filepath.Join(appDir, "latest.json"), r); err != nil {
		r.Errors = append(r.Errors, fmt.Sprintf("latest snapshot write failed: %v", err))
	}
}
