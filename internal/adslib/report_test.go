package adslib

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestWriteDailyReport(t *testing.T) {
	dir := t.TempDir()
	reportPath := filepath.Join(dir, "reports", "2026-08-30.md")

	results := []Snapshot{{
		RunDate: "2026-08-30",
		Advertiser: Advertiser{
			Key: "15087023444",
			URL: "https://www.facebook.com/ads/library/?view_all_page_id=15087023444",
		},
		TopAds: []AdRecord{
			{
				AdArchiveID:    "111",
				StartedRunning: "2026-07-01",
				DaysRunning:    60,
				Kind:           "video",
				BundleDir:      "creatives/15087023444/111",
				Analysis:       map[string]any{"hook": "Stop scrolling", "ad_summary": "A demo of the app"},
			},
			{
				AdArchiveID: "222",
				Kind:        "image",
				Error:       "scrape failed",
			},
		},
	}}

	if err := writeDailyReport(reportPath, "2026-08-30", results); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	raw, err := os.ReadFile(reportPath)
	if err != nil {
		t.Fatalf("reading report: %v", err)
	}
	md := string(raw)

	for _, want := range []string{
		"# Meta Ads Library Tracker (2026-08-30)",
		"## 15087023444",
		"- Top ads: 2",
		"### 111 (video)",
		"- Started: 2026-07-01 (60 days running)",
		"- Hook: Stop scrolling",
		"- Summary: A demo of the app",
		"- Bundle: `creatives/15087023444/111`",
		"### 222 (image)",
		"- Error: scrape failed",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("report missing %q", want)
		}
	}
}

func TestAdsLibraryURL(t *testing.T) {
	if !adsLibraryURL("https://www.facebook.com/ads/library/?view_all_page_id=1") {
		t.Error("ads library URL should match")
	}
	if adsLibraryURL("https://www.facebook.com/somepage") {
		t.Error("plain page URL should not match")
	}
}

func TestFirstNonEmpty(t *testing.T) {
	if got := firstNonEmpty("", "", "x", "y"); got != "x" {
		t.Errorf("got %q", got)
	}
	if got := firstNonEmpty(); got != "" {
		t.Errorf("got %q", got)
	}
}
