package adslib

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"growthkit/internal/artifact"
)

func fileExists(p string) bool {
	info, err := os.Stat(p)
	return err == nil && !info.IsDir()
}

// Advertiser identifies one tracked Ads Library page.
type Advertiser struct {
	Key    string `json:"key"`
	URL    string `json:"url"`
	PageID string `json:"page_id"`
}

// BundleMeta is the meta.json written into each creative bundle.
type BundleMeta struct {
	AdArchiveID      string     `json:"ad_archive_id"`
	Advertiser       Advertiser `json:"advertiser"`
	StartedRunning   string     `json:"started_running"`
	DaysRunning      int        `json:"days_running"`
	DetailURL        string     `json:"detail_url,omitempty"`
	PageTitle        string     `json:"page_title,omitempty"`
	Kind             string     `json:"kind,omitempty"`
	ExtractedText    string     `json:"extracted_text,omitempty"`
	DownloadedImages []string   `json:"downloaded_images,omitempty"`
	DownloadedVideos []string   `json:"downloaded_videos,omitempty"`
	RunDate          string     `json:"run_date"`
	Error            string     `json:"error,omitempty"`
}

// AdRecord is one ad in a snapshot's top_ads list.
type AdRecord struct {
	AdArchiveID    string         `json:"ad_archive_id"`
	StartedRunning string         `json:"started_running"`
	DaysRunning    int            `json:"days_running"`
	Kind           string         `json:"kind"`
	BundleDir      string         `json:"bundle_dir"`
	Analysis       map[string]any `json:"analysis"`
	Transcript     string         `json:"transcript,omitempty"`
	Error          string         `json:"error,omitempty"`
}

// Snapshot is the per-advertiser run artifact written to snapshots/<key>/.
type Snapshot struct {
	RunDate    string     `json:"run_date"`
	Advertiser Advertiser `json:"advertiser"`
	TopAds     []AdRecord `json:"top_ads"`
}

// AdvertiserKey derives a stable directory key for an advertiser URL,
// preferring the numeric page id.
func AdvertiserKey(advertiserURL string) (key, pageID string) {
	pageID = ParseViewAllPageID(advertiserURL)
	if pageID != "" {
		key = artifact.Slug(pageID)
	} else {
		key = artifact.Slug(advertiserURL)
	}
	if key == "" {
		key = "advertiser"
	}
	return key, pageID
}

// formatAdText flattens the scraped text blocks into a labeled plain-text
// summary that travels with the bundle.
func formatAdText(details *AdDetails) string {
	var parts []string
	appendAll := func(label string, xs []string) {
		for _, x := range xs {
			x = strings.TrimSpace(x)
			if x != "" {
				parts = append(parts, "["+label+"] "+x)
			}
		}
	}
	appendAll("message", details.Messages)
	appendAll("headline", details.Headlines)
	appendAll("description", details.Descriptions)
	return strings.Join(parts, "\n")
}

func loadMeta(path string) *BundleMeta {
	var m BundleMeta
	if err := artifact.ReadJSON(path, &m); err != nil {
		return nil
	}
	return &m
}

func loadAnalysis(path string) map[string]any {
	var m map[string]any
	if err := artifact.ReadJSON(path, &m); err != nil {
		return nil
	}
	return m
}

// existingMedia resolves a bundle's creative files, preferring the paths
// recorded in meta.json and falling back to a directory scan.
func existingMedia(outDir, adDir string, meta *BundleMeta) (images, videos []string) {
	resolve := func(rels []string) []string {
		var out []string
		for _, r := range rels {
			p := filepath.Join(outDir, r)
			if fileExists(p) {
				out = append(out, p)
			}
		}
		return out
	}
	images = resolve(meta.DownloadedImages)
	videos = resolve(meta.DownloadedVideos)

	if len(images) == 0 {
		images, _ = filepath.Glob(filepath.Join(adDir, "images", "image_*.*"))
		sort.Strings(images)
	}
	if len(videos) == 0 {
		videos, _ = filepath.Glob(filepath.Join(adDir, "video", "video_*.*"))
		sort.Strings(videos)
	}
	return images, videos
}

func relPath(p, base string) string {
	rel, err := filepath.Rel(base, p)
	if err != nil || strings.HasPrefix(rel, "..") {
		return p
	}
	return rel
}
