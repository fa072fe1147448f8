// Package adslib scrapes the Meta Ads Library for an advertiser's
// longest-running active ads, downloads their creatives into per-ad bundle
// directories, and runs multimodal analysis over the media. Runs are
// resumable: existing bundles are reused unless forced, and analysis can be
// rerun separately from scraping.
package adslib

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"growthkit/internal/artifact"
	"growthkit/internal/media"
	"growthkit/internal/openai"
	"growthkit/internal/store"
)

// Options configures a tracker run.
type Options struct {
	URLs            []string
	OutDir          string
	TopN            int
	MaxVideoSeconds int
	FPS             int
	VisionModel     string
	TranscribeModel string
	Timeout         time.Duration
	MaxScrolls      int
	StallIters      int
	Headful         bool
	Debug           bool

	AnalysisOnly    bool
	SkipDownload    bool
	SkipAnalysis    bool
	ReanalyzeEmpty  bool
	ReanalyzeErrors bool
	Force           bool
}

func (o *Options) applyDefaults() {
	if o.TopN == 0 {
		o.TopN = 5
	}
	if o.MaxVideoSeconds <= 0 {
		o.MaxVideoSeconds = 30
	}
	if o.FPS <= 0 {
		o.FPS = 1
	}
	if o.VisionModel == "" {
		o.VisionModel = "gpt-5-mini-2025-08-07"
	}
	if o.TranscribeModel == "" {
		o.TranscribeModel = "whisper-1"
	}
	if o.Timeout <= 0 {
		o.Timeout = 60 * time.Second
	}
	if o.MaxScrolls <= 0 {
		o.MaxScrolls = 25
	}
	if o.StallIters <= 0 {
		o.StallIters = 3
	}
}

// Tracker runs Ads Library tracking passes.
type Tracker struct {
	opts Options
	ai   *openai.Client
	db   *store.DB
	log  *logrus.Logger
}

func New(opts Options, ai *openai.Client, db *store.DB, log *logrus.Logger) *Tracker {
	opts.applyDefaults()
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Tracker{opts: opts, ai: ai, db: db, log: log}
}

func (t *Tracker) snapshotsDir() string { return filepath.Join(t.opts.OutDir, "snapshots") }
func (t *Tracker) creativesDir() string { return filepath.Join(t.opts.OutDir, "creatives") }
func (t *Tracker) reportsDir() string   { return filepath.Join(t.opts.OutDir, "reports") }

// Run executes one tracking pass over the configured advertiser URLs and
// writes per-advertiser snapshots plus a daily Markdown report.
func (t *Tracker) Run(ctx context.Context) (string, error) {
	if len(t.opts.URLs) == 0 {
		return "", fmt.Errorf("no advertiser URLs provided")
	}
	for _, u := range t.opts.URLs {
		if !adsLibraryURL(u) {
			t.log.WithField("url", u).Warn("URL does not look like an Ads Library URL")
		}
	}
	if err := media.CheckFFmpeg(); err != nil {
		return "", err
	}

	runID := uuid.NewString()
	if t.db != nil {
		if err := t.db.StartRun(runID, "track-ads", fmt.Sprintf("%d advertisers", len(t.opts.URLs))); err != nil {
			t.log.WithError(err).Warn("recording run start failed")
		}
	}

	runDate := artifact.DateStamp(time.Now())
	reportPath := filepath.Join(t.reportsDir(), runDate+".md")

	results, err := t.runAdvertisers(ctx, runDate)
	if err == nil {
		err = writeDailyReport(reportPath, runDate, results)
	}

	if t.db != nil {
		status, errMsg := "ok", ""
		if err != nil {
			status, errMsg = "error", err.Error()
		}
		if ferr := t.db.FinishRun(runID, status, t.snapshotsDir(), reportPath, errMsg); ferr != nil {
			t.log.WithError(ferr).Warn("recording run finish failed")
		}
	}
	if err != nil {
		return "", err
	}
	return reportPath, nil
}

func (t *Tracker) runAdvertisers(ctx context.Context, runDate string) ([]Snapshot, error) {
	if t.opts.AnalysisOnly {
		return t.runAnalysisOnly(ctx, runDate)
	}

	br, err := newBrowser(ctx, t.opts.Headful, t.opts.Timeout, t.log)
	if err != nil {
		return nil, err
	}
	defer br.Close()

	dl := newDownloader(t.opts.Timeout, t.log)

	var results []Snapshot
	for _, advertiserURL := range t.opts.URLs {
		key, pageID := AdvertiserKey(advertiserURL)
		adv := Advertiser{Key: key, URL: advertiserURL, PageID: pageID}

		debugDir := ""
		if t.opts.Debug {
			debugDir = filepath.Join(t.opts.OutDir, "debug", key)
		}

		candidates, err := br.scrapeAdvertiser(advertiserURL, scrapeOptions{
			TopN:       t.opts.TopN,
			MaxScrolls: t.opts.MaxScrolls,
			StallIters: t.opts.StallIters,
			DebugDir:   debugDir,
		})
		if err != nil {
			t.log.WithError(err).WithField("advertiser", key).Error("scraping advertiser page failed")
			candidates = nil
		}

		var ads []AdRecord
		for _, cand := range candidates {
			ads = append(ads, t.processAd(ctx, br, dl, adv, cand, runDate))
		}

		snap := Snapshot{RunDate: runDate, Advertiser: adv, TopAds: ads}
		if err := t.writeSnapshot(key, runDate, snap); err != nil {
			return nil, err
		}
		results = append(results, snap)

		// Be polite between advertisers.
		time.Sleep(time.Second)
	}
	return results, nil
}

// processAd handles one ranked ad: reuse its bundle when complete, otherwise
// scrape details, download creatives, and analyze.
func (t *Tracker) processAd(ctx context.Context, br *browser, dl *downloader, adv Advertiser, cand Candidate, runDate string) AdRecord {
	adDir := filepath.Join(t.creativesDir(), adv.Key, cand.AdArchiveID)
	metaPath := filepath.Join(adDir, "meta.json")
	analysisPath := filepath.Join(adDir, "analysis.json")

	rec := AdRecord{
		AdArchiveID:    cand.AdArchiveID,
		StartedRunning: cand.StartedRunning.Format("2006-01-02"),
		DaysRunning:    cand.DaysRunning,
		Kind:           "unknown",
		BundleDir:      relPath(adDir, t.opts.OutDir),
	}

	bundleComplete := fileExists(metaPath) && (t.opts.SkipAnalysis || fileExists(analysisPath))
	if bundleComplete && !t.opts.Force {
		meta := loadMeta(metaPath)
		analysis := loadAnalysis(analysisPath)
		if meta != nil && meta.Kind != "" {
			rec.Kind = meta.Kind
		}
		if b, err := os.ReadFile(filepath.Join(adDir, "audio", "transcript.txt")); err == nil {
			rec.Transcript = strings.TrimSpace(string(b))
		}

		if meta != nil && !t.opts.SkipAnalysis && t.needsRerun(analysis) {
			analysis = t.rerunAnalysis(ctx, adDir, meta, &rec)
		}
		rec.Analysis = analysis
		return rec
	}

	details, err := br.scrapeAdDetails(cand.AdArchiveID)
	if err != nil {
		t.log.WithError(err).WithField("ad", cand.AdArchiveID).Error("processing ad failed")
		rec.Error = err.Error()
		_ = artifact.WriteJSON(metaPath, &BundleMeta{
			AdArchiveID:    cand.AdArchiveID,
			Advertiser:     adv,
			StartedRunning: rec.StartedRunning,
			DaysRunning:    cand.DaysRunning,
			RunDate:        runDate,
			Error:          err.Error(),
		})
		return rec
	}

	adText := formatAdText(details)

	var images, videos []string
	if !t.opts.SkipDownload {
		images, videos = dl.downloadCreatives(ctx, details, adDir)
	}

	kind := "image"
	if len(videos) > 0 {
		kind = "video"
	}
	rec.Kind = kind

	meta := &BundleMeta{
		AdArchiveID:      cand.AdArchiveID,
		Advertiser:       adv,
		StartedRunning:   rec.StartedRunning,
		DaysRunning:      cand.DaysRunning,
		DetailURL:        details.DetailURL,
		PageTitle:        details.PageTitle,
		Kind:             kind,
		ExtractedText:    adText,
		DownloadedImages: relPaths(images, t.opts.OutDir),
		DownloadedVideos: relPaths(videos, t.opts.OutDir),
		RunDate:          runDate,
	}
	if err := artifact.WriteJSON(metaPath, meta); err != nil {
		rec.Error = err.Error()
		return rec
	}

	if !t.opts.SkipAnalysis {
		rec.Analysis = t.rerunAnalysis(ctx, adDir, meta, &rec)
	}
	return rec
}

// rerunAnalysis runs bundle analysis, persists analysis.json, and captures
// failures as an error object so the run can continue.
func (t *Tracker) rerunAnalysis(ctx context.Context, adDir string, meta *BundleMeta, rec *AdRecord) map[string]any {
	analysis, transcript, err := t.reanalyzeBundle(ctx, adDir, meta)
	if err != nil {
		t.log.WithError(err).WithField("ad", meta.AdArchiveID).Error("analysis failed")
		analysis = map[string]any{"error": err.Error()}
	}
	if transcript != "" {
		rec.Transcript = transcript
	}
	_ = artifact.WriteJSON(filepath.Join(adDir, "analysis.json"), analysis)
	return analysis
}

// needsRerun applies the reanalysis flags to a loaded analysis object.
func (t *Tracker) needsRerun(analysis map[string]any) bool {
	if analysis == nil {
		return true
	}
	if t.opts.ReanalyzeErrors {
		if errStr, ok := analysis["error"].(string); ok && strings.TrimSpace(errStr) != "" {
			return true
		}
	}
	if t.opts.ReanalyzeEmpty && AnalysisNeedsRerun(analysis) {
		return true
	}
	return false
}

// runAnalysisOnly reprocesses existing bundles from the latest snapshots
// without scraping or downloading.
func (t *Tracker) runAnalysisOnly(ctx context.Context, runDate string) ([]Snapshot, error) {
	var results []Snapshot
	for _, advertiserURL := range t.opts.URLs {
		key, pageID := AdvertiserKey(advertiserURL)
		adv := Advertiser{Key: key, URL: advertiserURL, PageID: pageID}

		var prev Snapshot
		latestPath := filepath.Join(t.snapshotsDir(), key, "latest.json")
		if err := artifact.ReadJSON(latestPath, &prev); err != nil {
			t.log.WithField("advertiser", key).Warn("no snapshot to reanalyze")
		}

		snapAds := prev.TopAds
		if len(snapAds) > t.opts.TopN {
			snapAds = snapAds[:t.opts.TopN]
		}

		var ads []AdRecord
		for _, a := range snapAds {
			if a.AdArchiveID == "" {
				continue
			}
			adDir := filepath.Join(t.creativesDir(), key, a.AdArchiveID)
			meta := loadMeta(filepath.Join(adDir, "meta.json"))
			if meta == nil {
				t.log.WithField("ad", a.AdArchiveID).Warn("missing meta.json, skipping")
				continue
			}

			rec := AdRecord{
				AdArchiveID:    a.AdArchiveID,
				StartedRunning: firstNonEmpty(a.StartedRunning, meta.StartedRunning),
				DaysRunning:    a.DaysRunning,
				Kind:           firstNonEmpty(a.Kind, meta.Kind, "unknown"),
				BundleDir:      relPath(adDir, t.opts.OutDir),
				Transcript:     strings.TrimSpace(a.Transcript),
			}
			if rec.DaysRunning == 0 {
				rec.DaysRunning = meta.DaysRunning
			}

			analysis := loadAnalysis(filepath.Join(adDir, "analysis.json"))
			if !t.opts.SkipAnalysis && (t.needsRerun(analysis) || t.opts.Force) {
				analysis = t.rerunAnalysis(ctx, adDir, meta, &rec)
			}
			rec.Analysis = analysis
			ads = append(ads, rec)
		}

		snap := Snapshot{RunDate: runDate, Advertiser: adv, TopAds: ads}
		if err := t.writeSnapshot(key, runDate, snap); err != nil {
			return nil, err
		}
		results = append(results, snap)
	}
	return results, nil
}

func (t *Tracker) writeSnapshot(key, runDate string, snap Snapshot) error {
	dir := filepath.Join(t.snapshotsDir(), key)
	if err := artifact.WriteJSON(filepath.Join(dir, runDate+".json"), snap); err != nil {
		return err
	}
	return artifact.WriteJSON(filepath.Join(dir, "latest.json"), snap)
}

func adsLibraryURL(u string) bool {
	return strings.Contains(u, "facebook.com/ads/library")
}

func relPaths(paths []string, base string) []string {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		out = append(out, relPath(p, base))
	}
	return out
}

func firstNonEmpty(xs ...string) string {
	for _, x := range xs {
		if x != "" {
			return x
		}
	}
	return ""
}
