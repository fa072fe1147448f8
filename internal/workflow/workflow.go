// Package workflow chains the competitor tracker, video generation, and the
// draft uploader into one end-to-end run: scrape and analyze competitor ads,
// render a prompt from the product brief plus the picked ad's analysis,
// generate a vertical video with the sora CLI, and upload it as a PAUSED
// draft. Every stage is skippable and reuses existing artifacts.
package workflow

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"growthkit/internal/adslib"
	"growthkit/internal/artifact"
	"growthkit/internal/config"
	"growthkit/internal/metaads"
	"growthkit/internal/openai"
	"growthkit/internal/store"
)

// Options configures an end-to-end workflow run.
type Options struct {
	URLsFile  string
	OutDir    string
	BriefPath string
	TopN      int
	PickIndex int

	VisionModel    string
	SkipTrack      bool
	AnalysisOnly   bool
	ReanalyzeEmpty bool

	SkipSora    bool
	SoraCLI     string
	SoraModel   string
	SoraSize    string
	SoraSeconds string
	SoraOut     string

	Upload       bool
	SkipUpload   bool
	UploadDryRun bool

	DB  *store.DB
	AI  *openai.Client
	Log *logrus.Logger
}

// Result reports the artifacts each stage produced.
type Result struct {
	PromptPath  string
	VideoPath   string
	SpecPath    string
	ResultsPath string
	AdArchiveID string
}

var digitsRe = regexp.MustCompile(`^\d+$`)

// ReadURLLines reads one URL per line, skipping blanks and # comments.
func ReadURLLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("reading URLs file: %w", err)
	}
	defer f.Close()

	var urls []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading URLs file: %w", err)
	}
	return urls, nil
}

// Run executes the workflow stages in order, stopping at the first hard
// failure. The product brief is validated before anything else happens.
func Run(ctx context.Context, opts Options) (*Result, error) {
	log := opts.Log
	if log == nil {
		log = logrus.StandardLogger()
	}
	if opts.TopN <= 0 {
		opts.TopN = 5
	}
	if opts.SoraSize == "" {
		opts.SoraSize = "720x1280"
	}

	brief, err := LoadBrief(opts.BriefPath)
	if err != nil {
		return nil, err
	}

	urls, err := ReadURLLines(opts.URLsFile)
	if err != nil {
		return nil, err
	}
	if len(urls) == 0 {
		return nil, fmt.Errorf("no URLs found in %s", opts.URLsFile)
	}

	// Stage 1: track competitor ads.
	if !opts.SkipTrack {
		tracker := adslib.New(adslib.Options{
			URLs:            urls,
			OutDir:          opts.OutDir,
			TopN:            opts.TopN,
			MaxVideoSeconds: 12,
			FPS:             1,
			VisionModel:     opts.VisionModel,
			AnalysisOnly:    opts.AnalysisOnly,
			ReanalyzeEmpty:  opts.ReanalyzeEmpty,
		}, opts.AI, opts.DB, log)
		if _, err := tracker.Run(ctx); err != nil {
			return nil, fmt.Errorf("tracking stage: %w", err)
		}
	}

	// Pick the ad from the first advertiser's latest snapshot.
	key, _ := adslib.AdvertiserKey(urls[0])
	var snap adslib.Snapshot
	snapPath := filepath.Join(opts.OutDir, "snapshots", key, "latest.json")
	if err := artifact.ReadJSON(snapPath, &snap); err != nil {
		return nil, fmt.Errorf("reading snapshot %s: %w", snapPath, err)
	}
	if len(snap.TopAds) == 0 {
		return nil, fmt.Errorf("no top_ads in snapshot; run the track stage first")
	}
	if opts.PickIndex < 0 || opts.PickIndex >= len(snap.TopAds) {
		return nil, fmt.Errorf("--pick-index out of range (0..%d)", len(snap.TopAds)-1)
	}
	picked := snap.TopAds[opts.PickIndex]
	if picked.AdArchiveID == "" {
		return nil, fmt.Errorf("picked ad is missing ad_archive_id")
	}

	bundleDir := picked.BundleDir
	if bundleDir == "" {
		bundleDir = filepath.Join("creatives", key, picked.AdArchiveID)
	}
	analysis := picked.Analysis
	if analysis == nil {
		_ = artifact.ReadJSON(filepath.Join(opts.OutDir, bundleDir, "analysis.json"), &analysis)
	}

	// Stage 2: render prompt and generate the video.
	runDate := artifact.DateStamp(time.Now())
	videoPath := opts.SoraOut
	if videoPath == "" {
		videoPath = filepath.Join(opts.OutDir, "sora",
			fmt.Sprintf("%s_%s_%s.mp4", runDate, picked.AdArchiveID, opts.SoraSize))
	}
	if err := os.MkdirAll(filepath.Dir(videoPath), 0o755); err != nil {
		return nil, fmt.Errorf("creating sora output dir: %w", err)
	}

	promptPath := strings.TrimSuffix(videoPath, filepath.Ext(videoPath)) + ".prompt.txt"
	prompt := RenderSoraPrompt(brief, analysis)
	if err := artifact.AtomicWrite(promptPath, []byte(prompt)); err != nil {
		return nil, err
	}
	log.WithField("prompt", promptPath).Info("wrote video prompt")

	if !opts.SkipSora {
		err := RunSora(SoraConfig{
			CLI:        opts.SoraCLI,
			Model:      opts.SoraModel,
			Size:       opts.SoraSize,
			Seconds:    opts.SoraSeconds,
			PromptFile: promptPath,
			OutPath:    videoPath,
			JobJSON:    strings.TrimSuffix(videoPath, filepath.Ext(videoPath)) + ".job.json",
		}, log)
		if err != nil {
			return nil, err
		}
		log.WithField("video", videoPath).Info("video generated")
	}

	result := &Result{
		PromptPath:  promptPath,
		VideoPath:   videoPath,
		AdArchiveID: picked.AdArchiveID,
	}

	// Stage 3: upload as a PAUSED draft.
	if opts.Upload && !opts.SkipUpload {
		specPath, resultsPath, err := runUpload(ctx, opts, brief, picked.AdArchiveID, videoPath, runDate, log)
		if err != nil {
			return nil, err
		}
		result.SpecPath = specPath
		result.ResultsPath = resultsPath
	}
	return result, nil
}

// runUpload writes an uploader spec generated from the brief and runs the
// uploader in-process.
func runUpload(ctx context.Context, opts Options, brief *ProductBrief, adID, videoPath, runDate string, log *logrus.Logger) (specPath, resultsPath string, err error) {
	adAccountID := strings.TrimSpace(config.Getenv(brief.Meta.AdAccountIDEnv, ""))
	pageID := strings.TrimSpace(config.Getenv(brief.Meta.PageIDEnv, ""))
	accessToken := strings.TrimSpace(config.Getenv(brief.Meta.AccessTokenEnv, ""))
	graphVersion := strings.TrimSpace(config.Getenv(brief.Meta.GraphVersionEnv, "v24.0"))
	if graphVersion == "" {
		graphVersion = "v24.0"
	}
	if !digitsRe.MatchString(adAccountID) {
		return "", "", fmt.Errorf("missing/invalid env %s (must be numeric, no act_ prefix)", brief.Meta.AdAccountIDEnv)
	}
	if pageID == "" {
		return "", "", fmt.Errorf("missing env %s", brief.Meta.PageIDEnv)
	}

	absVideo, err := filepath.Abs(videoPath)
	if err != nil {
		absVideo = videoPath
	}

	specDir := filepath.Join(opts.OutDir, "meta-upload")
	specPath = filepath.Join(specDir, fmt.Sprintf("spec_%s_%s.json", runDate, adID))
	resultsPath = filepath.Join(specDir, fmt.Sprintf("results_%s_%s.json", runDate, adID))

	spec := map[string]any{
		"graph_version": graphVersion,
		"ad_account_id": adAccountID,
		"page_id":       pageID,
		"default": map[string]any{
			"destination_url": brief.CTA.DestinationURL,
			"primary_text":    brief.CTA.PrimaryText,
			"headline":        brief.CTA.Headline,
			"description":     brief.CTA.Description,
		},
		"ads": []map[string]any{
			{
				"type": "video",
				"name": fmt.Sprintf("%s - Sora %s", brief.ProductName, adID),
				"file": absVideo,
			},
		},
	}
	if err := artifact.WriteJSON(specPath, spec); err != nil {
		return "", "", err
	}

	if _, err := metaads.Run(ctx, metaads.Options{
		SpecPath:    specPath,
		AccessToken: accessToken,
		DryRun:      opts.UploadDryRun,
		JSONOut:     resultsPath,
		Log:         log,
	}); err != nil {
		return "", "", fmt.Errorf("upload stage: %w", err)
	}

	log.WithFields(logrus.Fields{"spec": specPath, "results": resultsPath}).Info("upload stage complete")
	return specPath, resultsPath, nil
}
