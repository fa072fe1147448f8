package cmd

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"growthkit/internal/adslib"
	"growthkit/internal/config"
	"growthkit/internal/openai"
	"growthkit/internal/workflow"
)

var (
	trackAdsURLsFile        string
	trackAdsURLs            []string
	trackAdsOutDir          string
	trackAdsTopN            int
	trackAdsMaxVideoSeconds int
	trackAdsFPS             int
	trackAdsVisionModel     string
	trackAdsTranscribeModel string
	trackAdsTimeoutS        int
	trackAdsMaxScrolls      int
	trackAdsStallIters      int
	trackAdsHeadful         bool
	trackAdsDebug           bool
	trackAdsAnalysisOnly    bool
	trackAdsSkipDownload    bool
	trackAdsSkipAnalysis    bool
	trackAdsReanalyzeEmpty  bool
	trackAdsReanalyzeErrors bool
	trackAdsForce           bool
)

var trackAdsCmd = &cobra.Command{
	Use:   "track-ads",
	Short: "Scrape Meta Ads Library advertisers, bundle longest-running ads, and analyze creatives",
	RunE: func(cmd *cobra.Command, args []string) error {
		var urls []string
		if trackAdsURLsFile != "" {
			fromFile, err := workflow.ReadURLLines(trackAdsURLsFile)
			if err != nil {
				return err
			}
			urls = append(urls, fromFile...)
		}
		urls = append(urls, trackAdsURLs...)
		if len(urls) == 0 {
			return fmt.Errorf("no advertiser URLs provided; use --urls-file or --url")
		}

		dataDir, err := DataDir()
		if err != nil {
			return err
		}
		outDir := trackAdsOutDir
		if outDir == "" {
			outDir = filepath.Join(dataDir, "meta-ads-library")
		}

		db, err := OpenStore()
		if err != nil {
			return err
		}
		defer db.Close()

		tracker := adslib.New(adslib.Options{
			URLs:            urls,
			OutDir:          outDir,
			TopN:            trackAdsTopN,
			MaxVideoSeconds: trackAdsMaxVideoSeconds,
			FPS:             trackAdsFPS,
			VisionModel:     trackAdsVisionModel,
			TranscribeModel: trackAdsTranscribeModel,
			Timeout:         time.Duration(trackAdsTimeoutS) * time.Second,
			MaxScrolls:      trackAdsMaxScrolls,
			StallIters:      trackAdsStallIters,
			Headful:         trackAdsHeadful,
			Debug:           trackAdsDebug,
			AnalysisOnly:    trackAdsAnalysisOnly,
			SkipDownload:    trackAdsSkipDownload,
			SkipAnalysis:    trackAdsSkipAnalysis,
			ReanalyzeEmpty:  trackAdsReanalyzeEmpty,
			ReanalyzeErrors: trackAdsReanalyzeErrors,
			Force:           trackAdsForce,
		}, openai.New(config.Getenv("OPENAI_API_KEY", "")), db, log)

		reportPath, err := tracker.Run(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Println(reportPath)
		return nil
	},
}

func init() {
	trackAdsCmd.Flags().StringVar(&trackAdsURLsFile, "urls-file", "", "Text file with one advertiser URL per line")
	trackAdsCmd.Flags().StringArrayVar(&trackAdsURLs, "url", nil, "Advertiser URL (repeatable)")
	trackAdsCmd.Flags().StringVar(&trackAdsOutDir, "out-dir", "", "Output directory (default <data-dir>/meta-ads-library)")
	trackAdsCmd.Flags().IntVar(&trackAdsTopN, "top-n", 5, "Longest-running active ads to keep per advertiser")
	trackAdsCmd.Flags().IntVar(&trackAdsMaxVideoSeconds, "max-video-seconds", 30, "Max seconds to analyze per video")
	trackAdsCmd.Flags().IntVar(&trackAdsFPS, "fps", 1, "Frames per second to extract for videos")
	trackAdsCmd.Flags().StringVar(&trackAdsVisionModel, "vision-model", "gpt-5-mini-2025-08-07", "Vision-capable model for creative analysis")
	trackAdsCmd.Flags().StringVar(&trackAdsTranscribeModel, "transcribe-model", "whisper-1", "Transcription model")
	trackAdsCmd.Flags().IntVar(&trackAdsTimeoutS, "timeout-s", 60, "Per-page timeout in seconds")
	trackAdsCmd.Flags().IntVar(&trackAdsMaxScrolls, "max-scrolls", 25, "Max scroll iterations on the advertiser page")
	trackAdsCmd.Flags().IntVar(&trackAdsStallIters, "stall-iters", 3, "Stop scrolling after this many no-progress iterations")
	trackAdsCmd.Flags().BoolVar(&trackAdsHeadful, "headful", false, "Run the browser headful (for debugging)")
	trackAdsCmd.Flags().BoolVar(&trackAdsDebug, "debug", false, "Save extra debug artifacts")
	trackAdsCmd.Flags().BoolVar(&trackAdsAnalysisOnly, "analysis-only", false, "Skip scraping; reanalyze bundles from the latest snapshot")
	trackAdsCmd.Flags().BoolVar(&trackAdsSkipDownload, "skip-download", false, "Scrape details but skip downloading creatives")
	trackAdsCmd.Flags().BoolVar(&trackAdsSkipAnalysis, "skip-analysis", false, "Download creatives but skip analysis")
	trackAdsCmd.Flags().BoolVar(&trackAdsReanalyzeEmpty, "reanalyze-empty", false, "Redo analysis when analysis.json is missing or empty")
	trackAdsCmd.Flags().BoolVar(&trackAdsReanalyzeErrors, "reanalyze-errors", false, "Redo analysis when analysis.json contains an error")
	trackAdsCmd.Flags().BoolVar(&trackAdsForce, "force", false, "Re-download and re-analyze even if the bundle exists")
	rootCmd.AddCommand(trackAdsCmd)
}
