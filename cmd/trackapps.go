package cmd

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"growthkit/internal/appstore"
	"growthkit/internal/workflow"
)

var (
	trackAppsURLsFile   string
	trackAppsURLs       []string
	trackAppsOutDir     string
	trackAppsCountry    string
	trackAppsDate       string
	trackAppsTimeoutS   int
	trackAppsRetries    int
	trackAppsMaxReviews int
	trackAppsSleepMS    int
)

var trackAppsCmd = &cobra.Command{
	Use:   "track-apps",
	Short: "Snapshot competitor App Store listings and diff against the previous run",
	RunE: func(cmd *cobra.Command, args []string) error {
		var urls []string
		if trackAppsURLsFile != "" {
			fromFile, err := workflow.ReadURLLines(trackAppsURLsFile)
			if err != nil {
				return err
			}
			urls = append(urls, fromFile...)
		}
		urls = append(urls, trackAppsURLs...)
		if len(urls) == 0 {
			return fmt.Errorf("no app URLs provided; use --urls-file or --url")
		}

		dataDir, err := DataDir()
		if err != nil {
			return err
		}
		outDir := trackAppsOutDir
		if outDir == "" {
			outDir = filepath.Join(dataDir, "competitor-apps")
		}

		reportPath, _, err := appstore.Run(cmd.Context(), appstore.Options{
			URLs:       urls,
			OutDir:     outDir,
			Country:    trackAppsCountry,
			Date:       trackAppsDate,
			Timeout:    time.Duration(trackAppsTimeoutS) * time.Second,
			Retries:    trackAppsRetries,
			MaxReviews: trackAppsMaxReviews,
			Sleep:      time.Duration(trackAppsSleepMS) * time.Millisecond,
			Log:        log,
		})
		if err != nil {
			return err
		}
		fmt.Println(reportPath)
		return nil
	},
}

func init() {
	trackAppsCmd.Flags().StringVar(&trackAppsURLsFile, "urls-file", "", "Text file with one App Store URL per line")
	trackAppsCmd.Flags().StringArrayVar(&trackAppsURLs, "url", nil, "App Store URL (repeatable)")
	trackAppsCmd.Flags().StringVar(&trackAppsOutDir, "out-dir", "", "Output directory (default <data-dir>/competitor-apps)")
	trackAppsCmd.Flags().StringVar(&trackAppsCountry, "country", "us", "App Store storefront country code")
	trackAppsCmd.Flags().StringVar(&trackAppsDate, "date", "", "Snapshot date (YYYY-MM-DD, default today)")
	trackAppsCmd.Flags().IntVar(&trackAppsTimeoutS, "timeout-s", 30, "HTTP timeout in seconds")
	trackAppsCmd.Flags().IntVar(&trackAppsRetries, "retries", 3, "Retries for transient network errors")
	trackAppsCmd.Flags().IntVar(&trackAppsMaxReviews, "max-reviews", 12, "Recent reviews to keep per app")
	trackAppsCmd.Flags().IntVar(&trackAppsSleepMS, "sleep-ms", 800, "Delay between apps in milliseconds")
	rootCmd.AddCommand(trackAppsCmd)
}
