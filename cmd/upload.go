package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"growthkit/internal/config"
	"growthkit/internal/metaads"
)

var (
	uploadSpecPath     string
	uploadTokenEnv     string
	uploadDryRun       bool
	uploadJSONOut      string
	uploadVideoTimeout int
	uploadMaxPages     int
)

var uploadCmd = &cobra.Command{
	Use:   "upload",
	Short: "Upload draft ads to Meta Ads Manager (everything created is PAUSED)",
	RunE: func(cmd *cobra.Command, args []string) error {
		if uploadSpecPath == "" {
			return fmt.Errorf("--spec is required")
		}

		result, err := metaads.Run(cmd.Context(), metaads.Options{
			SpecPath:     uploadSpecPath,
			AccessToken:  config.Getenv(uploadTokenEnv, ""),
			AppSecret:    config.Getenv("META_APP_SECRET", ""),
			DryRun:       uploadDryRun,
			JSONOut:      uploadJSONOut,
			VideoTimeout: time.Duration(uploadVideoTimeout) * time.Second,
			MaxPages:     uploadMaxPages,
			Log:          log,
		})
		if err != nil {
			return err
		}

		fmt.Printf("campaign=%s adset=%s status=%s ads=%d\n",
			result.CampaignID, result.AdsetID, result.Status, len(result.Ads))
		return nil
	},
}

func init() {
	uploadCmd.Flags().StringVar(&uploadSpecPath, "spec", "", "Path to the upload spec JSON")
	uploadCmd.Flags().StringVar(&uploadTokenEnv, "access-token-env", "META_USER_ACCESS_TOKEN", "Env var holding the Meta user access token")
	uploadCmd.Flags().BoolVar(&uploadDryRun, "dry-run", false, "Describe Graph API calls without making them")
	uploadCmd.Flags().StringVar(&uploadJSONOut, "json-out", "", "Write the run result JSON to this path")
	uploadCmd.Flags().IntVar(&uploadVideoTimeout, "video-timeout-s", 600, "Seconds to wait for video processing")
	uploadCmd.Flags().IntVar(&uploadMaxPages, "max-pages", 10, "Max pages to walk when resolving by name")
	rootCmd.AddCommand(uploadCmd)
}
