package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"growthkit/internal/config"
	"growthkit/internal/metaads"
)

var graphPagesLimit int

var graphCheckCmd = &cobra.Command{
	Use:   "graph-check",
	Short: "Read-only Meta Graph API smoke test for token scope and asset access",
	RunE: func(cmd *cobra.Command, args []string) error {
		token := config.Getenv("META_USER_ACCESS_TOKEN", "")
		if token == "" {
			token = config.Getenv("META_ACCESS_TOKEN", "")
		}
		if token == "" {
			return fmt.Errorf("missing required environment variable META_USER_ACCESS_TOKEN (or legacy META_ACCESS_TOKEN)")
		}

		adAccountID, err := config.Require("META_AD_ACCOUNT_ID")
		if err != nil {
			return err
		}

		appToken := config.Getenv("META_APP_TOKEN", "")
		if appToken == "" {
			appID := config.Getenv("META_APP_ID", "")
			appSecret := config.Getenv("META_APP_SECRET", "")
			if appID != "" && appSecret != "" {
				appToken = appID + "|" + appSecret
			}
		}

		g := metaads.NewGraph(metaads.Config{
			GraphVersion: config.Getenv("META_GRAPH_VERSION", "v24.0"),
			AccessToken:  token,
			AppSecret:    config.Getenv("META_APP_SECRET", ""),
		}, false, log)

		checks := metaads.Smoke(cmd.Context(), g, metaads.SmokeOptions{
			AdAccountID: adAccountID,
			PageID:      config.Getenv("META_PAGE_ID", ""),
			BusinessID:  config.Getenv("META_BUSINESS_ID", ""),
			AppToken:    appToken,
			PagesLimit:  graphPagesLimit,
			Log:         log,
		})

		for _, c := range checks {
			status := "OK"
			if !c.OK {
				status = "FAIL"
				if c.Optional {
					status = "FAIL (optional)"
				}
			}
			line := fmt.Sprintf("%-24s %s", c.Name, status)
			if c.Error != "" {
				line += "  " + c.Error
			}
			fmt.Println(line)
		}

		if metaads.SmokeFailed(checks) {
			return fmt.Errorf("one or more required checks failed")
		}
		return nil
	},
}

func init() {
	graphCheckCmd.Flags().IntVar(&graphPagesLimit, "pages-limit", 25, "Max pages to list in the pages check")
	rootCmd.AddCommand(graphCheckCmd)
}
