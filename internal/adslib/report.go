package adslib

import (
	"fmt"
	"strings"

	"growthkit/internal/artifact"
)

func analysisString(analysis map[string]any, key string) string {
	if analysis == nil {
		return ""
	}
	s, _ := analysis[key].(string)
	return strings.TrimSpace(s)
}

// writeDailyReport renders the run's Markdown summary across advertisers.
func writeDailyReport(reportPath, runDate string, results []Snapshot) error {
	var b strings.Builder
	fmt.Fprintf(&b, "# Meta Ads Library Tracker (%s)\n\n", runDate)

	for _, snap := range results {
		key := snap.Advertiser.Key
		if key == "" {
			key = "advertiser"
		}
		fmt.Fprintf(&b, "## %s\n", key)
		if snap.Advertiser.URL != "" {
			fmt.Fprintf(&b, "- URL: %s\n", snap.Advertiser.URL)
		}
		fmt.Fprintf(&b, "- Top ads: %d\n\n", len(snap.TopAds))

		for _, ad := range snap.TopAds {
			fmt.Fprintf(&b, "### %s (%s)\n", ad.AdArchiveID, ad.Kind)
			fmt.Fprintf(&b, "- Started: %s (%d days running)\n", ad.StartedRunning, ad.DaysRunning)
			if hook := analysisString(ad.Analysis, "hook"); hook != "" {
				fmt.Fprintf(&b, "- Hook: %s\n", hook)
			}
			if summary := analysisString(ad.Analysis, "ad_summary"); summary != "" {
				fmt.Fprintf(&b, "- Summary: %s\n", summary)
			}
			if ad.BundleDir != "" {
				fmt.Fprintf(&b, "- Bundle: `%s`\n", ad.BundleDir)
			}
			if ad.Error != "" {
				fmt.Fprintf(&b, "- Error: %s\n", ad.Error)
			}
			b.WriteString("\n")
		}
	}
	return artifact.AtomicWrite(reportPath, []byte(strings.TrimRight(b.String(), "\n")+"\n"))
}
