package metaads

import (
	"fmt"
	"regexp"
	"strings"

	"growthkit/internal/artifact"
)

// CTAType is forced on every created ad. Safety invariant: a consistent
// Download CTA regardless of what the spec asks for.
const CTAType = "DOWNLOAD"

// AdContent holds the copy fields, used both as spec defaults and
// per-ad overrides.
type AdContent struct {
	DestinationURL string `json:"destination_url,omitempty"`
	PrimaryText    string `json:"primary_text,omitempty"`
	Headline       string `json:"headline,omitempty"`
	Description    string `json:"description,omitempty"`
}

// AdSpec describes one ad to create.
type AdSpec struct {
	Type          string `json:"type"`
	Name          string `json:"name"`
	File          string `json:"file"`
	ThumbnailFile string `json:"thumbnail_file,omitempty"`
	AdContent
}

// CampaignConfig holds campaign creation settings.
type CampaignConfig struct {
	Objective                   string   `json:"objective,omitempty"`
	BuyingType                  string   `json:"buying_type,omitempty"`
	IsAdsetBudgetSharingEnabled bool     `json:"is_adset_budget_sharing_enabled,omitempty"`
	SpecialAdCategories         []string `json:"special_ad_categories,omitempty"`
}

// AdsetConfig holds ad set creation settings.
type AdsetConfig struct {
	DailyBudget      int            `json:"daily_budget,omitempty"`
	BillingEvent     string         `json:"billing_event,omitempty"`
	OptimizationGoal string         `json:"optimization_goal,omitempty"`
	DestinationType  string         `json:"destination_type,omitempty"`
	BidStrategy      string         `json:"bid_strategy,omitempty"`
	BidAmount        int            `json:"bid_amount,omitempty"`
	BidConstraints   map[string]any `json:"bid_constraints,omitempty"`
	Targeting        map[string]any `json:"targeting,omitempty"`
}

// Target selects or describes the campaign and ad set to place ads in.
type Target struct {
	CampaignID      string         `json:"campaign_id,omitempty"`
	CampaignName    string         `json:"campaign_name,omitempty"`
	AdsetID         string         `json:"adset_id,omitempty"`
	AdsetName       string         `json:"adset_name,omitempty"`
	ReuseByName     *bool          `json:"reuse_by_name,omitempty"`
	CreateIfMissing *bool          `json:"create_if_missing,omitempty"`
	Campaign        CampaignConfig `json:"campaign,omitempty"`
	Adset           AdsetConfig    `json:"adset,omitempty"`
}

func (t *Target) reuseByName() bool {
	return t.ReuseByName == nil || *t.ReuseByName
}

func (t *Target) createIfMissing() bool {
	return t.CreateIfMissing == nil || *t.CreateIfMissing
}

// UploadSpec is the uploader's input document.
type UploadSpec struct {
	GraphVersion string    `json:"graph_version,omitempty"`
	AdAccountID  string    `json:"ad_account_id"`
	PageID       string    `json:"page_id"`
	Default      AdContent `json:"default,omitempty"`
	Target       Target    `json:"target,omitempty"`
	Ads          []AdSpec  `json:"ads"`
}

var digitsOnly = regexp.MustCompile(`^\d+$`)

// LoadSpec reads and validates an upload spec file.
func LoadSpec(path string) (*UploadSpec, error) {
	var spec UploadSpec
	if err := artifact.ReadJSON(path, &spec); err != nil {
		return nil, fmt.Errorf("reading spec: %w", err)
	}
	if spec.GraphVersion == "" {
		spec.GraphVersion = "v24.0"
	}
	if !digitsOnly.MatchString(spec.AdAccountID) {
		return nil, fmt.Errorf("ad_account_id must be the numeric id (no act_ prefix)")
	}
	if spec.PageID == "" {
		return nil, fmt.Errorf("page_id is required")
	}
	if len(spec.Ads) == 0 {
		return nil, fmt.Errorf("ads must be a non-empty array")
	}
	return &spec, nil
}

// mergeContent applies spec defaults under the ad's own values.
func mergeContent(defaults AdContent, ad AdSpec) AdContent {
	out := defaults
	if ad.DestinationURL != "" {
		out.DestinationURL = ad.DestinationURL
	}
	if ad.PrimaryText != "" {
		out.PrimaryText = ad.PrimaryText
	}
	if ad.Headline != "" {
		out.Headline = ad.Headline
	}
	if ad.Description != "" {
		out.Description = ad.Description
	}
	out.DestinationURL = NormalizeURL(out.DestinationURL)
	return out
}

// NormalizeURL prefixes bare hostnames with https://.
func NormalizeURL(u string) string {
	u = strings.TrimSpace(u)
	if u == "" {
		return ""
	}
	if strings.HasPrefix(u, "http://") || strings.HasPrefix(u, "https://") {
		return u
	}
	return "https://" + u
}
