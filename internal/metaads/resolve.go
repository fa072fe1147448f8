package metaads

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// normalizeObjective maps legacy/shorthand objectives onto the
// v24+ "Outcome" objectives. LINK_CLICKS is an ad set optimization
// goal; as a campaign objective it means OUTCOME_TRAFFIC.
func normalizeObjective(objective string) string {
	objective = strings.ToUpper(strings.TrimSpace(objective))
	if objective == "" {
		return "OUTCOME_TRAFFIC"
	}
	switch objective {
	case "TRAFFIC", "LINK_CLICKS":
		return "OUTCOME_TRAFFIC"
	case "APP_PROMOTION":
		return "OUTCOME_APP_PROMOTION"
	}
	return objective
}

func findByName(rows []map[string]any, name string) map[string]any {
	for _, r := range rows {
		if asString(r["name"]) == name {
			return r
		}
	}
	return nil
}

// EnsureCampaign resolves a campaign id: explicit id wins, then
// reuse-by-exact-name among the account's campaigns, then create (when
// allowed). Created campaigns always carry the given status.
func EnsureCampaign(ctx context.Context, g *Graph, adAccountID string, target *Target, status string, maxPages int) (string, error) {
	if id := strings.TrimSpace(target.CampaignID); id != "" {
		return id, nil
	}

	name := strings.TrimSpace(target.CampaignName)
	if name == "" {
		name = "Codex Draft Campaign"
	}

	if g.DryRun() {
		// Can't list or create without the network; stable placeholder.
		return dryID("campaign", name), nil
	}

	if target.reuseByName() {
		rows, err := g.pagedGet(ctx, fmt.Sprintf("act_%s/campaigns", adAccountID),
			url.Values{"fields": {"id,name,status,effective_status"}, "limit": {"50"}}, maxPages)
		if err != nil {
			return "", fmt.Errorf("listing campaigns: %w", err)
		}
		if hit := findByName(rows, name); hit != nil {
			if id := asString(hit["id"]); id != "" {
				return id, nil
			}
		}
	}

	if !target.createIfMissing() {
		return "", fmt.Errorf("no campaign_id found and campaign_name did not resolve; set target.create_if_missing=true or provide target.campaign_id")
	}

	cfg := target.Campaign
	buyingType := strings.TrimSpace(cfg.BuyingType)
	if buyingType == "" {
		buyingType = "AUCTION"
	}
	special := cfg.SpecialAdCategories
	if special == nil {
		special = []string{}
	}

	resp, err := g.retry(func() (map[string]any, error) {
		return g.PostForm(ctx, fmt.Sprintf("act_%s/campaigns", adAccountID), url.Values{
			"name":        {name},
			"objective":   {normalizeObjective(cfg.Objective)},
			"buying_type": {buyingType},
			"status":      {status},
			"is_adset_budget_sharing_enabled": {strconv.FormatBool(cfg.IsAdsetBudgetSharingEnabled)},
			"special_ad_categories":           {jsonDumps(special)},
		})
	})
	if err != nil {
		return "", fmt.Errorf("creating campaign: %w", err)
	}
	id := asString(resp["id"])
	if id == "" {
		return "", fmt.Errorf("unexpected campaigns create response (missing id): %v", resp)
	}
	return id, nil
}

// EnsureAdset resolves an ad set id in the given campaign: explicit id,
// then reuse by (name, campaign_id), then create with safe defaults
// (minimal budget, broad targeting, PAUSED status).
func EnsureAdset(ctx context.Context, g *Graph, adAccountID, campaignID string, target *Target, status string, maxPages int) (string, error) {
	if id := strings.TrimSpace(target.AdsetID); id != "" {
		return id, nil
	}

	name := strings.TrimSpace(target.AdsetName)
	if name == "" {
		name = "Codex Draft Ad Set"
	}

	if g.DryRun() {
		return dryID("adset", campaignID+":"+name), nil
	}

	if target.reuseByName() {
		rows, err := g.pagedGet(ctx, fmt.Sprintf("act_%s/adsets", adAccountID),
			url.Values{"fields": {"id,name,campaign_id,status,effective_status"}, "limit": {"50"}}, maxPages)
		if err != nil {
			return "", fmt.Errorf("listing ad sets: %w", err)
		}
		for _, r := range rows {
			if asString(r["name"]) == name && asString(r["campaign_id"]) == campaignID {
				if id := asString(r["id"]); id != "" {
					return id, nil
				}
			}
		}
	}

	if !target.createIfMissing() {
		return "", fmt.Errorf("no adset_id found and adset_name did not resolve; set target.create_if_missing=true or provide target.adset_id")
	}

	cfg := target.Adset
	dailyBudget := cfg.DailyBudget
	if dailyBudget <= 0 {
		dailyBudget = 100 // currency minor units
	}
	billingEvent := orDefault(cfg.BillingEvent, "IMPRESSIONS")
	optimizationGoal := orDefault(cfg.OptimizationGoal, "LINK_CLICKS")
	destinationType := orDefault(cfg.DestinationType, "WEBSITE")
	bidStrategy := strings.ToUpper(orDefault(cfg.BidStrategy, "LOWEST_COST_WITHOUT_CAP"))
	targeting := cfg.Targeting
	if targeting == nil {
		targeting = map[string]any{
			"geo_locations": map[string]any{"countries": []string{"US"}},
			"age_min":       18,
			"age_max":       65,
		}
	}

	payload := url.Values{
		"name":              {name},
		"campaign_id":       {campaignID},
		"status":            {status},
		"daily_budget":      {strconv.Itoa(dailyBudget)},
		"billing_event":     {billingEvent},
		"optimization_goal": {optimizationGoal},
		"destination_type":  {destinationType},
		"bid_strategy":      {bidStrategy},
		"targeting":         {jsonDumps(targeting)},
	}

	// Bid amount and constraints are required only for cap strategies.
	switch bidStrategy {
	case "LOWEST_COST_WITH_BID_CAP", "COST_CAP":
		if cfg.BidAmount <= 0 {
			return "", fmt.Errorf("target.adset.bid_amount is required when bid_strategy is a cap strategy")
		}
		payload.Set("bid_amount", strconv.Itoa(cfg.BidAmount))
	case "LOWEST_COST_WITH_MIN_ROAS":
		if cfg.BidConstraints == nil {
			return "", fmt.Errorf("target.adset.bid_constraints is required when bid_strategy is LOWEST_COST_WITH_MIN_ROAS")
		}
		payload.Set("bid_constraints", jsonDumps(cfg.BidConstraints))
	}

	resp, err := g.retry(func() (map[string]any, error) {
		return g.PostForm(ctx, fmt.Sprintf("act_%s/adsets", adAccountID), payload)
	})
	if err != nil {
		return "", fmt.Errorf("creating ad set: %w", err)
	}
	id := asString(resp["id"])
	if id == "" {
		return "", fmt.Errorf("unexpected adsets create response (missing id): %v", resp)
	}
	return id, nil
}

// VerifyPaused refuses to proceed when the resolved campaign or ad set
// is ACTIVE by status or effective_status.
func VerifyPaused(ctx context.Context, g *Graph, campaignID, adsetID string) error {
	for _, node := range []struct{ id, kind string }{
		{campaignID, "campaign"},
		{adsetID, "adset"},
	} {
		resp, err := g.Get(ctx, node.id, url.Values{"fields": {"id,name,status,effective_status"}})
		if err != nil {
			return fmt.Errorf("safety check failed while verifying paused statuses: %w", err)
		}
		st := strings.ToUpper(asString(resp["status"]))
		est := strings.ToUpper(asString(resp["effective_status"]))
		if st == "ACTIVE" || est == "ACTIVE" {
			return fmt.Errorf("safety check failed: resolved %s is ACTIVE (status=%s effective_status=%s), refusing to create ads; pause it in Ads Manager and retry",
				node.kind, st, est)
		}
	}
	return nil
}

func orDefault(v, fallback string) string {
	if s := strings.TrimSpace(v); s != "" {
		return s
	}
	return fallback
}
