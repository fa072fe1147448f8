package metaads

import (
	"context"
	"net/url"
	"sort"
	"strconv"

	"github.com/sirupsen/logrus"
)

// SmokeOptions configures the read-only Graph API checks.
type SmokeOptions struct {
	AdAccountID string
	PageID      string
	BusinessID  string
	AppToken    string
	PagesLimit  int
	Log         *logrus.Logger
}

// SmokeCheck is one check's outcome.
type SmokeCheck struct {
	Name     string `json:"name"`
	OK       bool   `json:"ok"`
	Optional bool   `json:"optional"`
	Error    string `json:"error,omitempty"`
	Detail   any    `json:"detail,omitempty"`
}

// Smoke runs read-only GETs against the Graph API to diagnose token
// scope and asset access. Failing checks don't stop later ones, so
// partial access (e.g. Pages but not Ads) is still visible.
func Smoke(ctx context.Context, g *Graph, opts SmokeOptions) []SmokeCheck {
	pagesLimit := opts.PagesLimit
	if pagesLimit <= 0 {
		pagesLimit = 25
	}

	var checks []SmokeCheck
	run := func(name string, optional bool, fn func() (any, error)) {
		detail, err := fn()
		check := SmokeCheck{Name: name, OK: err == nil, Optional: optional, Detail: detail}
		if err != nil {
			check.Error = err.Error()
			opts.Log.WithField("check", name).WithError(err).Warn("smoke check failed")
		} else {
			opts.Log.WithField("check", name).Info("smoke check OK")
		}
		checks = append(checks, check)
	}

	run("me", false, func() (any, error) {
		return g.Get(ctx, "me", url.Values{"fields": {"id,name"}})
	})

	run("permissions", false, func() (any, error) {
		resp, err := g.Get(ctx, "me/permissions", nil)
		if err != nil {
			return nil, err
		}
		var granted []string
		if data, ok := resp["data"].([]any); ok {
			for _, p := range data {
				if m, ok := p.(map[string]any); ok {
					if asString(m["status"]) == "granted" && asString(m["permission"]) != "" {
						granted = append(granted, asString(m["permission"]))
					}
				}
			}
		}
		sort.Strings(granted)
		return map[string]any{"granted": granted}, nil
	})

	run("ad-account", false, func() (any, error) {
		return g.Get(ctx, "act_"+opts.AdAccountID, url.Values{
			"fields": {"id,name,account_status,currency,timezone_name,business_name,amount_spent,spend_cap"},
		})
	})

	run("ad-accounts-visible", false, func() (any, error) {
		return g.Get(ctx, "me/adaccounts", url.Values{
			"fields": {"id,name,account_status,currency,timezone_name"},
			"limit":  {"50"},
		})
	})

	run("campaigns", false, func() (any, error) {
		return g.Get(ctx, "act_"+opts.AdAccountID+"/campaigns", url.Values{
			"fields": {"id,name,status,effective_status,objective,created_time"},
			"limit":  {"5"},
		})
	})

	run("pages-visible", false, func() (any, error) {
		return g.Get(ctx, "me/accounts", url.Values{
			"fields": {"id,name,category,tasks"},
			"limit":  {strconv.Itoa(pagesLimit)},
		})
	})

	if opts.BusinessID != "" {
		for _, edge := range []string{"owned_pages", "client_pages", "owned_ad_accounts", "client_ad_accounts"} {
			edge := edge
			run("business-"+edge, true, func() (any, error) {
				return g.Get(ctx, opts.BusinessID+"/"+edge, url.Values{
					"fields": {"id,name"},
					"limit":  {"50"},
				})
			})
		}
	}

	if opts.PageID != "" {
		// id+name is public and does not prove a page role.
		run("page-read", true, func() (any, error) {
			return g.Get(ctx, opts.PageID, url.Values{"fields": {"id,name"}})
		})
	}

	if opts.AppToken != "" {
		run("debug-token", true, func() (any, error) {
			resp, err := g.Get(ctx, "debug_token", url.Values{
				"input_token":  {g.cfg.AccessToken},
				"access_token": {opts.AppToken},
			})
			if err != nil {
				return nil, err
			}
			data, _ := resp["data"].(map[string]any)
			return map[string]any{
				"app_id":     data["app_id"],
				"type":       data["type"],
				"is_valid":   data["is_valid"],
				"expires_at": data["expires_at"],
				"scopes":     data["scopes"],
				"user_id":    data["user_id"],
			}, nil
		})
	}

	return checks
}

// SmokeFailed reports whether any required check failed.
func SmokeFailed(checks []SmokeCheck) bool {
	for _, c := range checks {
		if !c.OK && !c.Optional {
			return true
		}
	}
	return false
}
