package metaads

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"growthkit/internal/artifact"
)

// Options configures an upload run.
type Options struct {
	SpecPath     string
	AccessToken  string
	AppSecret    string
	DryRun       bool
	JSONOut      string
	VideoTimeout time.Duration
	MaxPages     int
	Log          *logrus.Logger
}

// AdResult records one created ad.
type AdResult struct {
	Type               string `json:"type"`
	Name               string `json:"name"`
	File               string `json:"file"`
	DestinationURL     string `json:"destination_url"`
	CTAType            string `json:"cta_type"`
	ImageHash          string `json:"image_hash,omitempty"`
	VideoID            string `json:"video_id,omitempty"`
	ThumbnailImageHash string `json:"thumbnail_image_hash,omitempty"`
	CreativeID         string `json:"creative_id"`
	AdID               string `json:"ad_id"`
}

// Result is the run summary written to --json-out.
type Result struct {
	GraphVersion string     `json:"graph_version"`
	AdAccountID  string     `json:"ad_account_id"`
	PageID       string     `json:"page_id"`
	CampaignID   string     `json:"campaign_id"`
	AdsetID      string     `json:"adset_id"`
	Status       string     `json:"status"`
	Ads          []AdResult `json:"ads"`
}

// Run loads the spec, resolves the PAUSED campaign and ad set, uploads
// media and creates every ad. Everything this tool creates is PAUSED.
func Run(ctx context.Context, opts Options) (*Result, error) {
	log := opts.Log

	spec, err := LoadSpec(opts.SpecPath)
	if err != nil {
		return nil, err
	}
	specDir := filepath.Dir(absPath(opts.SpecPath))

	g := NewGraph(Config{
		GraphVersion: spec.GraphVersion,
		AccessToken:  opts.AccessToken,
		AppSecret:    opts.AppSecret,
	}, opts.DryRun, log)

	return runWithGraph(ctx, g, spec, specDir, opts)
}

func runWithGraph(ctx context.Context, g *Graph, spec *UploadSpec, specDir string, opts Options) (*Result, error) {
	log := opts.Log

	// Fail fast with a friendly message on an invalid or expired token.
	if !g.DryRun() {
		me, err := g.Get(ctx, "me", url.Values{"fields": {"id,name"}})
		if err != nil {
			return nil, fmt.Errorf("access token validation failed, generate a fresh Meta user access token with ads_management: %w", err)
		}
		log.WithFields(logrus.Fields{"user": me["name"], "id": me["id"]}).Info("token validation OK")
	}

	// Safety invariant: never create ACTIVE containers or ads.
	const status = "PAUSED"

	maxPages := opts.MaxPages
	if maxPages < 1 {
		maxPages = 1
	}

	var campaignID, adsetID string
	if existing := spec.Target.AdsetID; existing != "" {
		adsetID = existing
		campaignID = spec.Target.CampaignID
		if campaignID == "" && !g.DryRun() {
			// Best-effort campaign id for reporting.
			if node, err := g.Get(ctx, adsetID, url.Values{"fields": {"campaign_id,name"}}); err == nil {
				campaignID = asString(node["campaign_id"])
			}
		}
	} else {
		var err error
		campaignID, err = EnsureCampaign(ctx, g, spec.AdAccountID, &spec.Target, status, maxPages)
		if err != nil {
			return nil, err
		}
		adsetID, err = EnsureAdset(ctx, g, spec.AdAccountID, campaignID, &spec.Target, status, maxPages)
		if err != nil {
			return nil, err
		}
	}
	log.WithFields(logrus.Fields{"campaign": campaignID, "adset": adsetID, "status": status}).Info("resolved placement")

	// Hard safety check: refuse ACTIVE containers no matter how we got here.
	if !g.DryRun() {
		if err := VerifyPaused(ctx, g, campaignID, adsetID); err != nil {
			return nil, err
		}
	}

	result := &Result{
		GraphVersion: spec.GraphVersion,
		AdAccountID:  "act_" + spec.AdAccountID,
		PageID:       spec.PageID,
		CampaignID:   campaignID,
		AdsetID:      adsetID,
		Status:       status,
		Ads:          []AdResult{},
	}

	for idx, ad := range spec.Ads {
		if ad.Type != "image" && ad.Type != "video" {
			return nil, fmt.Errorf("ads[%d].type must be 'image' or 'video'", idx+1)
		}
		if ad.Name == "" {
			return nil, fmt.Errorf("ads[%d].name is required", idx+1)
		}
		filePath := ad.File
		if filePath == "" {
			return nil, fmt.Errorf("ads[%d].file is required", idx+1)
		}
		if !filepath.IsAbs(filePath) {
			filePath = filepath.Join(specDir, filePath)
		}
		if _, err := os.Stat(filePath); err != nil {
			return nil, fmt.Errorf("ads[%d].file does not exist: %s", idx+1, filePath)
		}

		content := mergeContent(spec.Default, ad)
		if content.DestinationURL == "" {
			return nil, fmt.Errorf("ads[%d] missing destination_url (or default.destination_url)", idx+1)
		}
		if content.PrimaryText == "" {
			return nil, fmt.Errorf("ads[%d] missing primary_text (or default.primary_text)", idx+1)
		}
		if content.Headline == "" {
			return nil, fmt.Errorf("ads[%d] missing headline (or default.headline)", idx+1)
		}

		log.WithFields(logrus.Fields{"index": idx + 1, "type": ad.Type, "name": ad.Name}).Info("creating ad")

		row := AdResult{
			Type:           ad.Type,
			Name:           ad.Name,
			File:           filePath,
			DestinationURL: content.DestinationURL,
			CTAType:        CTAType,
		}

		var creativeID string
		var err error
		if ad.Type == "image" {
			row.ImageHash, err = UploadImage(ctx, g, spec.AdAccountID, filePath)
			if err != nil {
				return nil, err
			}
			creativeID, err = CreateImageCreative(ctx, g, spec.AdAccountID, spec.PageID,
				ad.Name+" (Creative)", row.ImageHash, content)
			if err != nil {
				return nil, err
			}
		} else {
			row.VideoID, err = UploadVideo(ctx, g, spec.AdAccountID, filePath)
			if err != nil {
				return nil, err
			}
			log.WithField("video", row.VideoID).Info("uploaded video")
			if !g.DryRun() {
				if err := WaitForVideo(ctx, g, row.VideoID, opts.VideoTimeout, 5*time.Second); err != nil {
					return nil, err
				}
			}
			row.ThumbnailImageHash, err = VideoThumbnailHash(ctx, g, spec.AdAccountID, filePath, ad.ThumbnailFile, specDir)
			if err != nil {
				return nil, err
			}
			creativeID, err = CreateVideoCreative(ctx, g, spec.AdAccountID, spec.PageID,
				ad.Name+" (Creative)", row.VideoID, row.ThumbnailImageHash, content)
			if err != nil {
				return nil, err
			}
		}
		row.CreativeID = creativeID

		row.AdID, err = CreateAd(ctx, g, spec.AdAccountID, adsetID, ad.Name, creativeID, status)
		if err != nil {
			return nil, err
		}
		log.WithFields(logrus.Fields{"ad": row.AdID, "creative": row.CreativeID}).Info("created ad")
		result.Ads = append(result.Ads, row)
	}

	if opts.JSONOut != "" {
		if err := artifact.WriteJSON(absPath(opts.JSONOut), result); err != nil {
			return nil, err
		}
	}
	return result, nil
}

func absPath(p string) string {
	abs, err := filepath.Abs(p)
	if err != nil {
		return p
	}
	return abs
}
