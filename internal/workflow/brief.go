package workflow

import (
	"fmt"
	"strings"

	"growthkit/internal/artifact"
)

// BrandColors are the palette values the video prompt is rendered with.
type BrandColors struct {
	Primary           string `json:"primary"`
	PrimaryForeground string `json:"primary_foreground"`
	BackgroundDark    string `json:"background_dark"`
	SurfaceLight      string `json:"surface_light"`
}

// Claims bound what the generated ad may say about the product.
type Claims struct {
	Features    []string `json:"features"`
	Outcomes    []string `json:"outcomes"`
	Forbidden   []string `json:"forbidden"`
	ProofPoints []string `json:"proof_points,omitempty"`
}

// CTA holds the ad's call-to-action copy.
type CTA struct {
	DestinationURL string `json:"destination_url"`
	Headline       string `json:"headline"`
	PrimaryText    string `json:"primary_text"`
	Description    string `json:"description,omitempty"`
	Hook           string `json:"hook,omitempty"`
}

// MetaEnv names the environment variables carrying Meta credentials, so the
// brief itself never holds secrets.
type MetaEnv struct {
	AdAccountIDEnv  string `json:"ad_account_id_env"`
	PageIDEnv       string `json:"page_id_env"`
	AccessTokenEnv  string `json:"access_token_env"`
	GraphVersionEnv string `json:"graph_version_env"`
}

// ProductBrief is the product context required before any workflow side
// effects happen.
type ProductBrief struct {
	ProductName string `json:"product_name"`
	Brand       struct {
		Colors BrandColors `json:"colors"`
	} `json:"brand"`
	Claims Claims  `json:"claims"`
	CTA    CTA     `json:"cta"`
	Meta   MetaEnv `json:"meta"`
}

// LoadBrief reads and validates a product brief, failing before any stage
// runs when required fields are missing.
func LoadBrief(path string) (*ProductBrief, error) {
	var brief ProductBrief
	if err := artifact.ReadJSON(path, &brief); err != nil {
		return nil, fmt.Errorf("reading product brief %s: %w", path, err)
	}
	if err := brief.Validate(); err != nil {
		return nil, err
	}
	return &brief, nil
}

func (b *ProductBrief) Validate() error {
	required := []struct {
		path  string
		value string
	}{
		{"product_name", b.ProductName},
		{"brand.colors.primary", b.Brand.Colors.Primary},
		{"brand.colors.primary_foreground", b.Brand.Colors.PrimaryForeground},
		{"brand.colors.background_dark", b.Brand.Colors.BackgroundDark},
		{"brand.colors.surface_light", b.Brand.Colors.SurfaceLight},
		{"cta.destination_url", b.CTA.DestinationURL},
		{"cta.headline", b.CTA.Headline},
		{"cta.primary_text", b.CTA.PrimaryText},
		{"meta.ad_account_id_env", b.Meta.AdAccountIDEnv},
		{"meta.page_id_env", b.Meta.PageIDEnv},
		{"meta.access_token_env", b.Meta.AccessTokenEnv},
		{"meta.graph_version_env", b.Meta.GraphVersionEnv},
	}
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			return fmt.Errorf("missing required product brief field: %s", f.path)
		}
	}

	lists := []struct {
		path   string
		values []string
	}{
		{"claims.features", b.Claims.Features},
		{"claims.outcomes", b.Claims.Outcomes},
		{"claims.forbidden", b.Claims.Forbidden},
	}
	for _, l := range lists {
		if len(l.values) == 0 {
			return fmt.Errorf("%s must be a non-empty array of strings", l.path)
		}
		for _, v := range l.values {
			if strings.TrimSpace(v) == "" {
				return fmt.Errorf("%s must be a non-empty array of strings", l.path)
			}
		}
	}
	return nil
}

// HookLine returns the verbatim hook for the generated ad, falling back to
// the CTA primary text when the brief does not set one.
func (b *ProductBrief) HookLine() string {
	if h := strings.TrimSpace(b.CTA.Hook); h != "" {
		return h
	}
	return strings.TrimSpace(b.CTA.PrimaryText)
}

// ProofPoints returns the on-screen proof point lines, falling back to the
// feature claims.
func (b *ProductBrief) ProofPoints() []string {
	if len(b.Claims.ProofPoints) > 0 {
		return b.Claims.ProofPoints
	}
	return b.Claims.Features
}
