package workflow

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func validBrief() *ProductBrief {
	b := &ProductBrief{}
	b.ProductName = "TestApp"
	b.Brand.Colors = BrandColors{
		Primary:           "#6e56cf",
		PrimaryForeground: "#eae7f5",
		BackgroundDark:    "#0b0a10",
		SurfaceLight:      "#f5f4fa",
	}
	b.Claims = Claims{
		Features:  []string{"fast sync", "offline mode", "shared lists"},
		Outcomes:  []string{"save time", "stay organized"},
		Forbidden: []string{"medical claims"},
	}
	b.CTA = CTA{
		DestinationURL: "https://example.com/app",
		Headline:       "Get TestApp",
		PrimaryText:    "Try TestApp today",
	}
	b.Meta = MetaEnv{
		AdAccountIDEnv:  "META_AD_ACCOUNT_ID",
		PageIDEnv:       "META_PAGE_ID",
		AccessTokenEnv:  "META_ACCESS_TOKEN",
		GraphVersionEnv: "META_GRAPH_VERSION",
	}
	return b
}

func TestValidate_OK(t *testing.T) {
	if err := validBrief().Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_MissingScalar(t *testing.T) {
	b := validBrief()
	b.Brand.Colors.Primary = ""
	err := b.Validate()
	if err == nil {
		t.Fatal("expected error")
	}
	want := "missing required product brief field: brand.colors.primary"
	if err.Error() != want {
		t.Errorf("got %q, want %q", err.Error(), want)
	}
}

func TestValidate_EmptyList(t *testing.T) {
	b := validBrief()
	b.Claims.Forbidden = nil
	err := b.Validate()
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "claims.forbidden must be a non-empty array") {
		t.Errorf("got: %v", err)
	}
}

func TestValidate_BlankListEntry(t *testing.T) {
	b := validBrief()
	b.Claims.Features = []string{"ok", "  "}
	if err := b.Validate(); err == nil {
		t.Fatal("expected error for blank list entry")
	}
}

func TestLoadBrief_InvalidFailsBeforeUse(t *testing.T) {
	path := filepath.Join(t.TempDir(), "brief.json")
	os.WriteFile(path, []byte(`{"product_name": "X"}`), 0644)
	if _, err := LoadBrief(path); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestHookLine(t *testing.T) {
	b := validBrief()
	if got := b.HookLine(); got != "Try TestApp today" {
		t.Errorf("got %q, want primary text fallback", got)
	}
	b.CTA.Hook = "  Stop losing your notes  "
	if got := b.HookLine(); got != "Stop losing your notes" {
		t.Errorf("got %q", got)
	}
}

func TestProofPoints(t *testing.T) {
	b := validBrief()
	if got := b.ProofPoints(); len(got) != 3 || got[0] != "fast sync" {
		t.Errorf("got %v, want feature fallback", got)
	}
	b.Claims.ProofPoints = []string{"10k users"}
	if got := b.ProofPoints(); len(got) != 1 || got[0] != "10k users" {
		t.Errorf("got %v", got)
	}
}
