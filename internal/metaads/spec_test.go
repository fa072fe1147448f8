package metaads

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeSpecFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "spec.json")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing spec file: %v", err)
	}
	return path
}

func TestLoadSpec_Valid(t *testing.T) {
	path := writeSpecFile(t, `{
		"ad_account_id": "123456",
		"page_id": "789",
		"ads": [{"type": "image", "name": "Ad 1", "file": "a.jpg"}]
	}`)
	spec, err := LoadSpec(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if spec.GraphVersion != "v24.0" {
		t.Errorf("graph version default: got %q", spec.GraphVersion)
	}
	if spec.AdAccountID != "123456" || spec.PageID != "789" {
		t.Errorf("got account=%q page=%q", spec.AdAccountID, spec.PageID)
	}
}

func TestLoadSpec_RejectsActPrefix(t *testing.T) {
	path := writeSpecFile(t, `{
		"ad_account_id": "act_123456",
		"page_id": "789",
		"ads": [{"type": "image", "name": "x", "file": "a.jpg"}]
	}`)
	_, err := LoadSpec(path)
	if err == nil {
		t.Fatal("expected error for act_ prefixed account id")
	}
	if !strings.Contains(err.Error(), "numeric id") {
		t.Errorf("error should mention numeric id, got: %v", err)
	}
}

func TestLoadSpec_MissingPageID(t *testing.T) {
	path := writeSpecFile(t, `{"ad_account_id": "1", "ads": [{"type":"image","name":"x","file":"a"}]}`)
	if _, err := LoadSpec(path); err == nil {
		t.Fatal("expected error for missing page_id")
	}
}

func TestLoadSpec_EmptyAds(t *testing.T) {
	path := writeSpecFile(t, `{"ad_account_id": "1", "page_id": "2", "ads": []}`)
	if _, err := LoadSpec(path); err == nil {
		t.Fatal("expected error for empty ads array")
	}
}

func TestMergeContent_DefaultsAndOverrides(t *testing.T) {
	defaults := AdContent{
		DestinationURL: "example.com/app",
		PrimaryText:    "default text",
		Headline:       "default headline",
	}
	ad := AdSpec{AdContent: AdContent{Headline: "ad headline"}}
	got := mergeContent(defaults, ad)
	if got.Headline != "ad headline" {
		t.Errorf("headline: got %q, ad value should win", got.Headline)
	}
	if got.PrimaryText != "default text" {
		t.Errorf("primary text: got %q, default should apply", got.PrimaryText)
	}
	if got.DestinationURL != "https://example.com/app" {
		t.Errorf("destination: got %q, want https-prefixed", got.DestinationURL)
	}
}

func TestNormalizeURL(t *testing.T) {
	cases := []struct{ in, want string }{
		{"", ""},
		{"  ", ""},
		{"example.com", "https://example.com"},
		{"http://example.com", "http://example.com"},
		{"https://example.com/x", "https://example.com/x"},
	}
	for _, tc := range cases {
		if got := NormalizeURL(tc.in); got != tc.want {
			t.Errorf("NormalizeURL(%q): got %q, want %q", tc.in, got, tc.want)
		}
	}
}
