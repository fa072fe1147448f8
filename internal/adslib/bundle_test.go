package adslib

import (
	"strings"
	"testing"
)

func TestAdvertiserKey(t *testing.T) {
	key, pageID := AdvertiserKey("https://www.facebook.com/ads/library/?view_all_page_id=15087023444")
	if key != "15087023444" || pageID != "15087023444" {
		t.Errorf("got key=%q pageID=%q", key, pageID)
	}

	key, pageID = AdvertiserKey("https://www.facebook.com/ads/library/?q=SomeBrand")
	if pageID != "" {
		t.Errorf("pageID should be empty without view_all_page_id, got %q", pageID)
	}
	if key == "" || strings.ContainsAny(key, "/:?=") {
		t.Errorf("key should be a filesystem-safe slug, got %q", key)
	}

	key, _ = AdvertiserKey("")
	if key != "advertiser" {
		t.Errorf("empty URL fallback: got %q", key)
	}
}

func TestFormatAdText(t *testing.T) {
	details := &AdDetails{
		Messages:     []string{"Try the app today", "  "},
		Headlines:    []string{"Download Now"},
		Descriptions: []string{"Free to start"},
	}
	got := formatAdText(details)
	want := "[message] Try the app today\n[headline] Download Now\n[description] Free to start"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestFormatAdText_Empty(t *testing.T) {
	if got := formatAdText(&AdDetails{}); got != "" {
		t.Errorf("got %q, want empty", got)
	}
}

func TestGuessExt(t *testing.T) {
	cases := []struct{ url, fallback, want string }{
		{"https://cdn.example.com/media/ad.jpg?sig=1", ".png", ".jpg"},
		{"https://cdn.example.com/media/ad", ".jpg", ".jpg"},
		{"https://cdn.example.com/playlist.m3u8", ".mp4", ".m3u8"},
		{"https://cdn.example.com/ad.verylongextension", ".mp4", ".mp4"},
		{"://bad", ".jpg", ".jpg"},
	}
	for _, tc := range cases {
		if got := guessExt(tc.url, tc.fallback); got != tc.want {
			t.Errorf("guessExt(%q): got %q, want %q", tc.url, got, tc.want)
		}
	}
}
