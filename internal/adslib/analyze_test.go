package adslib

import "testing"

func TestAnalysisNeedsRerun(t *testing.T) {
	cases := []struct {
		name string
		obj  map[string]any
		want bool
	}{
		{"nil", nil, true},
		{"empty", map[string]any{}, true},
		{"error set", map[string]any{"error": "analysis failed"}, true},
		{"error blank", map[string]any{"error": "  ", "hook": "x"}, false},
		{"raw text not json", map[string]any{"raw_text": "the model said words"}, true},
		{"raw text empty", map[string]any{"raw_text": "   "}, true},
		{"raw text valid json", map[string]any{"raw_text": `{"hook": "ok"}`}, false},
		{"structured result", map[string]any{"hook": "x", "summary": "y"}, false},
		{"raw text plus others", map[string]any{"raw_text": "junk", "hook": "x"}, false},
	}
	for _, tc := range cases {
		if got := AnalysisNeedsRerun(tc.obj); got != tc.want {
			t.Errorf("%s: got %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Errorf("got %q", got)
	}
	if got := truncate("abcdefghij", 5); got != "abcde" {
		t.Errorf("got %q", got)
	}
}
