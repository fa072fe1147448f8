package metaads

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestNormalizeObjective(t *testing.T) {
	cases := []struct{ in, want string }{
		{"", "OUTCOME_TRAFFIC"},
		{"traffic", "OUTCOME_TRAFFIC"},
		{"LINK_CLICKS", "OUTCOME_TRAFFIC"},
		{"APP_PROMOTION", "OUTCOME_APP_PROMOTION"},
		{"OUTCOME_SALES", "OUTCOME_SALES"},
	}
	for _, tc := range cases {
		if got := normalizeObjective(tc.in); got != tc.want {
			t.Errorf("normalizeObjective(%q): got %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestEnsureCampaign_ExplicitID(t *testing.T) {
	g := NewGraph(Config{AccessToken: "t"}, false, testLogger())
	id, err := EnsureCampaign(context.Background(), g, "1", &Target{CampaignID: "c123"}, "PAUSED", 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != "c123" {
		t.Errorf("got %q, want explicit id", id)
	}
}

func TestEnsureCampaign_ReuseByName(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("reuse path should not POST, got %s %s", r.Method, r.URL.Path)
		}
		w.Write([]byte(`{"data":[{"id":"c1","name":"Other"},{"id":"c2","name":"Draft"}]}`))
	}))
	defer srv.Close()

	g := NewGraphWithBaseURL(Config{AccessToken: "t"}, false, testLogger(), srv.URL)
	id, err := EnsureCampaign(context.Background(), g, "1", &Target{CampaignName: "Draft"}, "PAUSED", 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != "c2" {
		t.Errorf("got %q, want exact-name match c2", id)
	}
}

func TestEnsureCampaign_CreatePaused(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			w.Write([]byte(`{"data":[]}`))
			return
		}
		if err := r.ParseForm(); err != nil {
			t.Fatalf("parsing form: %v", err)
		}
		if got := r.Form.Get("status"); got != "PAUSED" {
			t.Errorf("status: got %q, want PAUSED", got)
		}
		if got := r.Form.Get("objective"); got != "OUTCOME_TRAFFIC" {
			t.Errorf("objective: got %q", got)
		}
		w.Write([]byte(`{"id":"new_c"}`))
	}))
	defer srv.Close()

	g := NewGraphWithBaseURL(Config{AccessToken: "t"}, false, testLogger(), srv.URL)
	id, err := EnsureCampaign(context.Background(), g, "1", &Target{CampaignName: "Fresh"}, "PAUSED", 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != "new_c" {
		t.Errorf("got %q", id)
	}
}

func TestEnsureCampaign_NoCreateFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[]}`))
	}))
	defer srv.Close()

	no := false
	g := NewGraphWithBaseURL(Config{AccessToken: "t"}, false, testLogger(), srv.URL)
	_, err := EnsureCampaign(context.Background(), g, "1",
		&Target{CampaignName: "Missing", CreateIfMissing: &no}, "PAUSED", 1)
	if err == nil {
		t.Fatal("expected error when create_if_missing is false")
	}
	if !strings.Contains(err.Error(), "create_if_missing") {
		t.Errorf("got: %v", err)
	}
}

func TestEnsureCampaign_DryRunDeterministic(t *testing.T) {
	g := NewGraph(Config{AccessToken: "t"}, true, testLogger())
	a, err := EnsureCampaign(context.Background(), g, "1", &Target{CampaignName: "X"}, "PAUSED", 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, _ := EnsureCampaign(context.Background(), g, "1", &Target{CampaignName: "X"}, "PAUSED", 1)
	if a != b || !strings.HasPrefix(a, "dry_campaign_") {
		t.Errorf("got %q and %q", a, b)
	}
}

func TestEnsureAdset_ReuseRequiresCampaignMatch(t *testing.T) {
	var created bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			w.Write([]byte(`{"data":[{"id":"as1","name":"Set","campaign_id":"other"}]}`))
			return
		}
		created = true
		w.Write([]byte(`{"id":"as_new"}`))
	}))
	defer srv.Close()

	g := NewGraphWithBaseURL(Config{AccessToken: "t"}, false, testLogger(), srv.URL)
	id, err := EnsureAdset(context.Background(), g, "1", "c1", &Target{AdsetName: "Set"}, "PAUSED", 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !created {
		t.Error("ad set in a different campaign must not be reused")
	}
	if id != "as_new" {
		t.Errorf("got %q", id)
	}
}

func TestEnsureAdset_CapStrategyRequiresBidAmount(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[]}`))
	}))
	defer srv.Close()

	g := NewGraphWithBaseURL(Config{AccessToken: "t"}, false, testLogger(), srv.URL)
	_, err := EnsureAdset(context.Background(), g, "1", "c1",
		&Target{AdsetName: "S", Adset: AdsetConfig{BidStrategy: "COST_CAP"}}, "PAUSED", 1)
	if err == nil {
		t.Fatal("expected error for cap strategy without bid_amount")
	}
	if !strings.Contains(err.Error(), "bid_amount") {
		t.Errorf("got: %v", err)
	}
}

func TestVerifyPaused_RefusesActive(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "c1") {
			w.Write([]byte(`{"id":"c1","status":"PAUSED","effective_status":"PAUSED"}`))
			return
		}
		w.Write([]byte(`{"id":"as1","status":"PAUSED","effective_status":"ACTIVE"}`))
	}))
	defer srv.Close()

	g := NewGraphWithBaseURL(Config{AccessToken: "t"}, false, testLogger(), srv.URL)
	err := VerifyPaused(context.Background(), g, "c1", "as1")
	if err == nil {
		t.Fatal("expected refusal for ACTIVE effective_status")
	}
	if !strings.Contains(err.Error(), "refusing to create ads") {
		t.Errorf("got: %v", err)
	}
}

func TestVerifyPaused_AllowsPaused(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":"x","status":"PAUSED","effective_status":"PAUSED"}`))
	}))
	defer srv.Close()

	g := NewGraphWithBaseURL(Config{AccessToken: "t"}, false, testLogger(), srv.URL)
	if err := VerifyPaused(context.Background(), g, "c1", "as1"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
