package metaads

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func TestRedactURL(t *testing.T) {
	in := "https://graph.facebook.com/v24.0/me?access_token=SECRET&fields=id&appsecret_proof=PROOF"
	got := RedactURL(in)
	if strings.Contains(got, "SECRET") || strings.Contains(got, "PROOF") {
		t.Errorf("credentials leaked: %q", got)
	}
	if !strings.Contains(got, "fields=id") {
		t.Errorf("non-secret params should survive: %q", got)
	}
}

func TestGraphGet_DryRun(t *testing.T) {
	g := NewGraph(Config{GraphVersion: "v24.0", AccessToken: "tok"}, true, testLogger())
	resp, err := g.Get(context.Background(), "me", url.Values{"fields": {"id"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp["dry_run"] != true || resp["method"] != "GET" {
		t.Errorf("got %v", resp)
	}
	if strings.Contains(resp["url"].(string), "tok") {
		t.Errorf("dry-run URL leaked the token: %v", resp["url"])
	}
}

func TestGraphGet_AttachesAppsecretProof(t *testing.T) {
	var gotProof, gotToken string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotProof = r.URL.Query().Get("appsecret_proof")
		gotToken = r.URL.Query().Get("access_token")
		w.Write([]byte(`{"id":"1"}`))
	}))
	defer srv.Close()

	g := NewGraphWithBaseURL(Config{GraphVersion: "v24.0", AccessToken: "tok", AppSecret: "sec"}, false, testLogger(), srv.URL)
	if _, err := g.Get(context.Background(), "me", nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotToken != "tok" {
		t.Errorf("access_token: got %q", gotToken)
	}
	if len(gotProof) != 64 {
		t.Errorf("appsecret_proof should be a sha256 hex digest, got %q", gotProof)
	}
}

func TestGraphGet_HTTPErrorRedacted(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"bad token"}}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	g := NewGraphWithBaseURL(Config{AccessToken: "supersecret"}, false, testLogger(), srv.URL)
	_, err := g.Get(context.Background(), "me", nil)
	if err == nil {
		t.Fatal("expected error for HTTP 400")
	}
	if strings.Contains(err.Error(), "supersecret") {
		t.Errorf("error message leaked the token: %v", err)
	}
	if !strings.Contains(err.Error(), "bad token") {
		t.Errorf("error should carry the response body: %v", err)
	}
}

func TestGraphRetry_EventualSuccess(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		if hits < 3 {
			http.Error(w, `{"error":"transient"}`, http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{"id":"ok"}`))
	}))
	defer srv.Close()

	g := NewGraphWithBaseURL(Config{AccessToken: "t"}, false, testLogger(), srv.URL)
	resp, err := g.retry(func() (map[string]any, error) {
		return g.Get(context.Background(), "me", nil)
	})
	if err != nil {
		t.Fatalf("unexpected error after retries: %v", err)
	}
	if resp["id"] != "ok" {
		t.Errorf("got %v", resp)
	}
	if hits != 3 {
		t.Errorf("server hit %d times, want 3", hits)
	}
}

func TestPagedGet_FollowsCursors(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		if r.URL.Query().Get("after") == "" {
			w.Write([]byte(`{"data":[{"id":"1"}],"paging":{"cursors":{"after":"cur1"}}}`))
			return
		}
		w.Write([]byte(`{"data":[{"id":"2"}]}`))
	}))
	defer srv.Close()

	g := NewGraphWithBaseURL(Config{AccessToken: "t"}, false, testLogger(), srv.URL)
	rows, err := g.pagedGet(context.Background(), "act_1/campaigns", nil, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	if asString(rows[0]["id"]) != "1" || asString(rows[1]["id"]) != "2" {
		t.Errorf("rows: %v", rows)
	}
	if hits != 2 {
		t.Errorf("server hit %d times, want 2", hits)
	}
}

func TestPagedGet_MaxPages(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[{"id":"x"}],"paging":{"cursors":{"after":"more"}}}`))
	}))
	defer srv.Close()

	g := NewGraphWithBaseURL(Config{AccessToken: "t"}, false, testLogger(), srv.URL)
	rows, err := g.pagedGet(context.Background(), "act_1/adsets", nil, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 3 {
		t.Errorf("got %d rows, want max-pages cap of 3", len(rows))
	}
}

func TestDryID_Deterministic(t *testing.T) {
	a := dryID("campaign", "My Campaign")
	b := dryID("campaign", "My Campaign")
	c := dryID("campaign", "Other")
	if a != b {
		t.Errorf("same input should give same id: %q vs %q", a, b)
	}
	if a == c {
		t.Error("different names should give different ids")
	}
	if !strings.HasPrefix(a, "dry_campaign_") {
		t.Errorf("got %q", a)
	}
}
