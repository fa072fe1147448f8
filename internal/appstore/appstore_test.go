package appstore

import (
	"context"
	"io"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

func discardLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestRun_DefaultsDateToToday(t *testing.T) {
	dir := t.TempDir()
	reportPath, results, err := Run(context.Background(), Options{
		URLs:   []string{"https://example.com/app"},
		OutDir: dir,
		Log:    discardLogger(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	today := time.Now().Format("2006-01-02")
	if want := filepath.Join(dir, "reports", today+".md"); reportPath != want {
		t.Errorf("report path = %q, want %q", reportPath, want)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].Date != today {
		t.Errorf("snapshot date = %q, want %q", results[0].Date, today)
	}
	if !strings.HasSuffix(results[0].SnapshotPath, today+".json") {
		t.Errorf("snapshot path %q not stamped with %q", results[0].SnapshotPath, today)
	}
}

func TestRun_RejectsMalformedDate(t *testing.T) {
	_, _, err := Run(context.Background(), Options{
		URLs:   []string{"https://example.com/app"},
		OutDir: t.TempDir(),
		Date:   "today",
		Log:    discardLogger(),
	})
	if err == nil || !strings.Contains(err.Error(), "YYYY-MM-DD") {
		t.Fatalf("expected date format error, got %v", err)
	}
}

func TestRun_DiffAgainstPreviousDatedSnapshot(t *testing.T) {
	dir := t.TempDir()
	run := func(date string) []*AppResult {
		t.Helper()
		_, results, err := Run(context.Background(), Options{
			URLs:   []string{"https://example.com/app"},
			OutDir: dir,
			Date:   date,
			Log:    discardLogger(),
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		return results
	}
	run("2026-08-29")
	second := run("2026-08-30")
	if second[0].PreviousSnapshotDate != "2026-08-29" {
		t.Errorf("previous snapshot date = %q, want 2026-08-29", second[0].PreviousSnapshotDate)
	}
}

func TestDiffSnapshot_NoChanges(t *testing.T) {
	prev := map[string]any{"version": "1.0", "base_price": "Free"}
	cur := map[string]any{"version": "1.0", "base_price": "Free"}
	if diff := DiffSnapshot(prev, cur); len(diff) != 0 {
		t.Errorf("expected empty diff, got %v", diff)
	}
}

func TestDiffSnapshot_FieldChange(t *testing.T) {
	prev := map[string]any{"version": "1.0", "total_reviews": float64(100)}
	cur := map[string]any{"version": "1.1", "total_reviews": float64(100)}
	diff := DiffSnapshot(prev, cur)
	if len(diff) != 1 {
		t.Fatalf("got %d changes, want 1: %v", len(diff), diff)
	}
	ch, ok := diff["version"]
	if !ok {
		t.Fatal("expected version change")
	}
	if ch.From != "1.0" || ch.To != "1.1" {
		t.Errorf("got %+v", ch)
	}
}

func TestDiffSnapshot_IgnoresUntrackedKeys(t *testing.T) {
	prev := map[string]any{"fetched_at": "yesterday"}
	cur := map[string]any{"fetched_at": "today"}
	if diff := DiffSnapshot(prev, cur); len(diff) != 0 {
		t.Errorf("fetched_at should not be diffed, got %v", diff)
	}
}

func TestDiffSnapshot_NestedLists(t *testing.T) {
	prev := map[string]any{"in_app_purchases": []any{map[string]any{"name": "Pro", "price": "$9.99"}}}
	cur := map[string]any{"in_app_purchases": []any{map[string]any{"name": "Pro", "price": "$12.99"}}}
	diff := DiffSnapshot(prev, cur)
	if _, ok := diff["in_app_purchases"]; !ok {
		t.Errorf("expected in_app_purchases change, got %v", diff)
	}
}

func TestToJSONMap_MatchesReloadedShape(t *testing.T) {
	n := int64(5)
	r := &AppResult{Version: "2.0", TotalReviews: &n}
	m, err := toJSONMap(r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m["version"] != "2.0" {
		t.Errorf("version: got %v", m["version"])
	}
	// JSON numbers come back as float64, matching a reloaded snapshot.
	if m["total_reviews"] != float64(5) {
		t.Errorf("total_reviews: got %T %v", m["total_reviews"], m["total_reviews"])
	}
}
