package maildigest

import (
	"strings"
	"testing"
)

func TestBuildThreads_GroupsByNormalizedSubject(t *testing.T) {
	emails := []Email{
		{ID: "1", Subject: "Help with login", Date: "2026-08-01T10:00:00Z", CleanText: "first"},
		{ID: "2", Subject: "[EXTERNAL] Re: help with login", Date: "2026-08-02T10:00:00Z", CleanText: "second"},
		{ID: "3", Subject: "Billing question", Date: "2026-08-01T12:00:00Z"},
	}
	threads := buildThreads(emails, "emails/2026-08-30.json")
	if len(threads) != 3 {
		t.Fatalf("got %d threads, want 3", len(threads))
	}
	// "Re: help with login" normalizes differently from "help with login"
	// (the re: prefix stays), so those stay separate threads.
	if threads[0].ThreadKey != "help with login" {
		t.Errorf("thread 0 key: got %q", threads[0].ThreadKey)
	}
	if threads[0].Latest.Body != "first" {
		t.Errorf("latest: got %q", threads[0].Latest.Body)
	}
}

func TestBuildThreads_SameSubjectOrdering(t *testing.T) {
	emails := []Email{
		{ID: "b", Subject: "Outage", Date: "2026-08-02T10:00:00Z", CleanText: "later"},
		{ID: "a", Subject: "[tag] Outage", Date: "2026-08-01T10:00:00Z", CleanText: "earlier"},
	}
	threads := buildThreads(emails, "src.json")
	if len(threads) != 1 {
		t.Fatalf("got %d threads, want 1", len(threads))
	}
	th := threads[0]
	if len(th.Messages) != 2 {
		t.Fatalf("got %d messages", len(th.Messages))
	}
	if th.Messages[0].Body != "earlier" || th.Latest.Body != "later" {
		t.Errorf("messages should sort by date: %+v", th.Messages)
	}
	if th.Messages[0].SourceJSON != "src.json" {
		t.Errorf("source json: got %q", th.Messages[0].SourceJSON)
	}
}

func TestBuildThreads_EmptySubjectFallsBackToID(t *testing.T) {
	emails := []Email{
		{ID: "x1", MessageID: "<m1>", Subject: ""},
		{ID: "x2", MessageID: "<m2>", Subject: ""},
	}
	threads := buildThreads(emails, "s")
	if len(threads) != 2 {
		t.Fatalf("got %d threads, want one per message", len(threads))
	}
	if threads[0].ThreadKey != "<m1>" || threads[1].ThreadKey != "<m2>" {
		t.Errorf("keys: %q %q", threads[0].ThreadKey, threads[1].ThreadKey)
	}
}

func TestFormatDigest_NoMatches(t *testing.T) {
	got := formatDigest("2026-08-30", "incremental", "codex",
		[]mailboxStat{{Mailbox: "INBOX", Scanned: 10}}, nil, 10)
	if !strings.Contains(got, "# Mail Digest 2026-08-30") {
		t.Errorf("missing title: %q", got)
	}
	if !strings.Contains(got, "No matching emails.") {
		t.Errorf("missing empty marker: %q", got)
	}
	if !strings.Contains(got, "- INBOX: scanned 10, matched 0") {
		t.Errorf("missing mailbox stat: %q", got)
	}
}

func TestFormatDigest_ExcerptTruncation(t *testing.T) {
	long := strings.Repeat("é", 300) // 600 bytes of two-byte runes
	emails := []Email{{
		ID: "1", Subject: "Long one", From: "a@b.c",
		Date: "2026-08-30", Mailbox: "INBOX", UID: 5, CleanText: long,
	}}
	got := formatDigest("2026-08-30", "today", "codex",
		[]mailboxStat{{Mailbox: "INBOX", Scanned: 1, Matched: 1}}, emails, 1)
	if !strings.Contains(got, "### Long one") {
		t.Errorf("missing subject heading: %q", got)
	}
	if !strings.Contains(got, "...") {
		t.Error("long body should be truncated with an ellipsis")
	}
	// Truncation must not split a multi-byte rune.
	if strings.Contains(got, "�") || strings.Contains(got, "é\xc3...") {
		t.Error("truncation split a rune")
	}
}

func TestFormatDigest_EmptyBody(t *testing.T) {
	emails := []Email{{ID: "1", Subject: "S", CleanText: ""}}
	got := formatDigest("2026-08-30", "incremental", "f", nil, emails, 1)
	if !strings.Contains(got, "(no text body)") {
		t.Errorf("missing empty-body marker: %q", got)
	}
}
