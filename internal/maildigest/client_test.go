package maildigest

import (
	"testing"

	"github.com/emersion/go-imap/v2"
)

func TestFormatAddresses(t *testing.T) {
	cases := []struct {
		name  string
		addrs []imap.Address
		want  string
	}{
		{"empty", nil, ""},
		{"bare", []imap.Address{{Mailbox: "a", Host: "example.com"}}, "a@example.com"},
		{"named", []imap.Address{{Name: "Alex", Mailbox: "a", Host: "example.com"}}, "Alex <a@example.com>"},
		{"multiple", []imap.Address{
			{Mailbox: "a", Host: "x.com"},
			{Name: "B", Mailbox: "b", Host: "y.com"},
		}, "a@x.com, B <b@y.com>"},
		{"skips empty entries", []imap.Address{{}, {Mailbox: "a", Host: "x.com"}}, "a@x.com"},
	}
	for _, tc := range cases {
		if got := formatAddresses(tc.addrs); got != tc.want {
			t.Errorf("%s: got %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestLoadConfig_MissingVars(t *testing.T) {
	t.Setenv("IMAP_HOST", "")
	t.Setenv("IMAP_USER", "u")
	t.Setenv("IMAP_PASSWORD", "")
	_, err := LoadConfig()
	if err == nil {
		t.Fatal("expected error for missing variables")
	}
	want := "missing required environment variables: IMAP_HOST, IMAP_PASSWORD"
	if err.Error() != want {
		t.Errorf("got %q, want %q", err.Error(), want)
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("IMAP_HOST", "mail.example.com")
	t.Setenv("IMAP_USER", "u")
	t.Setenv("IMAP_PASSWORD", "p")
	t.Setenv("IMAP_PORT", "")
	t.Setenv("IMAP_MAILBOX", "")
	t.Setenv("IMAP_SUBJECT_CONTAINS", "")
	t.Setenv("IMAP_SSL", "")
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != 993 || cfg.Mailbox != "INBOX" || cfg.SubjectContains != "codex" || !cfg.UseSSL {
		t.Errorf("defaults: got %+v", cfg)
	}
}
