// Package maildigest scans IMAP mailboxes for messages whose subject matches
// a configured substring, saves them as daily JSON artifacts with a grouped
// support summary, and renders a Markdown digest. Incremental runs track a
// per-mailbox UID cursor so each message is processed once.
package maildigest

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"growthkit/internal/artifact"
	"growthkit/internal/config"
	"growthkit/internal/store"
)

// Email is one saved message record.
type Email struct {
	ID              string `json:"id"`
	Mailbox         string `json:"mailbox"`
	UID             uint32 `json:"uid"`
	MessageID       string `json:"message_id"`
	Date            string `json:"date"`
	From            string `json:"from"`
	To              string `json:"to"`
	Subject         string `json:"subject"`
	SubjectContains string `json:"subject_contains"`
	CleanText       string `json:"clean_text"`
	HasHTML         bool   `json:"has_html"`
	RawRFC822B64    string `json:"raw_rfc822_b64,omitempty"`
}

// Options configures a digest run.
type Options struct {
	Today        bool
	Max          int
	AllMailboxes bool
	IncludeRaw   bool
	NoStateWrite bool
	DataDir      string
	DB           *store.DB
	Log          *logrus.Logger
}

// Result reports what a digest run produced.
type Result struct {
	EmailsPath  string
	SummaryPath string
	DigestPath  string
	Digest      string
	Matches     int
	Scanned     int
}

// LoadConfig reads the IMAP settings from the environment.
func LoadConfig() (Config, error) {
	var missing []string
	require := func(key string) string {
		v := config.Getenv(key, "")
		if v == "" {
			missing = append(missing, key)
		}
		return v
	}

	cfg := Config{
		Host:            require("IMAP_HOST"),
		Port:            config.GetenvInt("IMAP_PORT", 993),
		User:            require("IMAP_USER"),
		Password:        require("IMAP_PASSWORD"),
		Mailbox:         config.Getenv("IMAP_MAILBOX", "INBOX"),
		SubjectContains: config.Getenv("IMAP_SUBJECT_CONTAINS", "codex"),
		AllMailboxes:    config.GetenvBool("IMAP_ALL_MAILBOXES", false),
		UseSSL:          config.GetenvBool("IMAP_SSL", true),
	}
	if len(missing) > 0 {
		return Config{}, fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}
	return cfg, nil
}

// Run executes one digest pass.
func Run(cfg Config, opts Options) (*Result, error) {
	log := opts.Log
	if log == nil {
		log = logrus.StandardLogger()
	}
	if opts.Max <= 0 {
		opts.Max = 200
	}

	session, err := dial(cfg)
	if err != nil {
		return nil, err
	}
	defer session.Close()

	mailboxes := []string{cfg.Mailbox}
	if opts.AllMailboxes || cfg.AllMailboxes {
		mailboxes, err = session.selectableMailboxes()
		if err != nil {
			return nil, err
		}
	}

	now := time.Now()
	mode := "incremental"
	if opts.Today {
		mode = "today"
	}
	log.WithFields(logrus.Fields{"mode": mode, "mailboxes": len(mailboxes)}).Info("scanning mail")

	var (
		stats     []mailboxStat
		matched   []Email
		seen      = map[string]bool{}
		scanned   int
		newCursor = map[string]struct{ lastUID, uidValidity uint32 }{}
	)

	for _, mailbox := range mailboxes {
		uidValidity, uidNext, err := session.mailboxStatus(mailbox)
		if err != nil {
			log.WithError(err).WithField("mailbox", mailbox).Warn("skipping mailbox")
			continue
		}

		var lastUID uint32
		if !opts.Today && opts.DB != nil {
			cursor, err := opts.DB.GetMailCursor(mailbox)
			if err != nil {
				return nil, err
			}
			if cursor != nil {
				lastUID = cursor.LastUID
				if cursor.UIDValidity != 0 && cursor.UIDValidity != uidValidity {
					log.WithField("mailbox", mailbox).Warn("uidvalidity changed, rescanning mailbox")
					lastUID = 0
				}
			}
		}

		uids, err := session.searchUIDs(mailbox, lastUID, opts.Today, now)
		if err != nil {
			log.WithError(err).WithField("mailbox", mailbox).Warn("search failed")
			continue
		}
		if len(uids) > opts.Max {
			uids = uids[len(uids)-opts.Max:]
		}

		headers, err := session.fetchHeaders(uids)
		if err != nil {
			return nil, err
		}
		scanned += len(headers)

		maxUID := lastUID
		var matchUIDs []uint32
		var matchHeaders []header
		for _, h := range headers {
			if h.UID > maxUID {
				maxUID = h.UID
			}
			if cfg.SubjectContains != "" &&
				!strings.Contains(strings.ToLower(h.Subject), strings.ToLower(cfg.SubjectContains)) {
				continue
			}
			key := h.MessageID
			if key == "" {
				key = fmt.Sprintf("%s:%d", mailbox, h.UID)
			}
			if seen[key] {
				continue
			}
			seen[key] = true
			matchUIDs = append(matchUIDs, h.UID)
			matchHeaders = append(matchHeaders, h)
		}
		if uidNext > 0 && maxUID == 0 {
			maxUID = uidNext - 1
		}
		newCursor[mailbox] = struct{ lastUID, uidValidity uint32 }{maxUID, uidValidity}

		full, err := session.fetchFull(matchUIDs)
		if err != nil {
			return nil, err
		}

		for _, h := range matchHeaders {
			msg, ok := full[h.UID]
			var raw []byte
			if ok {
				raw = msg.Raw
			}
			text, hasHTML := extractCleanText(raw)
			email := Email{
				ID:              safeID(h.MessageID, mailbox, h.UID),
				Mailbox:         mailbox,
				UID:             h.UID,
				MessageID:       h.MessageID,
				Date:            formatDate(h.Date),
				From:            h.From,
				To:              h.To,
				Subject:         h.Subject,
				SubjectContains: cfg.SubjectContains,
				CleanText:       text,
				HasHTML:         hasHTML,
			}
			if opts.IncludeRaw && len(raw) > 0 {
				email.RawRFC822B64 = base64.StdEncoding.EncodeToString(raw)
			}
			matched = append(matched, email)
		}

		stats = append(stats, mailboxStat{Mailbox: mailbox, Scanned: len(headers), Matched: len(matchUIDs)})
	}

	date := artifact.DateStamp(now)
	emailsDir := filepath.Join(opts.DataDir, "emails")
	digestsDir := filepath.Join(opts.DataDir, "digests")
	for _, dir := range []string{emailsDir, digestsDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating %s: %w", dir, err)
		}
	}

	emailsPath := filepath.Join(emailsDir, date+".json")
	if err := artifact.WriteJSON(emailsPath, map[string]any{
		"generated_at": now.UTC().Format(time.RFC3339),
		"emails":       matched,
	}); err != nil {
		return nil, err
	}

	summaryPath := filepath.Join(emailsDir, "support-summary-"+date+".json")
	threads := buildThreads(matched, filepath.Base(emailsPath))
	if err := artifact.WriteJSON(summaryPath, map[string]any{
		"generated_at": now.UTC().Format(time.RFC3339),
		"threads":      threads,
	}); err != nil {
		return nil, err
	}

	digest := formatDigest(date, mode, cfg.SubjectContains, stats, matched, scanned)
	digestPath := filepath.Join(digestsDir, date+".md")
	if err := artifact.AtomicWrite(digestPath, []byte(digest)); err != nil {
		return nil, err
	}

	if !opts.Today && !opts.NoStateWrite && opts.DB != nil {
		for mailbox, c := range newCursor {
			if err := opts.DB.SetMailCursor(mailbox, c.lastUID, c.uidValidity); err != nil {
				return nil, err
			}
		}
	}

	log.WithFields(logrus.Fields{"matches": len(matched), "scanned": scanned}).Info("digest written")
	return &Result{
		EmailsPath:  emailsPath,
		SummaryPath: summaryPath,
		DigestPath:  digestPath,
		Digest:      digest,
		Matches:     len(matched),
		Scanned:     scanned,
	}, nil
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format("2006-01-02T15:04:05Z")
}
