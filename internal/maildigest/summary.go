package maildigest

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"
)

// threadMessage is one email flattened for the support summary.
type threadMessage struct {
	UID         uint32 `json:"uid"`
	MessageID   string `json:"message_id"`
	InReplyTo   string `json:"in_reply_to"`
	FromAddr    string `json:"from_addr"`
	ToAddrs     string `json:"to_addrs"`
	Date        string `json:"date"`
	Subject     string `json:"subject"`
	NormSubject string `json:"norm_subject"`
	Body        string `json:"body"`
	Mailbox     string `json:"mailbox"`
	SourceJSON  string `json:"source_json"`
}

type thread struct {
	ThreadIndex int             `json:"thread_index"`
	ThreadKey   string          `json:"thread_key"`
	Latest      threadMessage   `json:"latest"`
	Messages    []threadMessage `json:"messages"`
}

// buildThreads groups emails into conversation threads by normalized subject.
// Emails with an empty normalized subject get a thread of their own, keyed on
// message id.
func buildThreads(emails []Email, sourceJSON string) []thread {
	groups := map[string][]threadMessage{}
	var order []string

	for _, e := range emails {
		key := normalizeSubject(e.Subject)
		if key == "" {
			key = e.MessageID
			if key == "" {
				key = e.ID
			}
		}
		msg := threadMessage{
			UID:         e.UID,
			MessageID:   e.MessageID,
			InReplyTo:   "",
			FromAddr:    e.From,
			ToAddrs:     e.To,
			Date:        e.Date,
			Subject:     e.Subject,
			NormSubject: normalizeSubject(e.Subject),
			Body:        e.CleanText,
			Mailbox:     e.Mailbox,
			SourceJSON:  sourceJSON,
		}
		if _, ok := groups[key]; !ok {
			order = append(order, key)
		}
		groups[key] = append(groups[key], msg)
	}

	threads := make([]thread, 0, len(order))
	for i, key := range order {
		msgs := groups[key]
		sort.SliceStable(msgs, func(a, b int) bool { return msgs[a].Date < msgs[b].Date })
		threads = append(threads, thread{
			ThreadIndex: i,
			ThreadKey:   key,
			Latest:      msgs[len(msgs)-1],
			Messages:    msgs,
		})
	}
	return threads
}

type mailboxStat struct {
	Mailbox string
	Scanned int
	Matched int
}

// formatDigest renders the Markdown digest for a run.
func formatDigest(date, mode, filter string, stats []mailboxStat, emails []Email, scanned int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Mail Digest %s\n\n", date)
	fmt.Fprintf(&b, "- Mode: %s\n", mode)
	fmt.Fprintf(&b, "- Mailboxes scanned: %d\n", len(stats))
	fmt.Fprintf(&b, "- Subject filter: %q\n", filter)
	fmt.Fprintf(&b, "- Messages scanned: %d\n", scanned)
	fmt.Fprintf(&b, "- Matches: %d\n\n", len(emails))

	b.WriteString("## Mailboxes\n\n")
	for _, s := range stats {
		fmt.Fprintf(&b, "- %s: scanned %d, matched %d\n", s.Mailbox, s.Scanned, s.Matched)
	}
	b.WriteString("\n## Saved Emails\n\n")

	if len(emails) == 0 {
		b.WriteString("No matching emails.\n")
		return b.String()
	}

	for _, e := range emails {
		fmt.Fprintf(&b, "### %s\n\n", strings.TrimSpace(e.Subject))
		fmt.Fprintf(&b, "- From: %s\n", e.From)
		fmt.Fprintf(&b, "- Date: %s\n", e.Date)
		fmt.Fprintf(&b, "- Mailbox: %s (uid %d)\n", e.Mailbox, e.UID)
		fmt.Fprintf(&b, "- ID: %s\n\n", e.ID)
		excerpt := e.CleanText
		if len(excerpt) > 400 {
			cut := excerpt[:400]
			for len(cut) > 0 && !utf8.RuneStart(cut[len(cut)-1]) {
				cut = cut[:len(cut)-1]
			}
			excerpt = cut + "..."
		}
		if excerpt == "" {
			excerpt = "(no text body)"
		}
		fmt.Fprintf(&b, "```\n%s\n```\n\n", excerpt)
	}
	return b.String()
}
