package maildigest

import (
	"crypto/tls"
	"fmt"
	"net"
	"sort"
	"strings"
	"time"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"
	_ "github.com/emersion/go-message/charset"
)

// Config holds the IMAP connection settings, read from the environment.
type Config struct {
	Host            string
	Port            int
	User            string
	Password        string
	Mailbox         string
	SubjectContains string
	AllMailboxes    bool
	UseSSL          bool
}

type header struct {
	UID       uint32
	MessageID string
	Date      time.Time
	From      string
	To        string
	Subject   string
}

type fullMessage struct {
	header
	Raw []byte
}

type imapSession struct {
	client *imapclient.Client
}

func dial(cfg Config) (*imapSession, error) {
	addr := net.JoinHostPort(cfg.Host, fmt.Sprintf("%d", cfg.Port))

	var client *imapclient.Client
	var err error
	if cfg.UseSSL {
		client, err = imapclient.DialTLS(addr, &imapclient.Options{
			TLSConfig: &tls.Config{ServerName: cfg.Host},
		})
	} else {
		client, err = imapclient.DialStartTLS(addr, &imapclient.Options{
			TLSConfig: &tls.Config{ServerName: cfg.Host},
		})
	}
	if err != nil {
		return nil, fmt.Errorf("connecting to %s: %w", addr, err)
	}

	if err := client.Login(cfg.User, cfg.Password).Wait(); err != nil {
		client.Close()
		return nil, fmt.Errorf("logging in as %s: %w", cfg.User, err)
	}

	return &imapSession{client: client}, nil
}

func (s *imapSession) Close() error {
	return s.client.Close()
}

// selectableMailboxes lists every mailbox that can be selected, INBOX first,
// deduplicated and otherwise sorted by name.
func (s *imapSession) selectableMailboxes() ([]string, error) {
	listCmd := s.client.List("", "*", nil)

	seen := map[string]bool{}
	var names []string
	for {
		mbox := listCmd.Next()
		if mbox == nil {
			break
		}
		selectable := true
		for _, attr := range mbox.Attrs {
			if attr == imap.MailboxAttrNoSelect {
				selectable = false
				break
			}
		}
		if !selectable || seen[mbox.Mailbox] {
			continue
		}
		seen[mbox.Mailbox] = true
		names = append(names, mbox.Mailbox)
	}
	if err := listCmd.Close(); err != nil {
		return nil, fmt.Errorf("listing mailboxes: %w", err)
	}

	sort.Slice(names, func(i, j int) bool {
		if names[i] == "INBOX" {
			return names[j] != "INBOX"
		}
		if names[j] == "INBOX" {
			return false
		}
		return names[i] < names[j]
	})
	return names, nil
}

func (s *imapSession) mailboxStatus(mailbox string) (uidValidity, uidNext uint32, err error) {
	data, err := s.client.Status(mailbox, &imap.StatusOptions{
		UIDValidity: true,
		UIDNext:     true,
	}).Wait()
	if err != nil {
		return 0, 0, fmt.Errorf("statusing %s: %w", mailbox, err)
	}
	if data.UIDValidity != 0 {
		uidValidity = data.UIDValidity
	}
	if data.UIDNext != 0 {
		uidNext = uint32(data.UIDNext)
	}
	return uidValidity, uidNext, nil
}

// searchUIDs selects the mailbox read-only and returns matching UIDs sorted
// ascending. In incremental mode it searches UIDs above sinceUID; in today
// mode it searches by internal date instead.
func (s *imapSession) searchUIDs(mailbox string, sinceUID uint32, today bool, now time.Time) ([]uint32, error) {
	if _, err := s.client.Select(mailbox, &imap.SelectOptions{ReadOnly: true}).Wait(); err != nil {
		return nil, fmt.Errorf("selecting %s: %w", mailbox, err)
	}

	criteria := &imap.SearchCriteria{}
	if today {
		day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		criteria.Since = day
		criteria.Before = day.AddDate(0, 0, 1)
	} else {
		var set imap.UIDSet
		set.AddRange(imap.UID(sinceUID+1), 0)
		criteria.UID = []imap.UIDSet{set}
	}

	data, err := s.client.UIDSearch(criteria, nil).Wait()
	if err != nil {
		return nil, fmt.Errorf("searching %s: %w", mailbox, err)
	}

	uids := make([]uint32, 0, len(data.AllUIDs()))
	for _, uid := range data.AllUIDs() {
		uids = append(uids, uint32(uid))
	}
	sort.Slice(uids, func(i, j int) bool { return uids[i] < uids[j] })
	return uids, nil
}

// fetchHeaders fetches envelopes for the given UIDs in the currently selected
// mailbox.
func (s *imapSession) fetchHeaders(uids []uint32) ([]header, error) {
	if len(uids) == 0 {
		return nil, nil
	}

	imapUIDs := make([]imap.UID, len(uids))
	for i, uid := range uids {
		imapUIDs[i] = imap.UID(uid)
	}
	uidSet := imap.UIDSetNum(imapUIDs...)

	fetchCmd := s.client.Fetch(uidSet, &imap.FetchOptions{
		UID:      true,
		Envelope: true,
	})

	var headers []header
	for {
		msg := fetchCmd.Next()
		if msg == nil {
			break
		}
		msgData, err := msg.Collect()
		if err != nil {
			continue
		}
		h := header{UID: uint32(msgData.UID)}
		if env := msgData.Envelope; env != nil {
			h.MessageID = env.MessageID
			h.Subject = env.Subject
			h.Date = env.Date
			h.From = formatAddresses(env.From)
			h.To = formatAddresses(env.To)
		}
		headers = append(headers, h)
	}
	if err := fetchCmd.Close(); err != nil {
		return nil, fmt.Errorf("fetching headers: %w", err)
	}
	return headers, nil
}

// fetchFull fetches full RFC822 bodies for the given UIDs in the currently
// selected mailbox.
func (s *imapSession) fetchFull(uids []uint32) (map[uint32]fullMessage, error) {
	out := map[uint32]fullMessage{}
	if len(uids) == 0 {
		return out, nil
	}

	imapUIDs := make([]imap.UID, len(uids))
	for i, uid := range uids {
		imapUIDs[i] = imap.UID(uid)
	}
	uidSet := imap.UIDSetNum(imapUIDs...)

	fetchCmd := s.client.Fetch(uidSet, &imap.FetchOptions{
		UID:         true,
		Envelope:    true,
		BodySection: []*imap.FetchItemBodySection{{}},
	})

	for {
		msg := fetchCmd.Next()
		if msg == nil {
			break
		}
		msgData, err := msg.Collect()
		if err != nil {
			continue
		}
		full := fullMessage{header: header{UID: uint32(msgData.UID)}}
		if env := msgData.Envelope; env != nil {
			full.MessageID = env.MessageID
			full.Subject = env.Subject
			full.Date = env.Date
			full.From = formatAddresses(env.From)
			full.To = formatAddresses(env.To)
		}
		for _, section := range msgData.BodySection {
			if len(section.Bytes) > 0 {
				full.Raw = section.Bytes
				break
			}
		}
		out[full.UID] = full
	}
	if err := fetchCmd.Close(); err != nil {
		return nil, fmt.Errorf("fetching messages: %w", err)
	}
	return out, nil
}

func formatAddresses(addrs []imap.Address) string {
	var parts []string
	for _, a := range addrs {
		if a.Mailbox == "" && a.Host == "" {
			continue
		}
		addr := fmt.Sprintf("%s@%s", a.Mailbox, a.Host)
		if a.Name != "" {
			addr = fmt.Sprintf("%s <%s>", a.Name, addr)
		}
		parts = append(parts, addr)
	}
	return strings.Join(parts, ", ")
}
