package adslib

import (
	"net/url"
	"regexp"
	"sort"
	"time"
)

// rawCandidate is one ad as extracted from the advertiser page's embedded
// JSON blobs. StartDate is a unix timestamp when known.
type rawCandidate struct {
	AdArchiveID string `json:"ad_archive_id"`
	StartDate   any    `json:"start_date"`
	EndDate     any    `json:"end_date"`
	IsActive    any    `json:"is_active"`
}

// Candidate is an active ad ranked by how long it has been running.
type Candidate struct {
	AdArchiveID    string
	StartedRunning time.Time
	DaysRunning    int
	SourceURL      string
}

// collector accumulates candidates across scroll iterations, keeping the
// first observed start date per ad id. Inactive ads are ignored.
type collector struct {
	seen     map[string]bool
	withDate map[string]time.Time
}

func newCollector() *collector {
	return &collector{
		seen:     map[string]bool{},
		withDate: map[string]time.Time{},
	}
}

// add folds one extraction pass into the collector and reports whether it
// produced anything new, which feeds the scroll stall counter.
func (c *collector) add(raw []rawCandidate) bool {
	newAny := false
	for _, item := range raw {
		if item.AdArchiveID == "" {
			continue
		}
		if active, ok := item.IsActive.(bool); ok && !active {
			continue
		}
		if !c.seen[item.AdArchiveID] {
			c.seen[item.AdArchiveID] = true
			newAny = true
		}
		if _, ok := c.withDate[item.AdArchiveID]; !ok {
			if ts := asUnix(item.StartDate); ts > 0 {
				c.withDate[item.AdArchiveID] = time.Unix(ts, 0).UTC()
				newAny = true
			}
		}
	}
	return newAny
}

func (c *collector) counts() (seen, dated int) {
	return len(c.seen), len(c.withDate)
}

// candidates returns the top-N ads with known start dates, longest-running
// first.
func (c *collector) candidates(sourceURL string, now time.Time, topN int) []Candidate {
	today := now.UTC().Truncate(24 * time.Hour)
	out := make([]Candidate, 0, len(c.withDate))
	for id, started := range c.withDate {
		startDay := started.Truncate(24 * time.Hour)
		out = append(out, Candidate{
			AdArchiveID:    id,
			StartedRunning: startDay,
			DaysRunning:    int(today.Sub(startDay).Hours() / 24),
			SourceURL:      sourceURL,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].DaysRunning != out[j].DaysRunning {
			return out[i].DaysRunning > out[j].DaysRunning
		}
		return out[i].AdArchiveID < out[j].AdArchiveID
	})
	if topN < 0 {
		topN = 0
	}
	if len(out) > topN {
		out = out[:topN]
	}
	return out
}

func asUnix(v any) int64 {
	switch t := v.(type) {
	case float64:
		return int64(t)
	case int64:
		return t
	case int:
		return int64(t)
	case string:
		var n int64
		for _, r := range t {
			if r < '0' || r > '9' {
				return 0
			}
			n = n*10 + int64(r-'0')
		}
		return n
	default:
		return 0
	}
}

var digitsRe = regexp.MustCompile(`^\d+$`)

// ParseViewAllPageID pulls the numeric view_all_page_id parameter out of an
// advertiser URL, returning "" when absent or malformed.
func ParseViewAllPageID(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	id := u.Query().Get("view_all_page_id")
	if !digitsRe.MatchString(id) {
		return ""
	}
	return id
}
