package maildigest

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"html"
	"io"
	"regexp"
	"strings"

	gomail "github.com/emersion/go-message/mail"
)

var (
	scriptRe     = regexp.MustCompile(`(?is)<script\b.*?</script>`)
	styleRe      = regexp.MustCompile(`(?is)<style\b.*?</style>`)
	brRe         = regexp.MustCompile(`(?i)<br\s*/?>`)
	pCloseRe     = regexp.MustCompile(`(?i)</p\s*>`)
	tagRe        = regexp.MustCompile(`(?s)<[^>]+>`)
	blankLinesRe = regexp.MustCompile(`\n{3,}`)
	spaceRunRe   = regexp.MustCompile(`[ \t]+`)
	leadTagsRe   = regexp.MustCompile(`^\s*(?:\[[^\]]*\]\s*)+`)
	wsRunRe      = regexp.MustCompile(`\s+`)
)

// stripHTMLToText converts an HTML body to readable plain text: script and
// style blocks are dropped, <br> and </p> become newlines, remaining tags are
// stripped and entities unescaped.
func stripHTMLToText(s string) string {
	s = scriptRe.ReplaceAllString(s, "")
	s = styleRe.ReplaceAllString(s, "")
	s = brRe.ReplaceAllString(s, "\n")
	s = pCloseRe.ReplaceAllString(s, "\n")
	s = tagRe.ReplaceAllString(s, "")
	s = html.UnescapeString(s)
	s = strings.ReplaceAll(s, "\r\n", "\n")

	var lines []string
	for _, line := range strings.Split(s, "\n") {
		lines = append(lines, strings.TrimRight(spaceRunRe.ReplaceAllString(line, " "), " "))
	}
	s = strings.Join(lines, "\n")
	s = blankLinesRe.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

// extractCleanText walks a raw RFC822 message and returns readable text,
// preferring text/plain parts over stripped HTML. Attachments are skipped.
func extractCleanText(raw []byte) (text string, hasHTML bool) {
	mr, err := gomail.CreateReader(bytes.NewReader(raw))
	if err != nil {
		return "", false
	}

	var plain, htmlBody strings.Builder
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			break
		}
		inline, ok := part.Header.(*gomail.InlineHeader)
		if !ok {
			continue
		}
		ctype, _, err := inline.ContentType()
		if err != nil {
			continue
		}
		body, err := io.ReadAll(part.Body)
		if err != nil {
			continue
		}
		switch ctype {
		case "text/plain":
			plain.Write(body)
			plain.WriteString("\n")
		case "text/html":
			hasHTML = true
			htmlBody.Write(body)
		}
	}

	if plain.Len() > 0 {
		s := strings.ReplaceAll(plain.String(), "\r\n", "\n")
		var lines []string
		for _, line := range strings.Split(s, "\n") {
			lines = append(lines, strings.TrimRight(spaceRunRe.ReplaceAllString(line, " "), " "))
		}
		s = strings.Join(lines, "\n")
		s = blankLinesRe.ReplaceAllString(s, "\n\n")
		return strings.TrimSpace(s), hasHTML
	}
	if htmlBody.Len() > 0 {
		return stripHTMLToText(htmlBody.String()), true
	}
	return "", hasHTML
}

// safeID derives a stable short identifier for an email from its Message-ID
// when present, falling back to mailbox:uid.
func safeID(messageID, mailbox string, uid uint32) string {
	basis := messageID
	if basis == "" {
		basis = fmt.Sprintf("%s:%d", mailbox, uid)
	}
	sum := sha256.Sum256([]byte(basis))
	return hex.EncodeToString(sum[:])[:24]
}

// normalizeSubject reduces a subject to a thread key: leading bracketed tags
// are stripped, whitespace collapsed, and the result lowercased.
func normalizeSubject(subject string) string {
	s := leadTagsRe.ReplaceAllString(subject, "")
	s = wsRunRe.ReplaceAllString(s, " ")
	return strings.ToLower(strings.TrimSpace(s))
}
