// Package scratchpad implements an append-only markdown file that multiple
// agents share for coordination notes. Entries carry a timestamped header with
// the agent's name and role; QUESTION entries get unique ids that ANSWER
// entries close.
package scratchpad

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const fileHeader = `# Agent Scratchpad

Shared, append-only scratchpad for coordinating multiple agents working in this repo.

Protocol:
- Read before starting non-trivial work.
- Append entries (TASK/POINTER/QUESTION/ANSWER) with concrete file paths and commands.
- Prefer leaving a QUESTION over blocking.

---

`

// Pad operates on one scratchpad file.
type Pad struct {
	Path string
}

// AgentName resolves the acting agent's name from the explicit value, env
// fallbacks, or the OS user.
func AgentName(explicit string) string {
	if explicit != "" {
		return explicit
	}
	for _, key := range []string{"AGENT_NAME", "USER"} {
		if v := os.Getenv(key); v != "" {
			return v
		}
	}
	return "unknown"
}

// AgentRole resolves the acting agent's role description.
func AgentRole(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if v := os.Getenv("AGENT_ROLE"); v != "" {
		return v
	}
	return "unknown"
}

// Init creates the scratchpad file with its protocol header if missing.
func (p *Pad) Init() error {
	if _, err := os.Stat(p.Path); err == nil {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(p.Path), 0o755); err != nil {
		return fmt.Errorf("creating scratchpad dir: %w", err)
	}
	if err := os.WriteFile(p.Path, []byte(fileHeader), 0o644); err != nil {
		return fmt.Errorf("initializing scratchpad: %w", err)
	}
	return nil
}

// newQuestionID builds a question id unique across processes and sub-second
// bursts.
func newQuestionID(ts time.Time) string {
	return fmt.Sprintf("Q-%s-%06d-%d", ts.Format("20060102-150405"), ts.Nanosecond()/1000, os.Getpid())
}

// Append writes one entry and returns the entry id when one was assigned.
// QUESTION entries without an id get a generated one; ANSWER entries should
// pass the question id they close in closes.
func (p *Pad) Append(entryType, agent, role, text, entryID, closes string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("entry text must be non-empty")
	}
	if err := p.Init(); err != nil {
		return "", err
	}

	ts := time.Now()
	entryType = strings.ToUpper(strings.TrimSpace(entryType))
	if entryType == "QUESTION" && entryID == "" {
		entryID = newQuestionID(ts)
	}

	parts := []string{
		ts.Format("2006-01-02 15:04:05 -0700"),
		entryType,
		"agent=" + agent,
		"role=" + role,
	}
	if entryID != "" {
		parts = append(parts, "id="+entryID)
	}
	if closes != "" {
		parts = append(parts, "closes="+closes)
	}

	entry := "## " + strings.Join(parts, " | ") + "\n" + strings.TrimSpace(text) + "\n\n"

	f, err := os.OpenFile(p.Path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return "", fmt.Errorf("opening scratchpad: %w", err)
	}
	defer f.Close()
	if _, err := f.WriteString(entry); err != nil {
		return "", fmt.Errorf("appending entry: %w", err)
	}
	return entryID, nil
}

// OpenQuestion is a QUESTION entry with no closing ANSWER yet.
type OpenQuestion struct {
	ID     string
	Header string
}

// OpenQuestions lists QUESTION entries not yet closed by an ANSWER, in file
// order.
func (p *Pad) OpenQuestions() ([]OpenQuestion, error) {
	lines, err := p.lines()
	if err != nil {
		return nil, err
	}

	headers := map[string]string{}
	var order []string
	closed := map[string]bool{}

	for _, line := range lines {
		if !strings.HasPrefix(line, "## ") {
			continue
		}
		if strings.Contains(line, "| QUESTION |") {
			if id := headerField(line, "id="); id != "" {
				if _, ok := headers[id]; !ok {
					order = append(order, id)
				}
				headers[id] = line
			}
		}
		if strings.Contains(line, "| ANSWER |") {
			if id := headerField(line, "closes="); id != "" {
				closed[id] = true
			}
		}
	}

	var open []OpenQuestion
	for _, id := range order {
		if !closed[id] {
			open = append(open, OpenQuestion{ID: id, Header: headers[id]})
		}
	}
	return open, nil
}

// Tail returns the last n lines of the scratchpad.
func (p *Pad) Tail(n int) ([]string, error) {
	lines, err := p.lines()
	if err != nil {
		return nil, err
	}
	if n < 1 {
		n = 1
	}
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return lines, nil
}

func (p *Pad) lines() ([]string, error) {
	f, err := os.Open(p.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading scratchpad: %w", err)
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading scratchpad: %w", err)
	}
	return lines, nil
}

func headerField(line, prefix string) string {
	for _, tok := range strings.Split(line, "|") {
		tok = strings.TrimSpace(tok)
		if strings.HasPrefix(tok, prefix) {
			return strings.TrimSpace(strings.TrimPrefix(tok, prefix))
		}
	}
	return ""
}
