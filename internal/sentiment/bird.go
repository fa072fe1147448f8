package sentiment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
)

var jsonBlobRe = regexp.MustCompile(`(?s)(\{.*\}|\[.*\])`)

// RunBird executes `bird search <query> --json -n N` and returns the
// decoded JSON payload. Noisy output around the JSON is tolerated by
// salvaging the first embedded array or object.
func RunBird(ctx context.Context, birdBin, query string, n int) (any, error) {
	cmd := exec.CommandContext(ctx, birdBin, "search", query, "--json", "-n", strconv.Itoa(n))
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		var execErr *exec.Error
		if errors.As(err, &execErr) {
			return nil, fmt.Errorf("%s not found on PATH, install and authenticate bird first", birdBin)
		}
		tail := stderrTail(stderr.String(), 40)
		return nil, fmt.Errorf("bird search failed: %v\n%s", err, tail)
	}

	out := strings.TrimSpace(stdout.String())
	if out == "" {
		return []any{}, nil
	}

	var v any
	if err := json.Unmarshal([]byte(out), &v); err == nil {
		return v, nil
	}
	if m := jsonBlobRe.FindString(out); m != "" {
		if err := json.Unmarshal([]byte(m), &v); err == nil {
			return v, nil
		}
	}
	snippet := out
	if len(snippet) > 2000 {
		snippet = snippet[:2000]
	}
	return nil, fmt.Errorf("bird output was not JSON (first 2000 chars):\n%s", snippet)
}

func stderrTail(s string, lines int) string {
	all := strings.Split(strings.TrimSpace(s), "\n")
	if len(all) > lines {
		all = all[len(all)-lines:]
	}
	return strings.Join(all, "\n")
}
