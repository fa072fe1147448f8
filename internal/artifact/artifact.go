// Package artifact handles on-disk output: atomic file writes, snapshot
// directory layout, slugs and timestamps shared by the skills.
package artifact

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// AtomicWrite writes data to path via a temp file in the same directory
// plus rename, so readers never observe a partial file.
func AtomicWrite(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file in %s: %w", dir, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp file for %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("renaming into %s: %w", path, err)
	}
	return nil
}

// WriteJSON atomically writes v as indented JSON.
func WriteJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling %s: %w", path, err)
	}
	return AtomicWrite(path, append(data, '\n'))
}

// ReadJSON reads path into v.
func ReadJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	return nil
}

// Slug lowercases s and replaces every non-alphanumeric run with a single
// hyphen. Empty input slugs to "item".
func Slug(s string) string {
	var b strings.Builder
	lastHyphen := true
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			lastHyphen = false
		} else if !lastHyphen {
			b.WriteByte('-')
			lastHyphen = true
		}
	}
	out := strings.Trim(b.String(), "-")
	if out == "" {
		return "item"
	}
	return out
}

// DateStamp returns the UTC date as YYYY-MM-DD.
func DateStamp(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// TimeStamp returns a filesystem-safe UTC timestamp, e.g. 20260115T093000Z.
func TimeStamp(t time.Time) string {
	return t.UTC().Format("20060102T150405Z")
}

// SnapshotPaths returns the dated and latest snapshot paths for a key
// under root/snapshots/<key>/.
func SnapshotPaths(root, key string, t time.Time) (dated, latest string) {
	dir := filepath.Join(root, "snapshots", key)
	return filepath.Join(dir, DateStamp(t)+".json"), filepath.Join(dir, "latest.json")
}

// PreviousSnapshot finds the most recent dated snapshot in dir strictly
// before the given date stamp. Returns "" when none exists.
func PreviousSnapshot(dir, beforeStamp string) string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return ""
	}
	best := ""
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".json") || name == "latest.json" {
			continue
		}
		stamp := strings.TrimSuffix(name, ".json")
		if stamp >= beforeStamp {
			continue
		}
		if stamp > best {
			best = stamp
		}
	}
	if best == "" {
		return ""
	}
	return filepath.Join(dir, best+".json")
}
