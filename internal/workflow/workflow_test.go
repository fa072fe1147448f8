package workflow

import (
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func TestReadURLLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "urls.txt")
	content := `# competitor list
https://www.facebook.com/ads/library/?view_all_page_id=1

  https://www.facebook.com/ads/library/?view_all_page_id=2
# trailing comment
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing urls file: %v", err)
	}
	urls, err := ReadURLLines(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(urls) != 2 {
		t.Fatalf("got %d urls, want 2: %v", len(urls), urls)
	}
	if urls[1] != "https://www.facebook.com/ads/library/?view_all_page_id=2" {
		t.Errorf("whitespace should be trimmed, got %q", urls[1])
	}
}

func TestReadURLLines_Missing(t *testing.T) {
	if _, err := ReadURLLines(filepath.Join(t.TempDir(), "nope.txt")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestSoraConfigDefaults(t *testing.T) {
	t.Setenv("SORA_CLI", "")
	c := SoraConfig{}
	c.applyDefaults()
	if c.CLI != "sora" || c.Model != "sora-2" || c.Size != "720x1280" || c.Seconds != "8" {
		t.Errorf("defaults: got %+v", c)
	}
	if c.Timeout != 15*time.Minute {
		t.Errorf("timeout default: got %v", c.Timeout)
	}
}

func TestSoraConfigDefaults_EnvCLI(t *testing.T) {
	t.Setenv("SORA_CLI", "/opt/bin/sora")
	c := SoraConfig{}
	c.applyDefaults()
	if c.CLI != "/opt/bin/sora" {
		t.Errorf("got %q, $SORA_CLI should win over the bare name", c.CLI)
	}
}

func TestRunSora_MissingCLI(t *testing.T) {
	t.Setenv("SORA_CLI", "")
	err := RunSora(SoraConfig{CLI: "definitely-not-on-path-xyz"}, testLogger())
	if err == nil {
		t.Fatal("expected error for missing CLI binary")
	}
}
