package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestGetenv(t *testing.T) {
	t.Setenv("GK_TEST_VAL", "  hello  ")
	if got := Getenv("GK_TEST_VAL", "fb"); got != "hello" {
		t.Errorf("got %q", got)
	}
	t.Setenv("GK_TEST_VAL", " ")
	if got := Getenv("GK_TEST_VAL", "fb"); got != "fb" {
		t.Errorf("blank value should use fallback, got %q", got)
	}
}

func TestRequire(t *testing.T) {
	t.Setenv("GK_TEST_REQ", "v")
	if got, err := Require("GK_TEST_REQ"); err != nil || got != "v" {
		t.Errorf("got (%q, %v)", got, err)
	}
	t.Setenv("GK_TEST_REQ", "")
	if _, err := Require("GK_TEST_REQ"); err == nil {
		t.Fatal("expected error for missing variable")
	}
}

func TestGetenvInt(t *testing.T) {
	t.Setenv("GK_TEST_INT", "42")
	if got := GetenvInt("GK_TEST_INT", 7); got != 42 {
		t.Errorf("got %d", got)
	}
	t.Setenv("GK_TEST_INT", "notanumber")
	if got := GetenvInt("GK_TEST_INT", 7); got != 7 {
		t.Errorf("invalid value should use fallback, got %d", got)
	}
}

func TestGetenvBool(t *testing.T) {
	cases := []struct {
		val      string
		fallback bool
		want     bool
	}{
		{"1", false, true},
		{"TRUE", false, true},
		{"on", false, true},
		{"0", true, false},
		{"no", true, false},
		{"", true, true},
		{"maybe", false, false},
	}
	for _, tc := range cases {
		t.Setenv("GK_TEST_BOOL", tc.val)
		if got := GetenvBool("GK_TEST_BOOL", tc.fallback); got != tc.want {
			t.Errorf("GetenvBool(%q, %v): got %v, want %v", tc.val, tc.fallback, got, tc.want)
		}
	}
}

func TestLoadDotenv_ExplicitPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.env")
	os.WriteFile(path, []byte("GK_DOTENV_A=file-value\n"), 0644)

	t.Setenv("GK_DOTENV_A", "env-value")
	if err := LoadDotenv(path, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := os.Getenv("GK_DOTENV_A"); got != "env-value" {
		t.Errorf("without override env should win, got %q", got)
	}

	if err := LoadDotenv(path, true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := os.Getenv("GK_DOTENV_A"); got != "file-value" {
		t.Errorf("with override file should win, got %q", got)
	}
}

func TestLoadDotenv_MissingExplicit(t *testing.T) {
	if err := LoadDotenv(filepath.Join(t.TempDir(), "nope.env"), false); err == nil {
		t.Fatal("expected error for missing explicit dotenv file")
	}
}

func TestLoadDotenv_Off(t *testing.T) {
	if err := LoadDotenv("off", false); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestDataDir_Priority(t *testing.T) {
	base := t.TempDir()
	flagDir := filepath.Join(base, "flagged")
	t.Setenv("GROWTHKIT_DATA_DIR", filepath.Join(base, "from-env"))

	got, err := DataDir(flagDir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != flagDir {
		t.Errorf("flag should win: got %q", got)
	}
	if _, err := os.Stat(got); err != nil {
		t.Errorf("data dir should be created: %v", err)
	}

	got, err = DataDir("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != filepath.Join(base, "from-env") {
		t.Errorf("env should win over default: got %q", got)
	}
}
