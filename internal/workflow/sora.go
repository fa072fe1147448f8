package workflow

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
)

// SoraConfig describes one video generation job for the external sora CLI.
type SoraConfig struct {
	CLI        string
	Model      string
	Size       string
	Seconds    string
	PromptFile string
	OutPath    string
	JobJSON    string
	Timeout    time.Duration
}

func (c *SoraConfig) applyDefaults() {
	if c.CLI == "" {
		c.CLI = os.Getenv("SORA_CLI")
	}
	if c.CLI == "" {
		c.CLI = "sora"
	}
	if c.Model == "" {
		c.Model = "sora-2"
	}
	if c.Size == "" {
		c.Size = "720x1280"
	}
	if c.Seconds == "" {
		c.Seconds = "8"
	}
	if c.Timeout <= 0 {
		c.Timeout = 15 * time.Minute
	}
}

// firstWriteSignaler wraps a writer and closes its channel on the first
// write, which feeds the watchdog's startup timer.
type firstWriteSignaler struct {
	w    io.Writer
	once sync.Once
	ch   chan struct{}
}

func newFirstWriteSignaler(w io.Writer) *firstWriteSignaler {
	return &firstWriteSignaler{w: w, ch: make(chan struct{})}
}

func (f *firstWriteSignaler) Write(p []byte) (int, error) {
	if len(p) > 0 {
		f.once.Do(func() { close(f.ch) })
	}
	return f.w.Write(p)
}

// RunSora invokes the sora CLI's create-and-poll mode and blocks until the
// video is downloaded. A watchdog kills the process if it produces no output
// during startup or exceeds the overall timeout.
func RunSora(cfg SoraConfig, log *logrus.Logger) error {
	cfg.applyDefaults()
	if _, err := exec.LookPath(cfg.CLI); err != nil {
		return fmt.Errorf("sora CLI not found: %s", cfg.CLI)
	}

	args := []string{
		"create-and-poll",
		"--model", cfg.Model,
		"--size", cfg.Size,
		"--seconds", cfg.Seconds,
		"--prompt-file", cfg.PromptFile,
		"--no-augment",
		"--download",
		"--variant", "video",
		"--force",
		"--out", cfg.OutPath,
	}
	if cfg.JobJSON != "" {
		args = append(args, "--json-out", cfg.JobJSON)
	}

	cmd := exec.Command(cfg.CLI, args...)
	stdout := newFirstWriteSignaler(os.Stdout)
	cmd.Stdout = stdout
	cmd.Stderr = os.Stderr

	log.WithFields(logrus.Fields{"model": cfg.Model, "size": cfg.Size, "seconds": cfg.Seconds}).Info("generating video")
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("starting %s: %w", cfg.CLI, err)
	}

	watchdogDone := make(chan struct{})
	go func() {
		defer close(watchdogDone)
		watchdog(cmd.Process, stdout.ch, 90*time.Second, cfg.Timeout)
	}()

	waitErr := cmd.Wait()
	<-watchdogDone

	if waitErr != nil {
		return fmt.Errorf("sora generation failed: %w", waitErr)
	}
	info, err := os.Stat(cfg.OutPath)
	if err != nil || info.Size() == 0 {
		return fmt.Errorf("sora produced no output at %s", cfg.OutPath)
	}
	return nil
}

// watchdog kills the process if no output arrives within startupTimeout, or
// if it runs past normalTimeout after first output.
func watchdog(proc *os.Process, firstOutput <-chan struct{}, startupTimeout, normalTimeout time.Duration) {
	startupTimer := time.NewTimer(startupTimeout)
	defer startupTimer.Stop()

	select {
	case <-firstOutput:
		startupTimer.Stop()
	case <-startupTimer.C:
		killProcess(proc)
		return
	}

	normalTimer := time.NewTimer(normalTimeout)
	defer normalTimer.Stop()

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-normalTimer.C:
			killProcess(proc)
			return
		case <-ticker.C:
			if err := proc.Signal(syscall.Signal(0)); err != nil {
				return
			}
		}
	}
}

// killProcess sends SIGTERM, waits 3 seconds, then SIGKILL.
func killProcess(proc *os.Process) {
	_ = proc.Signal(syscall.SIGTERM)
	done := make(chan struct{})
	go func() {
		_, _ = proc.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(3 * time.Second):
		_ = proc.Signal(syscall.SIGKILL)
	}
}
