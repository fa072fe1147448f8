// Package media wraps ffmpeg for frame/audio extraction and provides
// image downscaling and palette extraction for analysis inputs.
package media

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"sync"
	"time"
)

const downloadUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"

// CheckFFmpeg verifies ffmpeg is on PATH. Returns a descriptive error
// when missing; callers treat it as a hard precondition.
func CheckFFmpeg() error {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		return fmt.Errorf("ffmpeg not found on PATH (required for video processing): %w", err)
	}
	return nil
}

// runFFmpeg executes ffmpeg with the given args under a timeout,
// capturing a bounded amount of stderr for error messages.
func runFFmpeg(ctx context.Context, timeout time.Duration, args ...string) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	full := append([]string{"-hide_banner", "-loglevel", "error", "-y"}, args...)
	cmd := exec.CommandContext(ctx, "ffmpeg", full...)

	var stderrBuf cappedBuffer
	stderrBuf.limit = 8 * 1024
	cmd.Stderr = &stderrBuf

	if err := cmd.Run(); err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return fmt.Errorf("ffmpeg timed out after %s", timeout)
		}
		msg := stderrBuf.String()
		if msg != "" {
			return fmt.Errorf("ffmpeg failed: %v: %s", err, msg)
		}
		return fmt.Errorf("ffmpeg failed: %w", err)
	}
	return nil
}

// ExtractFrames samples frames from video into outDir as frame_NNN.jpg,
// scaled to 720px wide, capped at maxSeconds of input. Returns the
// sorted frame paths.
func ExtractFrames(ctx context.Context, video, outDir string, fps float64, maxSeconds int) ([]string, error) {
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return nil, fmt.Errorf("creating frames dir: %w", err)
	}
	pattern := filepath.Join(outDir, "frame_%03d.jpg")
	err := runFFmpeg(ctx, 5*time.Minute,
		"-i", video,
		"-t", strconv.Itoa(maxSeconds),
		"-vf", fmt.Sprintf("fps=%g,scale=720:-1", fps),
		"-q:v", "3",
		pattern)
	if err != nil {
		return nil, err
	}
	frames, err := filepath.Glob(filepath.Join(outDir, "frame_*.jpg"))
	if err != nil {
		return nil, fmt.Errorf("listing frames: %w", err)
	}
	sort.Strings(frames)
	return frames, nil
}

// ExtractAudio pulls a mono 44.1kHz mp3 track from video, capped at
// maxSeconds. Returns false without error when the video has no audio
// stream.
func ExtractAudio(ctx context.Context, video, outPath string, maxSeconds int) (bool, error) {
	err := runFFmpeg(ctx, 5*time.Minute,
		"-i", video,
		"-t", strconv.Itoa(maxSeconds),
		"-vn", "-ac", "1", "-ar", "44100", "-b:a", "96k",
		outPath)
	if err != nil {
		// No audio stream is common for ad creatives; not a failure.
		if _, statErr := os.Stat(outPath); statErr != nil {
			return false, nil
		}
		return false, err
	}
	info, err := os.Stat(outPath)
	if err != nil || info.Size() == 0 {
		return false, nil
	}
	return true, nil
}

// DownloadHLS remuxes an HLS playlist URL into a local mp4 without
// re-encoding.
func DownloadHLS(ctx context.Context, playlistURL, outPath string) error {
	return runFFmpeg(ctx, 10*time.Minute,
		"-user_agent", downloadUserAgent,
		"-i", playlistURL,
		"-c", "copy",
		outPath)
}

// Thumbnail grabs a single frame at the 1 second mark as a JPEG.
func Thumbnail(ctx context.Context, video, outPath string) error {
	return runFFmpeg(ctx, 1*time.Minute,
		"-ss", "1",
		"-i", video,
		"-frames:v", "1",
		"-q:v", "2",
		outPath)
}

// cappedBuffer is a bytes.Buffer that stops writing after a byte limit.
// Used to capture stderr without unbounded memory growth.
type cappedBuffer struct {
	mu    sync.Mutex
	buf   bytes.Buffer
	limit int
}

func (c *cappedBuffer) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	remaining := c.limit - c.buf.Len()
	if remaining <= 0 {
		return len(p), nil
	}
	toWrite := p
	if len(toWrite) > remaining {
		toWrite = toWrite[:remaining]
	}
	_, err := c.buf.Write(toWrite)
	// Always report full input length to satisfy io.Writer contract
	return len(p), err
}

func (c *cappedBuffer) String() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.buf.String()
}
