package adslib

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"growthkit/internal/media"
)

var extRe = regexp.MustCompile(`^\.[a-z0-9]{1,5}$`)

// guessExt pulls a sane file extension from a media URL, falling back to the
// given default.
func guessExt(rawURL, fallback string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fallback
	}
	ext := strings.ToLower(path.Ext(u.Path))
	if extRe.MatchString(ext) {
		return ext
	}
	return fallback
}

type downloader struct {
	client  *http.Client
	timeout time.Duration
	log     *logrus.Logger
}

func newDownloader(timeout time.Duration, log *logrus.Logger) *downloader {
	return &downloader{
		client:  &http.Client{Timeout: timeout},
		timeout: timeout,
		log:     log,
	}
}

// fetch saves a URL to outPath via a temp file; failures are reported as
// false rather than an error since creative downloads are best-effort.
func (d *downloader) fetch(ctx context.Context, rawURL, outPath string) bool {
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return false
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return false
	}
	req.Header.Set("User-Agent", defaultUserAgent)

	resp, err := d.client.Do(req)
	if err != nil {
		d.log.WithError(err).Debug("media download failed")
		return false
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return false
	}

	tmp := outPath + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return false
	}
	n, err := io.Copy(f, resp.Body)
	closeErr := f.Close()
	if err != nil || closeErr != nil || n == 0 {
		os.Remove(tmp)
		return false
	}
	if err := os.Rename(tmp, outPath); err != nil {
		os.Remove(tmp)
		return false
	}
	return true
}

// downloadCreatives saves up to 10 images and 3 videos from an ad's detail
// scrape into the bundle directory. HLS playlists go through ffmpeg.
func (d *downloader) downloadCreatives(ctx context.Context, details *AdDetails, adDir string) (images, videos []string) {
	imageURLs := details.ImageURLs
	if len(imageURLs) > 10 {
		imageURLs = imageURLs[:10]
	}
	for i, u := range imageURLs {
		out := filepath.Join(adDir, "images", fmt.Sprintf("image_%02d%s", i, guessExt(u, ".jpg")))
		if d.fetch(ctx, u, out) {
			images = append(images, out)
		}
	}

	videoURLs := details.VideoURLs
	if len(videoURLs) > 3 {
		videoURLs = videoURLs[:3]
	}
	for i, u := range videoURLs {
		u = strings.TrimSpace(u)
		if u == "" {
			continue
		}
		var out string
		var ok bool
		if strings.Contains(u, ".m3u8") {
			out = filepath.Join(adDir, "video", fmt.Sprintf("video_%02d.mp4", i))
			if err := os.MkdirAll(filepath.Dir(out), 0o755); err == nil {
				ok = media.DownloadHLS(ctx, u, out) == nil
			}
		} else {
			out = filepath.Join(adDir, "video", fmt.Sprintf("video_%02d%s", i, guessExt(u, ".mp4")))
			ok = d.fetch(ctx, u, out)
		}
		if ok {
			videos = append(videos, out)
		}
	}
	return images, videos
}
