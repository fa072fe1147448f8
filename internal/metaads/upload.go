package metaads

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"growthkit/internal/media"
)

// UploadImage sends an image to adimages and returns its hash.
// Response shape: {"images":{"<filename>":{"hash":"...","url":"..."}}}
func UploadImage(ctx context.Context, g *Graph, adAccountID, filePath string) (string, error) {
	if g.DryRun() {
		return dryID("imagehash", filePath), nil
	}
	resp, err := g.retry(func() (map[string]any, error) {
		return g.PostFile(ctx, fmt.Sprintf("act_%s/adimages", adAccountID), filePath)
	})
	if err != nil {
		return "", fmt.Errorf("uploading image: %w", err)
	}
	images, ok := resp["images"].(map[string]any)
	if !ok || len(images) == 0 {
		return "", fmt.Errorf("unexpected adimages response: %v", resp)
	}
	for _, v := range images {
		if entry, ok := v.(map[string]any); ok {
			if h := asString(entry["hash"]); h != "" {
				return h, nil
			}
		}
	}
	return "", fmt.Errorf("unexpected adimages response (missing hash): %v", resp)
}

// UploadVideo sends a video to advideos and returns its id.
func UploadVideo(ctx context.Context, g *Graph, adAccountID, filePath string) (string, error) {
	if g.DryRun() {
		return dryID("video", filePath), nil
	}
	resp, err := g.retry(func() (map[string]any, error) {
		return g.PostFile(ctx, fmt.Sprintf("act_%s/advideos", adAccountID), filePath)
	})
	if err != nil {
		return "", fmt.Errorf("uploading video: %w", err)
	}
	id := asString(resp["id"])
	if id == "" {
		return "", fmt.Errorf("unexpected advideos response (missing id): %v", resp)
	}
	return id, nil
}

// WaitForVideo polls an uploaded video until processing finishes.
// Readiness values vary by API version, so the check is heuristic.
func WaitForVideo(ctx context.Context, g *Graph, videoID string, timeout, poll time.Duration) error {
	if timeout <= 0 {
		timeout = 10 * time.Minute
	}
	deadline := time.Now().Add(timeout)
	var last map[string]any
	for {
		resp, err := g.Get(ctx, videoID, url.Values{"fields": {"status,permalink_url"}})
		if err != nil {
			return fmt.Errorf("polling video status: %w", err)
		}
		last = resp
		if status, ok := resp["status"].(map[string]any); ok {
			vs := strings.ToLower(asString(status["video_status"]))
			if vs == "" {
				vs = strings.ToLower(asString(status["processing_phase"]))
			}
			switch vs {
			case "ready", "processed", "complete", "completed":
				return nil
			}
			if progress, ok := status["processing_progress"].(float64); ok && progress >= 100 {
				return nil
			}
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("timed out waiting for video processing, last response: %v", last)
		}
		select {
		case <-time.After(poll):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// thumbCachePath returns a content-addressed cache path for a video's
// generated thumbnail, keyed on path, size and mtime.
func thumbCachePath(videoPath string) (string, error) {
	st, err := os.Stat(videoPath)
	if err != nil {
		return "", fmt.Errorf("stat %s: %w", videoPath, err)
	}
	key := fmt.Sprintf("%s\n%d\n%d", videoPath, st.Size(), st.ModTime().Unix())
	sum := sha1.Sum([]byte(key))
	dir := filepath.Join(os.TempDir(), "growthkit-thumbs")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("creating thumbnail cache dir: %w", err)
	}
	return filepath.Join(dir, hex.EncodeToString(sum[:])[:16]+".jpg"), nil
}

// VideoThumbnailHash returns an adimages hash to use as a video
// thumbnail. An explicit thumbnail file wins; otherwise a frame is
// grabbed with ffmpeg (cached per video).
func VideoThumbnailHash(ctx context.Context, g *Graph, adAccountID, videoPath, thumbnailFile, specDir string) (string, error) {
	if g.DryRun() {
		key := thumbnailFile
		if key == "" {
			key = videoPath
		}
		return dryID("thumbhash", key), nil
	}

	if thumbnailFile != "" {
		p := thumbnailFile
		if !filepath.IsAbs(p) {
			p = filepath.Join(specDir, p)
		}
		if _, err := os.Stat(p); err != nil {
			return "", fmt.Errorf("thumbnail_file does not exist: %s", p)
		}
		return UploadImage(ctx, g, adAccountID, p)
	}

	outPath, err := thumbCachePath(videoPath)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(outPath); err != nil {
		if err := media.Thumbnail(ctx, videoPath, outPath); err != nil {
			return "", fmt.Errorf("generating thumbnail (provide thumbnail_file for video ads): %w", err)
		}
	}
	return UploadImage(ctx, g, adAccountID, outPath)
}

// CreateImageCreative creates a link_data creative for a Page identity.
func CreateImageCreative(ctx context.Context, g *Graph, adAccountID, pageID, name, imageHash string, content AdContent) (string, error) {
	if g.DryRun() {
		return dryID("creative", name), nil
	}
	storySpec := map[string]any{
		"page_id": pageID,
		"link_data": map[string]any{
			"image_hash":  imageHash,
			"link":        content.DestinationURL,
			"message":     content.PrimaryText,
			"name":        content.Headline,
			"description": content.Description,
			"call_to_action": map[string]any{
				"type":  CTAType,
				"value": map[string]any{"link": content.DestinationURL},
			},
		},
	}
	return createCreative(ctx, g, adAccountID, name, storySpec)
}

// CreateVideoCreative creates a video_data creative for a Page identity.
func CreateVideoCreative(ctx context.Context, g *Graph, adAccountID, pageID, name, videoID, thumbnailHash string, content AdContent) (string, error) {
	if g.DryRun() {
		return dryID("creative", name), nil
	}
	storySpec := map[string]any{
		"page_id": pageID,
		"video_data": map[string]any{
			"video_id":         videoID,
			"message":          content.PrimaryText,
			"title":            content.Headline,
			"link_description": content.Description,
			"image_hash":       thumbnailHash,
			"call_to_action": map[string]any{
				"type":  CTAType,
				"value": map[string]any{"link": content.DestinationURL},
			},
		},
	}
	return createCreative(ctx, g, adAccountID, name, storySpec)
}

func createCreative(ctx context.Context, g *Graph, adAccountID, name string, storySpec map[string]any) (string, error) {
	resp, err := g.retry(func() (map[string]any, error) {
		return g.PostForm(ctx, fmt.Sprintf("act_%s/adcreatives", adAccountID), url.Values{
			"name":              {name},
			"object_story_spec": {jsonDumps(storySpec)},
		})
	})
	if err != nil {
		return "", fmt.Errorf("creating creative: %w", err)
	}
	id := asString(resp["id"])
	if id == "" {
		return "", fmt.Errorf("unexpected adcreatives response (missing id): %v", resp)
	}
	return id, nil
}

// CreateAd creates an ad in the ad set with the given status.
func CreateAd(ctx context.Context, g *Graph, adAccountID, adsetID, name, creativeID, status string) (string, error) {
	if g.DryRun() {
		return dryID("ad", name), nil
	}
	resp, err := g.retry(func() (map[string]any, error) {
		return g.PostForm(ctx, fmt.Sprintf("act_%s/ads", adAccountID), url.Values{
			"name":     {name},
			"adset_id": {adsetID},
			"creative": {jsonDumps(map[string]string{"creative_id": creativeID})},
			"status":   {status},
		})
	})
	if err != nil {
		return "", fmt.Errorf("creating ad: %w", err)
	}
	id := asString(resp["id"])
	if id == "" {
		return "", fmt.Errorf("unexpected ads response (missing id): %v", resp)
	}
	return id, nil
}
