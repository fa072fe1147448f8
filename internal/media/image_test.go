package media

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"regexp"
	"testing"
)

func writeTestImage(t *testing.T, w, h int, c color.RGBA) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encoding test image: %v", err)
	}
	path := filepath.Join(t.TempDir(), "test.png")
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		t.Fatalf("writing test image: %v", err)
	}
	return path
}

func TestDownscaleJPEG_ShrinksLongSide(t *testing.T) {
	path := writeTestImage(t, 400, 200, color.RGBA{R: 200, G: 50, B: 50, A: 255})
	data, err := DownscaleJPEG(path, 100, 80)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	img, err := jpegDecode(data)
	if err != nil {
		t.Fatalf("decoding output: %v", err)
	}
	b := img.Bounds()
	if b.Dx() != 100 || b.Dy() != 50 {
		t.Errorf("got %dx%d, want 100x50", b.Dx(), b.Dy())
	}
}

func TestDownscaleJPEG_KeepsSmallImages(t *testing.T) {
	path := writeTestImage(t, 40, 30, color.RGBA{R: 10, G: 200, B: 10, A: 255})
	data, err := DownscaleJPEG(path, 100, 80)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	img, err := jpegDecode(data)
	if err != nil {
		t.Fatalf("decoding output: %v", err)
	}
	b := img.Bounds()
	if b.Dx() != 40 || b.Dy() != 30 {
		t.Errorf("got %dx%d, want original size", b.Dx(), b.Dy())
	}
}

func TestDownscaleJPEG_MissingFile(t *testing.T) {
	if _, err := DownscaleJPEG(filepath.Join(t.TempDir(), "nope.png"), 100, 80); err == nil {
		t.Fatal("expected error for missing file")
	}
}

var hexRe = regexp.MustCompile(`^#[0-9a-f]{6}$`)

func TestDominantColorsHex_SolidImage(t *testing.T) {
	path := writeTestImage(t, 64, 64, color.RGBA{R: 200, G: 16, B: 16, A: 255})
	colors, err := DominantColorsHex(path, 6)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(colors) == 0 {
		t.Fatal("expected at least one color")
	}
	for _, c := range colors {
		if !hexRe.MatchString(c) {
			t.Errorf("not a hex color: %q", c)
		}
	}
	// Solid red image: the top bucket must be a red-dominant tone.
	if colors[0][1:3] < colors[0][3:5] {
		t.Errorf("top color should be red-dominant, got %q", colors[0])
	}
}

func TestDominantColorsHex_TwoTone(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 64, 64))
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			if x < 48 {
				img.Set(x, y, color.RGBA{R: 250, G: 250, B: 250, A: 255})
			} else {
				img.Set(x, y, color.RGBA{R: 5, G: 5, B: 5, A: 255})
			}
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encoding: %v", err)
	}
	path := filepath.Join(t.TempDir(), "two.png")
	os.WriteFile(path, buf.Bytes(), 0644)

	colors, err := DominantColorsHex(path, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(colors) != 2 {
		t.Fatalf("got %v, want 2 colors", colors)
	}
	// Light tone covers more area, so it ranks first.
	if colors[0] < colors[1] {
		t.Errorf("lighter bucket should rank first: %v", colors)
	}
}

func jpegDecode(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	return img, err
}
