package media

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"os"
	"sort"

	"golang.org/x/image/draw"
)

// DownscaleJPEG reads an image file and returns JPEG bytes with the
// longest side at most maxSide. Images already within bounds are
// re-encoded at the requested quality so payload size stays predictable.
func DownscaleJPEG(path string, maxSide, quality int) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening image: %w", err)
	}
	defer f.Close()

	src, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}

	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if w > maxSide || h > maxSide {
		scale := float64(maxSide) / float64(w)
		if h > w {
			scale = float64(maxSide) / float64(h)
		}
		nw := int(float64(w) * scale)
		nh := int(float64(h) * scale)
		if nw < 1 {
			nw = 1
		}
		if nh < 1 {
			nh = 1
		}
		dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
		draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)
		src = dst
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, src, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("encoding %s: %w", path, err)
	}
	return buf.Bytes(), nil
}

// DominantColorsHex estimates up to k dominant colors of an image file
// as lowercase hex strings. Pixels are sampled from a downscaled copy
// and quantized into 32-step buckets; buckets are ranked by frequency.
func DominantColorsHex(path string, k int) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening image: %w", err)
	}
	defer f.Close()

	src, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}

	const sample = 64
	small := image.NewRGBA(image.Rect(0, 0, sample, sample))
	draw.ApproxBiLinear.Scale(small, small.Bounds(), src, src.Bounds(), draw.Over, nil)

	counts := make(map[color.RGBA]int)
	for y := 0; y < sample; y++ {
		for x := 0; x < sample; x++ {
			r, g, b, _ := small.At(x, y).RGBA()
			q := color.RGBA{
				R: quantize(uint8(r >> 8)),
				G: quantize(uint8(g >> 8)),
				B: quantize(uint8(b >> 8)),
			}
			counts[q]++
		}
	}

	type bucket struct {
		c color.RGBA
		n int
	}
	buckets := make([]bucket, 0, len(counts))
	for c, n := range counts {
		buckets = append(buckets, bucket{c, n})
	}
	sort.Slice(buckets, func(i, j int) bool {
		if buckets[i].n != buckets[j].n {
			return buckets[i].n > buckets[j].n
		}
		return hexColor(buckets[i].c) < hexColor(buckets[j].c)
	})

	seen := make(map[string]bool)
	var out []string
	for _, b := range buckets {
		hex := hexColor(b.c)
		if seen[hex] {
			continue
		}
		seen[hex] = true
		out = append(out, hex)
		if len(out) >= k {
			break
		}
	}
	return out, nil
}

// quantize snaps a channel to the center of its 32-wide bucket.
func quantize(v uint8) uint8 {
	b := int(v) / 32
	c := b*32 + 16
	if c > 255 {
		c = 255
	}
	return uint8(c)
}

func hexColor(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}
