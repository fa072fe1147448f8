package adslib

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/chromedp"
	"github.com/sirupsen/logrus"

	"growthkit/internal/artifact"
)

const defaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) " +
	"AppleWebKit/537.36 (KHTML, like Gecko) " +
	"Chrome/120.0.0.0 Safari/537.36"

// collectCandidatesJS walks the Relay-prefetched JSON blobs the Ads Library
// embeds in script tags and pulls out every collated ad result. Anchors with
// ?id= links are a fallback for pages that rendered without the blobs.
const collectCandidatesJS = `
(() => {
  const out = new Map();

  const walk = (obj, fn) => {
    const stack = [obj];
    const seen = new Set();
    while (stack.length) {
      const cur = stack.pop();
      if (!cur || typeof cur !== 'object') continue;
      if (seen.has(cur)) continue;
      seen.add(cur);
      try { fn(cur); } catch (e) {}
      if (Array.isArray(cur)) {
        for (const v of cur) stack.push(v);
      } else {
        for (const k of Object.keys(cur)) stack.push(cur[k]);
      }
    }
  };

  const scripts = Array.from(document.querySelectorAll('script[type="application/json"]'));
  for (const s of scripts) {
    const txt = s.textContent || '';
    if (!txt.includes('ad_library_main') || !txt.includes('search_results_connection')) continue;
    let root = null;
    try { root = JSON.parse(txt); } catch (e) { continue; }

    walk(root, (node) => {
      const main = node && node.ad_library_main;
      const conn = main && main.search_results_connection;
      const edges = conn && conn.edges;
      if (!Array.isArray(edges)) return;
      for (const edge of edges) {
        const n = edge && edge.node;
        const collated = n && n.collated_results;
        if (!Array.isArray(collated)) continue;
        for (const cr of collated) {
          const adId = cr && cr.ad_archive_id;
          if (!adId) continue;
          const key = String(adId);
          if (out.has(key)) continue;
          out.set(key, {
            ad_archive_id: key,
            start_date: cr.start_date ?? null,
            end_date: cr.end_date ?? null,
            is_active: cr.is_active ?? null,
          });
        }
      }
    });
  }

  if (out.size === 0) {
    const anchors = Array.from(document.querySelectorAll('a[href]'));
    for (const a of anchors) {
      const href = a.getAttribute('href') || '';
      const m = href.match(/[?&]id=(\d+)/);
      if (!m) continue;
      if (out.has(m[1])) continue;
      out.set(m[1], { ad_archive_id: m[1], start_date: null, end_date: null, is_active: null });
    }
  }

  return Array.from(out.values());
})()
`

// dismissModalsJS clicks through cookie and login prompts when present.
const dismissModalsJS = `
(() => {
  const labels = [
    /accept all cookies/i,
    /allow all cookies/i,
    /only allow essential cookies/i,
    /^accept$/i,
    /^agree$/i,
    /^close$/i,
  ];
  const clickable = Array.from(document.querySelectorAll('button, [role="button"]'));
  let clicked = 0;
  for (const el of clickable) {
    const text = (el.innerText || '').trim();
    if (!text) continue;
    if (labels.some(re => re.test(text))) {
      try { el.click(); clicked++; } catch (e) {}
    }
  }
  return clicked;
})()
`

// extractDetailsJS scrapes an ad detail page: creative image/video URLs plus
// the preview text blocks.
const extractDetailsJS = `
(() => {
  const uniq = (arr) => {
    const out = [];
    const seen = new Set();
    for (const x of arr) {
      if (!x || seen.has(x)) continue;
      seen.add(x);
      out.push(x);
    }
    return out;
  };

  const images = Array.from(document.querySelectorAll('img'))
    .map(img => ({
      url: img.currentSrc || img.src || '',
      w: img.naturalWidth || 0,
      h: img.naturalHeight || 0,
    }))
    .filter(x => x.url && !x.url.startsWith('data:') && x.w >= 200 && x.h >= 200)
    .map(x => x.url);

  const videos = [];
  for (const v of Array.from(document.querySelectorAll('video'))) {
    if (v.currentSrc) videos.push(v.currentSrc);
    if (v.src) videos.push(v.src);
    for (const s of Array.from(v.querySelectorAll('source'))) {
      if (s.src) videos.push(s.src);
    }
  }

  const pickText = (selector) =>
    uniq(Array.from(document.querySelectorAll(selector)).map(el => (el.innerText || '').trim()).filter(Boolean));

  return {
    page_title: document.title || '',
    image_urls: uniq(images),
    video_urls: uniq(videos.filter(u => u && !u.startsWith('blob:'))),
    messages: pickText('[data-ad-preview="message"]'),
    headlines: pickText('[data-ad-preview="title"]'),
    descriptions: pickText('[data-ad-preview="description"]'),
  };
})()
`

// AdDetails is everything scraped from one ad's detail page.
type AdDetails struct {
	AdArchiveID  string   `json:"ad_archive_id"`
	DetailURL    string   `json:"detail_url"`
	PageTitle    string   `json:"page_title"`
	Messages     []string `json:"messages"`
	Headlines    []string `json:"headlines"`
	Descriptions []string `json:"descriptions"`
	ImageURLs    []string `json:"image_urls"`
	VideoURLs    []string `json:"video_urls"`
}

type browser struct {
	ctx     context.Context
	cancels []context.CancelFunc
	timeout time.Duration
	log     *logrus.Logger
}

// newBrowser launches a headless Chrome tab with the tracker's user agent.
func newBrowser(parent context.Context, headful bool, timeout time.Duration, log *logrus.Logger) (*browser, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.UserAgent(defaultUserAgent),
		chromedp.WindowSize(1280, 900),
		chromedp.Flag("headless", !headful),
	)
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(parent, opts...)
	ctx, cancelCtx := chromedp.NewContext(allocCtx)

	// Force an initial navigation so the browser process starts now and a
	// launch failure surfaces here rather than mid-scrape.
	if err := chromedp.Run(ctx, emulation.SetDeviceMetricsOverride(1280, 900, 1.0, false)); err != nil {
		cancelCtx()
		cancelAlloc()
		return nil, fmt.Errorf("launching browser: %w", err)
	}

	return &browser{
		ctx:     ctx,
		cancels: []context.CancelFunc{cancelCtx, cancelAlloc},
		timeout: timeout,
		log:     log,
	}, nil
}

func (b *browser) Close() {
	for _, cancel := range b.cancels {
		cancel()
	}
}

func (b *browser) dismissModals() {
	var clicked int
	ctx, cancel := context.WithTimeout(b.ctx, 5*time.Second)
	defer cancel()
	_ = chromedp.Run(ctx, chromedp.Evaluate(dismissModalsJS, &clicked))
	if clicked > 0 {
		time.Sleep(200 * time.Millisecond)
	}
}

func (b *browser) collectCandidates() []rawCandidate {
	var raw []rawCandidate
	ctx, cancel := context.WithTimeout(b.ctx, 15*time.Second)
	defer cancel()
	if err := chromedp.Run(ctx, chromedp.Evaluate(collectCandidatesJS, &raw)); err != nil {
		return nil
	}
	return raw
}

func (b *browser) saveDebugPage(dir, name string) {
	if dir == "" {
		return
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return
	}
	ctx, cancel := context.WithTimeout(b.ctx, 20*time.Second)
	defer cancel()

	var png []byte
	if err := chromedp.Run(ctx, chromedp.FullScreenshot(&png, 80)); err == nil {
		_ = os.WriteFile(filepath.Join(dir, name+".png"), png, 0o644)
	}
	var html string
	if err := chromedp.Run(ctx, chromedp.OuterHTML("html", &html)); err == nil {
		_ = os.WriteFile(filepath.Join(dir, name+".html"), []byte(html), 0o644)
	}
}

// scrapeOptions tunes the advertiser page scroll loop.
type scrapeOptions struct {
	TopN       int
	MaxScrolls int
	StallIters int
	DebugDir   string
}

// scrapeAdvertiser loads an advertiser's Ads Library page and scrolls until
// no new ads appear, then ranks the active ads by days running.
func (b *browser) scrapeAdvertiser(advertiserURL string, opts scrapeOptions) ([]Candidate, error) {
	navCtx, cancel := context.WithTimeout(b.ctx, b.timeout)
	err := chromedp.Run(navCtx, chromedp.Navigate(advertiserURL))
	cancel()
	if err != nil {
		return nil, fmt.Errorf("loading advertiser page: %w", err)
	}
	b.saveDebugPage(opts.DebugDir, "advertiser_initial")
	b.dismissModals()
	time.Sleep(2 * time.Second)

	col := newCollector()
	stall := 0
	for i := 0; i < opts.MaxScrolls; i++ {
		b.dismissModals()
		raw := b.collectCandidates()

		if opts.DebugDir != "" && (i <= 2 || i%5 == 0) {
			sample := raw
			if len(sample) > 200 {
				sample = sample[:200]
			}
			_ = artifact.WriteJSON(
				filepath.Join(opts.DebugDir, fmt.Sprintf("extracted_%02d.json", i)),
				map[string]any{"count": len(raw), "sample": sample},
			)
		}

		newAny := col.add(raw)
		seen, dated := col.counts()
		b.log.WithFields(logrus.Fields{"scroll": i, "seen": seen, "dated": dated}).Debug("scroll pass")

		if newAny {
			stall = 0
		} else {
			stall++
		}
		if stall >= opts.StallIters {
			break
		}

		// Scroll to the bottom to trigger the infinite loader.
		scrollCtx, cancel := context.WithTimeout(b.ctx, 10*time.Second)
		_ = chromedp.Run(scrollCtx, chromedp.Evaluate(`window.scrollTo(0, document.body.scrollHeight)`, nil))
		cancel()
		time.Sleep(1600 * time.Millisecond)
	}
	b.saveDebugPage(opts.DebugDir, "advertiser_final")

	return col.candidates(advertiserURL, time.Now(), opts.TopN), nil
}

// scrapeAdDetails opens an ad's detail page and extracts its creative URLs
// and text.
func (b *browser) scrapeAdDetails(adArchiveID string) (*AdDetails, error) {
	detailURL := "https://www.facebook.com/ads/library/?id=" + url.QueryEscape(adArchiveID)

	navCtx, cancel := context.WithTimeout(b.ctx, b.timeout)
	err := chromedp.Run(navCtx, chromedp.Navigate(detailURL))
	cancel()
	if err != nil {
		return nil, fmt.Errorf("loading ad %s: %w", adArchiveID, err)
	}
	b.dismissModals()
	time.Sleep(1500 * time.Millisecond)
	b.dismissModals()

	var details AdDetails
	evalCtx, cancel := context.WithTimeout(b.ctx, 15*time.Second)
	defer cancel()
	if err := chromedp.Run(evalCtx, chromedp.Evaluate(extractDetailsJS, &details)); err != nil {
		return nil, fmt.Errorf("extracting ad %s details: %w", adArchiveID, err)
	}
	details.AdArchiveID = adArchiveID
	details.DetailURL = detailURL
	return &details, nil
}
