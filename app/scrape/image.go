package scrape

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

var metaImageSelectors = []struct {
	selector string
	attr     string
}{
	{`meta[property="og:image"]`, "content"},
	{`meta[property="og:image:url"]`, "content"},
	{`meta[property="og:image:secure_url"]`, "content"},
	{`meta[name="twitter:image"]`, "content"},
	{`meta[name="twitter:image:src"]`, "content"},
	{`meta[property="twitter:image"]`, "content"},
	{`meta[name="image"]`, "content"},
	{`link[rel="image_src"]`, "href"},
}

var decorativeImageMarkers = []string{"icon", "logo", "sprite", "avatar", "pixel", "data:"}

type ImageExtractor struct {
	httpClient  *http.Client
	userAgent   string
	pageTimeout time.Duration
	headTimeout time.Duration
	throttle    Throttle
	cache       ImageCache
}

func NewImageExtractor(httpClient *http.Client, userAgent string, pageTimeout, headTimeout time.Duration, throttle Throttle, cache ImageCache) *ImageExtractor {
	if cache == nil {
		cache = NopImageCache{}
	}
	return &ImageExtractor{
		httpClient:  httpClient,
		userAgent:   userAgent,
		pageTimeout: pageTimeout,
		headTimeout: headTimeout,
		throttle:    throttle,
		cache:       cache,
	}
}

// Run resolves an image for every candidate. Failures leave
// ExtractedImageURL empty and never abort the batch.
func (e *ImageExtractor) Run(ctx context.Context, candidates []Candidate) []Candidate {
	out := make([]Candidate, len(candidates))
	copy(out, candidates)

	e.throttle.Run(ctx, len(out), func(ctx context.Context, i int) error {
		imageURL, err := e.Extract(ctx, out[i])
		if err != nil {
			slog.Warn("Failed to extract image", "link", out[i].Link, "error", err)
			return err
		}
		out[i].ExtractedImageURL = imageURL
		return nil
	})

	found := 0
	for _, c := range out {
		if c.ExtractedImageURL != "" {
			found++
		}
	}
	slog.Info("Image extraction finished", "items", len(out), "found", found)

	return out
}

// Extract returns a validated absolute image URL for the candidate, or an
// empty string when none could be found.
func (e *ImageExtractor) Extract(ctx context.Context, c Candidate) (string, error) {
	if c.ImageURL != "" {
		if resolved := resolveURL(c.Link, c.ImageURL); resolved != "" && e.validate(ctx, resolved) {
			return resolved, nil
		}
	}

	if c.Link == "" {
		return "", nil
	}

	if cached, ok, err := e.cache.Get(ctx, c.Link); err != nil {
		slog.Warn("Image cache unavailable", "error", err)
	} else if ok {
		return cached, nil
	}

	page, err := e.fetchPage(ctx, c.Link)
	if err != nil {
		return "", err
	}

	found, err := FindPageImage(bytes.NewReader(page), c.Link)
	if err != nil {
		return "", err
	}
	if found == "" || !e.validate(ctx, found) {
		return "", nil
	}

	if err := e.cache.Set(ctx, c.Link, found); err != nil {
		slog.Warn("Image cache unavailable", "error", err)
	}

	return found, nil
}

// FindPageImage scans article HTML for Open Graph, Twitter Card and generic
// image hints, then the first non-decorative <img>. The result is resolved
// against pageURL.
func FindPageImage(r io.Reader, pageURL string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return "", fmt.Errorf("failed to parse page: %w", err)
	}

	for _, s := range metaImageSelectors {
		if value, ok := doc.Find(s.selector).First().Attr(s.attr); ok && strings.TrimSpace(value) != "" {
			return resolveURL(pageURL, value), nil
		}
	}

	var found string
	doc.Find("img[src]").EachWithBreak(func(_ int, img *goquery.Selection) bool {
		src := strings.TrimSpace(img.AttrOr("src", ""))
		if src == "" || isDecorative(src) {
			return true
		}
		found = resolveURL(pageURL, src)
		return found == ""
	})

	return found, nil
}

func (e *ImageExtractor) fetchPage(ctx context.Context, pageURL string) ([]byte, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, e.pageTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", e.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read page: %w", err)
	}

	return data, nil
}

// validate issues a HEAD request and accepts 2xx responses with an image
// content type.
func (e *ImageExtractor) validate(ctx context.Context, imageURL string) bool {
	timeoutCtx, cancel := context.WithTimeout(ctx, e.headTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, http.MethodHead, imageURL, nil)
	if err != nil {
		return false
	}
	req.Header.Set("User-Agent", e.userAgent)

	resp, err := e.httpClient.Do(req)
	if err != nil {
		slog.Debug("Image validation failed", "url", imageURL, "error", err)
		return false
	}
	resp.Body.Close()

	contentType := strings.ToLower(resp.Header.Get("Content-Type"))
	return resp.StatusCode >= 200 && resp.StatusCode <= 299 && strings.HasPrefix(contentType, "image/")
}

func resolveURL(base, ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}

	refURL, err := url.Parse(ref)
	if err != nil {
		return ""
	}
	if refURL.IsAbs() {
		return refURL.String()
	}

	baseURL, err := url.Parse(strings.TrimSpace(base))
	if err != nil || !baseURL.IsAbs() {
		return ""
	}

	return baseURL.ResolveReference(refURL).String()
}

func isDecorative(src string) bool {
	lower := strings.ToLower(src)
	for _, marker := range decorativeImageMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}
