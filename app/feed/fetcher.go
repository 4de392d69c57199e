package feed

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

const maxFeedBytes = 5 << 20

type Fetcher struct {
	httpClient *http.Client
	parser     FeedParser
	userAgent  string
	timeout    time.Duration
	now        func() time.Time
}

func NewFetcher(httpClient *http.Client, parser FeedParser, userAgent string, timeout time.Duration) *Fetcher {
	return &Fetcher{
		httpClient: httpClient,
		parser:     parser,
		userAgent:  userAgent,
		timeout:    timeout,
		now:        time.Now,
	}
}

// Fetch downloads and parses one feed. Failures are reported in the result
// rather than returned, so one bad feed never aborts a batch.
func (f *Fetcher) Fetch(ctx context.Context, source Source) FetchResult {
	result := FetchResult{Source: source}

	data, err := f.download(ctx, source.URL)
	if err != nil {
		slog.Warn("Failed to fetch feed", "feed", source.Name, "url", source.URL, "error", err)
		result.Error = err.Error()
		return result
	}

	items, err := f.parser.Run(data, source, f.now())
	if err != nil {
		slog.Warn("Failed to parse feed", "feed", source.Name, "url", source.URL, "error", err)
		result.Error = err.Error()
		return result
	}

	result.Success = true
	result.Items = items

	slog.Debug("Feed fetched", "feed", source.Name, "items", len(items))

	return result
}

func (f *Fetcher) download(ctx context.Context, url string) ([]byte, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "application/rss+xml, application/atom+xml, application/xml, text/xml;q=0.9, */*;q=0.8")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxFeedBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return data, nil
}
