package scrape

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-shiori/go-readability"
)

const ArticlePlaceholder = "Full article content is unavailable. Use the headline and summary as the source material."

type ArticleReader struct {
	httpClient *http.Client
	userAgent  string
	timeout    time.Duration
}

func NewArticleReader(httpClient *http.Client, userAgent string, timeout time.Duration) *ArticleReader {
	return &ArticleReader{
		httpClient: httpClient,
		userAgent:  userAgent,
		timeout:    timeout,
	}
}

// Text returns the readable text of an article, truncated to
// ArticleTextLimit runes. On any failure it returns ArticlePlaceholder.
func (r *ArticleReader) Text(ctx context.Context, pageURL string) string {
	text, err := r.extract(ctx, pageURL)
	if err != nil {
		slog.Warn("Failed to read article", "url", pageURL, "error", err)
		return ArticlePlaceholder
	}
	return text
}

func (r *ArticleReader) extract(ctx context.Context, pageURL string) (string, error) {
	parsedURL, err := url.Parse(pageURL)
	if err != nil || !parsedURL.IsAbs() {
		return "", fmt.Errorf("invalid article URL: %q", pageURL)
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", r.userAgent)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch article: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("HTTP error: %d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	article, err := readability.FromReader(io.LimitReader(resp.Body, maxPageBytes), parsedURL)
	if err != nil {
		return "", fmt.Errorf("failed to extract content: %w", err)
	}

	text := strings.Join(strings.Fields(article.TextContent), " ")
	if text == "" {
		return "", fmt.Errorf("no content extracted from article")
	}

	if runes := []rune(text); len(runes) > ArticleTextLimit {
		text = string(runes[:ArticleTextLimit])
	}

	return text, nil
}
